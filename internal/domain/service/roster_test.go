package service

import (
	"context"
	"testing"
	"time"

	"github.com/heartline/heartline/internal/domain/entity"
)

// === Normalization ===

func TestRosterLoad_UnlocksFirstConversation(t *testing.T) {
	repo := newFakeConversationRepo()
	roster := NewRoster(repo, testLogger())
	seedConv(t, repo, "c1", 0, 50, 3, false, false)
	seedConv(t, repo, "c2", 1, 50, 3, false, false)

	convs, err := roster.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(convs))
	}
	if !convs[0].Unlocked() {
		t.Error("first conversation must always be unlocked")
	}
	if convs[1].Unlocked() {
		t.Error("second conversation stays locked behind an incomplete predecessor")
	}
}

func TestRosterLoad_UnlocksAfterCompletedPredecessor(t *testing.T) {
	repo := newFakeConversationRepo()
	roster := NewRoster(repo, testLogger())
	seedConv(t, repo, "c1", 0, 100, 3, true, true)
	seedConv(t, repo, "c2", 1, 50, 3, false, false)
	seedConv(t, repo, "c3", 2, 50, 3, false, false)

	convs, err := roster.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !convs[1].Unlocked() {
		t.Error("predecessor at 100 should unlock the successor")
	}
	if convs[2].Unlocked() {
		t.Error("unlock must not skip ahead of an incomplete conversation")
	}

	// Normalization persists the change.
	c2, _ := repo.FindByID(context.Background(), "c2")
	if !c2.Unlocked() {
		t.Error("unlock not persisted")
	}
}

func TestRosterLoad_OrdersByPosition(t *testing.T) {
	repo := newFakeConversationRepo()
	roster := NewRoster(repo, testLogger())
	seedConv(t, repo, "c3", 2, 50, 3, false, false)
	seedConv(t, repo, "c1", 0, 50, 3, true, false)
	seedConv(t, repo, "c2", 1, 50, 3, false, false)

	convs, err := roster.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i, wantID := range []string{"c1", "c2", "c3"} {
		if convs[i].ID() != wantID {
			t.Errorf("position %d: got %s, want %s", i, convs[i].ID(), wantID)
		}
	}
}

// === Search ===

func TestRosterSearch(t *testing.T) {
	repo := newFakeConversationRepo()
	roster := NewRoster(repo, testLogger())
	taylor := entity.ReconstructConversation("c1", "Taylor", "+1 555 0101", 0, 50, true, 3, false, "", "", time.Now())
	alex := entity.ReconstructConversation("c2", "Alex", "+1 555 0102", 1, 50, false, 3, false, "", "", time.Now())
	_ = repo.Save(context.Background(), taylor)
	_ = repo.Save(context.Background(), alex)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty query returns all", "", []string{"c1", "c2"}},
		{"case-insensitive name", "TAY", []string{"c1"}},
		{"phone substring", "0102", []string{"c2"}},
		{"no match", "zzz", nil},
		{"whitespace trimmed", "  alex  ", []string{"c2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			convs, err := roster.Search(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(convs) != len(tt.want) {
				t.Fatalf("got %d results, want %d", len(convs), len(tt.want))
			}
			for i, wantID := range tt.want {
				if convs[i].ID() != wantID {
					t.Errorf("result %d: got %s, want %s", i, convs[i].ID(), wantID)
				}
			}
		})
	}
}

// === Next ===

func TestRosterNext(t *testing.T) {
	repo := newFakeConversationRepo()
	roster := NewRoster(repo, testLogger())
	seedConv(t, repo, "c1", 0, 50, 3, true, false)
	seedConv(t, repo, "c2", 1, 50, 3, false, false)

	next, err := roster.Next(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next == nil || next.ID() != "c2" {
		t.Errorf("expected c2, got %v", next)
	}

	last, err := roster.Next(context.Background(), "c2")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if last != nil {
		t.Errorf("expected nil after the last conversation, got %s", last.ID())
	}

	unknown, err := roster.Next(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if unknown != nil {
		t.Error("unknown id should yield nil")
	}
}

// === Create ===

func TestRosterCreate(t *testing.T) {
	repo := newFakeConversationRepo()
	roster := NewRoster(repo, testLogger())

	first, created, err := roster.Create(context.Background(), "Riley", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created {
		t.Fatal("expected created=true for a new name")
	}
	if !first.Unlocked() {
		t.Error("first conversation starts unlocked")
	}
	if first.Position() != 0 {
		t.Errorf("first position: got %d, want 0", first.Position())
	}
	if first.Progress() != entity.DefaultProgress {
		t.Errorf("progress: got %d, want %d", first.Progress(), entity.DefaultProgress)
	}

	second, created, err := roster.Create(context.Background(), "Sam", "dry humor", "You are Sam.")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created {
		t.Fatal("expected created=true")
	}
	if second.Unlocked() {
		t.Error("later conversations start locked")
	}
	if second.Position() != 1 {
		t.Errorf("second position: got %d, want 1", second.Position())
	}
	if second.PersonaDescription() != "dry humor" || second.PersonaSystem() != "You are Sam." {
		t.Error("persona override not applied")
	}

	// Case-insensitive dedupe returns the existing row.
	dup, created, err := roster.Create(context.Background(), "riley", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created {
		t.Error("duplicate name must not report created")
	}
	if dup.ID() != first.ID() {
		t.Errorf("dedupe returned %s, want %s", dup.ID(), first.ID())
	}

	if _, _, err := roster.Create(context.Background(), "   ", "", ""); err != entity.ErrInvalidConversationName {
		t.Errorf("expected ErrInvalidConversationName, got %v", err)
	}
}
