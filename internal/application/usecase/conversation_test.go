package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/repository"
	"github.com/heartline/heartline/internal/domain/service"
	"github.com/heartline/heartline/internal/domain/valueobject"
	"github.com/heartline/heartline/internal/infrastructure/persistence"
	apperrors "github.com/heartline/heartline/pkg/errors"
)

type convFixture struct {
	uc     *ConversationUseCase
	engine *service.ProgressionEngine
	convs  repository.ConversationRepository
	msgs   repository.MessageRepository
}

func newConvFixture(t *testing.T) *convFixture {
	t.Helper()
	logger := testLogger()
	convs := persistence.NewMemoryConversationRepository()
	msgs := persistence.NewMemoryMessageRepository()
	roster := service.NewRoster(convs, logger)
	engine := service.NewProgressionEngine(convs, msgs, roster, logger)
	uc := NewConversationUseCase(convs, msgs, roster, engine, logger)
	return &convFixture{uc: uc, engine: engine, convs: convs, msgs: msgs}
}

func (f *convFixture) seed(t *testing.T, id, name string, position, progress int, unlocked bool) {
	t.Helper()
	conv := entity.ReconstructConversation(
		id, name, "", position, progress, unlocked, 3, false, "", "", time.Now())
	if err := f.convs.Save(context.Background(), conv); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestConversationList(t *testing.T) {
	f := newConvFixture(t)
	f.seed(t, "c2", "Alex", 1, 50, false)
	f.seed(t, "c1", "Taylor", 0, 50, true)

	msg, _ := entity.NewMessage("m1", "c1", valueobject.AuthorThem, "see you then!")
	_ = f.msgs.Save(context.Background(), msg)

	views, err := f.uc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d views, want 2", len(views))
	}
	if views[0].ID != "c1" || views[1].ID != "c2" {
		t.Errorf("order: got %s, %s", views[0].ID, views[1].ID)
	}
	if views[0].LastMessage != "see you then!" {
		t.Errorf("preview: got %q", views[0].LastMessage)
	}
	if views[1].LastMessage != "" {
		t.Errorf("empty conversation has no preview, got %q", views[1].LastMessage)
	}
}

func TestConversationGet_CapsDisplayedProgress(t *testing.T) {
	f := newConvFixture(t)
	f.seed(t, "c1", "Taylor", 0, 100, true)

	view, err := f.uc.Get(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Progress != entity.QuizGate {
		t.Errorf("progress: got %d, want %d", view.Progress, entity.QuizGate)
	}
	if view.Complete {
		t.Error("capped conversation is not complete")
	}
}

func TestConversationGet_NotFound(t *testing.T) {
	f := newConvFixture(t)

	_, err := f.uc.Get(context.Background(), "nope")
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestConversationCreate(t *testing.T) {
	f := newConvFixture(t)

	view, created, err := f.uc.Create(context.Background(), "Riley", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created {
		t.Error("expected created=true")
	}
	if !view.Unlocked {
		t.Error("first contact starts unlocked")
	}

	again, created, err := f.uc.Create(context.Background(), "riley", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created {
		t.Error("duplicate must not report created")
	}
	if again.ID != view.ID {
		t.Errorf("dedupe: got %s, want %s", again.ID, view.ID)
	}

	_, _, err = f.uc.Create(context.Background(), "  ", "", "")
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestConversationReset(t *testing.T) {
	f := newConvFixture(t)
	f.seed(t, "c1", "Taylor", 0, 75, true)
	msg, _ := entity.NewMessage("m1", "c1", valueobject.AuthorMe, "hi")
	_ = f.msgs.Save(context.Background(), msg)

	view, err := f.uc.Reset(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if view.Progress != entity.DefaultProgress {
		t.Errorf("progress: got %d, want %d", view.Progress, entity.DefaultProgress)
	}
	if view.LastMessage != "" {
		t.Error("messages should be gone after reset")
	}
}

func TestConversationNextUnlocked(t *testing.T) {
	f := newConvFixture(t)
	f.seed(t, "c1", "Taylor", 0, 50, true)
	f.seed(t, "c2", "Alex", 1, 50, false)

	// Still locked: the advance prompt has nothing to offer.
	if _, err := f.uc.NextUnlocked(context.Background(), "c1"); err == nil {
		t.Error("locked successor should yield not-found")
	}

	c2, _ := f.convs.FindByID(context.Background(), "c2")
	c2.Unlock()
	_ = f.convs.Save(context.Background(), c2)

	view, err := f.uc.NextUnlocked(context.Background(), "c1")
	if err != nil {
		t.Fatalf("NextUnlocked: %v", err)
	}
	if view.ID != "c2" {
		t.Errorf("got %s, want c2", view.ID)
	}
}

func TestConversationMessages(t *testing.T) {
	f := newConvFixture(t)
	f.seed(t, "c1", "Taylor", 0, 50, true)
	m1, _ := entity.NewMessage("m1", "c1", valueobject.AuthorMe, "hello")
	m2, _ := entity.NewMessage("m2", "c1", valueobject.AuthorThem, "hey!")
	_ = f.msgs.Save(context.Background(), m1)
	_ = f.msgs.Save(context.Background(), m2)

	views, err := f.uc.Messages(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d messages, want 2", len(views))
	}
	if views[0].Author != "me" || views[1].Author != "them" {
		t.Errorf("authors: %s, %s", views[0].Author, views[1].Author)
	}

	if _, err := f.uc.Messages(context.Background(), "nope"); err == nil {
		t.Error("unknown conversation should yield not-found")
	}
}
