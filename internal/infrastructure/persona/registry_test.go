package persona

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/heartline/heartline/internal/domain/entity"
)

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func conversation(id, name, overrideDesc, overrideSystem string) *entity.Conversation {
	return entity.ReconstructConversation(
		id, name, "", 0, 50, true, 3, false, overrideDesc, overrideSystem, time.Now())
}

// === Resolution order ===

func TestResolve_BuiltinsByID(t *testing.T) {
	r := NewRegistry("", testLogger())

	p := r.Resolve(conversation("c1", "Whoever", "", ""))
	if p.Name != "Taylor" {
		t.Errorf("id match wins over name: got %q", p.Name)
	}
}

func TestResolve_ByNameCaseInsensitive(t *testing.T) {
	r := NewRegistry("", testLogger())

	p := r.Resolve(conversation("c_custom", "ALEX", "", ""))
	if p.ID != "c2" {
		t.Errorf("expected the Alex builtin, got %q", p.ID)
	}
}

func TestResolve_ConversationOverrideWins(t *testing.T) {
	r := NewRegistry("", testLogger())

	p := r.Resolve(conversation("c1", "Taylor", "grumpy today", "You are grumpy Taylor."))
	if p.Description != "grumpy today" {
		t.Errorf("override description: got %q", p.Description)
	}
	if p.System != "You are grumpy Taylor." {
		t.Errorf("override system: got %q", p.System)
	}

	// A system-only override still produces a usable description.
	p = r.Resolve(conversation("c1", "Taylor", "", "Just the prompt."))
	if p.Description != "Custom persona." {
		t.Errorf("default description: got %q", p.Description)
	}
}

func TestResolve_GenericFallback(t *testing.T) {
	r := NewRegistry("", testLogger())

	p := r.Resolve(conversation("c_unknown", "Morgan", "", ""))
	if p.Name != "Morgan" {
		t.Errorf("fallback keeps the conversation name: got %q", p.Name)
	}
	if p.Description == "" {
		t.Error("fallback needs a description")
	}
}

// === YAML pack ===

func TestLoadPack_MergesOverBuiltins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personas.yaml")
	pack := `personas:
  - id: c1
    name: Taylor
    description: Rewritten by the pack.
    system: You are pack Taylor.
  - id: c9
    name: Jordan
    description: Pack-only persona.
`
	if err := os.WriteFile(path, []byte(pack), 0o644); err != nil {
		t.Fatalf("write pack: %v", err)
	}

	r := NewRegistry(path, testLogger())
	if err := r.LoadPack(); err != nil {
		t.Fatalf("LoadPack: %v", err)
	}

	taylor := r.Resolve(conversation("c1", "Taylor", "", ""))
	if taylor.Description != "Rewritten by the pack." {
		t.Errorf("pack entry should override the builtin: got %q", taylor.Description)
	}

	jordan := r.Resolve(conversation("c9", "Jordan", "", ""))
	if jordan.Description != "Pack-only persona." {
		t.Errorf("pack-only persona missing: got %q", jordan.Description)
	}

	// Untouched builtins survive the merge.
	alex := r.Resolve(conversation("c2", "Alex", "", ""))
	if alex.Description == "" || alex.Name != "Alex" {
		t.Errorf("builtin lost after merge: %+v", alex)
	}
}

func TestLoadPack_MissingFileIsFine(t *testing.T) {
	r := NewRegistry(filepath.Join(t.TempDir(), "nope.yaml"), testLogger())
	if err := r.LoadPack(); err != nil {
		t.Errorf("missing pack must not error: %v", err)
	}
	if p := r.Resolve(conversation("c1", "Taylor", "", "")); p.Name != "Taylor" {
		t.Error("builtins should still resolve")
	}
}

func TestLoadPack_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personas.yaml")
	if err := os.WriteFile(path, []byte("personas: [unclosed"), 0o644); err != nil {
		t.Fatalf("write pack: %v", err)
	}

	r := NewRegistry(path, testLogger())
	if err := r.LoadPack(); err == nil {
		t.Error("expected a parse error")
	}
}

func TestAll(t *testing.T) {
	r := NewRegistry("", testLogger())
	all := r.All()
	if len(all) != 3 {
		t.Errorf("builtin count: got %d, want 3", len(all))
	}
}
