package service

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestNarrator() (*Narrator, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewNarrator(testLogger()).WithClock(clock.now), clock
}

// === Pre-send guard ===

func TestGuardSend_WarnsAtLowProgress(t *testing.T) {
	narrator, _ := newTestNarrator()

	w := narrator.GuardSend(25)
	if w == nil {
		t.Fatal("expected a warning at the threshold")
	}
	if !w.Blocking {
		t.Error("pre-send warning must block the send")
	}
	if w.Critical {
		t.Error("pre-send warning is not critical")
	}
}

func TestGuardSend_SilentAboveThreshold(t *testing.T) {
	narrator, _ := newTestNarrator()

	if w := narrator.GuardSend(26); w != nil {
		t.Errorf("expected no warning above 25, got %+v", w)
	}
}

func TestGuardSend_Cooldown(t *testing.T) {
	narrator, clock := newTestNarrator()

	if narrator.GuardSend(10) == nil {
		t.Fatal("expected first warning")
	}

	clock.advance(14 * time.Second)
	if w := narrator.GuardSend(10); w != nil {
		t.Errorf("expected silence inside the 15s window, got %+v", w)
	}

	clock.advance(2 * time.Second)
	if narrator.GuardSend(10) == nil {
		t.Error("expected warning after the window elapsed")
	}
}

// === Post-score warning ===

func TestAfterScore_SteepDrop(t *testing.T) {
	narrator, _ := newTestNarrator()

	w := narrator.AfterScore(-20, 60)
	if w == nil {
		t.Fatal("expected a warning on a steep drop")
	}
	if !w.Critical {
		t.Error("post-score warning must be critical")
	}
	if w.Blocking {
		t.Error("post-score warning never blocks")
	}
}

func TestAfterScore_LowResult(t *testing.T) {
	narrator, _ := newTestNarrator()

	if narrator.AfterScore(-5, 25) == nil {
		t.Error("expected a warning when resulting progress is at 25")
	}
}

func TestAfterScore_Silent(t *testing.T) {
	narrator, _ := newTestNarrator()

	if w := narrator.AfterScore(-19, 26); w != nil {
		t.Errorf("expected no warning, got %+v", w)
	}
}

func TestAfterScore_Cooldown(t *testing.T) {
	narrator, clock := newTestNarrator()

	if narrator.AfterScore(-25, 40) == nil {
		t.Fatal("expected first warning")
	}

	clock.advance(19 * time.Second)
	if w := narrator.AfterScore(-25, 40); w != nil {
		t.Errorf("expected silence inside the 20s window, got %+v", w)
	}

	clock.advance(2 * time.Second)
	if narrator.AfterScore(-25, 40) == nil {
		t.Error("expected warning after the window elapsed")
	}
}

// === Shared cooldown across triggers ===

func TestNarrator_CooldownIsShared(t *testing.T) {
	narrator, clock := newTestNarrator()

	if narrator.AfterScore(-25, 40) == nil {
		t.Fatal("expected post-score warning")
	}

	clock.advance(10 * time.Second)
	if w := narrator.GuardSend(10); w != nil {
		t.Errorf("post-score warning should suppress the pre-send guard, got %+v", w)
	}

	clock.advance(6 * time.Second)
	if narrator.GuardSend(10) == nil {
		t.Error("pre-send guard should fire once its 15s window has passed")
	}
}
