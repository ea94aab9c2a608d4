package service

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Narrator warning thresholds and cooldowns. Both triggers share one cooldown
// clock: a warning from either source suppresses the other for its window.
const (
	lowProgressThreshold = 25
	steepDropDelta       = -20

	preSendCooldown   = 15 * time.Second
	postScoreCooldown = 20 * time.Second
)

// Warning is a narrator interjection shown to the player.
type Warning struct {
	Text     string `json:"text"`
	Critical bool   `json:"critical"`
	// Blocking warnings soft-block the send: the message is not appended and
	// the player must resend.
	Blocking bool `json:"blocking"`
}

// Narrator decides when to interject with a warning about the conversation
// trending poorly. Stateless apart from the shared cooldown timestamp.
type Narrator struct {
	mu       sync.Mutex
	lastWarn time.Time
	now      func() time.Time
	logger   *zap.Logger
}

// NewNarrator creates a narrator with the real clock.
func NewNarrator(logger *zap.Logger) *Narrator {
	return &Narrator{
		now:    time.Now,
		logger: logger.With(zap.String("component", "narrator")),
	}
}

// WithClock overrides the clock, for tests.
func (n *Narrator) WithClock(now func() time.Time) *Narrator {
	n.now = now
	return n
}

// GuardSend is the pre-send check: when displayed progress is at or below 25
// the narrator warns before the message is sent and soft-blocks the send.
// Returns nil when the send may proceed.
func (n *Narrator) GuardSend(displayedProgress int) *Warning {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	if now.Sub(n.lastWarn) < preSendCooldown {
		return nil
	}
	if displayedProgress > lowProgressThreshold {
		return nil
	}

	n.lastWarn = now
	n.logger.Debug("Pre-send narrator warning", zap.Int("displayed", displayedProgress))
	return &Warning{
		Text:     "You are about to lose the date. Consider a warmer, thoughtful message.",
		Blocking: true,
	}
}

// AfterScore is the post-score check: a steep drop (delta <= -20) or a
// resulting progress at or below 25 produces a critical warning. The message
// has already been sent; nothing is blocked.
func (n *Narrator) AfterScore(delta, resultingProgress int) *Warning {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	if now.Sub(n.lastWarn) < postScoreCooldown {
		return nil
	}
	if delta > steepDropDelta && resultingProgress > lowProgressThreshold {
		return nil
	}

	n.lastWarn = now
	n.logger.Debug("Post-score narrator warning",
		zap.Int("delta", delta),
		zap.Int("resulting", resultingProgress),
	)
	return &Warning{
		Text:     "Critical: interest is very low. Think carefully before you send your next line.",
		Critical: true,
	}
}
