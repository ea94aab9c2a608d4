package oracle

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/service"
)

// Keyword cues for the offline scorer. Matches accumulate; a message can hit
// several cues at once.
var (
	cueApology    = regexp.MustCompile(`(?i)sorry|apolog`)
	cuePoliteness = regexp.MustCompile(`(?i)please|thanks|thank you|appreciate`)
	cueInvitation = regexp.MustCompile(`(?i)coffee|dinner|date|lunch|hang|meet`)
	cueDismissive = regexp.MustCompile(`(?i)ghost|ignore|annoy|creepy|desperate`)
	cueInsult     = regexp.MustCompile(`(?i)rude|stupid|dumb|idiot|hate|ugly|shut up`)
	cueFlaky      = regexp.MustCompile(`(?i)late|busy|can't|cannot|no\b|meh|whatever`)

	replyGreeting = regexp.MustCompile(`(?i)hello|hi|hey`)
	replyCoffee   = regexp.MustCompile(`(?i)coffee|tea`)
	replyMeal     = regexp.MustCompile(`(?i)dinner|lunch`)
)

// HeuristicTier is the always-on offline fallback. It generates canned
// replies, keyword-based scores, and a fixed comprehension quiz, so the
// game stays playable with no remote oracle configured.
type HeuristicTier struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeuristicTier creates the fallback tier.
func NewHeuristicTier() *HeuristicTier {
	return &HeuristicTier{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewHeuristicTierWithSeed creates a deterministic fallback tier for tests.
func NewHeuristicTierWithSeed(seed int64) *HeuristicTier {
	return &HeuristicTier{
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (t *HeuristicTier) Name() string { return "heuristic" }

func (t *HeuristicTier) Available() bool { return true }

// Reply implements Tier.
func (t *HeuristicTier) Reply(_ context.Context, req *service.OracleRequest) (string, error) {
	last := strings.TrimSpace(req.UserMessage)
	tone := "🙂"
	if strings.Contains(strings.ToLower(req.Persona.Description), "sarcastic") {
		tone = "😏"
	}
	prefix := "Reply:"
	if req.Persona.Name != "" {
		prefix = req.Persona.Name + ":"
	}

	switch {
	case replyGreeting.MatchString(last):
		return fmt.Sprintf("%s Hey! %s", prefix, tone), nil
	case replyCoffee.MatchString(last):
		return fmt.Sprintf("%s Sounds good, when works for you? %s", prefix, tone), nil
	case replyMeal.MatchString(last):
		return fmt.Sprintf("%s I'm in. Where were you thinking? %s", prefix, tone), nil
	}

	// Echo back some continuity when the persona has spoken before.
	for i := len(req.History) - 1; i >= 0; i-- {
		if !req.History[i].Author.IsMe() {
			return fmt.Sprintf("%s Haha, got it %s", prefix, tone), nil
		}
	}
	return fmt.Sprintf("%s got it %s", prefix, tone), nil
}

// Score implements Tier. Cues accumulate: a polite invitation scores +14, an
// insult buries everything else.
func (t *HeuristicTier) Score(_ context.Context, req *service.OracleRequest) (*service.ScoreResult, error) {
	text := req.UserMessage
	delta := 0

	if cueApology.MatchString(text) {
		delta += 4
	}
	if cuePoliteness.MatchString(text) {
		delta += 6
	}
	if cueInvitation.MatchString(text) {
		delta += 8
	}
	if cueDismissive.MatchString(text) {
		delta -= 25
	}
	if cueInsult.MatchString(text) {
		delta -= 40
	}
	if cueFlaky.MatchString(text) {
		delta -= 8
	}

	if delta == 0 {
		// Neutral message: small drift so the meter never fully stalls.
		t.mu.Lock()
		if t.rng.Float64() < 0.33 {
			delta = 2
		} else if t.rng.Float64() < 0.5 {
			delta = 0
		} else {
			delta = -2
		}
		t.mu.Unlock()
	}

	return &service.ScoreResult{Delta: ClampDelta(float64(delta)), Reason: "stub"}, nil
}

// Quiz implements Tier.
func (t *HeuristicTier) Quiz(_ context.Context, req *service.OracleRequest) (*entity.Quiz, error) {
	name := req.Persona.Name
	if name == "" {
		name = "Your match"
	}
	return &entity.Quiz{
		ID:      req.Persona.ID + "-" + uuid.NewString(),
		Persona: name,
		Questions: []entity.QuizQuestion{
			{
				ID:   "q1",
				Type: "mcq",
				Text: fmt.Sprintf("%s had a tough day. What is the best first reply?", name),
				Options: []string{
					"It's not a big deal, you'll be fine.",
					"I'm here. Want to talk about it or decompress together?",
					"Ignore it and focus on the positive.",
					"You should have handled it better.",
				},
				CorrectIndex: 1,
				Rationale:    "Validate feelings and offer support without pressure.",
			},
		},
		PassMinCorrect: 1,
	}, nil
}
