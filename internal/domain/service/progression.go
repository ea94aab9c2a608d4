package service

import (
	"context"
	"sync"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/repository"
	"go.uber.org/zap"
)

// Engine-side delta clamp, applied on top of the oracle's own [-50, 50]
// normalization. Large negative swings are softened to -25 before applying.
const (
	MinAppliedDelta = -25
	MaxAppliedDelta = 50

	// LossResetProgress is where the meter lands after a loss. A loss resets
	// the conversation to the starting position, not to zero.
	LossResetProgress = entity.DefaultProgress

	// QuizFailPenalty is the flat progress deduction for a failed quiz.
	QuizFailPenalty = 20
)

// Transition describes the outcome of one score event applied to a conversation.
type Transition struct {
	ConversationID string `json:"conversation_id"`
	RawDelta       int    `json:"raw_delta"`     // as returned by the oracle
	AppliedDelta   int    `json:"applied_delta"` // after engine clamp [-25, 50]
	RawNext        int    `json:"raw_next"`      // progress + applied delta, pre-gate
	Progress       int    `json:"progress"`      // stored (gated) progress
	Displayed      int    `json:"displayed"`     // read-side progress with the 80 cap
	Lives          int    `json:"lives"`
	LostLife       bool   `json:"lost_life"` // rawNext < 0: reset to 50, history wiped
	UnlockedNextID string `json:"unlocked_next_id,omitempty"`
	Completed      bool   `json:"completed"`
	QuizTriggered  bool   `json:"quiz_triggered"`
}

// QuizOutcome describes the result of resolving an open quiz.
type QuizOutcome struct {
	ConversationID string `json:"conversation_id"`
	Passed         bool   `json:"passed"`
	Correct        int    `json:"correct"`
	Progress       int    `json:"progress"`
	Displayed      int    `json:"displayed"`
	Lives          int    `json:"lives"`
	LostLife       bool   `json:"lost_life"`
}

// ProgressionEngine owns per-conversation progression state: interest meter,
// lives, unlock flag, and quiz-passed flag. All mutations for one conversation
// are serialized behind a per-conversation mutex so a score transition never
// reads a stale snapshot.
type ProgressionEngine struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	roster        *Roster
	logger        *zap.Logger

	mu          sync.Mutex
	locks       map[string]*sync.Mutex
	openQuizzes map[string]*entity.Quiz
	listeners   []func(Transition)
}

// NewProgressionEngine creates the progression engine.
func NewProgressionEngine(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	roster *Roster,
	logger *zap.Logger,
) *ProgressionEngine {
	return &ProgressionEngine{
		conversations: conversations,
		messages:      messages,
		roster:        roster,
		logger:        logger.With(zap.String("component", "progression-engine")),
		locks:         make(map[string]*sync.Mutex),
		openQuizzes:   make(map[string]*entity.Quiz),
	}
}

// OnTransition registers a listener called after every applied score event.
// Listeners run outside the conversation lock.
func (e *ProgressionEngine) OnTransition(fn func(Transition)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// ApplyScore applies one scored message event to a conversation.
//
// Rules, in order: clamp the delta to [-25, 50]; a pre-clamp next below zero is
// a loss (life deducted, progress reset to 50, message history wiped); otherwise
// clamp next to [0, 100] and gate it at 80 while the quiz is not passed. The
// pre-gate value drives the cascade unlock of the successor conversation, and
// the pre-update progress plus the raw delta decides the one-shot quiz trigger.
func (e *ProgressionEngine) ApplyScore(ctx context.Context, conversationID string, rawDelta int) (*Transition, error) {
	lock := e.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	conv, err := e.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	base := conv.Progress()
	applied := clampDelta(rawDelta)
	rawNext := base + applied

	lostLife := false
	next := rawNext
	if rawNext < 0 {
		lostLife = true
		conv.LoseLife()
		next = LossResetProgress
	}
	if next < entity.MinProgress {
		next = entity.MinProgress
	}
	if next > entity.MaxProgress {
		next = entity.MaxProgress
	}

	gated := next
	if !conv.QuizPassed() && gated > entity.QuizGate {
		gated = entity.QuizGate
	}
	conv.SetProgress(gated)

	if err := e.conversations.Save(ctx, conv); err != nil {
		return nil, err
	}

	// Cascade unlock uses the pre-gate value: crossing 100 unlocks the next
	// conversation in the ordered sequence exactly once.
	unlockedNext := ""
	if next >= entity.MaxProgress {
		successor, err := e.roster.Next(ctx, conversationID)
		if err != nil {
			e.logger.Warn("Failed to resolve successor conversation", zap.Error(err))
		} else if successor != nil && !successor.Unlocked() {
			successor.Unlock()
			if err := e.conversations.Save(ctx, successor); err != nil {
				return nil, err
			}
			unlockedNext = successor.ID()
		}
	}

	if lostLife {
		if err := e.messages.DeleteByConversationID(ctx, conversationID); err != nil {
			return nil, err
		}
	}

	// Quiz trigger is computed from the pre-update progress plus the raw
	// delta, not from the gated stored value, and does not re-fire while a
	// quiz is already open.
	quizTriggered := !conv.QuizPassed() &&
		base+rawDelta >= entity.QuizGate &&
		!e.HasOpenQuiz(conversationID)

	tr := Transition{
		ConversationID: conversationID,
		RawDelta:       rawDelta,
		AppliedDelta:   applied,
		RawNext:        rawNext,
		Progress:       conv.Progress(),
		Displayed:      conv.DisplayProgress(),
		Lives:          conv.Lives(),
		LostLife:       lostLife,
		UnlockedNextID: unlockedNext,
		Completed:      conv.IsComplete(),
		QuizTriggered:  quizTriggered,
	}

	e.logger.Info("Score applied",
		zap.String("conversation_id", conversationID),
		zap.Int("raw_delta", rawDelta),
		zap.Int("applied_delta", applied),
		zap.Int("progress", tr.Progress),
		zap.Int("lives", tr.Lives),
		zap.Bool("lost_life", lostLife),
		zap.Bool("quiz_triggered", quizTriggered),
	)

	e.notify(tr)
	return &tr, nil
}

// OpenQuiz registers a generated quiz as the conversation's pending quiz.
func (e *ProgressionEngine) OpenQuiz(conversationID string, quiz *entity.Quiz) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, open := e.openQuizzes[conversationID]; open {
		return entity.ErrQuizPending
	}
	e.openQuizzes[conversationID] = quiz
	return nil
}

// OpenQuizFor returns the pending quiz for a conversation, if any.
func (e *ProgressionEngine) OpenQuizFor(conversationID string) (*entity.Quiz, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	quiz, ok := e.openQuizzes[conversationID]
	return quiz, ok
}

// HasOpenQuiz reports whether a quiz is currently open for the conversation.
func (e *ProgressionEngine) HasOpenQuiz(conversationID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.openQuizzes[conversationID]
	return ok
}

// ResolveQuiz grades the pending quiz and applies the outcome.
//
// Pass makes quizPassed permanent, removing the 80 gate for later score
// events. Fail deducts a flat 20 progress; landing exactly on zero is the same
// loss as a score-driven one (life deducted, progress 50, history wiped).
func (e *ProgressionEngine) ResolveQuiz(ctx context.Context, conversationID string, answers []int) (*QuizOutcome, error) {
	lock := e.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	e.mu.Lock()
	quiz, ok := e.openQuizzes[conversationID]
	if !ok {
		e.mu.Unlock()
		return nil, entity.ErrNoOpenQuiz
	}
	delete(e.openQuizzes, conversationID)
	e.mu.Unlock()

	conv, err := e.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	correct := quiz.Grade(answers)
	outcome := &QuizOutcome{
		ConversationID: conversationID,
		Correct:        correct,
	}

	if quiz.Passed(correct) {
		conv.PassQuiz()
		outcome.Passed = true
	} else {
		newProgress := conv.Progress() - QuizFailPenalty
		if newProgress < 0 {
			newProgress = 0
		}
		if newProgress == 0 {
			conv.LoseLife()
			conv.SetProgress(LossResetProgress)
			outcome.LostLife = true
			if err := e.messages.DeleteByConversationID(ctx, conversationID); err != nil {
				return nil, err
			}
		} else {
			conv.SetProgress(newProgress)
		}
	}

	if err := e.conversations.Save(ctx, conv); err != nil {
		return nil, err
	}

	outcome.Progress = conv.Progress()
	outcome.Displayed = conv.DisplayProgress()
	outcome.Lives = conv.Lives()

	e.logger.Info("Quiz resolved",
		zap.String("conversation_id", conversationID),
		zap.Bool("passed", outcome.Passed),
		zap.Int("correct", correct),
		zap.Int("progress", outcome.Progress),
		zap.Bool("lost_life", outcome.LostLife),
	)

	return outcome, nil
}

// Reset wipes the conversation's messages and resets progress to 50.
// Lives, unlock, and quizPassed are untouched.
func (e *ProgressionEngine) Reset(ctx context.Context, conversationID string) error {
	lock := e.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	conv, err := e.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return err
	}

	if err := e.messages.DeleteByConversationID(ctx, conversationID); err != nil {
		return err
	}

	conv.SetProgress(entity.DefaultProgress)
	if err := e.conversations.Save(ctx, conv); err != nil {
		return err
	}

	e.logger.Info("Conversation reset", zap.String("conversation_id", conversationID))
	return nil
}

// CanSend reports whether the composer is active for a conversation.
// Returns a sentinel error naming the first failing rule, or nil.
func (e *ProgressionEngine) CanSend(ctx context.Context, conversationID string) error {
	conv, err := e.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.Unlocked() {
		return entity.ErrConversationLocked
	}
	if conv.IsComplete() {
		return entity.ErrConversationComplete
	}
	if conv.Lives() <= 0 {
		return entity.ErrNoLivesLeft
	}
	if e.HasOpenQuiz(conversationID) {
		return entity.ErrQuizPending
	}
	return nil
}

// --- Internal ---

func (e *ProgressionEngine) lockFor(conversationID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[conversationID] = lock
	}
	return lock
}

func (e *ProgressionEngine) notify(tr Transition) {
	e.mu.Lock()
	listeners := make([]func(Transition), len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.Unlock()

	for _, fn := range listeners {
		fn(tr)
	}
}

func clampDelta(d int) int {
	if d < MinAppliedDelta {
		return MinAppliedDelta
	}
	if d > MaxAppliedDelta {
		return MaxAppliedDelta
	}
	return d
}
