package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/repository"
	"github.com/heartline/heartline/internal/domain/service"
	apperrors "github.com/heartline/heartline/pkg/errors"
)

// ConversationView is the read model handed to the interfaces: stored state
// plus the display-side fields the simulator renders (capped progress,
// completion, pending quiz, last message preview).
type ConversationView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone,omitempty"`
	Position    int       `json:"position"`
	Progress    int       `json:"progress"`
	Lives       int       `json:"lives"`
	Unlocked    bool      `json:"unlocked"`
	Complete    bool      `json:"complete"`
	QuizPassed  bool      `json:"quizPassed"`
	QuizPending bool      `json:"quizPending"`
	LastMessage string    `json:"lastMessage,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MessageView is one rendered chat line.
type MessageView struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConversationUseCase covers roster reads and the conversation lifecycle:
// list, detail, create, search, and reset.
type ConversationUseCase struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	roster        *service.Roster
	engine        *service.ProgressionEngine
	logger        *zap.Logger
}

// NewConversationUseCase creates the conversation use-case.
func NewConversationUseCase(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	roster *service.Roster,
	engine *service.ProgressionEngine,
	logger *zap.Logger,
) *ConversationUseCase {
	return &ConversationUseCase{
		conversations: conversations,
		messages:      messages,
		roster:        roster,
		engine:        engine,
		logger:        logger,
	}
}

// List returns all conversations in roster order.
func (uc *ConversationUseCase) List(ctx context.Context) ([]ConversationView, error) {
	convs, err := uc.conversations.FindAll(ctx)
	if err != nil {
		return nil, apperrors.NewInternalErrorWithCause("failed to list conversations", err)
	}
	return uc.toViews(ctx, convs), nil
}

// Search returns conversations whose name or phone contains the query,
// case-insensitively. An empty query behaves like List.
func (uc *ConversationUseCase) Search(ctx context.Context, query string) ([]ConversationView, error) {
	convs, err := uc.roster.Search(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalErrorWithCause("search failed", err)
	}
	return uc.toViews(ctx, convs), nil
}

// Get returns one conversation by ID.
func (uc *ConversationUseCase) Get(ctx context.Context, id string) (*ConversationView, error) {
	conv, err := uc.conversations.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFoundError("conversation not found")
	}
	view := uc.toView(ctx, conv)
	return &view, nil
}

// Messages returns the conversation's full message log in chronological order.
func (uc *ConversationUseCase) Messages(ctx context.Context, id string) ([]MessageView, error) {
	if _, err := uc.conversations.FindByID(ctx, id); err != nil {
		return nil, apperrors.NewNotFoundError("conversation not found")
	}
	msgs, err := uc.messages.FindByConversationID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalErrorWithCause("failed to load messages", err)
	}

	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView(m))
	}
	return views, nil
}

func messageView(m *entity.Message) MessageView {
	return MessageView{
		ID:        m.ID(),
		Author:    m.Author().String(),
		Text:      m.Text(),
		CreatedAt: m.CreatedAt(),
	}
}

// Create adds a new contact at the end of the roster. Names are matched
// case-insensitively; creating an existing contact returns it instead of
// duplicating. The second return value reports whether a row was created.
func (uc *ConversationUseCase) Create(ctx context.Context, name, personaDescription, personaSystem string) (*ConversationView, bool, error) {
	if strings.TrimSpace(name) == "" {
		return nil, false, apperrors.NewInvalidInputError("contact name is required")
	}

	conv, created, err := uc.roster.Create(ctx, name, personaDescription, personaSystem)
	if err != nil {
		return nil, false, apperrors.NewInternalErrorWithCause("failed to create conversation", err)
	}
	view := uc.toView(ctx, conv)
	return &view, created, nil
}

// Reset wipes the conversation's messages and puts the meter back at the
// starting position. Lives, unlocks, and quiz state are untouched.
func (uc *ConversationUseCase) Reset(ctx context.Context, id string) (*ConversationView, error) {
	if err := uc.engine.Reset(ctx, id); err != nil {
		return nil, apperrors.NewNotFoundError("conversation not found")
	}
	uc.logger.Info("Conversation reset", zap.String("conversation_id", id))
	return uc.Get(ctx, id)
}

// NextUnlocked returns the conversation after the given one, if it is
// unlocked. Interfaces use it for the "advance to the next date" prompt.
func (uc *ConversationUseCase) NextUnlocked(ctx context.Context, id string) (*ConversationView, error) {
	next, err := uc.roster.Next(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalErrorWithCause("failed to resolve next conversation", err)
	}
	if next == nil || !next.Unlocked() {
		return nil, apperrors.NewNotFoundError("no unlocked next conversation")
	}
	view := uc.toView(ctx, next)
	return &view, nil
}

func (uc *ConversationUseCase) toViews(ctx context.Context, convs []*entity.Conversation) []ConversationView {
	views := make([]ConversationView, 0, len(convs))
	for _, c := range convs {
		views = append(views, uc.toView(ctx, c))
	}
	return views
}

func (uc *ConversationUseCase) toView(ctx context.Context, c *entity.Conversation) ConversationView {
	view := ConversationView{
		ID:          c.ID(),
		Name:        c.Name(),
		Phone:       c.Phone(),
		Position:    c.Position(),
		Progress:    c.DisplayProgress(),
		Lives:       c.Lives(),
		Unlocked:    c.Unlocked(),
		Complete:    c.IsComplete(),
		QuizPassed:  c.QuizPassed(),
		QuizPending: uc.engine.HasOpenQuiz(c.ID()),
		CreatedAt:   c.CreatedAt(),
	}

	// Preview is best-effort; listing should not fail on a read error here.
	if msgs, err := uc.messages.FindByConversationID(ctx, c.ID()); err == nil && len(msgs) > 0 {
		view.LastMessage = msgs[len(msgs)-1].Text()
	}
	return view
}
