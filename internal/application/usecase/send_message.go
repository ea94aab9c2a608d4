package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/repository"
	"github.com/heartline/heartline/internal/domain/service"
	"github.com/heartline/heartline/internal/domain/valueobject"
	apperrors "github.com/heartline/heartline/pkg/errors"
)

// PersonaResolver resolves the counterpart persona for a conversation.
type PersonaResolver interface {
	Resolve(conv *entity.Conversation) entity.Persona
}

// SendResult is the full outcome of one send: the persisted user message,
// the state transition it caused, the counterpart reply if one was generated,
// and any coach warning raised along the way.
type SendResult struct {
	UserMessage *MessageView        `json:"userMessage,omitempty"`
	Reply       *MessageView        `json:"reply,omitempty"`
	Transition  *service.Transition `json:"transition,omitempty"`
	Quiz        *entity.Quiz        `json:"quiz,omitempty"`
	Warning     *service.Warning    `json:"warning,omitempty"`
	Blocked     bool                `json:"blocked"`
}

// SendMessageUseCase handles the full send flow: guard checks, persisting the
// user message, scoring it, applying the progression transition, triggering
// the quiz when the meter reaches the gate, and generating the auto-reply.
type SendMessageUseCase struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	engine        *service.ProgressionEngine
	narrator      *service.Narrator
	personas      PersonaResolver
	replies       service.ReplyOracle
	scores        service.ScoreOracle
	quizzes       service.QuizOracle
	logger        *zap.Logger
}

// NewSendMessageUseCase creates the send flow use-case.
func NewSendMessageUseCase(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	engine *service.ProgressionEngine,
	narrator *service.Narrator,
	personas PersonaResolver,
	replies service.ReplyOracle,
	scores service.ScoreOracle,
	quizzes service.QuizOracle,
	logger *zap.Logger,
) *SendMessageUseCase {
	return &SendMessageUseCase{
		conversations: conversations,
		messages:      messages,
		engine:        engine,
		narrator:      narrator,
		personas:      personas,
		replies:       replies,
		scores:        scores,
		quizzes:       quizzes,
		logger:        logger,
	}
}

// Execute runs the send flow for one outgoing message.
func (uc *SendMessageUseCase) Execute(ctx context.Context, conversationID, text string) (*SendResult, error) {
	conv, err := uc.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, apperrors.NewNotFoundError("conversation not found")
	}

	// 1. Hard guards: locked, complete, out of lives, quiz pending.
	if err := uc.engine.CanSend(ctx, conversationID); err != nil {
		return nil, sendBlockedError(err)
	}

	// 2. Coach pre-check. A blocking warning swallows the send; the player
	// keeps the text and can try a warmer line.
	if w := uc.narrator.GuardSend(conv.DisplayProgress()); w != nil && w.Blocking {
		uc.logger.Info("Send held by coach warning",
			zap.String("conversation_id", conversationID),
		)
		return &SendResult{Warning: w, Blocked: true}, nil
	}

	// 3. Persist the outgoing message.
	userMsg, err := entity.NewMessage("m_"+uuid.NewString(), conversationID, valueobject.AuthorMe, text)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if err := uc.messages.Save(ctx, userMsg); err != nil {
		uc.logger.Error("Failed to save message", zap.Error(err))
		return nil, apperrors.NewInternalErrorWithCause("failed to save message", err)
	}

	persona := uc.personas.Resolve(conv)
	history, err := uc.historyBefore(ctx, conversationID, userMsg.ID())
	if err != nil {
		uc.logger.Warn("Failed to load history, scoring without it", zap.Error(err))
		history = nil
	}

	oracleReq := &service.OracleRequest{
		Persona:     persona,
		History:     history,
		UserMessage: text,
	}

	userView := messageView(userMsg)
	result := &SendResult{UserMessage: &userView}

	// 4. Score the message. Scoring failures are tolerated: the message
	// stands, the meter just does not move.
	score, err := uc.scores.Score(ctx, oracleReq)
	if err != nil {
		uc.logger.Warn("Score oracle failed, skipping transition", zap.Error(err))
	} else {
		tr, err := uc.engine.ApplyScore(ctx, conversationID, score.Delta)
		if err != nil {
			return nil, apperrors.NewInternalErrorWithCause("failed to apply score", err)
		}
		result.Transition = tr

		// 5. Quiz trigger fires once when the pre-gate meter reaches 80.
		if tr.QuizTriggered {
			result.Quiz = uc.openQuiz(ctx, conv, oracleReq)
		}

		// 6. Coach post-check on steep drops and critical lows.
		if w := uc.narrator.AfterScore(tr.RawDelta, tr.Displayed); w != nil {
			result.Warning = w
		}

		// A loss wipes the conversation; there is nothing left to reply to.
		if tr.LostLife {
			return result, nil
		}
	}

	// 7. Generate the counterpart reply.
	reply, err := uc.replies.Reply(ctx, oracleReq)
	if err != nil {
		uc.logger.Warn("Reply oracle failed, no auto-reply", zap.Error(err))
		return result, nil
	}

	replyMsg, err := entity.NewMessage("m_"+uuid.NewString(), conversationID, valueobject.AuthorThem, reply)
	if err != nil {
		uc.logger.Warn("Discarding invalid oracle reply", zap.Error(err))
		return result, nil
	}
	if err := uc.messages.Save(ctx, replyMsg); err != nil {
		uc.logger.Error("Failed to save reply", zap.Error(err))
		return result, nil
	}
	replyView := messageView(replyMsg)
	result.Reply = &replyView

	return result, nil
}

// openQuiz generates and registers the comprehension quiz. Generation never
// hard-fails the send; the trigger simply re-fires on a later message.
func (uc *SendMessageUseCase) openQuiz(ctx context.Context, conv *entity.Conversation, req *service.OracleRequest) *entity.Quiz {
	quiz, err := uc.quizzes.GenerateQuiz(ctx, req)
	if err != nil {
		uc.logger.Warn("Quiz oracle failed", zap.Error(err))
		return nil
	}
	if err := uc.engine.OpenQuiz(conv.ID(), quiz); err != nil {
		uc.logger.Warn("Could not open quiz", zap.Error(err))
		return nil
	}
	uc.logger.Info("Quiz opened",
		zap.String("conversation_id", conv.ID()),
		zap.String("quiz_id", quiz.ID),
		zap.Int("questions", len(quiz.Questions)),
	)
	return quiz
}

// historyBefore returns the oracle history for a conversation, excluding the
// message with the given ID. Saved timestamps have second granularity in some
// stores, so filtering by ID is safer than by time.
func (uc *SendMessageUseCase) historyBefore(ctx context.Context, conversationID, excludeID string) ([]service.ChatTurn, error) {
	msgs, err := uc.messages.FindByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	filtered := make([]*entity.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ID() == excludeID {
			continue
		}
		filtered = append(filtered, m)
	}
	return service.TurnsFromMessages(filtered), nil
}

// sendBlockedError maps engine guard sentinels to API-facing errors.
func sendBlockedError(err error) error {
	switch {
	case errors.Is(err, entity.ErrConversationLocked):
		return apperrors.NewConflictError("conversation is locked", err)
	case errors.Is(err, entity.ErrConversationComplete):
		return apperrors.NewConflictError("conversation is complete", err)
	case errors.Is(err, entity.ErrNoLivesLeft):
		return apperrors.NewConflictError("no lives left", err)
	case errors.Is(err, entity.ErrQuizPending):
		return apperrors.NewConflictError("a quiz must be answered first", err)
	default:
		return apperrors.NewInternalErrorWithCause("send check failed", err)
	}
}
