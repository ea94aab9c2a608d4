package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/service"
	apperrors "github.com/heartline/heartline/pkg/errors"
)

// QuizFlowUseCase exposes the pending quiz of a conversation and resolves
// submitted answers.
type QuizFlowUseCase struct {
	engine *service.ProgressionEngine
	logger *zap.Logger
}

// NewQuizFlowUseCase creates the quiz flow use-case.
func NewQuizFlowUseCase(engine *service.ProgressionEngine, logger *zap.Logger) *QuizFlowUseCase {
	return &QuizFlowUseCase{engine: engine, logger: logger}
}

// Current returns the conversation's open quiz, or a not-found error.
func (uc *QuizFlowUseCase) Current(conversationID string) (*entity.Quiz, error) {
	quiz, ok := uc.engine.OpenQuizFor(conversationID)
	if !ok {
		return nil, apperrors.NewNotFoundError("no open quiz for this conversation")
	}
	return quiz, nil
}

// Submit grades the submitted answers against the open quiz and applies the
// pass or fail consequences.
func (uc *QuizFlowUseCase) Submit(ctx context.Context, conversationID string, answers []int) (*service.QuizOutcome, error) {
	outcome, err := uc.engine.ResolveQuiz(ctx, conversationID, answers)
	if err != nil {
		if errors.Is(err, entity.ErrNoOpenQuiz) {
			return nil, apperrors.NewNotFoundError("no open quiz for this conversation")
		}
		return nil, apperrors.NewInternalErrorWithCause("failed to resolve quiz", err)
	}

	uc.logger.Info("Quiz resolved",
		zap.String("conversation_id", conversationID),
		zap.Bool("passed", outcome.Passed),
		zap.Int("correct", outcome.Correct),
		zap.Int("lives", outcome.Lives),
	)
	return outcome, nil
}
