package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/service"
	"github.com/heartline/heartline/internal/infrastructure/persistence"
	apperrors "github.com/heartline/heartline/pkg/errors"
)

func newQuizFixture(t *testing.T) (*QuizFlowUseCase, *service.ProgressionEngine) {
	t.Helper()
	logger := testLogger()
	convs := persistence.NewMemoryConversationRepository()
	msgs := persistence.NewMemoryMessageRepository()
	roster := service.NewRoster(convs, logger)
	engine := service.NewProgressionEngine(convs, msgs, roster, logger)

	conv := entity.ReconstructConversation(
		"c1", "Taylor", "", 0, 80, true, 3, false, "", "", time.Now())
	if err := convs.Save(context.Background(), conv); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewQuizFlowUseCase(engine, logger), engine
}

func gateQuiz() *entity.Quiz {
	return &entity.Quiz{
		ID:      "quiz-1",
		Persona: "Taylor",
		Questions: []entity.QuizQuestion{
			{ID: "q1", Text: "pick", Options: []string{"a", "b"}, CorrectIndex: 1},
		},
		PassMinCorrect: 1,
	}
}

func TestQuizCurrent(t *testing.T) {
	uc, engine := newQuizFixture(t)

	if _, err := uc.Current("c1"); err == nil {
		t.Error("no quiz open yet; expected not-found")
	}

	if err := engine.OpenQuiz("c1", gateQuiz()); err != nil {
		t.Fatalf("OpenQuiz: %v", err)
	}
	quiz, err := uc.Current("c1")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if quiz.ID != "quiz-1" {
		t.Errorf("quiz id: got %q", quiz.ID)
	}
}

func TestQuizSubmit_Pass(t *testing.T) {
	uc, engine := newQuizFixture(t)
	if err := engine.OpenQuiz("c1", gateQuiz()); err != nil {
		t.Fatalf("OpenQuiz: %v", err)
	}

	outcome, err := uc.Submit(context.Background(), "c1", []int{1})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !outcome.Passed {
		t.Error("expected pass")
	}
	if engine.HasOpenQuiz("c1") {
		t.Error("quiz should be consumed")
	}
}

func TestQuizSubmit_Fail(t *testing.T) {
	uc, engine := newQuizFixture(t)
	if err := engine.OpenQuiz("c1", gateQuiz()); err != nil {
		t.Fatalf("OpenQuiz: %v", err)
	}

	outcome, err := uc.Submit(context.Background(), "c1", []int{0})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if outcome.Passed {
		t.Error("expected fail")
	}
	if outcome.Progress != 60 {
		t.Errorf("progress: got %d, want 60", outcome.Progress)
	}
}

func TestQuizSubmit_NoOpenQuiz(t *testing.T) {
	uc, _ := newQuizFixture(t)

	_, err := uc.Submit(context.Background(), "c1", []int{0})
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected not-found, got %v", err)
	}
}
