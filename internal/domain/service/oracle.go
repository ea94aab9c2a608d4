package service

import (
	"context"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/valueobject"
)

// ChatTurn is one line of conversation history as seen by the oracles.
type ChatTurn struct {
	Author valueobject.Author `json:"author"`
	Text   string             `json:"text"`
}

// OracleRequest is the uniform request shape shared by the three oracles:
// persona, ordered history, and (for reply/score) the candidate user message.
type OracleRequest struct {
	Persona     entity.Persona `json:"persona"`
	History     []ChatTurn     `json:"history"`
	UserMessage string         `json:"userMessage,omitempty"`
}

// ScoreResult is a signed interest adjustment produced by scoring.
// Delta is already normalized to a finite integer in [-50, 50].
type ScoreResult struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason,omitempty"`
}

// ReplyOracle generates the counterpart's next message.
type ReplyOracle interface {
	Reply(ctx context.Context, req *OracleRequest) (string, error)
}

// ScoreOracle scores the user's candidate message.
type ScoreOracle interface {
	Score(ctx context.Context, req *OracleRequest) (*ScoreResult, error)
}

// QuizOracle generates a comprehension quiz from the conversation so far.
type QuizOracle interface {
	GenerateQuiz(ctx context.Context, req *OracleRequest) (*entity.Quiz, error)
}

// TurnsFromMessages converts a persisted message log into oracle history.
func TurnsFromMessages(messages []*entity.Message) []ChatTurn {
	turns := make([]ChatTurn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, ChatTurn{Author: m.Author(), Text: m.Text()})
	}
	return turns
}
