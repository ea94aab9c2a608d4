package oracle

import (
	"context"
	"errors"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/service"
)

// ErrNotConfigured signals that a tier has no configuration for the requested
// operation (e.g. no score endpoint URL). The chain skips to the next tier.
var ErrNotConfigured = errors.New("oracle tier not configured for this operation")

// Tier is one level of the oracle fallback chain. A tier may support only a
// subset of the three operations; unsupported operations return
// ErrNotConfigured so the chain falls through.
type Tier interface {
	// Name returns the tier identifier (e.g. "endpoint", "gemini", "heuristic")
	Name() string

	// Available reports whether the tier has enough configuration to be tried at all
	Available() bool

	// Reply generates the counterpart's next message
	Reply(ctx context.Context, req *service.OracleRequest) (string, error)

	// Score produces a signed interest delta for the user's message
	Score(ctx context.Context, req *service.OracleRequest) (*service.ScoreResult, error)

	// Quiz generates a comprehension quiz
	Quiz(ctx context.Context, req *service.OracleRequest) (*entity.Quiz, error)
}
