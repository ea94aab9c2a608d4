package oracle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/service"
)

// Chain implements the three oracle interfaces by trying tiers in priority
// order: configured remote endpoint first, then the generative-model tier,
// then the local heuristic. The heuristic never fails, so as long as it is
// registered last every operation completes.
// Features: per-tier stats, circuit breaker, failover.
type Chain struct {
	tiers    []Tier
	stats    map[string]*tierStats
	breakers map[string]*CircuitBreaker
	mu       sync.RWMutex
	logger   *zap.Logger
}

// tierStats tracks per-tier performance metrics.
type tierStats struct {
	TotalCalls   int64
	FailureCount int64
	LastLatency  time.Duration
}

// NewChain creates an empty oracle chain.
func NewChain(logger *zap.Logger) *Chain {
	return &Chain{
		stats:    make(map[string]*tierStats),
		breakers: make(map[string]*CircuitBreaker),
		logger:   logger.With(zap.String("component", "oracle-chain")),
	}
}

// Compile-time interface checks
var (
	_ service.ReplyOracle = (*Chain)(nil)
	_ service.ScoreOracle = (*Chain)(nil)
	_ service.QuizOracle  = (*Chain)(nil)
)

// AddTier appends a tier. Tiers are tried in insertion order; add the
// heuristic tier last so the chain can never come up empty.
func (c *Chain) AddTier(t Tier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tiers = append(c.tiers, t)
	c.stats[t.Name()] = &tierStats{}
	c.breakers[t.Name()] = NewCircuitBreaker(5, 30*time.Second)
	c.logger.Info("Oracle tier added", zap.String("tier", t.Name()))
}

// Reply implements service.ReplyOracle.
func (c *Chain) Reply(ctx context.Context, req *service.OracleRequest) (string, error) {
	var reply string
	err := c.attempt(ctx, "reply", func(t Tier) error {
		text, err := t.Reply(ctx, req)
		if err != nil {
			return err
		}
		if text == "" {
			return fmt.Errorf("tier %s returned empty reply", t.Name())
		}
		reply = text
		return nil
	})
	return reply, err
}

// Score implements service.ScoreOracle. The returned delta is already
// normalized to [-50, 50].
func (c *Chain) Score(ctx context.Context, req *service.OracleRequest) (*service.ScoreResult, error) {
	var result *service.ScoreResult
	err := c.attempt(ctx, "score", func(t Tier) error {
		r, err := t.Score(ctx, req)
		if err != nil {
			return err
		}
		r.Delta = ClampDelta(float64(r.Delta))
		result = r
		return nil
	})
	return result, err
}

// GenerateQuiz implements service.QuizOracle.
func (c *Chain) GenerateQuiz(ctx context.Context, req *service.OracleRequest) (*entity.Quiz, error) {
	var quiz *entity.Quiz
	err := c.attempt(ctx, "quiz", func(t Tier) error {
		q, err := t.Quiz(ctx, req)
		if err != nil {
			return err
		}
		quiz = q
		return nil
	})
	return quiz, err
}

// attempt walks the tiers in order and runs call against each until one
// succeeds. ErrNotConfigured is a silent skip; real failures trip the tier's
// circuit breaker.
func (c *Chain) attempt(ctx context.Context, op string, call func(Tier) error) error {
	c.mu.RLock()
	tiers := make([]Tier, len(c.tiers))
	copy(tiers, c.tiers)
	c.mu.RUnlock()

	var lastErr error

	for _, t := range tiers {
		if !t.Available() {
			continue
		}

		if cb, ok := c.breakerFor(t.Name()); ok && !cb.Allow() {
			c.logger.Debug("Tier circuit open, skipping",
				zap.String("tier", t.Name()),
				zap.String("op", op),
			)
			continue
		}

		start := time.Now()
		err := call(t)
		latency := time.Since(start)

		if errors.Is(err, ErrNotConfigured) {
			// Not a failure: the tier simply has nothing for this operation.
			continue
		}

		c.recordCall(t.Name(), latency, err)

		if err != nil {
			if cb, ok := c.breakerFor(t.Name()); ok {
				cb.RecordFailure()
			}
			lastErr = err
			c.logger.Warn("Oracle tier failed, trying next",
				zap.String("tier", t.Name()),
				zap.String("op", op),
				zap.Duration("latency", latency),
				zap.Error(err),
			)
			continue
		}

		if cb, ok := c.breakerFor(t.Name()); ok {
			cb.RecordSuccess()
		}

		c.logger.Debug("Oracle tier succeeded",
			zap.String("tier", t.Name()),
			zap.String("op", op),
			zap.Duration("latency", latency),
		)
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("all oracle tiers failed for %s, last error: %w", op, lastErr)
	}
	return fmt.Errorf("no oracle tier available for %s", op)
}

func (c *Chain) breakerFor(name string) (*CircuitBreaker, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cb, ok := c.breakers[name]
	return cb, ok
}

func (c *Chain) recordCall(name string, latency time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.stats[name]; ok {
		s.TotalCalls++
		s.LastLatency = latency
		if err != nil {
			s.FailureCount++
		}
	}
}

// TierStatus describes one tier's current state and performance.
type TierStatus struct {
	Name          string  `json:"name"`
	Available     bool    `json:"available"`
	TotalCalls    int64   `json:"total_calls"`
	FailureCount  int64   `json:"failure_count"`
	LastLatencyMs float64 `json:"last_latency_ms"`
	CircuitState  string  `json:"circuit_state"`
}

// ListTiers returns names, availability, and stats of all registered tiers.
func (c *Chain) ListTiers() []TierStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []TierStatus
	for _, t := range c.tiers {
		ts := TierStatus{
			Name:      t.Name(),
			Available: t.Available(),
		}
		if s, ok := c.stats[t.Name()]; ok {
			ts.TotalCalls = s.TotalCalls
			ts.FailureCount = s.FailureCount
			ts.LastLatencyMs = float64(s.LastLatency) / float64(time.Millisecond)
		}
		if cb, ok := c.breakers[t.Name()]; ok {
			ts.CircuitState = cb.State().String()
		}
		result = append(result, ts)
	}
	return result
}
