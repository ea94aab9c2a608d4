package oracle

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/heartline/heartline/internal/domain/entity"
	"github.com/heartline/heartline/internal/domain/service"
)

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

// fakeTier is a scriptable tier for chain tests.
type fakeTier struct {
	name      string
	available bool
	replyText string
	replyErr  error
	scoreRes  *service.ScoreResult
	scoreErr  error
	quizRes   *entity.Quiz
	quizErr   error
	calls     int
}

func (t *fakeTier) Name() string    { return t.name }
func (t *fakeTier) Available() bool { return t.available }

func (t *fakeTier) Reply(context.Context, *service.OracleRequest) (string, error) {
	t.calls++
	return t.replyText, t.replyErr
}

func (t *fakeTier) Score(context.Context, *service.OracleRequest) (*service.ScoreResult, error) {
	t.calls++
	return t.scoreRes, t.scoreErr
}

func (t *fakeTier) Quiz(context.Context, *service.OracleRequest) (*entity.Quiz, error) {
	t.calls++
	return t.quizRes, t.quizErr
}

func chainReq() *service.OracleRequest {
	return &service.OracleRequest{
		Persona:     entity.Persona{ID: "c1", Name: "Taylor"},
		UserMessage: "hello",
	}
}

// === Failover order ===

func TestChainReply_FirstHealthyTierWins(t *testing.T) {
	first := &fakeTier{name: "first", available: true, replyText: "from first"}
	second := &fakeTier{name: "second", available: true, replyText: "from second"}

	chain := NewChain(testLogger())
	chain.AddTier(first)
	chain.AddTier(second)

	reply, err := chain.Reply(context.Background(), chainReq())
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply != "from first" {
		t.Errorf("got %q, want %q", reply, "from first")
	}
	if second.calls != 0 {
		t.Error("second tier should not be consulted")
	}
}

func TestChainReply_FallsThroughOnFailure(t *testing.T) {
	broken := &fakeTier{name: "broken", available: true, replyErr: errors.New("boom")}
	backup := &fakeTier{name: "backup", available: true, replyText: "from backup"}

	chain := NewChain(testLogger())
	chain.AddTier(broken)
	chain.AddTier(backup)

	reply, err := chain.Reply(context.Background(), chainReq())
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply != "from backup" {
		t.Errorf("got %q, want %q", reply, "from backup")
	}
}

func TestChainReply_SkipsUnavailableTier(t *testing.T) {
	offline := &fakeTier{name: "offline", available: false, replyText: "never"}
	online := &fakeTier{name: "online", available: true, replyText: "from online"}

	chain := NewChain(testLogger())
	chain.AddTier(offline)
	chain.AddTier(online)

	reply, err := chain.Reply(context.Background(), chainReq())
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply != "from online" {
		t.Errorf("got %q, want %q", reply, "from online")
	}
	if offline.calls != 0 {
		t.Error("unavailable tier must not be called")
	}
}

func TestChainReply_NotConfiguredIsSilentSkip(t *testing.T) {
	partial := &fakeTier{name: "partial", available: true, replyErr: ErrNotConfigured}
	backup := &fakeTier{name: "backup", available: true, replyText: "from backup"}

	chain := NewChain(testLogger())
	chain.AddTier(partial)
	chain.AddTier(backup)

	reply, err := chain.Reply(context.Background(), chainReq())
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply != "from backup" {
		t.Errorf("got %q, want %q", reply, "from backup")
	}

	// A not-configured skip is not a failure and must not feed the stats.
	for _, ts := range chain.ListTiers() {
		if ts.Name == "partial" && ts.FailureCount != 0 {
			t.Errorf("skip recorded as failure: %+v", ts)
		}
	}
}

func TestChainReply_EmptyReplyIsFailure(t *testing.T) {
	empty := &fakeTier{name: "empty", available: true, replyText: ""}
	backup := &fakeTier{name: "backup", available: true, replyText: "from backup"}

	chain := NewChain(testLogger())
	chain.AddTier(empty)
	chain.AddTier(backup)

	reply, err := chain.Reply(context.Background(), chainReq())
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply != "from backup" {
		t.Errorf("got %q, want %q", reply, "from backup")
	}
}

func TestChain_AllTiersFailed(t *testing.T) {
	broken := &fakeTier{name: "broken", available: true, replyErr: errors.New("boom")}

	chain := NewChain(testLogger())
	chain.AddTier(broken)

	if _, err := chain.Reply(context.Background(), chainReq()); err == nil {
		t.Fatal("expected an error when every tier fails")
	}
}

func TestChain_NoTiers(t *testing.T) {
	chain := NewChain(testLogger())
	if _, err := chain.Reply(context.Background(), chainReq()); err == nil {
		t.Fatal("expected an error with no tiers registered")
	}
}

// === Score normalization ===

func TestChainScore_ReclampsDelta(t *testing.T) {
	wild := &fakeTier{name: "wild", available: true, scoreRes: &service.ScoreResult{Delta: 999}}

	chain := NewChain(testLogger())
	chain.AddTier(wild)

	res, err := chain.Score(context.Background(), chainReq())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if res.Delta != 50 {
		t.Errorf("delta: got %d, want 50", res.Delta)
	}
}

// === Circuit breaker ===

func TestChain_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	flaky := &fakeTier{name: "flaky", available: true, replyErr: errors.New("boom")}
	backup := &fakeTier{name: "backup", available: true, replyText: "from backup"}

	chain := NewChain(testLogger())
	chain.AddTier(flaky)
	chain.AddTier(backup)

	// Trip the breaker; the threshold is five consecutive failures.
	for i := 0; i < 5; i++ {
		if _, err := chain.Reply(context.Background(), chainReq()); err != nil {
			t.Fatalf("Reply %d: %v", i, err)
		}
	}
	callsBefore := flaky.calls

	if _, err := chain.Reply(context.Background(), chainReq()); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if flaky.calls != callsBefore {
		t.Error("open circuit should skip the tier entirely")
	}

	var found bool
	for _, ts := range chain.ListTiers() {
		if ts.Name == "flaky" {
			found = true
			if ts.CircuitState != "open" {
				t.Errorf("circuit state: got %q, want open", ts.CircuitState)
			}
			if ts.FailureCount != 5 {
				t.Errorf("failure count: got %d, want 5", ts.FailureCount)
			}
		}
	}
	if !found {
		t.Fatal("flaky tier missing from ListTiers")
	}
}

// === Quiz passthrough ===

func TestChainGenerateQuiz(t *testing.T) {
	quiz := &entity.Quiz{ID: "quiz-1", Questions: []entity.QuizQuestion{
		{ID: "q1", Text: "x", Options: []string{"a", "b"}, CorrectIndex: 0},
	}, PassMinCorrect: 1}
	tier := &fakeTier{name: "quizzer", available: true, quizRes: quiz}

	chain := NewChain(testLogger())
	chain.AddTier(tier)

	got, err := chain.GenerateQuiz(context.Background(), chainReq())
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if got.ID != "quiz-1" {
		t.Errorf("quiz id: got %q", got.ID)
	}
}
