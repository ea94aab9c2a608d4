package oracle

import (
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("state after 2 failures: %v", cb.State())
	}

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Fatalf("state after 3 failures: %v", cb.State())
	}
	if cb.Allow() {
		t.Error("open circuit must reject calls")
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	if cb.State() != CircuitClosed {
		t.Error("non-consecutive failures must not trip the breaker")
	}
}

func TestCircuitBreaker_RecoveryProbe(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)

	cb.RecordFailure()
	if cb.Allow() {
		t.Fatal("should be open immediately after tripping")
	}

	time.Sleep(15 * time.Millisecond)
	if !cb.Allow() {
		t.Fatal("expected a probe after the recovery timeout")
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("state: got %v, want half-open", cb.State())
	}

	cb.RecordSuccess()
	if cb.State() != CircuitClosed {
		t.Error("successful probe should close the circuit")
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)

	cb.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	if !cb.Allow() {
		t.Fatal("expected a probe")
	}

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Error("failed probe must re-open the circuit")
	}
}
