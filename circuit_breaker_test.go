package ucb

import (
	"testing"
	"time"
)

func TestNewCircuitBreakerDefaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	if cb.config.FailureThreshold != 5 {
		t.Errorf("Expected default FailureThreshold=5, got %d", cb.config.FailureThreshold)
	}

	if cb.config.ResetTimeout != 60*time.Second {
		t.Errorf("Expected default ResetTimeout=60s, got %v", cb.config.ResetTimeout)
	}

	if cb.State() != StateClosed {
		t.Errorf("Expected initial state=CLOSED, got %v", cb.State())
	}
}

func TestCircuitBreakerAllowClosed(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	if !cb.Allow() {
		t.Error("Expected Allow()=true when circuit breaker is closed")
	}
}

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.State() != StateClosed {
		t.Errorf("Expected state=CLOSED below threshold, got %v", cb.State())
	}

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Errorf("Expected state=OPEN at threshold, got %v", cb.State())
	}

	if cb.Allow() {
		t.Error("Expected Allow()=false when circuit breaker is open")
	}
}

func TestCircuitBreakerSuccessClearsFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2})

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()

	if cb.State() != StateClosed {
		t.Errorf("Expected state=CLOSED after interleaved success, got %v", cb.State())
	}
	if cb.failures != 1 {
		t.Errorf("Expected failures=1, got %d", cb.failures)
	}
}

func TestCircuitBreakerHalfOpenTransition(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     20 * time.Millisecond,
	})

	cb.RecordFailure()
	if cb.Allow() {
		t.Error("Expected Allow()=false right after opening")
	}

	time.Sleep(30 * time.Millisecond)

	if !cb.Allow() {
		t.Error("Expected Allow()=true after reset timeout elapsed")
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("Expected state=HALF_OPEN after probe admitted, got %v", cb.State())
	}
}

func TestCircuitBreakerHalfOpenSuccessCloses(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     10 * time.Millisecond,
	})

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	cb.Allow()

	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Errorf("Expected state=CLOSED after half-open success, got %v", cb.State())
	}
	if cb.failures != 0 {
		t.Errorf("Expected failures=0 after success, got %d", cb.failures)
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     10 * time.Millisecond,
	})

	// Force open regardless of threshold, then wait for the probe window.
	for i := 0; i < 5; i++ {
		cb.RecordFailure()
	}
	time.Sleep(20 * time.Millisecond)
	cb.Allow()

	if cb.State() != StateHalfOpen {
		t.Fatalf("Expected state=HALF_OPEN, got %v", cb.State())
	}

	// A single probe failure reopens immediately even below the threshold.
	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Errorf("Expected state=OPEN after half-open failure, got %v", cb.State())
	}
}

func TestCircuitBreakerReset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1})

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("Expected state=OPEN, got %v", cb.State())
	}

	cb.Reset()
	if cb.State() != StateClosed {
		t.Errorf("Expected state=CLOSED after Reset, got %v", cb.State())
	}
	if !cb.Allow() {
		t.Error("Expected Allow()=true after Reset")
	}
}

func TestCircuitStateString(t *testing.T) {
	cases := map[CircuitState]string{
		StateClosed:      "CLOSED",
		StateOpen:        "OPEN",
		StateHalfOpen:    "HALF_OPEN",
		CircuitState(42): "UNKNOWN",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}
