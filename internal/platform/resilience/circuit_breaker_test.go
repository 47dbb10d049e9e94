package resilience

import (
	"errors"
	"testing"
	"time"
)

func testBreaker(threshold int, onChange StateChangeFunc) (*CircuitBreaker, *time.Time) {
	b := NewCircuitBreaker("qstash", CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: threshold,
		OpenTimeout:      5 * time.Second,
		HalfOpenMaxReq:   1,
	}, onChange)
	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	var changes []CircuitState
	b, now := testBreaker(2, func(_ string, _, to CircuitState) { changes = append(changes, to) })

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	*now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open state, got %s", state)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful half-open probe, got %s", state)
	}

	want := []CircuitState{CircuitStateOpen, CircuitStateHalfOpen, CircuitStateClosed}
	if len(changes) != len(want) {
		t.Fatalf("expected %d state changes, got %v", len(want), changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Fatalf("state change %d: expected %s, got %s", i, want[i], changes[i])
		}
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, now := testBreaker(1, nil)

	b.RecordFailure()
	*now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second probe to be rejected, got %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after failed probe, got %s", state)
	}
}

func TestCircuitBreaker_ExecuteIgnoresNonFailures(t *testing.T) {
	b, _ := testBreaker(1, nil)
	permanent := errors.New("bad request")

	err := b.Execute(func() error { return permanent }, func(err error) bool { return !errors.Is(err, permanent) })
	if !errors.Is(err, permanent) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after non-failure error, got %s", state)
	}

	_ = b.Execute(func() error { return errors.New("timeout") }, nil)
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after counted failure, got %s", state)
	}

	calls := 0
	err = b.Execute(func() error { calls++; return nil }, nil)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected fn to be skipped while open, ran %d times", calls)
	}
}

func TestCircuitBreaker_DisabledAlwaysRuns(t *testing.T) {
	b := NewCircuitBreaker("anubis", CircuitBreakerConfig{Enabled: false, FailureThreshold: 1}, nil)
	for i := 0; i < 3; i++ {
		_ = b.Execute(func() error { return errors.New("down") }, nil)
	}
	if err := b.Execute(func() error { return nil }, nil); err != nil {
		t.Fatalf("expected disabled breaker to run fn, got %v", err)
	}
}
