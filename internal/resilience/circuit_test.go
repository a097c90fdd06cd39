package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker("groq", BreakerConfig{FailureThreshold: 2, Cooldown: time.Minute})

	for i := 0; i < 2; i++ {
		_ = b.Execute(context.Background(), func(context.Context) error { return errors.New("fail") })
	}
	if b.State() != CircuitOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	calls := 0
	err := b.Execute(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if calls != 0 {
		t.Error("open circuit should not call fn")
	}
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Now()
	b := NewBreaker("groq", BreakerConfig{FailureThreshold: 1, Cooldown: time.Second})
	b.nowFunc = func() time.Time { return now }

	b.Record(errors.New("fail"))
	if b.State() != CircuitOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	now = now.Add(2 * time.Second)
	if b.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open after cooldown, got %s", b.State())
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("probe should be allowed: %v", err)
	}
	b.Record(nil)
	if b.State() != CircuitClosed {
		t.Errorf("expected closed after probe, got %s", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker("hf", BreakerConfig{FailureThreshold: 1, Cooldown: time.Second})
	b.nowFunc = func() time.Time { return now }

	b.Record(errors.New("fail"))
	now = now.Add(2 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b.Record(errors.New("still failing"))
	if b.State() != CircuitOpen {
		t.Errorf("expected open, got %s", b.State())
	}
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b := NewBreaker("x", BreakerConfig{FailureThreshold: 2})
	b.Record(errors.New("fail"))
	b.Record(nil)
	b.Record(errors.New("fail"))
	if b.State() != CircuitClosed {
		t.Errorf("non-consecutive failures should not open, got %s", b.State())
	}
}

func TestBreaker_ResetAndCallback(t *testing.T) {
	var changes []CircuitState
	b := NewBreaker("x", BreakerConfig{
		FailureThreshold: 1,
		OnStateChange:    func(_ string, _, to CircuitState) { changes = append(changes, to) },
	})
	b.Record(errors.New("fail"))
	b.Reset()
	if b.State() != CircuitClosed {
		t.Errorf("expected closed, got %s", b.State())
	}
	if len(changes) != 2 || changes[0] != CircuitOpen || changes[1] != CircuitClosed {
		t.Errorf("unexpected transitions: %v", changes)
	}
}

func TestExecuteVal(t *testing.T) {
	b := NewBreaker("x", DefaultBreakerConfig())
	v, err := ExecuteVal(context.Background(), b, func(context.Context) (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("expected 7, got %d, %v", v, err)
	}
}

func TestBreakers_GetAndSnapshot(t *testing.T) {
	reg := NewBreakers(BreakerConfig{FailureThreshold: 1, Cooldown: time.Minute})
	if reg.Get("groq") != reg.Get("groq") {
		t.Fatal("expected the same breaker instance")
	}
	reg.Get("openrouter").Record(errors.New("fail"))

	snap := reg.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 breakers, got %d", len(snap))
	}
	if snap[0].Name != "groq" || snap[0].State != "closed" {
		t.Errorf("unexpected first entry: %+v", snap[0])
	}
	if snap[1].Name != "openrouter" || snap[1].State != "open" || snap[1].Failures != 1 {
		t.Errorf("unexpected second entry: %+v", snap[1])
	}
}
