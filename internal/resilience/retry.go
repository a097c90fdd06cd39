package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryState is a state of the retry state machine.
type RetryState int

const (
	// StateIdle is the state before the first attempt.
	StateIdle RetryState = iota
	// StateCalling means an attempt is in flight.
	StateCalling
	// StateBackoff means the retrier is waiting on its timer.
	StateBackoff
	// StateSucceeded is terminal: the last attempt returned nil.
	StateSucceeded
	// StateFailed is terminal: attempts exhausted, permanent error, or
	// context cancelled.
	StateFailed
)

func (s RetryState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCalling:
		return "calling"
	case StateBackoff:
		return "backoff"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Done reports whether s is terminal.
func (s RetryState) Done() bool {
	return s == StateSucceeded || s == StateFailed
}

// RetryPolicy controls attempts and backoff.
type RetryPolicy struct {
	// MaxAttempts counts the first try. Default: 3.
	MaxAttempts int
	// InitialBackoff is the delay before the first retry. Default: 500ms.
	InitialBackoff time.Duration
	// MaxBackoff caps any single delay. Default: 30s.
	MaxBackoff time.Duration
	// Multiplier scales the delay after each attempt. Default: 2.
	Multiplier float64
	// JitterFraction spreads each delay by ±fraction. Default: 0.25.
	JitterFraction float64
	// ShouldRetry overrides IsTransient when set.
	ShouldRetry func(err error) bool
	// OnTransition observes every state change.
	OnTransition func(from, to RetryState, attempt int, err error)
}

// DefaultRetryPolicy returns the policy used for outbound API calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 500 * time.Millisecond
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 30 * time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	if p.JitterFraction < 0 {
		p.JitterFraction = 0
	}
	if p.ShouldRetry == nil {
		p.ShouldRetry = IsTransient
	}
	return p
}

// Retrier drives a single operation through
// Idle → Calling → (Succeeded | Backoff → Calling | Failed).
// A Retrier is single-use and not safe for concurrent use.
type Retrier struct {
	policy  RetryPolicy
	state   RetryState
	attempt int
	lastErr error
}

// NewRetrier creates a Retrier in the Idle state.
func NewRetrier(policy RetryPolicy) *Retrier {
	return &Retrier{policy: policy.withDefaults(), state: StateIdle}
}

// State returns the current state.
func (r *Retrier) State() RetryState { return r.state }

// Attempts returns the number of attempts made so far.
func (r *Retrier) Attempts() int { return r.attempt }

// Err returns the error of the most recent attempt.
func (r *Retrier) Err() error { return r.lastErr }

func (r *Retrier) transition(to RetryState) {
	from := r.state
	r.state = to
	if r.policy.OnTransition != nil {
		r.policy.OnTransition(from, to, r.attempt, r.lastErr)
	}
}

// Run executes fn until it succeeds, fails permanently, exhausts the
// policy, or ctx is done. It returns the last error seen.
func (r *Retrier) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	for !r.state.Done() {
		switch r.state {
		case StateIdle:
			r.transition(StateCalling)

		case StateCalling:
			r.attempt++
			r.lastErr = fn(ctx)
			switch {
			case r.lastErr == nil:
				r.transition(StateSucceeded)
			case ctx.Err() != nil,
				!r.policy.ShouldRetry(r.lastErr),
				r.attempt >= r.policy.MaxAttempts:
				r.transition(StateFailed)
			default:
				r.transition(StateBackoff)
			}

		case StateBackoff:
			timer := time.NewTimer(backoffDelay(r.attempt-1, r.policy))
			select {
			case <-ctx.Done():
				timer.Stop()
				r.transition(StateFailed)
			case <-timer.C:
				r.transition(StateCalling)
			}
		}
	}
	return r.lastErr
}

// Do runs fn under policy.
func Do(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	return NewRetrier(policy).Run(ctx, fn)
}

// DoVal runs fn under policy and returns the value of the successful call.
func DoVal[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var val T
	err := NewRetrier(policy).Run(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		val = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return val, nil
}

func backoffDelay(retry int, p RetryPolicy) time.Duration {
	delay := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(retry))
	if delay > float64(p.MaxBackoff) {
		delay = float64(p.MaxBackoff)
	}
	if p.JitterFraction > 0 {
		spread := delay * p.JitterFraction
		delay += (rand.Float64()*2 - 1) * spread
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Jitter returns base spread by up to ±fraction. It is used for policy
// pauses between batches.
func Jitter(base time.Duration, fraction float64) time.Duration {
	if fraction <= 0 || base <= 0 {
		return base
	}
	spread := float64(base) * fraction
	d := float64(base) + (rand.Float64()*2-1)*spread
	if d < 0 {
		return 0
	}
	return time.Duration(d)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryLogger returns an OnTransition hook that logs each backoff.
func RetryLogger(service, operation string) func(from, to RetryState, attempt int, err error) {
	return func(_, to RetryState, attempt int, err error) {
		if to != StateBackoff {
			return
		}
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
