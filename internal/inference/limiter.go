package inference

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// windowLimiter allows limit calls per fixed window. The window restarts
// once it has fully elapsed. A caller over quota blocks until the window
// ends; callers queue on the mutex behind it.
type windowLimiter struct {
	name   string
	limit  int
	window time.Duration

	mu    sync.Mutex
	count int
	start time.Time
	now   func() time.Time
}

func newWindowLimiter(name string, perMinute int) *windowLimiter {
	return &windowLimiter{name: name, limit: perMinute, window: time.Minute, now: time.Now}
}

// Wait reserves one call, blocking if the window is exhausted.
func (l *windowLimiter) Wait(ctx context.Context) error {
	if l == nil || l.limit <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.start.IsZero() || now.Sub(l.start) >= l.window {
		l.count = 0
		l.start = now
	}

	if l.count >= l.limit {
		wait := l.window - now.Sub(l.start)
		zap.L().Warn("inference: rate limit reached, waiting",
			zap.String("provider", l.name),
			zap.Int("limit", l.limit),
			zap.Duration("wait", wait),
		)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		l.count = 0
		l.start = l.now()
	}

	l.count++
	return nil
}

// Remaining returns the calls left in the current window.
func (l *windowLimiter) Remaining() int {
	if l == nil || l.limit <= 0 {
		return -1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.start.IsZero() || l.now().Sub(l.start) >= l.window {
		return l.limit
	}
	return l.limit - l.count
}
