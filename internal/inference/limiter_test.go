package inference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowLimiter_AllowsUpToLimit(t *testing.T) {
	t.Parallel()
	l := newWindowLimiter("test", 3)
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.Equal(t, 0, l.Remaining())
}

func TestWindowLimiter_BlocksUntilWindowEnds(t *testing.T) {
	t.Parallel()
	l := newWindowLimiter("test", 2)
	l.window = 80 * time.Millisecond

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	require.NoError(t, l.Wait(context.Background()))
	require.NoError(t, l.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.Equal(t, 1, l.Remaining())
}

func TestWindowLimiter_ResetsAfterWindow(t *testing.T) {
	t.Parallel()
	now := time.Now()
	l := newWindowLimiter("test", 1)
	l.now = func() time.Time { return now }

	require.NoError(t, l.Wait(context.Background()))
	now = now.Add(61 * time.Second)
	assert.Equal(t, 1, l.Remaining())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, l.Wait(ctx), "new window should not block")
}

func TestWindowLimiter_CancelWhileWaiting(t *testing.T) {
	t.Parallel()
	l := newWindowLimiter("test", 1)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestWindowLimiter_Unlimited(t *testing.T) {
	t.Parallel()
	l := newWindowLimiter("test", 0)
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.Equal(t, -1, l.Remaining())

	var nilLimiter *windowLimiter
	assert.NoError(t, nilLimiter.Wait(context.Background()))
}
