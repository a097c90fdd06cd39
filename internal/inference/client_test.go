package inference

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/cost"
	"github.com/sells-group/prospect-cli/internal/resilience"
)

// fakeProvider returns scripted results.
type fakeProvider struct {
	name  string
	calls atomic.Int32
	fn    func(ctx context.Context, req Request) (Response, error)
}

func newFake(name string, fn func(ctx context.Context, req Request) (Response, error)) *fakeProvider {
	return &fakeProvider{name: name, fn: fn}
}

func okFake(name, content string) *fakeProvider {
	return newFake(name, func(_ context.Context, req Request) (Response, error) {
		return Response{Content: content, Model: req.Model, Success: true, Usage: Usage{InputTokens: 100, OutputTokens: 50}}, nil
	})
}

func failFake(name string) *fakeProvider {
	return newFake(name, func(context.Context, Request) (Response, error) {
		return Response{}, errors.New(name + " down")
	})
}

func (f *fakeProvider) Name() string       { return f.name }
func (f *fakeProvider) Identity() Identity { return Identity{Name: f.name, Version: "fake/1"} }
func (f *fakeProvider) Generate(ctx context.Context, req Request) (Response, error) {
	f.calls.Add(1)
	return f.fn(ctx, req)
}

func regs(ps ...Provider) []Registration {
	out := make([]Registration, len(ps))
	for i, p := range ps {
		out[i] = Registration{Provider: p, Timeout: time.Second}
	}
	return out
}

func TestGenerate_FirstProviderWins(t *testing.T) {
	t.Parallel()
	a, b := okFake("a", "from a"), okFake("b", "from b")
	c := New(regs(a, b))

	resp := c.Generate(context.Background(), "olá")
	assert.True(t, resp.Success)
	assert.Equal(t, "a", resp.Provider)
	assert.Equal(t, "from a", resp.Content)
	assert.Equal(t, 150, resp.TokensUsed)
	assert.Equal(t, int32(0), b.calls.Load())
}

func TestGenerate_FailsOverInOrder(t *testing.T) {
	t.Parallel()
	a, b, m := failFake("a"), failFake("b"), okFake("c", "third")
	c := New(regs(a, b, m))

	resp := c.Generate(context.Background(), "prompt")
	require.True(t, resp.Success)
	assert.Equal(t, "c", resp.Provider)
	assert.Equal(t, int32(1), a.calls.Load())
	assert.Equal(t, int32(1), b.calls.Load())

	stats := c.Stats()
	assert.Equal(t, 1, stats.TotalRequests)
	assert.Equal(t, 1, stats.SuccessfulRequests)
	require.Len(t, stats.Providers, 3)
	assert.Equal(t, "a", stats.Providers[0].Name)
	assert.Equal(t, 1, stats.Providers[0].Failures)
	assert.InDelta(t, 0.0, stats.Providers[0].SuccessRate, 0.001)
	assert.InDelta(t, 1.0, stats.Providers[2].SuccessRate, 0.001)
}

func TestGenerate_AllProvidersFail(t *testing.T) {
	t.Parallel()
	c := New(regs(failFake("groq"), failFake("openrouter")))

	resp := c.Generate(context.Background(), "prompt", WithModel("llama3-8b-8192"))
	assert.False(t, resp.Success)
	assert.Equal(t, ProviderNone, resp.Provider)
	assert.Equal(t, AllProvidersFailed, resp.Content)
	assert.Equal(t, "llama3-8b-8192", resp.Model)
	assert.Contains(t, resp.Error, "groq: groq down")
	assert.Contains(t, resp.Error, "openrouter: openrouter down")
	assert.Equal(t, 1, c.Stats().FailedRequests)
}

func TestGenerate_NoProviders(t *testing.T) {
	t.Parallel()
	resp := New(nil).Generate(context.Background(), "prompt")
	assert.False(t, resp.Success)
	assert.Equal(t, ProviderNone, resp.Provider)
	assert.Equal(t, "unknown", resp.Model)
}

func TestGenerate_UnsuccessfulResponseCountsAsFailure(t *testing.T) {
	t.Parallel()
	bad := newFake("bad", func(context.Context, Request) (Response, error) {
		return Response{Success: false, Error: "quota exceeded"}, nil
	})
	c := New(regs(bad, okFake("good", "ok")))

	resp := c.Generate(context.Background(), "prompt")
	assert.Equal(t, "good", resp.Provider)
}

func TestGenerate_CacheServesRepeatWithoutProviderCall(t *testing.T) {
	t.Parallel()
	p := okFake("a", "answer")
	c := New(regs(p))

	first := c.Generate(context.Background(), "same prompt", WithTemperature(0.2))
	second := c.Generate(context.Background(), "same prompt", WithTemperature(0.2))

	assert.Equal(t, int32(1), p.calls.Load())
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, 1, c.Stats().CacheHits)
	assert.Equal(t, 1, c.Stats().CachedResponses)

	// Different parameters miss the cache.
	c.Generate(context.Background(), "same prompt", WithTemperature(0.9))
	assert.Equal(t, int32(2), p.calls.Load())

	// Bypass.
	c.Generate(context.Background(), "same prompt", WithTemperature(0.2), WithoutCache())
	assert.Equal(t, int32(3), p.calls.Load())

	c.ClearCache()
	c.Generate(context.Background(), "same prompt", WithTemperature(0.2))
	assert.Equal(t, int32(4), p.calls.Load())
}

func TestGenerate_FailuresAreNotCached(t *testing.T) {
	t.Parallel()
	p := failFake("a")
	c := New(regs(p))

	c.Generate(context.Background(), "x")
	c.Generate(context.Background(), "x")
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestGenerate_CacheDisabled(t *testing.T) {
	t.Parallel()
	p := okFake("a", "answer")
	c := New(regs(p), WithCacheTTL(0))

	c.Generate(context.Background(), "x")
	c.Generate(context.Background(), "x")
	assert.Equal(t, int32(2), p.calls.Load())
	assert.Equal(t, 0, c.Stats().CachedResponses)
}

func TestGenerate_OpenCircuitSkipsProvider(t *testing.T) {
	t.Parallel()
	a, b := failFake("a"), okFake("b", "ok")
	c := New(regs(a, b), WithBreakerConfig(resilience.BreakerConfig{FailureThreshold: 1, Cooldown: time.Hour}), WithCacheTTL(0))

	c.Generate(context.Background(), "x")
	c.Generate(context.Background(), "x")
	assert.Equal(t, int32(1), a.calls.Load(), "open circuit should skip a")
	assert.Equal(t, int32(2), b.calls.Load())

	stats := c.Stats()
	assert.Equal(t, "open", stats.Providers[0].Circuit)
}

func TestGenerate_ProviderTimeout(t *testing.T) {
	t.Parallel()
	slow := newFake("slow", func(ctx context.Context, _ Request) (Response, error) {
		<-ctx.Done()
		return Response{}, ctx.Err()
	})
	c := New([]Registration{
		{Provider: slow, Timeout: 20 * time.Millisecond},
		{Provider: okFake("fast", "ok"), Timeout: time.Second},
	})

	start := time.Now()
	resp := c.Generate(context.Background(), "x")
	assert.Equal(t, "fast", resp.Provider)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGenerate_CancelledContext(t *testing.T) {
	t.Parallel()
	p := okFake("a", "ok")
	c := New(regs(p))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := c.Generate(ctx, "x")
	assert.False(t, resp.Success)
	assert.Equal(t, ProviderNone, resp.Provider)
	assert.Equal(t, int32(0), p.calls.Load())
}

func TestGenerate_PassesOptionsToProvider(t *testing.T) {
	t.Parallel()
	var got Request
	p := newFake("a", func(_ context.Context, req Request) (Response, error) {
		got = req
		return Response{Success: true}, nil
	})
	c := New(regs(p))

	c.Generate(context.Background(), "prompt", WithModel("m1"), WithMaxTokens(64), WithTemperature(0.1), WithParam("format", "json"))
	assert.Equal(t, "prompt", got.Prompt)
	assert.Equal(t, "m1", got.Model)
	assert.Equal(t, 64, got.MaxTokens)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.1, *got.Temperature, 0.0001)
	assert.Equal(t, "json", got.Params["format"])
}

func TestGenerate_ConcurrentCallsAreSafe(t *testing.T) {
	t.Parallel()
	c := New(regs(okFake("a", "ok")))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := c.Generate(context.Background(), "shared")
			assert.True(t, resp.Success)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, c.Stats().TotalRequests)
}

func TestStats_Cost(t *testing.T) {
	t.Parallel()
	calc := cost.NewCalculator(cost.Rates{Providers: map[string]cost.ModelRate{"a": {Input: 10, Output: 20}}})
	c := New(regs(okFake("a", "ok")), WithCalculator(calc))

	c.Generate(context.Background(), "x")
	stats := c.Stats()
	// 100 input tokens at $10/M + 50 output tokens at $20/M.
	assert.InDelta(t, 0.002, stats.EstimatedCostUSD, 1e-9)
	assert.Equal(t, 100, stats.Providers[0].InputTokens)
}

func TestAvailableProvidersAndIdentity(t *testing.T) {
	t.Parallel()
	c := New(regs(okFake("a", ""), okFake("b", "")))
	assert.Equal(t, []string{"a", "b"}, c.AvailableProviders())
	ids := c.Providers()
	require.Len(t, ids, 2)
	assert.Equal(t, "fake/1", ids[0].Version)
}

func TestMockProvider(t *testing.T) {
	t.Parallel()
	p := NewMockProvider(ProviderConfig{})

	resp, err := p.Generate(context.Background(), Request{Prompt: "Gere um EMAIL para o restaurante"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Content, "Atenciosamente")
	assert.Equal(t, "mock-model", resp.Model)

	resp, err = p.Generate(context.Background(), Request{Prompt: "Analise a empresa"})
	require.NoError(t, err)
	assert.Contains(t, resp.Content, "resposta simulada")

	assert.False(t, p.Identity().RequiresKey)
}
