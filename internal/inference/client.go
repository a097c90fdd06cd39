package inference

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/resilience"
)

// AllProvidersFailed is the content of the synthetic failure response.
const AllProvidersFailed = "All providers failed"

const defaultProviderTimeout = 30 * time.Second

// Registration adds a provider to a Client.
type Registration struct {
	Provider          Provider
	RequestsPerMinute int
	Timeout           time.Duration
}

type entry struct {
	provider Provider
	limiter  *windowLimiter
	timeout  time.Duration
}

// Unavailable describes a configured provider that was not constructed.
type Unavailable struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Client walks its providers in priority order until one succeeds.
// Generate never returns an error; failures come back as a Response with
// Success=false.
type Client struct {
	entries     []entry
	unavailable []Unavailable
	cache       *responseCache
	breakers    *resilience.Breakers
	stats       *statsRecorder
}

// New creates a Client over the given providers, in priority order.
func New(regs []Registration, opts ...ClientOption) *Client {
	c := &Client{
		cache:    newResponseCache(time.Hour),
		breakers: resilience.NewBreakers(resilience.DefaultBreakerConfig()),
		stats:    newStatsRecorder(),
	}
	for _, o := range opts {
		o(c)
	}
	for _, r := range regs {
		timeout := r.Timeout
		if timeout <= 0 {
			timeout = defaultProviderTimeout
		}
		name := r.Provider.Name()
		c.entries = append(c.entries, entry{
			provider: r.Provider,
			limiter:  newWindowLimiter(name, r.RequestsPerMinute),
			timeout:  timeout,
		})
		c.stats.register(name)
	}
	return c
}

// Generate produces text for prompt.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...Option) Response {
	co := newCallOptions(opts)
	c.stats.request()

	key := cacheKey(prompt, co.model, co.cacheParams())
	if co.useCache {
		if cached, ok := c.cache.get(key); ok {
			c.stats.cacheHit()
			zap.L().Debug("inference: cache hit", zap.String("provider", cached.Provider))
			cached.Cached = true
			return cached
		}
	}

	req := Request{
		Prompt:      prompt,
		Model:       co.model,
		MaxTokens:   co.maxTokens,
		Temperature: co.temperature,
		Params:      co.params,
	}

	var failures []string
	for _, e := range c.entries {
		if ctx.Err() != nil {
			failures = append(failures, "context: "+ctx.Err().Error())
			break
		}
		resp, err := c.try(ctx, e, req)
		if err != nil {
			failures = append(failures, e.provider.Name()+": "+err.Error())
			continue
		}
		if co.useCache {
			c.cache.set(key, resp)
		}
		return resp
	}

	c.stats.exhausted()
	zap.L().Error("inference: all providers failed", zap.Strings("errors", failures))

	model := co.model
	if model == "" {
		model = "unknown"
	}
	return Response{
		Content:  AllProvidersFailed,
		Provider: ProviderNone,
		Model:    model,
		Success:  false,
		Error:    strings.Join(failures, "; "),
	}
}

func (c *Client) try(ctx context.Context, e entry, req Request) (Response, error) {
	name := e.provider.Name()
	breaker := c.breakers.Get(name)
	if err := breaker.Allow(); err != nil {
		zap.L().Debug("inference: skipping provider", zap.String("provider", name), zap.Error(err))
		return Response{}, err
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return Response{}, eris.Wrap(err, "inference: rate limit wait")
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.provider.Generate(callCtx, req)
	latency := time.Since(start)
	if err == nil && !resp.Success {
		err = errors.New(resp.Error)
	}
	if err == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		err = eris.Wrapf(callCtx.Err(), "inference: %s timed out", name)
	}
	breaker.Record(err)

	if err != nil {
		c.stats.failure(name)
		zap.L().Warn("inference: provider failed",
			zap.String("provider", name),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		return Response{}, err
	}

	if resp.Provider == "" {
		resp.Provider = name
	}
	resp.Latency = latency.Seconds()
	if resp.TokensUsed == 0 {
		resp.TokensUsed = resp.Usage.InputTokens + resp.Usage.OutputTokens
	}
	c.stats.success(name, latency, resp.Usage)
	zap.L().Info("inference: generated",
		zap.String("provider", name),
		zap.String("model", resp.Model),
		zap.Duration("latency", latency),
	)
	return resp, nil
}

// AvailableProviders lists the constructed providers in priority order.
func (c *Client) AvailableProviders() []string {
	out := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.provider.Name())
	}
	return out
}

// Providers returns the identity of every constructed provider.
func (c *Client) Providers() []Identity {
	out := make([]Identity, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.provider.Identity())
	}
	return out
}

// Unavailable lists configured providers that were skipped at construction.
func (c *Client) Unavailable() []Unavailable {
	return append([]Unavailable(nil), c.unavailable...)
}

// Stats returns a usage snapshot.
func (c *Client) Stats() Stats {
	s := c.stats.snapshot()
	s.CachedResponses = c.cache.len()
	circuits := make(map[string]string)
	for _, b := range c.breakers.Snapshot() {
		circuits[b.Name] = b.State
	}
	for i := range s.Providers {
		s.Providers[i].Circuit = circuits[s.Providers[i].Name]
	}
	return s
}

// ClearCache drops every cached response.
func (c *Client) ClearCache() {
	c.cache.flush()
	zap.L().Info("inference: response cache cleared")
}
