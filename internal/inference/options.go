package inference

import (
	"strconv"
	"time"

	"github.com/sells-group/prospect-cli/internal/cost"
	"github.com/sells-group/prospect-cli/internal/resilience"
)

// Option customizes a single Generate call.
type Option func(*callOptions)

type callOptions struct {
	model       string
	useCache    bool
	maxTokens   int
	temperature *float64
	params      map[string]string
}

func newCallOptions(opts []Option) callOptions {
	co := callOptions{useCache: true, params: map[string]string{}}
	for _, o := range opts {
		o(&co)
	}
	return co
}

// cacheParams returns every parameter that affects the output.
func (co callOptions) cacheParams() map[string]string {
	out := make(map[string]string, len(co.params)+2)
	for k, v := range co.params {
		out[k] = v
	}
	if co.maxTokens > 0 {
		out["max_tokens"] = strconv.Itoa(co.maxTokens)
	}
	if co.temperature != nil {
		out["temperature"] = strconv.FormatFloat(*co.temperature, 'f', -1, 64)
	}
	return out
}

// WithModel requests a specific model.
func WithModel(model string) Option {
	return func(o *callOptions) { o.model = model }
}

// WithoutCache bypasses the response cache for this call.
func WithoutCache() Option {
	return func(o *callOptions) { o.useCache = false }
}

// WithParam sets a free-form parameter. Parameters are part of the cache key.
func WithParam(key, value string) Option {
	return func(o *callOptions) { o.params[key] = value }
}

// WithMaxTokens caps the generated length.
func WithMaxTokens(n int) Option {
	return func(o *callOptions) { o.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *callOptions) { o.temperature = &t }
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCacheTTL enables the response cache with the given TTL. A zero TTL
// disables caching.
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		if ttl <= 0 {
			c.cache = nil
			return
		}
		c.cache = newResponseCache(ttl)
	}
}

// WithBreakerConfig sets the per-provider circuit breaker settings.
func WithBreakerConfig(cfg resilience.BreakerConfig) ClientOption {
	return func(c *Client) { c.breakers = resilience.NewBreakers(cfg) }
}

// WithCalculator enables cost estimates in Stats.
func WithCalculator(calc *cost.Calculator) ClientOption {
	return func(c *Client) { c.stats.calc = calc }
}
