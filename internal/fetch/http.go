package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/resilience"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ProspectBot/1.0)"

// HTTPOptions configures an HTTPFetcher.
type HTTPOptions struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxBodyBytes      int64
	Retry             resilience.RetryPolicy
	// Robots is consulted before every fetch when set.
	Robots *RobotsChecker
	// Client overrides the default HTTP client.
	Client *http.Client
}

// HTTPOptionsFromConfig maps the fetch config section to options.
func HTTPOptionsFromConfig(cfg config.FetchConfig) HTTPOptions {
	opts := HTTPOptions{
		UserAgent:         cfg.UserAgent,
		Timeout:           time.Duration(cfg.TimeoutSecs) * time.Second,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		Retry:             resilience.DefaultRetryPolicy(),
	}
	if cfg.RetryAttempts > 0 {
		opts.Retry.MaxAttempts = cfg.RetryAttempts
	}
	opts.Retry.OnTransition = resilience.RetryLogger("http", "fetch")
	return opts
}

// HTTPFetcher fetches pages directly over HTTP with per-host rate limits.
type HTTPFetcher struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *hostLimiter
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 << 20
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 4,
			},
		}
	}
	return &HTTPFetcher{
		client:  client,
		opts:    opts,
		limiter: newHostLimiter(opts.RequestsPerSecond, opts.Burst),
	}
}

// Name implements Fetcher.
func (f *HTTPFetcher) Name() string { return "http" }

// Fetch implements Fetcher. Rate-limited and 5xx responses are retried
// under the configured policy; blocks and other 4xx responses are not.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, eris.Errorf("fetch: invalid url %q", rawURL)
	}

	if f.opts.Robots != nil && !f.opts.Robots.Allowed(ctx, rawURL) {
		return nil, eris.Wrapf(ErrDisallowed, "fetch: %s", rawURL)
	}

	return resilience.DoVal(ctx, f.opts.Retry, func(ctx context.Context) (*Page, error) {
		if err := f.limiter.Wait(ctx, u.Host); err != nil {
			return nil, eris.Wrap(err, "fetch: rate limit wait")
		}
		return f.get(ctx, rawURL)
	})
}

func (f *HTTPFetcher) get(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: get %s", rawURL)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "fetch: read body")
	}

	if block := DetectBlock(resp.StatusCode, resp.Header, body); block != BlockNone {
		zap.L().Debug("fetch: blocked", zap.String("url", rawURL), zap.String("block", string(block)))
		return nil, eris.Wrapf(ErrBlocked, "fetch: %s (%s)", rawURL, block)
	}
	if resp.StatusCode >= 400 {
		return nil, resilience.StatusError("fetch", resp.StatusCode, body)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, eris.Wrapf(ErrEmpty, "fetch: %s", rawURL)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &Page{
		URL:         finalURL,
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Title:       htmlTitle(body),
		Body:        string(body),
		Source:      f.Name(),
	}, nil
}

var titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

func htmlTitle(body []byte) string {
	if m := titleRe.FindSubmatch(body); len(m) > 1 {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}

// hostLimiter keeps one token bucket per host.
type hostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newHostLimiter(perSecond float64, burst int) *hostLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &hostLimiter{limiters: make(map[string]*rate.Limiter), limit: limit, burst: burst}
}

func (h *hostLimiter) Wait(ctx context.Context, host string) error {
	h.mu.Lock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(h.limit, h.burst)
		h.limiters[host] = l
	}
	h.mu.Unlock()
	return l.Wait(ctx)
}
