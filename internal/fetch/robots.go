package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

const robotsMaxBytes = 512 * 1024

// RobotsChecker answers robots.txt queries, caching the parsed file per
// host. Hosts whose robots.txt cannot be fetched are allowed.
type RobotsChecker struct {
	client    *http.Client
	userAgent string
	cache     *gocache.Cache
}

// NewRobotsChecker creates a checker. Parsed files live for ttl.
func NewRobotsChecker(client *http.Client, userAgent string, ttl time.Duration) *RobotsChecker {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RobotsChecker{
		client:    client,
		userAgent: userAgent,
		cache:     gocache.New(ttl, 2*ttl),
	}
}

// Allowed reports whether rawURL may be fetched by the configured agent.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	data := r.load(ctx, u)
	if data == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, r.userAgent)
}

func (r *RobotsChecker) load(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	key := u.Scheme + "://" + u.Host
	if v, ok := r.cache.Get(key); ok {
		data, _ := v.(*robotstxt.RobotsData)
		return data
	}

	data, err := r.download(ctx, key+"/robots.txt")
	if err != nil {
		zap.L().Debug("fetch: robots.txt unavailable, allowing", zap.String("host", u.Host), zap.Error(err))
		// Cache the miss so the host is not probed on every fetch.
		r.cache.SetDefault(key, (*robotstxt.RobotsData)(nil))
		return nil
	}
	r.cache.SetDefault(key, data)
	return data
}

func (r *RobotsChecker) download(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, robotsMaxBytes))
	if err != nil {
		return nil, err
	}
	return robotstxt.FromStatusAndBytes(resp.StatusCode, body)
}
