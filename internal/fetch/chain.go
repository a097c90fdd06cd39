package fetch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/pkg/jina"
)

// Chain tries fetchers in order and returns the first success.
type Chain struct {
	fetchers []Fetcher
}

// NewChain creates a Chain over fetchers.
func NewChain(fetchers ...Fetcher) *Chain {
	return &Chain{fetchers: fetchers}
}

// NewFromConfig builds the default chain: direct HTTP first, then the Jina
// reader when enabled and a client is given.
func NewFromConfig(cfg config.FetchConfig, reader jina.Client) *Chain {
	opts := HTTPOptionsFromConfig(cfg)
	if cfg.RespectRobots {
		opts.Robots = NewRobotsChecker(nil, robotsAgent(opts.UserAgent), time.Hour)
	}
	fetchers := []Fetcher{NewHTTPFetcher(opts)}
	if cfg.UseJinaFallback && reader != nil {
		fetchers = append(fetchers, NewJinaFetcher(reader))
	}
	return NewChain(fetchers...)
}

// Name implements Fetcher.
func (c *Chain) Name() string { return "chain" }

// Fetch implements Fetcher. A robots.txt disallow stops the chain; the
// reader would fetch the same page on our behalf.
func (c *Chain) Fetch(ctx context.Context, url string) (*Page, error) {
	var errs []error
	for _, f := range c.fetchers {
		page, err := f.Fetch(ctx, url)
		if err == nil {
			return page, nil
		}
		zap.L().Debug("fetch: fetcher failed, trying next",
			zap.String("fetcher", f.Name()),
			zap.String("url", url),
			zap.Error(err),
		)
		errs = append(errs, err)
		if errors.Is(err, ErrDisallowed) || ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return nil, eris.Errorf("fetch: no fetchers for %s", url)
	}
	return nil, eris.Wrap(errors.Join(errs...), "fetch: all fetchers failed")
}

// robotsAgent reduces a user agent string to the product token robots.txt
// groups match on, e.g. "ProspectBot" for DefaultUserAgent.
func robotsAgent(ua string) string {
	for _, field := range strings.Fields(ua) {
		field = strings.Trim(field, "();")
		if field == "" || field == "compatible" || strings.HasPrefix(field, "Mozilla/") {
			continue
		}
		name, _, _ := strings.Cut(field, "/")
		return name
	}
	return ua
}
