package fetch

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/pkg/jina"
)

// JinaFetcher reads pages through the Jina reader, which renders
// JavaScript-heavy sites and returns markdown. Three consecutive failures
// open its circuit for a minute.
type JinaFetcher struct {
	client  jina.Client
	breaker *resilience.Breaker
}

// NewJinaFetcher creates a JinaFetcher.
func NewJinaFetcher(client jina.Client) *JinaFetcher {
	return &JinaFetcher{
		client: client,
		breaker: resilience.NewBreaker("jina", resilience.BreakerConfig{
			FailureThreshold: 3,
			Cooldown:         time.Minute,
		}),
	}
}

// Name implements Fetcher.
func (j *JinaFetcher) Name() string { return "jina" }

// Fetch implements Fetcher.
func (j *JinaFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	return resilience.ExecuteVal(ctx, j.breaker, func(ctx context.Context) (*Page, error) {
		resp, err := j.client.Read(ctx, rawURL)
		if err != nil {
			return nil, eris.Wrap(err, "fetch: jina read")
		}
		if reason := unusable(resp); reason != "" {
			return nil, eris.Wrapf(ErrBlocked, "fetch: jina %s: %s", rawURL, reason)
		}
		u := resp.Data.URL
		if u == "" {
			u = rawURL
		}
		return &Page{
			URL:         u,
			Status:      200,
			ContentType: "text/markdown",
			Title:       resp.Data.Title,
			Body:        resp.Data.Content,
			Source:      j.Name(),
			Tokens:      resp.Data.Usage.Tokens,
		}, nil
	})
}

var readerChallenges = []string{
	"checking your browser",
	"enable javascript",
	"please enable cookies",
	"access denied",
	"403 forbidden",
	"just a moment",
	"attention required",
}

// unusable explains why a reader response should fall through to the
// next fetcher, or returns "".
func unusable(resp *jina.ReadResponse) string {
	if resp == nil {
		return "nil response"
	}
	if resp.Code != 0 && resp.Code != 200 {
		return "status " + strconv.Itoa(resp.Code)
	}
	content := strings.TrimSpace(resp.Data.Content)
	if len(content) < 100 {
		return "content too short"
	}
	if len(content) < 1000 {
		lower := strings.ToLower(content)
		for _, sig := range readerChallenges {
			if strings.Contains(lower, sig) {
				return "challenge page"
			}
		}
	}
	return ""
}
