// Package source collects candidate leads from independent external
// sources. Each source turns a keyword and region into records; the
// Aggregator fans keywords out to every source and merges the results.
package source

import (
	"context"
	"net/url"
	"strings"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Query is one keyword search against one source.
type Query struct {
	Keyword string
	Region  string
	Limit   int
}

// Text is the free-text search string for q.
func (q Query) Text() string {
	return strings.TrimSpace(q.Keyword + " " + q.Region)
}

// Source searches one external origin.
type Source interface {
	Name() model.Source
	Search(ctx context.Context, q Query) ([]model.Lead, error)
}

// expand fills the {keyword}, {region} and {query} placeholders of a URL
// template. Values land in paths or query strings, so they are escaped
// with PathEscape, which is valid in both.
func expand(template string, q Query) string {
	r := strings.NewReplacer(
		"{keyword}", url.PathEscape(q.Keyword),
		"{region}", url.PathEscape(q.Region),
		"{query}", url.QueryEscape(q.Text()),
	)
	return r.Replace(template)
}
