// Package fetch retrieves web pages for the collection sources and the
// website analyzer. Fetchers are composed into a Chain that falls back to
// the next fetcher when one fails or is blocked.
package fetch

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// Sentinel errors.
var (
	ErrDisallowed = eris.New("fetch: disallowed by robots.txt")
	ErrBlocked    = eris.New("fetch: blocked")
	ErrEmpty      = eris.New("fetch: empty page")
)

// Page is a fetched document.
type Page struct {
	URL         string // final URL after redirects
	Status      int
	ContentType string
	Title       string
	Body        string
	Source      string // "http" or "jina"
	Tokens      int    // reader tokens billed, zero for direct fetches
}

// IsHTML reports whether Body is HTML rather than reader markdown.
func (p *Page) IsHTML() bool {
	if p == nil {
		return false
	}
	if strings.Contains(strings.ToLower(p.ContentType), "html") {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(p.Body))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype html") || strings.Contains(head, "<html")
}

// Fetcher retrieves a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
	Name() string
}
