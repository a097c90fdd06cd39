package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// block is a heading plus the text lines and links that follow it up to
// the next heading.
type block struct {
	heading string
	level   atom.Atom // h1..h6, or 0 for aria-label and role=heading names
	href    string    // link wrapping or inside the heading
	lines   []string
	links   []string
}

var skipped = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true,
	atom.Svg: true, atom.Template: true, atom.Head: true,
}

var blockLevel = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Tr: true, atom.Td: true,
	atom.Br: true, atom.Section: true, atom.Article: true, atom.Address: true,
	atom.Dd: true, atom.Dt: true, atom.Ul: true, atom.Ol: true,
}

// parseBlocks walks the document in order and groups its content under
// headings. Content before the first heading lands in a block with an
// empty heading.
func parseBlocks(raw string) []block {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil
	}

	w := &walker{blocks: []block{{}}}
	w.walk(doc)
	w.flush()
	return w.blocks
}

type walker struct {
	blocks []block
	text   strings.Builder
}

func (w *walker) cur() *block { return &w.blocks[len(w.blocks)-1] }

func (w *walker) flush() {
	line := collapse(w.text.String())
	w.text.Reset()
	if line != "" {
		b := w.cur()
		b.lines = append(b.lines, line)
	}
}

func (w *walker) start(heading string, level atom.Atom, href string) {
	w.flush()
	w.blocks = append(w.blocks, block{heading: heading, level: level, href: href})
}

func (w *walker) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text.WriteString(n.Data)
		w.text.WriteByte(' ')
		return
	case html.ElementNode:
		if skipped[n.DataAtom] {
			return
		}
		if heading, level, ok := headingOf(n); ok {
			w.start(heading, level, firstHref(n))
			if !isContainer(n) {
				return
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				w.walk(c)
			}
			w.flush()
			return
		}
		if n.DataAtom == atom.A && !containsHeading(n) {
			if href := attr(n, "href"); href != "" {
				b := w.cur()
				b.links = append(b.links, href)
			}
		}
		if blockLevel[n.DataAtom] {
			w.flush()
			defer w.flush()
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

// headingOf reports whether n names a listing: an h1–h6 element, an
// element with role=heading, or a link or container whose aria-label
// carries the name.
func headingOf(n *html.Node) (string, atom.Atom, bool) {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		if t := collapse(textOf(n)); t != "" {
			return t, n.DataAtom, true
		}
		return "", 0, false
	}
	if attr(n, "role") == "heading" {
		if t := collapse(textOf(n)); t != "" {
			return t, 0, true
		}
	}
	if label := collapse(attr(n, "aria-label")); label != "" {
		if n.DataAtom == atom.A || isContainer(n) {
			return label, 0, true
		}
	}
	return "", 0, false
}

// isContainer reports whether n is a listing card whose aria-label names
// the business and whose children hold its details.
func isContainer(n *html.Node) bool {
	return attr(n, "aria-label") != "" && (attr(n, "role") == "article" || n.DataAtom == atom.Article)
}

func containsHeading(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if _, _, ok := headingOf(c); ok || containsHeading(c) {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return b.String()
}

// firstHref returns the href of n if it is a link, else of the first link
// inside n, else of the closest enclosing link.
func firstHref(n *html.Node) string {
	if n.DataAtom == atom.A {
		return attr(n, "href")
	}
	var found string
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			found = attr(n, "href")
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	if found != "" {
		return found
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == atom.A {
			return attr(p, "href")
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
