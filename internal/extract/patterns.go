package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/prospect-cli/internal/normalize"
)

var (
	phonePattern = regexp.MustCompile(`\(?\d{2,3}\)?\s*\d{4,5}-?\d{4}`)
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	urlPattern   = regexp.MustCompile(`https?://[^\s<>"'()\[\]]+`)
	numericOnly  = regexp.MustCompile(`^[\d\s.,()\-/+]+$`)
)

// addressIndicators start a Brazilian street address.
var addressIndicators = []string{"rua", "avenida", "av.", "alameda", "praca", "rodovia", "estrada", "travessa"}

// searchHosts never count as a business website.
var searchHosts = []string{
	"google.", "bing.com", "gstatic.com", "googleusercontent.com",
	"microsoft.com", "msn.com", "yahoo.com", "duckduckgo.com",
	"schema.org", "w3.org",
}

// businessWords mark a line as a plausible business description.
var businessWords = []string{
	"empresa", "servico", "servicos", "atendimento", "especializad", "qualidade",
	"clientes", "solucoes", "profissionais", "experiencia", "oferece", "oferecemos",
	"atuamos", "atua", "desde", "tradicao", "referencia", "delivery", "consultas",
	"produtos", "loja", "restaurante", "clinica", "escritorio",
}

// FindPhone returns the first phone number in s.
func FindPhone(s string) string {
	return strings.TrimSpace(phonePattern.FindString(s))
}

// FindEmail returns the first email address in s.
func FindEmail(s string) string {
	return emailPattern.FindString(s)
}

// FindURL returns the first business website URL in s.
func FindURL(s string) string {
	for _, u := range urlPattern.FindAllString(s, -1) {
		u = strings.TrimRight(u, ".,;:")
		if IsBusinessURL(u) {
			return u
		}
	}
	return ""
}

// IsAddress reports whether line starts with an address indicator.
func IsAddress(line string) bool {
	folded := normalize.Text(line)
	for _, ind := range addressIndicators {
		if strings.HasPrefix(folded, ind+" ") || (strings.HasSuffix(ind, ".") && strings.HasPrefix(folded, ind)) {
			return true
		}
	}
	return false
}

// IsDescription reports whether line is a 10–200 character sentence that
// talks about a business.
func IsDescription(line string) bool {
	n := len([]rune(line))
	if n < 10 || n > 200 {
		return false
	}
	folded := normalize.Text(line)
	for _, w := range businessWords {
		if strings.Contains(folded, w) {
			return true
		}
	}
	return false
}

// IsBusinessURL reports whether raw is an http(s) URL outside the search
// engines and their asset hosts.
func IsBusinessURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range searchHosts {
		if strings.Contains(host, h) {
			return false
		}
	}
	return true
}

// unwrapRedirect resolves search-engine redirect links such as
// "/url?q=https://example.com&sa=U" to their target.
func unwrapRedirect(href string) string {
	href = strings.TrimSpace(href)
	if !strings.HasPrefix(href, "/url?") && !strings.Contains(href, "google.com/url?") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	for _, key := range []string{"q", "url"} {
		if target := u.Query().Get(key); target != "" {
			return target
		}
	}
	return href
}

// contactFields collects contact data from lines.
type contactFields struct {
	phone, email, website, address, description string
}

func (c *contactFields) scan(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if c.email == "" {
		c.email = FindEmail(line)
	}
	if c.phone == "" {
		c.phone = FindPhone(line)
	}
	if c.website == "" {
		c.website = FindURL(line)
	}
	if c.address == "" && IsAddress(line) {
		c.address = line
	}
	if c.description == "" && IsDescription(line) && !IsAddress(line) {
		c.description = line
	}
}

func (c *contactFields) link(href string) {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	switch {
	case strings.HasPrefix(lower, "tel:"):
		if c.phone == "" {
			c.phone = strings.TrimSpace(href[4:])
		}
	case strings.HasPrefix(lower, "mailto:"):
		if c.email == "" {
			addr, _, _ := strings.Cut(href[7:], "?")
			c.email = strings.TrimSpace(addr)
		}
	default:
		target := unwrapRedirect(href)
		if c.website == "" && IsBusinessURL(target) {
			c.website = target
		}
	}
}

func (c *contactFields) any() bool {
	return c.phone != "" || c.email != "" || c.website != "" || c.address != ""
}

// Contact is the contact data found in a piece of text.
type Contact struct {
	Phone, Email, Website, Address string
}

// FindContact scans text line by line for contact data.
func FindContact(text string) Contact {
	var c contactFields
	for _, line := range strings.Split(text, "\n") {
		c.scan(line)
	}
	return Contact{Phone: c.phone, Email: c.email, Website: c.website, Address: c.address}
}
