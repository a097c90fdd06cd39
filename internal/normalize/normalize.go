// Package normalize canonicalizes lead fields for matching and deduplication.
package normalize

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultPhoneRegion is the region used to parse numbers without a country code.
const DefaultPhoneRegion = "BR"

// legalSuffixPattern matches trailing Brazilian entity suffixes.
var legalSuffixPattern = regexp.MustCompile(`(?i)[,\s\-]+(ltda\.?|eireli|epp|me|s/?a|s\.a\.?)$`)

var (
	spacePattern = regexp.MustCompile(`\s+`)
	digitPattern = regexp.MustCompile(`\D`)
)

// Fold lowercases s and strips diacritics so "São Paulo" and "sao paulo"
// compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(cases.Fold().String(out))
}

// Text folds s and collapses runs of whitespace.
func Text(s string) string {
	return spacePattern.ReplaceAllString(Fold(s), " ")
}

// Name returns the deduplication key for a business name.
func Name(name string) string {
	n := Text(name)
	for {
		stripped := legalSuffixPattern.ReplaceAllString(n, "")
		if stripped == n {
			break
		}
		n = stripped
	}
	return strings.Trim(n, " .,-")
}

// Website returns the deduplication key for a website URL. Scheme, "www."
// prefix, query, fragment and trailing slash are dropped.
func Website(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(raw, "/")
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	return host + strings.TrimRight(u.EscapedPath(), "/")
}

// Domain returns the bare host of a URL or email address, without "www.".
func Domain(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if at := strings.LastIndex(s, "@"); at >= 0 && !strings.Contains(s, "://") {
		return s[at+1:]
	}
	key := Website(s)
	if i := strings.Index(key, "/"); i >= 0 {
		return key[:i]
	}
	return key
}

// Digits strips every non-digit character.
func Digits(s string) string {
	return digitPattern.ReplaceAllString(s, "")
}

// Phone formats a phone number as E.164. Numbers that fail to parse or
// validate are returned as bare digits.
func Phone(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	num, err := phonenumbers.Parse(trimmed, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return Digits(trimmed)
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// ContainsFold reports whether needle occurs in haystack after folding both.
func ContainsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(Text(haystack), Text(needle))
}
