// Package enrich attaches website, social and inference analysis to leads
// before they are scored.
package enrich

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/sells-group/prospect-cli/internal/fetch"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/normalize"
)

type techKind int

const (
	techModern techKind = iota
	techLegacy
	techBusiness
	techCommerce
	techTracking
)

// techSignature detects one technology by substrings of the lowercased
// page source.
type techSignature struct {
	name    string
	kind    techKind
	needles []string
}

var techSignatures = []techSignature{
	{"react", techModern, []string{"react-dom", "__next", "data-reactroot", "_next/static"}},
	{"angular", techModern, []string{"ng-version", "angular.min.js", "ng-app"}},
	{"vue", techModern, []string{"data-v-", "vue.min.js", "__nuxt"}},
	{"svelte", techModern, []string{"svelte-"}},
	{"tailwind", techModern, []string{"tailwindcss", "tailwind.min.css"}},
	{"webflow", techModern, []string{"webflow.js", "data-wf-page"}},
	{"cloudflare", techModern, []string{"cdnjs.cloudflare.com", "cf-beacon"}},
	{"wordpress", techLegacy, []string{"wp-content", "wp-includes", "wordpress"}},
	{"wix", techLegacy, []string{"wix.com", "wixstatic.com", "x-wix"}},
	{"joomla", techLegacy, []string{"/media/jui/", "joomla"}},
	{"jquery", techLegacy, []string{"jquery"}},
	{"bootstrap", techLegacy, []string{"bootstrap.min.css", "bootstrap.min.js"}},
	{"asp.net", techLegacy, []string{"__viewstate", "asp.net", ".aspx"}},
	{"php", techLegacy, []string{".php"}},
	{"flash", techLegacy, []string{".swf", "shockwave-flash"}},
	{"hubspot", techBusiness, []string{"js.hs-scripts.com", "hubspot"}},
	{"rd station", techBusiness, []string{"rdstation"}},
	{"salesforce", techBusiness, []string{"salesforce.com", "force.com"}},
	{"zendesk", techBusiness, []string{"zdassets.com", "zendesk"}},
	{"shopify", techCommerce, []string{"cdn.shopify.com", "shopify"}},
	{"woocommerce", techCommerce, []string{"woocommerce"}},
	{"vtex", techCommerce, []string{"vtex"}},
	{"nuvemshop", techCommerce, []string{"nuvemshop", "tiendanube"}},
	{"magento", techCommerce, []string{"mage/", "magento"}},
	{"google analytics", techTracking, []string{"google-analytics.com", "gtag(", "googletagmanager.com"}},
	{"facebook pixel", techTracking, []string{"connect.facebook.net", "fbq("}},
}

// Folded indicator phrases searched in the visible page text.
var (
	painIndicators = []string{
		"sistema lento", "processo manual", "erro humano", "falta de integracao",
		"seguranca vulneravel", "custo alto", "escalabilidade limitada",
		"sistema antigo", "legacy", "planilha excel", "papel", "manual",
		"duplicacao", "inconsistencia", "falta de automacao",
	}
	opportunityIndicators = []string{
		"crescimento", "expansao", "inovacao", "digitalizacao", "automacao",
		"integracao", "migracao", "upgrade", "reestruturacao", "transformacao",
		"modernizacao", "otimizacao", "eficiencia", "produtividade",
	}
)

var socialHosts = map[string]string{
	"facebook.com":  "facebook",
	"fb.com":        "facebook",
	"instagram.com": "instagram",
	"linkedin.com":  "linkedin",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"youtube.com":   "youtube",
	"tiktok.com":    "tiktok",
	"wa.me":         "whatsapp",
	"whatsapp.com":  "whatsapp",
}

// Platform returns the social platform a URL belongs to, or "".
func Platform(rawURL string) string {
	host := normalize.Domain(rawURL)
	for h, p := range socialHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return p
		}
	}
	return ""
}

// WebsiteAnalyzer inspects a lead's homepage.
type WebsiteAnalyzer struct {
	fetcher fetch.Fetcher
}

// NewWebsiteAnalyzer creates a WebsiteAnalyzer.
func NewWebsiteAnalyzer(f fetch.Fetcher) *WebsiteAnalyzer {
	return &WebsiteAnalyzer{fetcher: f}
}

// Analyze fetches rawURL and derives the tech stack, modernity, social
// links, pain points and IT needs. It never fails: an unreachable site
// comes back with Reachable false and the error text.
func (a *WebsiteAnalyzer) Analyze(ctx context.Context, rawURL string) *model.WebsiteAnalysis {
	target := strings.TrimSpace(rawURL)
	if target != "" && !strings.Contains(target, "://") {
		target = "https://" + target
	}
	out := &model.WebsiteAnalysis{URL: target, Maturity: model.MaturityUnknown}
	if target == "" {
		out.Error = "no website"
		return out
	}

	page, err := a.fetcher.Fetch(ctx, target)
	if err != nil {
		zap.L().Debug("enrich: website unreachable", zap.String("url", target), zap.Error(err))
		out.Error = err.Error()
		return out
	}
	if page.URL != "" {
		out.URL = page.URL
	}
	out.Reachable = true
	out.HTTPS = strings.HasPrefix(strings.ToLower(out.URL), "https://")
	inspect(out, page.Body)
	return out
}

// inspect fills the content-derived fields of out from an HTML body.
func inspect(out *model.WebsiteAnalysis, body string) {
	lower := strings.ToLower(body)

	var modern, legacy int
	for _, sig := range techSignatures {
		for _, n := range sig.needles {
			if strings.Contains(lower, n) {
				out.TechStack = append(out.TechStack, sig.name)
				switch sig.kind {
				case techModern:
					modern++
				case techLegacy:
					legacy++
				}
				break
			}
		}
	}

	doc, err := html.Parse(strings.NewReader(body))
	var text strings.Builder
	social := map[string]string{}
	if err == nil {
		walk(doc, out, &text, social)
	}
	for _, p := range sortedKeys(social) {
		out.SocialLinks = append(out.SocialLinks, social[p])
	}

	folded := normalize.Text(text.String())
	for _, p := range painIndicators {
		if strings.Contains(folded, p) {
			out.PainPoints = append(out.PainPoints, p)
		}
	}
	for _, o := range opportunityIndicators {
		if strings.Contains(folded, o) {
			out.Opportunities = append(out.Opportunities, o)
		}
	}

	out.Modern = out.HTTPS && out.Mobile && modern >= legacy
	out.Maturity = maturity(modern, legacy, len(out.PainPoints))
	out.ITNeeds = itNeeds(modern, legacy, out)
	out.Score = out.ITNeeds
}

func walk(n *html.Node, out *model.WebsiteAnalysis, text *strings.Builder, social map[string]string) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript:
			return
		case atom.Meta:
			if strings.EqualFold(attr(n, "name"), "viewport") {
				out.Mobile = true
			}
		case atom.A:
			href := attr(n, "href")
			if p := Platform(href); p != "" {
				if _, seen := social[p]; !seen {
					social[p] = href
				}
			}
		}
	}
	if n.Type == html.TextNode {
		text.WriteString(n.Data)
		text.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, out, text, social)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func maturity(modern, legacy, pains int) model.Maturity {
	switch {
	case modern > legacy && pains < 3:
		return model.MaturityHigh
	case modern == legacy || pains < 5:
		return model.MaturityMedium
	default:
		return model.MaturityLow
	}
}

// itNeeds is a 0-100 estimate of how much IT work the site suggests.
func itNeeds(modern, legacy int, a *model.WebsiteAnalysis) int {
	score := 0
	switch {
	case legacy > modern:
		score += 30
	case legacy > 0:
		score += 20
	}
	score += len(a.PainPoints) * 5
	score += len(a.Opportunities) * 3
	switch a.Maturity {
	case model.MaturityLow:
		score += 25
	case model.MaturityMedium:
		score += 15
	}
	if !a.HTTPS {
		score += 10
	}
	if !a.Mobile {
		score += 10
	}
	return min(score, 100)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
