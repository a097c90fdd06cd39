// Package cost estimates spend for inference and reader calls.
package cost

import "github.com/sells-group/prospect-cli/internal/config"

// ModelRate is token pricing in USD per million tokens.
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Rates holds per-provider pricing.
type Rates struct {
	Providers   map[string]ModelRate `yaml:"providers" mapstructure:"providers"`
	JinaPerMTok float64              `yaml:"jina_per_mtok" mapstructure:"jina_per_mtok"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Tokens returns the cost of a call to provider. Unknown providers cost
// nothing.
func (c *Calculator) Tokens(provider string, input, output int) float64 {
	if c == nil {
		return 0
	}
	rate, ok := c.rates.Providers[provider]
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// Jina returns the cost of Jina reader token usage.
func (c *Calculator) Jina(tokens int) float64 {
	if c == nil {
		return 0
	}
	return (float64(tokens) / 1e6) * c.rates.JinaPerMTok
}

// RatesFromConfig builds Rates from the pricing section of the config.
func RatesFromConfig(p config.PricingConfig) Rates {
	rates := Rates{Providers: make(map[string]ModelRate), JinaPerMTok: DefaultRates().JinaPerMTok}
	for _, name := range []string{"groq", "openrouter", "huggingface", "anthropic"} {
		mp := p.For(name)
		rates.Providers[name] = ModelRate{Input: mp.Input, Output: mp.Output}
	}
	return rates
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Providers: map[string]ModelRate{
			"groq":        {Input: 0.05, Output: 0.08},
			"openrouter":  {},
			"huggingface": {},
			"anthropic":   {Input: 1.00, Output: 5.00},
		},
		JinaPerMTok: 0.02,
	}
}
