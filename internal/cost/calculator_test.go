package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/prospect-cli/internal/config"
)

func TestTokens(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(DefaultRates())

	tests := []struct {
		name     string
		provider string
		input    int
		output   int
		want     float64
	}{
		{name: "groq", provider: "groq", input: 1_000_000, output: 1_000_000, want: 0.13},
		{name: "anthropic", provider: "anthropic", input: 500_000, output: 100_000, want: 0.5 + 0.5},
		{name: "free tier", provider: "openrouter", input: 1_000_000, output: 1_000_000, want: 0},
		{name: "mock", provider: "mock", input: 10, output: 10, want: 0},
		{name: "zero tokens", provider: "groq", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, calc.Tokens(tt.provider, tt.input, tt.output), 1e-9)
		})
	}
}

func TestJina(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(DefaultRates())
	assert.InDelta(t, 0.02, calc.Jina(1_000_000), 1e-9)
	assert.InDelta(t, 0.0, calc.Jina(0), 1e-9)
}

func TestNilCalculator(t *testing.T) {
	t.Parallel()
	var calc *Calculator
	assert.Zero(t, calc.Tokens("groq", 100, 100))
	assert.Zero(t, calc.Jina(100))
}

func TestRatesFromConfig(t *testing.T) {
	t.Parallel()
	rates := RatesFromConfig(config.PricingConfig{
		Groq:      config.ModelPricing{Input: 1, Output: 2},
		Anthropic: config.ModelPricing{Input: 3, Output: 4},
	})
	assert.Equal(t, ModelRate{Input: 1, Output: 2}, rates.Providers["groq"])
	assert.Equal(t, ModelRate{Input: 3, Output: 4}, rates.Providers["anthropic"])
	assert.Contains(t, rates.Providers, "huggingface")
	assert.InDelta(t, 0.02, rates.JinaPerMTok, 1e-9)

	calc := NewCalculator(rates)
	assert.InDelta(t, 3.0, calc.Tokens("groq", 1_000_000, 1_000_000), 1e-9)
}
