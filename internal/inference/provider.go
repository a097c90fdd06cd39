// Package inference is a text-generation client that fails over across
// several hosted providers, each behind its own rate window and circuit
// breaker, with a response cache in front.
package inference

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/config"
)

// Provider names.
const (
	ProviderGroq        = "groq"
	ProviderOpenRouter  = "openrouter"
	ProviderHuggingFace = "huggingface"
	ProviderAnthropic   = "anthropic"
	ProviderMock        = "mock"

	// ProviderNone marks the synthetic response returned when every
	// provider failed.
	ProviderNone = "none"
)

// ErrAPIKeyNotFound is returned when a provider has no credential.
var ErrAPIKeyNotFound = eris.New("API key not found")

// Request is a single generation request handed to a provider.
type Request struct {
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature *float64
	Params      map[string]string
}

// Usage is token consumption reported by a provider.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the result of a generation. It is never mutated after
// Generate returns it.
type Response struct {
	Content    string  `json:"content"`
	Provider   string  `json:"provider"`
	Model      string  `json:"model"`
	Success    bool    `json:"success"`
	Error      string  `json:"error,omitempty"`
	Latency    float64 `json:"latency"`
	TokensUsed int     `json:"tokens_used,omitempty"`
	Usage      Usage   `json:"usage"`
	Cached     bool    `json:"cached"`
}

// Identity is a static description of a provider.
type Identity struct {
	Name              string   `json:"name"`
	Version           string   `json:"version"`
	BaseURL           string   `json:"base_url,omitempty"`
	Models            []string `json:"models"`
	DefaultModel      string   `json:"default_model"`
	RequestsPerMinute int      `json:"requests_per_minute"`
	RequiresKey       bool     `json:"requires_key"`
}

// Provider generates text.
type Provider interface {
	Name() string
	Identity() Identity
	Generate(ctx context.Context, req Request) (Response, error)
}

// ProviderConfig is the read-only configuration of one provider.
type ProviderConfig struct {
	Name              string
	APIKeyEnv         string
	BaseURL           string
	Models            []string
	DefaultModel      string
	RequestsPerMinute int
	MaxTokens         int
	Timeout           time.Duration
	Headers           map[string]string
}

// ProviderConfigFrom builds a ProviderConfig from config settings.
func ProviderConfigFrom(name string, s config.ProviderSettings) ProviderConfig {
	pc := ProviderConfig{
		Name:              name,
		APIKeyEnv:         s.APIKeyEnv,
		BaseURL:           s.BaseURL,
		Models:            append([]string(nil), s.Models...),
		DefaultModel:      s.DefaultModel,
		RequestsPerMinute: s.RequestsPerMinute,
		MaxTokens:         s.MaxTokens,
		Timeout:           time.Duration(s.TimeoutSecs) * time.Second,
	}
	if s.Referer != "" || s.Title != "" {
		pc.Headers = map[string]string{}
		if s.Referer != "" {
			pc.Headers["HTTP-Referer"] = s.Referer
		}
		if s.Title != "" {
			pc.Headers["X-Title"] = s.Title
		}
	}
	return pc
}

// model picks the requested model or the provider default.
func (c ProviderConfig) model(requested string) string {
	if requested != "" {
		return requested
	}
	if c.DefaultModel != "" {
		return c.DefaultModel
	}
	if len(c.Models) > 0 {
		return c.Models[0]
	}
	return ""
}

func (c ProviderConfig) maxTokens(requested int) int {
	if requested > 0 {
		return requested
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1024
}

func (c ProviderConfig) identity(version string, requiresKey bool) Identity {
	return Identity{
		Name:              c.Name,
		Version:           version,
		BaseURL:           c.BaseURL,
		Models:            append([]string(nil), c.Models...),
		DefaultModel:      c.model(""),
		RequestsPerMinute: c.RequestsPerMinute,
		RequiresKey:       requiresKey,
	}
}

const defaultTemperature = 0.7

func temperature(t *float64) float64 {
	if t == nil {
		return defaultTemperature
	}
	return *t
}
