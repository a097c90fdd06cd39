package inference

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"

	"github.com/sells-group/prospect-cli/internal/resilience"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions API. Groq
// and OpenRouter both use it.
type OpenAIProvider struct {
	cfg    ProviderConfig
	client *openai.Client
}

// NewOpenAIProvider creates a provider for cfg. It fails when apiKey is
// empty.
func NewOpenAIProvider(cfg ProviderConfig, apiKey string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, eris.Wrapf(ErrAPIKeyNotFound, "inference: %s", cfg.Name)
	}

	oc := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if len(cfg.Headers) > 0 {
		oc.HTTPClient = &http.Client{
			Transport: &headerTransport{headers: cfg.Headers, base: http.DefaultTransport},
		}
	}

	return &OpenAIProvider{cfg: cfg, client: openai.NewClientWithConfig(oc)}, nil
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return p.cfg.Name }

// Identity implements Provider.
func (p *OpenAIProvider) Identity() Identity {
	return p.cfg.identity("openai-chat/v1", true)
}

// Generate implements Provider.
func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (Response, error) {
	model := p.cfg.model(req.Model)
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   p.cfg.maxTokens(req.MaxTokens),
		Temperature: float32(temperature(req.Temperature)),
	})
	if err != nil {
		return Response{}, classifyOpenAIError(p.cfg.Name, err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, eris.Errorf("inference: %s returned no choices", p.cfg.Name)
	}

	if resp.Model != "" {
		model = resp.Model
	}
	return Response{
		Content:    strings.TrimSpace(resp.Choices[0].Message.Content),
		Provider:   p.cfg.Name,
		Model:      model,
		Success:    true,
		TokensUsed: resp.Usage.TotalTokens,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func classifyOpenAIError(name string, err error) error {
	wrapped := eris.Wrapf(err, "inference: %s chat completion", name)

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if resilience.IsTransientHTTPStatus(status) {
		return resilience.NewTransientError(wrapped, status)
	}
	return wrapped
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		r.Header.Set(k, v)
	}
	return t.base.RoundTrip(r)
}
