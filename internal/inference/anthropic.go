package inference

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/pkg/anthropic"
)

// AnthropicProvider uses the Anthropic messages API.
type AnthropicProvider struct {
	cfg    ProviderConfig
	client anthropic.Client
}

// NewAnthropicProvider creates a provider backed by client.
func NewAnthropicProvider(cfg ProviderConfig, client anthropic.Client) *AnthropicProvider {
	return &AnthropicProvider{cfg: cfg, client: client}
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string { return p.cfg.Name }

// Identity implements Provider.
func (p *AnthropicProvider) Identity() Identity {
	return p.cfg.identity("anthropic-messages/2023-06-01", true)
}

// Generate implements Provider.
func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (Response, error) {
	model := p.cfg.model(req.Model)
	t := temperature(req.Temperature)
	msg, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       model,
		MaxTokens:   int64(p.cfg.maxTokens(req.MaxTokens)),
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &t,
	})
	if err != nil {
		return Response{}, eris.Wrapf(err, "inference: %s generate", p.cfg.Name)
	}
	if msg.Model != "" {
		model = msg.Model
	}
	return Response{
		Content:  strings.TrimSpace(msg.Text()),
		Provider: p.cfg.Name,
		Model:    model,
		Success:  true,
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}
