package inference

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/pkg/huggingface"
)

// HuggingFaceProvider uses the HuggingFace Inference API.
type HuggingFaceProvider struct {
	cfg    ProviderConfig
	client huggingface.Client
}

// NewHuggingFaceProvider creates a provider backed by client.
func NewHuggingFaceProvider(cfg ProviderConfig, client huggingface.Client) *HuggingFaceProvider {
	return &HuggingFaceProvider{cfg: cfg, client: client}
}

// Name implements Provider.
func (p *HuggingFaceProvider) Name() string { return p.cfg.Name }

// Identity implements Provider.
func (p *HuggingFaceProvider) Identity() Identity {
	return p.cfg.identity("hf-inference/v1", true)
}

// Generate implements Provider.
func (p *HuggingFaceProvider) Generate(ctx context.Context, req Request) (Response, error) {
	model := p.cfg.model(req.Model)
	t := temperature(req.Temperature)
	out, err := p.client.Generate(ctx, model, huggingface.GenerateRequest{
		Inputs: req.Prompt,
		Parameters: huggingface.Parameters{
			MaxNewTokens: p.cfg.maxTokens(req.MaxTokens),
			Temperature:  &t,
			DoSample:     true,
		},
	})
	if err != nil {
		return Response{}, eris.Wrapf(err, "inference: %s generate", p.cfg.Name)
	}
	return Response{
		Content:  strings.TrimSpace(out.GeneratedText),
		Provider: p.cfg.Name,
		Model:    model,
		Success:  true,
	}, nil
}
