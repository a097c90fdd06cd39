package inference

import (
	"context"
	"strings"
)

const mockEmail = `Olá!

Identificamos oportunidades de melhoria digital para seu negócio.

Como especialistas em desenvolvimento de software, podemos ajudar você a:
• Melhorar a performance do seu site
• Desenvolver novas funcionalidades
• Criar aplicações mobile
• Modernizar seus sistemas

Gostaria de agendar uma conversa gratuita?

Atenciosamente,
Equipe Comercial`

const mockAnalysis = "Esta é uma resposta simulada. Configure uma chave de API válida para respostas reais."

// MockProvider returns canned text and needs no credentials.
type MockProvider struct {
	cfg ProviderConfig
}

// NewMockProvider creates a MockProvider.
func NewMockProvider(cfg ProviderConfig) *MockProvider {
	cfg.Name = ProviderMock
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "mock-model"
	}
	return &MockProvider{cfg: cfg}
}

// Name implements Provider.
func (p *MockProvider) Name() string { return ProviderMock }

// Identity implements Provider.
func (p *MockProvider) Identity() Identity { return p.cfg.identity("mock/1", false) }

// Generate implements Provider.
func (p *MockProvider) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	content := mockAnalysis
	if strings.Contains(strings.ToLower(req.Prompt), "email") {
		content = mockEmail
	}
	return Response{
		Content:  content,
		Provider: ProviderMock,
		Model:    p.cfg.model(req.Model),
		Success:  true,
	}, nil
}
