package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/pkg/anthropic"
	"github.com/sells-group/prospect-cli/pkg/huggingface"
)

func chatServer(t *testing.T, status int, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "chatcmpl-1",
			"model": body["model"],
			"choices": []map[string]any{{
				"index":   0,
				"message": map[string]any{"role": "assistant", "content": "  análise pronta  "},
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProvider_Generate(t *testing.T) {
	t.Parallel()
	srv := chatServer(t, http.StatusOK, nil)
	p, err := NewOpenAIProvider(ProviderConfig{Name: ProviderGroq, BaseURL: srv.URL, DefaultModel: "llama3-8b-8192"}, "test-key")
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), Request{Prompt: "olá"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "análise pronta", resp.Content)
	assert.Equal(t, "llama3-8b-8192", resp.Model)
	assert.Equal(t, 20, resp.TokensUsed)
	assert.Equal(t, 12, resp.Usage.InputTokens)
}

func TestOpenAIProvider_SendsConfiguredHeaders(t *testing.T) {
	t.Parallel()
	srv := chatServer(t, http.StatusOK, func(r *http.Request) {
		assert.Equal(t, "https://example.com", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Prospect", r.Header.Get("X-Title"))
	})
	pc := ProviderConfigFrom(ProviderOpenRouter, config.ProviderSettings{
		BaseURL: srv.URL, DefaultModel: "meta-llama/llama-3-8b-instruct:free",
		Referer: "https://example.com", Title: "Prospect",
	})
	p, err := NewOpenAIProvider(pc, "test-key")
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), Request{Prompt: "x"})
	require.NoError(t, err)
}

func TestOpenAIProvider_RateLimitIsTransient(t *testing.T) {
	t.Parallel()
	srv := chatServer(t, http.StatusTooManyRequests, nil)
	p, err := NewOpenAIProvider(ProviderConfig{Name: ProviderGroq, BaseURL: srv.URL}, "test-key")
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestOpenAIProvider_RequiresKey(t *testing.T) {
	t.Parallel()
	_, err := NewOpenAIProvider(ProviderConfig{Name: ProviderGroq}, "")
	assert.True(t, errors.Is(err, ErrAPIKeyNotFound))
}

type mockAnthropic struct{ mock.Mock }

func (m *mockAnthropic) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*anthropic.MessageResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestAnthropicProvider_Generate(t *testing.T) {
	t.Parallel()
	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-haiku-4-5-20251001" && req.MaxTokens == 256 && req.Messages[0].Content == "prompt"
	})).Return(&anthropic.MessageResponse{
		Model:   "claude-haiku-4-5-20251001",
		Content: []anthropic.ContentBlock{{Type: "text", Text: "resposta"}},
		Usage:   anthropic.TokenUsage{InputTokens: 30, OutputTokens: 10},
	}, nil)

	p := NewAnthropicProvider(ProviderConfig{Name: ProviderAnthropic, DefaultModel: "claude-haiku-4-5-20251001"}, client)
	resp, err := p.Generate(context.Background(), Request{Prompt: "prompt", MaxTokens: 256})
	require.NoError(t, err)
	assert.Equal(t, "resposta", resp.Content)
	assert.Equal(t, 30, resp.Usage.InputTokens)
	client.AssertExpectations(t)
}

func TestAnthropicProvider_Error(t *testing.T) {
	t.Parallel()
	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

	p := NewAnthropicProvider(ProviderConfig{Name: ProviderAnthropic}, client)
	_, err := p.Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

type mockHF struct{ mock.Mock }

func (m *mockHF) Generate(ctx context.Context, model string, req huggingface.GenerateRequest) (*huggingface.GenerateResponse, error) {
	args := m.Called(ctx, model, req)
	if r := args.Get(0); r != nil {
		return r.(*huggingface.GenerateResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestHuggingFaceProvider_Generate(t *testing.T) {
	t.Parallel()
	client := &mockHF{}
	client.On("Generate", mock.Anything, "microsoft/DialoGPT-medium", mock.MatchedBy(func(req huggingface.GenerateRequest) bool {
		return req.Inputs == "olá" && req.Parameters.DoSample && req.Parameters.MaxNewTokens == 512
	})).Return(&huggingface.GenerateResponse{Model: "microsoft/DialoGPT-medium", GeneratedText: " oi "}, nil)

	p := NewHuggingFaceProvider(ProviderConfig{Name: ProviderHuggingFace, DefaultModel: "microsoft/DialoGPT-medium", MaxTokens: 512}, client)
	resp, err := p.Generate(context.Background(), Request{Prompt: "olá"})
	require.NoError(t, err)
	assert.Equal(t, "oi", resp.Content)
	client.AssertExpectations(t)
}

func testInferenceConfig(groqURL string) config.InferenceConfig {
	return config.InferenceConfig{
		Order:               []string{"groq", "openrouter", "huggingface", "anthropic", "mock", "bogus"},
		CacheEnabled:        true,
		CacheTTLMinutes:     5,
		BreakerThreshold:    3,
		BreakerCooldownSecs: 10,
		Groq:                config.ProviderSettings{APIKeyEnv: "GROQ_API_KEY", BaseURL: groqURL, DefaultModel: "llama3-8b-8192", TimeoutSecs: 5},
		OpenRouter:          config.ProviderSettings{APIKeyEnv: "OPENROUTER_API_KEY"},
		HuggingFace:         config.ProviderSettings{APIKeyEnv: "HUGGINGFACE_API_KEY"},
		Anthropic:           config.ProviderSettings{APIKeyEnv: "ANTHROPIC_API_KEY"},
		Mock:                config.ProviderSettings{DefaultModel: "mock-model"},
	}
}

func TestNewFromConfig_SkipsMissingKeysAndAppendsMock(t *testing.T) {
	t.Parallel()
	srv := chatServer(t, http.StatusOK, nil)
	c := NewFromConfig(testInferenceConfig(srv.URL), MapCredentials{"GROQ_API_KEY": "test-key", "OPENROUTER_API_KEY": ""})

	assert.Equal(t, []string{"groq", "mock"}, c.AvailableProviders())

	reasons := map[string]string{}
	for _, u := range c.Unavailable() {
		reasons[u.Name] = u.Reason
	}
	assert.Equal(t, "API key not found", reasons["openrouter"])
	assert.Equal(t, "API key not found", reasons["huggingface"])
	assert.Equal(t, "API key not found", reasons["anthropic"])
	assert.Equal(t, "unknown provider", reasons["bogus"])

	resp := c.Generate(context.Background(), "olá")
	assert.Equal(t, "groq", resp.Provider)
	assert.Equal(t, "análise pronta", resp.Content)
}

func TestNewFromConfig_FallsBackToMock(t *testing.T) {
	t.Parallel()
	srv := chatServer(t, http.StatusInternalServerError, nil)
	c := NewFromConfig(testInferenceConfig(srv.URL), MapCredentials{"GROQ_API_KEY": "test-key"})

	resp := c.Generate(context.Background(), "escreva um email")
	assert.True(t, resp.Success)
	assert.Equal(t, ProviderMock, resp.Provider)
	assert.Contains(t, resp.Content, "Equipe Comercial")
}

func TestNewFromConfig_NoCredentials(t *testing.T) {
	t.Parallel()
	c := NewFromConfig(testInferenceConfig(""), MapCredentials{})
	assert.Equal(t, []string{"mock"}, c.AvailableProviders())
	assert.Len(t, c.Unavailable(), 5)
}

func TestEnvCredentials(t *testing.T) {
	t.Setenv("PROSPECT_TEST_KEY", "abc")
	t.Setenv("PROSPECT_BLANK_KEY", "  ")

	v, ok := EnvCredentials{}.Lookup("PROSPECT_TEST_KEY")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
	_, ok = EnvCredentials{}.Lookup("PROSPECT_BLANK_KEY")
	assert.False(t, ok)
}

func TestLoadEnvCredentials_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := LoadEnvCredentials(t.TempDir() + "/.env")
	assert.NoError(t, err)
}

func TestProviderConfigFrom(t *testing.T) {
	t.Parallel()
	pc := ProviderConfigFrom("groq", config.ProviderSettings{TimeoutSecs: 30, Models: []string{"a"}})
	assert.Equal(t, 30*time.Second, pc.Timeout)
	assert.Nil(t, pc.Headers)
	assert.Equal(t, "a", pc.model(""))
	assert.Equal(t, "b", pc.model("b"))
	assert.Equal(t, 1024, pc.maxTokens(0))
}
