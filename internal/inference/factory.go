package inference

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/pkg/anthropic"
	"github.com/sells-group/prospect-cli/pkg/huggingface"
)

// CredentialSource resolves a credential by environment variable name.
type CredentialSource interface {
	Lookup(name string) (string, bool)
}

// EnvCredentials reads credentials from the process environment.
type EnvCredentials struct{}

// Lookup implements CredentialSource. Blank values count as missing.
func (EnvCredentials) Lookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	v, ok := os.LookupEnv(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// LoadEnvCredentials loads envFile into the environment, without overriding
// variables already set, and returns an environment-backed source. A
// missing file is not an error.
func LoadEnvCredentials(envFile string) (EnvCredentials, error) {
	if envFile == "" {
		return EnvCredentials{}, nil
	}
	if err := godotenv.Load(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			zap.L().Debug("inference: env file not found", zap.String("path", envFile))
			return EnvCredentials{}, nil
		}
		return EnvCredentials{}, err
	}
	zap.L().Debug("inference: loaded env file", zap.String("path", envFile))
	return EnvCredentials{}, nil
}

// MapCredentials is a fixed CredentialSource.
type MapCredentials map[string]string

// Lookup implements CredentialSource.
func (m MapCredentials) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok && v != ""
}

// NewFromConfig builds a Client from config. Providers are constructed in
// cfg.Order; a provider whose credential is missing is skipped and listed
// by Unavailable. The mock provider is always appended last.
func NewFromConfig(cfg config.InferenceConfig, creds CredentialSource, opts ...ClientOption) *Client {
	var regs []Registration
	var skipped []Unavailable

	for _, name := range cfg.Order {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == ProviderMock {
			continue
		}
		settings, ok := settingsFor(cfg, name)
		if !ok {
			zap.L().Warn("inference: unknown provider", zap.String("provider", name))
			skipped = append(skipped, Unavailable{Name: name, Reason: "unknown provider"})
			continue
		}

		pc := ProviderConfigFrom(name, settings)
		key, ok := creds.Lookup(pc.APIKeyEnv)
		if !ok {
			zap.L().Info("inference: provider unavailable",
				zap.String("provider", name),
				zap.String("env", pc.APIKeyEnv),
				zap.String("reason", ErrAPIKeyNotFound.Error()),
			)
			skipped = append(skipped, Unavailable{Name: name, Reason: ErrAPIKeyNotFound.Error()})
			continue
		}

		p, err := buildProvider(pc, key)
		if err != nil {
			zap.L().Warn("inference: provider construction failed", zap.String("provider", name), zap.Error(err))
			skipped = append(skipped, Unavailable{Name: name, Reason: err.Error()})
			continue
		}
		regs = append(regs, Registration{Provider: p, RequestsPerMinute: pc.RequestsPerMinute, Timeout: pc.Timeout})
	}

	mockCfg := ProviderConfigFrom(ProviderMock, cfg.Mock)
	regs = append(regs, Registration{
		Provider:          NewMockProvider(mockCfg),
		RequestsPerMinute: mockCfg.RequestsPerMinute,
		Timeout:           mockCfg.Timeout,
	})

	base := []ClientOption{
		WithBreakerConfig(resilience.BreakerConfig{
			FailureThreshold: cfg.BreakerThreshold,
			Cooldown:         time.Duration(cfg.BreakerCooldownSecs) * time.Second,
			OnStateChange: func(name string, from, to resilience.CircuitState) {
				zap.L().Info("inference: circuit state change",
					zap.String("provider", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}
	if cfg.CacheEnabled {
		base = append(base, WithCacheTTL(time.Duration(cfg.CacheTTLMinutes)*time.Minute))
	} else {
		base = append(base, WithCacheTTL(0))
	}

	c := New(regs, append(base, opts...)...)
	c.unavailable = skipped
	return c
}

func settingsFor(cfg config.InferenceConfig, name string) (config.ProviderSettings, bool) {
	switch name {
	case ProviderGroq:
		return cfg.Groq, true
	case ProviderOpenRouter:
		return cfg.OpenRouter, true
	case ProviderHuggingFace:
		return cfg.HuggingFace, true
	case ProviderAnthropic:
		return cfg.Anthropic, true
	default:
		return config.ProviderSettings{}, false
	}
}

func buildProvider(pc ProviderConfig, key string) (Provider, error) {
	switch pc.Name {
	case ProviderHuggingFace:
		var opts []huggingface.Option
		if pc.BaseURL != "" {
			opts = append(opts, huggingface.WithBaseURL(pc.BaseURL))
		}
		return NewHuggingFaceProvider(pc, huggingface.NewClient(key, opts...)), nil
	case ProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithMaxRetries(1)}
		if pc.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(pc.BaseURL))
		}
		return NewAnthropicProvider(pc, anthropic.NewClient(key, opts...)), nil
	default:
		return NewOpenAIProvider(pc, key)
	}
}
