package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Sources    SourcesConfig    `yaml:"sources" mapstructure:"sources"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Rules      RulesConfig      `yaml:"rules" mapstructure:"rules"`
	Inference  InferenceConfig  `yaml:"inference" mapstructure:"inference"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// MonitoringConfig configures run health checks and alerting.
type MonitoringConfig struct {
	Enabled                  bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL               string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs        int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours      int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold     float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	EmptyRunRateThreshold    float64 `yaml:"empty_run_rate_threshold" mapstructure:"empty_run_rate_threshold"`
	SourceErrorRateThreshold float64 `yaml:"source_error_rate_threshold" mapstructure:"source_error_rate_threshold"`
}

// PipelineConfig holds run defaults and batch policy.
type PipelineConfig struct {
	Sector               string  `yaml:"sector" mapstructure:"sector"`
	Region               string  `yaml:"region" mapstructure:"region"`
	MinScore             int     `yaml:"min_score" mapstructure:"min_score"`
	MaxLeads             int     `yaml:"max_leads" mapstructure:"max_leads"`
	WebsiteBatchSize     int     `yaml:"website_batch_size" mapstructure:"website_batch_size"`
	AIBatchSize          int     `yaml:"ai_batch_size" mapstructure:"ai_batch_size"`
	BatchPauseMs         int     `yaml:"batch_pause_ms" mapstructure:"batch_pause_ms"`
	BatchJitter          float64 `yaml:"batch_jitter" mapstructure:"batch_jitter"`
	HighQualityThreshold int     `yaml:"high_quality_threshold" mapstructure:"high_quality_threshold"`
}

// SourcesConfig controls collection fan-out.
type SourcesConfig struct {
	Enabled         []string `yaml:"enabled" mapstructure:"enabled"`
	PerSourceLimit  int      `yaml:"per_source_limit" mapstructure:"per_source_limit"`
	DeadlineSecs    int      `yaml:"deadline_secs" mapstructure:"deadline_secs"`
	TimeoutSecs     int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Concurrency     int      `yaml:"concurrency" mapstructure:"concurrency"`
	YellowPagesURLs []string `yaml:"yellow_pages_urls" mapstructure:"yellow_pages_urls"`
}

// FetchConfig configures page fetching.
type FetchConfig struct {
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	MaxBodyBytes      int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots     bool    `yaml:"respect_robots" mapstructure:"respect_robots"`
	RetryAttempts     int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	UseJinaFallback   bool    `yaml:"use_jina_fallback" mapstructure:"use_jina_fallback"`
}

// RulesConfig points at the keyword table files.
type RulesConfig struct {
	SectorsPath string `yaml:"sectors_path" mapstructure:"sectors_path"`
	FiltersPath string `yaml:"filters_path" mapstructure:"filters_path"`
	ScoringPath string `yaml:"scoring_path" mapstructure:"scoring_path"`
}

// InferenceConfig configures the inference client.
type InferenceConfig struct {
	EnvFile             string           `yaml:"env_file" mapstructure:"env_file"`
	Order               []string         `yaml:"order" mapstructure:"order"`
	CacheEnabled        bool             `yaml:"cache_enabled" mapstructure:"cache_enabled"`
	CacheTTLMinutes     int              `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
	BreakerThreshold    int              `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSecs int              `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
	Groq                ProviderSettings `yaml:"groq" mapstructure:"groq"`
	OpenRouter          ProviderSettings `yaml:"openrouter" mapstructure:"openrouter"`
	HuggingFace         ProviderSettings `yaml:"huggingface" mapstructure:"huggingface"`
	Anthropic           ProviderSettings `yaml:"anthropic" mapstructure:"anthropic"`
	Mock                ProviderSettings `yaml:"mock" mapstructure:"mock"`
}

// ProviderSettings configures a single inference provider.
type ProviderSettings struct {
	APIKeyEnv         string   `yaml:"api_key_env" mapstructure:"api_key_env"`
	BaseURL           string   `yaml:"base_url" mapstructure:"base_url"`
	Models            []string `yaml:"models" mapstructure:"models"`
	DefaultModel      string   `yaml:"default_model" mapstructure:"default_model"`
	RequestsPerMinute int      `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	MaxTokens         int      `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs       int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Referer           string   `yaml:"referer" mapstructure:"referer"`
	Title             string   `yaml:"title" mapstructure:"title"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina reader and search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// PricingConfig holds per-provider token pricing.
type PricingConfig struct {
	Groq        ModelPricing `yaml:"groq" mapstructure:"groq"`
	OpenRouter  ModelPricing `yaml:"openrouter" mapstructure:"openrouter"`
	HuggingFace ModelPricing `yaml:"huggingface" mapstructure:"huggingface"`
	Anthropic   ModelPricing `yaml:"anthropic" mapstructure:"anthropic"`
}

// ModelPricing is USD per million tokens.
type ModelPricing struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// For returns the pricing for a provider name. Unknown providers are free.
func (p PricingConfig) For(provider string) ModelPricing {
	switch provider {
	case "groq":
		return p.Groq
	case "openrouter":
		return p.OpenRouter
	case "huggingface":
		return p.HuggingFace
	case "anthropic":
		return p.Anthropic
	default:
		return ModelPricing{}
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "prospect.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("pipeline.sector", "restaurante")
	v.SetDefault("pipeline.region", "São Paulo")
	v.SetDefault("pipeline.min_score", 70)
	v.SetDefault("pipeline.max_leads", 50)
	v.SetDefault("pipeline.website_batch_size", 5)
	v.SetDefault("pipeline.ai_batch_size", 10)
	v.SetDefault("pipeline.batch_pause_ms", 1000)
	v.SetDefault("pipeline.batch_jitter", 0.3)
	v.SetDefault("pipeline.high_quality_threshold", 80)

	v.SetDefault("sources.enabled", []string{"google_maps", "google_search", "bing_search", "yellow_pages", "google_places", "jina_search"})
	v.SetDefault("sources.per_source_limit", 20)
	v.SetDefault("sources.deadline_secs", 120)
	v.SetDefault("sources.timeout_secs", 30)
	v.SetDefault("sources.concurrency", 4)
	v.SetDefault("sources.yellow_pages_urls", []string{
		"https://www.telelistas.net/busca/{keyword}/{region}",
		"https://www.guiamais.com.br/busca/{keyword}/{region}",
		"https://www.paginasamarelas.com.br/busca/{keyword}/{region}",
	})

	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; prospect-cli/1.0)")
	v.SetDefault("fetch.timeout_secs", 15)
	v.SetDefault("fetch.requests_per_second", 1.0)
	v.SetDefault("fetch.burst", 2)
	v.SetDefault("fetch.max_body_bytes", 5<<20)
	v.SetDefault("fetch.respect_robots", true)
	v.SetDefault("fetch.retry_attempts", 2)
	v.SetDefault("fetch.use_jina_fallback", true)

	v.SetDefault("rules.sectors_path", "rules/sectors.yaml")
	v.SetDefault("rules.filters_path", "rules/filters.yaml")
	v.SetDefault("rules.scoring_path", "rules/scoring.yaml")

	v.SetDefault("inference.env_file", ".env")
	v.SetDefault("inference.order", []string{"groq", "openrouter", "huggingface", "anthropic"})
	v.SetDefault("inference.cache_enabled", true)
	v.SetDefault("inference.cache_ttl_minutes", 60)
	v.SetDefault("inference.breaker_threshold", 5)
	v.SetDefault("inference.breaker_cooldown_secs", 60)

	v.SetDefault("inference.groq.api_key_env", "GROQ_API_KEY")
	v.SetDefault("inference.groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("inference.groq.models", []string{"llama3-8b-8192", "llama3-70b-8192", "mixtral-8x7b-32768"})
	v.SetDefault("inference.groq.default_model", "llama3-8b-8192")
	v.SetDefault("inference.groq.requests_per_minute", 45)
	v.SetDefault("inference.groq.max_tokens", 1024)
	v.SetDefault("inference.groq.timeout_secs", 30)

	v.SetDefault("inference.openrouter.api_key_env", "OPENROUTER_API_KEY")
	v.SetDefault("inference.openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("inference.openrouter.models", []string{"meta-llama/llama-3-8b-instruct:free", "mistralai/mistral-7b-instruct:free"})
	v.SetDefault("inference.openrouter.default_model", "meta-llama/llama-3-8b-instruct:free")
	v.SetDefault("inference.openrouter.requests_per_minute", 50)
	v.SetDefault("inference.openrouter.max_tokens", 1024)
	v.SetDefault("inference.openrouter.timeout_secs", 30)
	v.SetDefault("inference.openrouter.referer", "https://github.com/sells-group/prospect-cli")
	v.SetDefault("inference.openrouter.title", "prospect-cli")

	v.SetDefault("inference.huggingface.api_key_env", "HUGGINGFACE_API_KEY")
	v.SetDefault("inference.huggingface.base_url", "https://api-inference.huggingface.co")
	v.SetDefault("inference.huggingface.models", []string{"microsoft/DialoGPT-medium", "google/flan-t5-large"})
	v.SetDefault("inference.huggingface.default_model", "microsoft/DialoGPT-medium")
	v.SetDefault("inference.huggingface.requests_per_minute", 30)
	v.SetDefault("inference.huggingface.max_tokens", 512)
	v.SetDefault("inference.huggingface.timeout_secs", 45)

	v.SetDefault("inference.anthropic.api_key_env", "ANTHROPIC_API_KEY")
	v.SetDefault("inference.anthropic.models", []string{"claude-haiku-4-5-20251001"})
	v.SetDefault("inference.anthropic.default_model", "claude-haiku-4-5-20251001")
	v.SetDefault("inference.anthropic.requests_per_minute", 50)
	v.SetDefault("inference.anthropic.max_tokens", 1024)
	v.SetDefault("inference.anthropic.timeout_secs", 60)

	v.SetDefault("inference.mock.default_model", "mock-model")
	v.SetDefault("inference.mock.models", []string{"mock-model"})
	v.SetDefault("inference.mock.requests_per_minute", 1000)
	v.SetDefault("inference.mock.max_tokens", 1024)
	v.SetDefault("inference.mock.timeout_secs", 5)

	v.SetDefault("google.key", "")
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("jina.key", "")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")

	v.SetDefault("pricing.groq.input", 0.05)
	v.SetDefault("pricing.groq.output", 0.08)
	v.SetDefault("pricing.openrouter.input", 0.0)
	v.SetDefault("pricing.openrouter.output", 0.0)
	v.SetDefault("pricing.huggingface.input", 0.0)
	v.SetDefault("pricing.huggingface.output", 0.0)
	v.SetDefault("pricing.anthropic.input", 1.0)
	v.SetDefault("pricing.anthropic.output", 5.0)

	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.2)
	v.SetDefault("monitoring.empty_run_rate_threshold", 0.5)
	v.SetDefault("monitoring.source_error_rate_threshold", 0.5)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
