package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Generative GenerativeConfig `yaml:"generative" mapstructure:"generative"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Finder     FinderConfig     `yaml:"finder" mapstructure:"finder"`
	Enrich     EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// JinaConfig holds Jina AI Reader settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// FirecrawlConfig holds Firecrawl API settings.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// NotionConfig holds Notion API credentials and the subscriber database ID.
type NotionConfig struct {
	Token        string `yaml:"token" mapstructure:"token"`
	SubscriberDB string `yaml:"subscriber_db" mapstructure:"subscriber_db"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
}

// GenerativeConfig selects the text generation backend.
type GenerativeConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
}

// SearchConfig configures the web search + scrape adapter.
type SearchConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"`
	MaxResults  int           `yaml:"max_results" mapstructure:"max_results"`
	BatchSize   int           `yaml:"batch_size" mapstructure:"batch_size"`
	BatchPause  time.Duration `yaml:"batch_pause" mapstructure:"batch_pause"`
	TimeoutSecs int           `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// FinderConfig configures the fallback orchestrator.
type FinderConfig struct {
	DefaultLimit  int           `yaml:"default_limit" mapstructure:"default_limit"`
	MaxLimit      int           `yaml:"max_limit" mapstructure:"max_limit"`
	BulkBatchSize int           `yaml:"bulk_batch_size" mapstructure:"bulk_batch_size"`
	BulkPause     time.Duration `yaml:"bulk_pause" mapstructure:"bulk_pause"`
}

// EnrichConfig configures the enrichment stage.
type EnrichConfig struct {
	DefaultThreshold string `yaml:"default_threshold" mapstructure:"default_threshold"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	APIToken       string   `yaml:"api_token" mapstructure:"api_token"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RatePerSecond  float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// .env is optional; values already in the environment win.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "leads.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("generative.provider", "anthropic")
	v.SetDefault("search.provider", "jina")
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.batch_size", 3)
	v.SetDefault("search.batch_pause", time.Second)
	v.SetDefault("search.timeout_secs", 20)
	v.SetDefault("finder.default_limit", 10)
	v.SetDefault("finder.max_limit", 100)
	v.SetDefault("finder.bulk_batch_size", 5)
	v.SetDefault("finder.bulk_pause", 2*time.Second)
	v.SetDefault("enrich.default_threshold", "medium")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_per_second", 5.0)
	v.SetDefault("server.rate_burst", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks that the settings required by mode are present. Every
// problem is reported in a single error.
func (c *Config) Validate(mode string) error {
	var problems []string
	require := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	storeOK := func() {
		switch c.Store.Driver {
		case "postgres":
			require(c.Store.DatabaseURL != "", "store.database_url is required")
		case "sqlite":
			require(c.Store.SQLitePath != "", "store.sqlite_path is required")
		default:
			problems = append(problems, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
		}
	}

	generativeOK := func() {
		switch c.Generative.Provider {
		case "anthropic":
			require(c.Anthropic.Key != "", "anthropic.key is required")
		case "gemini":
			require(c.Gemini.Key != "", "gemini.key is required")
		case "perplexity":
			require(c.Perplexity.Key != "", "perplexity.key is required")
		default:
			problems = append(problems, fmt.Sprintf("generative.provider %q is not supported", c.Generative.Provider))
		}
	}

	switch mode {
	case "search":
		storeOK()
		generativeOK()
		switch c.Search.Provider {
		case "jina", "firecrawl", "google":
		default:
			problems = append(problems, fmt.Sprintf("search.provider %q is not supported", c.Search.Provider))
		}
		require(c.Search.BatchSize >= 1 && c.Search.BatchSize <= 20, "search.batch_size must be between 1 and 20")
		require(c.Finder.BulkBatchSize >= 1 && c.Finder.BulkBatchSize <= 50, "finder.bulk_batch_size must be between 1 and 50")
	case "enrich":
		storeOK()
		generativeOK()
	case "import", "migrate":
		storeOK()
	case "export":
		storeOK()
	case "serve":
		storeOK()
		generativeOK()
		require(c.Server.Port > 0, "server.port must be > 0")
		require(c.Server.APIToken != "", "server.api_token is required")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
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
