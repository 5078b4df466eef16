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
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Jina         JinaConfig         `yaml:"jina" mapstructure:"jina"`
	Anthropic    AnthropicConfig    `yaml:"anthropic" mapstructure:"anthropic"`
	FootballData FootballDataConfig `yaml:"football_data" mapstructure:"football_data"`
	Evidence     EvidenceConfig     `yaml:"evidence" mapstructure:"evidence"`
	Engine       EngineConfig       `yaml:"engine" mapstructure:"engine"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// JinaConfig holds Jina search and reader settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// FootballDataConfig holds football-data.org API settings.
type FootballDataConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	Competition    string `yaml:"competition" mapstructure:"competition"`
	RequestsPerMin int    `yaml:"requests_per_min" mapstructure:"requests_per_min"`
}

// EvidenceConfig configures the web evidence extractor.
type EvidenceConfig struct {
	ResultCap        int    `yaml:"result_cap" mapstructure:"result_cap"`
	FetchTimeoutSecs int    `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	ReliabilityPath  string `yaml:"reliability_path" mapstructure:"reliability_path"`
}

// EngineConfig configures the fusion engine's source budgets.
type EngineConfig struct {
	EvidenceTimeoutSecs  int `yaml:"evidence_timeout_secs" mapstructure:"evidence_timeout_secs"`
	NarrativeTimeoutSecs int `yaml:"narrative_timeout_secs" mapstructure:"narrative_timeout_secs"`
	BatchConcurrency     int `yaml:"batch_concurrency" mapstructure:"batch_concurrency"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MATCHCAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "matchcast.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("football_data.base_url", "https://api.football-data.org/v4")
	v.SetDefault("football_data.competition", "PL")
	v.SetDefault("football_data.requests_per_min", 10)
	v.SetDefault("evidence.result_cap", 3)
	v.SetDefault("evidence.fetch_timeout_secs", 4)
	v.SetDefault("engine.evidence_timeout_secs", 5)
	v.SetDefault("engine.narrative_timeout_secs", 8)
	v.SetDefault("engine.batch_concurrency", 4)

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

// Validate checks the configuration for the given command mode.
func Validate(cfg *Config, mode string) error {
	var missing []string

	switch cfg.Store.Driver {
	case "sqlite":
		if cfg.Store.Path == "" {
			missing = append(missing, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required for the postgres driver")
		}
	default:
		missing = append(missing, "store.driver must be sqlite or postgres")
	}

	switch mode {
	case "predict", "batch":
		if cfg.Engine.BatchConcurrency < 1 || cfg.Engine.BatchConcurrency > 32 {
			missing = append(missing, "engine.batch_concurrency must be between 1 and 32")
		}
	case "serve":
		if cfg.Server.Port <= 0 {
			missing = append(missing, "server.port must be > 0")
		}
	case "accuracy", "fixtures":
		// Store checks above are enough.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if cfg.Evidence.ResultCap < 0 {
		missing = append(missing, "evidence.result_cap must be >= 0")
	}
	if cfg.Engine.EvidenceTimeoutSecs <= 0 || cfg.Engine.NarrativeTimeoutSecs <= 0 {
		missing = append(missing, "engine source timeouts must be > 0")
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
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
