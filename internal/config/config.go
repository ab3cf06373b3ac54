package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Storage backend selectors.
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// Config carries the process-wide settings loaded from the environment.
// Search queries and term-table overrides live in the YAML file referenced
// by QueriesFile; see LoadQueryFile.
type Config struct {
	Environment string `envconfig:"ADWATCH_ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"ADWATCH_LOG_LEVEL" default:"info"`

	OutputDir   string `envconfig:"ADWATCH_OUTPUT_DIR" default:"outputs"`
	QueriesFile string `envconfig:"ADWATCH_QUERIES_FILE" default:"queries.yaml"`

	Storage     string `envconfig:"ADWATCH_STORAGE" default:"file"`
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`

	SlackWebhookURL string `envconfig:"SLACK_WEBHOOK_URL" default:""`

	MaxArticlesPerRun   int           `envconfig:"ADWATCH_MAX_ARTICLES" default:"100"`
	EnableDeduplication bool          `envconfig:"ADWATCH_DEDUP" default:"true"`
	PersistResults      bool          `envconfig:"ADWATCH_PERSIST" default:"true"`
	EnglishOnly         bool          `envconfig:"ADWATCH_ENGLISH_ONLY" default:"true"`
	SearchDelay         time.Duration `envconfig:"ADWATCH_SEARCH_DELAY" default:"3s"`
	RequestTimeout      time.Duration `envconfig:"ADWATCH_REQUEST_TIMEOUT" default:"15s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.TrimSpace(strings.ToLower(c.Storage)) {
	case StorageFile:
	case StoragePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when ADWATCH_STORAGE=postgres")
		}
	default:
		return fmt.Errorf("ADWATCH_STORAGE must be %q or %q", StorageFile, StoragePostgres)
	}

	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("ADWATCH_OUTPUT_DIR is required")
	}
	if c.MaxArticlesPerRun < 1 {
		return fmt.Errorf("ADWATCH_MAX_ARTICLES must be >= 1")
	}
	if c.SearchDelay < 0 {
		return fmt.Errorf("ADWATCH_SEARCH_DELAY must be >= 0")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("ADWATCH_REQUEST_TIMEOUT must be > 0")
	}
	return nil
}
