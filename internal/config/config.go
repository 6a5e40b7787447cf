// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Storage StorageConfig `mapstructure:"storage"`
	Events  EventsConfig  `mapstructure:"events"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior and how short URLs are
// built.
type ServerConfig struct {
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"`
}

// FetchConfig governs outbound page fetches.
type FetchConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
	MaxBodyBytes   int    `mapstructure:"max_body_bytes"`
}

// StorageConfig selects and parameterizes the record and blob backends.
type StorageConfig struct {
	RecordsProvider string `mapstructure:"records_provider"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	DSN             string `mapstructure:"dsn"`
	Table           string `mapstructure:"table"`
	BlobsProvider   string `mapstructure:"blobs_provider"`
	BaseDir         string `mapstructure:"base_dir"`
	GCSBucket       string `mapstructure:"gcs_bucket"`
	Prefix          string `mapstructure:"prefix"`
}

// EventsConfig holds metadata for archive-created event publishing.
type EventsConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LINKARCHIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("fetch.timeout_seconds", 10)
	v.SetDefault("fetch.user_agent", "SecureLinkArchive/1.0 (+https://github.com/slarchive/linkarchive)")
	v.SetDefault("fetch.max_body_bytes", 1_500_000)
	v.SetDefault("storage.records_provider", "sqlite")
	v.SetDefault("storage.sqlite_path", "data/linkarchive.db")
	v.SetDefault("storage.table", "records")
	v.SetDefault("storage.blobs_provider", "local")
	v.SetDefault("storage.base_dir", "data/archives")
	v.SetDefault("storage.prefix", "archives")
	v.SetDefault("events.provider", "noop")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url must be set")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be > 0")
	}
	switch c.Storage.RecordsProvider {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path must be set for the sqlite provider")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn must be set for the postgres provider")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown records provider: %s", c.Storage.RecordsProvider)
	}
	switch c.Storage.BlobsProvider {
	case "local":
		if c.Storage.BaseDir == "" {
			return fmt.Errorf("storage.base_dir must be set for the local provider")
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set for the gcs provider")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown blobs provider: %s", c.Storage.BlobsProvider)
	}
	switch c.Events.Provider {
	case "noop", "memory":
	case "pubsub":
		if c.Events.ProjectID == "" || c.Events.TopicID == "" {
			return fmt.Errorf("events.project_id and events.topic_id must be set for the pubsub provider")
		}
	default:
		return fmt.Errorf("unknown events provider: %s", c.Events.Provider)
	}
	return nil
}

// FetchTimeout converts the configured timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// ShortURL builds the externally visible URL for a short code.
func (c Config) ShortURL(code string) string {
	return fmt.Sprintf("%s/r/%s", strings.TrimRight(c.Server.BaseURL, "/"), code)
}
