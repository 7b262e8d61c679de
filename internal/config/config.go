package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/leomrlima/nosql/provider"
)

// Config represents the nosql tool configuration
type Config struct {
	Logging   LoggingConfig             `mapstructure:"logging"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// ProviderConfig represents one configured provider connection
type ProviderConfig struct {
	Type     string `mapstructure:"type"`
	Provider string `mapstructure:"provider"`
	Addr     string `mapstructure:"addr"`
	URL      string `mapstructure:"url"`
	URI      string `mapstructure:"uri"`
	Path     string `mapstructure:"path"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Prefix   string `mapstructure:"prefix"`
}

// Key returns the registry key this provider entry resolves to
func (p ProviderConfig) Key() (provider.Key, error) {
	dt, err := provider.ParseDatabaseType(p.Type)
	if err != nil {
		return provider.Key{}, err
	}
	return provider.Key{Database: dt, Provider: p.Provider}, nil
}

// Settings returns the connection settings for this provider entry
func (p ProviderConfig) Settings() provider.Settings {
	return provider.Settings{
		Addr:     p.Addr,
		URL:      p.URL,
		URI:      p.URI,
		Path:     p.Path,
		Username: p.Username,
		Password: p.Password,
		Database: p.Database,
		Prefix:   p.Prefix,
	}
}

// Load loads the configuration from nosql.yml or nosql.yaml
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	// Set config name and paths
	v.SetConfigName("nosql")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Enable environment variable support
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// NewLogger builds a zap logger from the logging configuration
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid logging.level %q: %w", cfg.Level, err)
		}
		zc.Level = level
	}
	return zc.Build()
}

// HasConfigFile reports whether a nosql.yml or nosql.yaml exists in the
// current directory
func HasConfigFile() bool {
	if _, err := os.Stat("nosql.yml"); err == nil {
		return true
	}
	if _, err := os.Stat("nosql.yaml"); err == nil {
		return true
	}
	return false
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	for name, p := range cfg.Providers {
		if p.Type == "" {
			return fmt.Errorf("provider %q: type is required", name)
		}
		if _, err := provider.ParseDatabaseType(p.Type); err != nil {
			return fmt.Errorf("provider %q: %w", name, err)
		}
		if p.Provider == "" {
			return fmt.Errorf("provider %q: provider name is required", name)
		}
	}
	return nil
}
