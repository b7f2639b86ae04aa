// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Network NetworkConfig `mapstructure:"network" yaml:"network"`
	Data    DataConfig    `mapstructure:"data" yaml:"data"`
	Rates   RatesConfig   `mapstructure:"rates" yaml:"rates"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// NetworkConfig tunes outbound HTTP behavior.
type NetworkConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// DataConfig locates the two dataset resources. Sources may be http(s)
// URLs or local file paths.
type DataConfig struct {
	IncidentsSource  string `mapstructure:"incidents_source" yaml:"incidents_source"`
	RootCausesSource string `mapstructure:"root_causes_source" yaml:"root_causes_source"`
}

// RatesConfig controls the currency rate fetch.
type RatesConfig struct {
	// Live enables the one-per-session fetch from the public rate APIs;
	// when false the static fallback table is used directly.
	Live              bool          `mapstructure:"live" yaml:"live"`
	CryptoURL         string        `mapstructure:"crypto_url" yaml:"crypto_url"`
	ForexURL          string        `mapstructure:"forex_url" yaml:"forex_url"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "rektscope")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Network --
	v.SetDefault("network.timeout", "30s")
	v.SetDefault("network.user_agent", "rektscope")

	// -- Data --
	v.SetDefault("data.incidents_source", "incidents.json")
	v.SetDefault("data.root_causes_source", "rootcause_data.json")

	// -- Rates --
	v.SetDefault("rates.live", false)
	v.SetDefault("rates.crypto_url", "")
	v.SetDefault("rates.forex_url", "")
	v.SetDefault("rates.timeout", "15s")
	v.SetDefault("rates.requests_per_second", 1.0)
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with the defaults above.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	switch c.Logger.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logger.format must be \"console\" or \"json\", got %q", c.Logger.Format)
	}
	if c.Network.Timeout < 0 {
		return fmt.Errorf("network.timeout must not be negative")
	}
	if c.Data.IncidentsSource == "" {
		return fmt.Errorf("data.incidents_source is required")
	}
	if c.Data.RootCausesSource == "" {
		return fmt.Errorf("data.root_causes_source is required")
	}
	if c.Rates.RequestsPerSecond < 0 {
		return fmt.Errorf("rates.requests_per_second must not be negative")
	}
	return nil
}

// ExpandPath resolves a leading "~" in user-supplied paths (config file,
// dataset snapshots, report output).
func ExpandPath(path string) (string, error) {
	if path == "" || !strings.HasPrefix(path, "~") {
		return path, nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expanding path %q: %w", path, err)
	}
	return expanded, nil
}
