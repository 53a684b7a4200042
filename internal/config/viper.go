// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Banking struct {
		BaseURL     string `mapstructure:"base_url" yaml:"base_url"`
		UserID      string `mapstructure:"user_id" yaml:"user_id"`
		PIN         string `mapstructure:"pin" yaml:"-"` // Never serialize credentials
		SessionFile string `mapstructure:"session_file" yaml:"session_file"`

		PollIntervalSeconds int `mapstructure:"poll_interval_seconds" yaml:"poll_interval_seconds"`
		PollAttempts        int `mapstructure:"poll_attempts" yaml:"poll_attempts"`
	} `mapstructure:"banking" yaml:"banking"`

	QIF struct {
		AccountName string `mapstructure:"account_name" yaml:"account_name"`
		Category    string `mapstructure:"category" yaml:"category"`
	} `mapstructure:"qif" yaml:"qif"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"csv" yaml:"csv"`
}

// PollInterval returns the two-factor poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Banking.PollIntervalSeconds) * time.Second
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.dkb-qif")
	v.AddConfigPath(".dkb-qif")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("DKB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Log the error but don't fail - continue with defaults and env vars
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// 5. Credentials always come from unprefixed environment variables
	if err := v.BindEnv("banking.user_id", "DKB_USERID"); err != nil {
		fmt.Printf("Warning: failed to bind DKB_USERID environment variable: %v\n", err)
	}
	if err := v.BindEnv("banking.pin", "DKB_PIN"); err != nil {
		fmt.Printf("Warning: failed to bind DKB_PIN environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Banking defaults
	v.SetDefault("banking.base_url", "https://banking.dkb.de/dkb/-")
	v.SetDefault("banking.user_id", "")
	v.SetDefault("banking.session_file", "")
	v.SetDefault("banking.poll_interval_seconds", 2)
	v.SetDefault("banking.poll_attempts", 30)

	// QIF defaults
	v.SetDefault("qif.account_name", "VISA")
	v.SetDefault("qif.category", "")

	// CSV defaults
	v.SetDefault("csv.delimiter", ",")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if len(config.CSV.Delimiter) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	if config.Banking.BaseURL == "" {
		return fmt.Errorf("banking.base_url must not be empty")
	}

	if config.Banking.PollIntervalSeconds < 1 || config.Banking.PollIntervalSeconds > 60 {
		return fmt.Errorf("banking.poll_interval_seconds must be between 1 and 60, got: %d", config.Banking.PollIntervalSeconds)
	}

	if config.Banking.PollAttempts < 1 || config.Banking.PollAttempts > 300 {
		return fmt.Errorf("banking.poll_attempts must be between 1 and 300, got: %d", config.Banking.PollAttempts)
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
