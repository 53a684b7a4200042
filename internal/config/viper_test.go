package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeConfig_Defaults(t *testing.T) {
	clearTestEnvVars(t)

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
	assert.Equal(t, "https://banking.dkb.de/dkb/-", config.Banking.BaseURL)
	assert.Equal(t, "", config.Banking.UserID)
	assert.Equal(t, "", config.Banking.SessionFile)
	assert.Equal(t, 2, config.Banking.PollIntervalSeconds)
	assert.Equal(t, 30, config.Banking.PollAttempts)
	assert.Equal(t, "VISA", config.QIF.AccountName)
	assert.Equal(t, "", config.QIF.Category)
	assert.Equal(t, ",", config.CSV.Delimiter)
}

func TestInitializeConfig_EnvironmentVariables(t *testing.T) {
	clearTestEnvVars(t)

	testEnvVars := map[string]string{
		"DKB_LOG_LEVEL":                     "debug",
		"DKB_LOG_FORMAT":                    "json",
		"DKB_CSV_DELIMITER":                 ";",
		"DKB_BANKING_POLL_ATTEMPTS":         "10",
		"DKB_BANKING_POLL_INTERVAL_SECONDS": "5",
		"DKB_QIF_ACCOUNT_NAME":              "Visa Card",
		"DKB_USERID":                        "1234567890",
		"DKB_PIN":                           "secret-pin",
	}

	for key, value := range testEnvVars {
		t.Setenv(key, value)
	}

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, ";", config.CSV.Delimiter)
	assert.Equal(t, 10, config.Banking.PollAttempts)
	assert.Equal(t, 5*time.Second, config.PollInterval())
	assert.Equal(t, "Visa Card", config.QIF.AccountName)
	assert.Equal(t, "1234567890", config.Banking.UserID)
	assert.Equal(t, "secret-pin", config.Banking.PIN)
}

func TestInitializeConfig_ConfigFile(t *testing.T) {
	clearTestEnvVars(t)

	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")

	configContent := `
log:
  level: "warn"
  format: "json"
banking:
  session_file: "/tmp/dkb-session.yaml"
  poll_attempts: 15
qif:
  account_name: "DKB VISA"
  category: "Aktiva:VISA"
`

	err := os.WriteFile(configFile, []byte(configContent), 0644)
	require.NoError(t, err)

	originalDir, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		err := os.Chdir(originalDir)
		require.NoError(t, err)
	}()

	err = os.Chdir(tempDir)
	require.NoError(t, err)

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "warn", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, "/tmp/dkb-session.yaml", config.Banking.SessionFile)
	assert.Equal(t, 15, config.Banking.PollAttempts)
	assert.Equal(t, "DKB VISA", config.QIF.AccountName)
	assert.Equal(t, "Aktiva:VISA", config.QIF.Category)
}

func TestInitializeConfig_HierarchicalPrecedence(t *testing.T) {
	clearTestEnvVars(t)

	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")

	configContent := `
log:
  level: "warn"
banking:
  poll_attempts: 15
qif:
  account_name: "DKB VISA"
`

	err := os.WriteFile(configFile, []byte(configContent), 0644)
	require.NoError(t, err)

	// Environment variables should override config file values
	t.Setenv("DKB_LOG_LEVEL", "error")
	t.Setenv("DKB_BANKING_POLL_ATTEMPTS", "25")
	t.Setenv("DKB_PIN", "env-pin")

	originalDir, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		err := os.Chdir(originalDir)
		require.NoError(t, err)
	}()

	err = os.Chdir(tempDir)
	require.NoError(t, err)

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "error", config.Log.Level)           // env var wins
	assert.Equal(t, 25, config.Banking.PollAttempts)     // env var wins
	assert.Equal(t, "DKB VISA", config.QIF.AccountName)  // config file value
	assert.Equal(t, "env-pin", config.Banking.PIN)       // env var (credential)
}

func TestValidateConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name         string
		modifyConfig func(*Config)
		expectError  string
	}{
		{
			name: "invalid log level",
			modifyConfig: func(c *Config) {
				c.Log.Level = "invalid"
			},
			expectError: "invalid log level",
		},
		{
			name: "invalid log format",
			modifyConfig: func(c *Config) {
				c.Log.Format = "invalid"
			},
			expectError: "invalid log format",
		},
		{
			name: "invalid CSV delimiter",
			modifyConfig: func(c *Config) {
				c.CSV.Delimiter = "abc"
			},
			expectError: "CSV delimiter must be a single character",
		},
		{
			name: "empty base URL",
			modifyConfig: func(c *Config) {
				c.Banking.BaseURL = ""
			},
			expectError: "banking.base_url must not be empty",
		},
		{
			name: "invalid poll interval",
			modifyConfig: func(c *Config) {
				c.Banking.PollIntervalSeconds = 0
			},
			expectError: "banking.poll_interval_seconds must be between 1 and 60",
		},
		{
			name: "invalid poll attempts",
			modifyConfig: func(c *Config) {
				c.Banking.PollAttempts = 1000
			},
			expectError: "banking.poll_attempts must be between 1 and 300",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validBaseConfig()
			tt.modifyConfig(config)
			err := validateConfig(config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestConfigureLoggingFromConfig(t *testing.T) {
	config := validBaseConfig()
	config.Log.Level = "debug"
	config.Log.Format = "json"

	logger := ConfigureLoggingFromConfig(config)
	assert.NotNil(t, logger)
	assert.Equal(t, "debug", logger.GetLevel().String())
}

func validBaseConfig() *Config {
	config := &Config{}
	config.Log.Level = "info"
	config.Log.Format = "text"
	config.CSV.Delimiter = ","
	config.Banking.BaseURL = "https://banking.dkb.de/dkb/-"
	config.Banking.PollIntervalSeconds = 2
	config.Banking.PollAttempts = 30
	return config
}

// Helper function to clear test environment variables
func clearTestEnvVars(t *testing.T) {
	t.Helper()

	envVars := []string{
		"DKB_LOG_LEVEL",
		"DKB_LOG_FORMAT",
		"DKB_CSV_DELIMITER",
		"DKB_BANKING_BASE_URL",
		"DKB_BANKING_SESSION_FILE",
		"DKB_BANKING_POLL_INTERVAL_SECONDS",
		"DKB_BANKING_POLL_ATTEMPTS",
		"DKB_QIF_ACCOUNT_NAME",
		"DKB_QIF_CATEGORY",
		"DKB_USERID",
		"DKB_PIN",
	}

	for _, envVar := range envVars {
		if err := os.Unsetenv(envVar); err != nil {
			fmt.Printf("Warning: failed to unset environment variable %s: %v\n", envVar, err)
		}
	}
}
