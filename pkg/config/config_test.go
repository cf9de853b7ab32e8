package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "Europe/London", config.Export.Timezone)
	assert.Equal(t, 60, config.RateLimit.RequestsPerMinute)
	assert.Equal(t, "https://director.myenergi.net/", config.Myenergi.DirectorURL)
	assert.Equal(t, 30*time.Second, config.HTTP.Timeout)
	assert.NoError(t, config.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("OCTOPUS_API_KEY", "sk_live_1234")
	t.Setenv("OCTOPUS_MPAN", "1200012345678")
	t.Setenv("OCTOPUS_SERIAL_NUMBER", "21L1234567")
	t.Setenv("MYENERGI_HUB_SERIAL_NUMBER", "10012345")
	t.Setenv("MYENERGI_API_KEY", "hub-key")
	t.Setenv("ENERGYSTATS_TIMEZONE", "UTC")
	t.Setenv("ENERGYSTATS_OCTOPUS_DIR", "/tmp/octo")
	t.Setenv("ENERGYSTATS_REQUESTS_PER_MINUTE", "30")
	t.Setenv("ENERGYSTATS_LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "sk_live_1234", config.Octopus.APIKey)
	assert.Equal(t, "1200012345678", config.Octopus.MPAN)
	assert.Equal(t, "21L1234567", config.Octopus.SerialNumber)
	assert.Equal(t, "10012345", config.Myenergi.HubSerialNumber)
	assert.Equal(t, "hub-key", config.Myenergi.APIKey)
	assert.Equal(t, "UTC", config.Export.Timezone)
	assert.Equal(t, "/tmp/octo", config.Storage.OctopusDirectory)
	assert.Equal(t, "./data/zappi", config.Storage.ZappiDirectory)
	assert.Equal(t, 30, config.RateLimit.RequestsPerMinute)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("ENERGYSTATS_REQUESTS_PER_MINUTE", "lots")

	config := DefaultConfig()
	assert.Error(t, config.LoadFromEnv())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
octopus:
  api_key: file-key
  account_number: A-1234ABCD
export:
  timezone: Europe/Paris
rate_limit:
  requests_per_minute: 10
  burst_size: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, "file-key", config.Octopus.APIKey)
	assert.Equal(t, "A-1234ABCD", config.Octopus.AccountNumber)
	assert.Equal(t, "Europe/Paris", config.Export.Timezone)
	assert.Equal(t, 10, config.RateLimit.RequestsPerMinute)
	// untouched sections keep their defaults
	assert.Equal(t, "./data/octopus", config.Storage.OctopusDirectory)
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	assert.Error(t, config.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestValidate(t *testing.T) {
	t.Run("bad timezone", func(t *testing.T) {
		config := DefaultConfig()
		config.Export.Timezone = "Mars/Olympus_Mons"
		assert.Error(t, config.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		config := DefaultConfig()
		config.Logging.Level = "chatty"
		assert.Error(t, config.Validate())
	})

	t.Run("log level is case insensitive", func(t *testing.T) {
		config := DefaultConfig()
		config.Logging.Level = "WARN"
		assert.NoError(t, config.Validate())
		assert.Equal(t, "warn", config.Logging.Level)
	})

	t.Run("non-positive rate limit", func(t *testing.T) {
		config := DefaultConfig()
		config.RateLimit.RequestsPerMinute = 0
		assert.Error(t, config.Validate())
	})

	t.Run("too many concurrent days", func(t *testing.T) {
		config := DefaultConfig()
		config.Export.ConcurrentDays = 50
		assert.Error(t, config.Validate())
	})
}

func TestValidateOctopus(t *testing.T) {
	tests := []struct {
		name    string
		octopus OctopusConfig
		wantErr bool
	}{
		{"account number only", OctopusConfig{APIKey: "key1", AccountNumber: "A-1"}, false},
		{"mpan and serial", OctopusConfig{APIKey: "key1", MPAN: "12", SerialNumber: "34"}, false},
		{"missing api key", OctopusConfig{AccountNumber: "A-1"}, true},
		{"short api key", OctopusConfig{APIKey: "k", AccountNumber: "A-1"}, true},
		{"mpan without serial", OctopusConfig{APIKey: "key1", MPAN: "12"}, true},
		{"nothing", OctopusConfig{APIKey: "key1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Octopus = tt.octopus
			err := config.ValidateOctopus()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMyenergi(t *testing.T) {
	config := DefaultConfig()
	assert.Error(t, config.ValidateMyenergi())

	config.Myenergi.HubSerialNumber = "10012345"
	config.Myenergi.APIKey = "hub-key"
	assert.NoError(t, config.ValidateMyenergi())
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"timezone":            "UTC",
		"octopus-dir":         "/data/o",
		"log-level":           "error",
		"requests-per-minute": 12,
	})

	assert.Equal(t, "UTC", config.Export.Timezone)
	assert.Equal(t, "/data/o", config.Storage.OctopusDirectory)
	assert.Equal(t, "error", config.Logging.Level)
	assert.Equal(t, 12, config.RateLimit.RequestsPerMinute)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config := DefaultConfig()
	config.Octopus.AccountNumber = "A-99"
	require.NoError(t, config.Save(path))

	reloaded := DefaultConfig()
	require.NoError(t, reloaded.LoadFromFile(path))
	assert.Equal(t, "A-99", reloaded.Octopus.AccountNumber)
	assert.Equal(t, config.Retry, reloaded.Retry)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("export:\n  timezone: Europe/Paris\nlogging:\n  level: warn\n"), 0644))

	t.Setenv("ENERGYSTATS_TIMEZONE", "Europe/Berlin")

	config, err := Load(path, map[string]interface{}{"log-level": "debug"})
	require.NoError(t, err)

	// env beats file, flags beat everything
	assert.Equal(t, "Europe/Berlin", config.Export.Timezone)
	assert.Equal(t, "debug", config.Logging.Level)
}
