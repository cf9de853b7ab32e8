package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for energystats
type Config struct {
	// Octopus Energy API credentials
	Octopus OctopusConfig `yaml:"octopus" json:"octopus"`

	// myenergi hub credentials
	Myenergi MyenergiConfig `yaml:"myenergi" json:"myenergi"`

	// Export behaviour
	Export ExportConfig `yaml:"export" json:"export"`

	// Storage locations
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Outbound HTTP behaviour
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry configuration
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// OctopusConfig holds Octopus Energy API configuration. Either AccountNumber
// or MPAN and SerialNumber must be set.
type OctopusConfig struct {
	APIKey        string `yaml:"api_key" json:"api_key" validate:"required,min=2"`
	MPAN          string `yaml:"mpan" json:"mpan" validate:"omitempty,min=2"`
	SerialNumber  string `yaml:"serial_number" json:"serial_number" validate:"omitempty,min=2"`
	AccountNumber string `yaml:"account_number" json:"account_number" validate:"omitempty,min=2"`
}

// MyenergiConfig holds myenergi hub configuration
type MyenergiConfig struct {
	HubSerialNumber string `yaml:"hub_serial_number" json:"hub_serial_number" validate:"required"`
	APIKey          string `yaml:"api_key" json:"api_key" validate:"required"`
	DirectorURL     string `yaml:"director_url" json:"director_url" validate:"required,url"`
}

// ExportConfig holds export-specific configuration
type ExportConfig struct {
	Timezone       string `yaml:"timezone" json:"timezone" validate:"required"`
	ConcurrentDays int    `yaml:"concurrent_days" json:"concurrent_days" validate:"min=1,max=10"`
}

// StorageConfig holds the base directories for each vendor's partitions
type StorageConfig struct {
	OctopusDirectory string `yaml:"octopus_directory" json:"octopus_directory" validate:"required"`
	ZappiDirectory   string `yaml:"zappi_directory" json:"zappi_directory" validate:"required"`
}

// HTTPConfig holds outbound HTTP configuration
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute" validate:"gt=0"`
	BurstSize         int `yaml:"burst_size" json:"burst_size" validate:"gt=0"`
}

// RetryConfig holds retry configuration for vendor API calls
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts" validate:"min=0"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Myenergi: MyenergiConfig{
			DirectorURL: "https://director.myenergi.net/",
		},
		Export: ExportConfig{
			Timezone:       "Europe/London",
			ConcurrentDays: 3,
		},
		Storage: StorageConfig{
			OctopusDirectory: "./data/octopus",
			ZappiDirectory:   "./data/zappi",
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         5,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	setString(&c.Octopus.APIKey, "OCTOPUS_API_KEY")
	setString(&c.Octopus.MPAN, "OCTOPUS_MPAN")
	setString(&c.Octopus.SerialNumber, "OCTOPUS_SERIAL_NUMBER")
	setString(&c.Octopus.AccountNumber, "OCTOPUS_ACCOUNT_NUMBER")

	setString(&c.Myenergi.HubSerialNumber, "MYENERGI_HUB_SERIAL_NUMBER")
	setString(&c.Myenergi.APIKey, "MYENERGI_API_KEY")

	setString(&c.Export.Timezone, "ENERGYSTATS_TIMEZONE")
	setString(&c.Storage.OctopusDirectory, "ENERGYSTATS_OCTOPUS_DIR")
	setString(&c.Storage.ZappiDirectory, "ENERGYSTATS_ZAPPI_DIR")
	setString(&c.Logging.Level, "ENERGYSTATS_LOG_LEVEL")

	if rpm := os.Getenv("ENERGYSTATS_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			return fmt.Errorf("invalid ENERGYSTATS_REQUESTS_PER_MINUTE %q: %w", rpm, err)
		}
		c.RateLimit.RequestsPerMinute = val
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".energystats.yaml",
		".energystats.yml",
		filepath.Join(home, ".config", "energystats", "config.yaml"),
		filepath.Join(home, ".config", "energystats", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the settings every command needs. Vendor credentials are
// checked separately by ValidateOctopus and ValidateMyenergi.
func (c *Config) Validate() error {
	var errs []error

	for _, section := range []interface{}{c.Export, c.Storage, c.HTTP, c.RateLimit, c.Retry} {
		if err := validate.Struct(section); err != nil {
			errs = append(errs, err)
		}
	}

	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if err := validate.Struct(c.Logging); err != nil {
		errs = append(errs, errors.New("invalid log level"))
	}

	if _, err := time.LoadLocation(c.Export.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone %q: %w", c.Export.Timezone, err))
	}

	return errors.Join(errs...)
}

// ValidateOctopus checks the Octopus credentials
func (c *Config) ValidateOctopus() error {
	var errs []error
	if err := validate.Struct(c.Octopus); err != nil {
		errs = append(errs, err)
	}
	if c.Octopus.AccountNumber == "" && (c.Octopus.MPAN == "" || c.Octopus.SerialNumber == "") {
		errs = append(errs, errors.New("octopus account number, or MPAN and serial number, are required"))
	}
	return errors.Join(errs...)
}

// ValidateMyenergi checks the myenergi credentials
func (c *Config) ValidateMyenergi() error {
	return validate.Struct(c.Myenergi)
}

// Location returns the configured export time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Export.Timezone)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if tz, ok := flags["timezone"].(string); ok && tz != "" {
		c.Export.Timezone = tz
	}
	if dir, ok := flags["octopus-dir"].(string); ok && dir != "" {
		c.Storage.OctopusDirectory = dir
	}
	if dir, ok := flags["zappi-dir"].(string); ok && dir != "" {
		c.Storage.ZappiDirectory = dir
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".energystats.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
