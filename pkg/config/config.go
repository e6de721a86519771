package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the EODMS DDS downloader
type Config struct {
	// EODMS credentials and environment
	EODMS EODMSConfig `yaml:"eodms" json:"eodms"`

	// Metadata fetch settings
	Items ItemsConfig `yaml:"items" json:"items"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Retry behaviour for API and download requests
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Optional download ledger database
	Ledger LedgerConfig `yaml:"ledger" json:"ledger"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// EODMSConfig holds EODMS account and deployment settings
type EODMSConfig struct {
	Username    string `yaml:"username" json:"username"`
	Password    string `yaml:"password" json:"password"`
	Environment string `yaml:"environment" json:"environment"`
	Catalog     string `yaml:"catalog" json:"catalog"`
}

// ItemsConfig holds settings for the item metadata fetch
type ItemsConfig struct {
	RatePerSecond float64       `yaml:"rate_per_second" json:"rate_per_second"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	OutputDirectory string        `yaml:"output_directory" json:"output_directory"`
	Workers         int           `yaml:"workers" json:"workers"`
	Unzip           bool          `yaml:"unzip" json:"unzip"`
	KeepZip         bool          `yaml:"keep_zip" json:"keep_zip"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
}

// RetryConfig holds retry and backoff configuration
type RetryConfig struct {
	MaxAttempts       int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay         time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay          time.Duration `yaml:"max_delay" json:"max_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
}

// LedgerConfig holds the optional SQLite ledger settings
type LedgerConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		EODMS: EODMSConfig{
			Environment: "prod",
			Catalog:     "EODMS",
		},
		Items: ItemsConfig{
			RatePerSecond: 4,
			Timeout:       60 * time.Second,
		},
		Download: DownloadConfig{
			OutputDirectory: "./downloads",
			Workers:         3,
			Unzip:           false,
			KeepZip:         true,
			Timeout:         10 * time.Minute,
		},
		Retry: RetryConfig{
			MaxAttempts:       5,
			BaseDelay:         1 * time.Second,
			MaxDelay:          30 * time.Second,
			BackoffMultiplier: 2.0,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadEnvFile loads a .env style file into the process environment.
// A missing file at an explicitly requested path is a fatal configuration
// error; callers must not reach the network after it fails.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("environment file not found: %s", path)
		}
		return fmt.Errorf("cannot read environment file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to parse environment file %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if username := os.Getenv("EODMS_USER"); username != "" {
		c.EODMS.Username = username
	}
	if password := os.Getenv("EODMS_PASSWORD"); password != "" {
		c.EODMS.Password = password
	}
	if env := os.Getenv("EODMS_ENVIRONMENT"); env != "" {
		c.EODMS.Environment = env
	}
	if catalog := os.Getenv("EODMS_CATALOG"); catalog != "" {
		c.EODMS.Catalog = catalog
	}
	if outputDir := os.Getenv("EODMS_OUTPUT_DIR"); outputDir != "" {
		c.Download.OutputDirectory = outputDir
	}
	if workers := os.Getenv("EODMS_WORKERS"); workers != "" {
		if val, err := strconv.Atoi(workers); err == nil && val > 0 {
			c.Download.Workers = val
		}
	}
	if rate := os.Getenv("EODMS_RATE_PER_SECOND"); rate != "" {
		if val, err := strconv.ParseFloat(rate, 64); err == nil && val > 0 {
			c.Items.RatePerSecond = val
		}
	}
	if ledger := os.Getenv("EODMS_LEDGER_DB"); ledger != "" {
		c.Ledger.Path = ledger
	}
	if logLevel := os.Getenv("EODMS_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
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

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".eodmsdds.yaml",
		".eodmsdds.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "eodmsdds", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "eodmsdds", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".eodmsdds.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Credentials are allowed to be empty here; stored accounts can fill
	// them in at client construction time.

	switch strings.ToLower(c.EODMS.Environment) {
	case "prod", "staging":
	default:
		errs = append(errs, errors.New("environment must be prod or staging"))
	}

	if c.EODMS.Catalog == "" {
		errs = append(errs, errors.New("catalog is required"))
	}

	if c.Items.RatePerSecond < 0 {
		errs = append(errs, errors.New("rate per second cannot be negative"))
	}

	if c.Download.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if c.Download.Workers > 10 {
		errs = append(errs, errors.New("workers should not exceed 10"))
	}
	if c.Download.OutputDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max attempts cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if username, ok := flags["username"].(string); ok && username != "" {
		c.EODMS.Username = username
	}
	if password, ok := flags["password"].(string); ok && password != "" {
		c.EODMS.Password = password
	}
	if env, ok := flags["environment"].(string); ok && env != "" {
		c.EODMS.Environment = env
	}
	if catalog, ok := flags["catalog"].(string); ok && catalog != "" {
		c.EODMS.Catalog = catalog
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Download.OutputDirectory = outputDir
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Download.Workers = workers
	}
	if rate, ok := flags["rate-per-second"].(float64); ok && rate > 0 {
		c.Items.RatePerSecond = rate
	}
	if unzip, ok := flags["unzip"].(bool); ok {
		c.Download.Unzip = unzip
	}
	if keepZip, ok := flags["keep-zip"].(bool); ok {
		c.Download.KeepZip = keepZip
	}
	if ledger, ok := flags["ledger-db"].(string); ok && ledger != "" {
		c.Ledger.Path = ledger
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults.
// envFile, when non-empty, names a .env file that MUST exist.
func Load(configPath, envFile string, flags map[string]interface{}) (*Config, error) {
	if envFile != "" {
		if err := LoadEnvFile(envFile); err != nil {
			return nil, err
		}
	} else {
		// Best-effort default locations
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".eodmsdds.env"))
	}

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
