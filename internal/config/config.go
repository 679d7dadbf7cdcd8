// ABOUTME: Configuration loading and parsing for parley
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete parley configuration
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Assistant AssistantConfig `yaml:"assistant"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	WebAdmin  WebAdminConfig  `yaml:"webadmin"`
	Persona   PersonaConfig   `yaml:"persona"`
}

// TelegramConfig holds Telegram Bot API configuration
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	// APIBase overrides the Bot API base URL, mainly for tests
	APIBase string `yaml:"api_base"`
}

// AssistantConfig holds the remote assistant runtime configuration
type AssistantConfig struct {
	APIKey      string `yaml:"api_key"`
	AssistantID string `yaml:"assistant_id"`
	BaseURL     string `yaml:"base_url"`

	PollInterval time.Duration `yaml:"-"`
	PollBudget   int           `yaml:"poll_budget"`

	// Raw string value for YAML unmarshaling
	PollIntervalRaw string `yaml:"poll_interval"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// WebAdminConfig holds web admin UI configuration
type WebAdminConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	// Password is checked against login attempts; stored as plaintext in
	// config and hashed at startup
	Password  string `yaml:"password"`
	JWTSecret string `yaml:"jwt_secret"`
}

// PersonaConfig points at the optional TOML file with reply texts
type PersonaConfig struct {
	Path string `yaml:"path"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in values for optional fields left unset.
func (c *Config) applyDefaults() {
	if c.Assistant.PollInterval == 0 {
		c.Assistant.PollInterval = time.Second
	}
	if c.Assistant.PollBudget == 0 {
		c.Assistant.PollBudget = 60
	}
	if c.Database.Path == "" {
		c.Database.Path = "./parley.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.WebAdmin.Addr == "" {
		c.WebAdmin.Addr = "localhost:8080"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Assistant.APIKey == "" {
		return fmt.Errorf("assistant.api_key is required")
	}
	if c.Assistant.AssistantID == "" {
		return fmt.Errorf("assistant.assistant_id is required")
	}
	if c.Assistant.PollBudget < 0 {
		return fmt.Errorf("assistant.poll_budget must not be negative")
	}
	if c.WebAdmin.Enabled {
		if c.WebAdmin.Password == "" {
			return fmt.Errorf("webadmin.password is required when webadmin is enabled")
		}
		if c.WebAdmin.JWTSecret == "" {
			return fmt.Errorf("webadmin.jwt_secret is required when webadmin is enabled")
		}
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Assistant.PollIntervalRaw != "" {
		cfg.Assistant.PollInterval, err = time.ParseDuration(cfg.Assistant.PollIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing poll_interval %q: %w", cfg.Assistant.PollIntervalRaw, err)
		}
	}

	return nil
}
