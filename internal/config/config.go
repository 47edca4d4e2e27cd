package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	// configDir is the configuration directory path
	// Can be set via SetConfigDir before loading config
	configDir     string
	configDirInit bool
)

// SetConfigDir sets a custom configuration directory
// Must be called before any config loading functions
func SetConfigDir(dir string) {
	configDir = dir
	configDirInit = true
}

// GetConfigDir returns the configuration directory
// Priority: 1. Manually set via SetConfigDir, 2. ~/.sidekick
func GetConfigDir() string {
	if !configDirInit {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			configDir = filepath.Join(homeDir, ".sidekick")
		}
		configDirInit = true
	}
	return configDir
}

// Config application configuration structure
type Config struct {
	Model     ModelConfig     `yaml:"model"`
	Memory    MemoryConfig    `yaml:"memory"`
	Safety    SafetyConfig    `yaml:"safety"`
	WebSearch WebSearchConfig `yaml:"web_search"`
}

// ModelConfig completion service configuration
type ModelConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// MemoryConfig memory storage configuration
type MemoryConfig struct {
	DataDir                  string `yaml:"data_dir"`
	MaxConversationSummaries int    `yaml:"max_conversation_summaries"`
	SessionRetentionDays     int    `yaml:"session_retention_days"`
}

// SafetyConfig safety configuration
type SafetyConfig struct {
	ConfirmDangerousOps bool `yaml:"confirm_dangerous_ops"`
}

// WebSearchConfig web search configuration
type WebSearchConfig struct {
	Provider       string `yaml:"provider"`
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	DefaultLimit   int    `yaml:"default_limit"`
	UserAgent      string `yaml:"user_agent"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Model: ModelConfig{
			APIKey:         "",
			BaseURL:        "https://api.anthropic.com",
			Model:          "claude-sonnet-4-20250514",
			TimeoutSeconds: 300,
			MaxRetries:     3,
		},
		Memory: MemoryConfig{
			DataDir:                  filepath.Join(homeDir, ".sidekick", "data"),
			MaxConversationSummaries: 50,
			SessionRetentionDays:     30,
		},
		Safety: SafetyConfig{
			ConfirmDangerousOps: true,
		},
		WebSearch: WebSearchConfig{
			Provider:       "duckduckgo",
			BaseURL:        "https://api.duckduckgo.com",
			APIKey:         "",
			TimeoutSeconds: 15,
			DefaultLimit:   5,
			UserAgent:      "Sidekick/0.1",
		},
	}
}

// ConfigDir returns the configuration directory path
func ConfigDir() (string, error) {
	dir := GetConfigDir()
	if dir == "" {
		return "", fmt.Errorf("failed to determine config directory")
	}
	return dir, nil
}

// LogDir returns the log directory path
func LogDir() string {
	dir := GetConfigDir()
	if dir == "" {
		return "logs"
	}
	return filepath.Join(dir, "logs")
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from file and merges with secrets
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create default config
		cfg := DefaultConfig()
		applySecrets(cfg)

		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse config
	cfg := DefaultConfig() // Use default values as base
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applySecrets(cfg)

	// Validate config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applySecrets fills empty API keys from the secrets file and environment
func applySecrets(cfg *Config) {
	secrets, _ := LoadSecrets()
	if secrets != nil {
		if cfg.Model.APIKey == "" {
			cfg.Model.APIKey = secrets.GetModelAPIKey()
		}
		if cfg.WebSearch.APIKey == "" {
			cfg.WebSearch.APIKey = secrets.GetWebSearchAPIKey()
		}
	}

	// Environment variable takes precedence over everything
	if envKey := os.Getenv("SIDEKICK_API_KEY"); envKey != "" {
		cfg.Model.APIKey = envKey
	}
}

// Save saves configuration to file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	// Ensure config directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Serialize config
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	// Add header comment
	content := "# Sidekick Configuration File\n\n" + string(data)

	// Write file
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate model config
	if c.Model.BaseURL == "" {
		return fmt.Errorf("config error: model.base_url cannot be empty")
	}
	if c.Model.Model == "" {
		return fmt.Errorf("config error: model.model cannot be empty")
	}
	if c.Model.TimeoutSeconds <= 0 {
		return fmt.Errorf("config error: model.timeout_seconds must be greater than 0")
	}

	// Validate memory config
	if c.Memory.DataDir == "" {
		return fmt.Errorf("config error: memory.data_dir cannot be empty")
	}
	if c.Memory.MaxConversationSummaries <= 0 {
		return fmt.Errorf("config error: memory.max_conversation_summaries must be greater than 0")
	}
	if c.Memory.SessionRetentionDays <= 0 {
		return fmt.Errorf("config error: memory.session_retention_days must be greater than 0")
	}

	// Validate web search config
	if c.WebSearch.TimeoutSeconds <= 0 {
		return fmt.Errorf("config error: web_search.timeout_seconds must be greater than 0")
	}
	if c.WebSearch.DefaultLimit <= 0 {
		return fmt.Errorf("config error: web_search.default_limit must be greater than 0")
	}

	return nil
}

// IsAPIKeyConfigured checks if API key is configured
func (c *Config) IsAPIKeyConfigured() bool {
	return c.Model.APIKey != ""
}

// String returns string representation of config (hides sensitive info)
func (c *Config) String() string {
	return fmt.Sprintf(`Sidekick Configuration:
  Model:
    API Key: %s
    Base URL: %s
    Model: %s
    Timeout Seconds: %d
    Max Retries: %d
  Memory:
    Data Dir: %s
    Max Conversation Summaries: %d
    Session Retention Days: %d
  Safety:
    Confirm Dangerous Ops: %v
  Web Search:
    Provider: %s
    Base URL: %s
    API Key: %s
    Timeout Seconds: %d
    Default Limit: %d
    User Agent: %s`,
		redactAPIKey(c.Model.APIKey),
		c.Model.BaseURL,
		c.Model.Model,
		c.Model.TimeoutSeconds,
		c.Model.MaxRetries,
		c.Memory.DataDir,
		c.Memory.MaxConversationSummaries,
		c.Memory.SessionRetentionDays,
		c.Safety.ConfirmDangerousOps,
		c.WebSearch.Provider,
		c.WebSearch.BaseURL,
		redactAPIKey(c.WebSearch.APIKey),
		c.WebSearch.TimeoutSeconds,
		c.WebSearch.DefaultLimit,
		c.WebSearch.UserAgent,
	)
}

func redactAPIKey(value string) string {
	if value == "" {
		return "(not configured)"
	}
	if len(value) > 8 {
		return value[:8] + "..."
	}
	return "***"
}
