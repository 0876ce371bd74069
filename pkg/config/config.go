// Package config loads assistant.yaml.
//
// Configuration is an explicit struct passed into constructors; there is no
// package-level configuration state. Secrets may reference environment
// variables (${OPENAI_API_KEY}), expanded at load time.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFilename is searched for in DefaultSearchDirs when no path is given.
const DefaultFilename = "assistant.yaml"

// DefaultSearchDirs lists the directories searched for DefaultFilename.
var DefaultSearchDirs = []string{"."}

// Documented fallbacks for settings left empty in the file.
const (
	DefaultLogLevel         = "warn"
	DefaultLogFile          = "assistant.log"
	DefaultProvider         = "openai"
	DefaultModel            = "gpt-3.5-turbo-0613"
	DefaultTimeout          = 60 * time.Second
	DefaultRateLimit        = 60 // requests per minute
	DefaultBurstLimit       = 1
	DefaultMaxFunctionCalls = 3
	DefaultMaxObjects       = 100
)

// DefaultSystemPrompt is the assistant persona primed into every session.
const DefaultSystemPrompt = `You are an expert technical Assistant designed to assist with a wide range of IT operations tasks.
You can call functions to look up live information about the environment, such as the database servers and databases that exist and their health.
Use a function whenever the answer depends on the current state of the environment; never invent servers, databases or results.
When a function returns CSV data, summarise it clearly for the user.`

// AppConfig is the root of assistant.yaml.
type AppConfig struct {
	LogLevel     string             `yaml:"log_level"`
	LogFile      string             `yaml:"logfile"`
	OpenAI       ModelConfig        `yaml:"openai"`
	Conversation ConversationConfig `yaml:"conversation"`
	Probes       ProbesConfig       `yaml:"probes"`
}

// ModelConfig describes the chat-completion backend.
type ModelConfig struct {
	Provider    string        `yaml:"provider"`  // "openai" or a compatible alias
	Model       string        `yaml:"model"`     // real model name in the API
	Token       string        `yaml:"token"`     // supports ${VAR}
	BaseURL     string        `yaml:"base_url"`  // OpenAI-compatible endpoint, empty = api.openai.com
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`     // "60s", "2m"
	RateLimit   int           `yaml:"rate_limit"`  // requests per minute
	BurstLimit  int           `yaml:"burst_limit"` // burst for the rate limiter
}

// ConversationConfig tunes the conversation loop.
type ConversationConfig struct {
	MaxFunctionCalls       int    `yaml:"max_function_calls"` // round-trips per user turn
	SystemPrompt           string `yaml:"system_prompt"`
	FollowUpWithoutCatalog bool   `yaml:"follow_up_without_catalog"`
}

// ProbesConfig groups probe settings.
type ProbesConfig struct {
	Database DatabaseProbeConfig `yaml:"database"`
	Storage  StorageProbeConfig  `yaml:"storage"`
}

// DatabaseProbeConfig configures the database probe.
type DatabaseProbeConfig struct {
	Disabled      bool              `yaml:"disabled"`
	InventoryPath string            `yaml:"inventory_path"` // SQLite file; empty = built-in inventory
	SeedInventory bool              `yaml:"seed_inventory"` // create and fill the SQLite file if empty
	Connections   map[string]string `yaml:"connections"`    // server name -> MySQL DSN, supports ${VAR}
}

// StorageProbeConfig configures the object storage probe.
type StorageProbeConfig struct {
	Endpoint   string `yaml:"endpoint"`
	Region     string `yaml:"region"`
	AccessKey  string `yaml:"access_key"` // supports ${VAR}
	SecretKey  string `yaml:"secret_key"` // supports ${VAR}
	UseSSL     bool   `yaml:"use_ssl"`
	MaxObjects int    `yaml:"max_objects"`
}

// Enabled reports whether the storage probe should be registered.
func (c StorageProbeConfig) Enabled() bool {
	return c.Endpoint != ""
}

// Default returns a configuration with every documented fallback set.
// The token is left empty and must be supplied.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyDefaults()
	return cfg
}

// GetDefaults returns a copy of c with empty fields set to their fallbacks.
func (c ModelConfig) GetDefaults() ModelConfig {
	result := c

	if result.Provider == "" {
		result.Provider = DefaultProvider
	}
	if result.Model == "" {
		result.Model = DefaultModel
	}
	if result.Timeout == 0 {
		result.Timeout = DefaultTimeout
	}
	if result.RateLimit == 0 {
		result.RateLimit = DefaultRateLimit
	}
	if result.BurstLimit == 0 {
		result.BurstLimit = DefaultBurstLimit
	}

	return result
}

func (c *AppConfig) applyDefaults() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
	c.OpenAI = c.OpenAI.GetDefaults()
	if c.Conversation.MaxFunctionCalls == 0 {
		c.Conversation.MaxFunctionCalls = DefaultMaxFunctionCalls
	}
	if c.Conversation.SystemPrompt == "" {
		c.Conversation.SystemPrompt = DefaultSystemPrompt
	}
	if c.Probes.Storage.MaxObjects == 0 {
		c.Probes.Storage.MaxObjects = DefaultMaxObjects
	}
}

// Load reads a YAML file, expands environment variables, applies defaults
// and validates the result.
//
// With an empty path the file is looked up in DefaultSearchDirs; when no
// file exists there the defaults are used (the token may still come from
// OPENAI_API_KEY). An explicit path that does not exist is an error.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		found, ok := FindConfig(DefaultSearchDirs)
		if !ok {
			cfg := Default()
			cfg.OpenAI.Token = os.Getenv("OPENAI_API_KEY")
			if err := cfg.validate(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		path = found
	}

	// 1. Check that the file exists
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, &ConfigurationError{Field: "file", Message: "config file not found at " + path, Err: err}
	}

	// 2. Read the whole file
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Field: "file", Message: "unable to open config file " + path, Err: err}
	}

	cfg, err := Parse(rawBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML content (with ${VAR} expansion), applies defaults and
// validates.
func Parse(raw []byte) (*AppConfig, error) {
	contentWithEnv := os.ExpandEnv(string(raw))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, &ConfigurationError{Field: "file", Message: "failed to parse yaml", Err: err}
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindConfig returns the first DefaultFilename found in dirs.
func FindConfig(dirs []string) (string, bool) {
	for _, dir := range dirs {
		candidate := filepath.Join(dir, DefaultFilename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// validate checks the settings the assistant cannot run without.
func (c *AppConfig) validate() error {
	if c.OpenAI.Token == "" {
		return Errorf("openai.token", "API token required")
	}
	if c.OpenAI.Model == "" {
		return Errorf("openai.model", "model identifier required")
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		return Errorf("openai.temperature", "must be between 0 and 2, got %v", c.OpenAI.Temperature)
	}
	if c.OpenAI.RateLimit < 0 {
		return Errorf("openai.rate_limit", "must not be negative")
	}
	if c.Conversation.MaxFunctionCalls < 0 {
		return Errorf("conversation.max_function_calls", "must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return Errorf("log_level", "unknown level %q", c.LogLevel)
	}
	if c.Probes.Database.SeedInventory && c.Probes.Database.InventoryPath == "" {
		return Errorf("probes.database.seed_inventory", "requires inventory_path")
	}
	return nil
}
