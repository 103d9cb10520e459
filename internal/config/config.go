package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backends accepted by the chat command.
const (
	BackendAnthropic = "anthropic"
	BackendEcho      = "echo"
)

// Config holds the rocktalk configuration.
type Config struct {
	DataDir      string `yaml:"data_dir" json:"data_dir"`                               // default "~/.rocktalk"
	StorePath    string `yaml:"store_path" json:"store_path"`                           // default "{data_dir}/issues.json"
	User         string `yaml:"user" json:"user"`                                       // default "default_user"
	Backend      string `yaml:"backend" json:"backend"`                                 // "anthropic" or "echo"
	Model        string `yaml:"model,omitempty" json:"model,omitempty"`                 // empty selects the backend default
	MaxTokens    int    `yaml:"max_tokens" json:"max_tokens"`                           // default 1024
	CreateMarker string `yaml:"create_marker" json:"create_marker"`                     // phrase that triggers issue creation
	SystemPrompt string `yaml:"system_prompt,omitempty" json:"system_prompt,omitempty"` // replaces the generated prompt
	LogLevel     string `yaml:"log_level" json:"log_level"`                             // debug, info, warn, error
	APIKey       string `yaml:"api_key,omitempty" json:"api_key,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".rocktalk")
	if env := os.Getenv("ROCKTALK_HOME"); env != "" {
		dataDir = expandHome(env)
	}
	return &Config{
		DataDir:      dataDir,
		StorePath:    filepath.Join(dataDir, "issues.json"),
		User:         "default_user",
		Backend:      BackendAnthropic,
		MaxTokens:    1024,
		CreateMarker: "create issue",
		LogLevel:     "warn",
	}
}

// Path returns the path to the config file.
func (c *Config) Path() string {
	return filepath.Join(c.DataDir, "config.yaml")
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// Load reads configuration from the default data directory, then applies
// environment overrides. A missing file yields the defaults.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfig().DataDir)
}

// LoadFrom reads {dataDir}/config.yaml and applies environment overrides.
func LoadFrom(dataDir string) (*Config, error) {
	cfg, err := readFile(dataDir)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg.finish()
}

// LoadFile reads {dataDir}/config.yaml without environment overrides, for
// callers that write the result back.
func LoadFile(dataDir string) (*Config, error) {
	cfg, err := readFile(dataDir)
	if err != nil {
		return nil, err
	}
	return cfg.finish()
}

func readFile(dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir
	cfg.StorePath = ""

	data, err := os.ReadFile(cfg.Path())
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	return cfg, nil
}

func (c *Config) finish() (*Config, error) {
	c.DataDir = expandHome(c.DataDir)
	c.StorePath = expandHome(c.StorePath)
	if c.StorePath == "" {
		c.StorePath = filepath.Join(c.DataDir, "issues.json")
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	for env, dst := range map[string]*string{
		"ROCKTALK_STORE":    &c.StorePath,
		"ROCKTALK_USER":     &c.User,
		"ROCKTALK_BACKEND":  &c.Backend,
		"ANTHROPIC_API_KEY": &c.APIKey,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
}

// Validate checks that the Config contains valid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if strings.TrimSpace(c.User) == "" {
		return fmt.Errorf("user must not be empty")
	}
	switch c.Backend {
	case BackendAnthropic, BackendEcho:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendAnthropic, BackendEcho)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if strings.TrimSpace(c.CreateMarker) == "" {
		return fmt.Errorf("create_marker must not be empty")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log_level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", s)
	}
	return l, nil
}

// Keys lists the settings accepted by Set, in display order.
var Keys = []string{"data_dir", "store_path", "user", "backend", "model", "max_tokens", "create_marker", "system_prompt", "log_level"}

// Set assigns one setting by its file key and re-validates.
func (c *Config) Set(key, value string) error {
	switch key {
	case "data_dir":
		c.DataDir = expandHome(value)
	case "store_path":
		c.StorePath = expandHome(value)
	case "user":
		c.User = value
	case "backend":
		c.Backend = value
	case "model":
		c.Model = value
	case "max_tokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_tokens: %w", err)
		}
		c.MaxTokens = n
	case "create_marker":
		c.CreateMarker = value
	case "system_prompt":
		c.SystemPrompt = value
	case "log_level":
		c.LogLevel = value
	default:
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys, ", "))
	}
	return c.Validate()
}

// Save writes the configuration to {data_dir}/config.yaml. The API key is
// never written; it comes from the environment.
func Save(cfg *Config) error {
	if err := EnsureDataDir(cfg); err != nil {
		return err
	}

	out := *cfg
	out.APIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(cfg.Path(), data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// EnsureDataDir creates the data directory if it does not exist.
func EnsureDataDir(cfg *Config) error {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir %s: %w", cfg.DataDir, err)
	}
	return nil
}
