// ABOUTME: Server configuration from an optional YAML file overlaid with SKETCHTEX_* environment variables.
// ABOUTME: Enforces the security constraint that non-loopback binds require explicit opt-in.
package webui

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNonLoopbackBind = errors.New(
		"bind address is non-loopback but SKETCHTEX_ALLOW_REMOTE is not set; refusing to start",
	)
	ErrMissingModel = errors.New(
		"no model configured; set SKETCHTEX_MODEL or the model key in the config file",
	)
)

// Config holds all server configuration. Secrets (API key, manager token)
// come from the environment only and are never read from the YAML file.
type Config struct {
	Bind        string `yaml:"bind"`
	BuildDir    string `yaml:"build_dir"`
	DataDir     string `yaml:"data_dir"`
	AllowRemote bool   `yaml:"allow_remote"`

	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Attempts    int     `yaml:"attempts"`
	Temperature float64 `yaml:"temperature"`
	APIKey      string  `yaml:"-"`

	ManagerURL   string `yaml:"manager_url"`
	ManagerApp   string `yaml:"manager_app"`
	ManagerToken string `yaml:"-"`

	MaxSessions int           `yaml:"max_sessions"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
}

// LoadConfig reads the YAML file at path (skipped when path is empty or the
// file does not exist), overlays SKETCHTEX_* environment variables, fills
// defaults, and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Optional file.
		default:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Bind, "SKETCHTEX_BIND")
	setString(&cfg.BuildDir, "SKETCHTEX_BUILD_DIR")
	setString(&cfg.DataDir, "SKETCHTEX_DATA_DIR")
	setString(&cfg.Model, "SKETCHTEX_MODEL")
	setString(&cfg.BaseURL, "SKETCHTEX_BASE_URL")
	setString(&cfg.ManagerURL, "SKETCHTEX_MANAGER_URL")
	setString(&cfg.ManagerApp, "SKETCHTEX_MANAGER_APP")

	cfg.APIKey = os.Getenv("SKETCHTEX_API_KEY")
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.ManagerToken = os.Getenv("SKETCHTEX_MANAGER_TOKEN")

	if v := os.Getenv("SKETCHTEX_ALLOW_REMOTE"); v == "true" || v == "1" || v == "yes" {
		cfg.AllowRemote = true
	}
	if v := os.Getenv("SKETCHTEX_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Temperature = f
		}
	}
	if v := os.Getenv("SKETCHTEX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Attempts = n
		}
	}
	if v := os.Getenv("SKETCHTEX_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SessionTTL = d
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Bind == "" {
		cfg.Bind = "127.0.0.1:7870"
	}
	if cfg.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "/tmp"
		}
		cfg.DataDir = filepath.Join(homeDir, ".sketchtex")
	}
	if cfg.BuildDir == "" {
		cfg.BuildDir = filepath.Join(cfg.DataDir, "build")
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 8
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 100
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
}

func validate(cfg *Config) error {
	if cfg.Model == "" {
		return ErrMissingModel
	}

	host, _, err := net.SplitHostPort(cfg.Bind)
	if err != nil {
		return fmt.Errorf("invalid bind address %q: %w", cfg.Bind, err)
	}
	if !cfg.AllowRemote && !isLoopback(host) {
		return ErrNonLoopbackBind
	}
	return nil
}

func isLoopback(host string) bool {
	if host == "localhost" || host == "" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
