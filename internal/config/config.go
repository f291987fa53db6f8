// Package config loads the daemon configuration from an optional YAML
// file with PROMOUI_* environment overrides, and hot-reloads it when the
// file changes.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full daemon configuration.
type Config struct {
	// Listen is the control API bind address.
	Listen string `yaml:"listen"`
	// LogLevel is a zerolog level name (trace .. fatal).
	LogLevel string `yaml:"logLevel"`
	// DataDir holds the preference store and the job journal.
	DataDir string `yaml:"dataDir"`

	// CCOMBaseURL is the scheduler/middleware endpoint.
	CCOMBaseURL string `yaml:"ccomBaseUrl"`
	// TraxisBaseURL is the entitlement/catalogue endpoint.
	TraxisBaseURL string `yaml:"traxisBaseUrl"`
	// TraxisAccount identifies this box's account towards Traxis.
	TraxisAccount string `yaml:"traxisAccount"`
	// ShellBaseURL is the UI shell's callback endpoint: dialogs, PIN
	// prompts, tuner and player live there.
	ShellBaseURL string `yaml:"shellBaseUrl"`

	// RedisAddr enables the Redis cache when set; empty selects the
	// in-process cache.
	RedisAddr string `yaml:"redisAddr"`

	// DialogTimeout bounds task-alert dialogs before the tune default
	// applies.
	DialogTimeout time.Duration `yaml:"dialogTimeout"`
	// RateLimit is the per-client API request budget per minute.
	RateLimit int `yaml:"rateLimit"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:        ":8090",
		LogLevel:      "info",
		DataDir:       "/var/lib/promoui",
		CCOMBaseURL:   "http://127.0.0.1:9040",
		TraxisBaseURL: "http://127.0.0.1:9041",
		TraxisAccount: "default",
		ShellBaseURL:  "http://127.0.0.1:9042",
		DialogTimeout: 30 * time.Second,
		RateLimit:     120,
	}
}

// Load builds the effective configuration: defaults, then the YAML file
// at path (skipped when path is empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setString("PROMOUI_LISTEN", &cfg.Listen)
	setString("PROMOUI_LOG_LEVEL", &cfg.LogLevel)
	setString("PROMOUI_DATA_DIR", &cfg.DataDir)
	setString("PROMOUI_CCOM_URL", &cfg.CCOMBaseURL)
	setString("PROMOUI_TRAXIS_URL", &cfg.TraxisBaseURL)
	setString("PROMOUI_TRAXIS_ACCOUNT", &cfg.TraxisAccount)
	setString("PROMOUI_SHELL_URL", &cfg.ShellBaseURL)
	setString("PROMOUI_REDIS_ADDR", &cfg.RedisAddr)

	if v, ok := os.LookupEnv("PROMOUI_DIALOG_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.DialogTimeout = d
		}
	}
	if v, ok := os.LookupEnv("PROMOUI_RATE_LIMIT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit = n
		}
	}
}

// Validate rejects configurations the daemon cannot start with.
func Validate(cfg Config) error {
	if cfg.Listen == "" {
		return fmt.Errorf("config: listen address is empty")
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("config: dataDir is empty")
	}
	for name, raw := range map[string]string{
		"ccomBaseUrl":   cfg.CCOMBaseURL,
		"traxisBaseUrl": cfg.TraxisBaseURL,
		"shellBaseUrl":  cfg.ShellBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config: %s %q is not a valid URL", name, raw)
		}
	}
	if cfg.DialogTimeout <= 0 {
		return fmt.Errorf("config: dialogTimeout must be positive")
	}
	if cfg.RateLimit <= 0 {
		return fmt.Errorf("config: rateLimit must be positive")
	}
	return nil
}
