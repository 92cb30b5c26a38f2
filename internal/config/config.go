package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Auth for the HTTP API; empty disables it.
	APIKey string `yaml:"api_key"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Parsed document cache
	CacheTTL             time.Duration `yaml:"cache_ttl"`
	CacheCleanupInterval time.Duration `yaml:"cache_cleanup_interval"`

	LogLevel string `yaml:"log_level"`

	Controller ControllerConfig `yaml:"controller"`
}

// ControllerConfig points the CLI at a live controller.
type ControllerConfig struct {
	URL      string        `yaml:"url"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

func defaults() Config {
	return Config{
		Port:                 "8090",
		MaxUploadBytes:       52428800, // 50MB
		CacheTTL:             1 * time.Hour,
		CacheCleanupInterval: 5 * time.Minute,
		LogLevel:             "info",
		Controller: ControllerConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// LoadDotEnv copies the variables of the given .env files, ".env" by
// default, into the environment. Variables that are already set win, and
// missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() Config {
	cfg := defaults()
	applyEnv(&cfg)
	normalize(&cfg)
	return cfg
}

// LoadFile reads a YAML file on top of the defaults. Environment variables
// still take precedence over the file.
func LoadFile(path string) (Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyEnv(&cfg)
	normalize(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("OMADADOC_API_KEY", cfg.APIKey)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.CacheTTL = envDuration("CACHE_TTL", cfg.CacheTTL)
	cfg.CacheCleanupInterval = envDuration("CACHE_CLEANUP_INTERVAL", cfg.CacheCleanupInterval)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)

	cfg.Controller.URL = envOr("CONTROLLER_URL", cfg.Controller.URL)
	cfg.Controller.Username = envOr("CONTROLLER_USERNAME", cfg.Controller.Username)
	cfg.Controller.Password = envOr("CONTROLLER_PASSWORD", cfg.Controller.Password)
	cfg.Controller.Timeout = envDuration("CONTROLLER_TIMEOUT", cfg.Controller.Timeout)
}

func normalize(cfg *Config) {
	d := defaults()
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = d.MaxUploadBytes
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = d.CacheTTL
	}
	if cfg.CacheCleanupInterval <= 0 {
		cfg.CacheCleanupInterval = d.CacheCleanupInterval
	}
	if cfg.Controller.Timeout <= 0 {
		cfg.Controller.Timeout = d.Controller.Timeout
	}
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be a number, got %q", c.Port)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Controller.URL != "" {
		u, err := url.Parse(c.Controller.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CONTROLLER_URL must be an absolute url, got %q", c.Controller.URL)
		}
	}
	if (c.Controller.Username == "") != (c.Controller.Password == "") {
		return fmt.Errorf("CONTROLLER_USERNAME and CONTROLLER_PASSWORD must be set together")
	}
	return nil
}

// Level returns the configured log level, falling back to info.
func (c Config) Level() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
