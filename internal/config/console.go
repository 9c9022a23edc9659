package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"employee-portal/internal/auth"
	"employee-portal/internal/guard"
	"employee-portal/internal/jarstore"
)

// ConsoleConfig configures the console client. Values come from the
// environment first, then from an optional YAML file; command flags are
// applied on top by the caller.
type ConsoleConfig struct {
	BackendURL     string        `yaml:"backend_url"`
	BackendTimeout time.Duration `yaml:"backend_timeout"`

	LoginPath   string `yaml:"login_path"`
	LandingPath string `yaml:"landing_path"`

	SessionCookie string `yaml:"session_cookie"`
	// SessionStore selects where the cookie jar is kept between runs:
	// memory, sqlite or redis.
	SessionStore      string `yaml:"session_store"`
	DatabasePath      string `yaml:"database_path"`
	RedisAddr         string `yaml:"redis_addr"`
	RedisPassword     string `yaml:"redis_password"`
	RedisDB           int    `yaml:"redis_db"`
	SessionPersistKey string `yaml:"session_persist_key"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DefaultConsoleConfig keeps the jar in SQLite under the user's config
// directory so that a login survives between invocations.
func DefaultConsoleConfig() ConsoleConfig {
	return ConsoleConfig{
		BackendURL:        DefaultBackendURL,
		BackendTimeout:    DefaultBackendTimeout,
		LoginPath:         guard.DefaultRoutes().LoginPath,
		LandingPath:       guard.DefaultRoutes().LandingPath,
		SessionCookie:     auth.CookieName,
		SessionStore:      "sqlite",
		DatabasePath:      defaultConsoleDB(),
		SessionPersistKey: auth.PersistKey,
		LogLevel:          "warn",
		LogFormat:         "text",
	}
}

// DefaultConsoleFile is ~/.employee-portal/console.yaml.
func DefaultConsoleFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".employee-portal", "console.yaml")
}

func defaultConsoleDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "portal-console.db"
	}
	return filepath.Join(home, ".employee-portal", "console.db")
}

// LoadConsole builds the console configuration. A missing file is not an
// error; a file that does not parse is.
func LoadConsole(path string) (ConsoleConfig, error) {
	cfg := DefaultConsoleConfig()
	cfg.applyEnv()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return ConsoleConfig{}, fmt.Errorf("read console config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return ConsoleConfig{}, fmt.Errorf("parse console config %s: %w", path, err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return ConsoleConfig{}, err
	}
	return cfg, nil
}

func (c *ConsoleConfig) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("BACKEND_URL")); v != "" {
		c.BackendURL = v
	}
	if v := strings.TrimSpace(os.Getenv("BACKEND_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.BackendTimeout = d
		}
	}
	c.LoginPath = envOr("LOGIN_PATH", c.LoginPath)
	c.LandingPath = envOr("LANDING_PATH", c.LandingPath)
	c.SessionCookie = envOr("SESSION_COOKIE", c.SessionCookie)
	c.SessionStore = envOr("SESSION_STORE", c.SessionStore)
	c.DatabasePath = envOr("DATABASE_PATH", c.DatabasePath)
	c.RedisAddr = envOr("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = envOr("REDIS_PASSWORD", c.RedisPassword)
	c.SessionPersistKey = envOr("SESSION_PERSIST_KEY", c.SessionPersistKey)
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOr("LOG_FORMAT", c.LogFormat)
}

// Validate checks the store selection and the route table.
func (c ConsoleConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.BackendURL) == "" {
		missing = append(missing, "backend_url")
	}
	if c.SessionPersistKey == "" {
		missing = append(missing, "session_persist_key")
	}
	switch strings.ToLower(c.SessionStore) {
	case "memory":
	case "sqlite":
		if c.DatabasePath == "" {
			missing = append(missing, "database_path (session_store=sqlite)")
		}
	case "redis":
		if c.RedisAddr == "" {
			missing = append(missing, "redis_addr (session_store=redis)")
		}
	default:
		missing = append(missing, "session_store (memory|sqlite|redis)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing/invalid console config: %s", strings.Join(missing, ", "))
	}
	if err := c.Routes().Validate(); err != nil {
		return fmt.Errorf("route table: %w", err)
	}
	return nil
}

// Routes is the guard route table for the console's client-side guard.
func (c ConsoleConfig) Routes() guard.Routes {
	r := guard.DefaultRoutes()
	r.LoginPath = c.LoginPath
	r.LandingPath = c.LandingPath
	return r
}

// JarStore is the durable jar backend configuration.
func (c ConsoleConfig) JarStore() jarstore.Config {
	return jarstore.Config{
		Kind:          c.SessionStore,
		DatabasePath:  c.DatabasePath,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
	}
}
