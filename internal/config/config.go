package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"employee-portal/internal/auth"
	"employee-portal/internal/guard"
)

const (
	DefaultBackendURL     = "http://localhost:8080/api/v1"
	DefaultBackendTimeout = 10 * time.Second
)

type Config struct {
	Addr   string
	AppEnv string

	BackendURL     string
	BackendTimeout time.Duration

	Routes guard.Routes

	SessionCookie  string
	SessionTTLDays int

	WSAllowedOrigins []string

	LogLevel  string
	LogFormat string
}

// IsProduction reports whether APP_ENV selects production behaviour
// (Secure cookies, strict websocket origins).
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:           os.Getenv("BACKEND_ADDR"),
		AppEnv:         strings.TrimSpace(os.Getenv("APP_ENV")),
		BackendURL:     strings.TrimRight(strings.TrimSpace(os.Getenv("BACKEND_URL")), "/"),
		BackendTimeout: DefaultBackendTimeout,
		Routes:         guard.DefaultRoutes(),
		SessionCookie:  envOr("SESSION_COOKIE", auth.CookieName),
		SessionTTLDays: auth.CookieTTLDays,
		LogLevel:       envOr("LOG_LEVEL", "info"),
		LogFormat:      envOr("LOG_FORMAT", "text"),
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.BackendURL == "" {
		cfg.BackendURL = DefaultBackendURL
	}
	if v := strings.TrimSpace(os.Getenv("LOGIN_PATH")); v != "" {
		cfg.Routes.LoginPath = v
	}
	if v := strings.TrimSpace(os.Getenv("LANDING_PATH")); v != "" {
		cfg.Routes.LandingPath = v
	}

	var missing []string

	if v := strings.TrimSpace(os.Getenv("BACKEND_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.BackendTimeout = d
		} else {
			missing = append(missing, "BACKEND_TIMEOUT (duration)")
		}
	}
	if v := strings.TrimSpace(os.Getenv("SESSION_TTL_DAYS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTTLDays = n
		} else {
			fmt.Fprintf(os.Stderr, "WARNING: invalid SESSION_TTL_DAYS=%q, using default %d\n", v, cfg.SessionTTLDays)
		}
	}

	if v := os.Getenv("WS_ALLOWED_ORIGINS"); v != "" {
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.WSAllowedOrigins = append(cfg.WSAllowedOrigins, p)
			}
		}
	}

	// BACKEND_ADDR is optional if PORT is set by the hosting environment.
	if cfg.Addr == "" {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			if strings.Contains(port, ":") {
				cfg.Addr = port
			} else {
				cfg.Addr = ":" + port
			}
		}
	}
	if cfg.Addr == "" {
		missing = append(missing, "BACKEND_ADDR (or PORT)")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing/invalid env: %s", strings.Join(missing, ", "))
	}
	if err := cfg.Routes.Validate(); err != nil {
		return Config{}, fmt.Errorf("route table: %w", err)
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
