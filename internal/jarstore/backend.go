// Package jarstore keeps a cookie jar across process restarts.
//
// The console client has no browser to hold its cookies, so its jar is
// serialized under a fixed store key into SQLite or Redis. The jar stays
// the single source of truth for the session: nothing else about the
// session is persisted.
package jarstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned by Backend.Load when no live jar is stored.
	ErrNotFound = errors.New("jarstore: not found")
	// ErrUnavailable wraps transport and storage failures.
	ErrUnavailable = errors.New("jarstore: backend unavailable")
)

// Backend stores one serialized jar per key.
type Backend interface {
	// Load returns the data saved under key, or ErrNotFound once it has
	// expired or was never saved.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save replaces the data under key. A zero expires means no expiry.
	Save(ctx context.Context, key string, data []byte, expires time.Time) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config selects and configures a Backend.
type Config struct {
	Kind          string // memory | sqlite | redis
	DatabasePath  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open builds the backend named by cfg.Kind.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(ctx, cfg.DatabasePath, logger)
	case "redis":
		return OpenRedis(ctx, cfg)
	default:
		return nil, fmt.Errorf("jarstore: unknown backend %q", cfg.Kind)
	}
}

// Memory is a process-local Backend. It gives the console a working jar
// when no durable store is configured, and backs tests.
type Memory struct {
	mu  sync.Mutex
	m   map[string]memoryEntry
	now func() time.Time
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

func NewMemory() *Memory {
	return &Memory{m: map[string]memoryEntry{}, now: time.Now}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.m[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !e.expires.IsZero() && !e.expires.After(m.now()) {
		delete(m.m, key)
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.data...), nil
}

func (m *Memory) Save(_ context.Context, key string, data []byte, expires time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[key] = memoryEntry{data: append([]byte(nil), data...), expires: expires}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.m, key)
	return nil
}

func (m *Memory) Close() error { return nil }
