package jarstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"employee-portal/internal/cookie"
)

const defaultTimeout = 5 * time.Second

// PersistentJar is a cookie.MemoryJar whose persistent cookies are written
// through to a Backend after every change. Session cookies (no expiry)
// live in memory only, as they would in a browser.
type PersistentJar struct {
	mem     *cookie.MemoryJar
	backend Backend
	key     string
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*PersistentJar)

func WithTimeout(d time.Duration) Option {
	return func(j *PersistentJar) {
		if d > 0 {
			j.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(j *PersistentJar) {
		if l != nil {
			j.logger = l
		}
	}
}

// WithMemoryJar supplies the in-memory jar, e.g. one with a fake clock.
func WithMemoryJar(m *cookie.MemoryJar) Option {
	return func(j *PersistentJar) {
		if m != nil {
			j.mem = m
		}
	}
}

// Load restores the jar saved under key. A missing jar starts empty; a jar
// that cannot be decoded is deleted and also starts empty.
func Load(ctx context.Context, backend Backend, key string, opts ...Option) (*PersistentJar, error) {
	j := &PersistentJar{
		mem:     cookie.NewMemoryJar(),
		backend: backend,
		key:     key,
		timeout: defaultTimeout,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(j)
	}

	data, err := backend.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return j, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []cookie.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		j.logger.Warn("discarding corrupt cookie jar", "key", key, "error", err)
		if err := backend.Delete(ctx, key); err != nil {
			return nil, err
		}
		return j, nil
	}
	j.mem.Restore(entries)
	return j, nil
}

func (j *PersistentJar) Header() string { return j.mem.Header() }

// Write applies line in memory and then persists the jar. A persistence
// failure is returned even though the in-memory jar already changed.
func (j *PersistentJar) Write(line string) error {
	if err := j.mem.Write(line); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	return j.Flush(ctx)
}

// Flush persists the current persistent cookies.
func (j *PersistentJar) Flush(ctx context.Context) error {
	var (
		keep    []cookie.Entry
		expires time.Time
	)
	for _, e := range j.mem.Entries() {
		if e.Expires.IsZero() {
			continue
		}
		keep = append(keep, e)
		if e.Expires.After(expires) {
			expires = e.Expires
		}
	}
	if len(keep) == 0 {
		return j.backend.Delete(ctx, j.key)
	}
	data, err := json.Marshal(keep)
	if err != nil {
		return fmt.Errorf("encode cookie jar: %w", err)
	}
	return j.backend.Save(ctx, j.key, data, expires)
}
