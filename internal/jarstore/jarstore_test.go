package jarstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"employee-portal/internal/auth"
	"employee-portal/internal/auth/authtest"
	"employee-portal/internal/cookie"
	"employee-portal/internal/session"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSQLiteBackend(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "jar.db"), quietLogger())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newRedisBackend(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return NewRedis(rdb, ""), mr
}

func allBackends(t *testing.T) map[string]Backend {
	r, _ := newRedisBackend(t)
	return map[string]Backend{
		"memory": NewMemory(),
		"sqlite": newSQLiteBackend(t),
		"redis":  r,
	}
}

func newState(t *testing.T, b Backend) *session.State {
	t.Helper()
	jar, err := Load(context.Background(), b, auth.PersistKey, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("load jar: %v", err)
	}
	return session.New(cookie.NewStore(jar), session.WithLogger(quietLogger()))
}

func TestSessionSurvivesReload(t *testing.T) {
	for name, b := range allBackends(t) {
		t.Run(name, func(t *testing.T) {
			tok := authtest.Token(t, "jdoe", "jdoe@example.com")
			if err := newState(t, b).Login(tok); err != nil {
				t.Fatalf("Login failed: %v", err)
			}

			reloaded := newState(t, b)
			if !reloaded.IsAuthenticated() {
				t.Fatal("session lost across reload")
			}
			if got, _ := reloaded.Token(); got != tok {
				t.Errorf("token = %q, want %q", got, tok)
			}
		})
	}
}

func TestLogoutSurvivesReload(t *testing.T) {
	for name, b := range allBackends(t) {
		t.Run(name, func(t *testing.T) {
			s := newState(t, b)
			_ = s.Login(authtest.Token(t, "jdoe", ""))
			if err := s.Logout(); err != nil {
				t.Fatalf("Logout failed: %v", err)
			}

			if newState(t, b).IsAuthenticated() {
				t.Fatal("logged-out session came back after reload")
			}
			if _, err := b.Load(context.Background(), auth.PersistKey); !errors.Is(err, ErrNotFound) {
				t.Errorf("empty jar should be deleted, Load err = %v", err)
			}
		})
	}
}

// deleteFails is a working store whose Delete always fails.
type deleteFails struct{ Backend }

func (deleteFails) Delete(context.Context, string) error { return ErrUnavailable }

func TestLogout_ReportsUnpersistedRemoval(t *testing.T) {
	b := deleteFails{NewMemory()}
	s := newState(t, b)
	if err := s.Login(authtest.Token(t, "jdoe", "")); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	err := s.Logout()
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, cookie.ErrWriteFailed) {
		t.Fatalf("Logout err = %v, want ErrWriteFailed wrapping ErrUnavailable", err)
	}
	if s.IsAuthenticated() {
		t.Error("session still authenticated in process after Logout")
	}
	// The stored jar was not cleared; the error above is the only signal.
	if !newState(t, b).IsAuthenticated() {
		t.Error("expected the unremoved jar to restore the session")
	}
}

func TestLoad_CorruptJarResets(t *testing.T) {
	for name, b := range allBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := b.Save(ctx, auth.PersistKey, []byte("{not json"), time.Time{}); err != nil {
				t.Fatalf("seed: %v", err)
			}
			jar, err := Load(ctx, b, auth.PersistKey, WithLogger(quietLogger()))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if jar.Header() != "" {
				t.Errorf("corrupt jar restored cookies: %q", jar.Header())
			}
			if _, err := b.Load(ctx, auth.PersistKey); !errors.Is(err, ErrNotFound) {
				t.Errorf("corrupt jar not deleted, Load err = %v", err)
			}
		})
	}
}

func TestPersistentJar_SkipsSessionCookies(t *testing.T) {
	b := NewMemory()
	ctx := context.Background()
	jar, err := Load(ctx, b, "k")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := jar.Write("theme=dark; path=/"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := b.Load(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("session-only jar should not be persisted, Load err = %v", err)
	}

	if err := jar.Write("jwt=abc; max-age=3600; path=/"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	restored, err := Load(ctx, b, "k")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got := restored.Header(); got != "jwt=abc" {
		t.Errorf("restored Header() = %q, want %q", got, "jwt=abc")
	}
}

func TestPersistentJar_BackendFailureSurfaces(t *testing.T) {
	jar, err := Load(context.Background(), failingBackend{}, "k")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	s := cookie.NewStore(jar)
	if err := s.Set("jwt", "abc", 7); !errors.Is(err, cookie.ErrWriteFailed) || !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Set err = %v, want ErrWriteFailed wrapping ErrUnavailable", err)
	}
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	_ = m.Save(ctx, "k", []byte("v"), now.Add(time.Hour))
	if _, err := m.Load(ctx, "k"); err != nil {
		t.Fatalf("Load before expiry: %v", err)
	}
	now = now.Add(2 * time.Hour)
	if _, err := m.Load(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load after expiry err = %v, want ErrNotFound", err)
	}
}

func TestSQLite_Expiry(t *testing.T) {
	s := newSQLiteBackend(t)
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Save(ctx, "k", []byte("v"), now.Add(time.Hour)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got, err := s.Load(ctx, "k"); err != nil || string(got) != "v" {
		t.Fatalf("Load = %q, %v", got, err)
	}
	now = now.Add(2 * time.Hour)
	if _, err := s.Load(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load after expiry err = %v, want ErrNotFound", err)
	}
}

func TestRedis_TTLFollowsCookieExpiry(t *testing.T) {
	r, mr := newRedisBackend(t)
	ctx := context.Background()

	if err := r.Save(ctx, auth.PersistKey, []byte("[]"), time.Now().Add(7*24*time.Hour)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if ttl := mr.TTL(defaultRedisPrefix + ":" + auth.PersistKey); ttl <= 0 {
		t.Fatalf("expected a TTL on the jar key, got %v", ttl)
	}
	mr.FastForward(8 * 24 * time.Hour)
	if _, err := r.Load(ctx, auth.PersistKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load after TTL err = %v, want ErrNotFound", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	if b, err := Open(ctx, Config{Kind: "memory"}, nil); err != nil {
		t.Fatalf("memory: %v", err)
	} else {
		_ = b.Close()
	}
	if _, err := Open(ctx, Config{Kind: "etcd"}, nil); err == nil {
		t.Error("unknown kind must fail")
	}
	if _, err := Open(ctx, Config{Kind: "redis"}, nil); !errors.Is(err, ErrUnavailable) {
		t.Errorf("redis without address err = %v, want ErrUnavailable", err)
	}
}

type failingBackend struct{}

func (failingBackend) Load(context.Context, string) ([]byte, error) { return nil, ErrNotFound }
func (failingBackend) Save(context.Context, string, []byte, time.Time) error {
	return ErrUnavailable
}
func (failingBackend) Delete(context.Context, string) error { return ErrUnavailable }
func (failingBackend) Close() error                         { return nil }
