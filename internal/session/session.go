// Package session holds the client's belief about who is logged in.
//
// The cookie jar is the single source of truth: a State never caches an
// "authenticated" flag of its own, it asks the jar for the token cookie on
// every read. The one exception is the degraded mode entered when the jar
// refuses a write during Login; the token is then kept in memory only and is
// lost with the State.
//
// A State is not safe for concurrent use. The edge layer builds one per
// request, and the console builds one per process.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"employee-portal/internal/auth"
	"employee-portal/internal/cookie"
)

var (
	// ErrEmptyToken is returned by Login for a blank token.
	ErrEmptyToken = errors.New("empty token")
	// ErrMalformedCredential is returned by Login when the token cannot be
	// decoded; the session is left untouched.
	ErrMalformedCredential = errors.New("malformed credential")
)

// State is a session bound to one cookie jar.
type State struct {
	cookies *cookie.Store
	name    string
	ttlDays int
	logger  *slog.Logger

	// opaque disables claim decoding: any non-empty token is accepted and
	// Identity reports nothing.
	opaque bool

	// memToken is set only after the jar refused a Login write; it shadows
	// whatever the jar still holds until the next Login or Logout.
	memToken string

	// revoked is a cookie value the jar refused to remove. It no longer
	// authenticates, even though the jar still reports it.
	revoked string

	listeners map[int]func(bool)
	nextID    int
}

type Option func(*State)

func WithCookieName(name string) Option {
	return func(s *State) {
		if name = strings.TrimSpace(name); name != "" {
			s.name = name
		}
	}
}

func WithTTLDays(days int) Option {
	return func(s *State) {
		if days > 0 {
			s.ttlDays = days
		}
	}
}

// WithOpaqueTokens accepts tokens that are not JWTs. Login then skips the
// decode step and Identity always reports false.
func WithOpaqueTokens() Option {
	return func(s *State) { s.opaque = true }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *State) {
		if l != nil {
			s.logger = l
		}
	}
}

// New loads a State from the jar behind cookies. A token cookie that cannot
// be decoded is treated as corrupt persisted state: it is removed and the
// session starts logged out.
func New(cookies *cookie.Store, opts ...Option) *State {
	s := &State{
		cookies:   cookies,
		name:      auth.CookieName,
		ttlDays:   auth.CookieTTLDays,
		logger:    slog.Default(),
		listeners: map[int]func(bool){},
	}
	for _, o := range opts {
		o(s)
	}

	if tok, ok := s.cookieToken(); ok && !s.opaque {
		if _, err := auth.DecodeUnverified(tok); err != nil {
			s.logger.Warn("discarding corrupt session cookie", "cookie", s.name, "error", err)
			if err := s.cookies.Remove(s.name); err != nil {
				s.logger.Warn("remove corrupt session cookie failed", "cookie", s.name, "error", err)
				s.revoked = tok
			}
		}
	}
	return s
}

// Login records token as the current credential and mirrors it into the
// token cookie. The token is decoded (never verified) first so that a value
// the client cannot interpret is never stored.
func (s *State) Login(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	if !s.opaque {
		if _, err := auth.DecodeUnverified(token); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedCredential, err)
		}
	}

	was := s.IsAuthenticated()
	s.revoked = ""
	if err := s.cookies.Set(s.name, token, s.ttlDays); err != nil {
		s.logger.Warn("session cookie not persisted; keeping session in memory", "cookie", s.name, "error", err)
		s.memToken = token
	} else {
		s.memToken = ""
	}
	s.notify(was)
	return nil
}

// Logout forgets the credential and removes the token cookie. Calling it
// while logged out changes nothing.
//
// The session reads as logged out afterwards even if the jar refuses the
// removal. The error is still returned in that case when a cookie was
// present, since the jar may hand it back after a reload.
func (s *State) Logout() error {
	was := s.IsAuthenticated()
	s.memToken = ""
	stale, hadCookie := s.cookieToken()

	var err error
	if rerr := s.cookies.Remove(s.name); rerr != nil {
		s.logger.Warn("remove session cookie failed", "cookie", s.name, "error", rerr)
		if hadCookie {
			s.revoked = stale
			err = fmt.Errorf("logout: %w", rerr)
		}
	}
	s.notify(was)
	return err
}

// Token returns the current credential.
func (s *State) Token() (string, bool) {
	if s.memToken != "" {
		return s.memToken, true
	}
	return s.cookieToken()
}

func (s *State) IsAuthenticated() bool {
	_, ok := s.Token()
	return ok
}

// Degraded reports whether the session lives in memory only because the
// jar refused the last Login write.
func (s *State) Degraded() bool {
	return s.memToken != ""
}

// Identity decodes display fields from the current token. See
// auth.DecodeUnverified for why these must not be trusted.
func (s *State) Identity() (auth.Identity, bool) {
	tok, ok := s.Token()
	if !ok || s.opaque {
		return auth.Identity{}, false
	}
	claims, err := auth.DecodeUnverified(tok)
	if err != nil {
		return auth.Identity{}, false
	}
	return claims.Identity(), true
}

// Snapshot is the JSON view of a State.
type Snapshot struct {
	Authenticated bool   `json:"isAuthenticated"`
	Username      string `json:"username,omitempty"`
	Email         string `json:"email,omitempty"`
}

func (s *State) Snapshot() Snapshot {
	id, ok := s.Identity()
	if !ok {
		return Snapshot{Authenticated: s.IsAuthenticated()}
	}
	return Snapshot{Authenticated: true, Username: id.Username, Email: id.Email}
}

// Subscribe registers fn to run, synchronously, whenever Login or Logout
// changes whether the session is authenticated.
func (s *State) Subscribe(fn func(authenticated bool)) (cancel func()) {
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}

func (s *State) notify(was bool) {
	now := s.IsAuthenticated()
	if now == was {
		return
	}
	for _, fn := range s.listeners {
		fn(now)
	}
}

func (s *State) cookieToken() (string, bool) {
	v, ok := s.cookies.Get(s.name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	if s.revoked != "" && v == s.revoked {
		return "", false
	}
	return v, true
}
