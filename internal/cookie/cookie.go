// Package cookie reads and writes named cookies through a Jar.
//
// A Jar models the browser's document.cookie: reading it yields the
// "a=1; b=2" header form, and writing it takes one Set-Cookie style line.
// The same Store works against a browser-like in-memory jar, a jar bound to a
// single HTTP request, or a jar persisted to durable storage.
package cookie

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrWriteFailed wraps any failure of the underlying jar to accept a write.
	ErrWriteFailed = errors.New("cookie write failed")
	// ErrCookiesDisabled is returned by jars that refuse all writes.
	ErrCookiesDisabled = errors.New("cookies disabled")
	// ErrInvalidCookie is returned when a line cannot be stored as a cookie.
	ErrInvalidCookie = errors.New("invalid cookie")
)

// epoch is the expiry written by Remove.
var epoch = time.Unix(0, 0).UTC()

const secondsPerDay = 24 * 60 * 60

// Jar is the raw cookie storage a Store operates on.
type Jar interface {
	// Header returns the cookies visible to the current page as "a=1; b=2".
	Header() string
	// Write stores one "name=value; attr; attr" line.
	Write(line string) error
}

// Store is the named-cookie API on top of a Jar.
type Store struct {
	jar   Jar
	now   func() time.Time
	attrs []string
}

type Option func(*Store)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithAttributes appends extra attributes (e.g. "SameSite=Lax", "Secure")
// to every line written by Set and Remove.
func WithAttributes(attrs ...string) Option {
	return func(s *Store) {
		for _, a := range attrs {
			if a = strings.TrimSpace(a); a != "" {
				s.attrs = append(s.attrs, a)
			}
		}
	}
}

func NewStore(jar Jar, opts ...Option) *Store {
	s := &Store{jar: jar, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Jar returns the jar the store writes to.
func (s *Store) Jar() Jar { return s.jar }

// Set writes name=value with an expiry ttlDays from now and path "/".
func (s *Store) Set(name, value string, ttlDays int) error {
	expires := s.now().Add(time.Duration(ttlDays) * secondsPerDay * time.Second)
	if err := s.jar.Write(s.line(name, value, expires)); err != nil {
		return fmt.Errorf("%w: set %q: %w", ErrWriteFailed, name, err)
	}
	return nil
}

// Remove overwrites name with an empty value that expired at the epoch.
// Removing a cookie that is not present is not an error.
func (s *Store) Remove(name string) error {
	if err := s.jar.Write(s.line(name, "", epoch)); err != nil {
		return fmt.Errorf("%w: remove %q: %w", ErrWriteFailed, name, err)
	}
	return nil
}

// Get returns the value of the first cookie called name.
func (s *Store) Get(name string) (string, bool) {
	return Lookup(s.jar.Header(), name)
}

func (s *Store) line(name, value string, expires time.Time) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(value)
	b.WriteString("; expires=")
	b.WriteString(expires.UTC().Format(http.TimeFormat))
	b.WriteString("; path=/")
	for _, a := range s.attrs {
		b.WriteString("; ")
		b.WriteString(a)
	}
	return b.String()
}

// Lookup finds name in a Cookie header. Pairs are split on ';', trimmed,
// and split on the first '='; the first matching pair wins.
func Lookup(header, name string) (string, bool) {
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		if strings.TrimSpace(k) == name {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}
