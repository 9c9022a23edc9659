package cookie

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Entry is one stored cookie. A zero Expires marks a session cookie.
type Entry struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

func (e Entry) expired(now time.Time) bool {
	return !e.Expires.IsZero() && !e.Expires.After(now)
}

// MemoryJar is a browser-like cookie jar: it honours expires and max-age,
// drops cookies written with a past expiry, and hides expired ones on read.
// It is not safe for concurrent use.
type MemoryJar struct {
	entries  []Entry
	now      func() time.Time
	disabled bool
}

type JarOption func(*MemoryJar)

func WithJarClock(now func() time.Time) JarOption {
	return func(j *MemoryJar) { j.now = now }
}

func NewMemoryJar(opts ...JarOption) *MemoryJar {
	j := &MemoryJar{now: time.Now}
	for _, o := range opts {
		o(j)
	}
	return j
}

// SetDisabled makes every subsequent Write fail with ErrCookiesDisabled,
// the way a browser with cookies blocked behaves.
func (j *MemoryJar) SetDisabled(disabled bool) { j.disabled = disabled }

func (j *MemoryJar) Header() string {
	now := j.now()
	parts := make([]string, 0, len(j.entries))
	for _, e := range j.entries {
		if e.expired(now) {
			continue
		}
		parts = append(parts, e.Name+"="+e.Value)
	}
	return strings.Join(parts, "; ")
}

func (j *MemoryJar) Write(line string) error {
	if j.disabled {
		return ErrCookiesDisabled
	}
	now := j.now()
	e, err := ParseLine(line, now)
	if err != nil {
		return err
	}
	idx := j.index(e.Name, e.Path)
	if e.expired(now) {
		if idx >= 0 {
			j.entries = append(j.entries[:idx], j.entries[idx+1:]...)
		}
		return nil
	}
	if idx >= 0 {
		j.entries[idx] = e
		return nil
	}
	j.entries = append(j.entries, e)
	return nil
}

// Entries returns a copy of the live (unexpired) cookies.
func (j *MemoryJar) Entries() []Entry {
	now := j.now()
	out := make([]Entry, 0, len(j.entries))
	for _, e := range j.entries {
		if !e.expired(now) {
			out = append(out, e)
		}
	}
	return out
}

// Restore replaces the jar contents; expired entries are discarded.
func (j *MemoryJar) Restore(entries []Entry) {
	now := j.now()
	j.entries = j.entries[:0]
	for _, e := range entries {
		if e.Name == "" || e.expired(now) {
			continue
		}
		if e.Path == "" {
			e.Path = "/"
		}
		j.entries = append(j.entries, e)
	}
}

func (j *MemoryJar) index(name, path string) int {
	for i, e := range j.entries {
		if e.Name == name && e.Path == path {
			return i
		}
	}
	return -1
}

// ParseLine parses a Set-Cookie style line. Max-Age wins over Expires.
func ParseLine(line string, now time.Time) (Entry, error) {
	parts := strings.Split(line, ";")
	name, value, ok := strings.Cut(strings.TrimSpace(parts[0]), "=")
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if !ok || !validName(name) {
		return Entry{}, fmt.Errorf("%w: bad name in %q", ErrInvalidCookie, parts[0])
	}
	if !validValue(value) {
		return Entry{}, fmt.Errorf("%w: bad value for %q", ErrInvalidCookie, name)
	}

	e := Entry{Name: name, Value: value, Path: "/"}
	maxAge, hasMaxAge := 0, false
	for _, attr := range parts[1:] {
		k, v, _ := strings.Cut(strings.TrimSpace(attr), "=")
		v = strings.TrimSpace(v)
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "expires":
			if t, err := parseExpires(v); err == nil {
				e.Expires = t.UTC()
			}
		case "max-age":
			if n, err := strconv.Atoi(v); err == nil {
				maxAge, hasMaxAge = n, true
			}
		case "path":
			if v != "" {
				e.Path = v
			}
		}
	}
	if hasMaxAge {
		if maxAge <= 0 {
			e.Expires = epoch
		} else {
			e.Expires = now.Add(time.Duration(maxAge) * time.Second).UTC()
		}
	}
	return e, nil
}

func parseExpires(v string) (time.Time, error) {
	if t, err := http.ParseTime(v); err == nil {
		return t, nil
	}
	// document.cookie writers commonly emit Date.toUTCString() with a "UTC" zone.
	return time.Parse(time.RFC1123, v)
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c <= 0x20 || c >= 0x7f || strings.IndexByte(`()<>@,;:\"/[]?={}`, c) >= 0 {
			return false
		}
	}
	return true
}

// validValue accepts RFC 6265 cookie-octets only.
func validValue(v string) bool {
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c < 0x21 || c > 0x7e || c == '"' || c == ',' || c == ';' || c == '\\' {
			return false
		}
	}
	return true
}

// RequestJar is the jar of a single HTTP exchange. Reads see the request's
// cookies plus anything written during the exchange; writes are emitted as
// Set-Cookie response headers.
type RequestJar struct {
	mem *MemoryJar
	w   http.ResponseWriter
}

func NewRequestJar(r *http.Request, w http.ResponseWriter) *RequestJar {
	mem := NewMemoryJar()
	for _, c := range r.Cookies() {
		mem.entries = append(mem.entries, Entry{Name: c.Name, Value: c.Value, Path: "/"})
	}
	return &RequestJar{mem: mem, w: w}
}

func (j *RequestJar) Header() string { return j.mem.Header() }

func (j *RequestJar) Write(line string) error {
	if err := j.mem.Write(line); err != nil {
		return err
	}
	if j.w != nil {
		j.w.Header().Add("Set-Cookie", line)
	}
	return nil
}
