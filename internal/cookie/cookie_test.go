package cookie

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newTestStore(opts ...Option) (*Store, *MemoryJar) {
	jar := NewMemoryJar(WithJarClock(clock))
	return NewStore(jar, append([]Option{WithClock(clock)}, opts...)...), jar
}

func TestStore_SetGetRoundTrip(t *testing.T) {
	s, _ := newTestStore()
	if err := s.Set("jwt", "abc123", 7); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := s.Get("jwt")
	if !ok || got != "abc123" {
		t.Fatalf("Get(jwt) = %q, %v; want abc123, true", got, ok)
	}
}

func TestStore_SetWireFormat(t *testing.T) {
	rec := &recordingJar{}
	s := NewStore(rec, WithClock(clock))
	if err := s.Set("jwt", "abc123", 7); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	want := "jwt=abc123; expires=Fri, 08 Mar 2024 12:00:00 GMT; path=/"
	if rec.lines[0] != want {
		t.Errorf("line = %q, want %q", rec.lines[0], want)
	}

	if err := s.Remove("jwt"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	want = "jwt=; expires=Thu, 01 Jan 1970 00:00:00 GMT; path=/"
	if rec.lines[1] != want {
		t.Errorf("line = %q, want %q", rec.lines[1], want)
	}
}

func TestStore_ExtraAttributes(t *testing.T) {
	rec := &recordingJar{}
	s := NewStore(rec, WithClock(clock), WithAttributes("SameSite=Lax", " ", "Secure"))
	_ = s.Set("jwt", "v", 1)
	if !strings.HasSuffix(rec.lines[0], "; path=/; SameSite=Lax; Secure") {
		t.Errorf("unexpected line %q", rec.lines[0])
	}
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	s, jar := newTestStore()
	_ = s.Set("jwt", "abc", 7)
	for i := 0; i < 2; i++ {
		if err := s.Remove("jwt"); err != nil {
			t.Fatalf("Remove #%d failed: %v", i+1, err)
		}
		if _, ok := s.Get("jwt"); ok {
			t.Fatalf("cookie still present after Remove #%d", i+1)
		}
	}
	if got := jar.Header(); got != "" {
		t.Errorf("Header() = %q, want empty", got)
	}
}

func TestStore_RemoveAbsentCookie(t *testing.T) {
	s, _ := newTestStore()
	if err := s.Remove("never-set"); err != nil {
		t.Fatalf("Remove of absent cookie failed: %v", err)
	}
}

func TestStore_SetDisabledJar(t *testing.T) {
	s, jar := newTestStore()
	jar.SetDisabled(true)
	err := s.Set("jwt", "abc", 7)
	if !errors.Is(err, ErrWriteFailed) || !errors.Is(err, ErrCookiesDisabled) {
		t.Fatalf("expected ErrWriteFailed wrapping ErrCookiesDisabled, got %v", err)
	}
}

func TestStore_SetInvalidValueDoesNotPanic(t *testing.T) {
	s, _ := newTestStore()
	for _, v := range []string{"has space", "a,b", `quote"`, `back\slash`, "ünïcode"} {
		if err := s.Set("jwt", v, 7); !errors.Is(err, ErrInvalidCookie) {
			t.Errorf("Set(%q) err = %v, want ErrInvalidCookie", v, err)
		}
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name   string
		header string
		key    string
		want   string
		wantOK bool
	}{
		{"single", "jwt=abc", "jwt", "abc", true},
		{"spaces", "  a=1 ;  jwt=abc  ; b=2", "jwt", "abc", true},
		{"first wins", "jwt=first; jwt=second", "jwt", "first", true},
		{"value with equals", "jwt=a=b", "jwt", "a=b", true},
		{"empty value", "jwt=", "jwt", "", true},
		{"wrong name", "session=abc", "jwt", "", false},
		{"prefix is not a match", "jwtx=abc", "jwt", "", false},
		{"empty header", "", "jwt", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lookup(tt.header, tt.key)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Lookup(%q, %q) = %q, %v; want %q, %v", tt.header, tt.key, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMemoryJar_Expiry(t *testing.T) {
	now := fixedNow
	jar := NewMemoryJar(WithJarClock(func() time.Time { return now }))
	s := NewStore(jar, WithClock(func() time.Time { return now }))
	_ = s.Set("jwt", "abc", 7)

	now = fixedNow.Add(7*24*time.Hour - time.Second)
	if _, ok := s.Get("jwt"); !ok {
		t.Fatal("cookie expired early")
	}
	now = fixedNow.Add(7 * 24 * time.Hour)
	if _, ok := s.Get("jwt"); ok {
		t.Fatal("cookie visible after expiry")
	}
	if n := len(jar.Entries()); n != 0 {
		t.Errorf("Entries() has %d live entries, want 0", n)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantExpires time.Time
		wantErr     bool
	}{
		{"session cookie", "a=1", time.Time{}, false},
		{"http date", "a=1; expires=Fri, 08 Mar 2024 12:00:00 GMT", time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC), false},
		{"utc suffix", "a=1; expires=Thu, 01 Jan 1970 00:00:00 UTC; path=/;", epoch, false},
		{"max-age wins", "a=1; max-age=60; expires=Thu, 01 Jan 1970 00:00:00 GMT", fixedNow.Add(time.Minute), false},
		{"max-age zero", "a=1; max-age=0", epoch, false},
		{"missing equals", "garbage", time.Time{}, true},
		{"empty name", "=1", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := ParseLine(tt.line, fixedNow)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCookie) {
					t.Fatalf("expected ErrInvalidCookie, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLine failed: %v", err)
			}
			if !e.Expires.Equal(tt.wantExpires) {
				t.Errorf("Expires = %v, want %v", e.Expires, tt.wantExpires)
			}
		})
	}
}

func TestMemoryJar_Restore(t *testing.T) {
	jar := NewMemoryJar(WithJarClock(clock))
	jar.Restore([]Entry{
		{Name: "jwt", Value: "abc", Expires: fixedNow.Add(time.Hour)},
		{Name: "old", Value: "x", Expires: fixedNow.Add(-time.Hour)},
		{Name: "", Value: "skip"},
	})
	if got := jar.Header(); got != "jwt=abc" {
		t.Errorf("Header() = %q, want %q", got, "jwt=abc")
	}
}

func TestRequestJar(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "from-request"})
	w := httptest.NewRecorder()

	s := NewStore(NewRequestJar(req, w))
	if v, _ := s.Get("jwt"); v != "from-request" {
		t.Fatalf("Get = %q, want from-request", v)
	}
	if err := s.Remove("jwt"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok := s.Get("jwt"); ok {
		t.Error("removed cookie still visible within the same request")
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "jwt" || cookies[0].Value != "" {
		t.Fatalf("unexpected Set-Cookie headers: %v", w.Header().Values("Set-Cookie"))
	}
	if !cookies[0].Expires.Equal(epoch) {
		t.Errorf("Expires = %v, want epoch", cookies[0].Expires)
	}
}

type recordingJar struct {
	lines []string
}

func (r *recordingJar) Header() string { return "" }

func (r *recordingJar) Write(line string) error {
	r.lines = append(r.lines, line)
	return nil
}
