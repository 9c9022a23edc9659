package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"employee-portal/internal/auth/authtest"
	"employee-portal/internal/config"
	"employee-portal/internal/guard"
	"employee-portal/internal/logging"
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:         "development",
		Routes:         guard.DefaultRoutes(),
		SessionCookie:  "jwt",
		SessionTTLDays: 7,
	}
}

func newRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Session(cfg, logging.Discard()), Guard(cfg.Routes))
	ok := func(c *gin.Context) { c.String(http.StatusOK, "rendered "+c.Request.URL.Path) }
	r.GET("/", ok)
	r.GET("/login", ok)
	r.GET("/employee/:id", ok)
	r.GET("/api/v1/ping", ok)
	r.POST("/login", func(c *gin.Context) {
		if err := SessionFrom(c).Login(c.PostForm("token")); err != nil {
			c.String(http.StatusBadGateway, err.Error())
			return
		}
		c.Status(http.StatusNoContent)
	})
	return r
}

func serve(r http.Handler, method, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGuard_Edge(t *testing.T) {
	r := newRouter(testConfig())
	valid := &http.Cookie{Name: "jwt", Value: authtest.Token(t, "jdoe", "")}

	tests := []struct {
		name       string
		path       string
		cookies    []*http.Cookie
		wantStatus int
		wantLoc    string
	}{
		{"no cookie protected page", "/employee/42", nil, http.StatusTemporaryRedirect, "/login"},
		{"no cookie landing", "/", nil, http.StatusTemporaryRedirect, "/login"},
		{"no cookie login page", "/login", nil, http.StatusOK, ""},
		{"cookie at login", "/login", []*http.Cookie{valid}, http.StatusTemporaryRedirect, "/"},
		{"cookie protected page", "/employee/42", []*http.Cookie{valid}, http.StatusOK, ""},
		{"wrong cookie name", "/employee/42", []*http.Cookie{{Name: "session", Value: valid.Value}}, http.StatusTemporaryRedirect, "/login"},
		{"api skipped", "/api/v1/ping", nil, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, http.MethodGet, tt.path, tt.cookies...)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", w.Code, tt.wantStatus, w.Body.String())
			}
			if got := w.Header().Get("Location"); got != tt.wantLoc {
				t.Errorf("Location = %q, want %q", got, tt.wantLoc)
			}
			if tt.wantStatus == http.StatusTemporaryRedirect && strings.Contains(w.Body.String(), "rendered") {
				t.Error("handler ran despite redirect")
			}
		})
	}
}

func TestGuard_NonGetRedirectsWithSeeOther(t *testing.T) {
	r := newRouter(testConfig())
	r.POST("/employee/:id", func(c *gin.Context) { c.String(http.StatusOK, "rendered") })
	valid := &http.Cookie{Name: "jwt", Value: authtest.Token(t, "jdoe", "")}

	tests := []struct {
		name       string
		method     string
		path       string
		cookies    []*http.Cookie
		wantStatus int
		wantLoc    string
	}{
		{"post protected anonymous", http.MethodPost, "/employee/1", nil, http.StatusSeeOther, "/login"},
		{"post login authenticated", http.MethodPost, "/login", []*http.Cookie{valid}, http.StatusSeeOther, "/"},
		{"head protected anonymous", http.MethodHead, "/employee/1", nil, http.StatusTemporaryRedirect, "/login"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, tt.method, tt.path, tt.cookies...)
			if w.Code != tt.wantStatus || w.Header().Get("Location") != tt.wantLoc {
				t.Fatalf("got %d Location=%q, want %d %q", w.Code, w.Header().Get("Location"), tt.wantStatus, tt.wantLoc)
			}
		})
	}
}

func TestGuard_CorruptCookieIsCleared(t *testing.T) {
	r := newRouter(testConfig())
	w := serve(r, http.MethodGet, "/employee/1", &http.Cookie{Name: "jwt", Value: "garbage"})

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", w.Code)
	}
	sc := w.Header().Get("Set-Cookie")
	if !strings.HasPrefix(sc, "jwt=; expires=Thu, 01 Jan 1970 00:00:00 GMT; path=/") {
		t.Errorf("Set-Cookie = %q, want the removal line", sc)
	}
}

func TestSession_LoginSetsCookie(t *testing.T) {
	cfg := testConfig()
	cfg.AppEnv = "production"
	r := newRouter(cfg)

	tok := authtest.Token(t, "jdoe", "")
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("token="+tok))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}
	sc := w.Header().Get("Set-Cookie")
	for _, want := range []string{"jwt=" + tok, "path=/", "HttpOnly", "SameSite=Lax", "Secure"} {
		if !strings.Contains(sc, want) {
			t.Errorf("Set-Cookie %q missing %q", sc, want)
		}
	}
}

func TestRequestID(t *testing.T) {
	r := newRouter(testConfig())

	w := serve(r, http.MethodGet, "/login")
	if _, err := uuid.Parse(w.Header().Get("X-Request-ID")); err != nil {
		t.Fatalf("X-Request-ID = %q, want a uuid", w.Header().Get("X-Request-ID"))
	}

	in := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("X-Request-ID", in)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != in {
		t.Errorf("incoming id not reused: %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("X-Request-ID", "<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got == "<script>" {
		t.Error("malformed incoming id was echoed")
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestID(), RequestLogger(logging.NewLoggerWithWriter(0, "text", &buf)))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/healthz")
	for _, want := range []string{"path=/healthz", "status=200", "request_id="} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log %q missing %q", buf.String(), want)
		}
	}
}

func TestDevCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name      string
		env       string
		origin    string
		method    string
		wantAllow string
		wantCode  int
	}{
		{"dev loopback", "development", "http://localhost:5173", http.MethodGet, "http://localhost:5173", http.StatusOK},
		{"dev preflight", "development", "http://127.0.0.1:3000", http.MethodOptions, "http://127.0.0.1:3000", http.StatusNoContent},
		{"dev foreign origin", "development", "https://evil.example.com", http.MethodGet, "", http.StatusOK},
		{"production", "production", "http://localhost:5173", http.MethodGet, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(DevCORS(config.Config{AppEnv: tt.env}))
			r.Handle(tt.method, "/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/x", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
		})
	}
}
