package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"employee-portal/internal/config"
	"employee-portal/internal/cookie"
	"employee-portal/internal/session"
)

const sessionKey = "session"

// Session attaches a session.State built over the request's own cookie
// jar. Nothing is shared between requests: the jwt cookie the browser sent
// is the whole session, and any Login/Logout in a handler becomes a
// Set-Cookie on the response.
func Session(cfg config.Config, logger *slog.Logger) gin.HandlerFunc {
	attrs := []string{"HttpOnly", "SameSite=Lax"}
	if cfg.IsProduction() {
		attrs = append(attrs, "Secure")
	}
	return func(c *gin.Context) {
		jar := cookie.NewRequestJar(c.Request, c.Writer)
		st := session.New(
			cookie.NewStore(jar, cookie.WithAttributes(attrs...)),
			session.WithCookieName(cfg.SessionCookie),
			session.WithTTLDays(cfg.SessionTTLDays),
			session.WithLogger(logger.With("request_id", RequestIDFrom(c))),
		)
		c.Set(sessionKey, st)
		c.Next()
	}
}

// SessionFrom returns the request's session. It panics if Session did not
// run, which is a routing bug.
func SessionFrom(c *gin.Context) *session.State {
	return c.MustGet(sessionKey).(*session.State)
}
