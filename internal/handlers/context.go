package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"employee-portal/internal/guard"
	"employee-portal/internal/middleware"
	"employee-portal/internal/session"
	ws "employee-portal/pkg/websocket"
)

// logger is set by main at startup.
var logger = slog.Default()

func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// sessionRoom is the websocket room shared by every page holding token.
// The token itself never leaves the process.
func sessionRoom(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:16])
}

// endSession logs st out and tells the session's other pages.
func endSession(c *gin.Context, st *session.State, routes guard.Routes) {
	token, had := st.Token()
	if err := st.Logout(); err != nil {
		logger.Warn("session cookie not cleared", "request_id", middleware.RequestIDFrom(c), "error", err)
	}
	if !had {
		return
	}
	hub, ok := currentHub()
	if !ok {
		return
	}
	hub.EndSession(sessionRoom(token), "session_ended", gin.H{"redirect": routes.LoginPath})
}

func currentHub() (*ws.Hub, bool) {
	if hubProvider == nil {
		return nil, false
	}
	return hubProvider()
}

// wantsJSON is true for fetch/XHR style clients that cannot follow a
// redirect into a page.
func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json") ||
		c.ContentType() == gin.MIMEJSON
}

// respondRedirect sends a 303 to browsers and {"redirect": target} to JSON
// clients.
func respondRedirect(c *gin.Context, status int, target string, body gin.H) {
	if wantsJSON(c) {
		if body == nil {
			body = gin.H{}
		}
		body["redirect"] = target
		code := http.StatusOK
		if _, isErr := body["error"]; isErr {
			code = http.StatusUnauthorized
		}
		c.JSON(code, body)
		return
	}
	c.Redirect(status, target)
}
