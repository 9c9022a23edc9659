package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"employee-portal/internal/config"
	"employee-portal/internal/guard"
	"employee-portal/internal/middleware"
	ws "employee-portal/pkg/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			// Non-browser clients (no Origin) are allowed.
			return true
		}
		if sameHost(origin, r.Host) {
			return true
		}
		if cfgIsDev() {
			return isLocalhostOrigin(origin) || isAllowedOrigin(origin)
		}
		return isAllowedOrigin(origin)
	},
}

// set by config at startup
var originMu sync.RWMutex
var allowedOrigins = map[string]bool{}
var devMode = false

func SetWebSocketOriginPolicy(isDev bool, origins []string) {
	originMu.Lock()
	defer originMu.Unlock()
	devMode = isDev
	allowedOrigins = map[string]bool{}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			allowedOrigins[o] = true
		}
	}
}

func cfgIsDev() bool {
	originMu.RLock()
	defer originMu.RUnlock()
	return devMode
}

func isAllowedOrigin(origin string) bool {
	originMu.RLock()
	defer originMu.RUnlock()
	return allowedOrigins[origin]
}

func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	return err == nil && host != "" && strings.EqualFold(u.Host, host)
}

// SessionEventsHandler upgrades a page's connection and joins it to its
// session's room. The page learns about a logout elsewhere through
// session_ended and can ask the guard where a navigation would land.
func SessionEventsHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := middleware.SessionFrom(c)
		authed := st.IsAuthenticated()
		room := ws.AnonymousRoom
		if tok, ok := st.Token(); ok {
			room = sessionRoom(tok)
		}
		var username string
		if id, ok := st.Identity(); ok {
			username = id.Username
		}

		// Preconditions before attempting the upgrade so we can return HTTP errors normally.
		hub, ok := currentHub()
		if !ok || hub == nil {
			logger.Error("SessionEventsHandler: no hub", "request_id", middleware.RequestIDFrom(c))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed",
				"remote", c.ClientIP(), "origin", c.Request.Header.Get("Origin"), "error", err)
			return
		}

		client := ws.NewClient(conn, hub, room, username, authed)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump(func(msg []byte) {
			handleWSMessage(client, cfg.Routes, msg)
		})

		sendDirect(client, "connected", gin.H{
			"isAuthenticated": authed,
			"username":        username,
		})
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type navigateResult struct {
	Path     string `json:"path"`
	Redirect bool   `json:"redirect"`
	Target   string `json:"target,omitempty"`
}

func handleWSMessage(client *ws.Client, routes guard.Routes, msg []byte) {
	var in inboundMessage
	if err := json.Unmarshal(msg, &in); err != nil {
		sendDirect(client, "error", gin.H{"error": "invalid json"})
		return
	}

	switch in.Type {
	case "navigate":
		var p struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(in.Payload, &p); err != nil || !strings.HasPrefix(p.Path, "/") {
			sendDirect(client, "error", gin.H{"error": "invalid path"})
			return
		}
		target, redirect := guard.Decide(client.Authenticated.Load(), p.Path, routes)
		sendDirect(client, "navigate_result", navigateResult{Path: p.Path, Redirect: redirect, Target: target})
	case "ping":
		sendDirect(client, "pong", nil)
	default:
		sendDirect(client, "error", gin.H{"error": "unknown message type"})
	}
}

func sendDirect(c *ws.Client, typ string, payload any) {
	b, err := ws.Encode(typ, payload)
	if err != nil {
		logger.Error("ws encode failed", "type", typ, "error", err)
		return
	}
	if !c.Enqueue(b) {
		logger.Debug("ws send drop", "user", c.Username, "type", typ)
	}
}
