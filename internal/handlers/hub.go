package handlers

import (
	ws "employee-portal/pkg/websocket"
)

// hubProvider is set by main at startup so HTTP handlers can push session
// events.
var hubProvider func() (*ws.Hub, bool)

func SetHubProvider(p func() (*ws.Hub, bool)) {
	hubProvider = p
}
