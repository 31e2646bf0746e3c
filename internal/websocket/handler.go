package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs registers a client for the session and pumps until the peer goes
// away. onClose, when set, runs as soon as the connection stops reading.
func ServeWs(hub *Hub, conn *websocket.Conn, referenceID, sessionID string, onMessage MessageHandler, onClose func()) {
	client := NewClient(hub, conn, referenceID, sessionID, onMessage)
	client.onClose = onClose
	hub.Register(client)

	go client.writePump()
	client.readPump()
}
