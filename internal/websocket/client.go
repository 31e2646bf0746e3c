package websocket

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 256
)

// MessageHandler processes one inbound text message and returns an optional
// reply for the same client.
type MessageHandler func(data []byte) []byte

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	ReferenceID string
	SessionID   string

	// Buffered channel of outbound messages.
	Send chan []byte

	onMessage MessageHandler

	// onClose runs once the read side ends, before the client leaves the hub.
	onClose func()
}

func NewClient(hub *Hub, conn *websocket.Conn, referenceID, sessionID string, onMessage MessageHandler) *Client {
	return &Client{
		Hub:         hub,
		Conn:        conn,
		ReferenceID: referenceID,
		SessionID:   sessionID,
		Send:        make(chan []byte, sendBuffer),
		onMessage:   onMessage,
	}
}

// readPump pumps messages from the websocket connection to the handler.
func (c *Client) readPump() {
	defer func() {
		c.finish()
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
			}
			break
		}
		c.handle(data)
	}
}

func (c *Client) finish() {
	if c.onClose != nil {
		c.onClose()
	}
	c.Hub.Unregister(c)
}

func (c *Client) handle(data []byte) {
	if c.onMessage == nil {
		return
	}
	reply := c.onMessage(data)
	if reply == nil {
		return
	}
	select {
	case c.Send <- reply:
	default:
		c.Hub.logger.Warn("Client", "Reply dropped, send buffer full", map[string]interface{}{"session_id": c.SessionID})
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One JSON document per frame; clients parse frames individually.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
