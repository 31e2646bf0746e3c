package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"smart-reader-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "reader_events"

// Hub fans annotation events out to every websocket client reading the same
// reference, on this instance and, through Redis, on the others.
type Hub struct {
	// Registered clients: ReferenceID -> clients (one per open session)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	// done is closed when Run returns so late Register and Unregister
	// calls do not block.
	done     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb redis.UniversalClient

	// instanceID marks this hub's own Redis messages so they are not
	// delivered twice locally.
	instanceID string

	logger logger.ILogger
}

type clusterMessage struct {
	Origin      string          `json:"origin"`
	ReferenceID string          `json:"reference_id"`
	Message     json.RawMessage `json:"message"`
}

func NewHub(rdb redis.UniversalClient, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// Run serves registrations until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer h.stopOnce.Do(func() { close(h.done) })

	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ReferenceID] = append(h.clients[client.ReferenceID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"reference_id": client.ReferenceID,
				"session_id":   client.SessionID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.ReferenceID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.ReferenceID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.ReferenceID]) == 0 {
					delete(h.clients, client.ReferenceID)
					h.logger.Info("Hub", "Reference has no more clients", map[string]interface{}{"reference_id": client.ReferenceID})
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount reports the local clients of a reference.
func (h *Hub) ClientCount(referenceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[referenceID])
}

// BroadcastToReference delivers data to local clients of the reference and
// publishes it for the other instances.
func (h *Hub) BroadcastToReference(referenceID string, data []byte) {
	h.deliver(referenceID, data)

	if h.rdb != nil {
		payload, err := json.Marshal(clusterMessage{
			Origin:      h.instanceID,
			ReferenceID: referenceID,
			Message:     data,
		})
		if err != nil {
			return
		}
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (h *Hub) deliver(referenceID string, data []byte) {
	var slow []*Client

	h.mu.RLock()
	for _, client := range h.clients[referenceID] {
		select {
		case client.Send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Hub", "Client send buffer full, dropping client", map[string]interface{}{
			"reference_id": referenceID,
			"session_id":   client.SessionID,
		})
		go h.Unregister(client)
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.instanceID {
				continue
			}
			h.deliver(payload.ReferenceID, payload.Message)
		}
	}
}
