package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/your-org/photospotter/internal/models"
	"github.com/your-org/photospotter/internal/observability"
	"github.com/your-org/photospotter/pkg/dto"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket subscriber, optionally limited to one event.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	eventID uuid.UUID
}

type message struct {
	eventID uuid.UUID
	data    []byte
}

// Hub fans match notices out to connected websocket clients.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	// done is closed when Run returns.
	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is done. Call it in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			observability.WSConnections.Inc()
			slog.Debug("ws client connected", "event_id", client.eventID)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				slog.Debug("ws client disconnected")
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if client.eventID != uuid.Nil && client.eventID != msg.eventID {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Slow consumer.
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	observability.WSConnections.Dec()
}

// BroadcastMatch pushes a match notice to subscribers of its event. It is a
// no-op once the hub has stopped.
func (h *Hub) BroadcastMatch(notice models.MatchNotice) {
	data, err := json.Marshal(dto.WSEvent{
		Type:     "match_found",
		EventID:  notice.EventID,
		GuestID:  notice.GuestID,
		PhotoIDs: notice.PhotoIDs,
		At:       notice.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		slog.Error("marshal ws event", "error", err)
		return
	}
	select {
	case h.broadcast <- message{eventID: notice.EventID, data: data}:
	case <-h.done:
	}
}

// HandleWS upgrades the request. ?event_id= limits the feed to one event.
func (h *Hub) HandleWS(c *gin.Context) {
	var eventID uuid.UUID
	if v := c.Query("event_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event_id"})
			return
		}
		eventID = id
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "error", err)
		return
	}

	client := &Client{
		conn:    conn,
		send:    make(chan []byte, 64),
		eventID: eventID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump only watches for the client going away.
func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
