package ws

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"tank-monitor/analytics/internal/metrics"
	transporthttp "tank-monitor/analytics/internal/transport/http"
)

const (
	statusChannelPrefix = "tankalert:status:"
	writeWait           = 10 * time.Second
	sendBuffer          = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn  *websocket.Conn
	scope string
	send  chan []byte
	done  chan struct{}
}

// Hub fans status updates out to websocket subscribers, filtered by each
// subscriber's group scope.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// GroupFromChannel recovers the tank group from a status channel name.
func GroupFromChannel(channel string) string {
	group := strings.TrimPrefix(channel, statusChannelPrefix)
	if group == "_" {
		return ""
	}
	return group
}

func visible(scope, group string) bool {
	return scope == "" || scope == group
}

// Run forwards messages from a Redis status subscription until ctx ends or
// the channel closes.
func (h *Hub) Run(ctx context.Context, msgs <-chan *redis.Message) {
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			h.Broadcast(GroupFromChannel(msg.Channel), []byte(msg.Payload))
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Len reports the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(group string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !visible(c.scope, group) {
			continue
		}
		select {
		case c.send <- payload:
		default:
			metrics.StreamDrops.Add(1)
		}
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	c := &client{
		conn:  conn,
		scope: transporthttp.ScopeFrom(r.Context()),
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
	}
	h.register(c)

	go h.readPump(c)
	go h.writePump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.StreamClients.Add(1)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		metrics.StreamClients.Add(-1)
		close(c.done)
	}
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

// readPump only drains control frames; subscribers never send data.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
