package ws

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// client pairs a websocket connection with a buffered send channel so all
// writes happen on one goroutine.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) writeLoop() {
	for {
		select {
		case payload := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("ws write: %v", err)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub tracks live connections by id and delivers payloads to them. It is the
// push transport behind the dispatcher.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

func (h *Hub) add(connectionID string, conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 16),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[connectionID] = c
	h.mu.Unlock()
	go c.writeLoop()
	return c
}

func (h *Hub) remove(connectionID string) {
	h.mu.Lock()
	c, ok := h.clients[connectionID]
	delete(h.clients, connectionID)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

// Push queues a payload for one connection. Unknown ids and closed
// connections report an error; the caller decides whether that matters.
func (h *Hub) Push(ctx context.Context, connectionID string, payload []byte) error {
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("connection %s is not live", connectionID)
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return fmt.Errorf("connection %s closed", connectionID)
	case <-ctx.Done():
		return ctx.Err()
	}
}
