package ws

import (
	"context"
	"log"
	"net/http"

	"trivia-host-service/internal/dispatch"
	"trivia-host-service/internal/domain"
	"trivia-host-service/internal/store"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests to websockets, registers the connection in
// the registry and feeds inbound messages into the dispatcher.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	conns      store.ConnectionStore
	hub        *Hub
	upgrader   websocket.Upgrader
}

func NewHandler(dispatcher *dispatch.Dispatcher, conns store.ConnectionStore, hub *Hub) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		conns:      conns,
		hub:        hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS handles one websocket connection for its whole lifetime.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connectionID := uuid.NewString()
	if err := h.conns.PutConnection(r.Context(), domain.Connection{ConnectionID: connectionID}); err != nil {
		log.Printf("register connection %s: %v", connectionID, err)
		return
	}
	h.hub.add(connectionID, conn)
	defer func() {
		h.hub.remove(connectionID)
		// The request context is gone once the client disconnects.
		if err := h.conns.DeleteConnection(context.Background(), connectionID); err != nil {
			log.Printf("remove connection %s: %v", connectionID, err)
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.dispatcher.Dispatch(r.Context(), connectionID, data)
	}
}
