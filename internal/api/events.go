package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/studychess/studychess/internal/analysis"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans the orchestrator's event stream out to websocket clients.
// A client too slow to drain its queue is disconnected rather than
// allowed to stall the others.
type Hub struct {
	log *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan analysis.Event
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: map[*client]struct{}{},
	}
}

// Run pumps events until the stream closes, then drops every client.
func (h *Hub) Run(events <-chan analysis.Event) {
	for e := range events {
		h.broadcast(e)
	}
	h.mu.Lock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()
}

func (h *Hub) broadcast(e analysis.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- e:
		default:
			h.log.Warn("dropping slow event client")
			close(c.send)
			delete(h.clients, c)
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()
}

// handleEvents upgrades the connection and streams event envelopes.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan analysis.Event, 64)}
	s.hub.add(c)

	go func() {
		defer conn.Close()
		for e := range c.send {
			if err := conn.WriteJSON(e); err != nil {
				s.log.Warn("websocket write failed", "error", err)
				s.hub.remove(c)
				return
			}
		}
	}()

	// Reads are discarded; the read loop only notices disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.remove(c)
				return
			}
		}
	}()
}
