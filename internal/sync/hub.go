// Package sync pushes refresh events to TCP and WebSocket subscribers.
package sync

import (
	"net"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"stagehub/internal/metrics"
	"stagehub/pkg/models"
)

const writeTimeout = 2 * time.Second

type Hub struct {
	mu        sync.Mutex
	clients   map[net.Conn]struct{}
	wsClients map[*websocket.Conn]struct{}
	logger    zerolog.Logger
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:   make(map[net.Conn]struct{}),
		wsClients: make(map[*websocket.Conn]struct{}),
		logger:    logger.With().Str("component", "sync").Logger(),
	}
}

func (h *Hub) Add(conn net.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.updateGauges()
	h.mu.Unlock()
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.updateGauges()
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) AddWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.wsClients[ws] = struct{}{}
	h.updateGauges()
	h.mu.Unlock()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.wsClients, ws)
	h.updateGauges()
	h.mu.Unlock()
	_ = ws.Close()
}

// updateGauges must be called with mu held.
func (h *Hub) updateGauges() {
	metrics.SyncClients.WithLabelValues("tcp").Set(float64(len(h.clients)))
	metrics.SyncClients.WithLabelValues("ws").Set(float64(len(h.wsClients)))
}

// SnapshotPublished broadcasts a summary of s. It satisfies refresh.Notifier.
func (h *Hub) SnapshotPublished(s *models.Snapshot) {
	h.BroadcastJSON(NewSnapshotEvent(s))
}

// BroadcastJSON writes v as one JSON line to every client. Clients that
// fail to accept it within the write timeout are dropped.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.logger.Error().Err(err).Msg("marshal broadcast")
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	dropped := 0
	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := c.Write(b); err != nil {
			_ = c.Close()
			delete(h.clients, c)
			dropped++
		}
	}
	for ws := range h.wsClients {
		_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.wsClients, ws)
			dropped++
		}
	}
	h.updateGauges()
	h.logger.Debug().
		Int("tcp", len(h.clients)).
		Int("ws", len(h.wsClients)).
		Int("dropped", dropped).
		Msg("broadcast")
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.clients),
		WSClients:  len(h.wsClients),
	}
}

type welcome struct {
	Type      string `json:"type"`
	Transport string `json:"transport"`
	Clients   int    `json:"clients"`
}

func (h *Hub) welcome(transport string) []byte {
	st := h.Stats()
	b, _ := json.Marshal(welcome{Type: "welcome", Transport: transport, Clients: st.TCPClients + st.WSClients})
	return append(b, '\n')
}
