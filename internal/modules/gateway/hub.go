package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eduflash/core/internal/modules/leaderboard"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// Message is a typed event pushed to connected clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans leaderboard updates out to websocket subscribers. New clients get
// a snapshot of the current top ranking on connect.
type Hub struct {
	clients    map[*client]struct{}
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	snapshot   func(ctx context.Context) ([]leaderboard.RankedEntry, error)
	logger     *zap.Logger
}

func NewHub(snapshot func(ctx context.Context) ([]leaderboard.RankedEntry, error), logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client, 16),
		unregister: make(chan *client, 16),
		snapshot:   snapshot,
		logger:     logger,
	}
}

// Run owns the client set. Must run in its own goroutine for the lifetime of
// the process.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				close(c.send)
				delete(h.clients, c)
			}
		case payload := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					// Slow consumer, drop it.
					close(c.send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// NotifyLeaderboard pushes a fresh ranking to all subscribers. Implements
// leaderboard.Notifier. Never blocks the caller.
func (h *Hub) NotifyLeaderboard(entries []leaderboard.RankedEntry) {
	payload, err := json.Marshal(Message{Type: "leaderboard", Data: entries})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("gateway broadcast queue full, dropping update")
	}
}

func (h *Hub) add(c *client) {
	// Snapshot first so the client always has a ranking to render.
	if h.snapshot != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		entries, err := h.snapshot(ctx)
		cancel()
		if err == nil {
			if payload, mErr := json.Marshal(Message{Type: "leaderboard", Data: entries}); mErr == nil {
				c.send <- payload
			}
		}
	}
	h.register <- c
}

func (h *Hub) remove(c *client) {
	h.unregister <- c
}
