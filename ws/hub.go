package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"word-memory-server/config"
	"word-memory-server/metrics"
	"word-memory-server/score"
	"word-memory-server/words"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development; restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// TokenVerifier validates an auth token. *auth.Verifier implements it.
type TokenVerifier interface {
	Validate(token string) (jwt.MapClaims, error)
}

// Hub maintains the set of active clients. Every client plays its own session;
// the hub only tracks connections and shares the word pool and score ledger.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client

	Config   *config.Config
	Pool     *words.Pool
	Ledger   score.Ledger
	Verifier TokenVerifier // nil disables the auth message

	// Now is the clock used for score timestamps.
	Now func() time.Time
}

// NewHub creates a new Hub.
func NewHub(cfg *config.Config, pool *words.Pool, ledger score.Ledger, verifier TokenVerifier) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Config:     cfg,
		Pool:       pool,
		Ledger:     ledger,
		Verifier:   verifier,
		Now:        time.Now,
	}
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled (e.g. on server shutdown), Run returns and no longer accepts new registrations.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, stopping", "tag", "ws")
			return
		case client := <-h.Register:
			h.Clients[client] = true
			metrics.ActiveConnections.Inc()
			slog.Info("client connected", "tag", "ws", "clients", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				metrics.ActiveConnections.Dec()
				close(client.Send)
				slog.Info("client disconnected", "tag", "ws", "clients", len(h.Clients))
			}
		}
	}
}

// ServeWS handles WebSocket upgrade requests and creates a new Client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "tag", "ws", "err", err)
		return
	}

	client := &Client{
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	h.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
