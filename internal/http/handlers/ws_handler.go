package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xrp-transfer/backend/internal/auth"
	"github.com/xrp-transfer/backend/internal/config"
	"github.com/xrp-transfer/backend/internal/events"
	"go.uber.org/zap"
)

// wsClient serializes writes; the websocket conn allows one writer at a time.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub fans transfer state snapshots out to every connected client.
type WSHub struct {
	cfg        *config.Config
	subscriber events.Subscriber
	snapshot   func() events.Event
	log        *zap.Logger
	mu         sync.RWMutex
	clients    map[uuid.UUID]*wsClient
}

// NewWSHub builds a hub. snapshot produces the event sent to a client right
// after it connects.
func NewWSHub(cfg *config.Config, subscriber events.Subscriber, snapshot func() events.Event, log *zap.Logger) *WSHub {
	return &WSHub{
		cfg:        cfg,
		subscriber: subscriber,
		snapshot:   snapshot,
		log:        log,
		clients:    make(map[uuid.UUID]*wsClient),
	}
}

func (h *WSHub) Start(ctx context.Context) error {
	return h.subscriber.Subscribe(ctx, events.StreamTransfer, func(event events.Event) {
		h.broadcast(event)
	})
}

func (h *WSHub) broadcast(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, client := range h.clients {
		if err := client.write(data); err != nil {
			h.log.Debug("ws write failed", zap.String("client_id", id.String()), zap.Error(err))
		}
	}
}

func (h *WSHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	if h.cfg.AuthEnabled() {
		tokenStr := conn.Query("token")
		if tokenStr == "" {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"missing token"}`))
			conn.Close()
			return
		}
		if _, err := auth.ParseJWT(h.cfg.APIJWTSecret, tokenStr); err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
			conn.Close()
			return
		}
	}

	id := uuid.New()
	client := &wsClient{conn: conn}

	h.mu.Lock()
	h.clients[id] = client
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, id)
		h.mu.Unlock()
		conn.Close()
	}()

	if h.snapshot != nil {
		if data, err := json.Marshal(h.snapshot()); err == nil {
			_ = client.write(data)
		}
	}

	// Read loop (keep alive / pings)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}
}
