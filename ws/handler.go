package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mkaraca/shelftalk/broker"
	"github.com/mkaraca/shelftalk/models"
)

// RoomAuthorizer decides whether a user may subscribe to a room. The
// messaging services implement it with membership and participant checks.
type RoomAuthorizer interface {
	CanJoin(ctx context.Context, userID, room string) error
}

// Handler upgrades HTTP requests to websocket connections and bridges them
// to the broker. Browsers cannot set headers on the upgrade request, so the
// token rides in the query string.
type Handler struct {
	broker     broker.Broker
	authorizer RoomAuthorizer
	jwtSecret  []byte
	upgrader   websocket.Upgrader
	logger     zerolog.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewHandler wires the websocket entry point.
func NewHandler(b broker.Broker, authorizer RoomAuthorizer, jwtSecret string, logger zerolog.Logger) *Handler {
	return &Handler{
		broker:     b,
		authorizer: authorizer,
		jwtSecret:  []byte(jwtSecret),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger.With().Str("component", "ws").Logger(),
		clients: make(map[*Client]struct{}),
	}
}

// ServeWS handles GET /ws?token=...
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticate(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("upgrade failed")
		return
	}

	client := &Client{
		UserID:  userID,
		conn:    conn,
		send:    make(chan []byte, 256),
		done:    make(chan struct{}),
		handler: h,
		logger:  h.logger,
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	// Every connection gets the user's own room; targeted pushes (unread
	// bumps, conversation starts) need no explicit subscribe.
	h.broker.Subscribe(broker.RoomUser(userID), client)

	h.logger.Debug().Str("user_id", userID).Msg("client connected")

	go client.writePump()
	go client.readPump()
}

func (h *Handler) authenticate(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", fmt.Errorf("missing token")
	}
	claims := &models.IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return "", fmt.Errorf("invalid token")
	}
	return claims.UserID, nil
}

func (h *Handler) handleOp(c *Client, msg clientMessage) {
	switch msg.Op {
	case opSubscribe:
		if err := h.authorizer.CanJoin(context.Background(), c.UserID, msg.Room); err != nil {
			c.sendError(errorMessage{Type: "subscribe_denied", Error: "not allowed", Room: msg.Room})
			return
		}
		h.broker.Subscribe(msg.Room, c)
	case opUnsubscribe:
		h.broker.Unsubscribe(msg.Room, c)
	case opHeartbeat:
		// Read deadline already extended by the read itself; nothing to do.
	case opTyping:
		if msg.ThreadID == "" {
			return
		}
		room := broker.RoomThread(msg.ThreadID)
		if err := h.authorizer.CanJoin(context.Background(), c.UserID, room); err != nil {
			return
		}
		payload, _ := json.Marshal(map[string]string{
			"thread_id": msg.ThreadID,
			"user_id":   c.UserID,
		})
		h.broker.Publish(broker.Event{Room: room, Type: broker.EventTyping, Payload: payload})
	default:
		c.sendError(errorMessage{Type: "error", Error: "unknown op"})
	}
}

// drop unregisters the client everywhere and signals writePump to tear the
// connection down. The registered check makes the done close happen once no
// matter how many goroutines race here.
func (h *Handler) drop(c *Client) {
	h.mu.Lock()
	_, registered := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if !registered {
		return
	}
	h.broker.DropAll(c)
	close(c.done)
}

// ClientCount reports connected clients.
func (h *Handler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
