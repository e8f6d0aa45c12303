package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mkaraca/shelftalk/broker"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one websocket connection. It implements broker.Subscriber: the
// broker pushes into send, writePump drains it. A slow client fills its
// buffer and gets dropped instead of backing up the broker.
//
// send is never closed; drop closes done instead, and writePump owns the
// connection teardown. Publishers racing a drop just buffer into a channel
// nobody drains anymore.
type Client struct {
	UserID string

	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	handler *Handler
	logger  zerolog.Logger
}

// Send implements broker.Subscriber. Never blocks.
func (c *Client) Send(event broker.Event) {
	select {
	case <-c.done:
		return
	default:
	}

	frame, err := json.Marshal(serverMessage{
		Room:    event.Room,
		Type:    event.Type,
		Payload: event.Payload,
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("marshal push frame")
		return
	}
	select {
	case c.send <- frame:
	default:
		// Buffer full: the client is too slow to keep.
		c.logger.Warn().Str("user_id", c.UserID).Msg("send buffer full, dropping client")
		c.handler.drop(c)
	}
}

func (c *Client) sendError(msg errorMessage) {
	frame, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

// readPump consumes client ops until the connection dies, then unregisters.
func (c *Client) readPump() {
	defer func() {
		c.handler.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Str("user_id", c.UserID).Msg("websocket closed unexpectedly")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError(errorMessage{Type: "error", Error: "malformed message"})
			continue
		}
		c.handler.handleOp(c, msg)
	}
}

// writePump drains send and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
