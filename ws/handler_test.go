package ws

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaraca/shelftalk/broker"
	"github.com/mkaraca/shelftalk/models"
)

const testSecret = "test-secret"

type allowOwnRooms struct{}

func (allowOwnRooms) CanJoin(ctx context.Context, userID, room string) error {
	if strings.HasPrefix(room, "thread:denied") {
		return fmt.Errorf("not allowed")
	}
	return nil
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.IdentityClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func dialWS(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg serverMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never held")
}

func TestServeWSRejectsBadToken(t *testing.T) {
	b := broker.NewLocalBroker(zerolog.Nop())
	h := NewHandler(b, allowOwnRooms{}, testSecret, zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(srv.URL + "?token=garbage")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWSUserRoomIsImplicit(t *testing.T) {
	b := broker.NewLocalBroker(zerolog.Nop())
	h := NewHandler(b, allowOwnRooms{}, testSecret, zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	conn := dialWS(t, srv, signToken(t, "alice"))
	waitFor(t, func() bool { return b.RoomCount() == 1 })

	b.Publish(broker.Event{
		Room:    broker.RoomUser("alice"),
		Type:    broker.EventReadMarked,
		Payload: []byte(`{"last_read_seq":7}`),
	})

	msg := readFrame(t, conn)
	assert.Equal(t, broker.RoomUser("alice"), msg.Room)
	assert.Equal(t, broker.EventReadMarked, msg.Type)
	assert.JSONEq(t, `{"last_read_seq":7}`, string(msg.Payload))
}

func TestServeWSSubscribeAndDeny(t *testing.T) {
	b := broker.NewLocalBroker(zerolog.Nop())
	h := NewHandler(b, allowOwnRooms{}, testSecret, zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	conn := dialWS(t, srv, signToken(t, "alice"))
	waitFor(t, func() bool { return b.RoomCount() == 1 })

	require.NoError(t, conn.WriteJSON(clientMessage{Op: opSubscribe, Room: "thread:t1"}))
	waitFor(t, func() bool { return b.RoomCount() == 2 })

	b.Publish(broker.Event{Room: "thread:t1", Type: broker.EventMessageCreated, Payload: []byte(`{}`)})
	msg := readFrame(t, conn)
	assert.Equal(t, "thread:t1", msg.Room)

	// A denied subscribe gets an error frame, not a new subscription.
	require.NoError(t, conn.WriteJSON(clientMessage{Op: opSubscribe, Room: "thread:denied"}))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var errFrame errorMessage
	require.NoError(t, conn.ReadJSON(&errFrame))
	assert.Equal(t, "subscribe_denied", errFrame.Type)
	assert.Equal(t, 2, b.RoomCount())
}

func TestServeWSTypingFansOut(t *testing.T) {
	b := broker.NewLocalBroker(zerolog.Nop())
	h := NewHandler(b, allowOwnRooms{}, testSecret, zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	alice := dialWS(t, srv, signToken(t, "alice"))
	bob := dialWS(t, srv, signToken(t, "bob"))
	waitFor(t, func() bool { return h.ClientCount() == 2 })

	require.NoError(t, bob.WriteJSON(clientMessage{Op: opSubscribe, Room: "thread:t1"}))
	waitFor(t, func() bool { return b.RoomCount() == 3 })

	require.NoError(t, alice.WriteJSON(clientMessage{Op: opTyping, ThreadID: "t1"}))

	msg := readFrame(t, bob)
	assert.Equal(t, broker.EventTyping, msg.Type)
	assert.Contains(t, string(msg.Payload), `"alice"`)
}

func TestSlowClientConcurrentSendsDropOnce(t *testing.T) {
	b := broker.NewLocalBroker(zerolog.Nop())
	h := NewHandler(b, allowOwnRooms{}, testSecret, zerolog.Nop())

	c := &Client{
		UserID:  "alice",
		send:    make(chan []byte, 1),
		done:    make(chan struct{}),
		handler: h,
		logger:  zerolog.Nop(),
	}
	h.clients[c] = struct{}{}
	b.Subscribe(broker.RoomUser("alice"), c)

	// Nobody drains send, so the buffer fills and every publisher goroutine
	// races into the drop path at the same time.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Send(broker.Event{
				Room:    broker.RoomUser("alice"),
				Type:    broker.EventReadMarked,
				Payload: []byte(`{}`),
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, h.ClientCount())
	assert.Equal(t, 0, b.RoomCount())
}

func TestServeWSDisconnectUnregisters(t *testing.T) {
	b := broker.NewLocalBroker(zerolog.Nop())
	h := NewHandler(b, allowOwnRooms{}, testSecret, zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	conn := dialWS(t, srv, signToken(t, "alice"))
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	conn.Close()
	waitFor(t, func() bool { return h.ClientCount() == 0 && b.RoomCount() == 0 })
}
