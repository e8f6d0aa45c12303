package ws

import "encoding/json"

// clientMessage is what a connected client sends over the socket.
type clientMessage struct {
	Op       string `json:"op"`
	Room     string `json:"room,omitempty"`
	ThreadID string `json:"thread_id,omitempty"`
}

// Client ops.
const (
	opSubscribe   = "subscribe"
	opUnsubscribe = "unsubscribe"
	opHeartbeat   = "heartbeat"
	opTyping      = "typing"
)

// serverMessage is the push frame. Type and Payload come straight from the
// broker event; Room tells the client which subscription matched.
type serverMessage struct {
	Room    string          `json:"room"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// errorMessage reports a rejected op without closing the socket.
type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
	Room  string `json:"room,omitempty"`
}
