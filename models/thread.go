// Package models holds the domain entities and request/response shapes.
// Structs mirror their database tables; request structs carry Validate
// methods that the service layer calls before touching the store.
package models

import "time"

// ThreadKind discriminates what a thread backs. A message belongs to exactly
// one thread, and a thread id is either a conversation id or a channel id,
// never both.
type ThreadKind string

const (
	ThreadConversation ThreadKind = "conversation"
	ThreadChannel      ThreadKind = "channel"
)

// Thread is the unit a message belongs to. LastSeq is the per-thread
// monotonic sequence allocator; message order within a thread follows seq,
// not client clocks.
type Thread struct {
	ID            string     `json:"id"`
	Kind          ThreadKind `json:"kind"`
	LastSeq       int64      `json:"last_seq"`
	LastMessageID *string    `json:"last_message_id"`
	CreatedAt     time.Time  `json:"created_at"`
}
