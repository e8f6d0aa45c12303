// Package broker routes domain events to rooms. A room is a named fan-out
// target: per-user, per-thread, or one of the feed streams. Services publish;
// the websocket layer subscribes connections to rooms.
//
// Delivery is at-most-once to live subscribers. Persistence is the ledger's
// job; a reconnecting client backfills over HTTP and dedupes pushed messages
// by (thread, seq).
package broker

import "encoding/json"

// Event is one routed payload. Type names the domain event
// (message.created, reaction.updated, ...); Payload is the serialized body.
type Event struct {
	Room    string          `json:"room"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Event types published by the services.
const (
	EventMessageCreated  = "message.created"
	EventMessageEdited   = "message.edited"
	EventMessageDeleted  = "message.deleted"
	EventReactionUpdated = "reaction.updated"
	EventReadMarked      = "read.marked"
	EventActivityCreated = "activity.created"
	EventTyping          = "typing"
)

// Publisher is the write side. Services depend on this, never on the full
// Broker, so tests can drop in a recorder.
type Publisher interface {
	Publish(event Event)
}

// Subscriber receives events for the rooms it joined. Send must not block;
// implementations drop the subscriber instead.
type Subscriber interface {
	Send(event Event)
}

// Broker is the full pub/sub surface.
type Broker interface {
	Publisher
	Subscribe(room string, sub Subscriber)
	Unsubscribe(room string, sub Subscriber)
	DropAll(sub Subscriber)
}

// Room name helpers. Every subscriber and publisher goes through these so
// the key space stays consistent.

// RoomUser targets one user across all their connections.
func RoomUser(userID string) string { return "user:" + userID }

// RoomThread targets everyone viewing a conversation or channel.
func RoomThread(threadID string) string { return "thread:" + threadID }

// RoomStreamGlobal targets global-feed watchers.
func RoomStreamGlobal() string { return "stream:global" }

// RoomStreamPersonal targets one user's personal-feed watchers.
func RoomStreamPersonal(userID string) string { return "stream:personal:" + userID }

// RoomStreamShelves targets one user's shelves-feed watchers.
func RoomStreamShelves(userID string) string { return "stream:shelves:" + userID }
