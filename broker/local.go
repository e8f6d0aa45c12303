package broker

import (
	"sync"

	"github.com/rs/zerolog"
)

// LocalBroker is the in-process room registry. Publish fans an event out to
// every subscriber of its room; with a bridge attached it also forwards the
// event to other processes.
type LocalBroker struct {
	mu     sync.RWMutex
	rooms  map[string]map[Subscriber]struct{}
	bridge Bridge
	logger zerolog.Logger
}

// Bridge forwards events to sibling processes. Forward must not block and
// must not fail the publish; errors are the bridge's to log and retry.
type Bridge interface {
	Forward(event Event)
}

// NewLocalBroker returns an empty registry.
func NewLocalBroker(logger zerolog.Logger) *LocalBroker {
	return &LocalBroker{
		rooms:  make(map[string]map[Subscriber]struct{}),
		logger: logger.With().Str("component", "broker").Logger(),
	}
}

// SetBridge attaches the cross-process forwarder. Call before serving.
func (b *LocalBroker) SetBridge(bridge Bridge) {
	b.bridge = bridge
}

// Publish delivers to local subscribers and forwards to the bridge.
func (b *LocalBroker) Publish(event Event) {
	b.deliverLocal(event)
	if b.bridge != nil {
		b.bridge.Forward(event)
	}
}

// DeliverLocal fans out to local subscribers only. The bridge calls this for
// events arriving from other processes, so they are not forwarded again.
func (b *LocalBroker) DeliverLocal(event Event) {
	b.deliverLocal(event)
}

func (b *LocalBroker) deliverLocal(event Event) {
	b.mu.RLock()
	subs := b.rooms[event.Room]
	targets := make([]Subscriber, 0, len(subs))
	for sub := range subs {
		targets = append(targets, sub)
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		sub.Send(event)
	}
}

func (b *LocalBroker) Subscribe(room string, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rooms[room] == nil {
		b.rooms[room] = make(map[Subscriber]struct{})
	}
	b.rooms[room][sub] = struct{}{}
}

func (b *LocalBroker) Unsubscribe(room string, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rooms[room], sub)
	if len(b.rooms[room]) == 0 {
		delete(b.rooms, room)
	}
}

// DropAll removes the subscriber from every room. Called on disconnect.
func (b *LocalBroker) DropAll(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for room, subs := range b.rooms {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.rooms, room)
		}
	}
}

// RoomCount reports how many rooms have at least one subscriber.
func (b *LocalBroker) RoomCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms)
}
