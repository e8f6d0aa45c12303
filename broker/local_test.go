package broker

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeSub struct {
	mu     sync.Mutex
	events []Event
}

func (s *fakeSub) Send(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *fakeSub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type fakeBridge struct {
	forwarded []Event
}

func (b *fakeBridge) Forward(event Event) {
	b.forwarded = append(b.forwarded, event)
}

func TestLocalBrokerRoutesByRoom(t *testing.T) {
	b := NewLocalBroker(zerolog.Nop())
	sub1 := &fakeSub{}
	sub2 := &fakeSub{}

	b.Subscribe(RoomThread("t1"), sub1)
	b.Subscribe(RoomThread("t2"), sub2)

	b.Publish(Event{Room: RoomThread("t1"), Type: EventMessageCreated})
	b.Publish(Event{Room: RoomThread("t2"), Type: EventMessageCreated})
	b.Publish(Event{Room: RoomThread("t2"), Type: EventMessageEdited})

	assert.Equal(t, 1, sub1.count())
	assert.Equal(t, 2, sub2.count())
}

func TestLocalBrokerMultipleSubscribersPerRoom(t *testing.T) {
	b := NewLocalBroker(zerolog.Nop())
	sub1 := &fakeSub{}
	sub2 := &fakeSub{}
	b.Subscribe(RoomUser("u1"), sub1)
	b.Subscribe(RoomUser("u1"), sub2)

	b.Publish(Event{Room: RoomUser("u1"), Type: EventReadMarked})

	assert.Equal(t, 1, sub1.count())
	assert.Equal(t, 1, sub2.count())
}

func TestLocalBrokerUnsubscribe(t *testing.T) {
	b := NewLocalBroker(zerolog.Nop())
	sub := &fakeSub{}
	b.Subscribe(RoomThread("t1"), sub)
	b.Unsubscribe(RoomThread("t1"), sub)

	b.Publish(Event{Room: RoomThread("t1"), Type: EventMessageCreated})
	assert.Equal(t, 0, sub.count())
	assert.Equal(t, 0, b.RoomCount())
}

func TestLocalBrokerDropAll(t *testing.T) {
	b := NewLocalBroker(zerolog.Nop())
	sub := &fakeSub{}
	stays := &fakeSub{}
	b.Subscribe(RoomThread("t1"), sub)
	b.Subscribe(RoomUser("u1"), sub)
	b.Subscribe(RoomThread("t1"), stays)

	b.DropAll(sub)

	b.Publish(Event{Room: RoomThread("t1"), Type: EventMessageCreated})
	b.Publish(Event{Room: RoomUser("u1"), Type: EventReadMarked})
	assert.Equal(t, 0, sub.count())
	assert.Equal(t, 1, stays.count())
}

func TestLocalBrokerBridgeForwarding(t *testing.T) {
	b := NewLocalBroker(zerolog.Nop())
	bridge := &fakeBridge{}
	b.SetBridge(bridge)
	sub := &fakeSub{}
	b.Subscribe(RoomThread("t1"), sub)

	// Publish goes local and over the bridge.
	b.Publish(Event{Room: RoomThread("t1"), Type: EventMessageCreated})
	assert.Equal(t, 1, sub.count())
	assert.Len(t, bridge.forwarded, 1)

	// An event arriving from the bridge is not forwarded back.
	b.DeliverLocal(Event{Room: RoomThread("t1"), Type: EventMessageEdited})
	assert.Equal(t, 2, sub.count())
	assert.Len(t, bridge.forwarded, 1)
}
