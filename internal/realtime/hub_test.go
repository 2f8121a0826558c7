package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopback is an in-process stand-in for Redis pub/sub.
type loopback struct {
	mu        sync.Mutex
	handlers  map[uuid.UUID]func(string, []byte)
	subscribe int
	cancelled int
}

func newLoopback() *loopback {
	return &loopback{handlers: map[uuid.UUID]func(string, []byte){}}
}

func (l *loopback) PublishRoomEvent(_ context.Context, eventID uuid.UUID, event string, payload []byte) error {
	l.mu.Lock()
	h := l.handlers[eventID]
	l.mu.Unlock()
	if h != nil {
		h(event, payload)
	}
	return nil
}

func (l *loopback) SubscribeRoom(eventID uuid.UUID, handler func(string, []byte)) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribe++
	l.handlers[eventID] = handler
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.cancelled++
		delete(l.handlers, eventID)
	}, nil
}

func testClient() *Client {
	return &Client{ID: uuid.NewString(), rooms: map[uuid.UUID]struct{}{}, send: make(chan WSMessage, 4)}
}

func TestHub_SubscriptionFollowsMembership(t *testing.T) {
	bus := newLoopback()
	hub := NewHub(nil, bus, bus)
	room := uuid.New()
	a, b := testClient(), testClient()

	require.NoError(t, hub.Join(a, room))
	require.NoError(t, hub.Join(b, room))
	assert.Equal(t, 1, bus.subscribe)

	require.NoError(t, hub.Publish(context.Background(), room, "message", map[string]string{"text": "hi"}))
	for _, c := range []*Client{a, b} {
		msg := <-c.send
		assert.Equal(t, "message", msg.Event)
		assert.JSONEq(t, `{"text":"hi"}`, string(msg.Data))
	}

	hub.Leave(a, room)
	assert.Zero(t, bus.cancelled)
	hub.Remove(b)
	assert.Equal(t, 1, bus.cancelled)
	assert.Zero(t, hub.Members(room))
}

func TestHub_LocalPublishWithoutRedis(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	room := uuid.New()
	c := testClient()
	require.NoError(t, hub.Join(c, room))

	require.NoError(t, hub.Publish(context.Background(), room, "message", json.RawMessage(`{"n":1}`)))
	msg := <-c.send
	assert.JSONEq(t, `{"n":1}`, string(msg.Data))
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	room := uuid.New()
	slow := &Client{ID: "slow", rooms: map[uuid.UUID]struct{}{}, send: make(chan WSMessage, 1)}
	require.NoError(t, hub.Join(slow, room))

	hub.Broadcast(room, "message", "one")
	hub.Broadcast(room, "message", "two")

	assert.Zero(t, hub.Members(room))
	first, ok := <-slow.send
	require.True(t, ok)
	assert.JSONEq(t, `"one"`, string(first.Data))
	_, ok = <-slow.send
	assert.False(t, ok, "send channel closed after drop")
}

func TestRoomChannel(t *testing.T) {
	id := uuid.MustParse("6f1c2a52-9a59-4a55-9d8c-0a3f9b1c2d3e")
	assert.Equal(t, "event:6f1c2a52-9a59-4a55-9d8c-0a3f9b1c2d3e", RoomChannel(id))
}
