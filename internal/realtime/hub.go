package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/speakerhub/backend/internal/metrics"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Publisher fans an event out to every instance subscribed to the room.
type Publisher interface {
	PublishRoomEvent(ctx context.Context, eventID uuid.UUID, event string, payload []byte) error
}

// Subscriber delivers events published for a room to handler until cancel is called.
type Subscriber interface {
	SubscribeRoom(eventID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub is the room registry: event id -> set of connections joined to that event's chat.
// With a Publisher and Subscriber configured, Publish goes through Redis and every instance
// broadcasts to its own members from its subscription.
type Hub struct {
	rooms  map[uuid.UUID]map[*Client]struct{}
	subs   map[uuid.UUID]func()
	mu     sync.RWMutex
	logger *zap.Logger
	pub    Publisher
	sub    Subscriber
}

// NewHub creates a hub. pub and sub may both be nil for single-instance operation.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pub == nil || sub == nil {
		pub, sub = nil, nil
	}
	return &Hub{
		rooms:  make(map[uuid.UUID]map[*Client]struct{}),
		subs:   make(map[uuid.UUID]func()),
		logger: logger,
		pub:    pub,
		sub:    sub,
	}
}

// Join adds the client to a room. The first member starts the room's Redis subscription.
func (h *Hub) Join(c *Client, eventID uuid.UUID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.rooms[eventID]
	if members == nil {
		if h.sub != nil {
			cancel, err := h.sub.SubscribeRoom(eventID, func(event string, payload []byte) {
				h.Broadcast(eventID, event, json.RawMessage(payload))
			})
			if err != nil {
				return fmt.Errorf("subscribe room: %w", err)
			}
			h.subs[eventID] = cancel
		}
		members = make(map[*Client]struct{})
		h.rooms[eventID] = members
	}
	members[c] = struct{}{}
	c.rooms[eventID] = struct{}{}
	h.logger.Debug("client joined room", zap.String("client_id", c.ID), zap.String("event_id", eventID.String()))
	return nil
}

// Leave removes the client from one room.
func (h *Hub) Leave(c *Client, eventID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, eventID)
}

// Remove drops the client from every room it joined.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for eventID := range c.rooms {
		h.leaveLocked(c, eventID)
	}
}

func (h *Hub) leaveLocked(c *Client, eventID uuid.UUID) {
	delete(c.rooms, eventID)
	members, ok := h.rooms[eventID]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) > 0 {
		return
	}
	delete(h.rooms, eventID)
	if cancel, ok := h.subs[eventID]; ok {
		cancel()
		delete(h.subs, eventID)
	}
	h.logger.Debug("room closed", zap.String("event_id", eventID.String()))
}

// Broadcast sends an event to this instance's members of a room. A member whose send buffer
// is full is disconnected rather than silently missing messages.
func (h *Hub) Broadcast(eventID uuid.UUID, event string, payload interface{}) {
	msg, err := envelope(event, payload)
	if err != nil {
		h.logger.Error("encode broadcast", zap.Error(err))
		return
	}

	h.mu.RLock()
	var slow []*Client
	for c := range h.rooms[eventID] {
		if !c.enqueue(msg) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow chat client", zap.String("client_id", c.ID))
		h.Remove(c)
		c.close()
	}
}

// Publish delivers an event to every member of the room across instances.
// Without Redis it is a local Broadcast.
func (h *Hub) Publish(ctx context.Context, eventID uuid.UUID, event string, payload interface{}) error {
	if h.pub == nil {
		h.Broadcast(eventID, event, payload)
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return h.pub.PublishRoomEvent(ctx, eventID, event, data)
}

// Members returns the number of local connections joined to a room.
func (h *Hub) Members(eventID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[eventID])
}

// SendTo sends an event to a single client.
func (h *Hub) SendTo(c *Client, event string, payload interface{}) {
	msg, err := envelope(event, payload)
	if err != nil {
		return
	}
	c.enqueue(msg)
}

func envelope(event string, payload interface{}) (WSMessage, error) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return WSMessage{}, err
		}
	}
	return WSMessage{Event: event, Data: data}, nil
}

func connected(delta float64) {
	metrics.ChatConnections.Add(delta)
}
