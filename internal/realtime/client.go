package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/speakerhub/backend/internal/models"
)

// Client events.
const (
	EventJoinRoom  = "joinRoom"
	EventLeaveRoom = "leaveRoom"
	EventMessage   = "message"

	// Server-only acknowledgements and errors, sent to the requesting client.
	EventJoined = "joinedRoom"
	EventLeft   = "leftRoom"
	EventError  = "error"
)

const (
	sendBuffer   = 256
	maxFrameSize = 65536
	writeWait    = 10 * time.Second
	relayTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // browsers connect from the SPA origin; chat is not credentialed by cookie
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// MessageSender persists a chat line and delivers it to the room.
type MessageSender interface {
	Send(ctx context.Context, eventID uuid.UUID, from, text string) (*models.Message, error)
}

// TokenResolver turns an optional bearer token into an identity.
type TokenResolver func(token string) (models.Identity, error)

// Client represents a single WebSocket connection. It may be joined to several rooms.
type Client struct {
	ID       string
	Identity *models.Identity // nil for anonymous connections
	rooms    map[uuid.UUID]struct{}
	hub      *Hub
	sender   MessageSender
	conn     *websocket.Conn
	send     chan WSMessage
	mu       sync.Mutex
	closed   bool
	logger   *zap.Logger
}

// ServeWs handles the WebSocket upgrade and runs the client loop.
// A token query parameter is optional; when present it must be valid.
func ServeWs(hub *Hub, sender MessageSender, resolve TokenResolver, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		var identity *models.Identity
		if token := c.Query("token"); token != "" && resolve != nil {
			id, err := resolve(token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
				return
			}
			identity = &id
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:       uuid.New().String(),
			Identity: identity,
			rooms:    make(map[uuid.UUID]struct{}),
			hub:      hub,
			sender:   sender,
			conn:     conn,
			send:     make(chan WSMessage, sendBuffer),
			logger:   logger,
		}
		connected(1)
		go client.writePump()
		client.readPump()
	}
}

func (c *Client) enqueue(msg WSMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Remove(c)
		c.close()
		connected(-1)
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case EventJoinRoom:
			eventID, ok := c.roomID(msg.Data)
			if !ok {
				continue
			}
			if err := c.hub.Join(c, eventID); err != nil {
				c.logger.Error("join room failed", zap.Error(err), zap.String("event_id", eventID.String()))
				c.fail("could not join room")
				continue
			}
			c.hub.SendTo(c, EventJoined, map[string]string{"eventId": eventID.String()})
		case EventLeaveRoom:
			eventID, ok := c.roomID(msg.Data)
			if !ok {
				continue
			}
			c.hub.Leave(c, eventID)
			c.hub.SendTo(c, EventLeft, map[string]string{"eventId": eventID.String()})
		case EventMessage:
			c.relay(msg.Data)
		default:
			// ignore
		}
	}
}

// roomRef names a room in a client payload. eventId is canonical; event_id is accepted as an alias.
type roomRef struct {
	EventID      string `json:"eventId"`
	EventIDAlias string `json:"event_id"`
}

func (r roomRef) raw() string {
	if r.EventID != "" {
		return r.EventID
	}
	return r.EventIDAlias
}

// incomingMessage is the client payload of a "message" event: {eventId, from, text}.
type incomingMessage struct {
	roomRef
	From string `json:"from"`
	Text string `json:"text"`
}

func (c *Client) relay(data json.RawMessage) {
	var in incomingMessage
	if err := json.Unmarshal(data, &in); err != nil {
		c.fail("invalid message payload")
		return
	}
	eventID, err := uuid.Parse(in.raw())
	if err != nil {
		c.fail("invalid eventId")
		return
	}
	from := strings.TrimSpace(in.From)
	if from == "" && c.Identity != nil {
		from = c.Identity.Email
	}
	ctx, cancel := context.WithTimeout(context.Background(), relayTimeout)
	defer cancel()
	if _, err := c.sender.Send(ctx, eventID, from, in.Text); err != nil {
		if models.IsValidation(err) {
			c.fail(err.Error())
			return
		}
		c.fail("message not delivered")
	}
}

// roomID accepts either a bare event id string or {"eventId": "..."} (event_id also accepted).
func (c *Client) roomID(data json.RawMessage) (uuid.UUID, bool) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var ref roomRef
		if err := json.Unmarshal(data, &ref); err != nil {
			c.fail("invalid room payload")
			return uuid.Nil, false
		}
		raw = ref.raw()
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.fail("invalid eventId")
		return uuid.Nil, false
	}
	return id, true
}

func (c *Client) fail(reason string) {
	c.hub.SendTo(c, EventError, map[string]string{"message": reason})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
