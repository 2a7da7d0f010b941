package realtime

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis key prefixes
const (
	presenceKey       = "realtime:presence:online"
	presenceChannel   = "realtime:presence"
	userEventsChannel = "realtime:user_events"
)

var (
	wsConnectionsGauge   = expvar.NewInt("websocket_connections")
	wsEventsSentTotal    = expvar.NewInt("websocket_events_sent_total")
	wsEventsDroppedTotal = expvar.NewInt("websocket_events_dropped_total")
)

const sendBufferSize = 256

type userEventMessage struct {
	UserID           string          `json:"user_id"`
	Seq              int64           `json:"seq"`
	Payload          json.RawMessage `json:"payload"`
	SenderInstanceID string          `json:"sender_instance_id"`
}

// Connection represents one live channel for a user. A user can hold
// several at once (multiple devices).
type Connection struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte

	mu        sync.Mutex
	closed    bool
	delivered int64
}

// NewConnection creates a connection whose delivery watermark starts at
// the client's last acknowledged sequence.
func NewConnection(userID uuid.UUID, ws *websocket.Conn, lastAck int64) *Connection {
	return &Connection{
		UserID:    userID,
		Conn:      ws,
		Send:      make(chan []byte, sendBufferSize),
		delivered: lastAck,
	}
}

type deliverResult int

const (
	deliverQueued deliverResult = iota
	deliverStale
	deliverBlocked
)

// tryDeliver queues data for the writer pump unless seq was already
// handed to this connection, the buffer is full, or the connection is
// closed. The watermark only moves forward, so a repeated or late push
// can never reorder or duplicate what the client sees; anything not
// queued here stays in the outbox.
func (c *Connection) tryDeliver(data []byte, seq int64) deliverResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return deliverBlocked
	}
	if seq <= c.delivered {
		return deliverStale
	}
	select {
	case c.Send <- data:
		c.delivered = seq
		return deliverQueued
	default:
		return deliverBlocked
	}
}

// lastDelivered returns the newest sequence handed to this connection
func (c *Connection) lastDelivered() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delivered
}

// close shuts the send channel exactly once. tryDeliver holds the same
// lock, so no send can race the close.
func (c *Connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// PresenceListener is notified when a user's first connection comes up
// or their last one drops.
type PresenceListener func(userID uuid.UUID, online bool)

// Hub manages live connections with Redis Pub/Sub for cross-instance
// delivery. With a nil Redis client it degrades to single-instance
// local delivery.
type Hub struct {
	// Local connections (this server instance only)
	connections map[uuid.UUID]map[*Connection]bool

	redis  *redis.Client
	pubsub *redis.PubSub

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc

	instanceID         string
	publishUserEventFn func(ctx context.Context, channel string, payload []byte) error

	onPresenceChange PresenceListener
}

// NewHub creates a hub
func NewHub(redisClient *redis.Client) *Hub {
	return NewHubWithInstanceID(redisClient, uuid.NewString())
}

// NewHubWithInstanceID creates a hub with an explicit instance identifier
func NewHubWithInstanceID(redisClient *redis.Client, instanceID string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		connections: make(map[uuid.UUID]map[*Connection]bool),
		redis:       redisClient,
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
		instanceID:  instanceID,
	}

	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, presenceChannel, userEventsChannel)
		h.publishUserEventFn = func(ctx context.Context, channel string, payload []byte) error {
			return redisClient.Publish(ctx, channel, payload).Err()
		}
	}

	return h
}

// SetPresenceListener registers the presence callback. Set before Run.
func (h *Hub) SetPresenceListener(listener PresenceListener) {
	h.onPresenceChange = listener
}

// Run starts the hub (call in goroutine)
func (h *Hub) Run() {
	if h.pubsub != nil {
		go h.runRedisSubscriber()
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			firstConnection := len(h.connections[conn.UserID]) == 0
			if h.connections[conn.UserID] == nil {
				h.connections[conn.UserID] = make(map[*Connection]bool)
			}
			h.connections[conn.UserID][conn] = true
			h.mu.Unlock()
			wsConnectionsGauge.Add(1)

			h.publishPresence(conn.UserID, true)
			if firstConnection {
				h.notifyPresence(conn.UserID, true)
			}
			log.Debug().Str("user_id", conn.UserID.String()).Msg("User connected")

		case conn := <-h.unregister:
			lastConnection := false
			h.mu.Lock()
			if conns, ok := h.connections[conn.UserID]; ok {
				if _, exists := conns[conn]; exists {
					delete(conns, conn)
					conn.close()
					wsConnectionsGauge.Add(-1)
				}
				if len(conns) == 0 {
					delete(h.connections, conn.UserID)
					lastConnection = true
				}
			}
			h.mu.Unlock()

			if lastConnection {
				h.publishPresence(conn.UserID, false)
				h.notifyPresence(conn.UserID, false)
			}
			log.Debug().Str("user_id", conn.UserID.String()).Msg("User disconnected")
		}
	}
}

// notifyPresence runs the presence callback off the hub loop so a slow
// listener cannot stall registration.
func (h *Hub) notifyPresence(userID uuid.UUID, online bool) {
	if h.onPresenceChange == nil {
		return
	}
	go h.onPresenceChange(userID, online)
}

// runRedisSubscriber listens for messages from Redis Pub/Sub
func (h *Hub) runRedisSubscriber() {
	ch := h.pubsub.Channel()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			switch msg.Channel {
			case presenceChannel:
				log.Debug().Str("presence", msg.Payload).Msg("Presence update received")
			case userEventsChannel:
				h.handleUserEventPayload(msg.Payload)
			}
		}
	}
}

func (h *Hub) handleUserEventPayload(payload string) {
	var event userEventMessage
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return
	}
	if event.SenderInstanceID == h.instanceID {
		return
	}
	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		return
	}
	h.sendLocal(userID, []byte(event.Payload), event.Seq)
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// SendToUser delivers a payload to all of the user's live connections
// on any instance. seq is the event's outbox sequence; connections skip
// anything at or below their delivery watermark. Delivery is best
// effort; durability comes from the outbox, not from this path.
func (h *Hub) SendToUser(userID uuid.UUID, data []byte, seq int64) error {
	h.sendLocal(userID, data, seq)
	return h.publishUserEvent(userID, data, seq)
}

func (h *Hub) sendLocal(userID uuid.UUID, data []byte, seq int64) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.connections[userID]))
	for conn := range h.connections[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		switch conn.tryDeliver(data, seq) {
		case deliverQueued:
			wsEventsSentTotal.Add(1)
		case deliverStale:
			// Already handed to this connection.
		case deliverBlocked:
			// Buffer full or connection gone; the event stays in the outbox
			wsEventsDroppedTotal.Add(1)
			log.Warn().Str("user_id", userID.String()).Int64("seq", seq).Msg("Send buffer full")
		}
	}
}

func (h *Hub) publishUserEvent(userID uuid.UUID, data []byte, seq int64) error {
	if h.publishUserEventFn == nil {
		return nil
	}

	event := userEventMessage{
		UserID:           userID.String(),
		Seq:              seq,
		Payload:          data,
		SenderInstanceID: h.instanceID,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.publishUserEventFn(h.ctx, userEventsChannel, payload)
}

// publishPresence publishes user online/offline status to Redis
func (h *Hub) publishPresence(userID uuid.UUID, online bool) {
	if h.redis == nil {
		return
	}

	ctx := context.Background()

	if online {
		h.redis.SAdd(ctx, presenceKey, userID.String())
		h.redis.Expire(ctx, presenceKey, 5*time.Minute)
		h.redis.Publish(ctx, presenceChannel, fmt.Sprintf("%s:online", userID))
	} else {
		h.redis.SRem(ctx, presenceKey, userID.String())
		h.redis.Publish(ctx, presenceChannel, fmt.Sprintf("%s:offline", userID))
	}
}

// IsOnline checks if user is online (across all instances)
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	if h.redis == nil {
		h.mu.RLock()
		conns, ok := h.connections[userID]
		h.mu.RUnlock()
		return ok && len(conns) > 0
	}

	return h.redis.SIsMember(context.Background(), presenceKey, userID.String()).Val()
}

// GetOnlineUsers filters the given list down to users currently online
func (h *Hub) GetOnlineUsers(userIDs []uuid.UUID) []uuid.UUID {
	if h.redis == nil {
		h.mu.RLock()
		defer h.mu.RUnlock()

		online := make([]uuid.UUID, 0)
		for _, id := range userIDs {
			if conns, ok := h.connections[id]; ok && len(conns) > 0 {
				online = append(online, id)
			}
		}
		return online
	}

	members := h.redis.SMembers(context.Background(), presenceKey).Val()
	memberSet := make(map[string]bool)
	for _, m := range members {
		memberSet[m] = true
	}

	online := make([]uuid.UUID, 0)
	for _, id := range userIDs {
		if memberSet[id.String()] {
			online = append(online, id)
		}
	}

	return online
}

// GetConnectionCount returns number of local connections
func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.connections {
		total += len(conns)
	}
	return total
}

// Shutdown gracefully shuts down the hub
func (h *Hub) Shutdown() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
}
