package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/nearlink/nearlink-api/internal/pkg/jwt"
	"github.com/nearlink/nearlink-api/internal/pkg/response"
)

// WebSocket constants
const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4 * 1024 // 4KB, clients only send acks
)

// clientMessage is what clients may send over the channel
type clientMessage struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq"`
}

// Handler handles the WebSocket endpoint
type Handler struct {
	hub        *Hub
	dispatcher *Dispatcher
	jwtService *jwt.Service
	pongWait   time.Duration
	upgrader   websocket.Upgrader
}

// NewHandler creates the realtime handler. pongWait is the heartbeat
// timeout: a connection that neither pongs nor sends within it is torn
// down, and its undelivered events wait in the outbox.
func NewHandler(hub *Hub, dispatcher *Dispatcher, jwtService *jwt.Service, pongWait time.Duration, allowedOrigins []string) *Handler {
	return &Handler{
		hub:        hub,
		dispatcher: dispatcher,
		jwtService: jwtService,
		pongWait:   pongWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")

				// Allow all in development
				if len(allowedOrigins) == 0 {
					return true
				}

				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}

				log.Warn().Str("origin", origin).Msg("WebSocket origin rejected")
				return false
			},
		},
	}
}

// WebSocket handles GET /ws?token=&last_ack=
//
// Browsers cannot set headers on WebSocket requests, so the access
// token travels as a query parameter. last_ack is the highest sequence
// the client has processed; everything after it is replayed before live
// events flow.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	claims, err := h.jwtService.ValidateAccessToken(r.URL.Query().Get("token"))
	if err != nil {
		response.Unauthorized(w, "Invalid or expired token")
		return
	}

	var lastAck int64
	if raw := r.URL.Query().Get("last_ack"); raw != "" {
		lastAck, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || lastAck < 0 {
			response.BadRequest(w, "Invalid last_ack")
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := NewConnection(claims.UserID, conn, lastAck)

	// Writer first so replayed events drain immediately.
	go h.wsWriter(client)

	// Replay the backlog before the hub can route live pushes here, so
	// a fresh event cannot jump ahead of older undelivered ones.
	if err := h.dispatcher.Replay(r.Context(), client, lastAck); err != nil {
		log.Error().Err(err).Str("user_id", client.UserID.String()).Msg("Outbox replay failed")
	}

	h.hub.Register(client)

	// Catch up on events appended while the replay ran. The delivery
	// watermark drops anything the live path got to first.
	if err := h.dispatcher.Replay(r.Context(), client, client.lastDelivered()); err != nil {
		log.Error().Err(err).Str("user_id", client.UserID.String()).Msg("Outbox catch-up failed")
	}

	go h.wsReader(client)
}

func (h *Handler) wsReader(client *Connection) {
	defer func() {
		h.hub.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(h.pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(h.pongWait))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", client.UserID.String()).Msg("WebSocket read error")
			}
			break
		}

		// Any readable message counts as liveness.
		client.Conn.SetReadDeadline(time.Now().Add(h.pongWait))

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "ack":
			if err := h.dispatcher.Ack(context.Background(), client.UserID, msg.Seq); err != nil {
				log.Error().Err(err).
					Str("user_id", client.UserID.String()).
					Int64("seq", msg.Seq).
					Msg("Failed to prune outbox on ack")
			}
		case "heartbeat":
			// Deadline already extended above.
		}
	}
}

func (h *Handler) wsWriter(client *Connection) {
	pingPeriod := h.pongWait * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
