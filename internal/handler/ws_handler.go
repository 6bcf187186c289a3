package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/fooltable/durak-api/internal/auth"
	"github.com/fooltable/durak-api/internal/repository"
	"github.com/fooltable/durak-api/internal/room"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS handled by middleware; tighten in production
	},
}

// WSHandler upgrades game connections and speaks the JOIN-first protocol.
// Everything after a successful JOIN is forwarded to the room actor; the
// handler itself only polices framing and authentication.
type WSHandler struct {
	rooms    *room.Registry
	sessions *auth.SessionManager
	users    repository.UserRepository
}

// NewWSHandler creates a WSHandler.
func NewWSHandler(rooms *room.Registry, sessions *auth.SessionManager, users repository.UserRepository) *WSHandler {
	return &WSHandler{rooms: rooms, sessions: sessions, users: users}
}

// ServeWS handles GET /ws/{roomId}. A plain GET without an upgrade header
// is refused with 426; an unknown room upgrades and then gets a
// ROOM_NOT_FOUND frame so the client sees a protocol-level error.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")
	if !websocket.IsWebSocketUpgrade(r) {
		writeError(w, http.StatusUpgradeRequired, "websocket upgrade required")
		return
	}

	rm, err := h.rooms.Get(r.Context(), roomID)
	if err != nil {
		log.Error().Err(err).Str("roomId", roomID).Msg("Room lookup failed")
		rm = nil
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := newWSConn(conn)
	go c.writePump()

	if rm == nil {
		c.Send(room.ErrorFrame(room.CodeRoomNotFound, "no such room: "+roomID))
		c.Close("room not found")
		return
	}
	go h.readPump(c, rm)
}

// readPump is the connection's single reader. It enforces JOIN-first,
// answers framing errors itself and hands everything else to the room.
func (h *WSHandler) readPump(c *wsConn, rm *room.Room) {
	joined := false
	defer func() {
		if joined {
			rm.Detach(c)
		}
		c.Close("connection closed")
		c.conn.Close()
		log.Debug().Str("roomId", rm.ID()).Str("playerId", c.playerID).Msg("WebSocket client disconnected")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("roomId", rm.ID()).Msg("WebSocket unexpected close")
			}
			return
		}

		f, ok := room.DecodeClientFrame(raw)
		if !ok {
			c.Send(room.ErrorFrame(room.CodeBadJSON, "frame is not valid JSON"))
			continue
		}
		if !room.KnownFrameType(f.Type) {
			c.Send(room.ErrorFrame(room.CodeUnknownMsg, fmt.Sprintf("unknown frame type %q", f.Type)))
			continue
		}

		if f.Type == room.FrameJoin {
			if joined {
				c.Send(room.ErrorFrame(room.CodeUnknownMsg, "already joined"))
				continue
			}
			sess, err := h.sessions.Verify(f.SessionToken)
			if err != nil {
				code := room.CodeBadSession
				if errors.Is(err, auth.ErrSessionExpired) {
					code = room.CodeSessionExpired
				}
				c.Send(room.ErrorFrame(code, "join rejected"))
				continue
			}
			c.playerID = sess.PlayerID
			c.expiry.Store(sess.ExpiresAt.Unix())
			if !rm.Attach(sess.PlayerID, h.lookupName(sess.PlayerID), c) {
				c.Send(room.ErrorFrame(room.CodeRoomNotReady, "room is not accepting connections"))
				return
			}
			joined = true
			continue
		}

		if !joined {
			c.Send(room.ErrorFrame(room.CodeNotJoined, "join first"))
			continue
		}
		if !rm.HandleFrame(c, f) {
			// Room stopped or overloaded; shed the connection.
			return
		}
	}
}

// lookupName resolves the player's display name off the request path; the
// read pump has no request context to inherit.
func (h *WSHandler) lookupName(playerID string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return displayName(ctx, h.users, playerID)
}
