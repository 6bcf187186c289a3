package handler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fooltable/durak-api/internal/room"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second // must be less than pongWait
	maxMsgSize  = 4096
	sendBufSize = 256
)

// wsConn adapts one gorilla connection to the room's Socket contract: a
// non-blocking Send feeding a single write pump, and an idempotent Close.
// playerID is set once by the read pump when JOIN succeeds; expiry is the
// session deadline the write pump polices on its ping ticks.
type wsConn struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID string
	expiry   atomic.Int64 // unix seconds; 0 until JOIN

	closeOnce sync.Once
	closed    chan struct{}
	reason    string
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{
		conn:   conn,
		send:   make(chan []byte, sendBufSize),
		closed: make(chan struct{}),
	}
}

// Send queues a frame for the write pump. False means the socket is closed
// or its buffer is full; the room drops the connection on false.
func (c *wsConn) Send(frame []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close asks the write pump to flush, send a close frame with the reason
// and tear the connection down. Safe from any goroutine, any number of
// times; only the first reason wins.
func (c *wsConn) Close(reason string) {
	c.closeOnce.Do(func() {
		c.reason = reason
		close(c.closed)
	})
}

// sessionExpired reports whether the JOIN session has a deadline in the
// past.
func (c *wsConn) sessionExpired(now time.Time) bool {
	exp := c.expiry.Load()
	return exp != 0 && now.Unix() >= exp
}

// writePump owns all writes on the connection. It sends queued frames,
// pings on a ticker, closes the peer when the session expires and flushes
// the buffer before delivering a server-side close reason.
func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.closed:
			c.flush()
			c.writeClose(c.reason)
			return
		case frame := <-c.send:
			if !c.writeFrame(frame) {
				return
			}
		case <-ticker.C:
			if c.sessionExpired(time.Now()) {
				c.writeFrame(room.ErrorFrame(room.CodeSessionExpired, "session expired"))
				c.writeClose("session expired")
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsConn) writeFrame(frame []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, frame) == nil
}

// flush drains frames the room queued before closing the socket, so the
// final ERROR still reaches the client ahead of the close frame.
func (c *wsConn) flush() {
	for {
		select {
		case frame := <-c.send:
			if !c.writeFrame(frame) {
				return
			}
		default:
			return
		}
	}
}

func (c *wsConn) writeClose(reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
