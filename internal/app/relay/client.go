/*
Package relay contains the session and routing engine of the ZeroChat server.

This file defines the Client struct, the websocket-backed implementation of
Conn. It manages the connection lifecycle, the message pump loops (ReadPump
and WritePump), and hands every inbound frame to the Router.
*/
package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"zerochat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxFrameSize = 8192

	// outboundBuffer is the capacity of the per-connection send queue.
	outboundBuffer = 256

	// WsCloseCodeSessionKicked is a custom WebSocket Close Code (4000-4999
	// range) signaling the client that its session was replaced or revoked.
	WsCloseCodeSessionKicked = 4001
)

// Client represents an active WebSocket connection as seen by the relay.
type Client struct {
	// underlying WebSocket connection object.
	conn *websocket.Conn

	// the router that handles every inbound frame.
	router *Router

	// a buffered channel used to queue payloads waiting to be written.
	send chan []byte

	// closeMu guards closed; Send must never write to a closed channel.
	closeMu sync.RWMutex
	closed  bool

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs a Client around an upgraded websocket connection.
func NewClient(router *Router, wsConn *websocket.Conn) *Client {
	clientLogger := logx.Logger().With().
		Str("component", "client").
		Str("remote_addr", wsConn.RemoteAddr().String()).
		Logger()

	return &Client{
		conn:   wsConn,
		router: router,
		send:   make(chan []byte, outboundBuffer),
		logger: clientLogger,
	}
}

// Send queues a payload for transmission without blocking. A full or closed
// outbound queue is reported as an error; the router treats that as the
// recipient being unreachable.
func (c *Client) Send(payload []byte) error {
	c.closeMu.RLock()
	defer c.closeMu.RUnlock()

	if c.closed {
		return fmt.Errorf("connection closed")
	}

	select {
	case c.send <- payload:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping payload")
		return fmt.Errorf("client send queue full")
	}
}

// Kick closes the connection with a custom close frame indicating the session
// was replaced, then shuts the outbound queue down.
func (c *Client) Kick(reason string) {
	c.logger.Warn().
		Int("close_code", WsCloseCodeSessionKicked).
		Str("reason", reason).
		Msg("Sending WS Kick message and closing connection.")

	closeMessage := websocket.FormatCloseMessage(WsCloseCodeSessionKicked, reason)

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to send WS 4001 Close Message.")
	}

	c.closeSend()
}

// closeSend marks the client closed and closes the send channel exactly once.
func (c *Client) closeSend() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump reads frames from the WebSocket connection and dispatches them to
// the Router. It handles heartbeats (Pong) and performs cleanup when the
// connection closes.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxFrameSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading frame (client close/going away)")
			}
			break
		}

		c.router.Dispatch(context.Background(), c, frame)
	}
}

// cleanupOnDisconnect tears down the session and transport when ReadPump ends.
func (c *Client) cleanupOnDisconnect() {
	c.router.HandleDisconnect(c)

	c.closeSend()

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// WritePump writes payloads from the send channel to the WebSocket connection
// and keeps the heartbeat alive.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !c.writeQueuedPayload(payload, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedPayload writes one payload pulled from the send channel.
// Returns false when the WritePump loop should terminate.
func (c *Client) writeQueuedPayload(payload []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.logger.Error().Err(err).Msg("Error writing payload")
		return false
	}

	return true
}

// writePingMessage sends a periodic Ping to maintain the connection heartbeat.
// Returns false when the WritePump loop should terminate.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
