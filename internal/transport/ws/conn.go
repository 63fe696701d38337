// Package ws provides the WebSocket transport used to reach the chat server.
package ws

import (
	"context"
	"errors"
	"fmt"
	"io"

	"nhooyr.io/websocket"
)

// ReadLimit bounds a single inbound message.
const ReadLimit = 1 << 20

// Conn adapts nhooyr.io/websocket to chat.Conn. Envelopes travel as text
// messages.
type Conn struct {
	conn       *websocket.Conn
	remoteAddr string
}

// NewConn wraps a websocket.Conn with empty remote address.
func NewConn(conn *websocket.Conn) *Conn {
	return &Conn{conn: conn}
}

// NewConnWithAddr wraps a websocket.Conn with the specified remote address.
func NewConnWithAddr(conn *websocket.Conn, addr string) *Conn {
	return &Conn{conn: conn, remoteAddr: addr}
}

// Dial opens a WebSocket connection to url.
func Dial(ctx context.Context, url string) (*Conn, error) {
	conn, resp, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	conn.SetReadLimit(ReadLimit)

	addr := url
	if resp != nil && resp.Request != nil {
		addr = resp.Request.URL.Host
	}
	return NewConnWithAddr(conn, addr), nil
}

// Read implements chat.Conn.
// A normal closure from the server is reported as io.EOF.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return nil, io.EOF
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return data, nil
}

// Write implements chat.Conn.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// Close implements chat.Conn.
func (c *Conn) Close() error {
	err := c.conn.Close(websocket.StatusNormalClosure, "")
	var closeErr websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Code == websocket.StatusNormalClosure {
		return nil
	}
	return err
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.remoteAddr
}
