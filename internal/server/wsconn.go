package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

const closeTimeout = time.Second

// wsConn adapts a server-side gobwas/ws connection to chat.Conn.
type wsConn struct {
	conn net.Conn
	rw   io.ReadWriter
	wmu  sync.Mutex
}

// upgradeWebSocket completes the handshake on a connection whose request
// line was already peeked into reader.
func upgradeWebSocket(conn net.Conn, reader *bufio.Reader) (*wsConn, error) {
	rw := struct {
		io.Reader
		io.Writer
	}{reader, conn}

	if _, err := ws.Upgrade(rw); err != nil {
		return nil, fmt.Errorf("websocket upgrade failed: %w", err)
	}
	return &wsConn{conn: conn, rw: rw}, nil
}

// Read implements chat.Conn. Control frames are answered transparently and
// a close frame is reported as io.EOF.
func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		data, op, err := wsutil.ReadClientData(c.rw)
		if err != nil {
			var closed wsutil.ClosedError
			if errors.As(err, &closed) {
				return nil, io.EOF
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}
		if op == ws.OpText || op == ws.OpBinary {
			return data, nil
		}
	}
}

// Write implements chat.Conn.
func (c *wsConn) Write(ctx context.Context, data []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return wsutil.WriteServerText(c.conn, data)
}

// Close implements chat.Conn.
func (c *wsConn) Close() error {
	// Bounds both a writer stuck on a stalled peer and the close frame.
	_ = c.conn.SetWriteDeadline(time.Now().Add(closeTimeout))
	c.wmu.Lock()
	_ = wsutil.WriteServerMessage(c.conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
	c.wmu.Unlock()
	return c.conn.Close()
}

// RemoteAddr implements chat.Conn.
func (c *wsConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
