package client_test

import (
	"context"
	"io"
	"sync"

	"github.com/omochice/chatsync/internal/chat"
)

// mockConn is a mock implementation of chat.Conn for testing.
type mockConn struct {
	readCh       chan []byte
	readErr      error
	writtenMu    sync.Mutex
	written      [][]byte
	writeErr     error
	writeStarted chan struct{}
	writeBlock   chan struct{}
	closeMu      sync.Mutex
	closed       bool
	remoteAddr   string
}

func newMockConn(addr string) *mockConn {
	return &mockConn{
		readCh:       make(chan []byte, 10),
		writeStarted: make(chan struct{}, 100),
		remoteAddr:   addr,
	}
}

// Read returns queued frames, then readErr (io.EOF by default) once readCh
// is closed.
func (m *mockConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data, ok := <-m.readCh:
		if !ok {
			if m.readErr != nil {
				return nil, m.readErr
			}
			return nil, io.EOF
		}
		return data, nil
	}
}

func (m *mockConn) Write(ctx context.Context, data []byte) error {
	select {
	case m.writeStarted <- struct{}{}:
	default:
	}
	if m.writeBlock != nil {
		select {
		case <-m.writeBlock:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writtenMu.Lock()
	defer m.writtenMu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	m.written = append(m.written, copied)
	return nil
}

func (m *mockConn) Close() error {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) RemoteAddr() string {
	return m.remoteAddr
}

func (m *mockConn) GetWritten() [][]byte {
	m.writtenMu.Lock()
	defer m.writtenMu.Unlock()
	return append([][]byte(nil), m.written...)
}

func (m *mockConn) IsClosed() bool {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()
	return m.closed
}

// Compile-time check that mockConn implements chat.Conn
var _ chat.Conn = (*mockConn)(nil)
