// Package chat holds the client-side chat state and the synchronizer that
// keeps it consistent with the server.
package chat

import "context"

// Conn abstracts a bidirectional, frame-oriented connection to the chat
// server. Every frame carries exactly one encoded envelope.
type Conn interface {
	// Read blocks until the next frame arrives.
	// Returns io.EOF when the connection is closed.
	Read(ctx context.Context) ([]byte, error)

	// Write sends a single frame.
	Write(ctx context.Context, data []byte) error

	// Close closes the connection.
	Close() error

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}
