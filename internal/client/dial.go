package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/omochice/chatsync/internal/chat"
	"github.com/omochice/chatsync/internal/transport/tcp"
	"github.com/omochice/chatsync/internal/transport/ws"
	"github.com/omochice/chatsync/pkg/protocol"
)

// Dial connects to the chat server at address and returns the codec the
// transport speaks. ws:// and wss:// carry JSON text frames, tcp:// carries
// binary frames.
func Dial(ctx context.Context, address string) (chat.Conn, protocol.Codec, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid server address %q: %w", address, err)
	}

	switch u.Scheme {
	case "ws", "wss":
		conn, err := ws.Dial(ctx, address)
		if err != nil {
			return nil, nil, err
		}
		return conn, protocol.JSON, nil
	case "tcp":
		conn, err := tcp.Dial(ctx, u.Host)
		if err != nil {
			return nil, nil, err
		}
		return conn, protocol.Binary, nil
	default:
		return nil, nil, fmt.Errorf("unsupported scheme %q in server address %q", u.Scheme, address)
	}
}
