package server

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/omochice/chatsync/internal/chat"
	"github.com/omochice/chatsync/pkg/protocol"
)

// peer is one connected client.
type peer struct {
	id       string
	conn     chat.Conn
	codec    protocol.Codec
	outgoing chan []byte
	username string
}

// Hub tracks connected peers in connection order and fans envelopes out to
// the registered ones. WebSocket and TCP peers share a single Hub.
type Hub struct {
	log   *slog.Logger
	peers []*peer
	mu    sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{log: log}
}

// add puts p in the hub. It is not part of the roster until it registers.
func (h *Hub) add(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.peers = append(h.peers, p)
}

// remove takes p out of the hub and reports whether it had registered.
func (h *Hub) remove(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.peers = slices.DeleteFunc(h.peers, func(q *peer) bool { return q == p })
	return p.username != ""
}

// register sets the username of p.
func (h *Hub) register(p *peer, username string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p.username = username
}

func (h *Hub) usernameOf(p *peer) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return p.username
}

// ClientCount returns number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Usernames returns the roster snapshot: registered usernames in
// connection order.
func (h *Hub) Usernames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return lo.FilterMap(h.peers, func(p *peer, _ int) (string, bool) {
		return p.username, p.username != ""
	})
}

// broadcast queues env for every registered peer. Peers whose queue is full
// miss the envelope.
func (h *Hub) broadcast(env protocol.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, p := range h.peers {
		if p.username == "" {
			continue
		}
		data, err := p.codec.Encode(env)
		if err != nil {
			h.log.Error("Failed to encode envelope", "peer", p.id, "error", err)
			continue
		}
		select {
		case p.outgoing <- data:
		default:
			h.log.Warn("Client channel full, skipping", "peer", p.id, "username", p.username)
		}
	}
}

// broadcastRoster sends the current roster snapshot to every registered
// peer.
func (h *Hub) broadcastRoster() {
	h.broadcast(protocol.NewUsers(h.Usernames()))
}
