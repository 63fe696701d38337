// Package server implements a relay chat server speaking the envelope
// protocol. WebSocket clients (JSON text frames) and raw TCP clients
// (binary frames) are accepted on the same port.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/omochice/chatsync/internal/chat"
	"github.com/omochice/chatsync/internal/transport/tcp"
	"github.com/omochice/chatsync/pkg/protocol"
)

// ErrServerStopped is returned by Start after Stop.
var ErrServerStopped = errors.New("server stopped")

// DefaultOutgoingBuffer is the per-client outgoing queue capacity.
const DefaultOutgoingBuffer = 32

// Server is the relay chat server.
type Server struct {
	address        string
	log            *slog.Logger
	outgoingBuffer int
	hub            *Hub

	mu       sync.RWMutex
	listener net.Listener
	conns    map[net.Conn]struct{}

	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a Server listening on address once started.
func New(address string, log *slog.Logger, outgoingBuffer int) *Server {
	if log == nil {
		log = slog.Default()
	}
	if outgoingBuffer <= 0 {
		outgoingBuffer = DefaultOutgoingBuffer
	}
	return &Server{
		address:        address,
		log:            log,
		outgoingBuffer: outgoingBuffer,
		hub:            NewHub(log),
		conns:          make(map[net.Conn]struct{}),
		quit:           make(chan struct{}),
	}
}

// Start listens and serves until Stop is called, then returns
// ErrServerStopped.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.mu.Lock()
	select {
	case <-s.quit:
		s.mu.Unlock()
		listener.Close()
		return ErrServerStopped
	default:
	}
	s.listener = listener
	s.mu.Unlock()

	s.log.Info("Server started", "address", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return ErrServerStopped
			default:
				s.log.Warn("Failed to accept connection", "error", err)
				continue
			}
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// Stop closes the listener and every client connection and waits for
// client goroutines to finish.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)

		s.mu.Lock()
		if s.listener != nil {
			s.listener.Close()
		}
		for conn := range s.conns {
			conn.Close()
		}
		s.mu.Unlock()

		s.wg.Wait()
	})
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

// Usernames returns the current roster.
func (s *Server) Usernames() []string {
	return s.hub.Usernames()
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	proto, reader, err := detectProtocol(conn)
	if err != nil {
		s.log.Debug("Failed to peek connection", "remote", conn.RemoteAddr().String(), "error", err)
		return
	}

	p := &peer{
		id:       uuid.NewString(),
		outgoing: make(chan []byte, s.outgoingBuffer),
	}
	switch proto {
	case protocolWebSocket:
		wc, err := upgradeWebSocket(conn, reader)
		if err != nil {
			s.log.Warn("Rejected connection", "remote", conn.RemoteAddr().String(), "error", err)
			return
		}
		p.conn, p.codec = wc, protocol.JSON
	default:
		p.conn, p.codec = tcp.NewConnWithReader(conn, reader), protocol.Binary
	}

	s.log.Info("Client connected", "peer", p.id, "protocol", proto, "remote", p.conn.RemoteAddr())
	s.servePeer(p)
}

// servePeer runs the read loop of p until it disconnects.
func (s *Server) servePeer(p *peer) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.hub.add(p)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(ctx, p)
	}()

	defer func() {
		if s.hub.remove(p) {
			s.hub.broadcastRoster()
		}
		close(p.outgoing)
		_ = p.conn.Close()
		<-writerDone
		s.log.Info("Client disconnected", "peer", p.id)
	}()

	for {
		data, err := p.conn.Read(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.log.Debug("Error reading from client", "peer", p.id, "error", err)
			}
			return
		}

		env, err := p.codec.Decode(data)
		if err != nil {
			s.log.Warn("Failed to decode envelope", "peer", p.id, "error", err)
			continue
		}
		s.handleEnvelope(p, env)
	}
}

func (s *Server) handleEnvelope(p *peer, env protocol.Envelope) {
	switch env.Kind {
	case protocol.KindRegister:
		username := env.Text()
		if username == "" {
			s.log.Warn("Ignored register without username", "peer", p.id)
			return
		}
		s.hub.register(p, username)
		s.log.Info("User registered", "peer", p.id, "username", username)
		s.hub.broadcastRoster()
	case protocol.KindMessage:
		username := s.hub.usernameOf(p)
		if username == "" {
			s.log.Warn("Ignored message from unregistered client", "peer", p.id)
			return
		}
		msg, err := env.ChatMessage()
		if err != nil {
			if env.PayloadText == nil {
				s.log.Warn("Ignored message without data", "peer", p.id)
				return
			}
			// Older clients send the bare text as data.
			msg = protocol.ChatMessage{Body: env.Text()}
		}
		msg.Sender = username

		payload, err := protocol.EncodeChatMessage(msg)
		if err != nil {
			s.log.Error("Failed to encode message", "peer", p.id, "error", err)
			return
		}
		s.log.Debug("Relaying message", "from", username)
		s.hub.broadcast(protocol.NewMessage(payload))
	default:
		s.log.Debug("Ignored envelope", "peer", p.id, "kind", env.Kind)
	}
}

func (s *Server) writeLoop(ctx context.Context, p *peer) {
	for data := range p.outgoing {
		// Failed writes keep draining the queue until servePeer closes it.
		if err := p.conn.Write(ctx, data); err != nil {
			s.log.Debug("Failed to write to client", "peer", p.id, "error", err)
		}
	}
}

// compile-time interface checks
var (
	_ chat.Conn = (*wsConn)(nil)
	_ chat.Conn = (*tcp.Conn)(nil)
)
