// Package client runs a chat session: it pumps frames between a transport
// connection and a chat.Synchronizer on a single processing goroutine.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/omochice/chatsync/internal/chat"
	"github.com/omochice/chatsync/internal/notify"
	"github.com/omochice/chatsync/pkg/protocol"
)

var (
	ErrOutboundFull  = errors.New("outbound queue is full")
	ErrSessionClosed = errors.New("session closed")
)

// DefaultBufferSize is the capacity of the inbound and outbound queues.
const DefaultBufferSize = 64

// Options configures a Session.
type Options struct {
	Username   string
	Codec      protocol.Codec
	BufferSize int
	Avatar     chat.AvatarFunc
	Log        *slog.Logger
}

type submission struct {
	text   string
	result chan error
}

// Session owns one connection lifetime. Inbound frames and outbound
// submissions are applied to the synchronizer in arrival order on the
// goroutine running Run, so notification handlers subscribed to the bus run
// there too.
type Session struct {
	log      *slog.Logger
	conn     chat.Conn
	bus      *notify.Bus[chat.Notification]
	sync     *chat.Synchronizer
	username string

	inbound  chan []byte
	outbound chan []byte
	submits  chan submission
	readErr  chan error

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a Session over conn publishing to bus.
func New(conn chat.Conn, bus *notify.Bus[chat.Notification], opts Options) *Session {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Codec == nil {
		opts.Codec = protocol.JSON
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.Avatar == nil {
		opts.Avatar = chat.DiceBearAvatar
	}

	s := &Session{
		log:      opts.Log.With("remote", conn.RemoteAddr()),
		conn:     conn,
		bus:      bus,
		username: opts.Username,
		inbound:  make(chan []byte, opts.BufferSize),
		outbound: make(chan []byte, opts.BufferSize),
		submits:  make(chan submission),
		readErr:  make(chan error, 1),
		done:     make(chan struct{}),
	}
	s.sync = chat.NewSynchronizer(bus, chat.SenderFunc(s.enqueue),
		chat.WithLogger(opts.Log),
		chat.WithCodec(opts.Codec),
		chat.WithAvatarFunc(opts.Avatar),
	)
	return s
}

// Bus returns the bus notifications are published on.
func (s *Session) Bus() *notify.Bus[chat.Notification] {
	return s.bus
}

// Run registers the user and processes traffic until ctx is cancelled,
// Close is called or the server closes the connection. The connection is
// closed when Run returns. A clean shutdown returns nil.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.wg.Add(2)
	go s.readLoop(ctx)
	go s.writeLoop(ctx)

	defer func() {
		s.sync.OnDisconnect()
		s.closeOnce.Do(func() { close(s.done) })
		close(s.outbound)
		cancel()
		_ = s.conn.Close()
		s.wg.Wait()
	}()

	if err := s.sync.OnConnect(s.username); err != nil {
		return fmt.Errorf("failed to register: %w", err)
	}
	s.log.Info("Session started", "username", s.username)

	for {
		select {
		case data := <-s.inbound:
			s.apply(data)
		case sub := <-s.submits:
			sub.result <- s.sync.SubmitOutboundMessage(sub.text)
		case err := <-s.readErr:
			s.drainInbound()
			if errors.Is(err, io.EOF) {
				s.log.Info("Server closed connection")
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		case <-s.done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// Send submits text as a chat message. It returns once the envelope is
// queued for the transport, not when the server has seen it.
func (s *Session) Send(ctx context.Context, text string) error {
	sub := submission{text: text, result: make(chan error, 1)}
	select {
	case s.submits <- sub:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-sub.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops a running session.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Done is closed once the session has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) apply(data []byte) {
	if err := s.sync.OnInboundText(data); err != nil {
		s.log.Warn("Dropped inbound frame", "error", err)
	}
}

// drainInbound applies frames the reader queued before it stopped.
func (s *Session) drainInbound() {
	for {
		select {
		case data := <-s.inbound:
			s.apply(data)
		default:
			return
		}
	}
}

// enqueue is the synchronizer's Sender. It never blocks.
func (s *Session) enqueue(data []byte) error {
	select {
	case s.outbound <- data:
		return nil
	default:
		return ErrOutboundFull
	}
}

func (s *Session) readLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		data, err := s.conn.Read(ctx)
		if err != nil {
			s.readErr <- err
			return
		}
		select {
		case s.inbound <- data:
		case <-ctx.Done():
			s.readErr <- ctx.Err()
			return
		}
	}
}

func (s *Session) writeLoop(ctx context.Context) {
	defer s.wg.Done()
	for data := range s.outbound {
		if err := s.conn.Write(ctx, data); err != nil {
			s.log.Warn("Failed to write to server", "error", err)
			if ctx.Err() != nil {
				return
			}
		}
	}
}
