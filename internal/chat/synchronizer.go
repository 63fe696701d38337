package chat

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/omochice/chatsync/pkg/protocol"
)

var (
	ErrEmptyUsername    = errors.New("username must not be empty")
	ErrAlreadyConnected = errors.New("already connected")
	ErrNotConnected     = errors.New("not connected to server")
	ErrSendFailed       = errors.New("failed to send envelope")
)

// Sender hands an encoded envelope to the transport. It must not block on
// delivery.
type Sender interface {
	Send(data []byte) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(data []byte) error

// Send calls f(data).
func (f SenderFunc) Send(data []byte) error {
	return f(data)
}

// Publisher receives the notifications emitted by a Synchronizer.
type Publisher interface {
	Publish(n Notification) error
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger used for dropped envelopes.
func WithLogger(log *slog.Logger) Option {
	return func(s *Synchronizer) { s.log = log }
}

// WithAvatarFunc replaces DiceBearAvatar.
func WithAvatarFunc(f AvatarFunc) Option {
	return func(s *Synchronizer) { s.avatar = f }
}

// WithCodec replaces protocol.JSON.
func WithCodec(c protocol.Codec) Option {
	return func(s *Synchronizer) { s.codec = c }
}

// Synchronizer is the only writer of a connection's State. It applies
// inbound envelopes, publishes a notification for every state change and
// encodes outbound traffic.
//
// A Synchronizer is not safe for concurrent use: callers must feed it from
// a single goroutine, which is what client.Session does.
type Synchronizer struct {
	log       *slog.Logger
	publisher Publisher
	sender    Sender
	codec     protocol.Codec
	avatar    AvatarFunc

	status   Status
	username string
	state    State
}

// NewSynchronizer creates a disconnected Synchronizer.
func NewSynchronizer(publisher Publisher, sender Sender, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		log:       slog.Default(),
		publisher: publisher,
		sender:    sender,
		codec:     protocol.JSON,
		avatar:    DiceBearAvatar,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the current connection status.
func (s *Synchronizer) Status() Status {
	return s.status
}

// Username returns the name sent with the last register envelope.
func (s *Synchronizer) Username() string {
	return s.username
}

// Roster returns a copy of the roster.
func (s *Synchronizer) Roster() []UserProfile {
	return s.state.Roster()
}

// Log returns a copy of the message log.
func (s *Synchronizer) Log() []protocol.ChatMessage {
	return s.state.Log()
}

// LookupProfile returns the roster profile named sender, or a placeholder
// profile when nobody by that name is in the roster. The roster is never
// modified.
func (s *Synchronizer) LookupProfile(sender string) UserProfile {
	if p, ok := s.state.lookup(sender); ok {
		return p
	}
	return UserProfile{Name: sender, AvatarRef: PlaceholderAvatar}
}

// OnConnect registers username with the server. It must be called once per
// connection, before any inbound envelope.
func (s *Synchronizer) OnConnect(username string) error {
	if username == "" {
		return ErrEmptyUsername
	}
	if s.status != StatusDisconnected {
		return ErrAlreadyConnected
	}

	s.username = username
	s.status = StatusRegistering
	s.publish(ConnectionChanged{Status: StatusRegistering})

	if err := s.send(protocol.NewRegister(username)); err != nil {
		return err
	}
	s.log.Debug("Register sent", "username", username)
	return nil
}

// OnDisconnect records that the transport closed. Roster and log keep their
// last values.
func (s *Synchronizer) OnDisconnect() {
	if s.status == StatusDisconnected {
		return
	}
	s.status = StatusDisconnected
	s.publish(ConnectionChanged{Status: StatusDisconnected})
}

// OnInboundText decodes a raw frame and applies it. Envelope-level decode
// failures are returned and leave the state untouched.
func (s *Synchronizer) OnInboundText(data []byte) error {
	env, err := s.codec.Decode(data)
	if err != nil {
		s.log.Debug("Dropped malformed envelope", "error", err)
		return err
	}
	s.OnInboundEnvelope(env)
	return nil
}

// OnInboundEnvelope applies env to the state and publishes the matching
// notification. Register envelopes and unknown kinds are ignored, and a
// message whose payload cannot be decoded is dropped without notification.
func (s *Synchronizer) OnInboundEnvelope(env protocol.Envelope) {
	if s.status == StatusRegistering {
		s.status = StatusActive
	}

	switch env.Kind {
	case protocol.KindUsers:
		s.state.replaceRoster(env.PayloadList, s.avatar)
		s.publish(RosterChanged{Roster: s.state.Roster()})
	case protocol.KindMessage:
		msg, err := env.ChatMessage()
		if err != nil {
			s.log.Debug("Dropped message with malformed payload", "error", err)
			return
		}
		idx := s.state.appendMessage(msg)
		s.publish(MessageReceived{Message: msg, Index: idx, Sender: s.LookupProfile(msg.Sender)})
	default:
		// Register only flows client to server.
		s.log.Debug("Ignored inbound envelope", "kind", env.Kind)
	}
}

// SubmitOutboundMessage sends text as a message from the registered user.
// The message is not added to the local log; it appears once the server
// relays it back.
func (s *Synchronizer) SubmitOutboundMessage(text string) error {
	if s.status == StatusDisconnected {
		return ErrNotConnected
	}

	payload, err := protocol.EncodeChatMessage(protocol.ChatMessage{Sender: s.username, Body: text})
	if err != nil {
		return err
	}
	return s.send(protocol.NewMessage(payload))
}

func (s *Synchronizer) send(env protocol.Envelope) error {
	data, err := s.codec.Encode(env)
	if err != nil {
		// Envelopes built here always satisfy their kind's payload rules.
		panic(fmt.Sprintf("encode %s envelope: %v", env.Kind, err))
	}
	if err := s.sender.Send(data); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return nil
}

func (s *Synchronizer) publish(n Notification) {
	if s.publisher == nil {
		return
	}
	// Handler failures are isolated and logged by the publisher.
	_ = s.publisher.Publish(n)
}
