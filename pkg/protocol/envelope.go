// Package protocol defines the wire envelope exchanged with the chat server
// and the codecs that map it to and from raw frames.
package protocol

import "fmt"

// Kind is the discriminator of an Envelope.
type Kind int

const (
	KindUsers Kind = iota
	KindRegister
	KindMessage
)

// String returns the lowercase wire tag of the kind.
func (k Kind) String() string {
	switch k {
	case KindUsers:
		return "users"
	case KindRegister:
		return "register"
	case KindMessage:
		return "message"
	default:
		return "unknown"
	}
}

// ParseKind maps a wire tag to a Kind.
func ParseKind(tag string) (Kind, error) {
	switch tag {
	case "users":
		return KindUsers, nil
	case "register":
		return KindRegister, nil
	case "message":
		return KindMessage, nil
	default:
		return 0, fmt.Errorf("unknown message type %q", tag)
	}
}

// Envelope is the unit exchanged with the server in both directions.
//
// PayloadList is only meaningful for KindUsers, PayloadText for KindRegister
// and KindMessage. A nil field is absent on the wire.
type Envelope struct {
	Kind        Kind
	PayloadList []string
	PayloadText *string
}

// NewUsers builds a roster snapshot envelope.
func NewUsers(names []string) Envelope {
	return Envelope{Kind: KindUsers, PayloadList: names}
}

// NewRegister builds the envelope announcing the local username.
func NewRegister(username string) Envelope {
	return Envelope{Kind: KindRegister, PayloadText: &username}
}

// NewMessage builds a message envelope carrying an already encoded payload.
func NewMessage(payload string) Envelope {
	return Envelope{Kind: KindMessage, PayloadText: &payload}
}

// Text returns PayloadText or the empty string when it is absent.
func (e Envelope) Text() string {
	if e.PayloadText == nil {
		return ""
	}
	return *e.PayloadText
}

// Validate reports whether the payload fields match the kind.
func (e Envelope) Validate() error {
	switch e.Kind {
	case KindUsers:
		if e.PayloadText != nil {
			return fmt.Errorf("%s envelope must not carry data", e.Kind)
		}
	case KindRegister, KindMessage:
		if e.PayloadList != nil {
			return fmt.Errorf("%s envelope must not carry dataArray", e.Kind)
		}
		if e.PayloadText == nil {
			return fmt.Errorf("%s envelope requires data", e.Kind)
		}
	default:
		return fmt.Errorf("unknown envelope kind %d", int(e.Kind))
	}
	return nil
}

// ChatMessage extracts the nested {from, message} payload of a KindMessage
// envelope.
func (e Envelope) ChatMessage() (ChatMessage, error) {
	if e.Kind != KindMessage {
		return ChatMessage{}, &DecodeError{
			Kind: MalformedPayload,
			Err:  fmt.Errorf("%s envelope has no message payload", e.Kind),
		}
	}
	if e.PayloadText == nil {
		return ChatMessage{}, &DecodeError{
			Kind: MalformedPayload,
			Err:  fmt.Errorf("message envelope without data"),
		}
	}
	return DecodeChatMessage(*e.PayloadText)
}
