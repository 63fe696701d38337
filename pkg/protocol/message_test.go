package protocol_test

import (
	"errors"
	"testing"

	"github.com/omochice/chatsync/pkg/protocol"
)

func TestDecodeChatMessage(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    protocol.ChatMessage
		wantErr bool
	}{
		{
			name: "decode message payload",
			text: `{"from":"bob","message":"hi"}`,
			want: protocol.ChatMessage{Sender: "bob", Body: "hi"},
		},
		{
			name: "allow empty body",
			text: `{"from":"bob","message":""}`,
			want: protocol.ChatMessage{Sender: "bob", Body: ""},
		},
		{
			name: "ignore extra fields",
			text: `{"from":"amy","message":"yo","ts":1}`,
			want: protocol.ChatMessage{Sender: "amy", Body: "yo"},
		},
		{name: "reject plain text", text: `hello there`, wantErr: true},
		{name: "reject missing sender", text: `{"message":"hi"}`, wantErr: true},
		{name: "reject empty sender", text: `{"from":"","message":"hi"}`, wantErr: true},
		{name: "reject missing body", text: `{"from":"bob"}`, wantErr: true},
		{name: "reject wrong types", text: `{"from":1,"message":"hi"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := protocol.DecodeChatMessage(tt.text)
			if tt.wantErr {
				if !errors.Is(err, protocol.ErrMalformedPayload) {
					t.Errorf("DecodeChatMessage() error = %v, want ErrMalformedPayload", err)
				}
				if errors.Is(err, protocol.ErrMalformed) {
					t.Errorf("DecodeChatMessage() error = %v must not match ErrMalformed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeChatMessage() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeChatMessage() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEncodeChatMessage_RoundTrip(t *testing.T) {
	original := protocol.ChatMessage{Sender: "testuser", Body: `quote " and <tag>`}

	text, err := protocol.EncodeChatMessage(original)
	if err != nil {
		t.Fatalf("EncodeChatMessage failed: %v", err)
	}

	decoded, err := protocol.DecodeChatMessage(text)
	if err != nil {
		t.Fatalf("DecodeChatMessage failed: %v", err)
	}
	if decoded != original {
		t.Errorf("round trip = %+v, want %+v", decoded, original)
	}
}

func TestEnvelope_ChatMessage(t *testing.T) {
	env := protocol.NewMessage(`{"from":"bob","message":"hi"}`)
	msg, err := env.ChatMessage()
	if err != nil {
		t.Fatalf("ChatMessage() error = %v", err)
	}
	if msg.Sender != "bob" || msg.Body != "hi" {
		t.Errorf("ChatMessage() = %+v", msg)
	}

	if _, err := protocol.NewRegister("bob").ChatMessage(); !errors.Is(err, protocol.ErrMalformedPayload) {
		t.Errorf("register ChatMessage() error = %v, want ErrMalformedPayload", err)
	}
	if _, err := (protocol.Envelope{Kind: protocol.KindMessage}).ChatMessage(); !errors.Is(err, protocol.ErrMalformedPayload) {
		t.Errorf("empty ChatMessage() error = %v, want ErrMalformedPayload", err)
	}
}

func TestDecodeError_Error(t *testing.T) {
	err := &protocol.DecodeError{Kind: protocol.MalformedPayload, Err: errors.New("boom")}
	if got, want := err.Error(), "malformed message payload: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got, want := (&protocol.DecodeError{Kind: protocol.Malformed}).Error(), "malformed envelope"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
