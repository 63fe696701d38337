package view_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"github.com/omochice/chatsync/internal/chat"
	"github.com/omochice/chatsync/internal/notify"
	"github.com/omochice/chatsync/internal/view"
	"github.com/omochice/chatsync/pkg/protocol"
)

func TestIsImage(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{"https://media.example.com/cat.gif", true},
		{"cat.gif", true},
		{".gif", true},
		{"cat.GIF", false},
		{"cat.gif?size=2", false},
		{"look at this gif", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := view.IsImage(tt.body); got != tt.want {
			t.Errorf("IsImage(%q) = %v, want %v", tt.body, got, tt.want)
		}
	}
}

func TestTerminal_Handle(t *testing.T) {
	tests := []struct {
		name string
		n    chat.Notification
		want string
	}{
		{
			name: "roster",
			n: chat.RosterChanged{Roster: []chat.UserProfile{
				{Name: "alice"}, {Name: "bob"},
			}},
			want: "Users (2) ● alice  ● bob\n",
		},
		{
			name: "empty roster",
			n:    chat.RosterChanged{},
			want: "Users (0) nobody online\n",
		},
		{
			name: "text message",
			n: chat.MessageReceived{
				Message: protocol.ChatMessage{Sender: "bob", Body: "hello"},
			},
			want: "bob: hello\n",
		},
		{
			name: "image message",
			n: chat.MessageReceived{
				Message: protocol.ChatMessage{Sender: "bob", Body: "https://x.test/a.gif"},
			},
			want: "bob: [image] https://x.test/a.gif\n",
		},
		{
			name: "connecting",
			n:    chat.ConnectionChanged{Status: chat.StatusRegistering},
			want: "Connecting...\n",
		},
		{
			name: "disconnected",
			n:    chat.ConnectionChanged{Status: chat.StatusDisconnected},
			want: "Disconnected\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			term := view.NewTerminal(&buf, view.Options{Self: "alice", NoColor: true})

			if err := term.Handle(tt.n); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() wrote %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTerminal_Attach(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	bus := notify.NewBus[chat.Notification](logs.GetLoggerFromLevel(slog.LevelDebug))
	term := view.NewTerminal(&buf, view.Options{NoColor: true})

	sub := term.Attach(bus)
	req.NoError(bus.Publish(chat.MessageReceived{Message: protocol.ChatMessage{Sender: "a", Body: "1"}}))
	req.NoError(bus.Publish(chat.MessageReceived{Message: protocol.ChatMessage{Sender: "b", Body: "2"}}))
	bus.Unsubscribe(sub)
	req.NoError(bus.Publish(chat.MessageReceived{Message: protocol.ChatMessage{Sender: "c", Body: "3"}}))

	req.Equal([]string{"a: 1", "b: 2"}, strings.Split(strings.TrimSpace(buf.String()), "\n"))
}

func TestTerminal_Printf(t *testing.T) {
	var buf bytes.Buffer
	term := view.NewTerminal(&buf, view.Options{NoColor: true})
	term.Printf("> %s", "hi")
	require.Equal(t, "> hi", buf.String())
}
