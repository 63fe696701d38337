package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"github.com/omochice/chatsync/internal/server"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRun_Help(t *testing.T) {
	code, err := run([]string{"--help"}, strings.NewReader(""), io.Discard)
	require.NoError(t, err)
	require.Equal(t, exitOK, code)
}

func TestRun_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"--bogus"}},
		{name: "missing config file", args: []string{"-c", "/nonexistent/chatsync.yaml", "-u", "alice"}},
		{name: "bad server address", args: []string{"-s", "nowhere", "-u", "alice"}},
		{name: "no username", args: []string{"-s", "ws://localhost:8080/"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := run(tt.args, strings.NewReader(""), io.Discard)
			require.Error(t, err)
			require.Equal(t, exitConfig, code)
		})
	}
}

func TestRun_DialFailure(t *testing.T) {
	code, err := run([]string{"-s", "tcp://127.0.0.1:1", "-u", "alice"}, strings.NewReader(""), io.Discard)
	require.Error(t, err)
	require.Equal(t, exitRuntime, code)
}

func TestRun_ChatRoundTrip(t *testing.T) {
	req := require.New(t)
	srv := server.New("127.0.0.1:0", logs.GetLoggerFromLevel(slog.LevelDebug), 0)
	go srv.Start()
	t.Cleanup(srv.Stop)
	req.Eventually(func() bool { return srv.Addr() != "" }, time.Second, 5*time.Millisecond)

	stdin, input := io.Pipe()
	var stdout syncBuffer

	type result struct {
		code int
		err  error
	}
	done := make(chan result, 1)
	go func() {
		code, err := run([]string{"-s", "ws://" + srv.Addr() + "/", "--no-color"}, stdin, &stdout)
		done <- result{code, err}
	}()

	// The username is prompted for when not configured.
	_, err := io.WriteString(input, "alice\n")
	req.NoError(err)
	req.Eventually(func() bool { return strings.Contains(stdout.String(), "● alice") }, 2*time.Second, 10*time.Millisecond)

	_, err = io.WriteString(input, "hello there\n")
	req.NoError(err)
	req.Eventually(func() bool { return strings.Contains(stdout.String(), "alice: hello there") }, 2*time.Second, 10*time.Millisecond)

	_, err = io.WriteString(input, "quit\n")
	req.NoError(err)

	select {
	case r := <-done:
		req.NoError(r.err)
		req.Equal(exitOK, r.code)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not exit after quit")
	}
	req.Contains(stdout.String(), "Username: ")
	input.Close()
}
