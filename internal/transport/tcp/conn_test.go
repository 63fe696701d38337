package tcp_test

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/omochice/chatsync/internal/chat"
	"github.com/omochice/chatsync/internal/transport/tcp"
)

func TestConn_ImplementsInterface(t *testing.T) {
	var _ chat.Conn = (*tcp.Conn)(nil)
}

func TestConn_WriteThenRead(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	writer := tcp.NewConn(client)
	reader := tcp.NewConn(server)

	frames := []string{"first", "", `{"messageType":"users","dataArray":["a"]}`}
	go func() {
		for _, f := range frames {
			if err := writer.Write(context.Background(), []byte(f)); err != nil {
				t.Errorf("Write() error = %v", err)
				return
			}
		}
		client.Close()
	}()

	for _, want := range frames {
		data, err := reader.Read(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != want {
			t.Errorf("Read() = %q, want %q", string(data), want)
		}
	}

	if _, err := reader.Read(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("Read() after close error = %v, want io.EOF", err)
	}
}

func TestConn_ReadTruncatedFrame(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	conn := tcp.NewConn(server)

	go func() {
		client.Write([]byte{0x05, 'a', 'b'})
		client.Close()
	}()

	if _, err := conn.Read(context.Background()); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Read() error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestConn_ReadRejectsOversizedFrame(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	conn := tcp.NewConn(server)

	go func() {
		// varint for 1<<21
		client.Write([]byte{0x80, 0x80, 0x80, 0x01})
	}()

	if _, err := conn.Read(context.Background()); !errors.Is(err, tcp.ErrFrameTooLarge) {
		t.Errorf("Read() error = %v, want ErrFrameTooLarge", err)
	}
}

func TestConn_ReadHonoursContext(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	conn := tcp.NewConn(server)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := conn.Read(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Read() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestConn_Close(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	conn := tcp.NewConn(client)

	err := conn.Close()
	if err != nil {
		t.Errorf("Close() error = %v", err)
	}

	_, err = client.Read(make([]byte, 1))
	if err == nil {
		t.Error("expected error after close, got nil")
	}
}

func TestConn_RemoteAddr(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	conn := tcp.NewConn(client)

	addr := conn.RemoteAddr()
	if addr == "" {
		t.Error("RemoteAddr() returned empty string")
	}
}

func TestDial(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer listener.Close()

	received := make(chan string, 1)
	go func() {
		c, err := listener.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		data, err := tcp.NewConn(c).Read(context.Background())
		if err == nil {
			received <- string(data)
		}
	}()

	conn, err := tcp.Dial(context.Background(), listener.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if err := conn.Write(context.Background(), []byte("hello")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	select {
	case got := <-received:
		if got != "hello" {
			t.Errorf("server received %q, want %q", got, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for frame")
	}
}
