package server

import (
	"bufio"
	"bytes"
	"net"
)

type protocolType int

const (
	protocolTCP protocolType = iota
	protocolWebSocket
)

// String returns the protocol name used in logs.
func (p protocolType) String() string {
	if p == protocolWebSocket {
		return "websocket"
	}
	return "tcp"
}

// detectProtocol peeks at the first bytes to tell a WebSocket upgrade
// request from a raw TCP client. The returned reader still holds the peeked
// bytes.
func detectProtocol(conn net.Conn) (protocolType, *bufio.Reader, error) {
	reader := bufio.NewReader(conn)

	// A WebSocket handshake starts with "GET ". Binary frames start with a
	// length varint followed by the kind tag 0x08.
	peek, err := reader.Peek(4)
	if err != nil {
		return protocolTCP, reader, err
	}
	if bytes.Equal(peek, []byte("GET ")) {
		return protocolWebSocket, reader, nil
	}
	return protocolTCP, reader, nil
}
