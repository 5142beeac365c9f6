// Package server adapts TCP and WebSocket connections to the Transport
// interface consumed by the hub.
package server

import (
	"fmt"
	"io"
	"net"
	"unicode/utf8"

	"github.com/gorilla/websocket"
)

// Transport is the stream a Connection owns. Read and Write block and are
// only ever called from the connection's reader and writer goroutines
// respectively. Close unblocks both.
type Transport interface {
	// Read fills p with the next chunk of inbound bytes.
	Read(p []byte) (int, error)
	// Write sends all of p.
	Write(p []byte) error
	Close() error
	// PeerAddr returns the remote host without the port.
	PeerAddr() (string, error)
}

type tcpTransport struct {
	conn net.Conn
}

// NewTCPTransport wraps an accepted TCP connection.
func NewTCPTransport(conn net.Conn) Transport {
	return &tcpTransport{conn: conn}
}

func (t *tcpTransport) Read(p []byte) (int, error) {
	return t.conn.Read(p)
}

func (t *tcpTransport) Write(p []byte) error {
	_, err := t.conn.Write(p)
	return err
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

func (t *tcpTransport) PeerAddr() (string, error) {
	addr := t.conn.RemoteAddr()
	if addr == nil {
		return "", ErrPeerLookup
	}
	return hostOnly(addr.String())
}

type wsTransport struct {
	conn   *websocket.Conn
	remote string
	frame  io.Reader
}

// NewWebSocketTransport wraps an upgraded WebSocket connection. remote is
// the peer address reported by the HTTP request.
func NewWebSocketTransport(conn *websocket.Conn, remote string) Transport {
	return &wsTransport{conn: conn, remote: remote}
}

// Read returns the payload of text and binary frames chunk by chunk.
// Control frames are handled inside gorilla's reader.
func (t *wsTransport) Read(p []byte) (int, error) {
	for {
		if t.frame == nil {
			messageType, r, err := t.conn.NextReader()
			if err != nil {
				return 0, err
			}
			if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
				continue
			}
			t.frame = r
		}

		n, err := t.frame.Read(p)
		if err == io.EOF {
			t.frame = nil
			if n == 0 {
				continue
			}
			return n, nil
		}
		return n, err
	}
}

// Write sends p as a text frame, or as a binary frame when p is not valid
// UTF-8 (truncation can split a rune, and relayed bytes are arbitrary).
func (t *wsTransport) Write(p []byte) error {
	messageType := websocket.TextMessage
	if !utf8.Valid(p) {
		messageType = websocket.BinaryMessage
	}
	return t.conn.WriteMessage(messageType, p)
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

func (t *wsTransport) PeerAddr() (string, error) {
	return hostOnly(t.remote)
}

func hostOnly(addr string) (string, error) {
	if addr == "" {
		return "", ErrPeerLookup
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPeerLookup, err)
	}
	if host == "" {
		return "", ErrPeerLookup
	}
	return host, nil
}
