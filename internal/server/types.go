// Package server defines the sentinel errors and shared helpers that are
// reused across the hub, transports and bootstrap code.
package server

import (
	"errors"
	"io"
	"strings"

	"github.com/gorilla/websocket"
)

var (
	// ErrPeerLookup is returned by a Transport whose remote address cannot be resolved.
	ErrPeerLookup = errors.New("server: peer address lookup failed")

	// ErrHubStopped is returned when an operation is posted to a hub whose loop has exited.
	ErrHubStopped = errors.New("server: hub is stopped")
)

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset by peer")
}

// disconnectReason describes why a read loop ended, for the disconnect log line.
func disconnectReason(err error) string {
	switch {
	case errors.Is(err, io.EOF):
		return "connection closed by peer"
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		return "websocket closed"
	case websocket.IsCloseError(err, websocket.CloseAbnormalClosure):
		return "websocket dropped"
	case isExpectedCloseError(err):
		return "connection closed"
	default:
		return "read error: " + err.Error()
	}
}
