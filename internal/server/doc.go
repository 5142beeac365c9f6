// Package server implements the chatrelay broadcast relay.
//
// Every client that connects over TCP (or WebSocket, when the HTTP
// side-listener is enabled) joins a single room. Each chunk of bytes a
// client sends is forwarded to every other client, tagged with the
// sender's address. All connection state is owned by the Hub, whose
// event loop runs on one goroutine; the per-connection reader and writer
// goroutines only perform blocking I/O and report back to the loop.
//
// The implementation is organized into specialized files for
// configuration, the registry, transports, the hub loop, broadcast
// formatting, and the HTTP handlers.
package server
