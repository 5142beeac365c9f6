// Package server implements the connection state machine:
// ACCEPTING -> REGISTERED -> CLOSING -> CLOSED.
package server

import (
	"fmt"
	"log"
)

type acceptEvent struct {
	transport Transport
}

func (ev acceptEvent) handle(h *Hub) { h.onAccept(ev.transport) }
func (ev readEvent) handle(h *Hub)   { h.onRead(ev) }
func (ev writeEvent) handle(h *Hub)  { h.onWritten(ev) }
func (ev closeEvent) handle(h *Hub)  { h.onClosed(ev) }

// onAccept registers a new connection, tells it how many people are
// online, announces it to everyone else and starts reading from it.
func (h *Hub) onAccept(t Transport) {
	addr, err := t.PeerAddr()
	if err != nil {
		if h.peerLookup == PeerLookupDrop {
			log.Printf("Dropping connection without peer address: %v", err)
		} else {
			h.fatal(fmt.Errorf("accept: %w", err))
		}
		if cerr := t.Close(); cerr != nil && !isExpectedCloseError(cerr) {
			log.Printf("Error closing unresolved connection: %v", cerr)
		}
		return
	}

	c := newConnection(t, addr)
	h.registry.Register(c)
	c.state = stateRegistered
	h.stats.addConnection()

	online := h.registry.Count()
	log.Printf("Client %s registered (%s). Total clients: %d", c.addr, c.id, online)

	h.wg.Add(2)
	go h.writePump(c)

	h.announce(c, onlineNoticeFormat, online)
	h.broadcast(c, joinFormat, c.addr)

	go h.readPump(c)
}

// onRead relays one inbound chunk, or tears the connection down when the
// read reported end of stream or an error.
func (h *Hub) onRead(ev readEvent) {
	c := ev.conn
	if ev.buf != nil {
		defer h.buffers.Release(ev.buf)
	}

	if c.state != stateRegistered {
		return
	}

	if ev.err != nil {
		h.registry.Deregister(c)
		h.stats.removeConnection()
		log.Printf("Client %s disconnected: %s", c.addr, disconnectReason(ev.err))

		h.broadcast(c, leaveFormat, c.addr)
		h.beginClose(c)
		return
	}

	h.broadcast(c, relayFormat, c.addr, ev.buf[:ev.n])
	h.stats.addRelayed()
}

func (h *Hub) onWritten(ev writeEvent) {
	if ev.err != nil {
		h.stats.addFailed()
	} else {
		h.stats.addWritten(len(ev.write.buf))
	}
	ev.write.release(h.buffers)
}

func (h *Hub) onClosed(ev closeEvent) {
	c := ev.conn
	if ev.err != nil && !isExpectedCloseError(ev.err) {
		log.Printf("Error closing connection from %s: %v", c.addr, ev.err)
	}
	c.state = stateClosed
	log.Printf("Client %s closed (%s)", c.addr, c.id)
}
