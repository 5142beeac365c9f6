package server

import (
	"container/list"

	"github.com/google/uuid"
)

type connState int

const (
	stateAccepting connState = iota
	stateRegistered
	stateClosing
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateAccepting:
		return "ACCEPTING"
	case stateRegistered:
		return "REGISTERED"
	case stateClosing:
		return "CLOSING"
	case stateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Connection wraps one accepted client transport together with the
// remote address captured at accept time and its registry membership.
type Connection struct {
	id         uuid.UUID
	addr       string
	transport  Transport
	link       *list.Element
	state      connState
	outbox     *outbox
	writerDone chan struct{}
}

func newConnection(t Transport, addr string) *Connection {
	return &Connection{
		id:         uuid.New(),
		addr:       addr,
		transport:  t,
		state:      stateAccepting,
		outbox:     newOutbox(),
		writerDone: make(chan struct{}),
	}
}

// ID returns the connection's unique identifier.
func (c *Connection) ID() uuid.UUID {
	return c.id
}

// Addr returns the remote address captured when the connection was accepted.
func (c *Connection) Addr() string {
	return c.addr
}
