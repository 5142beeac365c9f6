// Package server manages the byte buffers that back reads and
// in-flight writes, and the per-connection outbound queue.
package server

import (
	"log"
	"sync"
)

// BufferAllocator hands out the buffers owned by read events and pending
// writes. Every buffer obtained from Alloc is given back to Release
// exactly once. Implementations must be safe for concurrent use because
// read buffers are allocated on reader goroutines.
type BufferAllocator interface {
	Alloc(size int) []byte
	Release(buf []byte)
}

type heapAllocator struct{}

func (heapAllocator) Alloc(size int) []byte { return make([]byte, size) }

func (heapAllocator) Release([]byte) {}

// pendingWrite is one in-flight unicast. Its buffer belongs to the
// write until the completion is handled on the loop.
type pendingWrite struct {
	conn     *Connection
	buf      []byte
	released bool
}

func (w *pendingWrite) release(a BufferAllocator) {
	if w.released {
		log.Printf("Write buffer for %s released twice; ignoring", w.conn.addr)
		return
	}
	w.released = true
	a.Release(w.buf)
	w.buf = nil
}

// outbox is an unbounded FIFO of pending writes for one connection.
// push never blocks so the hub loop can queue writes freely.
type outbox struct {
	mu     sync.Mutex
	queue  []*pendingWrite
	ready  chan struct{}
	closed bool
}

func newOutbox() *outbox {
	return &outbox{ready: make(chan struct{}, 1)}
}

func (o *outbox) push(w *pendingWrite) bool {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	o.queue = append(o.queue, w)
	o.mu.Unlock()
	o.signal()
	return true
}

// take returns everything queued so far. done reports that the outbox is
// closed and the returned batch is the last one.
func (o *outbox) take() (batch []*pendingWrite, done bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	batch, o.queue = o.queue, nil
	return batch, o.closed
}

func (o *outbox) close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) signal() {
	select {
	case o.ready <- struct{}{}:
	default:
	}
}
