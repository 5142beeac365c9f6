// Package server runs the per-connection reader and writer goroutines
// that perform blocking transport I/O on behalf of the hub loop.
package server

import "log"

type readEvent struct {
	conn *Connection
	buf  []byte
	n    int
	err  error
}

type writeEvent struct {
	write *pendingWrite
	err   error
}

type closeEvent struct {
	conn *Connection
	err  error
}

// readPump reads chunks from the transport and posts each one to the
// loop, which owns and releases the buffer. It stops after the first
// read error.
func (h *Hub) readPump(c *Connection) {
	defer h.wg.Done()

	for {
		buf := h.buffers.Alloc(h.readBufferSize)
		n, err := c.transport.Read(buf)
		if n > 0 {
			if !h.post(readEvent{conn: c, buf: buf, n: n}) {
				h.buffers.Release(buf)
				return
			}
		} else {
			h.buffers.Release(buf)
		}

		if err != nil {
			h.post(readEvent{conn: c, err: err})
			return
		}
	}
}

// writePump writes queued buffers in order and reports every completion,
// successful or not, back to the loop. It exits once the outbox is closed
// and drained.
func (h *Hub) writePump(c *Connection) {
	defer func() {
		close(c.writerDone)
		h.wg.Done()
	}()

	for range c.outbox.ready {
		batch, done := c.outbox.take()
		for _, w := range batch {
			err := c.transport.Write(w.buf)
			if !h.post(writeEvent{write: w, err: err}) {
				// The loop is gone and nobody else references w.
				w.release(h.buffers)
			}
		}
		if done {
			return
		}
	}
}

// beginClose moves c to CLOSING and closes its transport off the loop.
// The close completion is posted only after the writer has drained, so
// every write completion for c is handled before c is released.
func (h *Hub) beginClose(c *Connection) {
	c.state = stateClosing
	c.outbox.close()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		err := c.transport.Close()
		<-c.writerDone
		if !h.post(closeEvent{conn: c, err: err}) {
			log.Printf("Client %s closed during shutdown", c.addr)
		}
	}()
}
