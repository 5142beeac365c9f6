// Package server formats relay messages and fans them out to registry
// members through per-connection asynchronous writes.
package server

import "fmt"

// MaxBroadcastSize is the ceiling for one formatted message. Longer
// messages are truncated to exactly this many bytes.
const MaxBroadcastSize = 512

// Wire templates. Every message a client receives has one of these shapes.
const (
	onlineNoticeFormat = "\n[online now: %d people]\n\n"
	joinFormat         = "chat-server > %s joined!\n"
	leaveFormat        = "chat-server > %s left the room!\n"
	relayFormat        = "%s > %s\n"
)

func formatMessage(format string, args ...any) []byte {
	msg := fmt.Appendf(nil, format, args...)
	if len(msg) > MaxBroadcastSize {
		msg = msg[:MaxBroadcastSize]
	}
	return msg
}

// excludes reports whether member must be skipped for a broadcast that
// originator triggered. A nil originator excludes nobody.
func (h *Hub) excludes(originator, member *Connection) bool {
	if originator == nil {
		return false
	}
	if h.excludeBy == ExcludeByIdentity {
		return member == originator
	}
	return member.addr == originator.addr
}

// broadcast formats the message once and queues it for every registry
// member not excluded by originator. It returns the number of recipients.
func (h *Hub) broadcast(originator *Connection, format string, args ...any) int {
	msg := formatMessage(format, args...)

	recipients := 0
	h.registry.ForEach(func(member *Connection) {
		if h.excludes(originator, member) {
			return
		}
		h.unicast(member, msg)
		recipients++
	})
	return recipients
}

// announce formats a message and sends it to c alone.
func (h *Hub) announce(c *Connection, format string, args ...any) {
	h.unicast(c, formatMessage(format, args...))
}

// unicast copies msg into a buffer owned by a new pending write and queues
// it on c's outbox. The buffer is released when the write completes.
func (h *Hub) unicast(c *Connection, msg []byte) {
	buf := h.buffers.Alloc(len(msg))
	n := copy(buf, msg)
	w := &pendingWrite{conn: c, buf: buf[:n]}

	if !c.outbox.push(w) {
		w.release(h.buffers)
		return
	}
	h.stats.addQueued()
}
