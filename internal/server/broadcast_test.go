package server

import (
	"strings"
	"testing"
)

// TestFormatMessageTruncates verifies the broadcast ceiling.
func TestFormatMessageTruncates(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantLen int
	}{
		{name: "short", payload: "hi", wantLen: len("1.2.3.4 > hi\n")},
		{name: "exactly at ceiling", payload: strings.Repeat("a", MaxBroadcastSize-len("1.2.3.4 > \n")), wantLen: MaxBroadcastSize},
		{name: "over ceiling", payload: strings.Repeat("a", 4*MaxBroadcastSize), wantLen: MaxBroadcastSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := formatMessage(relayFormat, "1.2.3.4", []byte(tt.payload))
			if len(msg) != tt.wantLen {
				t.Errorf("Expected %d bytes, got %d", tt.wantLen, len(msg))
			}
			if !strings.HasPrefix(string(msg), "1.2.3.4 > ") {
				t.Errorf("Expected address prefix, got %q", msg)
			}
		})
	}
}

// TestWireTemplates pins the literal announcement formats.
func TestWireTemplates(t *testing.T) {
	tests := []struct {
		got  []byte
		want string
	}{
		{formatMessage(onlineNoticeFormat, 2), "\n[online now: 2 people]\n\n"},
		{formatMessage(joinFormat, "10.0.0.1"), "chat-server > 10.0.0.1 joined!\n"},
		{formatMessage(leaveFormat, "10.0.0.1"), "chat-server > 10.0.0.1 left the room!\n"},
		{formatMessage(relayFormat, "10.0.0.1", []byte("hi\n")), "10.0.0.1 > hi\n\n"},
	}

	for _, tt := range tests {
		if string(tt.got) != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, tt.got)
		}
	}
}

func registerAll(h *Hub, addrs ...string) []*Connection {
	conns := make([]*Connection, 0, len(addrs))
	for _, addr := range addrs {
		c := newConnection(newFakeTransport(addr), addr)
		h.registry.Register(c)
		c.state = stateRegistered
		conns = append(conns, c)
	}
	return conns
}

func queued(c *Connection) int {
	c.outbox.mu.Lock()
	defer c.outbox.mu.Unlock()
	return len(c.outbox.queue)
}

// TestBroadcastQueuesForEveryOtherMember verifies a broadcast reaches
// exactly the K non-originating members' outboxes.
func TestBroadcastQueuesForEveryOtherMember(t *testing.T) {
	h := NewHub(nil)
	conns := registerAll(h, "10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4")

	if got := h.broadcast(conns[0], relayFormat, conns[0].addr, []byte("x")); got != 3 {
		t.Errorf("Expected 3 recipients, got %d", got)
	}

	if queued(conns[0]) != 0 {
		t.Error("Originator received its own broadcast")
	}
	for _, c := range conns[1:] {
		if queued(c) != 1 {
			t.Errorf("Expected one pending write for %s, got %d", c.addr, queued(c))
		}
	}

	if got := h.broadcast(nil, "system\n"); got != 4 {
		t.Errorf("Expected nil originator to reach all 4 members, got %d", got)
	}
}

// TestExclusionPolicies compares address and identity exclusion.
func TestExclusionPolicies(t *testing.T) {
	tests := []struct {
		policy   ExclusionPolicy
		wantSent int
	}{
		{ExcludeByAddress, 1},
		{ExcludeByIdentity, 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			cfg := NewConfig()
			cfg.ExcludeBy = tt.policy
			h := NewHub(cfg)
			conns := registerAll(h, "10.0.0.1", "10.0.0.1", "10.0.0.2")

			if got := h.broadcast(conns[0], joinFormat, conns[0].addr); got != tt.wantSent {
				t.Errorf("Expected %d recipients, got %d", tt.wantSent, got)
			}
		})
	}
}

// TestUnicastOnClosedOutboxReleasesBuffer verifies a write that cannot be
// queued still gives its buffer back.
func TestUnicastOnClosedOutboxReleasesBuffer(t *testing.T) {
	alloc := &countingAllocator{}
	h := NewHub(nil, WithBufferAllocator(alloc))
	c := registerAll(h, "10.0.0.1")[0]
	c.outbox.close()

	h.unicast(c, []byte("late"))

	if alloc.allocs.Load() != 1 || alloc.releases.Load() != 1 {
		t.Errorf("Expected 1 alloc and 1 release, got %d and %d", alloc.allocs.Load(), alloc.releases.Load())
	}
}
