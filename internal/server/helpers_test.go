package server

import (
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeTransport is a scriptable Transport. Inbound chunks are fed with
// send, hangup ends the stream, and everything the hub writes shows up on
// written.
type fakeTransport struct {
	addr      string
	lookupErr error
	writeErr  error

	inbound   chan []byte
	written   chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	closes    atomic.Int32
}

func newFakeTransport(addr string) *fakeTransport {
	return &fakeTransport{
		addr:    addr,
		inbound: make(chan []byte, 16),
		written: make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
}

func (f *fakeTransport) Read(p []byte) (int, error) {
	select {
	case b, ok := <-f.inbound:
		if !ok {
			return 0, io.EOF
		}
		return copy(p, b), nil
	case <-f.closed:
		return 0, net.ErrClosed
	}
}

func (f *fakeTransport) Write(p []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	select {
	case <-f.closed:
		return net.ErrClosed
	default:
	}
	select {
	case f.written <- append([]byte(nil), p...):
		return nil
	case <-f.closed:
		return net.ErrClosed
	}
}

func (f *fakeTransport) Close() error {
	f.closes.Add(1)
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeTransport) PeerAddr() (string, error) {
	if f.lookupErr != nil {
		return "", f.lookupErr
	}
	return f.addr, nil
}

func (f *fakeTransport) send(s string) {
	f.inbound <- []byte(s)
}

func (f *fakeTransport) hangup() {
	close(f.inbound)
}

func (f *fakeTransport) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

// countingAllocator counts Alloc and Release calls.
type countingAllocator struct {
	allocs   atomic.Int64
	releases atomic.Int64
}

func (a *countingAllocator) Alloc(size int) []byte {
	a.allocs.Add(1)
	return make([]byte, size)
}

func (a *countingAllocator) Release([]byte) {
	a.releases.Add(1)
}

func startHub(t *testing.T, cfg *Config, options ...HubOption) *Hub {
	t.Helper()

	hub := NewHub(cfg, options...)
	go hub.Run()
	t.Cleanup(func() {
		_ = hub.Shutdown(2 * time.Second)
	})
	return hub
}

func identityConfig() *Config {
	cfg := NewConfig()
	cfg.ExcludeBy = ExcludeByIdentity
	return cfg
}

// join accepts ft and waits for its online notice so that subsequent
// steps observe a registered connection.
func join(t *testing.T, hub *Hub, ft *fakeTransport, online int) {
	t.Helper()

	if err := hub.Accept(ft); err != nil {
		t.Fatalf("Accept(%s) failed: %v", ft.addr, err)
	}
	expectMessage(t, ft, formatOnline(online))
}

func formatOnline(n int) string {
	return string(formatMessage(onlineNoticeFormat, n))
}

func expectMessage(t *testing.T, ft *fakeTransport, want string) {
	t.Helper()

	select {
	case got := <-ft.written:
		if string(got) != want {
			t.Errorf("%s: expected %q, got %q", ft.addr, want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("%s: expected %q, got nothing", ft.addr, want)
	}
}

func expectNoMessage(t *testing.T, ft *fakeTransport, wait time.Duration) {
	t.Helper()

	select {
	case got := <-ft.written:
		t.Errorf("%s: expected no message, got %q", ft.addr, got)
	case <-time.After(wait):
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func expectOnline(t *testing.T, hub *Hub, want int) {
	t.Helper()

	got, err := hub.Online()
	if err != nil {
		t.Fatalf("Online() failed: %v", err)
	}
	if got != want {
		t.Errorf("Expected %d clients online, got %d", want, got)
	}
}
