// Package server coordinates connection registration, broadcast fan-out,
// and connection teardown for the relay via the Hub type.
package server

import (
	"context"
	"log"
	"sync"
	"time"
)

// event is anything the hub loop can execute. Every handler runs on the
// loop goroutine, so handlers never run concurrently with each other.
type event interface {
	handle(h *Hub)
}

// Hub owns the registry and runs the single event loop that drives
// accept, read, write-completion and close-completion handling.
type Hub struct {
	registry       *Registry
	buffers        BufferAllocator
	stats          *Stats
	excludeBy      ExclusionPolicy
	peerLookup     PeerLookupPolicy
	readBufferSize int
	fatal          func(error)

	events chan event
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// HubOption customizes a Hub created by NewHub.
type HubOption func(h *Hub)

// WithBufferAllocator replaces the heap allocator used for read buffers
// and pending writes.
func WithBufferAllocator(a BufferAllocator) HubOption {
	return func(h *Hub) {
		if a != nil {
			h.buffers = a
		}
	}
}

// WithFatalHandler replaces the handler invoked for fatal per-connection
// errors under PeerLookupFailFast. The default logs and exits with status 1.
func WithFatalHandler(f func(error)) HubOption {
	return func(h *Hub) {
		if f != nil {
			h.fatal = f
		}
	}
}

// NewHub creates a Hub configured from cfg. A nil cfg uses the defaults.
// The returned Hub does nothing until Run is called.
func NewHub(cfg *Config, options ...HubOption) *Hub {
	var c Config
	if cfg == nil {
		c = defaultConfig()
	} else {
		c = sanitizeConfig(*cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		registry:       NewRegistry(),
		buffers:        heapAllocator{},
		stats:          newStats(),
		excludeBy:      c.ExcludeBy,
		peerLookup:     c.PeerLookup,
		readBufferSize: c.ReadBufferSize,
		fatal: func(err error) {
			log.Fatalf("Error => %v", err)
		},
		events: make(chan event),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	for _, option := range options {
		if option != nil {
			option(h)
		}
	}
	return h
}

// Run starts the hub's event loop. It blocks until Shutdown is called and
// should be run on its own goroutine.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownConnections()
			return
		case ev := <-h.events:
			ev.handle(h)
		}
	}
}

// post hands ev to the loop. The channel is unbuffered so an event is
// either handled by the loop or refused; it reports false once the hub
// is stopping.
func (h *Hub) post(ev event) bool {
	select {
	case h.events <- ev:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Accept hands a freshly accepted transport to the loop. When the hub is
// stopped the caller keeps ownership of t and should close it.
func (h *Hub) Accept(t Transport) error {
	if !h.post(acceptEvent{transport: t}) {
		return ErrHubStopped
	}
	return nil
}

type queryEvent struct {
	run  func(r *Registry)
	done chan<- struct{}
}

func (ev queryEvent) handle(h *Hub) {
	ev.run(h.registry)
	close(ev.done)
}

// query runs fn against the registry on the loop and waits for it.
func (h *Hub) query(fn func(r *Registry)) error {
	done := make(chan struct{})
	if !h.post(queryEvent{run: fn, done: done}) {
		return ErrHubStopped
	}
	select {
	case <-done:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Online returns the number of registered connections, counted on the loop.
func (h *Hub) Online() (int, error) {
	var n int
	if err := h.query(func(r *Registry) { n = r.Count() }); err != nil {
		return 0, err
	}
	return n, nil
}

// Connections lists the registered connections in registry order.
func (h *Hub) Connections() ([]ConnectionInfo, error) {
	var infos []ConnectionInfo
	err := h.query(func(r *Registry) {
		r.ForEach(func(c *Connection) {
			infos = append(infos, ConnectionInfo{ID: c.ID().String(), Addr: c.Addr()})
		})
	})
	if err != nil {
		return nil, err
	}
	return infos, nil
}

// Stats returns a snapshot of the relay counters.
func (h *Hub) Stats() StatsSnapshot {
	return h.stats.Snapshot()
}

// shutdownConnections closes every registered transport. It runs on the
// loop after the context is cancelled, so no new events are handled.
func (h *Hub) shutdownConnections() {
	log.Println("Shutting down all client connections...")

	var members []*Connection
	h.registry.ForEach(func(c *Connection) {
		members = append(members, c)
	})

	for _, c := range members {
		h.registry.Deregister(c)
		h.stats.removeConnection()
		c.state = stateClosing
		c.outbox.close()
		if err := c.transport.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing client connection from %s: %v", c.addr, err)
		}
	}

	log.Printf("Closed %d client connections", len(members))
}

// Shutdown stops the loop, closes all connections and waits for the
// per-connection goroutines to finish or for timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
