// Package server keeps the ordered set of live connections that are
// eligible for broadcast delivery.
package server

import "container/list"

// Registry is the ordered set of registered connections. It is owned by
// the Hub and must only be touched from the hub's event loop.
type Registry struct {
	members *list.List
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{members: list.New()}
}

// Register appends c to the registry and stores its membership link on c.
func (r *Registry) Register(c *Connection) {
	c.link = r.members.PushBack(c)
}

// Deregister removes c using its membership link. Removing a connection
// that is not a current member is a programming error and panics.
func (r *Registry) Deregister(c *Connection) {
	if c.link == nil {
		panic("server: deregister of connection " + c.addr + " that is not registered")
	}
	r.members.Remove(c.link)
	c.link = nil
}

// Count walks the registry and returns the number of members.
func (r *Registry) Count() int {
	n := 0
	for e := r.members.Front(); e != nil; e = e.Next() {
		n++
	}
	return n
}

// ForEach calls visit once per member in insertion order. visit must not
// register or deregister connections.
func (r *Registry) ForEach(visit func(*Connection)) {
	for e := r.members.Front(); e != nil; e = e.Next() {
		visit(e.Value.(*Connection))
	}
}
