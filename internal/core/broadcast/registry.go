package broadcast

import (
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultConnBuffer = 32

// Registry tracks the live set of subscriber connections. Register,
// Unregister and Snapshot are safe for concurrent use and linearizable
// with respect to each other.
type Registry struct {
	mu     sync.RWMutex
	conns  map[uuid.UUID]*Conn
	buffer int

	connections prometheus.Gauge // may be nil
}

func NewRegistry(buffer int, connections prometheus.Gauge) *Registry {
	if buffer <= 0 {
		buffer = defaultConnBuffer
	}
	return &Registry{
		conns:       make(map[uuid.UUID]*Conn),
		buffer:      buffer,
		connections: connections,
	}
}

func (r *Registry) Register() *Conn {
	c := newConn(r.buffer)

	r.mu.Lock()
	r.conns[c.id] = c
	r.mu.Unlock()

	if r.connections != nil {
		r.connections.Inc()
	}
	return c
}

// Unregister removes the handle and signals its transport to stop.
// Idempotent: unregistering an already-removed handle is a no-op.
func (r *Registry) Unregister(c *Conn) {
	if c == nil {
		return
	}

	r.mu.Lock()
	_, present := r.conns[c.id]
	delete(r.conns, c.id)
	r.mu.Unlock()

	if !present {
		return
	}
	c.close()
	if r.connections != nil {
		r.connections.Dec()
	}
}

// Snapshot returns a point-in-time copy of the registered handles. The
// caller may range over it freely; mutating it does not affect the registry.
func (r *Registry) Snapshot() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
