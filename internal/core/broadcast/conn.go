package broadcast

import (
	"sync"

	"github.com/google/uuid"
)

// Conn is the hub-side handle for one subscriber. The hub owns the handle
// for the duration of its registration; the transport behind it only drains
// Outbox and watches Done.
type Conn struct {
	id     uuid.UUID
	outbox chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newConn(buffer int) *Conn {
	return &Conn{
		id:     uuid.New(),
		outbox: make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

func (c *Conn) ID() uuid.UUID { return c.id }

// Outbox yields serialized events in delivery order.
func (c *Conn) Outbox() <-chan []byte { return c.outbox }

// Done is closed when the connection is unregistered.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}
