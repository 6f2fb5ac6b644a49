package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/STRBRYKEIYK/workbox/internal/core/domain"
)

const (
	defaultQueueSize   = 1024
	defaultSendTimeout = 50 * time.Millisecond
)

type envelope struct {
	name    string
	payload []byte
}

// Hub is the broadcast dispatcher. Publish serializes an event once and
// enqueues it; a single dispatch goroutine fans each event out to the
// current registry snapshot, so subscribers observe events in publish
// order. A recipient whose outbox stays full past the send timeout is
// treated as dead and unregistered; it never blocks the rest.
type Hub struct {
	registry    *Registry
	queue       chan envelope
	sendTimeout time.Duration
	log         *zap.Logger
	metrics     *Metrics

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	stopping  chan struct{}
	stopped   chan struct{}
}

type HubOptions struct {
	QueueSize   int
	SendTimeout time.Duration
}

func NewHub(registry *Registry, opts HubOptions, log *zap.Logger, metrics *Metrics) *Hub {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaultSendTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		registry:    registry,
		queue:       make(chan envelope, opts.QueueSize),
		sendTimeout: opts.SendTimeout,
		log:         log.With(zap.String("component", "broadcast_hub")),
		metrics:     metrics,
		stopping:    make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

func (h *Hub) Start(ctx context.Context) {
	h.startOnce.Do(func() {
		bg, cancel := context.WithCancel(ctx)
		h.cancel = cancel
		go h.dispatchLoop(bg)
		h.log.Info("hub_started")
	})
}

// Stop halts dispatch and refuses further publishes. The queue is never
// closed, so a Publish racing Stop returns instead of panicking.
func (h *Hub) Stop(ctx context.Context) {
	h.stopOnce.Do(func() {
		close(h.stopping)
		if h.cancel != nil {
			h.cancel()
			select {
			case <-h.stopped:
			case <-ctx.Done():
			}
		}
		h.log.Info("hub_stopped")
	})
}

// Publish serializes the event once and hands it to the dispatch loop.
// It blocks only while the hub queue is full, and gives up when ctx ends.
func (h *Hub) Publish(ctx context.Context, e domain.DomainEvent) {
	if e == nil {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		h.log.Error("event_marshal_failed",
			zap.String("event", e.EventName()),
			zap.Error(err),
		)
		return
	}

	select {
	case <-h.stopping:
		h.log.Warn("event_after_stop", zap.String("event", e.EventName()))
	case h.queue <- envelope{name: e.EventName(), payload: payload}:
		if h.metrics != nil {
			h.metrics.Published.Inc()
		}
	case <-ctx.Done():
		h.log.Warn("event_enqueue_aborted",
			zap.String("event", e.EventName()),
			zap.Error(ctx.Err()),
		)
	}
}

func (h *Hub) dispatchLoop(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.queue:
			h.fanout(ev)
		}
	}
}

func (h *Hub) fanout(ev envelope) {
	conns := h.registry.Snapshot()
	for _, c := range conns {
		select {
		case c.outbox <- ev.payload:
			if h.metrics != nil {
				h.metrics.Delivered.Inc()
			}
		case <-c.done:
			// unregistered mid-broadcast, abandon quietly
		case <-time.After(h.sendTimeout):
			h.log.Warn("subscriber_dropped",
				zap.String("conn_id", c.ID().String()),
				zap.String("event", ev.name),
			)
			if h.metrics != nil {
				h.metrics.Dropped.Inc()
			}
			h.registry.Unregister(c)
		}
	}
}
