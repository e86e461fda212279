package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/ports"
)

var (
	ErrPublisherClosed = errors.New("event publisher closed")
	ErrQueueFull       = errors.New("event queue full")
)

const (
	defaultQueueSize      = 1024
	defaultPublishTimeout = 5 * time.Second
)

type pendingEvent struct {
	ctx          context.Context
	eventType    string
	payload      []byte
	partitionKey string
}

// AsyncPublisher hands events to a single background worker so request paths
// never wait on the broker. Publish only enqueues; a full queue drops the
// event and reports ErrQueueFull. Close drains whatever is queued.
type AsyncPublisher struct {
	logger  *slog.Logger
	next    ports.EventPublisher
	timeout time.Duration
	queue   chan pendingEvent
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAsyncPublisher(logger *slog.Logger, next ports.EventPublisher, queueSize int, timeout time.Duration) *AsyncPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	p := &AsyncPublisher{
		logger:  logger,
		next:    next,
		timeout: timeout,
		queue:   make(chan pendingEvent, queueSize),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *AsyncPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.queue <- pendingEvent{
		ctx:          context.WithoutCancel(ctx),
		eventType:    eventType,
		payload:      payload,
		partitionKey: partitionKey,
	}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for ev := range p.queue {
		ctx, cancel := context.WithTimeout(ev.ctx, p.timeout)
		err := p.next.Publish(ctx, ev.eventType, ev.payload, ev.partitionKey)
		cancel()
		if err != nil {
			p.logger.ErrorContext(ev.ctx, "event delivery failed",
				"module", "events.async_publisher",
				"layer", "adapter",
				"operation", "publish",
				"outcome", "failure",
				"event_type", ev.eventType,
				"error", err,
			)
		}
	}
}

// Close stops accepting events and blocks until the queue is drained.
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	<-p.done
	return nil
}
