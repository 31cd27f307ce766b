package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InProcessBus dispatches events synchronously to registered consumers.
// The daemon runs as a single process, so this is the only bus; the
// Publisher interface keeps callers decoupled from that fact.
type InProcessBus struct {
	consumers map[string][]Consumer
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewInProcessBus creates a new in-process event bus.
func NewInProcessBus(logger *slog.Logger) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessBus{
		consumers: make(map[string][]Consumer),
		logger:    logger,
	}
}

// RegisterConsumer adds a consumer for its declared event types.
func (b *InProcessBus) RegisterConsumer(consumer Consumer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, eventType := range consumer.EventTypes() {
		b.consumers[eventType] = append(b.consumers[eventType], consumer)
		b.logger.Debug("registered consumer for event type",
			"event_type", eventType,
		)
	}
}

// Publish dispatches the payload to all consumers of the routing key.
// Consumer failures are logged and swallowed: event delivery to UI pages
// is best-effort by contract.
func (b *InProcessBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event := &Event{
		EventID:    uuid.New(),
		RoutingKey: routingKey,
		OccurredAt: time.Now(),
		Payload:    json.RawMessage(payload),
	}

	b.mu.RLock()
	consumers := b.consumers[routingKey]
	b.mu.RUnlock()

	if len(consumers) == 0 {
		b.logger.Debug("no consumers for event type", "routing_key", routingKey)
		return nil
	}

	for _, consumer := range consumers {
		if err := consumer.Handle(ctx, event); err != nil {
			b.logger.Warn("consumer failed to handle event",
				"routing_key", routingKey,
				"event_id", event.EventID,
				"error", err,
			)
		}
	}

	return nil
}

// ConsumerCount returns the total number of registered consumer instances.
func (b *InProcessBus) ConsumerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, consumers := range b.consumers {
		count += len(consumers)
	}
	return count
}

// Close is a no-op for the in-process bus.
func (b *InProcessBus) Close() error {
	return nil
}

// NoopPublisher discards all events. Used by CLI commands that mutate the
// store without a running daemon to broadcast to.
type NoopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that logs and drops events.
func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

// Publish logs the event at debug level and drops it.
func (p *NoopPublisher) Publish(_ context.Context, routingKey string, _ []byte) error {
	p.logger.Debug("noop publisher dropping event", "routing_key", routingKey)
	return nil
}

// Close is a no-op.
func (p *NoopPublisher) Close() error {
	return nil
}
