// Package eventbus provides the in-process event bus connecting the
// reminder subsystem to its listeners (UI hub, logging). Delivery is
// best-effort: a failing consumer is logged, never propagated back into
// the publishing operation.
package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Publisher is the sending side of the bus.
type Publisher interface {
	// Publish sends a payload under a routing key.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close releases the publisher.
	Close() error
}

// Event is a published event as seen by consumers.
type Event struct {
	EventID    uuid.UUID       `json:"event_id"`
	RoutingKey string          `json:"routing_key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Consumer handles events for the routing keys it declares.
type Consumer interface {
	// EventTypes returns the routing keys this consumer handles.
	EventTypes() []string

	// Handle processes the event.
	Handle(ctx context.Context, event *Event) error
}

// PublishJSON marshals a value and publishes it under the routing key.
func PublishJSON(ctx context.Context, p Publisher, routingKey string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.Publish(ctx, routingKey, payload)
}
