package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConsumer struct {
	types  []string
	events []*Event
	err    error
}

func (c *recordingConsumer) EventTypes() []string { return c.types }

func (c *recordingConsumer) Handle(_ context.Context, event *Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestInProcessBus_DispatchesToMatchingConsumers(t *testing.T) {
	bus := NewInProcessBus(nil)

	changed := &recordingConsumer{types: []string{"reminders.changed"}}
	fired := &recordingConsumer{types: []string{"reminder.fired"}}
	both := &recordingConsumer{types: []string{"reminders.changed", "reminder.fired"}}

	bus.RegisterConsumer(changed)
	bus.RegisterConsumer(fired)
	bus.RegisterConsumer(both)
	assert.Equal(t, 4, bus.ConsumerCount())

	payload, _ := json.Marshal(map[string]string{"hello": "world"})
	require.NoError(t, bus.Publish(context.Background(), "reminders.changed", payload))

	require.Len(t, changed.events, 1)
	assert.Empty(t, fired.events)
	require.Len(t, both.events, 1)

	assert.Equal(t, "reminders.changed", changed.events[0].RoutingKey)
	assert.JSONEq(t, `{"hello":"world"}`, string(changed.events[0].Payload))
	assert.NotEmpty(t, changed.events[0].EventID)
}

func TestInProcessBus_NoConsumersIsFine(t *testing.T) {
	bus := NewInProcessBus(nil)
	assert.NoError(t, bus.Publish(context.Background(), "nobody.listens", []byte(`{}`)))
}

func TestInProcessBus_ConsumerErrorIsSwallowed(t *testing.T) {
	bus := NewInProcessBus(nil)

	failing := &recordingConsumer{types: []string{"reminder.fired"}, err: errors.New("boom")}
	healthy := &recordingConsumer{types: []string{"reminder.fired"}}
	bus.RegisterConsumer(failing)
	bus.RegisterConsumer(healthy)

	err := bus.Publish(context.Background(), "reminder.fired", []byte(`{}`))
	assert.NoError(t, err, "consumer failures never propagate to the publisher")
	assert.Len(t, healthy.events, 1, "remaining consumers still run")
}

func TestPublishJSON(t *testing.T) {
	bus := NewInProcessBus(nil)
	consumer := &recordingConsumer{types: []string{"announcement.performed"}}
	bus.RegisterConsumer(consumer)

	err := PublishJSON(context.Background(), bus, "announcement.performed", map[string]int{"n": 1})
	require.NoError(t, err)
	require.Len(t, consumer.events, 1)
	assert.JSONEq(t, `{"n":1}`, string(consumer.events[0].Payload))
}
