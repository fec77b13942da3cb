package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pedidos/internal/events"
)

type captureJournal struct {
	events []events.Event
}

func (c *captureJournal) AppendEvent(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return nil
}

type captureNotifier struct {
	events []events.Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestEmitJournalsAndFansOut(t *testing.T) {
	journal := &captureJournal{}
	first := &captureNotifier{}
	second := &captureNotifier{}
	bus := &events.Bus{Journal: journal}
	bus.Subscribe(first)
	bus.Subscribe(second)

	ev, err := bus.Emit(context.Background(), events.TopicProductDeleted, "prod-1", map[string]any{"name": "Chipa"})
	require.NoError(t, err)
	require.NotEmpty(t, ev.ID)
	require.Equal(t, events.TopicProductDeleted, ev.Topic)
	require.Equal(t, "prod-1", ev.AggregateID)
	require.JSONEq(t, `{"name":"Chipa"}`, string(ev.Payload))

	require.Len(t, journal.events, 1)
	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	require.Equal(t, ev.ID, first.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(ev.Payload, &decoded))
	require.Equal(t, "Chipa", decoded["name"])
}

func TestEmitDeliversToAllDespiteNotifierError(t *testing.T) {
	failing := &captureNotifier{err: errors.New("boom")}
	healthy := &captureNotifier{}
	bus := &events.Bus{Notifiers: []events.Notifier{failing, healthy}}

	_, err := bus.Emit(context.Background(), events.TopicOrderCommitted, "order-1", nil)
	require.Error(t, err)
	require.Len(t, failing.events, 1)
	require.Len(t, healthy.events, 1)
}

func TestEmitRejectsMissingTopic(t *testing.T) {
	bus := &events.Bus{}
	_, err := bus.Emit(context.Background(), "  ", "agg", nil)
	require.Error(t, err)
}
