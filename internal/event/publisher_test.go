package event

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintworks/launchgate/pkg/kafka"
	"github.com/mintworks/launchgate/pkg/logger"
)

type capturingProducer struct {
	topics []string
	events []*kafka.Event
	err    error
}

func (c *capturingProducer) Publish(_ context.Context, topic string, event *kafka.Event) error {
	c.topics = append(c.topics, topic)
	c.events = append(c.events, event)
	return c.err
}

func TestPublisherEmitsMintEvents(t *testing.T) {
	producer := &capturingProducer{}
	pub := NewPublisher(producer, slog.Default())
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	pub.MintReserved(ctx, MintEvent{
		ReservationID: "r1",
		CollectionID:  "c1",
		Wallet:        "w1",
		Quantity:      2,
	})

	require.Len(t, producer.events, 1)
	evt := producer.events[0]
	assert.Equal(t, TopicAccess, producer.topics[0])
	assert.Equal(t, TypeMintReserved, evt.EventType)
	assert.Equal(t, "w1", evt.AggregateID)
	assert.Equal(t, "corr-1", evt.CorrelationID)

	var payload MintEvent
	require.NoError(t, evt.UnmarshalData(&payload))
	assert.Equal(t, "r1", payload.ReservationID)
	assert.Equal(t, 2, payload.Quantity)
}

func TestPublisherEmitsPhaseEvents(t *testing.T) {
	producer := &capturingProducer{}
	pub := NewPublisher(producer, slog.Default())

	pub.PhaseCreated(context.Background(), PhaseEvent{CollectionID: "c1", PhaseID: "p1", PhaseName: "whale"})
	pub.PhaseDeleted(context.Background(), PhaseEvent{CollectionID: "c1", PhaseID: "p1"})

	require.Len(t, producer.events, 2)
	assert.Equal(t, TypePhaseCreated, producer.events[0].EventType)
	assert.Equal(t, TypePhaseDeleted, producer.events[1].EventType)
	assert.Equal(t, "p1", producer.events[0].AggregateID)
}

func TestPublisherSwallowsBrokerErrors(t *testing.T) {
	producer := &capturingProducer{err: errors.New("broker down")}
	pub := NewPublisher(producer, slog.Default())

	assert.NotPanics(t, func() {
		pub.MintCommitted(context.Background(), MintEvent{Wallet: "w1"})
	})
}

func TestNilPublisherIsNoOp(t *testing.T) {
	var pub *Publisher
	assert.NotPanics(t, func() {
		pub.MintReleased(context.Background(), MintEvent{Wallet: "w1"})
	})
}
