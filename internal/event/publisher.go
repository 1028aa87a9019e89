// Package event publishes access lifecycle events so downstream consumers
// (indexers, notification fan-out) can follow mint activity. Publishing is
// best effort: a broker fault must never fail the mint path.
package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/mintworks/launchgate/pkg/kafka"
	"github.com/mintworks/launchgate/pkg/logger"
)

// Topics.
const (
	TopicAccess = "launchpad.access.events"
	TopicPhases = "launchpad.phase.events"
)

// Event types.
const (
	TypeMintReserved  = "launchpad.access.reserved"
	TypeMintCommitted = "launchpad.access.committed"
	TypeMintReleased  = "launchpad.access.released"
	TypePhaseCreated  = "launchpad.phase.created"
	TypePhaseUpdated  = "launchpad.phase.updated"
	TypePhaseDeleted  = "launchpad.phase.deleted"
)

const source = "launchgate"

// publisher is the part of the kafka producer the package uses.
type publisher interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// MintEvent is the payload of reservation lifecycle events.
type MintEvent struct {
	ReservationID  string    `json:"reservation_id"`
	CollectionID   string    `json:"collection_id"`
	PhaseID        string    `json:"phase_id,omitempty"`
	Wallet         string    `json:"wallet"`
	Quantity       int       `json:"quantity"`
	UnitPrice      float64   `json:"unit_price"`
	EffectivePrice float64   `json:"effective_price"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// PhaseEvent is the payload of phase admin events.
type PhaseEvent struct {
	CollectionID string    `json:"collection_id"`
	PhaseID      string    `json:"phase_id"`
	PhaseName    string    `json:"phase_name,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher emits launchpad events. A nil Publisher is a no-op, so callers
// can run without a broker.
type Publisher struct {
	producer publisher
	logger   *slog.Logger
}

// NewPublisher returns a Publisher over the given producer.
func NewPublisher(producer publisher, log *slog.Logger) *Publisher {
	return &Publisher{producer: producer, logger: log}
}

// MintReserved emits a reservation event keyed by wallet.
func (p *Publisher) MintReserved(ctx context.Context, payload MintEvent) {
	p.emit(ctx, TopicAccess, TypeMintReserved, payload.Wallet, "reservation", payload)
}

// MintCommitted emits a commit event keyed by wallet.
func (p *Publisher) MintCommitted(ctx context.Context, payload MintEvent) {
	p.emit(ctx, TopicAccess, TypeMintCommitted, payload.Wallet, "reservation", payload)
}

// MintReleased emits a release event keyed by wallet.
func (p *Publisher) MintReleased(ctx context.Context, payload MintEvent) {
	p.emit(ctx, TopicAccess, TypeMintReleased, payload.Wallet, "reservation", payload)
}

// PhaseCreated emits a phase creation event keyed by phase id.
func (p *Publisher) PhaseCreated(ctx context.Context, payload PhaseEvent) {
	p.emit(ctx, TopicPhases, TypePhaseCreated, payload.PhaseID, "phase", payload)
}

// PhaseUpdated emits a phase update event keyed by phase id.
func (p *Publisher) PhaseUpdated(ctx context.Context, payload PhaseEvent) {
	p.emit(ctx, TopicPhases, TypePhaseUpdated, payload.PhaseID, "phase", payload)
}

// PhaseDeleted emits a phase deletion event keyed by phase id.
func (p *Publisher) PhaseDeleted(ctx context.Context, payload PhaseEvent) {
	p.emit(ctx, TopicPhases, TypePhaseDeleted, payload.PhaseID, "phase", payload)
}

func (p *Publisher) emit(ctx context.Context, topic, eventType, aggregateID, aggregateType string, payload any) {
	if p == nil || p.producer == nil {
		return
	}

	evt, err := kafka.NewEvent(eventType, aggregateID, aggregateType, source, payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}

	if err := p.producer.Publish(ctx, topic, evt); err != nil {
		// Logged by the producer too; the operation itself already succeeded.
		p.logger.WarnContext(ctx, "event publish failed",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}
