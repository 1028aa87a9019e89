package service

import (
	"context"
	"log/slog"

	"github.com/mintworks/launchgate/internal/domain"
	"github.com/mintworks/launchgate/internal/event"
	"github.com/mintworks/launchgate/internal/oracle"
	"github.com/mintworks/launchgate/internal/registry"
)

// AdminService manages collections and phases.
type AdminService struct {
	registry *registry.Registry
	events   *event.Publisher
	clock    oracle.Clock
	logger   *slog.Logger
}

// NewAdminService wires the admin surface. events may be nil.
func NewAdminService(reg *registry.Registry, events *event.Publisher, clock oracle.Clock, log *slog.Logger) *AdminService {
	if clock == nil {
		clock = oracle.SystemClock{}
	}
	return &AdminService{registry: reg, events: events, clock: clock, logger: log}
}

// CreateCollection registers a new collection.
func (s *AdminService) CreateCollection(ctx context.Context, c *domain.Collection) (*domain.Collection, error) {
	created, err := s.registry.CreateCollection(c)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "collection created",
		slog.String("collection_id", created.ID),
		slog.String("name", created.Name))
	return created, nil
}

// GetCollection returns the collection.
func (s *AdminService) GetCollection(_ context.Context, id string) (*domain.Collection, error) {
	return s.registry.GetCollection(id)
}

// ListCollections returns all collections.
func (s *AdminService) ListCollections(_ context.Context) []*domain.Collection {
	return s.registry.ListCollections()
}

// CreatePhase adds a phase to the collection.
func (s *AdminService) CreatePhase(ctx context.Context, collectionID string, p *domain.Phase) (*domain.Phase, error) {
	created, err := s.registry.CreatePhase(collectionID, p)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "phase created",
		slog.String("collection_id", collectionID),
		slog.String("phase_id", created.ID),
		slog.String("name", created.Name),
		slog.Float64("price_multiplier", created.Benefits.PriceMultiplier))
	s.events.PhaseCreated(ctx, event.PhaseEvent{
		CollectionID: collectionID,
		PhaseID:      created.ID,
		PhaseName:    created.Name,
		OccurredAt:   s.clock.Now(),
	})
	return created, nil
}

// GetPhase returns the phase.
func (s *AdminService) GetPhase(_ context.Context, collectionID, phaseID string) (*domain.Phase, error) {
	return s.registry.GetPhase(collectionID, phaseID)
}

// ListPhases returns the collection's phases in multiplier order.
func (s *AdminService) ListPhases(_ context.Context, collectionID string) ([]*domain.Phase, error) {
	return s.registry.ListPhases(collectionID)
}

// ActivePhases returns the phases live right now.
func (s *AdminService) ActivePhases(_ context.Context, collectionID string) ([]*domain.Phase, error) {
	return s.registry.ActivePhases(collectionID, s.clock.Now())
}

// UpdatePhase applies a partial update to the phase.
func (s *AdminService) UpdatePhase(ctx context.Context, collectionID, phaseID string, input registry.UpdatePhaseInput) (*domain.Phase, error) {
	updated, err := s.registry.UpdatePhase(collectionID, phaseID, input)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "phase updated",
		slog.String("collection_id", collectionID),
		slog.String("phase_id", phaseID))
	s.events.PhaseUpdated(ctx, event.PhaseEvent{
		CollectionID: collectionID,
		PhaseID:      updated.ID,
		PhaseName:    updated.Name,
		OccurredAt:   s.clock.Now(),
	})
	return updated, nil
}

// DeletePhase removes the phase.
func (s *AdminService) DeletePhase(ctx context.Context, collectionID, phaseID string) error {
	if err := s.registry.DeletePhase(collectionID, phaseID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "phase deleted",
		slog.String("collection_id", collectionID),
		slog.String("phase_id", phaseID))
	s.events.PhaseDeleted(ctx, event.PhaseEvent{
		CollectionID: collectionID,
		PhaseID:      phaseID,
		OccurredAt:   s.clock.Now(),
	})
	return nil
}

// AddAllowListMembers adds wallets to the phase's allow list.
func (s *AdminService) AddAllowListMembers(ctx context.Context, collectionID, phaseID string, wallets []string) (*domain.Phase, error) {
	updated, err := s.registry.AddAllowListMembers(collectionID, phaseID, wallets)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "allow list members added",
		slog.String("collection_id", collectionID),
		slog.String("phase_id", phaseID),
		slog.Int("count", len(wallets)))
	s.events.PhaseUpdated(ctx, event.PhaseEvent{
		CollectionID: collectionID,
		PhaseID:      updated.ID,
		PhaseName:    updated.Name,
		OccurredAt:   s.clock.Now(),
	})
	return updated, nil
}

// RemoveAllowListMembers removes wallets from the phase's allow list.
func (s *AdminService) RemoveAllowListMembers(ctx context.Context, collectionID, phaseID string, wallets []string) (*domain.Phase, error) {
	updated, err := s.registry.RemoveAllowListMembers(collectionID, phaseID, wallets)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "allow list members removed",
		slog.String("collection_id", collectionID),
		slog.String("phase_id", phaseID),
		slog.Int("count", len(wallets)))
	s.events.PhaseUpdated(ctx, event.PhaseEvent{
		CollectionID: collectionID,
		PhaseID:      updated.ID,
		PhaseName:    updated.Name,
		OccurredAt:   s.clock.Now(),
	})
	return updated, nil
}

// SetAllowListLocked locks or unlocks the phase's allow list.
func (s *AdminService) SetAllowListLocked(ctx context.Context, collectionID, phaseID string, locked bool) (*domain.Phase, error) {
	updated, err := s.registry.SetAllowListLocked(collectionID, phaseID, locked)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "allow list lock changed",
		slog.String("collection_id", collectionID),
		slog.String("phase_id", phaseID),
		slog.Bool("locked", locked))
	s.events.PhaseUpdated(ctx, event.PhaseEvent{
		CollectionID: collectionID,
		PhaseID:      updated.ID,
		PhaseName:    updated.Name,
		OccurredAt:   s.clock.Now(),
	})
	return updated, nil
}
