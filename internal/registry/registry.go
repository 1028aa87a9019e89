// Package registry holds the launch collections and their whitelist phases.
// Phases within a collection are kept ordered by ascending price multiplier
// so the best discount is always evaluated first.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mintworks/launchgate/internal/domain"
	apperrors "github.com/mintworks/launchgate/pkg/errors"
)

// Registry is an in-memory store of collections and phases. All methods are
// safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	collections map[string]*domain.Collection
	// phases maps collection id to its phases, sorted by ascending price
	// multiplier. Insertion order breaks ties.
	phases map[string][]*domain.Phase
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		collections: make(map[string]*domain.Collection),
		phases:      make(map[string][]*domain.Phase),
	}
}

// CreateCollection validates and stores a new collection, assigning its id.
func (r *Registry) CreateCollection(c *domain.Collection) (*domain.Collection, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.collections {
		if existing.Name == c.Name {
			return nil, apperrors.AlreadyExists("collection", "name", c.Name)
		}
	}

	stored := *c
	stored.ID = uuid.New().String()
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.collections[stored.ID] = &stored
	r.phases[stored.ID] = nil

	out := stored
	return &out, nil
}

// GetCollection returns a copy of the collection.
func (r *Registry) GetCollection(id string) (*domain.Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.collections[id]
	if !ok {
		return nil, apperrors.NotFound("collection", id)
	}
	out := *c
	return &out, nil
}

// ListCollections returns copies of all collections.
func (r *Registry) ListCollections() []*domain.Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Collection, 0, len(r.collections))
	for _, c := range r.collections {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// CreatePhase validates and stores a new phase under the collection,
// assigning its id and keeping the ordering invariant.
func (r *Registry) CreatePhase(collectionID string, p *domain.Phase) (*domain.Phase, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.collections[collectionID]; !ok {
		return nil, apperrors.NotFound("collection", collectionID)
	}
	for _, existing := range r.phases[collectionID] {
		if existing.Name == p.Name {
			return nil, apperrors.AlreadyExists("phase", "name", p.Name)
		}
	}

	stored := p.Clone()
	stored.ID = uuid.New().String()
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.phases[collectionID] = insertOrdered(r.phases[collectionID], stored)
	return stored.Clone(), nil
}

// GetPhase returns a copy of the phase.
func (r *Registry) GetPhase(collectionID, phaseID string) (*domain.Phase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, err := r.findPhase(collectionID, phaseID)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// ListPhases returns copies of the collection's phases in multiplier order.
func (r *Registry) ListPhases(collectionID string) ([]*domain.Phase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.collections[collectionID]; !ok {
		return nil, apperrors.NotFound("collection", collectionID)
	}
	phases := r.phases[collectionID]
	out := make([]*domain.Phase, len(phases))
	for i, p := range phases {
		out[i] = p.Clone()
	}
	return out, nil
}

// ActivePhases returns copies of the phases that are enabled and whose
// window contains now, in multiplier order.
func (r *Registry) ActivePhases(collectionID string, now time.Time) ([]*domain.Phase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.collections[collectionID]; !ok {
		return nil, apperrors.NotFound("collection", collectionID)
	}
	var out []*domain.Phase
	for _, p := range r.phases[collectionID] {
		if p.ActiveAt(now) {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

// UpdatePhaseInput carries the fields of a partial phase update. Nil fields
// are left unchanged.
type UpdatePhaseInput struct {
	Name        *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	Enabled     *bool
	Criteria    []domain.Criterion
	Benefits    *domain.Benefits
}

// UpdatePhase applies a partial update and re-sorts when the multiplier
// changed. The updated phase must still validate as a whole.
func (r *Registry) UpdatePhase(collectionID, phaseID string, input UpdatePhaseInput) (*domain.Phase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.findPhase(collectionID, phaseID)
	if err != nil {
		return nil, err
	}

	updated := p.Clone()
	if input.Name != nil {
		updated.Name = *input.Name
	}
	if input.Description != nil {
		updated.Description = *input.Description
	}
	if input.StartTime != nil {
		updated.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		updated.EndTime = *input.EndTime
	}
	if input.Enabled != nil {
		updated.Enabled = *input.Enabled
	}
	if input.Criteria != nil {
		updated.Criteria = domain.CloneCriteria(input.Criteria)
	}
	if input.Benefits != nil {
		updated.Benefits = *input.Benefits
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	updated.UpdatedAt = time.Now().UTC()

	r.phases[collectionID] = insertOrdered(removePhase(r.phases[collectionID], phaseID), updated)
	return updated.Clone(), nil
}

// DeletePhase removes the phase from the collection.
func (r *Registry) DeletePhase(collectionID, phaseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.findPhase(collectionID, phaseID); err != nil {
		return err
	}
	r.phases[collectionID] = removePhase(r.phases[collectionID], phaseID)
	return nil
}

// AddAllowListMembers adds wallets to the phase's allow list criterion,
// skipping duplicates. Fails when the list is locked or the phase carries no
// allow list criterion.
func (r *Registry) AddAllowListMembers(collectionID, phaseID string, wallets []string) (*domain.Phase, error) {
	return r.mutateAllowList(collectionID, phaseID, func(c *domain.AllowListCriterion) error {
		seen := make(map[string]struct{}, len(c.Members))
		for _, m := range c.Members {
			seen[m] = struct{}{}
		}
		for _, w := range wallets {
			if _, ok := seen[w]; ok {
				continue
			}
			if c.Capacity > 0 && len(c.Members) >= c.Capacity {
				return apperrors.CapacityExceeded(phaseID)
			}
			c.Members = append(c.Members, w)
			seen[w] = struct{}{}
		}
		return nil
	})
}

// RemoveAllowListMembers removes wallets from the phase's allow list
// criterion. Absent wallets are ignored.
func (r *Registry) RemoveAllowListMembers(collectionID, phaseID string, wallets []string) (*domain.Phase, error) {
	drop := make(map[string]struct{}, len(wallets))
	for _, w := range wallets {
		drop[w] = struct{}{}
	}
	return r.mutateAllowList(collectionID, phaseID, func(c *domain.AllowListCriterion) error {
		kept := c.Members[:0]
		for _, m := range c.Members {
			if _, ok := drop[m]; !ok {
				kept = append(kept, m)
			}
		}
		c.Members = kept
		return nil
	})
}

// SetAllowListLocked locks or unlocks the phase's allow list.
func (r *Registry) SetAllowListLocked(collectionID, phaseID string, locked bool) (*domain.Phase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.findPhase(collectionID, phaseID)
	if err != nil {
		return nil, err
	}
	c := allowListOf(p)
	if c == nil {
		return nil, apperrors.InvalidInput("phase has no allow list criterion")
	}
	c.Locked = locked
	p.UpdatedAt = time.Now().UTC()
	return p.Clone(), nil
}

func (r *Registry) mutateAllowList(collectionID, phaseID string, fn func(*domain.AllowListCriterion) error) (*domain.Phase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.findPhase(collectionID, phaseID)
	if err != nil {
		return nil, err
	}
	c := allowListOf(p)
	if c == nil {
		return nil, apperrors.InvalidInput("phase has no allow list criterion")
	}
	if c.Locked {
		return nil, apperrors.InvalidInput("allow list is locked")
	}

	// Mutate a copy so a failed mutation leaves the list untouched.
	scratch := *c
	scratch.Members = append([]string(nil), c.Members...)
	if err := fn(&scratch); err != nil {
		return nil, err
	}
	*c = scratch
	p.UpdatedAt = time.Now().UTC()
	return p.Clone(), nil
}

func (r *Registry) findPhase(collectionID, phaseID string) (*domain.Phase, error) {
	if _, ok := r.collections[collectionID]; !ok {
		return nil, apperrors.NotFound("collection", collectionID)
	}
	for _, p := range r.phases[collectionID] {
		if p.ID == phaseID {
			return p, nil
		}
	}
	return nil, apperrors.NotFound("phase", phaseID)
}

func allowListOf(p *domain.Phase) *domain.AllowListCriterion {
	for i := range p.Criteria {
		if p.Criteria[i].Kind == domain.CriterionAllowList && p.Criteria[i].AllowList != nil {
			return p.Criteria[i].AllowList
		}
	}
	return nil
}

// insertOrdered places the phase after every phase with a multiplier less
// than or equal to its own, so ties keep insertion order.
func insertOrdered(phases []*domain.Phase, p *domain.Phase) []*domain.Phase {
	idx := sort.Search(len(phases), func(i int) bool {
		return phases[i].Benefits.PriceMultiplier > p.Benefits.PriceMultiplier
	})
	phases = append(phases, nil)
	copy(phases[idx+1:], phases[idx:])
	phases[idx] = p
	return phases
}

func removePhase(phases []*domain.Phase, phaseID string) []*domain.Phase {
	for i, p := range phases {
		if p.ID == phaseID {
			return append(phases[:i], phases[i+1:]...)
		}
	}
	return phases
}
