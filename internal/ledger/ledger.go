// Package ledger tracks mint usage per phase and enforces the capacity
// caps. Capacity is claimed at reservation time under a per-phase lock, so
// two callers can never both take the last slot.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mintworks/launchgate/internal/domain"
	apperrors "github.com/mintworks/launchgate/pkg/errors"
)

var (
	reservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launchgate_reservations_total",
		Help: "Reservation attempts by outcome.",
	}, []string{"outcome"})

	mintsCommittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "launchgate_mints_committed_total",
		Help: "Mints committed across all phases.",
	})
)

// Reservation is a pending claim on phase capacity. It holds its slots until
// committed, released, or expired.
type Reservation struct {
	ID           string `json:"id"`
	CollectionID string `json:"collection_id"`
	// PhaseID is empty for public mints.
	PhaseID   string  `json:"phase_id,omitempty"`
	Wallet    string  `json:"wallet"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	// ValuePaid is the amount actually settled, recorded at commit time.
	ValuePaid float64   `json:"value_paid,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type phaseKey struct {
	collectionID string
	phaseID      string
}

// entry is the usage state of one phase. Its mutex serializes every
// operation that touches the phase's counters.
type entry struct {
	mu           sync.Mutex
	totalMinted  int
	totalValue   float64
	perWallet    map[string]int
	reservations map[string]*Reservation
	poisoned     bool
	poisonReason string
}

// Ledger is an in-memory usage ledger. All methods are safe for concurrent
// use.
type Ledger struct {
	mu      sync.RWMutex
	entries map[phaseKey]*entry
	// byID locates a reservation's phase without scanning.
	byID map[string]phaseKey
	// ttl bounds how long a reservation holds its slots.
	ttl time.Duration
}

// DefaultReservationTTL is applied when NewLedger receives a non-positive
// TTL.
const DefaultReservationTTL = 5 * time.Minute

// NewLedger returns an empty Ledger whose reservations expire after ttl.
func NewLedger(ttl time.Duration) *Ledger {
	if ttl <= 0 {
		ttl = DefaultReservationTTL
	}
	return &Ledger{
		entries: make(map[phaseKey]*entry),
		byID:    make(map[string]phaseKey),
		ttl:     ttl,
	}
}

func (l *Ledger) entryFor(key phaseKey) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{
			perWallet:    make(map[string]int),
			reservations: make(map[string]*Reservation),
		}
		l.entries[key] = e
	}
	return e
}

// TryReserve atomically claims quantity slots for the wallet. Both the phase
// total cap and the per-wallet cap count committed mints and outstanding
// reservations. benefits is nil for public mints, which carry no caps.
func (l *Ledger) TryReserve(collectionID, phaseID, wallet string, benefits *domain.Benefits, quantity int, unitPrice float64, now time.Time) (*Reservation, error) {
	if quantity <= 0 {
		reservationsTotal.WithLabelValues("invalid").Inc()
		return nil, apperrors.InvalidInput("quantity must be positive")
	}
	if unitPrice < 0 {
		reservationsTotal.WithLabelValues("invalid").Inc()
		return nil, apperrors.InvalidInput("unit price cannot be negative")
	}

	key := phaseKey{collectionID: collectionID, phaseID: phaseID}
	e := l.entryFor(key)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.poisoned {
		return nil, apperrors.InvariantViolation(e.poisonReason)
	}

	if benefits != nil {
		if cap := benefits.MaxMintsTotal; cap != nil && e.totalMinted+quantity > *cap {
			reservationsTotal.WithLabelValues("capacity_exceeded").Inc()
			return nil, apperrors.CapacityExceeded(phaseID)
		}
		if cap := benefits.MaxMintsPerWallet; cap != nil && e.perWallet[wallet]+quantity > *cap {
			reservationsTotal.WithLabelValues("wallet_cap_exceeded").Inc()
			return nil, apperrors.WalletCapExceeded(phaseID, wallet)
		}
	}

	res := &Reservation{
		ID:           uuid.New().String(),
		CollectionID: collectionID,
		PhaseID:      phaseID,
		Wallet:       wallet,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		CreatedAt:    now,
		ExpiresAt:    now.Add(l.ttl),
	}

	e.totalMinted += quantity
	e.perWallet[wallet] += quantity
	e.reservations[res.ID] = res

	l.mu.Lock()
	l.byID[res.ID] = key
	l.mu.Unlock()

	reservationsTotal.WithLabelValues("reserved").Inc()
	out := *res
	return &out, nil
}

// Commit finalizes a reservation: its slots stay counted and the settled
// value is added to the phase total. valuePaid is the amount the external
// mint step actually took; nil records the reserve-time price.
func (l *Ledger) Commit(reservationID string, valuePaid *float64, now time.Time) (*Reservation, error) {
	if valuePaid != nil && *valuePaid < 0 {
		return nil, apperrors.InvalidInput("value paid cannot be negative")
	}

	e, res, err := l.takeReservation(reservationID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	if now.After(res.ExpiresAt) {
		// An expired reservation no longer holds its slots.
		l.releaseLocked(e, res)
		return nil, apperrors.NotFound("reservation", res.ID)
	}

	delete(e.reservations, res.ID)
	l.forget(res.ID)
	res.ValuePaid = res.UnitPrice * float64(res.Quantity)
	if valuePaid != nil {
		res.ValuePaid = *valuePaid
	}
	e.totalValue += res.ValuePaid

	mintsCommittedTotal.Inc()
	out := *res
	return &out, nil
}

// Release cancels a reservation and restores exactly the slots it held.
func (l *Ledger) Release(reservationID string) (*Reservation, error) {
	e, res, err := l.takeReservation(reservationID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	l.releaseLocked(e, res)
	out := *res
	return &out, nil
}

// takeReservation locates the reservation and returns its entry locked. The
// caller must unlock it.
func (l *Ledger) takeReservation(reservationID string) (*entry, *Reservation, error) {
	l.mu.RLock()
	key, ok := l.byID[reservationID]
	var e *entry
	if ok {
		e = l.entries[key]
	}
	l.mu.RUnlock()
	if !ok || e == nil {
		return nil, nil, apperrors.NotFound("reservation", reservationID)
	}

	e.mu.Lock()
	if e.poisoned {
		e.mu.Unlock()
		return nil, nil, apperrors.InvariantViolation(e.poisonReason)
	}
	res, ok := e.reservations[reservationID]
	if !ok {
		e.mu.Unlock()
		return nil, nil, apperrors.NotFound("reservation", reservationID)
	}
	return e, res, nil
}

// releaseLocked returns a reservation's slots. The entry lock must be held.
func (l *Ledger) releaseLocked(e *entry, res *Reservation) {
	delete(e.reservations, res.ID)
	l.forget(res.ID)

	e.totalMinted -= res.Quantity
	e.perWallet[res.Wallet] -= res.Quantity
	if e.perWallet[res.Wallet] <= 0 {
		if e.perWallet[res.Wallet] < 0 {
			l.poisonLocked(e, fmt.Sprintf("wallet %s counter went negative", res.Wallet))
			return
		}
		delete(e.perWallet, res.Wallet)
	}
	if e.totalMinted < 0 {
		l.poisonLocked(e, "phase mint counter went negative")
	}
}

func (l *Ledger) forget(reservationID string) {
	l.mu.Lock()
	delete(l.byID, reservationID)
	l.mu.Unlock()
}

// poisonLocked marks the entry unusable. Every later operation on the phase
// fails with an invariant violation rather than serving corrupt counts.
func (l *Ledger) poisonLocked(e *entry, reason string) {
	e.poisoned = true
	e.poisonReason = reason
}

// ExpireStale releases every reservation whose expiry has passed and
// returns how many were released.
func (l *Ledger) ExpireStale(now time.Time) int {
	l.mu.RLock()
	entries := make([]*entry, 0, len(l.entries))
	for _, e := range l.entries {
		entries = append(entries, e)
	}
	l.mu.RUnlock()

	var released int
	for _, e := range entries {
		e.mu.Lock()
		if e.poisoned {
			e.mu.Unlock()
			continue
		}
		var stale []*Reservation
		for _, res := range e.reservations {
			if now.After(res.ExpiresAt) {
				stale = append(stale, res)
			}
		}
		for _, res := range stale {
			l.releaseLocked(e, res)
			released++
		}
		e.mu.Unlock()
	}
	return released
}

// Snapshot returns the phase's usage at this instant. benefits supplies the
// total cap for the remaining-slots figure; nil means uncapped.
func (l *Ledger) Snapshot(collectionID, phaseID string, benefits *domain.Benefits) (*domain.PhaseStatistics, error) {
	key := phaseKey{collectionID: collectionID, phaseID: phaseID}

	l.mu.RLock()
	e := l.entries[key]
	l.mu.RUnlock()

	stats := &domain.PhaseStatistics{PhaseID: phaseID}
	if e == nil {
		if benefits != nil && benefits.MaxMintsTotal != nil {
			remaining := *benefits.MaxMintsTotal
			stats.RemainingSlots = &remaining
		}
		return stats, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.poisoned {
		return nil, apperrors.InvariantViolation(e.poisonReason)
	}

	stats.TotalMinted = e.totalMinted
	stats.UniqueWallets = len(e.perWallet)
	stats.TotalValue = e.totalValue
	if benefits != nil && benefits.MaxMintsTotal != nil {
		remaining := *benefits.MaxMintsTotal - e.totalMinted
		if remaining < 0 {
			remaining = 0
		}
		stats.RemainingSlots = &remaining
	}
	return stats, nil
}
