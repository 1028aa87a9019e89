// Package service orchestrates eligibility checks, pricing, and mint
// reservations across the registry, ledger, and external oracles.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mintworks/launchgate/internal/domain"
	"github.com/mintworks/launchgate/internal/eligibility"
	"github.com/mintworks/launchgate/internal/event"
	"github.com/mintworks/launchgate/internal/ledger"
	"github.com/mintworks/launchgate/internal/oracle"
	"github.com/mintworks/launchgate/internal/pricing"
	"github.com/mintworks/launchgate/internal/registry"
	"github.com/mintworks/launchgate/internal/scoring"
	apperrors "github.com/mintworks/launchgate/pkg/errors"
)

// EligibilityReport is the full outcome of an eligibility check: the
// wallet's score, every active phase's evaluation, and the resulting price.
type EligibilityReport struct {
	Wallet      string               `json:"wallet"`
	SocialScore int                  `json:"social_score"`
	Phases      []eligibility.Result `json:"phases"`
	// EligiblePhaseIDs lists the phases the wallet qualified for, best
	// multiplier first.
	EligiblePhaseIDs []string              `json:"eligible_phase_ids"`
	Pricing          *domain.PricingResult `json:"pricing"`
	CheckedAt        time.Time             `json:"checked_at"`
}

// ReserveResult pairs a reservation with the pricing that produced it.
type ReserveResult struct {
	Reservation *ledger.Reservation   `json:"reservation"`
	Pricing     *domain.PricingResult `json:"pricing"`
}

// AccessConfig tunes the coordinator.
type AccessConfig struct {
	// OracleRetries bounds the retry attempts per oracle call.
	OracleRetries uint64
	// OracleRetryInterval seeds the exponential backoff between attempts.
	OracleRetryInterval time.Duration
}

// DefaultAccessConfig returns the standard coordinator tuning.
func DefaultAccessConfig() AccessConfig {
	return AccessConfig{
		OracleRetries:       3,
		OracleRetryInterval: 100 * time.Millisecond,
	}
}

// AccessService coordinates the access pipeline.
type AccessService struct {
	registry  *registry.Registry
	scorer    *scoring.Engine
	evaluator *eligibility.Evaluator
	pricer    *pricing.Engine
	ledger    *ledger.Ledger
	balances  oracle.BalanceOracle
	socials   oracle.SocialProvider
	events    *event.Publisher
	clock     oracle.Clock
	cfg       AccessConfig
	logger    *slog.Logger
}

// NewAccessService wires the coordinator. events may be nil when no broker
// is configured.
func NewAccessService(
	reg *registry.Registry,
	scorer *scoring.Engine,
	evaluator *eligibility.Evaluator,
	pricer *pricing.Engine,
	led *ledger.Ledger,
	balances oracle.BalanceOracle,
	socials oracle.SocialProvider,
	events *event.Publisher,
	clock oracle.Clock,
	cfg AccessConfig,
	log *slog.Logger,
) *AccessService {
	if clock == nil {
		clock = oracle.SystemClock{}
	}
	return &AccessService{
		registry:  reg,
		scorer:    scorer,
		evaluator: evaluator,
		pricer:    pricer,
		ledger:    led,
		balances:  balances,
		socials:   socials,
		events:    events,
		clock:     clock,
		cfg:       cfg,
		logger:    log,
	}
}

// CheckEligibility evaluates the wallet against every active phase of the
// collection and prices the result.
func (s *AccessService) CheckEligibility(ctx context.Context, collectionID, wallet string) (*EligibilityReport, error) {
	if wallet == "" {
		return nil, apperrors.InvalidInput("wallet address is required")
	}

	collection, err := s.registry.GetCollection(collectionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	active, err := s.registry.ActivePhases(collectionID, now)
	if err != nil {
		return nil, err
	}

	signals, err := s.gatherSignals(ctx, wallet, active, now)
	if err != nil {
		return nil, err
	}

	report := &EligibilityReport{
		Wallet:    wallet,
		CheckedAt: now,
	}
	if signals.SocialScore != nil {
		report.SocialScore = *signals.SocialScore
	}

	var eligible []*domain.Phase
	for _, phase := range active {
		res := s.evaluator.Evaluate(phase, signals)
		report.Phases = append(report.Phases, res)
		if res.Eligible {
			eligible = append(eligible, phase)
			report.EligiblePhaseIDs = append(report.EligiblePhaseIDs, phase.ID)
		}
	}

	priced, err := s.pricer.PriceFor(collection, eligible)
	if err != nil {
		return nil, err
	}
	report.Pricing = priced

	s.logger.InfoContext(ctx, "eligibility checked",
		slog.String("collection_id", collectionID),
		slog.String("wallet", wallet),
		slog.Int("active_phases", len(active)),
		slog.Int("eligible_phases", len(eligible)),
		slog.Float64("effective_price", priced.EffectivePrice),
	)
	return report, nil
}

// Reserve checks eligibility and atomically claims quantity mint slots.
// With an empty phaseID the wallet's best-priced eligible phase is used;
// a non-empty phaseID directs the reservation at that phase, provided the
// wallet qualifies for it. Without an eligible phase the mint falls back to
// the public price when the collection allows public minting.
func (s *AccessService) Reserve(ctx context.Context, collectionID, wallet, phaseID string, quantity int) (*ReserveResult, error) {
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be positive")
	}

	report, err := s.CheckEligibility(ctx, collectionID, wallet)
	if err != nil {
		return nil, err
	}

	collection, err := s.registry.GetCollection(collectionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	priced := report.Pricing

	var benefits *domain.Benefits
	switch {
	case phaseID != "":
		phase, err := s.registry.GetPhase(collectionID, phaseID)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(report.EligiblePhaseIDs, phaseID) {
			return nil, apperrors.NotEligible(fmt.Sprintf("wallet does not qualify for phase %s", phaseID))
		}
		priced, err = s.pricer.PriceFor(collection, []*domain.Phase{phase})
		if err != nil {
			return nil, err
		}
		benefits = &phase.Benefits
	case priced.IsWhitelistActive:
		phase, err := s.registry.GetPhase(collectionID, priced.PhaseID)
		if err != nil {
			return nil, err
		}
		benefits = &phase.Benefits
	case !collection.AllowPublicPhase:
		return nil, apperrors.NotEligible("wallet is not eligible for any active phase")
	}

	res, err := s.ledger.TryReserve(collectionID, priced.PhaseID, wallet, benefits, quantity, priced.EffectivePrice, now)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "mint reserved",
		slog.String("collection_id", collectionID),
		slog.String("phase_id", priced.PhaseID),
		slog.String("wallet", wallet),
		slog.String("reservation_id", res.ID),
		slog.Int("quantity", quantity),
	)
	s.events.MintReserved(ctx, event.MintEvent{
		ReservationID:  res.ID,
		CollectionID:   collectionID,
		PhaseID:        res.PhaseID,
		Wallet:         wallet,
		Quantity:       quantity,
		UnitPrice:      res.UnitPrice,
		EffectivePrice: res.UnitPrice * float64(quantity),
		OccurredAt:     now,
	})

	return &ReserveResult{Reservation: res, Pricing: priced}, nil
}

// Commit finalizes a reservation. valuePaid overrides the reserve-time
// price when the external mint settled for a different amount; nil keeps
// the reserved price.
func (s *AccessService) Commit(ctx context.Context, reservationID string, valuePaid *float64) (*ledger.Reservation, error) {
	now := s.clock.Now()
	res, err := s.ledger.Commit(reservationID, valuePaid, now)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "mint committed",
		slog.String("reservation_id", res.ID),
		slog.String("wallet", res.Wallet),
		slog.Int("quantity", res.Quantity),
		slog.Float64("value_paid", res.ValuePaid),
	)
	s.events.MintCommitted(ctx, event.MintEvent{
		ReservationID:  res.ID,
		CollectionID:   res.CollectionID,
		PhaseID:        res.PhaseID,
		Wallet:         res.Wallet,
		Quantity:       res.Quantity,
		UnitPrice:      res.UnitPrice,
		EffectivePrice: res.ValuePaid,
		OccurredAt:     now,
	})
	return res, nil
}

// Release cancels a reservation and returns its slots.
func (s *AccessService) Release(ctx context.Context, reservationID string) (*ledger.Reservation, error) {
	res, err := s.ledger.Release(reservationID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "mint released",
		slog.String("reservation_id", res.ID),
		slog.String("wallet", res.Wallet),
		slog.Int("quantity", res.Quantity),
	)
	s.events.MintReleased(ctx, event.MintEvent{
		ReservationID: res.ID,
		CollectionID:  res.CollectionID,
		PhaseID:       res.PhaseID,
		Wallet:        res.Wallet,
		Quantity:      res.Quantity,
		UnitPrice:     res.UnitPrice,
		OccurredAt:    s.clock.Now(),
	})
	return res, nil
}

// PhaseStatistics snapshots the phase's usage.
func (s *AccessService) PhaseStatistics(ctx context.Context, collectionID, phaseID string) (*domain.PhaseStatistics, error) {
	phase, err := s.registry.GetPhase(collectionID, phaseID)
	if err != nil {
		return nil, err
	}
	return s.ledger.Snapshot(collectionID, phaseID, &phase.Benefits)
}

// RunReservationSweeper releases expired reservations every interval until
// the context is canceled.
func (s *AccessService) RunReservationSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if released := s.ledger.ExpireStale(s.clock.Now()); released > 0 {
				s.logger.InfoContext(ctx, "expired reservations released",
					slog.Int("count", released))
			}
		}
	}
}

// gatherSignals fetches the balances and social state the active phases'
// criteria need. Oracle calls are retried with exponential backoff; a call
// that still fails afterwards aborts the check as an oracle outage.
func (s *AccessService) gatherSignals(ctx context.Context, wallet string, phases []*domain.Phase, now time.Time) (eligibility.Signals, error) {
	signals := eligibility.Signals{
		Wallet:   wallet,
		Balances: make(map[string]float64),
		Now:      now,
	}

	needSocial := false
	tokens := make(map[string]struct{})
	for _, phase := range phases {
		for _, c := range phase.Criteria {
			switch c.Kind {
			case domain.CriterionTokenHolding:
				if c.TokenHolding != nil {
					tokens[c.TokenHolding.TokenID] = struct{}{}
				}
			case domain.CriterionSocialVerification:
				needSocial = true
			}
		}
	}

	for tokenID := range tokens {
		balance, err := s.fetchBalance(ctx, wallet, tokenID)
		if err != nil {
			return signals, apperrors.OracleUnavailable("balance", err)
		}
		signals.Balances[tokenID] = balance
	}

	if needSocial {
		accounts, err := s.fetchAccounts(ctx, wallet)
		if err != nil {
			return signals, apperrors.OracleUnavailable("social provider", err)
		}
		signals.Accounts = accounts
		score := s.scorer.Score(accounts, now)
		signals.SocialScore = &score
	}

	return signals, nil
}

func (s *AccessService) fetchBalance(ctx context.Context, wallet, tokenID string) (float64, error) {
	var balance float64
	op := func() error {
		var err error
		balance, err = s.balances.Balance(ctx, wallet, tokenID)
		return err
	}
	if err := backoff.Retry(op, s.retryPolicy(ctx)); err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *AccessService) fetchAccounts(ctx context.Context, wallet string) ([]domain.SocialAccount, error) {
	var accounts []domain.SocialAccount
	op := func() error {
		var err error
		accounts, err = s.socials.Accounts(ctx, wallet)
		return err
	}
	if err := backoff.Retry(op, s.retryPolicy(ctx)); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *AccessService) retryPolicy(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.OracleRetryInterval
	return backoff.WithContext(backoff.WithMaxRetries(bo, s.cfg.OracleRetries), ctx)
}
