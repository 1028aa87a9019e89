// Package pricing computes the effective mint price for a wallet from the
// phases it qualified for. The engine is pure and works entirely from its
// arguments.
package pricing

import (
	"fmt"

	"github.com/mintworks/launchgate/internal/domain"
	apperrors "github.com/mintworks/launchgate/pkg/errors"
)

// Engine selects the best price among eligible phases.
type Engine struct{}

// NewEngine returns an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// PriceFor computes the wallet's effective price.
//
// Among the eligible phases the lowest multiplier wins. On a tie a phase
// granting priority access beats one that does not; a remaining tie keeps
// the given order, which callers pass in registry order. With no eligible
// phase the collection's public multiplier applies. A multiplier of zero
// prices the mint free. A negative multiplier anywhere in the inputs is a
// configuration fault.
func (e *Engine) PriceFor(collection *domain.Collection, eligible []*domain.Phase) (*domain.PricingResult, error) {
	if collection.BasePrice < 0 {
		return nil, apperrors.Configuration(
			fmt.Sprintf("collection %q has negative base price", collection.Name))
	}
	if collection.PublicMultiplier < 0 {
		return nil, apperrors.Configuration(
			fmt.Sprintf("collection %q has negative public multiplier", collection.Name))
	}

	var best *domain.Phase
	for _, p := range eligible {
		if p.Benefits.PriceMultiplier < 0 {
			return nil, apperrors.Configuration(
				fmt.Sprintf("phase %q has negative price multiplier", p.Name))
		}
		if best == nil || betterThan(p, best) {
			best = p
		}
	}

	if best == nil {
		return &domain.PricingResult{
			EffectivePrice:    collection.BasePrice * collection.PublicMultiplier,
			Multiplier:        collection.PublicMultiplier,
			IsWhitelistActive: false,
		}, nil
	}

	return &domain.PricingResult{
		EffectivePrice:    collection.BasePrice * best.Benefits.PriceMultiplier,
		Multiplier:        best.Benefits.PriceMultiplier,
		PhaseID:           best.ID,
		PhaseName:         best.Name,
		IsWhitelistActive: true,
	}, nil
}

// betterThan reports whether candidate strictly beats current. Equal
// multipliers fall back to priority access; a full tie keeps current.
func betterThan(candidate, current *domain.Phase) bool {
	if candidate.Benefits.PriceMultiplier != current.Benefits.PriceMultiplier {
		return candidate.Benefits.PriceMultiplier < current.Benefits.PriceMultiplier
	}
	return candidate.Benefits.PriorityAccess && !current.Benefits.PriorityAccess
}
