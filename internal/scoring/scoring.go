// Package scoring computes a wallet's social score from its linked and
// verified social accounts. The computation is pure: identical inputs always
// yield the same score.
package scoring

import (
	"math"
	"time"

	"github.com/mintworks/launchgate/internal/domain"
)

// Weights controls how each platform's audience metric contributes to the
// score, along with the flat bonuses.
type Weights struct {
	// PlatformWeights maps each platform to the multiplier applied to its
	// audience metric.
	PlatformWeights map[domain.Platform]float64
	// VerifiedAccountBonus is added once per counted account that carries
	// the platform's own verification badge.
	VerifiedAccountBonus int
	// MultiPlatformBonus is added once when the wallet has counted accounts
	// on more than one platform.
	MultiPlatformBonus int
}

// DefaultWeights returns the standard scoring configuration.
func DefaultWeights() Weights {
	return Weights{
		PlatformWeights: map[domain.Platform]float64{
			domain.PlatformTwitter:  0.001,
			domain.PlatformTelegram: 0.01,
			domain.PlatformDiscord:  0.005,
		},
		VerifiedAccountBonus: 100,
		MultiPlatformBonus:   50,
	}
}

// Engine computes social scores.
type Engine struct {
	weights Weights
}

// NewEngine returns an Engine using the given weights.
func NewEngine(weights Weights) *Engine {
	return &Engine{weights: weights}
}

// Score computes the wallet's social score at the given instant.
//
// Only accounts that are verified at now count. When a wallet has several
// verified accounts on the same platform, only the one with the highest
// audience metric counts. The result is the weighted metric sum plus the
// verified-account and multi-platform bonuses, floored to an integer. The
// score is never negative.
func (e *Engine) Score(accounts []domain.SocialAccount, now time.Time) int {
	best := make(map[domain.Platform]domain.SocialAccount)
	for _, acct := range accounts {
		if !acct.CurrentlyVerified(now) {
			continue
		}
		if cur, ok := best[acct.Platform]; !ok || acct.Metric > cur.Metric {
			best[acct.Platform] = acct
		}
	}

	var raw float64
	var bonus int
	for platform, acct := range best {
		weight, ok := e.weights.PlatformWeights[platform]
		if !ok {
			continue
		}
		if acct.Metric > 0 {
			raw += float64(acct.Metric) * weight
		}
		if acct.IsPlatformVerified {
			bonus += e.weights.VerifiedAccountBonus
		}
	}
	if len(best) > 1 {
		bonus += e.weights.MultiPlatformBonus
	}

	score := int(math.Floor(raw)) + bonus
	if score < 0 {
		return 0
	}
	return score
}
