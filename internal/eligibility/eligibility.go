// Package eligibility decides whether a wallet qualifies for a phase. The
// evaluator is pure: it works entirely from the signals handed to it and
// never reaches out to oracles itself.
package eligibility

import (
	"fmt"
	"time"

	"github.com/mintworks/launchgate/internal/domain"
)

// Signals bundles everything known about a wallet at evaluation time.
// A missing signal (absent balance, nil score) fails the criteria that
// depend on it rather than passing them.
type Signals struct {
	Wallet string
	// Balances maps token id to the wallet's balance. An absent key means
	// the balance could not be determined.
	Balances map[string]float64
	// SocialScore is the wallet's computed score. Nil means the score could
	// not be determined.
	SocialScore *int
	Accounts    []domain.SocialAccount
	Now         time.Time
}

// CriterionResult records how one criterion evaluated.
type CriterionResult struct {
	Kind     domain.CriterionKind `json:"kind"`
	Passed   bool                 `json:"passed"`
	Optional bool                 `json:"optional"`
	Reason   string               `json:"reason,omitempty"`
}

// Result is the outcome of evaluating a wallet against a phase.
type Result struct {
	PhaseID  string            `json:"phase_id"`
	Eligible bool              `json:"eligible"`
	Criteria []CriterionResult `json:"criteria"`
	// Reason summarizes why the wallet is ineligible. Empty when eligible.
	Reason string `json:"reason,omitempty"`
}

// Evaluator applies phase criteria to wallet signals.
type Evaluator struct{}

// NewEvaluator returns an Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate checks the wallet's signals against every criterion of the phase.
//
// All required criteria must pass. Optional criteria are evaluated and
// reported but never disqualify the wallet. A locked allow list overrides
// everything else and makes the phase ineligible regardless of the other
// criteria. A phase with no criteria is open to every wallet.
func (e *Evaluator) Evaluate(phase *domain.Phase, signals Signals) Result {
	res := Result{
		PhaseID:  phase.ID,
		Eligible: true,
		Criteria: make([]CriterionResult, 0, len(phase.Criteria)),
	}

	for i := range phase.Criteria {
		c := &phase.Criteria[i]
		if c.Kind == domain.CriterionAllowList && c.AllowList != nil && c.AllowList.Locked {
			res.Eligible = false
			res.Reason = "allow list is locked"
			res.Criteria = append(res.Criteria, CriterionResult{
				Kind:   c.Kind,
				Passed: false,
				Reason: "allow list is locked",
			})
			return res
		}
	}

	for i := range phase.Criteria {
		cr := e.evaluateCriterion(&phase.Criteria[i], signals)
		res.Criteria = append(res.Criteria, cr)
		if !cr.Passed && !cr.Optional {
			res.Eligible = false
			if res.Reason == "" {
				res.Reason = cr.Reason
			}
		}
	}
	return res
}

func (e *Evaluator) evaluateCriterion(c *domain.Criterion, signals Signals) CriterionResult {
	switch c.Kind {
	case domain.CriterionTokenHolding:
		return e.evaluateTokenHolding(c.TokenHolding, signals)
	case domain.CriterionSocialVerification:
		return e.evaluateSocialVerification(c.SocialVerification, signals)
	case domain.CriterionAllowList:
		return e.evaluateAllowList(c.AllowList, signals)
	default:
		// Unknown kinds fail closed.
		return CriterionResult{
			Kind:   c.Kind,
			Passed: false,
			Reason: fmt.Sprintf("unknown criterion kind %q", c.Kind),
		}
	}
}

func (e *Evaluator) evaluateTokenHolding(c *domain.TokenHoldingCriterion, signals Signals) CriterionResult {
	res := CriterionResult{Kind: domain.CriterionTokenHolding}
	if c == nil {
		res.Reason = "criterion payload missing"
		return res
	}
	balance, ok := signals.Balances[c.TokenID]
	if !ok {
		res.Reason = fmt.Sprintf("balance for token %s unavailable", c.TokenID)
		return res
	}
	if balance < c.MinimumBalance {
		res.Reason = fmt.Sprintf("balance %.4f below minimum %.4f", balance, c.MinimumBalance)
		return res
	}
	res.Passed = true
	return res
}

func (e *Evaluator) evaluateSocialVerification(c *domain.SocialVerificationCriterion, signals Signals) CriterionResult {
	res := CriterionResult{Kind: domain.CriterionSocialVerification}
	if c == nil {
		res.Reason = "criterion payload missing"
		return res
	}
	res.Optional = c.Optional

	if signals.SocialScore == nil {
		res.Reason = "social score unavailable"
		return res
	}
	if *signals.SocialScore < c.MinimumScore {
		res.Reason = fmt.Sprintf("score %d below minimum %d", *signals.SocialScore, c.MinimumScore)
		return res
	}
	for _, platform := range c.RequiredPlatforms {
		if !hasVerifiedAccount(signals, platform) {
			res.Reason = fmt.Sprintf("no verified %s account", platform)
			return res
		}
	}
	res.Passed = true
	return res
}

func (e *Evaluator) evaluateAllowList(c *domain.AllowListCriterion, signals Signals) CriterionResult {
	res := CriterionResult{Kind: domain.CriterionAllowList}
	if c == nil {
		res.Reason = "criterion payload missing"
		return res
	}
	for _, member := range c.Members {
		if member == signals.Wallet {
			res.Passed = true
			return res
		}
	}
	res.Reason = "wallet not on allow list"
	return res
}

func hasVerifiedAccount(signals Signals, platform domain.Platform) bool {
	for _, acct := range signals.Accounts {
		if acct.Platform == platform && acct.CurrentlyVerified(signals.Now) {
			return true
		}
	}
	return false
}
