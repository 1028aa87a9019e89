package domain

import (
	"fmt"
	"time"

	apperrors "github.com/mintworks/launchgate/pkg/errors"
)

// CriterionKind discriminates the Criterion variant in use.
type CriterionKind string

const (
	CriterionTokenHolding       CriterionKind = "token_holding"
	CriterionSocialVerification CriterionKind = "social_verification"
	CriterionAllowList          CriterionKind = "allow_list"
)

// TokenHoldingCriterion requires a minimum on-chain balance of a token.
type TokenHoldingCriterion struct {
	TokenID        string  `json:"token_id"`
	MinimumBalance float64 `json:"minimum_balance"`
}

// SocialVerificationCriterion requires a minimum social score and,
// optionally, verified accounts on specific platforms.
type SocialVerificationCriterion struct {
	MinimumScore      int        `json:"minimum_score"`
	RequiredPlatforms []Platform `json:"required_platforms,omitempty"`
	// Optional criteria never disqualify a wallet on their own.
	Optional bool `json:"optional"`
}

// AllowListCriterion requires membership in a curated wallet list. A locked
// list overrides every other criterion and makes the phase ineligible for
// all wallets.
type AllowListCriterion struct {
	Members  []string `json:"members"`
	Capacity int      `json:"capacity"`
	Locked   bool     `json:"locked"`
}

// Criterion is a tagged union of the eligibility requirements a phase can
// carry. Exactly the field matching Kind is set.
type Criterion struct {
	Kind               CriterionKind                `json:"kind"`
	TokenHolding       *TokenHoldingCriterion       `json:"token_holding,omitempty"`
	SocialVerification *SocialVerificationCriterion `json:"social_verification,omitempty"`
	AllowList          *AllowListCriterion          `json:"allow_list,omitempty"`
}

// Validate checks that the criterion carries the variant its kind names.
func (c *Criterion) Validate() error {
	switch c.Kind {
	case CriterionTokenHolding:
		if c.TokenHolding == nil {
			return apperrors.InvalidInput("token_holding criterion missing payload")
		}
		if c.TokenHolding.TokenID == "" {
			return apperrors.InvalidInput("token_holding criterion requires a token id")
		}
		if c.TokenHolding.MinimumBalance < 0 {
			return apperrors.InvalidInput("token_holding minimum balance cannot be negative")
		}
	case CriterionSocialVerification:
		if c.SocialVerification == nil {
			return apperrors.InvalidInput("social_verification criterion missing payload")
		}
		if c.SocialVerification.MinimumScore < 0 {
			return apperrors.InvalidInput("social_verification minimum score cannot be negative")
		}
		for _, p := range c.SocialVerification.RequiredPlatforms {
			if !IsValidPlatform(p) {
				return apperrors.InvalidInput(fmt.Sprintf("unsupported platform %q", p))
			}
		}
	case CriterionAllowList:
		if c.AllowList == nil {
			return apperrors.InvalidInput("allow_list criterion missing payload")
		}
		if c.AllowList.Capacity < 0 {
			return apperrors.InvalidInput("allow_list capacity cannot be negative")
		}
	default:
		return apperrors.InvalidInput(fmt.Sprintf("unknown criterion kind %q", c.Kind))
	}
	return nil
}

// Benefits are the perks a phase grants to eligible wallets.
type Benefits struct {
	// PriceMultiplier scales the collection base price. 0 means free.
	PriceMultiplier float64 `json:"price_multiplier"`
	// MaxMintsTotal caps mints across all wallets in the phase. Nil means
	// unlimited.
	MaxMintsTotal *int `json:"max_mints_total,omitempty"`
	// MaxMintsPerWallet caps mints per wallet within the phase. Nil means
	// unlimited.
	MaxMintsPerWallet *int `json:"max_mints_per_wallet,omitempty"`
	PriorityAccess    bool `json:"priority_access"`
	SkipQueue         bool `json:"skip_queue"`
}

// Phase is a whitelist window with its eligibility criteria and benefits.
type Phase struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	StartTime   time.Time   `json:"start_time"`
	EndTime     time.Time   `json:"end_time"`
	Enabled     bool        `json:"enabled"`
	Criteria    []Criterion `json:"criteria"`
	Benefits    Benefits    `json:"benefits"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// WindowContains reports whether now falls inside the phase window. The
// window is half-open: the start instant is in, the end instant is out.
func (p *Phase) WindowContains(now time.Time) bool {
	return !now.Before(p.StartTime) && now.Before(p.EndTime)
}

// ActiveAt reports whether the phase is enabled and its window contains now.
func (p *Phase) ActiveAt(now time.Time) bool {
	return p.Enabled && p.WindowContains(now)
}

// Validate checks the phase's structural invariants.
func (p *Phase) Validate() error {
	if p.Name == "" {
		return apperrors.InvalidInput("phase name is required")
	}
	if !p.EndTime.After(p.StartTime) {
		return apperrors.InvalidInput("phase end time must be after start time")
	}
	if p.Benefits.PriceMultiplier < 0 {
		return apperrors.Configuration(fmt.Sprintf("phase %q has negative price multiplier", p.Name))
	}
	if p.Benefits.MaxMintsTotal != nil && *p.Benefits.MaxMintsTotal < 0 {
		return apperrors.InvalidInput("max mints total cannot be negative")
	}
	if p.Benefits.MaxMintsPerWallet != nil && *p.Benefits.MaxMintsPerWallet < 0 {
		return apperrors.InvalidInput("max mints per wallet cannot be negative")
	}
	for i := range p.Criteria {
		if err := p.Criteria[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the criterion, detaching its payload
// pointers.
func (c Criterion) Clone() Criterion {
	cc := c
	if c.TokenHolding != nil {
		th := *c.TokenHolding
		cc.TokenHolding = &th
	}
	if c.SocialVerification != nil {
		sv := *c.SocialVerification
		sv.RequiredPlatforms = append([]Platform(nil), c.SocialVerification.RequiredPlatforms...)
		cc.SocialVerification = &sv
	}
	if c.AllowList != nil {
		al := *c.AllowList
		al.Members = append([]string(nil), c.AllowList.Members...)
		cc.AllowList = &al
	}
	return cc
}

// CloneCriteria deep-copies a criteria slice.
func CloneCriteria(criteria []Criterion) []Criterion {
	if criteria == nil {
		return nil
	}
	out := make([]Criterion, len(criteria))
	for i, c := range criteria {
		out[i] = c.Clone()
	}
	return out
}

// Clone returns a deep copy so callers cannot mutate registry state.
func (p *Phase) Clone() *Phase {
	cp := *p
	cp.Criteria = CloneCriteria(p.Criteria)
	if p.Benefits.MaxMintsTotal != nil {
		v := *p.Benefits.MaxMintsTotal
		cp.Benefits.MaxMintsTotal = &v
	}
	if p.Benefits.MaxMintsPerWallet != nil {
		v := *p.Benefits.MaxMintsPerWallet
		cp.Benefits.MaxMintsPerWallet = &v
	}
	return &cp
}

// Collection groups the phases of a single launch along with its pricing
// baseline.
type Collection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// BasePrice is the public price a multiplier scales.
	BasePrice float64 `json:"base_price"`
	// PublicMultiplier applies when no whitelist phase matches.
	PublicMultiplier float64 `json:"public_multiplier"`
	// AllowPublicPhase permits minting outside any whitelist phase.
	AllowPublicPhase bool      `json:"allow_public_phase"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Validate checks the collection's pricing invariants.
func (c *Collection) Validate() error {
	if c.Name == "" {
		return apperrors.InvalidInput("collection name is required")
	}
	if c.BasePrice < 0 {
		return apperrors.Configuration(fmt.Sprintf("collection %q has negative base price", c.Name))
	}
	if c.PublicMultiplier < 0 {
		return apperrors.Configuration(fmt.Sprintf("collection %q has negative public multiplier", c.Name))
	}
	return nil
}

// PricingResult is the effective price computed for a wallet at an instant.
type PricingResult struct {
	EffectivePrice float64 `json:"effective_price"`
	Multiplier     float64 `json:"multiplier"`
	// PhaseID is the phase whose multiplier applied. Empty means the public
	// price applied.
	PhaseID           string `json:"phase_id,omitempty"`
	PhaseName         string `json:"phase_name,omitempty"`
	IsWhitelistActive bool   `json:"is_whitelist_active"`
}

// PhaseStatistics is a point-in-time snapshot of a phase's usage.
type PhaseStatistics struct {
	PhaseID     string `json:"phase_id"`
	TotalMinted int    `json:"total_minted"`
	// RemainingSlots is nil when the phase has no total cap.
	RemainingSlots *int    `json:"remaining_slots,omitempty"`
	UniqueWallets  int     `json:"unique_wallets"`
	TotalValue     float64 `json:"total_value"`
}
