package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/mintworks/launchgate/internal/domain"
)

func intPtr(v int) *int { return &v }

// seedDemo loads a four-tier launch so a fresh instance has something to
// serve. Whale and diamond gate on token holdings, gold on social standing,
// silver on a small holding with social standing as a bonus signal.
func (a *App) seedDemo(ctx context.Context) error {
	collection, err := a.admin.CreateCollection(ctx, &domain.Collection{
		Name:             "los-bros",
		BasePrice:        4200.69,
		PublicMultiplier: 1.0,
		AllowPublicPhase: true,
	})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	phases := []*domain.Phase{
		{
			Name:        "whale",
			Description: "top holders, half-hour head start",
			StartTime:   now,
			EndTime:     now.Add(30 * time.Minute),
			Enabled:     true,
			Criteria: []domain.Criterion{{
				Kind:         domain.CriterionTokenHolding,
				TokenHolding: &domain.TokenHoldingCriterion{TokenID: "LOL", MinimumBalance: 1_000_000},
			}},
			Benefits: domain.Benefits{
				PriceMultiplier:   0.3,
				MaxMintsTotal:     intPtr(100),
				MaxMintsPerWallet: intPtr(2),
				PriorityAccess:    true,
				SkipQueue:         true,
			},
		},
		{
			Name:      "diamond",
			StartTime: now.Add(30 * time.Minute),
			EndTime:   now.Add(90 * time.Minute),
			Enabled:   true,
			Criteria: []domain.Criterion{{
				Kind:         domain.CriterionTokenHolding,
				TokenHolding: &domain.TokenHoldingCriterion{TokenID: "LOL", MinimumBalance: 100_000},
			}},
			Benefits: domain.Benefits{
				PriceMultiplier:   0.5,
				MaxMintsTotal:     intPtr(500),
				MaxMintsPerWallet: intPtr(3),
				PriorityAccess:    true,
			},
		},
		{
			Name:      "gold",
			StartTime: now.Add(90 * time.Minute),
			EndTime:   now.Add(3 * time.Hour),
			Enabled:   true,
			Criteria: []domain.Criterion{{
				Kind: domain.CriterionSocialVerification,
				SocialVerification: &domain.SocialVerificationCriterion{
					MinimumScore:      500,
					RequiredPlatforms: []domain.Platform{domain.PlatformTwitter},
				},
			}},
			Benefits: domain.Benefits{
				PriceMultiplier:   0.7,
				MaxMintsPerWallet: intPtr(5),
			},
		},
		{
			Name:      "silver",
			StartTime: now.Add(3 * time.Hour),
			EndTime:   now.Add(6 * time.Hour),
			Enabled:   true,
			Criteria: []domain.Criterion{
				{
					Kind:         domain.CriterionTokenHolding,
					TokenHolding: &domain.TokenHoldingCriterion{TokenID: "LOL", MinimumBalance: 10_000},
				},
				{
					Kind: domain.CriterionSocialVerification,
					SocialVerification: &domain.SocialVerificationCriterion{
						MinimumScore: 100,
						Optional:     true,
					},
				},
			},
			Benefits: domain.Benefits{
				PriceMultiplier:   0.85,
				MaxMintsPerWallet: intPtr(10),
			},
		},
	}

	for _, p := range phases {
		if _, err := a.admin.CreatePhase(ctx, collection.ID, p); err != nil {
			return err
		}
	}

	a.logger.Info("demo launch seeded",
		slog.String("collection_id", collection.ID),
		slog.Int("phases", len(phases)))
	return nil
}
