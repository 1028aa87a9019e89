package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintworks/launchgate/internal/domain"
	apperrors "github.com/mintworks/launchgate/pkg/errors"
)

func newCollection(t *testing.T, r *Registry) *domain.Collection {
	t.Helper()
	c, err := r.CreateCollection(&domain.Collection{
		Name:             "los-bros",
		BasePrice:        4200.69,
		PublicMultiplier: 1.0,
	})
	require.NoError(t, err)
	return c
}

func phaseNamed(name string, multiplier float64) *domain.Phase {
	return &domain.Phase{
		Name:      name,
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
		Enabled:   true,
		Benefits:  domain.Benefits{PriceMultiplier: multiplier},
	}
}

func TestCreateCollection(t *testing.T) {
	r := NewRegistry()
	c := newCollection(t, r)
	assert.NotEmpty(t, c.ID)

	_, err := r.CreateCollection(&domain.Collection{Name: "los-bros", PublicMultiplier: 1})
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
}

func TestCreatePhaseKeepsMultiplierOrder(t *testing.T) {
	r := NewRegistry()
	c := newCollection(t, r)

	// Insert out of order.
	for _, spec := range []struct {
		name       string
		multiplier float64
	}{
		{"gold", 0.7},
		{"whale", 0.3},
		{"silver", 0.85},
		{"diamond", 0.5},
	} {
		_, err := r.CreatePhase(c.ID, phaseNamed(spec.name, spec.multiplier))
		require.NoError(t, err)
	}

	phases, err := r.ListPhases(c.ID)
	require.NoError(t, err)
	require.Len(t, phases, 4)

	names := []string{phases[0].Name, phases[1].Name, phases[2].Name, phases[3].Name}
	assert.Equal(t, []string{"whale", "diamond", "gold", "silver"}, names)
}

func TestCreatePhaseTieKeepsInsertionOrder(t *testing.T) {
	r := NewRegistry()
	c := newCollection(t, r)

	first, err := r.CreatePhase(c.ID, phaseNamed("early", 0.5))
	require.NoError(t, err)
	second, err := r.CreatePhase(c.ID, phaseNamed("late", 0.5))
	require.NoError(t, err)

	phases, err := r.ListPhases(c.ID)
	require.NoError(t, err)
	require.Len(t, phases, 2)
	assert.Equal(t, first.ID, phases[0].ID)
	assert.Equal(t, second.ID, phases[1].ID)
}

func TestCreatePhaseRejectsInvalid(t *testing.T) {
	r := NewRegistry()
	c := newCollection(t, r)

	p := phaseNamed("broken", -0.1)
	_, err := r.CreatePhase(c.ID, p)
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))

	_, err = r.CreatePhase("missing-collection", phaseNamed("ok", 0.5))
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestActivePhases(t *testing.T) {
	r := NewRegistry()
	c := newCollection(t, r)

	_, err := r.CreatePhase(c.ID, phaseNamed("live", 0.5))
	require.NoError(t, err)

	ended := phaseNamed("ended", 0.3)
	ended.StartTime = time.Now().Add(-2 * time.Hour)
	ended.EndTime = time.Now().Add(-time.Hour)
	_, err = r.CreatePhase(c.ID, ended)
	require.NoError(t, err)

	disabled := phaseNamed("disabled", 0.4)
	disabled.Enabled = false
	_, err = r.CreatePhase(c.ID, disabled)
	require.NoError(t, err)

	active, err := r.ActivePhases(c.ID, time.Now())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "live", active[0].Name)
}

func TestUpdatePhase(t *testing.T) {
	r := NewRegistry()
	c := newCollection(t, r)

	low, err := r.CreatePhase(c.ID, phaseNamed("low", 0.3))
	require.NoError(t, err)
	_, err = r.CreatePhase(c.ID, phaseNamed("high", 0.8))
	require.NoError(t, err)

	t.Run("partial update keeps unset fields", func(t *testing.T) {
		desc := "updated"
		updated, err := r.UpdatePhase(c.ID, low.ID, UpdatePhaseInput{Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, "updated", updated.Description)
		assert.Equal(t, "low", updated.Name)
	})

	t.Run("multiplier change re-sorts", func(t *testing.T) {
		updated, err := r.UpdatePhase(c.ID, low.ID, UpdatePhaseInput{
			Benefits: &domain.Benefits{PriceMultiplier: 0.9},
		})
		require.NoError(t, err)
		assert.Equal(t, 0.9, updated.Benefits.PriceMultiplier)

		phases, err := r.ListPhases(c.ID)
		require.NoError(t, err)
		assert.Equal(t, "high", phases[0].Name)
		assert.Equal(t, "low", phases[1].Name)
	})

	t.Run("invalid update rejected", func(t *testing.T) {
		end := low.StartTime.Add(-time.Minute)
		_, err := r.UpdatePhase(c.ID, low.ID, UpdatePhaseInput{EndTime: &end})
		assert.Error(t, err)
	})

	t.Run("criteria detached from caller", func(t *testing.T) {
		criteria := []domain.Criterion{
			{
				Kind:         domain.CriterionTokenHolding,
				TokenHolding: &domain.TokenHoldingCriterion{TokenID: "LOL", MinimumBalance: 100},
			},
		}
		_, err := r.UpdatePhase(c.ID, low.ID, UpdatePhaseInput{Criteria: criteria})
		require.NoError(t, err)

		criteria[0].TokenHolding.MinimumBalance = 0

		fresh, err := r.GetPhase(c.ID, low.ID)
		require.NoError(t, err)
		assert.Equal(t, float64(100), fresh.Criteria[0].TokenHolding.MinimumBalance)
	})
}

func TestDeletePhase(t *testing.T) {
	r := NewRegistry()
	c := newCollection(t, r)

	p, err := r.CreatePhase(c.ID, phaseNamed("gone", 0.5))
	require.NoError(t, err)

	require.NoError(t, r.DeletePhase(c.ID, p.ID))
	_, err = r.GetPhase(c.ID, p.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	err = r.DeletePhase(c.ID, p.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestAllowListMembership(t *testing.T) {
	r := NewRegistry()
	c := newCollection(t, r)

	p := phaseNamed("curated", 0.5)
	p.Criteria = []domain.Criterion{
		{
			Kind:      domain.CriterionAllowList,
			AllowList: &domain.AllowListCriterion{Capacity: 3},
		},
	}
	created, err := r.CreatePhase(c.ID, p)
	require.NoError(t, err)

	t.Run("add skips duplicates", func(t *testing.T) {
		updated, err := r.AddAllowListMembers(c.ID, created.ID, []string{"w1", "w2", "w1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"w1", "w2"}, updated.Criteria[0].AllowList.Members)
	})

	t.Run("capacity enforced atomically", func(t *testing.T) {
		_, err := r.AddAllowListMembers(c.ID, created.ID, []string{"w3", "w4"})
		assert.True(t, errors.Is(err, apperrors.ErrCapacityExceeded))

		fresh, err := r.GetPhase(c.ID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"w1", "w2"}, fresh.Criteria[0].AllowList.Members, "failed add must not apply partially")
	})

	t.Run("remove ignores absent wallets", func(t *testing.T) {
		updated, err := r.RemoveAllowListMembers(c.ID, created.ID, []string{"w2", "ghost"})
		require.NoError(t, err)
		assert.Equal(t, []string{"w1"}, updated.Criteria[0].AllowList.Members)
	})

	t.Run("locked list rejects mutation", func(t *testing.T) {
		_, err := r.SetAllowListLocked(c.ID, created.ID, true)
		require.NoError(t, err)

		_, err = r.AddAllowListMembers(c.ID, created.ID, []string{"w5"})
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

		_, err = r.SetAllowListLocked(c.ID, created.ID, false)
		require.NoError(t, err)
		updated, err := r.AddAllowListMembers(c.ID, created.ID, []string{"w5"})
		require.NoError(t, err)
		assert.Equal(t, []string{"w1", "w5"}, updated.Criteria[0].AllowList.Members)
	})

	t.Run("phase without allow list", func(t *testing.T) {
		plain, err := r.CreatePhase(c.ID, phaseNamed("plain", 0.6))
		require.NoError(t, err)
		_, err = r.AddAllowListMembers(c.ID, plain.ID, []string{"w1"})
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	})
}

func TestReturnedPhasesAreCopies(t *testing.T) {
	r := NewRegistry()
	c := newCollection(t, r)

	p := phaseNamed("copy", 0.5)
	p.Criteria = []domain.Criterion{
		{
			Kind:      domain.CriterionAllowList,
			AllowList: &domain.AllowListCriterion{Members: []string{"w1"}},
		},
	}
	created, err := r.CreatePhase(c.ID, p)
	require.NoError(t, err)

	created.Criteria[0].AllowList.Members[0] = "mutated"

	fresh, err := r.GetPhase(c.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "w1", fresh.Criteria[0].AllowList.Members[0])
}
