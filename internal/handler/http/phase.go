package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mintworks/launchgate/internal/domain"
	"github.com/mintworks/launchgate/internal/registry"
	"github.com/mintworks/launchgate/internal/service"
	"github.com/mintworks/launchgate/pkg/httputil"
	"github.com/mintworks/launchgate/pkg/validator"
)

// PhaseHandler serves the collection and phase admin endpoints.
type PhaseHandler struct {
	admin  *service.AdminService
	logger *slog.Logger
}

// NewPhaseHandler returns a PhaseHandler.
func NewPhaseHandler(admin *service.AdminService, log *slog.Logger) *PhaseHandler {
	return &PhaseHandler{admin: admin, logger: log}
}

type createCollectionRequest struct {
	Name             string  `json:"name" validate:"required,min=1,max=128"`
	BasePrice        float64 `json:"base_price" validate:"gte=0"`
	PublicMultiplier float64 `json:"public_multiplier" validate:"gte=0"`
	AllowPublicPhase bool    `json:"allow_public_phase"`
}

type tokenHoldingDTO struct {
	TokenID        string  `json:"token_id" validate:"required"`
	MinimumBalance float64 `json:"minimum_balance" validate:"gte=0"`
}

type socialVerificationDTO struct {
	MinimumScore      int      `json:"minimum_score" validate:"gte=0"`
	RequiredPlatforms []string `json:"required_platforms,omitempty" validate:"dive,oneof=twitter telegram discord"`
	Optional          bool     `json:"optional"`
}

type allowListDTO struct {
	Members  []string `json:"members,omitempty"`
	Capacity int      `json:"capacity" validate:"gte=0"`
	Locked   bool     `json:"locked"`
}

type criterionDTO struct {
	Kind               string                 `json:"kind" validate:"required,oneof=token_holding social_verification allow_list"`
	TokenHolding       *tokenHoldingDTO       `json:"token_holding,omitempty"`
	SocialVerification *socialVerificationDTO `json:"social_verification,omitempty"`
	AllowList          *allowListDTO          `json:"allow_list,omitempty"`
}

type benefitsDTO struct {
	PriceMultiplier   float64 `json:"price_multiplier" validate:"gte=0"`
	MaxMintsTotal     *int    `json:"max_mints_total,omitempty"`
	MaxMintsPerWallet *int    `json:"max_mints_per_wallet,omitempty"`
	PriorityAccess    bool    `json:"priority_access"`
	SkipQueue         bool    `json:"skip_queue"`
}

type createPhaseRequest struct {
	Name        string         `json:"name" validate:"required,min=1,max=128"`
	Description string         `json:"description,omitempty" validate:"max=1024"`
	StartTime   time.Time      `json:"start_time" validate:"required"`
	EndTime     time.Time      `json:"end_time" validate:"required"`
	Enabled     bool           `json:"enabled"`
	Criteria    []criterionDTO `json:"criteria,omitempty" validate:"dive"`
	Benefits    benefitsDTO    `json:"benefits"`
}

type updatePhaseRequest struct {
	Name        *string        `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	Description *string        `json:"description,omitempty" validate:"omitempty,max=1024"`
	StartTime   *time.Time     `json:"start_time,omitempty"`
	EndTime     *time.Time     `json:"end_time,omitempty"`
	Enabled     *bool          `json:"enabled,omitempty"`
	Criteria    []criterionDTO `json:"criteria,omitempty" validate:"omitempty,dive"`
	Benefits    *benefitsDTO   `json:"benefits,omitempty"`
}

type allowListMembersRequest struct {
	Wallets []string `json:"wallets" validate:"required,min=1,dive,min=3,max=128"`
}

type allowListLockRequest struct {
	Locked bool `json:"locked"`
}

func criteriaFromDTO(in []criterionDTO) []domain.Criterion {
	if in == nil {
		return nil
	}
	out := make([]domain.Criterion, 0, len(in))
	for _, c := range in {
		crit := domain.Criterion{Kind: domain.CriterionKind(c.Kind)}
		if c.TokenHolding != nil {
			crit.TokenHolding = &domain.TokenHoldingCriterion{
				TokenID:        c.TokenHolding.TokenID,
				MinimumBalance: c.TokenHolding.MinimumBalance,
			}
		}
		if c.SocialVerification != nil {
			platforms := make([]domain.Platform, 0, len(c.SocialVerification.RequiredPlatforms))
			for _, p := range c.SocialVerification.RequiredPlatforms {
				platforms = append(platforms, domain.Platform(p))
			}
			crit.SocialVerification = &domain.SocialVerificationCriterion{
				MinimumScore:      c.SocialVerification.MinimumScore,
				RequiredPlatforms: platforms,
				Optional:          c.SocialVerification.Optional,
			}
		}
		if c.AllowList != nil {
			crit.AllowList = &domain.AllowListCriterion{
				Members:  c.AllowList.Members,
				Capacity: c.AllowList.Capacity,
				Locked:   c.AllowList.Locked,
			}
		}
		out = append(out, crit)
	}
	return out
}

func benefitsFromDTO(b benefitsDTO) domain.Benefits {
	return domain.Benefits{
		PriceMultiplier:   b.PriceMultiplier,
		MaxMintsTotal:     b.MaxMintsTotal,
		MaxMintsPerWallet: b.MaxMintsPerWallet,
		PriorityAccess:    b.PriorityAccess,
		SkipQueue:         b.SkipQueue,
	}
}

// CreateCollection handles POST /collections.
func (h *PhaseHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	created, err := h.admin.CreateCollection(r.Context(), &domain.Collection{
		Name:             req.Name,
		BasePrice:        req.BasePrice,
		PublicMultiplier: req.PublicMultiplier,
		AllowPublicPhase: req.AllowPublicPhase,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: created})
}

// ListCollections handles GET /collections.
func (h *PhaseHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.admin.ListCollections(r.Context())})
}

// GetCollection handles GET /collections/{collectionID}.
func (h *PhaseHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	c, err := h.admin.GetCollection(r.Context(), chi.URLParam(r, "collectionID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: c})
}

// CreatePhase handles POST /collections/{collectionID}/phases.
func (h *PhaseHandler) CreatePhase(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionID")

	var req createPhaseRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	created, err := h.admin.CreatePhase(r.Context(), collectionID, &domain.Phase{
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Enabled:     req.Enabled,
		Criteria:    criteriaFromDTO(req.Criteria),
		Benefits:    benefitsFromDTO(req.Benefits),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: created})
}

// ListPhases handles GET /collections/{collectionID}/phases.
func (h *PhaseHandler) ListPhases(w http.ResponseWriter, r *http.Request) {
	phases, err := h.admin.ListPhases(r.Context(), chi.URLParam(r, "collectionID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: phases})
}

// ActivePhases handles GET /collections/{collectionID}/phases/active.
func (h *PhaseHandler) ActivePhases(w http.ResponseWriter, r *http.Request) {
	phases, err := h.admin.ActivePhases(r.Context(), chi.URLParam(r, "collectionID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: phases})
}

// GetPhase handles GET /collections/{collectionID}/phases/{phaseID}.
func (h *PhaseHandler) GetPhase(w http.ResponseWriter, r *http.Request) {
	p, err := h.admin.GetPhase(r.Context(), chi.URLParam(r, "collectionID"), chi.URLParam(r, "phaseID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: p})
}

// UpdatePhase handles PATCH /collections/{collectionID}/phases/{phaseID}.
func (h *PhaseHandler) UpdatePhase(w http.ResponseWriter, r *http.Request) {
	var req updatePhaseRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := registry.UpdatePhaseInput{
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Enabled:     req.Enabled,
		Criteria:    criteriaFromDTO(req.Criteria),
	}
	if req.Benefits != nil {
		b := benefitsFromDTO(*req.Benefits)
		input.Benefits = &b
	}

	updated, err := h.admin.UpdatePhase(r.Context(),
		chi.URLParam(r, "collectionID"), chi.URLParam(r, "phaseID"), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: updated})
}

// DeletePhase handles DELETE /collections/{collectionID}/phases/{phaseID}.
func (h *PhaseHandler) DeletePhase(w http.ResponseWriter, r *http.Request) {
	err := h.admin.DeletePhase(r.Context(),
		chi.URLParam(r, "collectionID"), chi.URLParam(r, "phaseID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddAllowListMembers handles POST /collections/{collectionID}/phases/{phaseID}/allowlist.
func (h *PhaseHandler) AddAllowListMembers(w http.ResponseWriter, r *http.Request) {
	var req allowListMembersRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	updated, err := h.admin.AddAllowListMembers(r.Context(),
		chi.URLParam(r, "collectionID"), chi.URLParam(r, "phaseID"), req.Wallets)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: updated})
}

// RemoveAllowListMembers handles DELETE /collections/{collectionID}/phases/{phaseID}/allowlist.
func (h *PhaseHandler) RemoveAllowListMembers(w http.ResponseWriter, r *http.Request) {
	var req allowListMembersRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	updated, err := h.admin.RemoveAllowListMembers(r.Context(),
		chi.URLParam(r, "collectionID"), chi.URLParam(r, "phaseID"), req.Wallets)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: updated})
}

// SetAllowListLock handles PUT /collections/{collectionID}/phases/{phaseID}/allowlist/lock.
func (h *PhaseHandler) SetAllowListLock(w http.ResponseWriter, r *http.Request) {
	var req allowListLockRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	updated, err := h.admin.SetAllowListLocked(r.Context(),
		chi.URLParam(r, "collectionID"), chi.URLParam(r, "phaseID"), req.Locked)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: updated})
}
