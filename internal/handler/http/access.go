// Package http exposes the launchpad access API.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mintworks/launchgate/internal/service"
	"github.com/mintworks/launchgate/pkg/httputil"
	"github.com/mintworks/launchgate/pkg/logger"
	"github.com/mintworks/launchgate/pkg/validator"
)

// AccessHandler serves the eligibility and reservation endpoints.
type AccessHandler struct {
	access *service.AccessService
	logger *slog.Logger
}

// NewAccessHandler returns an AccessHandler.
func NewAccessHandler(access *service.AccessService, log *slog.Logger) *AccessHandler {
	return &AccessHandler{access: access, logger: log}
}

type reserveRequest struct {
	Wallet string `json:"wallet" validate:"required,min=3,max=128"`
	// PhaseID pins the reservation to a specific phase. Empty lets the
	// service pick the wallet's best-priced eligible phase.
	PhaseID  string `json:"phase_id" validate:"omitempty,uuid4"`
	Quantity int    `json:"quantity" validate:"required,gt=0,lte=100"`
}

type commitRequest struct {
	ValuePaid *float64 `json:"value_paid" validate:"omitempty,gte=0"`
}

// CheckEligibility handles GET /collections/{collectionID}/eligibility/{wallet}.
func (h *AccessHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionID")
	wallet := chi.URLParam(r, "wallet")

	ctx := logger.WithWallet(r.Context(), wallet)
	report, err := h.access.CheckEligibility(ctx, collectionID, wallet)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: report})
}

// Reserve handles POST /collections/{collectionID}/reservations.
func (h *AccessHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionID")

	var req reserveRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ctx := logger.WithWallet(r.Context(), req.Wallet)
	result, err := h.access.Reserve(ctx, collectionID, req.Wallet, req.PhaseID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: result})
}

// Commit handles POST /reservations/{reservationID}/commit. The body is
// optional: without one the reserve-time price is recorded as paid.
func (h *AccessHandler) Commit(w http.ResponseWriter, r *http.Request) {
	reservationID := chi.URLParam(r, "reservationID")

	var req commitRequest
	if r.ContentLength != 0 {
		if err := validator.DecodeAndValidate(r, &req); err != nil {
			httputil.WriteValidationError(w, err)
			return
		}
	}

	res, err := h.access.Commit(r.Context(), reservationID, req.ValuePaid)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// Release handles POST /reservations/{reservationID}/release.
func (h *AccessHandler) Release(w http.ResponseWriter, r *http.Request) {
	reservationID := chi.URLParam(r, "reservationID")

	res, err := h.access.Release(r.Context(), reservationID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// PhaseStatistics handles GET /collections/{collectionID}/phases/{phaseID}/stats.
func (h *AccessHandler) PhaseStatistics(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionID")
	phaseID := chi.URLParam(r, "phaseID")

	stats, err := h.access.PhaseStatistics(r.Context(), collectionID, phaseID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}
