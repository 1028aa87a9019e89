package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintworks/launchgate/internal/eligibility"
	"github.com/mintworks/launchgate/internal/ledger"
	"github.com/mintworks/launchgate/internal/oracle"
	"github.com/mintworks/launchgate/internal/pricing"
	"github.com/mintworks/launchgate/internal/registry"
	"github.com/mintworks/launchgate/internal/scoring"
	"github.com/mintworks/launchgate/internal/service"
	"github.com/mintworks/launchgate/pkg/health"
	"github.com/mintworks/launchgate/pkg/logger"
)

type testServer struct {
	srv      *httptest.Server
	balances *oracle.StaticBalanceOracle
	socials  *oracle.StaticSocialProvider
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithSecret(t, "")
}

func newTestServerWithSecret(t *testing.T, adminSecret string) *testServer {
	t.Helper()

	log := logger.NewWithWriter("launchgate-test", "error", io.Discard)
	reg := registry.NewRegistry()
	balances := oracle.NewStaticBalanceOracle()
	socials := oracle.NewStaticSocialProvider()

	cfg := service.DefaultAccessConfig()
	cfg.OracleRetries = 0

	access := service.NewAccessService(
		reg,
		scoring.NewEngine(scoring.DefaultWeights()),
		eligibility.NewEvaluator(),
		pricing.NewEngine(),
		ledger.NewLedger(time.Minute),
		balances,
		socials,
		nil,
		oracle.SystemClock{},
		cfg,
		log,
	)
	admin := service.NewAdminService(reg, nil, oracle.SystemClock{}, log)

	router := NewRouter(RouterConfig{
		Access:      NewAccessHandler(access, log),
		Phases:      NewPhaseHandler(admin, log),
		Health:      health.NewHandler(),
		Logger:      log,
		AdminSecret: adminSecret,
		ServiceName: "launchgate-test",
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, balances: balances, socials: socials}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var envelope map[string]json.RawMessage
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	}
	return resp, envelope
}

func (ts *testServer) createCollection(t *testing.T) string {
	t.Helper()
	resp, envelope := ts.do(t, http.MethodPost, "/api/v1/collections", map[string]any{
		"name":               "los-bros",
		"base_price":         4200.69,
		"public_multiplier":  1.0,
		"allow_public_phase": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var data struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &data))
	return data.ID
}

func (ts *testServer) createWhalePhase(t *testing.T, collectionID string) string {
	t.Helper()
	resp, envelope := ts.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/collections/%s/phases", collectionID),
		map[string]any{
			"name":       "whale",
			"start_time": time.Now().Add(-time.Hour).Format(time.RFC3339),
			"end_time":   time.Now().Add(time.Hour).Format(time.RFC3339),
			"enabled":    true,
			"criteria": []map[string]any{
				{
					"kind": "token_holding",
					"token_holding": map[string]any{
						"token_id":        "LOL",
						"minimum_balance": 1000000,
					},
				},
			},
			"benefits": map[string]any{
				"price_multiplier":     0.3,
				"max_mints_total":      10,
				"max_mints_per_wallet": 2,
				"priority_access":      true,
			},
		})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var data struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &data))
	return data.ID
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.srv.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCollectionValidation(t *testing.T) {
	ts := newTestServer(t)

	resp, envelope := ts.do(t, http.MethodPost, "/api/v1/collections", map[string]any{
		"base_price": 100,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errBody struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(envelope["error"], &errBody))
	assert.Equal(t, "VALIDATION_ERROR", errBody.Code)
	assert.Contains(t, errBody.Fields, "Name")
}

func TestEligibilityEndpoint(t *testing.T) {
	ts := newTestServer(t)
	collectionID := ts.createCollection(t)
	phaseID := ts.createWhalePhase(t, collectionID)

	ts.balances.SetBalance("whale-wallet", "LOL", 5_000_000)

	resp, envelope := ts.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/collections/%s/eligibility/%s", collectionID, "whale-wallet"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report struct {
		EligiblePhaseIDs []string `json:"eligible_phase_ids"`
		Pricing          struct {
			Multiplier     float64 `json:"multiplier"`
			EffectivePrice float64 `json:"effective_price"`
		} `json:"pricing"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &report))
	assert.Equal(t, []string{phaseID}, report.EligiblePhaseIDs)
	assert.Equal(t, 0.3, report.Pricing.Multiplier)
	assert.InDelta(t, 1260.207, report.Pricing.EffectivePrice, 1e-6)
}

func TestReservationLifecycle(t *testing.T) {
	ts := newTestServer(t)
	collectionID := ts.createCollection(t)
	phaseID := ts.createWhalePhase(t, collectionID)
	ts.balances.SetBalance("whale-wallet", "LOL", 5_000_000)

	resp, envelope := ts.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/collections/%s/reservations", collectionID),
		map[string]any{"wallet": "whale-wallet", "quantity": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Reservation struct {
			ID      string `json:"id"`
			PhaseID string `json:"phase_id"`
		} `json:"reservation"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &result))
	assert.Equal(t, phaseID, result.Reservation.PhaseID)

	// A third mint for the same wallet exceeds the per-wallet cap.
	resp, _ = ts.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/collections/%s/reservations", collectionID),
		map[string]any{"wallet": "whale-wallet", "quantity": 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Commit with the settled amount from the mint step.
	resp, _ = ts.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/reservations/%s/commit", result.Reservation.ID),
		map[string]any{"value_paid": 2500.0})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Committed reservations cannot be released.
	resp, _ = ts.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/reservations/%s/release", result.Reservation.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, envelope = ts.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/collections/%s/phases/%s/stats", collectionID, phaseID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		TotalMinted    int     `json:"total_minted"`
		RemainingSlots *int    `json:"remaining_slots"`
		TotalValue     float64 `json:"total_value"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &stats))
	assert.Equal(t, 2, stats.TotalMinted)
	require.NotNil(t, stats.RemainingSlots)
	assert.Equal(t, 8, *stats.RemainingSlots)
	assert.InDelta(t, 2500.0, stats.TotalValue, 1e-9)
}

func TestReservationTargetsPhase(t *testing.T) {
	ts := newTestServer(t)
	collectionID := ts.createCollection(t)
	_ = ts.createWhalePhase(t, collectionID)

	resp, envelope := ts.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/collections/%s/phases", collectionID),
		map[string]any{
			"name":       "diamond",
			"start_time": time.Now().Add(-time.Hour).Format(time.RFC3339),
			"end_time":   time.Now().Add(time.Hour).Format(time.RFC3339),
			"enabled":    true,
			"criteria": []map[string]any{
				{
					"kind": "token_holding",
					"token_holding": map[string]any{
						"token_id":        "LOL",
						"minimum_balance": 100000,
					},
				},
			},
			"benefits": map[string]any{"price_multiplier": 0.5, "max_mints_total": 50},
		})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var diamond struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &diamond))

	ts.balances.SetBalance("whale-wallet", "LOL", 5_000_000)

	// The wallet qualifies for whale, yet directs the mint at diamond.
	resp, envelope = ts.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/collections/%s/reservations", collectionID),
		map[string]any{"wallet": "whale-wallet", "quantity": 1, "phase_id": diamond.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Reservation struct {
			PhaseID   string  `json:"phase_id"`
			UnitPrice float64 `json:"unit_price"`
		} `json:"reservation"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &result))
	assert.Equal(t, diamond.ID, result.Reservation.PhaseID)
	assert.InDelta(t, 4200.69*0.5, result.Reservation.UnitPrice, 1e-9)

	// A wallet below the diamond threshold cannot target it.
	ts.balances.SetBalance("shrimp-wallet", "LOL", 50_000)
	resp, _ = ts.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/collections/%s/reservations", collectionID),
		map[string]any{"wallet": "shrimp-wallet", "quantity": 1, "phase_id": diamond.ID})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestReserveValidation(t *testing.T) {
	ts := newTestServer(t)
	collectionID := ts.createCollection(t)

	resp, _ := ts.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/collections/%s/reservations", collectionID),
		map[string]any{"wallet": "w1-long-enough", "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPhaseAdminEndpoints(t *testing.T) {
	ts := newTestServer(t)
	collectionID := ts.createCollection(t)
	phaseID := ts.createWhalePhase(t, collectionID)

	t.Run("patch disables phase", func(t *testing.T) {
		resp, envelope := ts.do(t, http.MethodPatch,
			fmt.Sprintf("/api/v1/collections/%s/phases/%s", collectionID, phaseID),
			map[string]any{"enabled": false})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var phase struct {
			Enabled bool `json:"enabled"`
		}
		require.NoError(t, json.Unmarshal(envelope["data"], &phase))
		assert.False(t, phase.Enabled)
	})

	t.Run("active list excludes disabled phase", func(t *testing.T) {
		resp, envelope := ts.do(t, http.MethodGet,
			fmt.Sprintf("/api/v1/collections/%s/phases/active", collectionID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var phases []json.RawMessage
		require.NoError(t, json.Unmarshal(envelope["data"], &phases))
		assert.Empty(t, phases)
	})

	t.Run("delete phase", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodDelete,
			fmt.Sprintf("/api/v1/collections/%s/phases/%s", collectionID, phaseID), nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = ts.do(t, http.MethodGet,
			fmt.Sprintf("/api/v1/collections/%s/phases/%s", collectionID, phaseID), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAllowListEndpoints(t *testing.T) {
	ts := newTestServer(t)
	collectionID := ts.createCollection(t)

	resp, envelope := ts.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/collections/%s/phases", collectionID),
		map[string]any{
			"name":       "curated",
			"start_time": time.Now().Add(-time.Hour).Format(time.RFC3339),
			"end_time":   time.Now().Add(time.Hour).Format(time.RFC3339),
			"enabled":    true,
			"criteria": []map[string]any{
				{"kind": "allow_list", "allow_list": map[string]any{"capacity": 10}},
			},
			"benefits": map[string]any{"price_multiplier": 0.5},
		})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &created))

	base := fmt.Sprintf("/api/v1/collections/%s/phases/%s/allowlist", collectionID, created.ID)

	resp, _ = ts.do(t, http.MethodPost, base, map[string]any{
		"wallets": []string{"wallet-one", "wallet-two"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPut, base+"/lock", map[string]any{"locked": true})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Locked list rejects further mutation.
	resp, _ = ts.do(t, http.MethodPost, base, map[string]any{
		"wallets": []string{"wallet-three"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	const secret = "admin-gate-secret"
	ts := newTestServerWithSecret(t, secret)

	body := map[string]any{
		"name":               "gated",
		"base_price":         100.0,
		"public_multiplier":  1.0,
		"allow_public_phase": true,
	}

	// No token: rejected before the handler runs.
	resp, _ := ts.do(t, http.MethodPost, "/api/v1/collections", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Read routes stay open.
	resp, _ = ts.do(t, http.MethodGet, "/api/v1/collections", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "ops-1",
		"role": "admin",
		"exp":  jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.srv.URL+"/api/v1/collections", bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signed)

	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	assert.Equal(t, http.StatusCreated, authed.StatusCode)
}

func TestUnknownCollection(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/api/v1/collections/missing/eligibility/some-wallet", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
