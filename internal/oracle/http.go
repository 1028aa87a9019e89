package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mintworks/launchgate/internal/domain"
	"github.com/mintworks/launchgate/pkg/httpclient"
)

// httpDoer is the subset of the HTTP client the oracles need. Both
// httpclient.Client and httpclient.CircuitBreakerClient satisfy it.
type httpDoer interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// HTTPBalanceOracle fetches balances from a chain indexer service.
type HTTPBalanceOracle struct {
	client  httpDoer
	baseURL string
}

// NewHTTPBalanceOracle returns an oracle backed by the indexer at baseURL.
func NewHTTPBalanceOracle(client httpDoer, baseURL string) *HTTPBalanceOracle {
	return &HTTPBalanceOracle{client: client, baseURL: baseURL}
}

type balanceResponse struct {
	Wallet  string  `json:"wallet"`
	TokenID string  `json:"token_id"`
	Balance float64 `json:"balance"`
}

func (o *HTTPBalanceOracle) Balance(ctx context.Context, wallet, tokenID string) (float64, error) {
	endpoint := fmt.Sprintf("%s/v1/wallets/%s/balances/%s",
		o.baseURL, url.PathEscape(wallet), url.PathEscape(tokenID))

	resp, err := o.client.Get(ctx, endpoint)
	if err != nil {
		return 0, fmt.Errorf("fetch balance: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		// The indexer has never seen the wallet; it holds nothing.
		return 0, nil
	}
	if resp.StatusCode != http.StatusOK {
		return 0, httpclient.ParseResponseError(resp, "balance oracle")
	}

	var body balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode balance response: %w", err)
	}
	return body.Balance, nil
}

// HTTPSocialProvider fetches linked social accounts from the verification
// service.
type HTTPSocialProvider struct {
	client  httpDoer
	baseURL string
}

// NewHTTPSocialProvider returns a provider backed by the service at baseURL.
func NewHTTPSocialProvider(client httpDoer, baseURL string) *HTTPSocialProvider {
	return &HTTPSocialProvider{client: client, baseURL: baseURL}
}

type socialAccountResponse struct {
	Platform           string    `json:"platform"`
	Username           string    `json:"username"`
	Status             string    `json:"status"`
	Metric             int       `json:"metric"`
	IsPlatformVerified bool      `json:"is_platform_verified"`
	VerifiedAt         time.Time `json:"verified_at"`
	ExpiresAt          time.Time `json:"expires_at"`
}

type socialAccountsResponse struct {
	Wallet   string                  `json:"wallet"`
	Accounts []socialAccountResponse `json:"accounts"`
}

func (o *HTTPSocialProvider) Accounts(ctx context.Context, wallet string) ([]domain.SocialAccount, error) {
	endpoint := fmt.Sprintf("%s/v1/wallets/%s/accounts", o.baseURL, url.PathEscape(wallet))

	resp, err := o.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch social accounts: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		// Wallet has no linked accounts.
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "social provider")
	}

	var body socialAccountsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode social accounts response: %w", err)
	}

	accounts := make([]domain.SocialAccount, 0, len(body.Accounts))
	for _, a := range body.Accounts {
		accounts = append(accounts, domain.SocialAccount{
			Platform:           domain.Platform(a.Platform),
			Username:           a.Username,
			Status:             a.Status,
			Metric:             a.Metric,
			IsPlatformVerified: a.IsPlatformVerified,
			VerifiedAt:         a.VerifiedAt,
			ExpiresAt:          a.ExpiresAt,
		})
	}
	return accounts, nil
}
