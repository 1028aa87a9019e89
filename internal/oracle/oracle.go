// Package oracle provides the external signal sources the eligibility
// pipeline consumes: token balances and social account state.
package oracle

import (
	"context"
	"time"

	"github.com/mintworks/launchgate/internal/domain"
)

// BalanceOracle reports a wallet's balance of a token.
type BalanceOracle interface {
	Balance(ctx context.Context, wallet, tokenID string) (float64, error)
}

// SocialProvider reports a wallet's linked social accounts.
type SocialProvider interface {
	Accounts(ctx context.Context, wallet string) ([]domain.SocialAccount, error)
}

// Clock abstracts time so phase windows can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
