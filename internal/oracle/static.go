package oracle

import (
	"context"
	"sync"

	"github.com/mintworks/launchgate/internal/domain"
)

// StaticBalanceOracle serves balances from an in-memory table. It is
// authoritative: a wallet it has never seen holds zero.
type StaticBalanceOracle struct {
	mu       sync.RWMutex
	balances map[string]map[string]float64
}

// NewStaticBalanceOracle returns an empty StaticBalanceOracle.
func NewStaticBalanceOracle() *StaticBalanceOracle {
	return &StaticBalanceOracle{balances: make(map[string]map[string]float64)}
}

// SetBalance records the wallet's balance of the token.
func (o *StaticBalanceOracle) SetBalance(wallet, tokenID string, balance float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.balances[wallet] == nil {
		o.balances[wallet] = make(map[string]float64)
	}
	o.balances[wallet][tokenID] = balance
}

func (o *StaticBalanceOracle) Balance(_ context.Context, wallet, tokenID string) (float64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.balances[wallet][tokenID], nil
}

// StaticSocialProvider serves social accounts from an in-memory table.
type StaticSocialProvider struct {
	mu       sync.RWMutex
	accounts map[string][]domain.SocialAccount
}

// NewStaticSocialProvider returns an empty StaticSocialProvider.
func NewStaticSocialProvider() *StaticSocialProvider {
	return &StaticSocialProvider{accounts: make(map[string][]domain.SocialAccount)}
}

// SetAccounts replaces the wallet's linked accounts.
func (o *StaticSocialProvider) SetAccounts(wallet string, accounts []domain.SocialAccount) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.accounts[wallet] = append([]domain.SocialAccount(nil), accounts...)
}

func (o *StaticSocialProvider) Accounts(_ context.Context, wallet string) ([]domain.SocialAccount, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]domain.SocialAccount(nil), o.accounts[wallet]...), nil
}
