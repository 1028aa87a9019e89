package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedBalanceOracle fronts a BalanceOracle with a redis cache. Cache
// faults are logged and fall through to the inner oracle, so redis being
// down degrades latency, not correctness.
type CachedBalanceOracle struct {
	inner  BalanceOracle
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedBalanceOracle wraps inner with a redis cache whose entries live
// for ttl.
func NewCachedBalanceOracle(inner BalanceOracle, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CachedBalanceOracle {
	return &CachedBalanceOracle{inner: inner, client: client, ttl: ttl, logger: logger}
}

func balanceCacheKey(wallet, tokenID string) string {
	return fmt.Sprintf("launchgate:balance:%s:%s", wallet, tokenID)
}

func (o *CachedBalanceOracle) Balance(ctx context.Context, wallet, tokenID string) (float64, error) {
	key := balanceCacheKey(wallet, tokenID)

	cached, err := o.client.Get(ctx, key).Result()
	if err == nil {
		balance, parseErr := strconv.ParseFloat(cached, 64)
		if parseErr == nil {
			return balance, nil
		}
		o.logger.WarnContext(ctx, "corrupt balance cache entry",
			slog.String("key", key), slog.String("value", cached))
	} else if err != redis.Nil {
		o.logger.WarnContext(ctx, "balance cache read failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}

	balance, err := o.inner.Balance(ctx, wallet, tokenID)
	if err != nil {
		return 0, err
	}

	if setErr := o.client.Set(ctx, key, strconv.FormatFloat(balance, 'f', -1, 64), o.ttl).Err(); setErr != nil {
		o.logger.WarnContext(ctx, "balance cache write failed",
			slog.String("key", key), slog.String("error", setErr.Error()))
	}
	return balance, nil
}

// Invalidate drops the cached balance so the next read hits the inner
// oracle.
func (o *CachedBalanceOracle) Invalidate(ctx context.Context, wallet, tokenID string) error {
	return o.client.Del(ctx, balanceCacheKey(wallet, tokenID)).Err()
}
