package directory

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachedConfirmer serves positive confirmations from a Cache for at most ttl.
// A user removed from the users service can therefore still be confirmed
// until the entry expires. Negative answers and failures are never cached.
type CachedConfirmer struct {
	next   Confirmer
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

func NewCachedConfirmer(next Confirmer, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedConfirmer {
	return &CachedConfirmer{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedConfirmer) ConfirmExists(ctx context.Context, principalID int64, token string) (bool, error) {
	key := CacheKey(principalID, token)

	hit, err := c.cache.Contains(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "identity cache lookup failed", "principal_id", principalID, "error", err)
	}
	if hit {
		return true, nil
	}

	result := c.group.DoChan(key, func() (any, error) {
		// Every caller waiting on key shares this call, so it must not end
		// with the first caller's context. The client timeout still bounds it.
		shared := context.WithoutCancel(ctx)

		exists, err := c.next.ConfirmExists(shared, principalID, token)
		if err != nil || !exists {
			return exists, err
		}

		if err := c.cache.Add(shared, key, c.ttl); err != nil {
			c.logger.WarnContext(shared, "identity cache store failed", "principal_id", principalID, "error", err)
		}

		return true, nil
	})

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return false, res.Err
		}

		return res.Val.(bool), nil
	}
}
