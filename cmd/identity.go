package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mediocregopher/radix/v3"

	"github.com/CameronXie/order-service/internal/authn"
	"github.com/CameronXie/order-service/internal/config"
	"github.com/CameronXie/order-service/internal/directory"
	"github.com/CameronXie/order-service/internal/keyfetcher"
	"github.com/CameronXie/order-service/internal/orders"
)

const redisPoolSize = 10

// newTokenParser selects how bearer tokens are verified.
func newTokenParser(cfg *config.Config, logger *slog.Logger) authn.TokenParser {
	validation := authn.ValidationConfig{
		Issuer:    cfg.AuthIssuer,
		Audience:  cfg.AuthAudience,
		ClockSkew: cfg.AuthClockSkew,
	}

	switch cfg.AuthMode {
	case config.AuthModeHMAC:
		return authn.NewHMACParser([]byte(cfg.AuthHMACSecret), validation)
	case config.AuthModeUnverified:
		logger.Warn("token signatures are not verified, the users service is the only identity check")
		return authn.NewUnverifiedParser(validation)
	default:
		from := keyfetcher.FromBase64(cfg.AuthPublicKeyBase64)
		if cfg.AuthPublicKeyBase64 == "" {
			from = keyfetcher.FromFile(cfg.AuthPublicKeyFile)
		}
		return authn.NewRSAParser(keyfetcher.Cached(from), validation)
	}
}

// newIdentityConfirmer asks the users service about every principal, through
// a cache of positive answers when IDENTITY_CACHE_TTL is set.
func newIdentityConfirmer(cfg *config.Config, logger *slog.Logger) (orders.IdentityConfirmer, func(), error) {
	client := directory.NewClient(cfg.UsersServiceURL, cfg.UsersServiceTimeout)
	if cfg.IdentityCacheTTL <= 0 {
		return client, func() {}, nil
	}

	if cfg.IdentityCacheRedisAddr == "" {
		logger.Info("identity cache enabled", "backend", "memory", "ttl", cfg.IdentityCacheTTL.String())
		return directory.NewCachedConfirmer(client, directory.NewMemoryCache(time.Now), cfg.IdentityCacheTTL, logger), func() {}, nil
	}

	pool, err := radix.NewPool("tcp", cfg.IdentityCacheRedisAddr, redisPoolSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("identity cache enabled", "backend", "redis", "ttl", cfg.IdentityCacheTTL.String())
	confirmer := directory.NewCachedConfirmer(client, directory.NewRedisCache(pool), cfg.IdentityCacheTTL, logger)

	return confirmer, func() { _ = pool.Close() }, nil
}
