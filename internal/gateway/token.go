package gateway

import (
	"context"
	"time"

	"aidapay/internal/cache"
)

// tokenSource is a read-through cache for OAuth client-credential tokens.
// Tokens are cached in the shared store so all service instances reuse one
// token, and expire 60 seconds before the provider's stated expiry so a
// stale-but-expired token is never handed out.
type tokenSource struct {
	store cache.Store
	key   string
	fetch func(ctx context.Context) (token string, expiresIn int64, err error)
}

const tokenExpiryMargin = 60

func (t *tokenSource) token(ctx context.Context) (string, error) {
	if cached, ok, err := t.store.Get(ctx, t.key); err == nil && ok {
		return cached, nil
	}

	token, expiresIn, err := t.fetch(ctx)
	if err != nil {
		return "", err
	}

	ttl := time.Duration(expiresIn-tokenExpiryMargin) * time.Second
	if ttl > 0 {
		_ = t.store.Set(ctx, t.key, token, ttl)
	}
	return token, nil
}
