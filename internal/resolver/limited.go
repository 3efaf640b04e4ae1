// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resolver

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited spaces out calls to an upstream resolver.
type RateLimited struct {
	next    Resolver
	limiter *rate.Limiter
}

// WithRateLimit wraps next so that at most perSecond resolutions start per
// second. perSecond <= 0 returns next unchanged.
func WithRateLimit(next Resolver, perSecond float64) Resolver {
	if perSecond <= 0 {
		return next
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Resolve waits for a token, then delegates. Waiting counts against ctx.
func (r *RateLimited) Resolve(ctx context.Context, sourceRef string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("resolver rate limit: %w", err)
	}
	return r.next.Resolve(ctx, sourceRef)
}
