// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter throttles outbound requests for one source adapter. Public
// biomedical APIs (NCBI E-utilities in particular) enforce per-client
// request budgets; adapters wait on the limiter before every request.
type Limiter struct {
	l *rate.Limiter
}

// NewLimiter returns a Limiter allowing requestsPerSecond sustained
// requests with a burst of one. A non-positive rate disables throttling.
func NewLimiter(requestsPerSecond float64) *Limiter {
	if requestsPerSecond <= 0 {
		return &Limiter{}
	}
	return &Limiter{l: rate.NewLimiter(rate.Limit(requestsPerSecond), 1)}
}

// Wait blocks until the next request is permitted or the context is
// cancelled. A nil or disabled limiter never blocks.
func (lim *Limiter) Wait(ctx context.Context) error {
	if lim == nil || lim.l == nil {
		return nil
	}
	return lim.l.Wait(ctx)
}
