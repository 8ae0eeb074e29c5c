// Package ratelimit bounds how fast the service calls out to external
// collaborators (the Gemini classifier, the weather API, the STT
// provider) so a slow or flaky dependency cannot be hammered by a
// burst of incoming incidents (spec.md §5's per-dependency deadlines,
// generalised into a shared request-rate ceiling).
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter wraps golang.org/x/time/rate.Limiter with a name for logging
// and metrics, one instance per external collaborator.
type Limiter struct {
	name    string
	limiter *rate.Limiter
}

// New builds a Limiter allowing ratePerSecond sustained calls with a
// burst of up to burst before blocking.
func New(name string, ratePerSecond float64, burst int) *Limiter {
	return &Limiter{
		name:    name,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Wait blocks until a token is available or ctx is done, whichever
// comes first. Callers should pass a context already carrying the
// per-call timeout for the dependency being rate limited.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Name reports the collaborator this limiter guards, for logging.
func (l *Limiter) Name() string {
	return l.name
}
