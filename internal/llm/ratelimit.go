package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited spaces calls to the wrapped Invoker to respect provider quotas.
// It waits for a token; it never retries.
type RateLimited struct {
	next    Invoker
	limiter *rate.Limiter
}

// NewRateLimited returns next unchanged when perMinute is not positive.
func NewRateLimited(next Invoker, perMinute int) Invoker {
	if perMinute <= 0 {
		return next
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (r *RateLimited) Invoke(ctx context.Context, req Request) (ContentResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ContentResponse{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.Invoke(ctx, req)
}
