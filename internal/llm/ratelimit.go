package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter paces outgoing LLM requests
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// NewRateLimiter returns a token bucket refilled at requestsPerMinute with
// room for burstSize immediate requests. A non-positive rate disables limiting.
func NewRateLimiter(requestsPerMinute, burstSize int) RateLimiter {
	if requestsPerMinute <= 0 {
		return unlimited{}
	}
	if burstSize <= 0 {
		burstSize = 1
	}
	return rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burstSize)
}

type unlimited struct{}

func (unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}
