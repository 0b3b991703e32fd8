package ratelimiting

import (
	"context"

	"golang.org/x/time/rate"
)

type RefillPerSecond float64
type BurstSize int

type RequestLimiter interface {
	// Limit runs operation once a slot is available. Returns false when ctx ends or its
	// deadline is too close to get a slot, in which case operation is not run.
	Limit(ctx context.Context, operation func(ctx context.Context)) bool
}

type tokenBucketRequestLimiter struct {
	limiter *rate.Limiter
}

func NewTokenBucketRequestLimiter(refillPerSecond RefillPerSecond, burstSize BurstSize) *tokenBucketRequestLimiter {
	return &tokenBucketRequestLimiter{
		limiter: rate.NewLimiter(rate.Limit(refillPerSecond), int(burstSize)),
	}
}

func (l *tokenBucketRequestLimiter) Limit(ctx context.Context, operation func(ctx context.Context)) bool {
	// Wait fails fast when the deadline would pass before a token is available
	if err := l.limiter.Wait(ctx); err != nil {
		return false
	}

	operation(ctx)
	return true
}

type unlimitedRequestLimiter struct{}

func NewUnlimitedRequestLimiter() RequestLimiter {
	return unlimitedRequestLimiter{}
}

func (unlimitedRequestLimiter) Limit(ctx context.Context, operation func(ctx context.Context)) bool {
	if ctx.Err() != nil {
		return false
	}
	operation(ctx)
	return true
}

var _ RequestLimiter = (*tokenBucketRequestLimiter)(nil)
var _ RequestLimiter = unlimitedRequestLimiter{}
