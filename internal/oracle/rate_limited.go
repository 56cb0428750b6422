package oracle

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited 限制对上游 oracle 的请求速率
type RateLimited struct {
	inner   Oracle
	limiter *rate.Limiter
}

func NewRateLimited(inner Oracle, perSecond float64, burst int) *RateLimited {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (r *RateLimited) Query(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.inner.Query(ctx, prompt)
}
