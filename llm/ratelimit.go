package llm

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/careerflow/careerflow/types"
)

// RateLimitedProvider wraps a Provider with a local token-bucket limit on
// requests per minute. It blocks until a slot is available or the context is
// canceled, so upstream rate errors are avoided rather than retried.
type RateLimitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewRateLimitedProvider caps the wrapped provider at rpm requests per
// minute with a burst of one. rpm <= 0 disables limiting.
func NewRateLimitedProvider(inner Provider, rpm int) *RateLimitedProvider {
	var limiter *rate.Limiter
	if rpm > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
	}
	return &RateLimitedProvider{inner: inner, limiter: limiter}
}

func (p *RateLimitedProvider) Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, types.NewError(types.ErrRateLimit, "rate limiter wait canceled").
				WithCause(err).WithProvider(p.inner.Name()).WithRetryable(true)
		}
	}
	return p.inner.Completion(ctx, req)
}

func (p *RateLimitedProvider) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	return p.inner.HealthCheck(ctx)
}

func (p *RateLimitedProvider) Name() string {
	return p.inner.Name()
}
