package datafetcher

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// LimiterSet holds one token bucket per upstream provider.
type LimiterSet struct {
	mu sync.Mutex
	limiters map[string]*rate.Limiter
	defaults rate.Limit
	burst int
}

// NewLimiterSet builds a LimiterSet with a default requests-per-second rate
// applied to any provider without an explicit override.
func NewLimiterSet(defaultRPS float64, burst int) *LimiterSet {
	return &LimiterSet{
		limiters: make(map[string]*rate.Limiter),
		defaults: rate.Limit(defaultRPS),
		burst: burst,
	}
}

// Configure sets an explicit requests-per-second rate for one provider,
// overriding the default.
func (s *LimiterSet) Configure(provider string, rps float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiters[provider] = rate.NewLimiter(rate.Limit(rps), s.burst)
}

func (s *LimiterSet) limiterFor(provider string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[provider]
	if !ok {
		l = rate.NewLimiter(s.defaults, s.burst)
		s.limiters[provider] = l
	}
	return l
}

// Wait blocks (cooperatively) until provider's bucket has a token available,
// or ctx is cancelled first.
func (s *LimiterSet) Wait(ctx context.Context, provider string) error {
	return s.limiterFor(provider).Wait(ctx)
}
