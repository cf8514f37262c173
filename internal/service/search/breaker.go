package search

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerSearcher wraps an external index with a circuit breaker so a
// failing index degrades the fusion to the remaining sources instead of
// failing every query into it.
type BreakerSearcher struct {
	inner   Searcher
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewBreakerSearcher wraps inner with a named circuit breaker.
func NewBreakerSearcher(name string, inner Searcher, logger *zap.Logger) *BreakerSearcher {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("search source circuit state changed",
				zap.String("source", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &BreakerSearcher{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

func (b *BreakerSearcher) Search(ctx context.Context, query string, topK int) ([]ScoredItem, error) {
	result, err := b.breaker.Execute(func() (any, error) {
		return b.inner.Search(ctx, query, topK)
	})
	if err != nil {
		return nil, err
	}
	return result.([]ScoredItem), nil
}

var _ Searcher = (*BreakerSearcher)(nil)
