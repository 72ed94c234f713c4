package rates

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/internal/metrics"
)

const (
	providerCallsPerSecond = 1
	providerBurst          = 5
)

type limitedProvider struct {
	Provider
	limiter *rate.Limiter
}

// Cache keeps a single EUR→USDT rate slot and refreshes it from providers
// in priority order.
type Cache struct {
	providers []limitedProvider
	ttl       time.Duration
	maxStale  time.Duration
	timeout   time.Duration
	now       func() time.Time

	mu     sync.RWMutex
	cached *domain.Rate
	group  singleflight.Group
}

func NewCache(ttl, maxStale, timeout time.Duration, providers ...Provider) *Cache {
	limited := make([]limitedProvider, 0, len(providers))
	for _, p := range providers {
		limited = append(limited, limitedProvider{
			Provider: p,
			limiter:  rate.NewLimiter(rate.Limit(providerCallsPerSecond), providerBurst),
		})
	}
	return &Cache{
		providers: limited,
		ttl:       ttl,
		maxStale:  maxStale,
		timeout:   timeout,
		now:       time.Now,
	}
}

func (c *Cache) GetRate(ctx context.Context) (domain.Rate, error) {
	if r, ok := c.fresh(); ok {
		metrics.RateCacheHits.WithLabelValues("fresh").Inc()
		return r, nil
	}

	// The shared refresh outlives any single caller; each caller only stops
	// waiting on its own cancellation.
	ch := c.group.DoChan("rate", func() (interface{}, error) {
		return c.refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.Rate{}, res.Err
		}
		return res.Val.(domain.Rate), nil
	case <-ctx.Done():
		return domain.Rate{}, errors.Wrap(ctx.Err(), "wait for rate")
	}
}

func (c *Cache) fresh() (domain.Rate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cached == nil || c.now().Sub(c.cached.FetchedAt) >= c.ttl {
		return domain.Rate{}, false
	}
	return *c.cached, true
}

func (c *Cache) refresh(ctx context.Context) (domain.Rate, error) {
	if r, ok := c.fresh(); ok {
		return r, nil
	}

	reasons := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		if !p.limiter.Allow() {
			metrics.RateFetches.WithLabelValues(p.Name(), "throttled").Inc()
			reasons = append(reasons, p.Name()+": throttled")
			continue
		}

		pctx, cancel := context.WithTimeout(ctx, c.timeout)
		value, err := p.Fetch(pctx)
		cancel()
		metrics.RateFetches.WithLabelValues(p.Name(), metrics.Result(err)).Inc()
		if err != nil {
			zap.L().Warn("rate provider failed", zap.String("provider", p.Name()), zap.Error(err))
			reasons = append(reasons, p.Name()+": "+err.Error())
			continue
		}

		r := domain.Rate{Value: value, Provider: p.Name(), FetchedAt: c.now()}
		c.mu.Lock()
		c.cached = &r
		c.mu.Unlock()
		zap.L().Debug("rate refreshed", zap.String("provider", r.Provider), zap.String("rate", r.Value.String()))
		return r, nil
	}

	c.mu.RLock()
	stale := c.cached
	c.mu.RUnlock()
	if stale != nil && c.now().Sub(stale.FetchedAt) <= c.maxStale {
		metrics.RateCacheHits.WithLabelValues("stale").Inc()
		zap.L().Warn("all rate providers failed, serving last known rate",
			zap.String("provider", stale.Provider),
			zap.Time("fetchedAt", stale.FetchedAt),
			zap.Strings("reasons", reasons),
		)
		return *stale, nil
	}

	zap.L().Error("rate unavailable", zap.Strings("reasons", reasons))
	return domain.Rate{}, domain.RateUnavailable(reasons)
}
