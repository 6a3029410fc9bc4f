package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HASKI-RAK/laac-api/internal/models"
	appErrors "github.com/HASKI-RAK/laac-api/pkg/errors"
)

// BreakerState is the circuit breaker state guarding LRS calls.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// stalePrefix namespaces the long-lived fallback copies of metric results.
const stalePrefix = "stale:"

// FallbackService guards the LRS with a consecutive-failure circuit breaker
// and serves stale cached results while the store is unavailable.
type FallbackService struct {
	mu sync.Mutex

	enabled          bool
	failureThreshold int
	cooldown         time.Duration

	state       BreakerState
	failures    int
	openedAt    time.Time
	now         func() time.Time

	cache    *CacheService
	staleTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewFallbackService constructs the fallback layer.
func NewFallbackService(cache *CacheService, metrics *MetricsService, logger *zap.Logger, enabled bool, failureThreshold int, cooldown, staleTTL time.Duration) *FallbackService {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	if staleTTL <= 0 {
		staleTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackService{
		enabled:          enabled,
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		state:            BreakerClosed,
		now:              time.Now,
		cache:            cache,
		staleTTL:         staleTTL,
		metrics:          metrics,
		logger:           logger,
	}
}

// IsEnabled reports whether the fallback layer is active.
func (s *FallbackService) IsEnabled() bool {
	return s != nil && s.enabled
}

// Allow reports whether an LRS call should be attempted. While the breaker
// is open only the cooldown expiry lets a single half-open probe through.
func (s *FallbackService) Allow() bool {
	if !s.IsEnabled() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case BreakerOpen:
		if s.now().Sub(s.openedAt) >= s.cooldown {
			s.transition(BreakerHalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}

// RecordSuccess resets the failure count and closes the breaker.
func (s *FallbackService) RecordSuccess() {
	if !s.IsEnabled() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures = 0
	if s.state != BreakerClosed {
		s.transition(BreakerClosed)
	}
}

// RecordFailure counts a failed LRS call, opening the breaker at the
// threshold. A half-open probe failure reopens immediately.
func (s *FallbackService) RecordFailure() {
	if !s.IsEnabled() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == BreakerHalfOpen {
		s.open()
		return
	}

	s.failures++
	if s.state == BreakerClosed && s.failures >= s.failureThreshold {
		s.open()
	}
}

// State returns the current breaker state.
func (s *FallbackService) State() BreakerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StoreStale refreshes the long-lived fallback copy of a computed result.
func (s *FallbackService) StoreStale(ctx context.Context, key string, result models.CachedResult) {
	if !s.IsEnabled() || s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, stalePrefix+key, result, s.staleTTL); err != nil {
		s.logger.Warn("stale copy write failed", zap.String("key", key), zap.Error(err))
	}
}

// ExecuteFallback serves the stale cached result for the key, if one
// exists. The caller surfaces ErrLRSUnavailable when it does not.
func (s *FallbackService) ExecuteFallback(ctx context.Context, key string) (*models.CachedResult, error) {
	if !s.IsEnabled() || s.cache == nil {
		return nil, appErrors.ErrLRSUnavailable
	}

	var stale models.CachedResult
	hit, err := s.cache.Get(ctx, stalePrefix+key, &stale)
	if err != nil || !hit {
		return nil, appErrors.ErrLRSUnavailable
	}

	s.logger.Info("serving stale metric result", zap.String("key", key))
	return &stale, nil
}

func (s *FallbackService) open() {
	s.openedAt = s.now()
	s.transition(BreakerOpen)
}

// transition must be called with the mutex held.
func (s *FallbackService) transition(next BreakerState) {
	if s.state == next {
		return
	}
	s.logger.Info("circuit breaker transition",
		zap.String("from", s.state.String()),
		zap.String("to", next.String()))
	s.state = next
	if s.metrics != nil {
		s.metrics.SetBreakerState(float64(next))
	}
}
