package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HASKI-RAK/laac-api/internal/lrs"
	"github.com/HASKI-RAK/laac-api/internal/models"
	"github.com/HASKI-RAK/laac-api/internal/provider"
	appErrors "github.com/HASKI-RAK/laac-api/pkg/errors"
)

// StatementFetcher is the slice of the LRS client the orchestrator needs.
type StatementFetcher interface {
	InstanceID() string
	QueryStatements(ctx context.Context, query *lrs.StatementQuery, maxStatements int) ([]models.Statement, error)
}

// ComputationService coordinates the cache-aside metric pipeline: cache key
// derivation, provider resolution and validation, LRS querying, provider
// invocation, persistence and telemetry.
type ComputationService struct {
	registry      *provider.Registry
	cache         *CacheService
	fallback      *FallbackService
	metrics       *MetricsService
	logger        *zap.Logger
	fetchers      map[string]StatementFetcher
	defaultLRS    string
	maxStatements int
	now           func() time.Time
}

// ComputationServiceParams groups constructor dependencies.
type ComputationServiceParams struct {
	Registry      *provider.Registry
	Cache         *CacheService
	Fallback      *FallbackService
	Metrics       *MetricsService
	Logger        *zap.Logger
	Fetchers      []StatementFetcher
	DefaultLRS    string
	MaxStatements int
}

// NewComputationService constructs the orchestrator.
func NewComputationService(params ComputationServiceParams) *ComputationService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fetchers := make(map[string]StatementFetcher, len(params.Fetchers))
	for _, f := range params.Fetchers {
		fetchers[f.InstanceID()] = f
	}
	defaultLRS := params.DefaultLRS
	if defaultLRS == "" && len(params.Fetchers) > 0 {
		defaultLRS = params.Fetchers[0].InstanceID()
	}
	maxStatements := params.MaxStatements
	if maxStatements <= 0 {
		maxStatements = 10000
	}
	return &ComputationService{
		registry:      params.Registry,
		cache:         params.Cache,
		fallback:      params.Fallback,
		metrics:       params.Metrics,
		logger:        logger,
		fetchers:      fetchers,
		defaultLRS:    defaultLRS,
		maxStatements: maxStatements,
		now:           time.Now,
	}
}

// Catalog exposes the provider contracts for the catalog endpoint.
func (s *ComputationService) Catalog() []provider.Info {
	return s.registry.Catalog()
}

// ComputeMetric runs the cache-aside pipeline for one metric request.
func (s *ComputationService) ComputeMetric(ctx context.Context, metricID string, params models.MetricParams) (*models.MetricResult, error) {
	start := s.now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveComputation(metricID, time.Since(start))
		}
	}()

	prov, err := s.registry.Resolve(metricID)
	if err != nil {
		s.recordError(metricID)
		return nil, err
	}
	info := prov.Info()

	instanceID := params.InstanceID
	if instanceID == "" {
		instanceID = s.defaultLRS
	}
	fetcher, ok := s.fetchers[instanceID]
	if !ok {
		s.recordError(metricID)
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown LRS instance %q", instanceID))
	}

	key := BuildCacheKey(metricID, instanceID, info.DashboardLevel, params)

	var cached models.CachedResult
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		result := cached.Result
		result.FromCache = true
		result.InstanceID = cached.InstanceID
		result.ComputationTime = time.Since(start).Milliseconds()
		return &result, nil
	}

	if err := s.validateParams(metricID, prov, params); err != nil {
		s.recordError(metricID)
		return nil, err
	}

	statements, err := s.queryStatements(ctx, fetcher, params)
	if err != nil {
		s.recordError(metricID)
		if result, ok := s.tryFallback(ctx, key, start); ok {
			return result, nil
		}
		s.logger.Error("LRS query failed", zap.String("metric", metricID),
			zap.String("instance", instanceID), zap.Error(err))
		return nil, appErrors.ErrLRSUnavailable
	}
	if s.fallback != nil {
		s.fallback.RecordSuccess()
	}

	result, err := prov.Compute(params, statements)
	if err != nil {
		s.recordError(metricID)
		return nil, err
	}

	entry := models.CachedResult{Result: *result, InstanceID: instanceID}
	// A failed cache write must never fail the request.
	_ = s.cache.Set(ctx, key, entry, 0)
	if s.fallback != nil {
		s.fallback.StoreStale(ctx, key, entry)
	}

	result.FromCache = false
	result.InstanceID = instanceID
	result.ComputationTime = time.Since(start).Milliseconds()
	return result, nil
}

// InvalidateMetric drops every cached entry for the metric, across all
// parameter combinations, and returns the number of removed keys.
func (s *ComputationService) InvalidateMetric(ctx context.Context, metricID string) (int, error) {
	if _, err := s.registry.Resolve(metricID); err != nil {
		return 0, err
	}
	count, err := s.cache.InvalidatePattern(ctx, "cache:"+metricID+":*")
	if err != nil {
		return count, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "cache invalidation failed")
	}
	stale, _ := s.cache.InvalidatePattern(ctx, stalePrefix+"cache:"+metricID+":*")
	return count + stale, nil
}

// validateParams applies the common parameter rules and then the
// provider-specific ones. Validation failures surface unchanged and must
// occur before any LRS call.
func (s *ComputationService) validateParams(metricID string, prov provider.Provider, params models.MetricParams) error {
	if params.Since != nil && params.Until != nil && !params.Since.Before(*params.Until) {
		return appErrors.Clone(appErrors.ErrValidation, "since must precede until")
	}
	if validator, ok := prov.(provider.ParamValidator); ok {
		if err := validator.ValidateParams(params); err != nil {
			return err
		}
	}
	return nil
}

// queryStatements derives LRS filters from the metric params and fetches
// the statement set, respecting the circuit breaker.
func (s *ComputationService) queryStatements(ctx context.Context, fetcher StatementFetcher, params models.MetricParams) ([]models.Statement, error) {
	if s.fallback.IsEnabled() && !s.fallback.Allow() {
		return nil, appErrors.Clone(appErrors.ErrLRSConnection, "circuit breaker open")
	}

	statements, err := fetcher.QueryStatements(ctx, buildStatementQuery(params), s.maxStatements)
	if err != nil {
		if s.fallback != nil {
			s.fallback.RecordFailure()
		}
		return nil, err
	}
	return statements, nil
}

// buildStatementQuery picks the finest-grained available scope as the
// activity filter. Element scope is already the leaf, so related activities
// are excluded there.
func buildStatementQuery(params models.MetricParams) *lrs.StatementQuery {
	query := lrs.NewStatementQuery()

	switch {
	case params.ElementID != "":
		query.WithActivity(params.ElementID).WithRelatedActivities(false)
	case params.TopicID != "":
		query.WithActivity(params.TopicID).WithRelatedActivities(true)
	case params.CourseID != "":
		query.WithActivity(params.CourseID).WithRelatedActivities(true)
	}

	if params.UserID != "" {
		query.WithAgent(actorForUser(params.UserID))
	}
	if params.Since != nil {
		query.WithSince(*params.Since)
	}
	if params.Until != nil {
		query.WithUntil(*params.Until)
	}

	return query
}

func actorForUser(userID string) models.Actor {
	if strings.HasPrefix(userID, "mailto:") {
		return models.Actor{Mbox: userID}
	}
	return models.Actor{Account: &models.Account{Name: userID}}
}

func (s *ComputationService) tryFallback(ctx context.Context, key string, start time.Time) (*models.MetricResult, bool) {
	if !s.fallback.IsEnabled() {
		return nil, false
	}
	stale, err := s.fallback.ExecuteFallback(ctx, key)
	if err != nil {
		return nil, false
	}
	result := stale.Result
	result.FromCache = true
	result.InstanceID = stale.InstanceID
	result.ComputationTime = time.Since(start).Milliseconds()
	if result.Metadata == nil {
		result.Metadata = map[string]interface{}{}
	}
	result.Metadata["degraded"] = true
	return &result, true
}

func (s *ComputationService) recordError(metricID string) {
	if s.metrics != nil {
		s.metrics.RecordComputationError(metricID)
	}
}
