package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HASKI-RAK/laac-api/internal/lrs"
	"github.com/HASKI-RAK/laac-api/internal/models"
	"github.com/HASKI-RAK/laac-api/internal/provider"
	"github.com/HASKI-RAK/laac-api/internal/xapi"
	appErrors "github.com/HASKI-RAK/laac-api/pkg/errors"
)

type memCacheRepo struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
}

func newMemCacheRepo() *memCacheRepo {
	return &memCacheRepo{data: map[string][]byte{}}
}

func (r *memCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return r.getErr
	}
	raw, ok := r.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *memCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return r.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.data[key] = raw
	return nil
}

func (r *memCacheRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, key)
	return nil
}

func (r *memCacheRepo) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := pattern
	if len(prefix) > 0 && prefix[len(prefix)-1] == '*' {
		prefix = prefix[:len(prefix)-1]
	}
	count := 0
	for key := range r.data {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(r.data, key)
			count++
		}
	}
	return count, nil
}

func (r *memCacheRepo) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.data))
	for key := range r.data {
		keys = append(keys, key)
	}
	return keys
}

type fakeFetcher struct {
	id         string
	statements []models.Statement
	err        error
	calls      int
}

func (f *fakeFetcher) InstanceID() string {
	if f.id == "" {
		return "default"
	}
	return f.id
}

func (f *fakeFetcher) QueryStatements(context.Context, *lrs.StatementQuery, int) ([]models.Statement, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.statements, nil
}

func newTestComputation(t *testing.T, repo *memCacheRepo, fetcher *fakeFetcher) *ComputationService {
	t.Helper()
	registry, err := provider.DefaultRegistry()
	require.NoError(t, err)

	cacheSvc := NewCacheService(repo, nil, time.Minute, nil, true)
	fallbackSvc := NewFallbackService(cacheSvc, nil, nil, true, 5, 30*time.Second, time.Hour)

	return NewComputationService(ComputationServiceParams{
		Registry: registry,
		Cache:    cacheSvc,
		Fallback: fallbackSvc,
		Fetchers: []StatementFetcher{fetcher},
	})
}

func completionStatement(mbox, verbID string) models.Statement {
	return models.Statement{
		Actor: models.Actor{Mbox: mbox},
		Verb:  models.Verb{ID: verbID},
	}
}

func TestComputeMetricCacheRoundTrip(t *testing.T) {
	repo := newMemCacheRepo()
	fetcher := &fakeFetcher{statements: []models.Statement{
		completionStatement("mailto:alice@example.org", xapi.VerbCompletedHaski),
		completionStatement("mailto:bob@example.org", "http://adlnet.gov/expapi/verbs/attempted"),
	}}
	svc := newTestComputation(t, repo, fetcher)
	ctx := context.Background()
	params := models.MetricParams{CourseID: "2"}

	first, err := svc.ComputeMetric(ctx, "course-completion-rate", params)
	require.NoError(t, err)
	assert.Equal(t, 50.0, first.Value)
	assert.False(t, first.FromCache)
	assert.Equal(t, "default", first.InstanceID)
	assert.Equal(t, 1, fetcher.calls)

	second, err := svc.ComputeMetric(ctx, "course-completion-rate", params)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, "default", second.InstanceID)
	assert.Equal(t, 1, fetcher.calls, "cache hit must not query the LRS")
}

func TestComputeMetricUnknownMetric(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc := newTestComputation(t, newMemCacheRepo(), fetcher)

	_, err := svc.ComputeMetric(context.Background(), "no-such-metric", models.MetricParams{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrMetricNotFound.Code, appErr.Code)
	assert.Equal(t, 0, fetcher.calls)
}

func TestComputeMetricValidatesBeforeQuerying(t *testing.T) {
	tests := []struct {
		name     string
		metricID string
		params   models.MetricParams
		message  string
	}{
		{
			name:     "missing required param",
			metricID: "element-attempt-score",
			params:   models.MetricParams{ElementID: "17"},
			message:  "userId is required for element-attempt-score metric",
		},
		{
			name:     "inverted time window",
			metricID: "course-completion-rate",
			params: models.MetricParams{
				CourseID: "2",
				Since:    timePtr(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)),
				Until:    timePtr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
			},
			message: "since must precede until",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{}
			svc := newTestComputation(t, newMemCacheRepo(), fetcher)

			_, err := svc.ComputeMetric(context.Background(), tt.metricID, tt.params)
			var appErr *appErrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
			assert.Equal(t, tt.message, appErr.Message)
			assert.Equal(t, 0, fetcher.calls, "validation failure must not query the LRS")
		})
	}
}

func TestComputeMetricUnknownInstance(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc := newTestComputation(t, newMemCacheRepo(), fetcher)

	_, err := svc.ComputeMetric(context.Background(), "course-completion-rate",
		models.MetricParams{CourseID: "2", InstanceID: "nonexistent"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, 0, fetcher.calls)
}

func TestComputeMetricServesStaleOnLRSFailure(t *testing.T) {
	repo := newMemCacheRepo()
	fetcher := &fakeFetcher{statements: []models.Statement{
		completionStatement("mailto:alice@example.org", xapi.VerbCompletedHaski),
	}}
	svc := newTestComputation(t, repo, fetcher)
	ctx := context.Background()
	params := models.MetricParams{CourseID: "2"}

	_, err := svc.ComputeMetric(ctx, "course-completion-rate", params)
	require.NoError(t, err)

	// Simulate primary entry expiry so the pipeline reaches the LRS again.
	key := BuildCacheKey("course-completion-rate", "default", models.LevelCourse, params)
	require.NoError(t, repo.Delete(ctx, key))

	fetcher.err = appErrors.ErrLRSTimeout
	result, err := svc.ComputeMetric(ctx, "course-completion-rate", params)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, true, result.Metadata["degraded"])
	assert.Equal(t, "default", result.InstanceID)
}

func TestComputeMetricLRSFailureWithoutStale(t *testing.T) {
	fetcher := &fakeFetcher{err: appErrors.ErrLRSConnection}
	svc := newTestComputation(t, newMemCacheRepo(), fetcher)

	_, err := svc.ComputeMetric(context.Background(), "course-completion-rate",
		models.MetricParams{CourseID: "2"})
	assert.ErrorIs(t, err, appErrors.ErrLRSUnavailable)
}

func TestComputeMetricCacheWriteFailureIsNonFatal(t *testing.T) {
	repo := newMemCacheRepo()
	repo.setErr = appErrors.ErrInternal
	fetcher := &fakeFetcher{statements: []models.Statement{
		completionStatement("mailto:alice@example.org", xapi.VerbCompletedHaski),
	}}
	svc := newTestComputation(t, repo, fetcher)

	result, err := svc.ComputeMetric(context.Background(), "course-completion-rate",
		models.MetricParams{CourseID: "2"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.Value)
	assert.False(t, result.FromCache)
}

func TestInvalidateMetric(t *testing.T) {
	repo := newMemCacheRepo()
	fetcher := &fakeFetcher{statements: []models.Statement{
		completionStatement("mailto:alice@example.org", xapi.VerbCompletedHaski),
	}}
	svc := newTestComputation(t, repo, fetcher)
	ctx := context.Background()

	_, err := svc.ComputeMetric(ctx, "course-completion-rate", models.MetricParams{CourseID: "2"})
	require.NoError(t, err)
	require.Len(t, repo.keys(), 2, "expected primary and stale entries")

	deleted, err := svc.InvalidateMetric(ctx, "course-completion-rate")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Empty(t, repo.keys())

	_, err = svc.InvalidateMetric(ctx, "no-such-metric")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrMetricNotFound.Code, appErr.Code)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
