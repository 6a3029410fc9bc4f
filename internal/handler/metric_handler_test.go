package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HASKI-RAK/laac-api/internal/models"
	"github.com/HASKI-RAK/laac-api/internal/provider"
	appErrors "github.com/HASKI-RAK/laac-api/pkg/errors"
)

type fakeMetricSrv struct {
	catalog    []provider.Info
	result     *models.MetricResult
	computeErr error
	deleted    int
	invalidErr error
	lastMetric string
	lastParams models.MetricParams
}

func (f *fakeMetricSrv) Catalog() []provider.Info {
	return f.catalog
}

func (f *fakeMetricSrv) ComputeMetric(_ context.Context, metricID string, params models.MetricParams) (*models.MetricResult, error) {
	f.lastMetric = metricID
	f.lastParams = params
	return f.result, f.computeErr
}

func (f *fakeMetricSrv) InvalidateMetric(_ context.Context, metricID string) (int, error) {
	f.lastMetric = metricID
	return f.deleted, f.invalidErr
}

func TestMetricHandlerCatalog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMetricHandler(&fakeMetricSrv{catalog: []provider.Info{
		{ID: "course-completion-rate", DashboardLevel: models.LevelCourse},
		{ID: "element-time-spent", DashboardLevel: models.LevelElement},
	}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil)

	handler.Catalog(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []map[string]interface{} `json:"data"`
		Meta map[string]interface{}   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 2)
	assert.Equal(t, float64(2), envelope.Meta["count"])
}

func TestMetricHandlerCompute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeMetricSrv{result: &models.MetricResult{
		MetricID:  "course-completion-rate",
		Value:     66.67,
		Computed:  time.Now(),
		FromCache: true,
	}}
	handler := NewMetricHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet,
		"/api/v1/metrics/course-completion-rate?courseId=2&since=2026-03-01T00:00:00Z", nil)
	c.Params = gin.Params{{Key: "metricId", Value: "course-completion-rate"}}

	handler.Compute(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "course-completion-rate", service.lastMetric)
	assert.Equal(t, "2", service.lastParams.CourseID)
	require.NotNil(t, service.lastParams.Since)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), service.lastParams.Since.UTC())

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, 66.67, envelope.Data["value"])
}

func TestMetricHandlerComputeInvalidSince(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeMetricSrv{}
	handler := NewMetricHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet,
		"/api/v1/metrics/course-completion-rate?since=yesterday", nil)
	c.Params = gin.Params{{Key: "metricId", Value: "course-completion-rate"}}

	handler.Compute(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, service.lastMetric, "invalid request must not reach the service")
}

func TestMetricHandlerComputeUnknownMetric(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMetricHandler(&fakeMetricSrv{
		computeErr: appErrors.Clone(appErrors.ErrMetricNotFound, "metric no-such not found"),
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/metrics/no-such", nil)
	c.Params = gin.Params{{Key: "metricId", Value: "no-such"}}

	handler.Compute(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricHandlerInvalidate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeMetricSrv{deleted: 7}
	handler := NewMetricHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/v1/metrics/course-completion-rate/cache", nil)
	c.Params = gin.Params{{Key: "metricId", Value: "course-completion-rate"}}

	handler.Invalidate(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "course-completion-rate", service.lastMetric)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, float64(7), envelope.Data["deletedKeys"])
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}
