package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HASKI-RAK/laac-api/internal/dto"
	"github.com/HASKI-RAK/laac-api/internal/models"
	"github.com/HASKI-RAK/laac-api/internal/provider"
	appErrors "github.com/HASKI-RAK/laac-api/pkg/errors"
	"github.com/HASKI-RAK/laac-api/pkg/response"
)

type metricService interface {
	Catalog() []provider.Info
	ComputeMetric(ctx context.Context, metricID string, params models.MetricParams) (*models.MetricResult, error)
	InvalidateMetric(ctx context.Context, metricID string) (int, error)
}

// MetricHandler wires the computation service to HTTP endpoints.
type MetricHandler struct {
	service metricService
}

// NewMetricHandler constructs the handler.
func NewMetricHandler(service metricService) *MetricHandler {
	return &MetricHandler{service: service}
}

// Catalog godoc
// @Summary List available metrics
// @Tags Metrics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /metrics [get]
func (h *MetricHandler) Catalog(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	catalog := h.service.Catalog()
	response.JSON(c, http.StatusOK, catalog, map[string]interface{}{
		"count": len(catalog),
	})
}

// Compute godoc
// @Summary Compute a metric
// @Tags Metrics
// @Produce json
// @Param metricId path string true "Metric ID"
// @Param courseId query string false "Course scope"
// @Param topicId query string false "Topic scope"
// @Param elementId query string false "Learning element scope"
// @Param userId query string false "Learner identifier"
// @Param since query string false "Window start (RFC3339)"
// @Param until query string false "Window end (RFC3339)"
// @Param instanceId query string false "LRS instance"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Security BearerAuth
// @Router /metrics/{metricId} [get]
func (h *MetricHandler) Compute(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	metricID := strings.TrimSpace(c.Param("metricId"))
	if metricID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "metricId is required"))
		return
	}

	var req dto.ComputeMetricRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	params, err := req.ToParams()
	if err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	result, err := h.service.ComputeMetric(c.Request.Context(), metricID, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, map[string]interface{}{
		"processing_time_ms": time.Since(start).Milliseconds(),
		"cache_hit":          result.FromCache,
	})
}

// Invalidate godoc
// @Summary Drop cached results for a metric
// @Tags Metrics
// @Produce json
// @Param metricId path string true "Metric ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /metrics/{metricId}/cache [delete]
func (h *MetricHandler) Invalidate(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	metricID := strings.TrimSpace(c.Param("metricId"))
	if metricID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "metricId is required"))
		return
	}

	deleted, err := h.service.InvalidateMetric(c.Request.Context(), metricID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.InvalidateResponse{MetricID: metricID, DeletedKeys: deleted})
}
