package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HASKI-RAK/laac-api/internal/models"
	"github.com/HASKI-RAK/laac-api/pkg/response"
)

type healthService interface {
	CheckAll(ctx context.Context) []models.InstanceHealth
	Latest() []models.InstanceHealth
}

// HealthHandler serves liveness and LRS connectivity probes.
type HealthHandler struct {
	service healthService
	started time.Time
}

// NewHealthHandler constructs the handler.
func NewHealthHandler(service healthService) *HealthHandler {
	return &HealthHandler{service: service, started: time.Now()}
}

// Live godoc
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /health [get]
func (h *HealthHandler) Live(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// LRS godoc
// @Summary Learning Record Store connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /health/lrs [get]
func (h *HealthHandler) LRS(c *gin.Context) {
	if h.service == nil {
		response.JSON(c, http.StatusOK, gin.H{"status": "ok", "instances": []models.InstanceHealth{}})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	instances := h.service.CheckAll(ctx)
	healthy := 0
	for _, instance := range instances {
		if instance.Healthy {
			healthy++
		}
	}

	status := http.StatusOK
	overall := "ok"
	switch {
	case len(instances) == 0 || healthy == 0:
		status = http.StatusServiceUnavailable
		overall = "unavailable"
	case healthy < len(instances):
		overall = "degraded"
	}

	response.JSON(c, status, gin.H{
		"status":    overall,
		"instances": instances,
	})
}
