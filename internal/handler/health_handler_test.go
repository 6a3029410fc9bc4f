package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HASKI-RAK/laac-api/internal/models"
)

type fakeHealthSrv struct {
	instances []models.InstanceHealth
}

func (f *fakeHealthSrv) CheckAll(context.Context) []models.InstanceHealth {
	return f.instances
}

func (f *fakeHealthSrv) Latest() []models.InstanceHealth {
	return f.instances
}

func TestHealthHandlerLive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHealthHandler(&fakeHealthSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	handler.Live(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "ok", envelope.Data["status"])
}

func TestHealthHandlerLRS(t *testing.T) {
	tests := []struct {
		name       string
		instances  []models.InstanceHealth
		wantCode   int
		wantStatus string
	}{
		{
			name: "all healthy",
			instances: []models.InstanceHealth{
				{InstanceID: "default", Healthy: true},
				{InstanceID: "moodle", Healthy: true},
			},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name: "partially healthy",
			instances: []models.InstanceHealth{
				{InstanceID: "default", Healthy: true},
				{InstanceID: "moodle", Healthy: false, Error: "timeout"},
			},
			wantCode:   http.StatusOK,
			wantStatus: "degraded",
		},
		{
			name: "none healthy",
			instances: []models.InstanceHealth{
				{InstanceID: "default", Healthy: false, Error: "connection refused"},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unavailable",
		},
		{
			name:       "no instances",
			instances:  nil,
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			handler := NewHealthHandler(&fakeHealthSrv{instances: tt.instances})

			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/health/lrs", nil)

			handler.LRS(c)

			assert.Equal(t, tt.wantCode, rec.Code)
			var envelope responseEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
			assert.Equal(t, tt.wantStatus, envelope.Data["status"])
		})
	}
}
