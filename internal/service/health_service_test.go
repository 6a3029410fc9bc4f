package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HASKI-RAK/laac-api/internal/models"
)

type fakeProber struct {
	id      string
	healthy bool
	delay   time.Duration
	err     string
}

func (f *fakeProber) InstanceID() string { return f.id }

func (f *fakeProber) InstanceHealth(ctx context.Context) models.InstanceHealth {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}
	return models.InstanceHealth{
		InstanceID: f.id,
		Healthy:    f.healthy,
		Error:      f.err,
		CheckedAt:  time.Now(),
	}
}

func TestHealthServiceCheckAll(t *testing.T) {
	probers := []HealthProber{
		&fakeProber{id: "moodle", healthy: true},
		&fakeProber{id: "default", healthy: false, err: "connection refused"},
		&fakeProber{id: "yetanalytics", healthy: true, delay: 10 * time.Millisecond},
	}
	svc := NewHealthService(probers, nil, nil, time.Minute)

	results := svc.CheckAll(context.Background())
	require.Len(t, results, 3)

	// Sorted by instance id regardless of probe completion order.
	assert.Equal(t, "default", results[0].InstanceID)
	assert.Equal(t, "moodle", results[1].InstanceID)
	assert.Equal(t, "yetanalytics", results[2].InstanceID)

	assert.False(t, results[0].Healthy)
	assert.Equal(t, "connection refused", results[0].Error)
	assert.True(t, results[1].Healthy)
	assert.True(t, results[2].Healthy)
}

func TestHealthServiceLatest(t *testing.T) {
	probers := []HealthProber{
		&fakeProber{id: "default", healthy: true},
	}
	svc := NewHealthService(probers, nil, nil, time.Minute)

	assert.Empty(t, svc.Latest())

	svc.CheckAll(context.Background())
	latest := svc.Latest()
	require.Len(t, latest, 1)
	assert.Equal(t, "default", latest[0].InstanceID)
	assert.True(t, latest[0].Healthy)
}

func TestHealthServicePeriodicProbing(t *testing.T) {
	prober := &fakeProber{id: "default", healthy: true}
	svc := NewHealthService([]HealthProber{prober}, nil, nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	// The initial probe runs right away through the worker queue.
	require.Eventually(t, func() bool {
		return len(svc.Latest()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.True(t, svc.Latest()[0].Healthy)
}
