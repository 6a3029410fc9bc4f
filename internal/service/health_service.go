package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HASKI-RAK/laac-api/internal/models"
	"github.com/HASKI-RAK/laac-api/pkg/jobs"
)

// HealthProber is the slice of the LRS client used for health probing.
type HealthProber interface {
	InstanceID() string
	InstanceHealth(ctx context.Context) models.InstanceHealth
}

// HealthService probes all configured LRS instances and keeps the latest
// results for the health endpoint.
type HealthService struct {
	probers []HealthProber
	metrics *MetricsService
	logger  *zap.Logger

	mu     sync.RWMutex
	latest map[string]models.InstanceHealth

	queue    *jobs.Queue
	interval time.Duration
}

// NewHealthService constructs the health service.
func NewHealthService(probers []HealthProber, metrics *MetricsService, logger *zap.Logger, interval time.Duration) *HealthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	s := &HealthService{
		probers:  probers,
		metrics:  metrics,
		logger:   logger,
		latest:   make(map[string]models.InstanceHealth, len(probers)),
		interval: interval,
	}
	s.queue = jobs.NewQueue("lrs-health", s.handleProbe, jobs.QueueConfig{
		Workers: len(probers),
		Logger:  logger,
	})
	return s
}

// Start schedules periodic probes of every instance until ctx is done.
func (s *HealthService) Start(ctx context.Context) {
	if len(s.probers) == 0 {
		return
	}
	s.queue.Start(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		s.enqueueAll()
		for {
			select {
			case <-ctx.Done():
				s.queue.Stop()
				return
			case <-ticker.C:
				s.enqueueAll()
			}
		}
	}()
}

// CheckAll probes every instance concurrently and returns the aggregated
// results sorted by instance id. Each instance is probed independently; a
// slow or failing instance never blocks the others beyond the fan-in wait.
func (s *HealthService) CheckAll(ctx context.Context) []models.InstanceHealth {
	results := make([]models.InstanceHealth, len(s.probers))

	var wg sync.WaitGroup
	for i, prober := range s.probers {
		wg.Add(1)
		go func(idx int, p HealthProber) {
			defer wg.Done()
			results[idx] = p.InstanceHealth(ctx)
		}(i, prober)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].InstanceID < results[j].InstanceID })
	for _, health := range results {
		s.store(health)
	}
	return results
}

// Latest returns the most recent probe results without issuing new probes.
func (s *HealthService) Latest() []models.InstanceHealth {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.InstanceHealth, 0, len(s.latest))
	for _, health := range s.latest {
		results = append(results, health)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].InstanceID < results[j].InstanceID })
	return results
}

func (s *HealthService) enqueueAll() {
	for _, prober := range s.probers {
		task := jobs.Task{ID: prober.InstanceID(), Kind: "health-probe", Payload: prober}
		if err := s.queue.Enqueue(task); err != nil {
			s.logger.Warn("health probe enqueue failed", zap.String("instance", prober.InstanceID()), zap.Error(err))
		}
	}
}

func (s *HealthService) handleProbe(ctx context.Context, task jobs.Task) error {
	prober, ok := task.Payload.(HealthProber)
	if !ok {
		return nil
	}
	health := prober.InstanceHealth(ctx)
	s.store(health)
	if !health.Healthy {
		s.logger.Warn("LRS instance unhealthy",
			zap.String("instance", health.InstanceID),
			zap.String("error", health.Error),
			zap.Int64("latency_ms", health.LatencyMs))
	}
	return nil
}

func (s *HealthService) store(health models.InstanceHealth) {
	s.mu.Lock()
	s.latest[health.InstanceID] = health
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.SetInstanceHealth(health.InstanceID, health.Healthy)
	}
}
