// Package provider hosts the stateless metric providers and the registry
// that resolves them by id. Providers are pure: they never mutate their
// inputs, never perform I/O and produce identical values for identical
// inputs.
package provider

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/HASKI-RAK/laac-api/internal/models"
	appErrors "github.com/HASKI-RAK/laac-api/pkg/errors"
)

// Info is the public contract of a provider, exposed through the catalog.
// It must not change between releases without a version bump.
type Info struct {
	ID             string      `json:"id"`
	DashboardLevel string      `json:"dashboardLevel"`
	Description    string      `json:"description"`
	Version        string      `json:"version,omitempty"`
	Title          string      `json:"title,omitempty"`
	RequiredParams []string    `json:"requiredParams,omitempty"`
	OptionalParams []string    `json:"optionalParams,omitempty"`
	OutputType     string      `json:"outputType,omitempty"`
	Example        interface{} `json:"example,omitempty"`
}

// Provider computes one metric from a statement set.
type Provider interface {
	Info() Info
	Compute(params models.MetricParams, statements []models.Statement) (*models.MetricResult, error)
}

// ParamValidator is implemented by providers that require parameters beyond
// the common set. Validation runs before any LRS query is issued.
type ParamValidator interface {
	ValidateParams(params models.MetricParams) error
}

// Registry is an immutable id-to-provider mapping built once at startup.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry indexes the given providers, rejecting duplicate ids.
func NewRegistry(providers ...Provider) (*Registry, error) {
	index := make(map[string]Provider, len(providers))
	for _, p := range providers {
		id := p.Info().ID
		if _, exists := index[id]; exists {
			return nil, fmt.Errorf("duplicate metric provider id %q", id)
		}
		index[id] = p
	}
	return &Registry{providers: index}, nil
}

// Resolve looks up a provider by metric id.
func (r *Registry) Resolve(metricID string) (Provider, error) {
	p, ok := r.providers[metricID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrMetricNotFound, fmt.Sprintf("metric %q is not registered", metricID))
	}
	return p, nil
}

// Catalog returns all provider contracts sorted by id.
func (r *Registry) Catalog() []Info {
	infos := make([]Info, 0, len(r.providers))
	for _, p := range r.providers {
		infos = append(infos, p.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Len reports the number of registered providers.
func (r *Registry) Len() int {
	return len(r.providers)
}

func newResult(metricID string, value interface{}, metadata map[string]interface{}) *models.MetricResult {
	return &models.MetricResult{
		MetricID: metricID,
		Value:    value,
		Computed: time.Now().UTC(),
		Metadata: metadata,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func requiredParamErr(param, metricID string) error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is required for %s metric", param, metricID))
}
