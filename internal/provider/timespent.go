package provider

import (
	"github.com/HASKI-RAK/laac-api/internal/models"
	"github.com/HASKI-RAK/laac-api/internal/xapi"
)

// timeSpentProvider sums parsed result durations over the scoped
// statements. Statements without a parseable duration contribute nothing
// and are excluded from the activity count.
type timeSpentProvider struct {
	id       string
	level    string
	title    string
	required []string
	inScope  scopeFilter
}

func (p *timeSpentProvider) Info() Info {
	return Info{
		ID:             p.id,
		DashboardLevel: p.level,
		Title:          p.title,
		Description:    "Total time spent in seconds within the scope",
		Version:        "1.0.0",
		RequiredParams: p.required,
		OptionalParams: []string{"userId", "since", "until", "instanceId"},
		OutputType:     "number",
		Example:        5445.0,
	}
}

func (p *timeSpentProvider) ValidateParams(params models.MetricParams) error {
	return checkRequired(p.id, p.required, params)
}

func (p *timeSpentProvider) Compute(params models.MetricParams, statements []models.Statement) (*models.MetricResult, error) {
	var seconds float64
	counted := 0
	for i := range statements {
		stmt := &statements[i]
		if !p.inScope(params, stmt) {
			continue
		}
		if stmt.Result == nil || stmt.Result.Duration == "" {
			continue
		}
		parsed := xapi.ParseDuration(stmt.Result.Duration)
		if parsed <= 0 {
			continue
		}
		seconds += parsed
		counted++
	}

	return newResult(p.id, round2(seconds), map[string]interface{}{
		"activityCount": counted,
	}), nil
}

func anyScope(models.MetricParams, *models.Statement) bool { return true }
