package provider

import (
	"github.com/HASKI-RAK/laac-api/internal/models"
	"github.com/HASKI-RAK/laac-api/internal/xapi"
)

// Aspects of the best attempt a provider can report.
const (
	attemptAspectStatus = "status"
	attemptAspectDate   = "date"
	attemptAspectScore  = "score"
)

// bestAttemptProvider reports one aspect of a learner's best attempt on an
// element. The best attempt is the highest-scoring statement, ties broken
// by recency.
type bestAttemptProvider struct {
	id     string
	title  string
	aspect string
}

func (p *bestAttemptProvider) Info() Info {
	return Info{
		ID:             p.id,
		DashboardLevel: models.LevelElement,
		Title:          p.title,
		Description:    "Best attempt " + p.aspect + " for a learner on a learning element",
		Version:        "1.0.0",
		RequiredParams: []string{"userId", "elementId"},
		OptionalParams: []string{"since", "until", "instanceId"},
		OutputType:     p.outputType(),
	}
}

func (p *bestAttemptProvider) outputType() string {
	switch p.aspect {
	case attemptAspectScore:
		return "number"
	default:
		return "string"
	}
}

func (p *bestAttemptProvider) ValidateParams(params models.MetricParams) error {
	return checkRequired(p.id, []string{"userId", "elementId"}, params)
}

func (p *bestAttemptProvider) Compute(params models.MetricParams, statements []models.Statement) (*models.MetricResult, error) {
	best := xapi.SelectBestAttempt(statements)
	if best == nil {
		return newResult(p.id, nil, map[string]interface{}{"status": "no_attempts"}), nil
	}

	metadata := map[string]interface{}{
		"attempts": len(statements),
	}

	switch p.aspect {
	case attemptAspectStatus:
		status := "attempted"
		if xapi.IsCompleted(best) || xapi.IsCompletionVerb(best.Verb.ID) {
			status = "completed"
		}
		return newResult(p.id, status, metadata), nil
	case attemptAspectDate:
		return newResult(p.id, best.Timestamp, metadata), nil
	default:
		score := xapi.ExtractScore(best)
		if score == nil {
			return newResult(p.id, nil, map[string]interface{}{
				"status":   "no_score",
				"attempts": len(statements),
			}), nil
		}
		return newResult(p.id, *score, metadata), nil
	}
}

// attemptCountProvider counts a learner's attempts on an element.
type attemptCountProvider struct{}

func (p *attemptCountProvider) Info() Info {
	return Info{
		ID:             "element-attempt-count",
		DashboardLevel: models.LevelElement,
		Title:          "Attempt count",
		Description:    "Number of attempts a learner made on a learning element",
		Version:        "1.0.0",
		RequiredParams: []string{"userId", "elementId"},
		OptionalParams: []string{"since", "until", "instanceId"},
		OutputType:     "number",
		Example:        3,
	}
}

func (p *attemptCountProvider) ValidateParams(params models.MetricParams) error {
	return checkRequired("element-attempt-count", []string{"userId", "elementId"}, params)
}

func (p *attemptCountProvider) Compute(params models.MetricParams, statements []models.Statement) (*models.MetricResult, error) {
	return newResult("element-attempt-count", len(statements), nil), nil
}
