package provider

import (
	"github.com/HASKI-RAK/laac-api/internal/models"
	"github.com/HASKI-RAK/laac-api/internal/xapi"
)

// scopeFilter narrows a statement set to the course or topic named in the
// params. An empty scope keeps everything, trusting the LRS-side filter.
type scopeFilter func(params models.MetricParams, stmt *models.Statement) bool

func courseScope(params models.MetricParams, stmt *models.Statement) bool {
	if params.CourseID == "" {
		return true
	}
	return xapi.InCourse(stmt, params.CourseID)
}

func topicScope(params models.MetricParams, stmt *models.Statement) bool {
	if params.TopicID == "" {
		return true
	}
	return xapi.InTopic(stmt, params.TopicID)
}

// totalScoreProvider sums raw scores over scope-matching statements.
type totalScoreProvider struct {
	id       string
	level    string
	title    string
	required []string
	inScope  scopeFilter
}

func (p *totalScoreProvider) Info() Info {
	return Info{
		ID:             p.id,
		DashboardLevel: p.level,
		Title:          p.title,
		Description:    "Sum of raw scores achieved within the scope",
		Version:        "1.0.0",
		RequiredParams: p.required,
		OptionalParams: []string{"userId", "since", "until", "instanceId"},
		OutputType:     "number",
		Example:        320.5,
	}
}

func (p *totalScoreProvider) ValidateParams(params models.MetricParams) error {
	return checkRequired(p.id, p.required, params)
}

func (p *totalScoreProvider) Compute(params models.MetricParams, statements []models.Statement) (*models.MetricResult, error) {
	var total float64
	scored := 0
	for i := range statements {
		stmt := &statements[i]
		if !p.inScope(params, stmt) {
			continue
		}
		if stmt.Result == nil || stmt.Result.Score == nil || stmt.Result.Score.Raw == nil {
			continue
		}
		total += *stmt.Result.Score.Raw
		scored++
	}

	return newResult(p.id, round2(total), map[string]interface{}{
		"scoredStatements": scored,
	}), nil
}

// possibleScoreProvider sums the maximum achievable score once per unique
// element, taking the highest result.score.max seen for each element id.
type possibleScoreProvider struct {
	id       string
	level    string
	title    string
	required []string
	inScope  scopeFilter
}

func (p *possibleScoreProvider) Info() Info {
	return Info{
		ID:             p.id,
		DashboardLevel: p.level,
		Title:          p.title,
		Description:    "Sum of maximum achievable scores across unique elements in the scope",
		Version:        "1.0.0",
		RequiredParams: p.required,
		OptionalParams: []string{"since", "until", "instanceId"},
		OutputType:     "number",
		Example:        150.0,
	}
}

func (p *possibleScoreProvider) ValidateParams(params models.MetricParams) error {
	return checkRequired(p.id, p.required, params)
}

func (p *possibleScoreProvider) Compute(params models.MetricParams, statements []models.Statement) (*models.MetricResult, error) {
	maxByElement := map[string]float64{}
	for i := range statements {
		stmt := &statements[i]
		if !p.inScope(params, stmt) {
			continue
		}
		if stmt.Result == nil || stmt.Result.Score == nil || stmt.Result.Score.Max == nil {
			continue
		}
		elementID := stmt.Object.ID
		if elementID == "" {
			continue
		}
		if current, seen := maxByElement[elementID]; !seen || *stmt.Result.Score.Max > current {
			maxByElement[elementID] = *stmt.Result.Score.Max
		}
	}

	var total float64
	for _, max := range maxByElement {
		total += max
	}

	return newResult(p.id, round2(total), map[string]interface{}{
		"elementCount": len(maxByElement),
	}), nil
}

// averageScoreProvider reports the arithmetic mean of raw scores.
type averageScoreProvider struct{}

func (p *averageScoreProvider) Info() Info {
	return Info{
		ID:             "course-average-score",
		DashboardLevel: models.LevelCourse,
		Title:          "Average score",
		Description:    "Mean raw score over all scored statements in the course",
		Version:        "1.0.0",
		RequiredParams: []string{"courseId"},
		OptionalParams: []string{"since", "until", "instanceId"},
		OutputType:     "number",
		Example:        71.25,
	}
}

func (p *averageScoreProvider) ValidateParams(params models.MetricParams) error {
	return checkRequired("course-average-score", []string{"courseId"}, params)
}

func (p *averageScoreProvider) Compute(params models.MetricParams, statements []models.Statement) (*models.MetricResult, error) {
	var total float64
	scored := 0
	for i := range statements {
		stmt := &statements[i]
		if !courseScope(params, stmt) {
			continue
		}
		score := xapi.ExtractScore(stmt)
		if score == nil {
			continue
		}
		total += *score
		scored++
	}

	var avg float64
	if scored > 0 {
		avg = round2(total / float64(scored))
	}

	return newResult("course-average-score", avg, map[string]interface{}{
		"scoredStatements": scored,
	}), nil
}
