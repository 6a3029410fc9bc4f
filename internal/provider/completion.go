package provider

import (
	"github.com/HASKI-RAK/laac-api/internal/models"
	"github.com/HASKI-RAK/laac-api/internal/xapi"
)

// completionRateProvider computes the percentage of learners that completed
// the scoped content: a learner counts as completed when any of their
// statements carries a completion verb.
type completionRateProvider struct {
	id       string
	level    string
	title    string
	required []string
}

func newCompletionRateProvider(id, level, title string, required ...string) *completionRateProvider {
	return &completionRateProvider{id: id, level: level, title: title, required: required}
}

func (p *completionRateProvider) Info() Info {
	return Info{
		ID:             p.id,
		DashboardLevel: p.level,
		Title:          p.title,
		Description:    "Percentage of learners that completed the scoped content",
		Version:        "1.0.0",
		RequiredParams: p.required,
		OptionalParams: []string{"since", "until", "instanceId"},
		OutputType:     "number",
		Example:        66.67,
	}
}

func (p *completionRateProvider) ValidateParams(params models.MetricParams) error {
	return checkRequired(p.id, p.required, params)
}

func (p *completionRateProvider) Compute(params models.MetricParams, statements []models.Statement) (*models.MetricResult, error) {
	learners := map[string]bool{}
	for i := range statements {
		stmt := &statements[i]
		key := xapi.ActorKey(stmt)
		if key == "" {
			continue
		}
		if xapi.IsCompletionVerb(stmt.Verb.ID) {
			learners[key] = true
		} else if _, seen := learners[key]; !seen {
			learners[key] = false
		}
	}

	total := len(learners)
	completed := 0
	for _, done := range learners {
		if done {
			completed++
		}
	}

	var rate float64
	if total > 0 {
		rate = round2(float64(completed) / float64(total) * 100)
	}

	return newResult(p.id, rate, map[string]interface{}{
		"totalLearners":     total,
		"completedLearners": completed,
	}), nil
}

// activeLearnersProvider counts the unique learners with any activity in
// scope.
type activeLearnersProvider struct{}

func (p *activeLearnersProvider) Info() Info {
	return Info{
		ID:             "course-active-learners",
		DashboardLevel: models.LevelCourse,
		Title:          "Active learners",
		Description:    "Number of unique learners with activity in the course",
		Version:        "1.0.0",
		RequiredParams: []string{"courseId"},
		OptionalParams: []string{"since", "until", "instanceId"},
		OutputType:     "number",
		Example:        42,
	}
}

func (p *activeLearnersProvider) ValidateParams(params models.MetricParams) error {
	return checkRequired("course-active-learners", []string{"courseId"}, params)
}

func (p *activeLearnersProvider) Compute(params models.MetricParams, statements []models.Statement) (*models.MetricResult, error) {
	learners := map[string]struct{}{}
	for i := range statements {
		if key := xapi.ActorKey(&statements[i]); key != "" {
			learners[key] = struct{}{}
		}
	}

	return newResult("course-active-learners", len(learners), map[string]interface{}{
		"statementCount": len(statements),
	}), nil
}

func checkRequired(metricID string, required []string, params models.MetricParams) error {
	for _, name := range required {
		var value string
		switch name {
		case "courseId":
			value = params.CourseID
		case "topicId":
			value = params.TopicID
		case "elementId":
			value = params.ElementID
		case "userId":
			value = params.UserID
		case "groupId":
			value = params.GroupID
		}
		if value == "" {
			return requiredParamErr(name, metricID)
		}
	}
	return nil
}
