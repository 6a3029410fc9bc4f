package provider

import (
	"sort"

	"github.com/HASKI-RAK/laac-api/internal/models"
	"github.com/HASKI-RAK/laac-api/internal/xapi"
)

const lastCompletionsLimit = 3

// CompletionEvent is one entry of a last-completions metric value.
type CompletionEvent struct {
	Learner   string `json:"learner"`
	Activity  string `json:"activity"`
	Timestamp string `json:"timestamp"`
}

// lastCompletionsProvider returns the most recent completion events in
// scope, newest first, capped at three.
type lastCompletionsProvider struct {
	id       string
	level    string
	title    string
	required []string
	inScope  scopeFilter
}

func (p *lastCompletionsProvider) Info() Info {
	return Info{
		ID:             p.id,
		DashboardLevel: p.level,
		Title:          p.title,
		Description:    "Most recent completion events within the scope, newest first",
		Version:        "1.0.0",
		RequiredParams: p.required,
		OptionalParams: []string{"since", "until", "instanceId"},
		OutputType:     "array",
	}
}

func (p *lastCompletionsProvider) ValidateParams(params models.MetricParams) error {
	return checkRequired(p.id, p.required, params)
}

func (p *lastCompletionsProvider) Compute(params models.MetricParams, statements []models.Statement) (*models.MetricResult, error) {
	var completions []models.Statement
	for i := range statements {
		stmt := &statements[i]
		if !p.inScope(params, stmt) {
			continue
		}
		if stmt.Timestamp == "" {
			continue
		}
		if xapi.IsCompletionVerb(stmt.Verb.ID) || xapi.IsCompleted(stmt) {
			completions = append(completions, *stmt)
		}
	}

	sort.SliceStable(completions, func(i, j int) bool {
		return xapi.ParseTimestamp(completions[i].Timestamp).After(xapi.ParseTimestamp(completions[j].Timestamp))
	})

	total := len(completions)
	if len(completions) > lastCompletionsLimit {
		completions = completions[:lastCompletionsLimit]
	}

	events := make([]CompletionEvent, 0, len(completions))
	for i := range completions {
		events = append(events, CompletionEvent{
			Learner:   xapi.ActorKey(&completions[i]),
			Activity:  completions[i].Object.ID,
			Timestamp: completions[i].Timestamp,
		})
	}

	return newResult(p.id, events, map[string]interface{}{
		"returnedCount":    len(events),
		"totalCompletions": total,
	}), nil
}
