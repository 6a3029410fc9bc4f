package provider

import (
	"regexp"
	"strings"

	"github.com/HASKI-RAK/laac-api/internal/models"
	"github.com/HASKI-RAK/laac-api/internal/xapi"
)

// Element type classification. Commentary and Explanation elements always
// map to the fixed codes CT and CO; every other distinct element name is
// assigned the next free code in first-seen order.
var fixedTypeCodes = map[string]string{
	"Commentary":  "CT",
	"Explanation": "CO",
}

var dynamicTypeCodes = []string{"EX", "AN", "UB", "BE", "CH", "SU"}

// Click scoring constants. Fixed types score their click count at weight
// 1.0. Each further type bootstraps from the running maximum of earlier
// non-fixed scores plus an offset, at weight 1.5.
const (
	clickBaseScore       = 1.0
	clickBootstrapOffset = 0.5
	clickDynamicWeight   = 1.5
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

type elementTypeStats struct {
	code    string
	name    string
	fixed   bool
	clicks  int
	seconds float64
}

// classifyByElementType buckets statements by the element type encoded in
// the HTML-ish display name of the object, preserving first-seen order.
func classifyByElementType(statements []models.Statement) []*elementTypeStats {
	var ordered []*elementTypeStats
	byName := map[string]*elementTypeStats{}
	nextDynamic := 0

	for i := range statements {
		stmt := &statements[i]
		name := elementTypeName(stmt)
		if name == "" {
			continue
		}

		stats, seen := byName[name]
		if !seen {
			code, fixed := fixedTypeCodes[name]
			if !fixed {
				if nextDynamic >= len(dynamicTypeCodes) {
					continue
				}
				code = dynamicTypeCodes[nextDynamic]
				nextDynamic++
			}
			stats = &elementTypeStats{code: code, name: name, fixed: fixed}
			byName[name] = stats
			ordered = append(ordered, stats)
		}

		stats.clicks++
		if stmt.Result != nil && stmt.Result.Duration != "" {
			stats.seconds += xapi.ParseDuration(stmt.Result.Duration)
		}
	}

	return ordered
}

func elementTypeName(stmt *models.Statement) string {
	display := xapi.DisplayName(&stmt.Object)
	if display == "" {
		return ""
	}
	stripped := strings.TrimSpace(htmlTagPattern.ReplaceAllString(display, " "))
	fields := strings.Fields(stripped)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ElementTypeScore is one entry of the element-type-clicks metric value.
type ElementTypeScore struct {
	Type   string  `json:"type"`
	Name   string  `json:"name"`
	Clicks int     `json:"clicks"`
	Weight float64 `json:"weight"`
	Score  float64 `json:"score"`
}

// elementTypeClicksProvider scores engagement per element type using the
// weighting scheme inherited from the dashboard: fixed types scale the base
// score by click count at weight 1.0, later types bootstrap from the
// running maximum of earlier non-fixed scores plus an offset at weight 1.5.
type elementTypeClicksProvider struct{}

func (p *elementTypeClicksProvider) Info() Info {
	return Info{
		ID:             "element-type-clicks",
		DashboardLevel: models.LevelCourse,
		Title:          "Element type engagement",
		Description:    "Weighted click score per element type in the course",
		Version:        "1.0.0",
		RequiredParams: []string{"courseId"},
		OptionalParams: []string{"since", "until", "instanceId"},
		OutputType:     "array",
	}
}

func (p *elementTypeClicksProvider) ValidateParams(params models.MetricParams) error {
	return checkRequired("element-type-clicks", []string{"courseId"}, params)
}

func (p *elementTypeClicksProvider) Compute(params models.MetricParams, statements []models.Statement) (*models.MetricResult, error) {
	ordered := classifyByElementType(statements)

	scores := make([]ElementTypeScore, 0, len(ordered))
	runningMax := clickBaseScore
	totalClicks := 0

	for _, stats := range ordered {
		totalClicks += stats.clicks

		var weight, score float64
		if stats.fixed {
			weight = 1.0
			score = round2(clickBaseScore * float64(stats.clicks) * weight)
		} else {
			weight = clickDynamicWeight
			score = round2((runningMax + clickBootstrapOffset) * weight)
			if score > runningMax {
				runningMax = score
			}
		}

		scores = append(scores, ElementTypeScore{
			Type:   stats.code,
			Name:   stats.name,
			Clicks: stats.clicks,
			Weight: weight,
			Score:  score,
		})
	}

	return newResult("element-type-clicks", scores, map[string]interface{}{
		"typeCount":   len(scores),
		"totalClicks": totalClicks,
	}), nil
}

// ElementTypeTime is one entry of the element-type-time metric value.
type ElementTypeTime struct {
	Type    string  `json:"type"`
	Name    string  `json:"name"`
	Clicks  int     `json:"clicks"`
	Seconds float64 `json:"seconds"`
}

// elementTypeTimeProvider reports the accumulated time per element type.
type elementTypeTimeProvider struct{}

func (p *elementTypeTimeProvider) Info() Info {
	return Info{
		ID:             "element-type-time",
		DashboardLevel: models.LevelCourse,
		Title:          "Time per element type",
		Description:    "Accumulated learning time per element type in the course",
		Version:        "1.0.0",
		RequiredParams: []string{"courseId"},
		OptionalParams: []string{"since", "until", "instanceId"},
		OutputType:     "array",
	}
}

func (p *elementTypeTimeProvider) ValidateParams(params models.MetricParams) error {
	return checkRequired("element-type-time", []string{"courseId"}, params)
}

func (p *elementTypeTimeProvider) Compute(params models.MetricParams, statements []models.Statement) (*models.MetricResult, error) {
	ordered := classifyByElementType(statements)

	entries := make([]ElementTypeTime, 0, len(ordered))
	for _, stats := range ordered {
		entries = append(entries, ElementTypeTime{
			Type:    stats.code,
			Name:    stats.name,
			Clicks:  stats.clicks,
			Seconds: round2(stats.seconds),
		})
	}

	return newResult("element-type-time", entries, map[string]interface{}{
		"typeCount": len(entries),
	}), nil
}
