package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/HASKI-RAK/laac-api/internal/models"
)

func TestBuildCacheKey(t *testing.T) {
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name     string
		metricID string
		instance string
		level    string
		params   models.MetricParams
		want     string
	}{
		{
			name:     "all scoping params in fixed order",
			metricID: "course-completion-rate",
			instance: "default",
			level:    models.LevelCourse,
			params: models.MetricParams{
				CourseID:  "2",
				TopicID:   "5",
				ElementID: "17",
				UserID:    "alice",
				Since:     &since,
				Until:     &until,
			},
			want: "cache:course-completion-rate:default:course:" +
				"courseId=2,topicId=5,elementId=17,userId=alice," +
				"since=2026-03-01T00%3A00%3A00Z,until=2026-03-31T23%3A59%3A59Z:v1",
		},
		{
			name:     "no params yields empty pair segment",
			metricID: "course-active-learners",
			instance: "default",
			level:    models.LevelCourse,
			params:   models.MetricParams{},
			want:     "cache:course-active-learners:default:course::v1",
		},
		{
			name:     "values with colons are escaped",
			metricID: "element-time-spent",
			instance: "moodle",
			level:    models.LevelElement,
			params: models.MetricParams{
				ElementID: "https://lms.example.org/mod/quiz/17",
				UserID:    "mailto:alice@example.org",
			},
			want: "cache:element-time-spent:moodle:element:" +
				"elementId=https%3A%2F%2Flms.example.org%2Fmod%2Fquiz%2F17," +
				"userId=mailto%3Aalice%40example.org:v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildCacheKey(tt.metricID, tt.instance, tt.level, tt.params)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildCacheKeyDeterministic(t *testing.T) {
	params := models.MetricParams{CourseID: "2", UserID: "alice"}
	first := BuildCacheKey("course-time-spent", "default", models.LevelCourse, params)
	second := BuildCacheKey("course-time-spent", "default", models.LevelCourse, params)
	assert.Equal(t, first, second)
}
