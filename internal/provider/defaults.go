package provider

import "github.com/HASKI-RAK/laac-api/internal/models"

// DefaultRegistry builds the registry with every metric provider shipped by
// the service. The provider set is fixed at startup; there is no runtime
// registration.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(
		newCompletionRateProvider("course-completion-rate", models.LevelCourse, "Course completion rate", "courseId"),
		newCompletionRateProvider("topic-completion-rate", models.LevelTopic, "Topic completion rate", "courseId", "topicId"),
		newCompletionRateProvider("element-completion-rate", models.LevelElement, "Element completion rate", "elementId"),

		&totalScoreProvider{id: "course-total-score", level: models.LevelCourse, title: "Course total score", required: []string{"courseId"}, inScope: courseScope},
		&totalScoreProvider{id: "topic-total-score", level: models.LevelTopic, title: "Topic total score", required: []string{"courseId", "topicId"}, inScope: topicScope},
		&possibleScoreProvider{id: "course-possible-score", level: models.LevelCourse, title: "Course possible score", required: []string{"courseId"}, inScope: courseScope},
		&possibleScoreProvider{id: "topic-possible-score", level: models.LevelTopic, title: "Topic possible score", required: []string{"courseId", "topicId"}, inScope: topicScope},
		&averageScoreProvider{},

		&timeSpentProvider{id: "course-time-spent", level: models.LevelCourse, title: "Course time spent", required: []string{"courseId"}, inScope: courseScope},
		&timeSpentProvider{id: "topic-time-spent", level: models.LevelTopic, title: "Topic time spent", required: []string{"courseId", "topicId"}, inScope: topicScope},
		&timeSpentProvider{id: "element-time-spent", level: models.LevelElement, title: "Element time spent", required: []string{"elementId"}, inScope: anyScope},

		&bestAttemptProvider{id: "element-attempt-status", title: "Best attempt status", aspect: attemptAspectStatus},
		&bestAttemptProvider{id: "element-attempt-date", title: "Best attempt date", aspect: attemptAspectDate},
		&bestAttemptProvider{id: "element-attempt-score", title: "Best attempt score", aspect: attemptAspectScore},
		&attemptCountProvider{},

		&lastCompletionsProvider{id: "course-last-completions", level: models.LevelCourse, title: "Recent course completions", required: []string{"courseId"}, inScope: courseScope},
		&lastCompletionsProvider{id: "topic-last-completions", level: models.LevelTopic, title: "Recent topic completions", required: []string{"courseId", "topicId"}, inScope: topicScope},
		&lastCompletionsProvider{id: "element-last-completions", level: models.LevelElement, title: "Recent element completions", required: []string{"elementId"}, inScope: anyScope},

		&activeLearnersProvider{},
		&elementTypeClicksProvider{},
		&elementTypeTimeProvider{},
	)
}
