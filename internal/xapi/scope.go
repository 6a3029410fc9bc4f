package xapi

import (
	"strings"

	"github.com/HASKI-RAK/laac-api/internal/models"
)

// InTopic reports whether the statement belongs to the given topic, decided
// by scanning the context parent activities for an IRI containing
// /topic/<topicId>.
func InTopic(stmt *models.Statement, topicID string) bool {
	if stmt == nil || topicID == "" {
		return false
	}
	needle := "/topic/" + topicID
	for _, parent := range contextParents(stmt) {
		if strings.Contains(parent.ID, needle) {
			return true
		}
	}
	return false
}

// InCourse reports whether the statement belongs to the given course. A
// parent IRI matches when it contains /course/<courseId> or
// /courses/<courseId>, or equals the course id exactly.
func InCourse(stmt *models.Statement, courseID string) bool {
	if stmt == nil || courseID == "" {
		return false
	}
	for _, parent := range contextParents(stmt) {
		if matchesCourse(parent.ID, courseID) {
			return true
		}
	}
	return matchesCourse(stmt.Object.ID, courseID)
}

func matchesCourse(iri, courseID string) bool {
	if iri == "" {
		return false
	}
	return iri == courseID ||
		strings.Contains(iri, "/course/"+courseID) ||
		strings.Contains(iri, "/courses/"+courseID)
}

func contextParents(stmt *models.Statement) []models.Activity {
	if stmt.Context == nil || stmt.Context.ContextActivities == nil {
		return nil
	}
	return stmt.Context.ContextActivities.Parent
}

// DisplayName returns the activity's English display name, falling back to
// any available locale.
func DisplayName(activity *models.Activity) string {
	if activity == nil || activity.Definition == nil || len(activity.Definition.Name) == 0 {
		return ""
	}
	if name, ok := activity.Definition.Name["en"]; ok {
		return name
	}
	if name, ok := activity.Definition.Name["en-US"]; ok {
		return name
	}
	for _, name := range activity.Definition.Name {
		return name
	}
	return ""
}
