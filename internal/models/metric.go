package models

import "time"

// Dashboard levels describe the hierarchy scope a metric is computed at.
const (
	LevelCourse  = "course"
	LevelTopic   = "topic"
	LevelElement = "element"
)

// MetricParams is the flat set of optional filters accepted by every metric.
// Each provider declares its own required subset.
type MetricParams struct {
	CourseID   string            `json:"courseId,omitempty"`
	TopicID    string            `json:"topicId,omitempty"`
	ElementID  string            `json:"elementId,omitempty"`
	UserID     string            `json:"userId,omitempty"`
	GroupID    string            `json:"groupId,omitempty"`
	Since      *time.Time        `json:"since,omitempty"`
	Until      *time.Time        `json:"until,omitempty"`
	InstanceID string            `json:"instanceId,omitempty"`
	Filters    map[string]string `json:"filters,omitempty"`
}

// MetricResult is the product of a metric computation, fresh or restored
// from cache. Value and Metadata are identical either way; only the wrapper
// fields FromCache and ComputationTime differ.
type MetricResult struct {
	MetricID string                 `json:"metricId"`
	Value    interface{}            `json:"value"`
	Computed time.Time              `json:"computed"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	InstanceID      string `json:"instanceId,omitempty"`
	FromCache       bool   `json:"fromCache"`
	ComputationTime int64  `json:"computationTime"`
}

// CachedResult is the serialized form stored under a cache key.
type CachedResult struct {
	Result     MetricResult `json:"result"`
	InstanceID string       `json:"instanceId"`
}
