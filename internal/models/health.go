package models

import "time"

// InstanceHealth is the probe outcome for one configured LRS instance.
type InstanceHealth struct {
	InstanceID string    `json:"instanceId"`
	Healthy    bool      `json:"healthy"`
	LatencyMs  int64     `json:"latencyMs"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checkedAt"`
}
