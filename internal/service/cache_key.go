package service

import (
	"net/url"
	"strings"
	"time"

	"github.com/HASKI-RAK/laac-api/internal/models"
)

// cacheKeySchemaVersion is bumped whenever the key layout changes, so stale
// entries from older deployments are never read back.
const cacheKeySchemaVersion = "v1"

// BuildCacheKey derives the deterministic cache key for a metric
// computation:
//
//	cache:<metricId>:<instanceId>:<dashboardLevel>:<k1=v1,k2=v2,...>:v1
//
// The k=v pairs are the non-empty scoping parameters in fixed priority
// order, values URL-encoded so embedded colons cannot break the key layout.
func BuildCacheKey(metricID, instanceID, dashboardLevel string, params models.MetricParams) string {
	pairs := make([]string, 0, 6)
	appendPair := func(name, value string) {
		if value != "" {
			pairs = append(pairs, name+"="+url.QueryEscape(value))
		}
	}

	appendPair("courseId", params.CourseID)
	appendPair("topicId", params.TopicID)
	appendPair("elementId", params.ElementID)
	appendPair("userId", params.UserID)
	appendPair("since", formatScopeTime(params.Since))
	appendPair("until", formatScopeTime(params.Until))

	return strings.Join([]string{
		"cache",
		metricID,
		instanceID,
		dashboardLevel,
		strings.Join(pairs, ","),
		cacheKeySchemaVersion,
	}, ":")
}

func formatScopeTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
