// Package lrs talks to Learning Record Stores: it builds xAPI statement
// queries and fetches statements over HTTP with pagination and bounded
// retries.
package lrs

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/HASKI-RAK/laac-api/internal/models"
	appErrors "github.com/HASKI-RAK/laac-api/pkg/errors"
)

// Valid values for the xAPI format parameter.
const (
	FormatIDs       = "ids"
	FormatExact     = "exact"
	FormatCanonical = "canonical"
)

// StatementQuery is a fluent, order-independent accumulator of xAPI query
// parameters. Errors raised while chaining (bad limit, unserializable agent)
// are deferred until Build so call sites stay chainable.
type StatementQuery struct {
	params url.Values
	err    error
}

// NewStatementQuery returns an empty query.
func NewStatementQuery() *StatementQuery {
	return &StatementQuery{params: url.Values{}}
}

// QueryByActor scopes the query to a single learner.
func QueryByActor(actor models.Actor) *StatementQuery {
	return NewStatementQuery().WithAgent(actor)
}

// QueryByActivity scopes the query to one activity IRI.
func QueryByActivity(activityIRI string) *StatementQuery {
	return NewStatementQuery().WithActivity(activityIRI)
}

// QueryByVerb scopes the query to one verb IRI.
func QueryByVerb(verbIRI string) *StatementQuery {
	return NewStatementQuery().WithVerb(verbIRI)
}

// QueryByDateRange scopes the query to a time window.
func QueryByDateRange(since, until time.Time) *StatementQuery {
	return NewStatementQuery().WithSince(since).WithUntil(until)
}

// WithAgent filters by actor, serialized as the JSON agent object the xAPI
// spec requires.
func (q *StatementQuery) WithAgent(actor models.Actor) *StatementQuery {
	payload, err := json.Marshal(actor)
	if err != nil {
		q.fail(fmt.Errorf("serialize agent: %w", err))
		return q
	}
	q.params.Set("agent", string(payload))
	return q
}

// WithVerb filters by verb IRI.
func (q *StatementQuery) WithVerb(verbIRI string) *StatementQuery {
	q.params.Set("verb", verbIRI)
	return q
}

// WithActivity filters by activity IRI.
func (q *StatementQuery) WithActivity(activityIRI string) *StatementQuery {
	q.params.Set("activity", activityIRI)
	return q
}

// WithRegistration filters by registration UUID.
func (q *StatementQuery) WithRegistration(registration string) *StatementQuery {
	q.params.Set("registration", registration)
	return q
}

// WithRelatedActivities widens the activity filter to context activities.
func (q *StatementQuery) WithRelatedActivities(related bool) *StatementQuery {
	q.params.Set("related_activities", strconv.FormatBool(related))
	return q
}

// WithRelatedAgents widens the agent filter to context agents.
func (q *StatementQuery) WithRelatedAgents(related bool) *StatementQuery {
	q.params.Set("related_agents", strconv.FormatBool(related))
	return q
}

// WithSince filters statements stored after the given instant.
func (q *StatementQuery) WithSince(since time.Time) *StatementQuery {
	q.params.Set("since", since.UTC().Format(time.RFC3339))
	return q
}

// WithUntil filters statements stored before the given instant.
func (q *StatementQuery) WithUntil(until time.Time) *StatementQuery {
	q.params.Set("until", until.UTC().Format(time.RFC3339))
	return q
}

// WithLimit caps the page size. Valid range is the closed interval [0,1000];
// 0 asks the LRS for a count-only response.
func (q *StatementQuery) WithLimit(limit int) *StatementQuery {
	if limit < 0 || limit > 1000 {
		q.fail(appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("limit must be between 0 and 1000, got %d", limit)))
		return q
	}
	q.params.Set("limit", strconv.Itoa(limit))
	return q
}

// WithFormat selects the statement serialization format.
func (q *StatementQuery) WithFormat(format string) *StatementQuery {
	switch format {
	case FormatIDs, FormatExact, FormatCanonical:
		q.params.Set("format", format)
	default:
		q.fail(appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown statement format %q", format)))
	}
	return q
}

// WithAttachments requests statement attachments.
func (q *StatementQuery) WithAttachments(attachments bool) *StatementQuery {
	q.params.Set("attachments", strconv.FormatBool(attachments))
	return q
}

// WithAscending sorts results oldest first.
func (q *StatementQuery) WithAscending(ascending bool) *StatementQuery {
	q.params.Set("ascending", strconv.FormatBool(ascending))
	return q
}

// Build returns the accumulated parameter map, or the first error recorded
// while chaining.
func (q *StatementQuery) Build() (url.Values, error) {
	if q.err != nil {
		return nil, q.err
	}
	out := url.Values{}
	for key, values := range q.params {
		out[key] = append([]string(nil), values...)
	}
	return out, nil
}

// Encode returns the URL-encoded query string.
func (q *StatementQuery) Encode() (string, error) {
	params, err := q.Build()
	if err != nil {
		return "", err
	}
	return params.Encode(), nil
}

func (q *StatementQuery) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}
