package xapi

import (
	"time"

	"github.com/HASKI-RAK/laac-api/internal/models"
)

// Completion verb IRIs. The HASKI IRI is emitted by the learning platform
// itself; the ADL pair covers standards-compliant content.
const (
	VerbCompletedHaski = "https://wiki.haski.app/variables/xapi.completed"
	VerbCompletedADL   = "http://adlnet.gov/expapi/verbs/completed"
	VerbPassedADL      = "http://adlnet.gov/expapi/verbs/passed"
)

// IsCompletionVerb reports whether the verb IRI marks a completion event.
func IsCompletionVerb(verbID string) bool {
	switch verbID {
	case VerbCompletedHaski, VerbCompletedADL, VerbPassedADL:
		return true
	}
	return false
}

// ExtractScore returns the statement's raw score if present, else the
// scaled score, else nil.
func ExtractScore(stmt *models.Statement) *float64 {
	if stmt == nil || stmt.Result == nil || stmt.Result.Score == nil {
		return nil
	}
	if stmt.Result.Score.Raw != nil {
		return stmt.Result.Score.Raw
	}
	return stmt.Result.Score.Scaled
}

// IsCompleted reports whether the statement's result carries an explicit
// completion flag.
func IsCompleted(stmt *models.Statement) bool {
	return stmt != nil && stmt.Result != nil && stmt.Result.Completion != nil && *stmt.Result.Completion
}

// SelectBestAttempt returns the statement with the numerically highest
// extracted score; ties are broken by the latest timestamp. Statements
// without a score rank below any scored statement. Returns nil for empty
// input.
func SelectBestAttempt(statements []models.Statement) *models.Statement {
	var best *models.Statement
	var bestScore *float64
	var bestTime time.Time

	for i := range statements {
		stmt := &statements[i]
		score := ExtractScore(stmt)
		ts := ParseTimestamp(stmt.Timestamp)

		if best == nil {
			best, bestScore, bestTime = stmt, score, ts
			continue
		}

		switch {
		case score == nil && bestScore == nil:
			if ts.After(bestTime) {
				best, bestTime = stmt, ts
			}
		case score == nil:
			// keep current best
		case bestScore == nil:
			best, bestScore, bestTime = stmt, score, ts
		case *score > *bestScore:
			best, bestScore, bestTime = stmt, score, ts
		case *score == *bestScore && ts.After(bestTime):
			best, bestScore, bestTime = stmt, score, ts
		}
	}

	return best
}

// ParseTimestamp converts an ISO-8601 statement timestamp, returning the
// zero time for missing or malformed values.
func ParseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// ActorKey derives the unique learner identity used when grouping
// statements per learner: the account name scoped by homepage when present,
// otherwise the mbox, otherwise the plain actor name.
func ActorKey(stmt *models.Statement) string {
	if stmt == nil {
		return ""
	}
	if stmt.Actor.Account != nil && stmt.Actor.Account.Name != "" {
		return stmt.Actor.Account.HomePage + "|" + stmt.Actor.Account.Name
	}
	if stmt.Actor.Mbox != "" {
		return stmt.Actor.Mbox
	}
	return stmt.Actor.Name
}
