package models

// Statement is an immutable xAPI activity-stream record as returned by an
// LRS. Statements are read-only inputs to metric computation.
type Statement struct {
	ID        string     `json:"id,omitempty"`
	Actor     Actor      `json:"actor"`
	Verb      Verb       `json:"verb"`
	Object    Activity   `json:"object"`
	Result    *Result    `json:"result,omitempty"`
	Context   *Context   `json:"context,omitempty"`
	Timestamp string     `json:"timestamp,omitempty"`
	Stored    string     `json:"stored,omitempty"`

	// InstanceID records which configured LRS the statement came from. It is
	// stamped by the client after fetching, never sent over the wire.
	InstanceID string `json:"instanceId,omitempty"`
}

// Actor identifies the learner, either by account or mbox.
type Actor struct {
	ObjectType string   `json:"objectType,omitempty"`
	Name       string   `json:"name,omitempty"`
	Mbox       string   `json:"mbox,omitempty"`
	Account    *Account `json:"account,omitempty"`
}

// Account is a homepage-scoped actor identity.
type Account struct {
	HomePage string `json:"homePage,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Verb describes the action taken, identified by IRI.
type Verb struct {
	ID      string            `json:"id"`
	Display map[string]string `json:"display,omitempty"`
}

// Activity is the object of a statement.
type Activity struct {
	ObjectType string              `json:"objectType,omitempty"`
	ID         string              `json:"id"`
	Definition *ActivityDefinition `json:"definition,omitempty"`
}

// ActivityDefinition carries localized naming and typing for an activity.
type ActivityDefinition struct {
	Name        map[string]string `json:"name,omitempty"`
	Description map[string]string `json:"description,omitempty"`
	Type        string            `json:"type,omitempty"`
}

// Result holds the outcome of a learning interaction.
type Result struct {
	Score      *Score `json:"score,omitempty"`
	Completion *bool  `json:"completion,omitempty"`
	Success    *bool  `json:"success,omitempty"`
	Duration   string `json:"duration,omitempty"`
}

// Score is the xAPI score object.
type Score struct {
	Raw    *float64 `json:"raw,omitempty"`
	Scaled *float64 `json:"scaled,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// Context carries the activity hierarchy and registration of a statement.
type Context struct {
	Registration      string             `json:"registration,omitempty"`
	ContextActivities *ContextActivities `json:"contextActivities,omitempty"`
}

// ContextActivities encodes the course/topic hierarchy via parent and
// grouping activity references.
type ContextActivities struct {
	Parent   []Activity `json:"parent,omitempty"`
	Grouping []Activity `json:"grouping,omitempty"`
	Category []Activity `json:"category,omitempty"`
}

// StatementResult is the LRS response envelope for a statements query.
type StatementResult struct {
	Statements []Statement `json:"statements"`
	More       string      `json:"more,omitempty"`
}
