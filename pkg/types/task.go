package types

// Task is one reconstructed writing task for a single user.
// ID is unique within a user's task set only; task tables are always
// scoped to (user, task id).
type Task struct {
	// ID is the task identifier from the study client (e.g., "food").
	ID string

	// TimeStarted is the epoch-millisecond timestamp of the surviving
	// task_started event after deduplication.
	TimeStarted int64

	// TimeCompleted is nil when the task was abandoned (no matching
	// task_completed event). Exclusion of such tasks is a downstream
	// policy decision, not applied here.
	TimeCompleted *int64

	// Prompt is the writing prompt shown to the user.
	Prompt string

	// MinWords is the minimum word count enforced by the client.
	MinWords int

	// FinalHTML is the raw markup of the submitted essay.
	FinalHTML string

	// FinalText is FinalHTML with markup stripped.
	FinalText string

	// DurationS is (TimeCompleted - TimeStarted) / 1000; nil when
	// TimeCompleted is absent.
	DurationS *float64

	// CharLength is len(FinalText) in runes.
	CharLength int
}

// Completed reports whether a matching task_completed event was found.
func (t *Task) Completed() bool {
	return t.TimeCompleted != nil
}

// Contains reports whether ts falls inside the closed interval
// [TimeStarted, TimeCompleted]. Tasks without a completion contain nothing.
func (t *Task) Contains(ts int64) bool {
	if t.TimeCompleted == nil {
		return false
	}
	return t.TimeStarted <= ts && ts <= *t.TimeCompleted
}

// TaskMetrics holds the per-task reliance metrics and suggestion counters
// computed for treatment-group users.
type TaskMetrics struct {
	AIReliance         Metric
	SuggestionEditRate Metric
	PercentEdited      Metric

	Shown    int
	Accepted int
	Ignored  int
	Rejected int

	// AcceptanceRate is Accepted/Shown; invalid when Shown is zero.
	AcceptanceRate Metric
}
