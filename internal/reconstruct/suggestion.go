package reconstruct

import (
	"fmt"

	"github.com/cowrite/cowrite/internal/errors"
	"github.com/cowrite/cowrite/internal/timeline"
	"github.com/cowrite/cowrite/pkg/types"
)

// SuggestionTable is the reconstructed suggestion table for one user,
// restricted to suggestions attributable to a task.
type SuggestionTable struct {
	Suggestions []types.Suggestion

	// Shown is the number of suggestion_shown events before attribution;
	// Dropped counts those with no containing task interval. The caller
	// surfaces Dropped/Shown as a warning-level diagnostic.
	Shown   int
	Dropped int
}

// ForTask returns the suggestions attributed to one task, in shown order.
func (s *SuggestionTable) ForTask(taskID string) []types.Suggestion {
	var out []types.Suggestion
	for _, sugg := range s.Suggestions {
		if sugg.TaskID == taskID {
			out = append(out, sugg)
		}
	}
	return out
}

// resolution is a flattened accept/reject event.
type resolution struct {
	timestamp int64
	state     types.Resolution
	reason    string
}

// ReconstructSuggestions derives the suggestion table from a user's event
// timeline and reconstructed task table.
//
// The shown, accepted, and rejected event streams are flattened and keyed
// by suggestion id; accept/reject are unioned into one resolution table
// and left-joined onto the shown table. A shown suggestion with no
// resolution event is kept as unresolved (log loss is tolerated, not
// guessed at). Each suggestion is attributed to the task whose closed
// [time_started, time_completed] interval contains its shown time; task
// intervals do not overlap, so at most one task matches and the scan
// picks the first in task table order. Unattributable suggestions are
// dropped and counted, never assigned a task.
func ReconstructSuggestions(events []types.Event, tasks *TaskTable) (*SuggestionTable, error) {
	shown := timeline.Filter(events, types.EventSuggestionShown)

	resolutions, err := flattenResolutions(events)
	if err != nil {
		return nil, err
	}

	table := &SuggestionTable{}
	seen := make(map[string]bool, len(shown))

	for _, ev := range shown {
		id, ok := ev.Details["suggestionId"].(string)
		if !ok || id == "" {
			return nil, errors.NewMalformedEvent(errors.CodeMissingField,
				fmt.Sprintf("suggestion_shown at %d has no suggestionId", ev.Timestamp))
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		table.Shown++

		sugg := types.Suggestion{
			ID:         id,
			TimeShown:  ev.Timestamp,
			Resolution: types.ResolutionUnresolved,
		}
		if text, ok := ev.Details["suggestionText"].(string); ok {
			sugg.Text = text
		}
		if leading, ok := ev.Details["leadingText"].(string); ok {
			sugg.LeadingText = leading
		}
		if res, ok := resolutions[id]; ok {
			sugg.TimeResolved = res.timestamp
			sugg.Resolution = res.state
			sugg.RejectionReason = res.reason
		}

		taskID, ok := attribute(sugg.TimeShown, tasks)
		if !ok {
			table.Dropped++
			continue
		}
		sugg.TaskID = taskID
		table.Suggestions = append(table.Suggestions, sugg)
	}

	return table, nil
}

// attribute finds the task whose interval contains ts. First match in
// task table order wins; task intervals for one user are non-overlapping,
// so more than one match cannot occur in a well-formed log.
func attribute(ts int64, tasks *TaskTable) (string, bool) {
	for _, id := range tasks.OrderedIDs {
		if tasks.Tasks[id].Contains(ts) {
			return id, true
		}
	}
	return "", false
}

// flattenResolutions unions the accepted and rejected event streams into
// one table keyed by suggestion id. An accept beats a reject for the same
// id; the client never logs both, so this is a deterministic tiebreak,
// not a policy.
func flattenResolutions(events []types.Event) (map[string]resolution, error) {
	out := make(map[string]resolution)

	for _, ev := range timeline.Filter(events, types.EventSuggestionRejected) {
		id, ok := ev.Details["suggestionId"].(string)
		if !ok || id == "" {
			return nil, errors.NewMalformedEvent(errors.CodeMissingField,
				fmt.Sprintf("suggestion_rejected at %d has no suggestionId", ev.Timestamp))
		}
		if _, dup := out[id]; dup {
			continue
		}
		reason, _ := ev.Details["reason"].(string)
		out[id] = resolution{
			timestamp: ev.Timestamp,
			state:     types.ResolutionRejected,
			reason:    reason,
		}
	}

	for _, ev := range timeline.Filter(events, types.EventSuggestionAccepted) {
		id, ok := ev.Details["suggestionId"].(string)
		if !ok || id == "" {
			return nil, errors.NewMalformedEvent(errors.CodeMissingField,
				fmt.Sprintf("suggestion_accepted at %d has no suggestionId", ev.Timestamp))
		}
		// Keep the earliest accept; an accept overrides a reject.
		if existing, dup := out[id]; dup && existing.state == types.ResolutionAccepted {
			continue
		}
		out[id] = resolution{
			timestamp: ev.Timestamp,
			state:     types.ResolutionAccepted,
		}
	}

	return out, nil
}
