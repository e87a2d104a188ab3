package reconstruct

import (
	"fmt"

	"github.com/cowrite/cowrite/internal/errors"
	"github.com/cowrite/cowrite/internal/htmltext"
	"github.com/cowrite/cowrite/internal/timeline"
	"github.com/cowrite/cowrite/pkg/types"
)

// TaskTable is the reconstructed task table for one user. Tasks is keyed
// by task id; OrderedIDs preserves start order so consumers that need a
// deterministic scan (attribution, persistence) have one. Row order
// carries no meaning for analysis.
type TaskTable struct {
	Tasks      map[string]*types.Task
	OrderedIDs []string

	// DuplicateStarts and DuplicateCompletions count the double-click
	// artifacts collapsed during reconstruction.
	DuplicateStarts      int
	DuplicateCompletions int
}

// Get returns the task with the given id, or nil.
func (t *TaskTable) Get(id string) *types.Task {
	return t.Tasks[id]
}

// Len returns the number of reconstructed tasks.
func (t *TaskTable) Len() int {
	return len(t.Tasks)
}

// Drop removes a task from the table (used to exclude tutorial and
// attention-check pseudo-tasks).
func (t *TaskTable) Drop(id string) {
	if _, ok := t.Tasks[id]; !ok {
		return
	}
	delete(t.Tasks, id)
	for i, tid := range t.OrderedIDs {
		if tid == id {
			t.OrderedIDs = append(t.OrderedIDs[:i], t.OrderedIDs[i+1:]...)
			break
		}
	}
}

// startRecord is a flattened task_started event.
type startRecord struct {
	timestamp int64
	id        string
	prompt    string
	minWords  int
	completed bool
}

func (r startRecord) payload() map[string]interface{} {
	return map[string]interface{}{
		"id":        r.id,
		"prompt":    r.prompt,
		"minWords":  r.minWords,
		"completed": r.completed,
	}
}

// completionRecord is a flattened task_completed event.
type completionRecord struct {
	timestamp int64
	taskID    string
	finalHTML string
}

func (r completionRecord) payload() map[string]interface{} {
	return map[string]interface{}{
		"taskId":    r.taskID,
		"finalHtml": r.finalHTML,
	}
}

// ReconstructTasks derives the task table from a user's event timeline.
//
// task_started events are flattened, deduplicated on everything except the
// timestamp (earliest intent wins), and indexed by task id. Completions go
// through the same pipeline, but suspected duplicates are first verified
// benign: if any other event falls strictly between two supposedly
// identical completions, the log is corrupted and reconstruction fails
// with an integrity error rather than silently merging real activity.
func ReconstructTasks(events []types.Event) (*TaskTable, error) {
	starts, err := flattenStarts(events)
	if err != nil {
		return nil, err
	}
	starts, dupStarts := dedupKeepEarliest(starts, func(r startRecord) uint64 {
		return fingerprint(r.payload())
	})

	completions, err := flattenCompletions(events)
	if err != nil {
		return nil, err
	}
	if err := checkDuplicateCompletions(events, completions); err != nil {
		return nil, err
	}
	completions, dupCompletions := dedupKeepEarliest(completions, func(r completionRecord) uint64 {
		return fingerprint(r.payload())
	})

	byTask := make(map[string]completionRecord, len(completions))
	for _, c := range completions {
		if _, ok := byTask[c.taskID]; !ok {
			byTask[c.taskID] = c
		}
	}

	table := &TaskTable{
		Tasks:                make(map[string]*types.Task, len(starts)),
		DuplicateStarts:      dupStarts,
		DuplicateCompletions: dupCompletions,
	}

	for _, s := range starts {
		if _, ok := table.Tasks[s.id]; ok {
			continue
		}
		task := &types.Task{
			ID:          s.id,
			TimeStarted: s.timestamp,
			Prompt:      s.prompt,
			MinWords:    s.minWords,
		}
		// Left join: a task may legitimately lack a completion if the
		// user abandoned the study.
		if c, ok := byTask[s.id]; ok {
			tc := c.timestamp
			task.TimeCompleted = &tc
			task.FinalHTML = c.finalHTML
			task.FinalText = htmltext.Strip(c.finalHTML)
			d := float64(tc-s.timestamp) / 1000.0
			task.DurationS = &d
			task.CharLength = len([]rune(task.FinalText))
		}
		table.Tasks[s.id] = task
		table.OrderedIDs = append(table.OrderedIDs, s.id)
	}

	return table, nil
}

func flattenStarts(events []types.Event) ([]startRecord, error) {
	var out []startRecord
	for _, ev := range timeline.Filter(events, types.EventTaskStarted) {
		task, ok := ev.Details["task"].(map[string]interface{})
		if !ok {
			return nil, errors.NewMalformedEvent(errors.CodeMissingField,
				fmt.Sprintf("task_started at %d has no task payload", ev.Timestamp))
		}
		id, ok := task["id"].(string)
		if !ok || id == "" {
			return nil, errors.NewMalformedEvent(errors.CodeMissingField,
				fmt.Sprintf("task_started at %d has no task id", ev.Timestamp))
		}
		rec := startRecord{
			timestamp: ev.Timestamp,
			id:        id,
		}
		if p, ok := task["prompt"].(string); ok {
			rec.prompt = p
		}
		if mw, ok := task["minWords"].(float64); ok {
			rec.minWords = int(mw)
		}
		if c, ok := task["completed"].(bool); ok {
			rec.completed = c
		}
		out = append(out, rec)
	}
	return out, nil
}

func flattenCompletions(events []types.Event) ([]completionRecord, error) {
	var out []completionRecord
	for _, ev := range timeline.Filter(events, types.EventTaskCompleted) {
		taskID, ok := ev.Details["taskId"].(string)
		if !ok || taskID == "" {
			return nil, errors.NewMalformedEvent(errors.CodeMissingField,
				fmt.Sprintf("task_completed at %d has no taskId", ev.Timestamp))
		}
		finalHTML, _ := ev.Details["finalHtml"].(string)
		out = append(out, completionRecord{
			timestamp: ev.Timestamp,
			taskID:    taskID,
			finalHTML: finalHTML,
		})
	}
	return out, nil
}
