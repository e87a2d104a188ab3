package reconstruct

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cowrite/cowrite/internal/errors"
	"github.com/cowrite/cowrite/internal/timeline"
	"github.com/cowrite/cowrite/pkg/types"
)

func taskStarted(ts int64, id, prompt string, minWords int) types.RawEvent {
	return types.RawEvent{
		Timestamp: ts,
		EventName: "task_started",
		EventDetails: map[string]interface{}{
			"task": map[string]interface{}{
				"id":        id,
				"prompt":    prompt,
				"minWords":  float64(minWords),
				"completed": false,
			},
		},
	}
}

func taskCompleted(ts int64, id, html string) types.RawEvent {
	return types.RawEvent{
		Timestamp: ts,
		EventName: "task_completed",
		EventDetails: map[string]interface{}{
			"taskId":    id,
			"finalHtml": html,
		},
	}
}

func buildEvents(t *testing.T, records []types.RawEvent) []types.Event {
	t.Helper()
	events, err := timeline.Build(records)
	assert.NoError(t, err)
	return events
}

func TestReconstructTasks_Basic(t *testing.T) {
	events := buildEvents(t, []types.RawEvent{
		taskStarted(1000, "food", "What is your favorite food and why?", 50),
		taskCompleted(61000, "food", "<p>I love biryani.</p>"),
	})

	table, err := ReconstructTasks(events)
	assert.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	task := table.Get("food")
	assert.NotNil(t, task)
	assert.Equal(t, int64(1000), task.TimeStarted)
	assert.True(t, task.Completed())
	assert.Equal(t, int64(61000), *task.TimeCompleted)
	assert.Equal(t, "I love biryani.", task.FinalText)
	assert.InDelta(t, 60.0, *task.DurationS, 1e-9)
	assert.Equal(t, len([]rune("I love biryani.")), task.CharLength)
}

func TestReconstructTasks_DoubleClickKeepsEarliest(t *testing.T) {
	// Two task_started events with identical payloads at different
	// timestamps simulate a double click. Exactly one task row must
	// survive, with time_started from the earlier event.
	events := buildEvents(t, []types.RawEvent{
		taskStarted(1000, "food", "prompt", 50),
		taskStarted(1450, "food", "prompt", 50),
		taskCompleted(90000, "food", "<p>essay</p>"),
	})

	table, err := ReconstructTasks(events)
	assert.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, int64(1000), table.Get("food").TimeStarted)
	assert.Equal(t, 1, table.DuplicateStarts)
}

func TestReconstructTasks_DistinctPayloadsSurviveDedup(t *testing.T) {
	// Dedup keys on the full payload, not the task id: distinct prompts
	// are distinct intents, and the table keeps one row per distinct
	// payload (indexed by id, first occurrence wins).
	events := buildEvents(t, []types.RawEvent{
		taskStarted(1000, "food", "prompt one", 50),
		taskStarted(2000, "festival", "prompt two", 50),
	})

	table, err := ReconstructTasks(events)
	assert.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 0, table.DuplicateStarts)
}

func TestReconstructTasks_AbandonedTaskHasNoCompletion(t *testing.T) {
	events := buildEvents(t, []types.RawEvent{
		taskStarted(1000, "leave", "prompt", 50),
	})

	table, err := ReconstructTasks(events)
	assert.NoError(t, err)

	task := table.Get("leave")
	assert.NotNil(t, task)
	assert.False(t, task.Completed())
	assert.Nil(t, task.TimeCompleted)
	assert.Nil(t, task.DurationS)
}

func TestReconstructTasks_CompletionDoubleClick(t *testing.T) {
	events := buildEvents(t, []types.RawEvent{
		taskStarted(1000, "food", "prompt", 50),
		taskCompleted(5000, "food", "<p>done</p>"),
		taskCompleted(5200, "food", "<p>done</p>"),
	})

	table, err := ReconstructTasks(events)
	assert.NoError(t, err)
	assert.Equal(t, int64(5000), *table.Get("food").TimeCompleted)
	assert.Equal(t, 1, table.DuplicateCompletions)
}

func TestReconstructTasks_InterveningEventIsFatal(t *testing.T) {
	// An event strictly between two identical completions means the
	// "duplicates" were real activity; merging them would corrupt the
	// table, so reconstruction must fail.
	events := buildEvents(t, []types.RawEvent{
		taskStarted(1000, "food", "prompt", 50),
		taskCompleted(5000, "food", "<p>done</p>"),
		{
			Timestamp: 5100,
			EventName: "suggestion_shown",
			EventDetails: map[string]interface{}{
				"suggestionId": "s1", "suggestionText": "x",
			},
		},
		taskCompleted(5200, "food", "<p>done</p>"),
	})

	_, err := ReconstructTasks(events)
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCategoryIntegrity, errors.GetCategory(err))
	assert.True(t, errors.IsFatal(err))
}

func TestReconstructTasks_CompletionOrderInvariant(t *testing.T) {
	events := buildEvents(t, []types.RawEvent{
		taskStarted(1000, "a", "prompt a", 50),
		taskCompleted(5000, "a", "<p>a</p>"),
		taskStarted(6000, "b", "prompt b", 50),
		taskCompleted(9000, "b", "<p>b</p>"),
	})

	table, err := ReconstructTasks(events)
	assert.NoError(t, err)
	for _, id := range table.OrderedIDs {
		task := table.Get(id)
		if task.Completed() {
			assert.GreaterOrEqual(t, *task.TimeCompleted, task.TimeStarted)
		}
	}
}

func TestReconstructTasks_MalformedStart(t *testing.T) {
	events := buildEvents(t, []types.RawEvent{
		{
			Timestamp:    1000,
			EventName:    "task_started",
			EventDetails: map[string]interface{}{"notask": true},
		},
	})

	_, err := ReconstructTasks(events)
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCategoryValidation, errors.GetCategory(err))
}

func TestTaskTable_Drop(t *testing.T) {
	events := buildEvents(t, []types.RawEvent{
		taskStarted(1000, "tutorial", "practice", 0),
		taskStarted(2000, "food", "prompt", 50),
	})

	table, err := ReconstructTasks(events)
	assert.NoError(t, err)

	table.Drop("tutorial")
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, []string{"food"}, table.OrderedIDs)

	// Dropping an absent id is a no-op.
	table.Drop("attention_check")
	assert.Equal(t, 1, table.Len())
}
