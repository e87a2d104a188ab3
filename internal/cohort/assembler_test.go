package cohort

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowrite/cowrite/internal/errors"
	"github.com/cowrite/cowrite/pkg/types"
)

func rawStudyStarted(ts int64, show bool) types.RawEvent {
	return types.RawEvent{Timestamp: ts, EventName: "study_started", EventDetails: map[string]interface{}{
		"user": map[string]interface{}{"showSuggestions": show},
	}}
}

func rawTaskStarted(ts int64, id string) types.RawEvent {
	return types.RawEvent{Timestamp: ts, EventName: "task_started", EventDetails: map[string]interface{}{
		"task": map[string]interface{}{
			"id":        id,
			"prompt":    "write about " + id,
			"minWords":  float64(50),
			"completed": false,
		},
	}}
}

func rawTaskCompleted(ts int64, id, html string) types.RawEvent {
	return types.RawEvent{Timestamp: ts, EventName: "task_completed", EventDetails: map[string]interface{}{
		"taskId":    id,
		"finalHtml": html,
	}}
}

func rawSuggestionShown(ts int64, id, text string) types.RawEvent {
	return types.RawEvent{Timestamp: ts, EventName: "suggestion_shown", EventDetails: map[string]interface{}{
		"suggestionId":   id,
		"timestamp":      float64(ts),
		"suggestionText": text,
		"leadingText":    "",
		"currentHtml":    "",
	}}
}

func rawSuggestionAccepted(ts int64, id string) types.RawEvent {
	return types.RawEvent{Timestamp: ts, EventName: "suggestion_accepted", EventDetails: map[string]interface{}{
		"suggestionId": id,
		"timestamp":    float64(ts),
	}}
}

type mapStore struct {
	logs map[string][]types.RawEvent
}

func (m *mapStore) FetchEvents(_ context.Context, userID string) ([]types.RawEvent, error) {
	events, ok := m.logs[userID]
	if !ok {
		return nil, errors.NewStoreError(errors.CodeEventsNotFound, "no events for "+userID, nil)
	}
	return events, nil
}

func treatmentLog() []types.RawEvent {
	return []types.RawEvent{
		rawStudyStarted(1000, true),
		rawTaskStarted(1100, "tutorial"),
		rawTaskCompleted(1200, "tutorial", "<p>warmup</p>"),
		rawTaskStarted(1300, "attention_check"),
		rawTaskCompleted(1400, "attention_check", "<p>ok</p>"),
		rawTaskStarted(2000, "essay1"),
		rawSuggestionShown(2500, "s1", "brave new world"),
		rawSuggestionAccepted(2600, "s1"),
		rawTaskCompleted(3000, "essay1", "<p>my brave new world essay</p>"),
	}
}

func controlLog() []types.RawEvent {
	return []types.RawEvent{
		rawStudyStarted(1000, false),
		rawTaskStarted(2000, "essay1"),
		rawTaskCompleted(3000, "essay1", "<p>all my own words</p>"),
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestAssemblerTreatmentUser(t *testing.T) {
	store := &mapStore{logs: map[string][]types.RawEvent{"p-t1": treatmentLog()}}
	user := &types.User{ID: "p-t1", Country: "US"}
	a := NewAssembler(store, nil, Options{}, quietLogger())

	res, err := a.Run(context.Background(), []*types.User{user})
	require.NoError(t, err)

	assert.Equal(t, types.GroupTreatment, user.Group)
	assert.Equal(t, "AI", user.GroupLabel)
	assert.Equal(t, []string{"p-t1"}, res.Manifest.Succeeded)
	assert.Empty(t, res.Manifest.Failed)

	// Tutorial and attention check are excluded.
	require.Len(t, res.Tasks, 1)
	row := res.Tasks[0]
	assert.Equal(t, "essay1", row.Task.ID)
	assert.Equal(t, "p-t1", row.UserID)
	assert.Equal(t, "US", row.Country)
	assert.Equal(t, "AI", row.GroupLabel)
	assert.Greater(t, row.TTR, 0.0)

	require.True(t, row.Metrics.AIReliance.Valid)
	assert.InDelta(t, 15.0/24.0, row.Metrics.AIReliance.Value, 1e-9)
	require.True(t, row.Metrics.SuggestionEditRate.Valid)
	assert.Zero(t, row.Metrics.SuggestionEditRate.Value)
	assert.Equal(t, 1, row.Metrics.Shown)
	assert.Equal(t, 1, row.Metrics.Accepted)

	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, "essay1", res.Suggestions[0].Suggestion.TaskID)
	assert.True(t, res.Suggestions[0].Suggestion.IsAccepted())
}

func TestAssemblerControlUserHasNoMetrics(t *testing.T) {
	store := &mapStore{logs: map[string][]types.RawEvent{"u-c1": controlLog()}}
	user := &types.User{ID: "u-c1", Country: "IND"}
	a := NewAssembler(store, nil, Options{}, quietLogger())

	res, err := a.Run(context.Background(), []*types.User{user})
	require.NoError(t, err)

	assert.Equal(t, types.GroupControl, user.Group)
	assert.Equal(t, "No AI", user.GroupLabel)
	require.Len(t, res.Tasks, 1)
	assert.False(t, res.Tasks[0].Metrics.AIReliance.Valid)
	assert.Empty(t, res.Suggestions)
}

func TestAssemblerSkipsFailingUser(t *testing.T) {
	store := &mapStore{logs: map[string][]types.RawEvent{"u-c1": controlLog()}}
	good := &types.User{ID: "u-c1"}
	missing := &types.User{ID: "u-gone"}
	a := NewAssembler(store, nil, Options{}, quietLogger())

	res, err := a.Run(context.Background(), []*types.User{missing, good})
	require.NoError(t, err)

	assert.Equal(t, []string{"u-c1"}, res.Manifest.Succeeded)
	require.Len(t, res.Manifest.Failed, 1)
	assert.Equal(t, "u-gone", res.Manifest.Failed[0].UserID)
	assert.Equal(t, errors.CodeEventsNotFound, errors.GetCode(res.Manifest.Failed[0].Err))
}

func TestAssemblerAbortsOnCorruptLog(t *testing.T) {
	// Duplicate completions with an intervening event fail the integrity
	// check, which must abort the run rather than skip the user.
	log := []types.RawEvent{
		rawStudyStarted(1000, false),
		rawTaskStarted(2000, "essay1"),
		rawTaskCompleted(3000, "essay1", "<p>x</p>"),
		rawStudyStarted(3500, false),
		rawTaskCompleted(4000, "essay1", "<p>x</p>"),
	}
	store := &mapStore{logs: map[string][]types.RawEvent{"u-bad": log}}
	a := NewAssembler(store, nil, Options{}, quietLogger())

	_, err := a.Run(context.Background(), []*types.User{{ID: "u-bad"}})
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestAssemblerRecordsDiagnostics(t *testing.T) {
	store := &mapStore{logs: map[string][]types.RawEvent{"p-t1": treatmentLog()}}
	a := NewAssembler(store, nil, Options{}, quietLogger())

	_, err := a.Run(context.Background(), []*types.User{{ID: "p-t1"}})
	require.NoError(t, err)

	stats, ok := a.Stats().User("p-t1")
	require.True(t, ok)
	assert.Equal(t, len(treatmentLog()), stats.EventCount)
	assert.Equal(t, 1, stats.SuggestionsShown)
	assert.Zero(t, stats.SuggestionsDropped)
}

func TestAssemblerCustomLabels(t *testing.T) {
	store := &mapStore{logs: map[string][]types.RawEvent{"u-c1": controlLog()}}
	user := &types.User{ID: "u-c1"}
	a := NewAssembler(store, nil, Options{ControlLabel: "baseline"}, quietLogger())

	_, err := a.Run(context.Background(), []*types.User{user})
	require.NoError(t, err)
	assert.Equal(t, "baseline", user.GroupLabel)
}
