package results

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowrite/cowrite/internal/cohort"
	"github.com/cowrite/cowrite/internal/errors"
	"github.com/cowrite/cowrite/pkg/types"
)

func sampleResult() *cohort.Result {
	completed := int64(3000)
	duration := 1.0
	task := &types.Task{
		ID:            "essay1",
		TimeStarted:   2000,
		TimeCompleted: &completed,
		FinalText:     "my brave new world essay",
		DurationS:     &duration,
		CharLength:    24,
	}
	user := &types.User{
		ID:         "p-t1",
		Group:      types.GroupTreatment,
		GroupLabel: "AI",
		Country:    "US",
		StartDate:  time.Date(2024, time.August, 10, 0, 0, 0, 0, time.UTC),
	}
	return &cohort.Result{
		Users: []*types.User{user},
		Tasks: []cohort.TaskRow{{
			UserID: "p-t1",
			Task:   task,
			Metrics: types.TaskMetrics{
				AIReliance:     types.MetricOf(0.625),
				PercentEdited:  types.MetricOf(0),
				Shown:          1,
				Accepted:       1,
				AcceptanceRate: types.MetricOf(1),
			},
			TTR:        0.8,
			Group:      types.GroupTreatment,
			GroupLabel: "AI",
			Country:    "US",
		}},
		Suggestions: []cohort.SuggestionRow{{
			UserID: "p-t1",
			Suggestion: types.Suggestion{
				ID:           "s1",
				TimeShown:    2500,
				TimeResolved: 2600,
				Resolution:   types.ResolutionAccepted,
				Text:         "brave new world",
				TaskID:       "essay1",
			},
		}},
		Manifest: cohort.Manifest{
			Succeeded: []string{"p-t1"},
			Failed: []cohort.UserFailure{{
				UserID: "u-gone",
				Err:    errors.NewStoreError(errors.CodeEventsNotFound, "no events", nil),
			}},
		},
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveRunAndListRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	runID, err := store.SaveRun(ctx, sampleResult())
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, 1, runs[0].Users)
	assert.Equal(t, 1, runs[0].Skipped)

	latest, err := store.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, runID, latest)
}

func TestMetricByGroup(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	runID, err := store.SaveRun(ctx, sampleResult())
	require.NoError(t, err)

	byGroup, err := store.MetricByGroup(ctx, runID, "ai_reliance")
	require.NoError(t, err)
	require.Contains(t, byGroup, "AI")
	assert.Equal(t, []float64{0.625}, byGroup["AI"])

	// The edit rate was never computed, so the column is NULL and the
	// row is excluded.
	byGroup, err = store.MetricByGroup(ctx, runID, "suggestion_edit_rate")
	require.NoError(t, err)
	assert.Empty(t, byGroup)
}

func TestMetricByGroupRejectsUnknownColumn(t *testing.T) {
	store := openTestStore(t)
	_, err := store.MetricByGroup(context.Background(), "run", "final_text; DROP TABLE tasks")
	require.Error(t, err)
}

func TestLatestRunEmpty(t *testing.T) {
	store := openTestStore(t)
	_, err := store.LatestRun(context.Background())
	require.Error(t, err)
}

func TestSaveRunTwiceKeepsRunsSeparate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.SaveRun(ctx, sampleResult())
	require.NoError(t, err)
	second, err := store.SaveRun(ctx, sampleResult())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
