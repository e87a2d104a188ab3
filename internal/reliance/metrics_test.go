package reliance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cowrite/cowrite/internal/errors"
	"github.com/cowrite/cowrite/pkg/types"
)

func accepted(id, taskID, text string, shown int64) types.Suggestion {
	return types.Suggestion{
		ID:         id,
		TaskID:     taskID,
		Text:       text,
		TimeShown:  shown,
		Resolution: types.ResolutionAccepted,
	}
}

func rejected(id, taskID, text, reason string, shown int64) types.Suggestion {
	return types.Suggestion{
		ID:              id,
		TaskID:          taskID,
		Text:            text,
		TimeShown:       shown,
		Resolution:      types.ResolutionRejected,
		RejectionReason: reason,
	}
}

func TestComputeTaskMetrics_InsertedCharacterScenario(t *testing.T) {
	// essay "abcXdef" with one accepted suggestion "abcdef": the LCS
	// keeps all six suggestion characters, reliance is 6/7 and the edit
	// rate is zero.
	m, err := ComputeTaskMetrics("abcXdef", []types.Suggestion{
		accepted("s1", "tk", "abcdef", 1),
	})
	assert.NoError(t, err)

	v, ok := m.AIReliance.Float64()
	assert.True(t, ok)
	assert.InDelta(t, 6.0/7.0, v, 1e-9)

	v, ok = m.SuggestionEditRate.Float64()
	assert.True(t, ok)
	assert.InDelta(t, 0.0, v, 1e-9)
}

func TestComputeTaskMetrics_VerbatimSuggestionsHaveZeroEditRate(t *testing.T) {
	essay := "I like dogs and I like cats"
	m, err := ComputeTaskMetrics(essay, []types.Suggestion{
		accepted("s1", "tk", "I like dogs", 1),
		accepted("s2", "tk", "I like cats", 2),
	})
	assert.NoError(t, err)

	v, ok := m.SuggestionEditRate.Float64()
	assert.True(t, ok)
	assert.InDelta(t, 0.0, v, 1e-9)

	v, ok = m.PercentEdited.Float64()
	assert.True(t, ok)
	assert.InDelta(t, 0.0, v, 1e-9)
}

func TestComputeTaskMetrics_NonDoubleCounting(t *testing.T) {
	// Two accepted suggestions with identical text but only one
	// occurrence in the essay: the first consumes it, the second finds
	// nothing left.
	m, err := ComputeTaskMetrics("hello", []types.Suggestion{
		accepted("s1", "tk", "hello", 1),
		accepted("s2", "tk", "hello", 2),
	})
	assert.NoError(t, err)

	v, ok := m.AIReliance.Float64()
	assert.True(t, ok)
	assert.InDelta(t, 1.0, v, 1e-9)
}

func TestComputeTaskMetrics_PartialEdit(t *testing.T) {
	// Suggestion "Hello there," with "there," deleted: overlap "Hello "
	// is 6 of 12 characters, so the edit rate is 0.5.
	m, err := ComputeTaskMetrics("Hello ", []types.Suggestion{
		accepted("s1", "tk", "Hello there,", 1),
	})
	assert.NoError(t, err)

	v, ok := m.SuggestionEditRate.Float64()
	assert.True(t, ok)
	assert.InDelta(t, 0.5, v, 1e-9)

	// Not a verbatim substring, so it counts as edited.
	v, ok = m.PercentEdited.Float64()
	assert.True(t, ok)
	assert.InDelta(t, 1.0, v, 1e-9)
}

func TestComputeTaskMetrics_ZeroAcceptedIsNotApplicable(t *testing.T) {
	// All three metrics must be not-applicable, never zero and never an
	// error, when the task has no accepted suggestion.
	m, err := ComputeTaskMetrics("some essay text", []types.Suggestion{
		rejected("s1", "tk", "text", types.RejectionPressedEscape, 1),
	})
	assert.NoError(t, err)

	assert.False(t, m.AIReliance.Valid)
	assert.False(t, m.SuggestionEditRate.Valid)
	assert.False(t, m.PercentEdited.Valid)
	assert.Equal(t, 1, m.Shown)
	assert.Equal(t, 0, m.Accepted)
	assert.Equal(t, 1, m.Rejected)
}

func TestComputeTaskMetrics_EmptyEssay(t *testing.T) {
	m, err := ComputeTaskMetrics("", []types.Suggestion{
		accepted("s1", "tk", "text", 1),
	})
	assert.NoError(t, err)
	assert.False(t, m.AIReliance.Valid)
}

func TestComputeTaskMetrics_Counters(t *testing.T) {
	m, err := ComputeTaskMetrics("essay", []types.Suggestion{
		accepted("s1", "tk", "a", 1),
		rejected("s2", "tk", "b", types.RejectionImplicit, 2),
		rejected("s3", "tk", "c", types.RejectionPressedEscape, 3),
		{ID: "s4", TaskID: "tk", Text: "d", TimeShown: 4, Resolution: types.ResolutionUnresolved},
	})
	assert.NoError(t, err)

	assert.Equal(t, 4, m.Shown)
	assert.Equal(t, 1, m.Accepted)
	assert.Equal(t, 1, m.Ignored)
	assert.Equal(t, 1, m.Rejected)

	v, ok := m.AcceptanceRate.Float64()
	assert.True(t, ok)
	assert.InDelta(t, 0.25, v, 1e-9)
}

func TestComputeTaskMetrics_NoSuggestionsAtAll(t *testing.T) {
	m, err := ComputeTaskMetrics("essay", nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, m.Shown)
	assert.False(t, m.AcceptanceRate.Valid)
	assert.False(t, m.AIReliance.Valid)
}

func TestComputeTaskMetrics_MixedTasksIsInvariantViolation(t *testing.T) {
	_, err := ComputeTaskMetrics("essay", []types.Suggestion{
		accepted("s1", "task-a", "x", 1),
		accepted("s2", "task-b", "y", 2),
	})
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCategoryInvariant, errors.GetCategory(err))
	assert.True(t, errors.IsFatal(err))
}
