package reliance

import (
	"sort"
	"strings"

	"github.com/cowrite/cowrite/internal/errors"
	"github.com/cowrite/cowrite/pkg/types"
)

// ComputeTaskMetrics computes the three reliance metrics and the
// suggestion outcome counters for one task. The suggestion slice must be
// pre-filtered to that task; mixing suggestions from multiple tasks is a
// caller error.
//
// All three metrics operate over accepted suggestions only and return
// not-applicable sentinels rather than zero when undefined: every metric
// when no suggestion was accepted, and AI reliance also when the essay
// is empty. Callers must treat invalid metrics as missing data.
func ComputeTaskMetrics(finalEssay string, suggestions []types.Suggestion) (types.TaskMetrics, error) {
	if err := assertSingleTask(suggestions); err != nil {
		return types.TaskMetrics{}, err
	}

	accepted := acceptedInShownOrder(suggestions)

	m := types.TaskMetrics{
		Shown:    len(suggestions),
		Accepted: len(accepted),
	}
	for _, s := range suggestions {
		switch s.RejectionReason {
		case types.RejectionImplicit:
			m.Ignored++
		case types.RejectionPressedEscape:
			m.Rejected++
		}
	}
	if m.Shown > 0 {
		m.AcceptanceRate = types.MetricOf(float64(m.Accepted) / float64(m.Shown))
	}

	m.AIReliance = aiReliance(finalEssay, accepted)
	m.SuggestionEditRate = suggestionEditRate(finalEssay, accepted)
	m.PercentEdited = percentEdited(finalEssay, accepted)

	return m, nil
}

// aiReliance is the fraction of the final essay attributable to accepted
// suggestions: the summed overlap lengths over the essay length. After
// each suggestion is evaluated, its overlap is removed from a working
// copy of the essay so shared characters are not double counted.
func aiReliance(finalEssay string, accepted []types.Suggestion) types.Metric {
	if len(accepted) == 0 {
		return types.NA()
	}
	total := len([]rune(finalEssay))
	if total == 0 {
		return types.NA()
	}

	working := finalEssay
	overlapChars := 0
	for _, s := range accepted {
		overlap := LongestOverlap(working, s.Text)
		overlapChars += len([]rune(overlap))
		working = removeFirst(working, overlap)
	}

	return types.MetricOf(float64(overlapChars) / float64(total))
}

// suggestionEditRate is the mean, over accepted suggestions, of
// 1 - overlap/len(suggestion). Zero means every accepted suggestion was
// kept verbatim; values near one mean almost nothing survived.
func suggestionEditRate(finalEssay string, accepted []types.Suggestion) types.Metric {
	if len(accepted) == 0 {
		return types.NA()
	}

	working := finalEssay
	sum := 0.0
	n := 0
	for _, s := range accepted {
		suggLen := len([]rune(s.Text))
		if suggLen == 0 {
			// The client never shows an empty suggestion.
			continue
		}
		overlap := LongestOverlap(working, s.Text)
		sum += 1.0 - float64(len([]rune(overlap)))/float64(suggLen)
		n++
		working = removeFirst(working, overlap)
	}
	if n == 0 {
		return types.NA()
	}
	return types.MetricOf(sum / float64(n))
}

// percentEdited is the fraction of accepted suggestions whose exact text
// does not appear verbatim as a contiguous substring of the final essay.
// A coarser binary notion, independent of the LCS alignment.
func percentEdited(finalEssay string, accepted []types.Suggestion) types.Metric {
	if len(accepted) == 0 {
		return types.NA()
	}

	verbatim := 0
	for _, s := range accepted {
		if strings.Contains(finalEssay, s.Text) {
			verbatim++
		}
	}
	return types.MetricOf(1.0 - float64(verbatim)/float64(len(accepted)))
}

// acceptedInShownOrder filters to accepted suggestions sorted by shown
// time, the order in which overlaps are consumed from the essay.
func acceptedInShownOrder(suggestions []types.Suggestion) []types.Suggestion {
	var accepted []types.Suggestion
	for _, s := range suggestions {
		if s.IsAccepted() {
			accepted = append(accepted, s)
		}
	}
	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].TimeShown < accepted[j].TimeShown
	})
	return accepted
}

// assertSingleTask verifies the suggestion set is homogeneous in task id.
func assertSingleTask(suggestions []types.Suggestion) error {
	var taskID string
	for _, s := range suggestions {
		if s.TaskID == "" {
			continue
		}
		if taskID == "" {
			taskID = s.TaskID
			continue
		}
		if s.TaskID != taskID {
			return errors.NewInvariantViolation(errors.CodeMixedTasks,
				"suggestion set spans multiple tasks: "+taskID+" and "+s.TaskID)
		}
	}
	return nil
}
