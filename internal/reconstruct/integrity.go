package reconstruct

import (
	"fmt"

	"github.com/cowrite/cowrite/internal/errors"
	"github.com/cowrite/cowrite/internal/timeline"
	"github.com/cowrite/cowrite/pkg/types"
)

// IntegrityResult is the outcome of the duplicate-completion sanity check.
// The caller decides whether a violation aborts one user or the whole run.
type IntegrityResult struct {
	Valid bool

	// TaskID, FirstTimestamp and SecondTimestamp describe the violating
	// pair when Valid is false.
	TaskID          string
	FirstTimestamp  int64
	SecondTimestamp int64
	Intervening     int
}

// CheckDuplicateCompletions verifies that suspected duplicate completions
// are benign double clicks. For every pair of adjacent completion records
// that are identical except for timestamp, no other event may fall
// strictly between their two timestamps. An intervening event means two
// real completions are about to be merged, which indicates a corrupted or
// misattributed log.
//
// This is a data integrity check, not a transformation: the record list
// is never modified.
func CheckDuplicateCompletions(events []types.Event, completions []completionRecord) IntegrityResult {
	for i := 0; i+1 < len(completions); i++ {
		a, b := completions[i], completions[i+1]
		if a.taskID != b.taskID {
			continue
		}
		if fingerprint(a.payload()) != fingerprint(b.payload()) {
			continue
		}
		// Both completion events themselves sit at the interval
		// endpoints, so strict bounds exclude them.
		if n := timeline.CountBetween(events, a.timestamp, b.timestamp); n > 0 {
			return IntegrityResult{
				TaskID:          a.taskID,
				FirstTimestamp:  a.timestamp,
				SecondTimestamp: b.timestamp,
				Intervening:     n,
			}
		}
	}
	return IntegrityResult{Valid: true}
}

// checkDuplicateCompletions wraps CheckDuplicateCompletions into the
// fatal-error form used by ReconstructTasks.
func checkDuplicateCompletions(events []types.Event, completions []completionRecord) error {
	res := CheckDuplicateCompletions(events, completions)
	if res.Valid {
		return nil
	}
	return errors.NewIntegrityError(
		fmt.Sprintf("%d event(s) between duplicate completions of task %q (%d..%d)",
			res.Intervening, res.TaskID, res.FirstTimestamp, res.SecondTimestamp))
}
