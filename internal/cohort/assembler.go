package cohort

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cowrite/cowrite/internal/errors"
	"github.com/cowrite/cowrite/internal/eventstore"
	"github.com/cowrite/cowrite/internal/observability"
	"github.com/cowrite/cowrite/internal/reconstruct"
	"github.com/cowrite/cowrite/internal/reliance"
	"github.com/cowrite/cowrite/internal/textmetrics"
	"github.com/cowrite/cowrite/internal/timeline"
	"github.com/cowrite/cowrite/pkg/types"
)

// Default labels for the two groups and the pseudo-tasks excluded from
// every analysis.
const (
	DefaultTreatmentLabel = "AI"
	DefaultControlLabel   = "No AI"
)

var DefaultExcludedTasks = []string{"tutorial", "attention_check"}

// Options configures the assembler.
type Options struct {
	TreatmentLabel string
	ControlLabel   string
	ExcludedTasks  []string
}

func (o Options) withDefaults() Options {
	if o.TreatmentLabel == "" {
		o.TreatmentLabel = DefaultTreatmentLabel
	}
	if o.ControlLabel == "" {
		o.ControlLabel = DefaultControlLabel
	}
	if o.ExcludedTasks == nil {
		o.ExcludedTasks = DefaultExcludedTasks
	}
	return o
}

// TaskRow is one reconstructed task of one user, joined with user
// context and per-task metrics. Metrics are only populated for
// treatment users; control essays have no suggestions to measure.
type TaskRow struct {
	UserID     string
	Task       *types.Task
	Metrics    types.TaskMetrics
	TTR        float64
	Group      types.Group
	GroupLabel string
	Country    string
}

// SuggestionRow is one attributed suggestion of one user.
type SuggestionRow struct {
	UserID     string
	Suggestion types.Suggestion
}

// UserFailure records a participant skipped by the cohort loop.
type UserFailure struct {
	UserID string
	Err    error
}

// Manifest lists processed and skipped participants for one run.
type Manifest struct {
	Succeeded []string
	Failed    []UserFailure
}

// Result is the assembled cohort.
type Result struct {
	Users       []*types.User
	Tasks       []TaskRow
	Suggestions []SuggestionRow
	Manifest    Manifest
}

// Assembler runs the per-user reconstruction pipeline over a cohort.
type Assembler struct {
	store eventstore.Store
	stats *observability.PipelineStats
	opts  Options
	log   *logrus.Logger
}

// NewAssembler creates an assembler. stats and log may be nil.
func NewAssembler(store eventstore.Store, stats *observability.PipelineStats, opts Options, log *logrus.Logger) *Assembler {
	if log == nil {
		log = logrus.New()
	}
	if stats == nil {
		stats = observability.NewPipelineStats()
	}
	return &Assembler{store: store, stats: stats, opts: opts.withDefaults(), log: log}
}

// Stats exposes the diagnostics collected so far.
func (a *Assembler) Stats() *observability.PipelineStats {
	return a.stats
}

// Run processes users sequentially. A failing user is recorded in the
// manifest and skipped unless the failure is fatal (corrupt log or
// caller bug), which aborts the whole run. Group assignment is written
// back onto the user structs; the loop is the only writer.
func (a *Assembler) Run(ctx context.Context, users []*types.User) (*Result, error) {
	res := &Result{Users: users}

	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := a.processUser(ctx, u, res); err != nil {
			if errors.IsFatal(err) {
				return nil, fmt.Errorf("cohort: user %s: %w", u.ID, err)
			}
			a.log.WithField("user", u.ID).WithError(err).Warn("cohort: skipping user")
			res.Manifest.Failed = append(res.Manifest.Failed, UserFailure{UserID: u.ID, Err: err})
			continue
		}
		res.Manifest.Succeeded = append(res.Manifest.Succeeded, u.ID)
	}

	totals := a.stats.Totals()
	a.log.WithFields(logrus.Fields{
		"users":       len(res.Manifest.Succeeded),
		"skipped":     len(res.Manifest.Failed),
		"tasks":       len(res.Tasks),
		"suggestions": len(res.Suggestions),
		"dropped":     totals.SuggestionsDropped,
	}).Info("cohort: assembly complete")
	return res, nil
}

func (a *Assembler) processUser(ctx context.Context, u *types.User, res *Result) error {
	records, err := a.store.FetchEvents(ctx, u.ID)
	if err != nil {
		return err
	}
	events, err := timeline.Build(records)
	if err != nil {
		return err
	}

	tasks, err := reconstruct.ReconstructTasks(events)
	if err != nil {
		return err
	}
	for _, id := range a.opts.ExcludedTasks {
		tasks.Drop(id)
	}

	show, err := timeline.ShowSuggestions(events)
	if err != nil {
		return err
	}
	if show {
		u.Group = types.GroupTreatment
		u.GroupLabel = a.opts.TreatmentLabel
	} else {
		u.Group = types.GroupControl
		u.GroupLabel = a.opts.ControlLabel
	}

	stats := observability.UserStats{
		UserID:               u.ID,
		EventCount:           len(events),
		DuplicateStarts:      tasks.DuplicateStarts,
		DuplicateCompletions: tasks.DuplicateCompletions,
	}

	metrics := make(map[string]types.TaskMetrics)
	if show {
		suggestions, err := reconstruct.ReconstructSuggestions(events, tasks)
		if err != nil {
			return err
		}
		stats.SuggestionsShown = suggestions.Shown
		stats.SuggestionsDropped = suggestions.Dropped

		for _, id := range tasks.OrderedIDs {
			task := tasks.Get(id)
			m, err := reliance.ComputeTaskMetrics(task.FinalText, suggestions.ForTask(id))
			if err != nil {
				return err
			}
			metrics[id] = m
		}
		for _, sugg := range suggestions.Suggestions {
			res.Suggestions = append(res.Suggestions, SuggestionRow{UserID: u.ID, Suggestion: sugg})
		}
	}

	for _, id := range tasks.OrderedIDs {
		task := tasks.Get(id)
		res.Tasks = append(res.Tasks, TaskRow{
			UserID:     u.ID,
			Task:       task,
			Metrics:    metrics[id],
			TTR:        textmetrics.TypeTokenRatio(task.FinalText),
			Group:      u.Group,
			GroupLabel: u.GroupLabel,
			Country:    u.Country,
		})
	}

	a.stats.RecordUser(stats)
	return nil
}
