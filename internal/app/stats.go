package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cowrite/cowrite/internal/results"
	"github.com/cowrite/cowrite/internal/stats"
)

// DefaultStatsMetrics are the task columns compared between groups.
var DefaultStatsMetrics = []string{
	"ai_reliance",
	"suggestion_edit_rate",
	"percent_edited",
	"acceptance_rate",
	"duration_s",
	"char_length",
	"ttr",
}

// MetricReport is the between-group comparison for one metric.
type MetricReport struct {
	Metric string

	// Summaries keyed by group label.
	Groups map[string]stats.Summary

	// Test is "t-test" when both groups pass the normality screen,
	// otherwise "mann-whitney".
	Test   string
	Result stats.TestResult

	// Skipped explains why no test ran (single group, too few samples).
	Skipped string
}

// RunStats compares each metric between the two groups of the given run
// (latest run when runID is empty).
func (a *App) RunStats(ctx context.Context, runID string, metrics []string) ([]MetricReport, error) {
	db, err := results.Open(a.cfg.ResultsPath())
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if runID == "" {
		runID, err = db.LatestRun(ctx)
		if err != nil {
			return nil, err
		}
	}
	if metrics == nil {
		metrics = DefaultStatsMetrics
	}

	var reports []MetricReport
	for _, metric := range metrics {
		byGroup, err := db.MetricByGroup(ctx, runID, metric)
		if err != nil {
			return nil, err
		}
		reports = append(reports, a.compareGroups(metric, byGroup))
	}
	return reports, nil
}

// compareGroups runs the normality screen and the matching location
// test on the treatment and control samples.
func (a *App) compareGroups(metric string, byGroup map[string][]float64) MetricReport {
	report := MetricReport{Metric: metric, Groups: make(map[string]stats.Summary)}
	for label, values := range byGroup {
		if summary, err := stats.Describe(values); err == nil {
			report.Groups[label] = summary
		}
	}

	treatment := byGroup[a.cfg.Cohort.TreatmentLabel]
	control := byGroup[a.cfg.Cohort.ControlLabel]
	if len(treatment) == 0 || len(control) == 0 {
		report.Skipped = "metric present in one group only"
		return report
	}

	normal := true
	for _, sample := range [][]float64{treatment, control} {
		_, p, err := stats.ShapiroWilk(sample)
		if err != nil || !stats.ShapiroNormal(p) {
			normal = false
			break
		}
	}

	var result stats.TestResult
	var err error
	if normal {
		report.Test = "t-test"
		result, err = stats.TTest(treatment, control)
	} else {
		report.Test = "mann-whitney"
		result, err = stats.MannWhitneyU(treatment, control)
	}
	if err != nil {
		report.Test = ""
		report.Skipped = err.Error()
		return report
	}
	report.Result = result
	return report
}

// LogReport writes one comparison to the structured log.
func (a *App) LogReport(r MetricReport) {
	fields := logrus.Fields{"metric": r.Metric}
	for label, s := range r.Groups {
		fields["mean_"+label] = fmt.Sprintf("%.4f", s.Mean)
		fields["n_"+label] = s.N
	}
	if r.Skipped != "" {
		fields["skipped"] = r.Skipped
		a.log.WithFields(fields).Warn("stats: comparison skipped")
		return
	}
	fields["test"] = r.Test
	fields["p"] = fmt.Sprintf("%.4f", r.Result.P)
	fields["effect"] = fmt.Sprintf("%.4f", r.Result.EffectSize)
	fields["magnitude"] = r.Result.Magnitude
	fields["significant"] = r.Result.Significant
	a.log.WithFields(fields).Info("stats: group comparison")
}
