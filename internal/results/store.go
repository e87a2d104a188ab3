// Package results persists assembled cohort tables to SQLite so the
// stats front-end can query runs without re-running the pipeline.
package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/cowrite/cowrite/internal/cohort"
	"github.com/cowrite/cowrite/pkg/types"
)

// Store is a SQLite-backed results store. Writes funnel through one
// connection; the pipeline is the single writer.
type Store struct {
	db   *sql.DB
	path string
}

// RunInfo describes one persisted pipeline run.
type RunInfo struct {
	ID        string
	CreatedAt time.Time
	Users     int
	Skipped   int
}

// Open opens (or creates) the results database and initializes the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("results: open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("results: initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	for _, stmt := range schemaSQL {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun writes the assembled cohort in one transaction and returns
// the generated run id.
func (s *Store) SaveRun(ctx context.Context, res *cohort.Result) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("results: begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, users_processed, users_skipped) VALUES (?, ?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339Nano), len(res.Manifest.Succeeded), len(res.Manifest.Failed),
	); err != nil {
		return "", fmt.Errorf("results: insert run: %w", err)
	}

	if err := s.insertManifest(ctx, tx, runID, res.Manifest); err != nil {
		return "", err
	}
	if err := s.insertUsers(ctx, tx, runID, res.Users); err != nil {
		return "", err
	}
	if err := s.insertTasks(ctx, tx, runID, res.Tasks); err != nil {
		return "", err
	}
	if err := s.insertSuggestions(ctx, tx, runID, res.Suggestions); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("results: commit run: %w", err)
	}
	return runID, nil
}

func (s *Store) insertManifest(ctx context.Context, tx *sql.Tx, runID string, m cohort.Manifest) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_users (run_id, user_id, status, error) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("results: prepare manifest insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range m.Succeeded {
		if _, err := stmt.ExecContext(ctx, runID, id, "ok", nil); err != nil {
			return fmt.Errorf("results: insert manifest row for %s: %w", id, err)
		}
	}
	for _, f := range m.Failed {
		if _, err := stmt.ExecContext(ctx, runID, f.UserID, "skipped", f.Err.Error()); err != nil {
			return fmt.Errorf("results: insert manifest row for %s: %w", f.UserID, err)
		}
	}
	return nil
}

func (s *Store) insertUsers(ctx context.Context, tx *sql.Tx, runID string, users []*types.User) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO users (
			run_id, user_id, group_name, group_label, country, birth,
			age, gender, conservation, transcendence, start_date, survey_duration_s
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("results: prepare user insert: %w", err)
	}
	defer stmt.Close()

	for _, u := range users {
		if _, err := stmt.ExecContext(ctx,
			runID, u.ID, string(u.Group), u.GroupLabel, u.Country, u.Birth,
			u.Age, u.Gender, u.Conservation, u.Transcendence,
			u.StartDate.UTC().Format(time.RFC3339), u.SurveyDurationS,
		); err != nil {
			return fmt.Errorf("results: insert user %s: %w", u.ID, err)
		}
	}
	return nil
}

func (s *Store) insertTasks(ctx context.Context, tx *sql.Tx, runID string, tasks []cohort.TaskRow) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tasks (
			run_id, user_id, task_id, time_started, time_completed,
			duration_s, char_length, final_text, ttr,
			ai_reliance, suggestion_edit_rate, percent_edited,
			shown, accepted, ignored, rejected, acceptance_rate,
			group_label, country
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("results: prepare task insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range tasks {
		t := row.Task
		if _, err := stmt.ExecContext(ctx,
			runID, row.UserID, t.ID, t.TimeStarted, nullInt64(t.TimeCompleted),
			nullFloat64Ptr(t.DurationS), t.CharLength, t.FinalText, row.TTR,
			nullMetric(row.Metrics.AIReliance),
			nullMetric(row.Metrics.SuggestionEditRate),
			nullMetric(row.Metrics.PercentEdited),
			row.Metrics.Shown, row.Metrics.Accepted, row.Metrics.Ignored, row.Metrics.Rejected,
			nullMetric(row.Metrics.AcceptanceRate),
			row.GroupLabel, row.Country,
		); err != nil {
			return fmt.Errorf("results: insert task %s/%s: %w", row.UserID, t.ID, err)
		}
	}
	return nil
}

func (s *Store) insertSuggestions(ctx context.Context, tx *sql.Tx, runID string, rows []cohort.SuggestionRow) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO suggestions (
			run_id, user_id, suggestion_id, task_id,
			time_shown, time_resolved, resolution, rejection_reason, text
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("results: prepare suggestion insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		sg := row.Suggestion
		var resolved interface{}
		if sg.TimeResolved != 0 {
			resolved = sg.TimeResolved
		}
		if _, err := stmt.ExecContext(ctx,
			runID, row.UserID, sg.ID, sg.TaskID,
			sg.TimeShown, resolved, string(sg.Resolution), sg.RejectionReason, sg.Text,
		); err != nil {
			return fmt.Errorf("results: insert suggestion %s/%s: %w", row.UserID, sg.ID, err)
		}
	}
	return nil
}

// ListRuns returns persisted runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, created_at, users_processed, users_skipped FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("results: list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var info RunInfo
		var created string
		if err := rows.Scan(&info.ID, &created, &info.Users, &info.Skipped); err != nil {
			return nil, fmt.Errorf("results: scan run: %w", err)
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339, created)
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recent run id.
func (s *Store) LatestRun(ctx context.Context) (string, error) {
	var runID string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`).Scan(&runID)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("results: no runs persisted")
	}
	if err != nil {
		return "", fmt.Errorf("results: latest run: %w", err)
	}
	return runID, nil
}

// Metric columns exposed to the stats front-end.
var metricColumns = map[string]bool{
	"ai_reliance":          true,
	"suggestion_edit_rate": true,
	"percent_edited":       true,
	"acceptance_rate":      true,
	"duration_s":           true,
	"char_length":          true,
	"ttr":                  true,
}

// MetricByGroup returns the non-null values of one task metric keyed by
// group label.
func (s *Store) MetricByGroup(ctx context.Context, runID, metric string) (map[string][]float64, error) {
	if !metricColumns[metric] {
		return nil, fmt.Errorf("results: unknown metric column %q", metric)
	}
	query := fmt.Sprintf(
		`SELECT group_label, %s FROM tasks WHERE run_id = ? AND %s IS NOT NULL`, metric, metric)
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("results: query metric %s: %w", metric, err)
	}
	defer rows.Close()

	out := make(map[string][]float64)
	for rows.Next() {
		var label string
		var value float64
		if err := rows.Scan(&label, &value); err != nil {
			return nil, fmt.Errorf("results: scan metric %s: %w", metric, err)
		}
		out[label] = append(out[label], value)
	}
	return out, rows.Err()
}

func nullMetric(m types.Metric) interface{} {
	if !m.Valid {
		return nil
	}
	return m.Value
}

func nullInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat64Ptr(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
