package results

// schemaSQL holds the DDL executed at open, in order. Statements are
// idempotent so reopening an existing database is safe.
var schemaSQL = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id          TEXT PRIMARY KEY,
		created_at      TEXT NOT NULL,
		users_processed INTEGER NOT NULL,
		users_skipped   INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS run_users (
		run_id  TEXT NOT NULL REFERENCES runs(run_id),
		user_id TEXT NOT NULL,
		status  TEXT NOT NULL,
		error   TEXT,
		PRIMARY KEY (run_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		run_id            TEXT NOT NULL REFERENCES runs(run_id),
		user_id           TEXT NOT NULL,
		group_name        TEXT NOT NULL,
		group_label       TEXT NOT NULL,
		country           TEXT,
		birth             TEXT,
		age               TEXT,
		gender            TEXT,
		conservation      REAL,
		transcendence     REAL,
		start_date        TEXT,
		survey_duration_s REAL,
		PRIMARY KEY (run_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		run_id               TEXT NOT NULL REFERENCES runs(run_id),
		user_id              TEXT NOT NULL,
		task_id              TEXT NOT NULL,
		time_started         INTEGER NOT NULL,
		time_completed       INTEGER,
		duration_s           REAL,
		char_length          INTEGER NOT NULL,
		final_text           TEXT NOT NULL,
		ttr                  REAL NOT NULL,
		ai_reliance          REAL,
		suggestion_edit_rate REAL,
		percent_edited       REAL,
		shown                INTEGER NOT NULL,
		accepted             INTEGER NOT NULL,
		ignored              INTEGER NOT NULL,
		rejected             INTEGER NOT NULL,
		acceptance_rate      REAL,
		group_label          TEXT NOT NULL,
		country              TEXT,
		PRIMARY KEY (run_id, user_id, task_id)
	)`,

	`CREATE TABLE IF NOT EXISTS suggestions (
		run_id           TEXT NOT NULL REFERENCES runs(run_id),
		user_id          TEXT NOT NULL,
		suggestion_id    TEXT NOT NULL,
		task_id          TEXT NOT NULL,
		time_shown       INTEGER NOT NULL,
		time_resolved    INTEGER,
		resolution       TEXT NOT NULL,
		rejection_reason TEXT,
		text             TEXT,
		PRIMARY KEY (run_id, user_id, suggestion_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_run_group ON tasks(run_id, group_label)`,
	`CREATE INDEX IF NOT EXISTS idx_suggestions_run_task ON suggestions(run_id, user_id, task_id)`,
}
