package store

import (
	"database/sql"
)

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1: tables ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  primary_email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  created_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS events (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  company_name TEXT NOT NULL,
  role_title TEXT NOT NULL,
  category TEXT NOT NULL,
  status TEXT NOT NULL,
  ai_summary TEXT NOT NULL DEFAULT '',
  received_at TEXT NOT NULL,
  source_message_id TEXT NOT NULL,
  thread_id TEXT NOT NULL DEFAULT '',
  provider TEXT NOT NULL,
  inbox_email TEXT NOT NULL,
  assignment_status TEXT NOT NULL DEFAULT 'unprocessed'
    CHECK (assignment_status IN ('unprocessed','assigned','conflict')),
  application_id TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS applications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  company_name TEXT NOT NULL,
  company_key TEXT NOT NULL,
  role_title TEXT NOT NULL,
  role_key TEXT NOT NULL,
  status TEXT NOT NULL
    CHECK (status IN ('APPLIED','OA','INTERVIEW','OFFER','REJECTED')),
  status_rank INTEGER NOT NULL,
  status_updated_at TEXT NOT NULL,
  applied_at TEXT NOT NULL,
  last_event_at TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  ai_summary TEXT NOT NULL DEFAULT '',
  source_provider TEXT NOT NULL DEFAULT '',
  source_inbox_email TEXT NOT NULL DEFAULT '',
  source_thread_id TEXT NOT NULL DEFAULT '',
  source_last_message_id TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS scheduled_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  application_id TEXT NOT NULL DEFAULT '',
  event_id TEXT NOT NULL DEFAULT '',
  type TEXT NOT NULL CHECK (type IN ('OA','INTERVIEW')),
  title TEXT NOT NULL,
  start_at TEXT NOT NULL,
  end_at TEXT NOT NULL DEFAULT '',
  duration_min INTEGER NOT NULL DEFAULT 0,
  timezone TEXT NOT NULL DEFAULT 'UTC',
  notes TEXT NOT NULL DEFAULT '',
  links TEXT NOT NULL DEFAULT '[]',
  company_name TEXT NOT NULL DEFAULT '',
  role_title TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT 'manual' CHECK (source IN ('auto','manual')),
  source_message_id TEXT NOT NULL DEFAULT '',
  source_thread_id TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS dashboard_stats (
  user_id TEXT PRIMARY KEY REFERENCES users(id),
  applied_count INTEGER NOT NULL DEFAULT 0,
  oa_count INTEGER NOT NULL DEFAULT 0,
  interview_count INTEGER NOT NULL DEFAULT 0,
  offer_count INTEGER NOT NULL DEFAULT 0,
  rejected_count INTEGER NOT NULL DEFAULT 0,
  active_count INTEGER NOT NULL DEFAULT 0,
  last_updated_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS daily_stats (
  user_id TEXT NOT NULL REFERENCES users(id),
  day TEXT NOT NULL,
  applied_count INTEGER NOT NULL DEFAULT 0,
  oa_count INTEGER NOT NULL DEFAULT 0,
  interview_count INTEGER NOT NULL DEFAULT 0,
  offer_count INTEGER NOT NULL DEFAULT 0,
  rejection_count INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (user_id, day)
);
`); err != nil {
		return err
	}

	// ---- Schema v1: indexes ----

	// Idempotency boundary: one event per source message per user.
	if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_events_user_message
ON events(user_id, source_message_id);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_events_user_assignment
ON events(user_id, assignment_status);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_events_user_received
ON events(user_id, received_at DESC);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_apps_user_keys
ON applications(user_id, company_key, role_key);
`); err != nil {
		return err
	}

	// same thread = same application
	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_apps_user_thread
ON applications(user_id, source_thread_id)
WHERE source_thread_id != '';
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_apps_user_last_event
ON applications(user_id, last_event_at DESC);
`); err != nil {
		return err
	}

	// Re-delivery of the same upstream message must not duplicate items.
	if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_items_redelivery
ON scheduled_items(user_id, source_message_id, type, start_at)
WHERE source_message_id != '';
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_items_event
ON scheduled_items(event_id)
WHERE event_id != '';
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_items_user_start
ON scheduled_items(user_id, start_at);
`); err != nil {
		return err
	}

	// Mark schema v1
	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}
