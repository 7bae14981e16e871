package store

import "database/sql"

// Migrate brings the schema to the current version. Single-file history via
// PRAGMA user_version, everything inside one transaction.
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

	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS candidates (
  id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL,
  email TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  keywords TEXT NOT NULL DEFAULT '[]',
  target_roles TEXT NOT NULL DEFAULT '[]',
  active INTEGER NOT NULL DEFAULT 1,
  automation_enabled INTEGER NOT NULL DEFAULT 1,
  matches INTEGER NOT NULL DEFAULT 0,
  applications INTEGER NOT NULL DEFAULT 0,
  outreach INTEGER NOT NULL DEFAULT 0,
  last_processed TEXT,
  cycle_id TEXT NOT NULL DEFAULT '',
  error_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT NOT NULL DEFAULT '',
  last_error_time TEXT,
  created_at TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS job_postings (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  url TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT '',
  source_id TEXT NOT NULL DEFAULT '',
  scraped_at TEXT NOT NULL
);`,
		`
CREATE UNIQUE INDEX IF NOT EXISTS idx_postings_source
ON job_postings(source, source_id) WHERE source_id != '';`,
		`
CREATE TABLE IF NOT EXISTS applications (
  id TEXT PRIMARY KEY,
  candidate_id TEXT NOT NULL,
  job_id TEXT NOT NULL,
  resume_version_id TEXT NOT NULL DEFAULT '',
  cover_letter_id TEXT NOT NULL DEFAULT '',
  method TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  error_message TEXT NOT NULL DEFAULT '',
  tracking_pixel_url TEXT NOT NULL DEFAULT '',
  utm_params TEXT NOT NULL DEFAULT '{}',
  applied_at TEXT,
  response_at TEXT,
  created_at TEXT NOT NULL
);`,
		`
CREATE INDEX IF NOT EXISTS idx_applications_candidate_created
ON applications(candidate_id, created_at);`,
		`
CREATE TABLE IF NOT EXISTS recruiters (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  company TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  roles TEXT NOT NULL DEFAULT '[]',
  response_rate REAL NOT NULL DEFAULT 0.5,
  last_contacted TEXT,
  active INTEGER NOT NULL DEFAULT 1
);`,
		`
CREATE TABLE IF NOT EXISTS outreach_campaigns (
  id TEXT PRIMARY KEY,
  candidate_id TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  target_companies TEXT NOT NULL DEFAULT '[]',
  target_locations TEXT NOT NULL DEFAULT '[]',
  target_roles TEXT NOT NULL DEFAULT '[]',
  channels TEXT NOT NULL DEFAULT '[]',
  daily_limit INTEGER NOT NULL DEFAULT 10,
  delay_seconds INTEGER NOT NULL DEFAULT 300,
  tone TEXT NOT NULL DEFAULT 'warm',
  auto_follow_up INTEGER NOT NULL DEFAULT 0,
  max_follow_ups INTEGER NOT NULL DEFAULT 3,
  follow_up_delay_seconds INTEGER NOT NULL DEFAULT 86400,
  status TEXT NOT NULL DEFAULT 'draft',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  started_at TEXT,
  ended_at TEXT
);`,
		`
CREATE TABLE IF NOT EXISTS outreach_messages (
  id TEXT PRIMARY KEY,
  campaign_id TEXT NOT NULL DEFAULT '',
  recruiter_id TEXT NOT NULL,
  candidate_id TEXT NOT NULL,
  channel TEXT NOT NULL,
  content TEXT NOT NULL,
  tone TEXT NOT NULL DEFAULT '',
  scheduled_for TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  error_message TEXT NOT NULL DEFAULT '',
  sent_at TEXT,
  replied_at TEXT,
  follow_up_sequence INTEGER NOT NULL DEFAULT 0,
  parent_message_id TEXT NOT NULL DEFAULT '',
  provider_message_id TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);`,
		`
CREATE INDEX IF NOT EXISTS idx_messages_due
ON outreach_messages(status, scheduled_for);`,
		`
CREATE INDEX IF NOT EXISTS idx_messages_candidate_created
ON outreach_messages(candidate_id, created_at);`,
		`
CREATE INDEX IF NOT EXISTS idx_messages_parent
ON outreach_messages(parent_message_id) WHERE parent_message_id != '';`,
		`
CREATE TABLE IF NOT EXISTS automation_logs (
  id TEXT PRIMARY KEY,
  action TEXT NOT NULL,
  detail TEXT NOT NULL DEFAULT '{}',
  created_at TEXT NOT NULL
);`,
		`
CREATE INDEX IF NOT EXISTS idx_logs_action_created
ON automation_logs(action, created_at DESC);`,
	}

	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}
