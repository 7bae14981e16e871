package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jobhunterx-engine/internal/domain"
)

// AppendLog writes one automation log entry. Entries are append-only; the
// only thing that removes them is retention cleanup.
func AppendLog(ctx context.Context, db *sql.DB, action string, detail map[string]any) error {
	b, _ := json.Marshal(detail)
	if detail == nil {
		b = []byte("{}")
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO automation_logs (id, action, detail, created_at)
VALUES (?, ?, ?, ?);`,
		uuid.NewString(), action, string(b), fmtTime(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// LastLog returns the most recent entry for an action, or nil if none exists.
func LastLog(ctx context.Context, db *sql.DB, action string) (*domain.LogEntry, error) {
	var e domain.LogEntry
	var detail, createdAt string
	err := db.QueryRowContext(ctx, `
SELECT id, action, detail, created_at
FROM automation_logs
WHERE action = ?
ORDER BY created_at DESC
LIMIT 1;`, action).Scan(&e.ID, &e.Action, &detail, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last log: %w", err)
	}
	_ = json.Unmarshal([]byte(detail), &e.Detail)
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}

// CountLogsSince supports the stats snapshot (e.g. scraping sessions today).
func CountLogsSince(ctx context.Context, db *sql.DB, action string, since time.Time) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM automation_logs WHERE action = ? AND created_at >= ?;`,
		action, fmtTime(since)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count logs: %w", err)
	}
	return n, nil
}

// CleanupOldLogs deletes log entries older than the cutoff and returns how
// many went away. Applications and outreach messages are never touched here.
func CleanupOldLogs(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `
DELETE FROM automation_logs WHERE created_at < ?;`, fmtTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("cleanup logs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
