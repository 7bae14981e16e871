package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"jobhunterx-engine/internal/domain"
)

func InsertApplication(ctx context.Context, db *sql.DB, a domain.Application) error {
	utm, _ := json.Marshal(a.UTMParams)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO applications (id, candidate_id, job_id, resume_version_id, cover_letter_id,
  method, status, error_message, tracking_pixel_url, utm_params, applied_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		a.ID, a.CandidateID, a.JobID, a.ResumeVersionID, a.CoverLetterID,
		string(a.Method), string(a.Status), a.ErrorMessage,
		a.TrackingPixelURL, string(utm), fmtTimePtr(a.AppliedAt), fmtTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// MarkApplicationApplied records a successful submission: pending -> applied.
func MarkApplicationApplied(ctx context.Context, db *sql.DB, id string, appliedAt time.Time, pixelURL string, utm map[string]string) error {
	utmJSON, _ := json.Marshal(utm)
	_, err := db.ExecContext(ctx, `
UPDATE applications
SET status = ?, applied_at = ?, tracking_pixel_url = ?, utm_params = ?, error_message = ''
WHERE id = ?;`,
		string(domain.AppApplied), fmtTime(appliedAt), pixelURL, string(utmJSON), id,
	)
	if err != nil {
		return fmt.Errorf("mark application applied: %w", err)
	}
	return nil
}

// RecordApplicationError keeps the row pending and attaches the failure.
// There is no terminal failed status on applications; the error field plus
// a never-set applied_at is how a dead submission reads.
func RecordApplicationError(ctx context.Context, db *sql.DB, id string, msg string) error {
	_, err := db.ExecContext(ctx, `
UPDATE applications SET error_message = ? WHERE id = ?;`, msg, id)
	if err != nil {
		return fmt.Errorf("record application error: %w", err)
	}
	return nil
}

// CountApplicationsSince backs the quota window for the applications action.
func CountApplicationsSince(ctx context.Context, db *sql.DB, candidateID string, since time.Time) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM applications
WHERE candidate_id = ? AND created_at >= ?;`,
		candidateID, fmtTime(since),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return n, nil
}

// RecentJobIDs returns jobs the candidate already has an application for
// within the window. The matcher excludes these.
func RecentJobIDs(ctx context.Context, db *sql.DB, candidateID string, since time.Time) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
SELECT DISTINCT job_id FROM applications
WHERE candidate_id = ? AND created_at >= ?;`,
		candidateID, fmtTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("recent job ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func GetApplication(ctx context.Context, db *sql.DB, id string) (domain.Application, error) {
	var a domain.Application
	var method, status, utm, createdAt string
	var appliedAt, responseAt sql.NullString
	err := db.QueryRowContext(ctx, `
SELECT id, candidate_id, job_id, resume_version_id, cover_letter_id, method, status,
  error_message, tracking_pixel_url, utm_params, applied_at, response_at, created_at
FROM applications WHERE id = ?;`, id).Scan(
		&a.ID, &a.CandidateID, &a.JobID, &a.ResumeVersionID, &a.CoverLetterID,
		&method, &status, &a.ErrorMessage, &a.TrackingPixelURL, &utm,
		&appliedAt, &responseAt, &createdAt,
	)
	if err != nil {
		return a, fmt.Errorf("get application %s: %w", id, err)
	}
	a.Method = domain.ApplicationMethod(method)
	a.Status = domain.ApplicationStatus(status)
	_ = json.Unmarshal([]byte(utm), &a.UTMParams)
	a.AppliedAt = parseTimePtr(appliedAt)
	a.ResponseAt = parseTimePtr(responseAt)
	a.CreatedAt = parseTime(createdAt)
	return a, nil
}
