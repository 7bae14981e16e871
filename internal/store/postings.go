package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobhunterx-engine/internal/domain"
)

type PostingInsert struct {
	ID          string
	Title       string
	Company     string
	Location    string
	URL         string
	Description string
	Source      string
	SourceID    string
}

// InsertPostingIgnore inserts a scraped posting, deduping on (source,
// source_id) via the partial unique index. Returns whether a row was added.
func InsertPostingIgnore(ctx context.Context, db *sql.DB, p PostingInsert) (added bool, err error) {
	_, err = db.ExecContext(ctx, `
INSERT OR IGNORE INTO job_postings (id, title, company, location, url, description, source, source_id, scraped_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		p.ID, p.Title, p.Company, p.Location, p.URL, p.Description, p.Source, p.SourceID,
		fmtTime(time.Now().UTC()),
	)
	if err != nil {
		return false, fmt.Errorf("insert posting: %w", err)
	}

	// SQLite does not report rows affected reliably with IGNORE across
	// drivers; changes() does.
	var changes int
	if e := db.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); e == nil {
		return changes > 0, nil
	}
	return true, nil
}

func GetPosting(ctx context.Context, db *sql.DB, id string) (domain.JobPosting, error) {
	row := db.QueryRowContext(ctx, `
SELECT id, title, company, location, url, description, source, scraped_at
FROM job_postings WHERE id = ?;`, id)
	var p domain.JobPosting
	var scrapedAt string
	err := row.Scan(&p.ID, &p.Title, &p.Company, &p.Location, &p.URL,
		&p.Description, &p.Source, &scrapedAt)
	if err != nil {
		return p, err
	}
	p.ScrapedAt = parseTime(scrapedAt)
	return p, nil
}

// ListRecentPostings feeds the default matcher collaborator.
func ListRecentPostings(ctx context.Context, db *sql.DB, since time.Time, limit int) ([]domain.JobPosting, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := db.QueryContext(ctx, `
SELECT id, title, company, location, url, description, source, scraped_at
FROM job_postings
WHERE scraped_at >= ?
ORDER BY scraped_at DESC
LIMIT ?;`, fmtTime(since), limit)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	defer rows.Close()

	var out []domain.JobPosting
	for rows.Next() {
		var p domain.JobPosting
		var scrapedAt string
		if err := rows.Scan(&p.ID, &p.Title, &p.Company, &p.Location, &p.URL,
			&p.Description, &p.Source, &scrapedAt); err != nil {
			return nil, err
		}
		p.ScrapedAt = parseTime(scrapedAt)
		out = append(out, p)
	}
	return out, rows.Err()
}
