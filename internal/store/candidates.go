package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"jobhunterx-engine/internal/domain"
)

const candidateCols = `id, full_name, email, location, keywords, target_roles,
active, automation_enabled, matches, applications, outreach,
last_processed, cycle_id, error_count, last_error, last_error_time, created_at`

func scanCandidate(row interface{ Scan(...any) error }) (domain.Candidate, error) {
	var c domain.Candidate
	var keywords, roles, createdAt string
	var lastProcessed, lastErrTime sql.NullString
	err := row.Scan(
		&c.ID, &c.FullName, &c.Email, &c.Location, &keywords, &roles,
		&c.Active, &c.AutomationEnabled,
		&c.Progress.Matches, &c.Progress.Applications, &c.Progress.Outreach,
		&lastProcessed, &c.Progress.CycleID,
		&c.Errors.Count, &c.Errors.LastError, &lastErrTime,
		&createdAt,
	)
	if err != nil {
		return c, err
	}
	_ = json.Unmarshal([]byte(keywords), &c.Keywords)
	_ = json.Unmarshal([]byte(roles), &c.TargetRoles)
	c.Progress.LastProcessed = parseTimePtr(lastProcessed)
	c.Errors.LastTime = parseTimePtr(lastErrTime)
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

func InsertCandidate(ctx context.Context, db *sql.DB, c domain.Candidate) error {
	keywords, _ := json.Marshal(c.Keywords)
	roles, _ := json.Marshal(c.TargetRoles)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO candidates (id, full_name, email, location, keywords, target_roles,
  active, automation_enabled, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		c.ID, c.FullName, c.Email, c.Location, string(keywords), string(roles),
		c.Active, c.AutomationEnabled, fmtTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert candidate: %w", err)
	}
	return nil
}

func GetCandidate(ctx context.Context, db *sql.DB, id string) (domain.Candidate, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+candidateCols+` FROM candidates WHERE id = ?;`, id)
	c, err := scanCandidate(row)
	if err != nil {
		return c, fmt.Errorf("get candidate %s: %w", id, err)
	}
	return c, nil
}

// ListAutomatedCandidates returns candidates the orchestrator fans out over.
func ListAutomatedCandidates(ctx context.Context, db *sql.DB) ([]domain.Candidate, error) {
	rows, err := db.QueryContext(ctx, `
SELECT `+candidateCols+`
FROM candidates
WHERE active = 1 AND automation_enabled = 1
ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PreferenceGroups dedupes (keywords, location) across automated candidates
// so one scraping request covers everyone sharing a preference.
func PreferenceGroups(ctx context.Context, db *sql.DB) ([]domain.PreferenceGroup, error) {
	cands, err := ListAutomatedCandidates(ctx, db)
	if err != nil {
		return nil, err
	}

	seen := map[string]domain.PreferenceGroup{}
	for _, c := range cands {
		kw := append([]string(nil), c.Keywords...)
		sort.Strings(kw)
		key := strings.ToLower(strings.Join(kw, ",") + "|" + c.Location)
		if _, ok := seen[key]; !ok {
			seen[key] = domain.PreferenceGroup{Keywords: kw, Location: c.Location}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.PreferenceGroup, 0, len(keys))
	for _, k := range keys {
		out = append(out, seen[k])
	}
	return out, nil
}

// UpdateCandidateProgress writes the per-cycle snapshot.
func UpdateCandidateProgress(ctx context.Context, db *sql.DB, id string, p domain.CandidateProgress) error {
	_, err := db.ExecContext(ctx, `
UPDATE candidates
SET matches = ?, applications = ?, outreach = ?, last_processed = ?, cycle_id = ?
WHERE id = ?;`,
		p.Matches, p.Applications, p.Outreach, fmtTimePtr(p.LastProcessed), p.CycleID, id,
	)
	if err != nil {
		return fmt.Errorf("update candidate progress: %w", err)
	}
	return nil
}

// RecordCandidateError bumps the error counter and stamps the failure.
func RecordCandidateError(ctx context.Context, db *sql.DB, id string, cause error) error {
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, `
UPDATE candidates
SET error_count = error_count + 1, last_error = ?, last_error_time = ?
WHERE id = ?;`,
		cause.Error(), fmtTime(now), id,
	)
	if err != nil {
		return fmt.Errorf("record candidate error: %w", err)
	}
	return nil
}
