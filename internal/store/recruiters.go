package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"jobhunterx-engine/internal/domain"
)

func InsertRecruiter(ctx context.Context, db *sql.DB, r domain.Recruiter) error {
	roles, _ := json.Marshal(r.Roles)
	_, err := db.ExecContext(ctx, `
INSERT INTO recruiters (id, name, email, company, location, roles, response_rate, last_contacted, active)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		r.ID, r.Name, r.Email, r.Company, r.Location, string(roles),
		r.ResponseRate, fmtTimePtr(r.LastContacted), r.Active,
	)
	if err != nil {
		return fmt.Errorf("insert recruiter: %w", err)
	}
	return nil
}

// RecruiterFilters narrows the directory query; empty slices match anything.
type RecruiterFilters struct {
	Companies []string
	Locations []string
	Roles     []string
}

// FindRecruiters implements the directory lookup: active recruiters matching
// the filters, excluding anyone contacted within the recontact window.
// Role matching happens in Go because roles live in a JSON column.
func FindRecruiters(ctx context.Context, db *sql.DB, f RecruiterFilters, notContactedSince time.Time) ([]domain.Recruiter, error) {
	q := `
SELECT id, name, email, company, location, roles, response_rate, last_contacted, active
FROM recruiters
WHERE active = 1 AND (last_contacted IS NULL OR last_contacted < ?)`
	args := []any{fmtTime(notContactedSince)}

	if len(f.Companies) > 0 {
		q += ` AND company IN (?` + strings.Repeat(",?", len(f.Companies)-1) + `)`
		for _, c := range f.Companies {
			args = append(args, c)
		}
	}
	if len(f.Locations) > 0 {
		q += ` AND location IN (?` + strings.Repeat(",?", len(f.Locations)-1) + `)`
		for _, l := range f.Locations {
			args = append(args, l)
		}
	}
	q += ` LIMIT 100;`

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("find recruiters: %w", err)
	}
	defer rows.Close()

	var out []domain.Recruiter
	for rows.Next() {
		r, err := scanRecruiter(rows)
		if err != nil {
			return nil, err
		}
		if len(f.Roles) > 0 && !rolesOverlap(r.Roles, f.Roles) {
			continue
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func GetRecruiter(ctx context.Context, db *sql.DB, id string) (domain.Recruiter, error) {
	row := db.QueryRowContext(ctx, `
SELECT id, name, email, company, location, roles, response_rate, last_contacted, active
FROM recruiters WHERE id = ?;`, id)
	r, err := scanRecruiter(row)
	if err != nil {
		return r, fmt.Errorf("get recruiter %s: %w", id, err)
	}
	return r, nil
}

func GetRecruiterByEmail(ctx context.Context, db *sql.DB, email string) (domain.Recruiter, error) {
	row := db.QueryRowContext(ctx, `
SELECT id, name, email, company, location, roles, response_rate, last_contacted, active
FROM recruiters
WHERE lower(email) = lower(?) LIMIT 1;`, email)
	r, err := scanRecruiter(row)
	if err != nil {
		return r, err
	}
	return r, nil
}

// TouchRecruiterContacted stamps a successful send.
func TouchRecruiterContacted(ctx context.Context, db *sql.DB, id string, at time.Time) error {
	_, err := db.ExecContext(ctx, `
UPDATE recruiters SET last_contacted = ? WHERE id = ?;`, fmtTime(at), id)
	if err != nil {
		return fmt.Errorf("touch recruiter: %w", err)
	}
	return nil
}

func scanRecruiter(row interface{ Scan(...any) error }) (domain.Recruiter, error) {
	var r domain.Recruiter
	var roles string
	var lastContacted sql.NullString
	err := row.Scan(&r.ID, &r.Name, &r.Email, &r.Company, &r.Location,
		&roles, &r.ResponseRate, &lastContacted, &r.Active)
	if err != nil {
		return r, err
	}
	_ = json.Unmarshal([]byte(roles), &r.Roles)
	r.LastContacted = parseTimePtr(lastContacted)
	return r, nil
}

func rolesOverlap(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}
