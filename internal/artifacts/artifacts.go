// Package artifacts produces the per-application documents: tailored resume
// versions and cover letters. Files land under <dir>/resumes and
// <dir>/cover_letters and are referenced by id from application rows.
package artifacts

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/store"
)

// Generator writes resume versions and cover letters to disk. It is the
// default backing for the tailoring and cover-letter collaborators.
type Generator struct {
	DB  *sql.DB
	Dir string
}

// Tailor emits a resume version emphasizing the keywords the posting shares
// with the candidate profile and returns its id.
func (g *Generator) Tailor(ctx context.Context, candidateID string, job domain.JobPosting, strategy string) (string, error) {
	cand, err := store.GetCandidate(ctx, g.DB, candidateID)
	if err != nil {
		return "", fmt.Errorf("load candidate: %w", err)
	}

	body := strings.ToLower(job.Title + " " + job.Description)
	var hits []string
	for _, kw := range cand.Keywords {
		k := strings.TrimSpace(kw)
		if k != "" && strings.Contains(body, strings.ToLower(k)) {
			hits = append(hits, k)
		}
	}

	id := uuid.NewString()
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n", cand.FullName, cand.Email)
	fmt.Fprintf(&b, "Target: %s at %s\n", job.Title, job.Company)
	fmt.Fprintf(&b, "Strategy: %s\n", strategy)
	if len(hits) > 0 {
		fmt.Fprintf(&b, "Highlighted skills: %s\n", strings.Join(hits, ", "))
	}
	fmt.Fprintf(&b, "Generated: %s\n", time.Now().UTC().Format(time.RFC3339))

	if err := g.write("resumes", id, b.String()); err != nil {
		return "", fmt.Errorf("write resume version: %w", err)
	}
	return id, nil
}

// Generate emits a cover letter in the requested tone and returns its id.
func (g *Generator) Generate(ctx context.Context, candidateID string, job domain.JobPosting, tone string) (string, error) {
	cand, err := store.GetCandidate(ctx, g.DB, candidateID)
	if err != nil {
		return "", fmt.Errorf("load candidate: %w", err)
	}

	opening := "I am writing to express my interest in"
	if tone == "warm" {
		opening = "I was excited to come across"
	}

	id := uuid.NewString()
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s hiring team,\n\n", job.Company)
	fmt.Fprintf(&b, "%s the %s role.", opening, job.Title)
	if len(cand.TargetRoles) > 0 {
		fmt.Fprintf(&b, " My background in %s aligns closely with what you are looking for.", strings.Join(cand.TargetRoles, " and "))
	}
	fmt.Fprintf(&b, "\n\nBest regards,\n%s\n%s\n", cand.FullName, cand.Email)

	if err := g.write("cover_letters", id, b.String()); err != nil {
		return "", fmt.Errorf("write cover letter: %w", err)
	}
	return id, nil
}

func (g *Generator) write(kind, id, content string) error {
	dir := filepath.Join(g.Dir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, id+".txt.tmp")
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, id+".txt"))
}
