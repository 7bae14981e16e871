package match

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/store"
)

// Scorer rates one posting against a candidate profile on a 0..1 scale.
type Scorer interface {
	Score(cand domain.Candidate, job domain.JobPosting) float64
}

// KeywordScorer is the default scorer: keyword overlap weighted by where it
// lands (title hits count double), plus role and location affinity.
type KeywordScorer struct{}

func (KeywordScorer) Score(cand domain.Candidate, job domain.JobPosting) float64 {
	title := strings.ToLower(job.Title)
	body := strings.ToLower(job.Description)

	var score, max float64
	for _, kw := range cand.Keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		max += 2
		if strings.Contains(title, k) {
			score += 2
		} else if strings.Contains(body, k) {
			score += 1
		}
	}

	max += 3
	for _, role := range cand.TargetRoles {
		r := strings.ToLower(strings.TrimSpace(role))
		if r != "" && strings.Contains(title, r) {
			score += 3
			break
		}
	}

	max += 1
	loc := strings.ToLower(cand.Location)
	jl := strings.ToLower(job.Location)
	if loc == "" || jl == "" || strings.Contains(jl, loc) || strings.Contains(jl, "remote") {
		score += 1
	}

	if max == 0 {
		return 0
	}
	return score / max
}

// StoreMatcher ranks recent postings from the local store. Matches are
// recomputed on every call rather than persisted; the posting window keeps
// the scan bounded.
type StoreMatcher struct {
	DB     *sql.DB
	Scorer Scorer
	// Window limits how far back postings are considered. Zero means 14 days.
	Window time.Duration
	// ScanLimit caps the number of postings scored per call. Zero means 500.
	ScanLimit int
}

func (m *StoreMatcher) Find(ctx context.Context, candidateID string, excludeJobIDs []string, minScore float64, maxMatches int) ([]domain.JobMatch, error) {
	cand, err := store.GetCandidate(ctx, m.DB, candidateID)
	if err != nil {
		return nil, err
	}

	window := m.Window
	if window <= 0 {
		window = 14 * 24 * time.Hour
	}
	limit := m.ScanLimit
	if limit <= 0 {
		limit = 500
	}
	postings, err := store.ListRecentPostings(ctx, m.DB, time.Now().UTC().Add(-window), limit)
	if err != nil {
		return nil, err
	}

	scorer := m.Scorer
	if scorer == nil {
		scorer = KeywordScorer{}
	}

	excluded := make(map[string]bool, len(excludeJobIDs))
	for _, id := range excludeJobIDs {
		excluded[id] = true
	}

	now := time.Now().UTC()
	var matches []domain.JobMatch
	for _, job := range postings {
		if excluded[job.ID] {
			continue
		}
		s := scorer.Score(cand, job)
		if s < minScore {
			continue
		}
		matches = append(matches, domain.JobMatch{
			ID:          uuid.NewString(),
			CandidateID: candidateID,
			JobID:       job.ID,
			Score:       s,
			Job:         job,
			CreatedAt:   now,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if maxMatches > 0 && len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches, nil
}
