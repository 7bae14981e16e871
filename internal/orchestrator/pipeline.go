package orchestrator

import (
	"context"
	"fmt"
	"time"

	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/quota"
	"jobhunterx-engine/internal/store"
	"jobhunterx-engine/internal/submit"
)

type pipelineResult struct {
	Matches      int
	Applications int
	Outreach     int
	Failed       bool
}

// runCandidate wraps the pipeline with panic recovery so one misbehaving
// collaborator cannot take the batch down.
func (o *Orchestrator) runCandidate(ctx context.Context, cand domain.Candidate, cycleID string) (res pipelineResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	return o.pipeline(ctx, cand, cycleID)
}

// pipeline runs the fixed per-candidate sequence: match, tailor, cover
// letters, apply, outreach, progress. Each step is bounded by the previous
// step's output; any error stops the pipeline here and is recorded by the
// caller.
func (o *Orchestrator) pipeline(ctx context.Context, cand domain.Candidate, cycleID string) (pipelineResult, error) {
	var res pipelineResult

	recent, err := store.RecentJobIDs(ctx, o.DB, cand.ID, time.Now().UTC().Add(-o.Cfg.ExcludeApplied))
	if err != nil {
		return res, fmt.Errorf("recent jobs: %w", err)
	}

	matches, err := o.Matcher.Find(ctx, cand.ID, recent, o.Cfg.MinScore, o.Cfg.MaxMatches)
	if err != nil {
		return res, fmt.Errorf("match: %w", err)
	}
	res.Matches = len(matches)
	if len(matches) == 0 {
		return res, o.writeProgress(ctx, cand, cycleID, res)
	}

	top := matches
	if len(top) > o.Cfg.TailorTop {
		top = top[:o.Cfg.TailorTop]
	}

	resumes := make(map[string]string, len(top))
	covers := make(map[string]string, len(top))
	for _, m := range top {
		rv, err := o.Tailor.Tailor(ctx, cand.ID, m.Job, "keyword_match")
		if err != nil {
			return res, fmt.Errorf("tailor %s: %w", m.Job.ID, err)
		}
		resumes[m.Job.ID] = rv
		cl, err := o.Cover.Generate(ctx, cand.ID, m.Job, o.Cfg.Tone)
		if err != nil {
			return res, fmt.Errorf("cover letter %s: %w", m.Job.ID, err)
		}
		covers[m.Job.ID] = cl
	}

	n, err := o.applyStep(ctx, cand, top, resumes, covers)
	if err != nil {
		return res, err
	}
	res.Applications = n

	n, err = o.outreachStep(ctx, cand, top)
	if err != nil {
		return res, err
	}
	res.Outreach = n

	return res, o.writeProgress(ctx, cand, cycleID, res)
}

// applyStep enqueues at most min(remaining daily quota, per-cycle cap)
// submissions, in match rank order. Matches missing artifacts are skipped
// without consuming a slot.
func (o *Orchestrator) applyStep(ctx context.Context, cand domain.Candidate, matches []domain.JobMatch, resumes, covers map[string]string) (int, error) {
	remaining, err := quota.Remaining(ctx, o.DB, cand.ID, quota.Applications, o.Cfg.DailyApplications)
	if err != nil {
		return 0, fmt.Errorf("application quota: %w", err)
	}
	limit := o.Cfg.MaxApplicationsPerCycle
	if remaining < limit {
		limit = remaining
	}

	queued := 0
	for _, m := range matches {
		if queued >= limit {
			break
		}
		rv, ok := resumes[m.Job.ID]
		if !ok {
			continue
		}
		cl, ok := covers[m.Job.ID]
		if !ok {
			continue
		}
		o.Queue.Enqueue(submit.Request{
			CandidateID:     cand.ID,
			Job:             m.Job,
			ResumeVersionID: rv,
			CoverLetterID:   cl,
			Method:          o.Cfg.DefaultMethod,
		})
		queued++
	}
	return queued, nil
}

// outreachStep sends at most min(remaining daily quota, per-cycle cap)
// direct messages toward the matched companies. A company with no eligible
// recruiter does not consume a slot.
func (o *Orchestrator) outreachStep(ctx context.Context, cand domain.Candidate, matches []domain.JobMatch) (int, error) {
	if o.Outreach == nil {
		return 0, nil
	}
	remaining, err := quota.Remaining(ctx, o.DB, cand.ID, quota.Outreach, o.Cfg.DailyOutreach)
	if err != nil {
		return 0, fmt.Errorf("outreach quota: %w", err)
	}
	limit := o.Cfg.MaxOutreachPerCycle
	if remaining < limit {
		limit = remaining
	}

	sent := 0
	seen := make(map[string]bool)
	for _, m := range matches {
		if sent >= limit {
			break
		}
		company := m.Job.Company
		if company == "" || seen[company] {
			continue
		}
		seen[company] = true
		ok, err := o.Outreach.SendDirect(ctx, cand.ID, company, o.Cfg.Tone)
		if err != nil {
			return sent, fmt.Errorf("outreach %s: %w", company, err)
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

func (o *Orchestrator) writeProgress(ctx context.Context, cand domain.Candidate, cycleID string, res pipelineResult) error {
	now := time.Now().UTC()
	p := domain.CandidateProgress{
		Matches:       cand.Progress.Matches + res.Matches,
		Applications:  cand.Progress.Applications + res.Applications,
		Outreach:      cand.Progress.Outreach + res.Outreach,
		LastProcessed: &now,
		CycleID:       cycleID,
	}
	if err := store.UpdateCandidateProgress(ctx, o.DB, cand.ID, p); err != nil {
		return fmt.Errorf("progress: %w", err)
	}
	return nil
}

// RunCandidate processes one candidate outside the cycle loop, with the same
// isolation semantics: pipeline errors are recorded on the candidate, not
// returned, and only bookkeeping failures surface.
func (o *Orchestrator) RunCandidate(ctx context.Context, candidateID string) (bool, error) {
	cand, err := store.GetCandidate(ctx, o.DB, candidateID)
	if err != nil {
		return false, err
	}
	res, perr := o.runCandidate(ctx, cand, "manual")
	if perr != nil {
		if rerr := store.RecordCandidateError(ctx, o.DB, cand.ID, perr); rerr != nil {
			return false, rerr
		}
		return false, nil
	}
	o.stats.addManual(res)
	return true, nil
}
