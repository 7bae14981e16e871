package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/events"
	"jobhunterx-engine/internal/store"
)

// RunCycle executes one full automation cycle. Candidate failures are
// recorded and isolated; an error return means the cycle machinery itself
// broke (store unreachable, fan-out bookkeeping failed) and the caller must
// treat it as fatal.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	cycleID := uuid.NewString()
	started := time.Now().UTC()
	log.Printf("[orchestrator] cycle %s starting", cycleID)

	if err := o.refreshScraping(ctx); err != nil {
		// Stale or failed scraping degrades match quality but never blocks
		// the cycle.
		log.Printf("[orchestrator] cycle %s: scraping refresh: %v", cycleID, err)
	}

	cands, err := store.ListAutomatedCandidates(ctx, o.DB)
	if err != nil {
		return fmt.Errorf("list candidates: %w", err)
	}

	var agg cycleStats
	for start := 0; start < len(cands); start += o.Cfg.BatchSize {
		end := start + o.Cfg.BatchSize
		if end > len(cands) {
			end = len(cands)
		}
		batch := cands[start:end]

		results := make([]pipelineResult, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, cand := range batch {
			g.Go(func() error {
				res, perr := o.runCandidate(gctx, cand, cycleID)
				if perr != nil {
					log.Printf("[orchestrator] candidate %s failed: %v", cand.ID, perr)
					if rerr := store.RecordCandidateError(gctx, o.DB, cand.ID, perr); rerr != nil {
						return fmt.Errorf("record candidate error: %w", rerr)
					}
					results[i] = pipelineResult{Failed: true}
					return nil
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("cycle %s batch: %w", cycleID, err)
		}
		// Results are folded in only after the whole batch has joined.
		for _, r := range results {
			agg.add(r)
		}
	}

	o.housekeep(cycleID)

	detail := map[string]any{
		"cycle_id":     cycleID,
		"candidates":   len(cands),
		"matches":      agg.Matches,
		"applications": agg.Applications,
		"outreach":     agg.Outreach,
		"errors":       agg.Errors,
		"duration_ms":  time.Since(started).Milliseconds(),
	}
	if err := store.AppendLog(ctx, o.DB, domain.ActionAutomationCycle, detail); err != nil {
		return fmt.Errorf("record cycle: %w", err)
	}

	o.stats.finishCycle(cycleID, started, agg)
	o.publish(events.TypeCycleComplete, detail)
	log.Printf("[orchestrator] cycle %s done: %d candidates, %d matches, %d applications, %d outreach, %d errors",
		cycleID, len(cands), agg.Matches, agg.Applications, agg.Outreach, agg.Errors)
	return nil
}

// refreshScraping re-scrapes when the last scraping run is older than the
// freshness window. One scrape per distinct keyword+location group so shared
// preferences are fetched once.
func (o *Orchestrator) refreshScraping(ctx context.Context) error {
	if o.Scraper == nil {
		return nil
	}
	last, err := store.LastLog(ctx, o.DB, domain.ActionJobScraping)
	if err != nil {
		return err
	}
	if last != nil && time.Since(last.CreatedAt) < o.Cfg.ScrapeFreshness {
		return nil
	}

	groups, err := store.PreferenceGroups(ctx, o.DB)
	if err != nil {
		return err
	}
	total := 0
	for _, g := range groups {
		n, err := o.Scraper.Scrape(ctx, g.Keywords, g.Location, o.Cfg.ScrapeMaxJobs)
		if err != nil {
			log.Printf("[orchestrator] scrape %v/%s: %v", g.Keywords, g.Location, err)
			continue
		}
		total += n
	}
	return store.AppendLog(ctx, o.DB, domain.ActionJobScraping, map[string]any{
		"groups":     len(groups),
		"jobs_added": total,
	})
}

func (o *Orchestrator) housekeep(cycleID string) {
	if o.Feedback != nil {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[orchestrator] feedback analyzer panic: %v", r)
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := o.Feedback.AnalyzeDailyPerformance(ctx); err != nil {
				log.Printf("[orchestrator] feedback analyzer: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cutoff := time.Now().UTC().Add(-o.Cfg.LogRetention)
	if n, err := store.CleanupOldLogs(ctx, o.DB, cutoff); err != nil {
		log.Printf("[orchestrator] cycle %s: log cleanup: %v", cycleID, err)
	} else if n > 0 {
		log.Printf("[orchestrator] cycle %s: pruned %d old log rows", cycleID, n)
	}
}
