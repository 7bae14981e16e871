// Package feedback runs the end-of-cycle performance analysis. It reads the
// day's counters and records an optimization log entry; housekeeping treats
// it as fire-and-forget.
package feedback

import (
	"context"
	"database/sql"
	"time"

	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/quota"
	"jobhunterx-engine/internal/store"
)

type Analyzer struct {
	DB *sql.DB
}

// AnalyzeDailyPerformance aggregates today's application and outreach volume
// across all automated candidates and appends an optimization record.
func (a *Analyzer) AnalyzeDailyPerformance(ctx context.Context) error {
	cands, err := store.ListAutomatedCandidates(ctx, a.DB)
	if err != nil {
		return err
	}

	since := quota.StartOfDayUTC(time.Now().UTC())
	var apps, msgs int
	for _, c := range cands {
		n, err := store.CountApplicationsSince(ctx, a.DB, c.ID, since)
		if err != nil {
			return err
		}
		apps += n
		n, err = store.CountMessagesSince(ctx, a.DB, c.ID, since)
		if err != nil {
			return err
		}
		msgs += n
	}

	return store.AppendLog(ctx, a.DB, domain.ActionOptimization, map[string]any{
		"candidates":         len(cands),
		"applications_today": apps,
		"outreach_today":     msgs,
		"window_start":       since.Format(time.RFC3339),
	})
}
