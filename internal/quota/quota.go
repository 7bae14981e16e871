// Package quota answers "how much of today's budget remains" for an
// actor+action pair. The count is recomputed from the store on every call;
// nothing is cached or reserved, so the result is advisory. Two overlapping
// readers can both see the same remainder and jointly overshoot a limit; at
// a single orchestrator instance on 5-minute cycles that slack is accepted.
package quota

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobhunterx-engine/internal/store"
)

type Action string

const (
	Applications Action = "applications"
	Outreach     Action = "outreach"
)

// StartOfDayUTC truncates to the current UTC day boundary.
func StartOfDayUTC(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Remaining returns max(0, dailyLimit - used) for the actor's action today.
// Read-only; callers should ask immediately before committing to new work.
func Remaining(ctx context.Context, db *sql.DB, actorID string, action Action, dailyLimit int) (int, error) {
	since := StartOfDayUTC(time.Now())

	var used int
	var err error
	switch action {
	case Applications:
		used, err = store.CountApplicationsSince(ctx, db, actorID, since)
	case Outreach:
		used, err = store.CountMessagesSince(ctx, db, actorID, since)
	default:
		return 0, fmt.Errorf("quota: unknown action %q", action)
	}
	if err != nil {
		return 0, err
	}

	if remaining := dailyLimit - used; remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}
