package submit

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/store"
)

func testJob(id string) domain.JobPosting {
	return domain.JobPosting{ID: id, Title: "Platform Engineer", Company: "Acme", URL: "https://example.com/jobs/" + id}
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", d)
}

func TestQueueBoundsConcurrency(t *testing.T) {
	db, err := store.OpenMemory()
	require.NoError(t, err)
	defer db.Close()

	release := make(chan struct{})
	var mu sync.Mutex
	maxSeen := 0

	q := NewQueue(db, Strategies{}, 2, time.Millisecond)
	q.Strategies = Strategies{
		DirectForm: StrategyFunc(func(ctx context.Context, id string, req Request) Result {
			mu.Lock()
			if n := q.InFlight(); n > maxSeen {
				maxSeen = n
			}
			mu.Unlock()
			<-release
			return Result{Outcome: OutcomeSubmitted, AppliedAt: time.Now().UTC()}
		}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	for i := 0; i < 6; i++ {
		q.Enqueue(Request{CandidateID: "cand-1", Job: testJob("job-" + string(rune('a'+i))), Method: domain.MethodDirectForm})
	}

	waitFor(t, 2*time.Second, func() bool { return q.InFlight() == 2 })
	// Give the worker a chance to overshoot if it were going to.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 2, q.InFlight())

	close(release)
	waitFor(t, 5*time.Second, func() bool { return q.Stats().Submitted == 6 })

	mu.Lock()
	defer mu.Unlock()
	require.LessOrEqual(t, maxSeen, 2)
}

func TestQueueThrottlesStarts(t *testing.T) {
	db, err := store.OpenMemory()
	require.NoError(t, err)
	defer db.Close()

	const interval = 120 * time.Millisecond

	var mu sync.Mutex
	var starts []time.Time

	q := NewQueue(db, Strategies{}, 3, interval)
	q.Strategies = Strategies{
		DirectForm: StrategyFunc(func(ctx context.Context, id string, req Request) Result {
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
			return Result{Outcome: OutcomeSubmitted, AppliedAt: time.Now().UTC()}
		}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	for i := 0; i < 4; i++ {
		q.Enqueue(Request{CandidateID: "cand-1", Job: testJob("job-t"), Method: domain.MethodDirectForm})
	}

	waitFor(t, 5*time.Second, func() bool { return q.Stats().Submitted == 4 })

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, starts, 4)
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		require.GreaterOrEqual(t, gap, interval-20*time.Millisecond,
			"starts %d and %d only %s apart", i-1, i, gap)
	}
}

func TestQueueNotImplementedStaysPending(t *testing.T) {
	db, err := store.OpenMemory()
	require.NoError(t, err)
	defer db.Close()

	// linkedin_easy has no wired collaborator.
	q := NewQueue(db, Strategies{}, 3, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue(Request{CandidateID: "cand-1", Job: testJob("job-ni"), Method: domain.MethodLinkedInEasy})
	waitFor(t, 2*time.Second, func() bool { return q.Stats().Failed == 1 })

	var status, errMsg string
	var appliedAt sql.NullString
	err = db.QueryRow(`SELECT status, error_message, applied_at FROM applications WHERE candidate_id = 'cand-1'`).
		Scan(&status, &errMsg, &appliedAt)
	require.NoError(t, err)
	require.Equal(t, string(domain.AppPending), status)
	require.Contains(t, errMsg, "not implemented")
	require.False(t, appliedAt.Valid)
}

func TestQueueSuccessMarksApplied(t *testing.T) {
	db, err := store.OpenMemory()
	require.NoError(t, err)
	defer db.Close()

	q := NewQueue(db, Strategies{}, 3, time.Millisecond)
	q.Strategies = Strategies{
		DirectForm: StrategyFunc(func(ctx context.Context, id string, req Request) Result {
			return Result{
				Outcome:          OutcomeSubmitted,
				AppliedAt:        time.Now().UTC(),
				TrackingPixelURL: "http://127.0.0.1/pixel/" + id + ".gif",
				UTMParams:        map[string]string{"utm_source": "jobhunterx"},
			}
		}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue(Request{CandidateID: "cand-1", Job: testJob("job-ok"), Method: domain.MethodDirectForm})
	waitFor(t, 2*time.Second, func() bool { return q.Stats().Submitted == 1 })

	var status string
	var pixel string
	var appliedAt sql.NullString
	err = db.QueryRow(`SELECT status, tracking_pixel_url, applied_at FROM applications WHERE candidate_id = 'cand-1'`).
		Scan(&status, &pixel, &appliedAt)
	require.NoError(t, err)
	require.Equal(t, string(domain.AppApplied), status)
	require.Contains(t, pixel, "/pixel/")
	require.True(t, appliedAt.Valid)
}

func TestQueueRecoversFromStrategyPanic(t *testing.T) {
	db, err := store.OpenMemory()
	require.NoError(t, err)
	defer db.Close()

	q := NewQueue(db, Strategies{}, 3, time.Millisecond)
	q.Strategies = Strategies{
		DirectForm: StrategyFunc(func(ctx context.Context, id string, req Request) Result {
			panic("portal exploded")
		}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue(Request{CandidateID: "cand-1", Job: testJob("job-p"), Method: domain.MethodDirectForm})
	waitFor(t, 2*time.Second, func() bool { return q.Stats().Failed == 1 })

	var errMsg string
	err = db.QueryRow(`SELECT error_message FROM applications WHERE candidate_id = 'cand-1'`).Scan(&errMsg)
	require.NoError(t, err)
	require.Contains(t, errMsg, "panic")
}
