package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/store"
	"jobhunterx-engine/internal/submit"
)

type matcherFunc func(ctx context.Context, candidateID string, exclude []string, minScore float64, maxMatches int) ([]domain.JobMatch, error)

func (f matcherFunc) Find(ctx context.Context, candidateID string, exclude []string, minScore float64, maxMatches int) ([]domain.JobMatch, error) {
	return f(ctx, candidateID, exclude, minScore, maxMatches)
}

type stubTailor struct{}

func (stubTailor) Tailor(ctx context.Context, candidateID string, job domain.JobPosting, strategy string) (string, error) {
	return "resume-" + job.ID, nil
}

type stubCover struct{}

func (stubCover) Generate(ctx context.Context, candidateID string, job domain.JobPosting, tone string) (string, error) {
	return "cover-" + job.ID, nil
}

func seedCandidates(t *testing.T, o *Orchestrator, n int) []domain.Candidate {
	t.Helper()
	ctx := context.Background()
	out := make([]domain.Candidate, 0, n)
	for i := 0; i < n; i++ {
		c := domain.Candidate{
			ID:                fmt.Sprintf("cand-%d", i),
			FullName:          fmt.Sprintf("Candidate %d", i),
			Email:             fmt.Sprintf("c%d@example.com", i),
			Active:            true,
			AutomationEnabled: true,
			CreatedAt:         time.Now().UTC(),
		}
		require.NoError(t, store.InsertCandidate(ctx, o.DB, c))
		out = append(out, c)
	}
	return out
}

func newTestOrchestrator(t *testing.T, m Matcher) *Orchestrator {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	queue := submit.NewQueue(db, submit.Strategies{}, 3, time.Millisecond)
	return New(db, Config{}, m, stubTailor{}, stubCover{}, nil, nil, queue, nil)
}

func matchesFor(jobs ...domain.JobPosting) []domain.JobMatch {
	out := make([]domain.JobMatch, 0, len(jobs))
	for i, j := range jobs {
		out = append(out, domain.JobMatch{
			ID:          fmt.Sprintf("m-%d", i),
			JobID:       j.ID,
			Score:       0.9 - float64(i)*0.01,
			Job:         j,
			CreatedAt:   time.Now().UTC(),
			CandidateID: "cand-0",
		})
	}
	return out
}

func TestCycleIsolatesCandidateFailure(t *testing.T) {
	failing := "cand-1"
	o := newTestOrchestrator(t, matcherFunc(func(ctx context.Context, candidateID string, _ []string, _ float64, _ int) ([]domain.JobMatch, error) {
		if candidateID == failing {
			return nil, errors.New("matcher backend down")
		}
		return nil, nil
	}))
	cands := seedCandidates(t, o, 3)

	require.NoError(t, o.RunCycle(context.Background()))

	ctx := context.Background()
	for _, c := range cands {
		got, err := store.GetCandidate(ctx, o.DB, c.ID)
		require.NoError(t, err)
		if c.ID == failing {
			require.Equal(t, 1, got.Errors.Count)
			require.Contains(t, got.Errors.LastError, "matcher backend down")
			require.Nil(t, got.Progress.LastProcessed, "failed candidate must not get a progress stamp")
		} else {
			require.NotNil(t, got.Progress.LastProcessed, "healthy candidate %s should complete", c.ID)
			require.NotEmpty(t, got.Progress.CycleID)
		}
	}

	st := o.Status()
	require.EqualValues(t, 1, st.CyclesCompleted)
	require.EqualValues(t, 1, st.CandidateErrors)
}

func TestCycleIsolatesCandidatePanic(t *testing.T) {
	o := newTestOrchestrator(t, matcherFunc(func(ctx context.Context, candidateID string, _ []string, _ float64, _ int) ([]domain.JobMatch, error) {
		if candidateID == "cand-0" {
			panic("matcher lost its mind")
		}
		return nil, nil
	}))
	seedCandidates(t, o, 2)

	require.NoError(t, o.RunCycle(context.Background()))

	got, err := store.GetCandidate(context.Background(), o.DB, "cand-0")
	require.NoError(t, err)
	require.Equal(t, 1, got.Errors.Count)
	require.Contains(t, got.Errors.LastError, "panic")
}

func TestPipelineAppliesPerCycleCap(t *testing.T) {
	jobs := []domain.JobPosting{
		{ID: "job-a", Title: "Engineer", Company: "A", URL: "https://a.example/j"},
		{ID: "job-b", Title: "Engineer", Company: "B", URL: "https://b.example/j"},
		{ID: "job-c", Title: "Engineer", Company: "C", URL: "https://c.example/j"},
	}
	o := newTestOrchestrator(t, matcherFunc(func(context.Context, string, []string, float64, int) ([]domain.JobMatch, error) {
		return matchesFor(jobs...), nil
	}))
	seedCandidates(t, o, 1)

	// Queue is not running, so enqueued work stays visible in the backlog.
	require.NoError(t, o.RunCycle(context.Background()))
	require.Equal(t, 2, o.Queue.Depth(), "exactly min(remaining, 2) applications this cycle")

	got, err := store.GetCandidate(context.Background(), o.DB, "cand-0")
	require.NoError(t, err)
	require.Equal(t, 3, got.Progress.Matches)
	require.Equal(t, 2, got.Progress.Applications)
}

func TestPipelineRespectsDailyQuota(t *testing.T) {
	jobs := []domain.JobPosting{
		{ID: "job-a", Title: "Engineer", Company: "A", URL: "https://a.example/j"},
		{ID: "job-b", Title: "Engineer", Company: "B", URL: "https://b.example/j"},
	}
	o := newTestOrchestrator(t, matcherFunc(func(context.Context, string, []string, float64, int) ([]domain.JobMatch, error) {
		return matchesFor(jobs...), nil
	}))
	seedCandidates(t, o, 1)

	// Burn today's budget down to one remaining slot.
	ctx := context.Background()
	cfg := o.Cfg
	for i := 0; i < cfg.DailyApplications-1; i++ {
		require.NoError(t, store.InsertApplication(ctx, o.DB, domain.Application{
			ID:          fmt.Sprintf("app-%d", i),
			CandidateID: "cand-0",
			JobID:       fmt.Sprintf("old-%d", i),
			Method:      domain.MethodDirectForm,
			Status:      domain.AppApplied,
			CreatedAt:   time.Now().UTC(),
		}))
	}

	require.NoError(t, o.RunCycle(ctx))
	require.Equal(t, 1, o.Queue.Depth(), "min(remaining=1, cap=2) is 1")
}

func TestNoMatchesIsNotAnError(t *testing.T) {
	o := newTestOrchestrator(t, matcherFunc(func(context.Context, string, []string, float64, int) ([]domain.JobMatch, error) {
		return nil, nil
	}))
	seedCandidates(t, o, 1)

	require.NoError(t, o.RunCycle(context.Background()))

	got, err := store.GetCandidate(context.Background(), o.DB, "cand-0")
	require.NoError(t, err)
	require.Zero(t, got.Errors.Count)
	require.NotNil(t, got.Progress.LastProcessed)
	require.Zero(t, o.Queue.Depth())
}

func TestStartStopLifecycle(t *testing.T) {
	o := newTestOrchestrator(t, matcherFunc(func(context.Context, string, []string, float64, int) ([]domain.JobMatch, error) {
		return nil, nil
	}))

	require.False(t, o.IsRunning())
	require.NoError(t, o.Start())
	require.True(t, o.IsRunning())
	require.ErrorIs(t, o.Start(), ErrAlreadyRunning)

	o.Stop()
	require.False(t, o.IsRunning())
	// Stopping twice is a no-op.
	o.Stop()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestCycleMachineryFailureStopsSystem(t *testing.T) {
	o := newTestOrchestrator(t, matcherFunc(func(context.Context, string, []string, float64, int) ([]domain.JobMatch, error) {
		return nil, nil
	}))

	// Breaking the candidate listing fails the cycle machinery itself, not a
	// single candidate's pipeline.
	ctx := context.Background()
	_, err := o.DB.ExecContext(ctx, `DROP TABLE candidates;`)
	require.NoError(t, err)

	require.NoError(t, o.Start())
	waitFor(t, func() bool { return !o.IsRunning() })

	last, err := store.LastLog(ctx, o.DB, domain.ActionCriticalError)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, "stopped", last.Detail["system_status"])
	require.Contains(t, last.Detail["error"].(string), "list candidates")

	// No automatic restart: nothing relaunches the loop on its own.
	time.Sleep(50 * time.Millisecond)
	require.False(t, o.IsRunning())
	require.Zero(t, o.Status().CyclesCompleted)
}

func TestCycleRecordsLogEntry(t *testing.T) {
	o := newTestOrchestrator(t, matcherFunc(func(context.Context, string, []string, float64, int) ([]domain.JobMatch, error) {
		return nil, nil
	}))
	seedCandidates(t, o, 1)

	require.NoError(t, o.RunCycle(context.Background()))

	last, err := store.LastLog(context.Background(), o.DB, domain.ActionAutomationCycle)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.EqualValues(t, 1, int(last.Detail["candidates"].(float64)))
}
