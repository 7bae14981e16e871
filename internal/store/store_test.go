package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jobhunterx-engine/internal/domain"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestInsertPostingIgnoreDedupes(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	p := PostingInsert{
		ID:       "p1",
		Title:    "Backend Engineer",
		Company:  "Acme",
		URL:      "https://acme.example/jobs/1",
		Source:   "greenhouse",
		SourceID: "greenhouse:acme:1",
	}
	added, err := InsertPostingIgnore(ctx, db, p)
	require.NoError(t, err)
	require.True(t, added)

	// Same source identity under a different row ID is a duplicate.
	p.ID = "p2"
	added, err = InsertPostingIgnore(ctx, db, p)
	require.NoError(t, err)
	require.False(t, added)

	got, err := ListRecentPostings(ctx, db, time.Now().UTC().Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "p1", got[0].ID)
}

func TestCandidateRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	want := domain.Candidate{
		ID:                "c1",
		FullName:          "Dana Smith",
		Email:             "dana@example.com",
		Location:          "Berlin",
		Keywords:          []string{"go", "sql"},
		TargetRoles:       []string{"backend engineer"},
		Active:            true,
		AutomationEnabled: true,
	}
	require.NoError(t, InsertCandidate(ctx, db, want))

	got, err := GetCandidate(ctx, db, "c1")
	require.NoError(t, err)
	require.Equal(t, want.FullName, got.FullName)
	require.Equal(t, want.Keywords, got.Keywords)
	require.Equal(t, want.TargetRoles, got.TargetRoles)
	require.True(t, got.AutomationEnabled)
	require.Zero(t, got.Errors.Count)
	require.Nil(t, got.Progress.LastProcessed)
}

func TestRecordCandidateErrorAccumulates(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, InsertCandidate(ctx, db, domain.Candidate{ID: "c1", FullName: "X", Email: "x@example.com", Active: true, AutomationEnabled: true}))

	require.NoError(t, RecordCandidateError(ctx, db, "c1", errors.New("first")))
	require.NoError(t, RecordCandidateError(ctx, db, "c1", errors.New("second")))

	got, err := GetCandidate(ctx, db, "c1")
	require.NoError(t, err)
	require.Equal(t, 2, got.Errors.Count)
	require.Equal(t, "second", got.Errors.LastError)
	require.NotNil(t, got.Errors.LastTime)
}

func TestListAutomatedCandidatesFilters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, InsertCandidate(ctx, db, domain.Candidate{ID: "on", FullName: "A", Email: "a@e.com", Active: true, AutomationEnabled: true}))
	require.NoError(t, InsertCandidate(ctx, db, domain.Candidate{ID: "manual", FullName: "B", Email: "b@e.com", Active: true, AutomationEnabled: false}))
	require.NoError(t, InsertCandidate(ctx, db, domain.Candidate{ID: "inactive", FullName: "C", Email: "c@e.com", Active: false, AutomationEnabled: true}))

	got, err := ListAutomatedCandidates(ctx, db)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "on", got[0].ID)
}

func TestLogRoundTripAndCleanup(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, AppendLog(ctx, db, domain.ActionJobScraping, map[string]any{"jobs_added": 7}))

	last, err := LastLog(ctx, db, domain.ActionJobScraping)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.EqualValues(t, 7, last.Detail["jobs_added"])

	// Nothing is old enough to prune yet.
	n, err := CleanupOldLogs(ctx, db, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = CleanupOldLogs(ctx, db, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	last, err = LastLog(ctx, db, domain.ActionJobScraping)
	require.NoError(t, err)
	require.Nil(t, last)
}

func TestRecentJobIDsWindow(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	apps := []domain.Application{
		{ID: "a1", CandidateID: "c1", JobID: "j1", Method: domain.MethodDirectForm, Status: domain.AppApplied, CreatedAt: now.Add(-time.Hour)},
		{ID: "a2", CandidateID: "c1", JobID: "j2", Method: domain.MethodDirectForm, Status: domain.AppApplied, CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: "a3", CandidateID: "c2", JobID: "j3", Method: domain.MethodDirectForm, Status: domain.AppApplied, CreatedAt: now.Add(-time.Hour)},
	}
	for _, a := range apps {
		require.NoError(t, InsertApplication(ctx, db, a))
	}

	got, err := RecentJobIDs(ctx, db, "c1", now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, []string{"j1"}, got)
}
