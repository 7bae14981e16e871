package quota

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/store"
)

func TestRemainingCountsOnlyToday(t *testing.T) {
	db, err := store.OpenMemory()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	yesterday := now.Add(-26 * time.Hour)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.InsertApplication(ctx, db, domain.Application{
			ID:          uuid.NewString(),
			CandidateID: "cand-1",
			JobID:       uuid.NewString(),
			Method:      domain.MethodDirectForm,
			Status:      domain.AppPending,
			CreatedAt:   now,
		}))
	}
	// Yesterday's row must not count against today's budget.
	require.NoError(t, store.InsertApplication(ctx, db, domain.Application{
		ID:          uuid.NewString(),
		CandidateID: "cand-1",
		JobID:       uuid.NewString(),
		Method:      domain.MethodDirectForm,
		Status:      domain.AppApplied,
		CreatedAt:   yesterday,
	}))
	// Another candidate's usage is invisible.
	require.NoError(t, store.InsertApplication(ctx, db, domain.Application{
		ID:          uuid.NewString(),
		CandidateID: "cand-2",
		JobID:       uuid.NewString(),
		Method:      domain.MethodDirectForm,
		Status:      domain.AppPending,
		CreatedAt:   now,
	}))

	got, err := Remaining(ctx, db, "cand-1", Applications, 50)
	require.NoError(t, err)
	require.Equal(t, 47, got)
}

func TestRemainingClampsAtZero(t *testing.T) {
	db, err := store.OpenMemory()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.InsertApplication(ctx, db, domain.Application{
			ID:          uuid.NewString(),
			CandidateID: "cand-1",
			JobID:       uuid.NewString(),
			Method:      domain.MethodDirectForm,
			Status:      domain.AppPending,
			CreatedAt:   now,
		}))
	}

	got, err := Remaining(ctx, db, "cand-1", Applications, 3)
	require.NoError(t, err)
	require.Equal(t, 0, got)
}

func TestRemainingOutreachWindow(t *testing.T) {
	db, err := store.OpenMemory()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.InsertMessage(ctx, db, domain.Message{
		ID:           uuid.NewString(),
		CandidateID:  "cand-1",
		RecruiterID:  "rec-1",
		Channel:      domain.ChannelEmail,
		Content:      "hello",
		ScheduledFor: now,
		Status:       domain.MsgPending,
		CreatedAt:    now,
	}))

	got, err := Remaining(ctx, db, "cand-1", Outreach, 20)
	require.NoError(t, err)
	require.Equal(t, 19, got)
}

func TestRemainingUnknownAction(t *testing.T) {
	db, err := store.OpenMemory()
	require.NoError(t, err)
	defer db.Close()

	_, err = Remaining(context.Background(), db, "cand-1", Action("bogus"), 10)
	require.Error(t, err)
}
