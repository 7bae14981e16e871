package outreach

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/store"
)

type fixedDirectory struct {
	recruiters []domain.Recruiter
}

func (d fixedDirectory) Find(ctx context.Context, f store.RecruiterFilters, notContactedSince time.Time) ([]domain.Recruiter, error) {
	return d.recruiters, nil
}

type stubComposer struct{}

func (stubComposer) Compose(ctx context.Context, r domain.Recruiter, candidateID, tone string, ch domain.Channel, seq int) (string, error) {
	return fmt.Sprintf("msg to %s seq %d", r.ID, seq), nil
}

type recordingSender struct {
	sent []string
	at   []time.Time
}

func (s *recordingSender) Send(ctx context.Context, r domain.Recruiter, content string) (string, error) {
	s.sent = append(s.sent, r.ID)
	s.at = append(s.at, time.Now())
	return "prov-" + uuid.NewString(), nil
}

func testScheduler(t *testing.T, dir Directory) (*Scheduler, *recordingSender) {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sender := &recordingSender{}
	s := NewScheduler(db, dir, Senders{LinkedIn: sender, Email: sender}, stubComposer{})
	s.DispatchGap = 0
	return s, sender
}

func seedRecruiters(t *testing.T, s *Scheduler, n int, rate float64) []domain.Recruiter {
	t.Helper()
	ctx := context.Background()
	out := make([]domain.Recruiter, 0, n)
	for i := 0; i < n; i++ {
		r := domain.Recruiter{
			ID:           fmt.Sprintf("rec-%d", i),
			Name:         fmt.Sprintf("Recruiter %d", i),
			Email:        fmt.Sprintf("r%d@example.com", i),
			Company:      "Acme",
			ResponseRate: rate,
			Active:       true,
		}
		require.NoError(t, store.InsertRecruiter(ctx, s.DB, r))
		out = append(out, r)
	}
	return out
}

func TestSchedulingDayCursorLayout(t *testing.T) {
	s, _ := testScheduler(t, fixedDirectory{})
	s.Directory = fixedDirectory{recruiters: seedRecruiters(t, s, 5, 0.9)}

	ctx := context.Background()
	id, err := s.CreateCampaign(ctx, domain.Campaign{
		CandidateID:          "cand-1",
		Name:                 "wave-1",
		DailyLimit:           2,
		DelayBetweenMessages: 300 * time.Second,
		Channels:             []domain.Channel{domain.ChannelLinkedIn},
	})
	require.NoError(t, err)
	require.NoError(t, s.StartCampaign(ctx, id))

	msgs, err := store.ListCampaignMessages(ctx, s.DB, id)
	require.NoError(t, err)
	require.Len(t, msgs, 5)

	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ScheduledFor.Before(msgs[j].ScheduledFor) })

	base := msgs[0].ScheduledFor
	const tol = 5 * time.Second
	wantOffsets := []time.Duration{
		0,
		300 * time.Second,
		24 * time.Hour,
		24*time.Hour + 300*time.Second,
		48 * time.Hour,
	}
	for i, want := range wantOffsets {
		got := msgs[i].ScheduledFor.Sub(base)
		require.InDelta(t, want.Seconds(), got.Seconds(), tol.Seconds(),
			"message %d scheduled %s after the first, want %s", i, got, want)
	}
}

func TestFindTargetsFiltersAndSorts(t *testing.T) {
	dir := fixedDirectory{recruiters: []domain.Recruiter{
		{ID: "low", ResponseRate: 0.1, Active: true},
		{ID: "mid", ResponseRate: 0.5, Active: true},
		{ID: "high", ResponseRate: 0.8, Active: true},
	}}
	s, _ := testScheduler(t, dir)

	got, err := s.findTargets(context.Background(), domain.Campaign{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "high", got[0].ID)
	require.Equal(t, "mid", got[1].ID)
}

func TestFindTargetsLeavesDirectorySliceIntact(t *testing.T) {
	shared := []domain.Recruiter{
		{ID: "low", ResponseRate: 0.1, Active: true},
		{ID: "mid", ResponseRate: 0.5, Active: true},
		{ID: "high", ResponseRate: 0.8, Active: true},
	}
	s, _ := testScheduler(t, fixedDirectory{recruiters: shared})

	_, err := s.findTargets(context.Background(), domain.Campaign{})
	require.NoError(t, err)

	// A directory serving a cached slice must get it back untouched.
	require.Equal(t, "low", shared[0].ID)
	require.Equal(t, "mid", shared[1].ID)
	require.Equal(t, "high", shared[2].ID)
}

func TestProcessDueSpacesDispatches(t *testing.T) {
	s, sender := testScheduler(t, fixedDirectory{})
	ctx := context.Background()
	recs := seedRecruiters(t, s, 2, 0.9)

	gap := 75 * time.Millisecond
	s.DispatchGap = gap

	now := time.Now().UTC()
	for i, r := range recs {
		m := domain.Message{
			ID:           uuid.NewString(),
			RecruiterID:  r.ID,
			CandidateID:  "cand-1",
			Channel:      domain.ChannelEmail,
			Content:      fmt.Sprintf("hello %d", i),
			ScheduledFor: now.Add(-time.Minute),
			Status:       domain.MsgPending,
			CreatedAt:    now.Add(-time.Minute),
		}
		require.NoError(t, store.InsertMessage(ctx, s.DB, m))
	}

	n, err := s.ProcessDue(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Len(t, sender.at, 2)

	// Timer granularity can undershoot slightly.
	spacing := sender.at[1].Sub(sender.at[0])
	require.GreaterOrEqual(t, spacing, gap-10*time.Millisecond,
		"second dispatch fired %s after the first, want at least %s", spacing, gap)
}

func TestFollowUpSweepExactlyOnce(t *testing.T) {
	s, _ := testScheduler(t, fixedDirectory{})
	ctx := context.Background()

	seedRecruiters(t, s, 1, 0.9)

	now := time.Now().UTC()
	campaign := domain.Campaign{
		ID:            uuid.NewString(),
		CandidateID:   "cand-1",
		Name:          "follow-ups",
		DailyLimit:    10,
		Status:        domain.CampaignActive,
		AutoFollowUp:  true,
		MaxFollowUps:  3,
		FollowUpDelay: 24 * time.Hour,
		CreatedAt:     now,
	}
	require.NoError(t, store.InsertCampaign(ctx, s.DB, campaign))

	parent := domain.Message{
		ID:           uuid.NewString(),
		CampaignID:   campaign.ID,
		RecruiterID:  "rec-0",
		CandidateID:  "cand-1",
		Channel:      domain.ChannelLinkedIn,
		Content:      "hello",
		ScheduledFor: now.Add(-26 * time.Hour),
		Status:       domain.MsgPending,
		CreatedAt:    now.Add(-26 * time.Hour),
	}
	require.NoError(t, store.InsertMessage(ctx, s.DB, parent))
	require.NoError(t, store.MarkMessageSent(ctx, s.DB, parent.ID, now.Add(-25*time.Hour), "prov-1"))

	created, err := s.ProcessFollowUps(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	// An immediate rerun must not double up.
	created, err = s.ProcessFollowUps(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, created)

	msgs, err := store.ListCampaignMessages(ctx, s.DB, campaign.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	var child *domain.Message
	for i := range msgs {
		if msgs[i].ParentMessageID == parent.ID {
			child = &msgs[i]
		}
	}
	require.NotNil(t, child)
	require.Equal(t, 1, child.FollowUpSequence)
	require.Equal(t, domain.MsgPending, child.Status)
	require.WithinDuration(t, now.Add(s.FollowUpLeadTime), child.ScheduledFor, time.Minute)
}

func TestFollowUpStopsAfterReply(t *testing.T) {
	s, _ := testScheduler(t, fixedDirectory{})
	ctx := context.Background()
	seedRecruiters(t, s, 1, 0.9)

	now := time.Now().UTC()
	campaign := domain.Campaign{
		ID:            uuid.NewString(),
		CandidateID:   "cand-1",
		DailyLimit:    10,
		Status:        domain.CampaignActive,
		AutoFollowUp:  true,
		MaxFollowUps:  3,
		FollowUpDelay: 24 * time.Hour,
		CreatedAt:     now,
	}
	require.NoError(t, store.InsertCampaign(ctx, s.DB, campaign))

	parent := domain.Message{
		ID:           uuid.NewString(),
		CampaignID:   campaign.ID,
		RecruiterID:  "rec-0",
		CandidateID:  "cand-1",
		Channel:      domain.ChannelEmail,
		Content:      "hello",
		ScheduledFor: now.Add(-26 * time.Hour),
		Status:       domain.MsgPending,
		CreatedAt:    now.Add(-26 * time.Hour),
	}
	require.NoError(t, store.InsertMessage(ctx, s.DB, parent))
	require.NoError(t, store.MarkMessageSent(ctx, s.DB, parent.ID, now.Add(-25*time.Hour), "prov-1"))
	require.NoError(t, store.MarkMessageReplied(ctx, s.DB, parent.ID, now.Add(-time.Hour)))

	created, err := s.ProcessFollowUps(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, created)
}

func TestProcessDueDispatchesAndStamps(t *testing.T) {
	s, sender := testScheduler(t, fixedDirectory{})
	ctx := context.Background()
	recs := seedRecruiters(t, s, 1, 0.9)

	now := time.Now().UTC()
	m := domain.Message{
		ID:           uuid.NewString(),
		RecruiterID:  recs[0].ID,
		CandidateID:  "cand-1",
		Channel:      domain.ChannelEmail,
		Content:      "hello",
		ScheduledFor: now.Add(-time.Minute),
		Status:       domain.MsgPending,
		CreatedAt:    now.Add(-time.Minute),
	}
	require.NoError(t, store.InsertMessage(ctx, s.DB, m))

	n, err := s.ProcessDue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []string{recs[0].ID}, sender.sent)

	got, err := store.LatestSentToRecruiter(ctx, s.DB, recs[0].ID)
	require.NoError(t, err)
	require.Equal(t, m.ID, got.ID)
	require.NotNil(t, got.SentAt)

	rec, err := store.GetRecruiter(ctx, s.DB, recs[0].ID)
	require.NoError(t, err)
	require.NotNil(t, rec.LastContacted)
}

func TestSendDirectPicksBestRecruiter(t *testing.T) {
	dir := fixedDirectory{recruiters: []domain.Recruiter{
		{ID: "ok", Email: "ok@example.com", Company: "Acme", ResponseRate: 0.4, Active: true},
		{ID: "best", Email: "best@example.com", Company: "Acme", ResponseRate: 0.9, Active: true},
		{ID: "below", Email: "below@example.com", Company: "Acme", ResponseRate: 0.1, Active: true},
	}}
	s, sender := testScheduler(t, dir)
	ctx := context.Background()
	for _, r := range dir.recruiters {
		require.NoError(t, store.InsertRecruiter(ctx, s.DB, r))
	}

	ok, err := s.SendDirect(ctx, "cand-1", "Acme", "professional")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"best"}, sender.sent)
}

func TestSendDirectSkipsWhenNoneEligible(t *testing.T) {
	dir := fixedDirectory{recruiters: []domain.Recruiter{
		{ID: "below", ResponseRate: 0.1, Active: true},
	}}
	s, sender := testScheduler(t, dir)

	ok, err := s.SendDirect(context.Background(), "cand-1", "Acme", "professional")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, sender.sent)
}
