package outreach

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/events"
	"jobhunterx-engine/internal/store"
)

// Directory resolves target recruiters for a campaign. The stock
// implementation is store-backed; tests substitute their own.
type Directory interface {
	Find(ctx context.Context, f store.RecruiterFilters, notContactedSince time.Time) ([]domain.Recruiter, error)
}

// Sender delivers one message over one channel. External collaborator.
type Sender interface {
	Send(ctx context.Context, r domain.Recruiter, content string) (providerMessageID string, err error)
}

// Composer produces message text. followUpSequence is 0 for an initial
// message, >0 for follow-ups.
type Composer interface {
	Compose(ctx context.Context, r domain.Recruiter, candidateID, tone string, ch domain.Channel, followUpSequence int) (string, error)
}

// Senders is the closed channel set; a nil slot means the channel has no
// wired collaborator and sends over it fail with a recorded error.
type Senders struct {
	LinkedIn Sender
	Email    Sender
}

var errNoSender = errors.New("no sender wired for channel")

func (s Senders) forChannel(ch domain.Channel) (Sender, error) {
	switch ch {
	case domain.ChannelLinkedIn:
		if s.LinkedIn == nil {
			return nil, fmt.Errorf("%w: %s", errNoSender, ch)
		}
		return s.LinkedIn, nil
	case domain.ChannelEmail:
		if s.Email == nil {
			return nil, fmt.Errorf("%w: %s", errNoSender, ch)
		}
		return s.Email, nil
	default:
		return nil, fmt.Errorf("unsupported channel %q", ch)
	}
}

// Scheduler owns the three outreach duties: initial scheduling when a
// campaign starts, the due-message dispatch sweep, and the follow-up sweep.
type Scheduler struct {
	DB        *sql.DB
	Directory Directory
	Senders   Senders
	Composer  Composer
	Hub       *events.Hub // optional

	// MinResponseRate and RecontactWindow shape recruiter targeting.
	MinResponseRate float64
	RecontactWindow time.Duration

	// DispatchGap spaces consecutive dispatches within one sweep.
	DispatchGap time.Duration

	// FollowUpLeadTime is how far in the future a generated follow-up is
	// scheduled.
	FollowUpLeadTime time.Duration
}

func NewScheduler(db *sql.DB, dir Directory, senders Senders, composer Composer) *Scheduler {
	return &Scheduler{
		DB:               db,
		Directory:        dir,
		Senders:          senders,
		Composer:         composer,
		MinResponseRate:  0.3,
		RecontactWindow:  30 * 24 * time.Hour,
		DispatchGap:      time.Second,
		FollowUpLeadTime: 5 * time.Minute,
	}
}

// CreateCampaign persists a draft campaign and returns its id.
func (s *Scheduler) CreateCampaign(ctx context.Context, c domain.Campaign) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = domain.CampaignDraft
	}
	if c.DailyLimit <= 0 {
		c.DailyLimit = 10
	}
	if c.DelayBetweenMessages <= 0 {
		c.DelayBetweenMessages = 5 * time.Minute
	}
	if c.MaxFollowUps <= 0 {
		c.MaxFollowUps = 3
	}
	if c.FollowUpDelay <= 0 {
		c.FollowUpDelay = 24 * time.Hour
	}
	if len(c.Channels) == 0 {
		c.Channels = []domain.Channel{domain.ChannelLinkedIn}
	}
	if err := store.InsertCampaign(ctx, s.DB, c); err != nil {
		return "", err
	}
	log.Printf("[outreach] created campaign id=%s candidate=%s", c.ID, c.CandidateID)
	return c.ID, nil
}

// StartCampaign activates the campaign, resolves targets and schedules the
// initial message wave.
func (s *Scheduler) StartCampaign(ctx context.Context, id string) error {
	c, err := store.GetCampaign(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if err := store.MarkCampaignStarted(ctx, s.DB, id); err != nil {
		return err
	}
	c.Status = domain.CampaignActive

	recruiters, err := s.findTargets(ctx, c)
	if err != nil {
		return fmt.Errorf("campaign %s targets: %w", id, err)
	}
	if len(recruiters) == 0 {
		// Not an error: the campaign just has nothing to do yet.
		log.Printf("[outreach] campaign %s: no eligible recruiters", id)
		return nil
	}

	n, err := s.scheduleMessages(ctx, c, recruiters)
	if err != nil {
		return err
	}
	log.Printf("[outreach] campaign %s: scheduled %d messages to %d recruiters", id, n, len(recruiters))
	s.publish(events.TypeCampaignStarted, map[string]any{"campaign_id": id, "scheduled": n})
	return nil
}

// findTargets applies the recontact exclusion and response-rate floor, then
// orders best-first.
func (s *Scheduler) findTargets(ctx context.Context, c domain.Campaign) ([]domain.Recruiter, error) {
	cutoff := time.Now().UTC().Add(-s.RecontactWindow)
	found, err := s.Directory.Find(ctx, store.RecruiterFilters{
		Companies: c.TargetCompanies,
		Locations: c.TargetLocations,
		Roles:     c.TargetRoles,
	}, cutoff)
	if err != nil {
		return nil, err
	}

	// Fresh slice: the directory may be serving a shared or cached result.
	keep := make([]domain.Recruiter, 0, len(found))
	for _, r := range found {
		if r.ResponseRate >= s.MinResponseRate {
			keep = append(keep, r)
		}
	}
	sort.SliceStable(keep, func(i, j int) bool {
		return keep[i].ResponseRate > keep[j].ResponseRate
	})
	return keep, nil
}

// scheduleMessages walks the recruiter list assigning send slots: index
// within the day times delay_between_messages, rolling the day cursor
// forward and resetting the index whenever daily_limit fills up.
func (s *Scheduler) scheduleMessages(ctx context.Context, c domain.Campaign, recruiters []domain.Recruiter) (int, error) {
	dayCursor := time.Now().UTC()
	idx := 0
	total := 0

	for _, r := range recruiters {
		for _, ch := range c.Channels {
			if idx >= c.DailyLimit {
				dayCursor = dayCursor.AddDate(0, 0, 1)
				idx = 0
			}

			content, err := s.Composer.Compose(ctx, r, c.CandidateID, c.Tone, ch, 0)
			if err != nil {
				// One bad composition should not sink the whole wave.
				log.Printf("[outreach] compose for recruiter %s: %v", r.ID, err)
				continue
			}

			m := domain.Message{
				ID:           uuid.NewString(),
				CampaignID:   c.ID,
				RecruiterID:  r.ID,
				CandidateID:  c.CandidateID,
				Channel:      ch,
				Content:      content,
				Tone:         c.Tone,
				ScheduledFor: dayCursor.Add(time.Duration(idx) * c.DelayBetweenMessages),
				Status:       domain.MsgPending,
				CreatedAt:    time.Now().UTC(),
			}
			if err := store.InsertMessage(ctx, s.DB, m); err != nil {
				return total, err
			}
			idx++
			total++
		}
	}
	return total, nil
}

// SendDirect is the one-shot, campaign-less send the candidate pipeline
// uses: pick the best eligible recruiter at a company and dispatch now.
// Returns false when no recruiter qualifies (a skip, not an error).
func (s *Scheduler) SendDirect(ctx context.Context, candidateID, company, tone string) (bool, error) {
	cutoff := time.Now().UTC().Add(-s.RecontactWindow)
	found, err := s.Directory.Find(ctx, store.RecruiterFilters{Companies: []string{company}}, cutoff)
	if err != nil {
		return false, err
	}

	var best *domain.Recruiter
	for i := range found {
		r := found[i]
		if r.ResponseRate < s.MinResponseRate {
			continue
		}
		if best == nil || r.ResponseRate > best.ResponseRate {
			best = &r
		}
	}
	if best == nil {
		return false, nil
	}

	ch := domain.ChannelLinkedIn
	if best.Email != "" {
		ch = domain.ChannelEmail
	}

	content, err := s.Composer.Compose(ctx, *best, candidateID, tone, ch, 0)
	if err != nil {
		return false, err
	}

	m := domain.Message{
		ID:           uuid.NewString(),
		RecruiterID:  best.ID,
		CandidateID:  candidateID,
		Channel:      ch,
		Content:      content,
		Tone:         tone,
		ScheduledFor: time.Now().UTC(),
		Status:       domain.MsgPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.InsertMessage(ctx, s.DB, m); err != nil {
		return false, err
	}

	s.dispatch(ctx, m, *best)
	return true, nil
}

func (s *Scheduler) publish(typ string, data any) {
	if s.Hub == nil {
		return
	}
	s.Hub.Publish(events.MakeEvent("", typ, 1, data))
}
