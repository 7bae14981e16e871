package outreach

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/events"
	"jobhunterx-engine/internal/store"
)

// ProcessDue dispatches every pending message whose scheduled time has
// passed. A send failure lands on that message alone; the sweep keeps
// going. Returns how many messages were dispatched (sent or failed).
func (s *Scheduler) ProcessDue(ctx context.Context) (int, error) {
	due, err := store.ListDueMessages(ctx, s.DB, time.Now().UTC(), 100)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}
	log.Printf("[outreach] dispatching %d due messages", len(due))

	processed := 0
	for i, m := range due {
		if i > 0 && s.DispatchGap > 0 {
			// Space dispatches out so a big backlog does not burst.
			select {
			case <-ctx.Done():
				return processed, ctx.Err()
			case <-time.After(s.DispatchGap):
			}
		}

		r, err := store.GetRecruiter(ctx, s.DB, m.RecruiterID)
		if err != nil {
			_ = store.MarkMessageFailed(ctx, s.DB, m.ID, "recruiter lookup: "+err.Error())
			processed++
			continue
		}

		s.dispatch(ctx, m, r)
		processed++
	}
	return processed, nil
}

// dispatch sends one message and persists the outcome. Shared by the sweep
// and SendDirect.
func (s *Scheduler) dispatch(ctx context.Context, m domain.Message, r domain.Recruiter) {
	sender, err := s.Senders.forChannel(m.Channel)
	if err != nil {
		_ = store.MarkMessageFailed(ctx, s.DB, m.ID, err.Error())
		s.publish(events.TypeOutreachFailed, map[string]string{"message_id": m.ID})
		return
	}

	providerID, err := sender.Send(ctx, r, m.Content)
	if err != nil {
		log.Printf("[outreach] send message=%s channel=%s: %v", m.ID, m.Channel, err)
		_ = store.MarkMessageFailed(ctx, s.DB, m.ID, err.Error())
		s.publish(events.TypeOutreachFailed, map[string]string{"message_id": m.ID})
		return
	}

	now := time.Now().UTC()
	if err := store.MarkMessageSent(ctx, s.DB, m.ID, now, providerID); err != nil {
		log.Printf("[outreach] mark sent message=%s: %v", m.ID, err)
		return
	}
	if err := store.TouchRecruiterContacted(ctx, s.DB, r.ID, now); err != nil {
		log.Printf("[outreach] touch recruiter=%s: %v", r.ID, err)
	}
	s.publish(events.TypeOutreachSent, map[string]string{"message_id": m.ID})
}

// ProcessFollowUps generates follow-up messages for active auto-follow-up
// campaigns: sent, unreplied messages past the campaign's follow-up delay
// whose chain has room left. Each parent gets at most one child, so running
// the sweep twice in a row does not double up.
func (s *Scheduler) ProcessFollowUps(ctx context.Context) (int, error) {
	campaigns, err := store.ListFollowUpCampaigns(ctx, s.DB)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, c := range campaigns {
		cutoff := time.Now().UTC().Add(-c.FollowUpDelay)
		parents, err := store.ListFollowUpCandidates(ctx, s.DB, c.ID, cutoff, c.MaxFollowUps)
		if err != nil {
			return created, err
		}

		for _, parent := range parents {
			r, err := store.GetRecruiter(ctx, s.DB, parent.RecruiterID)
			if err != nil {
				log.Printf("[outreach] follow-up recruiter %s: %v", parent.RecruiterID, err)
				continue
			}

			seq := parent.FollowUpSequence + 1
			content, err := s.Composer.Compose(ctx, r, c.CandidateID, c.Tone, parent.Channel, seq)
			if err != nil {
				log.Printf("[outreach] follow-up compose parent=%s: %v", parent.ID, err)
				continue
			}

			child := domain.Message{
				ID:               uuid.NewString(),
				CampaignID:       c.ID,
				RecruiterID:      parent.RecruiterID,
				CandidateID:      parent.CandidateID,
				Channel:          parent.Channel,
				Content:          content,
				Tone:             c.Tone,
				ScheduledFor:     time.Now().UTC().Add(s.FollowUpLeadTime),
				Status:           domain.MsgPending,
				FollowUpSequence: seq,
				ParentMessageID:  parent.ID,
				CreatedAt:        time.Now().UTC(),
			}
			if err := store.InsertMessage(ctx, s.DB, child); err != nil {
				return created, err
			}
			created++
		}
	}
	if created > 0 {
		log.Printf("[outreach] created %d follow-ups", created)
	}
	return created, nil
}
