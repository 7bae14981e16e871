package outreach

import (
	"context"
	"log"

	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/store"
)

// Campaign control only flips the campaign's status. Messages already
// persisted as pending are deliberately left alone: the dispatch sweep will
// still send them. Retracting scheduled messages would be a different
// feature and is not offered.

func (s *Scheduler) PauseCampaign(ctx context.Context, id string) error {
	if err := store.SetCampaignStatus(ctx, s.DB, id, domain.CampaignPaused, false); err != nil {
		return err
	}
	log.Printf("[outreach] paused campaign %s", id)
	return nil
}

func (s *Scheduler) ResumeCampaign(ctx context.Context, id string) error {
	if err := store.SetCampaignStatus(ctx, s.DB, id, domain.CampaignActive, false); err != nil {
		return err
	}
	log.Printf("[outreach] resumed campaign %s", id)
	return nil
}

func (s *Scheduler) StopCampaign(ctx context.Context, id string) error {
	if err := store.SetCampaignStatus(ctx, s.DB, id, domain.CampaignCancelled, true); err != nil {
		return err
	}
	log.Printf("[outreach] stopped campaign %s", id)
	return nil
}
