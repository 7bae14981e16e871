package outreach

import (
	"context"
	"math"

	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/store"
)

type ChannelStats struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Replies int `json:"replies"`
}

type Analytics struct {
	CampaignID   string                  `json:"campaign_id"`
	Status       domain.CampaignStatus   `json:"status"`
	Total        int                     `json:"total_messages"`
	Pending      int                     `json:"pending_messages"`
	Sent         int                     `json:"sent_messages"`
	Failed       int                     `json:"failed_messages"`
	Replied      int                     `json:"replied_messages"`
	FollowUps    int                     `json:"follow_ups"`
	SendRate     float64                 `json:"send_rate"`
	ResponseRate float64                 `json:"response_rate"`
	ByChannel    map[string]ChannelStats `json:"channel_stats"`
}

// CampaignAnalytics aggregates message outcomes for one campaign.
func (s *Scheduler) CampaignAnalytics(ctx context.Context, campaignID string) (Analytics, error) {
	c, err := store.GetCampaign(ctx, s.DB, campaignID)
	if err != nil {
		return Analytics{}, err
	}
	msgs, err := store.ListCampaignMessages(ctx, s.DB, campaignID)
	if err != nil {
		return Analytics{}, err
	}

	a := Analytics{
		CampaignID: campaignID,
		Status:     c.Status,
		ByChannel:  map[string]ChannelStats{},
	}
	for _, m := range msgs {
		a.Total++
		cs := a.ByChannel[string(m.Channel)]
		cs.Total++

		switch m.Status {
		case domain.MsgPending:
			a.Pending++
		case domain.MsgSent:
			a.Sent++
			cs.Sent++
		case domain.MsgFailed:
			a.Failed++
			cs.Failed++
		}
		if m.RepliedAt != nil {
			a.Replied++
			cs.Replies++
		}
		if m.FollowUpSequence > 0 {
			a.FollowUps++
		}
		a.ByChannel[string(m.Channel)] = cs
	}

	a.SendRate = pct(a.Sent, a.Total)
	a.ResponseRate = pct(a.Replied, a.Sent)
	return a, nil
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*10000) / 100
}
