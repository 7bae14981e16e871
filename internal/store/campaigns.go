package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"jobhunterx-engine/internal/domain"
)

const campaignCols = `id, candidate_id, name, target_companies, target_locations,
target_roles, channels, daily_limit, delay_seconds, tone,
auto_follow_up, max_follow_ups, follow_up_delay_seconds,
status, created_at, updated_at, started_at, ended_at`

func scanCampaign(row interface{ Scan(...any) error }) (domain.Campaign, error) {
	var c domain.Campaign
	var companies, locations, roles, channels, status, createdAt, updatedAt string
	var delaySec, followDelaySec int64
	var startedAt, endedAt sql.NullString
	err := row.Scan(
		&c.ID, &c.CandidateID, &c.Name, &companies, &locations, &roles, &channels,
		&c.DailyLimit, &delaySec, &c.Tone,
		&c.AutoFollowUp, &c.MaxFollowUps, &followDelaySec,
		&status, &createdAt, &updatedAt, &startedAt, &endedAt,
	)
	if err != nil {
		return c, err
	}
	_ = json.Unmarshal([]byte(companies), &c.TargetCompanies)
	_ = json.Unmarshal([]byte(locations), &c.TargetLocations)
	_ = json.Unmarshal([]byte(roles), &c.TargetRoles)
	_ = json.Unmarshal([]byte(channels), &c.Channels)
	c.DelayBetweenMessages = time.Duration(delaySec) * time.Second
	c.FollowUpDelay = time.Duration(followDelaySec) * time.Second
	c.Status = domain.CampaignStatus(status)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	c.StartedAt = parseTimePtr(startedAt)
	c.EndedAt = parseTimePtr(endedAt)
	return c, nil
}

func InsertCampaign(ctx context.Context, db *sql.DB, c domain.Campaign) error {
	companies, _ := json.Marshal(c.TargetCompanies)
	locations, _ := json.Marshal(c.TargetLocations)
	roles, _ := json.Marshal(c.TargetRoles)
	channels, _ := json.Marshal(c.Channels)
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO outreach_campaigns (id, candidate_id, name, target_companies, target_locations,
  target_roles, channels, daily_limit, delay_seconds, tone,
  auto_follow_up, max_follow_ups, follow_up_delay_seconds, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		c.ID, c.CandidateID, c.Name, string(companies), string(locations),
		string(roles), string(channels),
		c.DailyLimit, int64(c.DelayBetweenMessages/time.Second), c.Tone,
		c.AutoFollowUp, c.MaxFollowUps, int64(c.FollowUpDelay/time.Second),
		string(c.Status), fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func GetCampaign(ctx context.Context, db *sql.DB, id string) (domain.Campaign, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+campaignCols+` FROM outreach_campaigns WHERE id = ?;`, id)
	c, err := scanCampaign(row)
	if err != nil {
		return c, fmt.Errorf("get campaign %s: %w", id, err)
	}
	return c, nil
}

// SetCampaignStatus only touches the status row; pending messages already
// scheduled for the campaign stay untouched.
func SetCampaignStatus(ctx context.Context, db *sql.DB, id string, status domain.CampaignStatus, ended bool) error {
	now := time.Now().UTC()
	var endedAt any
	if ended {
		endedAt = fmtTime(now)
	}
	res, err := db.ExecContext(ctx, `
UPDATE outreach_campaigns
SET status = ?, updated_at = ?, ended_at = COALESCE(?, ended_at)
WHERE id = ?;`,
		string(status), fmtTime(now), endedAt, id,
	)
	if err != nil {
		return fmt.Errorf("set campaign status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("campaign %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

func MarkCampaignStarted(ctx context.Context, db *sql.DB, id string) error {
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, `
UPDATE outreach_campaigns
SET status = ?, started_at = ?, updated_at = ?
WHERE id = ?;`,
		string(domain.CampaignActive), fmtTime(now), fmtTime(now), id,
	)
	if err != nil {
		return fmt.Errorf("mark campaign started: %w", err)
	}
	return nil
}

// ListFollowUpCampaigns returns active campaigns with auto follow-up on.
func ListFollowUpCampaigns(ctx context.Context, db *sql.DB) ([]domain.Campaign, error) {
	rows, err := db.QueryContext(ctx, `
SELECT `+campaignCols+`
FROM outreach_campaigns
WHERE status = ? AND auto_follow_up = 1;`, string(domain.CampaignActive))
	if err != nil {
		return nil, fmt.Errorf("list follow-up campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
