package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobhunterx-engine/internal/domain"
)

const messageCols = `id, campaign_id, recruiter_id, candidate_id, channel, content, tone,
scheduled_for, status, error_message, sent_at, replied_at,
follow_up_sequence, parent_message_id, provider_message_id, created_at`

func scanMessage(row interface{ Scan(...any) error }) (domain.Message, error) {
	var m domain.Message
	var channel, status, scheduledFor, createdAt string
	var sentAt, repliedAt sql.NullString
	err := row.Scan(
		&m.ID, &m.CampaignID, &m.RecruiterID, &m.CandidateID, &channel, &m.Content, &m.Tone,
		&scheduledFor, &status, &m.ErrorMessage, &sentAt, &repliedAt,
		&m.FollowUpSequence, &m.ParentMessageID, &m.ProviderMessageID, &createdAt,
	)
	if err != nil {
		return m, err
	}
	m.Channel = domain.Channel(channel)
	m.Status = domain.MessageStatus(status)
	m.ScheduledFor = parseTime(scheduledFor)
	m.SentAt = parseTimePtr(sentAt)
	m.RepliedAt = parseTimePtr(repliedAt)
	m.CreatedAt = parseTime(createdAt)
	return m, nil
}

func InsertMessage(ctx context.Context, db *sql.DB, m domain.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO outreach_messages (id, campaign_id, recruiter_id, candidate_id, channel,
  content, tone, scheduled_for, status, error_message, sent_at, replied_at,
  follow_up_sequence, parent_message_id, provider_message_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		m.ID, m.CampaignID, m.RecruiterID, m.CandidateID, string(m.Channel),
		m.Content, m.Tone, fmtTime(m.ScheduledFor), string(m.Status), m.ErrorMessage,
		fmtTimePtr(m.SentAt), fmtTimePtr(m.RepliedAt),
		m.FollowUpSequence, m.ParentMessageID, m.ProviderMessageID, fmtTime(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListDueMessages returns pending messages whose scheduled_for has passed.
func ListDueMessages(ctx context.Context, db *sql.DB, now time.Time, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `
SELECT `+messageCols+`
FROM outreach_messages
WHERE status = ? AND scheduled_for <= ?
ORDER BY scheduled_for
LIMIT ?;`, string(domain.MsgPending), fmtTime(now), limit)
	if err != nil {
		return nil, fmt.Errorf("list due messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

func MarkMessageSent(ctx context.Context, db *sql.DB, id string, sentAt time.Time, providerID string) error {
	_, err := db.ExecContext(ctx, `
UPDATE outreach_messages
SET status = ?, sent_at = ?, provider_message_id = ?, error_message = ''
WHERE id = ?;`,
		string(domain.MsgSent), fmtTime(sentAt), providerID, id,
	)
	if err != nil {
		return fmt.Errorf("mark message sent: %w", err)
	}
	return nil
}

func MarkMessageFailed(ctx context.Context, db *sql.DB, id string, msg string) error {
	_, err := db.ExecContext(ctx, `
UPDATE outreach_messages
SET status = ?, error_message = ?
WHERE id = ?;`,
		string(domain.MsgFailed), msg, id,
	)
	if err != nil {
		return fmt.Errorf("mark message failed: %w", err)
	}
	return nil
}

func MarkMessageReplied(ctx context.Context, db *sql.DB, id string, repliedAt time.Time) error {
	_, err := db.ExecContext(ctx, `
UPDATE outreach_messages SET replied_at = ? WHERE id = ? AND replied_at IS NULL;`,
		fmtTime(repliedAt), id,
	)
	if err != nil {
		return fmt.Errorf("mark message replied: %w", err)
	}
	return nil
}

// ListFollowUpCandidates returns sent, unreplied messages older than the
// cutoff that have room left in the follow-up chain and no follow-up yet.
// The NOT EXISTS guard is what keeps a rerun of the sweep from duplicating.
func ListFollowUpCandidates(ctx context.Context, db *sql.DB, campaignID string, cutoff time.Time, maxFollowUps int) ([]domain.Message, error) {
	rows, err := db.QueryContext(ctx, `
SELECT `+messageCols+`
FROM outreach_messages m
WHERE m.campaign_id = ?
  AND m.status = ?
  AND m.sent_at IS NOT NULL AND m.sent_at <= ?
  AND m.replied_at IS NULL
  AND m.follow_up_sequence < ?
  AND NOT EXISTS (
    SELECT 1 FROM outreach_messages f WHERE f.parent_message_id = m.id
  )
ORDER BY m.sent_at
LIMIT 100;`,
		campaignID, string(domain.MsgSent), fmtTime(cutoff), maxFollowUps)
	if err != nil {
		return nil, fmt.Errorf("list follow-up candidates: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

// CountMessagesSince backs the quota window for the outreach action.
func CountMessagesSince(ctx context.Context, db *sql.DB, candidateID string, since time.Time) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM outreach_messages
WHERE candidate_id = ? AND created_at >= ?;`,
		candidateID, fmtTime(since),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

func ListCampaignMessages(ctx context.Context, db *sql.DB, campaignID string) ([]domain.Message, error) {
	rows, err := db.QueryContext(ctx, `
SELECT `+messageCols+`
FROM outreach_messages
WHERE campaign_id = ?
ORDER BY created_at;`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list campaign messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

// LatestSentToRecruiter finds the newest sent, unreplied message to a
// recruiter; the reply poller stamps replied_at on it.
func LatestSentToRecruiter(ctx context.Context, db *sql.DB, recruiterID string) (domain.Message, error) {
	row := db.QueryRowContext(ctx, `
SELECT `+messageCols+`
FROM outreach_messages
WHERE recruiter_id = ? AND status = ? AND replied_at IS NULL
ORDER BY sent_at DESC
LIMIT 1;`, recruiterID, string(domain.MsgSent))
	m, err := scanMessage(row)
	if err != nil {
		return m, err
	}
	return m, nil
}

func collectMessages(rows *sql.Rows) ([]domain.Message, error) {
	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
