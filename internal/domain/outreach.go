package domain

import "time"

type Channel string

const (
	ChannelLinkedIn Channel = "linkedin"
	ChannelEmail    Channel = "email"
)

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCancelled CampaignStatus = "cancelled"
)

// Campaign is created once and mutated only by explicit control calls.
// Pausing or cancelling does not retract already-scheduled pending messages.
type Campaign struct {
	ID          string
	CandidateID string
	Name        string

	TargetCompanies []string
	TargetLocations []string
	TargetRoles     []string
	Channels        []Channel

	DailyLimit           int
	DelayBetweenMessages time.Duration
	Tone                 string

	AutoFollowUp  bool
	MaxFollowUps  int
	FollowUpDelay time.Duration

	Status    CampaignStatus
	CreatedAt time.Time
	UpdatedAt time.Time
	StartedAt *time.Time
	EndedAt   *time.Time
}

type MessageStatus string

const (
	MsgPending MessageStatus = "pending"
	MsgSent    MessageStatus = "sent"
	MsgFailed  MessageStatus = "failed"
)

// Message is immutable once written except for status/timestamp fields.
// Follow-ups link back to their original via ParentMessageID.
type Message struct {
	ID          string
	CampaignID  string // empty for one-shot sends from the pipeline
	RecruiterID string
	CandidateID string
	Channel     Channel
	Content     string
	Tone        string

	ScheduledFor time.Time
	Status       MessageStatus
	ErrorMessage string

	SentAt    *time.Time
	RepliedAt *time.Time

	FollowUpSequence int
	ParentMessageID  string

	ProviderMessageID string
	CreatedAt         time.Time
}

// Recruiter rows are owned by the directory, not the core; the core only
// stamps LastContacted after a successful send.
type Recruiter struct {
	ID            string
	Name          string
	Email         string
	Company       string
	Location      string
	Roles         []string
	ResponseRate  float64
	LastContacted *time.Time
	Active        bool
}
