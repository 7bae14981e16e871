package domain

import "time"

// ApplicationMethod is the closed set of submission variants.
type ApplicationMethod string

const (
	MethodDirectForm    ApplicationMethod = "direct_form"
	MethodEmailApply    ApplicationMethod = "email_apply"
	MethodExternalLink  ApplicationMethod = "external_link"
	MethodCompanyPortal ApplicationMethod = "company_portal"
	MethodLinkedInEasy  ApplicationMethod = "linkedin_easy"
	MethodIndeedQuick   ApplicationMethod = "indeed_quick"
)

// Methods lists every variant; strategy selection must cover all of them.
func Methods() []ApplicationMethod {
	return []ApplicationMethod{
		MethodDirectForm, MethodEmailApply, MethodExternalLink,
		MethodCompanyPortal, MethodLinkedInEasy, MethodIndeedQuick,
	}
}

type ApplicationStatus string

const (
	// The core only ever moves pending -> applied. A submission failure keeps
	// the row pending with ErrorMessage set; later statuses come from humans
	// or external services, never from this engine.
	AppPending     ApplicationStatus = "pending"
	AppApplied     ApplicationStatus = "applied"
	AppReviewing   ApplicationStatus = "reviewing"
	AppInterviewed ApplicationStatus = "interviewed"
	AppRejected    ApplicationStatus = "rejected"
	AppOffered     ApplicationStatus = "offered"
)

// Application is one submission attempt. Rows are append-only from the
// core's point of view: corrective action is a new status, never a delete.
type Application struct {
	ID              string
	CandidateID     string
	JobID           string
	ResumeVersionID string
	CoverLetterID   string
	Method          ApplicationMethod
	Status          ApplicationStatus
	ErrorMessage    string

	// Tracking metadata is opaque to the engine; the strategy supplies it.
	TrackingPixelURL string
	UTMParams        map[string]string

	AppliedAt  *time.Time
	ResponseAt *time.Time
	CreatedAt  time.Time
}
