package domain

import "time"

// Candidate is the unit the orchestrator fans out over. The progress and
// error fields are embedded on the row and rewritten at most once per cycle.
type Candidate struct {
	ID                string
	FullName          string
	Email             string
	Location          string
	Keywords          []string // search terms for scraping
	TargetRoles       []string
	Active            bool
	AutomationEnabled bool

	Progress  CandidateProgress
	Errors    CandidateErrors
	CreatedAt time.Time
}

// CandidateProgress is the per-cycle snapshot written by the orchestrator.
type CandidateProgress struct {
	Matches       int
	Applications  int
	Outreach      int
	LastProcessed *time.Time
	CycleID       string
}

type CandidateErrors struct {
	Count     int
	LastError string
	LastTime  *time.Time
}

// PreferenceGroup is a distinct (keywords, location) pair used to dedupe
// scraping requests across candidates.
type PreferenceGroup struct {
	Keywords []string
	Location string
}
