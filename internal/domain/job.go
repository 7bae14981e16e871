package domain

import "time"

// JobPosting is the snapshot of a scraped job carried on a match. The core
// reads it but never owns it.
type JobPosting struct {
	ID          string
	Title       string
	Company     string
	Location    string
	URL         string
	Description string
	Source      string // greenhouse/indeed/etc.
	ScrapedAt   time.Time
}

// JobMatch links a candidate to a posting with the matcher's score.
type JobMatch struct {
	ID          string
	CandidateID string
	JobID       string
	Score       float64
	Job         JobPosting
	CreatedAt   time.Time
}
