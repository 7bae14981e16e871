package domain

import "time"

// Log action names the orchestrator records.
const (
	ActionJobScraping     = "job_scraping"
	ActionAutomationCycle = "automation_cycle"
	ActionCriticalError   = "critical_error"
	ActionOptimization    = "algorithm_optimization"
)

// LogEntry is a write-once automation log record. The scraping-freshness
// check reads the most recent "job_scraping" entry; housekeeping deletes
// entries older than the retention window.
type LogEntry struct {
	ID        string
	Action    string
	Detail    map[string]any
	CreatedAt time.Time
}
