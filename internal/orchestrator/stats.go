package orchestrator

import (
	"sync"
	"time"
)

type cycleStats struct {
	Matches      int
	Applications int
	Outreach     int
	Errors       int
}

func (c *cycleStats) add(r pipelineResult) {
	if r.Failed {
		c.Errors++
		return
	}
	c.Matches += r.Matches
	c.Applications += r.Applications
	c.Outreach += r.Outreach
}

type statsCounters struct {
	mu           sync.Mutex
	cycles       int64
	matches      int64
	applications int64
	outreach     int64
	errors       int64
	lastCycleID  string
	lastCycleAt  time.Time
}

func (s *statsCounters) finishCycle(cycleID string, at time.Time, agg cycleStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles++
	s.matches += int64(agg.Matches)
	s.applications += int64(agg.Applications)
	s.outreach += int64(agg.Outreach)
	s.errors += int64(agg.Errors)
	s.lastCycleID = cycleID
	s.lastCycleAt = at
}

func (s *statsCounters) addManual(r pipelineResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches += int64(r.Matches)
	s.applications += int64(r.Applications)
	s.outreach += int64(r.Outreach)
}

// Status is the snapshot returned by the control surface.
type Status struct {
	Running            bool       `json:"running"`
	CyclesCompleted    int64      `json:"cycles_completed"`
	MatchesFound       int64      `json:"matches_found"`
	ApplicationsQueued int64      `json:"applications_queued"`
	OutreachSent       int64      `json:"outreach_sent"`
	CandidateErrors    int64      `json:"candidate_errors"`
	LastCycleID        string     `json:"last_cycle_id,omitempty"`
	LastCycleAt        *time.Time `json:"last_cycle_at,omitempty"`
	QueueDepth         int        `json:"queue_depth"`
	QueueInFlight      int        `json:"queue_in_flight"`
	QueueSubmitted     int64      `json:"queue_submitted"`
	QueueFailed        int64      `json:"queue_failed"`
}

func (o *Orchestrator) Status() Status {
	o.stats.mu.Lock()
	st := Status{
		CyclesCompleted:    o.stats.cycles,
		MatchesFound:       o.stats.matches,
		ApplicationsQueued: o.stats.applications,
		OutreachSent:       o.stats.outreach,
		CandidateErrors:    o.stats.errors,
		LastCycleID:        o.stats.lastCycleID,
	}
	if !o.stats.lastCycleAt.IsZero() {
		at := o.stats.lastCycleAt
		st.LastCycleAt = &at
	}
	o.stats.mu.Unlock()

	st.Running = o.IsRunning()
	if o.Queue != nil {
		qs := o.Queue.Stats()
		st.QueueDepth = qs.Depth
		st.QueueInFlight = qs.InFlight
		st.QueueSubmitted = qs.Submitted
		st.QueueFailed = qs.Failed
	}
	return st
}
