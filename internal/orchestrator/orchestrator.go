package orchestrator

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"
	"time"

	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/events"
	"jobhunterx-engine/internal/outreach"
	"jobhunterx-engine/internal/store"
	"jobhunterx-engine/internal/submit"
)

// Collaborators the orchestrator drives. Each is an opaque capability; the
// engine calls it and gets a typed result back.

type Matcher interface {
	Find(ctx context.Context, candidateID string, excludeJobIDs []string, minScore float64, maxMatches int) ([]domain.JobMatch, error)
}

type Tailor interface {
	Tailor(ctx context.Context, candidateID string, job domain.JobPosting, strategy string) (resumeVersionID string, err error)
}

type CoverLetterGen interface {
	Generate(ctx context.Context, candidateID string, job domain.JobPosting, tone string) (coverLetterID string, err error)
}

type Scraper interface {
	Scrape(ctx context.Context, keywords []string, location string, maxJobs int) (added int, err error)
}

type FeedbackAnalyzer interface {
	AnalyzeDailyPerformance(ctx context.Context) error
}

// Config carries the cycle knobs; zero values fall back to the documented
// defaults in Normalize.
type Config struct {
	CycleInterval   time.Duration
	BatchSize       int
	ScrapeFreshness time.Duration
	ScrapeMaxJobs   int

	MinScore       float64
	MaxMatches     int
	ExcludeApplied time.Duration
	TailorTop      int

	MaxApplicationsPerCycle int
	MaxOutreachPerCycle     int
	DailyApplications       int
	DailyOutreach           int

	DefaultMethod domain.ApplicationMethod
	Tone          string

	LogRetention time.Duration
}

func (c Config) Normalize() Config {
	if c.CycleInterval <= 0 {
		c.CycleInterval = 5 * time.Minute
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.ScrapeFreshness <= 0 {
		c.ScrapeFreshness = 2 * time.Hour
	}
	if c.ScrapeMaxJobs <= 0 {
		c.ScrapeMaxJobs = 50
	}
	if c.MinScore <= 0 {
		c.MinScore = 0.7
	}
	if c.MaxMatches <= 0 {
		c.MaxMatches = 10
	}
	if c.ExcludeApplied <= 0 {
		c.ExcludeApplied = 7 * 24 * time.Hour
	}
	if c.TailorTop <= 0 {
		c.TailorTop = 3
	}
	if c.MaxApplicationsPerCycle <= 0 {
		c.MaxApplicationsPerCycle = 2
	}
	if c.MaxOutreachPerCycle <= 0 {
		c.MaxOutreachPerCycle = 3
	}
	if c.DailyApplications <= 0 {
		c.DailyApplications = 50
	}
	if c.DailyOutreach <= 0 {
		c.DailyOutreach = 20
	}
	if c.DefaultMethod == "" {
		c.DefaultMethod = domain.MethodDirectForm
	}
	if c.Tone == "" {
		c.Tone = "professional"
	}
	if c.LogRetention <= 0 {
		c.LogRetention = 30 * 24 * time.Hour
	}
	return c
}

var ErrAlreadyRunning = errors.New("orchestrator already running")

// Orchestrator is the top-level control loop: stopped -> running -> stopped.
// One instance is constructed at startup and handed to whatever exposes
// start/stop; there are no package-level singletons.
type Orchestrator struct {
	DB       *sql.DB
	Cfg      Config
	Matcher  Matcher
	Tailor   Tailor
	Cover    CoverLetterGen
	Scraper  Scraper
	Feedback FeedbackAnalyzer
	Queue    *submit.Queue
	Outreach *outreach.Scheduler
	Hub      *events.Hub // optional

	mu      sync.Mutex
	running bool
	stop    chan struct{}

	stats statsCounters
}

func New(db *sql.DB, cfg Config, m Matcher, t Tailor, c CoverLetterGen, sc Scraper, fb FeedbackAnalyzer, q *submit.Queue, o *outreach.Scheduler) *Orchestrator {
	return &Orchestrator{
		DB: db, Cfg: cfg.Normalize(),
		Matcher: m, Tailor: t, Cover: c, Scraper: sc, Feedback: fb,
		Queue: q, Outreach: o,
	}
}

// Start spins up the cycle loop. Returns ErrAlreadyRunning when called on a
// running orchestrator.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return ErrAlreadyRunning
	}
	o.running = true
	o.stop = make(chan struct{})
	go o.loop(o.stop)
	log.Printf("[orchestrator] started (cycle every %s)", o.Cfg.CycleInterval)
	o.publish(events.TypeAutomationStarted, nil)
	return nil
}

// Stop prevents a new cycle from starting. The cycle in flight, and any
// in-flight submissions, run to completion; nothing is preempted.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running {
		return
	}
	close(o.stop)
	o.running = false
	log.Printf("[orchestrator] stop requested")
	o.publish(events.TypeAutomationStopped, nil)
}

func (o *Orchestrator) IsRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

func (o *Orchestrator) loop(stop chan struct{}) {
	for {
		if err := o.RunCycle(context.Background()); err != nil {
			// Only failures of the cycle machinery itself land here; they
			// stop the whole system. No automatic restart.
			log.Printf("[orchestrator] CRITICAL: cycle machinery failed: %v", err)
			_ = store.AppendLog(context.Background(), o.DB, domain.ActionCriticalError, map[string]any{
				"error":         err.Error(),
				"system_status": "stopped",
			})
			o.mu.Lock()
			if o.running {
				close(o.stop)
				o.running = false
			}
			o.mu.Unlock()
			o.publish(events.TypeAutomationCritical, map[string]string{"error": err.Error()})
			return
		}

		select {
		case <-stop:
			return
		case <-time.After(o.Cfg.CycleInterval):
		}

		select {
		case <-stop:
			return
		default:
		}
	}
}

func (o *Orchestrator) publish(typ string, data any) {
	if o.Hub == nil {
		return
	}
	o.Hub.Publish(events.MakeEvent("", typ, 1, data))
}
