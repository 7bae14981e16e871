package submit

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/events"
	"jobhunterx-engine/internal/store"
)

// Queue is the throttled submission worker. Enqueue always succeeds (the
// backlog is unbounded and FIFO); the worker loop bounds concurrent
// submissions with a semaphore and gates every start through a global rate
// limiter, so at most one submission starts per interval no matter how many
// run at once. The worker blocks on a wake channel instead of polling.
type Queue struct {
	DB         *sql.DB
	Strategies Strategies
	Hub        *events.Hub // optional

	sem  *semaphore.Weighted
	gate *rate.Limiter

	mu      sync.Mutex
	backlog []Request
	wake    chan struct{}

	inflight  atomic.Int64
	submitted atomic.Int64
	failed    atomic.Int64
}

func NewQueue(db *sql.DB, strategies Strategies, maxConcurrent int, minStartInterval time.Duration) *Queue {
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	if minStartInterval <= 0 {
		minStartInterval = 2 * time.Second
	}
	return &Queue{
		DB:         db,
		Strategies: strategies,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
		gate:       rate.NewLimiter(rate.Every(minStartInterval), 1),
		wake:       make(chan struct{}, 1),
	}
}

// Enqueue appends to the tail and nudges the worker.
func (q *Queue) Enqueue(req Request) {
	q.mu.Lock()
	q.backlog = append(q.backlog, req)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Run is the long-lived worker loop. It returns when ctx is cancelled;
// submissions already started are left to finish.
func (q *Queue) Run(ctx context.Context) {
	for {
		req, ok := q.next(ctx)
		if !ok {
			return
		}
		if err := q.sem.Acquire(ctx, 1); err != nil {
			return
		}
		// Global start throttle, held after the concurrency slot so a slot
		// waiting at the gate still counts against the bound.
		if err := q.gate.Wait(ctx); err != nil {
			q.sem.Release(1)
			return
		}

		q.inflight.Add(1)
		go func(req Request) {
			defer q.sem.Release(1)
			defer q.inflight.Add(-1)
			q.process(req)
		}(req)
	}
}

func (q *Queue) next(ctx context.Context) (Request, bool) {
	for {
		q.mu.Lock()
		if len(q.backlog) > 0 {
			req := q.backlog[0]
			q.backlog = q.backlog[1:]
			q.mu.Unlock()
			return req, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Request{}, false
		case <-q.wake:
		}
	}
}

// process creates the pending Application row, runs the strategy, and
// persists the outcome. A strategy failure stays on this application; it
// never affects other queued work. Uses a background context so an engine
// shutdown does not cut off an in-flight submission.
func (q *Queue) process(req Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	app := domain.Application{
		ID:          uuid.NewString(),
		CandidateID: req.CandidateID,
		JobID:       req.Job.ID,

		ResumeVersionID: req.ResumeVersionID,
		CoverLetterID:   req.CoverLetterID,
		Method:          req.Method,
		Status:          domain.AppPending,
		CreatedAt:       time.Now().UTC(),
	}
	if err := store.InsertApplication(ctx, q.DB, app); err != nil {
		log.Printf("[submit] insert application candidate=%s job=%s: %v", req.CandidateID, req.Job.ID, err)
		q.failed.Add(1)
		return
	}

	res := q.runStrategy(ctx, app.ID, req)

	switch res.Outcome {
	case OutcomeSubmitted:
		appliedAt := res.AppliedAt
		if appliedAt.IsZero() {
			appliedAt = time.Now().UTC()
		}
		if err := store.MarkApplicationApplied(ctx, q.DB, app.ID, appliedAt, res.TrackingPixelURL, res.UTMParams); err != nil {
			log.Printf("[submit] mark applied id=%s: %v", app.ID, err)
			return
		}
		q.submitted.Add(1)
		log.Printf("[submit] applied id=%s candidate=%s method=%s", app.ID, req.CandidateID, req.Method)
		q.publish(events.TypeApplicationSent, app.ID)
	default:
		// Failure or not-implemented: the row stays pending with the error
		// attached. No retry at this layer.
		if err := store.RecordApplicationError(ctx, q.DB, app.ID, res.Error); err != nil {
			log.Printf("[submit] record error id=%s: %v", app.ID, err)
			return
		}
		q.failed.Add(1)
		log.Printf("[submit] failed id=%s method=%s outcome=%s err=%q", app.ID, req.Method, res.Outcome, res.Error)
		q.publish(events.TypeApplicationError, app.ID)
	}
}

// runStrategy converts a panicking strategy into a failure result so one bad
// submission cannot take the worker down.
func (q *Queue) runStrategy(ctx context.Context, applicationID string, req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Outcome: OutcomeFailed, Error: fmt.Sprintf("strategy panic: %v", r)}
		}
	}()
	return q.Strategies.forMethod(req.Method).Submit(ctx, applicationID, req)
}

func (q *Queue) publish(typ, applicationID string) {
	if q.Hub == nil {
		return
	}
	q.Hub.Publish(events.MakeEvent("", typ, 1, map[string]string{"application_id": applicationID}))
}

// InFlight reports how many submissions are currently running.
func (q *Queue) InFlight() int { return int(q.inflight.Load()) }

// Depth reports the queued backlog size.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}

type Stats struct {
	Depth     int   `json:"depth"`
	InFlight  int   `json:"in_flight"`
	Submitted int64 `json:"submitted"`
	Failed    int64 `json:"failed"`
}

func (q *Queue) Stats() Stats {
	return Stats{
		Depth:     q.Depth(),
		InFlight:  q.InFlight(),
		Submitted: q.submitted.Load(),
		Failed:    q.failed.Load(),
	}
}
