package submit

import (
	"context"
	"fmt"
	"time"

	"jobhunterx-engine/internal/domain"
)

// Request is one unit of work for the queue: everything a strategy needs to
// push an application out the door.
type Request struct {
	CandidateID     string
	Job             domain.JobPosting
	ResumeVersionID string
	CoverLetterID   string
	Method          domain.ApplicationMethod
}

type Outcome string

const (
	OutcomeSubmitted      Outcome = "submitted"
	OutcomeFailed         Outcome = "failed"
	OutcomeNotImplemented Outcome = "not_implemented"
)

// Result is what a strategy reports back. Unbuilt strategies return
// OutcomeNotImplemented instead of raising; the queue never sees a panic
// from a well-behaved strategy, and recovers from the others.
type Result struct {
	Outcome          Outcome
	AppliedAt        time.Time
	TrackingPixelURL string
	UTMParams        map[string]string
	Error            string
}

// Strategy performs the actual submission for one method. Implementations
// are external collaborators (browser automation, SMTP, portal clients).
type Strategy interface {
	Submit(ctx context.Context, applicationID string, req Request) Result
}

// Strategies holds one implementation per method variant. A nil slot
// behaves as not-implemented. Selection is an exhaustive switch over the
// closed method set; adding a variant means touching this switch.
type Strategies struct {
	DirectForm    Strategy
	EmailApply    Strategy
	ExternalLink  Strategy
	CompanyPortal Strategy
	LinkedInEasy  Strategy
	IndeedQuick   Strategy
}

func (s Strategies) forMethod(m domain.ApplicationMethod) Strategy {
	var st Strategy
	switch m {
	case domain.MethodDirectForm:
		st = s.DirectForm
	case domain.MethodEmailApply:
		st = s.EmailApply
	case domain.MethodExternalLink:
		st = s.ExternalLink
	case domain.MethodCompanyPortal:
		st = s.CompanyPortal
	case domain.MethodLinkedInEasy:
		st = s.LinkedInEasy
	case domain.MethodIndeedQuick:
		st = s.IndeedQuick
	default:
		return unknownMethod{method: m}
	}
	if st == nil {
		return NotImplemented(m)
	}
	return st
}

// NotImplemented is the stand-in for variants without a wired collaborator.
func NotImplemented(m domain.ApplicationMethod) Strategy {
	return notImplemented{method: m}
}

type notImplemented struct{ method domain.ApplicationMethod }

func (n notImplemented) Submit(context.Context, string, Request) Result {
	return Result{
		Outcome: OutcomeNotImplemented,
		Error:   fmt.Sprintf("%s submission not implemented", n.method),
	}
}

type unknownMethod struct{ method domain.ApplicationMethod }

func (u unknownMethod) Submit(context.Context, string, Request) Result {
	return Result{
		Outcome: OutcomeFailed,
		Error:   fmt.Sprintf("unknown application method %q", u.method),
	}
}

// StrategyFunc adapts a function to the Strategy interface; tests and small
// collaborators use it.
type StrategyFunc func(ctx context.Context, applicationID string, req Request) Result

func (f StrategyFunc) Submit(ctx context.Context, applicationID string, req Request) Result {
	return f(ctx, applicationID, req)
}
