package submit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// FormStrategy is the built-in direct_form implementation: it posts the
// application fields to the job's apply URL with campaign attribution
// appended, and hands back a tracking pixel reference for response
// detection.
type FormStrategy struct {
	HC        *http.Client
	PixelBase string // base URL the pixel endpoint is served from
}

func NewFormStrategy(pixelBase string) *FormStrategy {
	return &FormStrategy{
		HC:        &http.Client{Timeout: 30 * time.Second},
		PixelBase: pixelBase,
	}
}

func (s *FormStrategy) Submit(ctx context.Context, applicationID string, req Request) Result {
	if req.Job.URL == "" {
		return Result{Outcome: OutcomeFailed, Error: "job has no apply url"}
	}

	utm := map[string]string{
		"utm_source":   "jobhunterx",
		"utm_medium":   "direct_form",
		"utm_campaign": req.CandidateID,
		"utm_content":  applicationID,
	}

	target, err := withParams(req.Job.URL, utm)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Error: fmt.Sprintf("bad apply url: %v", err)}
	}

	form := url.Values{}
	form.Set("candidate_id", req.CandidateID)
	form.Set("resume_version", req.ResumeVersionID)
	form.Set("cover_letter", req.CoverLetterID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{Outcome: OutcomeFailed, Error: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.HC.Do(httpReq)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Error: fmt.Sprintf("form post: %v", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Result{Outcome: OutcomeFailed, Error: fmt.Sprintf("form post status %d", resp.StatusCode)}
	}

	return Result{
		Outcome:          OutcomeSubmitted,
		AppliedAt:        time.Now().UTC(),
		TrackingPixelURL: strings.TrimRight(s.PixelBase, "/") + "/pixel/" + applicationID + ".gif",
		UTMParams:        utm,
	}
}

func withParams(raw string, params map[string]string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
