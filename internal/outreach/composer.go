package outreach

import (
	"context"
	"fmt"

	"jobhunterx-engine/internal/domain"
)

// TemplateComposer is the built-in fallback composer. Real deployments wire
// an AI-backed Composer; this one keeps the engine functional without it.
type TemplateComposer struct {
	CandidateName func(ctx context.Context, candidateID string) string
}

func (t TemplateComposer) Compose(ctx context.Context, r domain.Recruiter, candidateID, tone string, _ domain.Channel, followUpSequence int) (string, error) {
	name := r.Name
	if name == "" {
		name = "there"
	}
	who := "a candidate"
	if t.CandidateName != nil {
		if n := t.CandidateName(ctx, candidateID); n != "" {
			who = n
		}
	}

	switch {
	case followUpSequence == 1:
		return fmt.Sprintf("Hi %s, I wanted to follow up on my previous message. I'm still very interested in exploring opportunities and would love to connect when you have a moment.", name), nil
	case followUpSequence == 2:
		return fmt.Sprintf("Hi %s, I hope you're doing well. Reaching out once more in case there are opportunities that align with my background. Thanks for your time!", name), nil
	case followUpSequence > 2:
		return fmt.Sprintf("Hi %s, this will be my final follow-up. If anything opens up in the future, I'd love to hear from you. Thanks!", name), nil
	}

	switch tone {
	case "formal":
		return fmt.Sprintf("Dear %s, I am reaching out to connect regarding potential opportunities in my field. I am %s and would appreciate the chance to discuss how I might contribute to %s.", name, who, orCompany(r)), nil
	default:
		return fmt.Sprintf("Hi %s, I'm %s and I noticed your role at %s. I'd love to connect and discuss potential opportunities.", name, who, orCompany(r)), nil
	}
}

func orCompany(r domain.Recruiter) string {
	if r.Company != "" {
		return r.Company
	}
	return "your company"
}
