package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus everything a config
// editor should surface before saving.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Scraping.Boards = trimList(out.Scraping.Boards)
	out.Outreach.Tone = strings.TrimSpace(strings.ToLower(out.Outreach.Tone))
	out.Submission.DefaultMethod = strings.TrimSpace(strings.ToLower(out.Submission.DefaultMethod))

	if out.Automation.CycleSeconds <= 0 {
		res.addErr("automation.cycle_seconds must be > 0")
	} else if out.Automation.CycleSeconds < 60 {
		res.addWarn("automation.cycle_seconds is very low (%d); collaborator calls may not keep up.", out.Automation.CycleSeconds)
	}
	if out.Automation.BatchSize <= 0 {
		res.addErr("automation.batch_size must be > 0")
	}

	if out.Matching.MinScore < 0 || out.Matching.MinScore > 1 {
		res.addErr("matching.min_score must be within 0..1")
	}
	if out.Matching.MaxMatches <= 0 {
		res.addErr("matching.max_matches must be > 0")
	}
	if out.Matching.TailorTop > out.Matching.MaxMatches && out.Matching.MaxMatches > 0 {
		res.addWarn("matching.tailor_top (%d) exceeds max_matches (%d); extra slots are wasted.", out.Matching.TailorTop, out.Matching.MaxMatches)
	}

	if out.DailyLimits.Applications <= 0 {
		res.addErr("daily_limits.applications must be > 0")
	}
	if out.DailyLimits.Outreach <= 0 {
		res.addErr("daily_limits.outreach must be > 0")
	}

	if out.Submission.MaxConcurrent <= 0 {
		res.addErr("submission.max_concurrent must be > 0")
	}
	if out.Submission.MinStartIntervalSeconds < 1 {
		res.addWarn("submission.min_start_interval_seconds below 1 risks looking like a bot to application portals.")
	}

	if out.Outreach.MinResponseRate < 0 || out.Outreach.MinResponseRate > 1 {
		res.addErr("outreach.min_response_rate must be within 0..1")
	}
	if out.Outreach.RecontactDays <= 0 {
		res.addErr("outreach.recontact_days must be > 0")
	}

	if out.Email.Enabled {
		if strings.TrimSpace(out.Email.IMAPHost) == "" {
			res.addErr("email.imap_host is required when email.enabled=true")
		}
		if out.Email.IMAPPort == 0 {
			res.addErr("email.imap_port is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Username) == "" {
			res.addErr("email.username is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Mailbox) == "" {
			res.addErr("email.mailbox is required when email.enabled=true")
		}
	}

	if out.Scraping.Enabled && len(out.Scraping.Boards) == 0 {
		res.addWarn("scraping.enabled is true but scraping.boards is empty; nothing will be fetched.")
	}

	return out, res
}
