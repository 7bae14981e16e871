package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

func Validate(cfg Config) error {
	var errs []string

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		errs = append(errs, "app.port must be 1..65535")
	}
	if cfg.Automation.CycleSeconds <= 0 {
		errs = append(errs, "automation.cycle_seconds must be > 0")
	}
	if cfg.Matching.MinScore < 0 || cfg.Matching.MinScore > 1 {
		errs = append(errs, "matching.min_score must be within 0..1")
	}
	if cfg.DailyLimits.Applications <= 0 {
		errs = append(errs, "daily_limits.applications must be > 0")
	}
	if cfg.DailyLimits.Outreach <= 0 {
		errs = append(errs, "daily_limits.outreach must be > 0")
	}
	if cfg.Submission.MaxConcurrent <= 0 {
		errs = append(errs, "submission.max_concurrent must be > 0")
	}
	switch m := cfg.Submission.DefaultMethod; m {
	case "", "direct_form", "email_apply", "external_link", "company_portal", "linkedin_easy", "indeed_quick":
	default:
		errs = append(errs, fmt.Sprintf("submission.default_method %q is not a known method", m))
	}
	if cfg.Retention.LogDays < 0 {
		errs = append(errs, "retention.log_days must be >= 0")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + joinLines(errs))
	}
	return nil
}

func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}

func joinLines(lines []string) string {
	out := ""
	for i, s := range lines {
		if i > 0 {
			out += "\n- "
		}
		out += s
	}
	return out
}
