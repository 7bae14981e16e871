package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// EnsureUserConfig makes sure <dataDir>/config.yml exists: copies the shipped
// default when present, otherwise writes the built-in defaults.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	src, err := os.Open(defaultPath)
	if errors.Is(err, os.ErrNotExist) {
		if err := SaveAtomic(userPath, Defaults()); err != nil {
			return "", err
		}
		return userPath, nil
	}
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(userPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return userPath, nil
}

// Defaults returns the documented default configuration.
func Defaults() Config {
	var c Config
	c.App.Port = 8765
	c.App.DataDir = ""

	c.Automation.CycleSeconds = 300
	c.Automation.BatchSize = 10
	c.Automation.ScrapeFreshnessHours = 2
	c.Automation.ScrapeMaxJobs = 50

	c.Matching.MinScore = 0.7
	c.Matching.MaxMatches = 10
	c.Matching.ExcludeAppliedDays = 7
	c.Matching.TailorTop = 3

	c.DailyLimits.Applications = 50
	c.DailyLimits.Outreach = 20

	c.Submission.MaxConcurrent = 3
	c.Submission.MinStartIntervalSeconds = 2
	c.Submission.PerCycleCap = 2
	c.Submission.DefaultMethod = "direct_form"

	c.Outreach.SweepSeconds = 60
	c.Outreach.DispatchGapSeconds = 1
	c.Outreach.FollowUpSweepSeconds = 300
	c.Outreach.MinResponseRate = 0.3
	c.Outreach.RecontactDays = 30
	c.Outreach.PerCycleCap = 3
	c.Outreach.Tone = "professional"

	c.Email.Enabled = false
	c.Email.IMAPHost = "imap.gmail.com"
	c.Email.IMAPPort = 993
	c.Email.Mailbox = "INBOX"
	c.Email.PollSeconds = 120

	c.Scraping.Enabled = false
	c.Scraping.PerHostRPS = 0.5

	c.Retention.LogDays = 30
	return c
}
