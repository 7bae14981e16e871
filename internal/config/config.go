package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Automation struct {
		CycleSeconds         int `yaml:"cycle_seconds"`
		BatchSize            int `yaml:"batch_size"`
		ScrapeFreshnessHours int `yaml:"scrape_freshness_hours"`
		ScrapeMaxJobs        int `yaml:"scrape_max_jobs"`
	} `yaml:"automation"`

	Matching struct {
		MinScore           float64 `yaml:"min_score"`
		MaxMatches         int     `yaml:"max_matches"`
		ExcludeAppliedDays int     `yaml:"exclude_applied_days"`
		TailorTop          int     `yaml:"tailor_top"`
	} `yaml:"matching"`

	DailyLimits struct {
		Applications int `yaml:"applications"`
		Outreach     int `yaml:"outreach"`
	} `yaml:"daily_limits"`

	Submission struct {
		MaxConcurrent           int    `yaml:"max_concurrent"`
		MinStartIntervalSeconds int    `yaml:"min_start_interval_seconds"`
		PerCycleCap             int    `yaml:"per_cycle_cap"`
		DefaultMethod           string `yaml:"default_method"`
	} `yaml:"submission"`

	Outreach struct {
		SweepSeconds         int     `yaml:"sweep_seconds"`
		DispatchGapSeconds   int     `yaml:"dispatch_gap_seconds"`
		FollowUpSweepSeconds int     `yaml:"follow_up_sweep_seconds"`
		MinResponseRate      float64 `yaml:"min_response_rate"`
		RecontactDays        int     `yaml:"recontact_days"`
		PerCycleCap          int     `yaml:"per_cycle_cap"`
		Tone                 string  `yaml:"tone"`
	} `yaml:"outreach"`

	Email struct {
		Enabled     bool   `yaml:"enabled"`
		IMAPHost    string `yaml:"imap_host"`
		IMAPPort    int    `yaml:"imap_port"`
		Username    string `yaml:"username"`
		Mailbox     string `yaml:"mailbox"`
		PollSeconds int    `yaml:"poll_seconds"`
	} `yaml:"email"`

	Scraping struct {
		Enabled    bool     `yaml:"enabled"`
		Boards     []string `yaml:"boards"`
		PerHostRPS float64  `yaml:"per_host_rps"`
	} `yaml:"scraping"`

	Retention struct {
		LogDays int `yaml:"log_days"`
	} `yaml:"retention"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
