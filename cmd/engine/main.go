package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"jobhunterx-engine/internal/artifacts"
	"jobhunterx-engine/internal/config"
	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/events"
	"jobhunterx-engine/internal/feedback"
	"jobhunterx-engine/internal/httpapi"
	"jobhunterx-engine/internal/match"
	"jobhunterx-engine/internal/orchestrator"
	"jobhunterx-engine/internal/outreach"
	"jobhunterx-engine/internal/replypoll"
	"jobhunterx-engine/internal/scheduler"
	"jobhunterx-engine/internal/scrape"
	"jobhunterx-engine/internal/secrets"
	"jobhunterx-engine/internal/store"
	"jobhunterx-engine/internal/submit"
)

func main() {
	// Engine data dir: env if provided, else local folder.
	dataDir := os.Getenv("JOBHUNTERX_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// Quotas are advisory and the queue throttle is per-process; a second
	// engine on the same data dir would break both. Refuse to start one.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("instance lock: %v", err)
	}
	if !locked {
		log.Fatalf("another engine instance already owns %s", dataDir)
	}
	defer lock.Unlock()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		return config.Load(userCfgPath)
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "jobhunterx.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	hub := events.NewHub()

	rootCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	listenAddr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	selfBase := "http://" + listenAddr

	// Submission queue: direct_form is built in, the rest of the closed
	// method set stays not-implemented until a collaborator is wired.
	strategies := submit.Strategies{
		DirectForm: submit.NewFormStrategy(selfBase),
	}
	queue := submit.NewQueue(db, strategies,
		cfg.Submission.MaxConcurrent,
		time.Duration(cfg.Submission.MinStartIntervalSeconds)*time.Second)
	queue.Hub = hub
	go queue.Run(rootCtx)

	// Outreach scheduler and its sweeps.
	imapPassword := func() (string, error) {
		cur := cfgVal.Load().(config.Config)
		return secrets.GetIMAPPassword(secrets.IMAPKeyringAccount(cur))
	}
	senders := outreach.Senders{}
	if cfg.Email.Enabled {
		senders.Email = &outreach.SMTPSender{
			Host:     smtpHostFor(cfg.Email.IMAPHost),
			Port:     587,
			Username: cfg.Email.Username,
			From:     cfg.Email.Username,
			Password: imapPassword,
		}
	}
	sched := outreach.NewScheduler(db,
		outreach.StoreDirectory{DB: db},
		senders,
		outreach.TemplateComposer{CandidateName: candidateNameLookup(db)})
	sched.Hub = hub
	sched.MinResponseRate = cfg.Outreach.MinResponseRate
	sched.RecontactWindow = time.Duration(cfg.Outreach.RecontactDays) * 24 * time.Hour
	sched.DispatchGap = time.Duration(cfg.Outreach.DispatchGapSeconds) * time.Second

	go scheduler.Every(rootCtx, time.Duration(cfg.Outreach.SweepSeconds)*time.Second, "outreach", func(ctx context.Context) error {
		_, err := sched.ProcessDue(ctx)
		return err
	})
	go scheduler.Every(rootCtx, time.Duration(cfg.Outreach.FollowUpSweepSeconds)*time.Second, "followups", func(ctx context.Context) error {
		_, err := sched.ProcessFollowUps(ctx)
		return err
	})

	// Reply polling keeps replied_at fresh so follow-ups stop on answers.
	if cfg.Email.Enabled {
		poller := &replypoll.Poller{
			DB:       db,
			Host:     cfg.Email.IMAPHost,
			Port:     cfg.Email.IMAPPort,
			Username: cfg.Email.Username,
			Mailbox:  cfg.Email.Mailbox,
			Password: imapPassword,
			Hub:      hub,
		}
		go scheduler.Every(rootCtx, time.Duration(cfg.Email.PollSeconds)*time.Second, "replypoll", poller.Sweep)
	}

	var scraper orchestrator.Scraper
	if cfg.Scraping.Enabled {
		scraper = scrape.NewGreenhouse(db, cfg.Scraping.Boards, cfg.Scraping.PerHostRPS)
	}

	orch := orchestrator.New(db,
		orchestratorConfig(cfg),
		&match.StoreMatcher{DB: db},
		&artifacts.Generator{DB: db, Dir: filepath.Join(dataDir, "artifacts")},
		&artifacts.Generator{DB: db, Dir: filepath.Join(dataDir, "artifacts")},
		scraper,
		&feedback.Analyzer{DB: db},
		queue,
		sched)
	orch.Hub = hub

	mux := httpapi.NewMux(httpapi.Deps{
		DB:          db,
		Hub:         hub,
		Orch:        orch,
		Queue:       queue,
		Outreach:    sched,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
	})

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("[engine] listening on %s (db=%s)", selfBase, dbPath)

	srv := &http.Server{
		Handler: httpapi.Chain(mux,
			httpapi.RequestID,
			httpapi.Recover,
			httpapi.AccessLog,
			httpapi.Cors,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	token, err := randomToken(16)
	if err != nil {
		log.Fatalf("shutdown token: %v", err)
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))
	log.Printf("[engine] shutdown token: %s", token)

	err = srv.Serve(ln)
	if err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}

	// Stop new cycles first, then let background sweeps wind down. In-flight
	// submissions finish on their own detached contexts.
	orch.Stop()
	cancelBackground()
	log.Printf("[engine] bye")
}

func orchestratorConfig(cfg config.Config) orchestrator.Config {
	return orchestrator.Config{
		CycleInterval:           time.Duration(cfg.Automation.CycleSeconds) * time.Second,
		BatchSize:               cfg.Automation.BatchSize,
		ScrapeFreshness:         time.Duration(cfg.Automation.ScrapeFreshnessHours) * time.Hour,
		ScrapeMaxJobs:           cfg.Automation.ScrapeMaxJobs,
		MinScore:                cfg.Matching.MinScore,
		MaxMatches:              cfg.Matching.MaxMatches,
		ExcludeApplied:          time.Duration(cfg.Matching.ExcludeAppliedDays) * 24 * time.Hour,
		TailorTop:               cfg.Matching.TailorTop,
		MaxApplicationsPerCycle: cfg.Submission.PerCycleCap,
		MaxOutreachPerCycle:     cfg.Outreach.PerCycleCap,
		DailyApplications:       cfg.DailyLimits.Applications,
		DailyOutreach:           cfg.DailyLimits.Outreach,
		DefaultMethod:           domain.ApplicationMethod(cfg.Submission.DefaultMethod),
		Tone:                    cfg.Outreach.Tone,
		LogRetention:            time.Duration(cfg.Retention.LogDays) * 24 * time.Hour,
	}
}
