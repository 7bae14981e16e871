package httpapi

import "net/http"

// NewMux returns the raw mux so main() can still attach /shutdown (needs
// srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{DB: d.DB}.Health,
	}))

	// Automation control
	ah := AutomationHandler{Orch: d.Orch}
	mux.HandleFunc("/automation/start", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ah.Start,
	}))
	mux.HandleFunc("/automation/stop", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ah.Stop,
	}))
	mux.HandleFunc("/automation/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ah.Status,
	}))
	mux.HandleFunc("/automation/candidates/", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ah.RunCandidateByPath, // expects /automation/candidates/{id}/run
	}))

	// Manual submissions
	aph := ApplicationsHandler{DB: d.DB, Queue: d.Queue, CfgVal: d.CfgVal}
	mux.HandleFunc("/applications", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: aph.Enqueue,
	}))
	mux.HandleFunc("/applications/queue", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: aph.QueueStats,
	}))

	// Outreach campaigns
	ch := CampaignsHandler{DB: d.DB, Outreach: d.Outreach}
	mux.HandleFunc("/campaigns", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ch.Create,
	}))
	mux.HandleFunc("/campaigns/", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ch.ControlByPath, // /campaigns/{id}/{start|pause|resume|stop}
		http.MethodGet:  ch.GetByPath,     // /campaigns/{id} or /campaigns/{id}/analytics
	}))

	// Config
	cfh := ConfigHandler{
		CfgVal:      d.CfgVal,
		Hub:         d.Hub,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cfh.Get,
		http.MethodPut: cfh.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cfh.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: cfh.Validate,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal, Hub: d.Hub}
	mux.HandleFunc("/api/secrets/imap", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetIMAPPassword,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}
