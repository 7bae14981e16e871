package httpapi

import (
	"database/sql"
	"sync/atomic"

	"jobhunterx-engine/internal/config"
	"jobhunterx-engine/internal/events"
	"jobhunterx-engine/internal/orchestrator"
	"jobhunterx-engine/internal/outreach"
	"jobhunterx-engine/internal/submit"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	Orch     *orchestrator.Orchestrator
	Queue    *submit.Queue
	Outreach *outreach.Scheduler

	// CfgVal stores config.Config; handlers always read the live snapshot.
	CfgVal *atomic.Value

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
}
