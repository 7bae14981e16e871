package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"jobhunterx-engine/internal/orchestrator"
)

type AutomationHandler struct {
	Orch *orchestrator.Orchestrator
}

func (h AutomationHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.Orch.Start(); err != nil {
		if errors.Is(err, orchestrator.ErrAlreadyRunning) {
			WriteError(w, r, http.StatusConflict, "already_running", "automation is already running")
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "start_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"running": true})
}

func (h AutomationHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.Orch.Stop()
	WriteJSON(w, http.StatusOK, map[string]any{"running": false})
}

func (h AutomationHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Orch.Status())
}

// RunCandidateByPath expects /automation/candidates/{id}/run.
func (h AutomationHandler) RunCandidateByPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/automation/candidates/")
	id, ok := strings.CutSuffix(rest, "/run")
	if !ok || id == "" || strings.Contains(id, "/") {
		WriteError(w, r, http.StatusNotFound, "not_found", "unknown path")
		return
	}

	ok, err := h.Orch.RunCandidate(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		WriteError(w, r, http.StatusNotFound, "not_found", "candidate not found")
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "run_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"completed": ok})
}
