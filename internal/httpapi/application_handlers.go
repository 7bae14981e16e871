package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"jobhunterx-engine/internal/config"
	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/store"
	"jobhunterx-engine/internal/submit"
)

type ApplicationsHandler struct {
	DB     *sql.DB
	Queue  *submit.Queue
	CfgVal *atomic.Value
}

type enqueueReq struct {
	CandidateID     string `json:"candidate_id"`
	JobID           string `json:"job_id"`
	ResumeVersionID string `json:"resume_version_id"`
	CoverLetterID   string `json:"cover_letter_id"`
	Method          string `json:"method"`
}

// Enqueue accepts a manual submission request and hands it to the queue. The
// queue never rejects; the response only confirms acceptance.
func (h ApplicationsHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if req.CandidateID == "" || req.JobID == "" {
		WriteError(w, r, http.StatusBadRequest, "missing_field", "candidate_id and job_id are required")
		return
	}

	job, err := store.GetPosting(r.Context(), h.DB, req.JobID)
	if errors.Is(err, sql.ErrNoRows) {
		WriteError(w, r, http.StatusNotFound, "not_found", "job posting not found")
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "lookup_failed", err.Error())
		return
	}

	method := domain.ApplicationMethod(req.Method)
	if req.Method == "" {
		cfg := h.CfgVal.Load().(config.Config)
		method = domain.ApplicationMethod(cfg.Submission.DefaultMethod)
	}
	if !validMethod(method) {
		WriteError(w, r, http.StatusBadRequest, "unknown_method", "unknown application method")
		return
	}

	h.Queue.Enqueue(submit.Request{
		CandidateID:     req.CandidateID,
		Job:             job,
		ResumeVersionID: req.ResumeVersionID,
		CoverLetterID:   req.CoverLetterID,
		Method:          method,
	})
	WriteJSON(w, http.StatusAccepted, map[string]any{"queued": true, "depth": h.Queue.Depth()})
}

func (h ApplicationsHandler) QueueStats(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Queue.Stats())
}

func validMethod(m domain.ApplicationMethod) bool {
	for _, known := range domain.Methods() {
		if m == known {
			return true
		}
	}
	return false
}
