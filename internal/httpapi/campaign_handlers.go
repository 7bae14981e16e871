package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"jobhunterx-engine/internal/domain"
	"jobhunterx-engine/internal/outreach"
	"jobhunterx-engine/internal/store"
)

type CampaignsHandler struct {
	DB       *sql.DB
	Outreach *outreach.Scheduler
}

type createCampaignReq struct {
	CandidateID          string   `json:"candidate_id"`
	Name                 string   `json:"name"`
	TargetCompanies      []string `json:"target_companies"`
	TargetLocations      []string `json:"target_locations"`
	TargetRoles          []string `json:"target_roles"`
	Channels             []string `json:"channels"`
	DailyLimit           int      `json:"daily_limit"`
	DelaySeconds         int      `json:"delay_seconds"`
	Tone                 string   `json:"tone"`
	AutoFollowUp         bool     `json:"auto_follow_up"`
	MaxFollowUps         int      `json:"max_follow_ups"`
	FollowUpDelaySeconds int      `json:"follow_up_delay_seconds"`
}

func (h CampaignsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCampaignReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if req.CandidateID == "" {
		WriteError(w, r, http.StatusBadRequest, "missing_field", "candidate_id is required")
		return
	}

	c := domain.Campaign{
		CandidateID:          req.CandidateID,
		Name:                 req.Name,
		TargetCompanies:      req.TargetCompanies,
		TargetLocations:      req.TargetLocations,
		TargetRoles:          req.TargetRoles,
		DailyLimit:           req.DailyLimit,
		DelayBetweenMessages: time.Duration(req.DelaySeconds) * time.Second,
		Tone:                 req.Tone,
		AutoFollowUp:         req.AutoFollowUp,
		MaxFollowUps:         req.MaxFollowUps,
		FollowUpDelay:        time.Duration(req.FollowUpDelaySeconds) * time.Second,
	}
	for _, ch := range req.Channels {
		switch domain.Channel(ch) {
		case domain.ChannelLinkedIn, domain.ChannelEmail:
			c.Channels = append(c.Channels, domain.Channel(ch))
		default:
			WriteError(w, r, http.StatusBadRequest, "unknown_channel", "unknown channel: "+ch)
			return
		}
	}

	id, err := h.Outreach.CreateCampaign(r.Context(), c)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "create_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// ControlByPath expects /campaigns/{id}/{start|pause|resume|stop}.
func (h CampaignsHandler) ControlByPath(w http.ResponseWriter, r *http.Request) {
	id, verb, ok := splitCampaignPath(r.URL.Path)
	if !ok {
		WriteError(w, r, http.StatusNotFound, "not_found", "unknown path")
		return
	}

	var err error
	switch verb {
	case "start":
		err = h.Outreach.StartCampaign(r.Context(), id)
	case "pause":
		err = h.Outreach.PauseCampaign(r.Context(), id)
	case "resume":
		err = h.Outreach.ResumeCampaign(r.Context(), id)
	case "stop":
		err = h.Outreach.StopCampaign(r.Context(), id)
	default:
		WriteError(w, r, http.StatusNotFound, "not_found", "unknown campaign action")
		return
	}
	if errors.Is(err, sql.ErrNoRows) {
		WriteError(w, r, http.StatusNotFound, "not_found", "campaign not found")
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "control_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"id": id, "action": verb})
}

// GetByPath serves /campaigns/{id} and /campaigns/{id}/analytics.
func (h CampaignsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/campaigns/")
	if id, ok := strings.CutSuffix(rest, "/analytics"); ok && id != "" && !strings.Contains(id, "/") {
		a, err := h.Outreach.CampaignAnalytics(r.Context(), id)
		if errors.Is(err, sql.ErrNoRows) {
			WriteError(w, r, http.StatusNotFound, "not_found", "campaign not found")
			return
		}
		if err != nil {
			WriteError(w, r, http.StatusInternalServerError, "analytics_failed", err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, a)
		return
	}

	if rest == "" || strings.Contains(rest, "/") {
		WriteError(w, r, http.StatusNotFound, "not_found", "unknown path")
		return
	}
	c, err := store.GetCampaign(r.Context(), h.DB, rest)
	if errors.Is(err, sql.ErrNoRows) {
		WriteError(w, r, http.StatusNotFound, "not_found", "campaign not found")
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "lookup_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, campaignView(c))
}

func splitCampaignPath(p string) (id, verb string, ok bool) {
	rest := strings.TrimPrefix(p, "/campaigns/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

type campaignResp struct {
	ID           string     `json:"id"`
	CandidateID  string     `json:"candidate_id"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	DailyLimit   int        `json:"daily_limit"`
	DelaySeconds int        `json:"delay_seconds"`
	Tone         string     `json:"tone"`
	AutoFollowUp bool       `json:"auto_follow_up"`
	MaxFollowUps int        `json:"max_follow_ups"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

func campaignView(c domain.Campaign) campaignResp {
	return campaignResp{
		ID:           c.ID,
		CandidateID:  c.CandidateID,
		Name:         c.Name,
		Status:       string(c.Status),
		DailyLimit:   c.DailyLimit,
		DelaySeconds: int(c.DelayBetweenMessages / time.Second),
		Tone:         c.Tone,
		AutoFollowUp: c.AutoFollowUp,
		MaxFollowUps: c.MaxFollowUps,
		CreatedAt:    c.CreatedAt,
		StartedAt:    c.StartedAt,
		EndedAt:      c.EndedAt,
	}
}
