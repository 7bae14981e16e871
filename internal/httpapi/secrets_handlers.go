package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"

	"jobhunterx-engine/internal/config"
	"jobhunterx-engine/internal/events"
	"jobhunterx-engine/internal/secrets"
)

// SecretsHandler writes credentials into the OS keyring. Secrets never touch
// the config file or the database.
type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
	Hub    *events.Hub   // optional
}

func (h SecretsHandler) SetIMAPPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	if strings.TrimSpace(req.Password) == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_password", "password must not be empty")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	if err := secrets.SetIMAPPassword(secrets.IMAPKeyringAccount(cfg), req.Password); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_error", "failed to store password: "+err.Error())
		return
	}
	if h.Hub != nil {
		h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeConfigUpdated, 1,
			map[string]string{"secret": "imap_password"}))
	}
	w.WriteHeader(http.StatusNoContent)
}
