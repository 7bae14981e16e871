package events

import (
	"encoding/json"
	"time"
)

// Event names published over the SSE stream.
const (
	TypeAutomationStarted  = "automation_started"
	TypeAutomationStopped  = "automation_stopped"
	TypeAutomationCritical = "automation_critical"
	TypeCycleComplete      = "cycle_complete"
	TypeApplicationQueued  = "application_queued"
	TypeApplicationSent    = "application_sent"
	TypeApplicationError   = "application_error"
	TypeOutreachSent       = "outreach_sent"
	TypeOutreachFailed     = "outreach_failed"
	TypeOutreachReplied    = "outreach_replied"
	TypeCampaignStarted    = "campaign_started"
	TypeConfigUpdated      = "config_updated"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
