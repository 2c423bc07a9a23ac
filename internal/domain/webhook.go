// Package domain holds the payloads exchanged with the external workflow
// engine's webhook.
package domain

import (
	"encoding/json"

	"change-intake-service/internal/formrules"
)

// ChatRequest is a chat message sent to the workflow engine.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Email     string `json:"email,omitempty"`
	Source    string `json:"source,omitempty"`
}

// ChatReply is the workflow engine's answer to chat messages and submissions.
type ChatReply struct {
	ReplyText     string        `json:"reply_text"`
	Status        SessionStatus `json:"status"`
	SessionID     string        `json:"session_id"`
	MissingFields []string      `json:"missing_fields,omitempty"`
}

// Classification is the questionnaire result stored with a session.
type Classification struct {
	formrules.Answers
	ProjectClass formrules.Tier `json:"projectClass,omitempty"`
}

// AutosaveRequest mirrors one or more field edits to the workflow engine.
// Field keys are external keys.
type AutosaveRequest struct {
	SessionID      string            `json:"session_id"`
	FieldUpdate    map[string]string `json:"field_update"`
	Source         string            `json:"source"`
	Classification *Classification   `json:"classification,omitempty"`
	ProjectClass   formrules.Tier    `json:"projectClass,omitempty"`
}

// AutosaveResult is reported to the caller of an autosave. It is always
// usable: failures set Success to false and carry a message.
type AutosaveResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// LoadSessionRequest asks the workflow engine for a stored session.
type LoadSessionRequest struct {
	SessionID string `json:"session_id"`
	Source    string `json:"source"`
	Message   string `json:"message"`
}

// SessionSnapshot is the stored state of a session as the workflow engine
// returns it. Answers are keyed by external keys.
type SessionSnapshot struct {
	SessionID             string        `json:"session_id"`
	Answers               JSONObject    `json:"answers"`
	ProjectClassification JSONObject    `json:"project_classification"`
	Status                SessionStatus `json:"status"`
	MissingFields         []string      `json:"missing_fields"`
	RequesterEmail        string        `json:"requester_email,omitempty"`
	Warning               string        `json:"_warning,omitempty"`
}

// NewSessionSnapshot returns the snapshot of a session the engine does not know.
func NewSessionSnapshot(sessionID, warning string) SessionSnapshot {
	return SessionSnapshot{
		SessionID:             sessionID,
		Answers:               NewJSONObject(map[string]any{}),
		ProjectClassification: NewJSONObject(map[string]any{}),
		Status:                StatusNew,
		MissingFields:         []string{},
		Warning:               warning,
	}
}

// SubmissionRequest carries a complete, externally keyed form.
type SubmissionRequest struct {
	SessionID string                    `json:"session_id"`
	Email     string                    `json:"email"`
	Message   string                    `json:"message"`
	FormData  formrules.ExternalPayload `json:"formData"`
	Source    string                    `json:"source"`
}
