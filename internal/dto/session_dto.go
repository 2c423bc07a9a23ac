package dto

import (
	"change-intake-service/internal/domain"
	"change-intake-service/internal/formrules"
)

// CreateSessionResponse returns a freshly generated session id
type CreateSessionResponse struct {
	SessionID string `json:"session_id" example:"chat_0f8fad5b-d9cb-469f-a165-70867728950e"`
}

// ChatMessageRequest is a chat message from the requester. Context is the
// optional state of the form the requester is looking at.
type ChatMessageRequest struct {
	SessionID string       `json:"session_id"`
	Message   string       `json:"message"`
	Email     string       `json:"email,omitempty"`
	Context   *FormContext `json:"context,omitempty"`
}

// FormContext describes where in the form a chat question was asked
type FormContext struct {
	ProjectClass   formrules.Tier       `json:"projectClass"`
	CurrentSection string               `json:"currentSection,omitempty"`
	CurrentField   string               `json:"currentField,omitempty"`
	FormValues     formrules.FormValues `json:"formValues,omitempty"`
}

// AutosaveRequest is a field edit. Either Field and Value or FieldUpdate is
// set; both may be.
type AutosaveRequest struct {
	SessionID      string                 `json:"session_id"`
	Field          string                 `json:"field,omitempty"`
	Value          *string                `json:"value,omitempty"`
	FieldUpdate    map[string]string      `json:"field_update,omitempty"`
	Source         string                 `json:"source,omitempty"`
	Classification *domain.Classification `json:"classification,omitempty"`
	ProjectClass   formrules.Tier         `json:"projectClass,omitempty"`
}

// SessionResponse is a loaded session with its answers translated back to
// internal field ids
type SessionResponse struct {
	SessionID      string               `json:"session_id"`
	Status         domain.SessionStatus `json:"status"`
	ProjectClass   formrules.Tier       `json:"projectClass,omitempty"`
	Classification *formrules.Answers   `json:"classification,omitempty"`
	Values         formrules.FormValues `json:"values"`
	Answers        map[string]any       `json:"answers"`
	MissingFields  []string             `json:"missing_fields"`
	RequesterEmail string               `json:"requester_email,omitempty"`
	Warning        string               `json:"warning,omitempty"`
	Cached         bool                 `json:"cached"`
}

// SubmitRequest is a complete form submission
type SubmitRequest struct {
	Email               string               `json:"email"`
	ProjectClass        string               `json:"projectClass"`
	Classification      *formrules.Answers   `json:"classification,omitempty"`
	Values              formrules.FormValues `json:"values"`
	AcknowledgeWarnings bool                 `json:"acknowledge_warnings"`
}

// SubmitResponse reports a forwarded submission
type SubmitResponse struct {
	ProjectClass formrules.Tier   `json:"projectClass"`
	Reply        domain.ChatReply `json:"reply"`
	// Issues holds the non-blocking findings the requester acknowledged.
	Issues formrules.Issues `json:"issues"`
}
