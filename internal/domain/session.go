package domain

import (
	"bytes"
	"encoding/json"
)

// SessionStatus is the conversation state reported by the workflow engine.
// The service passes it through without interpreting it.
type SessionStatus string

// SessionStatus constants
const (
	StatusOpen               SessionStatus = "open"
	StatusWaitingForApproval SessionStatus = "waiting_for_approval"
	StatusConfirmed          SessionStatus = "confirmed"
	StatusMaxRoundsReached   SessionStatus = "max_rounds_reached"
	StatusError              SessionStatus = "error"
	StatusInfo               SessionStatus = "info"
	StatusNew                SessionStatus = "new"
)

// Request sources understood by the workflow engine
const (
	SourceChat        = "chat"
	SourceForm        = "form"
	SourceAutosave    = "form_autosave"
	SourceLoadSession = "load_session"
)

// JSONObject holds a JSON object that the workflow engine sends either as a
// nested object or as a JSON-encoded string. Decoding never fails: anything
// that is not an object, or a string containing one, becomes an empty object.
type JSONObject struct {
	// Raw is the original string when the value arrived JSON-encoded.
	Raw    string
	Parsed map[string]any
}

// NewJSONObject wraps an already decoded object.
func NewJSONObject(m map[string]any) JSONObject {
	return JSONObject{Parsed: m}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *JSONObject) UnmarshalJSON(data []byte) error {
	*o = JSONObject{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '{':
		var m map[string]any
		if err := json.Unmarshal(data, &m); err == nil {
			o.Parsed = m
		}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		o.Raw = s
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err == nil {
			o.Parsed = m
		}
	}
	return nil
}

// MarshalJSON always writes the parsed object.
func (o JSONObject) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Map())
}

// Map returns the decoded object, never nil.
func (o JSONObject) Map() map[string]any {
	if o.Parsed == nil {
		return map[string]any{}
	}
	return o.Parsed
}

// WasEncoded reports whether the value arrived as a JSON-encoded string.
func (o JSONObject) WasEncoded() bool {
	return o.Raw != ""
}

// Empty reports whether the object has no entries.
func (o JSONObject) Empty() bool {
	return len(o.Parsed) == 0
}

// String returns the value stored under key when it is a non-empty string.
func (o JSONObject) String(key string) string {
	if s, ok := o.Parsed[key].(string); ok {
		return s
	}
	return ""
}
