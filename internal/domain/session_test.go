package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONObject_Unmarshal(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[string]any
		wantEncoded bool
	}{
		{"object", `{"stichpunkte":"a"}`, map[string]any{"stichpunkte": "a"}, false},
		{"encoded object", `"{\"stichpunkte\":\"a\"}"`, map[string]any{"stichpunkte": "a"}, true},
		{"encoded garbage", `"not json"`, map[string]any{}, true},
		{"encoded array", `"[1,2]"`, map[string]any{}, true},
		{"null", `null`, map[string]any{}, false},
		{"number", `42`, map[string]any{}, false},
		{"array", `["a"]`, map[string]any{}, false},
		{"empty string", `""`, map[string]any{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var holder struct {
				Answers JSONObject `json:"answers"`
			}
			err := json.Unmarshal([]byte(`{"answers":`+tt.input+`}`), &holder)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, holder.Answers.Map())
			assert.Equal(t, tt.wantEncoded, holder.Answers.WasEncoded())
		})
	}
}

func TestJSONObject_MissingFieldIsEmpty(t *testing.T) {
	var snapshot SessionSnapshot
	require.NoError(t, json.Unmarshal([]byte(`{"session_id":"s","status":"open"}`), &snapshot))

	assert.True(t, snapshot.Answers.Empty())
	assert.Equal(t, map[string]any{}, snapshot.ProjectClassification.Map())
	assert.Equal(t, StatusOpen, snapshot.Status)
}

func TestJSONObject_MarshalWritesObject(t *testing.T) {
	var o JSONObject
	require.NoError(t, json.Unmarshal([]byte(`"{\"projectClass\":\"mini\"}"`), &o))
	assert.Equal(t, "mini", o.String("projectClass"))
	assert.Equal(t, "", o.String("missing"))

	out, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, `{"projectClass":"mini"}`, string(out))

	out, err = json.Marshal(JSONObject{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(out))
}

func TestNewSessionSnapshot(t *testing.T) {
	snapshot := NewSessionSnapshot("chat_1", "engine unreachable")

	out, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"session_id": "chat_1",
		"answers": {},
		"project_classification": {},
		"status": "new",
		"missing_fields": [],
		"_warning": "engine unreachable"
	}`, string(out))
}
