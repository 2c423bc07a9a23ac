package service

import (
	"context"
	"encoding/json"
	"sync"
)

// MockWebhookClient is a mock implementation of client.WebhookClient
type MockWebhookClient struct {
	PostFunc  func(ctx context.Context, payload interface{}) (json.RawMessage, error)
	ProbeFunc func(ctx context.Context) error
	URLValue  string

	mu       sync.Mutex
	payloads []json.RawMessage
}

func (m *MockWebhookClient) Post(ctx context.Context, payload interface{}) (json.RawMessage, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.payloads = append(m.payloads, encoded)
	m.mu.Unlock()

	if m.PostFunc != nil {
		return m.PostFunc(ctx, payload)
	}
	return json.RawMessage(`{"reply_text":"ok","status":"open"}`), nil
}

func (m *MockWebhookClient) Probe(ctx context.Context) error {
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx)
	}
	return nil
}

func (m *MockWebhookClient) URL() string {
	if m.URLValue == "" {
		return "http://n8n.test/webhook/change-chat"
	}
	return m.URLValue
}

// Calls returns how many payloads were posted.
func (m *MockWebhookClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}

// LastPayload decodes the most recent payload into a generic map.
func (m *MockWebhookClient) LastPayload() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.payloads) == 0 {
		return nil
	}
	var out map[string]interface{}
	_ = json.Unmarshal(m.payloads[len(m.payloads)-1], &out)
	return out
}

func rawJSON(s string) func(ctx context.Context, payload interface{}) (json.RawMessage, error) {
	return func(ctx context.Context, payload interface{}) (json.RawMessage, error) {
		return json.RawMessage(s), nil
	}
}

func failWith(err error) func(ctx context.Context, payload interface{}) (json.RawMessage, error) {
	return func(ctx context.Context, payload interface{}) (json.RawMessage, error) {
		return nil, err
	}
}
