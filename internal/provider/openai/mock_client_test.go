package openai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/openai/openai-go/v3/responses"
)

// MockOpenAIClient is a mock implementation of OpenAIClient for testing.
type MockOpenAIClient struct {
	NewResponseFunc       func(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error)
	NewResponseStreamFunc func(ctx context.Context, params responses.ResponseNewParams) EventStream
	ListModelsFunc        func(ctx context.Context) ([]string, error)
}

func (m *MockOpenAIClient) NewResponse(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	if m.NewResponseFunc != nil {
		return m.NewResponseFunc(ctx, params)
	}
	return nil, errors.New("NewResponseFunc not set")
}

func (m *MockOpenAIClient) NewResponseStream(ctx context.Context, params responses.ResponseNewParams) EventStream {
	if m.NewResponseStreamFunc != nil {
		return m.NewResponseStreamFunc(ctx, params)
	}
	return &mockStream{err: errors.New("NewResponseStreamFunc not set")}
}

func (m *MockOpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return nil, errors.New("ListModelsFunc not set")
}

type mockStream struct {
	events []responses.ResponseStreamEventUnion
	pos    int
	err    error
	closed bool
}

func (s *mockStream) Next() bool {
	if s.pos >= len(s.events) {
		return false
	}
	s.pos++
	return true
}

func (s *mockStream) Current() responses.ResponseStreamEventUnion { return s.events[s.pos-1] }
func (s *mockStream) Err() error                                  { return s.err }

func (s *mockStream) Close() error {
	s.closed = true
	return nil
}

func newStream(t *testing.T, payloads ...string) *mockStream {
	t.Helper()
	s := &mockStream{}
	for _, raw := range payloads {
		var ev responses.ResponseStreamEventUnion
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			t.Fatalf("decode event %s: %v", raw, err)
		}
		s.events = append(s.events, ev)
	}
	return s
}

func decodeResponse(t *testing.T, raw string) *responses.Response {
	t.Helper()
	var resp responses.Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return &resp
}

func paramsJSON(t *testing.T, params responses.ResponseNewParams) map[string]any {
	t.Helper()
	data, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal params: %v", err)
	}
	return out
}

const (
	evCompleted = `{"type":"response.completed","sequence_number":9,"response":{"id":"resp_1","object":"response","created_at":0,"model":"gpt-4o","output":[],"status":"completed","usage":{"input_tokens":10,"output_tokens":4,"total_tokens":14}}}`
	evFailed    = `{"type":"response.failed","sequence_number":3,"response":{"id":"resp_1","object":"response","created_at":0,"model":"gpt-4o","output":[],"status":"failed","error":{"code":"server_error","message":"model crashed"}}}`
)

func evTextDelta(text string) string {
	b, _ := json.Marshal(text)
	return `{"type":"response.output_text.delta","item_id":"msg_1","output_index":0,"content_index":0,"sequence_number":1,"delta":` + string(b) + `}`
}

func evFunctionCallDone(callID, name, args string) string {
	a, _ := json.Marshal(args)
	return `{"type":"response.output_item.done","output_index":1,"sequence_number":5,"item":{"type":"function_call","id":"fc_` + callID + `","call_id":"` + callID + `","name":"` + name + `","arguments":` + string(a) + `,"status":"completed"}}`
}
