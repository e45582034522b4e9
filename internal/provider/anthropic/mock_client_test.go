package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

// MockAnthropicClient is a mock implementation of AnthropicClient for testing.
type MockAnthropicClient struct {
	NewMessageFunc       func(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
	NewMessageStreamFunc func(ctx context.Context, params anthropic.MessageNewParams) MessageStream
	ListModelsFunc       func(ctx context.Context) ([]anthropic.ModelInfo, error)
}

func (m *MockAnthropicClient) NewMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	if m.NewMessageFunc != nil {
		return m.NewMessageFunc(ctx, params)
	}
	return nil, errors.New("NewMessageFunc not set")
}

func (m *MockAnthropicClient) NewMessageStream(ctx context.Context, params anthropic.MessageNewParams) MessageStream {
	if m.NewMessageStreamFunc != nil {
		return m.NewMessageStreamFunc(ctx, params)
	}
	return &mockStream{err: errors.New("NewMessageStreamFunc not set")}
}

func (m *MockAnthropicClient) ListModels(ctx context.Context) ([]anthropic.ModelInfo, error) {
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return nil, errors.New("ListModelsFunc not set")
}

// mockStream replays decoded SSE events, then reports err.
type mockStream struct {
	events []anthropic.MessageStreamEventUnion
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

func (s *mockStream) Current() anthropic.MessageStreamEventUnion { return s.events[s.pos-1] }
func (s *mockStream) Err() error                                 { return s.err }

func (s *mockStream) Close() error {
	s.closed = true
	return nil
}

// newStream decodes raw SSE event payloads the way the SDK does, so the
// union accessors see the same JSON they would in production.
func newStream(t *testing.T, payloads ...string) *mockStream {
	t.Helper()
	s := &mockStream{}
	for _, raw := range payloads {
		var ev anthropic.MessageStreamEventUnion
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			t.Fatalf("decode event %s: %v", raw, err)
		}
		s.events = append(s.events, ev)
	}
	return s
}

func decodeMessage(t *testing.T, raw string) *anthropic.Message {
	t.Helper()
	var msg anthropic.Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	return &msg
}

// paramsJSON renders request params as the generic JSON the API receives.
func paramsJSON(t *testing.T, params anthropic.MessageNewParams) map[string]any {
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
	evMessageStart = `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-7-sonnet-20250219","content":[],"stop_reason":null,"usage":{"input_tokens":12,"output_tokens":1}}}`
	evMessageStop  = `{"type":"message_stop"}`
)

func evTextStart(index int) string {
	return fmt.Sprintf(`{"type":"content_block_start","index":%d,"content_block":{"type":"text","text":""}}`, index)
}

func evTextDelta(index int, text string) string {
	return fmt.Sprintf(`{"type":"content_block_delta","index":%d,"delta":{"type":"text_delta","text":%s}}`, index, jsonString(text))
}

func evToolStart(index int, id, name string) string {
	return fmt.Sprintf(`{"type":"content_block_start","index":%d,"content_block":{"type":"tool_use","id":%s,"name":%s,"input":{}}}`, index, jsonString(id), jsonString(name))
}

func evJSONDelta(index int, partial string) string {
	return fmt.Sprintf(`{"type":"content_block_delta","index":%d,"delta":{"type":"input_json_delta","partial_json":%s}}`, index, jsonString(partial))
}

func evBlockStop(index int) string {
	return fmt.Sprintf(`{"type":"content_block_stop","index":%d}`, index)
}

func evMessageDelta(stopReason string, outputTokens int) string {
	return fmt.Sprintf(`{"type":"message_delta","delta":{"stop_reason":%s,"stop_sequence":null},"usage":{"output_tokens":%d}}`, jsonString(stopReason), outputTokens)
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
