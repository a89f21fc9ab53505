package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunpeak/dispatchd/core/agent"
)

func TestChatToolCallRoundTrip(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [{
					"id": "call_1",
					"type": "function",
					"function": {"name": "get_solar_forecast", "arguments": "{}"}
				}]
			}}]
		}`))
	}))
	defer srv.Close()

	cli, err := NewClient(Config{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-4o"})
	require.NoError(t, err)

	turn, err := cli.Chat(context.Background(),
		[]agent.Message{{Role: "user", Content: "dispatch advice"}},
		[]agent.ToolDef{{Name: "get_solar_forecast", Parameters: json.RawMessage(`{"type":"object"}`)}},
	)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", gotReq.Model)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "dispatch advice", gotReq.Messages[0].Content)
	require.Len(t, gotReq.Tools, 1)
	assert.Equal(t, "function", gotReq.Tools[0].Type)
	assert.Equal(t, "get_solar_forecast", gotReq.Tools[0].Function.Name)

	require.Len(t, turn.ToolCalls, 1)
	assert.Equal(t, "call_1", turn.ToolCalls[0].ID)
	assert.Equal(t, "get_solar_forecast", turn.ToolCalls[0].Name)
	assert.Empty(t, turn.Text)
}

func TestChatSerializesAssistantToolCalls(t *testing.T) {
	// A replayed assistant turn must carry its tool_calls on the wire or
	// the endpoint rejects the tool result that follows it.
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"done"}}]}`))
	}))
	defer srv.Close()

	cli, err := NewClient(Config{BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	_, err = cli.Chat(context.Background(), []agent.Message{
		{Role: "user", Content: "q"},
		{Role: "assistant", ToolCalls: []agent.ToolCall{{
			ID:        "call_1",
			Name:      "get_solar_forecast",
			Arguments: json.RawMessage(`{}`),
		}}},
		{Role: "tool", Name: "get_solar_forecast", ToolCallID: "call_1", Content: `{"mw":42.5}`},
	}, nil)
	require.NoError(t, err)

	require.Len(t, gotReq.Messages, 3)
	asst := gotReq.Messages[1]
	assert.Equal(t, "assistant", asst.Role)
	require.Len(t, asst.ToolCalls, 1)
	assert.Equal(t, "call_1", asst.ToolCalls[0].ID)
	assert.Equal(t, "function", asst.ToolCalls[0].Type)
	assert.Equal(t, "get_solar_forecast", asst.ToolCalls[0].Function.Name)
	assert.Equal(t, "{}", asst.ToolCalls[0].Function.Arguments)
	assert.Equal(t, "call_1", gotReq.Messages[2].ToolCallID)
}

func TestChatTextAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"charge now"}}]}`))
	}))
	defer srv.Close()

	cli, err := NewClient(Config{BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	turn, err := cli.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "charge now", turn.Text)
	assert.Empty(t, turn.ToolCalls)
}

func TestChatErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cli, err := NewClient(Config{BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	_, err = cli.Chat(context.Background(), nil, nil)
	assert.ErrorContains(t, err, "chat status 429")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer empty.Close()

	cli, err = NewClient(Config{BaseURL: empty.URL, Model: "m"})
	require.NoError(t, err)
	_, err = cli.Chat(context.Background(), nil, nil)
	assert.ErrorContains(t, err, "no choices")
}

func TestConfigValidate(t *testing.T) {
	_, err := NewClient(Config{Model: "m"})
	assert.ErrorContains(t, err, "base_url")
	_, err = NewClient(Config{BaseURL: "http://x"})
	assert.ErrorContains(t, err, "model")
}
