package agent

import (
	"context"
	"encoding/json"
)

// Message is one turn element of a model conversation. Assistant messages
// that requested tools carry their ToolCalls so the turn can be replayed to
// the endpoint; chat-completions servers reject a tool result whose
// preceding assistant message does not declare the matching call.
type Message struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolDef describes a callable tool to the model.
type ToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Turn is one model response: free text, tool calls, or both.
type Turn struct {
	Text      string
	ToolCalls []ToolCall
}

// LLM is the language-model client used to narrate recommendations. A nil
// LLM switches the agent to the offline pipeline.
type LLM interface {
	Chat(ctx context.Context, messages []Message, tools []ToolDef) (Turn, error)
}
