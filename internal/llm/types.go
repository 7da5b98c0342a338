package llm

import "encoding/json"

// Message represents a single message in a chat conversation.
// Tool-role messages carry the ToolCallID of the call they answer.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// Tool declares a function the model may invoke during a conversation.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction describes a callable function and its JSON-schema parameters.
type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall holds the name and raw JSON arguments of a requested call.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Completion is the normalized result of one chat completion call.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
}

// HasToolCalls reports whether the model requested any tool invocations.
func (c Completion) HasToolCalls() bool {
	return len(c.ToolCalls) > 0
}

// ChatParams holds parameters for chat completion requests.
type ChatParams struct {
	// Temperature controls the randomness of the output.
	Temperature float32

	// MaxTokens specifies the maximum number of tokens to generate.
	// If 0, no limit is sent.
	MaxTokens int

	// Tools lists the functions offered to the model for this call.
	// When empty, no tools are offered and tool_choice is omitted.
	Tools []Tool
}
