// Package llm defines the message model shared by the conversation loop and
// every backend adapter.
package llm

import "github.com/ilkoid/aiops-assistant/pkg/tools"

// Role tags one message in the conversation history.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"
)

// FunctionCall is the model's request to run one catalog function.
//
// Arguments are already decoded; adapters re-encode them when the message
// is replayed to the backend.
type FunctionCall struct {
	Name      string
	Arguments map[string]any
}

// Message is one turn in the conversation.
//
//   - Content is set for user/assistant text and function results.
//   - FunctionCall is set when the assistant elects to call a function.
//   - Name is set only for RoleFunction and names the function that produced Content.
type Message struct {
	Role         Role
	Content      string
	FunctionCall *FunctionCall
	Name         string
}

// Clone returns a deep copy of the message.
//
// History stores clones so that callers holding the original cannot mutate
// an appended turn (argument maps are reference types).
func (m Message) Clone() Message {
	out := m
	if m.FunctionCall != nil {
		out.FunctionCall = &FunctionCall{
			Name:      m.FunctionCall.Name,
			Arguments: cloneValue(m.FunctionCall.Arguments).(map[string]any),
		}
	}
	return out
}

// cloneValue deep-copies JSON-shaped values (maps, slices, scalars).
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		if val == nil {
			return []any(nil)
		}
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}

// Outcome classifies one model invocation.
type Outcome string

const (
	OutcomeFinalAnswer           Outcome = "final_answer"
	OutcomeFunctionCallRequested Outcome = "function_call_requested"
	OutcomeError                 Outcome = "error"
)

// Usage is the token accounting reported by the backend, if any.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ModelResponse is the normalized result of one Provider.Complete call.
//
// Exactly one of Content (final answer), FunctionCall (function requested)
// or Err (error) is meaningful, as selected by Outcome.
type ModelResponse struct {
	Outcome      Outcome
	Content      string
	FunctionCall *FunctionCall
	Err          error
	Usage        *Usage
}

// Message converts the response into the assistant message that is appended
// to history. Only meaningful for non-error outcomes.
func (r ModelResponse) Message() Message {
	return Message{
		Role:         RoleAssistant,
		Content:      r.Content,
		FunctionCall: r.FunctionCall,
	}
}

// FinalAnswer builds a final_answer response.
func FinalAnswer(content string) ModelResponse {
	return ModelResponse{Outcome: OutcomeFinalAnswer, Content: content}
}

// FunctionCallRequested builds a function_call_requested response.
func FunctionCallRequested(name string, args map[string]any) ModelResponse {
	if args == nil {
		args = map[string]any{}
	}
	return ModelResponse{
		Outcome:      OutcomeFunctionCallRequested,
		FunctionCall: &FunctionCall{Name: name, Arguments: args},
	}
}

// Failed builds an error response.
func Failed(err error) ModelResponse {
	return ModelResponse{Outcome: OutcomeError, Err: err}
}

// Catalog is the set of functions advertised to the model on one request.
type Catalog = []tools.FunctionSpec
