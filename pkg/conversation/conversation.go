// Package conversation runs the function-calling loop for one session.
//
// A turn is a small state machine:
//
//	AwaitingUserInput -> ModelInvoked -> FunctionDispatched -> ModelInvoked -> ... -> AwaitingUserInput
//
// The model either answers (the turn ends), asks for a function (the
// registry runs it and the result is fed back) or fails (the turn ends with
// an error and no retry). Round-trips per turn are bounded.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ilkoid/aiops-assistant/pkg/config"
	"github.com/ilkoid/aiops-assistant/pkg/events"
	"github.com/ilkoid/aiops-assistant/pkg/llm"
	"github.com/ilkoid/aiops-assistant/pkg/tools"
	"github.com/ilkoid/aiops-assistant/pkg/utils"
)

// Config wires a Conversation.
type Config struct {
	// Provider invokes the model. Required.
	Provider llm.Provider

	// Registry is the shared, read-only function catalog. Required.
	Registry *tools.Registry

	// SystemPrompt primes the session. Empty means no system message.
	SystemPrompt string

	// Priming holds example exchanges placed after the system prompt.
	Priming []llm.Message

	// MaxFunctionCalls bounds function round-trips per user turn.
	// <= 0 uses config.DefaultMaxFunctionCalls.
	MaxFunctionCalls int

	// FollowUpWithoutCatalog stops offering the catalog once a function
	// result has been fed back.
	FollowUpWithoutCatalog bool

	// Emitter receives turn progress. Optional.
	Emitter events.Emitter
}

// Response is the result of a successful turn.
type Response struct {
	Content       string
	FunctionCalls int       // functions dispatched during the turn
	Truncated     bool      // the round-trip limit stopped the turn
	Usage         llm.Usage // summed over every model invocation
}

// Conversation owns the history of one session.
//
// Turns are sequential: RunPrompt, Reset and History serialize on a mutex.
type Conversation struct {
	mu sync.Mutex

	id       string
	provider llm.Provider
	registry *tools.Registry
	emitter  events.Emitter

	primed                 []llm.Message
	history                *History
	maxFunctionCalls       int
	followUpWithoutCatalog bool
}

// New creates a conversation primed with the persona messages.
func New(cfg Config) (*Conversation, error) {
	if cfg.Provider == nil {
		return nil, config.Errorf("conversation.provider", "provider is required")
	}
	if cfg.Registry == nil {
		return nil, config.Errorf("conversation.registry", "function registry is required")
	}

	maxCalls := cfg.MaxFunctionCalls
	if maxCalls <= 0 {
		maxCalls = config.DefaultMaxFunctionCalls
	}

	emitter := cfg.Emitter
	if emitter == nil {
		emitter = events.NopEmitter{}
	}

	var primed []llm.Message
	if cfg.SystemPrompt != "" {
		primed = append(primed, llm.Message{Role: llm.RoleSystem, Content: cfg.SystemPrompt})
	}
	for _, msg := range cfg.Priming {
		primed = append(primed, msg.Clone())
	}

	c := &Conversation{
		id:                     uuid.NewString(),
		provider:               cfg.Provider,
		registry:               cfg.Registry,
		emitter:                emitter,
		primed:                 primed,
		history:                NewHistory(primed...),
		maxFunctionCalls:       maxCalls,
		followUpWithoutCatalog: cfg.FollowUpWithoutCatalog,
	}

	utils.Info("Conversation created",
		"session", c.id,
		"functions", cfg.Registry.Len(),
		"max_function_calls", maxCalls,
		"primed_messages", len(primed))
	return c, nil
}

// ID returns the session identifier used in logs.
func (c *Conversation) ID() string { return c.id }

// Functions returns the catalog offered to the model.
func (c *Conversation) Functions() []tools.FunctionSpec {
	return c.registry.ListFunctions()
}

// History returns a copy of the current history.
func (c *Conversation) History() []llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Messages()
}

// Reset restores the history to the primed persona. Idempotent.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history.reset(c.primed)
	utils.Info("Conversation reset", "session", c.id)
}

// RunPrompt runs one user turn to completion.
//
// On success the history has grown by the user message, one assistant
// function-call message plus one function result per dispatched function,
// and the final assistant message. On failure a *TurnError is returned and
// only the user message has been appended.
func (c *Conversation) RunPrompt(ctx context.Context, message string) (Response, error) {
	if strings.TrimSpace(message) == "" {
		return Response{}, ErrEmptyPrompt
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	startTime := time.Now()
	utils.Info("Turn started", "session", c.id, "prompt_length", len(message), "history", c.history.Len())

	c.history.Append(llm.Message{Role: llm.RoleUser, Content: message})

	catalog := c.registry.ListFunctions()
	var (
		resp       Response
		lastCall   string
		lastResult string
	)

	for round := 0; ; round++ {
		offered := catalog
		if round > 0 && c.followUpWithoutCatalog {
			offered = nil
		}

		c.emit(ctx, events.EventThinking, events.ThinkingData{Query: message, Round: round})
		mr := c.provider.Complete(ctx, c.history.Messages(), offered)
		addUsage(&resp.Usage, mr.Usage)

		switch mr.Outcome {
		case llm.OutcomeFinalAnswer:
			c.history.Append(mr.Message())
			resp.Content = mr.Content
			c.finish(ctx, resp, startTime)
			return resp, nil

		case llm.OutcomeFunctionCallRequested:
			if mr.FunctionCall == nil {
				return resp, c.fail(ctx, round, fmt.Errorf("function call requested without a function"))
			}

			if resp.FunctionCalls >= c.maxFunctionCalls {
				utils.Warn("Function call limit reached",
					"session", c.id,
					"limit", c.maxFunctionCalls,
					"requested", mr.FunctionCall.Name)
				resp.Content = truncatedAnswer(c.maxFunctionCalls, lastCall, lastResult)
				resp.Truncated = true
				c.history.Append(llm.Message{Role: llm.RoleAssistant, Content: resp.Content})
				c.finish(ctx, resp, startTime)
				return resp, nil
			}

			lastCall = mr.FunctionCall.Name
			lastResult = c.dispatch(ctx, mr)
			resp.FunctionCalls++

		case llm.OutcomeError:
			return resp, c.fail(ctx, round, mr.Err)

		default:
			return resp, c.fail(ctx, round, fmt.Errorf("unexpected model outcome %q", mr.Outcome))
		}
	}
}

// dispatch appends the function-call message, runs the function and
// appends its result. Returns the result text.
func (c *Conversation) dispatch(ctx context.Context, mr llm.ModelResponse) string {
	call := mr.FunctionCall
	c.history.Append(mr.Message())

	c.emit(ctx, events.EventFunctionCall, events.FunctionCallData{Function: call.Name, Arguments: call.Arguments})
	utils.Info("Function call", "session", c.id, "function", call.Name)

	start := time.Now()
	result := c.registry.Call(ctx, call.Name, call.Arguments)
	duration := time.Since(start)

	c.history.Append(llm.Message{Role: llm.RoleFunction, Name: call.Name, Content: result})
	c.emit(ctx, events.EventFunctionResult, events.FunctionResultData{
		Function: call.Name,
		Result:   result,
		Duration: duration,
	})
	return result
}

func (c *Conversation) fail(ctx context.Context, round int, err error) error {
	turnErr := &TurnError{Round: round, Err: err}
	utils.Error("Turn failed", "session", c.id, "round", round, "error", err)
	c.emit(ctx, events.EventError, events.ErrorData{Err: turnErr})
	c.emit(ctx, events.EventDone, events.MessageData{})
	return turnErr
}

func (c *Conversation) finish(ctx context.Context, resp Response, startTime time.Time) {
	utils.Info("Turn completed",
		"session", c.id,
		"function_calls", resp.FunctionCalls,
		"truncated", resp.Truncated,
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(startTime).Milliseconds())
	c.emit(ctx, events.EventMessage, events.MessageData{Content: resp.Content})
	c.emit(ctx, events.EventDone, events.MessageData{Content: resp.Content})
}

func (c *Conversation) emit(ctx context.Context, t events.EventType, data events.EventData) {
	c.emitter.Emit(ctx, events.New(t, data))
}

func addUsage(total *llm.Usage, u *llm.Usage) {
	if u == nil {
		return
	}
	total.PromptTokens += u.PromptTokens
	total.CompletionTokens += u.CompletionTokens
	total.TotalTokens += u.TotalTokens
}

// truncatedAnswer is the best-effort reply when the model keeps asking for
// functions past the limit.
func truncatedAnswer(limit int, lastCall, lastResult string) string {
	msg := fmt.Sprintf("I could not complete this request within the limit of %d function calls.", limit)
	if lastCall == "" {
		return msg
	}
	return fmt.Sprintf("%s The last result, from %s, was:\n%s", msg, lastCall, strings.TrimRight(lastResult, "\n"))
}
