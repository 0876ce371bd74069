// Package openai implements the Model Client for OpenAI-compatible
// chat-completion APIs.
//
// It speaks the function-calling dialect (functions + function_call +
// function-role messages) and normalizes every backend reply into an
// llm.ModelResponse. It works only through the llm.Provider interface.
package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/ilkoid/aiops-assistant/pkg/config"
	"github.com/ilkoid/aiops-assistant/pkg/llm"
	"github.com/ilkoid/aiops-assistant/pkg/tools"
	"github.com/ilkoid/aiops-assistant/pkg/utils"
)

// Client implements llm.Provider for OpenAI-compatible APIs.
type Client struct {
	api     *openai.Client
	opts    llm.GenerateOptions
	timeout time.Duration
	limiter *rate.Limiter
}

var _ llm.Provider = (*Client)(nil)

// NewClient creates a client from the openai section of assistant.yaml.
//
// opts override the configured model parameters. A custom BaseURL allows
// any OpenAI-compatible backend. Requests are paced client-side at
// RateLimit requests per minute.
func NewClient(cfg config.ModelConfig, opts ...llm.GenerateOption) *Client {
	cfg = cfg.GetDefaults()

	apiCfg := openai.DefaultConfig(cfg.Token)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RateLimit))
	}

	base := llm.GenerateOptions{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		opts:    base.Apply(opts...),
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(limit, cfg.BurstLimit),
	}
}

// Model returns the model identifier sent with every request.
func (c *Client) Model() string {
	return c.opts.Model
}

// Complete sends history (and catalog, if any) to the backend.
//
// Algorithm:
//  1. Wait for the rate limiter
//  2. Convert messages and catalog to the SDK format
//  3. Call the API
//  4. Normalize the first choice into final_answer / function_call_requested
//
// Every failure is returned as an OutcomeError response, never as an empty answer.
func (c *Client) Complete(ctx context.Context, history []llm.Message, catalog llm.Catalog) llm.ModelResponse {
	startTime := time.Now()

	utils.Debug("LLM request started",
		"model", c.opts.Model,
		"messages_count", len(history),
		"functions_count", len(catalog))

	if err := c.limiter.Wait(ctx); err != nil {
		return llm.Failed(&llm.BackendError{Kind: llm.KindRateLimit, Err: fmt.Errorf("client rate limiter: %w", err)})
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := c.buildRequest(history, catalog)
	if err != nil {
		return llm.Failed(err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		backendErr := classifyError(err)
		utils.Error("LLM API request failed",
			"error", err,
			"kind", backendErr.Kind,
			"model", c.opts.Model,
			"duration_ms", time.Since(startTime).Milliseconds())
		return llm.Failed(backendErr)
	}

	usage := recordUsage(resp.Usage)

	if len(resp.Choices) == 0 {
		utils.Error("LLM API returned no choices", "model", c.opts.Model)
		return llm.ModelResponse{
			Outcome: llm.OutcomeError,
			Err:     &llm.BackendError{Kind: llm.KindEmptyResponse, Err: errors.New("no choices in response")},
			Usage:   usage,
		}
	}

	result := normalizeChoice(resp.Choices[0])
	result.Usage = usage

	utils.Info("LLM response received",
		"model", c.opts.Model,
		"outcome", result.Outcome,
		"finish_reason", resp.Choices[0].FinishReason,
		"content_length", len(result.Content),
		"duration_ms", time.Since(startTime).Milliseconds())

	return result
}

// buildRequest maps history and catalog into a ChatCompletionRequest.
func (c *Client) buildRequest(history []llm.Message, catalog llm.Catalog) (openai.ChatCompletionRequest, error) {
	msgs := make([]openai.ChatCompletionMessage, len(history))
	for i, m := range history {
		msg, err := mapToOpenAI(m)
		if err != nil {
			return openai.ChatCompletionRequest{}, fmt.Errorf("history message %d: %w", i, err)
		}
		msgs[i] = msg
	}

	req := openai.ChatCompletionRequest{
		Model:       c.opts.Model,
		Messages:    msgs,
		Temperature: requestTemperature(c.opts.Temperature),
		MaxTokens:   c.opts.MaxTokens,
	}

	// No catalog: function calling is disabled for this request.
	if len(catalog) > 0 {
		req.Functions = convertFunctionsToOpenAI(catalog)
		req.FunctionCall = "auto"
	}

	return req, nil
}

// requestTemperature maps 0 to the smallest positive value: the SDK omits a
// zero temperature, which the backend would read as its default of 1.
func requestTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

// mapToOpenAI converts one history message into the SDK format.
// Decoded function-call arguments are re-encoded into the JSON string the
// API expects.
func mapToOpenAI(m llm.Message) (openai.ChatCompletionMessage, error) {
	msg := openai.ChatCompletionMessage{
		Role:    string(m.Role),
		Content: m.Content,
		Name:    m.Name,
	}

	if m.FunctionCall != nil {
		args, err := llm.EncodeArguments(m.FunctionCall.Arguments)
		if err != nil {
			return msg, err
		}
		msg.FunctionCall = &openai.FunctionCall{
			Name:      m.FunctionCall.Name,
			Arguments: args,
		}
	}

	return msg, nil
}

// convertFunctionsToOpenAI converts the catalog into function definitions.
// Parameters are already a JSON Schema object and are passed through as is.
func convertFunctionsToOpenAI(specs []tools.FunctionSpec) []openai.FunctionDefinition {
	result := make([]openai.FunctionDefinition, len(specs))
	for i, spec := range specs {
		result[i] = openai.FunctionDefinition{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  spec.Parameters,
		}
	}
	return result
}

// normalizeChoice turns the first choice into a ModelResponse.
func normalizeChoice(choice openai.ChatCompletionChoice) llm.ModelResponse {
	fc := choice.Message.FunctionCall

	if fc == nil {
		if choice.FinishReason == openai.FinishReasonFunctionCall {
			return llm.Failed(&llm.BackendError{
				Kind: llm.KindEmptyResponse,
				Err:  errors.New("finish reason function_call without a function call"),
			})
		}
		if choice.FinishReason != openai.FinishReasonStop {
			utils.Warn("LLM answer finished early", "finish_reason", choice.FinishReason)
		}
		return llm.FinalAnswer(choice.Message.Content)
	}

	args, err := llm.DecodeArguments(fc.Arguments)
	if err != nil {
		utils.Warn("Malformed function call arguments", "function", fc.Name, "error", err)
		return llm.Failed(&llm.ArgumentDecodingError{
			Function: fc.Name,
			Payload:  fc.Arguments,
			Err:      err,
		})
	}

	utils.Debug("LLM requested function call", "function", fc.Name, "arguments", fc.Arguments)
	return llm.FunctionCallRequested(fc.Name, args)
}

// recordUsage logs token accounting. Observability only.
func recordUsage(u openai.Usage) *llm.Usage {
	if u.TotalTokens == 0 && u.PromptTokens == 0 && u.CompletionTokens == 0 {
		return nil
	}
	utils.Info("OpenAI API token usage",
		"prompt", u.PromptTokens,
		"completion", u.CompletionTokens,
		"total", u.TotalTokens)
	return &llm.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

// classifyError maps SDK and transport errors onto llm.BackendError kinds.
func classifyError(err error) *llm.BackendError {
	status := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	var kind llm.ErrorKind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = llm.KindAuth
	case status == http.StatusTooManyRequests:
		kind = llm.KindRateLimit
	case status >= http.StatusInternalServerError:
		kind = llm.KindServer
	case status != 0, errors.Is(err, context.Canceled):
		kind = llm.KindUnknown
	case errors.Is(err, context.DeadlineExceeded):
		kind = llm.KindTimeout
	default:
		kind = llm.KindNetwork
	}

	return &llm.BackendError{Kind: kind, StatusCode: status, Err: err}
}
