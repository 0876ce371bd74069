package conversation

import (
	"errors"
	"fmt"

	"github.com/ilkoid/aiops-assistant/pkg/llm"
)

// ErrEmptyPrompt is returned for a blank user message. History is untouched.
var ErrEmptyPrompt = errors.New("empty prompt")

// ErrTurnFailed is matched by every TurnError via errors.Is.
var ErrTurnFailed = errors.New("turn failed")

// TurnError is a failed turn. The user message stays in history; nothing
// else from the turn is appended and the conversation remains usable.
type TurnError struct {
	Round int
	Err   error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn failed at round %d: %v", e.Round, e.Err)
}

func (e *TurnError) Unwrap() error { return e.Err }

// Is reports ErrTurnFailed as a match.
func (e *TurnError) Is(target error) bool { return target == ErrTurnFailed }

// UserMessage returns the text shown in place of an answer.
func (e *TurnError) UserMessage() string {
	var backendErr *llm.BackendError
	if errors.As(e.Err, &backendErr) {
		return backendErr.Kind.HumanMessage()
	}

	var decodeErr *llm.ArgumentDecodingError
	if errors.As(e.Err, &decodeErr) {
		return fmt.Sprintf("The model sent malformed arguments for %s. Please rephrase the request and try again.", decodeErr.Function)
	}

	return fmt.Sprintf("The request failed: %v", e.Err)
}
