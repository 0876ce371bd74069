package llm

import (
	"errors"
	"fmt"
)

// ErrBackend is matched by every BackendError via errors.Is.
var ErrBackend = errors.New("model backend failure")

// ErrArgumentDecoding is matched by every ArgumentDecodingError via errors.Is.
var ErrArgumentDecoding = errors.New("function call arguments could not be decoded")

// ErrorKind classifies a backend failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuth
	KindRateLimit
	KindNetwork
	KindTimeout
	KindServer
	KindEmptyResponse
)

// String returns the log-friendly name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server"
	case KindEmptyResponse:
		return "empty_response"
	default:
		return "unknown"
	}
}

// HumanMessage returns the text shown to the user for a failed turn.
func (k ErrorKind) HumanMessage() string {
	switch k {
	case KindAuth:
		return "The model backend rejected the credentials. Check openai.token in assistant.yaml."
	case KindRateLimit:
		return "The model backend is rate limiting requests. Wait a moment and try again."
	case KindNetwork:
		return "The model backend could not be reached. Check the network connection."
	case KindTimeout:
		return "The model backend did not answer in time."
	case KindServer:
		return "The model backend returned a server error."
	case KindEmptyResponse:
		return "The model backend returned no answer."
	default:
		return "The model request failed."
	}
}

// BackendError is a transport-level failure of a model invocation
// (auth, network, rate limit, server).
type BackendError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("backend error (%s, status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("backend error (%s): %v", e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Is reports ErrBackend as a match.
func (e *BackendError) Is(target error) bool { return target == ErrBackend }

// ArgumentDecodingError means the model sent a malformed function-call payload.
type ArgumentDecodingError struct {
	Function string
	Payload  string
	Err      error
}

func (e *ArgumentDecodingError) Error() string {
	return fmt.Sprintf("malformed arguments for function %s: %v", e.Function, e.Err)
}

func (e *ArgumentDecodingError) Unwrap() error { return e.Err }

// Is reports ErrArgumentDecoding as a match.
func (e *ArgumentDecodingError) Is(target error) bool { return target == ErrArgumentDecoding }
