// Probe interface and function definitions.

package tools

import "context"

// JSONSchema describes the parameters of one function.
//
// Format follows the JSON Schema subset accepted by Function Calling APIs:
// {"type": "object", "properties": {...}, "required": [...]}.
type JSONSchema map[string]any

// FunctionSpec describes one callable probe function for the LLM.
type FunctionSpec struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"`
}

// Probe is a pluggable module exposing functions the model may call.
//
// New probes register by implementing this interface; the registry never
// needs to know concrete probe types.
type Probe interface {
	// Name identifies the probe in logs.
	Name() string

	// FunctionList returns the probe's function specs in a stable order.
	FunctionList() []FunctionSpec

	// FunctionCall runs one of the probe's functions.
	// args has already been validated and defaulted by the registry.
	// The returned text is handed to the model verbatim.
	FunctionCall(ctx context.Context, name string, args map[string]any) (string, error)
}
