// Registry for storing and dispatching probe functions.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ilkoid/aiops-assistant/pkg/config"
	"github.com/ilkoid/aiops-assistant/pkg/utils"
)

// entry binds a function spec to the probe that implements it.
type entry struct {
	spec  FunctionSpec
	probe Probe
}

// Registry is the function catalog plus the dispatch table.
//
// It is populated once at startup with Register and read-only afterwards,
// so any number of conversations may share it without locking.
type Registry struct {
	order   []string
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
	}
}

// validateFunctionSpec checks that spec is a valid Function Calling schema.
//
// Validates:
//   - Name is not empty
//   - Parameters is a JSON object with type == "object"
//   - required (if present) is an array of strings naming declared properties
func validateFunctionSpec(spec FunctionSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("function name cannot be empty")
	}
	if spec.Parameters == nil {
		return fmt.Errorf("function '%s': parameters cannot be nil", spec.Name)
	}

	// Round-trip through JSON so []string and []any are checked the same way.
	paramsJSON, err := json.Marshal(spec.Parameters)
	if err != nil {
		return fmt.Errorf("function '%s': failed to marshal parameters: %w", spec.Name, err)
	}
	var params map[string]any
	if err := json.Unmarshal(paramsJSON, &params); err != nil {
		return fmt.Errorf("function '%s': parameters must be a JSON object, got: %s", spec.Name, string(paramsJSON))
	}

	typeStr, ok := params["type"].(string)
	if !ok {
		return fmt.Errorf("function '%s': parameters must have a string 'type' field", spec.Name)
	}
	if typeStr != "object" {
		return fmt.Errorf("function '%s': parameters.type must be 'object', got: '%s'", spec.Name, typeStr)
	}

	props, _ := params["properties"].(map[string]any)

	if requiredVal, exists := params["required"]; exists {
		required, ok := requiredVal.([]any)
		if !ok {
			return fmt.Errorf("function '%s': parameters.required must be an array", spec.Name)
		}
		for i, item := range required {
			name, ok := item.(string)
			if !ok {
				return fmt.Errorf("function '%s': parameters.required[%d] must be a string, got: %T", spec.Name, i, item)
			}
			if _, declared := props[name]; !declared {
				return fmt.Errorf("function '%s': required argument '%s' is not a declared property", spec.Name, name)
			}
		}
	}

	return nil
}

// Register adds every function of probe to the catalog.
//
// A malformed spec or a duplicate function name is a fatal configuration
// error; nothing from the probe is registered in that case.
func (r *Registry) Register(probe Probe) error {
	specs := probe.FunctionList()

	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if err := validateFunctionSpec(spec); err != nil {
			return &config.ConfigurationError{Field: "probes." + probe.Name(), Message: "invalid function spec", Err: err}
		}
		if _, dup := r.entries[spec.Name]; dup || seen[spec.Name] {
			return config.Errorf("probes."+probe.Name(), "duplicate function name %q", spec.Name)
		}
		seen[spec.Name] = true
	}

	for _, spec := range specs {
		r.entries[spec.Name] = entry{spec: spec, probe: probe}
		r.order = append(r.order, spec.Name)
	}

	utils.Info("Probe registered", "probe", probe.Name(), "functions", len(specs))
	return nil
}

// ListFunctions returns the catalog in registration order.
//
// The slice is a fresh copy; callers may not affect the registry through it.
func (r *Registry) ListFunctions() []FunctionSpec {
	specs := make([]FunctionSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.entries[name].spec)
	}
	return specs
}

// Has reports whether name is in the catalog.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	return len(r.order)
}

// UnknownFunctionResult is the text returned for a name missing from the catalog.
func UnknownFunctionResult(name string) string {
	return fmt.Sprintf("unknown function: %s", name)
}

// Call dispatches one function call and returns its textual result.
//
// Call never fails: an unknown name, a missing required argument or a probe
// error are all reported as text so the model can recover conversationally.
// Missing optional arguments take the "default" declared in the schema.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) string {
	e, ok := r.entries[name]
	if !ok {
		utils.Warn("Unknown function requested", "function", name)
		return UnknownFunctionResult(name)
	}

	resolved, err := resolveArguments(e.spec, args)
	if err != nil {
		utils.Warn("Function arguments rejected", "function", name, "error", err)
		return err.Error()
	}

	startTime := time.Now()
	result, err := e.probe.FunctionCall(ctx, name, resolved)
	if err != nil {
		utils.Error("Function call failed",
			"function", name,
			"probe", e.probe.Name(),
			"error", err,
			"duration_ms", time.Since(startTime).Milliseconds())
		return fmt.Sprintf("function %s failed: %v", name, err)
	}

	utils.Debug("Function call completed",
		"function", name,
		"probe", e.probe.Name(),
		"result_length", len(result),
		"duration_ms", time.Since(startTime).Milliseconds())
	return result
}

// resolveArguments checks required arguments and fills schema defaults.
// The caller's map is not modified.
func resolveArguments(spec FunctionSpec, args map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(args))
	for k, v := range args {
		resolved[k] = v
	}

	for _, req := range requiredNames(spec.Parameters) {
		if v, ok := resolved[req]; !ok || v == nil {
			return nil, fmt.Errorf("missing required argument %q for function %s", req, spec.Name)
		}
	}

	props := properties(spec.Parameters)
	for argName, raw := range props {
		prop, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		def, hasDefault := prop["default"]
		if !hasDefault {
			continue
		}
		if v, present := resolved[argName]; !present || v == nil {
			resolved[argName] = def
		}
	}

	return resolved, nil
}

func properties(schema JSONSchema) map[string]any {
	switch p := schema["properties"].(type) {
	case map[string]any:
		return p
	case JSONSchema:
		return p
	default:
		return nil
	}
}

func requiredNames(schema JSONSchema) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		names := make([]string, 0, len(req))
		for _, item := range req {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		return names
	default:
		return nil
	}
}
