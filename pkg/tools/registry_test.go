package tools

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/aiops-assistant/pkg/config"
)

// stubProbe records calls and echoes the resolved arguments.
type stubProbe struct {
	name  string
	specs []FunctionSpec
	err   error
	calls []map[string]any
}

func (p *stubProbe) Name() string                 { return p.name }
func (p *stubProbe) FunctionList() []FunctionSpec { return p.specs }

func (p *stubProbe) FunctionCall(_ context.Context, name string, args map[string]any) (string, error) {
	p.calls = append(p.calls, args)
	if p.err != nil {
		return "", p.err
	}
	return fmt.Sprintf("%s called with %v", name, args), nil
}

func listServersSpec() FunctionSpec {
	return FunctionSpec{
		Name:        "database_list_servers",
		Description: "List database servers",
		Parameters: JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"db_type": map[string]any{"type": "string", "default": "all"},
			},
			"required": []string{},
		},
	}
}

func healthCheckSpec() FunctionSpec {
	return FunctionSpec{
		Name:        "database_health_check",
		Description: "Check database health",
		Parameters: JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"db_name": map[string]any{"type": "string"},
			},
			"required": []string{"db_name"},
		},
	}
}

func newTestRegistry(t *testing.T, probe *stubProbe) *Registry {
	r := NewRegistry()
	require.NoError(t, r.Register(probe))
	return r
}

func TestRegistry_ListFunctionsOrderAndCopy(t *testing.T) {
	probe := &stubProbe{name: "database", specs: []FunctionSpec{listServersSpec(), healthCheckSpec()}}
	r := newTestRegistry(t, probe)

	first := r.ListFunctions()
	require.Len(t, first, 2)
	assert.Equal(t, "database_list_servers", first[0].Name)
	assert.Equal(t, "database_health_check", first[1].Name)

	first[0].Name = "mutated"
	second := r.ListFunctions()
	assert.Equal(t, "database_list_servers", second[0].Name)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubProbe{name: "database", specs: []FunctionSpec{listServersSpec()}}))

	err := r.Register(&stubProbe{name: "other", specs: []FunctionSpec{healthCheckSpec(), listServersSpec()}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrConfiguration))

	// Nothing from the rejected probe is registered.
	assert.False(t, r.Has("database_health_check"))
	assert.Equal(t, 1, r.Len())

	err = NewRegistry().Register(&stubProbe{name: "twice", specs: []FunctionSpec{listServersSpec(), listServersSpec()}})
	assert.True(t, errors.Is(err, config.ErrConfiguration))
}

func TestValidateFunctionSpec(t *testing.T) {
	tests := []struct {
		name    string
		spec    FunctionSpec
		wantErr bool
	}{
		{"valid", listServersSpec(), false},
		{"valid required", healthCheckSpec(), false},
		{"empty name", FunctionSpec{Parameters: JSONSchema{"type": "object"}}, true},
		{"nil parameters", FunctionSpec{Name: "x"}, true},
		{"wrong type", FunctionSpec{Name: "x", Parameters: JSONSchema{"type": "string"}}, true},
		{"missing type", FunctionSpec{Name: "x", Parameters: JSONSchema{"properties": map[string]any{}}}, true},
		{"required not array", FunctionSpec{Name: "x", Parameters: JSONSchema{"type": "object", "required": "db_name"}}, true},
		{"required not declared", FunctionSpec{Name: "x", Parameters: JSONSchema{
			"type":     "object",
			"required": []string{"db_name"},
		}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFunctionSpec(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistry_CallUnknownFunction(t *testing.T) {
	probe := &stubProbe{name: "database", specs: []FunctionSpec{listServersSpec()}}
	r := newTestRegistry(t, probe)
	before := r.ListFunctions()

	result := r.Call(context.Background(), "database_drop_everything", map[string]any{"x": 1})

	assert.Equal(t, "unknown function: database_drop_everything", result)
	assert.Equal(t, UnknownFunctionResult("database_drop_everything"), r.Call(context.Background(), "database_drop_everything", nil))
	assert.Equal(t, before, r.ListFunctions(), "catalog must not change")
	assert.Empty(t, probe.calls)
}

func TestRegistry_CallFillsDefaults(t *testing.T) {
	probe := &stubProbe{name: "database", specs: []FunctionSpec{listServersSpec()}}
	r := newTestRegistry(t, probe)

	r.Call(context.Background(), "database_list_servers", nil)
	r.Call(context.Background(), "database_list_servers", map[string]any{"db_type": "mysql"})

	require.Len(t, probe.calls, 2)
	assert.Equal(t, map[string]any{"db_type": "all"}, probe.calls[0])
	assert.Equal(t, map[string]any{"db_type": "mysql"}, probe.calls[1])
}

func TestRegistry_CallMissingRequired(t *testing.T) {
	probe := &stubProbe{name: "database", specs: []FunctionSpec{healthCheckSpec()}}
	r := newTestRegistry(t, probe)

	result := r.Call(context.Background(), "database_health_check", map[string]any{})

	assert.Equal(t, `missing required argument "db_name" for function database_health_check`, result)
	assert.Empty(t, probe.calls)
}

func TestRegistry_CallDoesNotMutateArgs(t *testing.T) {
	probe := &stubProbe{name: "database", specs: []FunctionSpec{listServersSpec()}}
	r := newTestRegistry(t, probe)

	args := map[string]any{}
	r.Call(context.Background(), "database_list_servers", args)

	assert.Empty(t, args)
}

func TestRegistry_CallProbeError(t *testing.T) {
	probe := &stubProbe{name: "database", specs: []FunctionSpec{healthCheckSpec()}, err: errors.New("connection refused")}
	r := newTestRegistry(t, probe)

	result := r.Call(context.Background(), "database_health_check", map[string]any{"db_name": "taiga"})

	assert.Equal(t, "function database_health_check failed: connection refused", result)
}
