package app

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/aiops-assistant/pkg/conversation"
	"github.com/ilkoid/aiops-assistant/pkg/tools"
)

type fakeAssistant struct {
	resp    conversation.Response
	err     error
	resets  int
	prompts []string
	specs   []tools.FunctionSpec
}

func (f *fakeAssistant) RunPrompt(_ context.Context, message string) (conversation.Response, error) {
	f.prompts = append(f.prompts, message)
	return f.resp, f.err
}

func (f *fakeAssistant) Reset() { f.resets++ }

func (f *fakeAssistant) Functions() []tools.FunctionSpec { return f.specs }

func TestCommandRegistry_Lookup(t *testing.T) {
	state := NewAppState(&fakeAssistant{}, "gpt-3.5-turbo-0613")

	tests := []struct {
		input     string
		isCommand bool
	}{
		{"quit", true},
		{"  RESET ", true},
		{"functions", true},
		{"help", true},
		{"reset the database password", false},
		{"which servers run mysql?", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, ok := state.CommandRegistry.Lookup(tt.input)
			assert.Equal(t, tt.isCommand, ok)
		})
	}

	assert.Equal(t, []string{"functions", "help", "quit", "reset"}, state.CommandRegistry.GetCommands())
}

func TestCommands_Run(t *testing.T) {
	assistant := &fakeAssistant{specs: []tools.FunctionSpec{
		{Name: "database_list_servers"},
		{Name: "database_health_check"},
	}}
	state := NewAppState(assistant, "gpt-3.5-turbo-0613")

	cmd, ok := state.CommandRegistry.Execute("reset", state)
	require.True(t, ok)
	assert.Equal(t, CommandResultMsg{Output: "Conversation reset."}, cmd())
	assert.Equal(t, 1, assistant.resets)

	cmd, ok = state.CommandRegistry.Execute("functions", state)
	require.True(t, ok)
	msg := cmd().(CommandResultMsg)
	assert.Contains(t, msg.Output, "2 functions available")
	assert.Contains(t, msg.Output, "database_health_check")

	cmd, ok = state.CommandRegistry.Execute("help", state)
	require.True(t, ok)
	assert.Contains(t, cmd().(CommandResultMsg).Output, "start a new conversation")

	cmd, ok = state.CommandRegistry.Execute("quit", state)
	require.True(t, ok)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, ok = state.CommandRegistry.Execute("hello", state)
	assert.False(t, ok)
}

func TestCommands_ResetRefusedWhileProcessing(t *testing.T) {
	assistant := &fakeAssistant{}
	state := NewAppState(assistant, "m")
	state.SetProcessing(true)

	cmd, _ := state.CommandRegistry.Execute("reset", state)
	msg := cmd().(CommandResultMsg)
	assert.Error(t, msg.Err)
	assert.Equal(t, 0, assistant.resets)
}

func TestPromptCmd(t *testing.T) {
	assistant := &fakeAssistant{resp: conversation.Response{Content: "sr-dbs01", Truncated: true}}
	state := NewAppState(assistant, "m")

	msg := PromptCmd(context.Background(), state, "which server?")()
	assert.Equal(t, PromptResultMsg{Content: "sr-dbs01", Truncated: true}, msg)
	assert.Equal(t, []string{"which server?"}, assistant.prompts)
	assert.False(t, state.IsProcessing())

	assistant.err = errors.New("boom")
	msg = PromptCmd(context.Background(), state, "again")()
	assert.EqualError(t, msg.(PromptResultMsg).Err, "boom")
}

func TestFormatFunctions_Empty(t *testing.T) {
	state := NewAppState(&fakeAssistant{}, "m")
	assert.Equal(t, "No functions are registered.", FormatFunctions(state))
}
