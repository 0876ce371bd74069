package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// CommandHandler runs one REPL command and returns a tea.Cmd for Bubble Tea.
type CommandHandler func(state *AppState) tea.Cmd

type command struct {
	help    string
	handler CommandHandler
}

// CommandRegistry maps REPL keywords to handlers.
//
// A line is a command only when it consists of exactly one registered
// keyword (case-insensitive); anything else is sent to the model.
// Thread-safe.
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[string]command
}

// NewCommandRegistry creates an empty registry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]command),
	}
}

// Register adds or replaces a command.
func (r *CommandRegistry) Register(name, help string, handler CommandHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[strings.ToLower(name)] = command{help: help, handler: handler}
}

// Lookup returns the handler for input if input is a command.
func (r *CommandRegistry) Lookup(input string) (CommandHandler, bool) {
	name := strings.ToLower(strings.TrimSpace(input))

	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd.handler, ok
}

// Execute runs input as a command. The bool is false when input is a prompt.
func (r *CommandRegistry) Execute(input string, state *AppState) (tea.Cmd, bool) {
	handler, ok := r.Lookup(input)
	if !ok {
		return nil, false
	}
	return handler(state), true
}

// GetCommands returns the command names, sorted.
func (r *CommandRegistry) GetCommands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]string, 0, len(r.commands))
	for name := range r.commands {
		cmds = append(cmds, name)
	}
	sort.Strings(cmds)
	return cmds
}

// Help renders one line per command.
func (r *CommandRegistry) Help() string {
	var sb strings.Builder
	sb.WriteString("Commands:\n")
	for _, name := range r.GetCommands() {
		r.mu.RLock()
		help := r.commands[name].help
		r.mu.RUnlock()
		sb.WriteString(fmt.Sprintf("  %-10s %s\n", name, help))
	}
	sb.WriteString("Anything else is sent to the assistant.")
	return sb.String()
}

// SetupDefaultCommands registers quit, reset, functions and help.
func SetupDefaultCommands(registry *CommandRegistry) {
	registry.Register("quit", "exit the assistant", func(*AppState) tea.Cmd {
		return tea.Quit
	})

	registry.Register("reset", "start a new conversation", func(state *AppState) tea.Cmd {
		return func() tea.Msg {
			if state.IsProcessing() {
				return CommandResultMsg{Err: fmt.Errorf("cannot reset while a request is running")}
			}
			state.Assistant.Reset()
			return CommandResultMsg{Output: "Conversation reset."}
		}
	})

	registry.Register("functions", "list the functions the assistant can call", func(state *AppState) tea.Cmd {
		return func() tea.Msg {
			return CommandResultMsg{Output: FormatFunctions(state)}
		}
	})

	registry.Register("help", "show this help", func(state *AppState) tea.Cmd {
		return func() tea.Msg {
			return CommandResultMsg{Output: state.CommandRegistry.Help()}
		}
	})
}

// FormatFunctions lists the catalog, one function per line.
func FormatFunctions(state *AppState) string {
	specs := state.Assistant.Functions()
	if len(specs) == 0 {
		return "No functions are registered."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d functions available:", len(specs)))
	for _, spec := range specs {
		sb.WriteString("\n  • " + spec.Name)
	}
	return sb.String()
}

// PromptCmd runs one conversation turn in the background.
func PromptCmd(ctx context.Context, state *AppState, input string) tea.Cmd {
	return func() tea.Msg {
		state.SetProcessing(true)
		defer state.SetProcessing(false)

		resp, err := state.Assistant.RunPrompt(ctx, input)
		if err != nil {
			return PromptResultMsg{Err: err}
		}
		return PromptResultMsg{Content: resp.Content, Truncated: resp.Truncated}
	}
}
