// Package app holds the terminal application's state and REPL commands.
package app

import (
	"context"
	"sync"

	"github.com/ilkoid/aiops-assistant/pkg/conversation"
	"github.com/ilkoid/aiops-assistant/pkg/tools"
)

// Assistant is the conversation as seen by the front end.
type Assistant interface {
	RunPrompt(ctx context.Context, message string) (conversation.Response, error)
	Reset()
	Functions() []tools.FunctionSpec
}

var _ Assistant = (*conversation.Conversation)(nil)

// AppState is the state shared by the UI and the command handlers.
//
// Thread-safe: handlers run in tea.Cmd goroutines.
type AppState struct {
	Assistant       Assistant
	CommandRegistry *CommandRegistry
	CurrentModel    string

	mu           sync.RWMutex
	isProcessing bool
}

// NewAppState creates the state with the default REPL commands registered.
func NewAppState(assistant Assistant, currentModel string) *AppState {
	s := &AppState{
		Assistant:       assistant,
		CommandRegistry: NewCommandRegistry(),
		CurrentModel:    currentModel,
	}
	SetupDefaultCommands(s.CommandRegistry)
	return s
}

// SetProcessing marks whether a turn is in flight.
func (s *AppState) SetProcessing(busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isProcessing = busy
}

// IsProcessing reports whether a turn is in flight.
func (s *AppState) IsProcessing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isProcessing
}
