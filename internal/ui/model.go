// Package ui is the Bubble Tea prompt loop of the assistant.
package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/aiops-assistant/internal/app"
	"github.com/ilkoid/aiops-assistant/pkg/events"
)

// MainModel is the Bubble Tea model.
//
//   - viewport: chat log (read-only)
//   - textarea: user input
//   - spinner: shown while a turn is running
//   - eventSub: turn progress from the conversation loop
type MainModel struct {
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	ctx      context.Context
	state    *app.AppState
	eventSub events.Subscriber

	// logLines keeps unwrapped lines so the log can be re-wrapped on resize.
	logLines []string
	status   string
	busy     bool
	ready    bool
}

// InitialModel creates the UI state.
func InitialModel(ctx context.Context, state *app.AppState, eventSub events.Subscriber) MainModel {
	ta := textarea.New()
	ta.Placeholder = "Ask about your environment, or type help..."
	ta.Focus()
	ta.Prompt = "┃ "
	ta.CharLimit = 2000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := MainModel{
		viewport: viewport.New(0, 0),
		textarea: ta,
		spinner:  sp,
		ctx:      ctx,
		state:    state,
		eventSub: eventSub,
	}
	m.appendLog(systemMsgStyle("AIOps assistant ready. Type help for commands, quit to exit."))
	return m
}

// Init starts the cursor blink and the event reader.
func (m MainModel) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		receiveEventCmd(m.eventSub),
	)
}

// appendLog adds one entry and scrolls to the bottom.
func (m *MainModel) appendLog(line string) {
	m.logLines = append(m.logLines, line)
	m.refreshLog()
}

// refreshLog re-wraps the log to the viewport width.
func (m *MainModel) refreshLog() {
	m.viewport.SetContent(wrapLines(m.logLines, m.viewport.Width))
	m.viewport.GotoBottom()
}

// LogText returns the log content without styling.
func (m MainModel) LogText() string {
	return strings.Join(m.logLines, "\n")
}
