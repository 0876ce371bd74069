package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/aiops-assistant/internal/app"
	"github.com/ilkoid/aiops-assistant/pkg/conversation"
	"github.com/ilkoid/aiops-assistant/pkg/events"
)

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		headerHeight := 1
		footerHeight := m.textarea.Height() + 2

		vpHeight := msg.Height - headerHeight - footerHeight
		if vpHeight < 1 {
			vpHeight = 1
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
		m.textarea.SetWidth(msg.Width)
		m.ready = true
		m.refreshLog()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			return m.submit()
		}

	case app.CommandResultMsg:
		if msg.Err != nil {
			m.appendLog(errorMsgStyle("ERROR: ") + msg.Err.Error())
		} else {
			m.appendLog(systemMsgStyle("SYSTEM: ") + msg.Output)
		}
		m.textarea.Focus()
		return m, nil

	case app.PromptResultMsg:
		m.busy = false
		m.status = ""
		if msg.Err != nil {
			m.appendLog(errorMsgStyle("ERROR: ") + userFacingError(msg.Err))
		} else {
			m.appendLog(assistantMsgStyle("ASSISTANT > ") + msg.Content)
			if msg.Truncated {
				m.appendLog(systemMsgStyle("SYSTEM: ") + "the function call limit was reached for this request")
			}
		}
		m.textarea.Focus()
		return m, nil

	case eventMsg:
		event := events.Event(msg)
		if line := renderEvent(event); line != "" {
			m.appendLog(line)
		}
		if data, ok := event.Data.(events.FunctionCallData); ok {
			m.status = "calling " + data.Function
		} else if event.Type == events.EventThinking {
			m.status = "thinking"
		}
		return m, receiveEventCmd(m.eventSub)

	case eventsClosedMsg:
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var tiCmd, vpCmd tea.Cmd
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, tiCmd, vpCmd)
	return m, tea.Batch(cmds...)
}

// submit handles Enter: a REPL command or a prompt for the assistant.
func (m MainModel) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}
	if m.busy {
		m.appendLog(systemMsgStyle("SYSTEM: ") + "still working on the previous request")
		return m, nil
	}

	m.textarea.Reset()
	m.appendLog(userMsgStyle("USER > ") + input)

	if cmd, ok := m.state.CommandRegistry.Execute(input, m.state); ok {
		return m, cmd
	}

	m.busy = true
	m.status = "thinking"
	return m, tea.Batch(m.spinner.Tick, app.PromptCmd(m.ctx, m.state, input))
}

// userFacingError prefers the turn's human message over the raw chain.
func userFacingError(err error) string {
	var turnErr *conversation.TurnError
	if errors.As(err, &turnErr) {
		return turnErr.UserMessage()
	}
	return err.Error()
}
