package ui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/aiops-assistant/pkg/events"
)

// eventMsg wraps a conversation event as a Bubble Tea message.
type eventMsg events.Event

// eventsClosedMsg is sent once the emitter closes its channel.
type eventsClosedMsg struct{}

// receiveEventCmd reads the next event from sub.
// Update re-issues it after every eventMsg to keep reading.
func receiveEventCmd(sub events.Subscriber) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-sub.Events()
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(event)
	}
}

// renderEvent turns progress events into log lines. Final answers and
// errors are rendered from the prompt result instead, so they return "".
func renderEvent(event events.Event) string {
	switch data := event.Data.(type) {
	case events.FunctionCallData:
		if event.Type == events.EventFunctionCall {
			return functionMsgStyle("→ ") + fmt.Sprintf("%s(%s)", data.Function, formatArgs(data.Arguments))
		}
	case events.FunctionResultData:
		if event.Type == events.EventFunctionResult {
			lines := strings.Count(strings.TrimRight(data.Result, "\n"), "\n") + 1
			return functionMsgStyle("← ") + fmt.Sprintf("%s returned %d line(s) in %dms",
				data.Function, lines, data.Duration.Milliseconds())
		}
	}
	return ""
}

// formatArgs renders arguments as k=v pairs sorted by key.
func formatArgs(args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return strings.Join(parts, ", ")
}
