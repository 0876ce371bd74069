// Package events is the Port for observing a conversation turn.
//
// The conversation loop emits events through Emitter; any front end (the
// terminal UI, a test) subscribes without the loop knowing about it.
//
//	emitter := events.NewChanEmitter(32)
//	conv, _ := conversation.New(conversation.Config{..., Emitter: emitter})
//	sub := emitter.Subscribe()
//	for event := range sub.Events() {
//	    switch event.Type {
//	    case events.EventFunctionCall:
//	        ui.showStatus(event.Data)
//	    }
//	}
//
// All implementations must be thread-safe.
package events

import (
	"context"
	"time"
)

// EventType is the kind of progress event.
type EventType string

const (
	// EventThinking is sent when the model is invoked.
	EventThinking EventType = "thinking"

	// EventFunctionCall is sent before a probe function is dispatched.
	EventFunctionCall EventType = "function_call"

	// EventFunctionResult is sent after the probe function returned.
	EventFunctionResult EventType = "function_result"

	// EventMessage is sent with the final answer of a turn.
	EventMessage EventType = "message"

	// EventError is sent when a turn fails.
	EventError EventType = "error"

	// EventDone is sent when the turn is over, successful or not.
	EventDone EventType = "done"
)

// EventData is a sealed interface for event payloads.
//
// Only types from this package implement it.
type EventData interface {
	eventData()
}

// ThinkingData accompanies EventThinking.
type ThinkingData struct {
	Query string
	Round int // 0 for the first invocation of a turn
}

func (ThinkingData) eventData() {}

// FunctionCallData accompanies EventFunctionCall.
type FunctionCallData struct {
	Function  string
	Arguments map[string]any
}

func (FunctionCallData) eventData() {}

// FunctionResultData accompanies EventFunctionResult.
type FunctionResultData struct {
	Function string
	Result   string
	Duration time.Duration
}

func (FunctionResultData) eventData() {}

// MessageData accompanies EventMessage and EventDone.
type MessageData struct {
	Content string
}

func (MessageData) eventData() {}

// ErrorData accompanies EventError.
type ErrorData struct {
	Err error
}

func (ErrorData) eventData() {}

// Event is one progress notification.
//
// Data by Type:
//   - EventThinking: ThinkingData
//   - EventFunctionCall: FunctionCallData
//   - EventFunctionResult: FunctionResultData
//   - EventMessage, EventDone: MessageData
//   - EventError: ErrorData
type Event struct {
	Type      EventType
	Data      EventData
	Timestamp time.Time
}

// New stamps an event with the current time.
func New(t EventType, data EventData) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}

// Emitter is the Port the conversation loop sends events to.
type Emitter interface {
	// Emit sends an event. It must not block the loop indefinitely and must
	// give up when ctx is cancelled.
	Emit(ctx context.Context, event Event)
}

// Subscriber reads events from a channel.
type Subscriber interface {
	// Events returns a read-only channel of events, closed by the emitter's Close.
	Events() <-chan Event

	// Close releases the subscriber.
	Close()
}

// NopEmitter discards every event.
type NopEmitter struct{}

// Emit does nothing.
func (NopEmitter) Emit(context.Context, Event) {}
