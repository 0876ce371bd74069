package conversation

import "github.com/ilkoid/aiops-assistant/pkg/llm"

// History is the append-only message sequence of one session.
//
// Entries are stored as deep copies; once appended a message is never
// modified. Not safe for concurrent use; Conversation serializes access.
type History struct {
	messages []llm.Message
}

// NewHistory creates a history starting with the given messages.
func NewHistory(primed ...llm.Message) *History {
	h := &History{}
	h.reset(primed)
	return h
}

// Append adds a copy of msg to the end of the history.
func (h *History) Append(msg llm.Message) {
	h.messages = append(h.messages, msg.Clone())
}

// Messages returns a deep copy of the history in order.
func (h *History) Messages() []llm.Message {
	out := make([]llm.Message, len(h.messages))
	for i, msg := range h.messages {
		out[i] = msg.Clone()
	}
	return out
}

// Len returns the number of messages.
func (h *History) Len() int {
	return len(h.messages)
}

// reset discards everything and restores the primed messages.
func (h *History) reset(primed []llm.Message) {
	h.messages = make([]llm.Message, 0, len(primed)+8)
	for _, msg := range primed {
		h.messages = append(h.messages, msg.Clone())
	}
}
