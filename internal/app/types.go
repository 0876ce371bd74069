// Shared message types for the app package.
package app

// CommandResultMsg is returned by a REPL command worker.
type CommandResultMsg struct {
	Output string
	Err    error
}

// PromptResultMsg is returned when a conversation turn finishes.
type PromptResultMsg struct {
	Content   string
	Truncated bool
	Err       error
}
