// Package llm provides options pattern for LLM generation parameters.
package llm

// GenerateOptions holds parameters for one chat-completion request.
// Defaults come from the openai section of assistant.yaml and can be
// overridden when the client is constructed.
type GenerateOptions struct {
	// Model is the backend model identifier (e.g., "gpt-3.5-turbo-0613")
	Model string

	// Temperature controls randomness in responses (0.0 = deterministic)
	Temperature float64

	// MaxTokens limits the response length, 0 = backend default
	MaxTokens int
}

// GenerateOption is a functional option for configuring GenerateOptions.
type GenerateOption func(*GenerateOptions)

// WithModel sets the model for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithTemperature sets the temperature for generation.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithMaxTokens sets the maximum tokens for generation.
func WithMaxTokens(tokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = tokens
	}
}

// Apply returns a copy of o with opts applied in order.
func (o GenerateOptions) Apply(opts ...GenerateOption) GenerateOptions {
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
