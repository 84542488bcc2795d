package domain

import "context"

// CompletionOptions tune a single completion request.
type CompletionOptions struct {
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	JSONMode     bool
}

// CompletionProvider is the externally supplied language-model completion
// capability this engine consumes. Implementations should honor context
// cancellation; the engine itself adds no timeout layer.
type CompletionProvider interface {
	// Complete sends a prompt and returns the full response text.
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)

	// CompleteStream returns a lazy, finite sequence of response fragments.
	// The channel is closed when the response is exhausted or the context is
	// cancelled. The sequence is not restartable.
	CompleteStream(ctx context.Context, prompt string, opts CompletionOptions) (<-chan string, error)

	// ModelName identifies the backing model for logging.
	ModelName() string
}
