package openaix

import (
	"context"
	"errors"
	"fmt"

	"chunk-gate/internal/domain"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is used when no chat model is configured.
const DefaultModel = "gpt-4o-mini"

// CompletionClient adapts the OpenAI chat API to the CompletionProvider
// capability.
type CompletionClient struct {
	client *openai.Client
	model  string
}

// NewCompletionClient builds a client for the given API key and model. An
// empty model uses the default.
func NewCompletionClient(apiKey, model string) (*CompletionClient, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	return &CompletionClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

var _ domain.CompletionProvider = (*CompletionClient)(nil)

// ModelName identifies the backing model.
func (c *CompletionClient) ModelName() string { return c.model }

// Complete sends the prompt and returns the first choice's message.
func (c *CompletionClient) Complete(ctx context.Context, prompt string, opts domain.CompletionOptions) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(prompt, opts, false))
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteStream forwards response deltas as they arrive. The channel closes
// when the stream ends or the context is cancelled.
func (c *CompletionClient) CompleteStream(ctx context.Context, prompt string, opts domain.CompletionOptions) (<-chan string, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.buildRequest(prompt, opts, true))
	if err != nil {
		return nil, fmt.Errorf("openai stream failed: %w", err)
	}

	fragments := make(chan string)
	go func() {
		defer close(fragments)
		defer stream.Close()

		for {
			chunk, err := stream.Recv()
			if err != nil {
				// io.EOF marks a normal end of stream
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case fragments <- delta:
			case <-ctx.Done():
				return
			}
		}
	}()
	return fragments, nil
}

func (c *CompletionClient) buildRequest(prompt string, opts domain.CompletionOptions, stream bool) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if opts.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: opts.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(opts.Temperature),
		Stream:      stream,
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return req
}
