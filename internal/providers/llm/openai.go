package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = "o1-mini"

type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds a chat completion client. An empty baseURL keeps the
// library default, an empty model falls back to DefaultOpenAIModel.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAI) Close() error { return nil }

// Complete sends the prompt as one user message and returns the first
// choice's content. An empty content is ErrEmptyCompletion.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
