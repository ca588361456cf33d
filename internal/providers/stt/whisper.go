package stt

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type Whisper struct {
	client *openai.Client
}

// NewWhisper builds an OpenAI transcription client. An empty baseURL keeps
// the library default.
func NewWhisper(apiKey, baseURL string) *Whisper {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Whisper{client: openai.NewClientWithConfig(cfg)}
}

func (w *Whisper) Close() error { return nil }

func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", ErrEmptyTranscript
	}
	return resp.Text, nil
}
