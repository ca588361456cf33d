package stt

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/AssemblyAI/assemblyai-go-sdk"
)

type AssemblyAI struct {
	client *assemblyai.Client
}

func NewAssemblyAI(apiKey string) *AssemblyAI {
	return &AssemblyAI{client: assemblyai.NewClient(apiKey)}
}

func (a *AssemblyAI) Close() error { return nil }

// Transcribe uploads the file and blocks until the transcript is ready.
func (a *AssemblyAI) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	tr, err := a.client.Transcripts.TranscribeFromReader(ctx, f, nil)
	if err != nil {
		return "", err
	}
	if tr.Status == assemblyai.TranscriptStatusError {
		return "", fmt.Errorf("assemblyai: %s", assemblyai.ToString(tr.Error))
	}

	text := assemblyai.ToString(tr.Text)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}
