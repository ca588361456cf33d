package stt

import (
	"context"
	"errors"
)

var ErrEmptyTranscript = errors.New("empty transcript")

// Provider turns a local audio file into plain text.
type Provider interface {
	Transcribe(ctx context.Context, audioPath string) (text string, err error)
	Close() error
}
