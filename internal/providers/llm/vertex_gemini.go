package llm

import (
	"context"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
)

type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	return &VertexGemini{client: c, model: c.GenerativeModel(modelName)}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

// Complete drains the content stream into one document.
func (v *VertexGemini) Complete(ctx context.Context, prompt string) (string, error) {
	var b strings.Builder

	it := v.model.GenerateContentStream(ctx, vertexgenai.Text(prompt))
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", err
		}

		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(vertexgenai.Text); ok {
					b.WriteString(string(t))
				}
			}
		}
	}

	if b.Len() == 0 {
		return "", ErrEmptyCompletion
	}
	return b.String(), nil
}
