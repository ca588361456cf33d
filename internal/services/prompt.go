package services

import "fmt"

const brdPrompt = `You are an AI that extracts structured BRDs from meeting transcripts.
Extract business discussions from the following transcript and generate a structured Business Requirement Document (BRD):
%s`

// BuildPrompt inserts the transcript verbatim into the BRD instructions.
func BuildPrompt(transcript string) string {
	return fmt.Sprintf(brdPrompt, transcript)
}
