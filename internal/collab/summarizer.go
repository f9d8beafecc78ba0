package collab

import (
	"context"
	"fmt"
)

const summarizePromptTemplate = `You are a scriptwriter for narrated YouTube videos.
Rewrite the transcript below as a tight narration script of roughly 900 words.
Keep the original's key facts and chronology. Write flowing prose meant to be
read aloud: no headings, no bullet points, no stage directions.

TRANSCRIPT:
%s`

// Summarizer condenses a raw transcript into a narration script.
type Summarizer struct {
	client *GeminiClient
	model  string
}

// NewSummarizer builds a summarizer for the configured model.
func NewSummarizer(client *GeminiClient, model string) *Summarizer {
	return &Summarizer{client: client, model: model}
}

// Summarize returns the narration script for a transcript.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	script, err := s.client.Generate(ctx, s.model, fmt.Sprintf(summarizePromptTemplate, transcript))
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return script, nil
}
