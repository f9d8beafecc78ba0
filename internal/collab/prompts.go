package collab

import (
	"context"
	"fmt"
	"strings"
)

const styleBiblePromptTemplate = `Read the narration script below and write a short "style bible":
a single paragraph describing the visual style every illustration for this
video should share (era, palette, lighting, medium, mood). Output only the
paragraph.

SCRIPT:
%s`

const scenePromptTemplate = `Write one image-generation prompt for the scene described below.
Describe a single concrete picture: subject, setting, composition, lighting.
No text or lettering in the image. Output only the prompt, one line.

VISUAL STYLE (apply to the image):
%s

SCENE NARRATION:
%s`

// PromptWriter turns script excerpts into image-generation prompts.
type PromptWriter struct {
	client *GeminiClient
	model  string
}

// NewPromptWriter builds a prompt writer for the configured model.
func NewPromptWriter(client *GeminiClient, model string) *PromptWriter {
	return &PromptWriter{client: client, model: model}
}

// StyleBible generates the project's reusable visual-style paragraph.
func (w *PromptWriter) StyleBible(ctx context.Context, script string) (string, error) {
	bible, err := w.client.Generate(ctx, w.model, fmt.Sprintf(styleBiblePromptTemplate, script))
	if err != nil {
		return "", fmt.Errorf("style bible: %w", err)
	}
	return bible, nil
}

// ScenePrompt generates one image prompt for a script excerpt, applying the
// shared style bible.
func (w *PromptWriter) ScenePrompt(ctx context.Context, excerpt, styleBible string) (string, error) {
	prompt, err := w.client.Generate(ctx, w.model, fmt.Sprintf(scenePromptTemplate, styleBible, excerpt))
	if err != nil {
		return "", fmt.Errorf("scene prompt: %w", err)
	}
	// Models occasionally return multiple lines; the first one is the prompt.
	prompt = firstLine(strings.TrimSpace(prompt))
	return strings.TrimSpace(prompt), nil
}

// PromptCount returns how many scene prompts a narration of the given
// duration needs: one image per secondsPerImage of audio, rounded up.
func PromptCount(audioSeconds float64, secondsPerImage int) int {
	if audioSeconds <= 0 || secondsPerImage <= 0 {
		return 0
	}
	count := int(audioSeconds) / secondsPerImage
	if float64(count*secondsPerImage) < audioSeconds {
		count++
	}
	return count
}
