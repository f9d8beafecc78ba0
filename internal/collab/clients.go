package collab

import (
	"context"

	"github.com/bibolabs/vidforge/internal/config"
)

// Clients bundles every collaborator, constructed once per process and
// passed into the stage runner. Construction never touches the network;
// credential problems surface on first use and abort only that stage.
type Clients struct {
	Transcriber *Transcriber
	Summarizer  *Summarizer
	Prompts     *PromptWriter
	Metadata    *MetadataWriter
	Synthesizer *Synthesizer
	Images      *ImageClient
	Composer    *Composer
	Probe       *Probe
}

// NewClients wires the collaborator set from settings. The command runner is
// shared across everything that shells out.
func NewClients(ctx context.Context, settings *config.Settings) (*Clients, error) {
	run := ExecRunner{}
	gemini := NewGeminiClient(settings.GeminiAPIKey)

	synthesizer, err := NewSynthesizer(ctx, settings.Voice.Name, settings.Voice.Language, run)
	if err != nil {
		return nil, err
	}

	// The transcriber needs a GCS bucket; without one the transcription
	// stage is unavailable but the rest of the pipeline still works.
	var transcriber *Transcriber
	if settings.TranscriptionBucket != "" {
		transcriber, err = NewTranscriber(ctx, settings.TranscriptionBucket, settings.Voice.Language, run)
		if err != nil {
			return nil, err
		}
	}

	return &Clients{
		Transcriber: transcriber,
		Summarizer:  NewSummarizer(gemini, settings.Models.Summarization),
		Prompts:     NewPromptWriter(gemini, settings.Models.Prompting),
		Metadata:    NewMetadataWriter(gemini, settings.Models.Metadata),
		Synthesizer: synthesizer,
		Images:      NewImageClient(settings.Images.Model, settings.Images.Width, settings.Images.Height),
		Composer:    NewComposer(run, settings.Images.Width, settings.Images.Height),
		Probe:       NewProbe(run),
	}, nil
}
