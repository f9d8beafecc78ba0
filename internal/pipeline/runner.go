package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bibolabs/vidforge/internal/artifact"
	"github.com/bibolabs/vidforge/internal/collab"
	"github.com/bibolabs/vidforge/internal/config"
	"github.com/bibolabs/vidforge/internal/progress"
	"github.com/bibolabs/vidforge/internal/project"
	"github.com/bibolabs/vidforge/internal/stage"
)

// Transcriber turns a source URL into transcript text.
type Transcriber interface {
	Transcribe(ctx context.Context, sourceURL string) (string, error)
}

// Summarizer condenses a transcript into a narration script.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// SpeechSynthesizer writes the narration audio for a script to outPath.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, outPath string) error
}

// PromptWriter generates the style bible and per-scene image prompts.
type PromptWriter interface {
	StyleBible(ctx context.Context, script string) (string, error)
	ScenePrompt(ctx context.Context, excerpt, styleBible string) (string, error)
}

// ImageGenerator returns image bytes for one prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, seed int) ([]byte, error)
}

// MetadataWriter generates publishing metadata for a script.
type MetadataWriter interface {
	Generate(ctx context.Context, script string) (collab.VideoMetadata, error)
}

// VideoComposer renders the final video from images and the audio track.
type VideoComposer interface {
	Compose(ctx context.Context, imagesDir, audioPath, outPath string, audioSeconds float64) error
}

// AudioProber measures an audio file's duration in seconds.
type AudioProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Collaborators carries every external dependency the runner calls.
type Collaborators struct {
	Transcriber Transcriber
	Summarizer  Summarizer
	Synthesizer SpeechSynthesizer
	Prompts     PromptWriter
	Images      ImageGenerator
	Metadata    MetadataWriter
	Composer    VideoComposer
	Probe       AudioProber
}

// FromClients adapts the concrete collaborator bundle. A nil transcriber
// stays nil so the transcription stage reports its missing credentials.
func FromClients(c *collab.Clients) Collaborators {
	collabs := Collaborators{
		Summarizer:  c.Summarizer,
		Synthesizer: c.Synthesizer,
		Prompts:     c.Prompts,
		Images:      c.Images,
		Metadata:    c.Metadata,
		Composer:    c.Composer,
		Probe:       c.Probe,
	}
	if c.Transcriber != nil {
		collabs.Transcriber = c.Transcriber
	}
	return collabs
}

// RunOptions carries per-invocation input that is not stored on disk.
type RunOptions struct {
	// SourceURL is the video to transcribe; only the transcription stage
	// reads it.
	SourceURL string
}

// Runner executes one stage at a time: exactly one collaborator operation
// per stage, output written only after the collaborator finished.
type Runner struct {
	project  *project.Project
	store    *artifact.Store
	settings *config.Settings
	collabs  Collaborators
	sink     progress.Sink
}

// NewRunner builds a runner for one project.
func NewRunner(p *project.Project, settings *config.Settings, collabs Collaborators, sink progress.Sink) *Runner {
	return &Runner{
		project:  p,
		store:    artifact.NewStore(p),
		settings: settings,
		collabs:  collabs,
		sink:     sink,
	}
}

// Run executes the stage. Input paths are assumed already validated by the
// orchestrator's prerequisite check.
func (r *Runner) Run(ctx context.Context, def stage.Definition, opts RunOptions) error {
	switch def.ID {
	case stage.Transcription:
		return r.runTranscription(ctx, opts)
	case stage.Summarization:
		return r.runSummarization(ctx)
	case stage.TextToSpeech:
		return r.runTextToSpeech(ctx)
	case stage.ImagePrompting:
		return r.runImagePrompting(ctx)
	case stage.Metadata:
		return r.runMetadata(ctx)
	case stage.ImageGeneration:
		return r.runImageGeneration(ctx)
	case stage.VideoComposition:
		return r.runVideoComposition(ctx)
	default:
		return stageErrf(def.ID, nil, "unknown stage %d", int(def.ID))
	}
}

func (r *Runner) emit(id stage.ID, format string, args ...any) {
	progress.Emit(r.sink, id.String(), format, args...)
}

func (r *Runner) runTranscription(ctx context.Context, opts RunOptions) error {
	if r.collabs.Transcriber == nil {
		return stageErr(stage.Transcription, "transcriber unavailable", fmt.Errorf("VIDFORGE_GCS_BUCKET is not set"))
	}
	if strings.TrimSpace(opts.SourceURL) == "" {
		return stageErr(stage.Transcription, "no source URL provided", nil)
	}
	r.emit(stage.Transcription, "downloading and transcribing %s", opts.SourceURL)
	text, err := r.collabs.Transcriber.Transcribe(ctx, opts.SourceURL)
	if err != nil {
		return stageErr(stage.Transcription, "transcription failed", err)
	}
	if err := writeFileArtifact(r.project.TranscriptPath(), []byte(text)); err != nil {
		return stageErr(stage.Transcription, "write transcript", err)
	}
	r.emit(stage.Transcription, "transcript saved (%d words)", len(strings.Fields(text)))
	return nil
}

func (r *Runner) runSummarization(ctx context.Context) error {
	transcript, err := os.ReadFile(r.project.TranscriptPath())
	if err != nil {
		return stageErr(stage.Summarization, "read transcript", err)
	}
	r.emit(stage.Summarization, "generating narration script")
	script, err := r.collabs.Summarizer.Summarize(ctx, string(transcript))
	if err != nil {
		return stageErr(stage.Summarization, "summarization failed", err)
	}
	if err := writeFileArtifact(r.project.SummaryPath(), []byte(script)); err != nil {
		return stageErr(stage.Summarization, "write script", err)
	}
	r.emit(stage.Summarization, "script saved (%d words)", len(strings.Fields(script)))
	return nil
}

func (r *Runner) runTextToSpeech(ctx context.Context) error {
	script, err := os.ReadFile(r.project.SummaryPath())
	if err != nil {
		return stageErr(stage.TextToSpeech, "read script", err)
	}
	r.emit(stage.TextToSpeech, "synthesizing narration")
	if err := r.collabs.Synthesizer.Synthesize(ctx, string(script), r.project.AudioPath()); err != nil {
		return stageErr(stage.TextToSpeech, "speech synthesis failed", err)
	}
	r.emit(stage.TextToSpeech, "narration audio saved")
	return nil
}

func (r *Runner) runImagePrompting(ctx context.Context) error {
	script, err := os.ReadFile(r.project.SummaryPath())
	if err != nil {
		return stageErr(stage.ImagePrompting, "read script", err)
	}
	duration, err := r.collabs.Probe.Duration(ctx, r.project.AudioPath())
	if err != nil {
		return stageErr(stage.ImagePrompting, "measure narration duration", err)
	}
	count := collab.PromptCount(duration, r.settings.SecondsPerImage)
	if count == 0 {
		return stageErr(stage.ImagePrompting, "narration too short for any scene", nil)
	}
	r.emit(stage.ImagePrompting, "%.0fs of narration, writing %d scene prompts", duration, count)

	bible, err := r.collabs.Prompts.StyleBible(ctx, string(script))
	if err != nil {
		return stageErr(stage.ImagePrompting, "style bible failed", err)
	}
	if err := writeFileArtifact(r.project.StyleBiblePath(), []byte(bible)); err != nil {
		return stageErr(stage.ImagePrompting, "write style bible", err)
	}

	chunks := collab.SplitIntoChunks(string(script), count)
	prompts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		prompt, err := r.collabs.Prompts.ScenePrompt(ctx, chunk, bible)
		if err != nil {
			return stageErrf(stage.ImagePrompting, err, "scene %d/%d failed", i+1, len(chunks))
		}
		prompts = append(prompts, prompt)
		r.emit(stage.ImagePrompting, "scene %d/%d prompted", i+1, len(chunks))
	}
	encoded, err := encodePrompts(prompts)
	if err != nil {
		return stageErr(stage.ImagePrompting, "encode prompts", err)
	}
	if err := writeFileArtifact(r.project.PromptsPath(), encoded); err != nil {
		return stageErr(stage.ImagePrompting, "write prompts", err)
	}
	r.emit(stage.ImagePrompting, "%d prompts saved", len(prompts))
	return nil
}

func (r *Runner) runMetadata(ctx context.Context) error {
	script, err := os.ReadFile(r.project.SummaryPath())
	if err != nil {
		return stageErr(stage.Metadata, "read script", err)
	}
	r.emit(stage.Metadata, "generating publishing metadata")
	meta, err := r.collabs.Metadata.Generate(ctx, string(script))
	if err != nil {
		return stageErr(stage.Metadata, "metadata generation failed", err)
	}
	encoded, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return stageErr(stage.Metadata, "encode metadata", err)
	}
	if err := writeFileArtifact(r.project.MetadataPath(), append(encoded, '\n')); err != nil {
		return stageErr(stage.Metadata, "write metadata", err)
	}
	r.emit(stage.Metadata, "metadata saved (%d titles, %d hashtags)", len(meta.Titles), len(meta.Hashtags))
	return nil
}

func (r *Runner) runImageGeneration(ctx context.Context) error {
	prompts, err := ReadPrompts(r.project.PromptsPath())
	if err != nil {
		return stageErr(stage.ImageGeneration, "load prompts", err)
	}

	// Regeneration clears the directory first so a smaller batch never
	// leaves stale frames from a larger previous run.
	imagesDir := r.project.ImagesDir()
	if err := os.RemoveAll(imagesDir); err != nil {
		return stageErr(stage.ImageGeneration, "clear image directory", err)
	}
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return stageErr(stage.ImageGeneration, "create image directory", err)
	}

	var log []ImageLogEntry
	var failures int
	for i, prompt := range prompts {
		index := i + 1
		r.emit(stage.ImageGeneration, "generating image %d/%d", index, len(prompts))
		data, err := r.collabs.Images.Generate(ctx, prompt, index*42+7)
		if err != nil {
			failures++
			r.emit(stage.ImageGeneration, "image %d failed: %v", index, err)
			continue
		}
		path := filepath.Join(imagesDir, fmt.Sprintf("%03d.png", index))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			failures++
			r.emit(stage.ImageGeneration, "image %d write failed: %v", index, err)
			continue
		}
		log = append(log, ImageLogEntry{Index: index, Prompt: prompt, Filepath: path})
	}

	if len(log) == 0 {
		return stageErrf(stage.ImageGeneration, nil, "all %d images failed", len(prompts))
	}
	encoded, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return stageErr(stage.ImageGeneration, "encode image log", err)
	}
	if err := os.WriteFile(r.project.ImageLogPath(), append(encoded, '\n'), 0o644); err != nil {
		return stageErr(stage.ImageGeneration, "write image log", err)
	}
	if failures > 0 {
		r.emit(stage.ImageGeneration, "%d of %d images generated, %d failed", len(log), len(prompts), failures)
	} else {
		r.emit(stage.ImageGeneration, "%d images generated", len(log))
	}
	return nil
}

func (r *Runner) runVideoComposition(ctx context.Context) error {
	duration, err := r.collabs.Probe.Duration(ctx, r.project.AudioPath())
	if err != nil {
		return stageErr(stage.VideoComposition, "measure narration duration", err)
	}
	r.emit(stage.VideoComposition, "rendering %.0fs video", duration)
	if err := r.collabs.Composer.Compose(ctx, r.project.ImagesDir(), r.project.AudioPath(), r.project.VideoPath(), duration); err != nil {
		return stageErr(stage.VideoComposition, "composition failed", err)
	}
	r.emit(stage.VideoComposition, "final video saved")
	return nil
}

// writeFileArtifact writes content next to the target then renames it into
// place, so the artifact never exists half-written.
func writeFileArtifact(path string, content []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
