package collab

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	texttospeech "google.golang.org/api/texttospeech/v1"
)

// synthesisCharLimit is the provider's per-request character ceiling. Longer
// scripts are chunked on paragraph boundaries and concatenated in order.
const synthesisCharLimit = 4500

// Synthesizer turns narration text into a single MP3 file via Google Cloud
// Text-to-Speech.
type Synthesizer struct {
	service  *texttospeech.Service
	run      CommandRunner
	voice    string
	language string
}

// NewSynthesizer builds a synthesizer using application-default credentials.
func NewSynthesizer(ctx context.Context, voice, language string, run CommandRunner) (*Synthesizer, error) {
	service, err := texttospeech.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("tts: create service: %w", err)
	}
	if run == nil {
		run = ExecRunner{}
	}
	return &Synthesizer{service: service, run: run, voice: voice, language: language}, nil
}

// Synthesize writes the narration for text to outPath. The file appears only
// after every chunk synthesized and concatenation succeeded.
func (s *Synthesizer) Synthesize(ctx context.Context, text, outPath string) error {
	chunks := SplitByLimit(text, synthesisCharLimit)
	if len(chunks) == 0 {
		return fmt.Errorf("tts: empty script")
	}

	tmpDir, err := os.MkdirTemp("", "vidforge-tts-")
	if err != nil {
		return fmt.Errorf("tts: temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		audio, err := s.synthesizeChunk(ctx, chunk)
		if err != nil {
			return fmt.Errorf("tts: chunk %d/%d: %w", i+1, len(chunks), err)
		}
		part := filepath.Join(tmpDir, fmt.Sprintf("part_%03d.mp3", i+1))
		if err := os.WriteFile(part, audio, 0o644); err != nil {
			return fmt.Errorf("tts: write chunk %d: %w", i+1, err)
		}
		parts = append(parts, part)
	}

	if len(parts) == 1 {
		return replaceFile(parts[0], outPath)
	}
	merged := filepath.Join(tmpDir, "merged.mp3")
	if err := s.concat(ctx, parts, merged); err != nil {
		return err
	}
	return replaceFile(merged, outPath)
}

func (s *Synthesizer) synthesizeChunk(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.service.Text.Synthesize(&texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: s.language,
			Name:         s.voice,
		},
		AudioConfig: &texttospeech.AudioConfig{AudioEncoding: "MP3"},
	}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio content: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio content")
	}
	return audio, nil
}

func (s *Synthesizer) concat(ctx context.Context, parts []string, outPath string) error {
	listFile := filepath.Join(filepath.Dir(outPath), "concat_list.txt")
	var lines []string
	for _, part := range parts {
		lines = append(lines, fmt.Sprintf("file '%s'", part))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("tts: write concat list: %w", err)
	}
	if _, err := s.run.Run(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		outPath,
	); err != nil {
		return fmt.Errorf("tts: concat: %w", err)
	}
	return nil
}

// ListVoices returns the names of voices available for the synthesizer's
// language, so operators can discover valid values for vidforge.yaml.
func (s *Synthesizer) ListVoices(ctx context.Context) ([]string, error) {
	resp, err := s.service.Voices.List().LanguageCode(s.language).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("tts: list voices: %w", err)
	}
	names := make([]string, 0, len(resp.Voices))
	for _, voice := range resp.Voices {
		names = append(names, voice.Name)
	}
	return names, nil
}

// replaceFile moves src over dst, falling back to copy when rename crosses
// filesystems.
func replaceFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("replace %s: %w", dst, err)
	}
	tmp := dst + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("replace %s: %w", dst, err)
	}
	return os.Rename(tmp, dst)
}
