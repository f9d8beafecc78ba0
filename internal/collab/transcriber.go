package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	speech "google.golang.org/api/speech/v1"
	storage "google.golang.org/api/storage/v1"
)

const (
	transcriptionPrefix       = "transcription-temp"
	transcriptionPollInterval = 10 * time.Second
)

// Transcriber downloads a video's audio track and transcribes it with
// Google Cloud Speech-to-Text. Long recordings go through GCS and the
// long-running recognize operation.
type Transcriber struct {
	speech  *speech.Service
	storage *storage.Service
	run     CommandRunner
	bucket  string
	lang    string
}

// NewTranscriber builds a transcriber using application-default credentials.
// The bucket holds temporary FLAC uploads and is required.
func NewTranscriber(ctx context.Context, bucket, language string, run CommandRunner) (*Transcriber, error) {
	if bucket == "" {
		return nil, fmt.Errorf("transcribe: VIDFORGE_GCS_BUCKET is not set")
	}
	speechService, err := speech.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("transcribe: create speech service: %w", err)
	}
	storageService, err := storage.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("transcribe: create storage service: %w", err)
	}
	if run == nil {
		run = ExecRunner{}
	}
	return &Transcriber{
		speech:  speechService,
		storage: storageService,
		run:     run,
		bucket:  bucket,
		lang:    language,
	}, nil
}

// Transcribe downloads the source URL's audio and returns its transcript.
func (t *Transcriber) Transcribe(ctx context.Context, sourceURL string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "vidforge-stt-")
	if err != nil {
		return "", fmt.Errorf("transcribe: temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	flacPath, err := t.downloadAudio(ctx, sourceURL, tmpDir)
	if err != nil {
		return "", err
	}

	blobName := fmt.Sprintf("%s/%s.flac", transcriptionPrefix, uuid.NewString())
	if err := t.upload(ctx, flacPath, blobName); err != nil {
		return "", err
	}
	defer func() {
		_ = t.storage.Objects.Delete(t.bucket, blobName).Do()
	}()

	return t.recognize(ctx, blobName)
}

func (t *Transcriber) downloadAudio(ctx context.Context, sourceURL, tmpDir string) (string, error) {
	target := filepath.Join(tmpDir, "source.%(ext)s")
	if _, err := t.run.Run(ctx, "yt-dlp",
		"--no-playlist",
		"-f", "bestaudio",
		"-o", target,
		sourceURL,
	); err != nil {
		return "", fmt.Errorf("transcribe: download: %w", err)
	}
	matches, err := filepath.Glob(filepath.Join(tmpDir, "source.*"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("transcribe: downloaded audio not found in %s", tmpDir)
	}

	flacPath := filepath.Join(tmpDir, "audio.flac")
	if _, err := t.run.Run(ctx, "ffmpeg", "-y",
		"-i", matches[0],
		"-ac", "1",
		"-ar", "16000",
		flacPath,
	); err != nil {
		return "", fmt.Errorf("transcribe: convert: %w", err)
	}
	return flacPath, nil
}

func (t *Transcriber) upload(ctx context.Context, path, blobName string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("transcribe: open %s: %w", path, err)
	}
	defer file.Close()
	_, err = t.storage.Objects.Insert(t.bucket, &storage.Object{Name: blobName}).
		Media(file).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("transcribe: upload gs://%s/%s: %w", t.bucket, blobName, err)
	}
	return nil
}

func (t *Transcriber) recognize(ctx context.Context, blobName string) (string, error) {
	op, err := t.speech.Speech.Longrunningrecognize(&speech.LongRunningRecognizeRequest{
		Config: &speech.RecognitionConfig{
			Encoding:          "FLAC",
			SampleRateHertz:   16000,
			AudioChannelCount: 1,
			LanguageCode:      t.lang,
			Model:             "latest_long",
		},
		Audio: &speech.RecognitionAudio{
			Uri: fmt.Sprintf("gs://%s/%s", t.bucket, blobName),
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("transcribe: start recognize: %w", err)
	}

	for !op.Done {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(transcriptionPollInterval):
		}
		op, err = t.speech.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("transcribe: poll operation: %w", err)
		}
	}
	if op.Error != nil {
		return "", fmt.Errorf("transcribe: recognize failed: %s", op.Error.Message)
	}

	var response speech.LongRunningRecognizeResponse
	if err := json.Unmarshal(op.Response, &response); err != nil {
		return "", fmt.Errorf("transcribe: decode response: %w", err)
	}
	var parts []string
	for _, result := range response.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		if text := strings.TrimSpace(result.Alternatives[0].Transcript); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("transcribe: no speech recognized")
	}
	return strings.Join(parts, " "), nil
}
