package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bibolabs/vidforge/internal/artifact"
	"github.com/bibolabs/vidforge/internal/collab"
	"github.com/bibolabs/vidforge/internal/config"
	"github.com/bibolabs/vidforge/internal/project"
	"github.com/bibolabs/vidforge/internal/stage"
)

// stubCollabs implements every collaborator interface and counts calls so
// tests can assert that skipped stages never reach an external service.
type stubCollabs struct {
	transcribeCalls int
	summarizeCalls  int
	synthCalls      int
	bibleCalls      int
	sceneCalls      int
	imageCalls      int
	metadataCalls   int
	composeCalls    int

	transcript string
	script     string
	duration   float64

	summarizeErr error
	metadataErr  error
	imageErr     error
}

func (s *stubCollabs) Transcribe(ctx context.Context, sourceURL string) (string, error) {
	s.transcribeCalls++
	return s.transcript, nil
}

func (s *stubCollabs) Summarize(ctx context.Context, transcript string) (string, error) {
	s.summarizeCalls++
	if s.summarizeErr != nil {
		return "", s.summarizeErr
	}
	return s.script, nil
}

func (s *stubCollabs) Synthesize(ctx context.Context, text, outPath string) error {
	s.synthCalls++
	return os.WriteFile(outPath, []byte("mp3"), 0o644)
}

func (s *stubCollabs) StyleBible(ctx context.Context, script string) (string, error) {
	s.bibleCalls++
	return "muted palette, soft light", nil
}

func (s *stubCollabs) ScenePrompt(ctx context.Context, excerpt, styleBible string) (string, error) {
	s.sceneCalls++
	return "a painting of " + strings.Fields(excerpt)[0], nil
}

func (s *stubCollabs) Generate(ctx context.Context, prompt string, seed int) ([]byte, error) {
	s.imageCalls++
	if s.imageErr != nil {
		return nil, s.imageErr
	}
	return []byte("fake png bytes"), nil
}

func (s *stubCollabs) GenerateMetadata(ctx context.Context, script string) (collab.VideoMetadata, error) {
	s.metadataCalls++
	if s.metadataErr != nil {
		return collab.VideoMetadata{}, s.metadataErr
	}
	return collab.VideoMetadata{
		Titles:      []string{"A Title"},
		Description: "A description.",
	}, nil
}

func (s *stubCollabs) Compose(ctx context.Context, imagesDir, audioPath, outPath string, audioSeconds float64) error {
	s.composeCalls++
	return os.WriteFile(outPath, []byte("mp4"), 0o644)
}

func (s *stubCollabs) Duration(ctx context.Context, path string) (float64, error) {
	return s.duration, nil
}

func (s *stubCollabs) totalCalls() int {
	return s.transcribeCalls + s.summarizeCalls + s.synthCalls + s.bibleCalls +
		s.sceneCalls + s.imageCalls + s.metadataCalls + s.composeCalls
}

// metadataAdapter splits GenerateMetadata from the image generator's
// Generate on the same stub.
type metadataAdapter struct{ stub *stubCollabs }

func (a metadataAdapter) Generate(ctx context.Context, script string) (collab.VideoMetadata, error) {
	return a.stub.GenerateMetadata(ctx, script)
}

func newTestOrchestrator(t *testing.T, opts ...Option) (*Orchestrator, *stubCollabs, *project.Project) {
	t.Helper()
	p, err := project.Create(t.TempDir(), "demo")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	stub := &stubCollabs{
		transcript: strings.Repeat("word ", 37),
		script:     strings.Repeat("scene word text here ", 50),
		duration:   185,
	}
	runner := NewRunner(p, config.Default(p.Dir()), Collaborators{
		Transcriber: stub,
		Summarizer:  stub,
		Synthesizer: stub,
		Prompts:     stub,
		Images:      stub,
		Metadata:    metadataAdapter{stub},
		Composer:    stub,
		Probe:       stub,
	}, nil)
	return New(p, runner, opts...), stub, p
}

func seedTranscript(t *testing.T, p *project.Project) {
	t.Helper()
	if err := os.WriteFile(p.TranscriptPath(), []byte("the source transcript"), 0o644); err != nil {
		t.Fatalf("seed transcript: %v", err)
	}
}

func TestRunStageMissingPrerequisiteDoesNotCallCollaborator(t *testing.T) {
	o, stub, _ := newTestOrchestrator(t)
	result := o.RunStage(context.Background(), stage.Summarization, RunOptions{})
	if result.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", result.Status)
	}
	if !strings.Contains(result.Message, artifact.Transcript.Name) {
		t.Fatalf("message %q does not name the missing artifact", result.Message)
	}
	if stub.totalCalls() != 0 {
		t.Fatalf("collaborators called %d times, want 0", stub.totalCalls())
	}
}

func TestNextMissingAdvancesWithArtifacts(t *testing.T) {
	o, _, p := newTestOrchestrator(t)
	def, ok := o.NextMissing()
	if !ok || def.ID != stage.Transcription {
		t.Fatalf("fresh project next = %v, want Transcription", def.ID)
	}
	seedTranscript(t, p)
	def, ok = o.NextMissing()
	if !ok || def.ID != stage.Summarization {
		t.Fatalf("next after transcript = %v, want Summarization", def.ID)
	}
}

func TestRunFromDrivesRemainingPipeline(t *testing.T) {
	o, stub, p := newTestOrchestrator(t)
	seedTranscript(t, p)

	results := o.RunFrom(context.Background(), nil, RunOptions{})
	if len(results) != 6 {
		t.Fatalf("results = %d, want 6", len(results))
	}
	for _, r := range results {
		if r.Status != StatusCompleted {
			t.Fatalf("stage %s status = %s: %s", r.Stage, r.Status, r.Message)
		}
	}

	// 185s at 20s per image needs exactly 10 prompts and 10 images.
	prompts, err := ReadPrompts(p.PromptsPath())
	if err != nil {
		t.Fatalf("read prompts: %v", err)
	}
	if len(prompts) != 10 {
		t.Fatalf("prompts = %d, want 10", len(prompts))
	}
	if stub.sceneCalls != 10 || stub.imageCalls != 10 {
		t.Fatalf("scene calls = %d, image calls = %d, want 10 each", stub.sceneCalls, stub.imageCalls)
	}
	if _, err := os.Stat(p.StyleBiblePath()); err != nil {
		t.Fatalf("style bible missing: %v", err)
	}
	if _, err := os.Stat(p.VideoPath()); err != nil {
		t.Fatalf("final video missing: %v", err)
	}

	// Idempotence: a second pass with all artifacts present performs zero
	// collaborator calls.
	before := stub.totalCalls()
	again := o.RunFrom(context.Background(), nil, RunOptions{})
	if len(again) != 0 {
		t.Fatalf("second pass ran %d stages, want 0", len(again))
	}
	if stub.totalCalls() != before {
		t.Fatalf("second pass made %d collaborator calls", stub.totalCalls()-before)
	}
}

func TestRunFromStopsAtFailureAndResumesThere(t *testing.T) {
	o, stub, p := newTestOrchestrator(t)
	seedTranscript(t, p)
	stub.metadataErr = fmt.Errorf("quota exceeded")

	results := o.RunFrom(context.Background(), nil, RunOptions{})
	last := results[len(results)-1]
	if last.Stage != stage.Metadata || last.Status != StatusFailed {
		t.Fatalf("last result = %s/%s, want Metadata failed", last.Stage, last.Status)
	}
	if stub.imageCalls != 0 || stub.composeCalls != 0 {
		t.Fatal("stages after the failure were attempted")
	}

	stub.metadataErr = nil
	summarizeBefore := stub.summarizeCalls
	resume := o.RunFrom(context.Background(), nil, RunOptions{})
	if resume[0].Stage != stage.Metadata {
		t.Fatalf("resume started at %s, want Metadata", resume[0].Stage)
	}
	for _, r := range resume {
		if r.Status != StatusCompleted {
			t.Fatalf("resume stage %s status = %s: %s", r.Stage, r.Status, r.Message)
		}
	}
	if stub.summarizeCalls != summarizeBefore {
		t.Fatal("resume re-ran an already-satisfied stage")
	}
}

func TestRunStageResetsApprovalOnRegenerate(t *testing.T) {
	o, _, p := newTestOrchestrator(t)
	seedTranscript(t, p)

	if r := o.RunStage(context.Background(), stage.Summarization, RunOptions{}); r.Status != StatusCompleted {
		t.Fatalf("first run: %s %s", r.Status, r.Message)
	}
	if err := p.SetApproval(project.ApprovalScript, true); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if r := o.RunStage(context.Background(), stage.Summarization, RunOptions{}); r.Status != StatusCompleted {
		t.Fatalf("regenerate: %s %s", r.Status, r.Message)
	}
	if p.Approved(project.ApprovalScript) {
		t.Fatal("approval survived regeneration")
	}
}

func TestRunStageOverwriteDeclinedSkips(t *testing.T) {
	declined := func(def stage.Definition, path string) bool { return false }
	o, stub, p := newTestOrchestrator(t, WithConfirm(declined))
	seedTranscript(t, p)
	if err := os.WriteFile(p.SummaryPath(), []byte("original script"), 0o644); err != nil {
		t.Fatalf("seed summary: %v", err)
	}

	result := o.RunStage(context.Background(), stage.Summarization, RunOptions{})
	if result.Status != StatusSkipped {
		t.Fatalf("status = %s, want skipped", result.Status)
	}
	if stub.summarizeCalls != 0 {
		t.Fatal("declined overwrite still called the collaborator")
	}
	content, _ := os.ReadFile(p.SummaryPath())
	if string(content) != "original script" {
		t.Fatal("declined overwrite changed the artifact")
	}
}

func TestQueueComputesDependencyClosure(t *testing.T) {
	o, _, p := newTestOrchestrator(t)
	seedTranscript(t, p)
	if err := os.WriteFile(p.SummaryPath(), []byte("script text"), 0o644); err != nil {
		t.Fatalf("seed summary: %v", err)
	}

	queue, err := o.Queue(stage.ImagePrompting)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	var ids []stage.ID
	for _, def := range queue {
		ids = append(ids, def.ID)
	}
	if len(ids) != 2 || ids[0] != stage.TextToSpeech || ids[1] != stage.ImagePrompting {
		t.Fatalf("queue = %v, want [TextToSpeech ImagePrompting]", ids)
	}
}

func TestRunWithDependenciesRunsMissingUpstreamFirst(t *testing.T) {
	o, stub, p := newTestOrchestrator(t)
	seedTranscript(t, p)
	if err := os.WriteFile(p.SummaryPath(), []byte(stub.script), 0o644); err != nil {
		t.Fatalf("seed summary: %v", err)
	}

	results := o.RunWithDependencies(context.Background(), stage.ImagePrompting, RunOptions{})
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Stage != stage.TextToSpeech || results[1].Stage != stage.ImagePrompting {
		t.Fatalf("order = %s then %s", results[0].Stage, results[1].Stage)
	}
	for _, r := range results {
		if r.Status != StatusCompleted {
			t.Fatalf("stage %s status = %s: %s", r.Stage, r.Status, r.Message)
		}
	}
	if stub.summarizeCalls != 0 {
		t.Fatal("satisfied dependency re-ran")
	}
}

func TestImageRegenerationClearsStaleFrames(t *testing.T) {
	o, _, p := newTestOrchestrator(t)
	seedTranscript(t, p)
	results := o.RunFrom(context.Background(), nil, RunOptions{})
	if last := results[len(results)-1]; last.Status != StatusCompleted {
		t.Fatalf("pipeline did not complete: %s %s", last.Status, last.Message)
	}

	// A leftover frame beyond the new batch must not survive regeneration.
	stale := filepath.Join(p.ImagesDir(), "099.png")
	if err := os.WriteFile(stale, []byte("stale"), 0o644); err != nil {
		t.Fatalf("seed stale frame: %v", err)
	}
	if r := o.RunStage(context.Background(), stage.ImageGeneration, RunOptions{}); r.Status != StatusCompleted {
		t.Fatalf("regenerate: %s %s", r.Status, r.Message)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale frame survived regeneration")
	}
}

func TestSaveScriptApprovalFollowsContentChange(t *testing.T) {
	_, _, p := newTestOrchestrator(t)
	if err := os.WriteFile(p.SummaryPath(), []byte("the script"), 0o644); err != nil {
		t.Fatalf("seed summary: %v", err)
	}
	if err := p.SetApproval(project.ApprovalScript, true); err != nil {
		t.Fatalf("approve: %v", err)
	}

	changed, err := SaveScript(p, []byte("the script"))
	if err != nil || changed {
		t.Fatalf("identical save: changed=%v err=%v", changed, err)
	}
	if !p.Approved(project.ApprovalScript) {
		t.Fatal("identical save revoked approval")
	}

	changed, err = SaveScript(p, []byte("a different script"))
	if err != nil || !changed {
		t.Fatalf("different save: changed=%v err=%v", changed, err)
	}
	if p.Approved(project.ApprovalScript) {
		t.Fatal("changed save kept approval")
	}
}
