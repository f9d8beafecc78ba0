package stage

import (
	"os"
	"strings"
	"testing"

	"github.com/bibolabs/vidforge/internal/artifact"
	"github.com/bibolabs/vidforge/internal/project"
)

func TestTableOrderAndOutputs(t *testing.T) {
	defs := All()
	if len(defs) != 7 {
		t.Fatalf("stage count = %d, want 7", len(defs))
	}
	for i, def := range defs {
		if int(def.ID) != i {
			t.Fatalf("stage %d has ID %d", i, int(def.ID))
		}
	}
	if defs[0].Prerequisite != nil {
		t.Fatal("transcription has a prerequisite")
	}
	if defs[int(Metadata)].Prerequisite.ID != artifact.Summary.ID {
		t.Fatal("metadata prerequisite is not the script")
	}
	if defs[int(ImagePrompting)].Prerequisite.ID != artifact.Summary.ID {
		t.Fatal("image prompting prerequisite is not the script")
	}
}

func TestApprovableStages(t *testing.T) {
	gated := map[ID]project.ApprovalStage{
		Summarization:    project.ApprovalScript,
		TextToSpeech:     project.ApprovalAudio,
		Metadata:         project.ApprovalMetadata,
		ImageGeneration:  project.ApprovalImages,
		VideoComposition: project.ApprovalVideo,
	}
	for _, def := range All() {
		want, ok := gated[def.ID]
		if ok != def.Approvable() {
			t.Fatalf("%s approvable = %v, want %v", def.Label, def.Approvable(), ok)
		}
		if ok && def.Approval != want {
			t.Fatalf("%s approval = %s, want %s", def.Label, def.Approval, want)
		}
	}
}

func TestPrerequisiteSatisfied(t *testing.T) {
	p, err := project.Create(t.TempDir(), "demo")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	store := artifact.NewStore(p)

	def, _ := Lookup(Transcription)
	if ok, reason := def.PrerequisiteSatisfied(store); !ok || reason != "" {
		t.Fatalf("no-prereq stage: ok=%v reason=%q", ok, reason)
	}

	def, _ = Lookup(Summarization)
	ok, reason := def.PrerequisiteSatisfied(store)
	if ok {
		t.Fatal("summarization runnable without transcript")
	}
	if !strings.Contains(reason, artifact.Transcript.Name) {
		t.Fatalf("reason %q does not name the missing artifact", reason)
	}

	if err := os.WriteFile(p.TranscriptPath(), []byte("words"), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	if ok, _ := def.PrerequisiteSatisfied(store); !ok {
		t.Fatal("summarization blocked with transcript present")
	}
}

func TestParseBounds(t *testing.T) {
	if _, err := Parse(-1); err == nil {
		t.Fatal("Parse(-1) succeeded")
	}
	if _, err := Parse(7); err == nil {
		t.Fatal("Parse(7) succeeded")
	}
	id, err := Parse(6)
	if err != nil || id != VideoComposition {
		t.Fatalf("Parse(6) = %v, %v", id, err)
	}
}
