// Package stage defines the fixed, ordered pipeline stage table. The table
// is static: iteration order, output artifacts, and prerequisites are part
// of the on-disk contract and are not configurable at runtime.

package stage

import (
	"fmt"

	"github.com/bibolabs/vidforge/internal/artifact"
	"github.com/bibolabs/vidforge/internal/project"
)

// ID is the stage's order index in the pipeline.
type ID int

const (
	Transcription ID = iota
	Summarization
	TextToSpeech
	ImagePrompting
	Metadata
	ImageGeneration
	VideoComposition

	stageCount
)

// Definition describes one pipeline stage.
type Definition struct {
	ID    ID
	Label string

	// Output is the artifact whose presence marks the stage done.
	Output artifact.Ref

	// Prerequisite is the single upstream artifact that must exist before
	// the stage may run, nil when the stage has none.
	Prerequisite *artifact.Ref

	// DependsOn lists every stage whose output this stage consumes. Used by
	// the orchestrator's dependency-closure resolution; a superset of
	// Prerequisite where a stage reads more than one upstream artifact.
	DependsOn []ID

	// Approval names the human sign-off gate for this stage's output, empty
	// when the stage has no gate.
	Approval project.ApprovalStage
}

var table = [stageCount]Definition{
	{
		ID:     Transcription,
		Label:  "Transcription",
		Output: artifact.Transcript,
	},
	{
		ID:           Summarization,
		Label:        "Summarization",
		Output:       artifact.Summary,
		Prerequisite: &artifact.Transcript,
		DependsOn:    []ID{Transcription},
		Approval:     project.ApprovalScript,
	},
	{
		ID:           TextToSpeech,
		Label:        "Text to Speech",
		Output:       artifact.Audio,
		Prerequisite: &artifact.Summary,
		DependsOn:    []ID{Summarization},
		Approval:     project.ApprovalAudio,
	},
	{
		ID:           ImagePrompting,
		Label:        "Image Prompting",
		Output:       artifact.Prompts,
		Prerequisite: &artifact.Summary,
		// Prompt count derives from the narration duration, so the audio
		// stage is a dependency even though the registry prerequisite is
		// the script.
		DependsOn: []ID{Summarization, TextToSpeech},
	},
	{
		ID:           Metadata,
		Label:        "Metadata",
		Output:       artifact.Metadata,
		Prerequisite: &artifact.Summary,
		DependsOn:    []ID{Summarization},
		Approval:     project.ApprovalMetadata,
	},
	{
		ID:           ImageGeneration,
		Label:        "Image Generation",
		Output:       artifact.Images,
		Prerequisite: &artifact.Prompts,
		DependsOn:    []ID{ImagePrompting},
		Approval:     project.ApprovalImages,
	},
	{
		ID:           VideoComposition,
		Label:        "Video Composition",
		Output:       artifact.Video,
		Prerequisite: &artifact.Audio,
		DependsOn:    []ID{TextToSpeech, ImageGeneration},
		Approval:     project.ApprovalVideo,
	},
}

// All returns the stage definitions in pipeline order.
func All() []Definition {
	out := make([]Definition, 0, len(table))
	for _, def := range table {
		out = append(out, def)
	}
	return out
}

// Count returns the number of pipeline stages.
func Count() int {
	return int(stageCount)
}

// Lookup returns the definition for a stage ID.
func Lookup(id ID) (Definition, bool) {
	if id < 0 || id >= stageCount {
		return Definition{}, false
	}
	return table[id], true
}

// Parse converts a numeric stage index into an ID.
func Parse(n int) (ID, error) {
	if n < 0 || n >= int(stageCount) {
		return 0, fmt.Errorf("stage: index %d out of range 0-%d", n, int(stageCount)-1)
	}
	return ID(n), nil
}

// String returns the stage label.
func (id ID) String() string {
	if def, ok := Lookup(id); ok {
		return def.Label
	}
	return fmt.Sprintf("stage(%d)", int(id))
}

// Approvable reports whether the stage output carries a human sign-off gate.
func (d Definition) Approvable() bool {
	return d.Approval != ""
}

// PrerequisiteSatisfied reports whether the stage may run for the store's
// project. Stages without a prerequisite are always runnable; otherwise the
// answer is true iff the prerequisite artifact exists, and the reason names
// the missing artifact.
func (d Definition) PrerequisiteSatisfied(store *artifact.Store) (bool, string) {
	if d.Prerequisite == nil {
		return true, ""
	}
	if store.Exists(*d.Prerequisite) {
		return true, ""
	}
	return false, fmt.Sprintf("missing prerequisite: %s", d.Prerequisite.Name)
}
