// Package artifact defines the durable outputs stages exchange. Each
// artifact has a stable identifier, a kind, and a resolver that maps to the
// actual path within a project directory.

package artifact

import (
	"fmt"
	"path/filepath"

	"github.com/bibolabs/vidforge/internal/project"
)

// Kind captures the storage shape of an artifact.
type Kind string

const (
	// KindFile represents a single file that must exist with size > 0.
	KindFile Kind = "file"
	// KindDirectory represents a directory that must contain at least one
	// entry (entries starting with "_" do not count).
	KindDirectory Kind = "directory"
)

// PathResolver returns the fully-qualified path to an artifact for a project.
type PathResolver func(*project.Project) string

// Ref declares a stable identifier and metadata for an artifact.
type Ref struct {
	ID          string
	Name        string
	Description string
	Kind        Kind
	Optional    bool
	path        PathResolver
}

// Path resolves the artifact path for the provided project.
func (r Ref) Path(p *project.Project) string {
	if p == nil || r.path == nil {
		return ""
	}
	return filepath.Clean(r.path(p))
}

// Validate ensures the reference is well-formed.
func (r Ref) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("artifact: id is required")
	}
	if r.Kind == "" {
		return fmt.Errorf("artifact: kind is required for %s", r.ID)
	}
	if r.path == nil {
		return fmt.Errorf("artifact: path resolver missing for %s", r.ID)
	}
	return nil
}

// State captures the readiness of an artifact on disk.
type State string

const (
	StateMissing State = "missing"
	StateReady   State = "ready"
	StateError   State = "error"
)

// CheckResult captures Store.Check results.
type CheckResult struct {
	Ref   Ref
	Path  string
	State State
	Err   error
}

// Exists reports whether the artifact is present per the existence rule.
func (c CheckResult) Exists() bool {
	return c.State == StateReady
}

// helper to register global references
func register(ref Ref) Ref {
	if refs == nil {
		refs = map[string]Ref{}
	}
	refs[ref.ID] = ref
	return ref
}

var refs map[string]Ref

// Lookup returns a registered artifact reference by ID.
func Lookup(id string) (Ref, bool) {
	ref, ok := refs[id]
	return ref, ok
}

// newFileRef creates a single-file reference helper.
func newFileRef(id, name, desc string, resolver PathResolver) Ref {
	return Ref{
		ID:          id,
		Name:        name,
		Description: desc,
		Kind:        KindFile,
		path:        resolver,
	}
}

// newDirectoryRef creates a directory reference helper.
func newDirectoryRef(id, name, desc string, resolver PathResolver) Ref {
	return Ref{
		ID:          id,
		Name:        name,
		Description: desc,
		Kind:        KindDirectory,
		path:        resolver,
	}
}

// Canonical artifact references for the narrated-video pipeline.
var (
	Transcript = register(newFileRef("transcript", "Transcript", "Raw transcript of the source video", func(p *project.Project) string { return p.TranscriptPath() }))
	Summary    = register(newFileRef("summary", "Narration Script", "Condensed narration script generated from the transcript", func(p *project.Project) string { return p.SummaryPath() }))
	Audio      = register(newFileRef("audio", "Narration Audio", "Synthesized narration track", func(p *project.Project) string { return p.AudioPath() }))
	Prompts    = register(newFileRef("prompts", "Image Prompts", "Numbered scene prompts for image generation", func(p *project.Project) string { return p.PromptsPath() }))
	StyleBible = register(Ref{
		ID:          "style-bible",
		Name:        "Style Bible",
		Description: "Reusable visual-style description shared across scene prompts",
		Kind:        KindFile,
		Optional:    true,
		path:        func(p *project.Project) string { return p.StyleBiblePath() },
	})
	Metadata = register(newFileRef("metadata", "Video Metadata", "Titles, description, and hashtags for publishing", func(p *project.Project) string { return p.MetadataPath() }))
	Images   = register(newDirectoryRef("images", "Generated Images", "Numbered PNG frames plus the image log", func(p *project.Project) string { return p.ImagesDir() }))
	Video    = register(newFileRef("video", "Final Video", "Assembled narrated video", func(p *project.Project) string { return p.VideoPath() }))
)
