// internal/project/project.go
//
// A project is one named unit of work: a single directory holding every
// pipeline artifact plus the approval record. Artifact filenames are fixed
// and other packages key off them.

package project

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Artifact filenames within a project directory.
const (
	FileTranscript = "0_transcript.txt"
	FileSummary    = "1_summary.txt"
	FileAudio      = "2_audio.mp3"
	FilePrompts    = "3_image_prompts.json"
	FileStyleBible = "3a_style_bible.txt"
	FileMetadata   = "4_metadata.json"
	DirImages      = "5_images"
	FileImageLog   = "_image_log.json"
	FileVideo      = "6_final_video.mp4"
	FileLedger     = "config.json"
)

var nameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeName converts a human-chosen project name into a filesystem-safe
// directory name.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = nameSanitizer.ReplaceAllString(name, "_")
	return strings.Trim(name, "._")
}

// Project owns the directory for one named unit of work.
type Project struct {
	name string
	dir  string
}

// Create makes the project directory under root and writes the default
// approval record. Creating an already-existing project is an error.
func Create(root, name string) (*Project, error) {
	safe := SanitizeName(name)
	if safe == "" {
		return nil, fmt.Errorf("project: name %q is empty after sanitizing", name)
	}
	dir := filepath.Join(root, safe)
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("project: %s already exists", safe)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("project: create %s: %w", safe, err)
	}
	p := &Project{name: safe, dir: dir}
	if err := p.writeLedger(defaultLedger(safe)); err != nil {
		return nil, err
	}
	return p, nil
}

// Open returns a handle to an existing project directory.
func Open(root, name string) (*Project, error) {
	safe := SanitizeName(name)
	dir := filepath.Join(root, safe)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("project: open %s: %w", safe, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project: %s is not a directory", safe)
	}
	return &Project{name: safe, dir: dir}, nil
}

// List returns the names of all projects under root, sorted.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("project: list %s: %w", root, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Name returns the sanitized project name.
func (p *Project) Name() string { return p.name }

// Dir returns the project directory.
func (p *Project) Dir() string { return p.dir }

// TranscriptPath returns the path to 0_transcript.txt.
func (p *Project) TranscriptPath() string {
	return filepath.Join(p.dir, FileTranscript)
}

// SummaryPath returns the path to 1_summary.txt, the narration script.
func (p *Project) SummaryPath() string {
	return filepath.Join(p.dir, FileSummary)
}

// AudioPath returns the path to 2_audio.mp3.
func (p *Project) AudioPath() string {
	return filepath.Join(p.dir, FileAudio)
}

// PromptsPath returns the path to 3_image_prompts.json.
func (p *Project) PromptsPath() string {
	return filepath.Join(p.dir, FilePrompts)
}

// StyleBiblePath returns the path to 3a_style_bible.txt.
func (p *Project) StyleBiblePath() string {
	return filepath.Join(p.dir, FileStyleBible)
}

// MetadataPath returns the path to 4_metadata.json.
func (p *Project) MetadataPath() string {
	return filepath.Join(p.dir, FileMetadata)
}

// ImagesDir returns the path to the 5_images directory.
func (p *Project) ImagesDir() string {
	return filepath.Join(p.dir, DirImages)
}

// ImageLogPath returns the path to 5_images/_image_log.json.
func (p *Project) ImageLogPath() string {
	return filepath.Join(p.ImagesDir(), FileImageLog)
}

// VideoPath returns the path to 6_final_video.mp4.
func (p *Project) VideoPath() string {
	return filepath.Join(p.dir, FileVideo)
}

// LedgerPath returns the path to the approval record file.
func (p *Project) LedgerPath() string {
	return filepath.Join(p.dir, FileLedger)
}
