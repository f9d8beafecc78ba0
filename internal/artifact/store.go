package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/bibolabs/vidforge/internal/project"
)

// Store answers existence queries for artifacts of one project. It is a pure
// view over the filesystem: no caching, so a check always reflects current
// on-disk truth.
type Store struct {
	project *project.Project
}

// NewStore builds a store for a project.
func NewStore(p *project.Project) *Store {
	return &Store{project: p}
}

// Project returns the project this store is rooted at.
func (s *Store) Project() *project.Project {
	return s.project
}

// Check inspects the artifact on disk and returns its state. A file exists
// when it is present with size > 0; a directory exists when it contains at
// least one entry whose name does not start with "_".
func (s *Store) Check(ref Ref) CheckResult {
	path := ref.Path(s.project)
	if path == "" {
		err := fmt.Errorf("artifact: %s path could not be resolved", ref.ID)
		return CheckResult{Ref: ref, Path: path, State: StateError, Err: err}
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CheckResult{Ref: ref, Path: path, State: StateMissing}
		}
		return CheckResult{Ref: ref, Path: path, State: StateError, Err: err}
	}
	switch ref.Kind {
	case KindDirectory:
		if !info.IsDir() {
			return CheckResult{Ref: ref, Path: path, State: StateError, Err: fmt.Errorf("artifact: %s expected directory", ref.ID)}
		}
		entries, readErr := os.ReadDir(path)
		if readErr != nil {
			return CheckResult{Ref: ref, Path: path, State: StateError, Err: readErr}
		}
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), "_") {
				continue
			}
			return CheckResult{Ref: ref, Path: path, State: StateReady}
		}
		return CheckResult{Ref: ref, Path: path, State: StateMissing}
	default:
		if info.IsDir() {
			return CheckResult{Ref: ref, Path: path, State: StateError, Err: fmt.Errorf("artifact: %s expected file got directory", ref.ID)}
		}
		if info.Size() == 0 {
			return CheckResult{Ref: ref, Path: path, State: StateMissing}
		}
		return CheckResult{Ref: ref, Path: path, State: StateReady}
	}
}

// Exists is a convenience wrapper over Check for callers that only need the
// boolean answer.
func (s *Store) Exists(ref Ref) bool {
	return s.Check(ref).Exists()
}
