package collab

import (
	"context"
	"fmt"
	"strings"
)

// Probe measures media files through ffprobe.
type Probe struct {
	run CommandRunner
}

// NewProbe builds a probe backed by the given runner.
func NewProbe(run CommandRunner) *Probe {
	if run == nil {
		run = ExecRunner{}
	}
	return &Probe{run: run}
}

// Duration returns the duration of an audio file in seconds.
func (p *Probe) Duration(ctx context.Context, path string) (float64, error) {
	result, err := p.run.Run(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}
	var dur float64
	if _, err := fmt.Sscanf(strings.TrimSpace(result.Stdout), "%f", &dur); err != nil {
		return 0, fmt.Errorf("probe %s: parse duration %q: %w", path, strings.TrimSpace(result.Stdout), err)
	}
	if dur <= 0 {
		return 0, fmt.Errorf("probe %s: non-positive duration %f", path, dur)
	}
	return dur, nil
}
