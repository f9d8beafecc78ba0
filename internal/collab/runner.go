// Package collab holds the external-collaborator clients the pipeline calls
// out to: cloud speech-to-text and text-to-speech, a language model, an
// image generator, and the local ffmpeg/yt-dlp tooling. Every client is
// constructed once per process from settings and passed in explicitly.

package collab

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandResult captures the output of one external command invocation.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner executes external binaries (ffmpeg, ffprobe, yt-dlp).
// Injectable so tests never shell out.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

// Run executes the command and captures stdout/stderr.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	result := CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		detail := strings.TrimSpace(result.Stderr)
		if detail == "" {
			detail = strings.TrimSpace(result.Stdout)
		}
		if detail != "" {
			return result, fmt.Errorf("%s: %w: %s", name, err, firstLine(detail))
		}
		return result, fmt.Errorf("%s: %w", name, err)
	}
	return result, nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
