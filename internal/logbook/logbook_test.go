package logbook

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/bibolabs/vidforge/internal/progress"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestSinkJournalsStageEvents(t *testing.T) {
	dir := t.TempDir()
	book, err := New(filepath.Join(dir, "run.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.Sink().Publish(progress.Event{Stage: "Summarization", Message: "script saved"})
	lines, total := book.Tail(10)
	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}
	if !strings.Contains(lines[0], "Summarization") || !strings.Contains(lines[0], "script saved") {
		t.Fatalf("line = %q, want stage and message", lines[0])
	}
}
