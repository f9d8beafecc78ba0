package collab

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitByLimitRespectsParagraphs(t *testing.T) {
	text := "first paragraph here.\n\nsecond paragraph here.\n\nthird paragraph here."
	chunks := SplitByLimit(text, 50)
	if len(chunks) < 2 {
		t.Fatalf("chunks = %d, want split", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 50 {
			t.Fatalf("chunk %d has %d chars, limit 50", i, len(chunk))
		}
	}
	joined := strings.Join(chunks, " ")
	for _, word := range []string{"first", "second", "third"} {
		if !strings.Contains(joined, word) {
			t.Fatalf("word %q lost in chunking", word)
		}
	}
}

func TestSplitByLimitShortTextSingleChunk(t *testing.T) {
	chunks := SplitByLimit("short script", 4500)
	if len(chunks) != 1 || chunks[0] != "short script" {
		t.Fatalf("chunks = %v, want single untouched chunk", chunks)
	}
}

func TestSplitByLimitOversizedParagraph(t *testing.T) {
	text := strings.Repeat("a", 120)
	chunks := SplitByLimit(text, 50)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	for i, chunk := range chunks[:2] {
		if len(chunk) != 50 {
			t.Fatalf("chunk %d has %d chars, want 50", i, len(chunk))
		}
	}
}

func TestSplitIntoChunksBalancesWords(t *testing.T) {
	words := make([]string, 100)
	for i := range words {
		words[i] = "w"
	}
	chunks := SplitIntoChunks(strings.Join(words, " "), 10)
	if len(chunks) != 10 {
		t.Fatalf("chunks = %d, want 10", len(chunks))
	}
	for i, chunk := range chunks {
		if got := len(strings.Fields(chunk)); got != 10 {
			t.Fatalf("chunk %d has %d words, want 10", i, got)
		}
	}
}

func TestSplitByLimitKeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("日本語のナレーション", 40)
	chunks := SplitByLimit(text, 100)
	if len(chunks) < 2 {
		t.Fatalf("chunks = %d, want split", len(chunks))
	}
	var rebuilt strings.Builder
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk) {
			t.Fatalf("chunk %d is not valid UTF-8", i)
		}
		if len(chunk) > 100 {
			t.Fatalf("chunk %d has %d bytes, limit 100", i, len(chunk))
		}
		rebuilt.WriteString(chunk)
	}
	if rebuilt.String() != text {
		t.Fatal("chunking lost or altered text")
	}
}

func TestSplitIntoChunksShortScriptFillsEveryScene(t *testing.T) {
	chunks := SplitIntoChunks("one two three", 10)
	if len(chunks) != 10 {
		t.Fatalf("chunks = %d, want 10", len(chunks))
	}
	for i := 3; i < len(chunks); i++ {
		if chunks[i] != chunks[2] {
			t.Fatalf("chunk %d = %q, want repeat of last excerpt", i, chunks[i])
		}
	}
}
