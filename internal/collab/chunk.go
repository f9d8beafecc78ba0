package collab

import (
	"strings"
	"unicode/utf8"
)

// SplitByLimit breaks text into pieces no longer than limit characters,
// splitting on paragraph boundaries where possible so the synthesis voice
// does not break mid-sentence. A single paragraph longer than the limit is
// split on hard character boundaries as a last resort.
func SplitByLimit(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) > limit {
			flush()
			for len(para) > limit {
				// Never cut through a multi-byte rune.
				cut := limit
				for cut > 0 && !utf8.RuneStart(para[cut]) {
					cut--
				}
				if cut == 0 {
					cut = limit
				}
				chunks = append(chunks, para[:cut])
				para = para[cut:]
			}
			if para != "" {
				current.WriteString(para)
			}
			continue
		}
		if current.Len() > 0 && current.Len()+2+len(para) > limit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()
	return chunks
}

// SplitIntoChunks divides text into exactly n word-balanced pieces, one per
// scene. A script shorter than n words repeats its last piece so every scene
// still gets an excerpt.
func SplitIntoChunks(text string, n int) []string {
	words := strings.Fields(text)
	if len(words) == 0 || n <= 0 {
		return nil
	}
	per := (len(words) + n - 1) / n
	chunks := make([]string, 0, n)
	for start := 0; start < len(words); start += per {
		end := start + per
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	for len(chunks) < n {
		chunks = append(chunks, chunks[len(chunks)-1])
	}
	return chunks
}
