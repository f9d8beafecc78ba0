package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var numberedPrompt = regexp.MustCompile(`^\s*(\d+)\.\s*`)

// encodePrompts renders scene prompts as a JSON array of numbered lines,
// "N. <prompt>", 1-based in scene order.
func encodePrompts(prompts []string) ([]byte, error) {
	numbered := make([]string, 0, len(prompts))
	for i, prompt := range prompts {
		numbered = append(numbered, fmt.Sprintf("%d. %s", i+1, strings.TrimSpace(prompt)))
	}
	encoded, err := json.MarshalIndent(numbered, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode prompts: %w", err)
	}
	return append(encoded, '\n'), nil
}

// ReadPrompts loads the prompts artifact and strips the line numbers,
// returning bare prompt text in scene order.
func ReadPrompts(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	prompts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || !numberedPrompt.MatchString(line) {
			continue
		}
		prompts = append(prompts, numberedPrompt.ReplaceAllString(line, ""))
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("parse prompts: no numbered prompts in %s", path)
	}
	return prompts, nil
}

// ImageLogEntry records one generated image in 5_images/_image_log.json.
type ImageLogEntry struct {
	Index    int    `json:"index"`
	Prompt   string `json:"prompt"`
	Filepath string `json:"filepath"`
}
