package collab

import (
	"context"
	"fmt"
	"strings"
)

const metadataPromptTemplate = `Write YouTube publishing metadata for the narrated video scripted below.
Respond in exactly this format:

TITLES:
- <title option 1>
- <title option 2>
- <title option 3>

DESCRIPTION:
<two to four sentences>

HASHTAGS:
#<tag1> #<tag2> #<tag3>

SCRIPT:
%s`

// VideoMetadata is the publishing metadata for a finished video. An empty
// hashtag list is valid output.
type VideoMetadata struct {
	Titles      []string `json:"titles"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
}

// MetadataWriter generates titles, a description, and hashtags for a script.
type MetadataWriter struct {
	client *GeminiClient
	model  string
}

// NewMetadataWriter builds a metadata writer for the configured model.
func NewMetadataWriter(client *GeminiClient, model string) *MetadataWriter {
	return &MetadataWriter{client: client, model: model}
}

// Generate returns publishing metadata for the script. A response that does
// not match the expected section format degrades to description-only
// metadata rather than failing the stage.
func (w *MetadataWriter) Generate(ctx context.Context, script string) (VideoMetadata, error) {
	response, err := w.client.Generate(ctx, w.model, fmt.Sprintf(metadataPromptTemplate, script))
	if err != nil {
		return VideoMetadata{}, fmt.Errorf("metadata: %w", err)
	}
	return ParseMetadataResponse(response), nil
}

// ParseMetadataResponse extracts the TITLES/DESCRIPTION/HASHTAGS sections
// from a model response. When no section markers are present the whole
// response becomes the description, so there is always something to review.
func ParseMetadataResponse(response string) VideoMetadata {
	response = strings.TrimSpace(response)
	upper := strings.ToUpper(response)
	if !strings.Contains(upper, "TITLES:") && !strings.Contains(upper, "DESCRIPTION:") {
		return VideoMetadata{Description: response}
	}

	meta := VideoMetadata{}
	var section string
	var description []string
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		switch strings.ToUpper(trimmed) {
		case "TITLES:":
			section = "titles"
			continue
		case "DESCRIPTION:":
			section = "description"
			continue
		case "HASHTAGS:":
			section = "hashtags"
			continue
		}
		if trimmed == "" {
			continue
		}
		switch section {
		case "titles":
			title := strings.TrimSpace(strings.TrimPrefix(trimmed, "- "))
			title = strings.Trim(title, `"`)
			if title != "" {
				meta.Titles = append(meta.Titles, title)
			}
		case "description":
			description = append(description, trimmed)
		case "hashtags":
			for _, field := range strings.Fields(trimmed) {
				if strings.HasPrefix(field, "#") && len(field) > 1 {
					meta.Hashtags = append(meta.Hashtags, field)
				}
			}
		}
	}
	meta.Description = strings.Join(description, "\n")
	if meta.Description == "" && len(meta.Titles) == 0 {
		return VideoMetadata{Description: response}
	}
	return meta
}
