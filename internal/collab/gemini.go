package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	geminiTimeout = 120 * time.Second
)

// GeminiClient calls the Gemini generateContent endpoint over plain HTTP.
type GeminiClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

// NewGeminiClient builds a client. The API key is required; requests fail
// with a credentials error without it, aborting the stage attempt only.
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		httpClient: &http.Client{Timeout: geminiTimeout},
		apiKey:     apiKey,
		baseURL:    geminiBaseURL,
	}
}

// Generate sends a single prompt to the given model and returns the joined
// text of the first candidate.
func (c *GeminiClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini: GEMINI_API_KEY is not set")
	}
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini: HTTP %d: %s", resp.StatusCode, firstLine(strings.TrimSpace(string(data))))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}
	var out strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("gemini: candidate contained no text")
	}
	return text, nil
}
