package collab

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	imageBaseURL      = "https://image.pollinations.ai/prompt"
	imageTimeout      = 60 * time.Second
	imageMaxAttempts  = 3
	imageMinValidSize = 100
)

// ImageClient generates one image per prompt over HTTP.
type ImageClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	width      int
	height     int
}

// NewImageClient builds a client for the configured model and frame size.
func NewImageClient(model string, width, height int) *ImageClient {
	return &ImageClient{
		httpClient: &http.Client{Timeout: imageTimeout},
		baseURL:    imageBaseURL,
		model:      model,
		width:      width,
		height:     height,
	}
}

// Generate returns image bytes for the prompt. The seed makes regeneration
// of the same scene reproducible. The provider occasionally times out, so a
// few attempts are made with backoff before giving up.
func (c *ImageClient) Generate(ctx context.Context, prompt string, seed int) ([]byte, error) {
	imageURL := fmt.Sprintf("%s/%s?width=%d&height=%d&nologo=true&model=%s&seed=%d",
		c.baseURL,
		url.PathEscape(prompt),
		c.width,
		c.height,
		url.QueryEscape(c.model),
		seed,
	)
	var lastErr error
	for attempt := 1; attempt <= imageMaxAttempts; attempt++ {
		data, err := c.fetch(ctx, imageURL)
		if err == nil {
			return data, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 3 * time.Second):
		}
	}
	return nil, fmt.Errorf("image: %d attempts failed: %w", imageMaxAttempts, lastErr)
}

func (c *ImageClient) fetch(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	// An error page instead of image bytes comes back tiny.
	if len(data) < imageMinValidSize {
		return nil, fmt.Errorf("response too small (%d bytes)", len(data))
	}
	return data, nil
}
