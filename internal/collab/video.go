package collab

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	videoFPS          = 24
	videoFadeDuration = 1.5
)

// Composer assembles the final narrated video from the generated images and
// the narration track using ffmpeg.
type Composer struct {
	run    CommandRunner
	width  int
	height int
}

// NewComposer builds a composer for the configured frame size.
func NewComposer(run CommandRunner, width, height int) *Composer {
	if run == nil {
		run = ExecRunner{}
	}
	return &Composer{run: run, width: width, height: height}
}

// Compose renders outPath from the images in imagesDir and the audio track.
// Each image is shown for an equal share of the audio duration. The output
// file appears only after ffmpeg finished.
func (c *Composer) Compose(ctx context.Context, imagesDir, audioPath, outPath string, audioSeconds float64) error {
	images, err := listImages(imagesDir)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return fmt.Errorf("compose: no images in %s", imagesDir)
	}
	if audioSeconds <= 0 {
		return fmt.Errorf("compose: non-positive audio duration")
	}
	perImage := audioSeconds / float64(len(images))

	tmpDir, err := os.MkdirTemp("", "vidforge-video-")
	if err != nil {
		return fmt.Errorf("compose: temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	listFile := filepath.Join(tmpDir, "frames.txt")
	var list strings.Builder
	for _, image := range images {
		fmt.Fprintf(&list, "file '%s'\n", image)
		fmt.Fprintf(&list, "duration %.3f\n", perImage)
	}
	// The concat demuxer ignores the last duration unless the final entry
	// is repeated.
	fmt.Fprintf(&list, "file '%s'\n", images[len(images)-1])
	if err := os.WriteFile(listFile, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("compose: write frame list: %w", err)
	}

	fadeOutStart := audioSeconds - videoFadeDuration
	if fadeOutStart < 0 {
		fadeOutStart = 0
	}
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,fps=%d,fade=t=in:st=0:d=%.1f,fade=t=out:st=%.3f:d=%.1f",
		c.width, c.height, c.width, c.height, videoFPS,
		videoFadeDuration, fadeOutStart, videoFadeDuration,
	)

	rendered := filepath.Join(tmpDir, "render.mp4")
	if _, err := c.run.Run(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-i", audioPath,
		"-vf", filter,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		rendered,
	); err != nil {
		return fmt.Errorf("compose: render: %w", err)
	}
	return replaceFile(rendered, outPath)
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("compose: read %s: %w", dir, err)
	}
	var images []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "_") {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg":
			images = append(images, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(images)
	return images, nil
}
