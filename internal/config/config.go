// internal/config/config.go
//
// Runtime settings for vidforge. Settings live in a single YAML file next to
// the projects root and are loaded once per invocation; stages receive the
// loaded value, never the file.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// SettingsFile is the name of the settings file inside the vidforge root.
	SettingsFile = "vidforge.yaml"

	// ProjectsDirName is the directory that holds one subdirectory per project.
	ProjectsDirName = "projects"

	defaultSummarizationModel = "gemini-2.0-flash"
	defaultPromptingModel     = "gemini-2.0-flash"
	defaultMetadataModel      = "gemini-2.0-flash"
	defaultVoiceName          = "en-US-Studio-O"
	defaultLanguageCode       = "en-US"
	defaultImageModel         = "flux"
	defaultImageWidth         = 1920
	defaultImageHeight        = 1080
	defaultSecondsPerImage    = 20
)

const defaultSettingsYAML = `# vidforge settings
version: 1

# Where project directories are created, relative to this file.
projects_dir: projects

models:
  summarization: gemini-2.0-flash
  prompting: gemini-2.0-flash
  metadata: gemini-2.0-flash

voice:
  name: en-US-Studio-O
  language: en-US

images:
  model: flux
  width: 1920
  height: 1080

# One generated image covers this many seconds of narration.
seconds_per_image: 20
`

// ModelSettings selects the language model per text-producing stage.
type ModelSettings struct {
	Summarization string `yaml:"summarization"`
	Prompting     string `yaml:"prompting"`
	Metadata      string `yaml:"metadata"`
}

// VoiceSettings selects the narration voice.
type VoiceSettings struct {
	Name     string `yaml:"name"`
	Language string `yaml:"language"`
}

// ImageSettings selects the image generation model and frame size.
type ImageSettings struct {
	Model  string `yaml:"model"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// Settings models vidforge.yaml plus the credentials read from the
// environment. It is a value object: loaded once, passed explicitly.
type Settings struct {
	Version         int           `yaml:"version"`
	ProjectsDir     string        `yaml:"projects_dir"`
	Models          ModelSettings `yaml:"models"`
	Voice           VoiceSettings `yaml:"voice"`
	Images          ImageSettings `yaml:"images"`
	SecondsPerImage int           `yaml:"seconds_per_image"`

	// Root is the directory containing the settings file. Not serialized.
	Root string `yaml:"-"`

	// GeminiAPIKey and TranscriptionBucket come from the environment
	// (GEMINI_API_KEY, VIDFORGE_GCS_BUCKET). Not serialized.
	GeminiAPIKey        string `yaml:"-"`
	TranscriptionBucket string `yaml:"-"`
}

// Load reads settings from root/vidforge.yaml, creating the file with
// defaults when it does not exist yet.
func Load(root string) (*Settings, error) {
	if root == "" {
		return nil, fmt.Errorf("config: root directory is required")
	}
	path := filepath.Join(root, SettingsFile)
	if err := ensureSettingsFile(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var parsed Settings
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.Root = root
	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	parsed.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	parsed.TranscriptionBucket = strings.TrimSpace(os.Getenv("VIDFORGE_GCS_BUCKET"))
	return &parsed, nil
}

// Default returns settings with every field at its default value, rooted at
// the given directory. Used by tests and by callers that do not want a file.
func Default(root string) *Settings {
	s := &Settings{Root: root}
	s.applyDefaults()
	s.normalize()
	return s
}

// ProjectsRoot returns the absolute directory that holds project folders.
func (s *Settings) ProjectsRoot() string {
	if filepath.IsAbs(s.ProjectsDir) {
		return filepath.Clean(s.ProjectsDir)
	}
	return filepath.Join(s.Root, s.ProjectsDir)
}

func (s *Settings) applyDefaults() {
	if s.Version == 0 {
		s.Version = 1
	}
	if s.ProjectsDir == "" {
		s.ProjectsDir = ProjectsDirName
	}
	if s.Models.Summarization == "" {
		s.Models.Summarization = defaultSummarizationModel
	}
	if s.Models.Prompting == "" {
		s.Models.Prompting = defaultPromptingModel
	}
	if s.Models.Metadata == "" {
		s.Models.Metadata = defaultMetadataModel
	}
	if s.Voice.Name == "" {
		s.Voice.Name = defaultVoiceName
	}
	if s.Voice.Language == "" {
		s.Voice.Language = defaultLanguageCode
	}
	if s.Images.Model == "" {
		s.Images.Model = defaultImageModel
	}
	if s.Images.Width == 0 {
		s.Images.Width = defaultImageWidth
	}
	if s.Images.Height == 0 {
		s.Images.Height = defaultImageHeight
	}
	if s.SecondsPerImage == 0 {
		s.SecondsPerImage = defaultSecondsPerImage
	}
}

func (s *Settings) normalize() {
	s.ProjectsDir = strings.TrimSpace(s.ProjectsDir)
	s.Models.Summarization = strings.TrimSpace(s.Models.Summarization)
	s.Models.Prompting = strings.TrimSpace(s.Models.Prompting)
	s.Models.Metadata = strings.TrimSpace(s.Models.Metadata)
	s.Voice.Name = strings.TrimSpace(s.Voice.Name)
	s.Voice.Language = strings.TrimSpace(s.Voice.Language)
	s.Images.Model = strings.TrimSpace(s.Images.Model)
}

func (s *Settings) validate() error {
	if s.Version < 1 {
		return fmt.Errorf("version must be >= 1")
	}
	if s.ProjectsDir == "" {
		return fmt.Errorf("projects_dir is required")
	}
	if s.SecondsPerImage < 1 {
		return fmt.Errorf("seconds_per_image must be >= 1")
	}
	if s.Images.Width < 1 || s.Images.Height < 1 {
		return fmt.Errorf("images.width and images.height must be >= 1")
	}
	return nil
}

func ensureSettingsFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(defaultSettingsYAML), 0o644)
}
