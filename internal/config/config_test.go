package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultSettingsFile(t *testing.T) {
	root := t.TempDir()
	settings, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, SettingsFile)); err != nil {
		t.Fatalf("settings file not created: %v", err)
	}
	if settings.SecondsPerImage != 20 {
		t.Fatalf("seconds_per_image = %d, want 20", settings.SecondsPerImage)
	}
	if settings.Voice.Name == "" || settings.Voice.Language == "" {
		t.Fatal("voice defaults missing")
	}
	if settings.ProjectsRoot() != filepath.Join(root, ProjectsDirName) {
		t.Fatalf("projects root = %s", settings.ProjectsRoot())
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	root := t.TempDir()
	partial := "version: 1\nmodels:\n  summarization: gemini-1.5-pro\n"
	if err := os.WriteFile(filepath.Join(root, SettingsFile), []byte(partial), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	settings, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.Models.Summarization != "gemini-1.5-pro" {
		t.Fatalf("summarization model = %s", settings.Models.Summarization)
	}
	if settings.Models.Prompting == "" || settings.Images.Width == 0 {
		t.Fatal("defaults not applied to omitted fields")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	root := t.TempDir()
	bad := "version: 1\nseconds_per_image: -5\n"
	if err := os.WriteFile(filepath.Join(root, SettingsFile), []byte(bad), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	if _, err := Load(root); err == nil {
		t.Fatal("negative seconds_per_image accepted")
	}
}
