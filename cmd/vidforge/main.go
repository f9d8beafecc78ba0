// cmd/vidforge/main.go
//
// Entry point for the interactive vidforge TUI.
//
// Flow:
// 1. Load .env so API keys are available
// 2. Resolve the workspace root and load vidforge.yaml
// 3. Build the API clients once
// 4. Launch the bubbletea app

package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/bibolabs/vidforge/internal/collab"
	"github.com/bibolabs/vidforge/internal/config"
	"github.com/bibolabs/vidforge/internal/pipeline"
	"github.com/bibolabs/vidforge/internal/tui"
)

func main() {
	// Missing .env is fine, keys may come from the environment.
	_ = godotenv.Load()

	root := os.Getenv("VIDFORGE_HOME")
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
			os.Exit(1)
		}
		root = cwd
	}

	settings, err := config.Load(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		os.Exit(1)
	}

	clients, err := collab.NewClients(context.Background(), settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building API clients: %v\n", err)
		os.Exit(1)
	}

	app, err := tui.NewApp(settings, pipeline.FromClients(clients))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
