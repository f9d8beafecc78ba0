// cmd/vidforge-run/main.go
//
// Non-interactive (menu driven) runner for vidforge. Useful over ssh or in
// a plain terminal where the TUI is overkill: pick a project, then run the
// pipeline stage by stage with y/n prompts for overwrites.

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/bibolabs/vidforge/internal/collab"
	"github.com/bibolabs/vidforge/internal/config"
	"github.com/bibolabs/vidforge/internal/pipeline"
	"github.com/bibolabs/vidforge/internal/progress"
	"github.com/bibolabs/vidforge/internal/project"
	"github.com/bibolabs/vidforge/internal/stage"
)

func main() {
	_ = godotenv.Load()

	root := os.Getenv("VIDFORGE_HOME")
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
		root = cwd
	}

	settings, err := config.Load(root)
	if err != nil {
		die("load settings: %v", err)
	}
	clients, err := collab.NewClients(context.Background(), settings)
	if err != nil {
		die("build API clients: %v", err)
	}

	app := &cli{
		settings: settings,
		collabs:  pipeline.FromClients(clients),
		in:       bufio.NewReader(os.Stdin),
	}
	app.mainMenu()
}

type cli struct {
	settings *config.Settings
	collabs  pipeline.Collaborators
	in       *bufio.Reader
}

func (c *cli) mainMenu() {
	for {
		fmt.Println()
		fmt.Println("=== vidforge ===")
		fmt.Println("1. New project from a video URL")
		fmt.Println("2. New project from a ready-made script")
		fmt.Println("3. Work on an existing project")
		fmt.Println("4. Exit")
		switch c.ask("> ") {
		case "1":
			c.newFromURL()
		case "2":
			c.newFromScript()
		case "3":
			c.pickProject()
		case "4", "q", "exit":
			return
		}
	}
}

func (c *cli) newFromURL() {
	name := c.ask("Project name: ")
	if name == "" {
		fmt.Println("a name is required")
		return
	}
	url := c.ask("Video URL: ")
	if url == "" {
		fmt.Println("a URL is required")
		return
	}
	p, err := project.Create(c.settings.ProjectsRoot(), name)
	if err != nil {
		fmt.Printf("create project: %v\n", err)
		return
	}
	c.pipelineMenu(p, url)
}

// newFromScript creates a project and seeds the script artifact directly,
// so the pipeline starts at text-to-speech instead of transcription.
func (c *cli) newFromScript() {
	name := c.ask("Project name: ")
	if name == "" {
		fmt.Println("a name is required")
		return
	}
	fmt.Println("Paste the script, then a line with only END:")
	var lines []string
	for {
		line, err := c.in.ReadString('\n')
		if err != nil {
			break
		}
		if strings.TrimSpace(line) == "END" {
			break
		}
		lines = append(lines, strings.TrimRight(line, "\n"))
	}
	script := strings.TrimSpace(strings.Join(lines, "\n"))
	if script == "" {
		fmt.Println("empty script, nothing created")
		return
	}
	p, err := project.Create(c.settings.ProjectsRoot(), name)
	if err != nil {
		fmt.Printf("create project: %v\n", err)
		return
	}
	if _, err := pipeline.SaveScript(p, []byte(script)); err != nil {
		fmt.Printf("write script: %v\n", err)
		return
	}
	fmt.Printf("Script saved. Approve it before audio: approvals live in %s\n", p.LedgerPath())
	c.pipelineMenu(p, "")
}

func (c *cli) pickProject() {
	names, err := project.List(c.settings.ProjectsRoot())
	if err != nil {
		fmt.Printf("list projects: %v\n", err)
		return
	}
	if len(names) == 0 {
		fmt.Println("no projects yet")
		return
	}
	for i, name := range names {
		fmt.Printf("%d. %s\n", i+1, name)
	}
	choice, err := strconv.Atoi(c.ask("> "))
	if err != nil || choice < 1 || choice > len(names) {
		return
	}
	p, err := project.Open(c.settings.ProjectsRoot(), names[choice-1])
	if err != nil {
		fmt.Printf("open project: %v\n", err)
		return
	}
	url := c.ask("Source URL (blank if transcript exists or script was pasted): ")
	c.pipelineMenu(p, url)
}

func (c *cli) pipelineMenu(p *project.Project, sourceURL string) {
	sink := progress.NewConsoleSink(os.Stdout)
	runner := pipeline.NewRunner(p, c.settings, c.collabs, sink)
	orch := pipeline.New(p, runner,
		pipeline.WithSink(sink),
		pipeline.WithConfirm(c.confirmOverwrite),
	)
	opts := pipeline.RunOptions{SourceURL: sourceURL}

	for {
		fmt.Println()
		fmt.Printf("--- %s ---\n", p.Name())
		if def, ok := orch.NextMissing(); ok {
			fmt.Printf("next missing stage: %d (%s)\n", int(def.ID), def.Label)
		} else {
			fmt.Println("all artifacts present")
		}
		fmt.Println("1. Run next missing stage")
		fmt.Println("2. Run the full pipeline")
		fmt.Println("3. Run a specific stage (0-6)")
		fmt.Println("4. Show project status")
		fmt.Println("9. Back")

		switch c.ask("> ") {
		case "1":
			def, ok := orch.NextMissing()
			if !ok {
				fmt.Println("nothing to do")
				continue
			}
			report(orch.RunWithDependencies(context.Background(), def.ID, opts))
		case "2":
			report(orch.RunFrom(context.Background(), nil, opts))
		case "3":
			n, err := strconv.Atoi(c.ask("Stage number: "))
			if err != nil {
				fmt.Println("expected a number 0-6")
				continue
			}
			id, err := stage.Parse(n)
			if err != nil {
				fmt.Println(err)
				continue
			}
			report(orch.RunWithDependencies(context.Background(), id, opts))
		case "4":
			printStatus(orch)
			fmt.Printf("project dir: %s\n", p.Dir())
		case "9", "b", "back":
			return
		}
	}
}

func (c *cli) confirmOverwrite(def stage.Definition, path string) bool {
	answer := c.ask(fmt.Sprintf("%s already exists. Regenerate? [y/N] ", path))
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}

func (c *cli) ask(prompt string) string {
	fmt.Print(prompt)
	line, err := c.in.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func report(results []pipeline.Result) {
	for _, r := range results {
		switch r.Status {
		case pipeline.StatusCompleted:
			fmt.Printf("  ✔ %s\n", r.Stage)
		case pipeline.StatusSkipped:
			fmt.Printf("  - %s: %s\n", r.Stage, r.Message)
		default:
			fmt.Printf("  ✘ %s: %s\n", r.Stage, r.Message)
		}
	}
}

func printStatus(orch *pipeline.Orchestrator) {
	for _, status := range orch.Snapshot() {
		def := status.Def
		mark := "missing"
		switch {
		case status.Exists && status.Approved:
			mark = "approved"
		case status.Exists && def.Approvable():
			mark = "awaiting approval"
		case status.Exists:
			mark = "ready"
		}
		fmt.Printf("  %d. %-18s %s\n", int(def.ID), def.Label, mark)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
