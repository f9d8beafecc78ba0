// internal/tui/app.go
//
// The interactive front end for vidforge. Built on bubbletea's Elm
// architecture: the App model holds all state, Update reacts to messages,
// View renders the current screen.
//
// Screens: project picker -> stage board (with an inline script editor).

package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bibolabs/vidforge/internal/config"
	"github.com/bibolabs/vidforge/internal/logbook"
	"github.com/bibolabs/vidforge/internal/pipeline"
	"github.com/bibolabs/vidforge/internal/progress"
	"github.com/bibolabs/vidforge/internal/project"
	"github.com/bibolabs/vidforge/internal/stage"
)

// appState represents which screen we're on.
type appState int

const (
	stateProjects appState = iota
	stateNewProject
	stateBoard
	stateEditScript
)

const (
	logTailLines    = 10
	logTickInterval = time.Second
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	cursorMark = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render("▸ ")
)

// projectItem implements list.Item for the project picker.
type projectItem struct {
	name string
}

func (i projectItem) Title() string       { return i.name }
func (i projectItem) Description() string { return "open project" }
func (i projectItem) FilterValue() string { return i.name }

// stageDoneMsg reports a finished stage run back into the event loop.
type stageDoneMsg struct {
	results []pipeline.Result
}

// logTickMsg refreshes the log pane while a stage is running.
type logTickMsg struct{}

// App is the main application model.
type App struct {
	state    appState
	settings *config.Settings
	collabs  pipeline.Collaborators
	logbook  *logbook.Logbook

	projects  list.Model
	nameInput textinput.Model
	urlInput  textinput.Model
	editor    textarea.Model

	current   *project.Project
	orch      *pipeline.Orchestrator
	sourceURL string

	cursor    int
	busy      bool
	statusMsg string
	err       error

	width  int
	height int
}

// NewApp builds the TUI model. Collaborators are constructed once by the
// caller and shared across projects.
func NewApp(settings *config.Settings, collabs pipeline.Collaborators) (*App, error) {
	logPath := filepath.Join(settings.Root, "logs", "run.log")
	book, err := logbook.New(logPath)
	if err != nil {
		return nil, err
	}

	projects := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	projects.Title = "⬡ VIDFORGE"
	projects.SetShowStatusBar(false)
	projects.SetFilteringEnabled(false)

	nameInput := textinput.New()
	nameInput.Placeholder = "project name"
	nameInput.CharLimit = 64

	urlInput := textinput.New()
	urlInput.Placeholder = "source video URL (blank to paste a script later)"
	urlInput.CharLimit = 512

	editor := textarea.New()
	editor.CharLimit = 0

	app := &App{
		state:     stateProjects,
		settings:  settings,
		collabs:   collabs,
		logbook:   book,
		projects:  projects,
		nameInput: nameInput,
		urlInput:  urlInput,
		editor:    editor,
	}
	app.refreshProjects()
	return app, nil
}

// Init is the first command bubbletea runs.
func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) refreshProjects() {
	names, err := project.List(a.settings.ProjectsRoot())
	if err != nil {
		a.err = err
		return
	}
	items := make([]list.Item, 0, len(names))
	for _, name := range names {
		items = append(items, projectItem{name: name})
	}
	a.projects.SetItems(items)
}

func (a *App) openProject(name string) error {
	p, err := project.Open(a.settings.ProjectsRoot(), name)
	if err != nil {
		return err
	}
	a.current = p
	sink := progress.Multi(a.logbook.Sink())
	runner := pipeline.NewRunner(p, a.settings, a.collabs, sink)
	a.orch = pipeline.New(p, runner, pipeline.WithSink(sink))
	a.cursor = 0
	a.statusMsg = ""
	a.err = nil
	a.state = stateBoard
	a.logbook.Info("opened project %s", name)
	return nil
}

// Update handles every incoming message.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.projects.SetSize(msg.Width-4, msg.Height-6)
		a.editor.SetWidth(msg.Width - 6)
		a.editor.SetHeight(msg.Height - 8)
		return a, nil
	case stageDoneMsg:
		a.busy = false
		a.statusMsg = summarizeResults(msg.results)
		return a, nil
	case logTickMsg:
		if a.busy {
			return a, a.tickLog()
		}
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a.updateChildren(msg)
}

func (a *App) updateChildren(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.state {
	case stateProjects:
		a.projects, cmd = a.projects.Update(msg)
	case stateNewProject:
		if a.nameInput.Focused() {
			a.nameInput, cmd = a.nameInput.Update(msg)
		} else {
			a.urlInput, cmd = a.urlInput.Update(msg)
		}
	case stateEditScript:
		a.editor, cmd = a.editor.Update(msg)
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	switch a.state {
	case stateProjects:
		return a.handleProjectsKey(msg)
	case stateNewProject:
		return a.handleNewProjectKey(msg)
	case stateBoard:
		return a.handleBoardKey(msg)
	case stateEditScript:
		return a.handleEditorKey(msg)
	}
	return a, nil
}

func (a *App) handleProjectsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "n":
		a.nameInput.Reset()
		a.urlInput.Reset()
		a.nameInput.Focus()
		a.urlInput.Blur()
		a.state = stateNewProject
		return a, nil
	case "enter":
		if item, ok := a.projects.SelectedItem().(projectItem); ok {
			if err := a.openProject(item.name); err != nil {
				a.err = err
			}
		}
		return a, nil
	}
	var cmd tea.Cmd
	a.projects, cmd = a.projects.Update(msg)
	return a, cmd
}

func (a *App) handleNewProjectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.state = stateProjects
		return a, nil
	case "tab":
		if a.nameInput.Focused() {
			a.nameInput.Blur()
			a.urlInput.Focus()
		} else {
			a.urlInput.Blur()
			a.nameInput.Focus()
		}
		return a, nil
	case "enter":
		name := strings.TrimSpace(a.nameInput.Value())
		if name == "" {
			a.err = fmt.Errorf("project name is required")
			return a, nil
		}
		p, err := project.Create(a.settings.ProjectsRoot(), name)
		if err != nil {
			a.err = err
			return a, nil
		}
		a.refreshProjects()
		if err := a.openProject(p.Name()); err != nil {
			a.err = err
			return a, nil
		}
		a.sourceURL = strings.TrimSpace(a.urlInput.Value())
		return a, nil
	}
	return a.updateChildren(msg)
}

func (a *App) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.busy {
		return a, nil
	}
	snapshot := a.orch.Snapshot()
	switch msg.String() {
	case "esc":
		a.state = stateProjects
		a.refreshProjects()
		return a, nil
	case "q":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil
	case "down", "j":
		if a.cursor < len(snapshot)-1 {
			a.cursor++
		}
		return a, nil
	case "enter", "r":
		// Run the selected stage; missing upstream stages run first.
		// Upstream outputs with an approval gate must be signed off before
		// anything is built on top of them.
		if blocker, ok := a.unapprovedUpstream(snapshot[a.cursor].Def.ID); ok {
			a.statusMsg = fmt.Sprintf("approve %s first", blocker.Label)
			return a, nil
		}
		return a.startRun(snapshot[a.cursor].Def.ID)
	case "f":
		return a.startRunFrom()
	case "a":
		return a.setApproval(snapshot[a.cursor], true)
	case "v":
		return a.setApproval(snapshot[a.cursor], false)
	case "e":
		if snapshot[a.cursor].Def.ID == stage.Summarization && snapshot[a.cursor].Exists {
			content, err := os.ReadFile(a.current.SummaryPath())
			if err != nil {
				a.err = err
				return a, nil
			}
			a.editor.SetValue(string(content))
			a.editor.Focus()
			a.state = stateEditScript
		}
		return a, nil
	}
	return a, nil
}

func (a *App) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.state = stateBoard
		return a, nil
	case "ctrl+s":
		changed, err := pipeline.SaveScript(a.current, []byte(a.editor.Value()))
		if err != nil {
			a.err = err
			return a, nil
		}
		if changed {
			a.statusMsg = "script saved, approval reset"
			a.logbook.Info("script edited for %s", a.current.Name())
		} else {
			a.statusMsg = "script unchanged"
		}
		a.state = stateBoard
		return a, nil
	}
	var cmd tea.Cmd
	a.editor, cmd = a.editor.Update(msg)
	return a, cmd
}

func (a *App) setApproval(status pipeline.StageStatus, value bool) (tea.Model, tea.Cmd) {
	def := status.Def
	if !def.Approvable() {
		a.statusMsg = fmt.Sprintf("%s has no approval gate", def.Label)
		return a, nil
	}
	if value && !status.Exists {
		// Approval may only be true while the artifact exists.
		a.statusMsg = fmt.Sprintf("%s has no artifact to approve", def.Label)
		return a, nil
	}
	if err := a.current.SetApproval(def.Approval, value); err != nil {
		a.err = err
		return a, nil
	}
	if value {
		a.statusMsg = fmt.Sprintf("%s approved", def.Label)
	} else {
		a.statusMsg = fmt.Sprintf("%s approval revoked", def.Label)
	}
	return a, nil
}

// unapprovedUpstream returns the first stage in the target's dependency
// closure whose artifact exists behind an approval gate that has not been
// signed off yet.
func (a *App) unapprovedUpstream(target stage.ID) (stage.Definition, bool) {
	visited := make(map[stage.ID]bool)
	var find func(id stage.ID) (stage.Definition, bool)
	find = func(id stage.ID) (stage.Definition, bool) {
		if visited[id] {
			return stage.Definition{}, false
		}
		visited[id] = true
		def, ok := stage.Lookup(id)
		if !ok {
			return stage.Definition{}, false
		}
		for _, dep := range def.DependsOn {
			if blocker, found := find(dep); found {
				return blocker, true
			}
			depDef, ok := stage.Lookup(dep)
			if !ok {
				continue
			}
			if depDef.Approvable() && a.orch.Store().Exists(depDef.Output) && !a.current.Approved(depDef.Approval) {
				return depDef, true
			}
		}
		return stage.Definition{}, false
	}
	return find(target)
}

func (a *App) startRun(target stage.ID) (tea.Model, tea.Cmd) {
	a.busy = true
	a.err = nil
	a.statusMsg = fmt.Sprintf("running %s…", target)
	orch := a.orch
	opts := pipeline.RunOptions{SourceURL: a.sourceURL}
	return a, tea.Batch(a.tickLog(), func() tea.Msg {
		return stageDoneMsg{results: orch.RunWithDependencies(context.Background(), target, opts)}
	})
}

func (a *App) startRunFrom() (tea.Model, tea.Cmd) {
	a.busy = true
	a.err = nil
	a.statusMsg = "running remaining stages…"
	opts := pipeline.RunOptions{SourceURL: a.sourceURL}
	return a, tea.Batch(a.tickLog(), func() tea.Msg {
		return stageDoneMsg{results: a.runRemaining(context.Background(), opts)}
	})
}

// runRemaining drives missing stages in order, stopping at the first failure
// or at the first stage whose upstream gate has not been signed off. Fresh
// artifacts always get reviewed before anything builds on them.
func (a *App) runRemaining(ctx context.Context, opts pipeline.RunOptions) []pipeline.Result {
	var results []pipeline.Result
	for {
		def, ok := a.orch.NextMissing()
		if !ok {
			return results
		}
		if blocker, blocked := a.unapprovedUpstream(def.ID); blocked {
			results = append(results, pipeline.Result{
				Stage:   def.ID,
				Status:  pipeline.StatusSkipped,
				Message: fmt.Sprintf("approve %s first", blocker.Label),
			})
			return results
		}
		result := a.orch.RunStage(ctx, def.ID, opts)
		results = append(results, result)
		if result.Status != pipeline.StatusCompleted {
			return results
		}
	}
}

func (a *App) tickLog() tea.Cmd {
	return tea.Tick(logTickInterval, func(time.Time) tea.Msg {
		return logTickMsg{}
	})
}

func summarizeResults(results []pipeline.Result) string {
	if len(results) == 0 {
		return "nothing to do, every artifact is present"
	}
	last := results[len(results)-1]
	switch last.Status {
	case pipeline.StatusCompleted:
		return fmt.Sprintf("%d stage(s) finished", len(results))
	case pipeline.StatusSkipped:
		return fmt.Sprintf("%s skipped: %s", last.Stage, last.Message)
	default:
		return fmt.Sprintf("%s failed: %s", last.Stage, last.Message)
	}
}

// View renders the current screen.
func (a *App) View() string {
	switch a.state {
	case stateProjects:
		return a.viewProjects()
	case stateNewProject:
		return a.viewNewProject()
	case stateBoard:
		return a.viewBoard()
	case stateEditScript:
		return a.viewEditor()
	}
	return ""
}

func (a *App) viewProjects() string {
	help := dimStyle.Render("enter: open · n: new project · q: quit")
	parts := []string{a.projects.View(), help}
	if a.err != nil {
		parts = append(parts, errStyle.Render(a.err.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) viewNewProject() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("New Project") + "\n\n")
	b.WriteString("Name:\n" + a.nameInput.View() + "\n\n")
	b.WriteString("Source URL:\n" + a.urlInput.View() + "\n\n")
	b.WriteString(dimStyle.Render("tab: switch field · enter: create · esc: back"))
	if a.err != nil {
		b.WriteString("\n" + errStyle.Render(a.err.Error()))
	}
	return panelStyle.Render(b.String())
}

func (a *App) viewBoard() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Project: "+a.current.Name()) + "\n\n")
	for i, status := range a.orch.Snapshot() {
		marker := "  "
		if i == a.cursor {
			marker = cursorMark
		}
		b.WriteString(marker + renderStageRow(status) + "\n")
	}

	b.WriteString("\n")
	if a.busy {
		b.WriteString(warnStyle.Render("⋯ working") + "\n")
	} else if a.statusMsg != "" {
		b.WriteString(a.statusMsg + "\n")
	}
	if a.err != nil {
		b.WriteString(errStyle.Render(a.err.Error()) + "\n")
	}

	board := panelStyle.Render(b.String())
	logPane := panelStyle.Render(a.viewLog())
	help := dimStyle.Render("enter: run · f: run remaining · a: approve · v: revoke · e: edit script · esc: projects")
	return lipgloss.JoinVertical(lipgloss.Left, board, logPane, help)
}

func renderStageRow(status pipeline.StageStatus) string {
	def := status.Def
	var state string
	switch {
	case status.Exists && status.Approved:
		state = okStyle.Render("✔ approved")
	case status.Exists && def.Approvable():
		state = warnStyle.Render("● awaiting approval")
	case status.Exists:
		state = okStyle.Render("● ready")
	default:
		state = dimStyle.Render("○ missing")
	}
	return fmt.Sprintf("%d. %-18s %s", int(def.ID), def.Label, state)
}

func (a *App) viewLog() string {
	lines, _ := a.logbook.Tail(logTailLines)
	if len(lines) == 0 {
		return dimStyle.Render("no activity yet")
	}
	return strings.Join(lines, "\n")
}

func (a *App) viewEditor() string {
	header := titleStyle.Render("Edit Script") + "\n"
	help := "\n" + dimStyle.Render("ctrl+s: save · esc: discard")
	return panelStyle.Render(header + a.editor.View() + help)
}
