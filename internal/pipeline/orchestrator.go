package pipeline

import (
	"context"
	"fmt"

	"github.com/bibolabs/vidforge/internal/artifact"
	"github.com/bibolabs/vidforge/internal/progress"
	"github.com/bibolabs/vidforge/internal/project"
	"github.com/bibolabs/vidforge/internal/stage"
)

// Status enumerates stage run outcomes.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Result captures the outcome of one stage attempt.
type Result struct {
	Stage   stage.ID
	Status  Status
	Message string
	Err     error
}

// ConfirmFunc asks the operator whether an existing artifact may be
// overwritten. Returning false skips the stage.
type ConfirmFunc func(def stage.Definition, path string) bool

// Orchestrator decides what to run for one project. All state is derived
// from artifact presence on disk; there is no separate completion pointer,
// so a killed or failed run resumes exactly where it stopped.
type Orchestrator struct {
	project *project.Project
	store   *artifact.Store
	runner  *Runner
	sink    progress.Sink

	// confirm is consulted before overwriting an existing artifact. Nil
	// means proceed unconditionally (interactive mode, where the UI
	// already gated the action behind an explicit regenerate).
	confirm ConfirmFunc
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithConfirm installs an overwrite confirmation prompt (batch mode).
func WithConfirm(confirm ConfirmFunc) Option {
	return func(o *Orchestrator) {
		o.confirm = confirm
	}
}

// WithSink routes progress events from the orchestrator itself.
func WithSink(sink progress.Sink) Option {
	return func(o *Orchestrator) {
		o.sink = sink
	}
}

// New builds an orchestrator around a runner.
func New(p *project.Project, runner *Runner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		project: p,
		store:   artifact.NewStore(p),
		runner:  runner,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Project returns the project being orchestrated.
func (o *Orchestrator) Project() *project.Project {
	return o.project
}

// Store returns the artifact store for status queries.
func (o *Orchestrator) Store() *artifact.Store {
	return o.store
}

// NextMissing returns the first stage in pipeline order whose artifact does
// not exist, and false when every stage is done.
func (o *Orchestrator) NextMissing() (stage.Definition, bool) {
	for _, def := range stage.All() {
		if !o.store.Exists(def.Output) {
			return def, true
		}
	}
	return stage.Definition{}, false
}

// RunStage attempts one stage: prerequisite check, overwrite confirmation,
// then exactly one runner invocation. Failures come back as results, never
// as panics or raw errors.
func (o *Orchestrator) RunStage(ctx context.Context, id stage.ID, opts RunOptions) Result {
	def, ok := stage.Lookup(id)
	if !ok {
		return Result{Stage: id, Status: StatusFailed, Message: fmt.Sprintf("unknown stage %d", int(id))}
	}

	if ok, reason := def.PrerequisiteSatisfied(o.store); !ok {
		o.emit(def, reason)
		return Result{Stage: id, Status: StatusFailed, Message: reason}
	}

	if o.store.Exists(def.Output) && o.confirm != nil {
		if !o.confirm(def, def.Output.Path(o.project)) {
			o.emit(def, "overwrite declined, skipping")
			return Result{Stage: id, Status: StatusSkipped, Message: "overwrite declined"}
		}
	}

	if err := o.runner.Run(ctx, def, opts); err != nil {
		o.emit(def, "failed: %v", err)
		return Result{Stage: id, Status: StatusFailed, Message: err.Error(), Err: err}
	}

	// Fresh content is never silently carried over as approved.
	if def.Approvable() {
		if err := o.project.SetApproval(def.Approval, false); err != nil {
			return Result{Stage: id, Status: StatusFailed, Message: "reset approval", Err: err}
		}
	}
	o.emit(def, "completed")
	return Result{Stage: id, Status: StatusCompleted}
}

// RunFrom drives the remaining pipeline. When start is nil the first stage
// with a missing artifact is chosen; stages whose artifacts exist are
// skipped, and the sequence stops at the first failure, leaving the
// pipeline resumable.
func (o *Orchestrator) RunFrom(ctx context.Context, start *stage.ID, opts RunOptions) []Result {
	defs := stage.All()
	startIdx := len(defs)
	if start != nil {
		startIdx = int(*start)
	} else if def, ok := o.NextMissing(); ok {
		startIdx = int(def.ID)
	}

	var results []Result
	for _, def := range defs[min(startIdx, len(defs)):] {
		if o.store.Exists(def.Output) {
			results = append(results, Result{Stage: def.ID, Status: StatusSkipped, Message: "artifact present"})
			continue
		}
		result := o.RunStage(ctx, def.ID, opts)
		results = append(results, result)
		if result.Status == StatusFailed {
			break
		}
	}
	return results
}

// Queue computes the dependency closure for a target stage: every upstream
// stage whose artifact is missing, dependencies before dependents, the
// target itself last. The target is included even when its artifact exists,
// since asking for it means regenerate.
func (o *Orchestrator) Queue(target stage.ID) ([]stage.Definition, error) {
	if _, ok := stage.Lookup(target); !ok {
		return nil, fmt.Errorf("pipeline: unknown stage %d", int(target))
	}
	visited := make(map[stage.ID]bool)
	var ordered []stage.Definition
	var visit func(id stage.ID) error
	visit = func(id stage.ID) error {
		if visited[id] {
			return nil
		}
		visited[id] = true
		def, ok := stage.Lookup(id)
		if !ok {
			return fmt.Errorf("pipeline: unknown stage %d", int(id))
		}
		for _, dep := range def.DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		if id == target || !o.store.Exists(def.Output) {
			ordered = append(ordered, def)
		}
		return nil
	}
	if err := visit(target); err != nil {
		return nil, err
	}
	return ordered, nil
}

// RunWithDependencies runs the target stage after first running every
// missing stage it depends on, in order. This replaces any implicit
// cross-stage triggering inside stages: dependency resolution is uniform
// and lives here.
func (o *Orchestrator) RunWithDependencies(ctx context.Context, target stage.ID, opts RunOptions) []Result {
	queue, err := o.Queue(target)
	if err != nil {
		return []Result{{Stage: target, Status: StatusFailed, Message: err.Error(), Err: err}}
	}
	var results []Result
	for _, def := range queue {
		result := o.RunStage(ctx, def.ID, opts)
		results = append(results, result)
		if result.Status != StatusCompleted {
			break
		}
	}
	return results
}

// StageStatus is a snapshot of one stage for status displays.
type StageStatus struct {
	Def      stage.Definition
	Exists   bool
	Approved bool
}

// Snapshot reports every stage's artifact and approval state in order.
func (o *Orchestrator) Snapshot() []StageStatus {
	defs := stage.All()
	out := make([]StageStatus, 0, len(defs))
	for _, def := range defs {
		status := StageStatus{Def: def, Exists: o.store.Exists(def.Output)}
		if def.Approvable() && status.Exists {
			status.Approved = o.project.Approved(def.Approval)
		}
		out = append(out, status)
	}
	return out
}

func (o *Orchestrator) emit(def stage.Definition, format string, args ...any) {
	progress.Emit(o.sink, def.Label, format, args...)
}
