// Package pipeline orchestrates a full generation run: plan the request,
// generate each component, assemble one artifact, validate and repair it,
// then derive the configuration templates the agent needs. Phases are
// strictly sequential; each consumes the previous phase's complete output.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agentforge/internal/assembly"
	"agentforge/internal/configgen"
	"agentforge/internal/progress"
	"agentforge/internal/repair"
	"agentforge/internal/store"
	"agentforge/internal/types"
)

// Planner decomposes a request into component specs. Satisfied by
// collaborator.Planner.
type Planner interface {
	Plan(ctx context.Context, request string) ([]types.ComponentSpec, error)
}

// Generator implements one component spec. Satisfied by
// collaborator.Generator.
type Generator interface {
	Generate(ctx context.Context, spec types.ComponentSpec) (*types.GeneratedComponent, error)
}

// Repairer validates and repairs an assembled artifact in place. Run must
// return a non-nil session even on error. Satisfied by repair.Loop.
type Repairer interface {
	Run(ctx context.Context, art *assembly.Artifact) (*repair.Session, error)
}

// Deriver writes config templates. Satisfied by configgen.Deriver.
type Deriver interface {
	Derive(agentName string, components []types.GeneratedComponent, assembledSource string) (*configgen.Bundle, error)
}

// RunStore persists run history. Satisfied by store.Store; failures are
// logged, never fatal.
type RunStore interface {
	CreateRun(ctx context.Context, id, agentName, request string) error
	RecordAttempt(ctx context.Context, a store.AttemptRow) error
	FinishRun(ctx context.Context, id, state, artifactPath string, attempts int) error
}

// RunResult is what a generation run hands back to the caller, success or
// not: there is always an artifact on disk to inspect.
type RunResult struct {
	RunID        string
	AgentName    string
	ArtifactPath string
	State        repair.State
	Attempts     int
	Errors       []string
	Config       *configgen.Bundle
}

// Pipeline wires the collaborators and the repair loop together.
type Pipeline struct {
	planner   Planner
	toolGen   Generator
	llmGen    Generator
	repairer  Repairer
	deriver   Deriver
	outputDir string
	store     RunStore
	reporter  progress.Reporter
	logger    *zap.Logger
}

// Options carries the pipeline's collaborators and knobs.
type Options struct {
	Planner       Planner
	ToolGenerator Generator
	LLMGenerator  Generator
	Repairer      Repairer
	Deriver       Deriver
	OutputDir     string
	Store         RunStore // optional
	Reporter      progress.Reporter
	Logger        *zap.Logger
}

// New builds a pipeline. Reporter and Logger default to no-ops.
func New(opts Options) *Pipeline {
	if opts.Reporter == nil {
		opts.Reporter = progress.Nop()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Pipeline{
		planner:   opts.Planner,
		toolGen:   opts.ToolGenerator,
		llmGen:    opts.LLMGenerator,
		repairer:  opts.Repairer,
		deriver:   opts.Deriver,
		outputDir: opts.OutputDir,
		store:     opts.Store,
		reporter:  opts.Reporter,
		logger:    opts.Logger,
	}
}

// Run executes the full pipeline for one request. The returned error is
// fatal (plan unusable, generator response invalid, collaborator transport
// down, artifact unwritable); validation failures are not errors. Those end
// with State TERMINATED_WITH_ERRORS and the last artifact written.
func (p *Pipeline) Run(ctx context.Context, request, agentName string) (*RunResult, error) {
	runID := uuid.NewString()
	p.recordStart(ctx, runID, agentName, request)

	// Phase 1: plan.
	p.emit(progress.LevelProgress, "Planning agent structure...")
	specs, err := p.planner.Plan(ctx, request)
	if err != nil {
		p.recordFinish(ctx, runID, "FAILED", "", 0)
		return nil, err
	}
	p.emit(progress.LevelInfo, "Plan contains %d component(s)", len(specs))

	// Phase 2: generate. Components are keyed by function name; a later
	// component with the same name replaces the earlier one.
	components, err := p.generate(ctx, specs)
	if err != nil {
		p.recordFinish(ctx, runID, "FAILED", "", 0)
		return nil, err
	}

	// Phase 3: assemble.
	p.emit(progress.LevelProgress, "Assembling final agent...")
	art := assembly.Assemble(agentName, components)

	// Phase 4: validate and repair.
	session, runErr := p.repairer.Run(ctx, art)
	p.recordAttempts(ctx, runID, session)

	// The last artifact is always persisted, even when the loop gave up
	// or aborted, so the operator can repair by hand.
	artifactPath, writeErr := p.writeArtifact(agentName, art.Source)
	if writeErr != nil {
		p.recordFinish(ctx, runID, string(session.State), "", session.AttemptCount())
		return nil, writeErr
	}
	p.emit(progress.LevelInfo, "Final agent saved: %s", filepath.Base(artifactPath))

	if runErr != nil {
		p.recordFinish(ctx, runID, "FAILED", artifactPath, session.AttemptCount())
		return nil, fmt.Errorf("repair loop aborted: %w", runErr)
	}

	// Phase 5: derive configuration templates.
	p.emit(progress.LevelProgress, "Generating configuration files...")
	bundle, err := p.deriver.Derive(agentName, components, art.Source)
	if err != nil {
		p.recordFinish(ctx, runID, string(session.State), artifactPath, session.AttemptCount())
		return nil, err
	}

	result := &RunResult{
		RunID:        runID,
		AgentName:    agentName,
		ArtifactPath: artifactPath,
		State:        session.State,
		Attempts:     session.AttemptCount(),
		Config:       bundle,
	}
	if final := session.FinalResult(); final != nil {
		result.Errors = final.Messages()
	}

	p.recordFinish(ctx, runID, string(session.State), artifactPath, session.AttemptCount())
	if session.State == repair.StateValid {
		p.emit(progress.LevelSuccess, "Agent generated successfully in %d attempt(s)", result.Attempts)
	} else {
		p.emit(progress.LevelWarning, "Agent saved with %d unresolved error(s) after %d attempt(s)",
			len(result.Errors), result.Attempts)
	}
	return result, nil
}

// generate runs the per-kind generators over the plan. Name collisions are
// last-writer-wins with no warning; order otherwise follows the plan.
func (p *Pipeline) generate(ctx context.Context, specs []types.ComponentSpec) ([]types.GeneratedComponent, error) {
	var ordered []types.GeneratedComponent
	index := make(map[string]int)

	for i, spec := range specs {
		p.emit(progress.LevelProgress, "[%d/%d] Generating %s component: %s",
			i+1, len(specs), spec.Kind, spec.Name)

		gen := p.toolGen
		if spec.Kind == types.KindLLM {
			gen = p.llmGen
		}
		comp, err := gen.Generate(ctx, spec)
		if err != nil {
			return nil, err
		}

		name := comp.FunctionName()
		if at, seen := index[name]; seen {
			ordered[at] = *comp
			continue
		}
		index[name] = len(ordered)
		ordered = append(ordered, *comp)
		p.emit(progress.LevelSuccess, "Component generated: %s", name)
	}
	return ordered, nil
}

func (p *Pipeline) writeArtifact(agentName, source string) (string, error) {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(p.outputDir, configgen.SanitizeName(agentName)+".go")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	return path, nil
}

// recordStart and recordFinish are audit-trail writes: a broken store must
// never break a generation run.
func (p *Pipeline) recordStart(ctx context.Context, runID, agentName, request string) {
	if p.store == nil {
		return
	}
	if err := p.store.CreateRun(ctx, runID, agentName, request); err != nil {
		p.logger.Warn("run store unavailable", zap.String("run_id", runID), zap.Error(err))
	}
}

func (p *Pipeline) recordAttempts(ctx context.Context, runID string, session *repair.Session) {
	if p.store == nil || session == nil {
		return
	}
	for _, a := range session.Attempts {
		row := store.AttemptRow{RunID: runID, Number: a.Number, State: "INVALID"}
		if a.Result != nil {
			if a.Result.OK() {
				row.State = "VALID"
			} else if len(a.Result.Errors) > 0 {
				row.ErrorKind = string(a.Result.Errors[0].Kind)
				row.Detail = a.Result.Errors[0].Message
			}
		}
		if err := p.store.RecordAttempt(ctx, row); err != nil {
			p.logger.Warn("run store unavailable", zap.String("run_id", runID), zap.Error(err))
			return
		}
	}
}

func (p *Pipeline) recordFinish(ctx context.Context, runID, state, artifactPath string, attempts int) {
	if p.store == nil {
		return
	}
	if err := p.store.FinishRun(ctx, runID, state, artifactPath, attempts); err != nil {
		p.logger.Warn("run store unavailable", zap.String("run_id", runID), zap.Error(err))
	}
}

func (p *Pipeline) emit(level progress.Level, format string, args ...any) {
	p.reporter.Emit(progress.Event{Message: fmt.Sprintf(format, args...), Level: level})
}
