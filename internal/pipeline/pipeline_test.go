package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentforge/internal/collaborator"
	"agentforge/internal/configgen"
	"agentforge/internal/repair"
	"agentforge/internal/sandbox"
	"agentforge/internal/store"
	"agentforge/internal/types"
)

type fakePlanner struct {
	specs []types.ComponentSpec
	err   error
}

func (f *fakePlanner) Plan(ctx context.Context, request string) ([]types.ComponentSpec, error) {
	return f.specs, f.err
}

// fakeGenerator returns a component whose function name and body derive
// from the spec, with optional per-name overrides.
type fakeGenerator struct {
	bodies map[string]string // spec name -> source
	names  map[string]string // spec name -> function name override
	calls  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, spec types.ComponentSpec) (*types.GeneratedComponent, error) {
	f.calls = append(f.calls, spec.Name)
	name := spec.Name
	if n, ok := f.names[spec.Name]; ok {
		name = n
	}
	body := "func " + name + "() {}"
	if b, ok := f.bodies[spec.Name]; ok {
		body = b
	}
	return &types.GeneratedComponent{
		SourceCode: body,
		Metadata:   types.ComponentMetadata{Name: name},
	}, nil
}

type fakeRunner struct {
	results []*sandbox.Result
	calls   int
}

func (f *fakeRunner) Run(ctx context.Context, source string) (*sandbox.Result, error) {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i], nil
}

type fakeCorrector struct {
	response string
	calls    int
}

func (f *fakeCorrector) Correct(ctx context.Context, code string, errs []string) (string, error) {
	f.calls++
	return f.response, nil
}

func newTestPipeline(t *testing.T, planner Planner, gen *fakeGenerator, runner repair.Runner, corrector repair.Corrector, maxRetries int) (*Pipeline, string, *store.Store) {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	p := New(Options{
		Planner:       planner,
		ToolGenerator: gen,
		LLMGenerator:  gen,
		Repairer:      repair.NewLoop(runner, corrector, maxRetries, nil, nil),
		Deriver:       configgen.NewDeriver(dir, "", nil),
		OutputDir:     dir,
		Store:         st,
	})
	return p, dir, st
}

func TestRunValidFirstTry(t *testing.T) {
	planner := &fakePlanner{specs: []types.ComponentSpec{
		{Name: "fetch_data", Kind: types.KindTool, Description: "fetches"},
		{Name: "summarize", Kind: types.KindLLM, Description: "summarizes"},
	}}
	gen := &fakeGenerator{}
	runner := &fakeRunner{results: []*sandbox.Result{{ExitCode: 0}}}
	corrector := &fakeCorrector{}

	p, dir, st := newTestPipeline(t, planner, gen, runner, corrector, 5)
	result, err := p.Run(context.Background(), "make me an agent", "My Agent")
	require.NoError(t, err)

	assert.Equal(t, repair.StateValid, result.State)
	assert.Equal(t, 1, result.Attempts, "one TESTING transition")
	assert.Equal(t, 0, corrector.calls, "zero CORRECTING transitions")
	assert.Empty(t, result.Errors)

	// The artifact landed under the sanitized name and contains both bodies.
	assert.Equal(t, filepath.Join(dir, "my_agent.go"), result.ArtifactPath)
	data, err := os.ReadFile(result.ArtifactPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "func fetch_data()")
	assert.Contains(t, string(data), "func summarize()")

	// And the run was persisted.
	run, err := st.GetRun(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, "VALID", run.State)
	assert.Equal(t, result.ArtifactPath, run.ArtifactPath)

	attempts, err := st.ListAttempts(context.Background(), result.RunID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, "VALID", attempts[0].State)
}

func TestRunExhaustsBudgetAndKeepsArtifact(t *testing.T) {
	planner := &fakePlanner{specs: []types.ComponentSpec{
		{Name: "explode", Kind: types.KindTool, Description: "always panics"},
	}}
	gen := &fakeGenerator{}
	// Every execution fails; the corrector always returns the same broken
	// but parseable code.
	runner := &fakeRunner{results: []*sandbox.Result{{ExitCode: 1, Stderr: "panic: boom\n"}}}
	corrector := &fakeCorrector{response: "package main\n\nfunc main() { panic(\"boom\") }\n"}

	p, _, _ := newTestPipeline(t, planner, gen, runner, corrector, 3)
	result, err := p.Run(context.Background(), "doomed request", "doomed")
	require.NoError(t, err, "exhaustion is a result, not an error")

	assert.Equal(t, repair.StateTerminated, result.State)
	assert.Equal(t, 3, result.Attempts, "exactly maxRetries TESTING transitions")
	assert.Equal(t, 2, corrector.calls, "exactly maxRetries-1 CORRECTING transitions")
	assert.NotEmpty(t, result.Errors)

	// The last attempted artifact is on disk.
	data, err := os.ReadFile(result.ArtifactPath)
	require.NoError(t, err)
	assert.Equal(t, corrector.response, string(data))
}

func TestRunNameCollisionLastWriterWins(t *testing.T) {
	planner := &fakePlanner{specs: []types.ComponentSpec{
		{Name: "first", Kind: types.KindTool, Description: "v1"},
		{Name: "second", Kind: types.KindTool, Description: "v2"},
	}}
	// Both specs produce a function named process_data; the second body
	// must replace the first with no warning.
	gen := &fakeGenerator{
		names: map[string]string{"first": "process_data", "second": "process_data"},
		bodies: map[string]string{
			"first":  "func process_data() { /* v1 */ }",
			"second": "func process_data() { /* v2 */ }",
		},
	}
	runner := &fakeRunner{results: []*sandbox.Result{{ExitCode: 0}}}

	p, _, _ := newTestPipeline(t, planner, gen, runner, &fakeCorrector{}, 5)
	result, err := p.Run(context.Background(), "collide", "collide")
	require.NoError(t, err)

	data, err := os.ReadFile(result.ArtifactPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/* v2 */")
	assert.NotContains(t, string(data), "/* v1 */")
}

func TestRunPlannerFailureIsFatal(t *testing.T) {
	planner := &fakePlanner{err: &collaborator.PlanParseError{Excerpt: "garbage", Err: errors.New("bad json")}}

	p, _, _ := newTestPipeline(t, planner, &fakeGenerator{}, &fakeRunner{results: []*sandbox.Result{{}}}, &fakeCorrector{}, 5)
	_, err := p.Run(context.Background(), "anything", "x")

	var parseErr *collaborator.PlanParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestRunDerivesConfigTemplates(t *testing.T) {
	planner := &fakePlanner{specs: []types.ComponentSpec{
		{Name: "send_mail", Kind: types.KindTool, Description: "sends mail"},
	}}
	gen := &fakeGenerator{bodies: map[string]string{
		"send_mail": "func send_mail() { _ = getenv(\"SMTP_HOST\", \"\") }",
	}}
	runner := &fakeRunner{results: []*sandbox.Result{{ExitCode: 0}}}

	p, dir, _ := newTestPipeline(t, planner, gen, runner, &fakeCorrector{}, 5)
	result, err := p.Run(context.Background(), "mail me", "Mailer")
	require.NoError(t, err)

	require.NotNil(t, result.Config)
	assert.Equal(t, filepath.Join(dir, "mailer.env"), result.Config.EnvPath)
	data, err := os.ReadFile(result.Config.EnvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "GROQ_API_KEY=")
}

var _ Repairer = (*repair.Loop)(nil)
var _ Planner = (*collaborator.Planner)(nil)
var _ Generator = (*collaborator.Generator)(nil)
var _ Deriver = (*configgen.Deriver)(nil)
var _ RunStore = (*store.Store)(nil)
var _ repair.Runner = (*repair.SandboxRunner)(nil)
var _ repair.Corrector = (*collaborator.Corrector)(nil)
