package typescript

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OliverJAsh/plugin-typescript/internal/backend"
	"github.com/OliverJAsh/plugin-typescript/internal/fetch"
)

// fakeBackend is a scriptable in-memory backend. Diagnostics and emit
// behavior are keyed by identity, and call counters expose what the engine
// actually asked for. The compiler wraps it with backend.Locked, so the
// plain maps are safe.
type fakeBackend struct {
	sources   map[string]string
	syntactic map[string][]Diagnostic
	semantic  map[string][]Diagnostic
	global    []Diagnostic

	// progGlobal is what programs built by BuildProgram report, as opposed
	// to the engine-level global diagnostics above.
	progGlobal []Diagnostic

	emitJS   map[string]string
	skipEmit map[string]bool
	omitMap  map[string]bool

	globalCalls int
	semCalls    map[string]int
	emitted     []string
	programs    [][]string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		sources:   make(map[string]string),
		syntactic: make(map[string][]Diagnostic),
		semantic:  make(map[string][]Diagnostic),
		emitJS:    make(map[string]string),
		skipEmit:  make(map[string]bool),
		omitMap:   make(map[string]bool),
		semCalls:  make(map[string]int),
	}
}

func (f *fakeBackend) RegisterSource(identity, text string) error {
	f.sources[identity] = text
	return nil
}

func (f *fakeBackend) SyntacticDiagnostics(identity string) ([]Diagnostic, error) {
	return f.syntactic[identity], nil
}

func (f *fakeBackend) SemanticDiagnostics(identity string) ([]Diagnostic, error) {
	f.semCalls[identity]++
	return f.semantic[identity], nil
}

func (f *fakeBackend) GlobalDiagnostics() ([]Diagnostic, error) {
	f.globalCalls++
	return f.global, nil
}

func (f *fakeBackend) Emit(identity string) (*EmitResult, error) {
	f.emitted = append(f.emitted, identity)
	if f.skipEmit[identity] {
		return &EmitResult{Status: EmitSkipped}, nil
	}
	js := f.emitJS[identity]
	if js == "" {
		js = "var compiled;\n"
	}
	jsName, mapName := backend.OutputNames(identity)
	files := []OutputFile{{Name: jsName, Text: js}}
	if !f.omitMap[identity] {
		files = append(files, OutputFile{Name: mapName, Text: `{"version":3}`})
	}
	return &EmitResult{Status: EmitOK, Files: files}, nil
}

func (f *fakeBackend) BuildProgram(identities []string) (Program, error) {
	ids := append([]string(nil), identities...)
	f.programs = append(f.programs, ids)
	return &fakeProgram{b: f}, nil
}

type fakeProgram struct {
	b *fakeBackend
}

func (p *fakeProgram) GlobalDiagnostics() []Diagnostic {
	return p.b.progGlobal
}

func (p *fakeProgram) SyntacticDiagnostics(identity string) []Diagnostic {
	return p.b.syntactic[identity]
}

func (p *fakeProgram) SemanticDiagnostics(identity string) []Diagnostic {
	return p.b.semantic[identity]
}

// countingFetcher wraps the in-memory fetcher and counts fetches per
// identity. Unlike the backend it is hit from concurrent pipelines, so it
// locks.
type countingFetcher struct {
	inner Fetcher
	mu    sync.Mutex
	calls map[string]int
}

func newCountingFetcher(files map[string]string) *countingFetcher {
	return &countingFetcher{inner: fetch.NewMemory(files), calls: make(map[string]int)}
}

func (f *countingFetcher) Fetch(ctx context.Context, identity string) (string, error) {
	f.mu.Lock()
	f.calls[identity]++
	f.mu.Unlock()
	return f.inner.Fetch(ctx, identity)
}

func (f *countingFetcher) count(identity string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[identity]
}

type blockedFetcher struct {
	release chan struct{}
}

func (f *blockedFetcher) Fetch(_ context.Context, _ string) (string, error) {
	<-f.release
	return "", nil
}

func newTestCompiler(t *testing.T, files map[string]string, opts ...Option) (*Compiler, *fakeBackend) {
	t.Helper()
	fb := newFakeBackend()
	c, err := New(fetch.NewMemory(files), fb, opts...)
	require.NoError(t, err)
	return c, fb
}

func TestNew_NilFetcher(t *testing.T) {
	_, err := New(nil, newFakeBackend())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil fetcher")
}

func TestNew_NilBackend(t *testing.T) {
	_, err := New(fetch.NewMemory(nil), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil backend")
}

func TestCompile_EmitsCleanUnit(t *testing.T) {
	c, fb := newTestCompiler(t, map[string]string{
		"src/main.ts": "import { two } from './lib.ts';\nexport const n: number = two();\n",
		"src/lib.ts":  "export function two(): number { return 2; }\n",
	})

	res, err := c.Compile(context.Background(), "src/main.ts")
	require.NoError(t, err)

	assert.False(t, res.Failed)
	assert.Contains(t, res.JS, "var compiled")
	assert.Contains(t, res.JS, "sourceMappingURL=data:application/json;base64,")
	assert.Equal(t, `{"version":3}`, res.SourceMap)
	assert.Equal(t, []string{"src/main.ts"}, fb.emitted)

	// The whole closure was registered, not just the root.
	assert.Contains(t, fb.sources, "src/main.ts")
	assert.Contains(t, fb.sources, "src/lib.ts")
}

func TestCompile_ReplacesSourceMapTrailer(t *testing.T) {
	c, fb := newTestCompiler(t, map[string]string{
		"main.ts": "export const x = 1;\n",
	})
	fb.emitJS["main.ts"] = "var x = 1;\n//# sourceMappingURL=main.js.map\n"

	res, err := c.Compile(context.Background(), "main.ts")
	require.NoError(t, err)

	assert.NotContains(t, res.JS, "main.js.map")
	assert.Equal(t, 1, strings.Count(res.JS, "sourceMappingURL"))
	assert.Contains(t, res.JS, "data:application/json;base64,")
}

func TestCompile_FailsOnDiagnostics(t *testing.T) {
	c, fb := newTestCompiler(t, map[string]string{
		"main.ts": "export const x: number = 'no';\n",
	})
	fb.semantic["main.ts"] = []Diagnostic{
		{Identity: "main.ts", Category: Error, Code: 2322, Message: "Type 'string' is not assignable to type 'number'."},
	}

	res, err := c.Compile(context.Background(), "main.ts")
	require.NoError(t, err)

	assert.True(t, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2322, res.Errors[0].Code)
	assert.Empty(t, res.JS)
	assert.Empty(t, fb.emitted, "diagnostics must block emission")
}

func TestCompile_GlobalDiagnosticsFirstAndOnce(t *testing.T) {
	c, fb := newTestCompiler(t, map[string]string{
		"main.ts": "export const x = 1;\n",
	})
	fb.global = []Diagnostic{
		{Category: Error, Code: 5023, Message: "Unknown compiler option."},
	}
	fb.semantic["main.ts"] = []Diagnostic{
		{Identity: "main.ts", Category: Warning, Code: 6133, Message: "'x' is declared but never read."},
	}

	res, err := c.Compile(context.Background(), "main.ts")
	require.NoError(t, err)
	assert.True(t, res.Failed)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 5023, res.Errors[0].Code)
	assert.Equal(t, 6133, res.Errors[1].Code)

	// Global and per-unit diagnostics are memoized across compiles.
	_, err = c.Compile(context.Background(), "main.ts")
	require.NoError(t, err)
	assert.Equal(t, 1, fb.globalCalls)
	assert.Equal(t, 1, fb.semCalls["main.ts"])
}

func TestCompile_DescendsDeclarationDepsOnly(t *testing.T) {
	c, fb := newTestCompiler(t, map[string]string{
		"main.ts":    "/// <reference path=\"types.d.ts\" />\nimport './helper.ts';\nexport {};\n",
		"types.d.ts": "declare const version: string;\n",
		"helper.ts":  "export const h = 1;\n",
	})
	fb.semantic["types.d.ts"] = []Diagnostic{
		{Identity: "types.d.ts", Category: Error, Code: 1001, Message: "from the declaration"},
	}
	fb.semantic["helper.ts"] = []Diagnostic{
		{Identity: "helper.ts", Category: Error, Code: 1002, Message: "from the source dep"},
	}

	res, err := c.Compile(context.Background(), "main.ts")
	require.NoError(t, err)

	assert.True(t, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1001, res.Errors[0].Code)
}

func TestCompile_EmitSkippedIsContractViolation(t *testing.T) {
	c, fb := newTestCompiler(t, map[string]string{
		"main.ts": "export const x = 1;\n",
	})
	fb.skipEmit["main.ts"] = true

	_, err := c.Compile(context.Background(), "main.ts")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackendEmit)
	assert.Contains(t, err.Error(), "emit skipped")
}

func TestCompile_MissingOutputIsContractViolation(t *testing.T) {
	c, fb := newTestCompiler(t, map[string]string{
		"main.ts": "export const x = 1;\n",
	})
	fb.omitMap["main.ts"] = true

	_, err := c.Compile(context.Background(), "main.ts")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackendEmit)
	assert.Contains(t, err.Error(), "main.js.map")
}

func TestCompile_LoadFailurePoisonsAndNeverRetries(t *testing.T) {
	cf := newCountingFetcher(map[string]string{
		"main.ts": "import './missing.ts';\nexport {};\n",
	})
	c, err := New(cf, newFakeBackend())
	require.NoError(t, err)

	_, err = c.Compile(context.Background(), "main.ts")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)
	assert.Contains(t, err.Error(), "missing.ts")

	_, err = c.Compile(context.Background(), "main.ts")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)

	assert.Equal(t, 1, cf.count("missing.ts"))
	assert.Equal(t, 1, cf.count("main.ts"))
}

func TestCompile_SharedDependencyFetchedOnce(t *testing.T) {
	cf := newCountingFetcher(map[string]string{
		"main.ts":   "import './a.ts';\nimport './b.ts';\nexport {};\n",
		"a.ts":      "import './shared.ts';\nexport const a = 1;\n",
		"b.ts":      "import './shared.ts';\nexport const b = 2;\n",
		"shared.ts": "export const s = 0;\n",
	})
	c, err := New(cf, newFakeBackend())
	require.NoError(t, err)

	res, err := c.Compile(context.Background(), "main.ts")
	require.NoError(t, err)
	assert.False(t, res.Failed)
	assert.Equal(t, 1, cf.count("shared.ts"))
}

func TestCompile_CanceledContext(t *testing.T) {
	release := make(chan struct{})
	c, err := New(&blockedFetcher{release: release}, newFakeBackend())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Compile(ctx, "main.ts")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
}

func TestCompile_DefaultLibIsImplicitDeclarationDep(t *testing.T) {
	c, fb := newTestCompiler(t, map[string]string{
		"main.ts":  "export const x = 1;\n",
		"lib.d.ts": "declare const globalThis: any;\n",
	}, WithDefaultLib("lib.d.ts"))
	fb.semantic["lib.d.ts"] = []Diagnostic{
		{Identity: "lib.d.ts", Category: Error, Code: 2300, Message: "Duplicate identifier."},
	}

	res, err := c.Compile(context.Background(), "main.ts")
	require.NoError(t, err)
	assert.True(t, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2300, res.Errors[0].Code)

	infos, err := c.Closure(context.Background(), "main.ts")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, []string{"lib.d.ts"}, infos[0].Deps)
	assert.Equal(t, KindDeclaration, infos[1].Kind)
	assert.Empty(t, infos[1].Deps, "the default lib must not depend on itself")
}

func TestCheck_AssemblesOneProgram(t *testing.T) {
	c, fb := newTestCompiler(t, map[string]string{
		"app.ts":     "import './feature.ts';\nimport styles from './theme.css';\nexport {};\n",
		"feature.ts": "export const f = 1;\n",
	}, WithSyntheticAssetUnits("theme.css"))
	fb.progGlobal = []Diagnostic{
		{Category: Message, Code: 6194, Message: "Found 1 error."},
	}
	fb.syntactic["feature.ts"] = []Diagnostic{
		{Identity: "feature.ts", Category: Error, Code: 1005, Message: "';' expected."},
	}
	fb.syntactic["theme.css"] = []Diagnostic{
		{Identity: "theme.css", Category: Error, Code: 9999, Message: "never reported"},
	}

	res, err := c.Check(context.Background(), "app.ts")
	require.NoError(t, err)

	require.Len(t, fb.programs, 1)
	assert.Equal(t, []string{"app.ts", "feature.ts", "theme.css"}, fb.programs[0])

	require.Len(t, res.Global, 1)
	assert.Equal(t, 6194, res.Global[0].Code)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, 1005, res.Diagnostics[0].Code)
	assert.True(t, res.HasErrors())

	// The synthetic asset was registered with empty text.
	text, ok := fb.sources["theme.css"]
	assert.True(t, ok)
	assert.Empty(t, text)
}

func TestCheck_SharedUnitsAppearOnce(t *testing.T) {
	c, fb := newTestCompiler(t, map[string]string{
		"a.ts":      "import './shared.ts';\nexport const a = 1;\n",
		"b.ts":      "import './shared.ts';\nexport const b = 2;\n",
		"shared.ts": "export const s = 0;\n",
	})

	res, err := c.Check(context.Background(), "a.ts", "b.ts")
	require.NoError(t, err)
	assert.False(t, res.HasErrors())

	require.Len(t, fb.programs, 1)
	assert.Equal(t, []string{"a.ts", "shared.ts", "b.ts"}, fb.programs[0])
}

func TestCheck_NoRoots(t *testing.T) {
	c, _ := newTestCompiler(t, nil)
	_, err := c.Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no identities")
}

func TestClosure_CycleTerminates(t *testing.T) {
	c, _ := newTestCompiler(t, map[string]string{
		"a.ts": "import './b.ts';\nexport const a = 1;\n",
		"b.ts": "import './a.ts';\nexport const b = 2;\n",
	})

	infos, err := c.Closure(context.Background(), "a.ts")
	require.NoError(t, err)

	require.Len(t, infos, 2)
	assert.Equal(t, "a.ts", infos[0].Identity)
	assert.Equal(t, []string{"b.ts"}, infos[0].Deps)
	assert.Equal(t, "b.ts", infos[1].Identity)
	assert.Equal(t, []string{"a.ts"}, infos[1].Deps)
	assert.Equal(t, KindSource, infos[0].Kind)
}
