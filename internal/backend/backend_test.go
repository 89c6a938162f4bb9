package backend

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OliverJAsh/plugin-typescript/internal/diag"
)

// countingBackend records registered sources in a plain map, which the race
// detector would flag if Locked failed to serialize calls.
type countingBackend struct {
	sources map[string]string
	emits   int
}

func newCountingBackend() *countingBackend {
	return &countingBackend{sources: make(map[string]string)}
}

func (c *countingBackend) RegisterSource(identity, text string) error {
	c.sources[identity] = text
	return nil
}

func (c *countingBackend) SyntacticDiagnostics(identity string) ([]diag.Diagnostic, error) {
	if _, ok := c.sources[identity]; !ok {
		return nil, fmt.Errorf("not registered: %s", identity)
	}
	return nil, nil
}

func (c *countingBackend) SemanticDiagnostics(identity string) ([]diag.Diagnostic, error) {
	return c.SyntacticDiagnostics(identity)
}

func (c *countingBackend) GlobalDiagnostics() ([]diag.Diagnostic, error) {
	return nil, nil
}

func (c *countingBackend) Emit(identity string) (*EmitResult, error) {
	c.emits++
	return &EmitResult{Status: EmitOK}, nil
}

func (c *countingBackend) BuildProgram(identities []string) (Program, error) {
	return emptyProgram{}, nil
}

type emptyProgram struct{}

func (emptyProgram) GlobalDiagnostics() []diag.Diagnostic {
	return nil
}

func (emptyProgram) SyntacticDiagnostics(identity string) []diag.Diagnostic {
	return nil
}

func (emptyProgram) SemanticDiagnostics(identity string) []diag.Diagnostic {
	return nil
}

func TestEmitResultFile(t *testing.T) {
	r := &EmitResult{
		Status: EmitOK,
		Files: []OutputFile{
			{Name: "a.js", Text: "var a;"},
			{Name: "a.js.map", Text: "{}"},
		},
	}

	text, ok := r.File("a.js")
	assert.True(t, ok)
	assert.Equal(t, "var a;", text)

	_, ok = r.File("b.js")
	assert.False(t, ok)
}

func TestLockedSerializesConcurrentCalls(t *testing.T) {
	b := Locked(newCountingBackend())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("file%d.ts", n)
			require.NoError(t, b.RegisterSource(id, "export {}"))
			_, err := b.SyntacticDiagnostics(id)
			require.NoError(t, err)
			_, err = b.Emit(id)
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()
}

func TestLockedIsIdempotent(t *testing.T) {
	inner := newCountingBackend()
	once := Locked(inner)
	twice := Locked(once)
	assert.Same(t, once, twice)
}

func TestLockedProgramSharesMutex(t *testing.T) {
	b := Locked(newCountingBackend())
	require.NoError(t, b.RegisterSource("a.ts", ""))

	p, err := b.BuildProgram([]string{"a.ts"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.GlobalDiagnostics()
			p.SyntacticDiagnostics("a.ts")
			require.NoError(t, b.RegisterSource("a.ts", "export {}"))
		}()
	}
	wg.Wait()
}
