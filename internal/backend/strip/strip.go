// Package strip implements a reference Backend that erases TypeScript type
// syntax without type checking it. Type-only constructs are blanked out in
// place, so every surviving token keeps its original line and column and
// the source map reduces to a line-identity mapping. Constructs that need
// real compilation to run (enums, namespaces, parameter properties,
// decorators) are reported as diagnostics and refuse emission.
package strip

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/OliverJAsh/plugin-typescript/internal/backend"
	"github.com/OliverJAsh/plugin-typescript/internal/diag"
	"github.com/OliverJAsh/plugin-typescript/internal/extract"
)

// Backend strips type syntax from registered units. It is not safe for
// concurrent use on its own; the compiler serializes access.
type Backend struct {
	sources map[string]string
	cache   map[string]*analysis
}

// New creates an empty strip backend.
func New() *Backend {
	return &Backend{
		sources: make(map[string]string),
		cache:   make(map[string]*analysis),
	}
}

// analysis is the per-unit result of one parse: diagnostics plus the
// stripped output, computed together so the tree can be released.
type analysis struct {
	syntax  []diag.Diagnostic
	js      string
	srcMap  string
	jsName  string
	mapName string
}

// RegisterSource makes text available under identity, dropping any cached
// analysis for it.
func (b *Backend) RegisterSource(identity, text string) error {
	b.sources[identity] = text
	delete(b.cache, identity)
	return nil
}

// SyntacticDiagnostics reports parse errors and non-erasable constructs.
func (b *Backend) SyntacticDiagnostics(identity string) ([]diag.Diagnostic, error) {
	a, err := b.analyze(identity)
	if err != nil {
		return nil, err
	}
	return a.syntax, nil
}

// SemanticDiagnostics reports nothing: stripping does not type-check.
func (b *Backend) SemanticDiagnostics(identity string) ([]diag.Diagnostic, error) {
	if _, ok := b.sources[identity]; !ok {
		return nil, fmt.Errorf("unit %s not registered", identity)
	}
	return nil, nil
}

// GlobalDiagnostics reports nothing: the backend has no options to check.
func (b *Backend) GlobalDiagnostics() ([]diag.Diagnostic, error) {
	return nil, nil
}

// Emit returns the stripped JavaScript and its source map, named by the
// conventional derivation. Units with any syntactic diagnostic refuse
// emission with a skipped status.
func (b *Backend) Emit(identity string) (*backend.EmitResult, error) {
	a, err := b.analyze(identity)
	if err != nil {
		return nil, err
	}
	if len(a.syntax) > 0 {
		return &backend.EmitResult{Status: backend.EmitSkipped}, nil
	}
	return &backend.EmitResult{
		Status: backend.EmitOK,
		Files: []backend.OutputFile{
			{Name: a.jsName, Text: a.js},
			{Name: a.mapName, Text: a.srcMap},
		},
	}, nil
}

// BuildProgram assembles a program over the given identities. Every
// identity must already be registered.
func (b *Backend) BuildProgram(identities []string) (backend.Program, error) {
	ids := make(map[string]bool, len(identities))
	for _, id := range identities {
		if _, ok := b.sources[id]; !ok {
			return nil, fmt.Errorf("unit %s not registered", id)
		}
		ids[id] = true
	}
	return &program{b: b, ids: ids}, nil
}

// program answers whole-program queries by reusing the per-unit analyses.
type program struct {
	b   *Backend
	ids map[string]bool
}

func (p *program) GlobalDiagnostics() []diag.Diagnostic {
	return nil
}

func (p *program) SyntacticDiagnostics(identity string) []diag.Diagnostic {
	if !p.ids[identity] {
		return nil
	}
	a, err := p.b.analyze(identity)
	if err != nil {
		return nil
	}
	return a.syntax
}

func (p *program) SemanticDiagnostics(identity string) []diag.Diagnostic {
	return nil
}

// analyze parses identity once and caches diagnostics and stripped output.
func (b *Backend) analyze(identity string) (*analysis, error) {
	if a, ok := b.cache[identity]; ok {
		return a, nil
	}
	src, ok := b.sources[identity]
	if !ok {
		return nil, fmt.Errorf("unit %s not registered", identity)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(extract.GrammarFor(identity))

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(src))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", identity, err)
	}
	defer tree.Close()

	s := newStripper(identity, []byte(src))
	s.walk(tree.RootNode())

	jsName, mapName := backend.OutputNames(identity)
	srcMap, err := sourceMap(jsName, identity, strings.Count(src, "\n")+1)
	if err != nil {
		return nil, fmt.Errorf("source map %s: %w", identity, err)
	}

	a := &analysis{
		syntax:  s.diags,
		js:      withMapTrailer(string(s.out), mapName),
		srcMap:  srcMap,
		jsName:  jsName,
		mapName: mapName,
	}
	b.cache[identity] = a
	return a, nil
}

// withMapTrailer appends the sourceMappingURL comment the engine later
// replaces with an inline data URL.
func withMapTrailer(js, mapName string) string {
	if js != "" && !strings.HasSuffix(js, "\n") {
		js += "\n"
	}
	return js + "//# sourceMappingURL=" + mapName + "\n"
}

// sourceMapV3 is the subset of the source map format the backend fills in.
type sourceMapV3 struct {
	Version  int      `json:"version"`
	File     string   `json:"file"`
	Sources  []string `json:"sources"`
	Names    []string `json:"names"`
	Mappings string   `json:"mappings"`
}

// sourceMap builds a line-identity mapping: stripping never moves code, so
// output line n starts where input line n starts.
func sourceMap(file, source string, lines int) (string, error) {
	mappings := "AAAA"
	if lines > 1 {
		mappings += strings.Repeat(";AACA", lines-1)
	}
	raw, err := json.Marshal(sourceMapV3{
		Version:  3,
		File:     file,
		Sources:  []string{source},
		Names:    []string{},
		Mappings: mappings,
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
