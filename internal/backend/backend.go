// Package backend declares the capability contract a TypeScript backend
// exposes to the engine. The engine feeds sources in and asks for
// diagnostics, single-unit emission, and whole-program checks; everything
// about how the backend implements those (a real compiler, a transpiler,
// a test fake) stays behind this interface.
package backend

import (
	"path"
	"strings"

	"github.com/OliverJAsh/plugin-typescript/internal/diag"
)

// EmitStatus reports whether a backend produced output for a unit.
type EmitStatus int

const (
	// EmitOK means output files were produced.
	EmitOK EmitStatus = iota
	// EmitSkipped means the backend declined to emit. The engine treats
	// this as an invariant violation for units that passed diagnostics.
	EmitSkipped
)

// OutputFile is one file produced by emission, named by the backend after
// the conventional derivation (x.ts becomes x.js and x.js.map).
type OutputFile struct {
	Name string
	Text string
}

// EmitResult is the outcome of single-unit emission.
type EmitResult struct {
	Status EmitStatus
	Files  []OutputFile
}

// File returns the text of the output file with the given name.
func (r *EmitResult) File(name string) (string, bool) {
	for _, f := range r.Files {
		if f.Name == name {
			return f.Text, true
		}
	}
	return "", false
}

// OutputNames derives the conventional output names for a source identity:
// the source extension is replaced by .js, and the source map adds .map to
// that. Backends name their emitted files this way and the engine looks
// them up by the same rule.
func OutputNames(identity string) (js, srcMap string) {
	js = strings.TrimSuffix(identity, path.Ext(identity)) + ".js"
	return js, js + ".map"
}

// Backend compiles TypeScript sources handed to it by the engine.
//
// Implementations are not required to be safe for concurrent use; the
// engine serializes access through Locked.
type Backend interface {
	// RegisterSource makes text available under identity. A unit must be
	// registered before any diagnostics, emission, or program query names
	// it. Re-registering the same identity replaces the text.
	RegisterSource(identity, text string) error

	// SyntacticDiagnostics reports parse-level diagnostics for one
	// registered unit.
	SyntacticDiagnostics(identity string) ([]diag.Diagnostic, error)

	// SemanticDiagnostics reports type-level diagnostics for one
	// registered unit.
	SemanticDiagnostics(identity string) ([]diag.Diagnostic, error)

	// GlobalDiagnostics reports diagnostics that belong to no unit, such
	// as compiler option problems.
	GlobalDiagnostics() ([]diag.Diagnostic, error)

	// Emit transpiles one registered unit and returns its output files.
	Emit(identity string) (*EmitResult, error)

	// BuildProgram assembles a program over the given root identities for
	// whole-program checking. Every identity must already be registered.
	BuildProgram(identities []string) (Program, error)
}

// Program is a whole-program view assembled by BuildProgram.
type Program interface {
	// GlobalDiagnostics reports program-wide diagnostics that belong to no
	// single unit, options problems included.
	GlobalDiagnostics() []diag.Diagnostic

	// SyntacticDiagnostics reports parse-level diagnostics for one unit of
	// the program.
	SyntacticDiagnostics(identity string) []diag.Diagnostic

	// SemanticDiagnostics reports type-level diagnostics for one unit of
	// the program.
	SemanticDiagnostics(identity string) []diag.Diagnostic
}
