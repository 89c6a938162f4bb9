package typescript

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/OliverJAsh/plugin-typescript/internal/backend"
	"github.com/OliverJAsh/plugin-typescript/internal/registry"
)

// ErrBackendEmit marks backend contract violations during emission: a
// skipped emit or missing output for a unit that had no diagnostics.
// Diagnostics themselves are never errors; they come back as data in the
// CompileResult.
var ErrBackendEmit = errors.New("backend emit failed")

// sourceMapRe matches an existing sourceMappingURL trailer in emitted code.
var sourceMapRe = regexp.MustCompile(`(?m)^//# sourceMappingURL=.*$`)

// CompileResult is the outcome of compiling one unit.
type CompileResult struct {
	// Failed reports that diagnostics blocked emission. Errors then holds
	// every diagnostic found, global first, and JS and SourceMap are empty.
	Failed bool
	Errors []Diagnostic

	// JS is the emitted code with the source map spliced in as an inline
	// data URL. SourceMap is the raw map text.
	JS        string
	SourceMap string
}

// Compile loads identity, waits for its transitive dependency closure,
// gathers its diagnostics, and emits it when they are clean. Diagnostics
// cover the unit itself plus its declaration dependencies, and any found
// produce a Failed result rather than an error. Emission that violates the
// backend contract returns an error wrapping [ErrBackendEmit].
func (c *Compiler) Compile(ctx context.Context, identity string) (*CompileResult, error) {
	u := c.registry.Lookup(ctx, identity)
	if err := registry.AwaitReady(ctx, u, make(map[*registry.Unit]bool)); err != nil {
		return nil, fmt.Errorf("compile %s: %w", identity, err)
	}

	global, err := c.globalDiagnostics()
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", identity, err)
	}
	own, err := c.diagnosticsFor(u, make(map[*registry.Unit]bool))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", identity, err)
	}
	if len(global) > 0 || len(own) > 0 {
		all := make([]Diagnostic, 0, len(global)+len(own))
		all = append(all, global...)
		all = append(all, own...)
		return &CompileResult{Failed: true, Errors: all}, nil
	}

	out, err := c.backend.Emit(identity)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", identity, err)
	}
	if out.Status == backend.EmitSkipped {
		return nil, fmt.Errorf("compile %s: %w: emit skipped with no diagnostics", identity, ErrBackendEmit)
	}
	jsName, mapName := backend.OutputNames(identity)
	js, ok := out.File(jsName)
	if !ok {
		return nil, fmt.Errorf("compile %s: %w: missing output %s", identity, ErrBackendEmit, jsName)
	}
	srcMap, ok := out.File(mapName)
	if !ok {
		return nil, fmt.Errorf("compile %s: %w: missing output %s", identity, ErrBackendEmit, mapName)
	}

	return &CompileResult{
		JS:        spliceSourceMap(js, srcMap),
		SourceMap: srcMap,
	}, nil
}

// spliceSourceMap inlines srcMap into js as a base64 data URL, replacing an
// existing sourceMappingURL trailer or appending one when the backend left
// none. Inlining keeps the unit self-contained for module loaders that
// never see the separate map file.
func spliceSourceMap(js, srcMap string) string {
	url := "//# sourceMappingURL=data:application/json;base64," +
		base64.StdEncoding.EncodeToString([]byte(srcMap))
	if sourceMapRe.MatchString(js) {
		return sourceMapRe.ReplaceAllLiteralString(js, url)
	}
	if js != "" && !strings.HasSuffix(js, "\n") {
		js += "\n"
	}
	return js + url + "\n"
}
