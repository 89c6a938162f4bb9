package typescript

import (
	"github.com/OliverJAsh/plugin-typescript/internal/diag"
	"github.com/OliverJAsh/plugin-typescript/internal/registry"
	"github.com/OliverJAsh/plugin-typescript/internal/resolve"
)

// queryUnit asks the backend for one unit's diagnostics, syntactic before
// semantic. It is the query function memoized per unit by the registry.
func (c *Compiler) queryUnit(identity string) ([]diag.Diagnostic, error) {
	syn, err := c.backend.SyntacticDiagnostics(identity)
	if err != nil {
		return nil, err
	}
	sem, err := c.backend.SemanticDiagnostics(identity)
	if err != nil {
		return nil, err
	}
	return append(syn, sem...), nil
}

// globalDiagnostics queries the backend's option and host diagnostics once
// per session. They do not change between compilations, so the first answer
// is reused for every subsequent Compile.
func (c *Compiler) globalDiagnostics() ([]diag.Diagnostic, error) {
	c.globalOnce.Do(func() {
		c.globalDiags, c.globalErr = c.backend.GlobalDiagnostics()
	})
	return c.globalDiags, c.globalErr
}

// diagnosticsFor accumulates diagnostics for u and, transitively, its
// declaration dependencies. Ordinary source dependencies are not descended
// into: their diagnostics surface when they are compiled as units in their
// own right, while declaration problems propagate upward because an
// importer cannot be emitted correctly against a broken declaration file.
// Synthetic placeholder units are never diagnosed.
//
// visited is per call and guards against reference cycles; the per-unit
// backend answers are memoized on the units themselves for the whole
// session.
func (c *Compiler) diagnosticsFor(u *registry.Unit, visited map[*registry.Unit]bool) ([]diag.Diagnostic, error) {
	if visited[u] || u.Synthetic() {
		return nil, nil
	}
	visited[u] = true

	own, err := u.Diagnostics(c.queryUnit)
	if err != nil {
		return nil, err
	}
	out := append([]diag.Diagnostic(nil), own...)
	for _, dep := range u.Dependencies() {
		if dep.Kind() != resolve.KindDeclaration {
			continue
		}
		sub, err := c.diagnosticsFor(dep, visited)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}
