package typescript

import (
	"context"
	"errors"
	"fmt"

	"github.com/OliverJAsh/plugin-typescript/internal/diag"
	"github.com/OliverJAsh/plugin-typescript/internal/registry"
)

// CheckResult is the outcome of a whole-program check.
type CheckResult struct {
	// Global holds program-wide diagnostics that belong to no unit, such as
	// compiler option problems.
	Global []Diagnostic

	// Diagnostics holds per-unit diagnostics in closure order, syntactic
	// before semantic within each unit.
	Diagnostics []Diagnostic
}

// HasErrors reports whether the check found any error-category diagnostic.
func (r *CheckResult) HasErrors() bool {
	return diag.HasErrors(r.Global) || diag.HasErrors(r.Diagnostics)
}

// Check loads the given roots, waits for their combined dependency closure,
// assembles every reachable unit plus the configured synthetic asset units
// into one backend program, and reports its diagnostics. Units shared
// between roots are loaded and diagnosed once; synthetic placeholders are
// part of the program but contribute no diagnostics of their own.
func (c *Compiler) Check(ctx context.Context, identities ...string) (*CheckResult, error) {
	if len(identities) == 0 {
		return nil, errors.New("check: no identities")
	}

	roots := make([]*registry.Unit, 0, len(identities))
	for _, id := range identities {
		roots = append(roots, c.registry.Lookup(ctx, id))
	}
	visited := make(map[*registry.Unit]bool)
	for _, u := range roots {
		if err := registry.AwaitReady(ctx, u, visited); err != nil {
			return nil, fmt.Errorf("check %s: %w", u.Identity(), err)
		}
	}

	units := registry.Flatten(roots...)
	seen := make(map[string]bool, len(units))
	program := make([]string, 0, len(units)+len(c.syntheticAssets))
	for _, u := range units {
		seen[u.Identity()] = true
		program = append(program, u.Identity())
	}
	for _, id := range c.syntheticAssets {
		u, err := c.registry.RegisterSynthetic(id)
		if err != nil {
			return nil, fmt.Errorf("check: %w", err)
		}
		if seen[u.Identity()] {
			continue
		}
		seen[u.Identity()] = true
		program = append(program, u.Identity())
	}

	prog, err := c.backend.BuildProgram(program)
	if err != nil {
		return nil, fmt.Errorf("check: build program: %w", err)
	}

	result := &CheckResult{Global: prog.GlobalDiagnostics()}
	for _, u := range units {
		if u.Synthetic() {
			continue
		}
		result.Diagnostics = append(result.Diagnostics, prog.SyntacticDiagnostics(u.Identity())...)
		result.Diagnostics = append(result.Diagnostics, prog.SemanticDiagnostics(u.Identity())...)
	}
	return result, nil
}
