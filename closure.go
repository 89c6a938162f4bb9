package typescript

import (
	"context"
	"fmt"

	"github.com/OliverJAsh/plugin-typescript/internal/registry"
)

// UnitInfo is a snapshot of one loaded unit in a dependency closure.
type UnitInfo struct {
	// Identity is the unit's canonical address.
	Identity string
	// Kind classifies the unit as source, declaration, or asset.
	Kind UnitKind
	// Deps lists the identities of the unit's direct dependencies in load
	// order, default library first when one is configured.
	Deps []string
}

// Closure loads identity, waits for its transitive dependency closure, and
// returns a snapshot of every reachable unit in depth-first preorder
// starting at the root. Each unit appears once, cycles included.
func (c *Compiler) Closure(ctx context.Context, identity string) ([]UnitInfo, error) {
	u := c.registry.Lookup(ctx, identity)
	if err := registry.AwaitReady(ctx, u, make(map[*registry.Unit]bool)); err != nil {
		return nil, fmt.Errorf("closure %s: %w", identity, err)
	}

	units := registry.Flatten(u)
	infos := make([]UnitInfo, 0, len(units))
	for _, x := range units {
		info := UnitInfo{Identity: x.Identity(), Kind: x.Kind()}
		for _, dep := range x.Dependencies() {
			info.Deps = append(info.Deps, dep.Identity())
		}
		infos = append(infos, info)
	}
	return infos, nil
}
