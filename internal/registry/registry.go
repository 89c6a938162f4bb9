// Package registry owns the session's unit store: one Unit per identity,
// loaded by exactly one pipeline (fetch, extract and resolve, ambient
// rewrite, backend registration) no matter how many callers ask for it.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/OliverJAsh/plugin-typescript/internal/backend"
	"github.com/OliverJAsh/plugin-typescript/internal/extract"
	"github.com/OliverJAsh/plugin-typescript/internal/resolve"
	"github.com/OliverJAsh/plugin-typescript/internal/rewrite"
)

// ErrLoad marks fetch and resolution failures. A unit's load error wraps it,
// and so do the errors of every unit that transitively depends on the
// failed one.
var ErrLoad = errors.New("load failed")

// Fetcher loads raw source text for an identity.
type Fetcher interface {
	Fetch(ctx context.Context, identity string) (string, error)
}

// Registry is the session-scoped unit store. Sessions are independent:
// nothing here is process-global, so concurrent Registries never share
// units or backends.
type Registry struct {
	fetcher    Fetcher
	adapter    *resolve.Adapter
	backend    backend.Backend
	defaultLib string

	mu    sync.Mutex
	units map[string]*Unit
}

// New builds a Registry. backend must already be safe for concurrent use
// (the compiler wraps it with backend.Locked). defaultLib, when non-empty,
// names a declaration unit every loaded unit implicitly depends on.
func New(fetcher Fetcher, adapter *resolve.Adapter, b backend.Backend, defaultLib string) *Registry {
	return &Registry{
		fetcher:    fetcher,
		adapter:    adapter,
		backend:    b,
		defaultLib: defaultLib,
		units:      make(map[string]*Unit),
	}
}

// Lookup returns the session's Unit for identity, creating it and starting
// its load pipeline on the first call. The pipeline is detached from ctx:
// once started it runs to completion even if the requesting caller goes
// away, so later callers can share its outcome.
func (r *Registry) Lookup(ctx context.Context, identity string) *Unit {
	r.mu.Lock()
	if u, ok := r.units[identity]; ok {
		r.mu.Unlock()
		return u
	}
	u := newUnit(identity)
	r.units[identity] = u
	r.mu.Unlock()

	go r.load(context.WithoutCancel(ctx), u)
	return u
}

// RegisterSynthetic ensures a ready placeholder unit exists for identity:
// empty declaration text registered with the backend, no dependencies.
// Whole-program checks inject these so the backend accepts asset imports.
// When the identity already has a unit, that unit is returned as is.
func (r *Registry) RegisterSynthetic(identity string) (*Unit, error) {
	r.mu.Lock()
	if u, ok := r.units[identity]; ok {
		r.mu.Unlock()
		return u, nil
	}
	u := newUnit(identity)
	u.synthetic = true
	r.units[identity] = u
	r.mu.Unlock()

	u.setState(StateRegistering)
	if err := r.backend.RegisterSource(identity, ""); err != nil {
		u.err = fmt.Errorf("%w: register synthetic %s: %w", ErrLoad, identity, err)
		u.setState(StateFailed)
		close(u.loaded)
		return u, u.err
	}
	u.setState(StateReady)
	close(u.loaded)
	return u, nil
}

// load runs the unit's pipeline and resolves its future. It is the only
// writer of the unit's derived fields.
func (r *Registry) load(ctx context.Context, u *Unit) {
	if err := r.pipeline(ctx, u); err != nil {
		u.err = fmt.Errorf("%w: %w", ErrLoad, err)
		u.setState(StateFailed)
	} else {
		u.setState(StateReady)
	}
	close(u.loaded)
}

func (r *Registry) pipeline(ctx context.Context, u *Unit) error {
	u.setState(StateFetching)
	text, err := r.fetcher.Fetch(ctx, u.identity)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", u.identity, err)
	}

	u.setState(StateResolvingDeps)
	rawDeps, err := extract.Deps(ctx, u.identity, []byte(text))
	if err != nil {
		return err
	}
	resolutions, err := r.resolveAll(ctx, u.identity, rawDeps)
	if err != nil {
		return err
	}

	text = rewrite.Ambient(text, resolutions)

	u.setState(StateRegistering)
	if err := r.backend.RegisterSource(u.identity, text); err != nil {
		return fmt.Errorf("register %s: %w", u.identity, err)
	}

	// Spawn dependency units. The implicit default library edge comes
	// first; assets and self-references stay out of the graph.
	var deps []*Unit
	seen := map[string]bool{u.identity: true}
	if r.defaultLib != "" && r.defaultLib != u.identity {
		seen[r.defaultLib] = true
		deps = append(deps, r.Lookup(ctx, r.defaultLib))
	}
	for _, res := range resolutions {
		if res.Kind == resolve.KindAsset || seen[res.Identity] {
			continue
		}
		seen[res.Identity] = true
		deps = append(deps, r.Lookup(ctx, res.Identity))
	}

	u.text = text
	u.resolutions = resolutions
	u.deps = deps
	return nil
}

// resolveLimit bounds concurrent resolver calls per unit. Resolvers can be
// scripted, so a unit with hundreds of imports must not fan out unbounded.
const resolveLimit = 8

// resolveAll resolves every raw specifier concurrently, keeping extraction
// order in the returned slice.
func (r *Registry) resolveAll(ctx context.Context, parent string, deps []extract.Dependency) ([]resolve.Resolution, error) {
	if len(deps) == 0 {
		return nil, nil
	}
	resolutions := make([]resolve.Resolution, len(deps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveLimit)
	for i, d := range deps {
		i, d := i, d
		g.Go(func() error {
			res, err := r.adapter.Resolve(gctx, d.Specifier, parent)
			if err != nil {
				return err
			}
			resolutions[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolutions, nil
}
