package typescript

import (
	"errors"
	"sync"

	"github.com/OliverJAsh/plugin-typescript/internal/backend"
	"github.com/OliverJAsh/plugin-typescript/internal/diag"
	"github.com/OliverJAsh/plugin-typescript/internal/registry"
	"github.com/OliverJAsh/plugin-typescript/internal/resolve"
)

// Compiler drives incremental TypeScript compilation over a dependency
// graph. Each source unit is fetched, scanned for references and imports,
// resolved, and registered with the backend exactly once per session, no
// matter how many importers reach it or how many goroutines ask for it
// concurrently. Compile and Check then consume the shared units.
//
// A Compiler is safe for concurrent use.
type Compiler struct {
	backend  backend.Backend
	registry *registry.Registry

	resolver        resolve.Resolver
	resolveAmbient  bool
	defaultLib      string
	syntheticAssets []string

	globalOnce  sync.Once
	globalDiags []diag.Diagnostic
	globalErr   error
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithResolver sets the resolver consulted for every adjusted specifier.
// The default is a plain path resolver with no aliases.
func WithResolver(r resolve.Resolver) Option {
	return func(c *Compiler) {
		c.resolver = r
	}
}

// WithResolveAmbientRefs lets ambient specifiers (bare declaration names
// such as "ambient" in /// <reference path="ambient"/>) reach the resolver
// unchanged instead of being forced into relative form. Off by default.
func WithResolveAmbientRefs(enabled bool) Option {
	return func(c *Compiler) {
		c.resolveAmbient = enabled
	}
}

// WithDefaultLib injects an implicit dependency on the given declaration
// identity into every unit, the way a compiler makes its standard library
// visible without an explicit import. The default lib itself is loaded
// through the ordinary pipeline and depends on nothing implicitly.
func WithDefaultLib(identity string) Option {
	return func(c *Compiler) {
		c.defaultLib = identity
	}
}

// WithSyntheticAssetUnits names identities that whole-program checks
// register as empty placeholder units, so that imports of non-code assets
// (styles, templates) resolve during type checking without producing
// diagnostics of their own.
func WithSyntheticAssetUnits(identities ...string) Option {
	return func(c *Compiler) {
		c.syntheticAssets = append(c.syntheticAssets, identities...)
	}
}

// New creates a Compiler that loads sources through fetcher and compiles
// them with b. The backend is serialized internally, so implementations
// need not be safe for concurrent use.
func New(fetcher Fetcher, b Backend, opts ...Option) (*Compiler, error) {
	if fetcher == nil {
		return nil, errors.New("typescript: nil fetcher")
	}
	if b == nil {
		return nil, errors.New("typescript: nil backend")
	}

	c := &Compiler{
		backend:  backend.Locked(b),
		resolver: resolve.NewPaths(nil),
	}
	for _, opt := range opts {
		opt(c)
	}

	adapter := resolve.NewAdapter(c.resolver, c.resolveAmbient)
	c.registry = registry.New(fetcher, adapter, c.backend, c.defaultLib)
	return c, nil
}
