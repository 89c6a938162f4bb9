// Package resolve turns raw dependency specifiers into canonical unit
// identities. The Adapter applies the engine's specifier policy around a
// delegate Resolver and classifies what comes back; Paths and Script are
// the bundled delegates.
package resolve

import (
	"context"
	"fmt"
	"strings"
)

// Resolver maps a module specifier, relative to the importing unit, to a
// canonical identity.
type Resolver interface {
	Resolve(ctx context.Context, specifier, parent string) (string, error)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(ctx context.Context, specifier, parent string) (string, error)

func (f ResolverFunc) Resolve(ctx context.Context, specifier, parent string) (string, error) {
	return f(ctx, specifier, parent)
}

// Kind classifies a resolved identity.
type Kind int

const (
	// KindSource is a compilable unit: .ts, .tsx, .js, or .jsx.
	KindSource Kind = iota
	// KindDeclaration is a declaration-only unit: .d.ts.
	KindDeclaration
	// KindAsset is anything else (stylesheets, markup, text). Assets are
	// recorded in the resolution map but never compiled or diagnosed.
	KindAsset
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindDeclaration:
		return "declaration"
	case KindAsset:
		return "asset"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Resolution records the outcome of resolving one raw specifier.
type Resolution struct {
	// Specifier is the raw specifier as written in the source.
	Specifier string
	// Identity is the canonical identity the resolver produced.
	Identity string
	Kind     Kind
	// Ambient marks a declaration unit addressed by a bare name rather
	// than a path. Ambient resolutions drive the source rewriter.
	Ambient bool
}

// Adapter wraps a delegate Resolver with the engine's pre-delegation
// specifier policy and post-delegation classification.
type Adapter struct {
	delegate       Resolver
	resolveAmbient bool
}

// NewAdapter builds an Adapter over delegate. When resolveAmbient is false,
// ambient-style specifiers are rewritten to relative form so they resolve
// next to the importing unit instead of through the delegate's own mapping.
func NewAdapter(delegate Resolver, resolveAmbient bool) *Adapter {
	return &Adapter{delegate: delegate, resolveAmbient: resolveAmbient}
}

// Resolve resolves one raw specifier against the importing unit's identity.
func (a *Adapter) Resolve(ctx context.Context, specifier, parent string) (Resolution, error) {
	adjusted := specifier
	if !strings.Contains(specifier, "/") || (IsAmbient(specifier) && !a.resolveAmbient) {
		adjusted = "./" + specifier
	}

	identity, err := a.delegate.Resolve(ctx, adjusted, parent)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve %q from %s: %w", specifier, parent, err)
	}

	kind := Classify(identity)
	return Resolution{
		Specifier: specifier,
		Identity:  identity,
		Kind:      kind,
		Ambient:   IsAmbient(specifier) && kind == KindDeclaration,
	}, nil
}

// IsAmbient reports whether a specifier names a module by a bare/ambient
// name: not relative, not absolute, not a URL.
func IsAmbient(specifier string) bool {
	return !strings.HasPrefix(specifier, ".") &&
		!strings.HasPrefix(specifier, "/") &&
		!strings.Contains(specifier, "://")
}

// Classify reports the unit kind for a resolved identity. The declaration
// check runs first since .d.ts also ends in .ts.
func Classify(identity string) Kind {
	p := strings.ToLower(trimAddress(identity))
	switch {
	case strings.HasSuffix(p, ".d.ts"):
		return KindDeclaration
	case strings.HasSuffix(p, ".ts"), strings.HasSuffix(p, ".tsx"),
		strings.HasSuffix(p, ".js"), strings.HasSuffix(p, ".jsx"):
		return KindSource
	default:
		return KindAsset
	}
}

// trimAddress drops query and fragment parts from URL-shaped identities.
func trimAddress(identity string) string {
	if i := strings.IndexAny(identity, "?#"); i >= 0 {
		return identity[:i]
	}
	return identity
}
