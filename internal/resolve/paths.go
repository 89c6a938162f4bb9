package resolve

import (
	"context"
	"net/url"
	"path"
	"strings"
)

// Paths is the bundled loader-style resolver: URL or slash-path joining
// against the importing unit, an optional longest-prefix alias table for
// bare names, and .ts extension inference for extensionless specifiers.
type Paths struct {
	aliases map[string]string
}

// NewPaths builds a Paths resolver. aliases maps specifier prefixes to
// replacements ("app" -> "./src/app"); the longest matching prefix wins and
// matches only at path-segment boundaries. aliases may be nil.
func NewPaths(aliases map[string]string) *Paths {
	return &Paths{aliases: aliases}
}

// Resolve joins the specifier against parent and normalizes the result.
// Relative specifiers resolve next to the parent; absolute paths, URLs, and
// post-alias bare names pass through. An identity that ends up with no
// extension gains .ts.
func (p *Paths) Resolve(_ context.Context, specifier, parent string) (string, error) {
	spec := p.applyAlias(specifier)

	var identity string
	switch {
	case strings.Contains(spec, "://"):
		identity = spec
	case strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../"):
		identity = joinRelative(parent, spec)
	default:
		// Absolute paths and bare names stand on their own.
		identity = path.Clean(spec)
	}

	return ensureExtension(identity), nil
}

// applyAlias rewrites the specifier through the longest matching alias
// prefix, if any.
func (p *Paths) applyAlias(specifier string) string {
	best := ""
	for prefix := range p.aliases {
		if specifier != prefix && !strings.HasPrefix(specifier, prefix+"/") {
			continue
		}
		if len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return specifier
	}
	return p.aliases[best] + specifier[len(best):]
}

// joinRelative resolves spec against the parent identity's directory,
// keeping URL parents URLs and path parents paths.
func joinRelative(parent, spec string) string {
	if strings.Contains(parent, "://") {
		base, err := url.Parse(parent)
		if err == nil {
			ref, err := url.Parse(spec)
			if err == nil {
				return base.ResolveReference(ref).String()
			}
		}
		// Unparseable URL; fall through to path joining.
	}
	return path.Join(path.Dir(parent), spec)
}

// ensureExtension appends .ts to identities that carry no extension at all,
// inserting before any query or fragment part.
func ensureExtension(identity string) string {
	addr := trimAddress(identity)
	if path.Ext(addr) != "" {
		return identity
	}
	return addr + ".ts" + identity[len(addr):]
}
