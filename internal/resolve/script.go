package resolve

import (
	"context"
	"fmt"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"
)

// Script resolves specifiers by evaluating a Risor script. The script sees
// two globals, specifier and parent, and must evaluate to the resolved
// identity string; evaluating to nil or "" defers to the fallback resolver.
// This is the hook for custom schemes and loader mappings that the bundled
// Paths resolver cannot express.
type Script struct {
	source   string
	label    string
	fallback Resolver
}

// NewScript builds a Script resolver from Risor source. label names the
// script in error messages. fallback may be nil, in which case a deferring
// script result is an error.
func NewScript(source, label string, fallback Resolver) *Script {
	return &Script{source: source, label: label, fallback: fallback}
}

// Resolve evaluates the script for one specifier.
func (s *Script) Resolve(ctx context.Context, specifier, parent string) (string, error) {
	result, err := risor.Eval(ctx, s.source,
		risor.WithGlobal("specifier", specifier),
		risor.WithGlobal("parent", parent),
	)
	if err != nil {
		return "", fmt.Errorf("resolver script %s: %w", s.label, err)
	}

	switch v := result.(type) {
	case *object.String:
		if v.Value() != "" {
			return v.Value(), nil
		}
	case *object.NilType:
		// Deferred.
	default:
		return "", fmt.Errorf("resolver script %s: want string result, got %s", s.label, result.Type())
	}

	if s.fallback == nil {
		return "", fmt.Errorf("resolver script %s: no result for %q", s.label, specifier)
	}
	return s.fallback.Resolve(ctx, specifier, parent)
}
