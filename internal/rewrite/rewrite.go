// Package rewrite rewrites ambient specifiers inside source text to their
// resolved identities, so a backend that only understands direct-path
// references sees every dependency the same way. This is a best-effort
// textual pass, not an AST transform; a specifier string that also occurs
// as part of unrelated text gets rewritten with it.
package rewrite

import (
	"regexp"
	"sort"

	"github.com/OliverJAsh/plugin-typescript/internal/resolve"
)

// Ambient replaces every literal occurrence of each ambient resolution's raw
// specifier in text with its resolved identity. Matching is case-insensitive
// and specifiers are escaped, so regex metacharacters in module names are
// safe. Longer specifiers are replaced first to keep prefixes from eating
// their extensions. When no resolution is ambient the input text is returned
// untouched.
func Ambient(text string, resolutions []resolve.Resolution) string {
	var ambient []resolve.Resolution
	for _, r := range resolutions {
		if r.Ambient {
			ambient = append(ambient, r)
		}
	}
	if len(ambient) == 0 {
		return text
	}

	sort.SliceStable(ambient, func(i, j int) bool {
		return len(ambient[i].Specifier) > len(ambient[j].Specifier)
	})

	for _, r := range ambient {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(r.Specifier))
		text = re.ReplaceAllLiteralString(text, r.Identity)
	}
	return text
}
