// Package extract pulls raw dependency specifiers out of TypeScript source.
// It is a pure function of the source text: no resolution, no filesystem.
package extract

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Origin distinguishes how a specifier entered the source.
type Origin int

const (
	// OriginReference is a triple-slash reference path comment.
	OriginReference Origin = iota
	// OriginImport covers import/export declarations, require calls, and
	// dynamic import expressions.
	OriginImport
)

// Dependency is one raw specifier found in a unit's source, before any
// resolution.
type Dependency struct {
	Specifier string
	Origin    Origin
}

// referenceRe matches /// <reference path="..."/> comments, either quote
// style, mirroring the compiler's own triple-slash recognizer.
var referenceRe = regexp.MustCompile(`^///\s*<reference\s+path\s*=\s*(?:"([^"]*)"|'([^']*)').*/>`)

// Deps parses source and returns its raw dependency specifiers: triple-slash
// reference paths first, then import-like specifiers, each group in order of
// appearance. A specifier occurring more than once keeps its first position,
// with the reference group winning over the import group.
func Deps(ctx context.Context, identity string, source []byte) ([]Dependency, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(GrammarFor(identity))

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("extract: parse %s: %w", identity, err)
	}
	defer tree.Close()

	var refs, imports []string
	refSeen := make(map[string]bool)
	importSeen := make(map[string]bool)

	addRef := func(spec string) {
		if spec != "" && !refSeen[spec] {
			refSeen[spec] = true
			refs = append(refs, spec)
		}
	}
	addImport := func(spec string) {
		if spec != "" && !importSeen[spec] {
			importSeen[spec] = true
			imports = append(imports, spec)
		}
	}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "comment":
			if m := referenceRe.FindStringSubmatch(n.Content(source)); m != nil {
				if m[1] != "" {
					addRef(m[1])
				} else {
					addRef(m[2])
				}
			}
		case "import_statement":
			if s := n.ChildByFieldName("source"); s != nil {
				addImport(stringValue(s, source))
			} else if rc := namedChildOfType(n, "import_require_clause"); rc != nil {
				// import foo = require("./x")
				if s := rc.ChildByFieldName("source"); s != nil {
					addImport(stringValue(s, source))
				}
			}
		case "export_statement":
			// export ... from "./x" has a source; plain exports do not.
			if s := n.ChildByFieldName("source"); s != nil {
				addImport(stringValue(s, source))
			}
		case "call_expression":
			if spec, ok := callSpecifier(n, source); ok {
				addImport(spec)
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(tree.RootNode())

	deps := make([]Dependency, 0, len(refs)+len(imports))
	for _, spec := range refs {
		deps = append(deps, Dependency{Specifier: spec, Origin: OriginReference})
	}
	for _, spec := range imports {
		if !refSeen[spec] {
			deps = append(deps, Dependency{Specifier: spec, Origin: OriginImport})
		}
	}
	return deps, nil
}

// callSpecifier recognizes require("x") and dynamic import("x") calls with a
// single string literal argument.
func callSpecifier(n *sitter.Node, source []byte) (string, bool) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return "", false
	}
	switch {
	case fn.Type() == "import":
	case fn.Type() == "identifier" && fn.Content(source) == "require":
	default:
		return "", false
	}
	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() != 1 {
		return "", false
	}
	arg := args.NamedChild(0)
	if arg.Type() != "string" {
		return "", false
	}
	return stringValue(arg, source), true
}

// stringValue returns the literal content of a string node without quotes.
func stringValue(n *sitter.Node, source []byte) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "string_fragment" {
			return c.Content(source)
		}
	}
	return strings.Trim(n.Content(source), `"'`)
}

func namedChildOfType(n *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == nodeType {
			return c
		}
	}
	return nil
}

// Grammars are lazily initialized once and shared; the tree-sitter bindings
// allocate a fresh wrapper on every GetLanguage call.
var (
	grammarsOnce sync.Once
	tsGrammar    *sitter.Language
	tsxGrammar   *sitter.Language
)

func initGrammars() {
	grammarsOnce.Do(func() {
		tsGrammar = ts.GetLanguage()
		tsxGrammar = tsx.GetLanguage()
	})
}

// GrammarFor picks the tree-sitter grammar by identity extension. TSX and
// JSX identities use the TSX grammar; everything else parses as TypeScript.
func GrammarFor(identity string) *sitter.Language {
	initGrammars()
	switch strings.ToLower(path.Ext(trimAddress(identity))) {
	case ".tsx", ".jsx":
		return tsxGrammar
	default:
		return tsGrammar
	}
}

// trimAddress drops query and fragment parts from URL-shaped identities so
// extension checks see the path.
func trimAddress(identity string) string {
	if i := strings.IndexAny(identity, "?#"); i >= 0 {
		return identity[:i]
	}
	return identity
}
