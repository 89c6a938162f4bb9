// Package typescript compiles TypeScript sources incrementally over their
// dependency graph. Sources are addressed by identity (a path or URL),
// fetched through a pluggable [Fetcher], scanned for triple-slash
// references and imports, resolved through a pluggable [Resolver], and
// handed to a [Backend] that produces diagnostics and JavaScript output.
//
// # Pipeline
//
// Every identity maps to exactly one unit per [Compiler]. The first lookup
// of an identity starts its pipeline: fetch the text, extract dependency
// specifiers in declaration order (references before imports), resolve each
// specifier, rewrite ambient references to their resolved identities, and
// register the final text with the backend. Concurrent lookups of the same
// identity share that single pipeline and its outcome, success or failure.
// Failures wrap [ErrLoad] and poison every unit that depends on the failed
// one; nothing is retried within a session.
//
// Dependency loading overlaps across units, so a deep import graph loads
// with the parallelism of its shape rather than one fetch at a time.
//
// # Usage
//
// Compile one unit and its dependencies to JavaScript:
//
//	c, err := typescript.New(typescript.NewDirFetcher("src"), typescript.NewStripBackend())
//	if err != nil { ... }
//
//	res, err := c.Compile(ctx, "main.ts")
//	if err != nil { ... }
//	if res.Failed {
//		for _, d := range res.Errors {
//			fmt.Println(d)
//		}
//		return
//	}
//	fmt.Println(res.JS)
//
// [Compiler.Compile] reports diagnostics for the unit and its declaration
// dependencies; any diagnostic at all yields a Failed result instead of
// output. [Compiler.Check] type-checks whole programs, and
// [Compiler.Closure] exposes the loaded dependency graph.
//
// # Resolution
//
// Specifiers are adjusted before the resolver sees them: a bare specifier
// with no slash is prefixed with "./" so plain names stay relative to their
// importer. Ambient references (bare names in reference directives) get the
// same treatment unless [WithResolveAmbientRefs] is on, in which case the
// resolver may map them anywhere. Resolvers classify each target as source,
// declaration, or asset; asset targets are recorded in the graph but never
// fetched or compiled. Custom resolution comes from [WithResolver], with
// [NewPathsResolver] for alias tables and [NewScriptResolver] for
// Risor-scripted rules.
//
// # Checking
//
// [Compiler.Check] flattens the dependency closures of one or more roots
// into a single backend program and reports its diagnostics, global ones
// first. Identities named by [WithSyntheticAssetUnits] are registered as
// empty placeholder units so asset imports type-check without contributing
// diagnostics of their own.
//
// # Backends
//
// A [Backend] owns parsing, type checking, and emission. The bundled strip
// backend erases type annotations without checking them; anything that can
// answer the interface (a full compiler service, a test fake) plugs in the
// same way. Backends are serialized by the Compiler, so they need not be
// safe for concurrent use.
package typescript
