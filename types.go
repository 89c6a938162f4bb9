package typescript

import (
	"github.com/OliverJAsh/plugin-typescript/internal/backend"
	"github.com/OliverJAsh/plugin-typescript/internal/diag"
	"github.com/OliverJAsh/plugin-typescript/internal/registry"
	"github.com/OliverJAsh/plugin-typescript/internal/resolve"
)

// Aliases for the internal types that appear in the Compiler API, so
// consumers never have to import internal packages.

type Diagnostic = diag.Diagnostic
type Category = diag.Category
type Backend = backend.Backend
type Program = backend.Program
type EmitResult = backend.EmitResult
type EmitStatus = backend.EmitStatus
type OutputFile = backend.OutputFile
type Fetcher = registry.Fetcher
type Unit = registry.Unit
type UnitState = registry.State
type Resolver = resolve.Resolver
type ResolverFunc = resolve.ResolverFunc
type Resolution = resolve.Resolution
type UnitKind = resolve.Kind

// Diagnostic categories.
const (
	Warning    = diag.Warning
	Error      = diag.Error
	Suggestion = diag.Suggestion
	Message    = diag.Message
)

// Unit kinds.
const (
	KindSource      = resolve.KindSource
	KindDeclaration = resolve.KindDeclaration
	KindAsset       = resolve.KindAsset
)

// Emit statuses.
const (
	EmitOK      = backend.EmitOK
	EmitSkipped = backend.EmitSkipped
)

// ErrLoad marks fetch and resolution failures, for the unit that failed and
// every unit transitively depending on it.
var ErrLoad = registry.ErrLoad
