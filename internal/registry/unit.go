package registry

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/OliverJAsh/plugin-typescript/internal/diag"
	"github.com/OliverJAsh/plugin-typescript/internal/resolve"
)

// State tracks a unit's progress through its load pipeline. States move
// forward only; Ready and Failed are terminal.
type State int32

const (
	StateFetching State = iota
	StateResolvingDeps
	StateRegistering
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateResolvingDeps:
		return "resolving"
	case StateRegistering:
		return "registering"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Unit is one source identity's registration state and dependency list.
// A Unit is created by Registry.Lookup, loaded exactly once by its pipeline
// goroutine, and shared by every caller interested in the identity.
//
// The loaded channel is the unit's future: it is closed exactly once, after
// err and all derived fields have been assigned. Readers must observe the
// close (via Await or Loaded) before touching those fields.
type Unit struct {
	identity string
	state    atomic.Int32

	loaded chan struct{}

	// Written once by the pipeline before loaded is closed.
	err         error
	text        string
	kind        resolve.Kind
	resolutions []resolve.Resolution
	deps        []*Unit
	synthetic   bool

	// Per-session memoized backend diagnostics.
	diagOnce sync.Once
	diags    []diag.Diagnostic
	diagErr  error
}

func newUnit(identity string) *Unit {
	u := &Unit{
		identity: identity,
		kind:     resolve.Classify(identity),
		loaded:   make(chan struct{}),
	}
	u.state.Store(int32(StateFetching))
	return u
}

// Identity returns the unit's canonical identity.
func (u *Unit) Identity() string { return u.identity }

// Kind classifies the unit by its identity.
func (u *Unit) Kind() resolve.Kind { return u.kind }

// State reports the pipeline's current progress.
func (u *Unit) State() State { return State(u.state.Load()) }

func (u *Unit) setState(s State) { u.state.Store(int32(s)) }

// Synthetic reports whether the unit is a placeholder registered for an
// asset identity rather than loaded from source.
func (u *Unit) Synthetic() bool { return u.synthetic }

// Loaded returns the unit's future. The channel is closed once the load
// pipeline has finished, successfully or not.
func (u *Unit) Loaded() <-chan struct{} { return u.loaded }

// Await blocks until the unit's pipeline has finished and returns its load
// error, or the context error if ctx is done first. Awaiting does not
// cancel the pipeline itself.
func (u *Unit) Await(ctx context.Context) error {
	select {
	case <-u.loaded:
		return u.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the unit's load error. Valid only after the future resolves.
func (u *Unit) Err() error { return u.err }

// Text returns the unit's source text after ambient rewriting. Valid only
// after the future resolves.
func (u *Unit) Text() string { return u.text }

// Resolutions returns the unit's resolution records in extraction order.
// The caller must not modify the returned slice.
func (u *Unit) Resolutions() []resolve.Resolution { return u.resolutions }

// Dependencies returns the units this unit depends on: the default library
// first when configured, then resolved dependencies in extraction order.
// Assets are excluded. The caller must not modify the returned slice.
func (u *Unit) Dependencies() []*Unit { return u.deps }

// Diagnostics returns the unit's own backend diagnostics, running query on
// the first call and replaying the memoized result afterwards. Concurrent
// callers share one query.
func (u *Unit) Diagnostics(query func(identity string) ([]diag.Diagnostic, error)) ([]diag.Diagnostic, error) {
	u.diagOnce.Do(func() {
		u.diags, u.diagErr = query(u.identity)
	})
	return u.diags, u.diagErr
}
