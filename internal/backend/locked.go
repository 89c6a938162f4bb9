package backend

import (
	"sync"

	"github.com/OliverJAsh/plugin-typescript/internal/diag"
)

// Locked wraps b so that every call holds a shared mutex. The engine issues
// backend calls from per-unit goroutines, so an unsynchronized backend would
// otherwise see concurrent registration and diagnostics queries. Programs
// returned by BuildProgram share the same mutex.
func Locked(b Backend) Backend {
	if _, ok := b.(*lockedBackend); ok {
		return b
	}
	return &lockedBackend{b: b}
}

type lockedBackend struct {
	mu sync.Mutex
	b  Backend
}

func (l *lockedBackend) RegisterSource(identity, text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.RegisterSource(identity, text)
}

func (l *lockedBackend) SyntacticDiagnostics(identity string) ([]diag.Diagnostic, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.SyntacticDiagnostics(identity)
}

func (l *lockedBackend) SemanticDiagnostics(identity string) ([]diag.Diagnostic, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.SemanticDiagnostics(identity)
}

func (l *lockedBackend) GlobalDiagnostics() ([]diag.Diagnostic, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.GlobalDiagnostics()
}

func (l *lockedBackend) Emit(identity string) (*EmitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Emit(identity)
}

func (l *lockedBackend) BuildProgram(identities []string) (Program, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, err := l.b.BuildProgram(identities)
	if err != nil {
		return nil, err
	}
	return &lockedProgram{mu: &l.mu, p: p}, nil
}

type lockedProgram struct {
	mu *sync.Mutex
	p  Program
}

func (l *lockedProgram) GlobalDiagnostics() []diag.Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.GlobalDiagnostics()
}

func (l *lockedProgram) SyntacticDiagnostics(identity string) []diag.Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.SyntacticDiagnostics(identity)
}

func (l *lockedProgram) SemanticDiagnostics(identity string) []diag.Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.SemanticDiagnostics(identity)
}
