// Package fetch provides source fetchers for the compilation pipeline:
// Dir reads from a root directory, FS from any fs.FS, Memory from an
// in-process map, and HTTP from the network with layered caching.
package fetch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// Fetcher loads the source text for an identity. It matches the contract
// the compilation registry consumes.
type Fetcher interface {
	Fetch(ctx context.Context, identity string) (string, error)
}

// Dir fetches identities as slash paths under a root directory. A leading
// slash is treated as root-relative; paths escaping the root are rejected.
type Dir struct {
	root string
}

// NewDir creates a fetcher rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Fetch reads the file the identity names.
func (d *Dir) Fetch(_ context.Context, identity string) (string, error) {
	p := path.Clean(strings.TrimPrefix(identity, "/"))
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("fetch %s: escapes root %s", identity, d.root)
	}
	b, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(p)))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", identity, err)
	}
	return string(b), nil
}

// FS fetches identities from an fs.FS, embedded filesystems included.
type FS struct {
	fsys fs.FS
}

// NewFS creates a fetcher over fsys.
func NewFS(fsys fs.FS) *FS {
	return &FS{fsys: fsys}
}

// Fetch reads the file the identity names.
func (f *FS) Fetch(_ context.Context, identity string) (string, error) {
	p := path.Clean(strings.TrimPrefix(identity, "/"))
	if !fs.ValidPath(p) {
		return "", fmt.Errorf("fetch %s: invalid path", identity)
	}
	b, err := fs.ReadFile(f.fsys, p)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", identity, err)
	}
	return string(b), nil
}

// Router dispatches by identity shape: URL identities go to the remote
// fetcher, everything else to the local one.
type Router struct {
	local  Fetcher
	remote Fetcher
}

// NewRouter creates a router over a local and a remote fetcher.
func NewRouter(local, remote Fetcher) *Router {
	return &Router{local: local, remote: remote}
}

// Fetch forwards to the fetcher responsible for the identity.
func (r *Router) Fetch(ctx context.Context, identity string) (string, error) {
	if strings.Contains(identity, "://") {
		return r.remote.Fetch(ctx, identity)
	}
	return r.local.Fetch(ctx, identity)
}

// Memory fetches identities from an in-process map. It is safe for
// concurrent use and intended for tests and embedded sources.
type Memory struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewMemory creates a fetcher over a copy of files.
func NewMemory(files map[string]string) *Memory {
	m := &Memory{files: make(map[string]string, len(files))}
	for k, v := range files {
		m.files[k] = v
	}
	return m
}

// Add makes text available under identity, replacing any previous text.
func (m *Memory) Add(identity, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[identity] = text
}

// Fetch returns the stored text for identity. Missing identities report
// fs.ErrNotExist.
func (m *Memory) Fetch(_ context.Context, identity string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	text, ok := m.files[identity]
	if !ok {
		return "", fmt.Errorf("fetch %s: %w", identity, fs.ErrNotExist)
	}
	return text, nil
}
