package typescript

import (
	"io/fs"
	"net/http"

	"github.com/OliverJAsh/plugin-typescript/internal/backend/strip"
	"github.com/OliverJAsh/plugin-typescript/internal/fetch"
	"github.com/OliverJAsh/plugin-typescript/internal/resolve"
)

// Bundled fetcher, resolver, and backend implementations, re-exported so a
// consumer can assemble a working Compiler from this package alone.

// HTTPCache is a persistent store for fetched remote sources, shared across
// sessions. Callers own its lifecycle and must Close it.
type HTTPCache = fetch.Cache

// HTTPOption configures the HTTP fetcher.
type HTTPOption = fetch.HTTPOption

// NewDirFetcher returns a Fetcher that reads identities as paths under
// root. Identities may not escape the root.
func NewDirFetcher(root string) Fetcher {
	return fetch.NewDir(root)
}

// NewFSFetcher returns a Fetcher over an [fs.FS].
func NewFSFetcher(fsys fs.FS) Fetcher {
	return fetch.NewFS(fsys)
}

// NewMemoryFetcher returns a Fetcher serving the given identity-to-source
// map, mainly for tests and fixtures.
func NewMemoryFetcher(files map[string]string) Fetcher {
	return fetch.NewMemory(files)
}

// NewRouterFetcher returns a Fetcher that sends URL identities to remote
// and everything else to local.
func NewRouterFetcher(local, remote Fetcher) Fetcher {
	return fetch.NewRouter(local, remote)
}

// NewHTTPFetcher returns a Fetcher that loads URL identities over HTTP,
// with an in-memory LRU in front of an optional persistent cache.
func NewHTTPFetcher(opts ...HTTPOption) (Fetcher, error) {
	return fetch.NewHTTP(opts...)
}

// NewHTTPCache opens (creating if needed) a persistent fetch cache at the
// given sqlite database path.
func NewHTTPCache(path string) (*HTTPCache, error) {
	return fetch.NewCache(path)
}

// WithHTTPClient sets the HTTP client used by [NewHTTPFetcher].
func WithHTTPClient(client *http.Client) HTTPOption {
	return fetch.WithClient(client)
}

// WithHTTPCache adds a persistent cache behind the fetcher's LRU.
func WithHTTPCache(cache *HTTPCache) HTTPOption {
	return fetch.WithCache(cache)
}

// WithHTTPLRUSize sets the in-memory LRU capacity of [NewHTTPFetcher].
func WithHTTPLRUSize(n int) HTTPOption {
	return fetch.WithLRUSize(n)
}

// NewStripBackend returns the bundled type-erasing backend. It produces
// syntactic diagnostics only and refuses emission for constructs that type
// erasure cannot express.
func NewStripBackend() Backend {
	return strip.New()
}

// NewPathsResolver returns the bundled path resolver with the given alias
// prefix table, which may be nil.
func NewPathsResolver(aliases map[string]string) Resolver {
	return resolve.NewPaths(aliases)
}

// NewScriptResolver returns a Resolver that evaluates a Risor script with
// specifier and parent globals, deferring to fallback when the script
// yields nil or an empty string. label names the script in errors.
func NewScriptResolver(source, label string, fallback Resolver) Resolver {
	return resolve.NewScript(source, label, fallback)
}
