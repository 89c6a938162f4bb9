package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultLRUSize bounds the in-memory cache when no size is configured.
const defaultLRUSize = 256

// HTTP fetches URL identities over the network. Fetched sources pass
// through an in-memory LRU and, when configured, a persistent Cache, so a
// session never refetches an identity and later sessions can skip the
// network entirely.
type HTTP struct {
	client  *http.Client
	lru     *lru.Cache[string, string]
	cache   *Cache
	lruSize int
}

// HTTPOption configures an HTTP fetcher.
type HTTPOption func(*HTTP)

// WithClient sets the underlying HTTP client. Defaults to
// http.DefaultClient.
func WithClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = client
	}
}

// WithCache layers a persistent cache between the LRU and the network. The
// caller keeps ownership of the cache and closes it.
func WithCache(c *Cache) HTTPOption {
	return func(h *HTTP) {
		h.cache = c
	}
}

// WithLRUSize sets the in-memory cache capacity.
func WithLRUSize(n int) HTTPOption {
	return func(h *HTTP) {
		h.lruSize = n
	}
}

// NewHTTP creates an HTTP fetcher.
func NewHTTP(opts ...HTTPOption) (*HTTP, error) {
	h := &HTTP{client: http.DefaultClient, lruSize: defaultLRUSize}
	for _, opt := range opts {
		opt(h)
	}
	if h.lruSize <= 0 {
		h.lruSize = defaultLRUSize
	}
	l, err := lru.New[string, string](h.lruSize)
	if err != nil {
		return nil, fmt.Errorf("fetch lru: %w", err)
	}
	h.lru = l
	return h, nil
}

// Fetch returns the body served at identity, consulting the LRU and the
// persistent cache first. Only status 200 is accepted.
func (h *HTTP) Fetch(ctx context.Context, identity string) (string, error) {
	if text, ok := h.lru.Get(identity); ok {
		return text, nil
	}
	if h.cache != nil {
		text, ok, err := h.cache.Get(identity)
		if err != nil {
			return "", err
		}
		if ok {
			h.lru.Add(identity, text)
			return text, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, identity, nil)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", identity, err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", identity, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %s", identity, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", identity, err)
	}

	text := string(body)
	h.lru.Add(identity, text)
	if h.cache != nil {
		if err := h.cache.Put(identity, text); err != nil {
			return "", err
		}
	}
	return text, nil
}
