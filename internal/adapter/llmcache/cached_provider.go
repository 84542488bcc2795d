package llmcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"chunk-gate/internal/domain"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize bounds the completion cache when no size is configured.
const DefaultSize = 1024

// CachedProvider memoizes non-streaming completions in an LRU cache keyed by
// prompt and options. The relevance probe re-asks the same short prompt for
// identical chunk/query pairs across runs, so a small cache removes most
// repeat round-trips. Streaming requests pass through uncached because the
// fragment sequence is not restartable.
type CachedProvider struct {
	inner domain.CompletionProvider
	cache *lru.Cache[string, string]
}

// New wraps the provider with an LRU of the given size (<= 0 uses
// DefaultSize).
func New(inner domain.CompletionProvider, size int) (*CachedProvider, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion cache: %w", err)
	}
	return &CachedProvider{inner: inner, cache: cache}, nil
}

var _ domain.CompletionProvider = (*CachedProvider)(nil)

// ModelName identifies the wrapped model.
func (p *CachedProvider) ModelName() string { return p.inner.ModelName() }

// Complete serves from cache when possible. Errors are never cached.
func (p *CachedProvider) Complete(ctx context.Context, prompt string, opts domain.CompletionOptions) (string, error) {
	key := cacheKey(prompt, opts)
	if cached, ok := p.cache.Get(key); ok {
		return cached, nil
	}

	response, err := p.inner.Complete(ctx, prompt, opts)
	if err != nil {
		return "", err
	}
	p.cache.Add(key, response)
	return response, nil
}

// CompleteStream passes through to the wrapped provider.
func (p *CachedProvider) CompleteStream(ctx context.Context, prompt string, opts domain.CompletionOptions) (<-chan string, error) {
	return p.inner.CompleteStream(ctx, prompt, opts)
}

// Len reports the number of cached completions.
func (p *CachedProvider) Len() int { return p.cache.Len() }

// cacheKey length-prefixes the string fields so distinct prompt/system-prompt
// pairs can never produce the same digest input.
func cacheKey(prompt string, opts domain.CompletionOptions) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%d:%s|%d:%s|%.3f|%d|%t",
		len(prompt), prompt, len(opts.SystemPrompt), opts.SystemPrompt,
		opts.Temperature, opts.MaxTokens, opts.JSONMode))
	return hex.EncodeToString(sum[:])
}
