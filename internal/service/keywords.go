package service

import "sync"

// KeywordPool hands out study keywords to sections, each at most once
// per run. Safe for concurrent use.
type KeywordPool struct {
	mu       sync.Mutex
	keywords []string
	next     int
}

// NewKeywordPool creates a pool over the given keywords.
// Blank keywords are ignored.
func NewKeywordPool(keywords []string) *KeywordPool {
	filtered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k != "" {
			filtered = append(filtered, k)
		}
	}
	return &KeywordPool{keywords: filtered}
}

// Acquire removes and returns the next unassigned keyword.
// Returns false once the pool is exhausted.
func (p *KeywordPool) Acquire() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.next >= len(p.keywords) {
		return "", false
	}
	kw := p.keywords[p.next]
	p.next++
	return kw, true
}

// Remaining reports how many keywords are still unassigned.
func (p *KeywordPool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keywords) - p.next
}
