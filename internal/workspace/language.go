package workspace

import (
	"path/filepath"
	"strings"
	"sync"
)

// LanguageRegistry maps file name suffixes to language names. Registrations
// are explicit: a suffix resolves to a language only after Register is
// called for it, and no content sniffing ever happens.
type LanguageRegistry struct {
	mu       sync.RWMutex
	bySuffix map[string]string
}

// NewLanguageRegistry creates an empty registry.
func NewLanguageRegistry() *LanguageRegistry {
	return &LanguageRegistry{bySuffix: make(map[string]string)}
}

// Register associates file suffixes with a language name. Suffixes may be
// given with or without the leading dot; compound suffixes like "test.ts"
// are allowed and win over shorter ones. Re-registering a suffix replaces
// its language.
func (r *LanguageRegistry) Register(name string, suffixes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, suffix := range suffixes {
		suffix = strings.TrimPrefix(strings.ToLower(suffix), ".")
		if suffix == "" {
			continue
		}
		r.bySuffix[suffix] = name
	}
}

// LanguageFor resolves the language of a file path from its registered
// suffixes, preferring the longest matching suffix.
func (r *LanguageRegistry) LanguageFor(path string) (string, bool) {
	base := strings.ToLower(filepath.Base(path))
	if base == "" || base == "." {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		bestName string
		bestLen  = -1
	)
	for suffix, name := range r.bySuffix {
		if len(suffix) <= bestLen {
			continue
		}
		if base == suffix || strings.HasSuffix(base, "."+suffix) {
			bestName = name
			bestLen = len(suffix)
		}
	}
	if bestLen < 0 {
		return "", false
	}
	return bestName, true
}
