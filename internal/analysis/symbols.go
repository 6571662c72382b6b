package analysis

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ianlancetaylor/demangle"
)

// symbolCache memoizes demangled names. Labels are demangled repeatedly when
// the same index is resolved with DemangledMatcher for several targets.
type symbolCache struct {
	mu            sync.RWMutex
	demangleCache map[string]string
	hitCount      map[string]int
	cacheEnabled  bool
}

var cache = &symbolCache{
	demangleCache: make(map[string]string),
	hitCount:      make(map[string]int),
	cacheEnabled:  true,
}

// SetDemangleCache turns the demangle cache on or off.
func SetDemangleCache(enabled bool) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.cacheEnabled = enabled
}

// ResetDemangleCache drops every cached entry.
func ResetDemangleCache() {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.demangleCache = make(map[string]string)
	cache.hitCount = make(map[string]int)
}

// CachedDemangle returns the demangled form of a symbol, or the symbol itself
// when it is not a mangled C++ name.
func CachedDemangle(mangled string) string {
	cache.mu.RLock()
	if !cache.cacheEnabled {
		cache.mu.RUnlock()
		return demangle.Filter(mangled, demangle.NoClones)
	}
	cached, exists := cache.demangleCache[mangled]
	cache.mu.RUnlock()
	if exists {
		cache.mu.Lock()
		cache.hitCount[mangled]++
		cache.mu.Unlock()
		return cached
	}

	demangled := demangle.Filter(mangled, demangle.NoClones)

	cache.mu.Lock()
	cache.demangleCache[mangled] = demangled
	cache.mu.Unlock()
	return demangled
}

// DemangleCacheStats returns the number of cached symbols, the number of
// cache hits, and the five most requested symbols.
func DemangleCacheStats() (totalSymbols int, cacheHits int, topSymbols []string) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()

	type symbolHit struct {
		symbol string
		count  int
	}
	hits := make([]symbolHit, 0, len(cache.hitCount))
	for sym, count := range cache.hitCount {
		cacheHits += count
		hits = append(hits, symbolHit{sym, count})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].count != hits[j].count {
			return hits[i].count > hits[j].count
		}
		return hits[i].symbol < hits[j].symbol
	})

	for i := 0; i < 5 && i < len(hits); i++ {
		topSymbols = append(topSymbols, fmt.Sprintf("%s (%d hits)", hits[i].symbol, hits[i].count))
	}
	return len(cache.demangleCache), cacheHits, topSymbols
}
