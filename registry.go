package pseudo

import (
	"reflect"
	"sync"
)

var (
	globs   = make(map[string]*Glob)
	globsMu sync.RWMutex
)

// lookupGlob returns a cached compiled pattern or compiles a new one.
// Malformed patterns are not cached.
func lookupGlob(pattern string) (*Glob, error) {
	// Fast path: read-lock cache check
	globsMu.RLock()
	if cached, ok := globs[pattern]; ok {
		globsMu.RUnlock()
		return cached, nil
	}
	globsMu.RUnlock()

	// Slow path: compile and cache with write-lock
	globsMu.Lock()
	defer globsMu.Unlock()

	if cached, ok := globs[pattern]; ok {
		return cached, nil
	}

	g, err := Compile(pattern)
	if err != nil {
		return nil, err
	}

	globs[pattern] = g
	return g, nil
}

// Reset clears the compiled pattern and struct plan caches.
// This is primarily useful for test isolation.
func Reset() {
	globsMu.Lock()
	globs = make(map[string]*Glob)
	globsMu.Unlock()

	plansMu.Lock()
	plans = make(map[reflect.Type]*typePlan)
	plansMu.Unlock()
}
