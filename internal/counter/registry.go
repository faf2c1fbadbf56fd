// Package counter implements the process-wide iteration counter registry.
//
// A dataset iteration is identified by a (container, name) pair. Multiple
// iterators racing to resume the same named iteration must share the same
// underlying sequence counter, and the counter must outlive any single
// iterator but be cleaned up once nothing references it any more. This
// mirrors a resource-manager handle with reference counting rather than a
// plain map, since ownership (who is responsible for eventually deleting
// the entry) has to be tracked explicitly.
package counter

import (
	"sync"
)

// Handle is a reference to a shared iteration counter. Next returns
// monotonically increasing values starting at zero. Release must be called
// exactly once per handle obtained from a Registry; the underlying counter
// is torn down once every handle referencing it has been released.
type Handle struct {
	registry *Registry
	key      key
	entry    *entry
}

// Next returns the next value in the sequence and advances it.
func (h *Handle) Next() int64 {
	return h.entry.next()
}

// Release drops this handle's reference to the shared counter. Once every
// handle sharing a key has been released, the entry is removed from the
// registry.
func (h *Handle) Release() {
	h.registry.release(h.key)
}

type key struct {
	container string
	name      string
}

type entry struct {
	mu    sync.Mutex
	value int64
	refs  int
}

func (e *entry) next() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := e.value
	e.value++
	return v
}

// Registry is a process-wide, reference-counted table of iteration
// counters. The zero value is not usable; construct one with NewRegistry.
type Registry struct {
	mu      sync.Mutex
	entries map[key]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[key]*entry)}
}

// LookupOrCreate returns a Handle to the counter identified by
// (container, name), creating it if this is the first caller to reference
// that key. Every returned Handle must eventually be released.
func (r *Registry) LookupOrCreate(container, name string) *Handle {
	k := key{container: container, name: name}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[k]
	if !ok {
		e = &entry{}
		r.entries[k] = e
	}
	e.mu.Lock()
	e.refs++
	e.mu.Unlock()

	return &Handle{registry: r, key: k, entry: e}
}

// Size reports the number of distinct counters currently tracked. Intended
// for tests and diagnostics.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) release(k key) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[k]
	if !ok {
		return
	}
	e.mu.Lock()
	e.refs--
	drained := e.refs <= 0
	e.mu.Unlock()

	if drained {
		delete(r.entries, k)
	}
}

// Default is the registry used by the ingest package unless a caller
// supplies its own, mirroring the single process-wide resource manager an
// iteration counter would be registered in.
var Default = NewRegistry()
