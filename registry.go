package wyre

import (
	"reflect"
	"sync"
)

// Registry is the source of truth for what has been declared: a mutable
// mapping from identifier to descriptor. It is an explicit object rather
// than package-level state so tests can run against isolated registries.
//
// Entries are never removed; re-declaring the same site updates the
// existing descriptor in place, so the registry never holds two descriptors
// for one identifier.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[any]*Descriptor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{descriptors: make(map[any]*Descriptor)}
}

// Get returns the descriptor stored under an identifier.
func (r *Registry) Get(identifier any) (*Descriptor, bool) {
	if !isComparable(identifier) {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[identifier]
	return d, ok
}

// Put stores a descriptor under its identifier. Callers that want in-place
// amendment fetch first and mutate the shared descriptor; Put is for newly
// created ones.
func (r *Registry) Put(d *Descriptor) error {
	if d.Identifier == nil {
		return ErrIdentifierNil
	}
	if !isComparable(d.Identifier) {
		return ErrIdentifierNotComparable
	}

	r.mu.Lock()
	r.descriptors[d.Identifier] = d
	r.mu.Unlock()
	return nil
}

// GetOrCreate returns the descriptor stored under an identifier, creating
// and storing it via create when absent. The boolean reports whether the
// descriptor already existed.
func (r *Registry) GetOrCreate(identifier any, create func() *Descriptor) (*Descriptor, bool, error) {
	if identifier == nil {
		return nil, false, ErrIdentifierNil
	}
	if !isComparable(identifier) {
		return nil, false, ErrIdentifierNotComparable
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.descriptors[identifier]; ok {
		return d, true, nil
	}

	d := create()
	d.Identifier = identifier
	r.descriptors[identifier] = d
	return d, false, nil
}

// Len returns the number of declared descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}

// Identifiers returns a snapshot of all declared identifiers, in no
// particular order.
func (r *Registry) Identifiers() []any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]any, 0, len(r.descriptors))
	for id := range r.descriptors {
		ids = append(ids, id)
	}
	return ids
}

// isComparable reports whether a value can key the descriptor map without
// panicking.
func isComparable(v any) bool {
	if v == nil {
		return false
	}
	t := reflect.TypeOf(v)
	return t.Comparable()
}
