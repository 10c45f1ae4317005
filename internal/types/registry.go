package types

import (
	"slices"
	"sync"
)

// Definition pairs a registered name with its variant.
type Definition struct {
	Name    string
	Variant Variant
}

// Table is a read-only view of the registry contents. It is only valid
// inside the Registry.View callback that produced it.
type Table interface {
	Lookup(name string) (Variant, bool)
	Has(name string) bool
}

// Registry maps type names to definitions. Entries are only ever added:
// nothing is replaced or removed, and every referenced name was present
// when the referencing definition was inserted.
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	byKey map[string]Variant
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey: make(map[string]Variant, 32),
	}
}

// Register validates v and stores it under name. Checks run in order and
// the first failure is returned:
//
//  1. name already present: ErrTypeRedefinition
//  2. atomic size 0: ErrNoZeroSizedType, then alignment 0: ErrNoZeroAlign
//  3. compound with no members: ErrEmptyCompoundType
//  4. first member not yet registered: ErrTypeDoesNotExist (member name)
//
// On error the registry is left untouched.
func (r *Registry) Register(name string, v Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.check(name, v); err != nil {
		return err
	}
	r.byKey[name] = v.Clone()
	r.order = append(r.order, name)
	return nil
}

// check must be called with r.mu held.
func (r *Registry) check(name string, v Variant) error {
	if _, ok := r.byKey[name]; ok {
		return &TypeError{Kind: ErrTypeRedefinition, Name: name}
	}
	if !v.Valid() {
		return &TypeError{Kind: ErrInvalidVariant, Name: name}
	}

	switch v.Kind {
	case KindAtomic:
		if v.Atomic.Size <= 0 {
			return &TypeError{Kind: ErrNoZeroSizedType, Name: name}
		}
		if v.Atomic.Align <= 0 {
			return &TypeError{Kind: ErrNoZeroAlign, Name: name}
		}
	case KindStruct, KindUnion:
		refs := v.Refs()
		if len(refs) == 0 {
			return &TypeError{Kind: ErrEmptyCompoundType, Name: name}
		}
		for _, ref := range refs {
			if _, ok := r.byKey[ref]; !ok {
				return &TypeError{Kind: ErrTypeDoesNotExist, Name: ref}
			}
		}
	}
	return nil
}

// Lookup returns a copy of the definition stored under name.
func (r *Registry) Lookup(name string) (Variant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.byKey[name]
	if !ok {
		return Variant{}, false
	}
	return v.Clone(), true
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byKey[name]
	return ok
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Names returns registered names in insertion order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Definitions returns copies of all definitions in insertion order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, Definition{Name: name, Variant: r.byKey[name].Clone()})
	}
	return out
}

// View runs fn with a consistent snapshot of the registry: no Register
// call can complete while fn runs. fn must not call Register.
func (r *Registry) View(fn func(Table)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(tableView{r})
}

// tableView reads the map directly; the caller holds the read lock.
// Variants are returned without copying and must be treated as read-only.
type tableView struct {
	r *Registry
}

func (t tableView) Lookup(name string) (Variant, bool) {
	v, ok := t.r.byKey[name]
	return v, ok
}

func (t tableView) Has(name string) bool {
	_, ok := t.r.byKey[name]
	return ok
}
