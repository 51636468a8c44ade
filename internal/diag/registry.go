package diag

import (
	"fmt"
	"slices"
	"sync"
)

type registry struct {
	mu      sync.RWMutex
	byCode  map[Code]*Identity
	byName  map[string]*Identity
	ordered []*Identity
	sealed  bool
}

func newRegistry() *registry {
	return &registry{
		byCode: make(map[Code]*Identity),
		byName: make(map[string]*Identity),
	}
}

var defaultRegistry = newRegistry()

func (r *registry) define(code Code, name string, sev Severity, pos Positioning, template string, args []ArgKind) *Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		panic(fmt.Sprintf("diag: identity %s defined after the registry was sealed", name))
	}
	if prev, ok := r.byCode[code]; ok {
		panic(fmt.Sprintf("diag: code %s of %s already used by %s", code.ID(), name, prev.name))
	}
	if _, ok := r.byName[name]; ok {
		panic(fmt.Sprintf("diag: identity %s defined twice", name))
	}
	if sev != SevError && sev != SevWarning {
		panic(fmt.Sprintf("diag: identity %s must be an error or a warning", name))
	}
	if pos == nil {
		pos = PositionDefault
	}
	id := &Identity{
		code:        code,
		name:        name,
		severity:    sev,
		positioning: pos,
		args:        args,
		template:    template,
	}
	r.byCode[code] = id
	r.byName[name] = id
	r.ordered = append(r.ordered, id)
	return id
}

func (r *registry) seal() {
	r.mu.Lock()
	r.sealed = true
	slices.SortFunc(r.ordered, func(a, b *Identity) int { return int(a.code) - int(b.code) })
	r.mu.Unlock()
}

func (r *registry) lookup(code Code) (*Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byCode[code]
	return id, ok
}

func (r *registry) lookupName(name string) (*Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

func (r *registry) all() []*Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := slices.Clone(r.ordered)
	slices.SortFunc(out, func(a, b *Identity) int { return int(a.code) - int(b.code) })
	return out
}

// Seal closes the registry. Later Define calls panic. Safe to call repeatedly.
func Seal() { defaultRegistry.seal() }

// Sealed reports whether Seal has been called.
func Sealed() bool {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	return defaultRegistry.sealed
}

// Lookup finds an identity by code.
func Lookup(code Code) (*Identity, bool) { return defaultRegistry.lookup(code) }

// LookupName finds an identity by its name, e.g. "LONG_REFERENCE".
func LookupName(name string) (*Identity, bool) { return defaultRegistry.lookupName(name) }

// All returns every registered identity ordered by code.
func All() []*Identity { return defaultRegistry.all() }
