// Package alleles implements the allele table: a registry that is writable
// during startup and read-only once frozen.
package alleles

import (
	"errors"
	"fmt"
	"sync"

	"genecore/pkg/genetics"
)

var (
	// ErrFrozen is returned by any mutation after Freeze.
	ErrFrozen = errors.New("alleles: registry is frozen")
	// ErrDuplicate is returned when a name or alias is registered twice.
	ErrDuplicate = errors.New("alleles: duplicate registration")
	// ErrUnknown is returned when a mutation references an unregistered allele.
	ErrUnknown = errors.New("alleles: unknown allele")
)

// Compile-time contract assertion.
var _ genetics.AlleleTable = (*Registry)(nil)

type slotKey struct {
	karyotype string
	slot      string
}

// Registry is the in-process allele table.
type Registry struct {
	mu      sync.RWMutex
	frozen  bool
	alleles map[genetics.QualifiedName]*genetics.Allele
	aliases map[genetics.QualifiedName]genetics.QualifiedName
	tags    map[genetics.Category]map[genetics.QualifiedName]struct{}
	slots   map[slotKey]map[genetics.QualifiedName]struct{}
}

// NewRegistry returns an empty registry open for registration.
func NewRegistry() *Registry {
	return &Registry{
		alleles: make(map[genetics.QualifiedName]*genetics.Allele),
		aliases: make(map[genetics.QualifiedName]genetics.QualifiedName),
		tags:    make(map[genetics.Category]map[genetics.QualifiedName]struct{}),
		slots:   make(map[slotKey]map[genetics.QualifiedName]struct{}),
	}
}

// Register adds an allele. Names must be unique across alleles and aliases.
func (r *Registry) Register(a *genetics.Allele) error {
	if a == nil || a.Name.IsZero() {
		return errors.New("alleles: allele requires a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	if r.taken(a.Name) {
		return fmt.Errorf("%w: %s", ErrDuplicate, a.Name)
	}
	r.alleles[a.Name] = a
	return nil
}

// RegisterAlias makes alias resolve to canonical.
func (r *Registry) RegisterAlias(alias, canonical genetics.QualifiedName) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	if _, ok := r.alleles[canonical]; !ok {
		return fmt.Errorf("%w: alias target %s", ErrUnknown, canonical)
	}
	if r.taken(alias) {
		return fmt.Errorf("%w: alias %s", ErrDuplicate, alias)
	}
	r.aliases[alias] = canonical
	return nil
}

// Tag adds the named alleles to category.
func (r *Registry) Tag(category genetics.Category, names ...genetics.QualifiedName) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	members := r.tags[category]
	if members == nil {
		members = make(map[genetics.QualifiedName]struct{}, len(names))
		r.tags[category] = members
	}
	for _, name := range names {
		canonical, ok := r.canonical(name)
		if !ok {
			return fmt.Errorf("%w: tag %s member %s", ErrUnknown, category, name)
		}
		members[canonical] = struct{}{}
	}
	return nil
}

// AssignToSlot restricts a slot to an explicit allow-list. Slots without one
// accept any registered allele of the slot's value type.
func (r *Registry) AssignToSlot(karyotypeUID, slotName string, names ...genetics.QualifiedName) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	key := slotKey{karyotype: karyotypeUID, slot: slotName}
	allowed := r.slots[key]
	if allowed == nil {
		allowed = make(map[genetics.QualifiedName]struct{}, len(names))
		r.slots[key] = allowed
	}
	for _, name := range names {
		canonical, ok := r.canonical(name)
		if !ok {
			return fmt.Errorf("%w: slot %s/%s member %s", ErrUnknown, karyotypeUID, slotName, name)
		}
		allowed[canonical] = struct{}{}
	}
	return nil
}

// Freeze closes registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether registration is closed.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Len returns the number of registered alleles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.alleles)
}

// Resolve returns the allele registered under name or an alias of it.
func (r *Registry) Resolve(name genetics.QualifiedName) (*genetics.Allele, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	canonical, ok := r.canonical(name)
	if !ok {
		return nil, false
	}
	return r.alleles[canonical], true
}

// IsEquivalent reports whether candidate matches key. Exact keys compare by
// allele equality, names follow aliases, categories match explicit tag
// members and alleles whose type is the category.
func (r *Registry) IsEquivalent(candidate *genetics.Allele, key genetics.Key) bool {
	if candidate == nil || key == nil {
		return false
	}
	switch k := key.(type) {
	case *genetics.Allele:
		return candidate.Equal(k)
	case genetics.AlleleRef:
		if a := k.Allele(); a != nil {
			return candidate.Equal(a)
		}
		return r.IsEquivalent(candidate, k.Raw())
	case genetics.QualifiedName:
		if candidate.Name == k {
			return true
		}
		r.mu.RLock()
		defer r.mu.RUnlock()
		canonical, ok := r.canonical(k)
		return ok && canonical == candidate.Name
	case genetics.Category:
		if candidate.Type == k {
			return true
		}
		r.mu.RLock()
		defer r.mu.RUnlock()
		_, member := r.tags[k][candidate.Name]
		return member
	}
	return false
}

// IsValidFor reports whether a is registered, typed for slot, and allowed by
// the slot's allow-list when one exists.
func (r *Registry) IsValidFor(a *genetics.Allele, slot *genetics.ChromosomeSlot) bool {
	if a == nil || slot == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	registered, ok := r.alleles[a.Name]
	if !ok || registered != a && !registered.Equal(a) {
		return false
	}
	if vt := slot.ValueType(); vt != (genetics.Category{}) && registered.Type != vt {
		return false
	}
	uid := ""
	if k := slot.Karyotype(); k != nil {
		uid = k.UID()
	}
	allowed, restricted := r.slots[slotKey{karyotype: uid, slot: slot.Name()}]
	if !restricted {
		return true
	}
	_, ok = allowed[a.Name]
	return ok
}

func (r *Registry) taken(name genetics.QualifiedName) bool {
	if _, ok := r.alleles[name]; ok {
		return true
	}
	_, ok := r.aliases[name]
	return ok
}

func (r *Registry) canonical(name genetics.QualifiedName) (genetics.QualifiedName, bool) {
	if _, ok := r.alleles[name]; ok {
		return name, true
	}
	target, ok := r.aliases[name]
	return target, ok
}
