// Package organism attaches individual data to host items. Handlers are
// looked up per organism family and organism type.
package organism

import (
	"sync"

	"genecore/pkg/genetics"
	"genecore/pkg/tagtree"
)

// DefaultKey is the item tag key that holds individual data.
const DefaultKey = "IndividualData"

// Compile-time contract assertion.
var _ genetics.OrganismHandler = TagHandler{}

// TagHandler keeps individual data in a compound under Key on the item's
// root tag.
type TagHandler struct {
	Key string
}

// NewTagHandler returns a handler for DefaultKey.
func NewTagHandler() TagHandler { return TagHandler{Key: DefaultKey} }

func (h TagHandler) key() string {
	if h.Key == "" {
		return DefaultKey
	}
	return h.Key
}

// IndividualData returns the compound stored on the item. The compound is
// shared with the item, not copied.
func (h TagHandler) IndividualData(item *genetics.Item) (*tagtree.Compound, bool) {
	if item == nil || !item.Tag().ContainsKind(h.key(), tagtree.KindCompound) {
		return nil, false
	}
	return item.Tag().GetCompound(h.key()), true
}

// SetIndividualData stores data on the item, creating the root tag when the
// item has none. A nil data removes the entry.
func (h TagHandler) SetIndividualData(item *genetics.Item, data *tagtree.Compound) {
	if item == nil {
		return
	}
	tag := item.Tag()
	if tag == nil {
		if data == nil {
			return
		}
		tag = tagtree.NewCompound()
		item.SetTag(tag)
	}
	if data == nil {
		tag.Remove(h.key())
		return
	}
	tag.Put(h.key(), data)
}

type handlerKey struct {
	root string
	typ  genetics.OrganismType
}

// Registry maps (root UID, organism type) to a handler. Lookups without a
// specific registration return the fallback handler.
type Registry struct {
	mu       sync.RWMutex
	handlers map[handlerKey]genetics.OrganismHandler
	fallback genetics.OrganismHandler
}

// NewRegistry returns a registry whose fallback is a TagHandler on DefaultKey.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[handlerKey]genetics.OrganismHandler),
		fallback: NewTagHandler(),
	}
}

// Register binds h to the root and organism type.
func (r *Registry) Register(root string, typ genetics.OrganismType, h genetics.OrganismHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[handlerKey{root: root, typ: typ}] = h
}

// SetFallback replaces the handler used for unregistered pairs.
func (r *Registry) SetFallback(h genetics.OrganismHandler) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.fallback = h
	r.mu.Unlock()
}

// Lookup returns the handler for the root and organism type.
func (r *Registry) Lookup(root string, typ genetics.OrganismType) genetics.OrganismHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.handlers[handlerKey{root: root, typ: typ}]; ok {
		return h
	}
	return r.fallback
}
