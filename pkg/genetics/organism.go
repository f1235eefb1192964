package genetics

import "genecore/pkg/tagtree"

// AlleleTable resolves identifiers to registered alleles. Implementations are
// read-only once registration closes.
type AlleleTable interface {
	// Resolve returns the allele registered under name or one of its aliases.
	Resolve(name QualifiedName) (*Allele, bool)
	// IsEquivalent reports whether candidate matches key.
	IsEquivalent(candidate *Allele, key Key) bool
	// IsValidFor reports whether a is an allowed value for slot.
	IsValidFor(a *Allele, slot *ChromosomeSlot) bool
}

// OrganismType distinguishes the forms an organism of one family can take
// (for example adult, larva, spawn).
type OrganismType string

// Root is an organism family: a UID plus its karyotype.
type Root struct {
	UID       string
	Karyotype *Karyotype
}

// Item is a host object that may carry genetic data in its tag tree.
type Item struct {
	ID   string
	Root string
	Type OrganismType
	tag  *tagtree.Compound
}

// NewItem returns an item without a tag.
func NewItem(id, root string, typ OrganismType) *Item {
	return &Item{ID: id, Root: root, Type: typ}
}

// Tag returns the item's root tag, nil when it has none.
func (i *Item) Tag() *tagtree.Compound { return i.tag }

// SetTag replaces the item's root tag.
func (i *Item) SetTag(t *tagtree.Compound) { i.tag = t }

// OrganismHandler attaches individual data to a host item.
type OrganismHandler interface {
	// IndividualData returns the item's individual data, false when it has none.
	IndividualData(item *Item) (*tagtree.Compound, bool)
	// SetIndividualData stores data on the item.
	SetIndividualData(item *Item, data *tagtree.Compound)
}
