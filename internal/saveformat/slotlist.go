package saveformat

import (
	"genecore/internal/chromosome"
	"genecore/pkg/genetics"
	"genecore/pkg/tagtree"
)

// slotList holds the decode path shared by the ordered and legacy layouts:
// a list of compounds, each carrying its slot index and both allele ids.
type slotList struct {
	factory *chromosome.Factory
}

func (l slotList) read(k *genetics.Karyotype, tag *tagtree.Compound) []*genetics.Chromosome {
	list := tag.GetList(KeyChromosomes, tagtree.KindCompound)
	pending := make([]chromosome.Pending, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		entry := list.GetCompound(i)
		idx := int(entry.GetByte(KeySlot))
		if idx < 0 || idx >= k.Len() {
			continue
		}
		pending = append(pending, chromosome.Pending{
			Slot:     k.Slot(idx),
			Active:   storedName(entry, KeyActive),
			Inactive: storedName(entry, KeyInactive),
		})
	}
	return l.factory.ResolveAll(k, pending)
}

// entry returns the last list element stored for slot. Like read, an entry
// without a slot index counts as slot 0.
func (l slotList) entry(tag *tagtree.Compound, slot *genetics.ChromosomeSlot) (*tagtree.Compound, bool) {
	list := tag.GetList(KeyChromosomes, tagtree.KindCompound)
	for i := list.Len() - 1; i >= 0; i-- {
		e := list.GetCompound(i)
		if int(e.GetByte(KeySlot)) == slot.Index() {
			return e, true
		}
	}
	return nil, false
}

func (l slotList) readChromosome(tag *tagtree.Compound, slot *genetics.ChromosomeSlot) *genetics.Chromosome {
	return l.read(slot.Karyotype(), tag)[slot.Index()]
}

func writeSlotList(chromosomes []*genetics.Chromosome, k *genetics.Karyotype, tag *tagtree.Compound) {
	list := tagtree.NewList(tagtree.KindCompound)
	for i, c := range chromosomes {
		if c == nil || i >= k.Len() {
			continue
		}
		entry := tagtree.NewCompound()
		entry.PutByte(KeySlot, int8(i))
		entry.PutString(KeyActive, c.Active.Name().String())
		entry.PutString(KeyInactive, c.Inactive.Name().String())
		list.Add(entry)
	}
	tag.Put(KeyChromosomes, list)
}

// storedName parses the id at key. Missing or unparsable ids yield the zero
// name, which resolution treats as unusable.
func storedName(entry *tagtree.Compound, key string) genetics.QualifiedName {
	raw := entry.GetString(key)
	if raw == "" {
		return genetics.QualifiedName{}
	}
	name, err := genetics.ParseQualifiedName(raw)
	if err != nil {
		return genetics.QualifiedName{}
	}
	return name
}

func sideKey(active bool) string {
	if active {
		return KeyActive
	}
	return KeyInactive
}

// OrderedCodec is the current list layout: every entry is active-first and
// the genome carries a version marker.
type OrderedCodec struct {
	slotList
}

// NewOrderedCodec returns the ordered codec.
func NewOrderedCodec(f *chromosome.Factory) *OrderedCodec {
	return &OrderedCodec{slotList{factory: f}}
}

func (*OrderedCodec) Format() Format { return Ordered }

func (*OrderedCodec) CanLoad(tag *tagtree.Compound) bool {
	return tag.Contains(KeyChromosomes) && tag.Contains(KeyVersion)
}

func (*OrderedCodec) Write(chromosomes []*genetics.Chromosome, k *genetics.Karyotype, tag *tagtree.Compound) error {
	writeSlotList(chromosomes, k, tag)
	tag.PutInt(KeyVersion, Version)
	tag.Remove(KeyData)
	return nil
}

func (c *OrderedCodec) Read(k *genetics.Karyotype, tag *tagtree.Compound) []*genetics.Chromosome {
	return c.read(k, tag)
}

// ReadAllele looks the stored id up in the allele table directly. Ids that
// do not resolve come back as unresolved references.
func (c *OrderedCodec) ReadAllele(tag *tagtree.Compound, slot *genetics.ChromosomeSlot, active bool) (genetics.AlleleRef, bool) {
	entry, ok := c.entry(tag, slot)
	if !ok {
		return genetics.AlleleRef{}, false
	}
	name := storedName(entry, sideKey(active))
	if name.IsZero() {
		return genetics.AlleleRef{}, false
	}
	if a, ok := c.factory.Table().Resolve(name); ok {
		return genetics.Resolved(name, a), true
	}
	return genetics.RefName(name), true
}

func (c *OrderedCodec) ReadChromosome(tag *tagtree.Compound, slot *genetics.ChromosomeSlot) (*genetics.Chromosome, bool) {
	return c.readChromosome(tag, slot), false
}

// LegacyCodec reads lists written before the version marker existed. Entries
// are decoded positionally like the ordered layout. It is never written.
type LegacyCodec struct {
	slotList
}

// NewLegacyCodec returns the legacy codec.
func NewLegacyCodec(f *chromosome.Factory) *LegacyCodec {
	return &LegacyCodec{slotList{factory: f}}
}

func (*LegacyCodec) Format() Format { return Legacy }

func (*LegacyCodec) CanLoad(tag *tagtree.Compound) bool {
	return tag.Contains(KeyChromosomes)
}

func (*LegacyCodec) Write([]*genetics.Chromosome, *genetics.Karyotype, *tagtree.Compound) error {
	return ErrReadOnlyFormat
}

func (c *LegacyCodec) Read(k *genetics.Karyotype, tag *tagtree.Compound) []*genetics.Chromosome {
	return c.read(k, tag)
}

// ReadAllele builds the single chromosome without species context, so
// unusable ids fall back to the default template.
func (c *LegacyCodec) ReadAllele(tag *tagtree.Compound, slot *genetics.ChromosomeSlot, active bool) (genetics.AlleleRef, bool) {
	entry, ok := c.entry(tag, slot)
	if !ok {
		return genetics.AlleleRef{}, false
	}
	chr := c.factory.Create(chromosome.Context{}, slot, storedName(entry, KeyActive), storedName(entry, KeyInactive))
	ref := chr.Side(active)
	return ref, !ref.IsZero()
}

func (c *LegacyCodec) ReadChromosome(tag *tagtree.Compound, slot *genetics.ChromosomeSlot) (*genetics.Chromosome, bool) {
	return c.readChromosome(tag, slot), false
}
