// Package chromosome builds chromosomes from stored identifiers. Identifiers
// that no longer resolve to an allele valid for their slot are replaced from
// the species template, using the species read from the same genome.
package chromosome

import "genecore/pkg/genetics"

// Context carries the species identifiers of the genome being decoded.
type Context struct {
	Active   genetics.QualifiedName
	Inactive genetics.QualifiedName
}

// ContextOf returns the context captured from a decoded species chromosome.
func ContextOf(species *genetics.Chromosome) Context {
	if species == nil {
		return Context{}
	}
	return Context{Active: species.Active.Name(), Inactive: species.Inactive.Name()}
}

// Pending holds the raw identifiers read for one slot before resolution.
type Pending struct {
	Slot     *genetics.ChromosomeSlot
	Active   genetics.QualifiedName
	Inactive genetics.QualifiedName
}

// Factory resolves identifiers against an allele table.
type Factory struct {
	table genetics.AlleleTable
}

// NewFactory returns a factory backed by table.
func NewFactory(table genetics.AlleleTable) *Factory {
	return &Factory{table: table}
}

// Table returns the backing allele table.
func (f *Factory) Table() genetics.AlleleTable { return f.table }

// Create resolves both identifiers positionally: the first is active.
func (f *Factory) Create(ctx Context, slot *genetics.ChromosomeSlot, active, inactive genetics.QualifiedName) *genetics.Chromosome {
	return genetics.NewChromosome(slot,
		f.resolve(slot, active, ctx.Active),
		f.resolve(slot, inactive, ctx.Inactive),
	)
}

// FromTemplate synthesizes a chromosome for slot from the species templates
// named by ctx.
func (f *Factory) FromTemplate(ctx Context, slot *genetics.ChromosomeSlot) *genetics.Chromosome {
	return genetics.NewChromosome(slot,
		genetics.RefAllele(templateAllele(slot, ctx.Active)),
		genetics.RefAllele(templateAllele(slot, ctx.Inactive)),
	)
}

// ResolveAll resolves one decode pass. The species entry is resolved first,
// whatever its position among pending, and its names become the context for
// every other slot. Entries for unknown slots are ignored; later entries for
// the same slot win.
func (f *Factory) ResolveAll(k *genetics.Karyotype, pending []Pending) []*genetics.Chromosome {
	out := make([]*genetics.Chromosome, k.Len())
	var ctx Context
	speciesIdx := -1
	for i := len(pending) - 1; i >= 0; i-- {
		if k.IsSpecies(pending[i].Slot) {
			speciesIdx = i
			break
		}
	}
	if speciesIdx >= 0 {
		p := pending[speciesIdx]
		species := f.Create(Context{}, p.Slot, p.Active, p.Inactive)
		ctx = ContextOf(species)
		out[p.Slot.Index()] = species
	}
	for i, p := range pending {
		if i == speciesIdx || p.Slot == nil || p.Slot.Karyotype() != k || k.IsSpecies(p.Slot) {
			continue
		}
		out[p.Slot.Index()] = f.Create(ctx, p.Slot, p.Active, p.Inactive)
	}
	return out
}

func (f *Factory) resolve(slot *genetics.ChromosomeSlot, name, species genetics.QualifiedName) genetics.AlleleRef {
	if !name.IsZero() {
		if a, ok := f.table.Resolve(name); ok && f.table.IsValidFor(a, slot) {
			return genetics.Resolved(name, a)
		}
	}
	if a := templateAllele(slot, species); a != nil {
		return genetics.Substitute(name, a)
	}
	return genetics.RefName(name)
}

// templateAllele looks up slot in the template of species, falling back to
// the karyotype default template.
func templateAllele(slot *genetics.ChromosomeSlot, species genetics.QualifiedName) *genetics.Allele {
	k := slot.Karyotype()
	if !species.IsZero() {
		if t, ok := k.Template(species); ok {
			return t[slot.Index()]
		}
	}
	if t := k.DefaultTemplate(); t != nil {
		return t[slot.Index()]
	}
	return nil
}
