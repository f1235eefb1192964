package genetics

import "fmt"

// Genome holds one chromosome per karyotype slot. Entries are nil where the
// source data was partial.
type Genome struct {
	karyotype   *Karyotype
	chromosomes []*Chromosome
}

// NewGenome validates that chromosomes has exactly one entry per slot and that
// every present chromosome sits at its own slot index.
func NewGenome(k *Karyotype, chromosomes []*Chromosome) (*Genome, error) {
	if k == nil {
		return nil, fmt.Errorf("genome requires a karyotype")
	}
	if len(chromosomes) != k.Len() {
		return nil, fmt.Errorf("karyotype %s: genome has %d chromosomes, want %d", k.uid, len(chromosomes), k.Len())
	}
	for i, c := range chromosomes {
		if c == nil {
			continue
		}
		if c.Slot == nil || c.Slot.karyotype != k || c.Slot.index != i {
			return nil, fmt.Errorf("karyotype %s: chromosome at %d belongs to slot %s", k.uid, i, c.Slot)
		}
	}
	return &Genome{karyotype: k, chromosomes: append([]*Chromosome(nil), chromosomes...)}, nil
}

func (g *Genome) Karyotype() *Karyotype { return g.karyotype }

// Chromosomes returns a copy of the chromosome array.
func (g *Genome) Chromosomes() []*Chromosome {
	return append([]*Chromosome(nil), g.chromosomes...)
}

// Chromosome returns the chromosome at slot, nil when absent.
func (g *Genome) Chromosome(slot *ChromosomeSlot) *Chromosome {
	if slot == nil || slot.karyotype != g.karyotype {
		return nil
	}
	return g.chromosomes[slot.index]
}

// Species returns the active species allele, nil when the slot is absent.
func (g *Genome) Species() *Allele {
	return g.chromosomes[g.karyotype.species.index].ActiveAllele()
}

// Equal compares genomes slot by slot.
func (g *Genome) Equal(other *Genome) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.karyotype != other.karyotype {
		return false
	}
	return ChromosomesEqual(g.chromosomes, other.chromosomes)
}

// ChromosomesEqual compares two chromosome arrays slot by slot.
func ChromosomesEqual(a, b []*Chromosome) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
