package genetics

import "fmt"

// Chromosome pairs the active and inactive allele at one slot.
type Chromosome struct {
	Slot     *ChromosomeSlot
	Active   AlleleRef
	Inactive AlleleRef
}

// NewChromosome keeps the given order: active first.
func NewChromosome(slot *ChromosomeSlot, active, inactive AlleleRef) *Chromosome {
	return &Chromosome{Slot: slot, Active: active, Inactive: inactive}
}

// ActiveAllele returns the resolved active allele or nil.
func (c *Chromosome) ActiveAllele() *Allele {
	if c == nil {
		return nil
	}
	return c.Active.Allele()
}

// InactiveAllele returns the resolved inactive allele or nil.
func (c *Chromosome) InactiveAllele() *Allele {
	if c == nil {
		return nil
	}
	return c.Inactive.Allele()
}

// Side returns the active or inactive reference.
func (c *Chromosome) Side(active bool) AlleleRef {
	if active {
		return c.Active
	}
	return c.Inactive
}

// Equal reports whether both chromosomes carry the same names per side.
func (c *Chromosome) Equal(other *Chromosome) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Active.Name() == other.Active.Name() && c.Inactive.Name() == other.Inactive.Name()
}

func (c *Chromosome) String() string {
	if c == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(%s|%s)", c.Slot, c.Active.Name(), c.Inactive.Name())
}
