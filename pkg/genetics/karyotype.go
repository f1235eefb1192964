package genetics

import (
	"errors"
	"fmt"
)

// SlotDef declares a chromosome slot when building a karyotype.
type SlotDef struct {
	Name      string
	ValueType Category
}

// ChromosomeSlot is one fixed position of a karyotype.
type ChromosomeSlot struct {
	index     int
	name      string
	valueType Category
	karyotype *Karyotype
}

// Index is the stable 0-based position used as array and byte offset.
func (s *ChromosomeSlot) Index() int { return s.index }

func (s *ChromosomeSlot) Name() string { return s.name }

// ValueType is the category every allele stored in the slot must have.
func (s *ChromosomeSlot) ValueType() Category { return s.valueType }

// Karyotype returns the owning karyotype.
func (s *ChromosomeSlot) Karyotype() *Karyotype { return s.karyotype }

func (s *ChromosomeSlot) String() string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s[%d:%s]", s.karyotype.uid, s.index, s.name)
}

// Template is one allele per slot, indexed by slot index.
type Template []*Allele

// Karyotype is the ordered slot schema of one organism family.
type Karyotype struct {
	uid      string
	slots    []*ChromosomeSlot
	byName   map[string]*ChromosomeSlot
	species  *ChromosomeSlot
	fallback Template
	bySpecie map[QualifiedName]Template
}

// NewKaryotype builds a karyotype. speciesSlot must name one of slots.
func NewKaryotype(uid, speciesSlot string, slots ...SlotDef) (*Karyotype, error) {
	if uid == "" {
		return nil, errors.New("karyotype uid required")
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("karyotype %s: at least one slot required", uid)
	}
	if len(slots) > 127 {
		return nil, fmt.Errorf("karyotype %s: %d slots exceed byte index range", uid, len(slots))
	}
	k := &Karyotype{
		uid:      uid,
		byName:   make(map[string]*ChromosomeSlot, len(slots)),
		bySpecie: make(map[QualifiedName]Template),
	}
	for i, def := range slots {
		if def.Name == "" {
			return nil, fmt.Errorf("karyotype %s: slot %d has no name", uid, i)
		}
		if _, dup := k.byName[def.Name]; dup {
			return nil, fmt.Errorf("karyotype %s: duplicate slot %s", uid, def.Name)
		}
		slot := &ChromosomeSlot{index: i, name: def.Name, valueType: def.ValueType, karyotype: k}
		k.slots = append(k.slots, slot)
		k.byName[def.Name] = slot
	}
	species, ok := k.byName[speciesSlot]
	if !ok {
		return nil, fmt.Errorf("karyotype %s: unknown species slot %q", uid, speciesSlot)
	}
	k.species = species
	return k, nil
}

func (k *Karyotype) UID() string { return k.uid }

// Slots returns the slots in index order. The slice must not be modified.
func (k *Karyotype) Slots() []*ChromosomeSlot { return k.slots }

// Len returns the slot count.
func (k *Karyotype) Len() int { return len(k.slots) }

// Slot returns the slot at index i or nil.
func (k *Karyotype) Slot(i int) *ChromosomeSlot {
	if i < 0 || i >= len(k.slots) {
		return nil
	}
	return k.slots[i]
}

// SlotByName looks up a slot by name.
func (k *Karyotype) SlotByName(name string) (*ChromosomeSlot, bool) {
	s, ok := k.byName[name]
	return s, ok
}

// SpeciesSlot returns the slot whose active allele identifies the species.
func (k *Karyotype) SpeciesSlot() *ChromosomeSlot { return k.species }

// IsSpecies reports whether slot is this karyotype's species slot.
func (k *Karyotype) IsSpecies(slot *ChromosomeSlot) bool {
	return slot != nil && k.species != nil && slot.index == k.species.index && slot.karyotype == k
}

// SetDefaultTemplate installs the fallback genome template. Every slot must
// be populated.
func (k *Karyotype) SetDefaultTemplate(t Template) error {
	if err := k.checkTemplate(t); err != nil {
		return fmt.Errorf("default template: %w", err)
	}
	k.fallback = append(Template(nil), t...)
	return nil
}

// AddTemplate registers the template of one species, keyed by the species
// allele stored in the species slot.
func (k *Karyotype) AddTemplate(t Template) error {
	if err := k.checkTemplate(t); err != nil {
		return fmt.Errorf("species template: %w", err)
	}
	name := t[k.species.index].Name
	if _, dup := k.bySpecie[name]; dup {
		return fmt.Errorf("duplicate template for species %s", name)
	}
	k.bySpecie[name] = append(Template(nil), t...)
	return nil
}

func (k *Karyotype) checkTemplate(t Template) error {
	if len(t) != len(k.slots) {
		return fmt.Errorf("karyotype %s: template has %d alleles, want %d", k.uid, len(t), len(k.slots))
	}
	for i, a := range t {
		if a == nil {
			return fmt.Errorf("karyotype %s: template slot %s is empty", k.uid, k.slots[i].name)
		}
	}
	return nil
}

// DefaultTemplate returns the fallback template, nil before one is set.
func (k *Karyotype) DefaultTemplate() Template { return k.fallback }

// Template returns the template registered for species.
func (k *Karyotype) Template(species QualifiedName) (Template, bool) {
	t, ok := k.bySpecie[species]
	return t, ok
}

// Species lists the species names that have templates.
func (k *Karyotype) Species() []QualifiedName {
	out := make([]QualifiedName, 0, len(k.bySpecie))
	for name := range k.bySpecie {
		out = append(out, name)
	}
	return out
}

// DefaultGenome returns a genome with both sides of every slot set from the
// default template.
func (k *Karyotype) DefaultGenome() (*Genome, error) {
	if k.fallback == nil {
		return nil, fmt.Errorf("karyotype %s has no default template", k.uid)
	}
	return k.fallback.Genome(k)
}

// Genome expands the template into a homozygous genome for k.
func (t Template) Genome(k *Karyotype) (*Genome, error) {
	if err := k.checkTemplate(t); err != nil {
		return nil, err
	}
	chromosomes := make([]*Chromosome, len(t))
	for i, a := range t {
		chromosomes[i] = NewChromosome(k.slots[i], RefAllele(a), RefAllele(a))
	}
	return NewGenome(k, chromosomes)
}
