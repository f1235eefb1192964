// Package genetest provides a small, fully registered organism family for
// tests across the repository: a fox karyotype with species, size and color
// slots.
package genetest

import (
	"testing"

	"genecore/internal/alleles"
	"genecore/pkg/genetics"
)

var (
	SpeciesType = genetics.MustCategory("genetest:species")
	SizeType    = genetics.MustCategory("genetest:size")
	ColorType   = genetics.MustCategory("genetest:color")
)

// Fixture bundles the registry, karyotype and alleles of the fox family.
type Fixture struct {
	Registry  *alleles.Registry
	Karyotype *genetics.Karyotype
	Root      genetics.Root

	FoxA, FoxB       *genetics.Allele
	Big, Small, Tiny *genetics.Allele
	Red, Blue, Gray  *genetics.Allele
}

// Species returns the species slot.
func (f *Fixture) Species() *genetics.ChromosomeSlot { return f.Karyotype.Slot(0) }

// Size returns the size slot.
func (f *Fixture) Size() *genetics.ChromosomeSlot { return f.Karyotype.Slot(1) }

// Color returns the color slot.
func (f *Fixture) Color() *genetics.ChromosomeSlot { return f.Karyotype.Slot(2) }

// Chromosome pairs two alleles at slot in the given order.
func (f *Fixture) Chromosome(slot *genetics.ChromosomeSlot, active, inactive *genetics.Allele) *genetics.Chromosome {
	return genetics.NewChromosome(slot, genetics.RefAllele(active), genetics.RefAllele(inactive))
}

// Scenario returns [(FoxA,FoxB), (Big,Small), nil].
func (f *Fixture) Scenario() []*genetics.Chromosome {
	return []*genetics.Chromosome{
		f.Chromosome(f.Species(), f.FoxA, f.FoxB),
		f.Chromosome(f.Size(), f.Big, f.Small),
		nil,
	}
}

// Full returns a genome with every slot populated.
func (f *Fixture) Full() []*genetics.Chromosome {
	return []*genetics.Chromosome{
		f.Chromosome(f.Species(), f.FoxA, f.FoxB),
		f.Chromosome(f.Size(), f.Small, f.Big),
		f.Chromosome(f.Color(), f.Red, f.Blue),
	}
}

// New builds the fixture. FoxA's template is (FoxA, Big, Red), FoxB's is
// (FoxB, Tiny, Blue), the default template is (FoxA, Small, Gray). The
// registry is frozen.
func New(t testing.TB) *Fixture {
	t.Helper()
	f := &Fixture{Registry: alleles.NewRegistry()}
	mk := func(name string, dominant bool, typ genetics.Category) *genetics.Allele {
		a := &genetics.Allele{Name: genetics.MustQualifiedName(name), Dominant: dominant, LocalisationKey: "allele." + name, Type: typ}
		if err := f.Registry.Register(a); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
		return a
	}
	f.FoxA = mk("genetest:fox_a", true, SpeciesType)
	f.FoxB = mk("genetest:fox_b", false, SpeciesType)
	f.Big = mk("genetest:big", true, SizeType)
	f.Small = mk("genetest:small", false, SizeType)
	f.Tiny = mk("genetest:tiny", false, SizeType)
	f.Red = mk("genetest:red", true, ColorType)
	f.Blue = mk("genetest:blue", false, ColorType)
	f.Gray = mk("genetest:gray", false, ColorType)

	k, err := genetics.NewKaryotype("genetest:fox", "species",
		genetics.SlotDef{Name: "species", ValueType: SpeciesType},
		genetics.SlotDef{Name: "size", ValueType: SizeType},
		genetics.SlotDef{Name: "color", ValueType: ColorType},
	)
	if err != nil {
		t.Fatalf("karyotype: %v", err)
	}
	if err := k.SetDefaultTemplate(genetics.Template{f.FoxA, f.Small, f.Gray}); err != nil {
		t.Fatalf("default template: %v", err)
	}
	if err := k.AddTemplate(genetics.Template{f.FoxA, f.Big, f.Red}); err != nil {
		t.Fatalf("template fox_a: %v", err)
	}
	if err := k.AddTemplate(genetics.Template{f.FoxB, f.Tiny, f.Blue}); err != nil {
		t.Fatalf("template fox_b: %v", err)
	}
	f.Registry.Freeze()
	f.Karyotype = k
	f.Root = genetics.Root{UID: k.UID(), Karyotype: k}
	return f
}
