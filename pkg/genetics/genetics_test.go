package genetics

import (
	"strings"
	"testing"
)

func testKaryotype(t *testing.T) *Karyotype {
	t.Helper()
	k, err := NewKaryotype("fox", "species",
		SlotDef{Name: "species", ValueType: MustCategory("genetics:species")},
		SlotDef{Name: "size", ValueType: MustCategory("genetics:size")},
		SlotDef{Name: "color", ValueType: MustCategory("genetics:color")},
	)
	if err != nil {
		t.Fatalf("new karyotype: %v", err)
	}
	return k
}

func TestParseQualifiedName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "forestry:speciesFoo", wantErr: true},
		{in: "forestry:species/foo", want: "forestry:species/foo"},
		{in: "big", want: "genetics:big"},
		{in: "", wantErr: true},
		{in: "ns/x:path", wantErr: true},
		{in: ":path", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseQualifiedName(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("%q: got %s want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("#genetics:size")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c, ok := k.(Category); !ok || c.String() != "#genetics:size" {
		t.Fatalf("expected category, got %#v", k)
	}
	k, err = ParseKey("genetics:big")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := k.(QualifiedName); !ok {
		t.Fatalf("expected qualified name, got %#v", k)
	}
}

func TestAlleleEqual(t *testing.T) {
	a := &Allele{Name: MustQualifiedName("big"), Dominant: true}
	b := &Allele{Name: MustQualifiedName("big"), Dominant: false}
	if !a.Equal(b) {
		t.Fatalf("named alleles compare by name")
	}
	if !(&Allele{Dominant: true}).Equal(&Allele{Dominant: true}) {
		t.Fatalf("unnamed alleles compare by dominance")
	}
	if (&Allele{Dominant: true}).Equal(&Allele{}) {
		t.Fatalf("different dominance must differ")
	}
}

func TestAlleleRef(t *testing.T) {
	big := &Allele{Name: MustQualifiedName("big")}
	lazy := RefName(MustQualifiedName("gone"))
	if lazy.Resolved() || lazy.Name().String() != "genetics:gone" {
		t.Fatalf("unexpected lazy ref %#v", lazy)
	}
	sub := Substitute(MustQualifiedName("gone"), big)
	if !sub.Substituted() || sub.Name() != big.Name || sub.Raw().Path != "gone" {
		t.Fatalf("expected substituted ref, got %#v", sub)
	}
	alias := Resolved(MustQualifiedName("large"), big)
	if alias.Substituted() || alias.Name() != big.Name {
		t.Fatalf("alias resolution must not be substituted, got %#v", alias)
	}
	if !(AlleleRef{}).IsZero() {
		t.Fatalf("expected zero ref")
	}
}

func TestKaryotypeValidation(t *testing.T) {
	if _, err := NewKaryotype("x", "nope", SlotDef{Name: "a"}); err == nil {
		t.Fatalf("expected unknown species slot error")
	}
	if _, err := NewKaryotype("x", "a", SlotDef{Name: "a"}, SlotDef{Name: "a"}); err == nil {
		t.Fatalf("expected duplicate slot error")
	}
	if _, err := NewKaryotype("", "a", SlotDef{Name: "a"}); err == nil {
		t.Fatalf("expected uid error")
	}
	k := testKaryotype(t)
	if k.SpeciesSlot().Index() != 0 || k.Len() != 3 || k.Slot(3) != nil {
		t.Fatalf("unexpected karyotype shape")
	}
	if s, ok := k.SlotByName("color"); !ok || s.Index() != 2 || s.Karyotype() != k {
		t.Fatalf("slot lookup failed")
	}
	if err := k.SetDefaultTemplate(Template{nil, nil, nil}); err == nil {
		t.Fatalf("expected incomplete template error")
	}
	if _, err := k.DefaultGenome(); err == nil {
		t.Fatalf("expected missing default template error")
	}
}

func TestTemplatesAndDefaultGenome(t *testing.T) {
	k := testKaryotype(t)
	fox := &Allele{Name: MustQualifiedName("fox")}
	big := &Allele{Name: MustQualifiedName("big")}
	red := &Allele{Name: MustQualifiedName("red")}
	tmpl := Template{fox, big, red}
	if err := k.SetDefaultTemplate(tmpl); err != nil {
		t.Fatalf("set default: %v", err)
	}
	if err := k.AddTemplate(tmpl); err != nil {
		t.Fatalf("add template: %v", err)
	}
	if err := k.AddTemplate(tmpl); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate template error, got %v", err)
	}
	if got, ok := k.Template(fox.Name); !ok || got[1] != big {
		t.Fatalf("template lookup failed")
	}
	g, err := k.DefaultGenome()
	if err != nil {
		t.Fatalf("default genome: %v", err)
	}
	if g.Species() != fox {
		t.Fatalf("expected fox species, got %v", g.Species())
	}
	for i, c := range g.Chromosomes() {
		if c.Slot.Index() != i || c.ActiveAllele() != tmpl[i] || c.InactiveAllele() != tmpl[i] {
			t.Fatalf("slot %d not homozygous template: %v", i, c)
		}
	}
}

func TestNewGenomeInvariants(t *testing.T) {
	k := testKaryotype(t)
	if _, err := NewGenome(k, make([]*Chromosome, 2)); err == nil {
		t.Fatalf("expected length error")
	}
	misplaced := []*Chromosome{NewChromosome(k.Slot(1), AlleleRef{}, AlleleRef{}), nil, nil}
	if _, err := NewGenome(k, misplaced); err == nil {
		t.Fatalf("expected slot/index mismatch error")
	}
	g, err := NewGenome(k, make([]*Chromosome, 3))
	if err != nil {
		t.Fatalf("partial genome: %v", err)
	}
	if g.Chromosome(k.Slot(2)) != nil || g.Species() != nil {
		t.Fatalf("expected absent chromosomes")
	}
}
