package saveformat_test

import (
	"bytes"
	"errors"
	"testing"

	"genecore/internal/binarycodec"
	"genecore/internal/genetest"
	"genecore/internal/metrics"
	"genecore/internal/saveformat"
	"genecore/pkg/genetics"
	"genecore/pkg/tagtree"
)

func newDispatcher(t *testing.T, f *genetest.Fixture, opts ...saveformat.Option) *saveformat.Dispatcher {
	t.Helper()
	d, err := saveformat.NewDispatcher(f.Registry, opts...)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	return d
}

func legacyTag(entries ...[3]string) *tagtree.Compound {
	list := tagtree.NewList(tagtree.KindCompound)
	for i, e := range entries {
		c := tagtree.NewCompound()
		c.PutByte(saveformat.KeySlot, int8(i))
		if e[0] != "" {
			c.PutByte(saveformat.KeySlot, int8(e[0][0]-'0'))
		}
		c.PutString(saveformat.KeyActive, e[1])
		c.PutString(saveformat.KeyInactive, e[2])
		list.Add(c)
	}
	tag := tagtree.NewCompound()
	tag.Put(saveformat.KeyChromosomes, list)
	return tag
}

func TestParseFormat(t *testing.T) {
	cases := map[string]saveformat.Format{
		"ordered": saveformat.Ordered,
		"UID":     saveformat.Ordered,
		" binary": saveformat.Binary,
		"legacy":  saveformat.Legacy,
	}
	for in, want := range cases {
		got, err := saveformat.ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
		if want.String() == "" {
			t.Fatalf("empty name for %d", want)
		}
	}
	if _, err := saveformat.ParseFormat("xml"); !errors.Is(err, saveformat.ErrUnknownFormat) {
		t.Fatalf("expected unknown format, got %v", err)
	}
}

func TestNewDispatcherRejectsLegacyWriteFormat(t *testing.T) {
	f := genetest.New(t)
	_, err := saveformat.NewDispatcher(f.Registry, saveformat.WithWriteFormat(saveformat.Legacy))
	if !errors.Is(err, saveformat.ErrReadOnlyFormat) {
		t.Fatalf("expected read-only error, got %v", err)
	}
	_, err = saveformat.NewDispatcher(f.Registry, saveformat.WithWriteFormat(saveformat.Format(9)))
	if !errors.Is(err, saveformat.ErrUnknownFormat) {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestRoundTripPerWriteFormat(t *testing.T) {
	f := genetest.New(t)
	for _, format := range []saveformat.Format{saveformat.Ordered, saveformat.Binary} {
		d := newDispatcher(t, f, saveformat.WithWriteFormat(format))
		if d.WriteFormat() != format {
			t.Fatalf("write format not applied")
		}
		for name, genome := range map[string][]*genetics.Chromosome{"full": f.Full(), "scenario": f.Scenario()} {
			tag := tagtree.NewCompound()
			if err := d.Write(genome, f.Karyotype, tag); err != nil {
				t.Fatalf("%s/%s: write: %v", format, name, err)
			}
			if got := d.DetectFormat(tag); got != format {
				t.Fatalf("%s/%s: detected %s", format, name, got)
			}
			if tag.GetInt(saveformat.KeyVersion) != saveformat.Version {
				t.Fatalf("%s/%s: version marker missing", format, name)
			}
			if got := d.Read(f.Karyotype, tag); !genetics.ChromosomesEqual(got, genome) {
				t.Fatalf("%s/%s: round trip mismatch %v", format, name, got)
			}
		}
	}
}

func TestWriteIntoNilTag(t *testing.T) {
	f := genetest.New(t)
	d := newDispatcher(t, f)
	if err := d.Write(f.Full(), f.Karyotype, nil); err == nil {
		t.Fatalf("expected error for nil tag")
	}
}

func TestDetectFormatPriority(t *testing.T) {
	f := genetest.New(t)
	d := newDispatcher(t, f)
	empty := tagtree.NewCompound()
	if d.DetectFormat(empty) != saveformat.Ordered {
		t.Fatalf("empty tag should default to ordered")
	}
	legacy := legacyTag([3]string{"", "genetest:fox_a", "genetest:fox_b"})
	if d.DetectFormat(legacy) != saveformat.Legacy {
		t.Fatalf("list without version should be legacy")
	}
	both := legacy.Clone()
	both.PutInt(saveformat.KeyVersion, 1)
	both.PutByteArray(saveformat.KeyData, []byte{0})
	if d.DetectFormat(both) != saveformat.Ordered {
		t.Fatalf("ordered markers take priority over binary")
	}
	blob := tagtree.NewCompound()
	blob.PutByteArray(saveformat.KeyData, nil)
	if d.DetectFormat(blob) != saveformat.Binary {
		t.Fatalf("data key should detect binary")
	}
}

func TestCrossFormatReads(t *testing.T) {
	f := genetest.New(t)
	d := newDispatcher(t, f)

	legacy := legacyTag(
		[3]string{"1", "genetest:small", "genetest:big"},
		[3]string{"0", "genetest:fox_b", "genetest:fox_a"},
	)
	got := d.Read(f.Karyotype, legacy)
	want := []*genetics.Chromosome{
		f.Chromosome(f.Species(), f.FoxB, f.FoxA),
		f.Chromosome(f.Size(), f.Small, f.Big),
		nil,
	}
	if !genetics.ChromosomesEqual(got, want) {
		t.Fatalf("legacy read mismatch: %v", got)
	}

	blob := tagtree.NewCompound()
	bc, _ := d.Codec(saveformat.Binary)
	if err := bc.Write(f.Full(), f.Karyotype, blob); err != nil {
		t.Fatalf("binary write: %v", err)
	}
	if got := d.Read(f.Karyotype, blob); !genetics.ChromosomesEqual(got, f.Full()) {
		t.Fatalf("binary read mismatch: %v", got)
	}
}

func TestWriteMigratesToCurrentLayout(t *testing.T) {
	f := genetest.New(t)
	d := newDispatcher(t, f)
	tags := map[string]*tagtree.Compound{
		"legacy": legacyTag([3]string{"", "genetest:fox_a", "genetest:fox_b"}),
		"binary": func() *tagtree.Compound {
			tag := tagtree.NewCompound()
			tag.PutByteArray(saveformat.KeyData, binarycodec.Encode(f.Full(), f.Karyotype))
			tag.PutInt(saveformat.KeyVersion, 1)
			return tag
		}(),
	}
	legacyOnly, _ := d.Codec(saveformat.Legacy)
	ordered, _ := d.Codec(saveformat.Ordered)
	for name, tag := range tags {
		genome := d.Read(f.Karyotype, tag)
		if err := d.Write(genome, f.Karyotype, tag); err != nil {
			t.Fatalf("%s: write: %v", name, err)
		}
		if !ordered.CanLoad(tag) {
			t.Fatalf("%s: output must satisfy the ordered predicate", name)
		}
		if d.DetectFormat(tag) != saveformat.Ordered || tag.Contains(saveformat.KeyData) {
			t.Fatalf("%s: stale layout markers remain: %v", name, tag.Keys())
		}
		if !legacyOnly.CanLoad(tag) || d.DetectFormat(tag) == saveformat.Legacy {
			t.Fatalf("%s: ordered output must not detect as legacy", name)
		}
		if !genetics.ChromosomesEqual(d.Read(f.Karyotype, tag), genome) {
			t.Fatalf("%s: genome changed during migration", name)
		}
	}
}

func TestLegacyWriteFails(t *testing.T) {
	f := genetest.New(t)
	d := newDispatcher(t, f)
	legacy, ok := d.Codec(saveformat.Legacy)
	if !ok {
		t.Fatalf("legacy codec missing")
	}
	tag := tagtree.NewCompound()
	if err := legacy.Write(f.Full(), f.Karyotype, tag); !errors.Is(err, saveformat.ErrReadOnlyFormat) {
		t.Fatalf("expected read-only error, got %v", err)
	}
	if !tag.IsEmpty() {
		t.Fatalf("failed write must not touch the tag")
	}
}

func TestReadAlleleScenario(t *testing.T) {
	f := genetest.New(t)
	for _, format := range []saveformat.Format{saveformat.Ordered, saveformat.Binary} {
		d := newDispatcher(t, f, saveformat.WithWriteFormat(format))
		tag := tagtree.NewCompound()
		if err := d.Write(f.Scenario(), f.Karyotype, tag); err != nil {
			t.Fatalf("write: %v", err)
		}
		ref, ok := d.ReadAllele(tag, f.Size(), true)
		if !ok || ref.Allele() != f.Big {
			t.Fatalf("%s: expected big, got %v %t", format, ref.Allele(), ok)
		}
		ref, ok = d.ReadAllele(tag, f.Size(), false)
		if !ok || ref.Allele() != f.Small {
			t.Fatalf("%s: expected small inactive, got %v", format, ref.Allele())
		}
		if _, ok := d.ReadAllele(tag, f.Color(), true); ok {
			t.Fatalf("%s: expected absent color slot", format)
		}
	}
}

func TestOrderedReadAlleleKeepsUnresolvedIDs(t *testing.T) {
	f := genetest.New(t)
	d := newDispatcher(t, f)
	tag := legacyTag([3]string{"2", "genetest:removed", "genetest:red"})
	tag.PutInt(saveformat.KeyVersion, 1)
	ref, ok := d.ReadAllele(tag, f.Color(), true)
	if !ok || ref.Resolved() || ref.Raw().Path != "removed" {
		t.Fatalf("expected unresolved ref, got %#v", ref)
	}
	ref, ok = d.ReadAllele(tag, f.Color(), false)
	if !ok || ref.Allele() != f.Red {
		t.Fatalf("expected red, got %#v", ref)
	}
}

func TestLegacyReadAlleleUsesDefaultTemplate(t *testing.T) {
	f := genetest.New(t)
	d := newDispatcher(t, f)
	tag := legacyTag([3]string{"2", "genetest:removed", "genetest:blue"})
	ref, ok := d.ReadAllele(tag, f.Color(), true)
	if !ok || ref.Allele() != f.Gray || !ref.Substituted() {
		t.Fatalf("expected substituted gray, got %#v", ref)
	}
}

func twoSlotBinary(t *testing.T, f *genetest.Fixture) *tagtree.Compound {
	t.Helper()
	data := binarycodec.Encode(f.Scenario(), f.Karyotype)
	tag := tagtree.NewCompound()
	tag.PutByteArray(saveformat.KeyData, data[:len(data)-1])
	tag.PutInt(saveformat.KeyVersion, 1)
	return tag
}

func TestBinaryRepairRestoresMissingSlot(t *testing.T) {
	f := genetest.New(t)
	rec := metrics.NewExpvarRecorder("")
	d := newDispatcher(t, f, saveformat.WithMetrics(rec))
	tag := twoSlotBinary(t, f)

	c, repaired := d.ReadSpecificChromosome(tag, f.Color())
	if !repaired || c == nil {
		t.Fatalf("expected repair, got %v %t", c, repaired)
	}
	if c.ActiveAllele() != f.Red || c.InactiveAllele() != f.Blue {
		t.Fatalf("stand-in should follow the species templates, got %v", c)
	}
	if d.DetectFormat(tag) != saveformat.Binary {
		t.Fatalf("repair must keep the binary layout")
	}
	genome := d.Read(f.Karyotype, tag)
	if genome[2] == nil || !genome[2].Equal(c) || !genome[1].Equal(f.Scenario()[1]) {
		t.Fatalf("repaired genome mismatch: %v", genome)
	}
	if rec.Count(metrics.EventRepaired, "binary") != 1 {
		t.Fatalf("repair not recorded")
	}

	once := bytes.Clone(tag.GetByteArray(saveformat.KeyData))
	c2, repaired := d.ReadSpecificChromosome(tag, f.Color())
	if repaired || !c2.Equal(c) {
		t.Fatalf("second read must not repair again")
	}
	if !bytes.Equal(once, tag.GetByteArray(saveformat.KeyData)) {
		t.Fatalf("repair is not idempotent")
	}
}

func TestBinaryRepairLandsInPlace(t *testing.T) {
	f := genetest.New(t)
	d := newDispatcher(t, f)
	tag := twoSlotBinary(t, f)
	tag.PutString("Note", "kept")
	holder := tagtree.NewCompound()
	holder.Put("Genome", tag)

	if _, repaired := d.ReadSpecificChromosome(tag, f.Color()); !repaired {
		t.Fatalf("expected repair")
	}
	seen := holder.GetCompound("Genome")
	if seen.GetString("Note") != "kept" {
		t.Fatalf("repair dropped unrelated keys: %v", seen.Keys())
	}
	if got := d.Read(f.Karyotype, seen); got[2] == nil {
		t.Fatalf("holder does not see the repaired blob")
	}
}

func TestBinaryRepairIdempotentAcrossCopies(t *testing.T) {
	f := genetest.New(t)
	d := newDispatcher(t, f)
	a, b := twoSlotBinary(t, f), twoSlotBinary(t, f)
	d.ReadSpecificChromosome(a, f.Color())
	d.ReadSpecificChromosome(b, f.Color())
	d.ReadSpecificChromosome(b, f.Color())
	if !tagtree.Equal(a, b) {
		t.Fatalf("repairing twice differs from repairing once")
	}
}

func TestBinaryRepairWithoutSpecies(t *testing.T) {
	f := genetest.New(t)
	d := newDispatcher(t, f)
	tag := tagtree.NewCompound()
	tag.PutByteArray(saveformat.KeyData, nil)
	c, repaired := d.ReadSpecificChromosome(tag, f.Size())
	if !repaired || c.ActiveAllele() != f.Small {
		t.Fatalf("expected default template stand-in, got %v", c)
	}
	if len(tag.GetByteArray(saveformat.KeyData)) == 0 {
		t.Fatalf("expected blob to be rewritten")
	}
}

func TestListReadChromosomeNeverRepairs(t *testing.T) {
	f := genetest.New(t)
	d := newDispatcher(t, f)
	tag := tagtree.NewCompound()
	if err := d.Write(f.Scenario(), f.Karyotype, tag); err != nil {
		t.Fatalf("write: %v", err)
	}
	before := tag.Clone()
	c, repaired := d.ReadSpecificChromosome(tag, f.Color())
	if c != nil || repaired {
		t.Fatalf("expected absent chromosome without repair")
	}
	if !tagtree.Equal(before, tag) {
		t.Fatalf("list layouts must not be rewritten on read")
	}
	c, _ = d.ReadSpecificChromosome(tag, f.Size())
	if c.ActiveAllele() != f.Big {
		t.Fatalf("unexpected size chromosome %v", c)
	}
}

func TestSlotOutOfRangeIgnored(t *testing.T) {
	f := genetest.New(t)
	d := newDispatcher(t, f)
	tag := legacyTag([3]string{"9", "genetest:big", "genetest:big"}, [3]string{"1", "genetest:big", "genetest:small"})
	got := d.Read(f.Karyotype, tag)
	if len(got) != 3 || got[1] == nil || got[0] != nil {
		t.Fatalf("unexpected genome %v", got)
	}
}

func TestEntryWithoutSlotIsSpecies(t *testing.T) {
	f := genetest.New(t)
	d := newDispatcher(t, f)
	bare := tagtree.NewCompound()
	bare.PutString(saveformat.KeyActive, "genetest:fox_b")
	bare.PutString(saveformat.KeyInactive, "genetest:fox_a")
	size := tagtree.NewCompound()
	size.PutByte(saveformat.KeySlot, 1)
	size.PutString(saveformat.KeyActive, "genetest:tiny")
	size.PutString(saveformat.KeyInactive, "genetest:big")
	list := tagtree.NewList(tagtree.KindCompound)
	list.Add(bare)
	list.Add(size)

	for _, versioned := range []bool{true, false} {
		tag := tagtree.NewCompound()
		tag.Put(saveformat.KeyChromosomes, list)
		if versioned {
			tag.PutInt(saveformat.KeyVersion, saveformat.Version)
		}
		got := d.Read(f.Karyotype, tag)
		if got[0] == nil || got[0].ActiveAllele() != f.FoxB {
			t.Fatalf("versioned=%t: expected fox_b species from read, got %v", versioned, got[0])
		}
		ref, ok := d.ReadAllele(tag, f.Species(), true)
		if !ok || ref.Allele() != got[0].ActiveAllele() {
			t.Fatalf("versioned=%t: fast path disagrees with read: %v", versioned, ref.Allele())
		}
		ref, ok = d.ReadAllele(tag, f.Species(), false)
		if !ok || ref.Allele() != f.FoxA {
			t.Fatalf("versioned=%t: expected fox_a inactive, got %v", versioned, ref.Allele())
		}
	}
}
