package saveformat

import (
	"genecore/internal/binarycodec"
	"genecore/internal/chromosome"
	"genecore/pkg/genetics"
	"genecore/pkg/tagtree"
)

// BinaryCodec stores the genome as a binarycodec blob.
type BinaryCodec struct {
	factory *chromosome.Factory
}

// NewBinaryCodec returns the binary codec.
func NewBinaryCodec(f *chromosome.Factory) *BinaryCodec {
	return &BinaryCodec{factory: f}
}

func (*BinaryCodec) Format() Format { return Binary }

func (*BinaryCodec) CanLoad(tag *tagtree.Compound) bool {
	return tag.Contains(KeyData)
}

func (*BinaryCodec) Write(chromosomes []*genetics.Chromosome, k *genetics.Karyotype, tag *tagtree.Compound) error {
	writeBlob(binarycodec.Encode(chromosomes, k), tag)
	return nil
}

func writeBlob(data []byte, tag *tagtree.Compound) {
	tag.PutByteArray(KeyData, data)
	tag.PutInt(KeyVersion, Version)
	tag.Remove(KeyChromosomes)
}

func (c *BinaryCodec) Read(k *genetics.Karyotype, tag *tagtree.Compound) []*genetics.Chromosome {
	return binarycodec.Decode(tag.GetByteArray(KeyData), k, c.factory)
}

func (c *BinaryCodec) ReadAllele(tag *tagtree.Compound, slot *genetics.ChromosomeSlot, active bool) (genetics.AlleleRef, bool) {
	info := binarycodec.DecodeSlot(tag.GetByteArray(KeyData), slot, c.factory)
	if info.Missing() {
		return genetics.AlleleRef{}, false
	}
	ref := info.Chromosome.Side(active)
	return ref, !ref.IsZero()
}

// ReadChromosome restores a slot missing from the blob: a stand-in is built
// from whatever ids were read and the species templates, and the whole blob
// is rewritten on a copy that replaces the tag contents in one step.
func (c *BinaryCodec) ReadChromosome(tag *tagtree.Compound, slot *genetics.ChromosomeSlot) (*genetics.Chromosome, bool) {
	data := tag.GetByteArray(KeyData)
	info := binarycodec.DecodeSlot(data, slot, c.factory)
	if !info.Missing() {
		return info.Chromosome, false
	}
	return c.repair(data, info, tag), true
}

func (c *BinaryCodec) repair(data []byte, info binarycodec.SlotInfo, tag *tagtree.Compound) *genetics.Chromosome {
	k := info.Slot.Karyotype()
	chromosomes := binarycodec.Decode(data, k, c.factory)
	var stand *genetics.Chromosome
	if info.RawActive.IsZero() && info.RawInactive.IsZero() {
		stand = c.factory.FromTemplate(info.Species, info.Slot)
	} else {
		stand = c.factory.Create(info.Species, info.Slot, info.RawActive, info.RawInactive)
	}
	chromosomes[info.Slot.Index()] = stand
	next := tag.Clone()
	writeBlob(binarycodec.Encode(chromosomes, k), next)
	tag.ReplaceWith(next)
	return stand
}
