// Package binarycodec implements the compact genome encoding stored by the
// binary save format.
//
// Slots are written in karyotype order. Each slot starts with a presence
// byte; a present slot is followed by its active and inactive allele
// references. A reference is a uvarint: zero introduces a new name (uvarint
// length and UTF-8 bytes) that takes the next index in the name table, any
// other value n refers to table entry n-1. Slot boundaries are not indexed,
// so reading one slot walks the stream from the start.
package binarycodec

import (
	"encoding/binary"

	"genecore/internal/chromosome"
	"genecore/pkg/genetics"
)

const (
	absent  byte = 0
	present byte = 1

	// maxNameLen bounds a single table entry; longer lengths mark the stream corrupt.
	maxNameLen = 1 << 10
)

// SlotInfo is the result of decoding one targeted slot.
type SlotInfo struct {
	Slot *genetics.ChromosomeSlot
	// Chromosome is nil when the slot was absent or the stream ended first.
	Chromosome *genetics.Chromosome
	// Species holds the resolved species names of the genome, when the
	// species slot could be read.
	Species chromosome.Context
	// RawActive and RawInactive are the identifiers read for the slot, possibly
	// only the first of them when the stream was cut between the two.
	RawActive   genetics.QualifiedName
	RawInactive genetics.QualifiedName
}

// Missing reports whether the slot has no chromosome.
func (s SlotInfo) Missing() bool { return s.Chromosome == nil }

// Encode writes chromosomes in slot order. Entries beyond the karyotype and
// nil entries are encoded as absent slots.
func Encode(chromosomes []*genetics.Chromosome, k *genetics.Karyotype) []byte {
	w := writer{index: make(map[string]uint64)}
	for i := 0; i < k.Len(); i++ {
		var c *genetics.Chromosome
		if i < len(chromosomes) {
			c = chromosomes[i]
		}
		if c == nil {
			w.buf = append(w.buf, absent)
			continue
		}
		w.buf = append(w.buf, present)
		w.ref(c.Active.Name())
		w.ref(c.Inactive.Name())
	}
	return w.buf
}

// Decode reads every slot it can. Decoding stops at the first truncated or
// corrupt entry; slots after it are left nil.
func Decode(data []byte, k *genetics.Karyotype, f *chromosome.Factory) []*genetics.Chromosome {
	r := reader{data: data}
	var pending []chromosome.Pending
	for i := 0; i < k.Len(); i++ {
		e, ok := r.slot()
		if !ok {
			break
		}
		if e.present {
			pending = append(pending, chromosome.Pending{Slot: k.Slot(i), Active: e.active, Inactive: e.inactive})
		}
	}
	return f.ResolveAll(k, pending)
}

// DecodeSlot reads the chromosome stored for slot. It walks the stream until
// both slot and the species slot have been consumed.
func DecodeSlot(data []byte, slot *genetics.ChromosomeSlot, f *chromosome.Factory) SlotInfo {
	info := SlotInfo{Slot: slot}
	k := slot.Karyotype()
	target, species := slot.Index(), k.SpeciesSlot().Index()
	last := max(target, species)

	var targetEntry, speciesEntry entry
	r := reader{data: data}
	for i := 0; i <= last; i++ {
		e, ok := r.slot()
		if i == target {
			targetEntry = e
		}
		if i == species {
			speciesEntry = e
		}
		if !ok {
			break
		}
	}

	if speciesEntry.present {
		sc := f.Create(chromosome.Context{}, k.SpeciesSlot(), speciesEntry.active, speciesEntry.inactive)
		info.Species = chromosome.ContextOf(sc)
		if target == species {
			info.Chromosome = sc
		}
	}
	info.RawActive, info.RawInactive = targetEntry.active, targetEntry.inactive
	if targetEntry.present && info.Chromosome == nil {
		info.Chromosome = f.Create(info.Species, slot, targetEntry.active, targetEntry.inactive)
	}
	return info
}

type writer struct {
	buf   []byte
	index map[string]uint64
}

func (w *writer) ref(name genetics.QualifiedName) {
	s := name.String()
	if n, ok := w.index[s]; ok {
		w.buf = binary.AppendUvarint(w.buf, n)
		return
	}
	w.index[s] = uint64(len(w.index) + 1)
	w.buf = binary.AppendUvarint(w.buf, 0)
	w.buf = binary.AppendUvarint(w.buf, uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// entry is one slot as read from the stream. present is only set once both
// references were read.
type entry struct {
	present  bool
	active   genetics.QualifiedName
	inactive genetics.QualifiedName
}

type reader struct {
	data  []byte
	pos   int
	table []genetics.QualifiedName
}

// slot reads one slot. ok is false when the stream ended or was corrupt;
// the returned entry still carries whatever identifiers were read.
func (r *reader) slot() (entry, bool) {
	var e entry
	if r.pos >= len(r.data) {
		return e, false
	}
	flag := r.data[r.pos]
	r.pos++
	switch flag {
	case absent:
		return e, true
	case present:
	default:
		return e, false
	}
	var ok bool
	if e.active, ok = r.ref(); !ok {
		return e, false
	}
	if e.inactive, ok = r.ref(); !ok {
		return e, false
	}
	e.present = true
	return e, true
}

func (r *reader) ref() (genetics.QualifiedName, bool) {
	n, ok := r.uvarint()
	if !ok {
		return genetics.QualifiedName{}, false
	}
	if n > 0 {
		if n > uint64(len(r.table)) {
			return genetics.QualifiedName{}, false
		}
		return r.table[n-1], true
	}
	size, ok := r.uvarint()
	if !ok || size > maxNameLen || int(size) > len(r.data)-r.pos {
		return genetics.QualifiedName{}, false
	}
	raw := string(r.data[r.pos : r.pos+int(size)])
	r.pos += int(size)
	// Names that no longer parse are kept as unusable ids so resolution
	// falls back to the templates.
	name, err := genetics.ParseQualifiedName(raw)
	if err != nil {
		name = genetics.QualifiedName{}
	}
	r.table = append(r.table, name)
	return name, true
}

func (r *reader) uvarint() (uint64, bool) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, false
	}
	r.pos += n
	return v, true
}
