// Package saveformat reads and writes genomes in the persisted tag tree. Three
// layouts exist: the ordered slot list written today, the legacy slot list it
// superseded, and the compact binary blob. The Dispatcher detects which one a
// tag holds and routes to the matching codec.
package saveformat

import (
	"errors"
	"fmt"
	"strings"

	"genecore/pkg/genetics"
	"genecore/pkg/tagtree"
)

// Tag keys of the genome compound.
const (
	KeyChromosomes = "Chromosomes"
	KeyVersion     = "version"
	KeyData        = "data"
	KeySlot        = "Slot"
	KeyActive      = "UID0"
	KeyInactive    = "UID1"

	// Version is stamped on every genome written by this package.
	Version = 1
)

var (
	// ErrReadOnlyFormat is returned when writing a format that is only read.
	ErrReadOnlyFormat = errors.New("saveformat: format is read-only")
	// ErrUnknownFormat is returned by ParseFormat for unrecognised names.
	ErrUnknownFormat = errors.New("saveformat: unknown format")
)

// Format identifies a persisted genome layout.
type Format uint8

const (
	// Ordered is the slot-tagged chromosome list with a version marker.
	Ordered Format = iota
	// Legacy is the slot-tagged list without a version marker.
	Legacy
	// Binary is the compact byte blob.
	Binary
)

func (f Format) String() string {
	switch f {
	case Ordered:
		return "ordered"
	case Legacy:
		return "legacy"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// ParseFormat parses the name of a format as printed by String.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ordered", "uid":
		return Ordered, nil
	case "legacy":
		return Legacy, nil
	case "binary":
		return Binary, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Codec reads and writes one layout.
type Codec interface {
	Format() Format
	// CanLoad reports whether tag carries this layout's markers.
	CanLoad(tag *tagtree.Compound) bool
	// Write stores chromosomes into tag, replacing any previous genome layout.
	Write(chromosomes []*genetics.Chromosome, k *genetics.Karyotype, tag *tagtree.Compound) error
	// Read decodes a genome; the result always has one entry per slot.
	Read(k *genetics.Karyotype, tag *tagtree.Compound) []*genetics.Chromosome
	// ReadAllele returns one side of a slot without decoding unrelated slots.
	ReadAllele(tag *tagtree.Compound, slot *genetics.ChromosomeSlot, active bool) (genetics.AlleleRef, bool)
	// ReadChromosome returns the chromosome at slot. repaired reports that tag
	// was rewritten to restore it.
	ReadChromosome(tag *tagtree.Compound, slot *genetics.ChromosomeSlot) (c *genetics.Chromosome, repaired bool)
}
