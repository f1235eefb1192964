package saveformat

import (
	"fmt"
	"log/slog"

	"genecore/internal/chromosome"
	"genecore/internal/metrics"
	"genecore/pkg/genetics"
	"genecore/pkg/tagtree"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithWriteFormat selects the layout Write produces. The default is Ordered.
func WithWriteFormat(f Format) Option {
	return func(d *Dispatcher) { d.writeFormat = f }
}

// WithMetrics sets the recorder notified of detections and repairs.
func WithMetrics(r metrics.Recorder) Option {
	return func(d *Dispatcher) { d.metrics = metrics.OrNop(r) }
}

// WithLogger sets the logger used for repair warnings.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// Dispatcher detects the layout of a genome tag and routes reads to the
// matching codec. Writes always use the configured write format, so old
// layouts are migrated on the next save and never produced again.
type Dispatcher struct {
	factory     *chromosome.Factory
	codecs      []Codec
	byFormat    map[Format]Codec
	writeFormat Format
	write       Codec
	metrics     metrics.Recorder
	logger      *slog.Logger
}

// NewDispatcher builds a dispatcher over table. Detection tries the ordered,
// legacy and binary layouts in that order. The write format is fixed here
// and cannot be changed afterwards; selecting Legacy fails with
// ErrReadOnlyFormat.
func NewDispatcher(table genetics.AlleleTable, opts ...Option) (*Dispatcher, error) {
	f := chromosome.NewFactory(table)
	d := &Dispatcher{
		factory: f,
		codecs: []Codec{
			NewOrderedCodec(f),
			NewLegacyCodec(f),
			NewBinaryCodec(f),
		},
		writeFormat: Ordered,
		metrics:     metrics.Nop{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.byFormat = make(map[Format]Codec, len(d.codecs))
	for _, c := range d.codecs {
		d.byFormat[c.Format()] = c
	}
	switch d.writeFormat {
	case Legacy:
		return nil, fmt.Errorf("write format %s: %w", d.writeFormat, ErrReadOnlyFormat)
	case Ordered, Binary:
	default:
		return nil, fmt.Errorf("write format %s: %w", d.writeFormat, ErrUnknownFormat)
	}
	d.write = d.byFormat[d.writeFormat]
	return d, nil
}

// Factory returns the chromosome factory shared by the codecs.
func (d *Dispatcher) Factory() *chromosome.Factory { return d.factory }

// WriteFormat returns the layout Write produces.
func (d *Dispatcher) WriteFormat() Format { return d.writeFormat }

// Codec returns the codec for f.
func (d *Dispatcher) Codec(f Format) (Codec, bool) {
	c, ok := d.byFormat[f]
	return c, ok
}

// DetectFormat returns the first layout whose markers tag carries. Tags with
// no markers are treated as new and report Ordered.
func (d *Dispatcher) DetectFormat(tag *tagtree.Compound) Format {
	return d.detect(tag).Format()
}

func (d *Dispatcher) detect(tag *tagtree.Compound) Codec {
	for _, c := range d.codecs {
		if c.CanLoad(tag) {
			return c
		}
	}
	return d.codecs[0]
}

// Write stores chromosomes into tag using the write format.
func (d *Dispatcher) Write(chromosomes []*genetics.Chromosome, k *genetics.Karyotype, tag *tagtree.Compound) error {
	if tag == nil {
		return fmt.Errorf("saveformat: write into nil tag")
	}
	return d.write.Write(chromosomes, k, tag)
}

// Read decodes the genome in tag with the detected codec.
func (d *Dispatcher) Read(k *genetics.Karyotype, tag *tagtree.Compound) []*genetics.Chromosome {
	c := d.detect(tag)
	d.metrics.FormatDetected(c.Format().String())
	return c.Read(k, tag)
}

// ReadAllele reads one side of slot with the detected codec.
func (d *Dispatcher) ReadAllele(tag *tagtree.Compound, slot *genetics.ChromosomeSlot, active bool) (genetics.AlleleRef, bool) {
	return d.detect(tag).ReadAllele(tag, slot, active)
}

// ReadSpecificChromosome returns the chromosome at slot. repaired reports
// that tag was rewritten to restore a missing slot.
func (d *Dispatcher) ReadSpecificChromosome(tag *tagtree.Compound, slot *genetics.ChromosomeSlot) (*genetics.Chromosome, bool) {
	c := d.detect(tag)
	chr, repaired := c.ReadChromosome(tag, slot)
	if repaired {
		d.metrics.Repaired(c.Format().String())
		d.logger.Warn("genome_slot_repaired",
			"format", c.Format().String(),
			"karyotype", slot.Karyotype().UID(),
			"slot", slot.Name(),
		)
	}
	return chr, repaired
}
