// Package savehandler is the entry point for reading and writing genetic data
// on host items. It finds the individual data of an item through the organism
// handlers, creates it from the default template when an item arrives without
// any, and serves targeted allele and chromosome reads through the format
// dispatcher.
package savehandler

import (
	"fmt"
	"log/slog"

	"genecore/internal/metrics"
	"genecore/internal/organism"
	"genecore/internal/saveformat"
	"genecore/pkg/genetics"
	"genecore/pkg/tagtree"
)

// GenomeKey is the individual data key holding the genome compound.
const GenomeKey = "Genome"

// Option configures a Handler.
type Option func(*Handler)

// WithMetrics sets the recorder notified of syntheses, rejects and migrations.
func WithMetrics(r metrics.Recorder) Option {
	return func(h *Handler) { h.metrics = metrics.OrNop(r) }
}

// WithLogger sets the logger used for anomalies.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// Handler reads and writes genomes stored on items.
type Handler struct {
	dispatcher *saveformat.Dispatcher
	table      genetics.AlleleTable
	organisms  *organism.Registry
	metrics    metrics.Recorder
	logger     *slog.Logger
}

// New returns a handler. A nil organisms registry uses organism.NewRegistry.
func New(d *saveformat.Dispatcher, organisms *organism.Registry, opts ...Option) *Handler {
	if organisms == nil {
		organisms = organism.NewRegistry()
	}
	h := &Handler{
		dispatcher: d,
		table:      d.Factory().Table(),
		organisms:  organisms,
		metrics:    metrics.Nop{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Dispatcher returns the format dispatcher.
func (h *Handler) Dispatcher() *saveformat.Dispatcher { return h.dispatcher }

// WriteFormat returns the layout genomes are written in.
func (h *Handler) WriteFormat() saveformat.Format { return h.dispatcher.WriteFormat() }

// WriteTag stores chromosomes into a genome compound.
func (h *Handler) WriteTag(chromosomes []*genetics.Chromosome, k *genetics.Karyotype, genome *tagtree.Compound) error {
	return h.dispatcher.Write(chromosomes, k, genome)
}

// ReadTag decodes a genome compound of any supported layout.
func (h *Handler) ReadTag(k *genetics.Karyotype, genome *tagtree.Compound) []*genetics.Chromosome {
	return h.dispatcher.Read(k, genome)
}

// GetAlleleDirectly reads one side of slot from a genome compound without
// decoding the other slots. Ids that do not resolve are reported absent,
// whatever the layout, and a template stand-in is never returned as stored
// data.
func (h *Handler) GetAlleleDirectly(genome *tagtree.Compound, slot *genetics.ChromosomeSlot, active bool) (*genetics.Allele, bool) {
	ref, ok := h.dispatcher.ReadAllele(genome, slot, active)
	if !ok || !ref.Resolved() || ref.Substituted() {
		return nil, false
	}
	return ref.Allele(), true
}

// GetItemAlleleDirectly reads one side of slot from an item without creating
// missing data. The allele must still be valid for the slot.
func (h *Handler) GetItemAlleleDirectly(item *genetics.Item, typ genetics.OrganismType, root genetics.Root, slot *genetics.ChromosomeSlot, active bool) (*genetics.Allele, bool) {
	if item == nil || item.Tag().IsEmpty() {
		return nil, false
	}
	data, ok := h.GetIndividualDataDirectly(item, typ, root)
	if !ok || data.IsEmpty() {
		return nil, false
	}
	genome := data.GetCompound(GenomeKey)
	if genome.IsEmpty() {
		return nil, false
	}
	ref, ok := h.dispatcher.ReadAllele(genome, slot, active)
	if !ok {
		return nil, false
	}
	return h.validated(ref, slot)
}

// GetAllele reads one side of slot from an item, creating the item's data
// and restoring a missing chromosome when needed.
func (h *Handler) GetAllele(item *genetics.Item, typ genetics.OrganismType, root genetics.Root, slot *genetics.ChromosomeSlot, active bool) (*genetics.Allele, bool, error) {
	c, err := h.GetItemChromosome(item, typ, root, slot)
	if err != nil || c == nil {
		return nil, false, err
	}
	a, ok := h.validated(c.Side(active), slot)
	return a, ok, nil
}

// validated rejects refs that did not resolve, were replaced by a template
// allele, or are not valid for slot.
func (h *Handler) validated(ref genetics.AlleleRef, slot *genetics.ChromosomeSlot) (*genetics.Allele, bool) {
	a := ref.Allele()
	if a == nil || ref.Substituted() || !h.table.IsValidFor(a, slot) {
		h.metrics.ValidationRejected(slot.Name())
		h.logger.Debug("allele_rejected",
			"karyotype", slot.Karyotype().UID(),
			"slot", slot.Name(),
			"id", ref.Raw().String(),
		)
		return nil, false
	}
	return a, true
}

// GetSpecificChromosome returns the chromosome at slot from a genome
// compound. A binary genome missing the slot is repaired in place.
func (h *Handler) GetSpecificChromosome(genome *tagtree.Compound, slot *genetics.ChromosomeSlot) *genetics.Chromosome {
	c, _ := h.dispatcher.ReadSpecificChromosome(genome, slot)
	return c
}

// GetItemChromosome returns the chromosome at slot from an item, creating
// the item's data when it has none. When the genome had to be repaired the
// data is stored back on the item once.
func (h *Handler) GetItemChromosome(item *genetics.Item, typ genetics.OrganismType, root genetics.Root, slot *genetics.ChromosomeSlot) (*genetics.Chromosome, error) {
	if item == nil {
		return nil, fmt.Errorf("savehandler: nil item")
	}
	if item.Tag() == nil {
		item.SetTag(tagtree.NewCompound())
	}
	data, err := h.GetIndividualData(item, typ, root)
	if err != nil {
		return nil, err
	}
	genome := data.GetCompound(GenomeKey)
	c, repaired := h.dispatcher.ReadSpecificChromosome(genome, slot)
	if repaired {
		data.Put(GenomeKey, genome)
		h.organisms.Lookup(root.UID, typ).SetIndividualData(item, data)
	}
	return c, nil
}

// GetIndividualDataDirectly returns the item's individual data without
// creating it.
func (h *Handler) GetIndividualDataDirectly(item *genetics.Item, typ genetics.OrganismType, root genetics.Root) (*tagtree.Compound, bool) {
	return h.organisms.Lookup(root.UID, typ).IndividualData(item)
}

// SetIndividualData stores data on the item.
func (h *Handler) SetIndividualData(item *genetics.Item, typ genetics.OrganismType, root genetics.Root, data *tagtree.Compound) {
	h.organisms.Lookup(root.UID, typ).SetIndividualData(item, data)
}

// GetIndividualData returns the item's individual data. When the item has
// no data, or data without a genome, a genome is built from the karyotype's
// default template and stored on the item before returning. A genetic item
// should never arrive without a genome, so this is logged as an anomaly.
func (h *Handler) GetIndividualData(item *genetics.Item, typ genetics.OrganismType, root genetics.Root) (*tagtree.Compound, error) {
	handler := h.organisms.Lookup(root.UID, typ)
	existing, ok := handler.IndividualData(item)
	if ok && !existing.GetCompound(GenomeKey).IsEmpty() {
		return existing, nil
	}
	if root.Karyotype == nil {
		return nil, fmt.Errorf("savehandler: root %q has no karyotype", root.UID)
	}
	def, err := root.Karyotype.DefaultGenome()
	if err != nil {
		return nil, fmt.Errorf("savehandler: synthesize genome for %s: %w", root.UID, err)
	}
	genome := tagtree.NewCompound()
	if err := h.dispatcher.Write(def.Chromosomes(), root.Karyotype, genome); err != nil {
		return nil, fmt.Errorf("savehandler: write default genome: %w", err)
	}
	data := tagtree.NewCompound()
	if ok {
		data = existing.Clone()
	}
	data.Put(GenomeKey, genome)

	id := ""
	if item != nil {
		id = item.ID
	}
	h.logger.Warn("genome_missing_default_applied",
		"item", id,
		"root", root.UID,
		"organism_type", string(typ),
		"had_data", ok,
	)
	h.metrics.DefaultSynthesized(root.UID)
	handler.SetIndividualData(item, data)
	return data, nil
}

// WriteGenome stores g on the item in the current write format, keeping any
// other individual data.
func (h *Handler) WriteGenome(item *genetics.Item, typ genetics.OrganismType, root genetics.Root, g *genetics.Genome) error {
	if g == nil {
		return fmt.Errorf("savehandler: nil genome")
	}
	genome := tagtree.NewCompound()
	if err := h.dispatcher.Write(g.Chromosomes(), g.Karyotype(), genome); err != nil {
		return fmt.Errorf("savehandler: write genome: %w", err)
	}
	data := tagtree.NewCompound()
	if existing, ok := h.GetIndividualDataDirectly(item, typ, root); ok {
		data = existing.Clone()
	}
	data.Put(GenomeKey, genome)
	h.SetIndividualData(item, typ, root, data)
	return nil
}

// ReadGenome decodes the item's genome, creating it from the default
// template when the item has none.
func (h *Handler) ReadGenome(item *genetics.Item, typ genetics.OrganismType, root genetics.Root) (*genetics.Genome, error) {
	if root.Karyotype == nil {
		return nil, fmt.Errorf("savehandler: root %q has no karyotype", root.UID)
	}
	data, err := h.GetIndividualData(item, typ, root)
	if err != nil {
		return nil, err
	}
	chromosomes := h.dispatcher.Read(root.Karyotype, data.GetCompound(GenomeKey))
	return genetics.NewGenome(root.Karyotype, chromosomes)
}

// Migrate rewrites the item's genome in the current write format. It reports
// whether the item changed; items without a genome are left alone.
func (h *Handler) Migrate(item *genetics.Item, typ genetics.OrganismType, root genetics.Root) (bool, error) {
	data, ok := h.GetIndividualDataDirectly(item, typ, root)
	if !ok {
		return false, nil
	}
	genome := data.GetCompound(GenomeKey)
	if genome.IsEmpty() {
		return false, nil
	}
	from, to := h.dispatcher.DetectFormat(genome), h.dispatcher.WriteFormat()
	if from == to {
		return false, nil
	}
	if root.Karyotype == nil {
		return false, fmt.Errorf("savehandler: root %q has no karyotype", root.UID)
	}
	chromosomes := h.dispatcher.Read(root.Karyotype, genome)
	rewritten := tagtree.NewCompound()
	if err := h.dispatcher.Write(chromosomes, root.Karyotype, rewritten); err != nil {
		return false, fmt.Errorf("savehandler: migrate %s: %w", from, err)
	}
	updated := data.Clone()
	updated.Put(GenomeKey, rewritten)
	h.SetIndividualData(item, typ, root, updated)
	h.metrics.Migrated(from.String(), to.String())
	h.logger.Info("genome_migrated",
		"root", root.UID,
		"from", from.String(),
		"to", to.String(),
	)
	return true, nil
}
