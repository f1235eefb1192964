package frog

import (
	_ "embed"
	"fmt"

	"genecore/internal/alleles"
	"genecore/internal/definitions"
	"genecore/internal/organism"
	"genecore/pkg/genetics"
)

//go:embed frog.yaml
var definitionsYAML []byte

// Organism types of the frog family.
const (
	Adult   genetics.OrganismType = "adult"
	Tadpole genetics.OrganismType = "tadpole"
)

// TadpoleKey is the item tag key holding tadpole individual data.
const TadpoleKey = "TadpoleData"

// Plugin is the reference frog family.
type Plugin struct{}

// New constructs a frog plugin instance.
func New() Plugin {
	return Plugin{}
}

// Name returns the plugin identifier.
func (Plugin) Name() string { return "frog" }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return "0.2.0" }

// Register adds the frog alleles and karyotype to reg and binds the tadpole
// handler. The registry must still be open.
func (Plugin) Register(reg *alleles.Registry, organisms *organism.Registry) (genetics.Root, error) {
	doc, err := definitions.Parse(definitionsYAML)
	if err != nil {
		return genetics.Root{}, fmt.Errorf("frog definitions: %w", err)
	}
	ks, err := definitions.Apply(doc, reg)
	if err != nil {
		return genetics.Root{}, fmt.Errorf("frog definitions: %w", err)
	}
	if len(ks) != 1 {
		return genetics.Root{}, fmt.Errorf("frog definitions: expected one karyotype, got %d", len(ks))
	}
	root := genetics.Root{UID: ks[0].UID(), Karyotype: ks[0]}
	if organisms != nil {
		organisms.Register(root.UID, Tadpole, organism.TagHandler{Key: TadpoleKey})
	}
	return root, nil
}
