// Package definitions loads organism family definitions from YAML: alleles,
// aliases, category tags and karyotypes with their templates.
package definitions

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"genecore/internal/alleles"
	"genecore/pkg/genetics"
)

// Document is one definitions file.
type Document struct {
	Alleles    []AlleleDef         `yaml:"alleles"`
	Aliases    map[string]string   `yaml:"aliases"`
	Tags       map[string][]string `yaml:"tags"`
	Karyotypes []KaryotypeDef      `yaml:"karyotypes"`
}

// AlleleDef describes one allele.
type AlleleDef struct {
	Name         string `yaml:"name"`
	Dominant     bool   `yaml:"dominant"`
	Localisation string `yaml:"localisation"`
	Type         string `yaml:"type"`
}

// SlotDef describes one chromosome slot.
type SlotDef struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Allowed []string `yaml:"allowed"` // optional allow-list
}

// KaryotypeDef describes a karyotype and its templates. Templates list one
// allele per slot in slot order.
type KaryotypeDef struct {
	UID             string     `yaml:"uid"`
	SpeciesSlot     string     `yaml:"species_slot"`
	Slots           []SlotDef  `yaml:"slots"`
	DefaultTemplate []string   `yaml:"default_template"`
	Templates       [][]string `yaml:"templates"`
}

// Load reads and parses the file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("read definitions %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("definitions %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a definitions document. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, fmt.Errorf("parse definitions: %w", err)
	}
	return &doc, nil
}

// Apply registers the document's alleles, aliases, tags and slot allow-lists
// with reg and builds its karyotypes. The registry is left open so several
// documents can be applied before it is frozen.
func Apply(doc *Document, reg *alleles.Registry) ([]*genetics.Karyotype, error) {
	if doc == nil {
		return nil, nil
	}
	for _, def := range doc.Alleles {
		a, err := def.allele()
		if err != nil {
			return nil, err
		}
		if err := reg.Register(a); err != nil {
			return nil, fmt.Errorf("allele %s: %w", def.Name, err)
		}
	}
	for _, alias := range slices.Sorted(maps.Keys(doc.Aliases)) {
		from, err := genetics.ParseQualifiedName(alias)
		if err != nil {
			return nil, fmt.Errorf("alias %q: %w", alias, err)
		}
		to, err := genetics.ParseQualifiedName(doc.Aliases[alias])
		if err != nil {
			return nil, fmt.Errorf("alias %q target: %w", alias, err)
		}
		if err := reg.RegisterAlias(from, to); err != nil {
			return nil, fmt.Errorf("alias %s: %w", alias, err)
		}
	}
	for _, tag := range slices.Sorted(maps.Keys(doc.Tags)) {
		category, err := genetics.ParseCategory(tag)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", tag, err)
		}
		names, err := parseNames(doc.Tags[tag])
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", tag, err)
		}
		if err := reg.Tag(category, names...); err != nil {
			return nil, err
		}
	}
	karyotypes := make([]*genetics.Karyotype, 0, len(doc.Karyotypes))
	for _, def := range doc.Karyotypes {
		k, err := def.build(reg)
		if err != nil {
			return nil, fmt.Errorf("karyotype %s: %w", def.UID, err)
		}
		karyotypes = append(karyotypes, k)
	}
	return karyotypes, nil
}

func (d AlleleDef) allele() (*genetics.Allele, error) {
	name, err := genetics.ParseQualifiedName(d.Name)
	if err != nil {
		return nil, fmt.Errorf("allele %q: %w", d.Name, err)
	}
	a := &genetics.Allele{Name: name, Dominant: d.Dominant, LocalisationKey: d.Localisation}
	if a.LocalisationKey == "" {
		a.LocalisationKey = "allele." + name.Namespace + "." + name.Path
	}
	if d.Type != "" {
		if a.Type, err = genetics.ParseCategory(d.Type); err != nil {
			return nil, fmt.Errorf("allele %s type: %w", d.Name, err)
		}
	}
	return a, nil
}

func (d KaryotypeDef) build(reg *alleles.Registry) (*genetics.Karyotype, error) {
	slots := make([]genetics.SlotDef, len(d.Slots))
	for i, s := range d.Slots {
		slots[i] = genetics.SlotDef{Name: s.Name}
		if s.Type != "" {
			vt, err := genetics.ParseCategory(s.Type)
			if err != nil {
				return nil, fmt.Errorf("slot %s type: %w", s.Name, err)
			}
			slots[i].ValueType = vt
		}
	}
	k, err := genetics.NewKaryotype(d.UID, d.SpeciesSlot, slots...)
	if err != nil {
		return nil, err
	}
	for _, s := range d.Slots {
		if len(s.Allowed) == 0 {
			continue
		}
		names, err := parseNames(s.Allowed)
		if err != nil {
			return nil, fmt.Errorf("slot %s: %w", s.Name, err)
		}
		if err := reg.AssignToSlot(k.UID(), s.Name, names...); err != nil {
			return nil, err
		}
	}
	if len(d.DefaultTemplate) > 0 {
		t, err := template(k, d.DefaultTemplate, reg)
		if err != nil {
			return nil, fmt.Errorf("default template: %w", err)
		}
		if err := k.SetDefaultTemplate(t); err != nil {
			return nil, err
		}
	}
	for i, names := range d.Templates {
		t, err := template(k, names, reg)
		if err != nil {
			return nil, fmt.Errorf("template %d: %w", i, err)
		}
		if err := k.AddTemplate(t); err != nil {
			return nil, err
		}
	}
	return k, nil
}

// template resolves raw against reg. Every allele must be valid for the slot
// it fills.
func template(k *genetics.Karyotype, raw []string, reg *alleles.Registry) (genetics.Template, error) {
	if len(raw) != k.Len() {
		return nil, fmt.Errorf("%d alleles for %d slots", len(raw), k.Len())
	}
	names, err := parseNames(raw)
	if err != nil {
		return nil, err
	}
	t := make(genetics.Template, len(names))
	for i, name := range names {
		a, ok := reg.Resolve(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", alleles.ErrUnknown, name)
		}
		if !reg.IsValidFor(a, k.Slot(i)) {
			return nil, fmt.Errorf("allele %s is not valid for slot %s", name, k.Slot(i).Name())
		}
		t[i] = a
	}
	return t, nil
}

func parseNames(raw []string) ([]genetics.QualifiedName, error) {
	out := make([]genetics.QualifiedName, len(raw))
	for i, s := range raw {
		n, err := genetics.ParseQualifiedName(s)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
