package genetics

import "fmt"

// Allele is an immutable trait descriptor registered once at startup.
type Allele struct {
	Name            QualifiedName
	Dominant        bool
	LocalisationKey string
	Type            Category
}

// EmptyAllele stands in where no trait applies.
var EmptyAllele = &Allele{Name: QualifiedName{Namespace: DefaultNamespace, Path: "empty"}, LocalisationKey: "empty"}

// Equal compares by name when both alleles are named, else by dominance.
func (a *Allele) Equal(other *Allele) bool {
	if a == nil || other == nil {
		return a == other
	}
	if !a.Name.IsZero() && !other.Name.IsZero() {
		return a.Name == other.Name
	}
	return a.Dominant == other.Dominant
}

func (a *Allele) String() string {
	if a == nil {
		return "<nil>"
	}
	return fmt.Sprintf("Allele{name=%s, dominant=%t, key=%s}", a.Name, a.Dominant, a.LocalisationKey)
}

// AlleleRef points at an allele either by stored identifier (unresolved) or
// by descriptor. A resolved ref remembers the identifier it was read from so
// substitutions stay visible to callers.
type AlleleRef struct {
	raw         QualifiedName
	allele      *Allele
	substituted bool
}

// RefName returns an unresolved reference.
func RefName(name QualifiedName) AlleleRef { return AlleleRef{raw: name} }

// RefAllele returns a reference resolved to a.
func RefAllele(a *Allele) AlleleRef {
	if a == nil {
		return AlleleRef{}
	}
	return AlleleRef{raw: a.Name, allele: a}
}

// Resolved returns a reference for raw that resolved to a, directly or
// through an alias.
func Resolved(raw QualifiedName, a *Allele) AlleleRef {
	if a == nil {
		return AlleleRef{raw: raw}
	}
	return AlleleRef{raw: raw, allele: a}
}

// Substitute returns a reference for raw that could not be used and was
// replaced by a.
func Substitute(raw QualifiedName, a *Allele) AlleleRef {
	if a == nil {
		return AlleleRef{raw: raw}
	}
	return AlleleRef{raw: raw, allele: a, substituted: true}
}

// Raw returns the identifier the reference was built from.
func (r AlleleRef) Raw() QualifiedName { return r.raw }

// Name returns the resolved allele name, or the raw identifier when
// unresolved. This is what gets persisted.
func (r AlleleRef) Name() QualifiedName {
	if r.allele != nil {
		return r.allele.Name
	}
	return r.raw
}

// Allele returns the resolved descriptor or nil.
func (r AlleleRef) Allele() *Allele { return r.allele }

// Resolved reports whether the reference carries a descriptor.
func (r AlleleRef) Resolved() bool { return r.allele != nil }

// Substituted reports whether resolution replaced the stored identifier with
// a template allele.
func (r AlleleRef) Substituted() bool { return r.substituted }

// IsZero reports whether the reference is empty.
func (r AlleleRef) IsZero() bool { return r.allele == nil && r.raw.IsZero() }
