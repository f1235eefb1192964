// Package genetics defines the public data model for organism genomes: trait
// descriptors (alleles), chromosome slots grouped into karyotypes, chromosome
// pairs, and the collaborator interfaces the save subsystem consumes.
package genetics

import (
	"fmt"
	"strings"
)

// DefaultNamespace is assumed when a qualified name omits its namespace.
const DefaultNamespace = "genetics"

// QualifiedName is a globally unique namespace:path identifier.
type QualifiedName struct {
	Namespace string
	Path      string
}

// ParseQualifiedName parses "namespace:path" or "path" (default namespace).
func ParseQualifiedName(s string) (QualifiedName, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return QualifiedName{}, fmt.Errorf("empty qualified name")
	}
	ns, path := DefaultNamespace, s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		ns, path = s[:i], s[i+1:]
	}
	if !validPart(ns, false) {
		return QualifiedName{}, fmt.Errorf("invalid namespace in %q", s)
	}
	if !validPart(path, true) {
		return QualifiedName{}, fmt.Errorf("invalid path in %q", s)
	}
	return QualifiedName{Namespace: ns, Path: path}, nil
}

// MustQualifiedName is ParseQualifiedName for static names; it panics on error.
func MustQualifiedName(s string) QualifiedName {
	n, err := ParseQualifiedName(s)
	if err != nil {
		panic(err)
	}
	return n
}

func validPart(s string, allowSlash bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
		case r == '/' && allowSlash:
		default:
			return false
		}
	}
	return true
}

// IsZero reports whether n is the empty name.
func (n QualifiedName) IsZero() bool { return n.Namespace == "" && n.Path == "" }

func (n QualifiedName) String() string {
	if n.IsZero() {
		return ""
	}
	return n.Namespace + ":" + n.Path
}

// Category names a group of alleles for equivalence checks. Its string form
// carries a leading '#'.
type Category QualifiedName

// ParseCategory parses "#namespace:path"; the '#' is optional.
func ParseCategory(s string) (Category, error) {
	n, err := ParseQualifiedName(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if err != nil {
		return Category{}, err
	}
	return Category(n), nil
}

// MustCategory is ParseCategory for static names; it panics on error.
func MustCategory(s string) Category {
	c, err := ParseCategory(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Category) String() string { return "#" + QualifiedName(c).String() }

// Key is anything an allele can be tested for equivalence against: an exact
// *Allele, an AlleleRef, a QualifiedName (aliases included) or a Category.
type Key interface {
	equivalenceKey()
}

func (*Allele) equivalenceKey()       {}
func (AlleleRef) equivalenceKey()     {}
func (QualifiedName) equivalenceKey() {}
func (Category) equivalenceKey()      {}

// ParseKey turns a string into a Key: "#ns:path" is a category, anything else
// a qualified name.
func ParseKey(s string) (Key, error) {
	if strings.HasPrefix(strings.TrimSpace(s), "#") {
		return ParseCategory(s)
	}
	return ParseQualifiedName(s)
}
