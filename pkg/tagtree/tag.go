// Package tagtree implements the nested key-value tag structure attached to
// host items. Compound nodes map names to tags, list nodes hold tags of a
// single kind, and leaves carry primitive values.
//
// Reads are forgiving: a missing key or a key holding a different kind yields
// the zero value for the requested kind. Callers that need to distinguish the
// two cases use Contains or ContainsKind.
package tagtree

import (
	"bytes"
	"sort"
)

// Kind identifies the type of a tag node.
type Kind uint8

const (
	KindEnd Kind = iota
	KindByte
	KindInt
	KindString
	KindByteArray
	KindList
	KindCompound
)

func (k Kind) String() string {
	switch k {
	case KindEnd:
		return "end"
	case KindByte:
		return "byte"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindByteArray:
		return "byte_array"
	case KindList:
		return "list"
	case KindCompound:
		return "compound"
	default:
		return "unknown"
	}
}

// Tag is a node in the tree.
type Tag interface {
	Kind() Kind
	clone() Tag
}

// Byte is a signed 8-bit leaf.
type Byte int8

// Int is a signed 32-bit leaf.
type Int int32

// String is a UTF-8 leaf.
type String string

// ByteArray is a raw byte leaf.
type ByteArray []byte

func (Byte) Kind() Kind      { return KindByte }
func (Int) Kind() Kind       { return KindInt }
func (String) Kind() Kind    { return KindString }
func (ByteArray) Kind() Kind { return KindByteArray }

func (b Byte) clone() Tag   { return b }
func (i Int) clone() Tag    { return i }
func (s String) clone() Tag { return s }
func (b ByteArray) clone() Tag {
	if b == nil {
		return ByteArray(nil)
	}
	return append(ByteArray(nil), b...)
}

// List holds tags of one kind. The element kind is fixed by the first Add
// when the list was created without one.
type List struct {
	elem  Kind
	items []Tag
}

// NewList returns an empty list of the given element kind.
func NewList(elem Kind) *List { return &List{elem: elem} }

func (*List) Kind() Kind { return KindList }

// ElemKind returns the element kind, KindEnd for an untyped empty list.
func (l *List) ElemKind() Kind {
	if l == nil {
		return KindEnd
	}
	return l.elem
}

// Len returns the number of elements.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// IsEmpty reports whether the list has no elements.
func (l *List) IsEmpty() bool { return l.Len() == 0 }

// Add appends t. It reports false when t does not match the element kind.
func (l *List) Add(t Tag) bool {
	if t == nil {
		return false
	}
	if l.elem == KindEnd {
		l.elem = t.Kind()
	}
	if t.Kind() != l.elem {
		return false
	}
	l.items = append(l.items, t)
	return true
}

// Get returns the element at i or nil when out of range.
func (l *List) Get(i int) Tag {
	if l == nil || i < 0 || i >= len(l.items) {
		return nil
	}
	return l.items[i]
}

// GetCompound returns the compound at i, or a detached empty compound when the
// index is out of range or holds another kind.
func (l *List) GetCompound(i int) *Compound {
	if c, ok := l.Get(i).(*Compound); ok {
		return c
	}
	return NewCompound()
}

func (l *List) clone() Tag {
	if l == nil {
		return (*List)(nil)
	}
	out := &List{elem: l.elem, items: make([]Tag, len(l.items))}
	for i, item := range l.items {
		out.items[i] = item.clone()
	}
	return out
}

// Compound maps names to tags.
type Compound struct {
	entries map[string]Tag
}

// NewCompound returns an empty compound.
func NewCompound() *Compound { return &Compound{entries: make(map[string]Tag)} }

func (*Compound) Kind() Kind { return KindCompound }

// Len returns the number of entries.
func (c *Compound) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// IsEmpty reports whether the compound has no entries.
func (c *Compound) IsEmpty() bool { return c.Len() == 0 }

// Keys returns entry names in ascending order.
func (c *Compound) Keys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Contains reports whether key is present with any kind.
func (c *Compound) Contains(key string) bool {
	if c == nil {
		return false
	}
	_, ok := c.entries[key]
	return ok
}

// ContainsKind reports whether key is present with the given kind.
func (c *Compound) ContainsKind(key string, kind Kind) bool {
	if c == nil {
		return false
	}
	t, ok := c.entries[key]
	return ok && t.Kind() == kind
}

// Get returns the raw tag stored at key.
func (c *Compound) Get(key string) (Tag, bool) {
	if c == nil {
		return nil, false
	}
	t, ok := c.entries[key]
	return t, ok
}

// Put stores t at key. A nil tag removes the key.
func (c *Compound) Put(key string, t Tag) {
	if t == nil {
		c.Remove(key)
		return
	}
	if c.entries == nil {
		c.entries = make(map[string]Tag)
	}
	c.entries[key] = t
}

// Remove deletes key.
func (c *Compound) Remove(key string) {
	if c == nil {
		return
	}
	delete(c.entries, key)
}

func (c *Compound) PutByte(key string, v int8)        { c.Put(key, Byte(v)) }
func (c *Compound) PutInt(key string, v int32)        { c.Put(key, Int(v)) }
func (c *Compound) PutString(key string, v string)    { c.Put(key, String(v)) }
func (c *Compound) PutByteArray(key string, v []byte) { c.Put(key, ByteArray(v)) }

// GetByte returns the byte at key or 0.
func (c *Compound) GetByte(key string) int8 {
	t, _ := c.Get(key)
	if v, ok := t.(Byte); ok {
		return int8(v)
	}
	return 0
}

// GetInt returns the int at key or 0. Byte values widen.
func (c *Compound) GetInt(key string) int32 {
	t, _ := c.Get(key)
	switch v := t.(type) {
	case Int:
		return int32(v)
	case Byte:
		return int32(v)
	}
	return 0
}

// GetString returns the string at key or "".
func (c *Compound) GetString(key string) string {
	t, _ := c.Get(key)
	if v, ok := t.(String); ok {
		return string(v)
	}
	return ""
}

// GetByteArray returns the bytes at key or an empty slice. The returned slice
// aliases the stored value.
func (c *Compound) GetByteArray(key string) []byte {
	t, _ := c.Get(key)
	if v, ok := t.(ByteArray); ok {
		return v
	}
	return []byte{}
}

// GetCompound returns the compound at key, or a detached empty compound when
// missing. Mutating a detached compound does not affect c.
func (c *Compound) GetCompound(key string) *Compound {
	t, _ := c.Get(key)
	if v, ok := t.(*Compound); ok && v != nil {
		return v
	}
	return NewCompound()
}

// GetList returns the list at key when its element kind matches elem, or a
// detached empty list otherwise.
func (c *Compound) GetList(key string, elem Kind) *List {
	t, _ := c.Get(key)
	if v, ok := t.(*List); ok && v != nil && (v.elem == elem || v.Len() == 0) {
		return v
	}
	return NewList(elem)
}

// Clone returns a deep copy.
func (c *Compound) Clone() *Compound {
	if c == nil {
		return nil
	}
	return c.clone().(*Compound)
}

func (c *Compound) clone() Tag {
	if c == nil {
		return (*Compound)(nil)
	}
	out := &Compound{entries: make(map[string]Tag, len(c.entries))}
	for k, v := range c.entries {
		out.entries[k] = v.clone()
	}
	return out
}

// ReplaceWith makes c hold the contents of other, so holders of c observe a
// fully built replacement at once. other must not be modified afterwards.
func (c *Compound) ReplaceWith(other *Compound) {
	if c == nil {
		return
	}
	if other == nil {
		c.entries = make(map[string]Tag)
		return
	}
	c.entries = other.entries
}

// Equal reports deep structural equality of two tags.
func Equal(a, b Tag) bool {
	if a == nil || b == nil {
		return isNilTag(a) && isNilTag(b)
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Byte, Int, String:
		return a == b
	case ByteArray:
		return bytes.Equal(av, b.(ByteArray))
	case *List:
		bv := b.(*List)
		if av.Len() != bv.Len() || (av.Len() > 0 && av.ElemKind() != bv.ElemKind()) {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if !Equal(av.items[i], bv.items[i]) {
				return false
			}
		}
		return true
	case *Compound:
		bv := b.(*Compound)
		if av.Len() != bv.Len() {
			return false
		}
		for k, v := range av.entries {
			other, ok := bv.entries[k]
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	}
	return false
}

func isNilTag(t Tag) bool {
	switch v := t.(type) {
	case nil:
		return true
	case *Compound:
		return v == nil
	case *List:
		return v == nil
	}
	return false
}
