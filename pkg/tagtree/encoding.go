package tagtree

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ErrMalformed is returned when a payload cannot be decoded into a tag tree.
var ErrMalformed = errors.New("tagtree: malformed payload")

// wireNode is the CBOR shape of a tag. The kind travels with every node so
// Byte and Int leaves stay distinct after a round trip.
type wireNode struct {
	Kind     Kind                `cbor:"1,keyasint"`
	Int      int64               `cbor:"2,keyasint,omitempty"`
	Str      string              `cbor:"3,keyasint,omitempty"`
	Bytes    []byte              `cbor:"4,keyasint,omitempty"`
	Elem     Kind                `cbor:"5,keyasint,omitempty"`
	List     []wireNode          `cbor:"6,keyasint,omitempty"`
	Compound map[string]wireNode `cbor:"7,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("tagtree: cbor enc mode: %v", err))
	}
	decMode, err = cbor.DecOptions{MaxNestedLevels: 64}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("tagtree: cbor dec mode: %v", err))
	}
}

// Marshal encodes c as a deterministic CBOR document. Equal trees produce
// identical bytes.
func Marshal(c *Compound) ([]byte, error) {
	if c == nil {
		c = NewCompound()
	}
	return encMode.Marshal(toWire(c))
}

// Unmarshal decodes a payload produced by Marshal.
func Unmarshal(data []byte) (*Compound, error) {
	var node wireNode
	if err := decMode.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	t, err := fromWire(node)
	if err != nil {
		return nil, err
	}
	c, ok := t.(*Compound)
	if !ok {
		return nil, fmt.Errorf("%w: root is %s, want compound", ErrMalformed, t.Kind())
	}
	return c, nil
}

func toWire(t Tag) wireNode {
	switch v := t.(type) {
	case Byte:
		return wireNode{Kind: KindByte, Int: int64(v)}
	case Int:
		return wireNode{Kind: KindInt, Int: int64(v)}
	case String:
		return wireNode{Kind: KindString, Str: string(v)}
	case ByteArray:
		return wireNode{Kind: KindByteArray, Bytes: []byte(v)}
	case *List:
		n := wireNode{Kind: KindList, Elem: v.ElemKind(), List: make([]wireNode, 0, v.Len())}
		for _, item := range v.items {
			n.List = append(n.List, toWire(item))
		}
		return n
	case *Compound:
		n := wireNode{Kind: KindCompound, Compound: make(map[string]wireNode, v.Len())}
		for k, item := range v.entries {
			n.Compound[k] = toWire(item)
		}
		return n
	}
	return wireNode{Kind: KindEnd}
}

func fromWire(n wireNode) (Tag, error) {
	switch n.Kind {
	case KindByte:
		if n.Int < -128 || n.Int > 127 {
			return nil, fmt.Errorf("%w: byte out of range: %d", ErrMalformed, n.Int)
		}
		return Byte(n.Int), nil
	case KindInt:
		if n.Int < -1<<31 || n.Int > 1<<31-1 {
			return nil, fmt.Errorf("%w: int out of range: %d", ErrMalformed, n.Int)
		}
		return Int(n.Int), nil
	case KindString:
		return String(n.Str), nil
	case KindByteArray:
		if n.Bytes == nil {
			return ByteArray{}, nil
		}
		return ByteArray(n.Bytes), nil
	case KindList:
		l := NewList(n.Elem)
		for i, item := range n.List {
			t, err := fromWire(item)
			if err != nil {
				return nil, err
			}
			if !l.Add(t) {
				return nil, fmt.Errorf("%w: list element %d is %s, want %s", ErrMalformed, i, t.Kind(), l.ElemKind())
			}
		}
		return l, nil
	case KindCompound:
		c := NewCompound()
		for k, item := range n.Compound {
			t, err := fromWire(item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			c.Put(k, t)
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformed, n.Kind)
}
