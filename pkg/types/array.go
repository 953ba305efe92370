package types

import (
	"strings"

	"github.com/forge18/luanext-typechecker/pkg/source"
)

// ArrayType is a homogeneous, dynamically-sized sequence.
type ArrayType struct {
	Element Type
	Span    source.Span
}

func NewArrayType(element Type) *ArrayType { return &ArrayType{Element: element} }

func (a *ArrayType) typeTerm()      {}
func (a *ArrayType) String() string { return a.Element.String() + "[]" }
func (a *ArrayType) Equals(other Type) bool {
	o, ok := other.(*ArrayType)
	return ok && a.Element.Equals(o.Element)
}
func (a *ArrayType) Hash() uint64 { return mix(hashString(hashSeed, "arr"), a.Element.Hash()) }

// TupleType is a fixed-length, positionally-typed sequence with an optional
// trailing variadic tail (`[string, number, ...boolean[]]`).
type TupleType struct {
	Elements    []Type
	Optional    []bool // parallel to Elements
	RestElement Type   // nil if no trailing variadic
	Span        source.Span
}

func NewTupleType(elements []Type, optional []bool, rest Type) *TupleType {
	return &TupleType{Elements: elements, Optional: optional, RestElement: rest}
}

func (t *TupleType) typeTerm() {}
func (t *TupleType) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range t.Elements {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.String())
		if i < len(t.Optional) && t.Optional[i] {
			b.WriteByte('?')
		}
	}
	if t.RestElement != nil {
		if len(t.Elements) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("..." + t.RestElement.String())
	}
	b.WriteByte(']')
	return b.String()
}
func (t *TupleType) Equals(other Type) bool {
	o, ok := other.(*TupleType)
	if !ok || len(o.Elements) != len(t.Elements) {
		return false
	}
	for i, e := range t.Elements {
		if !e.Equals(o.Elements[i]) {
			return false
		}
		oi := i < len(o.Optional) && o.Optional[i]
		ti := i < len(t.Optional) && t.Optional[i]
		if oi != ti {
			return false
		}
	}
	if (t.RestElement == nil) != (o.RestElement == nil) {
		return false
	}
	if t.RestElement != nil && !t.RestElement.Equals(o.RestElement) {
		return false
	}
	return true
}
func (t *TupleType) Hash() uint64 {
	h := hashString(hashSeed, "tuple")
	for _, e := range t.Elements {
		h = mix(h, e.Hash())
	}
	if t.RestElement != nil {
		h = mix(h, t.RestElement.Hash())
	}
	return h
}
