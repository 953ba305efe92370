package types

import (
	"sort"
	"strings"

	"github.com/forge18/luanext-typechecker/pkg/source"
)

// Visibility controls where a member may be accessed from.
type Visibility int

const (
	Public Visibility = iota
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Protected:
		return "protected"
	case Private:
		return "private"
	default:
		return "public"
	}
}

// Property describes one entry in an ObjectType's member map.
type Property struct {
	Type       Type
	Optional   bool
	Readonly   bool
	Visibility Visibility
}

// IndexSignature constrains every property not otherwise named explicitly.
type IndexSignature struct {
	KeyKind KeyKind
	Value   Type
}

// KeyKind is the domain of an index signature's key.
type KeyKind int

const (
	StringKey KeyKind = iota
	NumberKey
)

// Signature is a callable or constructable shape attached to an ObjectType
// (so a value can be both an object with properties and callable, matching
// TypeScript-style hybrid interfaces).
type Signature struct {
	TypeParams []*TypeParameter
	Params     []Param
	Return     Type
}

func (s *Signature) String() string {
	fn := &FunctionType{TypeParams: s.TypeParams, Params: s.Params, Return: s.Return}
	return fn.String()
}

func (s *Signature) Equals(other *Signature) bool {
	if other == nil {
		return false
	}
	a := &FunctionType{Params: s.Params, Return: s.Return}
	b := &FunctionType{Params: other.Params, Return: other.Return}
	return a.Equals(b)
}

// ObjectType is a structural bag of properties plus optional index, call,
// and construct signatures.
type ObjectType struct {
	Properties          map[string]*Property
	Index               *IndexSignature
	CallSignatures      []*Signature
	ConstructSignatures []*Signature
	Span                source.Span
}

// NewObjectType returns an empty object type ready for properties to be added.
func NewObjectType() *ObjectType {
	return &ObjectType{Properties: make(map[string]*Property)}
}

// WithProperty adds a public, required, mutable property and returns the
// receiver for chaining, matching the teacher's builder style.
func (o *ObjectType) WithProperty(name string, t Type) *ObjectType {
	o.Properties[name] = &Property{Type: t}
	return o
}

// EffectiveProperties returns the direct property map (present for parity
// with the teacher's method of the same name; kept as its own method so
// callers do not need to know about the internal representation).
func (o *ObjectType) EffectiveProperties() map[string]*Property {
	return o.Properties
}

// SortedPropertyNames returns property names in a stable order, used by
// String() and by mapped-type iteration.
func (o *ObjectType) SortedPropertyNames() []string {
	names := make([]string, 0, len(o.Properties))
	for n := range o.Properties {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (o *ObjectType) typeTerm() {}

func (o *ObjectType) String() string {
	var b strings.Builder
	b.WriteString("{ ")
	names := o.SortedPropertyNames()
	for i, name := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		p := o.Properties[name]
		if p.Readonly {
			b.WriteString("readonly ")
		}
		b.WriteString(name)
		if p.Optional {
			b.WriteByte('?')
		}
		b.WriteString(": ")
		b.WriteString(p.Type.String())
	}
	if o.Index != nil {
		if len(names) > 0 {
			b.WriteString("; ")
		}
		keyName := "string"
		if o.Index.KeyKind == NumberKey {
			keyName = "number"
		}
		b.WriteString("[key: " + keyName + "]: " + o.Index.Value.String())
	}
	for _, sig := range o.CallSignatures {
		b.WriteString("; " + sig.String())
	}
	b.WriteString(" }")
	return b.String()
}

func (o *ObjectType) Equals(other Type) bool {
	oo, ok := other.(*ObjectType)
	if !ok || len(oo.Properties) != len(o.Properties) {
		return false
	}
	for name, p := range o.Properties {
		op, exists := oo.Properties[name]
		if !exists || p.Optional != op.Optional || p.Readonly != op.Readonly || p.Visibility != op.Visibility {
			return false
		}
		if !p.Type.Equals(op.Type) {
			return false
		}
	}
	if (o.Index == nil) != (oo.Index == nil) {
		return false
	}
	if o.Index != nil && (o.Index.KeyKind != oo.Index.KeyKind || !o.Index.Value.Equals(oo.Index.Value)) {
		return false
	}
	if len(o.CallSignatures) != len(oo.CallSignatures) {
		return false
	}
	for i, sig := range o.CallSignatures {
		if !sig.Equals(oo.CallSignatures[i]) {
			return false
		}
	}
	return true
}

func (o *ObjectType) Hash() uint64 {
	var parts []uint64
	for name, p := range o.Properties {
		h := hashString(hashSeed, "prop:"+name)
		h = mix(h, p.Type.Hash())
		parts = append(parts, h)
	}
	base := mixUnordered(parts)
	if o.Index != nil {
		base = mix(base, o.Index.Value.Hash())
	}
	return base
}
