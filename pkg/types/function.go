package types

import (
	"strings"

	"github.com/forge18/luanext-typechecker/pkg/source"
)

// Param is one entry in a function's parameter list.
type Param struct {
	Name     string
	Type     Type
	Optional bool
	Rest     bool // `...args: T[]`
}

// FunctionType is the type of a function value, including its own generic
// type-parameter list (so `function id<T>(v: T): T` is one FunctionType).
type FunctionType struct {
	TypeParams []*TypeParameter
	Params     []Param
	Return     Type
	ThisParam  Type // contravariant `this` parameter type, nil if none declared
	Span       source.Span
}

func (f *FunctionType) typeTerm() {}
func (f *FunctionType) String() string {
	var b strings.Builder
	if len(f.TypeParams) > 0 {
		b.WriteByte('<')
		for i, tp := range f.TypeParams {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(tp.String())
		}
		b.WriteByte('>')
	}
	b.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Rest {
			b.WriteString("...")
		}
		b.WriteString(p.Name)
		if p.Optional {
			b.WriteByte('?')
		}
		b.WriteString(": ")
		b.WriteString(p.Type.String())
	}
	b.WriteByte(')')
	b.WriteString(" -> ")
	if f.Return != nil {
		b.WriteString(f.Return.String())
	} else {
		b.WriteString("void")
	}
	return b.String()
}

func (f *FunctionType) Equals(other Type) bool {
	o, ok := other.(*FunctionType)
	if !ok || len(o.Params) != len(f.Params) || len(o.TypeParams) != len(f.TypeParams) {
		return false
	}
	for i, p := range f.Params {
		op := o.Params[i]
		if p.Optional != op.Optional || p.Rest != op.Rest || !p.Type.Equals(op.Type) {
			return false
		}
	}
	if (f.Return == nil) != (o.Return == nil) {
		return false
	}
	if f.Return != nil && !f.Return.Equals(o.Return) {
		return false
	}
	return true
}

func (f *FunctionType) Hash() uint64 {
	h := hashString(hashSeed, "fn")
	for _, p := range f.Params {
		h = mix(h, p.Type.Hash())
	}
	if f.Return != nil {
		h = mix(h, f.Return.Hash())
	}
	return h
}

// ConstructorType is the type of a `new`-callable value.
type ConstructorType struct {
	TypeParams []*TypeParameter
	Params     []Param
	Constructs Type
	Span       source.Span
}

func (c *ConstructorType) typeTerm() {}
func (c *ConstructorType) String() string {
	var b strings.Builder
	b.WriteString("new (")
	for i, p := range c.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Type.String())
	}
	b.WriteString(") -> ")
	b.WriteString(c.Constructs.String())
	return b.String()
}
func (c *ConstructorType) Equals(other Type) bool {
	o, ok := other.(*ConstructorType)
	if !ok || len(o.Params) != len(c.Params) {
		return false
	}
	for i, p := range c.Params {
		if !p.Type.Equals(o.Params[i].Type) {
			return false
		}
	}
	return c.Constructs.Equals(o.Constructs)
}
func (c *ConstructorType) Hash() uint64 {
	h := hashString(hashSeed, "ctor")
	for _, p := range c.Params {
		h = mix(h, p.Type.Hash())
	}
	return mix(h, c.Constructs.Hash())
}
