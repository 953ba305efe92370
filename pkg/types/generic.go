package types

import (
	"fmt"

	"github.com/forge18/luanext-typechecker/pkg/source"
)

// TypeParameter is both the binder declared in a generic parameter list
// (`<T extends string = "x">`) and, by pointer identity, the type used to
// refer to that binder inside the generic's body. Two TypeParameter values
// are only equal to each other if they are the same pointer: this is what
// lets the assignability engine tell "the T from function f" apart from
// "the T from function g" even though both print as "T".
type TypeParameter struct {
	Name       string
	Constraint Type // nil if unconstrained
	Default    Type // nil if no default
	Span       source.Span
}

func (t *TypeParameter) typeTerm() {}
func (t *TypeParameter) String() string {
	if t.Constraint != nil {
		return fmt.Sprintf("%s extends %s", t.Name, t.Constraint.String())
	}
	return t.Name
}
func (t *TypeParameter) Equals(other Type) bool {
	o, ok := other.(*TypeParameter)
	return ok && o == t
}
func (t *TypeParameter) Hash() uint64 {
	return hashString(hashSeed, fmt.Sprintf("tparam:%p", t))
}

// EffectiveConstraint returns the parameter's constraint, or `unknown` if
// it is unconstrained (the usual convention for treating an unconstrained
// parameter's upper bound in assignability checks).
func (t *TypeParameter) EffectiveConstraint() Type {
	if t.Constraint != nil {
		return t.Constraint
	}
	return Unknown
}

// Keyof is the lazy `keyof T` operator; it is only evaluated (by
// pkg/typeenv) once T is fully grounded.
type Keyof struct {
	Operand Type
	Span    source.Span
}

func (k *Keyof) typeTerm()      {}
func (k *Keyof) String() string { return "keyof " + k.Operand.String() }
func (k *Keyof) Equals(other Type) bool {
	o, ok := other.(*Keyof)
	return ok && k.Operand.Equals(o.Operand)
}
func (k *Keyof) Hash() uint64 { return mix(hashString(hashSeed, "keyof"), k.Operand.Hash()) }

// IndexedAccess is the lazy `T[K]` operator.
type IndexedAccess struct {
	Object Type
	Key    Type
	Span   source.Span
}

func (a *IndexedAccess) typeTerm()      {}
func (a *IndexedAccess) String() string { return a.Object.String() + "[" + a.Key.String() + "]" }
func (a *IndexedAccess) Equals(other Type) bool {
	o, ok := other.(*IndexedAccess)
	return ok && a.Object.Equals(o.Object) && a.Key.Equals(o.Key)
}
func (a *IndexedAccess) Hash() uint64 {
	return mix(mix(hashString(hashSeed, "idxaccess"), a.Object.Hash()), a.Key.Hash())
}

// Conditional is `Check extends Extends ? Then : Else`. When Check is a
// bare TypeParameter, evaluation distributes over union members (see
// pkg/typeenv).
type Conditional struct {
	Check   Type
	Extends Type
	Then    Type
	Else    Type
	Span    source.Span
}

func (c *Conditional) typeTerm() {}
func (c *Conditional) String() string {
	return fmt.Sprintf("%s extends %s ? %s : %s", c.Check.String(), c.Extends.String(), c.Then.String(), c.Else.String())
}
func (c *Conditional) Equals(other Type) bool {
	o, ok := other.(*Conditional)
	return ok && c.Check.Equals(o.Check) && c.Extends.Equals(o.Extends) &&
		c.Then.Equals(o.Then) && c.Else.Equals(o.Else)
}
func (c *Conditional) Hash() uint64 {
	h := hashString(hashSeed, "cond")
	h = mix(h, c.Check.Hash())
	h = mix(h, c.Extends.Hash())
	h = mix(h, c.Then.Hash())
	return mix(h, c.Else.Hash())
}

// Modifier is a tri-state +/-/unchanged toggle used by Mapped for the
// `readonly`/`?` modifiers (`{ +readonly [K in T]: ... }`).
type Modifier int

const (
	ModifierUnchanged Modifier = iota
	ModifierAdd
	ModifierRemove
)

// Mapped is `{ [K in KeySource]: ValueTemplate }`, optionally remapping
// keys (`as`) and toggling readonly/optional.
type Mapped struct {
	KeyParam       *TypeParameter // bound inside ValueTemplate/KeyRemap, ranges over KeySource
	KeySource      Type           // must evaluate to a union of keys (string/number literals)
	ValueTemplate  Type           // may reference KeyParam
	KeyRemap       Type           // optional `as` clause template; nil if absent
	ReadonlyMod    Modifier
	OptionalMod    Modifier
	Span           source.Span
}

func (m *Mapped) typeTerm() {}
func (m *Mapped) String() string {
	mod := ""
	switch m.ReadonlyMod {
	case ModifierAdd:
		mod = "+readonly "
	case ModifierRemove:
		mod = "-readonly "
	}
	opt := ""
	switch m.OptionalMod {
	case ModifierAdd:
		opt = "?"
	case ModifierRemove:
		opt = "-?"
	}
	return fmt.Sprintf("{ %s[%s in %s]%s: %s }", mod, m.KeyParam.Name, m.KeySource.String(), opt, m.ValueTemplate.String())
}
func (m *Mapped) Equals(other Type) bool {
	o, ok := other.(*Mapped)
	if !ok {
		return false
	}
	return m.KeySource.Equals(o.KeySource) && m.ValueTemplate.Equals(o.ValueTemplate) &&
		m.ReadonlyMod == o.ReadonlyMod && m.OptionalMod == o.OptionalMod
}
func (m *Mapped) Hash() uint64 {
	h := hashString(hashSeed, "mapped")
	h = mix(h, m.KeySource.Hash())
	return mix(h, m.ValueTemplate.Hash())
}
