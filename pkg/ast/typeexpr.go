package ast

import "github.com/forge18/luanext-typechecker/pkg/source"

// TypeExpr is the syntax-level counterpart of pkg/types.Type: what the
// parser produces for a type annotation, before the checker's hoisting
// phase resolves names and builds the ground pkg/types.Type term. Kept
// separate from types.Type (rather than storing a partially-resolved
// types.Type the way the teacher's TypeAnnotation does) because this
// checker resolves named types across a whole module in a dedicated first
// pass, so annotations must survive as plain syntax until that pass runs.
type TypeExpr interface {
	Span() source.Span
	typeExprNode()
}

type BaseTypeExpr struct {
	Sp source.Span
}

func (b BaseTypeExpr) Span() source.Span { return b.Sp }
func (b BaseTypeExpr) typeExprNode()     {}

// NamedTypeExpr is a bare or applied name: `number`, `Array<string>`,
// `Pick<U, "name">`.
type NamedTypeExpr struct {
	BaseTypeExpr
	Name     string
	TypeArgs []TypeExpr
}

// ObjectTypeExpr is `{ name: T; readonly other?: U; [key: string]: V }`.
type ObjectTypeExpr struct {
	BaseTypeExpr
	Properties []ObjectTypeProperty
	IndexKey   string // "string", "number", or "" if no index signature
	IndexValue TypeExpr
}

type ObjectTypeProperty struct {
	Name     string
	Type     TypeExpr
	Optional bool
	Readonly bool
}

// ArrayTypeExpr is `T[]`.
type ArrayTypeExpr struct {
	BaseTypeExpr
	Element TypeExpr
}

// TupleTypeExpr is `[T, U, ...V[]]`.
type TupleTypeExpr struct {
	BaseTypeExpr
	Elements []TypeExpr
	Optional []bool
	Rest     TypeExpr
}

// FunctionTypeExpr is `(a: T, b?: U) -> R`.
type FunctionTypeExpr struct {
	BaseTypeExpr
	TypeParams []TypeParamExpr
	Params     []FunctionParam
	Return     TypeExpr
}

// UnionTypeExpr is `T | U | ...`.
type UnionTypeExpr struct {
	BaseTypeExpr
	Members []TypeExpr
}

// IntersectionTypeExpr is `T & U & ...`.
type IntersectionTypeExpr struct {
	BaseTypeExpr
	Members []TypeExpr
}

// LiteralTypeExpr is a literal type: `"x"`, `42`, `true`.
type LiteralTypeExpr struct {
	BaseTypeExpr
	Kind LiteralTypeKind
	Text string
	Num  float64
	Bool bool
}

type LiteralTypeKind int

const (
	LiteralTypeNumber LiteralTypeKind = iota
	LiteralTypeString
	LiteralTypeBoolean
)

// ThisTypeExpr is the bare `this` used as a type annotation.
type ThisTypeExpr struct{ BaseTypeExpr }

// KeyofTypeExpr is the unary `keyof T`.
type KeyofTypeExpr struct {
	BaseTypeExpr
	Operand TypeExpr
}

// IndexedAccessTypeExpr is `T[K]`.
type IndexedAccessTypeExpr struct {
	BaseTypeExpr
	Object, Key TypeExpr
}

// ConditionalTypeExpr is `Check extends Extends ? Then : Else`.
type ConditionalTypeExpr struct {
	BaseTypeExpr
	Check, Extends, Then, Else TypeExpr
}

// MappedTypeExpr is `{ [K in KeySource]: ValueTemplate }`, with optional
// `as` key remap and `±readonly`/`±optional` modifiers.
type MappedTypeExpr struct {
	BaseTypeExpr
	KeyParam      string
	KeySource     TypeExpr
	ValueTemplate TypeExpr
	KeyRemap      TypeExpr
	ReadonlyMod   ModifierExpr
	OptionalMod   ModifierExpr
}

type ModifierExpr int

const (
	ModExprUnchanged ModifierExpr = iota
	ModExprAdd
	ModExprRemove
)

// TypePredicateExpr is the `v is T` return-type annotation of a
// user-defined type guard function.
type TypePredicateExpr struct {
	BaseTypeExpr
	Subject string
	Target  TypeExpr
}
