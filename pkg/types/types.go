// Package types implements the type term algebra: construction, structural
// equality, hashing, and display formatting for every type variant the
// checker manipulates. It does not implement assignability (see pkg/assign)
// or generic instantiation (see pkg/generics); it only builds and compares
// type terms.
package types

import (
	"fmt"
	"hash/maphash"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/forge18/luanext-typechecker/pkg/source"
)

// Type is implemented by every type term variant.
type Type interface {
	// String renders the type for diagnostics; output is used verbatim.
	String() string
	// Equals reports structural equivalence, ignoring source spans.
	Equals(other Type) bool
	// Hash returns a deterministic structural hash, ignoring source spans.
	Hash() uint64

	// typeTerm is unexported so only this package can add new variants.
	typeTerm()
}

func hashString(seed maphash.Seed, s string) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	h.WriteString(s)
	return h.Sum64()
}

var hashSeed = maphash.MakeSeed()

func mix(a, b uint64) uint64 {
	// A cheap, deterministic order-sensitive combiner (splitmix-ish).
	a ^= b + 0x9e3779b97f4a7c15 + (a << 6) + (a >> 2)
	return a
}

func mixUnordered(hs []uint64) uint64 {
	// Sum-based combination is order independent, matching the fact that
	// union/intersection member sets and object property sets are
	// unordered for equality purposes.
	var total uint64
	for _, h := range hs {
		total += h*2654435761 + 1
	}
	return total
}

// --- Primitive ---

// Primitive is one of the fixed base kinds; instances are singletons so
// pointer identity implies equality.
type Primitive struct {
	Name string
	Span source.Span
}

func (p *Primitive) typeTerm()      {}
func (p *Primitive) String() string { return p.Name }
func (p *Primitive) Equals(other Type) bool {
	o, ok := other.(*Primitive)
	return ok && o == p
}
func (p *Primitive) Hash() uint64 { return hashString(hashSeed, "prim:"+p.Name) }

var (
	Nil       = &Primitive{Name: "nil"}
	Boolean   = &Primitive{Name: "boolean"}
	Number    = &Primitive{Name: "number"}
	String    = &Primitive{Name: "string"}
	Any       = &Primitive{Name: "any"}
	Unknown   = &Primitive{Name: "unknown"}
	Void      = &Primitive{Name: "void"}
	Never     = &Primitive{Name: "never"}
)

// IsPrimitive reports whether t is one of the fixed singleton primitives.
func IsPrimitive(t Type) bool {
	_, ok := t.(*Primitive)
	return ok
}

// --- Literal ---

// LiteralKind distinguishes the primitive domain a literal value belongs to.
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBoolean
)

// LiteralType is a singleton type carrying one concrete value.
type LiteralType struct {
	Kind    LiteralKind
	Number  float64
	Text    string
	Boolean bool
	Span    source.Span
}

func NewNumberLiteral(n float64) *LiteralType { return &LiteralType{Kind: LiteralNumber, Number: n} }

// NewStringLiteral NFC-normalizes s before wrapping it, matching
// pkg/ident's identifier interning: two textually-different-but-
// canonically-equal string literals (combining marks vs. precomposed
// characters) must compare equal via LiteralType.Equals, which compares
// the stored Go string directly.
func NewStringLiteral(s string) *LiteralType { return &LiteralType{Kind: LiteralString, Text: norm.NFC.String(s)} }
func NewBooleanLiteral(b bool) *LiteralType  { return &LiteralType{Kind: LiteralBoolean, Boolean: b} }

func (l *LiteralType) typeTerm() {}
func (l *LiteralType) String() string {
	switch l.Kind {
	case LiteralNumber:
		return strconv.FormatFloat(l.Number, 'g', -1, 64)
	case LiteralString:
		return strconv.Quote(l.Text)
	case LiteralBoolean:
		return strconv.FormatBool(l.Boolean)
	}
	return "<literal>"
}
func (l *LiteralType) Equals(other Type) bool {
	o, ok := other.(*LiteralType)
	if !ok || o.Kind != l.Kind {
		return false
	}
	switch l.Kind {
	case LiteralNumber:
		return l.Number == o.Number
	case LiteralString:
		return l.Text == o.Text
	case LiteralBoolean:
		return l.Boolean == o.Boolean
	}
	return false
}
func (l *LiteralType) Hash() uint64 { return hashString(hashSeed, "lit:"+l.String()) }

// WidenedPrimitive returns the base primitive a literal widens to.
func (l *LiteralType) WidenedPrimitive() *Primitive {
	switch l.Kind {
	case LiteralNumber:
		return Number
	case LiteralString:
		return String
	case LiteralBoolean:
		return Boolean
	}
	return Any
}

// GetWidenedType converts literal types to their base primitive; any other
// type passes through unchanged. Used when a `local` declaration without an
// annotation and without `const` widens its inferred type.
func GetWidenedType(t Type) Type {
	if lit, ok := t.(*LiteralType); ok {
		return lit.WidenedPrimitive()
	}
	return t
}

// --- Reference ---

// Reference is a not-yet-resolved named type lookup, optionally with type
// arguments (e.g. `Array<string>`). The type environment resolves these.
type Reference struct {
	Name     string
	TypeArgs []Type
	Span     source.Span
}

func (r *Reference) typeTerm() {}
func (r *Reference) String() string {
	if len(r.TypeArgs) == 0 {
		return r.Name
	}
	parts := make([]string, len(r.TypeArgs))
	for i, a := range r.TypeArgs {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", r.Name, strings.Join(parts, ", "))
}
func (r *Reference) Equals(other Type) bool {
	o, ok := other.(*Reference)
	if !ok || o.Name != r.Name || len(o.TypeArgs) != len(r.TypeArgs) {
		return false
	}
	for i, a := range r.TypeArgs {
		if !a.Equals(o.TypeArgs[i]) {
			return false
		}
	}
	return true
}
func (r *Reference) Hash() uint64 {
	h := hashString(hashSeed, "ref:"+r.Name)
	for _, a := range r.TypeArgs {
		h = mix(h, a.Hash())
	}
	return h
}

// --- ThisType ---

// ThisType is the polymorphic receiver marker used inside method bodies and
// fluent-interface return positions.
type ThisType struct {
	Span source.Span
}

func (t *ThisType) typeTerm()      {}
func (t *ThisType) String() string { return "this" }
func (t *ThisType) Equals(other Type) bool {
	_, ok := other.(*ThisType)
	return ok
}
func (t *ThisType) Hash() uint64 { return hashString(hashSeed, "this") }

// --- TypePredicate ---

// TypePredicateType is the return type of a user-defined type guard function,
// e.g. `function isString(v: any): v is string`.
type TypePredicateType struct {
	Subject string // the narrowed parameter's name
	Type    Type
	Span    source.Span
}

func (p *TypePredicateType) typeTerm() {}
func (p *TypePredicateType) String() string {
	return fmt.Sprintf("%s is %s", p.Subject, p.Type.String())
}
func (p *TypePredicateType) Equals(other Type) bool {
	o, ok := other.(*TypePredicateType)
	return ok && o.Subject == p.Subject && p.Type.Equals(o.Type)
}
func (p *TypePredicateType) Hash() uint64 {
	return mix(hashString(hashSeed, "pred:"+p.Subject), p.Type.Hash())
}

// sortedByString is used by the canonical-form constructors so that
// String() output (and therefore diagnostics) is deterministic across runs.
func sortedByString(ts []Type) {
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].String() < ts[j].String() })
}
