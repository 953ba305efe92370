// Package symbols implements the lexical scope chain the checker walks
// while hoisting declarations and resolving identifiers. It generalizes
// the teacher's checker.Environment into a standalone package so the type
// environment and the inference visitor can share one notion of scope
// without an import cycle between them.
package symbols

import (
	"github.com/forge18/luanext-typechecker/pkg/source"
	"github.com/forge18/luanext-typechecker/pkg/types"
)

// Kind classifies what a Symbol names, mostly so overload-group merging and
// shadowing diagnostics can special-case functions.
type Kind int

const (
	KindVar Kind = iota
	KindFunction
	KindType
	KindClass
	KindInterface
	KindEnum
	KindModule
	KindParameter
)

// Symbol is one bound name: its declared type, whether later assignment
// widens or narrows it, and provenance for diagnostics.
type Symbol struct {
	Name       string
	Kind       Kind
	Type       types.Type
	Mutable    bool
	Exported   bool
	TypeOnly   bool // declared via `type` re-export or type-only import
	DeclSpan   source.Span
	// Overloads holds additional call signatures declared under the same
	// name; only meaningful when Kind == KindFunction.
	Overloads []types.Type
}

// ScopeID is a stable per-scope identifier, mostly for debugging and for
// the narrowing engine's binding of facts to the scope they were learned in.
type ScopeID uint32

// Scope is one lexical frame: a name -> Symbol map plus a link to its
// enclosing scope, mirroring the teacher's Environment{symbols, outer}
// shape.
type Scope struct {
	id      ScopeID
	symbols map[string]*Symbol
	outer   *Scope
	// isModuleTop marks the outermost scope of a module body, where
	// exported symbols live and ShadowedExport applies.
	isModuleTop bool
}

// Table owns the whole scope chain for one module being checked: it hands
// out fresh Scope frames and tracks the frame currently in focus.
type Table struct {
	current *Scope
	nextID  ScopeID
}

// NewTable creates a table with a single module-top scope already open.
func NewTable() *Table {
	t := &Table{}
	root := t.newScope(nil)
	root.isModuleTop = true
	t.current = root
	return t
}

func (t *Table) newScope(outer *Scope) *Scope {
	t.nextID++
	return &Scope{id: t.nextID, symbols: make(map[string]*Symbol), outer: outer}
}

// EnterScope pushes a fresh child scope and makes it current.
func (t *Table) EnterScope() *Scope {
	t.current = t.newScope(t.current)
	return t.current
}

// ExitScope pops the current scope back to its parent. Calling it on the
// module-top scope is a programmer error and panics, since there is
// nothing to pop to.
func (t *Table) ExitScope() {
	if t.current.outer == nil {
		panic("symbols: ExitScope called on module-top scope")
	}
	t.current = t.current.outer
}

// CurrentScopeID reports the identity of the scope currently in focus.
func (t *Table) CurrentScopeID() ScopeID { return t.current.id }

// AtModuleTop reports whether the current scope is the module's top level.
func (t *Table) AtModuleTop() bool { return t.current.isModuleTop }

// DuplicateError is returned by Declare when a name collides in the same
// scope without qualifying for overload-group merging.
type DuplicateError struct {
	Name     string
	Existing *Symbol
}

func (e *DuplicateError) Error() string {
	return "duplicate declaration of " + e.Name
}

// Declare binds name to sym in the current scope. Two function-kind
// symbols with the same name in the same scope merge into one overload
// group instead of conflicting, provided sym's call signature is
// distinguishable from every signature already in the group (spec.md
// §4.2) — declaring the exact same signature twice under one name is a
// genuine duplicate, not an overload, and still raises DuplicateError.
func (t *Table) Declare(name string, sym *Symbol) error {
	if existing, ok := t.current.symbols[name]; ok {
		if existing.Kind == KindFunction && sym.Kind == KindFunction && signaturesDistinguishable(existing, sym) {
			existing.Overloads = append(existing.Overloads, sym.Type)
			return nil
		}
		return &DuplicateError{Name: name, Existing: existing}
	}
	t.current.symbols[name] = sym
	return nil
}

// signaturesDistinguishable reports whether sym's call signature can be
// told apart from every signature already declared under existing's name
// — existing's own type plus any overloads already merged into it — per
// spec.md §4.2's "provided their call signatures are distinguishable"
// qualifier. Two signatures are distinguishable if they differ in
// parameter count or in the type of at least one corresponding
// parameter; a difference in return type alone does not distinguish
// them, since nothing at a call site selects an overload by return type.
func signaturesDistinguishable(existing, sym *Symbol) bool {
	newSig, ok := sym.Type.(*types.FunctionType)
	if !ok {
		return true
	}
	candidates := append([]types.Type{existing.Type}, existing.Overloads...)
	for _, cand := range candidates {
		sig, ok := cand.(*types.FunctionType)
		if !ok {
			continue
		}
		if !paramListsDiffer(sig, newSig) {
			return false
		}
	}
	return true
}

func paramListsDiffer(a, b *types.FunctionType) bool {
	if len(a.Params) != len(b.Params) {
		return true
	}
	for i, p := range a.Params {
		if !p.Type.Equals(b.Params[i].Type) {
			return true
		}
	}
	return false
}

// CheckShadowsReExport reports whether declaring `name` for local export at
// module top would shadow a name already re-exported (via `export * from`
// or `export {x} from`) from another module; it only looks name up in
// reExported. Nothing in this repository calls it: pkg/checker tests its
// own re-exported set directly when a module-top local binds and reports
// ShadowedExport as a warning there.
func (t *Table) CheckShadowsReExport(name string, reExported map[string]bool) bool {
	return reExported[name]
}

// Lookup searches the current scope, then each enclosing scope in turn.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	for s := t.current; s != nil; s = s.outer {
		if sym, ok := s.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupLocal searches only the current scope, without walking outward.
// Used by the hoisting pass to detect same-scope redeclaration.
func (t *Table) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := t.current.symbols[name]
	return sym, ok
}

// AllVisible returns every symbol visible from the current scope, innermost
// declarations taking precedence over outer ones of the same name. Used by
// the narrowing engine to snapshot the environment before branching and by
// diagnostics that list "did you mean" candidates.
func (t *Table) AllVisible() map[string]*Symbol {
	out := make(map[string]*Symbol)
	chain := []*Scope{}
	for s := t.current; s != nil; s = s.outer {
		chain = append(chain, s)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for name, sym := range chain[i].symbols {
			out[name] = sym
		}
	}
	return out
}

// ModuleExports returns the exported symbols declared directly in the
// module-top scope, walking up from the current scope to find it.
func (t *Table) ModuleExports() map[string]*Symbol {
	top := t.current
	for top.outer != nil {
		top = top.outer
	}
	out := make(map[string]*Symbol)
	for name, sym := range top.symbols {
		if sym.Exported {
			out[name] = sym
		}
	}
	return out
}
