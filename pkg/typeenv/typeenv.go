// Package typeenv is the named-type registry: it stores type declarations
// by name, resolves references (substituting type arguments through
// pkg/generics), and evaluates the utility-type operators and lazy type
// operators (Keyof, IndexedAccess, Conditional, Mapped) once their operands
// are ground. It generalizes the teacher's checker.Environment /
// module_environment.go split into a standalone package so pkg/checker and
// pkg/modules can share one resolution story.
package typeenv

import (
	"fmt"

	"github.com/forge18/luanext-typechecker/pkg/generics"
	"github.com/forge18/luanext-typechecker/pkg/types"
)

// Entry is a registered named type plus enough metadata to resolve
// references to it (its own type-parameter list, if generic).
type Entry struct {
	Name       string
	TypeParams []*types.TypeParameter
	Type       types.Type
	// Forward marks an interface registered as an empty forward
	// declaration; a later non-empty declaration of the same name (with no
	// type parameters and no extends clause) merges into it in place
	// rather than conflicting.
	Forward bool
}

// Env is one named-type scope. Root holds the standard library; each
// module gets a child Env so lookups fall through to the shared root
// without copying it, mirroring the teacher's per-module extension of a
// shared root environment.
type Env struct {
	parent  *Env
	types   map[string]*Entry
	// resolving guards recursive resolve() calls against named-type
	// cycles (e.g. `type A = { next: A }` cannot be flattened, but must
	// not infinite-loop either).
	resolving map[string]bool
}

// NewRoot creates the session-root environment, populated later by the
// standard library loader.
func NewRoot() *Env {
	return &Env{types: make(map[string]*Entry), resolving: make(map[string]bool)}
}

// NewChild creates a module-scoped environment whose lookups fall through
// to parent when a name is not declared locally.
func (e *Env) NewChild() *Env {
	return &Env{parent: e, types: make(map[string]*Entry), resolving: make(map[string]bool)}
}

// DuplicateTypeError reports a name collision that isn't a legal
// forward-declaration merge.
type DuplicateTypeError struct {
	Name string
}

func (d *DuplicateTypeError) Error() string { return "duplicate type declaration: " + d.Name }

// RegisterType binds name to t in this environment. If an existing entry
// for name is an empty forward-declared interface (no type params, no
// extends) and the incoming type is a non-empty interface with the same
// shape requirement, the two merge in place; any other collision is a
// DuplicateTypeError.
func (e *Env) RegisterType(name string, t types.Type, typeParams []*types.TypeParameter) error {
	if existing, ok := e.types[name]; ok {
		if merged, ok := tryMergeForwardDeclaration(existing, t); ok {
			e.types[name] = merged
			return nil
		}
		return &DuplicateTypeError{Name: name}
	}
	forward := false
	if iface, ok := t.(*types.InterfaceType); ok {
		forward = iface.Forward
	}
	e.types[name] = &Entry{Name: name, TypeParams: typeParams, Type: t, Forward: forward}
	return nil
}

func tryMergeForwardDeclaration(existing *Entry, incoming types.Type) (*Entry, bool) {
	existingIface, ok := existing.Type.(*types.InterfaceType)
	if !ok || !existing.Forward || len(existing.TypeParams) != 0 {
		return nil, false
	}
	incomingIface, ok := incoming.(*types.InterfaceType)
	if !ok || len(incomingIface.TypeParams) != 0 || len(incomingIface.Extends) != 0 {
		return nil, false
	}
	// Merge members in place onto the existing pointer so every reference
	// already handed out (by earlier resolve() calls) observes the merge.
	for name, prop := range incomingIface.Members.Properties {
		existingIface.Members.Properties[name] = prop
	}
	existingIface.Forward = false
	return &Entry{Name: existing.Name, TypeParams: existing.TypeParams, Type: existingIface}, true
}

// LookupType returns the entry for name, searching this environment then
// each ancestor in turn.
func (e *Env) LookupType(name string) (*Entry, bool) {
	for env := e; env != nil; env = env.parent {
		if entry, ok := env.types[name]; ok {
			return entry, true
		}
	}
	return nil, false
}

// ResolutionError is returned by Resolve when a reference names an unknown
// type or supplies the wrong number of type arguments.
type ResolutionError struct {
	Name   string
	Reason string
}

func (r *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s: %s", r.Name, r.Reason)
}

// Resolve looks up ref.Name, substitutes ref.TypeArgs through the generics
// engine, and returns the ground type. Utility-type names dispatch to
// EvalUtility instead of ordinary substitution. A reference to a name
// currently being resolved (a structural cycle reached through named
// references) returns the entry's own type unsubstituted rather than
// recursing forever — safe because named references, not raw pointers,
// carry cycles (see spec.md's cyclic type graph note reflected in
// pkg/types' Reference kind).
func (e *Env) Resolve(ref *types.Reference) (types.Type, error) {
	if isUtilityName(ref.Name) {
		return e.EvalUtility(ref.Name, ref.TypeArgs, ref.Span)
	}
	entry, ok := e.LookupType(ref.Name)
	if !ok {
		return nil, &ResolutionError{Name: ref.Name, Reason: "unknown type"}
	}
	if e.resolving[ref.Name] {
		return entry.Type, nil
	}
	if len(entry.TypeParams) == 0 {
		return entry.Type, nil
	}
	if len(ref.TypeArgs) > len(entry.TypeParams) {
		return nil, &ResolutionError{Name: ref.Name, Reason: "too many type arguments"}
	}
	e.resolving[ref.Name] = true
	defer delete(e.resolving, ref.Name)

	subst, err := generics.BuildSubstitution(entry.TypeParams, ref.TypeArgs)
	if err != nil {
		return nil, &ResolutionError{Name: ref.Name, Reason: err.Error()}
	}
	return generics.Instantiate(entry.Type, subst), nil
}
