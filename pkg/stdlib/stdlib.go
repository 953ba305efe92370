// Package stdlib seeds a session-root type environment with the fixed
// catalogue of ambient named types every module can reference without an
// import: Array<T>, Record<K, V>, and Error. Grounded on
// original_source/src/state/stdlib_loader.rs's "parse stdlib files, caller
// populates the environment" separation of concerns, adapted to this
// repo's shape: the Rust prototype hands its caller unprocessed ASTs for a
// runtime VM to register; this checker has no such later stage, so the
// loader builds and registers typeenv entries directly instead of
// round-tripping through source text and a throwaway parse. The primitive
// keywords (number, string, boolean, nil, any, unknown, never, void) and
// the utility-type operators (Pick, Omit, Partial, ...) are resolved
// elsewhere — pkg/checker special-cases the primitives by keyword and
// pkg/typeenv special-cases the utility names — so neither belongs in this
// catalogue.
package stdlib

import (
	"github.com/forge18/luanext-typechecker/pkg/types"
	"github.com/forge18/luanext-typechecker/pkg/typeenv"
)

// Version selects a target Lua dialect version, mirroring the Rust
// prototype's per-version stdlib split (LuaVersion 5.1-5.4). The current
// catalogue does not vary by version; Loader keeps the field so a later
// version-specific entry (e.g. a 5.4-only integer-subtype alias) has
// somewhere to branch without changing the StdlibLoader contract.
type Version string

const (
	Lua51 Version = "5.1"
	Lua52 Version = "5.2"
	Lua53 Version = "5.3"
	Lua54 Version = "5.4"
)

// Loader implements checker.StdlibLoader: it seeds a session-root
// environment with the ambient catalogue before any module is checked.
type Loader struct {
	version Version
}

// New returns a Loader targeting version. An unrecognized version falls
// back to Lua54, the dialect's default target.
func New(version Version) *Loader {
	switch version {
	case Lua51, Lua52, Lua53, Lua54:
		return &Loader{version: version}
	default:
		return &Loader{version: Lua54}
	}
}

// Load registers the ambient catalogue into root. It never partially
// registers: RegisterType only fails on a name collision, and the
// catalogue's names are fixed and distinct, so an error here means the
// session root was reused across loads rather than freshly created by
// typeenv.NewRoot.
func (l *Loader) Load(root *typeenv.Env) error {
	for _, reg := range catalogue() {
		if err := root.RegisterType(reg.name, reg.typ, reg.params); err != nil {
			return err
		}
	}
	return nil
}

type registration struct {
	name   string
	typ    types.Type
	params []*types.TypeParameter
}

// catalogue builds the fixed set of ambient named types. Built fresh per
// Load call rather than once as package-level state, since TypeParameter
// equality is pointer identity (pkg/types/generic.go) and two sessions must
// not share the same Array<T>/Record<K,V> binder.
func catalogue() []registration {
	return []registration{
		arrayType(),
		recordType(),
		errorType(),
	}
}

// arrayType declares `Array<T>` as an alias for `T[]`, the named spelling
// of the array literal syntax the parser already accepts directly.
func arrayType() registration {
	elem := &types.TypeParameter{Name: "T"}
	alias := &types.AliasType{Name: "Array", Resolved: types.NewArrayType(elem)}
	return registration{name: "Array", typ: alias, params: []*types.TypeParameter{elem}}
}

// recordType declares `Record<K, V>` as a string-indexed object type with
// uniform value type V. K is constrained to `string | number` to mirror
// the key domains Lua tables actually support; this entry's index
// signature is string-keyed whatever K is. Record is also a utility name,
// so typeenv's Env.Resolve evaluates a `Record<K, V>` reference with
// EvalUtility and never reaches this entry (that evaluator builds a
// number-keyed index for Record<number, V>); the entry is visible through
// LookupType.
func recordType() registration {
	key := &types.TypeParameter{Name: "K", Constraint: types.NewUnionType(types.String, types.Number)}
	value := &types.TypeParameter{Name: "V"}
	obj := types.NewObjectType()
	obj.Index = &types.IndexSignature{KeyKind: types.StringKey, Value: value}
	alias := &types.AliasType{Name: "Record", Resolved: obj}
	return registration{name: "Record", typ: alias, params: []*types.TypeParameter{key, value}}
}

// errorType declares the shape every `pcall`/`error` boundary in the
// dialect's control-flow surface is expected to produce: a message and an
// optional traceback, non-generic.
func errorType() registration {
	obj := types.NewObjectType()
	obj.WithProperty("message", types.String)
	obj.Properties["traceback"] = &types.Property{Type: types.String, Optional: true}
	iface := &types.InterfaceType{Name: "Error", Members: obj}
	return registration{name: "Error", typ: iface}
}
