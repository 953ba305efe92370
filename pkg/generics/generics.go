// Package generics implements substitution and constraint checking for
// parametric types and functions; call-site type-argument inference lives
// in pkg/checker (call.go's unify). It is
// deliberately independent of pkg/assign (which would create an import
// cycle through pkg/typeenv): callers that need an assignability check pass
// one in as a callback.
//
// Grounded on the teacher's pkg/types/generic.go substituteType/
// substituteSignature pair, generalized to this repo's larger type-term
// algebra and made hygienic per spec.md's substitution rule.
package generics

import (
	"fmt"

	"github.com/forge18/luanext-typechecker/pkg/types"
)

// Substitution maps a type parameter (by pointer identity) to the concrete
// type replacing it.
type Substitution map[*types.TypeParameter]types.Type

// ArityError is returned by BuildSubstitution when more type arguments are
// supplied than the parameter list declares.
type ArityError struct {
	Want, Got int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("generic arity mismatch: want at most %d, got %d", e.Want, e.Got)
}

// BuildSubstitution pairs each type parameter with its corresponding
// argument. Parameters left unpaired take their declared default, or
// types.Unknown if they have none, per spec.md §4.5.
func BuildSubstitution(params []*types.TypeParameter, args []types.Type) (Substitution, error) {
	if len(args) > len(params) {
		return nil, &ArityError{Want: len(params), Got: len(args)}
	}
	subst := make(Substitution, len(params))
	for i, p := range params {
		if i < len(args) {
			subst[p] = args[i]
			continue
		}
		if p.Default != nil {
			subst[p] = p.Default
			continue
		}
		subst[p] = types.Unknown
	}
	return subst, nil
}

// AssignableFunc reports whether src is assignable to dst; supplied by the
// caller (pkg/assign) so this package need not import it.
type AssignableFunc func(src, dst types.Type) bool

// ConstraintViolation names the parameter whose constraint the substituted
// argument failed to satisfy.
type ConstraintViolation struct {
	Param *types.TypeParameter
	Arg   types.Type
}

// CheckConstraints verifies every substituted argument is assignable to its
// parameter's effective constraint, returning one violation per failure.
func CheckConstraints(subst Substitution, params []*types.TypeParameter, assignable AssignableFunc) []ConstraintViolation {
	var violations []ConstraintViolation
	for _, p := range params {
		arg, ok := subst[p]
		if !ok {
			continue
		}
		if !assignable(arg, p.EffectiveConstraint()) {
			violations = append(violations, ConstraintViolation{Param: p, Arg: arg})
		}
	}
	return violations
}

// Instantiate applies subst throughout t. A function, constructor or
// signature's own type parameters are never substituted beneath it (see
// hygienicRename); no type parameter is renamed, so a replacement type
// that itself mentions one of those own parameters is inserted as is.
// Types with no type-parameter leaves (primitives, literals,
// class/interface/enum declarations referenced only by name) are returned
// unchanged.
func Instantiate(t types.Type, subst Substitution) types.Type {
	return instantiate(t, subst, make(map[*types.TypeParameter]*types.TypeParameter))
}

// renamed is threaded through the walk and handed to hygienicRename; no
// entry is ever added to it.
func instantiate(t types.Type, subst Substitution, renamed map[*types.TypeParameter]*types.TypeParameter) types.Type {
	if t == nil {
		return nil
	}
	switch v := t.(type) {
	case *types.TypeParameter:
		if repl, ok := subst[v]; ok {
			return repl
		}
		return v

	case *types.ArrayType:
		return types.NewArrayType(instantiate(v.Element, subst, renamed))

	case *types.TupleType:
		elems := make([]types.Type, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = instantiate(e, subst, renamed)
		}
		var rest types.Type
		if v.RestElement != nil {
			rest = instantiate(v.RestElement, subst, renamed)
		}
		return types.NewTupleType(elems, v.Optional, rest)

	case *types.FunctionType:
		freeParams, localSubst := hygienicRename(v.TypeParams, subst, renamed)
		params := make([]types.Param, len(v.Params))
		for i, p := range v.Params {
			params[i] = types.Param{Name: p.Name, Type: instantiate(p.Type, localSubst, renamed), Optional: p.Optional, Rest: p.Rest}
		}
		var this types.Type
		if v.ThisParam != nil {
			this = instantiate(v.ThisParam, localSubst, renamed)
		}
		return &types.FunctionType{
			TypeParams: freeParams,
			Params:     params,
			Return:     instantiate(v.Return, localSubst, renamed),
			ThisParam:  this,
		}

	case *types.ConstructorType:
		freeParams, localSubst := hygienicRename(v.TypeParams, subst, renamed)
		params := make([]types.Param, len(v.Params))
		for i, p := range v.Params {
			params[i] = types.Param{Name: p.Name, Type: instantiate(p.Type, localSubst, renamed), Optional: p.Optional, Rest: p.Rest}
		}
		return &types.ConstructorType{
			TypeParams: freeParams,
			Params:     params,
			Constructs: instantiate(v.Constructs, localSubst, renamed),
		}

	case *types.ObjectType:
		out := types.NewObjectType()
		for name, prop := range v.Properties {
			out.Properties[name] = &types.Property{
				Type:       instantiate(prop.Type, subst, renamed),
				Optional:   prop.Optional,
				Readonly:   prop.Readonly,
				Visibility: prop.Visibility,
			}
		}
		if v.Index != nil {
			out.Index = &types.IndexSignature{KeyKind: v.Index.KeyKind, Value: instantiate(v.Index.Value, subst, renamed)}
		}
		for _, sig := range v.CallSignatures {
			out.CallSignatures = append(out.CallSignatures, instantiateSignature(sig, subst, renamed))
		}
		for _, sig := range v.ConstructSignatures {
			out.ConstructSignatures = append(out.ConstructSignatures, instantiateSignature(sig, subst, renamed))
		}
		return out

	case *types.UnionType:
		members := make([]types.Type, len(v.Members))
		for i, m := range v.Members {
			members[i] = instantiate(m, subst, renamed)
		}
		return types.NewUnionType(members...)

	case *types.IntersectionType:
		members := make([]types.Type, len(v.Members))
		for i, m := range v.Members {
			members[i] = instantiate(m, subst, renamed)
		}
		return types.NewIntersectionType(members...)

	case *types.Keyof:
		return &types.Keyof{Operand: instantiate(v.Operand, subst, renamed)}

	case *types.IndexedAccess:
		return &types.IndexedAccess{Object: instantiate(v.Object, subst, renamed), Key: instantiate(v.Key, subst, renamed)}

	case *types.Conditional:
		return &types.Conditional{
			Check:   instantiate(v.Check, subst, renamed),
			Extends: instantiate(v.Extends, subst, renamed),
			Then:    instantiate(v.Then, subst, renamed),
			Else:    instantiate(v.Else, subst, renamed),
		}

	case *types.Mapped:
		return &types.Mapped{
			KeyParam:      v.KeyParam,
			KeySource:     instantiate(v.KeySource, subst, renamed),
			ValueTemplate: instantiate(v.ValueTemplate, subst, renamed),
			KeyRemap:      instantiate(v.KeyRemap, subst, renamed),
			ReadonlyMod:   v.ReadonlyMod,
			OptionalMod:   v.OptionalMod,
		}

	case *types.AliasType:
		if v.Resolved == nil {
			return t
		}
		return &types.AliasType{Name: v.Name, Resolved: instantiate(v.Resolved, subst, renamed), Span: v.Span}

	case *types.LiteralType, *types.Primitive, *types.Reference, *types.ThisType,
		*types.TypePredicateType, *types.ClassType, *types.InterfaceType,
		*types.EnumType:
		// No type-parameter leaves reachable without re-entering the named
		// type environment; substitution stops at the reference boundary.
		return t
	}
	return t
}

func instantiateSignature(sig *types.Signature, subst Substitution, renamed map[*types.TypeParameter]*types.TypeParameter) *types.Signature {
	freeParams, localSubst := hygienicRename(sig.TypeParams, subst, renamed)
	params := make([]types.Param, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = types.Param{Name: p.Name, Type: instantiate(p.Type, localSubst, renamed), Optional: p.Optional, Rest: p.Rest}
	}
	return &types.Signature{TypeParams: freeParams, Params: params, Return: instantiate(sig.Return, localSubst, renamed)}
}

// hygienicRename returns ownParams unchanged, along with subst restricted
// so that none of ownParams is replaced by the walk beneath it — a nested
// generic's own parameters are always freely quantified within its own
// body, never substituted by an enclosing instantiation.
//
// Because every TypeParameter in this representation is a distinct pointer
// minted once at its declaration site (see pkg/types' identity-based
// Equals), the classic capture scenario the "hygienic substitution" rule
// guards against — an inner binder textually reusing an outer binder's
// name and accidentally being replaced by the outer substitution — cannot
// happen here: pointer identity already keeps the two apart. The only
// residual case is a substitution map that (incorrectly) targets one of
// ownParams directly, which this guard strips before recursing so a
// caller's mistake can't leak into the nested scope.
func hygienicRename(ownParams []*types.TypeParameter, subst Substitution, renamed map[*types.TypeParameter]*types.TypeParameter) ([]*types.TypeParameter, Substitution) {
	if len(ownParams) == 0 {
		return nil, subst
	}
	shadowed := false
	for _, p := range ownParams {
		if _, ok := subst[p]; ok {
			shadowed = true
			break
		}
	}
	if !shadowed {
		return ownParams, subst
	}
	local := make(Substitution, len(subst))
	for k, v := range subst {
		local[k] = v
	}
	for _, p := range ownParams {
		delete(local, p)
	}
	return ownParams, local
}
