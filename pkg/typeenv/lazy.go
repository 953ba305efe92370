package typeenv

import (
	"github.com/forge18/luanext-typechecker/pkg/generics"
	"github.com/forge18/luanext-typechecker/pkg/types"
)

// EvalIndexedAccess evaluates `T[K]` once T and K are ground: K must denote
// one or more property-name string literals (or the index-signature key
// kind), and the result is the union of the corresponding property types.
func (e *Env) EvalIndexedAccess(object, key types.Type) (types.Type, error) {
	obj, ok := asObject(object)
	if !ok {
		return nil, &UtilityError{"IndexedAccess", "object operand must be an object, interface, or class type"}
	}
	if keys, ok := keyLiterals(key); ok {
		var results []types.Type
		for _, k := range keys {
			prop, ok := obj.Properties[k]
			if !ok {
				return nil, &UtilityError{"IndexedAccess", "key " + k + " does not exist on the object type"}
			}
			results = append(results, prop.Type)
		}
		return types.NewUnionType(results...), nil
	}
	if obj.Index != nil {
		wantsString := key == types.String && obj.Index.KeyKind == types.StringKey
		wantsNumber := key == types.Number && obj.Index.KeyKind == types.NumberKey
		if wantsString || wantsNumber {
			return obj.Index.Value, nil
		}
	}
	return nil, &UtilityError{"IndexedAccess", "key type does not index the object type"}
}

// EvalConditional evaluates `Check extends Extends ? Then : Else`. When
// Check is a bare *types.TypeParameter that itself denotes a union (via an
// outer substitution supplying a union for it), evaluation distributes: the
// conditional is evaluated once per union member and the results are
// unioned back together. assignable is the caller-supplied assignability
// predicate (see pkg/generics.AssignableFunc) used for the `extends` test.
func (e *Env) EvalConditional(c *types.Conditional, assignable generics.AssignableFunc) types.Type {
	if u, ok := c.Check.(*types.UnionType); ok {
		var results []types.Type
		for _, member := range u.Members {
			branch := &types.Conditional{Check: member, Extends: c.Extends, Then: c.Then, Else: c.Else}
			results = append(results, e.EvalConditional(branch, assignable))
		}
		return types.NewUnionType(results...)
	}
	if assignable(c.Check, c.Extends) {
		return c.Then
	}
	return c.Else
}

// EvalMapped evaluates `{ [K in KeySource]: ValueTemplate }`, substituting
// KeyParam with each key literal in KeySource's union in turn to produce
// ValueTemplate, and applying the KeyRemap template (if present) to compute
// the resulting property name.
func (e *Env) EvalMapped(m *types.Mapped) (types.Type, error) {
	keys, ok := keyLiterals(m.KeySource)
	if !ok {
		if m.KeySource == types.String || m.KeySource == types.Number {
			out := types.NewObjectType()
			kind := types.StringKey
			if m.KeySource == types.Number {
				kind = types.NumberKey
			}
			subst := generics.Substitution{m.KeyParam: m.KeySource}
			out.Index = &types.IndexSignature{KeyKind: kind, Value: generics.Instantiate(m.ValueTemplate, subst)}
			return out, nil
		}
		return nil, &UtilityError{"Mapped", "key source must be a union of string/number literals, or string/number"}
	}
	out := types.NewObjectType()
	for _, k := range keys {
		subst := generics.Substitution{m.KeyParam: types.NewStringLiteral(k)}
		valueType := generics.Instantiate(m.ValueTemplate, subst)
		name := k
		if m.KeyRemap != nil {
			remapped := generics.Instantiate(m.KeyRemap, subst)
			if lit, ok := remapped.(*types.LiteralType); ok && lit.Kind == types.LiteralString {
				name = lit.Text
			}
		}
		out.Properties[name] = &types.Property{
			Type:     valueType,
			Optional: m.OptionalMod == types.ModifierAdd,
			Readonly: m.ReadonlyMod == types.ModifierAdd,
		}
	}
	return out, nil
}
