package checker

import (
	"github.com/forge18/luanext-typechecker/pkg/ast"
	"github.com/forge18/luanext-typechecker/pkg/diagnostics"
	"github.com/forge18/luanext-typechecker/pkg/generics"
	"github.com/forge18/luanext-typechecker/pkg/types"
)

// resolveType converts a parsed TypeExpr into a ground pkg/types.Type,
// resolving named references through the module's type environment.
// Grounded on the teacher's resolveTypeAnnotation switch, generalized to
// this dialect's richer TypeExpr grammar (mapped/conditional/indexed-access
// types the teacher's checker never needed).
func (c *Checker) resolveType(te ast.TypeExpr) types.Type {
	if te == nil {
		return types.Any
	}
	switch n := te.(type) {
	case *ast.NamedTypeExpr:
		return c.resolveNamedType(n)
	case *ast.ObjectTypeExpr:
		return c.resolveObjectType(n)
	case *ast.ArrayTypeExpr:
		return types.NewArrayType(c.resolveType(n.Element))
	case *ast.TupleTypeExpr:
		elems := make([]types.Type, len(n.Elements))
		for i, e := range n.Elements {
			elems[i] = c.resolveType(e)
		}
		var rest types.Type
		if n.Rest != nil {
			rest = c.resolveType(n.Rest)
		}
		return types.NewTupleType(elems, append([]bool{}, n.Optional...), rest)
	case *ast.FunctionTypeExpr:
		return c.resolveFunctionType(n)
	case *ast.UnionTypeExpr:
		members := make([]types.Type, len(n.Members))
		for i, m := range n.Members {
			members[i] = c.resolveType(m)
		}
		return types.NewUnionType(members...)
	case *ast.IntersectionTypeExpr:
		members := make([]types.Type, len(n.Members))
		for i, m := range n.Members {
			members[i] = c.resolveType(m)
		}
		return types.NewIntersectionType(members...)
	case *ast.LiteralTypeExpr:
		switch n.Kind {
		case ast.LiteralTypeNumber:
			return types.NewNumberLiteral(n.Num)
		case ast.LiteralTypeString:
			return types.NewStringLiteral(n.Text)
		default:
			return types.NewBooleanLiteral(n.Bool)
		}
	case *ast.ThisTypeExpr:
		return &types.ThisType{Span: n.Span()}
	case *ast.KeyofTypeExpr:
		operand := c.resolveType(n.Operand)
		result, err := c.env.EvalKeyof(operand, n.Span())
		if err != nil {
			c.errorf(diagnostics.KindUtilityMisapplied, n.Span(), "%s", err.Error())
			return types.Unknown
		}
		return result
	case *ast.IndexedAccessTypeExpr:
		object := c.resolveType(n.Object)
		key := c.resolveType(n.Key)
		result, err := c.env.EvalIndexedAccess(object, key)
		if err != nil {
			c.errorf(diagnostics.KindUnknownMember, n.Span(), "%s", err.Error())
			return types.Unknown
		}
		return result
	case *ast.ConditionalTypeExpr:
		cond := &types.Conditional{
			Check:   c.resolveType(n.Check),
			Extends: c.resolveType(n.Extends),
			Then:    c.resolveType(n.Then),
			Else:    c.resolveType(n.Else),
			Span:    n.Span(),
		}
		return c.env.EvalConditional(cond, c.assign.AssignableFunc())
	case *ast.MappedTypeExpr:
		return c.resolveMappedType(n)
	case *ast.TypePredicateExpr:
		return &types.TypePredicateType{Subject: n.Subject, Type: c.resolveType(n.Target), Span: n.Span()}
	default:
		c.errorf(diagnostics.KindUnknownType, te.Span(), "unrecognized type expression")
		return types.Unknown
	}
}

func (c *Checker) resolveNamedType(n *ast.NamedTypeExpr) types.Type {
	switch n.Name {
	case "number":
		return types.Number
	case "string":
		return types.String
	case "boolean":
		return types.Boolean
	case "nil":
		return types.Nil
	case "any":
		return types.Any
	case "unknown":
		return types.Unknown
	case "never":
		return types.Never
	case "void":
		return types.Void
	}
	args := make([]types.Type, len(n.TypeArgs))
	for i, a := range n.TypeArgs {
		args[i] = c.resolveType(a)
	}
	ref := &types.Reference{Name: n.Name, TypeArgs: args, Span: n.Span()}
	resolved, err := c.env.Resolve(ref)
	if err != nil {
		switch err.(type) {
		case *generics.ArityError:
			c.errorf(diagnostics.KindGenericArityMismatch, n.Span(), "%s", err.Error())
		default:
			c.errorf(diagnostics.KindUnknownType, n.Span(), "%s", err.Error())
		}
		return types.Unknown
	}
	return resolved
}

// unwrapAlias follows a (possibly chained) type alias to its ground
// .Resolved type. A reference to a plain `type P = {...}` alias resolves
// through pkg/typeenv to the *types.AliasType wrapper itself, not its
// contents, so any type assertion that needs to see the shape underneath
// (contextual object-literal checking, among others) must unwrap first.
func unwrapAlias(t types.Type) types.Type {
	for {
		alias, ok := t.(*types.AliasType)
		if !ok || alias.Resolved == nil {
			return t
		}
		t = alias.Resolved
	}
}

func (c *Checker) resolveObjectType(n *ast.ObjectTypeExpr) types.Type {
	obj := types.NewObjectType()
	obj.Span = n.Span()
	for _, p := range n.Properties {
		obj.Properties[p.Name] = &types.Property{
			Type:     c.resolveType(p.Type),
			Optional: p.Optional,
			Readonly: p.Readonly,
		}
	}
	if n.IndexKey != "" {
		kind := types.StringKey
		if n.IndexKey == "number" {
			kind = types.NumberKey
		}
		obj.Index = &types.IndexSignature{KeyKind: kind, Value: c.resolveType(n.IndexValue)}
	}
	return obj
}

func (c *Checker) resolveFunctionType(n *ast.FunctionTypeExpr) types.Type {
	tparams := c.resolveTypeParams(n.TypeParams)
	restore := c.pushTypeParamScope(tparams)
	defer restore()

	params := make([]types.Param, len(n.Params))
	for i, p := range n.Params {
		params[i] = types.Param{Name: p.Name, Type: c.resolveType(p.Type), Optional: p.Optional, Rest: p.Rest}
	}
	return &types.FunctionType{TypeParams: tparams, Params: params, Return: c.resolveType(n.Return), Span: n.Span()}
}

// resolveTypeParams converts a declared generic parameter list into fresh
// *types.TypeParameter pointers. Each call produces distinct pointers even
// for identically-named parameters, which is what gives two unrelated
// generics both called `T` distinct identity in pkg/assign and pkg/generics.
func (c *Checker) resolveTypeParams(ps []ast.TypeParamExpr) []*types.TypeParameter {
	if len(ps) == 0 {
		return nil
	}
	out := make([]*types.TypeParameter, len(ps))
	for i, p := range ps {
		tp := &types.TypeParameter{Name: p.Name}
		if p.Constraint != nil {
			tp.Constraint = c.resolveType(p.Constraint)
		}
		if p.Default != nil {
			tp.Default = c.resolveType(p.Default)
		}
		out[i] = tp
	}
	return out
}

func (c *Checker) resolveMappedType(n *ast.MappedTypeExpr) types.Type {
	keyParam := &types.TypeParameter{Name: n.KeyParam, Constraint: types.String}
	restore := c.pushTypeParamScope([]*types.TypeParameter{keyParam})
	defer restore()

	m := &types.Mapped{
		KeyParam:      keyParam,
		KeySource:     c.resolveType(n.KeySource),
		ValueTemplate: c.resolveType(n.ValueTemplate),
		ReadonlyMod:   types.Modifier(n.ReadonlyMod),
		OptionalMod:   types.Modifier(n.OptionalMod),
		Span:          n.Span(),
	}
	if n.KeyRemap != nil {
		m.KeyRemap = c.resolveType(n.KeyRemap)
	}
	result, err := c.env.EvalMapped(m)
	if err != nil {
		c.errorf(diagnostics.KindUtilityMisapplied, n.Span(), "%s", err.Error())
		return types.Unknown
	}
	return result
}

// pushTypeParamScope registers each of tparams under its own name in a
// child of c.env, so that resolving a generic declaration's own signature
// and body can refer to its type parameters by name — spec.md §4.3's
// per-scope type-parameter frame, which nothing previously supplied: a
// type parameter was created as a fresh *types.TypeParameter but never
// registered anywhere a NamedTypeExpr reference to it could find. The
// returned func restores c.env; callers defer it.
func (c *Checker) pushTypeParamScope(tparams []*types.TypeParameter) func() {
	if len(tparams) == 0 {
		return func() {}
	}
	outer := c.env
	child := outer.NewChild()
	for _, tp := range tparams {
		child.RegisterType(tp.Name, tp, nil)
	}
	c.env = child
	return func() { c.env = outer }
}
