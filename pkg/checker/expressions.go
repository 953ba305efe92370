package checker

import (
	"github.com/forge18/luanext-typechecker/pkg/ast"
	"github.com/forge18/luanext-typechecker/pkg/diagnostics"
	"github.com/forge18/luanext-typechecker/pkg/source"
	"github.com/forge18/luanext-typechecker/pkg/symbols"
	"github.com/forge18/luanext-typechecker/pkg/types"
)

// infer computes expr's type bottom-up with no contextual expectation,
// caching the result on the node the way the teacher's checker caches onto
// its parser.Expression via SetComputedType. Grounded on the teacher's
// checkExpression dispatch in expressions.go, generalized to this
// dialect's operator set and bidirectional check() companion.
func (c *Checker) infer(expr ast.Expression) types.Type {
	if expr == nil {
		return types.Unknown
	}
	if cached := expr.ComputedType(); cached != nil {
		return cached
	}
	t := c.inferUncached(expr)
	expr.SetComputedType(t)
	return t
}

func (c *Checker) inferUncached(expr ast.Expression) types.Type {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return types.NewNumberLiteral(e.Value)
	case *ast.StringLiteral:
		return types.NewStringLiteral(e.Value)
	case *ast.BooleanLiteral:
		return types.NewBooleanLiteral(e.Value)
	case *ast.NilLiteral:
		return types.Nil
	case *ast.Identifier:
		return c.inferIdentifier(e)
	case *ast.BinaryExpr:
		return c.inferBinary(e)
	case *ast.UnaryExpr:
		return c.inferUnary(e)
	case *ast.CallExpr:
		return c.inferCall(e)
	case *ast.MemberExpr:
		return c.inferMember(e)
	case *ast.IndexExpr:
		return c.inferIndex(e)
	case *ast.TableExpr:
		return c.inferTable(e, nil)
	case *ast.FunctionExpr:
		return c.inferFunctionExpr(e)
	case *ast.TypeOfExpr:
		c.infer(e.Operand)
		return types.String
	case *ast.IsExpr:
		c.infer(e.Subject)
		c.resolveType(e.Target)
		return types.Boolean
	default:
		c.errorf(diagnostics.KindUnknownType, expr.Span(), "cannot infer type of expression")
		return types.Unknown
	}
}

// check verifies expr is assignable to expected, using expected as the
// contextual type for object-literal excess-property checks and function
// literal parameter inference where applicable; otherwise it falls back to
// infer + an assignability comparison.
func (c *Checker) check(expr ast.Expression, expected types.Type) types.Type {
	if expr == nil {
		return types.Unknown
	}
	if expected == nil || expected == types.Any {
		return c.infer(expr)
	}
	switch e := expr.(type) {
	case *ast.TableExpr:
		t := c.inferTable(e, expected)
		expr.SetComputedType(t)
		return t
	case *ast.FunctionExpr:
		t := c.inferFunctionExprWithContext(e, expected)
		expr.SetComputedType(t)
		return t
	default:
		t := c.infer(expr)
		if !c.isAssignable(t, expected) {
			c.errorf(diagnostics.KindTypeMismatch, expr.Span(), "type %s is not assignable to %s", t.String(), expected.String())
		}
		return t
	}
}

func (c *Checker) inferIdentifier(e *ast.Identifier) types.Type {
	if e.Text == "this" {
		if c.fn != nil && c.fn.thisType != nil {
			return c.fn.thisType
		}
		c.errorf(diagnostics.KindUnknownSymbol, e.Span(), "'this' used outside a method body")
		return types.Unknown
	}
	if t, ok := c.currentNarrowing.lookup(e.Text); ok {
		return t
	}
	sym, ok := c.syms.Lookup(e.Text)
	if !ok {
		c.errorf(diagnostics.KindUnknownSymbol, e.Span(), "undefined symbol %q", e.Text)
		return types.Unknown
	}
	return sym.Type
}

func (c *Checker) inferBinary(e *ast.BinaryExpr) types.Type {
	switch e.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		c.check(e.Left, types.Number)
		c.check(e.Right, types.Number)
		return types.Number
	case ast.OpConcat:
		lt := c.infer(e.Left)
		rt := c.infer(e.Right)
		if !concatOperand(lt) {
			c.errorf(diagnostics.KindTypeMismatch, e.Left.Span(), "operand of .. must be string or number, got %s", lt.String())
		}
		if !concatOperand(rt) {
			c.errorf(diagnostics.KindTypeMismatch, e.Right.Span(), "operand of .. must be string or number, got %s", rt.String())
		}
		return types.String
	case ast.OpEq, ast.OpNotEq, ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
		c.infer(e.Left)
		c.infer(e.Right)
		return types.Boolean
	case ast.OpAnd:
		// A and B : (A narrowed to falsy) | B, per spec.md's gradual
		// and/or typing rule. B is checked under the narrowing A's true
		// branch implies, matching Lua's short-circuit evaluation.
		leftType := c.inferWithContext(e.Left, c.currentNarrowing)
		trueCtx, falseCtx := c.narrow(e.Left, c.currentNarrowing)
		leftFalsy := c.branchType(e.Left, leftType, falseCtx)
		rightType := c.inferWithContext(e.Right, trueCtx)
		return types.NewUnionType(leftFalsy, rightType)
	case ast.OpOr:
		leftType := c.inferWithContext(e.Left, c.currentNarrowing)
		trueCtx, falseCtx := c.narrow(e.Left, c.currentNarrowing)
		leftTruthy := c.branchType(e.Left, leftType, trueCtx)
		rightType := c.inferWithContext(e.Right, falseCtx)
		return types.NewUnionType(leftTruthy, rightType)
	default:
		c.infer(e.Left)
		c.infer(e.Right)
		return types.Unknown
	}
}

// branchType returns the type expr has along ctx if expr is a narrowable
// key, or its plain unnarrowed leftType otherwise (an expression the
// narrowing engine cannot key, like a call result, keeps its inferred type
// on both branches).
func (c *Checker) branchType(expr ast.Expression, leftType types.Type, ctx *NarrowingContext) types.Type {
	key := narrowingKey(expr)
	if key == "" {
		return leftType
	}
	if t, ok := ctx.lookup(key); ok {
		return t
	}
	return leftType
}

func concatOperand(t types.Type) bool {
	switch v := t.(type) {
	case *types.Primitive:
		return v == types.String || v == types.Number || v == types.Any
	case *types.LiteralType:
		return v.Kind == types.LiteralString || v.Kind == types.LiteralNumber
	default:
		return t == types.Unknown
	}
}

// inferWithContext infers expr under a temporarily-swapped narrowing
// context, restoring the checker's ambient context afterward. Used by
// short-circuit operators, whose right-hand operand only sees the
// narrowing implied by the left-hand operand having taken its
// continuing branch.
func (c *Checker) inferWithContext(expr ast.Expression, ctx *NarrowingContext) types.Type {
	saved := c.currentNarrowing
	c.currentNarrowing = ctx
	t := c.infer(expr)
	c.currentNarrowing = saved
	return t
}

func (c *Checker) inferUnary(e *ast.UnaryExpr) types.Type {
	switch e.Op {
	case ast.OpNeg:
		c.check(e.Operand, types.Number)
		return types.Number
	case ast.OpNot:
		c.infer(e.Operand)
		return types.Boolean
	case ast.OpLen:
		c.infer(e.Operand)
		return types.Number
	default:
		return types.Unknown
	}
}

func (c *Checker) inferIndex(e *ast.IndexExpr) types.Type {
	objType := c.infer(e.Object)
	keyType := c.infer(e.Key)
	switch obj := objType.(type) {
	case *types.ArrayType:
		return obj.Element
	case *types.TupleType:
		if lit, ok := e.Key.(*ast.NumberLiteral); ok {
			idx := int(lit.Value)
			if idx >= 0 && idx < len(obj.Elements) {
				return obj.Elements[idx]
			}
		}
		return types.NewUnionType(append(append([]types.Type{}, obj.Elements...), types.Nil)...)
	case *types.ObjectType:
		if obj.Index != nil {
			return obj.Index.Value
		}
		c.errorf(diagnostics.KindUnknownMember, e.Span(), "type %s has no index signature", objType.String())
		return types.Unknown
	default:
		if objType == types.Any || objType == types.Unknown {
			_ = keyType
			return types.Any
		}
		c.errorf(diagnostics.KindUnknownMember, e.Span(), "type %s is not indexable", objType.String())
		return types.Unknown
	}
}

func (c *Checker) inferTable(e *ast.TableExpr, expected types.Type) types.Type {
	expected = unwrapAlias(expected)
	isArrayLike := true
	for _, f := range e.Fields {
		if f.Key != nil {
			isArrayLike = false
			break
		}
	}
	if isArrayLike && len(e.Fields) > 0 {
		if expectedTuple, ok := expected.(*types.TupleType); ok && len(expectedTuple.Elements) == len(e.Fields) {
			for i, f := range e.Fields {
				c.check(f.Value, expectedTuple.Elements[i])
			}
			return expectedTuple
		}
		var elemTypes []types.Type
		var expectedElem types.Type
		if expectedArr, ok := expected.(*types.ArrayType); ok {
			expectedElem = expectedArr.Element
		}
		for _, f := range e.Fields {
			elemTypes = append(elemTypes, c.check(f.Value, expectedElem))
		}
		return types.NewArrayType(types.NewUnionType(elemTypes...))
	}

	obj := types.NewObjectType()
	obj.Span = e.Span()
	expectedObj, hasExpectedObj := expected.(*types.ObjectType)
	for _, f := range e.Fields {
		name, ok := tableKeyName(f.Key)
		if !ok {
			c.infer(f.Key)
			c.infer(f.Value)
			continue
		}
		var propExpected types.Type
		if hasExpectedObj {
			if p, ok := expectedObj.Properties[name]; ok {
				propExpected = p.Type
			}
		}
		var valType types.Type
		if propExpected != nil {
			valType = c.check(f.Value, propExpected)
		} else {
			valType = widen(c.infer(f.Value))
		}
		obj.Properties[name] = &types.Property{Type: valType}
	}
	if hasExpectedObj {
		for name, p := range expectedObj.Properties {
			if _, ok := obj.Properties[name]; !ok && !p.Optional {
				c.errorf(diagnostics.KindTypeMismatch, e.Span(), "object literal is missing required property %q", name)
			}
		}
		for name := range obj.Properties {
			if _, ok := expectedObj.Properties[name]; !ok && expectedObj.Index == nil {
				c.errorf(diagnostics.KindUnknownMember, e.Span(), "object literal has excess property %q", name)
			}
		}
	}
	return obj
}

func tableKeyName(key ast.Expression) (string, bool) {
	switch k := key.(type) {
	case *ast.Identifier:
		return k.Text, true
	case *ast.StringLiteral:
		return k.Value, true
	default:
		return "", false
	}
}

func (c *Checker) inferMember(e *ast.MemberExpr) types.Type {
	objType := c.infer(e.Object)
	if key := narrowingKey(e); key != "" {
		if t, ok := c.currentNarrowing.lookup(key); ok {
			return t
		}
	}
	return c.resolveMemberType(objType, e.Property, e.Span())
}

func (c *Checker) resolveMemberType(objType types.Type, prop string, span source.Span) types.Type {
	objType = unwrapAlias(objType)
	switch obj := objType.(type) {
	case *types.UnionType:
		return c.resolveUnionMemberType(obj, prop, span)
	case *types.ObjectType:
		if p, ok := obj.Properties[prop]; ok {
			return p.Type
		}
		if obj.Index != nil && obj.Index.KeyKind == types.StringKey {
			return obj.Index.Value
		}
	case *types.ClassType:
		if p, declaringClass, ok := memberLookup(obj, prop); ok {
			c.checkMemberAccess(p, declaringClass, prop, span)
			return p.Type
		}
	case *types.InterfaceType:
		if p, ok := obj.Members.Properties[prop]; ok {
			return p.Type
		}
	case *types.EnumType:
		for _, m := range obj.Members {
			if m.Name == prop {
				return obj
			}
		}
	default:
		if objType == types.Any {
			return types.Any
		}
	}
	c.errorf(diagnostics.KindUnknownMember, span, "type %s has no member %q", objType.String(), prop)
	return types.Unknown
}

// resolveUnionMemberType implements spec.md §8's nilable-receiver rule: a
// member access through a union that still includes nil is a TypeMismatch
// regardless of whether the other members carry prop, since at runtime the
// receiver may be nil. Narrowing (e.g. `if m ~= nil then ... end`) removes
// nil from the union before this is ever reached — see narrowRemove, whose
// result collapses to the bare non-nil type once nil is the only member
// excluded.
func (c *Checker) resolveUnionMemberType(u *types.UnionType, prop string, span source.Span) types.Type {
	var nonNil []types.Type
	for _, m := range u.Members {
		if m == types.Nil {
			c.errorf(diagnostics.KindTypeMismatch, span, "cannot access %q on %s, which may be nil", prop, u.String())
			return types.Unknown
		}
		nonNil = append(nonNil, m)
	}
	if len(nonNil) == 1 {
		return c.resolveMemberType(nonNil[0], prop, span)
	}
	var first types.Type
	for i, m := range nonNil {
		mt := c.resolveMemberType(m, prop, span)
		if i == 0 {
			first = mt
		} else if !mt.Equals(first) {
			return types.Unknown
		}
	}
	return first
}

// memberLookup finds prop on cls or any base class, respecting the
// nominal member chain built up by class.go's registration pass. The
// returned *types.ClassType is the class that actually declares prop (not
// necessarily cls itself), needed by checkMemberAccess to decide whether
// the accessing context may see a non-public member.
func memberLookup(cls *types.ClassType, prop string) (*types.Property, *types.ClassType, bool) {
	for cur := cls; cur != nil; cur = cur.Base {
		if cur.Members != nil {
			if p, ok := cur.Members.Properties[prop]; ok {
				return p, cur, true
			}
		}
	}
	return nil, nil, false
}

// checkMemberAccess enforces spec.md §4.8's access-control rule: a private
// member is only reachable from inside the class that declares it, a
// protected member from that class or any subclass, and a public member
// from anywhere. The accessing context is whatever class `this` is bound
// to in the innermost method currently being checked; nil (module top
// level, or a plain function with no `this`) can never see a non-public
// member.
func (c *Checker) checkMemberAccess(prop *types.Property, declaringClass *types.ClassType, name string, span source.Span) {
	if prop.Visibility == types.Public || declaringClass == nil {
		return
	}
	var accessingClass *types.ClassType
	if c.fn != nil {
		accessingClass, _ = c.fn.thisType.(*types.ClassType)
	}
	switch prop.Visibility {
	case types.Private:
		if accessingClass != declaringClass {
			c.errorf(diagnostics.KindAccessViolation, span, "%q is private and only accessible within class %q", name, declaringClass.Name)
		}
	case types.Protected:
		if accessingClass == nil || !(accessingClass == declaringClass || accessingClass.IsSubclassOf(declaringClass)) {
			c.errorf(diagnostics.KindAccessViolation, span, "%q is protected and only accessible within class %q or its subclasses", name, declaringClass.Name)
		}
	}
}

func (c *Checker) inferFunctionExpr(e *ast.FunctionExpr) types.Type {
	return c.checkFunctionBody(e, nil)
}

func (c *Checker) inferFunctionExprWithContext(e *ast.FunctionExpr, expected types.Type) types.Type {
	if expectedFn, ok := expected.(*types.FunctionType); ok {
		return c.checkFunctionBody(e, expectedFn)
	}
	return c.checkFunctionBody(e, nil)
}

// checkFunctionBody type-checks a function literal's body and returns its
// FunctionType. contextFn, if non-nil, supplies parameter types for
// unannotated parameters (contextual typing), per spec.md's "check pushes
// expected as a contextual type" rule.
func (c *Checker) checkFunctionBody(e *ast.FunctionExpr, contextFn *types.FunctionType) *types.FunctionType {
	// Reuse the hoisted signature's own type-parameter pointers rather
	// than re-resolving e.TypeParams into a fresh set: contextFn's
	// Params/Return were already resolved against those pointers during
	// hoisting, so checking the body against a different set would make
	// the parameter and return types incomparable by identity. Only a
	// function literal with no prior hoisted signature (contextFn == nil)
	// resolves its own type parameters here.
	var tparams []*types.TypeParameter
	if contextFn != nil && len(contextFn.TypeParams) > 0 {
		tparams = contextFn.TypeParams
	} else {
		tparams = c.resolveTypeParams(e.TypeParams)
	}
	restore := c.pushTypeParamScope(tparams)
	defer restore()

	params := make([]types.Param, len(e.Params))
	for i, p := range e.Params {
		var pt types.Type
		if p.Type != nil {
			pt = c.resolveType(p.Type)
		} else if contextFn != nil && i < len(contextFn.Params) {
			pt = contextFn.Params[i].Type
		} else {
			pt = types.Any
		}
		params[i] = types.Param{Name: p.Name, Type: pt, Optional: p.Optional, Rest: p.Rest}
	}

	var declaredRet types.Type
	if e.ReturnType != nil {
		declaredRet = c.resolveType(e.ReturnType)
	}

	c.syms.EnterScope()
	defer c.syms.ExitScope()
	for _, p := range params {
		c.syms.Declare(p.Name, &symbols.Symbol{Name: p.Name, Kind: symbols.KindParameter, Type: p.Type, Mutable: true, DeclSpan: e.Span()})
	}

	fctx := &functionContext{outer: c.fn, declaredRet: declaredRet}
	if e.IsGuard {
		fctx.guardSubject = e.GuardSubject
	}
	if contextFn != nil {
		fctx.thisType = contextFn.ThisParam
	}
	c.fn = fctx
	if e.Body != nil {
		c.checkBlock(e.Body)
	}
	c.fn = fctx.outer

	ret := declaredRet
	if ret == nil {
		ret = types.NewUnionType(fctx.inferredRets...)
		if ret == nil || (len(fctx.inferredRets) == 0) {
			ret = types.Void
		}
	} else if !fctx.sawReturn && ret != types.Void && ret != types.Nil && !isVoidish(ret) {
		c.errorf(diagnostics.KindMissingReturn, e.Span(), "function does not return a value on every path")
	}

	if e.IsGuard {
		ret = &types.TypePredicateType{Subject: e.GuardSubject, Type: retGuardTarget(e.ReturnType, c)}
	}

	return &types.FunctionType{TypeParams: tparams, Params: params, Return: ret, Span: e.Span()}
}

func retGuardTarget(te ast.TypeExpr, c *Checker) types.Type {
	if pred, ok := te.(*ast.TypePredicateExpr); ok {
		return c.resolveType(pred.Target)
	}
	return types.Unknown
}

func isVoidish(t types.Type) bool {
	if u, ok := t.(*types.UnionType); ok {
		for _, m := range u.Members {
			if m == types.Void || m == types.Nil {
				return true
			}
		}
	}
	return t == types.Void || t == types.Nil
}
