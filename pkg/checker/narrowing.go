package checker

import (
	"github.com/forge18/luanext-typechecker/pkg/ast"
	"github.com/forge18/luanext-typechecker/pkg/diagnostics"
	"github.com/forge18/luanext-typechecker/pkg/source"
	"github.com/forge18/luanext-typechecker/pkg/types"
)

// NarrowingContext maps a narrowing key (a variable name, or a dotted
// member-access chain like "self.value") to its currently known type along
// one control-flow path. Grounded on the teacher's applyPositiveTypeNarrowing/
// applyInvertedTypeNarrowing pair, but returning an immutable pair of
// contexts from one narrow() call rather than the teacher's in-place
// Environment mutation, since this checker walks both branches of every
// conditional and needs the pre-branch context to survive independently of
// either narrowed copy.
type NarrowingContext struct {
	facts map[string]types.Type
}

// newNarrowingContext seeds a context with no narrowing facts; lookups fall
// through to the checker's own symbol table for anything not present here.
func newNarrowingContext() *NarrowingContext {
	return &NarrowingContext{facts: map[string]types.Type{}}
}

// clone returns an independent copy, so narrowing one branch never mutates
// the context another branch also derived from.
func (ctx *NarrowingContext) clone() *NarrowingContext {
	out := newNarrowingContext()
	for k, v := range ctx.facts {
		out.facts[k] = v
	}
	return out
}

// with returns a copy of ctx with key narrowed to t.
func (ctx *NarrowingContext) with(key string, t types.Type) *NarrowingContext {
	out := ctx.clone()
	out.facts[key] = t
	return out
}

// lookup returns the narrowed type for key, if any.
func (ctx *NarrowingContext) lookup(key string) (types.Type, bool) {
	t, ok := ctx.facts[key]
	return t, ok
}

// mergeContexts computes the join-point context after two incoming
// branches: each variable narrowed in either branch maps to the union of
// its two incoming types (falling back to the other branch's ambient type,
// i.e. "no narrowing", when only one branch narrowed it), matching spec.md
// §4.7's join rule.
func mergeContexts(a, b *NarrowingContext, ambient func(string) types.Type) *NarrowingContext {
	out := newNarrowingContext()
	seen := map[string]bool{}
	for k := range a.facts {
		seen[k] = true
	}
	for k := range b.facts {
		seen[k] = true
	}
	for k := range seen {
		at, aok := a.facts[k]
		if !aok {
			at = ambient(k)
		}
		bt, bok := b.facts[k]
		if !bok {
			bt = ambient(k)
		}
		if at == nil || bt == nil {
			continue
		}
		out.facts[k] = types.NewUnionType(at, bt)
	}
	return out
}

// narrowingKey converts an lvalue-shaped expression to the string key
// NarrowingContext uses, or "" if the expression is not a supported
// narrowing target (only identifiers and dotted member chains are).
func narrowingKey(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.Identifier:
		return e.Text
	case *ast.MemberExpr:
		if e.IsMethodCall {
			return ""
		}
		base := narrowingKey(e.Object)
		if base == "" {
			return ""
		}
		return base + "." + e.Property
	default:
		return ""
	}
}

// narrow evaluates guard as a boolean condition and returns the contexts
// that hold on its true and false branches respectively. Unsupported guard
// shapes return ctx unchanged on both branches, matching spec.md §4.7's
// implicit "guards outside the supported set narrow nothing" behavior.
func (c *Checker) narrow(guard ast.Expression, ctx *NarrowingContext) (*NarrowingContext, *NarrowingContext) {
	switch g := guard.(type) {
	case *ast.UnaryExpr:
		if g.Op == ast.OpNot {
			t, f := c.narrow(g.Operand, ctx)
			return f, t
		}
	case *ast.BinaryExpr:
		switch g.Op {
		case ast.OpAnd:
			lt, lf := c.narrow(g.Left, ctx)
			rt, rf := c.narrow(g.Right, lt)
			falseCtx := mergeContexts(lf, rf, func(k string) types.Type { return c.ambientType(k) })
			return rt, falseCtx
		case ast.OpOr:
			lt, lf := c.narrow(g.Left, ctx)
			rt, rf := c.narrow(g.Right, lf)
			trueCtx := mergeContexts(lt, rt, func(k string) types.Type { return c.ambientType(k) })
			return trueCtx, rf
		case ast.OpEq, ast.OpNotEq:
			return c.narrowComparison(g, ctx)
		}
	case *ast.IsExpr:
		key := narrowingKey(g.Subject)
		if key == "" {
			return ctx, ctx
		}
		target := c.resolveType(g.Target)
		base := c.narrowingBase(key, ctx)
		trueT := c.narrowIntersect(base, target)
		falseT := c.narrowRemove(base, target)
		return ctx.with(key, trueT), ctx.with(key, falseT)
	case *ast.CallExpr:
		if pred := c.detectPredicateCall(g); pred != nil {
			base := c.narrowingBase(pred.key, ctx)
			trueT := c.narrowIntersect(base, pred.target)
			falseT := c.narrowRemove(base, pred.target)
			return ctx.with(pred.key, trueT), ctx.with(pred.key, falseT)
		}
	case *ast.Identifier:
		// Bare `if x then` truthiness narrowing: the true branch removes
		// nil (false is not removed); the false branch is left unnarrowed.
		key := narrowingKey(g)
		if key == "" {
			return ctx, ctx
		}
		base := c.narrowingBase(key, ctx)
		trueT := c.narrowRemove(base, types.Nil)
		return ctx.with(key, trueT), ctx
	}
	return ctx, ctx
}

// narrowComparison handles `x == literal`, `type(x) == "..."`, `x == nil`,
// and their `~=` negations, plus the symmetric literal-on-the-left forms.
func (c *Checker) narrowComparison(g *ast.BinaryExpr, ctx *NarrowingContext) (*NarrowingContext, *NarrowingContext) {
	negated := g.Op == ast.OpNotEq

	// type(x) == "kind"
	if key, kind, ok := typeofGuard(g); ok {
		base := c.narrowingBase(key, ctx)
		target := typeofKindToType(kind)
		if target == nil {
			return ctx, ctx
		}
		trueT := c.narrowIntersect(base, target)
		falseT := c.narrowRemove(base, target)
		if negated {
			trueT, falseT = falseT, trueT
		}
		return ctx.with(key, trueT), ctx.with(key, falseT)
	}

	left, right := g.Left, g.Right
	var key string
	var litExpr ast.Expression
	if k := narrowingKey(left); k != "" {
		key, litExpr = k, right
	} else if k := narrowingKey(right); k != "" {
		key, litExpr = k, left
	} else {
		return ctx, ctx
	}

	var target types.Type
	if _, isNil := litExpr.(*ast.NilLiteral); isNil {
		target = types.Nil
	} else if lit := literalExprType(litExpr); lit != nil {
		target = lit
	} else {
		return ctx, ctx
	}

	base := c.narrowingBase(key, ctx)
	trueT := c.narrowIntersect(base, target)
	falseT := c.narrowRemove(base, target)
	if negated {
		trueT, falseT = falseT, trueT
	}
	return ctx.with(key, trueT), ctx.with(key, falseT)
}

// typeofGuard recognizes `type(x) == "kind"` (in either operand order) and
// returns the narrowing key and the string literal naming the kind.
func typeofGuard(g *ast.BinaryExpr) (key, kind string, ok bool) {
	if t, s, matched := matchTypeofPair(g.Left, g.Right); matched {
		return t, s, true
	}
	if t, s, matched := matchTypeofPair(g.Right, g.Left); matched {
		return t, s, true
	}
	return "", "", false
}

func matchTypeofPair(a, b ast.Expression) (key, kind string, ok bool) {
	tof, isTypeof := a.(*ast.TypeOfExpr)
	str, isStr := b.(*ast.StringLiteral)
	if !isTypeof || !isStr {
		return "", "", false
	}
	k := narrowingKey(tof.Operand)
	if k == "" {
		return "", "", false
	}
	return k, str.Value, true
}

func typeofKindToType(kind string) types.Type {
	switch kind {
	case "string":
		return types.String
	case "number":
		return types.Number
	case "boolean":
		return types.Boolean
	case "nil":
		return types.Nil
	case "function":
		return types.NewObjectType() // any callable; refined by call-signature checks elsewhere
	case "table":
		return types.NewObjectType()
	default:
		return nil
	}
}

func literalExprType(e ast.Expression) types.Type {
	switch v := e.(type) {
	case *ast.StringLiteral:
		return types.NewStringLiteral(v.Value)
	case *ast.NumberLiteral:
		return types.NewNumberLiteral(v.Value)
	case *ast.BooleanLiteral:
		return types.NewBooleanLiteral(v.Value)
	default:
		return nil
	}
}

type predicateGuard struct {
	key    string
	target types.Type
}

// detectPredicateCall recognizes a call to a user-defined type-guard
// function (declared `function f(v): v is T`) applied to a single
// narrowable argument, e.g. `isString(x)`.
func (c *Checker) detectPredicateCall(call *ast.CallExpr) *predicateGuard {
	if len(call.Args) != 1 {
		return nil
	}
	key := narrowingKey(call.Args[0])
	if key == "" {
		return nil
	}
	calleeType := call.Callee.ComputedType()
	fn, ok := calleeType.(*types.FunctionType)
	if !ok {
		return nil
	}
	pred, ok := fn.Return.(*types.TypePredicateType)
	if !ok {
		return nil
	}
	return &predicateGuard{key: key, target: pred.Type}
}

// narrowingBase returns the type key currently has along ctx, falling back
// to the checker's ambient (unnarrowed) type for it.
func (c *Checker) narrowingBase(key string, ctx *NarrowingContext) types.Type {
	if t, ok := ctx.lookup(key); ok {
		return t
	}
	return c.ambientType(key)
}

// ambientType returns the declared/inferred type of a narrowing key,
// outside of any narrowing context, by walking dotted member chains
// through the base identifier's object-type structure.
func (c *Checker) ambientType(key string) types.Type {
	parts := splitKey(key)
	sym, ok := c.syms.Lookup(parts[0])
	if !ok {
		return types.Unknown
	}
	t := sym.Type
	for _, field := range parts[1:] {
		obj, ok := t.(*types.ObjectType)
		if !ok {
			return types.Unknown
		}
		prop, ok := obj.Properties[field]
		if !ok {
			return types.Unknown
		}
		t = prop.Type
	}
	return t
}

func splitKey(key string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			parts = append(parts, key[start:i])
			start = i + 1
		}
	}
	parts = append(parts, key[start:])
	return parts
}

// narrowIntersect computes the type of a variable known to be `base` after
// a guard confirms it is also assignable-compatible with target: the
// subset of base's union members that overlap target.
func (c *Checker) narrowIntersect(base, target types.Type) types.Type {
	members := types.UnionMembers(base)
	var kept []types.Type
	for _, m := range members {
		if c.isAssignable(m, target) || c.isAssignable(target, m) {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return target
	}
	return types.NewUnionType(kept...)
}

// narrowRemove computes the type of a variable known to be `base` after a
// guard rules target out: base's union members minus any assignable to
// target.
func (c *Checker) narrowRemove(base, target types.Type) types.Type {
	members := types.UnionMembers(base)
	var kept []types.Type
	for _, m := range members {
		if !c.isAssignable(m, target) {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return types.Never
	}
	return types.NewUnionType(kept...)
}

// checkExhaustive reports NonExhaustiveMatch when remaining, the type left
// over after every case's guard has removed its match from the switch
// subject's original type, is not `never` and no default arm is present.
func (c *Checker) checkExhaustive(remaining types.Type, hasDefault bool, span source.Span) {
	if hasDefault || remaining == types.Never {
		return
	}
	c.errorf(diagnostics.KindNonExhaustiveMatch, span, "non-exhaustive match: %s not covered", remaining.String())
}
