package checker

import (
	"github.com/forge18/luanext-typechecker/pkg/ast"
	"github.com/forge18/luanext-typechecker/pkg/diagnostics"
	"github.com/forge18/luanext-typechecker/pkg/generics"
	"github.com/forge18/luanext-typechecker/pkg/types"
)

// inferCall types a call expression, handling plain function calls,
// construction via a class's implicit constructor type, and generic
// instantiation (explicit `f<number>(x)` or inferred from argument types).
// Grounded on the teacher's checkCallExpression, generalized to this
// dialect's constructor-via-call-syntax convention (class.go registers a
// class's name as a *types.ConstructorType rather than a separate `new`
// keyword) and to generic functions, which the teacher's call.go resolves
// the same way: infer or take explicit type arguments, substitute, then
// check arguments against the instantiated signature.
func (c *Checker) inferCall(e *ast.CallExpr) types.Type {
	calleeType := c.infer(e.Callee)

	switch callee := calleeType.(type) {
	case *types.FunctionType:
		return c.inferFunctionCall(e, c.resolveOverload(e, callee))
	case *types.ConstructorType:
		return c.inferConstructorCall(e, callee)
	case *types.ObjectType:
		if len(callee.CallSignatures) > 0 {
			return c.inferSignatureCall(e, callee.CallSignatures[0])
		}
		c.errorf(diagnostics.KindTypeMismatch, e.Span(), "type %s is not callable", calleeType.String())
		return types.Unknown
	default:
		if calleeType == types.Any || calleeType == types.Unknown {
			for _, a := range e.Args {
				c.infer(a)
			}
			return types.Any
		}
		c.errorf(diagnostics.KindTypeMismatch, e.Span(), "type %s is not callable", calleeType.String())
		return types.Unknown
	}
}

// resolveOverload picks the best-matching candidate from an identifier
// callee's overload group (pkg/symbols.Symbol.Overloads) by argument
// count, falling back to primary when the callee is not a plain
// identifier or the symbol declares no overloads. spec.md §4.2 lets
// same-named function symbols form an overload group when their
// signatures are distinguishable (pkg/symbols.Table.Declare); this is the
// call-site counterpart that actually consults the group instead of
// always dispatching to the first-declared signature.
func (c *Checker) resolveOverload(e *ast.CallExpr, primary *types.FunctionType) *types.FunctionType {
	ident, ok := e.Callee.(*ast.Identifier)
	if !ok {
		return primary
	}
	sym, ok := c.syms.Lookup(ident.Text)
	if !ok || len(sym.Overloads) == 0 {
		return primary
	}
	argc := len(e.Args)
	candidates := append([]types.Type{sym.Type}, sym.Overloads...)
	for _, cand := range candidates {
		if fn, ok := cand.(*types.FunctionType); ok && arityMatches(fn, argc) {
			return fn
		}
	}
	return primary
}

// arityMatches reports whether a call with argc arguments could plausibly
// target fn, counting non-optional, non-rest parameters as required and a
// trailing rest parameter as accepting any number at or above that floor.
func arityMatches(fn *types.FunctionType, argc int) bool {
	required := 0
	hasRest := false
	for _, p := range fn.Params {
		if p.Rest {
			hasRest = true
			continue
		}
		if !p.Optional {
			required++
		}
	}
	if hasRest {
		return argc >= required
	}
	return argc >= required && argc <= len(fn.Params)
}

func (c *Checker) inferFunctionCall(e *ast.CallExpr, fn *types.FunctionType) types.Type {
	fn = c.instantiateCallTarget(e, fn.TypeParams, fn.Params, fn.Return, func(params []types.Param, ret types.Type) *types.FunctionType {
		return &types.FunctionType{Params: params, Return: ret, ThisParam: fn.ThisParam}
	})
	c.checkArgs(e, fn.Params)
	return fn.Return
}

func (c *Checker) inferConstructorCall(e *ast.CallExpr, ctor *types.ConstructorType) types.Type {
	params := ctor.Params
	constructs := ctor.Constructs
	if len(ctor.TypeParams) > 0 {
		subst := c.buildCallSubstitution(e, ctor.TypeParams, ctor.Params, e.Args)
		params = instantiateParams(ctor.Params, subst)
		constructs = generics.Instantiate(ctor.Constructs, subst)
	}
	c.checkArgs(e, params)
	return constructs
}

func (c *Checker) inferSignatureCall(e *ast.CallExpr, sig *types.Signature) types.Type {
	params := sig.Params
	ret := sig.Return
	if len(sig.TypeParams) > 0 {
		subst := c.buildCallSubstitution(e, sig.TypeParams, sig.Params, e.Args)
		params = instantiateParams(sig.Params, subst)
		ret = generics.Instantiate(sig.Return, subst)
	}
	c.checkArgs(e, params)
	return ret
}

// instantiateCallTarget is shared plumbing for the plain-function-call case:
// build a substitution (explicit type args, or inferred from argument
// shapes), apply it to params/return, and hand the result to build so the
// caller can reconstruct its own concrete type (FunctionType carries fields
// beyond Params/Return that callers want to preserve, like ThisParam).
func (c *Checker) instantiateCallTarget(e *ast.CallExpr, tparams []*types.TypeParameter, params []types.Param, ret types.Type, build func([]types.Param, types.Type) *types.FunctionType) *types.FunctionType {
	if len(tparams) == 0 {
		return build(params, ret)
	}
	subst := c.buildCallSubstitution(e, tparams, params, e.Args)
	return build(instantiateParams(params, subst), generics.Instantiate(ret, subst))
}

// buildCallSubstitution resolves a generic call's type arguments: if the
// call site supplies them explicitly (`f<number>(x)`), those are used
// as-is; otherwise each parameter is inferred by structurally matching the
// declared parameter type against the corresponding argument's inferred
// type, falling back to the parameter's own default (or `unknown`) when
// nothing in the argument list constrains it.
func (c *Checker) buildCallSubstitution(e *ast.CallExpr, tparams []*types.TypeParameter, declaredParams []types.Param, args []ast.Expression) generics.Substitution {
	if len(e.TypeArgs) > 0 {
		explicit := make([]types.Type, len(e.TypeArgs))
		for i, te := range e.TypeArgs {
			explicit[i] = c.resolveType(te)
		}
		subst, err := generics.BuildSubstitution(tparams, explicit)
		if err != nil {
			c.errorf(diagnostics.KindGenericArityMismatch, e.Span(), "%s", err.Error())
			subst = generics.Substitution{}
		}
		c.checkGenericConstraints(e, tparams, subst)
		return subst
	}

	inferred := map[*types.TypeParameter]types.Type{}
	for i, p := range declaredParams {
		if i >= len(args) {
			break
		}
		argType := c.infer(args[i])
		unify(p.Type, argType, inferred)
	}
	args2 := make([]types.Type, len(tparams))
	for i, tp := range tparams {
		if t, ok := inferred[tp]; ok {
			args2[i] = t
		}
	}
	// Trim trailing unresolved entries so BuildSubstitution treats them as
	// "use the declared default" rather than binding them to a nil type.
	for len(args2) > 0 && args2[len(args2)-1] == nil {
		args2 = args2[:len(args2)-1]
	}
	subst, err := generics.BuildSubstitution(tparams, args2)
	if err != nil {
		subst = generics.Substitution{}
	}
	c.checkGenericConstraints(e, tparams, subst)
	return subst
}

func (c *Checker) checkGenericConstraints(e *ast.CallExpr, tparams []*types.TypeParameter, subst generics.Substitution) {
	violations := generics.CheckConstraints(subst, tparams, c.assign.AssignableFunc())
	for _, v := range violations {
		c.errorf(diagnostics.KindGenericConstraintViolation, e.Span(), "type argument %s does not satisfy constraint %s", v.Arg.String(), v.Param.EffectiveConstraint().String())
	}
}

// unify performs a shallow structural match of declared against actual,
// recording any bare type parameter it finds in declared as bound to the
// corresponding piece of actual. This is intentionally simple — it descends
// only through array element types and function parameter/return types
// (tuples, objects and unions are not matched) — matching the inference the teacher's
// call.go performs for ordinary generic calls rather than full
// Hindley-Milner unification.
func unify(declared, actual types.Type, out map[*types.TypeParameter]types.Type) {
	switch d := declared.(type) {
	case *types.TypeParameter:
		if _, bound := out[d]; !bound {
			out[d] = actual
		}
	case *types.ArrayType:
		if a, ok := actual.(*types.ArrayType); ok {
			unify(d.Element, a.Element, out)
		}
	case *types.FunctionType:
		if a, ok := actual.(*types.FunctionType); ok {
			for i := range d.Params {
				if i < len(a.Params) {
					unify(d.Params[i].Type, a.Params[i].Type, out)
				}
			}
			unify(d.Return, a.Return, out)
		}
	}
}

func instantiateParams(params []types.Param, subst generics.Substitution) []types.Param {
	out := make([]types.Param, len(params))
	for i, p := range params {
		out[i] = types.Param{Name: p.Name, Type: generics.Instantiate(p.Type, subst), Optional: p.Optional, Rest: p.Rest}
	}
	return out
}

// checkArgs verifies e's arguments against params: every non-optional,
// non-rest parameter must have a corresponding argument, excess positional
// arguments beyond a trailing rest parameter are checked against its
// element type, and every other argument is checked (not merely inferred)
// against its parameter's type so contextual typing of literal/function
// arguments applies.
func (c *Checker) checkArgs(e *ast.CallExpr, params []types.Param) {
	var rest *types.Param
	fixed := params
	if n := len(params); n > 0 && params[n-1].Rest {
		rest = &params[n-1]
		fixed = params[:n-1]
	}

	for i, p := range fixed {
		if i >= len(e.Args) {
			if !p.Optional {
				c.errorf(diagnostics.KindTypeMismatch, e.Span(), "missing required argument %q", p.Name)
			}
			continue
		}
		c.check(e.Args[i], p.Type)
	}

	if rest == nil {
		for i := len(fixed); i < len(e.Args); i++ {
			c.infer(e.Args[i])
		}
		return
	}

	var restElem types.Type = types.Any
	if arr, ok := rest.Type.(*types.ArrayType); ok {
		restElem = arr.Element
	}
	for i := len(fixed); i < len(e.Args); i++ {
		c.check(e.Args[i], restElem)
	}
}
