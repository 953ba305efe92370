// Package assign implements the assignability relation: is a value of type
// source usable where a value of type target is expected. It is the
// checker's single most consulted primitive.
//
// Grounded on the teacher's pkg/types/assignable.go (IsAssignable, rule
// order, isSignatureAssignable contravariance/covariance), restructured
// around this repo's larger type-term algebra and given the co-inductive
// memoization the teacher's version lacks, modeled on
// original_source/src/type_relations.rs's TypeRelationCache.
package assign

import (
	"github.com/forge18/luanext-typechecker/pkg/generics"
	"github.com/forge18/luanext-typechecker/pkg/types"
	"github.com/forge18/luanext-typechecker/pkg/typeenv"
)

// Result carries a yes/no verdict plus, on failure, enough structure for
// the checker to render a useful TypeMismatch diagnostic without redoing
// the walk.
type Result struct {
	OK     bool
	Reason string
	// UnsoundVariance is set when the relation holds, but only because a
	// function parameter passed the covariant direction after failing the
	// contravariant one (checkFunctions' contravariant-refinement case).
	UnsoundVariance bool
}

func ok() Result  { return Result{OK: true} }
func fail(reason string) Result { return Result{OK: false, Reason: reason} }

// pairKey identifies one (source, target) relation for the in-progress and
// memoization sets, by pointer identity — matching the Rust prototype's
// "type memory addresses as keys" approach, adapted to Go's GC (types are
// never moved once constructed within a session, so pointer identity is
// stable for the session's lifetime).
type pairKey struct {
	source, target types.Type
}

// Checker holds the mutable state one assignability engine needs across a
// whole check session: the co-inductive in-progress set (to terminate on
// recursive structural types) and a bounded memoization cache of settled
// results.
type Checker struct {
	env        *typeenv.Env
	inProgress map[pairKey]bool
	cache      *relationCache
}

// New creates an assignability checker resolving named references through
// env.
func New(env *typeenv.Env) *Checker {
	return &Checker{
		env:        env,
		inProgress: make(map[pairKey]bool),
		cache:      newRelationCache(4096),
	}
}

// IsAssignable is the boolean convenience wrapper most callers want,
// including pkg/generics' AssignableFunc callback shape.
func (c *Checker) IsAssignable(source, target types.Type) bool {
	return c.Check(source, target).OK
}

// AssignableFunc adapts a Checker to pkg/generics.AssignableFunc.
func (c *Checker) AssignableFunc() generics.AssignableFunc { return c.IsAssignable }

// Check evaluates the full ordered rule set from source to target,
// memoizing the result. A relation already in progress (a structural
// recursion, e.g. `interface Node { next: Node }`) is treated as holding,
// which is the standard co-inductive convention for equirecursive types:
// if nothing built up the chain refutes it, assume it does not.
func (c *Checker) Check(source, target types.Type) Result {
	if source == nil || target == nil {
		return fail("nil type")
	}
	key := pairKey{source, target}
	if c.inProgress[key] {
		return ok()
	}
	if cached, hit := c.cache.get(key); hit {
		return cached
	}

	c.inProgress[key] = true
	result := c.check(source, target)
	delete(c.inProgress, key)

	c.cache.put(key, result)
	return result
}

func (c *Checker) check(source, target types.Type) Result {
	// Alias unwrapping: any alias whose .Resolved ground type is set
	// resolves to it before any other rule runs, so e.g. `type
	// Point = {x:number,y:number}` compares structurally against both
	// other aliases and plain object types rather than only against
	// itself by pointer.
	if alias, isAlias := source.(*types.AliasType); isAlias && alias.Resolved != nil {
		return c.check(alias.Resolved, target)
	}
	if alias, isAlias := target.(*types.AliasType); isAlias && alias.Resolved != nil {
		return c.check(source, alias.Resolved)
	}

	// Rule 1: any / unknown / never.
	if source == types.Any || target == types.Any {
		return ok()
	}
	if target == types.Unknown {
		return ok()
	}
	if target == types.Never {
		if source == types.Never {
			return ok()
		}
		return fail("target is never")
	}
	if source == types.Never {
		return ok()
	}

	// Rule 2: structural equality.
	if source == target || source.Equals(target) {
		return ok()
	}

	// Rule 10: reference resolution.
	if srcRef, isRef := source.(*types.Reference); isRef {
		resolved, err := c.env.Resolve(srcRef)
		if err != nil {
			return fail(err.Error())
		}
		return c.check(resolved, target)
	}
	if tgtRef, isRef := target.(*types.Reference); isRef {
		resolved, err := c.env.Resolve(tgtRef)
		if err != nil {
			return fail(err.Error())
		}
		return c.check(source, resolved)
	}

	// Rule 12: lazy operators, evaluated once grounded, else compared
	// syntactically (their Equals already covers the syntactic case,
	// checked above; anything else means at least one side still has a
	// free type parameter, in which case only identical shapes relate).
	if evaluated, done := c.evalLazy(source, target); done {
		return evaluated
	}

	// Rule 3: unions and intersections.
	if r, done := c.checkUnionsIntersections(source, target); done {
		return r
	}

	// Rule 4: primitives and literal widening. A type-parameter source is
	// left to rule 11, which compares its constraint against target.
	if _, srcIsParam := source.(*types.TypeParameter); !srcIsParam {
		if r, done := checkPrimitivesAndLiterals(source, target); done {
			return r
		}
	}

	// Rule 5: arrays.
	if srcArr, ok1 := source.(*types.ArrayType); ok1 {
		if tgtArr, ok2 := target.(*types.ArrayType); ok2 {
			return c.Check(srcArr.Element, tgtArr.Element)
		}
	}

	// Rule 6: tuples.
	if srcTup, ok1 := source.(*types.TupleType); ok1 {
		if tgtTup, ok2 := target.(*types.TupleType); ok2 {
			return c.checkTuples(srcTup, tgtTup)
		}
	}

	// Rule 7: functions / constructors.
	if srcFn, ok1 := source.(*types.FunctionType); ok1 {
		if tgtFn, ok2 := target.(*types.FunctionType); ok2 {
			return c.checkFunctions(srcFn, tgtFn)
		}
	}
	if srcCtor, ok1 := source.(*types.ConstructorType); ok1 {
		if tgtCtor, ok2 := target.(*types.ConstructorType); ok2 {
			return c.checkConstructors(srcCtor, tgtCtor)
		}
	}

	// Rule 9: classes.
	if srcCls, ok1 := source.(*types.ClassType); ok1 {
		return c.checkClassSource(srcCls, target)
	}

	// Rule 8: structural objects (also the fallback shape for interfaces).
	if srcObj, ok1 := asStructural(source); ok1 {
		if tgtObj, ok2 := asStructural(target); ok2 {
			return c.checkObjects(srcObj, tgtObj)
		}
	}

	// Rule 11: type parameters.
	if r, done := checkTypeParameters(source, target); done {
		return r
	}
	if srcParam, isParam := source.(*types.TypeParameter); isParam {
		return c.Check(srcParam.EffectiveConstraint(), target)
	}

	return fail(source.String() + " is not assignable to " + target.String())
}

func asStructural(t types.Type) (*types.ObjectType, bool) {
	switch v := t.(type) {
	case *types.ObjectType:
		return v, true
	case *types.InterfaceType:
		return v.Members, true
	}
	return nil, false
}
