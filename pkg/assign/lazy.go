package assign

import "github.com/forge18/luanext-typechecker/pkg/types"

// evalLazy covers rule 12: Conditional/Mapped/Keyof/IndexedAccess evaluate
// against the environment if their operands are fully ground (contain no
// free type parameter), otherwise the caller falls back to syntactic
// comparison (already handled by the Equals check in Check before this is
// reached, for the case where both sides are the same unevaluated shape).
func (c *Checker) evalLazy(source, target types.Type) (Result, bool) {
	if lazy, isLazy := source.(*types.Keyof); isLazy {
		if isGround(lazy.Operand) {
			evaluated, err := c.env.EvalKeyof(lazy.Operand, lazy.Span)
			if err != nil {
				return fail(err.Error()), true
			}
			return c.Check(evaluated, target), true
		}
	}
	if lazy, isLazy := target.(*types.Keyof); isLazy {
		if isGround(lazy.Operand) {
			evaluated, err := c.env.EvalKeyof(lazy.Operand, lazy.Span)
			if err != nil {
				return fail(err.Error()), true
			}
			return c.Check(source, evaluated), true
		}
	}
	if lazy, isLazy := source.(*types.IndexedAccess); isLazy {
		if isGround(lazy.Object) && isGround(lazy.Key) {
			evaluated, err := c.env.EvalIndexedAccess(lazy.Object, lazy.Key)
			if err != nil {
				return fail(err.Error()), true
			}
			return c.Check(evaluated, target), true
		}
	}
	if lazy, isLazy := target.(*types.IndexedAccess); isLazy {
		if isGround(lazy.Object) && isGround(lazy.Key) {
			evaluated, err := c.env.EvalIndexedAccess(lazy.Object, lazy.Key)
			if err != nil {
				return fail(err.Error()), true
			}
			return c.Check(source, evaluated), true
		}
	}
	if lazy, isLazy := source.(*types.Conditional); isLazy {
		if isGround(lazy.Check) && isGround(lazy.Extends) {
			evaluated := c.env.EvalConditional(lazy, c.IsAssignable)
			return c.Check(evaluated, target), true
		}
	}
	if lazy, isLazy := target.(*types.Conditional); isLazy {
		if isGround(lazy.Check) && isGround(lazy.Extends) {
			evaluated := c.env.EvalConditional(lazy, c.IsAssignable)
			return c.Check(source, evaluated), true
		}
	}
	if lazy, isLazy := source.(*types.Mapped); isLazy {
		if isGround(lazy.KeySource) {
			evaluated, err := c.env.EvalMapped(lazy)
			if err != nil {
				return fail(err.Error()), true
			}
			return c.Check(evaluated, target), true
		}
	}
	if lazy, isLazy := target.(*types.Mapped); isLazy {
		if isGround(lazy.KeySource) {
			evaluated, err := c.env.EvalMapped(lazy)
			if err != nil {
				return fail(err.Error()), true
			}
			return c.Check(source, evaluated), true
		}
	}
	return Result{}, false
}

// isGround reports whether t contains no free (unbound) type parameter,
// meaning it is safe to evaluate a lazy operator over it now rather than
// deferring. Named references and concrete shapes are always ground from
// this engine's point of view: an unresolved reference is grounded lazily
// by Check's own reference-resolution step, not here.
func isGround(t types.Type) bool {
	switch v := t.(type) {
	case *types.TypeParameter:
		return false
	case *types.UnionType:
		for _, m := range v.Members {
			if !isGround(m) {
				return false
			}
		}
		return true
	case *types.IntersectionType:
		for _, m := range v.Members {
			if !isGround(m) {
				return false
			}
		}
		return true
	case *types.ArrayType:
		return isGround(v.Element)
	case *types.Keyof, *types.IndexedAccess, *types.Conditional, *types.Mapped:
		return false
	default:
		return true
	}
}
