package assign

import (
	"testing"

	"github.com/forge18/luanext-typechecker/pkg/types"
	"github.com/forge18/luanext-typechecker/pkg/typeenv"
)

func TestCheckPrimitiveIdentity(t *testing.T) {
	c := New(typeenv.NewRoot())
	if !c.IsAssignable(types.Number, types.Number) {
		t.Error("expected number assignable to number")
	}
	if c.IsAssignable(types.Number, types.String) {
		t.Error("expected number not assignable to string")
	}
}

func TestCheckLiteralWidensToPrimitive(t *testing.T) {
	c := New(typeenv.NewRoot())
	lit := types.NewNumberLiteral(42)
	if !c.IsAssignable(lit, types.Number) {
		t.Error("expected a number literal assignable to its widened primitive")
	}
	if c.IsAssignable(types.Number, lit) {
		t.Error("expected the widened primitive not assignable back to the narrower literal")
	}
}

func TestCheckAnyAbsorbsEverything(t *testing.T) {
	c := New(typeenv.NewRoot())
	if !c.IsAssignable(types.String, types.Any) {
		t.Error("expected anything assignable to any")
	}
	if !c.IsAssignable(types.Any, types.String) {
		t.Error("expected any assignable to anything")
	}
}

func TestCheckUnionMemberIsAssignableToUnion(t *testing.T) {
	c := New(typeenv.NewRoot())
	u := types.NewUnionType(types.String, types.Nil)
	if !c.IsAssignable(types.String, u) {
		t.Error("expected a member type assignable to its union")
	}
	if c.IsAssignable(u, types.String) {
		t.Error("expected the wider union not assignable to one of its members")
	}
}

// TestCheckFunctionContravariantOverrideFlagsUnsoundVariance exercises the
// spec's documented Open Question resolution: a function type whose
// parameter is narrower than the target's (a contravariant refinement)
// still holds, but the result carries UnsoundVariance rather than failing
// outright or passing silently.
func TestCheckFunctionContravariantOverrideFlagsUnsoundVariance(t *testing.T) {
	c := New(typeenv.NewRoot())
	target := &types.FunctionType{Params: []types.Param{{Name: "v", Type: types.NewUnionType(types.String, types.Number)}}, Return: types.Void}
	source := &types.FunctionType{Params: []types.Param{{Name: "v", Type: types.String}}, Return: types.Void}

	result := c.Check(source, target)
	if !result.OK {
		t.Fatalf("expected the relation to hold via the covariant fallback, got: %s", result.Reason)
	}
	if !result.UnsoundVariance {
		t.Error("expected UnsoundVariance to be set for a contravariant parameter refinement")
	}
}

func TestCheckFunctionSoundContravarianceIsNotFlagged(t *testing.T) {
	c := New(typeenv.NewRoot())
	target := &types.FunctionType{Params: []types.Param{{Name: "v", Type: types.String}}, Return: types.Void}
	source := &types.FunctionType{Params: []types.Param{{Name: "v", Type: types.NewUnionType(types.String, types.Number)}}, Return: types.Void}

	result := c.Check(source, target)
	if !result.OK {
		t.Fatalf("expected a soundly contravariant parameter to be assignable, got: %s", result.Reason)
	}
	if result.UnsoundVariance {
		t.Error("expected a soundly contravariant parameter not to be flagged")
	}
}

func TestCheckRecursiveInterfaceTerminates(t *testing.T) {
	node := &types.InterfaceType{Name: "Node", Members: types.NewObjectType()}
	node.Members.WithProperty("next", node)
	c := New(typeenv.NewRoot())

	result := c.Check(node, node)
	if !result.OK {
		t.Fatalf("expected a self-referential interface to be assignable to itself, got: %s", result.Reason)
	}
}
