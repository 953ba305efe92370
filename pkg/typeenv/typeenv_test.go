package typeenv

import (
	"testing"

	"github.com/forge18/luanext-typechecker/pkg/types"
)

func TestRegisterAndLookupType(t *testing.T) {
	env := NewRoot()
	if err := env.RegisterType("Point", types.NewObjectType().WithProperty("x", types.Number), nil); err != nil {
		t.Fatalf("unexpected error registering Point: %v", err)
	}
	entry, ok := env.LookupType("Point")
	if !ok {
		t.Fatal("expected Point to be registered")
	}
	if _, isObj := entry.Type.(*types.ObjectType); !isObj {
		t.Errorf("expected Point's entry to carry its object type, got %T", entry.Type)
	}
}

func TestRegisterDuplicateNonForwardIsError(t *testing.T) {
	env := NewRoot()
	_ = env.RegisterType("Point", types.NewObjectType(), nil)
	err := env.RegisterType("Point", types.NewObjectType(), nil)
	if err == nil {
		t.Fatal("expected registering the same name twice to fail")
	}
	if _, ok := err.(*DuplicateTypeError); !ok {
		t.Errorf("expected a *DuplicateTypeError, got %T", err)
	}
}

// TestRegisterMergesForwardDeclaration exercises the two-module mutual-
// import shape spec.md §8 calls out: an interface forward-declared empty
// (to satisfy a cyclic reference) merges in place once its real body
// arrives, rather than conflicting with it.
func TestRegisterMergesForwardDeclaration(t *testing.T) {
	env := NewRoot()
	forward := &types.InterfaceType{Name: "Node", Members: types.NewObjectType(), Forward: true}
	if err := env.RegisterType("Node", forward, nil); err != nil {
		t.Fatalf("unexpected error registering the forward declaration: %v", err)
	}

	full := &types.InterfaceType{Name: "Node", Members: types.NewObjectType().WithProperty("value", types.Number)}
	if err := env.RegisterType("Node", full, nil); err != nil {
		t.Fatalf("expected the full declaration to merge into the forward one, got: %v", err)
	}

	entry, _ := env.LookupType("Node")
	merged := entry.Type.(*types.InterfaceType)
	if merged.Forward {
		t.Error("expected the merged interface no longer to be marked Forward")
	}
	if _, ok := merged.Members.Properties["value"]; !ok {
		t.Error("expected the forward declaration's pointer to pick up the full body's members")
	}
}

func TestChildEnvFallsThroughToParent(t *testing.T) {
	root := NewRoot()
	_ = root.RegisterType("Shared", types.String, nil)
	child := root.NewChild()

	if _, ok := child.LookupType("Shared"); !ok {
		t.Error("expected a child environment to see its parent's declarations")
	}
}

func TestResolveGenericReferenceSubstitutes(t *testing.T) {
	env := NewRoot()
	param := &types.TypeParameter{Name: "T"}
	box := types.NewObjectType().WithProperty("value", param)
	_ = env.RegisterType("Box", box, []*types.TypeParameter{param})

	ref := &types.Reference{Name: "Box", TypeArgs: []types.Type{types.Number}}
	resolved, err := env.Resolve(ref)
	if err != nil {
		t.Fatalf("unexpected error resolving Box<number>: %v", err)
	}
	obj, ok := resolved.(*types.ObjectType)
	if !ok {
		t.Fatalf("expected an object type, got %T", resolved)
	}
	if obj.Properties["value"].Type != types.Number {
		t.Errorf("expected value's type to substitute to number, got %s", obj.Properties["value"].Type.String())
	}
}

func TestResolveUnknownNameIsResolutionError(t *testing.T) {
	env := NewRoot()
	_, err := env.Resolve(&types.Reference{Name: "Missing"})
	if err == nil {
		t.Fatal("expected resolving an unregistered name to fail")
	}
	if _, ok := err.(*ResolutionError); !ok {
		t.Errorf("expected a *ResolutionError, got %T", err)
	}
}

// TestEvalUtilityOmitDropsNamedKey exercises spec.md §8's Omit<U, "name">
// end-to-end scenario's utility-type half in isolation from the checker.
func TestEvalUtilityOmitDropsNamedKey(t *testing.T) {
	env := NewRoot()
	u := types.NewObjectType().WithProperty("id", types.Number).WithProperty("name", types.String)

	result, err := env.EvalUtility("Omit", []types.Type{u, types.NewStringLiteral("name")}, u.Span)
	if err != nil {
		t.Fatalf("unexpected error evaluating Omit: %v", err)
	}
	out := result.(*types.ObjectType)
	if _, ok := out.Properties["name"]; ok {
		t.Error("expected name to be omitted")
	}
	if _, ok := out.Properties["id"]; !ok {
		t.Error("expected id to survive Omit")
	}
}
