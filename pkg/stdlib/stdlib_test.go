package stdlib

import (
	"testing"

	"github.com/forge18/luanext-typechecker/pkg/types"
	"github.com/forge18/luanext-typechecker/pkg/typeenv"
)

func TestLoadRegistersCatalogue(t *testing.T) {
	root := typeenv.NewRoot()
	if err := New(Lua54).Load(root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"Array", "Record", "Error"} {
		if _, ok := root.LookupType(name); !ok {
			t.Errorf("expected %s to be registered", name)
		}
	}
}

func TestArrayResolvesWithTypeArgument(t *testing.T) {
	root := typeenv.NewRoot()
	if err := New(Lua54).Load(root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resolved, err := root.Resolve(&types.Reference{Name: "Array", TypeArgs: []types.Type{types.Number}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	alias, ok := resolved.(*types.AliasType)
	if !ok {
		t.Fatalf("expected *types.AliasType, got %T", resolved)
	}
	arr, ok := alias.Resolved.(*types.ArrayType)
	if !ok {
		t.Fatalf("expected the alias to resolve to *types.ArrayType, got %T", alias.Resolved)
	}
	if arr.Element != types.Number {
		t.Errorf("expected element number, got %v", arr.Element)
	}
}

func TestRecordResolvesValueType(t *testing.T) {
	root := typeenv.NewRoot()
	if err := New(Lua54).Load(root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resolved, err := root.Resolve(&types.Reference{Name: "Record", TypeArgs: []types.Type{types.String, types.Boolean}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obj, ok := resolved.(*types.ObjectType)
	if !ok {
		t.Fatalf("expected *types.ObjectType, got %T", resolved)
	}
	if obj.Index == nil || obj.Index.Value != types.Boolean {
		t.Errorf("expected index value boolean, got %v", obj.Index)
	}
}

func TestUnrecognizedVersionFallsBackToLua54(t *testing.T) {
	l := New(Version("nonsense"))
	if l.version != Lua54 {
		t.Errorf("expected fallback to Lua54, got %v", l.version)
	}
}

func TestLoadTwiceOnFreshRootsDoesNotCollide(t *testing.T) {
	rootA := typeenv.NewRoot()
	rootB := typeenv.NewRoot()
	if err := New(Lua54).Load(rootA); err != nil {
		t.Fatalf("unexpected error loading rootA: %v", err)
	}
	if err := New(Lua54).Load(rootB); err != nil {
		t.Fatalf("unexpected error loading rootB: %v", err)
	}
}
