package symbols

import (
	"testing"

	"github.com/forge18/luanext-typechecker/pkg/types"
)

func numFn(params ...types.Type) *types.FunctionType {
	ps := make([]types.Param, len(params))
	for i, t := range params {
		ps[i] = types.Param{Name: "p", Type: t}
	}
	return &types.FunctionType{Params: ps, Return: types.Void}
}

func TestDeclareAndLookup(t *testing.T) {
	tbl := NewTable()
	sym := &Symbol{Name: "x", Kind: KindVar, Type: types.Number}
	if err := tbl.Declare("x", sym); err != nil {
		t.Fatalf("unexpected error declaring x: %v", err)
	}
	got, ok := tbl.Lookup("x")
	if !ok || got != sym {
		t.Fatal("expected Lookup to find the declared symbol")
	}
}

func TestDeclareDuplicateVarIsRejected(t *testing.T) {
	tbl := NewTable()
	_ = tbl.Declare("x", &Symbol{Name: "x", Kind: KindVar, Type: types.Number})
	err := tbl.Declare("x", &Symbol{Name: "x", Kind: KindVar, Type: types.String})
	if err == nil {
		t.Fatal("expected declaring the same var name twice to fail")
	}
	if _, ok := err.(*DuplicateError); !ok {
		t.Errorf("expected a *DuplicateError, got %T", err)
	}
}

// TestDeclareDistinguishableOverloadsMerge exercises spec.md §4.2's
// overload-group rule: two function symbols sharing a name merge into one
// group when their parameter lists are distinguishable, with the second
// signature landing in Overloads rather than conflicting.
func TestDeclareDistinguishableOverloadsMerge(t *testing.T) {
	tbl := NewTable()
	first := &Symbol{Name: "f", Kind: KindFunction, Type: numFn(types.Number)}
	second := &Symbol{Name: "f", Kind: KindFunction, Type: numFn(types.String)}

	if err := tbl.Declare("f", first); err != nil {
		t.Fatalf("unexpected error on first declaration: %v", err)
	}
	if err := tbl.Declare("f", second); err != nil {
		t.Fatalf("expected a distinguishable overload to merge without error, got: %v", err)
	}

	sym, ok := tbl.Lookup("f")
	if !ok {
		t.Fatal("expected f to be declared")
	}
	if len(sym.Overloads) != 1 || !sym.Overloads[0].Equals(second.Type) {
		t.Errorf("expected the second signature to land in Overloads, got %v", sym.Overloads)
	}
}

// TestDeclareIdenticalSignatureTwiceIsDuplicate exercises the negative case
// the overload merge must not swallow: declaring the exact same call
// signature under one name twice is a genuine duplicate, not an overload.
func TestDeclareIdenticalSignatureTwiceIsDuplicate(t *testing.T) {
	tbl := NewTable()
	_ = tbl.Declare("f", &Symbol{Name: "f", Kind: KindFunction, Type: numFn(types.Number)})
	err := tbl.Declare("f", &Symbol{Name: "f", Kind: KindFunction, Type: numFn(types.Number)})
	if err == nil {
		t.Fatal("expected declaring an identical signature twice to fail")
	}
	if _, ok := err.(*DuplicateError); !ok {
		t.Errorf("expected a *DuplicateError, got %T", err)
	}
}

func TestScopeChainShadowing(t *testing.T) {
	tbl := NewTable()
	outer := &Symbol{Name: "x", Kind: KindVar, Type: types.Number}
	_ = tbl.Declare("x", outer)

	tbl.EnterScope()
	inner := &Symbol{Name: "x", Kind: KindVar, Type: types.String}
	if err := tbl.Declare("x", inner); err != nil {
		t.Fatalf("expected shadowing in a child scope to succeed, got: %v", err)
	}
	got, _ := tbl.Lookup("x")
	if got != inner {
		t.Error("expected Lookup to prefer the innermost declaration")
	}
	if _, ok := tbl.LookupLocal("x"); !ok {
		t.Error("expected LookupLocal to find the shadowing declaration")
	}

	tbl.ExitScope()
	got, _ = tbl.Lookup("x")
	if got != outer {
		t.Error("expected Lookup to fall back to the outer declaration after ExitScope")
	}
}

func TestModuleExportsOnlyExportedTopLevelSymbols(t *testing.T) {
	tbl := NewTable()
	_ = tbl.Declare("pub", &Symbol{Name: "pub", Kind: KindVar, Type: types.Number, Exported: true})
	_ = tbl.Declare("priv", &Symbol{Name: "priv", Kind: KindVar, Type: types.Number})

	exports := tbl.ModuleExports()
	if _, ok := exports["pub"]; !ok {
		t.Error("expected pub to be exported")
	}
	if _, ok := exports["priv"]; ok {
		t.Error("expected priv not to be exported")
	}
}
