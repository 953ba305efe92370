package modules

import (
	"testing"

	"github.com/forge18/luanext-typechecker/pkg/ast"
	"github.com/forge18/luanext-typechecker/pkg/diagnostics"
	"github.com/forge18/luanext-typechecker/pkg/source"
	"github.com/forge18/luanext-typechecker/pkg/types"
)

func newTestRegistry(files map[string]string) (*Registry, *diagnostics.Collector) {
	fs := NewMemoryFS(files)
	resolver := NewResolver(fs)
	sink := diagnostics.NewCollector()
	return NewRegistry(resolver, sink, nil), sink
}

func TestRegisterClassifiesValueImportEdge(t *testing.T) {
	reg, _ := newTestRegistry(map[string]string{
		"/p/a.lua": "",
		"/p/b.lua": "",
	})

	progA := &ast.Program{Statements: []ast.Statement{
		&ast.ImportStatement{
			Specifiers: []ast.ImportSpecifier{{Name: "foo", Alias: "foo"}},
			FromPath:   "./b.lua",
		},
	}}
	idA := reg.Register("/p/a.lua", progA)
	idB := reg.IDFor("/p/b.lua")

	order, err := reg.BuildOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	posA, posB := -1, -1
	for i, id := range order {
		if ModuleID(id) == idA {
			posA = i
		}
		if ModuleID(id) == idB {
			posB = i
		}
	}
	if posA >= posB {
		t.Errorf("expected a (importer) before b (imported), got order %v", order)
	}
}

func TestRegisterTypeOnlyImportDoesNotGateBuildOrder(t *testing.T) {
	reg, _ := newTestRegistry(map[string]string{
		"/p/a.lua": "",
		"/p/b.lua": "",
	})

	progA := &ast.Program{Statements: []ast.Statement{
		&ast.ImportStatement{
			Specifiers: []ast.ImportSpecifier{{Name: "Foo", Alias: "Foo", TypeOnly: true}},
			FromPath:   "./b.lua",
			TypeOnly:   true,
		},
	}}
	progB := &ast.Program{Statements: []ast.Statement{
		&ast.ImportStatement{
			Specifiers: []ast.ImportSpecifier{{Name: "Bar", Alias: "Bar", TypeOnly: true}},
			FromPath:   "./a.lua",
			TypeOnly:   true,
		},
	}}
	reg.Register("/p/a.lua", progA)
	reg.Register("/p/b.lua", progB)

	if _, err := reg.BuildOrder(); err != nil {
		t.Fatalf("a type-only import cycle must not block build order: %v", err)
	}
}

// TestRegisterMutualValueImportReportsCircularDependency exercises spec.md
// §8's mutual-value-import scenario end to end through the registry: a
// imports value foo from b and b imports value bar from a, so BuildOrder
// must fail and report KindCircularValueDependency rather than silently
// picking an order.
func TestRegisterMutualValueImportReportsCircularDependency(t *testing.T) {
	reg, sink := newTestRegistry(map[string]string{
		"/p/a.lua": "",
		"/p/b.lua": "",
	})

	progA := &ast.Program{Statements: []ast.Statement{
		&ast.ImportStatement{Specifiers: []ast.ImportSpecifier{{Name: "foo", Alias: "foo"}}, FromPath: "./b.lua"},
	}}
	progB := &ast.Program{Statements: []ast.Statement{
		&ast.ImportStatement{Specifiers: []ast.ImportSpecifier{{Name: "bar", Alias: "bar"}}, FromPath: "./a.lua"},
	}}
	reg.Register("/p/a.lua", progA)
	reg.Register("/p/b.lua", progB)

	if _, err := reg.BuildOrder(); err == nil {
		t.Fatal("expected a mutual value-import cycle to fail BuildOrder")
	}
	found := false
	for _, d := range sink.Diagnostics() {
		if d.Kind == diagnostics.KindCircularValueDependency {
			found = true
		}
	}
	if !found {
		t.Error("expected a CircularValueDependency diagnostic")
	}
}

func TestReExportResolvesThroughChain(t *testing.T) {
	reg, _ := newTestRegistry(map[string]string{
		"/p/a.lua": "",
		"/p/b.lua": "",
	})

	progA := &ast.Program{Statements: []ast.Statement{
		&ast.ExportStatement{
			Specifiers: []ast.ExportSpecifier{{Name: "value"}},
			FromPath:   "./b.lua",
		},
	}}
	idA := reg.Register("/p/a.lua", progA)
	idB := reg.IDFor("/p/b.lua")
	reg.MarkChecked(int(idB), map[string]types.Type{"value": types.Number})

	got, ok := reg.ResolveExport(idA, "value", false, 0, map[[2]any]bool{})
	if !ok {
		t.Fatal("expected re-export to resolve")
	}
	if got != types.Number {
		t.Errorf("expected number, got %v", got)
	}
}

func TestReExportCircularDetected(t *testing.T) {
	reg, sink := newTestRegistry(map[string]string{
		"/p/a.lua": "",
		"/p/b.lua": "",
	})

	progA := &ast.Program{Statements: []ast.Statement{
		&ast.ExportStatement{Specifiers: []ast.ExportSpecifier{{Name: "x"}}, FromPath: "./b.lua"},
	}}
	progB := &ast.Program{Statements: []ast.Statement{
		&ast.ExportStatement{Specifiers: []ast.ExportSpecifier{{Name: "x"}}, FromPath: "./a.lua"},
	}}
	idA := reg.Register("/p/a.lua", progA)
	reg.Register("/p/b.lua", progB)
	reg.MarkChecked(int(idA), map[string]types.Type{})

	_, ok := reg.ResolveExport(idA, "x", false, 0, map[[2]any]bool{})
	if ok {
		t.Fatal("expected circular re-export to fail resolution")
	}

	found := false
	for _, d := range sink.Diagnostics() {
		if d.Kind == diagnostics.KindCircularReExport {
			found = true
		}
	}
	if !found {
		t.Error("expected a CircularReExport diagnostic")
	}
}

func TestResolveImportValueOfTypeOnlyExport(t *testing.T) {
	reg, sink := newTestRegistry(map[string]string{
		"/p/a.lua": "",
		"/p/b.lua": "",
	})
	idB := reg.IDFor("/p/b.lua")
	reg.MarkChecked(int(idB), map[string]types.Type{})
	reg.SetExportedTypes(idB, map[string]types.Type{"Shape": types.Any})

	_, ok := reg.ResolveImport("/p/a.lua", "./b.lua", "Shape", false, source.Span{})
	if ok {
		t.Fatal("expected a value import of a type-only export to fail")
	}
	found := false
	for _, d := range sink.Diagnostics() {
		if d.Kind == diagnostics.KindRuntimeImportOfTypeOnly {
			found = true
		}
	}
	if !found {
		t.Error("expected a RuntimeImportOfTypeOnly diagnostic")
	}
}
