package checker

import (
	"testing"

	"github.com/forge18/luanext-typechecker/pkg/diagnostics"
	"github.com/forge18/luanext-typechecker/pkg/ident"
	"github.com/forge18/luanext-typechecker/pkg/lexer"
	"github.com/forge18/luanext-typechecker/pkg/parser"
	"github.com/forge18/luanext-typechecker/pkg/source"
	"github.com/forge18/luanext-typechecker/pkg/types"
	"github.com/forge18/luanext-typechecker/pkg/typeenv"
)

// fakeRegistry is the smallest ModuleRegistry a test needs: it answers
// every import specifier with a fixed type regardless of the path, since
// these tests exercise the checker's side of the wiring, not
// pkg/modules's own resolution logic (that lives in pkg/modules's own
// tests).
type fakeRegistry struct {
	exports map[string]types.Type
}

func (f *fakeRegistry) BuildOrder() ([]int, error)                { return nil, nil }
func (f *fakeRegistry) MarkInProgress(id int)                     {}
func (f *fakeRegistry) MarkChecked(id int, exports map[string]types.Type) {}

func (f *fakeRegistry) ResolveImport(fromPath, specifierPath, name string, typeOnly bool, span source.Span) (types.Type, bool) {
	t, ok := f.exports[name]
	return t, ok
}

func TestHoistImportsDeclaresValueBinding(t *testing.T) {
	sink := diagnostics.NewCollector()
	file := source.FromPath("a.lua", "import {greet} from \"./b.lua\"\nlocal message: string = greet(\"world\")\n")
	lex := lexer.New(file)
	p := parser.New(lex, file, sink, ident.New())
	prog := p.ParseProgram()

	greetType := &types.FunctionType{
		Params: []types.Param{{Name: "name", Type: types.String}},
		Return: types.String,
	}
	reg := &fakeRegistry{exports: map[string]types.Type{"greet": greetType}}

	root := typeenv.NewRoot()
	c := NewModuleChecker(root, sink)
	c.SetImporter("a.lua", reg)
	c.CheckModule(prog)

	if sink.ErrorCount() != 0 {
		t.Fatalf("expected a clean check, got %d error(s): %v", sink.ErrorCount(), sink.Diagnostics())
	}

	sym, ok := c.Symbols().Lookup("greet")
	if !ok {
		t.Fatal("expected greet to be declared from the import")
	}
	if sym.Type != greetType {
		t.Errorf("expected greet's symbol to carry the resolved import type")
	}
}

func TestHoistImportsSkippedWithoutImporter(t *testing.T) {
	sink := diagnostics.NewCollector()
	file := source.FromPath("a.lua", "import {greet} from \"./b.lua\"\n")
	lex := lexer.New(file)
	p := parser.New(lex, file, sink, ident.New())
	prog := p.ParseProgram()

	root := typeenv.NewRoot()
	c := NewModuleChecker(root, sink)
	c.CheckModule(prog)

	if _, ok := c.Symbols().Lookup("greet"); ok {
		t.Error("expected no binding for greet when no module registry is attached")
	}
}

func TestHoistImportsTypeOnlyRegistersNamedType(t *testing.T) {
	sink := diagnostics.NewCollector()
	file := source.FromPath("a.lua", "import {type Shape} from \"./shapes.lua\"\nlocal s: Shape = nil\n")
	lex := lexer.New(file)
	p := parser.New(lex, file, sink, ident.New())
	prog := p.ParseProgram()

	shapeType := types.NewObjectType().WithProperty("sides", types.Number)
	reg := &fakeRegistry{exports: map[string]types.Type{"Shape": shapeType}}

	root := typeenv.NewRoot()
	c := NewModuleChecker(root, sink)
	c.SetImporter("a.lua", reg)
	c.CheckModule(prog)

	entry, ok := c.Env().LookupType("Shape")
	if !ok {
		t.Fatal("expected Shape to be registered as a named type")
	}
	if entry.Type != shapeType {
		t.Error("expected Shape to resolve to the imported type")
	}
}

// TestGenericIdentityFunctionInfersConcreteType exercises a generic
// function's own type parameter being visible inside its signature and
// body: the parameter must resolve to the same *types.TypeParameter the
// call site substitutes, not fall through to KindUnknownType.
func TestGenericIdentityFunctionInfersConcreteType(t *testing.T) {
	sink := diagnostics.NewCollector()
	file := source.FromPath("a.lua", "function id<T>(v: T) -> T\n  return v\nend\nlocal n = id(42)\n")
	lex := lexer.New(file)
	p := parser.New(lex, file, sink, ident.New())
	prog := p.ParseProgram()

	root := typeenv.NewRoot()
	c := NewModuleChecker(root, sink)
	c.CheckModule(prog)

	if sink.ErrorCount() != 0 {
		t.Fatalf("expected a clean check, got %d error(s): %v", sink.ErrorCount(), sink.Diagnostics())
	}

	sym, ok := c.Symbols().Lookup("n")
	if !ok {
		t.Fatal("expected n to be declared")
	}
	if !types.Number.Equals(sym.Type) {
		t.Errorf("expected n to be inferred as number, got %s", sym.Type.String())
	}
}

// TestAliasToObjectTypeFlagsExcessProperty exercises unwrapping a plain
// type alias down to its underlying object shape before contextual
// object-literal checking runs: without unwrapping, the alias wrapper
// defeats the expected.(*types.ObjectType) assertion and the excess
// property never gets flagged.
func TestAliasToObjectTypeFlagsExcessProperty(t *testing.T) {
	sink := diagnostics.NewCollector()
	file := source.FromPath("a.lua", "type Point = {x: number, y: number}\nlocal p: Point = {x = 1, y = 2, z = 3}\n")
	lex := lexer.New(file)
	p := parser.New(lex, file, sink, ident.New())
	prog := p.ParseProgram()

	root := typeenv.NewRoot()
	c := NewModuleChecker(root, sink)
	c.CheckModule(prog)

	if sink.ErrorCount() == 0 {
		t.Fatal("expected an excess-property diagnostic for z, got a clean check")
	}
	found := false
	for _, d := range sink.Diagnostics() {
		if d.Kind == diagnostics.KindUnknownMember {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a KindUnknownMember diagnostic, got: %v", sink.Diagnostics())
	}
}

// TestArithmeticInferenceProducesNoDiagnostics exercises a plain
// annotated-declaration-then-arithmetic module: no diagnostic should fire,
// and the unannotated `z` must infer as number from `+`'s result type.
func TestArithmeticInferenceProducesNoDiagnostics(t *testing.T) {
	sink := diagnostics.NewCollector()
	file := source.FromPath("a.lua", "local x: number = 42\nlocal y: string = \"hi\"\nlocal z = x + 10\n")
	lex := lexer.New(file)
	p := parser.New(lex, file, sink, ident.New())
	prog := p.ParseProgram()

	root := typeenv.NewRoot()
	c := NewModuleChecker(root, sink)
	c.CheckModule(prog)

	if sink.ErrorCount() != 0 {
		t.Fatalf("expected a clean check, got %d error(s): %v", sink.ErrorCount(), sink.Diagnostics())
	}
	sym, ok := c.Symbols().Lookup("z")
	if !ok {
		t.Fatal("expected z to be declared")
	}
	if !types.Number.Equals(sym.Type) {
		t.Errorf("expected z to be inferred as number, got %s", sym.Type.String())
	}
}

// TestNilableMemberAccessFlagsTypeMismatch exercises the nilable-receiver
// rule: a member access through a union that still includes nil is a
// TypeMismatch regardless of whether the non-nil member carries the prop.
func TestNilableMemberAccessFlagsTypeMismatch(t *testing.T) {
	sink := diagnostics.NewCollector()
	file := source.FromPath("a.lua", "type Box = {value: number}\nlocal m: Box | nil = nil\nlocal v = m.value\n")
	lex := lexer.New(file)
	p := parser.New(lex, file, sink, ident.New())
	prog := p.ParseProgram()

	root := typeenv.NewRoot()
	c := NewModuleChecker(root, sink)
	c.CheckModule(prog)

	if sink.ErrorCount() == 0 {
		t.Fatal("expected a TypeMismatch diagnostic for a possibly-nil receiver, got a clean check")
	}
	found := false
	for _, d := range sink.Diagnostics() {
		if d.Kind == diagnostics.KindTypeMismatch {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a KindTypeMismatch diagnostic, got: %v", sink.Diagnostics())
	}
}

// TestNilableMemberAccessClearsAfterNilCheck exercises narrowing soundness:
// once `m ~= nil` has ruled nil out, accessing m's member inside the true
// branch raises no diagnostic at all.
func TestNilableMemberAccessClearsAfterNilCheck(t *testing.T) {
	sink := diagnostics.NewCollector()
	file := source.FromPath("a.lua", "type Box = {value: number}\nlocal m: Box | nil = nil\nif m ~= nil then\n  local v = m.value\nend\n")
	lex := lexer.New(file)
	p := parser.New(lex, file, sink, ident.New())
	prog := p.ParseProgram()

	root := typeenv.NewRoot()
	c := NewModuleChecker(root, sink)
	c.CheckModule(prog)

	if sink.ErrorCount() != 0 {
		t.Fatalf("expected a clean check once m is narrowed to non-nil, got %d error(s): %v", sink.ErrorCount(), sink.Diagnostics())
	}
}
