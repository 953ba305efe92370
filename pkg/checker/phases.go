package checker

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/forge18/luanext-typechecker/pkg/ast"
	"github.com/forge18/luanext-typechecker/pkg/diagnostics"
	"github.com/forge18/luanext-typechecker/pkg/source"
	"github.com/forge18/luanext-typechecker/pkg/symbols"
	"github.com/forge18/luanext-typechecker/pkg/types"
	"github.com/forge18/luanext-typechecker/pkg/typeenv"
)

// CheckModule runs all three phases over one module's already-parsed AST,
// in the fixed order the orchestrator imposes: hoist every top-level
// declaration, check statements in source order, then validate the
// declarations hoisting produced now that every forward reference has
// resolved. Grounded on the teacher's checker.go Check entry point,
// restructured into three named passes per spec.md §4.8 rather than the
// teacher's single recursive visit, since this dialect's forward
// references (a class used before its declaration, a type alias cycle)
// need every top-level name registered before any statement is checked.
func (c *Checker) CheckModule(prog *ast.Program) {
	log := logrus.WithField("run_id", c.runID)
	log.WithField("statements", len(prog.Statements)).Debug("checker: phase 1 hoist")
	c.hoistProgram(prog)

	log.Debug("checker: phase 2 infer")
	for _, stmt := range prog.Statements {
		c.checkStatement(stmt)
	}

	log.Debug("checker: phase 3 validate")
	c.validateProgram(prog)
}

// hoistProgram is Phase 1. It runs in three sub-passes so that every
// top-level name is visible to every other top-level declaration
// regardless of source order: first, empty shells for every named type
// (class/interface/alias) are registered so forward references resolve,
// and enums are hoisted whole (type and values) by hoistEnum; second, each
// shell's body (extends/implements/members/alias target) is filled in;
// third, value-level symbols (function signatures, class constructors) are
// declared, since those never need to satisfy a forward reference from
// within a type position.
func (c *Checker) hoistProgram(prog *ast.Program) {
	c.hoistImports(prog)

	var classes []*ast.ClassDecl
	var interfaces []*ast.InterfaceDecl
	var aliases []*ast.TypeAliasDecl

	classShells := map[*ast.ClassDecl]*types.ClassType{}
	ifaceShells := map[*ast.InterfaceDecl]*types.InterfaceType{}
	aliasShells := map[*ast.TypeAliasDecl]*types.AliasType{}

	for _, stmt := range prog.Statements {
		switch s := stmt.(type) {
		case *ast.ClassDecl:
			classes = append(classes, s)
			classShells[s] = c.hoistClassShell(s)
		case *ast.InterfaceDecl:
			interfaces = append(interfaces, s)
			ifaceShells[s] = c.hoistInterfaceShell(s)
		case *ast.TypeAliasDecl:
			aliases = append(aliases, s)
			aliasShells[s] = c.hoistAliasShell(s)
		case *ast.EnumDecl:
			c.hoistEnum(s)
		}
	}

	for _, s := range interfaces {
		c.hoistInterfaceBody(s, ifaceShells[s])
	}
	for _, s := range classes {
		c.hoistClassBody(s, classShells[s])
	}
	for _, s := range aliases {
		var tparams []*types.TypeParameter
		if entry, ok := c.env.LookupType(s.Name); ok {
			tparams = entry.TypeParams
		}
		restore := c.pushTypeParamScope(tparams)
		aliasShells[s].Resolved = c.resolveType(s.Value)
		restore()
	}

	for _, stmt := range prog.Statements {
		switch s := stmt.(type) {
		case *ast.FunctionDecl:
			c.hoistFunctionSignature(s)
		case *ast.ClassDecl:
			c.hoistClassSymbol(s, classShells[s])
		}
	}
}

// hoistImports declares every import specifier into this module's scope
// before any other top-level name is hoisted, since a class or function
// signature hoisted afterward may reference an imported type. Skipped
// entirely when no module registry is attached (pkg/checker's own
// standalone tests), matching the no-op checkStatement treats
// *ast.ImportStatement with in Phase 2.
func (c *Checker) hoistImports(prog *ast.Program) {
	if c.importer == nil {
		return
	}
	for _, stmt := range prog.Statements {
		imp, ok := stmt.(*ast.ImportStatement)
		if !ok {
			continue
		}
		for _, spec := range imp.Specifiers {
			typeOnly := imp.TypeOnly || spec.TypeOnly
			t, ok := c.importer.ResolveImport(c.modulePath, imp.FromPath, spec.Name, typeOnly, imp.Span())
			if !ok {
				continue
			}
			alias := spec.Alias
			if alias == "" {
				alias = spec.Name
			}
			if typeOnly {
				if err := c.env.RegisterType(alias, t, nil); err != nil {
					c.errorf(diagnostics.KindDuplicateDeclaration, imp.Span(), "%s", err.Error())
				}
			}
			if err := c.syms.Declare(alias, &symbols.Symbol{
				Name: alias, Kind: symbols.KindVar, Type: t, TypeOnly: typeOnly, DeclSpan: imp.Span(),
			}); err != nil {
				c.errorf(diagnostics.KindDuplicateDeclaration, imp.Span(), "%s", err.Error())
			}
		}
	}
}

func (c *Checker) hoistInterfaceShell(s *ast.InterfaceDecl) *types.InterfaceType {
	iface := &types.InterfaceType{
		Name:       s.Name,
		TypeParams: c.resolveTypeParams(s.TypeParams),
		Members:    types.NewObjectType(),
		Forward:    s.Forward,
		Span:       s.Span(),
	}
	if err := c.env.RegisterType(s.Name, iface, iface.TypeParams); err != nil {
		c.errorf(diagnostics.KindDuplicateDeclaration, s.Span(), "%s", err.Error())
	}
	return iface
}

func (c *Checker) hoistInterfaceBody(s *ast.InterfaceDecl, iface *types.InterfaceType) {
	restore := c.pushTypeParamScope(iface.TypeParams)
	defer restore()

	for _, ext := range s.Extends {
		if base := c.resolveInterfaceRef(ext); base != nil {
			iface.Extends = append(iface.Extends, base)
		}
	}
	for _, m := range s.Members {
		iface.Members.Properties[m.Name] = &types.Property{
			Type:     c.resolveType(m.Type),
			Optional: m.Optional,
			Readonly: m.Readonly,
		}
	}
	for _, base := range iface.Extends {
		for name, prop := range base.Members.Properties {
			if _, ok := iface.Members.Properties[name]; !ok {
				iface.Members.Properties[name] = prop
			}
		}
	}
}

func (c *Checker) hoistAliasShell(s *ast.TypeAliasDecl) *types.AliasType {
	alias := &types.AliasType{Name: s.Name, Span: s.Span()}
	tparams := c.resolveTypeParams(s.TypeParams)
	if err := c.env.RegisterType(s.Name, alias, tparams); err != nil {
		c.errorf(diagnostics.KindDuplicateDeclaration, s.Span(), "%s", err.Error())
	}
	return alias
}

// hoistFunctionSignature resolves and declares a top-level function's
// signature without checking its body — Phase 2 does that once every
// sibling declaration (including ones the function forward-references) is
// visible.
func (c *Checker) hoistFunctionSignature(s *ast.FunctionDecl) {
	fn := s.Function
	tparams := c.resolveTypeParams(fn.TypeParams)
	restore := c.pushTypeParamScope(tparams)
	defer restore()

	params := make([]types.Param, len(fn.Params))
	for i, p := range fn.Params {
		var pt types.Type = types.Any
		if p.Type != nil {
			pt = c.resolveType(p.Type)
		}
		params[i] = types.Param{Name: p.Name, Type: pt, Optional: p.Optional, Rest: p.Rest}
	}
	var ret types.Type
	if fn.ReturnType != nil {
		ret = c.resolveType(fn.ReturnType)
	}
	sig := &types.FunctionType{TypeParams: tparams, Params: params, Return: ret, Span: s.Span()}
	if err := c.syms.Declare(s.Name, &symbols.Symbol{
		Name: s.Name, Kind: symbols.KindFunction, Type: sig, Exported: s.Exported, DeclSpan: s.Span(),
	}); err != nil {
		c.errorf(diagnostics.KindDuplicateDeclaration, s.Span(), "%s", err.Error())
	}
}

// validateProgram is Phase 3: once every declaration in the module has its
// final shape, check the properties that need the whole picture —
// implements/override/constructor completeness for classes (class.go).
// Member access control is not part of this phase: checkMemberAccess
// enforces it inline during Phase 2.
func (c *Checker) validateProgram(prog *ast.Program) {
	var classes []*ast.ClassDecl
	for _, stmt := range prog.Statements {
		if cd, ok := stmt.(*ast.ClassDecl); ok {
			classes = append(classes, cd)
		}
	}
	c.validateClasses(classes)
}

// NewModuleChecker is a convenience constructor for the common case: a
// fresh symbol table and a type environment that is a child of root (so
// stdlib and already-checked sibling modules' exports are visible without
// copying them).
func NewModuleChecker(root *typeenv.Env, sink diagnostics.Sink) *Checker {
	return New(root.NewChild(), sink)
}

// Metrics is a point-in-time snapshot of one session's bookkeeping,
// grounded on the Rust prototype's per-session counters
// (original_source/src/state/metrics_tests.rs): how many modules have been
// checked, how many diagnostics have accumulated, and the assignability
// cache's hit rate across all of them.
type Metrics struct {
	CheckedModules int
	Diagnostics    int
	CacheHitRate   float64
}

// ModuleRegistry is the capability interface the orchestrator needs from
// pkg/modules: enough to ask for a build order and to flip a module's
// checked state, without pkg/checker importing pkg/modules directly.
// pkg/modules does not import pkg/checker either: it receives the lazy
// type-check callback as a plain modules.CheckFunc.
type ModuleRegistry interface {
	BuildOrder() ([]int, error)
	MarkInProgress(id int)
	MarkChecked(id int, exports map[string]types.Type)

	// ResolveImport looks up name in the module specifierPath resolves to
	// from fromPath, classifying it as a value or type-only binding per
	// typeOnly. Phase 1 calls this once per import specifier to populate
	// the importing module's own scope.
	ResolveImport(fromPath, specifierPath, name string, typeOnly bool, span source.Span) (types.Type, bool)
}

// StdlibLoader seeds a session-root type environment with the standard
// library catalogue before any module is checked.
type StdlibLoader interface {
	Load(root *typeenv.Env) error
}

// Session owns the session-root type environment and the capabilities
// (diagnostics sink, module registry, stdlib loader) every per-module
// Checker needs, wired in as interface-typed fields rather than a DI
// container — see DESIGN.md's note on the Rust prototype's src/di/ tests.
type Session struct {
	Root    *typeenv.Env
	Sink    diagnostics.Sink
	Modules ModuleRegistry
	Stdlib  StdlibLoader

	checked int
}

// NewSession creates a session and, unless NoStdlib policy says otherwise,
// loads the standard library catalogue into its root environment.
func NewSession(sink diagnostics.Sink, modules ModuleRegistry, stdlib StdlibLoader, noStdlib bool) (*Session, error) {
	root := typeenv.NewRoot()
	s := &Session{Root: root, Sink: sink, Modules: modules, Stdlib: stdlib}
	if !noStdlib && stdlib != nil {
		if err := stdlib.Load(root); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// CheckModule runs a fresh per-module Checker against prog and folds its
// assignability cache stats into the session's running metrics. path is
// the module's own canonical path, threaded through to the Checker so its
// import-statement handling can resolve relative specifiers against it.
// Each call mints a fresh run ID (grounded on SimplyLiz-CodeMCP's
// request-ID middleware) so this module's phase-transition log lines can
// be correlated with each other across a session that checks many
// modules back to back.
func (s *Session) CheckModule(path string, prog *ast.Program, reExported map[string]bool) *Checker {
	c := NewModuleChecker(s.Root, s.Sink)
	c.SetReExported(reExported)
	c.SetImporter(path, s.Modules)
	c.SetRunID(uuid.New().String())
	c.CheckModule(prog)
	s.checked++
	return c
}

// Metrics snapshots the session's counters. CacheHitRate reflects the most
// recently checked module's assignability cache, since each Checker owns
// its own cache rather than sharing one across modules.
func (s *Session) Metrics(last *Checker) Metrics {
	m := Metrics{CheckedModules: s.checked, Diagnostics: len(s.Sink.Diagnostics())}
	if last != nil {
		_, _, hitRate := last.Stats()
		m.CacheHitRate = hitRate
	}
	return m
}
