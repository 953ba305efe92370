package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forge18/luanext-typechecker/pkg/ast"
	"github.com/forge18/luanext-typechecker/pkg/checker"
	"github.com/forge18/luanext-typechecker/pkg/config"
	"github.com/forge18/luanext-typechecker/pkg/diagnostics"
	"github.com/forge18/luanext-typechecker/pkg/ident"
	"github.com/forge18/luanext-typechecker/pkg/lexer"
	"github.com/forge18/luanext-typechecker/pkg/modules"
	"github.com/forge18/luanext-typechecker/pkg/parser"
	"github.com/forge18/luanext-typechecker/pkg/source"
	"github.com/forge18/luanext-typechecker/pkg/stdlib"
	"github.com/forge18/luanext-typechecker/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check <entry files...>",
	Short: "Type-check one or more modules and their transitive imports",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	opts, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	sink := diagnostics.NewCollector()
	fs := modules.OSFileSystem{}
	resolver := modules.NewResolver(fs)
	reg := modules.NewRegistry(resolver, sink, nil)
	interner := ident.New()

	loader := stdlib.New(stdlib.Version(opts.TargetRuntimeVersion))
	sess, err := checker.NewSession(sink, reg, loader, opts.NoStdlib)
	if err != nil {
		return fmt.Errorf("loading standard library: %w", err)
	}
	reg.SetCheckFunc(checkFuncFor(sess))

	loaded := map[string]bool{}
	for _, entry := range args {
		path, err := fs.Canonicalize("", entry)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", entry, err)
		}
		if err := loadModuleGraph(fs, resolver, reg, interner, sink, loaded, path); err != nil {
			return err
		}
	}

	order, err := reg.BuildOrder()
	if err == nil {
		for _, id := range order {
			reg.EnsureChecked(modules.ModuleID(id), 0)
		}
	}
	// A build-order failure (a circular value dependency) has already been
	// reported into sink by BuildOrder itself; there is nothing further to
	// check in that case, since the cycle makes ordering undefined.

	diagnostics.Render(os.Stdout, sink.Diagnostics())
	if sink.ErrorCount() > 0 {
		return fmt.Errorf("%d error(s)", sink.ErrorCount())
	}
	return nil
}

// checkFuncFor adapts sess.CheckModule to the modules.CheckFunc signature:
// run the session's per-module checker, then split its surviving
// declarations into value exports (from the symbol table) and type-level
// exports (from the module's own type environment, since hoisting already
// registered every exported class/interface/alias/enum there).
func checkFuncFor(sess *checker.Session) modules.CheckFunc {
	return func(path string, prog *ast.Program, reExported map[string]bool) (values, exportedTypes map[string]types.Type) {
		c := sess.CheckModule(path, prog, reExported)

		values = map[string]types.Type{}
		for name, sym := range c.Symbols().ModuleExports() {
			values[name] = sym.Type
		}

		exportedTypes = map[string]types.Type{}
		for _, stmt := range prog.Statements {
			name, exported := exportedTypeName(stmt)
			if !exported {
				continue
			}
			if entry, ok := c.Env().LookupType(name); ok {
				exportedTypes[name] = entry.Type
			}
		}
		return values, exportedTypes
	}
}

func exportedTypeName(stmt ast.Statement) (name string, exported bool) {
	switch s := stmt.(type) {
	case *ast.ClassDecl:
		return s.Name, s.Exported
	case *ast.InterfaceDecl:
		return s.Name, s.Exported
	case *ast.TypeAliasDecl:
		return s.Name, s.Exported
	case *ast.EnumDecl:
		return s.Name, s.Exported
	default:
		return "", false
	}
}

// loadModuleGraph parses path and every module it transitively imports or
// re-exports from, registering each exactly once. A resolution failure for
// one edge is reported by Registry.Register via addImportEdge/
// addReExportEdge and does not abort the walk — sibling imports still get
// a chance to load.
func loadModuleGraph(fs modules.FS, resolver *modules.Resolver, reg *modules.Registry, interner *ident.Interner, sink diagnostics.Sink, loaded map[string]bool, path string) error {
	if loaded[path] {
		return nil
	}
	loaded[path] = true

	content, err := fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	file := source.FromPath(path, content)
	lex := lexer.New(file)
	p := parser.New(lex, file, sink, interner)
	prog := p.ParseProgram()

	reg.Register(path, prog)

	for _, stmt := range prog.Statements {
		specifier := specifierPath(stmt)
		if specifier == "" {
			continue
		}
		target, err := resolver.Resolve(path, specifier)
		if err != nil {
			// Already reported by Register's own edge resolution; nothing
			// further to load for this specifier.
			continue
		}
		if err := loadModuleGraph(fs, resolver, reg, interner, sink, loaded, target); err != nil {
			return err
		}
	}
	return nil
}

func specifierPath(stmt ast.Statement) string {
	switch s := stmt.(type) {
	case *ast.ImportStatement:
		return s.FromPath
	case *ast.ExportStatement:
		return s.FromPath
	default:
		return ""
	}
}
