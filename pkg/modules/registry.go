package modules

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/forge18/luanext-typechecker/pkg/ast"
	"github.com/forge18/luanext-typechecker/pkg/diagnostics"
	"github.com/forge18/luanext-typechecker/pkg/source"
	"github.com/forge18/luanext-typechecker/pkg/types"
)

// MaxLazyDepth bounds the lazy type-check callback's recursion, per
// spec.md §4.10. MaxReexportDepth bounds re-export resolution; spec.md §8
// tests that an 11-deep re-export chain crosses it.
const (
	MaxLazyDepth     = 10
	MaxReexportDepth = 10
)

// CheckFunc invokes the checker on prog (which re-exported names are
// visible is the caller's concern — registry.go only forwards reExported
// through), path is the module's own canonical path (so the checker's
// import-statement handling can resolve relative specifiers against it),
// and returns the module's two export tables. Wired by the driver to a
// *checker.Session's CheckModule; kept as a plain function type here
// (rather than importing pkg/checker) so pkg/modules's core registry logic
// has no compile-time dependency on how checking actually happens, which
// keeps its own tests free of the checker's surface.
type CheckFunc func(path string, prog *ast.Program, reExported map[string]bool) (values, exportedTypes map[string]types.Type)

// Registry is the numeric-id module registry spec.md §4.10 names: assigns
// a monotonic id per canonical path, stores lifecycle state and exports,
// and exposes get_exports/is_checked/mark_in_progress/mark_checked.
// Wrapped with singleflight so that two concurrent requests for the lazy
// check of the same not-yet-checked module collapse into a single
// re-entrant check rather than running it twice — the one piece of actual
// concurrency spec.md §5 anticipates ("a future implementation
// parallelizes independent modules"), even though this repo's own driver
// drives everything from one goroutine.
//
// Grounded on the teacher's registry (registry.go), replacing its
// specifier-keyed sync.RWMutex map of *ModuleRecord with the numeric-id
// scheme spec.md §4.10 specifies, and dropping the teacher's
// TTL/LRU-eviction cache-management machinery (CacheTTL, CacheSize,
// evictOldest), since this repo's registry lives for exactly one checking
// session rather than serving a long-running language server's repeated
// lookups.
type Registry struct {
	mu       sync.Mutex
	byPath   map[string]ModuleID
	records  map[ModuleID]*Record
	nextID   ModuleID
	graph    *Graph
	resolver *Resolver
	sink     diagnostics.Sink
	checkFn  CheckFunc
	sf       singleflight.Group
}

// NewRegistry builds an empty registry. checkFn may be nil when the
// registry is only exercised for resolution/graph tests that never reach
// the lazy-check path.
func NewRegistry(resolver *Resolver, sink diagnostics.Sink, checkFn CheckFunc) *Registry {
	return &Registry{
		byPath:   map[string]ModuleID{},
		records:  map[ModuleID]*Record{},
		graph:    NewGraph(),
		resolver: resolver,
		sink:     sink,
		checkFn:  checkFn,
	}
}

// SetCheckFunc wires the lazy-check callback after construction, for
// drivers that build their *checker.Session only once the registry (and
// therefore its resolver) already exists.
func (r *Registry) SetCheckFunc(fn CheckFunc) { r.checkFn = fn }

// IDFor returns the id for path, assigning a fresh one the first time path
// is seen.
func (r *Registry) IDFor(path string) ModuleID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idForLocked(path)
}

func (r *Registry) idForLocked(path string) ModuleID {
	if id, ok := r.byPath[path]; ok {
		return id
	}
	id := r.nextID
	r.nextID++
	r.byPath[path] = id
	r.records[id] = &Record{ID: id, Path: path, State: Unchecked}
	// Every known module is a graph node, so BuildOrder also lists modules
	// that have no import edges.
	if _, ok := r.graph.edges[id]; !ok {
		r.graph.edges[id] = nil
	}
	return id
}

// Register assigns path an id (if it does not already have one), attaches
// prog, and records every import/re-export edge prog declares, resolving
// each specifier relative to path via the registry's Resolver. Returns the
// assigned id.
func (r *Registry) Register(path string, prog *ast.Program) ModuleID {
	r.mu.Lock()
	id := r.idForLocked(path)
	rec := r.records[id]
	rec.Program = prog
	rec.ReExports = map[string]ReExport{}
	r.mu.Unlock()

	for _, stmt := range prog.Statements {
		switch s := stmt.(type) {
		case *ast.ImportStatement:
			r.addImportEdge(id, path, s)
		case *ast.ExportStatement:
			if s.FromPath != "" {
				r.addReExportEdge(id, path, s)
			}
		}
	}
	return id
}

func (r *Registry) addImportEdge(from ModuleID, fromPath string, s *ast.ImportStatement) {
	target, err := r.resolver.Resolve(fromPath, s.FromPath)
	if err != nil {
		r.sink.Report(diagnostics.Diagnostic{
			Severity: diagnostics.SeverityOf(diagnostics.KindModuleNotFound),
			Kind:     diagnostics.KindModuleNotFound,
			Span:     s.Span(),
			Message:  err.Error(),
		})
		return
	}
	to := r.IDFor(target)

	kind := TypeOnly
	for _, spec := range s.Specifiers {
		typeOnly := s.TypeOnly || spec.TypeOnly
		if !typeOnly {
			kind = Value
		}
	}
	if len(s.Specifiers) == 0 && !s.TypeOnly {
		kind = Value
	}

	r.mu.Lock()
	r.graph.AddEdge(from, to, kind)
	r.records[from].Dependencies = append(r.records[from].Dependencies, Edge{To: to, Kind: kind})
	r.mu.Unlock()
}

func (r *Registry) addReExportEdge(from ModuleID, fromPath string, s *ast.ExportStatement) {
	target, err := r.resolver.Resolve(fromPath, s.FromPath)
	if err != nil {
		r.sink.Report(diagnostics.Diagnostic{
			Severity: diagnostics.SeverityOf(diagnostics.KindModuleNotFound),
			Kind:     diagnostics.KindModuleNotFound,
			Span:     s.Span(),
			Message:  err.Error(),
		})
		return
	}
	to := r.IDFor(target)

	kind := TypeOnly
	if s.Wildcard {
		kind = Value
	}
	for _, spec := range s.Specifiers {
		if !spec.TypeOnly {
			kind = Value
		}
	}

	r.mu.Lock()
	r.graph.AddEdge(from, to, kind)
	rec := r.records[from]
	rec.Dependencies = append(rec.Dependencies, Edge{To: to, Kind: kind})
	if s.Wildcard {
		rec.ReExports["*"] = ReExport{Source: to, Wildcard: true}
	}
	for _, spec := range s.Specifiers {
		local := spec.Alias
		if local == "" {
			local = spec.Name
		}
		rec.ReExports[local] = ReExport{Source: to, Name: spec.Name}
	}
	r.mu.Unlock()
}

// BuildOrder satisfies checker.ModuleRegistry: a topological sort over
// Value edges only, module ids as plain ints since that is the contract
// pkg/checker's interface was written against.
func (r *Registry) BuildOrder() ([]int, error) {
	r.mu.Lock()
	order, err := r.graph.BuildOrder()
	r.mu.Unlock()
	if err != nil {
		if cycleErr, ok := err.(*CycleError); ok {
			r.reportValueCycles(cycleErr.Components)
		}
		return nil, err
	}
	out := make([]int, len(order))
	for i, id := range order {
		out[i] = int(id)
	}
	return out, nil
}

func (r *Registry) reportValueCycles(components [][]ModuleID) {
	for _, comp := range components {
		r.sink.Report(diagnostics.Diagnostic{
			Severity: diagnostics.SeverityOf(diagnostics.KindCircularValueDependency),
			Kind:     diagnostics.KindCircularValueDependency,
			Span:     source.Dummy(),
			Message:  cycleMessage(comp, r),
		})
	}
}

func cycleMessage(comp []ModuleID, r *Registry) string {
	msg := "circular value dependency among modules:"
	for _, id := range comp {
		if rec := r.record(id); rec != nil {
			msg += " " + rec.Path
		}
	}
	return msg
}

// MarkInProgress satisfies checker.ModuleRegistry.
func (r *Registry) MarkInProgress(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[ModuleID(id)]; ok {
		rec.State = InProgress
	}
}

// MarkChecked satisfies checker.ModuleRegistry: records the value exports
// and flips the module to Checked. ExportedTypes is set separately via
// SetExportedTypes, since the checker.ModuleRegistry contract only carries
// value exports.
func (r *Registry) MarkChecked(id int, exports map[string]types.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[ModuleID(id)]; ok {
		rec.Exports = exports
		rec.State = Checked
	}
}

// SetExportedTypes records id's type-level export table, populated by the
// same check pass that calls MarkChecked.
func (r *Registry) SetExportedTypes(id ModuleID, exportedTypes map[string]types.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[id]; ok {
		rec.ExportedTypes = exportedTypes
	}
}

// IsChecked reports whether id has reached the Checked state.
func (r *Registry) IsChecked(id ModuleID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	return ok && rec.State == Checked
}

func (r *Registry) record(id ModuleID) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[id]
}

// EnsureChecked implements the lazy type-check callback: if id is already
// Checked, its exports are returned immediately; otherwise, provided depth
// does not exceed MaxLazyDepth, id's check runs re-entrantly (collapsing
// concurrent requests for the same id via singleflight) and its freshly
// populated exports are returned. Beyond the bound, it degrades to
// `unknown` plus a TypeCheckRecursionLimit diagnostic rather than
// aborting, per spec.md §4.10.
func (r *Registry) EnsureChecked(id ModuleID, depth int) (values, exportedTypes map[string]types.Type, ok bool) {
	rec := r.record(id)
	if rec == nil {
		return nil, nil, false
	}
	if rec.State == Checked {
		return rec.Exports, rec.ExportedTypes, true
	}
	if depth > MaxLazyDepth {
		r.sink.Report(diagnostics.Diagnostic{
			Severity: diagnostics.SeverityOf(diagnostics.KindTypeCheckRecursionLimit),
			Kind:     diagnostics.KindTypeCheckRecursionLimit,
			Span:     source.Dummy(),
			Message:  "lazy type-check recursion limit exceeded for " + rec.Path,
		})
		return nil, nil, false
	}
	if rec.State == InProgress {
		// Re-entrant request while already checking — the call stack IS
		// the recursion tracker (spec.md §5); treat as degraded rather
		// than deadlocking.
		r.sink.Report(diagnostics.Diagnostic{
			Severity: diagnostics.SeverityOf(diagnostics.KindTypeCheckRecursionLimit),
			Kind:     diagnostics.KindTypeCheckRecursionLimit,
			Span:     source.Dummy(),
			Message:  "re-entrant lazy type-check of in-progress module " + rec.Path,
		})
		return nil, nil, false
	}
	if r.checkFn == nil {
		return nil, nil, false
	}

	key := rec.Path
	resAny, err, _ := r.sf.Do(key, func() (interface{}, error) {
		r.MarkInProgress(int(id))
		reExported := map[string]bool{}
		for name := range rec.ReExports {
			reExported[name] = true
		}
		vals, typeExports := r.checkFn(rec.Path, rec.Program, reExported)
		r.MarkChecked(int(id), vals)
		r.SetExportedTypes(id, typeExports)
		return [2]map[string]types.Type{vals, typeExports}, nil
	})
	if err != nil {
		return nil, nil, false
	}
	pair := resAny.([2]map[string]types.Type)
	return pair[0], pair[1], true
}

// ResolveExport looks up name among id's exports, following re-export
// chains lazily: if name is not a local export of id, but id has a
// ReExport entry for it (or a Wildcard re-export), recurse into the
// re-export's source module. visited guards against a cycle of re-exports
// (CircularReExport); depth is bounded at MaxReexportDepth
// (ReExportChainTooDeep beyond it), per spec.md §4.10.
func (r *Registry) ResolveExport(id ModuleID, name string, typeOnly bool, depth int, visited map[[2]any]bool) (types.Type, bool) {
	if depth > MaxReexportDepth {
		r.sink.Report(diagnostics.Diagnostic{
			Severity: diagnostics.SeverityOf(diagnostics.KindReExportChainTooDeep),
			Kind:     diagnostics.KindReExportChainTooDeep,
			Span:     source.Dummy(),
			Message:  "re-export chain exceeds depth limit resolving " + name,
		})
		return nil, false
	}
	key := [2]any{id, name}
	if visited[key] {
		r.sink.Report(diagnostics.Diagnostic{
			Severity: diagnostics.SeverityOf(diagnostics.KindCircularReExport),
			Kind:     diagnostics.KindCircularReExport,
			Span:     source.Dummy(),
			Message:  "circular re-export resolving " + name,
		})
		return nil, false
	}
	visited[key] = true

	rec := r.record(id)
	if rec == nil {
		return nil, false
	}

	// A module forwarding `export { x } from "m"` never declares x
	// locally, so its own local exports (if any) are consulted on a
	// best-effort basis: EnsureChecked only actually runs the checker when
	// a CheckFunc is wired and the module is not already Checked. Without
	// one (pure resolver/graph tests, or a re-export-only module that
	// local checking never produces values for) this simply finds
	// nothing local and falls through to the ReExports table below.
	values, exportedTypes, _ := r.EnsureChecked(id, depth)

	if typeOnly {
		if t, ok := exportedTypes[name]; ok {
			return t, true
		}
	} else {
		if t, ok := values[name]; ok {
			return t, true
		}
	}

	if re, ok := rec.ReExports[name]; ok {
		return r.ResolveExport(re.Source, re.Name, typeOnly, depth+1, visited)
	}
	if wild, ok := rec.ReExports["*"]; ok {
		return r.ResolveExport(wild.Source, name, typeOnly, depth+1, visited)
	}
	return nil, false
}

// ResolveImport is the entry point the checker's import-statement
// handling calls: it classifies the specifier by the value-vs-type-only
// rule spec.md §4.10 states (a value import resolving only to an exported
// TypeAlias/Interface/type binding is RuntimeImportOfTypeOnly) and returns
// the bound type.
func (r *Registry) ResolveImport(fromPath, specifierPath, name string, typeOnly bool, span source.Span) (types.Type, bool) {
	target, err := r.resolver.Resolve(fromPath, specifierPath)
	if err != nil {
		r.sink.Report(diagnostics.Diagnostic{
			Severity: diagnostics.SeverityOf(diagnostics.KindModuleNotFound),
			Kind:     diagnostics.KindModuleNotFound,
			Span:     span,
			Message:  err.Error(),
		})
		return nil, false
	}
	id := r.IDFor(target)

	if t, ok := r.ResolveExport(id, name, typeOnly, 0, map[[2]any]bool{}); ok {
		return t, true
	}
	if !typeOnly {
		if t, ok := r.ResolveExport(id, name, true, 0, map[[2]any]bool{}); ok {
			r.sink.Report(diagnostics.Diagnostic{
				Severity: diagnostics.SeverityOf(diagnostics.KindRuntimeImportOfTypeOnly),
				Kind:     diagnostics.KindRuntimeImportOfTypeOnly,
				Span:     span,
				Message:  "cannot import type-only binding " + name + " as a value",
			})
			return t, false
		}
	}
	r.sink.Report(diagnostics.Diagnostic{
		Severity: diagnostics.SeverityOf(diagnostics.KindExportNotFound),
		Kind:     diagnostics.KindExportNotFound,
		Span:     span,
		Message:  "module has no export named " + name,
	})
	return nil, false
}
