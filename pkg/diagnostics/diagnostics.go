// Package diagnostics implements the diagnostics sink external collaborator:
// a place for the checker to report structured errors and warnings without
// depending on how they end up being displayed.
package diagnostics

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/forge18/luanext-typechecker/pkg/source"
)

// Severity distinguishes fatal findings from advisory ones.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Kind enumerates every diagnostic the checker core can produce. This is a
// closed set: pkg/checker, pkg/assign, pkg/generics, and pkg/modules only
// ever construct diagnostics using one of these kinds.
type Kind string

const (
	KindTypeMismatch             Kind = "TypeMismatch"
	KindUnknownType              Kind = "UnknownType"
	KindUnknownMember            Kind = "UnknownMember"
	KindUnknownSymbol            Kind = "UnknownSymbol"
	KindAccessViolation          Kind = "AccessViolation"
	KindMissingReturn            Kind = "MissingReturn"
	KindUnreachableCode          Kind = "UnreachableCode"
	KindNonExhaustiveMatch       Kind = "NonExhaustiveMatch"
	KindCircularInheritance      Kind = "CircularInheritance"
	KindDuplicateDeclaration     Kind = "DuplicateDeclaration"
	KindShadowedExport           Kind = "ShadowedExport" // warning
	KindGenericArityMismatch     Kind = "GenericArityMismatch"
	KindGenericConstraintViolation Kind = "GenericConstraintViolation"
	KindUtilityMisapplied        Kind = "UtilityMisapplied"
	KindModuleNotFound           Kind = "ModuleNotFound"
	KindExportNotFound           Kind = "ExportNotFound"
	KindCircularValueDependency  Kind = "CircularValueDependency"
	KindCircularReExport         Kind = "CircularReExport"
	KindReExportChainTooDeep     Kind = "ReExportChainTooDeep"
	KindTypeCheckRecursionLimit  Kind = "TypeCheckRecursionLimit"
	KindRuntimeImportOfTypeOnly  Kind = "RuntimeImportOfTypeOnly"
	KindUnusedSymbol             Kind = "UnusedSymbol"   // warning
	KindUnsoundVariance          Kind = "UnsoundVariance" // warning

	// KindSyntaxError is reported by pkg/parser. It is not one of the
	// checker-core kinds spec.md §7 enumerates (parsing sits outside the
	// type-checking core), but diagnostics.Render needs every Diagnostic
	// this module produces to carry a real Kind, so it lives here instead
	// of on some separate untyped reporting path.
	KindSyntaxError Kind = "SyntaxError"
)

// warningKinds are emitted at SeverityWarning; everything else is an error.
var warningKinds = map[Kind]bool{
	KindShadowedExport:  true,
	KindUnusedSymbol:    true,
	KindUnsoundVariance: true,
}

// SeverityOf reports the default severity for a diagnostic kind.
func SeverityOf(k Kind) Severity {
	if warningKinds[k] {
		return SeverityWarning
	}
	return SeverityError
}

// Diagnostic is a single reported finding.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Span     source.Span
	Message  string
}

// Sink is the external collaborator contract: consumers append diagnostics
// to it and later read them back for reporting or programmatic inspection.
type Sink interface {
	Report(d Diagnostic)
	Diagnostics() []Diagnostic
	ErrorCount() int
	WarningCount() int
}

// Collector is the reference Sink implementation: it simply accumulates
// diagnostics in the order they were reported.
type Collector struct {
	items    []Diagnostic
	errors   int
	warnings int
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Report(d Diagnostic) {
	if d.Severity == SeverityWarning {
		c.warnings++
	} else {
		c.errors++
	}
	c.items = append(c.items, d)
}

// Errorf reports a Kind at a span using a formatted message, with the
// Kind's default severity.
func (c *Collector) Errorf(kind Kind, span source.Span, format string, args ...interface{}) {
	c.Report(Diagnostic{
		Severity: SeverityOf(kind),
		Kind:     kind,
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *Collector) Diagnostics() []Diagnostic { return c.items }
func (c *Collector) ErrorCount() int           { return c.errors }
func (c *Collector) WarningCount() int         { return c.warnings }

// Render writes every diagnostic to w in the teacher's "line + caret marker"
// style, colorizing severity when w is a terminal; terminal width is not
// consulted.
func Render(w io.Writer, diags []Diagnostic) {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = term.IsTerminal(int(f.Fd()))
	}

	errColor := color.New(color.FgRed, color.Bold)
	warnColor := color.New(color.FgYellow, color.Bold)
	errColor.EnableColor()
	warnColor.EnableColor()
	if !useColor {
		errColor.DisableColor()
		warnColor.DisableColor()
	}

	for _, d := range diags {
		label := errColor.Sprintf("%s", d.Severity.String())
		if d.Severity == SeverityWarning {
			label = warnColor.Sprintf("%s", d.Severity.String())
		}
		if d.Span.IsDummy() {
			fmt.Fprintf(w, "%s[%s]: %s\n", label, d.Kind, d.Message)
			continue
		}
		pos := d.Span.Start
		fmt.Fprintf(w, "%s[%s] %s:%d:%d: %s\n", label, d.Kind, pos.File.DisplayPath(), pos.Line, pos.Column, d.Message)

		lines := pos.File.Lines()
		lineIdx := pos.Line - 1
		if lineIdx >= 0 && lineIdx < len(lines) {
			srcLine := strings.TrimRight(lines[lineIdx], "\r\n")
			fmt.Fprintf(w, "  %s\n", srcLine)
			col := pos.Column - 1
			if col < 0 {
				col = 0
			}
			fmt.Fprintf(w, "  %s^\n", strings.Repeat(" ", col))
		}
	}
}
