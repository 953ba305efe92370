// Package source holds source file content and the span/position types used
// to attach diagnostics to a location in that content.
package source

import (
	"path/filepath"
	"strings"
)

// File represents a single unit of source text handed to the lexer.
type File struct {
	Name    string // display name ("main.lnx", "<eval>", "<repl>")
	Path    string // full path, empty for REPL/eval sources
	Content string
	lines   []string
}

// New creates a File from raw content.
func New(name, path, content string) *File {
	return &File{Name: name, Path: path, Content: content}
}

// FromPath creates a File from a file path and its already-read content.
func FromPath(path, content string) *File {
	return &File{Name: filepath.Base(path), Path: path, Content: content}
}

// NewEval creates a File for REPL/eval input, which has no path.
func NewEval(content string) *File {
	return &File{Name: "<eval>", Content: content}
}

// Lines returns the source split by newline, computed and cached lazily.
func (f *File) Lines() []string {
	if f.lines == nil {
		f.lines = strings.Split(f.Content, "\n")
	}
	return f.lines
}

// DisplayPath prefers Path, falling back to Name for pathless sources.
func (f *File) DisplayPath() string {
	if f.Path != "" {
		return f.Path
	}
	return f.Name
}

// Position is a single point in a source file, both human-readable
// (1-based line/column) and machine-usable (0-based byte offset).
type Position struct {
	Line   int // 1-based
	Column int // 1-based, byte index within the line
	Offset int // 0-based byte offset
	File   *File
}

// Span covers a half-open range [Start, End) of a source file.
type Span struct {
	Start Position
	End   Position
}

// Dummy returns a zero-value span for synthetic nodes (stdlib types, etc.)
// that have no real source location.
func Dummy() Span {
	return Span{}
}

// IsDummy reports whether the span carries no real file.
func (s Span) IsDummy() bool {
	return s.Start.File == nil
}
