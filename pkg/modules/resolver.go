package modules

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dlclark/regexp2"
)

// DefaultExtensions are tried, in order, after an exact-path resolution
// fails. ".d.lua" (ambient declaration files) is listed before ".lua" and
// matched with a pattern that uses negative lookahead so a specifier
// ending exactly in ".lua" does not also match the ".d.lua" pattern twice
// when both files are present — the reason this resolver reaches for
// regexp2 rather than the standard library's regexp, which has no
// lookahead at all.
var DefaultExtensions = []string{".d.lua", ".lua"}

// DefaultIndexFiles are tried, in order, when a specifier resolves to a
// directory rather than a file.
var DefaultIndexFiles = []string{"index.lua", "index.d.lua"}

// extensionPattern compiles ext into a regexp2 pattern matching a path
// that ends in ext, using lookahead to exclude a longer extension sharing
// the same suffix (so ".lua" does not also match a path ending ".d.lua"
// when both are tried against the same candidate).
func extensionPattern(ext string, exclude []string) *regexp2.Regexp {
	var lookahead strings.Builder
	for _, x := range exclude {
		if len(x) <= len(ext) || !strings.HasSuffix(x, ext) {
			continue
		}
		fmt.Fprintf(&lookahead, "(?!.*%s$)", regexp2.Escape(x))
	}
	pattern := fmt.Sprintf("%s%s$", lookahead.String(), regexp2.Escape(ext))
	re := regexp2.MustCompile(pattern, regexp2.None)
	return re
}

// Resolver turns an import specifier plus the importing module's canonical
// path into a target canonical path, trying exact resolution, then each
// configured extension, then each configured index file inside a
// directory — the three strategies spec.md §4.10's Resolver names, in that
// order. Grounded on the teacher's FileSystemResolver
// (resolver_fs.go), simplified to a single resolution strategy since this
// dialect has no resolver-priority chain (no node_modules-style package
// resolution to layer on top of the filesystem one).
type Resolver struct {
	fs         FS
	extensions []string
	extPattern map[string]*regexp2.Regexp
	indexFiles []string
}

// NewResolver builds a Resolver over fs using the default extension and
// index-file lists.
func NewResolver(fs FS) *Resolver {
	return NewResolverWithExtensions(fs, DefaultExtensions, DefaultIndexFiles)
}

// NewResolverWithExtensions builds a Resolver with a caller-supplied
// extension/index-file configuration, per spec.md §6's configuration
// surface for target-specific source layouts.
func NewResolverWithExtensions(fs FS, extensions, indexFiles []string) *Resolver {
	patterns := make(map[string]*regexp2.Regexp, len(extensions))
	for _, ext := range extensions {
		patterns[ext] = extensionPattern(ext, extensions)
	}
	return &Resolver{fs: fs, extensions: extensions, extPattern: patterns, indexFiles: indexFiles}
}

// Resolve implements spec.md §4.10's three-strategy resolution order.
// fromPath is the importing module's canonical path; specifier is the
// string literal written in the import statement.
func (r *Resolver) Resolve(fromPath, specifier string) (string, error) {
	target, err := r.fs.Canonicalize(fromPath, specifier)
	if err != nil {
		return "", &ResolveError{Specifier: specifier, From: fromPath}
	}

	if r.fs.Exists(target) {
		return target, nil
	}

	for _, ext := range r.extensions {
		candidate := target + ext
		if matched, _ := r.extPattern[ext].MatchString(candidate); matched && r.fs.Exists(candidate) {
			return candidate, nil
		}
	}

	for _, idx := range r.indexFiles {
		candidate := filepath.Join(target, idx)
		if r.fs.Exists(candidate) {
			return candidate, nil
		}
	}

	return "", &ResolveError{Specifier: specifier, From: fromPath}
}

// ResolveError reports that no strategy could resolve a specifier; the
// orchestrator turns it into a ModuleNotFound diagnostic at the import
// statement's span.
type ResolveError struct {
	Specifier string
	From      string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("module not found: %q (from %s)", e.Specifier, e.From)
}
