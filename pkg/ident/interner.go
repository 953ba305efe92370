// Package ident implements identifier interning: deduplicating identifier
// strings into small integer handles so the rest of the checker can compare
// names by value equality on an int instead of repeated string comparison.
//
// The interner is not safe for concurrent use, matching the single-threaded
// checking model described for the rest of this module; a session owns
// exactly one Interner for its lifetime.
package ident

import (
	"golang.org/x/text/unicode/norm"
)

// ID is an interned identifier handle. The zero value is not a valid ID;
// Interner.Intern never returns 0.
type ID uint32

// Interner deduplicates identifier strings.
type Interner struct {
	byName map[string]ID
	names  []string // names[0] is unused, so byName never has to check for ID(0)
}

// New creates an empty interner.
func New() *Interner {
	return &Interner{
		byName: make(map[string]ID, 256),
		names:  []string{""},
	}
}

// Intern normalizes s to Unicode NFC and returns its ID, allocating a new
// one if s has not been seen before. Two strings that render identically
// but use different Unicode representations (combining marks vs. precomposed
// characters) intern to the same ID.
func (in *Interner) Intern(s string) ID {
	norm := norm.NFC.String(s)
	if id, ok := in.byName[norm]; ok {
		return id
	}
	id := ID(len(in.names))
	in.names = append(in.names, norm)
	in.byName[norm] = id
	return id
}

// Lookup returns the interned string for id, or "" if id is unknown.
func (in *Interner) Lookup(id ID) string {
	if int(id) <= 0 || int(id) >= len(in.names) {
		return ""
	}
	return in.names[id]
}

// Len returns the number of distinct identifiers interned so far.
func (in *Interner) Len() int {
	return len(in.names) - 1
}
