package types

import (
	"strings"

	"github.com/forge18/luanext-typechecker/pkg/source"
)

// UnionType holds the canonical (flattened, deduplicated, ≥2-member) set of
// alternatives for a union type. Callers should always go through
// NewUnionType rather than constructing this directly, so the invariant
// holds everywhere.
type UnionType struct {
	Members []Type
	Span    source.Span
}

func (u *UnionType) typeTerm() {}
func (u *UnionType) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

func (u *UnionType) Equals(other Type) bool {
	o, ok := other.(*UnionType)
	if !ok || len(o.Members) != len(u.Members) {
		return false
	}
	used := make([]bool, len(o.Members))
	for _, m := range u.Members {
		found := false
		for j, om := range o.Members {
			if !used[j] && m.Equals(om) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (u *UnionType) Hash() uint64 {
	hs := make([]uint64, len(u.Members))
	for i, m := range u.Members {
		hs[i] = m.Hash()
	}
	return mix(hashString(hashSeed, "union"), mixUnordered(hs))
}

// NewUnionType builds the canonical union of the given types: nested unions
// are flattened, `never` members are dropped, and any `any` member makes
// the result `any`. Otherwise duplicates (by structural equality) are
// removed, and the result collapses to the single member when one remains,
// or to `never` when none do.
func NewUnionType(members ...Type) Type {
	var flat []Type
	var collect func(t Type)
	collect = func(t Type) {
		if t == nil {
			return
		}
		if u, ok := t.(*UnionType); ok {
			for _, m := range u.Members {
				collect(m)
			}
			return
		}
		if t == Never {
			return
		}
		flat = append(flat, t)
	}
	for _, m := range members {
		collect(m)
	}

	for _, m := range flat {
		if m == Any {
			return Any
		}
	}

	unique := make([]Type, 0, len(flat))
	for _, m := range flat {
		dup := false
		for _, u := range unique {
			if m.Equals(u) {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, m)
		}
	}

	switch len(unique) {
	case 0:
		return Never
	case 1:
		return unique[0]
	default:
		sortedByString(unique)
		return &UnionType{Members: unique}
	}
}

// UnionMembers returns t's members if it is a union, or a single-element
// slice containing t otherwise. Convenient for code that wants to treat
// every type uniformly as "a union of one or more alternatives".
func UnionMembers(t Type) []Type {
	if u, ok := t.(*UnionType); ok {
		return u.Members
	}
	return []Type{t}
}
