package types

import (
	"strings"

	"github.com/forge18/luanext-typechecker/pkg/source"
)

// IntersectionType holds the canonical set of constituents a value must
// simultaneously satisfy.
type IntersectionType struct {
	Members []Type
	Span    source.Span
}

func (i *IntersectionType) typeTerm() {}
func (i *IntersectionType) String() string {
	parts := make([]string, len(i.Members))
	for idx, m := range i.Members {
		parts[idx] = m.String()
	}
	return strings.Join(parts, " & ")
}

func (i *IntersectionType) Equals(other Type) bool {
	o, ok := other.(*IntersectionType)
	if !ok || len(o.Members) != len(i.Members) {
		return false
	}
	used := make([]bool, len(o.Members))
	for _, m := range i.Members {
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

func (i *IntersectionType) Hash() uint64 {
	hs := make([]uint64, len(i.Members))
	for idx, m := range i.Members {
		hs[idx] = m.Hash()
	}
	return mix(hashString(hashSeed, "isect"), mixUnordered(hs))
}

// NewIntersectionType builds the canonical intersection: nested
// intersections flatten, duplicates drop, `never` in any position
// collapses the whole thing to `never`, `any` in any position collapses it
// to `any`, and fewer than two remaining members returns that member (or
// `any` for an empty intersection, matching the teacher's "empty
// intersection should not happen, but if it does, don't lie about it being
// never" convention).
func NewIntersectionType(members ...Type) Type {
	var flat []Type
	var collect func(t Type)
	collect = func(t Type) {
		if t == nil {
			return
		}
		if x, ok := t.(*IntersectionType); ok {
			for _, m := range x.Members {
				collect(m)
			}
			return
		}
		flat = append(flat, t)
	}
	for _, m := range members {
		collect(m)
	}

	for _, m := range flat {
		if m == Never {
			return Never
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

	for _, m := range unique {
		if m == Any {
			return Any
		}
	}

	switch len(unique) {
	case 0:
		return Any
	case 1:
		return unique[0]
	default:
		sortedByString(unique)
		return &IntersectionType{Members: unique}
	}
}
