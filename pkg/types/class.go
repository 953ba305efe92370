package types

import (
	"strings"

	"github.com/forge18/luanext-typechecker/pkg/source"
)

// InterfaceType is a named, structurally-*declared* but nominally-*related*
// (via Extends) shape. Interface bodies are structurally compared, but the
// declared Extends list matters for the checker's "implements" validation.
type InterfaceType struct {
	Name       string
	TypeParams []*TypeParameter
	Extends    []*InterfaceType
	Members    *ObjectType
	// Forward marks an empty `interface Foo {}` body pending a later merge
	// with a non-empty declaration, per the type environment's
	// forward-declaration merge rule.
	Forward bool
	Span    source.Span
}

func (i *InterfaceType) typeTerm()      {}
func (i *InterfaceType) String() string { return i.Name }
func (i *InterfaceType) Equals(other Type) bool {
	o, ok := other.(*InterfaceType)
	return ok && o == i
}
func (i *InterfaceType) Hash() uint64 { return hashString(hashSeed, "iface:"+i.Name) }

// ClassType is a nominal type: a class instance is only assignable to
// another class type via subclassing (see pkg/assign), never structurally.
// A ClassType pointer is shared between every reference to the class, so
// pointer identity gives the "class symbol and instance type share
// identity" invariant for free.
type ClassType struct {
	Name          string
	TypeParams    []*TypeParameter
	Base          *ClassType
	Implements    []*InterfaceType
	Members       *ObjectType // instance members
	StaticMembers *ObjectType
	Span          source.Span
}

func (c *ClassType) typeTerm()      {}
func (c *ClassType) String() string { return c.Name }
func (c *ClassType) Equals(other Type) bool {
	o, ok := other.(*ClassType)
	return ok && o == c
}
func (c *ClassType) Hash() uint64 { return hashString(hashSeed, "class:"+c.Name) }

// IsSubclassOf reports whether c is base or a transitive subclass of base.
func (c *ClassType) IsSubclassOf(base *ClassType) bool {
	for cur := c; cur != nil; cur = cur.Base {
		if cur == base {
			return true
		}
	}
	return false
}

// ImplementsChain returns every interface reachable via c's own Implements
// list and its base classes' Implements lists, so assignability against an
// interface can check the whole chain.
func (c *ClassType) ImplementsChain() []*InterfaceType {
	var out []*InterfaceType
	seen := map[*InterfaceType]bool{}
	for cur := c; cur != nil; cur = cur.Base {
		for _, iface := range cur.Implements {
			if !seen[iface] {
				seen[iface] = true
				out = append(out, iface)
			}
		}
	}
	return out
}

// DetectCircularInheritance walks the base chain and reports the first
// class re-encountered, or nil if the chain terminates cleanly.
func DetectCircularInheritance(start *ClassType) *ClassType {
	seen := map[*ClassType]bool{}
	for cur := start; cur != nil; cur = cur.Base {
		if seen[cur] {
			return cur
		}
		seen[cur] = true
	}
	return nil
}

// AliasType is a named alias for another type (`type ID = number | string`).
// Its Equals delegates to the resolved type, so an alias and its expansion
// compare equal wherever a bare reference to either would.
type AliasType struct {
	Name     string
	Resolved Type
	Span     source.Span
}

func (a *AliasType) typeTerm()      {}
func (a *AliasType) String() string { return a.Name }
func (a *AliasType) Equals(other Type) bool {
	if o, ok := other.(*AliasType); ok && o == a {
		return true
	}
	if a.Resolved == nil {
		return false
	}
	return a.Resolved.Equals(other)
}
func (a *AliasType) Hash() uint64 {
	if a.Resolved != nil {
		return a.Resolved.Hash()
	}
	return hashString(hashSeed, "alias:"+a.Name)
}

// EnumType is a named, ordered mapping from member identifier to a numeric
// or string constant value.
type EnumType struct {
	Name    string
	Members []EnumMember
	Span    source.Span
}

// EnumMember is one entry in an EnumType, in declaration order.
type EnumMember struct {
	Name        string
	NumberValue float64
	StringValue string
	IsString    bool
}

func (e *EnumType) typeTerm()      {}
func (e *EnumType) String() string { return e.Name }
func (e *EnumType) Equals(other Type) bool {
	o, ok := other.(*EnumType)
	return ok && o == e
}
func (e *EnumType) Hash() uint64 { return hashString(hashSeed, "enum:"+e.Name) }

// MemberNames returns the enum's member names in declaration order.
func (e *EnumType) MemberNames() []string {
	names := make([]string, len(e.Members))
	for i, m := range e.Members {
		names[i] = m.Name
	}
	return names
}

func (e *EnumType) String0() string { return strings.Join(e.MemberNames(), " | ") }
