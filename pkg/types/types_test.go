package types

import "testing"

// TestNewStringLiteralNormalizesToNFC exercises pkg/types' ambient
// NFC-normalization: "é" as a combining sequence (e + U+0301) and as the
// precomposed codepoint must compare equal once wrapped in a LiteralType,
// since Equals compares the stored Go string directly.
func TestNewStringLiteralNormalizesToNFC(t *testing.T) {
	composed := NewStringLiteral("café")
	decomposed := NewStringLiteral("café")
	if !composed.Equals(decomposed) {
		t.Errorf("expected NFC-normalized literals %q and %q to compare equal", composed.Text, decomposed.Text)
	}
}

func TestLiteralWidenedPrimitiveMatchesKind(t *testing.T) {
	if NewNumberLiteral(1).WidenedPrimitive() != Number {
		t.Error("expected a number literal to widen to Number")
	}
	if NewStringLiteral("x").WidenedPrimitive() != String {
		t.Error("expected a string literal to widen to String")
	}
	if NewBooleanLiteral(true).WidenedPrimitive() != Boolean {
		t.Error("expected a boolean literal to widen to Boolean")
	}
}

func TestGetWidenedTypePassesNonLiteralsThrough(t *testing.T) {
	if GetWidenedType(Number) != Number {
		t.Error("expected a non-literal type to pass through unchanged")
	}
	if GetWidenedType(NewNumberLiteral(5)) != Number {
		t.Error("expected a number literal to widen to Number")
	}
}

func TestNewUnionTypeFlattensDedupsAndCollapses(t *testing.T) {
	if got := NewUnionType(String); got != String {
		t.Errorf("expected a single-member union to collapse to its member, got %s", got.String())
	}
	if got := NewUnionType(String, String); got != String {
		t.Errorf("expected duplicate members to dedupe to one, got %s", got.String())
	}
	if got := NewUnionType(String, Any); got != Any {
		t.Errorf("expected any to absorb a union, got %s", got.String())
	}
	if got := NewUnionType(NewUnionType(String, Number), Nil); got.(*UnionType) == nil || len(got.(*UnionType).Members) != 3 {
		t.Errorf("expected a nested union to flatten into one 3-member union, got %s", got.String())
	}
}

func TestUnionMembersTreatsNonUnionAsSingleton(t *testing.T) {
	members := UnionMembers(String)
	if len(members) != 1 || members[0] != String {
		t.Errorf("expected a non-union type to report itself as its only member, got %v", members)
	}
}

func TestObjectTypeEqualsIsStructural(t *testing.T) {
	a := NewObjectType().WithProperty("x", Number)
	b := NewObjectType().WithProperty("x", Number)
	if !a.Equals(b) {
		t.Error("expected two structurally identical object types to be equal")
	}
	c := NewObjectType().WithProperty("x", String)
	if a.Equals(c) {
		t.Error("expected object types with differing property types not to be equal")
	}
}
