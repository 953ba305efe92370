package checker

import (
	"github.com/forge18/luanext-typechecker/pkg/ast"
	"github.com/forge18/luanext-typechecker/pkg/diagnostics"
	"github.com/forge18/luanext-typechecker/pkg/symbols"
	"github.com/forge18/luanext-typechecker/pkg/types"
)

// hoistEnum builds s's *types.EnumType and registers it as both a named
// type and a module-scope value symbol (so `Color.Red` resolves Color as a
// value, and `Color` alone as a type annotation resolves the same name).
// Enum bodies are self-contained — no member can reference another
// forward-declared type — so, unlike classes and interfaces, enums are
// fully built in a single hoisting pass.
func (c *Checker) hoistEnum(s *ast.EnumDecl) {
	enum := &types.EnumType{Name: s.Name, Span: s.Span()}
	nextNumber := 0.0
	sawString := false
	sawNumber := false
	for _, m := range s.Members {
		member := types.EnumMember{Name: m.Name}
		if m.Value == nil {
			member.NumberValue = nextNumber
			nextNumber++
			sawNumber = true
		} else {
			switch v := m.Value.(type) {
			case *ast.NumberLiteral:
				member.NumberValue = v.Value
				nextNumber = v.Value + 1
				sawNumber = true
			case *ast.StringLiteral:
				member.IsString = true
				member.StringValue = v.Value
				sawString = true
			default:
				c.errorf(diagnostics.KindTypeMismatch, m.Value.Span(), "enum member %q must be a number or string literal", m.Name)
			}
		}
		enum.Members = append(enum.Members, member)
	}
	if sawString && sawNumber {
		c.errorf(diagnostics.KindTypeMismatch, s.Span(), "enum %q mixes string and number members", s.Name)
	}

	if err := c.env.RegisterType(s.Name, enum, nil); err != nil {
		c.errorf(diagnostics.KindDuplicateDeclaration, s.Span(), "%s", err.Error())
	}

	valueType := types.NewObjectType()
	for _, m := range enum.Members {
		valueType.Properties[m.Name] = &types.Property{Type: enum, Readonly: true}
	}
	c.syms.Declare(s.Name, &symbols.Symbol{Name: s.Name, Kind: symbols.KindEnum, Type: valueType, Exported: s.Exported, DeclSpan: s.Span()})
}
