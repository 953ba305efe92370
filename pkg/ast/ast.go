// Package ast defines the mutable syntax tree the parser produces and the
// checker consumes. Node shapes and the ComputedType-caching convention
// are grounded on the teacher's pkg/parser/ast.go (Node/Statement/
// Expression base interfaces, BaseExpression's ComputedType field), but
// type annotations here are their own syntax tree (TypeExpr) rather than a
// pre-resolved types.Type, since this checker resolves names in a
// dedicated hoisting phase instead of the teacher's single-pass model.
package ast

import (
	"github.com/forge18/luanext-typechecker/pkg/ident"
	"github.com/forge18/luanext-typechecker/pkg/source"
	"github.com/forge18/luanext-typechecker/pkg/types"
)

// Node is the base interface for every syntax tree node.
type Node interface {
	Span() source.Span
}

// Statement is a top-level or block-level statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is any value-producing syntax node. ComputedType is filled in
// by the inference visitor and read back by later phases and by
// diagnostics rendering; it is nil until the node has been visited.
type Expression interface {
	Node
	expressionNode()
	ComputedType() types.Type
	SetComputedType(types.Type)
}

// BaseExpression is embedded by every concrete Expression to provide the
// ComputedType cache without repeating it in each struct.
type BaseExpression struct {
	Computed types.Type
	Sp       source.Span
}

func (b *BaseExpression) expressionNode()              {}
func (b *BaseExpression) Span() source.Span            { return b.Sp }
func (b *BaseExpression) ComputedType() types.Type     { return b.Computed }
func (b *BaseExpression) SetComputedType(t types.Type) { b.Computed = t }

// BaseStatement is embedded by every concrete Statement for its span.
type BaseStatement struct {
	Sp source.Span
}

func (b *BaseStatement) statementNode()   {}
func (b *BaseStatement) Span() source.Span { return b.Sp }

// Program is the root of one module's syntax tree.
type Program struct {
	Statements []Statement
}

func (p *Program) Span() source.Span {
	if len(p.Statements) == 0 {
		return source.Span{}
	}
	return source.Span{Start: p.Statements[0].Span().Start, End: p.Statements[len(p.Statements)-1].Span().End}
}

// Identifier names a local, parameter, or field.
type Identifier struct {
	BaseExpression
	Name ident.ID
	Text string // kept alongside the interned id for diagnostics without a reverse lookup
}
