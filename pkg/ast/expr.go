package ast

import "github.com/forge18/luanext-typechecker/pkg/source"

// NumberLiteral, StringLiteral, BooleanLiteral, NilLiteral are the four
// literal expression forms; each infers to the matching pkg/types literal
// type before any widening the statement rules apply.
type NumberLiteral struct {
	BaseExpression
	Value float64
}

type StringLiteral struct {
	BaseExpression
	Value string
}

type BooleanLiteral struct {
	BaseExpression
	Value bool
}

type NilLiteral struct {
	BaseExpression
}

// BinaryOp enumerates the dialect's binary operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpConcat // `..`
	OpEq     // `==`
	OpNotEq  // `~=`
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpAnd
	OpOr
)

type BinaryExpr struct {
	BaseExpression
	Op          BinaryOp
	Left, Right Expression
}

type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
	OpLen // `#`
)

type UnaryExpr struct {
	BaseExpression
	Op       UnaryOp
	Operand  Expression
}

// CallExpr is `Callee(Args...)`.
type CallExpr struct {
	BaseExpression
	Callee    Expression
	Args      []Expression
	TypeArgs  []TypeExpr // explicit generic instantiation, e.g. `id<number>(x)`
}

// MemberExpr is `Object.Property` (or `Object:Method` for the colon-call
// sugar, tracked via IsMethodCall).
type MemberExpr struct {
	BaseExpression
	Object       Expression
	Property     string
	IsMethodCall bool
	PropertySpan source.Span
}

// IndexExpr is `Object[Key]`.
type IndexExpr struct {
	BaseExpression
	Object, Key Expression
}

// FunctionParam is one parameter in a FunctionExpr's list.
type FunctionParam struct {
	Name     string
	Type     TypeExpr // nil if unannotated
	Optional bool
	Rest     bool
}

// FunctionExpr is a function literal, used both for `function ... end`
// expressions and (via FunctionDecl) named top-level declarations.
type FunctionExpr struct {
	BaseExpression
	TypeParams []TypeParamExpr
	Params     []FunctionParam
	ThisParam  TypeExpr // nil unless the method declares an explicit `this` type
	ReturnType TypeExpr // nil if the return type is to be inferred
	Body       *Block
	// IsGuard is set when ReturnType is a `Subject is T` predicate; cached
	// here so the narrowing engine does not need to re-walk ReturnType.
	IsGuard      bool
	GuardSubject string
}

// TypeParamExpr is one entry in a declared generic parameter list.
type TypeParamExpr struct {
	Name       string
	Constraint TypeExpr
	Default    TypeExpr
}

// TableField is one entry in a TableExpr (object/array literal).
type TableField struct {
	// Key is nil for a positional (array-like) entry.
	Key   Expression
	Value Expression
}

// TableExpr is `{ ... }`, used for both object literals (keyed fields) and
// array/tuple literals (positional fields); the checker tells them apart
// by inspecting Fields.
type TableExpr struct {
	BaseExpression
	Fields []TableField
}

// TypeOfExpr is `type(x)`, whose string result the narrowing engine treats
// specially when compared against a literal.
type TypeOfExpr struct {
	BaseExpression
	Operand Expression
}

// IsExpr is `x is T`, a user-authored narrowing test (only legal where the
// grammar allows a guard, and legal as a function return type via
// FunctionExpr.IsGuard for declaring a type predicate function).
type IsExpr struct {
	BaseExpression
	Subject Expression
	Target  TypeExpr
}
