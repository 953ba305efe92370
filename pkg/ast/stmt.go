package ast

// LocalDecl is `local x[: T] = expr` (or `local const x = expr`).
type LocalDecl struct {
	BaseStatement
	Name       string
	Annotation TypeExpr // nil if inferred
	Value      Expression
	Const      bool
}

// AssignStatement is `target = expr`.
type AssignStatement struct {
	BaseStatement
	Target Expression
	Value  Expression
}

// ExpressionStatement wraps a bare expression used for its side effect
// (typically a call).
type ExpressionStatement struct {
	BaseStatement
	Expr Expression
}

// Block is a sequence of statements sharing one lexical scope.
type Block struct {
	BaseStatement
	Statements []Statement
}

// FunctionDecl is `function name(...) ... end`, either a top-level
// declaration or a class method (Receiver != "").
type FunctionDecl struct {
	BaseStatement
	Name      string
	Receiver  string // class name, if this is a method declared outside the class body
	Function  *FunctionExpr
	Exported  bool
	TypeOnly  bool // re-exported as a type-only binding
}

// IfStatement is `if cond then ... [elseif ...]* [else ...] end`, with
// elseif chains already desugared into nested Else blocks by the parser.
type IfStatement struct {
	BaseStatement
	Cond Expression
	Then *Block
	Else Statement // *Block or *IfStatement, nil if absent
}

// WhileStatement is `while cond do ... end`.
type WhileStatement struct {
	BaseStatement
	Cond Expression
	Body *Block
}

// RepeatStatement is `repeat ... until cond` — the guard is evaluated
// after the body. The checker checks it against the pre-loop narrowing
// context; narrowing from the body does not reach it.
type RepeatStatement struct {
	BaseStatement
	Body *Block
	Cond Expression
}

// ForNumericStatement is `for i = start, stop[, step] do ... end`.
type ForNumericStatement struct {
	BaseStatement
	Var                string
	Start, Stop, Step  Expression
	Body               *Block
}

// ForInStatement is `for k, v in expr do ... end`.
type ForInStatement struct {
	BaseStatement
	Vars []string
	Iter Expression
	Body *Block
}

// SwitchCase is one `case pattern:` arm of a SwitchStatement; Pattern is a
// type-narrowing guard expression (e.g. `type(x) == "string"`), not a
// value pattern, matching this dialect's type-directed switch.
type SwitchCase struct {
	Pattern Expression
	Body    *Block
}

// SwitchStatement narrows Subject through each case's Pattern in turn; the
// narrowing engine checks exhaustiveness when Default is nil.
type SwitchStatement struct {
	BaseStatement
	Subject Expression
	Cases   []SwitchCase
	Default *Block
}

// ReturnStatement is `return [expr]`.
type ReturnStatement struct {
	BaseStatement
	Value Expression // nil for a bare `return`
}

// BreakStatement is `break`.
type BreakStatement struct{ BaseStatement }

// ContinueStatement is `continue`.
type ContinueStatement struct{ BaseStatement }

// ClassMember is one field or method inside a ClassDecl body.
type ClassMember struct {
	Name       string
	IsMethod   bool
	Method     *FunctionExpr
	FieldType  TypeExpr
	Visibility MemberVisibility
	Static     bool
	Readonly   bool
	Override   bool
	Optional   bool
}

// MemberVisibility mirrors types.Visibility at the syntax level, before
// the checker resolves it into pkg/types.
type MemberVisibility int

const (
	VisPublic MemberVisibility = iota
	VisProtected
	VisPrivate
)

// ClassDecl is `class Name[<T>] [extends Base] [implements I, ...] ... end`.
type ClassDecl struct {
	BaseStatement
	Name       string
	TypeParams []TypeParamExpr
	Extends    TypeExpr // *NamedTypeExpr, nil if none
	Implements []TypeExpr
	Members    []ClassMember
	Exported   bool
}

// InterfaceDecl is `interface Name[<T>] [extends I, ...] { ... }`.
type InterfaceDecl struct {
	BaseStatement
	Name       string
	TypeParams []TypeParamExpr
	Extends    []TypeExpr
	Members    []InterfaceMember
	// Forward marks an empty body, eligible for the forward-declaration
	// merge rule pkg/typeenv.RegisterType implements.
	Forward  bool
	Exported bool
}

// InterfaceMember is one property or signature inside an InterfaceDecl.
type InterfaceMember struct {
	Name     string
	Type     TypeExpr
	Optional bool
	Readonly bool
}

// TypeAliasDecl is `type Name[<T>] = TypeExpr`.
type TypeAliasDecl struct {
	BaseStatement
	Name       string
	TypeParams []TypeParamExpr
	Value      TypeExpr
	Exported   bool
}

// EnumMemberDecl is one `Name[= value]` entry in an EnumDecl.
type EnumMemberDecl struct {
	Name  string
	Value Expression // nil for auto-numbered members
}

// EnumDecl is `enum Name { Member[, Member]* }`.
type EnumDecl struct {
	BaseStatement
	Name     string
	Members  []EnumMemberDecl
	Exported bool
}

// ImportSpecifier is one named binding in an import clause.
type ImportSpecifier struct {
	Name     string
	Alias    string // equal to Name when there is no `as` clause
	TypeOnly bool
}

// ImportStatement is `import { a, type b } from "module"` or
// `import type { a, b } from "module"` (clause-level TypeOnly).
type ImportStatement struct {
	BaseStatement
	Specifiers []ImportSpecifier
	FromPath   string
	TypeOnly   bool // clause-level; specifiers inherit unless they override
}

// ExportSpecifier is one entry in a re-export clause.
type ExportSpecifier struct {
	Name     string
	Alias    string
	TypeOnly bool
}

// ExportStatement covers both `export { a, b } [from "module"]` and
// `export * from "module"` (Wildcard).
type ExportStatement struct {
	BaseStatement
	Specifiers []ExportSpecifier
	FromPath   string // empty when re-exporting local declarations
	Wildcard   bool
}
