// Package parser implements a Pratt (precedence-climbing) parser over
// pkg/lexer's token stream, producing a pkg/ast tree. Structurally
// grounded on the teacher's pkg/parser/parser.go (registerPrefix/
// registerInfix precedence-table design), retargeted at this dialect's
// Lua-flavored statement grammar and at parsing TypeExpr syntax trees
// instead of the teacher's single-pass typed AST.
//
// The parser is an external collaborator to the checker (see pkg/checker),
// not part of the type-checking core; it exists here to give the core
// something real to run against in tests and the command-line driver.
package parser

import (
	"fmt"

	"github.com/forge18/luanext-typechecker/pkg/ast"
	"github.com/forge18/luanext-typechecker/pkg/diagnostics"
	"github.com/forge18/luanext-typechecker/pkg/ident"
	"github.com/forge18/luanext-typechecker/pkg/lexer"
	"github.com/forge18/luanext-typechecker/pkg/source"
)

type precedence int

const (
	LOWEST precedence = iota
	OR_PREC
	AND_PREC
	EQUALS
	LESSGREATER
	CONCAT_PREC
	SUM
	PRODUCT
	PREFIX
	CALL
	MEMBER
)

var precedences = map[lexer.TokenType]precedence{
	lexer.OR:       OR_PREC,
	lexer.AND:      AND_PREC,
	lexer.EQ:       EQUALS,
	lexer.NOT_EQ:   EQUALS,
	lexer.IS:       EQUALS,
	lexer.LT:       LESSGREATER,
	lexer.GT:       LESSGREATER,
	lexer.LE:       LESSGREATER,
	lexer.GE:       LESSGREATER,
	lexer.CONCAT:   CONCAT_PREC,
	lexer.PLUS:     SUM,
	lexer.MINUS:    SUM,
	lexer.ASTERISK: PRODUCT,
	lexer.SLASH:    PRODUCT,
	lexer.PERCENT:  PRODUCT,
	lexer.LPAREN:   CALL,
	lexer.DOT:      MEMBER,
	lexer.COLON:    MEMBER,
	lexer.LBRACKET: MEMBER,
}

// Parser holds the current token plus three tokens of lookahead and
// collects diagnostics into sink rather than returning an error slice, so
// it composes with the same Sink the checker reports into.
type Parser struct {
	l    *lexer.Lexer
	file *source.File
	sink diagnostics.Sink
	in   *ident.Interner

	cur, peek, peek2, peek3 lexer.Token
}

// New creates a Parser reading from l, interning identifiers into in and
// reporting syntax errors to sink.
func New(l *lexer.Lexer, file *source.File, sink diagnostics.Sink, in *ident.Interner) *Parser {
	p := &Parser{l: l, file: file, sink: sink, in: in}
	p.next()
	p.next()
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.peek2
	p.peek2 = p.peek3
	p.peek3 = p.l.NextToken()
}

func (p *Parser) curIs(t lexer.TokenType) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t lexer.TokenType) bool { return p.peek.Type == t }

func (p *Parser) expect(t lexer.TokenType) bool {
	if p.peekIs(t) {
		p.next()
		return true
	}
	p.errorf("expected %s, got %s (%q)", t, p.peek.Type, p.peek.Literal)
	return false
}

func (p *Parser) span(start source.Position) source.Span {
	return source.Span{Start: start, End: p.cur.Pos}
}

func (p *Parser) errorf(format string, args ...any) {
	p.sink.Report(diagnostics.Diagnostic{
		Severity: diagnostics.SeverityError,
		Kind:     diagnostics.KindSyntaxError,
		Span:     source.Span{Start: p.cur.Pos, End: p.cur.Pos},
		Message:  fmt.Sprintf(format, args...),
	})
}

func (p *Parser) curPrecedence() precedence {
	if pr, ok := precedences[p.cur.Type]; ok {
		return pr
	}
	return LOWEST
}
func (p *Parser) peekPrecedence() precedence {
	if pr, ok := precedences[p.peek.Type]; ok {
		return pr
	}
	return LOWEST
}

// ParseProgram parses the whole token stream into a Program.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.curIs(lexer.EOF) {
		if stmt := p.parseStatement(); stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.next()
	}
	return prog
}
