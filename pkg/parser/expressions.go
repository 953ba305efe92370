package parser

import (
	"strconv"

	"github.com/forge18/luanext-typechecker/pkg/ast"
	"github.com/forge18/luanext-typechecker/pkg/lexer"
	"github.com/forge18/luanext-typechecker/pkg/source"
)

// parseExpression is the Pratt entry point. Entry: p.cur is the first token
// of the expression. Exit: p.cur is the last token consumed.
func (p *Parser) parseExpression(prec precedence) ast.Expression {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}
	for !p.peekIs(lexer.SEMICOLON) && prec < p.peekPrecedence() {
		if !p.hasInfix(p.peek.Type) {
			return left
		}
		p.next()
		left = p.parseInfix(left)
	}
	return left
}

func (p *Parser) hasInfix(t lexer.TokenType) bool {
	switch t {
	case lexer.PLUS, lexer.MINUS, lexer.ASTERISK, lexer.SLASH, lexer.PERCENT, lexer.CONCAT,
		lexer.EQ, lexer.NOT_EQ, lexer.LT, lexer.GT, lexer.LE, lexer.GE,
		lexer.AND, lexer.OR, lexer.LPAREN, lexer.DOT, lexer.COLON, lexer.LBRACKET, lexer.IS:
		return true
	}
	return false
}

func (p *Parser) parsePrefix() ast.Expression {
	start := p.cur.Pos
	switch p.cur.Type {
	case lexer.IDENT:
		return p.mkIdent(start)
	case lexer.NUMBER:
		n, _ := strconv.ParseFloat(p.cur.Literal, 64)
		return &ast.NumberLiteral{BaseExpression: ast.BaseExpression{Sp: p.span(start)}, Value: n}
	case lexer.STRING:
		return &ast.StringLiteral{BaseExpression: ast.BaseExpression{Sp: p.span(start)}, Value: p.cur.Literal}
	case lexer.TRUE:
		return &ast.BooleanLiteral{BaseExpression: ast.BaseExpression{Sp: p.span(start)}, Value: true}
	case lexer.FALSE:
		return &ast.BooleanLiteral{BaseExpression: ast.BaseExpression{Sp: p.span(start)}, Value: false}
	case lexer.NIL:
		return &ast.NilLiteral{BaseExpression: ast.BaseExpression{Sp: p.span(start)}}
	case lexer.THIS:
		return p.mkIdent(start)
	case lexer.MINUS:
		p.next() // cur = first token of operand
		operand := p.parseExpression(PREFIX)
		return &ast.UnaryExpr{BaseExpression: ast.BaseExpression{Sp: p.span(start)}, Op: ast.OpNeg, Operand: operand}
	case lexer.NOT:
		p.next()
		operand := p.parseExpression(PREFIX)
		return &ast.UnaryExpr{BaseExpression: ast.BaseExpression{Sp: p.span(start)}, Op: ast.OpNot, Operand: operand}
	case lexer.HASH:
		p.next()
		operand := p.parseExpression(PREFIX)
		return &ast.UnaryExpr{BaseExpression: ast.BaseExpression{Sp: p.span(start)}, Op: ast.OpLen, Operand: operand}
	case lexer.LPAREN:
		p.next() // cur = first token inside parens
		inner := p.parseExpression(LOWEST)
		p.expect(lexer.RPAREN)
		return inner
	case lexer.LBRACE:
		return p.parseTableExpr(start)
	case lexer.FUNCTION:
		return p.parseFunctionExpr(start)
	case lexer.TYPE:
		return p.parseTypeOfExpr(start)
	default:
		p.errorf("unexpected token %s in expression", p.cur.Type)
		return nil
	}
}

func (p *Parser) mkIdent(start source.Position) *ast.Identifier {
	text := p.cur.Literal
	if p.cur.Type == lexer.THIS {
		text = "this"
	}
	return &ast.Identifier{
		BaseExpression: ast.BaseExpression{Sp: p.span(start)},
		Name:           p.in.Intern(text),
		Text:           text,
	}
}

// type(x) — a syntactic special-form, not a real call, since its result is
// treated specially by the narrowing engine when compared against a string
// literal.
func (p *Parser) parseTypeOfExpr(start source.Position) ast.Expression {
	if !p.expect(lexer.LPAREN) {
		return nil
	}
	p.next() // cur = first token of operand
	operand := p.parseExpression(LOWEST)
	p.expect(lexer.RPAREN)
	return &ast.TypeOfExpr{BaseExpression: ast.BaseExpression{Sp: p.span(start)}, Operand: operand}
}

func (p *Parser) parseInfix(left ast.Expression) ast.Expression {
	start := left.Span().Start
	switch p.cur.Type {
	case lexer.PLUS, lexer.MINUS, lexer.ASTERISK, lexer.SLASH, lexer.PERCENT, lexer.CONCAT,
		lexer.EQ, lexer.NOT_EQ, lexer.LT, lexer.GT, lexer.LE, lexer.GE, lexer.AND, lexer.OR:
		op, prec := binaryOp(p.cur.Type)
		p.next() // cur = first token of right operand
		right := p.parseExpression(prec)
		return &ast.BinaryExpr{BaseExpression: ast.BaseExpression{Sp: p.span(start)}, Op: op, Left: left, Right: right}
	case lexer.LPAREN:
		return p.parseCallExpr(left, start, nil)
	case lexer.DOT:
		return p.parseMemberExpr(left, start, false)
	case lexer.COLON:
		return p.parseMemberExpr(left, start, true)
	case lexer.LBRACKET:
		p.next() // cur = first token of key
		key := p.parseExpression(LOWEST)
		p.expect(lexer.RBRACKET)
		return &ast.IndexExpr{BaseExpression: ast.BaseExpression{Sp: p.span(start)}, Object: left, Key: key}
	case lexer.IS:
		p.next() // cur = first token of target type
		target := p.parseTypeExpr()
		return &ast.IsExpr{BaseExpression: ast.BaseExpression{Sp: p.span(start)}, Subject: left, Target: target}
	default:
		p.errorf("unexpected infix token %s", p.cur.Type)
		return left
	}
}

func binaryOp(t lexer.TokenType) (ast.BinaryOp, precedence) {
	switch t {
	case lexer.PLUS:
		return ast.OpAdd, SUM
	case lexer.MINUS:
		return ast.OpSub, SUM
	case lexer.ASTERISK:
		return ast.OpMul, PRODUCT
	case lexer.SLASH:
		return ast.OpDiv, PRODUCT
	case lexer.PERCENT:
		return ast.OpMod, PRODUCT
	case lexer.CONCAT:
		return ast.OpConcat, CONCAT_PREC
	case lexer.EQ:
		return ast.OpEq, EQUALS
	case lexer.NOT_EQ:
		return ast.OpNotEq, EQUALS
	case lexer.LT:
		return ast.OpLt, LESSGREATER
	case lexer.GT:
		return ast.OpGt, LESSGREATER
	case lexer.LE:
		return ast.OpLtEq, LESSGREATER
	case lexer.GE:
		return ast.OpGtEq, LESSGREATER
	case lexer.AND:
		return ast.OpAnd, AND_PREC
	default:
		return ast.OpOr, OR_PREC
	}
}

// parseCallExpr handles `Callee(Args...)`, storing typeArgs as the call's
// explicit instantiation. Every caller in this parser passes nil, so an
// explicit `id<number>(x)` instantiation is not recognized.
func (p *Parser) parseCallExpr(callee ast.Expression, start source.Position, typeArgs []ast.TypeExpr) ast.Expression {
	call := &ast.CallExpr{BaseExpression: ast.BaseExpression{Sp: p.span(start)}, Callee: callee, TypeArgs: typeArgs}
	p.next() // cur = first arg token, or RPAREN
	for !p.curIs(lexer.RPAREN) {
		call.Args = append(call.Args, p.parseExpression(LOWEST))
		if p.peekIs(lexer.COMMA) {
			p.next()
			p.next()
			continue
		}
		p.next() // cur = RPAREN
		break
	}
	call.Sp = p.span(start)
	return call
}

// parseMemberExpr handles both `.` (plain field/method access) and `:`
// (colon-call sugar, IsMethodCall=true), and folds a trailing `(...)` into
// a CallExpr the same as the teacher's parser does for method calls.
func (p *Parser) parseMemberExpr(object ast.Expression, start source.Position, isMethodCall bool) ast.Expression {
	if !p.expect(lexer.IDENT) {
		return object
	}
	propSpan := p.span(p.cur.Pos)
	member := &ast.MemberExpr{
		BaseExpression: ast.BaseExpression{Sp: p.span(start)},
		Object:         object, Property: p.cur.Literal, IsMethodCall: isMethodCall, PropertySpan: propSpan,
	}
	if isMethodCall && !p.peekIs(lexer.LPAREN) {
		p.errorf("expected ( after method name %q", member.Property)
		return member
	}
	if p.peekIs(lexer.LPAREN) {
		p.next() // cur = LPAREN
		return p.parseCallExpr(member, start, nil)
	}
	return member
}

func (p *Parser) parseTableExpr(start source.Position) ast.Expression {
	table := &ast.TableExpr{BaseExpression: ast.BaseExpression{Sp: p.span(start)}}
	p.next() // cur = first field token, or RBRACE
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		var field ast.TableField
		if p.curIs(lexer.LBRACKET) {
			p.next() // cur = first token of computed key
			field.Key = p.parseExpression(LOWEST)
			p.expect(lexer.RBRACKET)
			p.expect(lexer.ASSIGN)
			p.next() // cur = first token of value
			field.Value = p.parseExpression(LOWEST)
		} else if p.curIs(lexer.IDENT) && p.peekIs(lexer.ASSIGN) {
			field.Key = p.mkIdent(p.cur.Pos)
			p.next() // cur = ASSIGN
			p.next() // cur = first token of value
			field.Value = p.parseExpression(LOWEST)
		} else {
			field.Value = p.parseExpression(LOWEST)
		}
		table.Fields = append(table.Fields, field)
		if p.peekIs(lexer.COMMA) || p.peekIs(lexer.SEMICOLON) {
			p.next()
			p.next()
			continue
		}
		p.next() // cur = RBRACE
		break
	}
	return table
}

// parseFunctionExpr parses `function [<T,...>](params) [-> R | v is T] ... end`.
func (p *Parser) parseFunctionExpr(start source.Position) ast.Expression {
	fn := &ast.FunctionExpr{BaseExpression: ast.BaseExpression{Sp: p.span(start)}}
	if p.peekIs(lexer.LT) {
		p.next() // cur = LT
		fn.TypeParams = p.parseTypeParams()
	}
	if !p.expect(lexer.LPAREN) {
		return fn
	}
	fn.Params = p.parseParamList()
	if p.peekIs(lexer.ARROW) {
		p.next() // cur = ARROW
		p.next() // cur = first token of return annotation
		fn.ReturnType, fn.IsGuard, fn.GuardSubject = p.parseReturnAnnotation()
	}
	p.next() // cur = first body token, or END
	fn.Body = p.parseBlock(lexer.END)
	if !p.curIs(lexer.END) {
		p.errorf("expected end, got %s", p.cur.Type)
	}
	fn.Sp = p.span(start)
	return fn
}

// parseParamList parses `(a: T, b?: U, ...rest: V[])`; cur must be LPAREN on
// entry and is left on RPAREN on return.
func (p *Parser) parseParamList() []ast.FunctionParam {
	var params []ast.FunctionParam
	p.next() // cur = first param token, or RPAREN
	for !p.curIs(lexer.RPAREN) {
		var param ast.FunctionParam
		if p.curIs(lexer.SPREAD) {
			param.Rest = true
			p.next()
		}
		param.Name = p.cur.Literal
		if p.peekIs(lexer.QUESTION) {
			p.next()
			param.Optional = true
		}
		if p.peekIs(lexer.COLON) {
			p.next() // cur = COLON
			p.next() // cur = first token of type
			param.Type = p.parseTypeExpr()
		}
		params = append(params, param)
		if p.peekIs(lexer.COMMA) {
			p.next()
			p.next()
			continue
		}
		p.next() // cur = RPAREN
		break
	}
	return params
}

// parseReturnAnnotation parses either a plain TypeExpr or a `subject is T`
// type-predicate annotation, distinguishing them by whether the first token
// is an identifier immediately followed by `is`.
func (p *Parser) parseReturnAnnotation() (ast.TypeExpr, bool, string) {
	start := p.cur.Pos
	if p.curIs(lexer.IDENT) && p.peekIs(lexer.IS) {
		subject := p.cur.Literal
		p.next() // cur = IS
		p.next() // cur = first token of target type
		target := p.parseTypeExpr()
		pred := &ast.TypePredicateExpr{BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)}, Subject: subject, Target: target}
		return pred, true, subject
	}
	return p.parseTypeExpr(), false, ""
}
