package parser

import (
	"strconv"

	"github.com/forge18/luanext-typechecker/pkg/ast"
	"github.com/forge18/luanext-typechecker/pkg/lexer"
	"github.com/forge18/luanext-typechecker/pkg/source"
)

// parseTypeExpr parses a full type annotation. Entry: p.cur is the first
// token of the type. Exit: p.cur is the last token consumed.
func (p *Parser) parseTypeExpr() ast.TypeExpr {
	return p.parseConditionalType()
}

// Check extends Extends ? Then : Else
func (p *Parser) parseConditionalType() ast.TypeExpr {
	start := p.cur.Pos
	check := p.parseUnionType()
	if !p.peekIs(lexer.EXTENDS) {
		return check
	}
	p.next() // cur = EXTENDS
	p.next() // cur = first token of Extends
	extends := p.parseUnionType()
	if !p.expect(lexer.QUESTION) {
		return check
	}
	p.next() // cur = first token of Then
	then := p.parseTypeExpr()
	if !p.expect(lexer.COLON) {
		return then
	}
	p.next() // cur = first token of Else
	els := p.parseTypeExpr()
	return &ast.ConditionalTypeExpr{
		BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)},
		Check:        check, Extends: extends, Then: then, Else: els,
	}
}

func (p *Parser) parseUnionType() ast.TypeExpr {
	start := p.cur.Pos
	if p.curIs(lexer.PIPE) {
		p.next() // leading `|` before the first member, harmless to allow
	}
	first := p.parseIntersectionType()
	if !p.peekIs(lexer.PIPE) {
		return first
	}
	members := []ast.TypeExpr{first}
	for p.peekIs(lexer.PIPE) {
		p.next() // cur = PIPE
		p.next() // cur = first token of next member
		members = append(members, p.parseIntersectionType())
	}
	return &ast.UnionTypeExpr{BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)}, Members: members}
}

func (p *Parser) parseIntersectionType() ast.TypeExpr {
	start := p.cur.Pos
	first := p.parsePostfixType()
	if !p.peekIs(lexer.AMP) {
		return first
	}
	members := []ast.TypeExpr{first}
	for p.peekIs(lexer.AMP) {
		p.next() // cur = AMP
		p.next() // cur = first token of next member
		members = append(members, p.parsePostfixType())
	}
	return &ast.IntersectionTypeExpr{BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)}, Members: members}
}

// parsePostfixType handles `T[]` (array) and `T[K]` (indexed access) applied
// to an atomic type, left-associatively.
func (p *Parser) parsePostfixType() ast.TypeExpr {
	start := p.cur.Pos
	t := p.parseAtomType()
	for p.peekIs(lexer.LBRACKET) {
		p.next() // cur = LBRACKET
		if p.peekIs(lexer.RBRACKET) {
			p.next() // cur = RBRACKET
			t = &ast.ArrayTypeExpr{BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)}, Element: t}
			continue
		}
		p.next() // cur = first token of key type
		key := p.parseTypeExpr()
		if !p.expect(lexer.RBRACKET) {
			return t
		}
		t = &ast.IndexedAccessTypeExpr{BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)}, Object: t, Key: key}
	}
	return t
}

func (p *Parser) parseAtomType() ast.TypeExpr {
	start := p.cur.Pos
	switch p.cur.Type {
	case lexer.THIS:
		return &ast.ThisTypeExpr{BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)}}
	case lexer.KEYOF:
		p.next() // cur = first token of operand
		operand := p.parsePostfixType()
		return &ast.KeyofTypeExpr{BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)}, Operand: operand}
	case lexer.STRING:
		lt := &ast.LiteralTypeExpr{BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)}, Kind: ast.LiteralTypeString, Text: p.cur.Literal}
		return lt
	case lexer.NUMBER:
		n, _ := strconv.ParseFloat(p.cur.Literal, 64)
		return &ast.LiteralTypeExpr{BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)}, Kind: ast.LiteralTypeNumber, Num: n}
	case lexer.TRUE:
		return &ast.LiteralTypeExpr{BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)}, Kind: ast.LiteralTypeBoolean, Bool: true}
	case lexer.FALSE:
		return &ast.LiteralTypeExpr{BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)}, Kind: ast.LiteralTypeBoolean, Bool: false}
	case lexer.LPAREN:
		return p.parseFunctionTypeOrParen(start)
	case lexer.LBRACE:
		return p.parseObjectOrMappedType(start)
	case lexer.LBRACKET:
		return p.parseTupleType(start)
	case lexer.IDENT, lexer.NIL:
		return p.parseNamedType(start)
	default:
		p.errorf("unexpected token %s in type", p.cur.Type)
		return &ast.NamedTypeExpr{BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)}, Name: "unknown"}
	}
}

func (p *Parser) parseNamedType(start source.Position) ast.TypeExpr {
	name := p.cur.Literal
	nt := &ast.NamedTypeExpr{BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)}, Name: name}
	if p.peekIs(lexer.LT) {
		p.next() // cur = LT
		p.next() // cur = first token of first arg
		for {
			nt.TypeArgs = append(nt.TypeArgs, p.parseTypeExpr())
			if p.peekIs(lexer.COMMA) {
				p.next()
				p.next()
				continue
			}
			break
		}
		p.expect(lexer.GT)
	}
	return nt
}

// parseFunctionTypeOrParen parses `(a: T, b?: U) -> R`. A parenthesized
// grouped type (`(T | U)`) is not supported: each element inside the
// parentheses is read as a parameter, and a missing `->` after them is
// reported as a syntax error.
func (p *Parser) parseFunctionTypeOrParen(start source.Position) ast.TypeExpr {
	ft := &ast.FunctionTypeExpr{BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)}}
	p.next() // cur = first token inside parens, or RPAREN
	for !p.curIs(lexer.RPAREN) {
		name := p.cur.Literal
		param := ast.FunctionParam{Name: name}
		if p.peekIs(lexer.QUESTION) {
			p.next()
			param.Optional = true
		}
		if p.peekIs(lexer.COLON) {
			p.next() // cur = COLON
			p.next() // cur = first token of type
			param.Type = p.parseTypeExpr()
		}
		ft.Params = append(ft.Params, param)
		if p.peekIs(lexer.COMMA) {
			p.next()
			p.next()
			continue
		}
		p.next() // cur = RPAREN
		break
	}
	if !p.expect(lexer.ARROW) {
		return ft
	}
	p.next() // cur = first token of return type
	ft.Return = p.parseTypeExpr()
	return ft
}

func (p *Parser) parseTupleType(start source.Position) ast.TypeExpr {
	tt := &ast.TupleTypeExpr{BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)}}
	p.next() // cur = first token inside brackets, or RBRACKET
	for !p.curIs(lexer.RBRACKET) {
		rest := false
		if p.curIs(lexer.SPREAD) {
			rest = true
			p.next()
		}
		elem := p.parseTypeExpr()
		optional := false
		if p.peekIs(lexer.QUESTION) {
			p.next()
			optional = true
		}
		if rest {
			tt.Rest = elem
		} else {
			tt.Elements = append(tt.Elements, elem)
			tt.Optional = append(tt.Optional, optional)
		}
		if p.peekIs(lexer.COMMA) {
			p.next()
			p.next()
			continue
		}
		p.next() // cur = RBRACKET
		break
	}
	return tt
}

// parseObjectOrMappedType distinguishes `{ [K in T]: V }` (mapped) from
// `{ name: T; [key: string]: V }` (plain object type) by looking one token
// past the `[` for the `in` keyword.
func (p *Parser) parseObjectOrMappedType(start source.Position) ast.TypeExpr {
	if p.peekIs(lexer.LBRACKET) && p.looksLikeMapped() {
		return p.parseMappedType(start)
	}
	return p.parseObjectType(start)
}

// looksLikeMapped scans ahead without consuming, distinguishing a mapped
// type's `{ [K in Source]: V }` from an index signature's
// `{ [key: string]: V }`: both start `{` `[` IDENT, so the token after the
// bound name (`in` vs `:`) is what decides it.
func (p *Parser) looksLikeMapped() bool {
	return p.peek2.Type == lexer.IDENT && p.peek3.Type == lexer.IN
}

func (p *Parser) parseMappedType(start source.Position) ast.TypeExpr {
	m := &ast.MappedTypeExpr{BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)}}
	p.next() // cur = LBRACKET
	if !p.expect(lexer.IDENT) {
		return m
	}
	m.KeyParam = p.cur.Literal
	if !p.expect(lexer.IN) {
		return m
	}
	p.next() // cur = first token of KeySource
	m.KeySource = p.parseTypeExpr()
	if !p.expect(lexer.RBRACKET) {
		return m
	}
	if p.peekIs(lexer.AS) {
		p.next() // cur = AS
		p.next() // cur = first token of remap
		m.KeyRemap = p.parseTypeExpr()
	}
	if p.peekIs(lexer.QUESTION) {
		p.next()
		m.OptionalMod = ast.ModExprAdd
	}
	if !p.expect(lexer.COLON) {
		return m
	}
	p.next() // cur = first token of ValueTemplate
	m.ValueTemplate = p.parseTypeExpr()
	if !p.expect(lexer.RBRACE) {
		return m
	}
	return m
}

func (p *Parser) parseObjectType(start source.Position) ast.TypeExpr {
	ot := &ast.ObjectTypeExpr{BaseTypeExpr: ast.BaseTypeExpr{Sp: p.span(start)}}
	p.next() // cur = first member token, or RBRACE
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.LBRACKET) {
			p.next() // cur = key name, discarded: only its declared type matters
			p.expect(lexer.COLON)
			p.next() // cur = "string" / "number"
			ot.IndexKey = p.cur.Literal
			p.expect(lexer.RBRACKET)
			p.expect(lexer.COLON)
			p.next() // cur = first token of value type
			ot.IndexValue = p.parseTypeExpr()
		} else {
			readonly := false
			if p.curIs(lexer.READONLY) {
				readonly = true
				p.next()
			}
			name := p.cur.Literal
			optional := false
			if p.peekIs(lexer.QUESTION) {
				p.next()
				optional = true
			}
			p.expect(lexer.COLON)
			p.next() // cur = first token of the property's type
			propType := p.parseTypeExpr()
			ot.Properties = append(ot.Properties, ast.ObjectTypeProperty{
				Name: name, Type: propType, Optional: optional, Readonly: readonly,
			})
		}
		if p.peekIs(lexer.COMMA) || p.peekIs(lexer.SEMICOLON) {
			p.next()
			p.next()
			continue
		}
		p.next() // cur = RBRACE (or whatever follows, on malformed input)
		break
	}
	return ot
}

// parseTypeParams parses `<T extends C = D, ...>`; cur must be LT on entry
// and is left on GT on return.
func (p *Parser) parseTypeParams() []ast.TypeParamExpr {
	var params []ast.TypeParamExpr
	p.next() // cur = first type param name
	for {
		tp := ast.TypeParamExpr{Name: p.cur.Literal}
		if p.peekIs(lexer.EXTENDS) {
			p.next() // cur = EXTENDS
			p.next() // cur = first token of constraint
			tp.Constraint = p.parseTypeExpr()
		}
		if p.peekIs(lexer.ASSIGN) {
			p.next() // cur = ASSIGN
			p.next() // cur = first token of default
			tp.Default = p.parseTypeExpr()
		}
		params = append(params, tp)
		if p.peekIs(lexer.COMMA) {
			p.next()
			p.next()
			continue
		}
		break
	}
	p.expect(lexer.GT)
	return params
}
