package parser

import (
	"strings"

	"github.com/octofhir/fhirpath-go/internal/ast"
	"github.com/octofhir/fhirpath-go/internal/token"
)

func (p *Parser) parseIdentifier() (ast.Expression, error) {
	tok := p.cur
	return &ast.Identifier{BaseNode: ast.BaseNode{Sp: tok.Span}, Name: tok.Literal}, nil
}

func (p *Parser) parseBool() (ast.Expression, error) {
	tok := p.cur
	return &ast.BoolLiteral{BaseNode: ast.BaseNode{Sp: tok.Span}, Value: tok.Type == token.TRUE}, nil
}

func (p *Parser) parseInt() (ast.Expression, error) {
	tok := p.cur
	if p.peekIs(token.IDENT) || isUnitWord(p.peek.Type) {
		return p.parseQuantity(tok.Literal, tok.Span)
	}
	if p.peekIs(token.STRING) {
		return p.parseQuantity(tok.Literal, tok.Span)
	}
	return &ast.IntLiteral{BaseNode: ast.BaseNode{Sp: tok.Span}, Raw: tok.Literal}, nil
}

func (p *Parser) parseDecimal() (ast.Expression, error) {
	tok := p.cur
	if p.peekIs(token.IDENT) || isUnitWord(p.peek.Type) || p.peekIs(token.STRING) {
		return p.parseQuantity(tok.Literal, tok.Span)
	}
	return &ast.DecimalLiteral{BaseNode: ast.BaseNode{Sp: tok.Span}, Raw: tok.Literal}, nil
}

// calendarUnitWords are the bare (unquoted) time-unit identifiers FHIRPath
// allows directly after a numeric literal, e.g. `4 days`.
var calendarUnitWords = map[string]bool{
	"year": true, "years": true, "month": true, "months": true,
	"week": true, "weeks": true, "day": true, "days": true,
	"hour": true, "hours": true, "minute": true, "minutes": true,
	"second": true, "seconds": true, "millisecond": true, "milliseconds": true,
}

func isUnitWord(t token.Type) bool { return t == token.IDENT }

func (p *Parser) parseQuantity(valueRaw string, start token.Span) (ast.Expression, error) {
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	q := &ast.QuantityLiteral{ValueRaw: valueRaw}
	switch p.cur.Type {
	case token.STRING:
		q.Unit = decodeStringLiteral(p.cur.Literal)
		q.UnitQuoted = true
		q.Sp = mkSpan(start, p.cur.Span)
	case token.IDENT:
		if !calendarUnitWords[p.cur.Literal] {
			p.addError("expected a calendar duration unit (e.g. 'days') or quoted UCUM unit", p.cur.Span)
		}
		q.Unit = p.cur.Literal
		q.Sp = mkSpan(start, p.cur.Span)
	default:
		err := &Error{Message: "expected unit after numeric literal", Span: p.cur.Span}
		p.errors = append(p.errors, err)
		return nil, err
	}
	return q, nil
}

func (p *Parser) parseString() (ast.Expression, error) {
	tok := p.cur
	return &ast.StringLiteral{
		BaseNode: ast.BaseNode{Sp: tok.Span},
		Raw:      tok.Literal,
		Value:    decodeStringLiteral(tok.Literal),
	}, nil
}

// decodeStringLiteral strips the surrounding quotes (if present, as in the
// raw lexer token) and expands FHIRPath's backslash escapes.
func decodeStringLiteral(raw string) string {
	s := raw
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = s[1 : len(s)-1]
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'f':
			b.WriteByte('\f')
		case '\'', '"', '`', '\\', '/':
			b.WriteByte(s[i])
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func (p *Parser) parseTemporal() (ast.Expression, error) {
	tok := p.cur
	kind := ast.TemporalDate
	switch tok.Type {
	case token.DATETIME:
		kind = ast.TemporalDateTime
	case token.TIME:
		kind = ast.TemporalTime
	}
	return &ast.TemporalLiteral{BaseNode: ast.BaseNode{Sp: tok.Span}, Raw: tok.Literal, Kind: kind}, nil
}

func (p *Parser) parseVariable() (ast.Expression, error) {
	tok := p.cur
	return &ast.Variable{BaseNode: ast.BaseNode{Sp: tok.Span}, Kind: tok.Type}, nil
}

func (p *Parser) parseEnvVariable() (ast.Expression, error) {
	start := p.cur.Span
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	var name string
	switch p.cur.Type {
	case token.IDENT:
		name = p.cur.Literal
	case token.STRING:
		name = decodeStringLiteral(p.cur.Literal)
	default:
		err := &Error{Message: "expected identifier or quoted name after %", Span: p.cur.Span}
		p.errors = append(p.errors, err)
		return nil, err
	}
	return &ast.EnvVariable{BaseNode: ast.BaseNode{Sp: mkSpan(start, p.cur.Span)}, Name: name}, nil
}

func (p *Parser) parseGroupedExpression() (ast.Expression, error) {
	start := p.cur.Span
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression(precLowest)
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	_ = start
	return expr, nil
}

func (p *Parser) parseEmptyLiteral() (ast.Expression, error) {
	start := p.cur.Span
	if err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.EmptyLiteral{BaseNode: ast.BaseNode{Sp: mkSpan(start, p.cur.Span)}}, nil
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	tok := p.cur
	op := tok.Literal
	if tok.Type == token.NOT {
		op = "not"
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	operand, err := p.parseExpression(precUnary)
	if err != nil {
		return nil, err
	}
	return &ast.UnaryOp{BaseNode: ast.BaseNode{Sp: mkSpan(tok.Span, startSpan(operand))}, Op: op, Operand: operand}, nil
}

func (p *Parser) parseBinary(left ast.Expression) (ast.Expression, error) {
	tok := p.cur
	precedence := precedences[tok.Type]
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	right, err := p.parseExpression(precedence)
	if err != nil {
		return nil, err
	}
	return &ast.BinaryOp{
		BaseNode: ast.BaseNode{Sp: mkSpan(startSpan(left), startSpan(right))},
		Op:       tok.Literal,
		Left:     left,
		Right:    right,
	}, nil
}

func (p *Parser) parseTypeSpecifier() (*ast.TypeSpecifier, error) {
	if p.peekIs(token.IDENT) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	} else {
		err := &Error{Message: "expected type name", Span: p.peek.Span}
		p.errors = append(p.errors, err)
		return nil, err
	}
	start := p.cur.Span
	first := p.cur.Literal
	if p.peekIs(token.DOT) {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if err := p.expect(token.IDENT); err != nil {
			return nil, err
		}
		return &ast.TypeSpecifier{BaseNode: ast.BaseNode{Sp: mkSpan(start, p.cur.Span)}, Namespace: first, Name: p.cur.Literal}, nil
	}
	return &ast.TypeSpecifier{BaseNode: ast.BaseNode{Sp: start}, Name: first}, nil
}

func (p *Parser) parseTypeCheck(left ast.Expression) (ast.Expression, error) {
	typ, err := p.parseTypeSpecifier()
	if err != nil {
		return nil, err
	}
	return &ast.TypeCheck{BaseNode: ast.BaseNode{Sp: mkSpan(startSpan(left), typ.Sp)}, Expr: left, Type: typ}, nil
}

func (p *Parser) parseTypeCast(left ast.Expression) (ast.Expression, error) {
	typ, err := p.parseTypeSpecifier()
	if err != nil {
		return nil, err
	}
	return &ast.TypeCast{BaseNode: ast.BaseNode{Sp: mkSpan(startSpan(left), typ.Sp)}, Expr: left, Type: typ}, nil
}
