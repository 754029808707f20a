// Package parser implements a Pratt (precedence-climbing) parser that
// turns a token stream into a FHIRPath expression AST (spec.md §4.2).
package parser

import (
	"fmt"

	"github.com/octofhir/fhirpath-go/internal/ast"
	"github.com/octofhir/fhirpath-go/internal/lexer"
	"github.com/octofhir/fhirpath-go/internal/token"
)

// Error is a parse error carrying the source span of the offending token.
type Error struct {
	Message string
	Span    token.Span
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Span.Start.Line, e.Span.Start.Column, e.Message)
}

// precedence levels, lowest to highest, per spec.md §4.2's 11-level table.
// Postfix navigation (., [, ( ) binds tighter than any of these and is
// handled directly in parsePostfix rather than through the infix table.
const (
	_ int = iota
	precLowest
	precImplies     // implies
	precOrXor       // or, xor
	precAnd         // and
	precMembership  // in, contains
	precEquality    // =, !=, ~, !~
	precRelational  // <, <=, >, >=
	precTypeOp      // is, as
	precUnion       // |
	precAdditive    // +, -, &
	precMultiplicative // *, /, div, mod
	precUnary       // unary +, -
)

var precedences = map[token.Type]int{
	token.IMPLIES:  precImplies,
	token.OR:       precOrXor,
	token.XOR:      precOrXor,
	token.AND:      precAnd,
	token.IN:       precMembership,
	token.CONTAINS: precMembership,
	token.EQ:       precEquality,
	token.NEQ:      precEquality,
	token.EQUIV:    precEquality,
	token.NEQUIV:   precEquality,
	token.LT:       precRelational,
	token.LTE:      precRelational,
	token.GT:       precRelational,
	token.GTE:      precRelational,
	token.IS:       precTypeOp,
	token.AS:       precTypeOp,
	token.PIPE:     precUnion,
	token.PLUS:     precAdditive,
	token.MINUS:    precAdditive,
	token.AMP:      precAdditive,
	token.STAR:     precMultiplicative,
	token.SLASH:    precMultiplicative,
	token.DIV:      precMultiplicative,
	token.MOD:      precMultiplicative,
}

// syncSet is the set of tokens synchronize skips ahead to after a
// prefix-position parse error. The error itself is still returned, so
// parsing stops there.
var syncSet = map[token.Type]bool{
	token.RPAREN: true,
	token.RBRACK: true,
	token.COMMA:  true,
	token.EOF:    true,
}

type (
	prefixParseFn func() (ast.Expression, error)
	infixParseFn  func(ast.Expression) (ast.Expression, error)
)

// Parser is a single-use recursive-descent/Pratt parser over a lexer's
// token stream.
type Parser struct {
	lex    *lexer.Lexer
	cur    token.Token
	peek   token.Token
	errors []*Error

	prefixFns map[token.Type]prefixParseFn
	infixFns  map[token.Type]infixParseFn
}

// New constructs a Parser over input and primes the first two tokens.
func New(input string) (*Parser, error) {
	p := &Parser{lex: lexer.New(input)}

	p.prefixFns = map[token.Type]prefixParseFn{
		token.IDENT:    p.parseIdentifier,
		token.TRUE:     p.parseBool,
		token.FALSE:    p.parseBool,
		token.INT:      p.parseInt,
		token.DECIMAL:  p.parseDecimal,
		token.STRING:   p.parseString,
		token.DATE:     p.parseTemporal,
		token.DATETIME: p.parseTemporal,
		token.TIME:     p.parseTemporal,
		token.THIS:     p.parseVariable,
		token.INDEX:    p.parseVariable,
		token.TOTAL:    p.parseVariable,
		token.PERCENT:  p.parseEnvVariable,
		token.LPAREN:   p.parseGroupedExpression,
		token.LBRACE:   p.parseEmptyLiteral,
		token.PLUS:     p.parseUnary,
		token.MINUS:    p.parseUnary,
		token.NOT:      p.parseUnary,
	}

	p.infixFns = map[token.Type]infixParseFn{
		token.IMPLIES:  p.parseBinary,
		token.OR:       p.parseBinary,
		token.XOR:      p.parseBinary,
		token.AND:      p.parseBinary,
		token.IN:       p.parseBinary,
		token.CONTAINS: p.parseBinary,
		token.EQ:       p.parseBinary,
		token.NEQ:      p.parseBinary,
		token.EQUIV:    p.parseBinary,
		token.NEQUIV:   p.parseBinary,
		token.LT:       p.parseBinary,
		token.LTE:      p.parseBinary,
		token.GT:       p.parseBinary,
		token.GTE:      p.parseBinary,
		token.PIPE:     p.parseBinary,
		token.PLUS:     p.parseBinary,
		token.MINUS:    p.parseBinary,
		token.AMP:      p.parseBinary,
		token.STAR:     p.parseBinary,
		token.SLASH:    p.parseBinary,
		token.DIV:      p.parseBinary,
		token.MOD:      p.parseBinary,
		token.IS:       p.parseTypeCheck,
		token.AS:       p.parseTypeCast,
	}

	if err := p.nextToken(); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return p, nil
}

// Errors returns every parse error accumulated during ParseExpression.
func (p *Parser) Errors() []*Error { return p.errors }

func (p *Parser) addError(msg string, span token.Span) {
	p.errors = append(p.errors, &Error{Message: msg, Span: span})
}

func (p *Parser) nextToken() error {
	p.cur = p.peek
	tok, err := p.lex.NextToken()
	if err != nil {
		return err
	}
	p.peek = tok
	return nil
}

func (p *Parser) curIs(t token.Type) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t token.Type) bool { return p.peek.Type == t }

func (p *Parser) expect(t token.Type) error {
	if !p.peekIs(t) {
		err := &Error{
			Message: fmt.Sprintf("expected %s, got %s", t, p.peek.Type),
			Span:    p.peek.Span,
		}
		p.errors = append(p.errors, err)
		return err
	}
	return p.nextToken()
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peek.Type]; ok {
		return pr
	}
	return precLowest
}

// ParseExpression parses a complete FHIRPath expression and verifies the
// token stream is exhausted. It returns the AST and the errors recorded
// (lex or parse); parsing stops at the first error, so a non-empty list
// describes that one failure (it may hold it twice, once as recorded where
// it arose and once as added here).
func ParseExpression(input string) (ast.Expression, []*Error) {
	p, err := New(input)
	if err != nil {
		return nil, []*Error{{Message: err.Error()}}
	}
	expr, perr := p.parseExpression(precLowest)
	if perr != nil {
		p.addError(perr.Error(), p.cur.Span)
	}
	if !p.curIs(token.EOF) && !p.peekIs(token.EOF) {
		if err := p.nextToken(); err == nil && !p.curIs(token.EOF) {
			p.addError(fmt.Sprintf("unexpected trailing token %s", p.cur.Type), p.cur.Span)
		}
	}
	return expr, p.errors
}

func (p *Parser) parseExpression(precedence int) (ast.Expression, error) {
	prefix, ok := p.prefixFns[p.cur.Type]
	if !ok {
		err := &Error{Message: fmt.Sprintf("unexpected token %s", p.cur.Type), Span: p.cur.Span}
		p.errors = append(p.errors, err)
		p.synchronize()
		return nil, err
	}
	left, err := prefix()
	if err != nil {
		return nil, err
	}

	for {
		left, err = p.parsePostfix(left)
		if err != nil {
			return nil, err
		}
		if precedence >= p.peekPrecedence() {
			break
		}
		infix, ok := p.infixFns[p.peek.Type]
		if !ok {
			break
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		left, err = infix(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

// synchronize discards tokens up to the next member of syncSet, used after
// a prefix-position parse failure. Every caller then returns the error, so
// parsing does not resume after it.
func (p *Parser) synchronize() {
	for !syncSet[p.cur.Type] {
		if err := p.nextToken(); err != nil || p.curIs(token.EOF) {
			return
		}
	}
}

func startSpan(n ast.Expression) token.Span { return n.Span() }

func mkSpan(start, end token.Span) token.Span {
	return token.Span{Start: start.Start, End: end.End}
}
