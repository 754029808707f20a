package parser

import (
	"github.com/octofhir/fhirpath-go/internal/ast"
	"github.com/octofhir/fhirpath-go/internal/token"
)

// parsePostfix handles the highest-precedence productions: member access
// (.name), indexing ([expr]), and call invocation ((args)). These bind
// tighter than any operator in the precedences table, so they are applied
// in a loop ahead of every call to the infix table rather than through it.
func (p *Parser) parsePostfix(left ast.Expression) (ast.Expression, error) {
	for {
		switch {
		case p.peekIs(token.LPAREN):
			ident, ok := left.(*ast.Identifier)
			if !ok {
				return left, nil
			}
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			args, err := p.parseArgumentList()
			if err != nil {
				return nil, err
			}
			left = &ast.FunctionCall{
				BaseNode: ast.BaseNode{Sp: mkSpan(ident.Span(), p.cur.Span)},
				Name:     ident.Name,
				Args:     args,
			}
		case p.peekIs(token.DOT):
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			name := p.cur.Literal
			nameSpan := p.cur.Span
			if p.peekIs(token.LPAREN) {
				if err := p.nextToken(); err != nil {
					return nil, err
				}
				args, err := p.parseArgumentList()
				if err != nil {
					return nil, err
				}
				left = &ast.MethodCall{
					BaseNode: ast.BaseNode{Sp: mkSpan(startSpan(left), p.cur.Span)},
					Base:     left,
					Name:     name,
					Args:     args,
				}
				continue
			}
			left = &ast.Path{BaseNode: ast.BaseNode{Sp: mkSpan(startSpan(left), nameSpan)}, Base: left, Name: name}
		case p.peekIs(token.LBRACK):
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			idx, err := p.parseExpression(precLowest)
			if err != nil {
				return nil, err
			}
			if err := p.expect(token.RBRACK); err != nil {
				return nil, err
			}
			left = &ast.Index{BaseNode: ast.BaseNode{Sp: mkSpan(startSpan(left), p.cur.Span)}, Base: left, Idx: idx}
		default:
			return left, nil
		}
	}
}

// parseArgumentList parses a (possibly empty) comma-separated argument
// list. p.cur is the LPAREN on entry; on return p.cur is the closing
// RPAREN.
func (p *Parser) parseArgumentList() ([]ast.Expression, error) {
	var args []ast.Expression
	if p.peekIs(token.RPAREN) {
		return args, p.nextToken()
	}
	for {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		arg, err := p.parseArgument()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.peekIs(token.COMMA) {
			break
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

// parseArgument parses one function argument, recognizing the explicit
// lambda form `param => body` ahead of the general expression grammar.
func (p *Parser) parseArgument() (ast.Expression, error) {
	if p.curIs(token.IDENT) && p.peekIs(token.FATARROW) {
		param := p.cur
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		body, err := p.parseExpression(precLowest)
		if err != nil {
			return nil, err
		}
		return &ast.Lambda{
			BaseNode: ast.BaseNode{Sp: mkSpan(param.Span, startSpan(body))},
			Params:   []string{param.Literal},
			Body:     body,
		}, nil
	}
	return p.parseExpression(precLowest)
}
