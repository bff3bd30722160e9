package parser

import (
	"strconv"

	"aurora/interpreter-go/pkg/ast"
	"aurora/interpreter-go/pkg/token"
)

// parseExpression is the precedence-climbing core. It keeps folding infix
// operators into left while they bind tighter than precedence, which makes
// equal-precedence chains left-associative.
func (p *Parser) parseExpression(precedence int) ast.Expression {
	p.nesting++
	defer func() { p.nesting-- }()
	if p.nesting > MaxNesting {
		p.abandon(p.curToken, "expression nested deeper than %d levels", MaxNesting)
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	left := prefix()

	for left != nil && !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) parseIdentifier() ast.Expression {
	return ast.NewIdentifier(p.curToken.Literal)
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	value, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.addDiagnostic(p.curToken, "could not parse %q as integer", p.curToken.Literal)
		return nil
	}
	return ast.NewIntegerLiteral(value)
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	return ast.NewBooleanLiteral(p.curTokenIs(token.TRUE))
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	operator := p.curToken.Literal
	p.nextToken()
	right := p.parseExpression(token.PREFIX)
	if right == nil {
		return nil
	}
	return ast.NewPrefixExpression(operator, right)
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	operator := p.curToken.Literal
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return ast.NewInfixExpression(operator, left, right)
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	expr := p.parseExpression(token.LOWEST)
	if expr == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return expr
}

func (p *Parser) parseIfExpression() ast.Expression {
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	condition := p.parseExpression(token.LOWEST)
	if condition == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) || !p.expectPeek(token.LBRACE) {
		return nil
	}
	consequence := p.parseBlockStatement()
	if consequence == nil {
		return nil
	}

	var alternative *ast.BlockStatement
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		alternative = p.parseBlockStatement()
		if alternative == nil {
			return nil
		}
	}
	return ast.NewIfExpression(condition, consequence, alternative)
}

func (p *Parser) parseFunctionLiteral() ast.Expression {
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	params, ok := p.parseFunctionParameters()
	if !ok {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlockStatement()
	if body == nil {
		return nil
	}
	return ast.NewFunctionLiteral(params, body)
}

// parseFunctionParameters expects curToken to be '(' and finishes on ')'.
func (p *Parser) parseFunctionParameters() ([]*ast.Identifier, bool) {
	params := make([]*ast.Identifier, 0)
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params, true
	}

	if !p.expectPeek(token.IDENT) {
		return nil, false
	}
	params = append(params, ast.NewIdentifier(p.curToken.Literal))
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil, false
		}
		params = append(params, ast.NewIdentifier(p.curToken.Literal))
	}

	if !p.expectPeek(token.RPAREN) {
		return nil, false
	}
	return params, true
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	args, ok := p.parseExpressionList(token.RPAREN)
	if !ok {
		return nil
	}
	return ast.NewCallExpression(function, args)
}

// parseExpressionList parses comma-separated expressions up to end.
func (p *Parser) parseExpressionList(end token.Type) ([]ast.Expression, bool) {
	list := make([]ast.Expression, 0)
	if p.peekTokenIs(end) {
		p.nextToken()
		return list, true
	}

	p.nextToken()
	expr := p.parseExpression(token.LOWEST)
	if expr == nil {
		return nil, false
	}
	list = append(list, expr)
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		expr := p.parseExpression(token.LOWEST)
		if expr == nil {
			return nil, false
		}
		list = append(list, expr)
	}

	if !p.expectPeek(end) {
		return nil, false
	}
	return list, true
}
