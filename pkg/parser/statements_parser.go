package parser

import (
	"aurora/interpreter-go/pkg/ast"
	"aurora/interpreter-go/pkg/token"
)

// Statement parsers start with curToken on the statement's first token and
// leave it on the statement's last token, the ';' when one is present.

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.LET:
		if stmt := p.parseLetStatement(); stmt != nil {
			return stmt
		}
	case token.RETURN:
		if stmt := p.parseReturnStatement(); stmt != nil {
			return stmt
		}
	default:
		if stmt := p.parseExpressionStatement(); stmt != nil {
			return stmt
		}
	}
	return nil
}

func (p *Parser) parseLetStatement() *ast.LetStatement {
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := ast.NewIdentifier(p.curToken.Literal)
	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	value := p.parseExpression(token.LOWEST)
	if value == nil {
		return nil
	}
	p.skipTerminator()
	return ast.NewLetStatement(name, value)
}

func (p *Parser) parseReturnStatement() *ast.ReturnStatement {
	p.nextToken()
	value := p.parseExpression(token.LOWEST)
	if value == nil {
		return nil
	}
	p.skipTerminator()
	return ast.NewReturnStatement(value)
}

func (p *Parser) parseExpressionStatement() *ast.ExpressionStatement {
	expr := p.parseExpression(token.LOWEST)
	if expr == nil {
		return nil
	}
	p.skipTerminator()
	return ast.NewExpressionStatement(expr)
}

func (p *Parser) skipTerminator() {
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
}

// parseBlockStatement expects curToken to be '{' and finishes on the matching
// '}'. Reaching EOF first is a diagnostic and yields nil.
func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	statements := make([]ast.Statement, 0)
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.addDiagnostic(p.curToken, "expected token %s, got %s", token.RBRACE, token.EOF)
			return nil
		}
		if stmt := p.parseStatement(); stmt != nil {
			statements = append(statements, stmt)
		}
		p.nextToken()
	}
	return ast.NewBlockStatement(statements)
}
