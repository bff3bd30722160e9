package parser

import (
	"aurora/interpreter-go/pkg/ast"
	"aurora/interpreter-go/pkg/lexer"
	"aurora/interpreter-go/pkg/token"
)

// TokenSource supplies tokens one at a time. It must return EOF forever once
// its input is exhausted. *lexer.Lexer satisfies it.
type TokenSource interface {
	NextToken() token.Token
}

// MaxNesting bounds how deeply expressions may nest. Deeper input is rejected
// with a diagnostic and the rest of the stream is skipped.
const MaxNesting = 1000

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser builds an AST from a token stream with precedence climbing. It keeps
// two tokens of lookahead and records diagnostics instead of stopping at the
// first error.
type Parser struct {
	src         TokenSource
	diagnostics []Diagnostic

	nesting   int
	abandoned bool

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

// New constructs a parser reading from src.
func New(src TokenSource) *Parser {
	p := &Parser{
		src:         src,
		diagnostics: make([]Diagnostic, 0),
	}

	p.prefixParseFns = map[token.Type]prefixParseFn{
		token.IDENT:    p.parseIdentifier,
		token.INT:      p.parseIntegerLiteral,
		token.TRUE:     p.parseBooleanLiteral,
		token.FALSE:    p.parseBooleanLiteral,
		token.BANG:     p.parsePrefixExpression,
		token.MINUS:    p.parsePrefixExpression,
		token.LPAREN:   p.parseGroupedExpression,
		token.IF:       p.parseIfExpression,
		token.FUNCTION: p.parseFunctionLiteral,
	}

	p.infixParseFns = make(map[token.Type]infixParseFn)
	for _, op := range []token.Type{
		token.PLUS, token.MINUS, token.ASTERISK, token.SLASH,
		token.LT, token.GT, token.EQ, token.NOT_EQ,
	} {
		p.infixParseFns[op] = p.parseInfixExpression
	}
	p.infixParseFns[token.LPAREN] = p.parseCallExpression

	// Fill cur and peek.
	p.nextToken()
	p.nextToken()
	return p
}

// ParseSource lexes and parses src in one step.
func ParseSource(src string) (*ast.Program, []Diagnostic) {
	p := New(lexer.New(src))
	program := p.ParseProgram()
	return program, p.Diagnostics()
}

// ParseTokens parses an already lexed token stream. A missing trailing EOF
// is implied.
func ParseTokens(tokens []token.Token) (*ast.Program, []Diagnostic) {
	p := New(&sliceSource{tokens: tokens})
	program := p.ParseProgram()
	return program, p.Diagnostics()
}

// ParseProgram consumes the whole token stream. Statements that fail to parse
// are dropped; check Diagnostics before trusting the result.
func (p *Parser) ParseProgram() *ast.Program {
	statements := make([]ast.Statement, 0)
	for !p.curTokenIs(token.EOF) {
		if stmt := p.parseStatement(); stmt != nil {
			statements = append(statements, stmt)
		}
		p.nextToken()
	}
	return ast.NewProgram(statements)
}

// Diagnostics returns the errors recorded so far, in source order.
func (p *Parser) Diagnostics() []Diagnostic {
	return p.diagnostics
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.src.NextToken()
}

func (p *Parser) curTokenIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool { return p.peekToken.Type == t }

// expectPeek advances only when the next token has type t, otherwise it
// records a diagnostic and leaves the parser where it is.
func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) curPrecedence() int  { return token.Precedence(p.curToken.Type) }
func (p *Parser) peekPrecedence() int { return token.Precedence(p.peekToken.Type) }

type sliceSource struct {
	tokens []token.Token
	next   int
	last   token.Position
}

func (s *sliceSource) NextToken() token.Token {
	if s.next >= len(s.tokens) {
		return token.Token{Type: token.EOF, Pos: s.last}
	}
	tok := s.tokens[s.next]
	s.next++
	s.last = tok.Pos
	if tok.Type == token.EOF {
		// Stay on EOF even when the slice has trailing tokens.
		s.next = len(s.tokens)
	}
	return tok
}
