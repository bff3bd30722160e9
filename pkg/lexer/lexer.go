package lexer

import "aurora/interpreter-go/pkg/token"

// Lexer scans Aurora source text into tokens on demand.
type Lexer struct {
	input        string
	position     int  // index of ch
	readPosition int  // index after ch
	ch           byte // 0 once the input is exhausted; see atEnd

	line   int
	column int
}

// New returns a lexer positioned at the first character of input.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

// Lex scans the whole input. The returned slice always ends with a single EOF token.
func Lex(input string) []token.Token {
	l := New(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}

// NextToken returns the next token. After the input is exhausted every call
// yields EOF.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	pos := token.Position{Line: l.line, Column: l.column}
	if l.atEnd() {
		return token.Token{Type: token.EOF, Literal: "", Pos: pos}
	}
	var tok token.Token

	switch l.ch {
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.EQ, Literal: "=="}
		} else {
			tok = newToken(token.ASSIGN, l.ch)
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.NOT_EQ, Literal: "!="}
		} else {
			tok = newToken(token.BANG, l.ch)
		}
	case '+':
		tok = newToken(token.PLUS, l.ch)
	case '-':
		tok = newToken(token.MINUS, l.ch)
	case '*':
		tok = newToken(token.ASTERISK, l.ch)
	case '/':
		tok = newToken(token.SLASH, l.ch)
	case '<':
		tok = newToken(token.LT, l.ch)
	case '>':
		tok = newToken(token.GT, l.ch)
	case ',':
		tok = newToken(token.COMMA, l.ch)
	case ';':
		tok = newToken(token.SEMICOLON, l.ch)
	case '(':
		tok = newToken(token.LPAREN, l.ch)
	case ')':
		tok = newToken(token.RPAREN, l.ch)
	case '{':
		tok = newToken(token.LBRACE, l.ch)
	case '}':
		tok = newToken(token.RBRACE, l.ch)
	case '"':
		literal, ok := l.readString()
		if !ok {
			return token.Token{Type: token.ILLEGAL, Literal: `"` + literal, Pos: pos}
		}
		tok = token.Token{Type: token.STRING, Literal: literal}
	default:
		if isLetter(l.ch) {
			literal := l.readIdentifier()
			return token.Token{Type: token.LookupIdent(literal), Literal: literal, Pos: pos}
		}
		if isDigit(l.ch) {
			return token.Token{Type: token.INT, Literal: l.readNumber(), Pos: pos}
		}
		tok = newToken(token.ILLEGAL, l.ch)
	}

	l.readChar()
	tok.Pos = pos
	return tok
}

func newToken(typ token.Type, ch byte) token.Token {
	return token.Token{Type: typ, Literal: string(ch)}
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// atEnd reports whether the input is exhausted. A NUL byte inside the input
// is an ordinary character.
func (l *Lexer) atEnd() bool {
	return l.position >= len(l.input)
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readIdentifier reads a letter or underscore followed by any run of letters,
// underscores and digits.
func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readString consumes up to the closing quote, leaving ch on it. The second
// result is false when the input ends first.
func (l *Lexer) readString() (string, bool) {
	start := l.position + 1
	for {
		l.readChar()
		if l.ch == '"' && !l.atEnd() {
			return l.input[start:l.position], true
		}
		if l.atEnd() {
			return l.input[start:], false
		}
	}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
