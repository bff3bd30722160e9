package token

import "fmt"

// Type identifies a token category. Operator and delimiter types are spelled
// the way they appear in source so diagnostics read naturally.
type Type string

const (
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	IDENT  Type = "IDENT"
	INT    Type = "INT"
	STRING Type = "STRING"

	ASSIGN   Type = "="
	PLUS     Type = "+"
	MINUS    Type = "-"
	BANG     Type = "!"
	ASTERISK Type = "*"
	SLASH    Type = "/"

	LT     Type = "<"
	GT     Type = ">"
	EQ     Type = "=="
	NOT_EQ Type = "!="

	COMMA     Type = ","
	SEMICOLON Type = ";"
	LPAREN    Type = "("
	RPAREN    Type = ")"
	LBRACE    Type = "{"
	RBRACE    Type = "}"

	FUNCTION Type = "FUNCTION"
	LET      Type = "LET"
	IF       Type = "IF"
	ELSE     Type = "ELSE"
	TRUE     Type = "TRUE"
	FALSE    Type = "FALSE"
	RETURN   Type = "RETURN"
)

// Position is a 1-based line/column location in the source text.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsZero reports whether the position was never set.
func (p Position) IsZero() bool {
	return p.Line == 0 && p.Column == 0
}

// Token is a single lexeme.
type Token struct {
	Type    Type
	Literal string
	Pos     Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Type, t.Literal, t.Pos)
}

var keywords = map[string]Type{
	"fn":     FUNCTION,
	"let":    LET,
	"if":     IF,
	"else":   ELSE,
	"true":   TRUE,
	"false":  FALSE,
	"return": RETURN,
}

// LookupIdent maps a scanned word to its keyword type, or IDENT.
func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Binding strengths, weakest first.
const (
	_ int = iota
	LOWEST
	EQUALS      // == !=
	LESSGREATER // < >
	SUM         // + -
	PRODUCT     // * /
	PREFIX      // -x !x
	CALL        // f(x)
)

var precedences = map[Type]int{
	EQ:       EQUALS,
	NOT_EQ:   EQUALS,
	LT:       LESSGREATER,
	GT:       LESSGREATER,
	PLUS:     SUM,
	MINUS:    SUM,
	SLASH:    PRODUCT,
	ASTERISK: PRODUCT,
	LPAREN:   CALL,
}

// Precedence returns the infix binding strength of t, or LOWEST when t is not
// an infix operator.
func Precedence(t Type) int {
	if p, ok := precedences[t]; ok {
		return p
	}
	return LOWEST
}
