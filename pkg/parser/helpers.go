package parser

import (
	"fmt"

	"aurora/interpreter-go/pkg/token"
)

// Diagnostic is a recoverable parse error with the position of the offending
// token. Got is the type of that token.
type Diagnostic struct {
	Message string         `json:"message"`
	Pos     token.Position `json:"pos"`
	Got     token.Type     `json:"got"`
}

func (d Diagnostic) String() string {
	if d.Pos.IsZero() {
		return d.Message
	}
	return d.Pos.String() + ": " + d.Message
}

// IsIncomplete reports whether every diagnostic was caused by running out of
// input, meaning more text could still complete the program.
func IsIncomplete(diags []Diagnostic) bool {
	if len(diags) == 0 {
		return false
	}
	for _, d := range diags {
		if d.Got != token.EOF {
			return false
		}
	}
	return true
}

func (p *Parser) addDiagnostic(tok token.Token, format string, args ...any) {
	if p.abandoned {
		return
	}
	p.diagnostics = append(p.diagnostics, Diagnostic{
		Message: fmt.Sprintf(format, args...),
		Pos:     tok.Pos,
		Got:     tok.Type,
	})
}

// abandon records a final diagnostic at tok and drains the token stream, so
// every enclosing parse function unwinds without further errors.
func (p *Parser) abandon(tok token.Token, format string, args ...any) {
	p.addDiagnostic(tok, format, args...)
	p.abandoned = true
	for !p.curTokenIs(token.EOF) {
		p.nextToken()
	}
}

func (p *Parser) peekError(want token.Type) {
	p.addDiagnostic(p.peekToken, "expected token %s, got %s", want, p.peekToken.Type)
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	if tok.Type == token.ILLEGAL {
		p.addDiagnostic(tok, "illegal token %q", tok.Literal)
		return
	}
	p.addDiagnostic(tok, "no prefix parse function for %s found", tok.Type)
}
