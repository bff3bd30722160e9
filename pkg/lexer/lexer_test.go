package lexer

import (
	"reflect"
	"strings"
	"testing"

	"aurora/interpreter-go/pkg/token"
)

func TestNextTokenCoversGrammar(t *testing.T) {
	input := `let five = 5;
let ten = 10;

let add = fn(x, y) {
  x + y;
};

let result = add(five, ten);
!-/*5;
5 < 10 > 5;

if (5 < 10) {
	return true;
} else {
	return false;
}

10 == 10;
10 != 9;
"foobar"
`

	expected := []struct {
		typ     token.Type
		literal string
	}{
		{token.LET, "let"}, {token.IDENT, "five"}, {token.ASSIGN, "="}, {token.INT, "5"}, {token.SEMICOLON, ";"},
		{token.LET, "let"}, {token.IDENT, "ten"}, {token.ASSIGN, "="}, {token.INT, "10"}, {token.SEMICOLON, ";"},
		{token.LET, "let"}, {token.IDENT, "add"}, {token.ASSIGN, "="}, {token.FUNCTION, "fn"},
		{token.LPAREN, "("}, {token.IDENT, "x"}, {token.COMMA, ","}, {token.IDENT, "y"}, {token.RPAREN, ")"},
		{token.LBRACE, "{"}, {token.IDENT, "x"}, {token.PLUS, "+"}, {token.IDENT, "y"}, {token.SEMICOLON, ";"},
		{token.RBRACE, "}"}, {token.SEMICOLON, ";"},
		{token.LET, "let"}, {token.IDENT, "result"}, {token.ASSIGN, "="}, {token.IDENT, "add"},
		{token.LPAREN, "("}, {token.IDENT, "five"}, {token.COMMA, ","}, {token.IDENT, "ten"}, {token.RPAREN, ")"},
		{token.SEMICOLON, ";"},
		{token.BANG, "!"}, {token.MINUS, "-"}, {token.SLASH, "/"}, {token.ASTERISK, "*"}, {token.INT, "5"}, {token.SEMICOLON, ";"},
		{token.INT, "5"}, {token.LT, "<"}, {token.INT, "10"}, {token.GT, ">"}, {token.INT, "5"}, {token.SEMICOLON, ";"},
		{token.IF, "if"}, {token.LPAREN, "("}, {token.INT, "5"}, {token.LT, "<"}, {token.INT, "10"}, {token.RPAREN, ")"},
		{token.LBRACE, "{"}, {token.RETURN, "return"}, {token.TRUE, "true"}, {token.SEMICOLON, ";"}, {token.RBRACE, "}"},
		{token.ELSE, "else"}, {token.LBRACE, "{"}, {token.RETURN, "return"}, {token.FALSE, "false"}, {token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.INT, "10"}, {token.EQ, "=="}, {token.INT, "10"}, {token.SEMICOLON, ";"},
		{token.INT, "10"}, {token.NOT_EQ, "!="}, {token.INT, "9"}, {token.SEMICOLON, ";"},
		{token.STRING, "foobar"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want.typ {
			t.Fatalf("token %d: expected type %q, got %q (%q)", i, want.typ, tok.Type, tok.Literal)
		}
		if tok.Literal != want.literal {
			t.Fatalf("token %d: expected literal %q, got %q", i, want.literal, tok.Literal)
		}
	}
}

func TestEOFIsSticky(t *testing.T) {
	l := New("x")
	if tok := l.NextToken(); tok.Type != token.IDENT {
		t.Fatalf("expected identifier, got %v", tok)
	}
	for i := 0; i < 3; i++ {
		if tok := l.NextToken(); tok.Type != token.EOF {
			t.Fatalf("call %d after exhaustion: expected EOF, got %v", i, tok)
		}
	}
}

func TestIllegalCharactersBecomeTokens(t *testing.T) {
	tokens := Lex("a @ 1 $")
	want := []token.Type{token.IDENT, token.ILLEGAL, token.INT, token.ILLEGAL, token.EOF}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	for i, typ := range want {
		if tokens[i].Type != typ {
			t.Fatalf("token %d: expected %s, got %s", i, typ, tokens[i].Type)
		}
	}
	if tokens[1].Literal != "@" || tokens[3].Literal != "$" {
		t.Fatalf("illegal literals not preserved: %v", tokens)
	}
}

func TestZeroDigitIsNotEndOfInput(t *testing.T) {
	tokens := Lex("10 0")
	if len(tokens) != 3 || tokens[0].Literal != "10" || tokens[1].Literal != "0" {
		t.Fatalf("unexpected tokens %v", tokens)
	}
}

func TestEmbeddedNulIsIllegal(t *testing.T) {
	tokens := Lex("1 + 2\x00 rest")
	want := []token.Token{
		{Type: token.INT, Literal: "1", Pos: token.Position{Line: 1, Column: 1}},
		{Type: token.PLUS, Literal: "+", Pos: token.Position{Line: 1, Column: 3}},
		{Type: token.INT, Literal: "2", Pos: token.Position{Line: 1, Column: 5}},
		{Type: token.ILLEGAL, Literal: "\x00", Pos: token.Position{Line: 1, Column: 6}},
		{Type: token.IDENT, Literal: "rest", Pos: token.Position{Line: 1, Column: 8}},
		{Type: token.EOF, Literal: "", Pos: token.Position{Line: 1, Column: 12}},
	}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
}

func TestNulInsideStringIsKept(t *testing.T) {
	tokens := Lex("\"a\x00b\"")
	if len(tokens) != 2 || tokens[0].Type != token.STRING || tokens[0].Literal != "a\x00b" {
		t.Fatalf("unexpected tokens %v", tokens)
	}
}

func TestUnterminatedStringIsIllegal(t *testing.T) {
	tokens := Lex(`"abc`)
	if len(tokens) != 2 {
		t.Fatalf("expected illegal + EOF, got %v", tokens)
	}
	if tokens[0].Type != token.ILLEGAL || tokens[0].Literal != `"abc` {
		t.Fatalf("unexpected token %v", tokens[0])
	}
}

func TestTokenPositions(t *testing.T) {
	tokens := Lex("let x = 1;\n  x == 2")
	cases := []struct {
		index int
		line  int
		col   int
	}{
		{0, 1, 1},  // let
		{1, 1, 5},  // x
		{3, 1, 9},  // 1
		{5, 2, 3},  // x
		{6, 2, 5},  // ==
		{7, 2, 8},  // 2
	}
	for _, tc := range cases {
		pos := tokens[tc.index].Pos
		if pos.Line != tc.line || pos.Column != tc.col {
			t.Fatalf("token %d (%q): expected %d:%d, got %s", tc.index, tokens[tc.index].Literal, tc.line, tc.col, pos)
		}
	}
}

func TestRelexingLiteralsIsStable(t *testing.T) {
	inputs := []string{
		"let add = fn(a, b) { return a + b; }; add(1, 2 * 3)",
		"if (x != 10) { !true } else { -5 / y }",
		"a==b;c<d>e",
	}
	for _, input := range inputs {
		first := Lex(input)
		literals := make([]string, 0, len(first))
		for _, tok := range first {
			if tok.Type == token.EOF {
				continue
			}
			literals = append(literals, tok.Literal)
		}
		second := Lex(strings.Join(literals, " "))
		if len(first) != len(second) {
			t.Fatalf("%q: token count changed %d -> %d", input, len(first), len(second))
		}
		for i := range first {
			if first[i].Type != second[i].Type || first[i].Literal != second[i].Literal {
				t.Fatalf("%q: token %d changed %v -> %v", input, i, first[i], second[i])
			}
		}
	}
}

func TestIdentifiersMayContainDigits(t *testing.T) {
	toks := Lex("add5 5add _x1")
	want := []token.Token{
		{Type: token.IDENT, Literal: "add5"},
		{Type: token.INT, Literal: "5"},
		{Type: token.IDENT, Literal: "add"},
		{Type: token.IDENT, Literal: "_x1"},
		{Type: token.EOF},
	}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %v", len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w.Type || toks[i].Literal != w.Literal {
			t.Fatalf("token %d: expected %s %q, got %s %q", i, w.Type, w.Literal, toks[i].Type, toks[i].Literal)
		}
	}
}
