package compiler

import (
	"testing"
)

func TestLexerPunctuators(t *testing.T) {
	input := `( ) { } , ; . ? : = += -= *= /= %= ++ -- === !== == != <= >= && || + - * / % ! < >`
	want := []string{
		"(", ")", "{", "}", ",", ";", ".", "?", ":", "=", "+=", "-=", "*=", "/=", "%=",
		"++", "--", "===", "!==", "==", "!=", "<=", ">=", "&&", "||",
		"+", "-", "*", "/", "%", "!", "<", ">",
	}

	l := NewLexer(input)
	for i, exp := range want {
		tok := l.NextToken()
		if tok.Type != TokenPunct {
			t.Errorf("token[%d] type = %v, want PUNCT", i, tok.Type)
		}
		if tok.Literal != exp {
			t.Errorf("token[%d] literal = %q, want %q", i, tok.Literal, exp)
		}
	}
	if tok := l.NextToken(); tok.Type != TokenEOF {
		t.Errorf("trailing token = %v, want EOF", tok)
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []string{"42", "0", "3.14", ".5", "1e21", "2.5E-3", "0xFF"}
	for _, input := range tests {
		tok := NewLexer(input).NextToken()
		if tok.Type != TokenNumber {
			t.Errorf("Lexer(%q): type = %v, want NUMBER", input, tok.Type)
		}
		if tok.Literal != input {
			t.Errorf("Lexer(%q): literal = %q", input, tok.Literal)
		}
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`'hello'`, "hello"},
		{`"hello"`, "hello"},
		{`'it\'s'`, "it's"},
		{`'a\nb'`, "a\nb"},
		{`'tab\there'`, "tab\there"},
		{`'back\\slash'`, `back\slash`},
		{`'é'`, "é"},
		{`''`, ""},
	}
	for _, tc := range tests {
		tok := NewLexer(tc.input).NextToken()
		if tok.Type != TokenString {
			t.Errorf("Lexer(%s): type = %v, want STRING", tc.input, tok.Type)
			continue
		}
		if tok.Literal != tc.want {
			t.Errorf("Lexer(%s): value = %q, want %q", tc.input, tok.Literal, tc.want)
		}
	}
}

func TestLexerKeywordsAndIdentifiers(t *testing.T) {
	l := NewLexer("var count function $x _y undefined Math")
	want := []struct {
		typ TokenType
		lit string
	}{
		{TokenKeyword, "var"},
		{TokenIdentifier, "count"},
		{TokenKeyword, "function"},
		{TokenIdentifier, "$x"},
		{TokenIdentifier, "_y"},
		{TokenKeyword, "undefined"},
		{TokenIdentifier, "Math"},
		{TokenEOF, ""},
	}
	for i, exp := range want {
		tok := l.NextToken()
		if tok.Type != exp.typ || tok.Literal != exp.lit {
			t.Errorf("token[%d] = %v, want %v(%q)", i, tok, exp.typ, exp.lit)
		}
	}
}

func TestLexerCommentsAndPositions(t *testing.T) {
	l := NewLexer("// line comment\nx /* block\ncomment */ y")

	x := l.NextToken()
	if x.Literal != "x" || x.Pos.Line != 2 || x.Pos.Column != 1 {
		t.Errorf("x = %v at %+v, want line 2 column 1", x, x.Pos)
	}
	y := l.NextToken()
	if y.Literal != "y" || y.Pos.Line != 3 {
		t.Errorf("y = %v at %+v, want line 3", y, y.Pos)
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []string{
		`'unterminated`,
		"'line\nbreak'",
		"/* open",
		"#",
		"1e",
		"12abc",
	}
	for _, input := range tests {
		l := NewLexer(input)
		var found bool
		for {
			tok := l.NextToken()
			if tok.Type == TokenError {
				found = true
				break
			}
			if tok.Type == TokenEOF {
				break
			}
		}
		if !found {
			t.Errorf("Lexer(%q): no error token", input)
		}
	}
}
