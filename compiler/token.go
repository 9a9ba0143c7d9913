package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenError

	TokenNumber     // 42, 3.14, 1e21, 0xFF
	TokenString     // 'hello', "hello"
	TokenIdentifier // n, count2, Math
	TokenKeyword    // var, if, function, ...
	TokenPunct      // ( ) { } , ; . ? : and every operator
)

var tokenNames = map[TokenType]string{
	TokenEOF:        "EOF",
	TokenError:      "ERROR",
	TokenNumber:     "NUMBER",
	TokenString:     "STRING",
	TokenIdentifier: "IDENTIFIER",
	TokenKeyword:    "KEYWORD",
	TokenPunct:      "PUNCT",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // raw text; decoded value for strings
	Pos     Position // start position
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return fmt.Sprintf("ERROR(%s)", t.Literal)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// Is reports whether the token is the given keyword or punctuator.
func (t Token) Is(lit string) bool {
	return (t.Type == TokenKeyword || t.Type == TokenPunct) && t.Literal == lit
}

var keywords = map[string]bool{
	"var":       true,
	"let":       true,
	"if":        true,
	"else":      true,
	"while":     true,
	"for":       true,
	"break":     true,
	"continue":  true,
	"function":  true,
	"return":    true,
	"true":      true,
	"false":     true,
	"null":      true,
	"undefined": true,
}

// punctuators ordered longest first so the lexer takes the longest match.
var punctuators = []string{
	"===", "!==",
	"==", "!=", "<=", ">=", "&&", "||", "++", "--", "+=", "-=", "*=", "/=", "%=",
	"(", ")", "{", "}", ",", ";", ".", "?", ":", "=",
	"+", "-", "*", "/", "%", "!", "<", ">",
}
