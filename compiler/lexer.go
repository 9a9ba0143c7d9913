package compiler

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer
// ---------------------------------------------------------------------------

// Lexer tokenizes source text.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // current line (1-based)
	col     int  // current column (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = l.readPos
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
	l.col++
}

func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) position() Position {
	return Position{Offset: l.pos, Line: l.line, Column: l.col}
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	if tok, ok := l.skipWhitespaceAndComments(); !ok {
		return tok
	}

	pos := l.position()
	switch {
	case l.atEOF():
		return Token{Type: TokenEOF, Pos: pos}
	case isDigit(l.ch), l.ch == '.' && isDigit(l.peekChar()):
		return l.readNumber(pos)
	case l.ch == '\'' || l.ch == '"':
		return l.readString(pos)
	case isIdentStart(l.ch):
		return l.readIdentifier(pos)
	}

	rest := l.input[l.pos:]
	for _, p := range punctuators {
		if strings.HasPrefix(rest, p) {
			for range p {
				l.readChar()
			}
			return Token{Type: TokenPunct, Literal: p, Pos: pos}
		}
	}

	ch := l.ch
	l.readChar()
	return Token{Type: TokenError, Literal: fmt.Sprintf("unexpected character %q", ch), Pos: pos}
}

// skipWhitespaceAndComments skips whitespace, // and /* */ comments. An
// unterminated block comment yields an error token.
func (l *Lexer) skipWhitespaceAndComments() (Token, bool) {
	for !l.atEOF() {
		switch {
		case unicode.IsSpace(l.ch):
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for !l.atEOF() && l.ch != '\n' {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			pos := l.position()
			l.readChar()
			l.readChar()
			for !(l.ch == '*' && l.peekChar() == '/') {
				if l.atEOF() {
					return Token{Type: TokenError, Literal: "unterminated comment", Pos: pos}, false
				}
				l.readChar()
			}
			l.readChar()
			l.readChar()
		default:
			return Token{}, true
		}
	}
	return Token{}, true
}

func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		digits := l.pos
		for isHexDigit(l.ch) {
			l.readChar()
		}
		if l.pos == digits {
			return Token{Type: TokenError, Literal: "malformed hex literal", Pos: pos}
		}
		return l.finishNumber(start, pos)
	}

	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		if !isDigit(l.ch) {
			return Token{Type: TokenError, Literal: "malformed exponent", Pos: pos}
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.finishNumber(start, pos)
}

func (l *Lexer) finishNumber(start int, pos Position) Token {
	if isIdentStart(l.ch) {
		return Token{Type: TokenError, Literal: "identifier starts immediately after number", Pos: pos}
	}
	return Token{Type: TokenNumber, Literal: l.input[start:l.pos], Pos: pos}
}

func (l *Lexer) readString(pos Position) Token {
	quote := l.ch
	l.readChar()

	var sb strings.Builder
	for l.ch != quote {
		if l.atEOF() || l.ch == '\n' {
			return Token{Type: TokenError, Literal: "unterminated string", Pos: pos}
		}
		if l.ch != '\\' {
			sb.WriteRune(l.ch)
			l.readChar()
			continue
		}

		l.readChar()
		switch l.ch {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '0':
			sb.WriteByte(0)
		case 'u':
			r, ok := l.readUnicodeEscape()
			if !ok {
				return Token{Type: TokenError, Literal: "malformed unicode escape", Pos: pos}
			}
			sb.WriteRune(r)
			continue
		case 0:
			return Token{Type: TokenError, Literal: "unterminated string", Pos: pos}
		default:
			sb.WriteRune(l.ch)
		}
		l.readChar()
	}
	l.readChar()
	return Token{Type: TokenString, Literal: sb.String(), Pos: pos}
}

// readUnicodeEscape reads the XXXX of \uXXXX with the lexer on the 'u'.
func (l *Lexer) readUnicodeEscape() (rune, bool) {
	if l.pos+5 > len(l.input) {
		return 0, false
	}
	n, err := strconv.ParseUint(l.input[l.pos+1:l.pos+5], 16, 32)
	if err != nil {
		return 0, false
	}
	for i := 0; i < 5; i++ {
		l.readChar()
	}
	return rune(n), true
}

func (l *Lexer) readIdentifier(pos Position) Token {
	start := l.pos
	for isIdentStart(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	lit := l.input[start:l.pos]
	if keywords[lit] {
		return Token{Type: TokenKeyword, Literal: lit, Pos: pos}
	}
	return Token{Type: TokenIdentifier, Literal: lit, Pos: pos}
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isIdentStart(ch rune) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
		(ch > utf8.RuneSelf && unicode.IsLetter(ch))
}
