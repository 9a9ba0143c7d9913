package compiler

import (
	"math"
	"testing"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{16, "16"},
		{-3, "-3"},
		{0.5, "0.5"},
		{0.1 + 0.2, "0.30000000000000004"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{123456789012, "123456789012"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tc := range tests {
		if got := FormatNumber(tc.in); got != tc.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestQuoteString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello", `'hello'`},
		{"it's", `'it\'s'`},
		{"a\nb", `'a\nb'`},
		{`back\slash`, `'back\\slash'`},
	}
	for _, tc := range tests {
		if got := QuoteString(tc.in); got != tc.want {
			t.Errorf("QuoteString(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestQuoteStringRoundTrip(t *testing.T) {
	for _, s := range []string{"plain", "it's", "tab\there", "line\nbreak", `\`} {
		tok := NewLexer(QuoteString(s)).NextToken()
		if tok.Type != TokenString || tok.Literal != s {
			t.Errorf("lexing QuoteString(%q) = %v", s, tok)
		}
	}
}
