package compiler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Parser: recursive descent
// ---------------------------------------------------------------------------

// Error is a syntax or compile error at a source position.
type Error struct {
	Pos Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// Parser parses source text into an AST. Parsing stops at the first error.
type Parser struct {
	lexer    *Lexer
	cur      Token
	peek     Token
	prevLine int // line of the most recently consumed token
	err      *Error
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	p.peek = p.lexer.NextToken()
	p.nextToken()
	return p
}

// Parse parses a complete program.
func Parse(source string) (*Program, error) {
	p := NewParser(source)
	prog := p.ParseProgram()
	if p.err != nil {
		return nil, p.err
	}
	return prog, nil
}

// Err returns the first parse error, if any.
func (p *Parser) Err() error {
	if p.err == nil {
		return nil
	}
	return p.err
}

func (p *Parser) nextToken() {
	if p.err != nil {
		return
	}
	p.prevLine = p.cur.Pos.Line
	p.cur = p.peek
	p.peek = p.lexer.NextToken()
	if p.cur.Type == TokenError {
		p.fail(p.cur.Pos, "%s", p.cur.Literal)
	}
}

// fail records the first error and parks the parser at EOF so every loop
// unwinds.
func (p *Parser) fail(pos Position, format string, args ...any) {
	if p.err == nil {
		p.err = &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
	}
	p.cur = Token{Type: TokenEOF, Pos: pos}
}

func (p *Parser) expect(lit string) bool {
	if p.cur.Is(lit) {
		p.nextToken()
		return true
	}
	p.fail(p.cur.Pos, "expected %q, found %s", lit, describe(p.cur))
	return false
}

func (p *Parser) atEOF() bool {
	return p.cur.Type == TokenEOF
}

// semicolon consumes a statement terminator. A missing semicolon is
// accepted before '}', at end of input, or at a line break.
func (p *Parser) semicolon() {
	switch {
	case p.cur.Is(";"):
		p.nextToken()
	case p.cur.Is("}"), p.atEOF(), p.cur.Pos.Line > p.prevLine:
	default:
		p.fail(p.cur.Pos, "expected \";\", found %s", describe(p.cur))
	}
}

func describe(t Token) string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenString:
		return "string " + strconv.Quote(t.Literal)
	}
	return strconv.Quote(t.Literal)
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// ParseProgram parses statements and top-level function declarations until
// end of input.
func (p *Parser) ParseProgram() *Program {
	prog := &Program{}
	for !p.atEOF() {
		var s Stmt
		if p.cur.Is("function") {
			s = p.parseFunction()
		} else {
			s = p.parseStatement()
		}
		if s != nil {
			prog.Body = append(prog.Body, s)
		}
	}
	return prog
}

func (p *Parser) parseStatement() Stmt {
	tok := p.cur
	switch {
	case tok.Is("function"):
		p.fail(tok.Pos, "function declarations are only allowed at top level")
		return nil
	case tok.Is("var"), tok.Is("let"):
		s := p.parseVarDecl()
		p.semicolon()
		return s
	case tok.Is("if"):
		return p.parseIf()
	case tok.Is("while"):
		return p.parseWhile()
	case tok.Is("for"):
		return p.parseFor()
	case tok.Is("break"):
		p.nextToken()
		p.semicolon()
		return &Break{At: tok.Pos}
	case tok.Is("continue"):
		p.nextToken()
		p.semicolon()
		return &Continue{At: tok.Pos}
	case tok.Is("return"):
		return p.parseReturn()
	case tok.Is("{"):
		return p.parseBlock()
	case tok.Is(";"):
		p.nextToken()
		return &Empty{At: tok.Pos}
	}

	x := p.parseExpression()
	p.semicolon()
	return &ExprStmt{At: tok.Pos, X: x}
}

func (p *Parser) parseVarDecl() *VarDecl {
	decl := &VarDecl{At: p.cur.Pos}
	p.nextToken()
	for {
		if p.cur.Type != TokenIdentifier {
			p.fail(p.cur.Pos, "expected variable name, found %s", describe(p.cur))
			return decl
		}
		decl.Names = append(decl.Names, p.cur.Literal)
		p.nextToken()

		var init Expr
		if p.cur.Is("=") {
			p.nextToken()
			init = p.parseAssignment()
		}
		decl.Inits = append(decl.Inits, init)

		if !p.cur.Is(",") {
			return decl
		}
		p.nextToken()
	}
}

func (p *Parser) parseIf() Stmt {
	s := &If{At: p.cur.Pos}
	p.nextToken()
	p.expect("(")
	s.Test = p.parseExpression()
	p.expect(")")
	s.Then = p.parseStatement()
	if p.cur.Is("else") {
		p.nextToken()
		s.Else = p.parseStatement()
	}
	return s
}

func (p *Parser) parseWhile() Stmt {
	s := &While{At: p.cur.Pos}
	p.nextToken()
	p.expect("(")
	s.Test = p.parseExpression()
	p.expect(")")
	s.Body = p.parseStatement()
	return s
}

func (p *Parser) parseFor() Stmt {
	s := &For{At: p.cur.Pos}
	p.nextToken()
	p.expect("(")

	switch {
	case p.cur.Is(";"):
	case p.cur.Is("var"), p.cur.Is("let"):
		s.Init = p.parseVarDecl()
	default:
		pos := p.cur.Pos
		s.Init = &ExprStmt{At: pos, X: p.parseExpression()}
	}
	p.expect(";")

	if !p.cur.Is(";") {
		s.Test = p.parseExpression()
	}
	p.expect(";")

	if !p.cur.Is(")") {
		s.Update = p.parseExpression()
	}
	p.expect(")")

	s.Body = p.parseStatement()
	return s
}

func (p *Parser) parseReturn() Stmt {
	s := &Return{At: p.cur.Pos}
	p.nextToken()
	if !p.cur.Is(";") && !p.cur.Is("}") && !p.atEOF() && p.cur.Pos.Line == p.prevLine {
		s.Value = p.parseExpression()
	}
	p.semicolon()
	return s
}

func (p *Parser) parseBlock() *BlockStmt {
	b := &BlockStmt{At: p.cur.Pos}
	p.expect("{")
	for !p.cur.Is("}") && !p.atEOF() {
		if s := p.parseStatement(); s != nil {
			b.Body = append(b.Body, s)
		}
	}
	p.expect("}")
	return b
}

func (p *Parser) parseFunction() Stmt {
	fn := &FuncDecl{At: p.cur.Pos}
	p.nextToken()
	if p.cur.Type != TokenIdentifier {
		p.fail(p.cur.Pos, "expected function name, found %s", describe(p.cur))
		return nil
	}
	fn.Name = p.cur.Literal
	p.nextToken()

	p.expect("(")
	for !p.cur.Is(")") && !p.atEOF() {
		if p.cur.Type != TokenIdentifier {
			p.fail(p.cur.Pos, "expected parameter name, found %s", describe(p.cur))
			return nil
		}
		fn.Params = append(fn.Params, p.cur.Literal)
		p.nextToken()
		if !p.cur.Is(",") {
			break
		}
		p.nextToken()
	}
	p.expect(")")

	fn.Body = p.parseBlock().Body
	return fn
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
}

// binaryPrec holds binding strength for binary operators; higher binds
// tighter.
var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3, "===": 3, "!==": 3,
	"<": 4, "<=": 4, ">": 4, ">=": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
}

// ParseExpression parses a single expression.
func (p *Parser) ParseExpression() Expr {
	return p.parseExpression()
}

func (p *Parser) parseExpression() Expr {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() Expr {
	left := p.parseConditional()
	if p.err != nil || p.cur.Type != TokenPunct || !assignOps[p.cur.Literal] {
		return left
	}
	op := p.cur
	id, ok := left.(*Ident)
	if !ok {
		p.fail(op.Pos, "invalid assignment target")
		return nil
	}
	p.nextToken()
	value := p.parseAssignment()
	return &Assign{At: op.Pos, Op: op.Literal, Target: id, Value: value}
}

func (p *Parser) parseConditional() Expr {
	test := p.parseBinary(1)
	if !p.cur.Is("?") {
		return test
	}
	c := &Conditional{At: p.cur.Pos, Test: test}
	p.nextToken()
	c.Then = p.parseAssignment()
	p.expect(":")
	c.Else = p.parseAssignment()
	return c
}

func (p *Parser) parseBinary(minPrec int) Expr {
	left := p.parseUnary()
	for {
		if p.cur.Type != TokenPunct {
			return left
		}
		prec, ok := binaryPrec[p.cur.Literal]
		if !ok || prec < minPrec {
			return left
		}
		op := p.cur
		p.nextToken()
		right := p.parseBinary(prec + 1)
		if op.Literal == "&&" || op.Literal == "||" {
			left = &Logical{At: op.Pos, Op: op.Literal, X: left, Y: right}
		} else {
			left = &Binary{At: op.Pos, Op: op.Literal, X: left, Y: right}
		}
	}
}

func (p *Parser) parseUnary() Expr {
	tok := p.cur
	switch {
	case tok.Is("!"), tok.Is("-"), tok.Is("+"):
		p.nextToken()
		x := p.parseUnary()
		if n, ok := x.(*NumberLit); ok && tok.Literal == "-" {
			return &NumberLit{At: tok.Pos, Value: -n.Value}
		}
		return &Unary{At: tok.Pos, Op: tok.Literal, X: x}
	case tok.Is("++"), tok.Is("--"):
		p.nextToken()
		x := p.parseUnary()
		id, ok := x.(*Ident)
		if !ok {
			p.fail(tok.Pos, "invalid %s operand", tok.Literal)
			return nil
		}
		return &Update{At: tok.Pos, Op: tok.Literal, Prefix: true, Target: id}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() Expr {
	x := p.parseCall()
	tok := p.cur
	if !(tok.Is("++") || tok.Is("--")) || tok.Pos.Line != p.prevLine {
		return x
	}
	id, ok := x.(*Ident)
	if !ok {
		p.fail(tok.Pos, "invalid %s operand", tok.Literal)
		return nil
	}
	p.nextToken()
	return &Update{At: tok.Pos, Op: tok.Literal, Target: id}
}

func (p *Parser) parseCall() Expr {
	x := p.parsePrimary()
	for p.err == nil {
		tok := p.cur
		switch {
		case tok.Is("("):
			p.nextToken()
			call := &Call{At: tok.Pos, Callee: x}
			for !p.cur.Is(")") && !p.atEOF() {
				call.Args = append(call.Args, p.parseAssignment())
				if !p.cur.Is(",") {
					break
				}
				p.nextToken()
			}
			p.expect(")")
			x = call
		case tok.Is("."):
			p.nextToken()
			if p.cur.Type != TokenIdentifier && p.cur.Type != TokenKeyword {
				p.fail(p.cur.Pos, "expected property name, found %s", describe(p.cur))
				return nil
			}
			x = &Member{At: tok.Pos, X: x, Name: p.cur.Literal}
			p.nextToken()
		default:
			return x
		}
	}
	return x
}

func (p *Parser) parsePrimary() Expr {
	tok := p.cur
	switch tok.Type {
	case TokenNumber:
		p.nextToken()
		v, err := parseNumber(tok.Literal)
		if err != nil {
			p.fail(tok.Pos, "invalid number %s", tok.Literal)
			return nil
		}
		return &NumberLit{At: tok.Pos, Value: v}
	case TokenString:
		p.nextToken()
		return &StringLit{At: tok.Pos, Value: tok.Literal}
	case TokenIdentifier:
		p.nextToken()
		return &Ident{At: tok.Pos, Name: tok.Literal}
	case TokenKeyword:
		switch tok.Literal {
		case "true", "false":
			p.nextToken()
			return &BoolLit{At: tok.Pos, Value: tok.Literal == "true"}
		case "null":
			p.nextToken()
			return &NullLit{At: tok.Pos}
		case "undefined":
			p.nextToken()
			return &UndefinedLit{At: tok.Pos}
		}
	case TokenPunct:
		if tok.Is("(") {
			p.nextToken()
			x := p.parseExpression()
			p.expect(")")
			return x
		}
	}
	p.fail(tok.Pos, "unexpected %s", describe(tok))
	return nil
}

// parseNumber converts a numeric literal. Overflow yields Infinity.
func parseNumber(lit string) (float64, error) {
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		n, err := strconv.ParseUint(lit[2:], 16, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, err
		}
		if err != nil {
			return parseHexBig(lit[2:]), nil
		}
		return float64(n), nil
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, err
	}
	return v, nil
}

func parseHexBig(digits string) float64 {
	var v float64
	for _, d := range digits {
		n, _ := strconv.ParseUint(string(d), 16, 8)
		v = v*16 + float64(n)
	}
	return v
}
