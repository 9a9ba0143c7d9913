package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Compile: AST to bytecode
// ---------------------------------------------------------------------------

// Compiler compiles a parsed program to bytecode.
//
// Top-level variables and functions are globals. Inside a function,
// parameters and every var/let declared anywhere in its body are local
// slots; other names resolve to globals at run time.
type Compiler struct {
	fs   *funcState
	line int
	err  *Error
}

type funcState struct {
	proto  *FuncProto
	locals map[string]int // nil for the main program
	loops  []*loopState
}

type loopState struct {
	breaks    []int
	continues []int
}

// Compile parses and compiles source, returning the main program.
func Compile(source string) (*FuncProto, error) {
	prog, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return CompileProgram(prog)
}

// CompileProgram compiles a parsed program.
func CompileProgram(prog *Program) (*FuncProto, error) {
	c := &Compiler{line: 1}
	main := &FuncProto{Name: "<main>", Chunk: &Chunk{}}
	c.fs = &funcState{proto: main}

	for _, name := range declaredVars(prog.Body) {
		c.emitName(OpDefineGlobal, name)
	}
	for _, s := range prog.Body {
		fn, ok := s.(*FuncDecl)
		if !ok {
			continue
		}
		proto := c.compileFunction(fn)
		idx, ok := c.chunk().AddFunction(proto)
		if !ok {
			c.fail(fn.At, "too many constants")
			break
		}
		c.chunk().EmitU16(OpConst, idx, c.line)
		c.emitName(OpSetGlobal, fn.Name)
		c.emit(OpPop)
	}
	for _, s := range prog.Body {
		if _, ok := s.(*FuncDecl); !ok {
			c.stmt(s)
		}
	}
	c.emit(OpUndefined)
	c.emit(OpReturn)

	if c.err != nil {
		return nil, c.err
	}
	return main, nil
}

func (c *Compiler) chunk() *Chunk {
	return c.fs.proto.Chunk
}

func (c *Compiler) fail(pos Position, format string, args ...any) {
	if c.err == nil {
		c.err = &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
	}
}

func (c *Compiler) emit(op Opcode) int {
	return c.chunk().Emit(op, c.line)
}

func (c *Compiler) emitName(op Opcode, name string) {
	idx, ok := c.chunk().AddString(name)
	if !ok {
		c.fail(Position{Line: c.line}, "too many constants")
		return
	}
	c.chunk().EmitU16(op, idx, c.line)
}

func (c *Compiler) emitJump(op Opcode) int {
	return c.chunk().EmitJump(op, c.line)
}

func (c *Compiler) patchJump(at int) {
	if !c.chunk().PatchJump(at) {
		c.fail(Position{Line: c.line}, "code block too large")
	}
}

func (c *Compiler) emitLoop(start int) {
	if !c.chunk().EmitLoop(start, c.line) {
		c.fail(Position{Line: c.line}, "loop body too large")
	}
}

func (c *Compiler) compileFunction(fn *FuncDecl) *FuncProto {
	proto := &FuncProto{Name: fn.Name, Params: fn.Params, Chunk: &Chunk{}}
	fs := &funcState{proto: proto, locals: make(map[string]int)}
	for i, p := range fn.Params {
		fs.locals[p] = i
	}
	proto.NumLocals = len(fn.Params)
	for _, name := range declaredVars(fn.Body) {
		if _, ok := fs.locals[name]; !ok {
			fs.locals[name] = proto.NumLocals
			proto.NumLocals++
		}
	}

	outer, line := c.fs, c.line
	c.fs, c.line = fs, fn.At.Line
	for _, s := range fn.Body {
		c.stmt(s)
	}
	c.emit(OpUndefined)
	c.emit(OpReturn)
	c.fs, c.line = outer, line
	return proto
}

// declaredVars lists var/let names declared in stmts in first-declaration
// order, descending into nested statements.
func declaredVars(stmts []Stmt) []string {
	var names []string
	seen := make(map[string]bool)
	var visit func(s Stmt)
	visit = func(s Stmt) {
		switch s := s.(type) {
		case *VarDecl:
			for _, n := range s.Names {
				if !seen[n] {
					seen[n] = true
					names = append(names, n)
				}
			}
		case *If:
			visit(s.Then)
			if s.Else != nil {
				visit(s.Else)
			}
		case *While:
			visit(s.Body)
		case *For:
			if s.Init != nil {
				visit(s.Init)
			}
			visit(s.Body)
		case *BlockStmt:
			for _, inner := range s.Body {
				visit(inner)
			}
		}
	}
	for _, s := range stmts {
		visit(s)
	}
	return names
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (c *Compiler) stmt(s Stmt) {
	if c.err != nil {
		return
	}
	c.line = s.Pos().Line

	switch s := s.(type) {
	case *VarDecl:
		for i, name := range s.Names {
			if s.Inits[i] == nil {
				continue
			}
			c.expr(s.Inits[i])
			c.store(name)
			c.emit(OpPop)
		}
	case *ExprStmt:
		c.expr(s.X)
		c.emit(OpPop)
	case *If:
		c.expr(s.Test)
		skip := c.emitJump(OpJumpIfFalse)
		c.stmt(s.Then)
		if s.Else == nil {
			c.patchJump(skip)
			return
		}
		end := c.emitJump(OpJump)
		c.patchJump(skip)
		c.stmt(s.Else)
		c.patchJump(end)
	case *While:
		start := len(c.chunk().Code)
		c.expr(s.Test)
		exit := c.emitJump(OpJumpIfFalse)
		loop := c.pushLoop()
		c.stmt(s.Body)
		c.popLoop(loop, start)
		c.emitLoop(start)
		c.patchJump(exit)
		c.patchBreaks(loop)
	case *For:
		if s.Init != nil {
			c.stmt(s.Init)
		}
		start := len(c.chunk().Code)
		exit := -1
		if s.Test != nil {
			c.expr(s.Test)
			exit = c.emitJump(OpJumpIfFalse)
		}
		loop := c.pushLoop()
		c.stmt(s.Body)
		c.popLoop(loop, len(c.chunk().Code))
		if s.Update != nil {
			c.line = s.Update.Pos().Line
			c.expr(s.Update)
			c.emit(OpPop)
		}
		c.emitLoop(start)
		if exit >= 0 {
			c.patchJump(exit)
		}
		c.patchBreaks(loop)
	case *Break:
		loop := c.innerLoop()
		if loop == nil {
			c.fail(s.At, "break outside of a loop")
			return
		}
		loop.breaks = append(loop.breaks, c.emitJump(OpJump))
	case *Continue:
		loop := c.innerLoop()
		if loop == nil {
			c.fail(s.At, "continue outside of a loop")
			return
		}
		loop.continues = append(loop.continues, c.emitJump(OpJump))
	case *Return:
		if c.fs.locals == nil {
			c.fail(s.At, "return outside of a function")
			return
		}
		if s.Value != nil {
			c.expr(s.Value)
		} else {
			c.emit(OpUndefined)
		}
		c.emit(OpReturn)
	case *BlockStmt:
		for _, inner := range s.Body {
			c.stmt(inner)
		}
	case *FuncDecl:
		c.fail(s.At, "function declarations are only allowed at top level")
	case *Empty:
	default:
		c.fail(s.Pos(), "unsupported statement %T", s)
	}
}

func (c *Compiler) pushLoop() *loopState {
	loop := &loopState{}
	c.fs.loops = append(c.fs.loops, loop)
	return loop
}

// popLoop removes the innermost loop and points its continues at target.
func (c *Compiler) popLoop(loop *loopState, target int) {
	c.fs.loops = c.fs.loops[:len(c.fs.loops)-1]
	for _, at := range loop.continues {
		if !c.chunk().PatchJumpTo(at, target) {
			c.fail(Position{Line: c.line}, "loop body too large")
		}
	}
}

func (c *Compiler) patchBreaks(loop *loopState) {
	for _, at := range loop.breaks {
		c.patchJump(at)
	}
}

func (c *Compiler) innerLoop() *loopState {
	if len(c.fs.loops) == 0 {
		return nil
	}
	return c.fs.loops[len(c.fs.loops)-1]
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

var binaryOpcodes = map[string]Opcode{
	"+":   OpAdd,
	"-":   OpSub,
	"*":   OpMul,
	"/":   OpDiv,
	"%":   OpMod,
	"==":  OpEq,
	"!=":  OpNe,
	"===": OpStrictEq,
	"!==": OpStrictNe,
	"<":   OpLt,
	"<=":  OpLe,
	">":   OpGt,
	">=":  OpGe,
}

func (c *Compiler) expr(e Expr) {
	if c.err != nil {
		return
	}
	if line := e.Pos().Line; line > 0 {
		c.line = line
	}

	switch e := e.(type) {
	case *NumberLit:
		idx, ok := c.chunk().AddNumber(e.Value)
		if !ok {
			c.fail(e.At, "too many constants")
			return
		}
		c.chunk().EmitU16(OpConst, idx, c.line)
	case *StringLit:
		idx, ok := c.chunk().AddString(e.Value)
		if !ok {
			c.fail(e.At, "too many constants")
			return
		}
		c.chunk().EmitU16(OpConst, idx, c.line)
	case *BoolLit:
		if e.Value {
			c.emit(OpTrue)
		} else {
			c.emit(OpFalse)
		}
	case *NullLit:
		c.emit(OpNull)
	case *UndefinedLit:
		c.emit(OpUndefined)
	case *Ident:
		c.load(e.Name)
	case *Assign:
		if e.Op != "=" {
			c.load(e.Target.Name)
		}
		c.expr(e.Value)
		if e.Op != "=" {
			c.emit(binaryOpcodes[e.Op[:1]])
		}
		c.store(e.Target.Name)
	case *Update:
		step := OpInc
		if e.Op == "--" {
			step = OpDec
		}
		c.load(e.Target.Name)
		if e.Prefix {
			c.emit(step)
			c.store(e.Target.Name)
			return
		}
		c.emit(OpPlus)
		c.emit(OpDup)
		c.emit(step)
		c.store(e.Target.Name)
		c.emit(OpPop)
	case *Unary:
		c.expr(e.X)
		switch e.Op {
		case "!":
			c.emit(OpNot)
		case "-":
			c.emit(OpNeg)
		case "+":
			c.emit(OpPlus)
		}
	case *Binary:
		c.expr(e.X)
		c.expr(e.Y)
		op, ok := binaryOpcodes[e.Op]
		if !ok {
			c.fail(e.At, "unsupported operator %s", e.Op)
			return
		}
		c.emit(op)
	case *Logical:
		c.expr(e.X)
		op := OpJumpIfFalseKeep
		if e.Op == "||" {
			op = OpJumpIfTrueKeep
		}
		end := c.emitJump(op)
		c.expr(e.Y)
		c.patchJump(end)
	case *Conditional:
		c.expr(e.Test)
		skip := c.emitJump(OpJumpIfFalse)
		c.expr(e.Then)
		end := c.emitJump(OpJump)
		c.patchJump(skip)
		c.expr(e.Else)
		c.patchJump(end)
	case *Call:
		if len(e.Args) > 255 {
			c.fail(e.At, "too many arguments")
			return
		}
		c.expr(e.Callee)
		for _, arg := range e.Args {
			c.expr(arg)
		}
		c.chunk().EmitU8(OpCall, uint8(len(e.Args)), e.At.Line)
	case *Member:
		c.expr(e.X)
		c.emitName(OpGetMember, e.Name)
	default:
		c.fail(e.Pos(), "unsupported expression %T", e)
	}
}

func (c *Compiler) load(name string) {
	if slot, ok := c.fs.locals[name]; ok {
		c.chunk().EmitU16(OpGetLocal, uint16(slot), c.line)
		return
	}
	c.emitName(OpGetGlobal, name)
}

func (c *Compiler) store(name string) {
	if slot, ok := c.fs.locals[name]; ok {
		c.chunk().EmitU16(OpSetLocal, uint16(slot), c.line)
		return
	}
	c.emitName(OpSetGlobal, name)
}
