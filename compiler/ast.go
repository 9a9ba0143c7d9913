package compiler

// ---------------------------------------------------------------------------
// AST
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Pos() Position
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt()
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// NumberLit is a numeric literal.
type NumberLit struct {
	At    Position
	Value float64
}

// StringLit is a string literal with escapes decoded.
type StringLit struct {
	At    Position
	Value string
}

// BoolLit is true or false.
type BoolLit struct {
	At    Position
	Value bool
}

// NullLit is null.
type NullLit struct{ At Position }

// UndefinedLit is undefined.
type UndefinedLit struct{ At Position }

// Ident is a variable reference.
type Ident struct {
	At   Position
	Name string
}

// Assign is target = value or a compound form; Op is "=", "+=", ...
type Assign struct {
	At     Position
	Op     string
	Target *Ident
	Value  Expr
}

// Update is ++ or --, prefix or postfix.
type Update struct {
	At     Position
	Op     string
	Prefix bool
	Target *Ident
}

// Unary is !x, -x or +x.
type Unary struct {
	At Position
	Op string
	X  Expr
}

// Binary is an arithmetic or comparison operator.
type Binary struct {
	At   Position
	Op   string
	X, Y Expr
}

// Logical is && or ||. The right operand is evaluated only when needed.
type Logical struct {
	At   Position
	Op   string
	X, Y Expr
}

// Conditional is test ? then : else.
type Conditional struct {
	At               Position
	Test, Then, Else Expr
}

// Call is callee(args...).
type Call struct {
	At     Position
	Callee Expr
	Args   []Expr
}

// Member is x.name.
type Member struct {
	At   Position
	X    Expr
	Name string
}

func (n *NumberLit) Pos() Position    { return n.At }
func (n *StringLit) Pos() Position    { return n.At }
func (n *BoolLit) Pos() Position      { return n.At }
func (n *NullLit) Pos() Position      { return n.At }
func (n *UndefinedLit) Pos() Position { return n.At }
func (n *Ident) Pos() Position        { return n.At }
func (n *Assign) Pos() Position       { return n.At }
func (n *Update) Pos() Position       { return n.At }
func (n *Unary) Pos() Position        { return n.At }
func (n *Binary) Pos() Position       { return n.At }
func (n *Logical) Pos() Position      { return n.At }
func (n *Conditional) Pos() Position  { return n.At }
func (n *Call) Pos() Position         { return n.At }
func (n *Member) Pos() Position       { return n.At }

func (*NumberLit) expr()    {}
func (*StringLit) expr()    {}
func (*BoolLit) expr()      {}
func (*NullLit) expr()      {}
func (*UndefinedLit) expr() {}
func (*Ident) expr()        {}
func (*Assign) expr()       {}
func (*Update) expr()       {}
func (*Unary) expr()        {}
func (*Binary) expr()       {}
func (*Logical) expr()      {}
func (*Conditional) expr()  {}
func (*Call) expr()         {}
func (*Member) expr()       {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// VarDecl declares one or more variables. Inits[i] is nil when Names[i] has
// no initializer.
type VarDecl struct {
	At    Position
	Names []string
	Inits []Expr
}

// ExprStmt evaluates an expression and discards the result.
type ExprStmt struct {
	At Position
	X  Expr
}

// If is if (test) then else.
type If struct {
	At   Position
	Test Expr
	Then Stmt
	Else Stmt // may be nil
}

// While is while (test) body.
type While struct {
	At   Position
	Test Expr
	Body Stmt
}

// For is for (init; test; update) body. Any clause may be nil.
type For struct {
	At     Position
	Init   Stmt
	Test   Expr
	Update Expr
	Body   Stmt
}

// Break leaves the innermost loop.
type Break struct{ At Position }

// Continue jumps to the next iteration of the innermost loop.
type Continue struct{ At Position }

// Return leaves the current function.
type Return struct {
	At    Position
	Value Expr // may be nil
}

// BlockStmt is { body }.
type BlockStmt struct {
	At   Position
	Body []Stmt
}

// FuncDecl is a top-level function declaration.
type FuncDecl struct {
	At     Position
	Name   string
	Params []string
	Body   []Stmt
}

// Empty is a lone semicolon.
type Empty struct{ At Position }

func (n *VarDecl) Pos() Position   { return n.At }
func (n *ExprStmt) Pos() Position  { return n.At }
func (n *If) Pos() Position        { return n.At }
func (n *While) Pos() Position     { return n.At }
func (n *For) Pos() Position       { return n.At }
func (n *Break) Pos() Position     { return n.At }
func (n *Continue) Pos() Position  { return n.At }
func (n *Return) Pos() Position    { return n.At }
func (n *BlockStmt) Pos() Position { return n.At }
func (n *FuncDecl) Pos() Position  { return n.At }
func (n *Empty) Pos() Position     { return n.At }

func (*VarDecl) stmt()   {}
func (*ExprStmt) stmt()  {}
func (*If) stmt()        {}
func (*While) stmt()     {}
func (*For) stmt()       {}
func (*Break) stmt()     {}
func (*Continue) stmt()  {}
func (*Return) stmt()    {}
func (*BlockStmt) stmt() {}
func (*FuncDecl) stmt()  {}
func (*Empty) stmt()     {}

// Program is a parsed source file.
type Program struct {
	Body []Stmt
}
