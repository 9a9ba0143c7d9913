// Package codegen translates a visual block program into source text of the
// sandbox language.
//
// Translation is a pure function of program structure: the same program
// always yields byte-identical source. Top-level blocks are emitted in
// canvas order (see blocks.Program.TopBlocks), procedure definitions and the
// variable declaration header come first.
package codegen

import (
	"fmt"
	"strings"

	"github.com/chazu/blockrun/blocks"
)

const indent = "  "

// genFunc produces code for one block. Statement generators return code
// terminated by a newline and ignore the order.
type genFunc func(g *generator, b *blocks.Block) (string, Order, error)

type blockDef struct {
	value bool
	gen   genFunc
}

// generators is filled in by init functions in the generators_*.go files.
var generators = map[string]blockDef{}

func register(typ string, value bool, fn genFunc) {
	generators[typ] = blockDef{value: value, gen: fn}
}

type procedure struct {
	ident     string
	params    []string
	hasReturn bool
}

type generator struct {
	names     *nameDB
	vars      []string
	procs     map[string]*procedure
	loopDepth int
	proc      *procedure
}

func newGenerator() *generator {
	return &generator{
		names: newNameDB(),
		procs: make(map[string]*procedure),
	}
}

// Compile translates a program to source. Any failure is a *CompileError.
func Compile(p *blocks.Program) (string, error) {
	g := newGenerator()
	top := p.TopBlocks()

	if err := g.declare(top); err != nil {
		return "", err
	}

	var defs []string
	if len(g.vars) > 0 {
		defs = append(defs, "var "+strings.Join(g.vars, ", ")+";")
	}

	var codes []string
	for _, b := range top {
		if isProcedureDef(b.Type) {
			code, err := g.procedureDef(b)
			if err != nil {
				return "", err
			}
			defs = append(defs, strings.TrimRight(code, "\n"))
			continue
		}

		def, ok := generators[b.Type]
		if !ok {
			return "", unknownBlock(b)
		}
		if def.value {
			code, _, err := def.gen(g, b)
			if err != nil {
				return "", err
			}
			codes = append(codes, code+";\n")
			continue
		}
		code, err := g.statementChain(b)
		if err != nil {
			return "", err
		}
		codes = append(codes, code)
	}

	body := strings.Join(codes, "\n")
	if len(defs) > 0 {
		body = strings.Join(defs, "\n\n") + "\n\n\n" + body
	}
	return finish(body), nil
}

// declare registers every variable and procedure name before any code is
// generated, so fresh names can never collide with user names.
func (g *generator) declare(top []*blocks.Block) error {
	ordered := &blocks.Program{Blocks: top}
	var err error
	ordered.Walk(func(b *blocks.Block) bool {
		switch b.Type {
		case "variables_set", "variables_get", "math_change", "controls_for":
			name, ok := b.Field("VAR")
			if !ok || name == "" {
				err = blockError(b, "missing variable name")
				return false
			}
			g.declareVar(name)
		}
		if isProcedureDef(b.Type) {
			for _, param := range procedureParams(b) {
				g.declareVar(param)
			}
		}
		return true
	})
	if err != nil {
		return err
	}

	for _, b := range top {
		if !isProcedureDef(b.Type) {
			continue
		}
		name, ok := b.Field("NAME")
		if !ok || name == "" {
			return blockError(b, "procedure has no name")
		}
		if g.names.has(categoryProcedure, name) {
			return blockError(b, fmt.Sprintf("procedure %q defined twice", name))
		}
		proc := &procedure{
			ident:     g.names.get(categoryProcedure, name),
			hasReturn: b.Type == "procedures_defreturn",
		}
		for _, param := range procedureParams(b) {
			proc.params = append(proc.params, g.names.get(categoryVariable, param))
		}
		g.procs[name] = proc
	}
	return nil
}

func (g *generator) declareVar(name string) {
	if g.names.has(categoryVariable, name) {
		return
	}
	g.vars = append(g.vars, g.names.get(categoryVariable, name))
}

// variable returns the identifier of a variable-bearing block.
func (g *generator) variable(b *blocks.Block) string {
	name, _ := b.Field("VAR")
	return g.names.get(categoryVariable, name)
}

// statementChain generates b and every block linked after it.
func (g *generator) statementChain(b *blocks.Block) (string, error) {
	var sb strings.Builder
	for ; b != nil; b = b.Next {
		def, ok := generators[b.Type]
		if !ok {
			return "", unknownBlock(b)
		}
		if def.value {
			return "", blockError(b, "value block used as a statement")
		}
		code, _, err := def.gen(g, b)
		if err != nil {
			return "", err
		}
		sb.WriteString(code)
	}
	return sb.String(), nil
}

// statementToCode generates the statement chain connected to an input,
// indented one level.
func (g *generator) statementToCode(b *blocks.Block, input string) (string, error) {
	code, err := g.statementChain(b.Input(input))
	if err != nil {
		return "", err
	}
	return prefixLines(code, indent), nil
}

// valueToCode generates the expression connected to an input, wrapped in
// parentheses when it binds more loosely than the slot requires. An empty
// input yields "".
func (g *generator) valueToCode(b *blocks.Block, input string, outer Order) (string, error) {
	child := b.Input(input)
	if child == nil {
		return "", nil
	}
	def, ok := generators[child.Type]
	if !ok {
		return "", unknownBlock(child)
	}
	if !def.value {
		return "", blockError(child, "statement block used as a value")
	}
	code, inner, err := def.gen(g, child)
	if err != nil {
		return "", err
	}
	if needsParens(outer, inner) {
		code = "(" + code + ")"
	}
	return code, nil
}

// valueOr is valueToCode with a default for empty inputs.
func (g *generator) valueOr(b *blocks.Block, input string, outer Order, def string) (string, error) {
	code, err := g.valueToCode(b, input, outer)
	if err != nil || code != "" {
		return code, err
	}
	return def, nil
}

func prefixLines(code, prefix string) string {
	if code == "" {
		return ""
	}
	lines := strings.SplitAfter(code, "\n")
	var sb strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		if line != "\n" {
			sb.WriteString(prefix)
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// finish trims leading blank lines, trailing whitespace on each line, and
// leaves exactly one trailing newline.
func finish(code string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	out := strings.Trim(strings.Join(lines, "\n"), "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}

func blockError(b *blocks.Block, msg string) *CompileError {
	return &CompileError{BlockID: b.ID, BlockType: b.Type, Message: msg}
}

func unknownBlock(b *blocks.Block) *CompileError {
	return blockError(b, "unknown block type")
}
