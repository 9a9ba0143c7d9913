package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/blockrun/blocks"
)

func init() {
	register("procedures_callnoreturn", false, genProcedureCallStatement)
	register("procedures_callreturn", true, genProcedureCallValue)
	register("procedures_ifreturn", false, genProcedureIfReturn)
}

func isProcedureDef(typ string) bool {
	return typ == "procedures_defnoreturn" || typ == "procedures_defreturn"
}

// procedureParams returns the parameter names held in fields ARG0, ARG1, ...
func procedureParams(b *blocks.Block) []string {
	var params []string
	for i := 0; ; i++ {
		name, ok := b.Field("ARG" + strconv.Itoa(i))
		if !ok {
			return params
		}
		params = append(params, name)
	}
}

func (g *generator) procedureDef(b *blocks.Block) (string, error) {
	name, _ := b.Field("NAME")
	proc := g.procs[name]

	g.proc = proc
	depth := g.loopDepth
	g.loopDepth = 0
	defer func() {
		g.proc = nil
		g.loopDepth = depth
	}()

	branch, err := g.statementToCode(b, "STACK")
	if err != nil {
		return "", err
	}
	var ret string
	if proc.hasReturn {
		value, err := g.valueToCode(b, "RETURN", OrderNone)
		if err != nil {
			return "", err
		}
		if value != "" {
			ret = indent + "return " + value + ";\n"
		}
	}
	return fmt.Sprintf("function %s(%s) {\n%s%s}\n",
		proc.ident, strings.Join(proc.params, ", "), branch, ret), nil
}

func (g *generator) procedureCall(b *blocks.Block) (string, error) {
	name, _ := b.Field("NAME")
	proc, ok := g.procs[name]
	if !ok {
		return "", blockError(b, fmt.Sprintf("call to undefined procedure %q", name))
	}
	args := make([]string, len(proc.params))
	for i := range proc.params {
		arg, err := g.valueOr(b, "ARG"+strconv.Itoa(i), OrderNone, "null")
		if err != nil {
			return "", err
		}
		args[i] = arg
	}
	return proc.ident + "(" + strings.Join(args, ", ") + ")", nil
}

func genProcedureCallStatement(g *generator, b *blocks.Block) (string, Order, error) {
	code, err := g.procedureCall(b)
	if err != nil {
		return "", 0, err
	}
	return code + ";\n", OrderNone, nil
}

func genProcedureCallValue(g *generator, b *blocks.Block) (string, Order, error) {
	code, err := g.procedureCall(b)
	if err != nil {
		return "", 0, err
	}
	return code, OrderFunctionCall, nil
}

func genProcedureIfReturn(g *generator, b *blocks.Block) (string, Order, error) {
	if g.proc == nil {
		return "", 0, blockError(b, "return outside of a procedure")
	}
	cond, err := g.valueOr(b, "CONDITION", OrderNone, "false")
	if err != nil {
		return "", 0, err
	}
	stmt := "return;\n"
	if g.proc.hasReturn {
		value, err := g.valueOr(b, "VALUE", OrderNone, "null")
		if err != nil {
			return "", 0, err
		}
		stmt = "return " + value + ";\n"
	}
	return "if (" + cond + ") {\n" + indent + stmt + "}\n", OrderNone, nil
}
