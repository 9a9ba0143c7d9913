package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/blockrun/blocks"
	"github.com/chazu/blockrun/compiler"
)

func init() {
	register("math_number", true, genMathNumber)
	register("math_arithmetic", true, genMathArithmetic)
	register("math_single", true, genMathSingle)
	register("math_modulo", true, genMathModulo)
	register("math_change", false, genMathChange)
}

func genMathNumber(g *generator, b *blocks.Block) (string, Order, error) {
	raw, _ := b.Field("NUM")
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, blockError(b, fmt.Sprintf("invalid number %q", raw))
	}
	if n < 0 {
		return compiler.FormatNumber(n), OrderUnaryNegation, nil
	}
	return compiler.FormatNumber(n), OrderAtomic, nil
}

var arithmeticOps = map[string]struct {
	op    string
	order Order
}{
	"ADD":      {" + ", OrderAddition},
	"MINUS":    {" - ", OrderSubtraction},
	"MULTIPLY": {" * ", OrderMultiplication},
	"DIVIDE":   {" / ", OrderDivision},
	"POWER":    {"", OrderFunctionCall},
}

func genMathArithmetic(g *generator, b *blocks.Block) (string, Order, error) {
	opName, _ := b.Field("OP")
	arith, ok := arithmeticOps[opName]
	if !ok {
		return "", 0, blockError(b, fmt.Sprintf("unknown arithmetic operator %q", opName))
	}

	if arith.op == "" {
		a, err := g.valueOr(b, "A", OrderNone, "0")
		if err != nil {
			return "", 0, err
		}
		c, err := g.valueOr(b, "B", OrderNone, "0")
		if err != nil {
			return "", 0, err
		}
		return "Math.pow(" + a + ", " + c + ")", OrderFunctionCall, nil
	}

	a, err := g.valueOr(b, "A", arith.order, "0")
	if err != nil {
		return "", 0, err
	}
	c, err := g.valueOr(b, "B", arith.order, "0")
	if err != nil {
		return "", 0, err
	}
	return a + arith.op + c, arith.order, nil
}

var singleFuncs = map[string]string{
	"ROOT":      "Math.sqrt",
	"ABS":       "Math.abs",
	"LN":        "Math.log",
	"LOG10":     "Math.log10",
	"EXP":       "Math.exp",
	"ROUND":     "Math.round",
	"ROUNDUP":   "Math.ceil",
	"ROUNDDOWN": "Math.floor",
}

var trigFuncs = map[string]string{
	"SIN": "Math.sin",
	"COS": "Math.cos",
	"TAN": "Math.tan",
}

func genMathSingle(g *generator, b *blocks.Block) (string, Order, error) {
	op, _ := b.Field("OP")

	switch op {
	case "NEG":
		arg, err := g.valueOr(b, "NUM", OrderUnaryNegation, "0")
		if err != nil {
			return "", 0, err
		}
		if strings.HasPrefix(arg, "-") {
			// --3 is a decrement, not a double negation.
			arg = " " + arg
		}
		return "-" + arg, OrderUnaryNegation, nil
	case "POW10":
		arg, err := g.valueOr(b, "NUM", OrderNone, "0")
		if err != nil {
			return "", 0, err
		}
		return "Math.pow(10, " + arg + ")", OrderFunctionCall, nil
	}

	if fn, ok := singleFuncs[op]; ok {
		arg, err := g.valueOr(b, "NUM", OrderNone, "0")
		if err != nil {
			return "", 0, err
		}
		return fn + "(" + arg + ")", OrderFunctionCall, nil
	}
	if fn, ok := trigFuncs[op]; ok {
		// Blocks work in degrees.
		arg, err := g.valueOr(b, "NUM", OrderDivision, "0")
		if err != nil {
			return "", 0, err
		}
		return fn + "(" + arg + " / 180 * Math.PI)", OrderFunctionCall, nil
	}
	return "", 0, blockError(b, fmt.Sprintf("unknown math function %q", op))
}

func genMathModulo(g *generator, b *blocks.Block) (string, Order, error) {
	a, err := g.valueOr(b, "DIVIDEND", OrderModulus, "0")
	if err != nil {
		return "", 0, err
	}
	c, err := g.valueOr(b, "DIVISOR", OrderModulus, "0")
	if err != nil {
		return "", 0, err
	}
	return a + " % " + c, OrderModulus, nil
}

func genMathChange(g *generator, b *blocks.Block) (string, Order, error) {
	delta, err := g.valueOr(b, "DELTA", OrderAddition, "0")
	if err != nil {
		return "", 0, err
	}
	v := g.variable(b)
	return v + " = (Number(" + v + ") || 0) + " + delta + ";\n", OrderNone, nil
}
