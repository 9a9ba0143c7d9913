package codegen

import (
	"fmt"

	"github.com/chazu/blockrun/blocks"
)

func init() {
	register("logic_compare", true, genLogicCompare)
	register("logic_operation", true, genLogicOperation)
	register("logic_negate", true, genLogicNegate)
	register("logic_boolean", true, genLogicBoolean)
	register("logic_null", true, genLogicNull)
	register("logic_ternary", true, genLogicTernary)
	register("variables_get", true, genVariablesGet)
	register("variables_set", false, genVariablesSet)
}

var compareOps = map[string]string{
	"EQ":  "==",
	"NEQ": "!=",
	"LT":  "<",
	"LTE": "<=",
	"GT":  ">",
	"GTE": ">=",
}

func genLogicCompare(g *generator, b *blocks.Block) (string, Order, error) {
	opName, _ := b.Field("OP")
	op, ok := compareOps[opName]
	if !ok {
		return "", 0, blockError(b, fmt.Sprintf("unknown comparison %q", opName))
	}
	order := OrderRelational
	if opName == "EQ" || opName == "NEQ" {
		order = OrderEquality
	}
	a, err := g.valueOr(b, "A", order, "0")
	if err != nil {
		return "", 0, err
	}
	c, err := g.valueOr(b, "B", order, "0")
	if err != nil {
		return "", 0, err
	}
	return a + " " + op + " " + c, order, nil
}

func genLogicOperation(g *generator, b *blocks.Block) (string, Order, error) {
	opName, _ := b.Field("OP")
	var op string
	var order Order
	switch opName {
	case "AND":
		op, order = "&&", OrderLogicalAnd
	case "OR":
		op, order = "||", OrderLogicalOr
	default:
		return "", 0, blockError(b, fmt.Sprintf("unknown logic operator %q", opName))
	}

	a, err := g.valueToCode(b, "A", order)
	if err != nil {
		return "", 0, err
	}
	c, err := g.valueToCode(b, "B", order)
	if err != nil {
		return "", 0, err
	}
	if a == "" && c == "" {
		a, c = "false", "false"
	} else {
		// A single missing operand must not change the other's outcome.
		missing := "false"
		if op == "&&" {
			missing = "true"
		}
		if a == "" {
			a = missing
		}
		if c == "" {
			c = missing
		}
	}
	return a + " " + op + " " + c, order, nil
}

func genLogicNegate(g *generator, b *blocks.Block) (string, Order, error) {
	arg, err := g.valueOr(b, "BOOL", OrderLogicalNot, "true")
	if err != nil {
		return "", 0, err
	}
	return "!" + arg, OrderLogicalNot, nil
}

func genLogicBoolean(g *generator, b *blocks.Block) (string, Order, error) {
	v, _ := b.Field("BOOL")
	switch v {
	case "TRUE":
		return "true", OrderAtomic, nil
	case "FALSE":
		return "false", OrderAtomic, nil
	}
	return "", 0, blockError(b, fmt.Sprintf("invalid boolean %q", v))
}

func genLogicNull(g *generator, b *blocks.Block) (string, Order, error) {
	return "null", OrderAtomic, nil
}

func genLogicTernary(g *generator, b *blocks.Block) (string, Order, error) {
	cond, err := g.valueOr(b, "IF", OrderConditional, "false")
	if err != nil {
		return "", 0, err
	}
	then, err := g.valueOr(b, "THEN", OrderConditional, "null")
	if err != nil {
		return "", 0, err
	}
	els, err := g.valueOr(b, "ELSE", OrderConditional, "null")
	if err != nil {
		return "", 0, err
	}
	return cond + " ? " + then + " : " + els, OrderConditional, nil
}

func genVariablesGet(g *generator, b *blocks.Block) (string, Order, error) {
	return g.variable(b), OrderAtomic, nil
}

func genVariablesSet(g *generator, b *blocks.Block) (string, Order, error) {
	value, err := g.valueOr(b, "VALUE", OrderAssignment, "0")
	if err != nil {
		return "", 0, err
	}
	return g.variable(b) + " = " + value + ";\n", OrderNone, nil
}
