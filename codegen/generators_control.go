package codegen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/chazu/blockrun/blocks"
	"github.com/chazu/blockrun/compiler"
)

func init() {
	register("controls_if", false, genControlsIf)
	register("controls_repeat_ext", false, genControlsRepeatExt)
	register("controls_repeat", false, genControlsRepeat)
	register("controls_whileUntil", false, genControlsWhileUntil)
	register("controls_for", false, genControlsFor)
	register("controls_flow_statements", false, genControlsFlow)
}

var plainNumber = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

func genControlsIf(g *generator, b *blocks.Block) (string, Order, error) {
	n := numberedInputs(b, "IF")
	if d := numberedInputs(b, "DO"); d > n {
		n = d
	}
	if n == 0 {
		n = 1
	}

	var sb strings.Builder
	for i := 0; i < n; i++ {
		cond, err := g.valueOr(b, "IF"+strconv.Itoa(i), OrderNone, "false")
		if err != nil {
			return "", 0, err
		}
		branch, err := g.statementToCode(b, "DO"+strconv.Itoa(i))
		if err != nil {
			return "", 0, err
		}
		if i > 0 {
			sb.WriteString(" else ")
		}
		fmt.Fprintf(&sb, "if (%s) {\n%s}", cond, branch)
	}
	if b.Input("ELSE") != nil {
		branch, err := g.statementToCode(b, "ELSE")
		if err != nil {
			return "", 0, err
		}
		fmt.Fprintf(&sb, " else {\n%s}", branch)
	}
	sb.WriteString("\n")
	return sb.String(), OrderNone, nil
}

// repeat emits a counted loop running times iterations.
func (g *generator) repeat(b *blocks.Block, times string) (string, error) {
	var sb strings.Builder
	end := times
	if !plainNumber.MatchString(times) {
		end = g.names.fresh("repeat_end")
		fmt.Fprintf(&sb, "var %s = %s;\n", end, times)
	}
	loop := g.names.fresh("count")

	g.loopDepth++
	branch, err := g.statementToCode(b, "DO")
	g.loopDepth--
	if err != nil {
		return "", err
	}

	fmt.Fprintf(&sb, "for (var %s = 0; %s < %s; %s++) {\n%s}\n", loop, loop, end, loop, branch)
	return sb.String(), nil
}

func genControlsRepeatExt(g *generator, b *blocks.Block) (string, Order, error) {
	times, err := g.valueOr(b, "TIMES", OrderAssignment, "0")
	if err != nil {
		return "", 0, err
	}
	code, err := g.repeat(b, times)
	return code, OrderNone, err
}

func genControlsRepeat(g *generator, b *blocks.Block) (string, Order, error) {
	raw, _ := b.Field("TIMES")
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, blockError(b, fmt.Sprintf("invalid repeat count %q", raw))
	}
	code, err := g.repeat(b, compiler.FormatNumber(n))
	return code, OrderNone, err
}

func genControlsWhileUntil(g *generator, b *blocks.Block) (string, Order, error) {
	mode, _ := b.Field("MODE")
	var cond string
	var err error
	switch mode {
	case "", "WHILE":
		cond, err = g.valueOr(b, "BOOL", OrderNone, "false")
	case "UNTIL":
		cond, err = g.valueOr(b, "BOOL", OrderLogicalNot, "false")
		cond = "!" + cond
	default:
		return "", 0, blockError(b, fmt.Sprintf("unknown loop mode %q", mode))
	}
	if err != nil {
		return "", 0, err
	}

	g.loopDepth++
	branch, err := g.statementToCode(b, "DO")
	g.loopDepth--
	if err != nil {
		return "", 0, err
	}
	return "while (" + cond + ") {\n" + branch + "}\n", OrderNone, nil
}

func genControlsFor(g *generator, b *blocks.Block) (string, Order, error) {
	v := g.variable(b)
	from, err := g.valueOr(b, "FROM", OrderAssignment, "0")
	if err != nil {
		return "", 0, err
	}
	to, err := g.valueOr(b, "TO", OrderAssignment, "0")
	if err != nil {
		return "", 0, err
	}
	by, err := g.valueOr(b, "BY", OrderAssignment, "1")
	if err != nil {
		return "", 0, err
	}

	literal := plainNumber.MatchString(from) && plainNumber.MatchString(to) && plainNumber.MatchString(by)
	var start, end, inc string
	if !literal {
		start = g.names.fresh(v + "_start")
		end = g.names.fresh(v + "_end")
		inc = g.names.fresh(v + "_inc")
	}

	g.loopDepth++
	branch, err := g.statementToCode(b, "DO")
	g.loopDepth--
	if err != nil {
		return "", 0, err
	}

	if literal {
		f, _ := strconv.ParseFloat(from, 64)
		t, _ := strconv.ParseFloat(to, 64)
		step, _ := strconv.ParseFloat(by, 64)
		if step < 0 {
			step = -step
		}
		up := f <= t
		cmp, op := " <= ", " += "
		if !up {
			cmp, op = " >= ", " -= "
		}
		update := v + op + compiler.FormatNumber(step)
		if step == 1 {
			update = v + "++"
			if !up {
				update = v + "--"
			}
		}
		code := fmt.Sprintf("for (%s = %s; %s%s%s; %s) {\n%s}\n", v, from, v, cmp, to, update, branch)
		return code, OrderNone, nil
	}

	// Direction is only known at run time.
	var sb strings.Builder
	fmt.Fprintf(&sb, "var %s = %s;\n", start, from)
	fmt.Fprintf(&sb, "var %s = %s;\n", end, to)
	fmt.Fprintf(&sb, "var %s = Math.abs(%s);\n", inc, by)
	fmt.Fprintf(&sb, "if (%s > %s) {\n%s%s = -%s;\n}\n", start, end, indent, inc, inc)
	fmt.Fprintf(&sb, "for (%s = %s; %s >= 0 ? %s <= %s : %s >= %s; %s += %s) {\n%s}\n",
		v, start, inc, v, end, v, end, v, inc, branch)
	return sb.String(), OrderNone, nil
}

func genControlsFlow(g *generator, b *blocks.Block) (string, Order, error) {
	if g.loopDepth == 0 {
		return "", 0, blockError(b, "break or continue outside of a loop")
	}
	flow, _ := b.Field("FLOW")
	switch flow {
	case "BREAK":
		return "break;\n", OrderNone, nil
	case "CONTINUE":
		return "continue;\n", OrderNone, nil
	}
	return "", 0, blockError(b, fmt.Sprintf("unknown flow statement %q", flow))
}
