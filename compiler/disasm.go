package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Disassemble renders a function and every function in its constant pool
// in a human-readable listing.
func Disassemble(fn *FuncProto) string {
	var sb strings.Builder
	disassemble(&sb, fn)
	return sb.String()
}

func disassemble(sb *strings.Builder, fn *FuncProto) {
	c := fn.Chunk
	fmt.Fprintf(sb, "== %s (%d params, %d locals) ==\n", fn.Name, len(fn.Params), fn.NumLocals)

	var nested []*FuncProto
	for offset := 0; offset < len(c.Code); {
		op := Opcode(c.Code[offset])
		fmt.Fprintf(sb, "%04d %4d %-18s", offset, c.Line(offset), op)

		info, ok := op.Info()
		if !ok {
			sb.WriteString("\n")
			offset++
			continue
		}
		switch {
		case op == OpCall:
			fmt.Fprintf(sb, " %d", c.Code[offset+1])
		case op == OpJump || op == OpJumpIfFalse || op == OpJumpIfFalseKeep || op == OpJumpIfTrueKeep:
			fmt.Fprintf(sb, " -> %04d", offset+3+c.ReadI16(offset+1))
		case op == OpGetLocal || op == OpSetLocal:
			fmt.Fprintf(sb, " %d", c.ReadU16(offset+1))
		case info.OperandBytes == 2:
			k := c.Constants[c.ReadU16(offset+1)]
			sb.WriteString(" " + describeConstant(k))
			if k.Kind == ConstFunction {
				nested = append(nested, k.Func)
			}
		}
		sb.WriteString("\n")
		offset += op.Width()
	}

	for _, fn := range nested {
		sb.WriteString("\n")
		disassemble(sb, fn)
	}
}

func describeConstant(k Constant) string {
	switch k.Kind {
	case ConstNumber:
		return FormatNumber(k.Num)
	case ConstString:
		return strconv.Quote(k.Str)
	case ConstFunction:
		return "<function " + k.Func.Name + ">"
	}
	return "?"
}
