package compiler

import "math"

// ConstKind tags a constant pool entry.
type ConstKind uint8

const (
	ConstNumber ConstKind = iota
	ConstString
	ConstFunction
)

// Constant is a constant pool entry.
type Constant struct {
	Kind ConstKind
	Num  float64
	Str  string
	Func *FuncProto
}

// FuncProto is a compiled function: the main program or a declared
// function.
type FuncProto struct {
	Name      string
	Params    []string
	NumLocals int // includes parameters
	Chunk     *Chunk
}

// Chunk is the bytecode of one function. Multi-byte operands are
// big-endian; jump offsets are signed and relative to the end of the
// instruction.
type Chunk struct {
	Code      []byte
	Constants []Constant
	Lines     []int // source line per code byte
}

const maxConstants = 1 << 16

// Emit appends a single-byte opcode and returns its offset.
func (c *Chunk) Emit(op Opcode, line int) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	c.Lines = append(c.Lines, line)
	return offset
}

// EmitU16 appends an opcode with a 16-bit operand.
func (c *Chunk) EmitU16(op Opcode, operand uint16, line int) int {
	offset := c.Emit(op, line)
	c.Code = append(c.Code, byte(operand>>8), byte(operand))
	c.Lines = append(c.Lines, line, line)
	return offset
}

// EmitU8 appends an opcode with an 8-bit operand.
func (c *Chunk) EmitU8(op Opcode, operand uint8, line int) int {
	offset := c.Emit(op, line)
	c.Code = append(c.Code, operand)
	c.Lines = append(c.Lines, line)
	return offset
}

// EmitJump emits a jump with a placeholder offset and returns the offset
// of the placeholder for PatchJump.
func (c *Chunk) EmitJump(op Opcode, line int) int {
	return c.EmitU16(op, 0xFFFF, line) + 1
}

// PatchJump points the jump whose placeholder is at the given offset to the
// current end of code. It reports false if the distance does not fit.
func (c *Chunk) PatchJump(placeholder int) bool {
	return c.patch(placeholder, len(c.Code))
}

// PatchJumpTo points a jump placeholder at target.
func (c *Chunk) PatchJumpTo(placeholder, target int) bool {
	return c.patch(placeholder, target)
}

func (c *Chunk) patch(placeholder, target int) bool {
	delta := target - (placeholder + 2)
	if delta > math.MaxInt16 || delta < math.MinInt16 {
		return false
	}
	c.Code[placeholder] = byte(uint16(int16(delta)) >> 8)
	c.Code[placeholder+1] = byte(uint16(int16(delta)))
	return true
}

// EmitLoop emits a backward jump to loopStart.
func (c *Chunk) EmitLoop(loopStart, line int) bool {
	return c.patch(c.EmitJump(OpJump, line), loopStart)
}

// ReadU16 decodes the 16-bit operand at offset.
func (c *Chunk) ReadU16(offset int) uint16 {
	return uint16(c.Code[offset])<<8 | uint16(c.Code[offset+1])
}

// ReadI16 decodes the signed 16-bit operand at offset.
func (c *Chunk) ReadI16(offset int) int {
	return int(int16(c.ReadU16(offset)))
}

// Line returns the source line of the instruction at offset.
func (c *Chunk) Line(offset int) int {
	if offset < 0 || offset >= len(c.Lines) {
		return 0
	}
	return c.Lines[offset]
}

// AddNumber adds a number constant, reusing an equal entry.
func (c *Chunk) AddNumber(f float64) (uint16, bool) {
	for i, k := range c.Constants {
		if k.Kind == ConstNumber && math.Float64bits(k.Num) == math.Float64bits(f) {
			return uint16(i), true
		}
	}
	return c.add(Constant{Kind: ConstNumber, Num: f})
}

// AddString adds a string constant, reusing an equal entry.
func (c *Chunk) AddString(s string) (uint16, bool) {
	for i, k := range c.Constants {
		if k.Kind == ConstString && k.Str == s {
			return uint16(i), true
		}
	}
	return c.add(Constant{Kind: ConstString, Str: s})
}

// AddFunction adds a function constant.
func (c *Chunk) AddFunction(fn *FuncProto) (uint16, bool) {
	return c.add(Constant{Kind: ConstFunction, Func: fn})
}

func (c *Chunk) add(k Constant) (uint16, bool) {
	if len(c.Constants) >= maxConstants {
		return 0, false
	}
	c.Constants = append(c.Constants, k)
	return uint16(len(c.Constants) - 1), true
}
