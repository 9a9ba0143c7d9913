package compiler

import "fmt"

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category.
type Opcode byte

const (
	// Stack manipulation (0x00-0x0F)
	OpNop Opcode = 0x00
	OpPop Opcode = 0x01 // Pop top of stack
	OpDup Opcode = 0x02 // Duplicate top of stack

	// Constants (0x10-0x1F)
	OpConst     Opcode = 0x10 // Push constant: OpConst <index:u16>
	OpUndefined Opcode = 0x11
	OpNull      Opcode = 0x12
	OpTrue      Opcode = 0x13
	OpFalse     Opcode = 0x14

	// Variables (0x20-0x2F)
	OpGetGlobal    Opcode = 0x20 // Push global: <name:u16>; ReferenceError if undeclared
	OpSetGlobal    Opcode = 0x21 // Store TOS to global, keeping it: <name:u16>
	OpDefineGlobal Opcode = 0x22 // Declare global as undefined unless present: <name:u16>
	OpGetLocal     Opcode = 0x23 // Push local slot: <slot:u16>
	OpSetLocal     Opcode = 0x24 // Store TOS to local slot, keeping it: <slot:u16>
	OpGetMember    Opcode = 0x25 // Replace TOS with its property: <name:u16>

	// Arithmetic (0x30-0x3F)
	OpAdd  Opcode = 0x30 // Pop two, push sum or concatenation
	OpSub  Opcode = 0x31 // Pop two, push a - b where b is TOS
	OpMul  Opcode = 0x32
	OpDiv  Opcode = 0x33
	OpMod  Opcode = 0x34
	OpNeg  Opcode = 0x35 // Negate TOS
	OpPlus Opcode = 0x36 // Convert TOS to a number
	OpInc  Opcode = 0x37 // Replace TOS with ToNumber(TOS) + 1
	OpDec  Opcode = 0x38 // Replace TOS with ToNumber(TOS) - 1

	// Comparison and logic (0x40-0x4F)
	OpEq       Opcode = 0x40
	OpNe       Opcode = 0x41
	OpStrictEq Opcode = 0x42
	OpStrictNe Opcode = 0x43
	OpLt       Opcode = 0x44
	OpLe       Opcode = 0x45
	OpGt       Opcode = 0x46
	OpGe       Opcode = 0x47
	OpNot      Opcode = 0x48

	// Control flow (0x50-0x5F)
	OpJump            Opcode = 0x50 // Unconditional jump: <offset:i16>
	OpJumpIfFalse     Opcode = 0x51 // Pop, jump if falsy: <offset:i16>
	OpJumpIfFalseKeep Opcode = 0x52 // Jump keeping TOS if falsy, else pop: <offset:i16>
	OpJumpIfTrueKeep  Opcode = 0x53 // Jump keeping TOS if truthy, else pop: <offset:i16>

	// Calls (0x60-0x6F)
	OpCall   Opcode = 0x60 // Call function below argc args: <argc:u8>
	OpReturn Opcode = 0x61 // Return TOS from the current frame
)

// OpcodeInfo describes an opcode for disassembly.
type OpcodeInfo struct {
	Name         string
	OperandBytes int
}

var opcodeTable = map[Opcode]OpcodeInfo{
	OpNop:             {"NOP", 0},
	OpPop:             {"POP", 0},
	OpDup:             {"DUP", 0},
	OpConst:           {"CONST", 2},
	OpUndefined:       {"UNDEFINED", 0},
	OpNull:            {"NULL", 0},
	OpTrue:            {"TRUE", 0},
	OpFalse:           {"FALSE", 0},
	OpGetGlobal:       {"GET_GLOBAL", 2},
	OpSetGlobal:       {"SET_GLOBAL", 2},
	OpDefineGlobal:    {"DEFINE_GLOBAL", 2},
	OpGetLocal:        {"GET_LOCAL", 2},
	OpSetLocal:        {"SET_LOCAL", 2},
	OpGetMember:       {"GET_MEMBER", 2},
	OpAdd:             {"ADD", 0},
	OpSub:             {"SUB", 0},
	OpMul:             {"MUL", 0},
	OpDiv:             {"DIV", 0},
	OpMod:             {"MOD", 0},
	OpNeg:             {"NEG", 0},
	OpPlus:            {"PLUS", 0},
	OpInc:             {"INC", 0},
	OpDec:             {"DEC", 0},
	OpEq:              {"EQ", 0},
	OpNe:              {"NE", 0},
	OpStrictEq:        {"STRICT_EQ", 0},
	OpStrictNe:        {"STRICT_NE", 0},
	OpLt:              {"LT", 0},
	OpLe:              {"LE", 0},
	OpGt:              {"GT", 0},
	OpGe:              {"GE", 0},
	OpNot:             {"NOT", 0},
	OpJump:            {"JUMP", 2},
	OpJumpIfFalse:     {"JUMP_IF_FALSE", 2},
	OpJumpIfFalseKeep: {"JUMP_IF_FALSE_KEEP", 2},
	OpJumpIfTrueKeep:  {"JUMP_IF_TRUE_KEEP", 2},
	OpCall:            {"CALL", 1},
	OpReturn:          {"RETURN", 0},
}

// Info returns the opcode's metadata.
func (op Opcode) Info() (OpcodeInfo, bool) {
	info, ok := opcodeTable[op]
	return info, ok
}

func (op Opcode) String() string {
	if info, ok := opcodeTable[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("Opcode(0x%02X)", byte(op))
}

// Width returns the encoded size of the instruction including operands.
func (op Opcode) Width() int {
	return 1 + opcodeTable[op].OperandBytes
}
