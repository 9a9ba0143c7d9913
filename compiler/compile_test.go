package compiler

import (
	"errors"
	"strings"
	"testing"
)

func mustCompile(t *testing.T, src string) *FuncProto {
	t.Helper()
	fn, err := Compile(src)
	if err != nil {
		t.Fatalf("Compile(%q): %v", src, err)
	}
	return fn
}

// opcodes decodes the instruction stream of a chunk.
func opcodes(c *Chunk) []Opcode {
	var ops []Opcode
	for offset := 0; offset < len(c.Code); {
		op := Opcode(c.Code[offset])
		ops = append(ops, op)
		offset += op.Width()
	}
	return ops
}

func containsOp(ops []Opcode, want Opcode) bool {
	for _, op := range ops {
		if op == want {
			return true
		}
	}
	return false
}

func TestCompileEndsWithReturn(t *testing.T) {
	fn := mustCompile(t, "")
	ops := opcodes(fn.Chunk)
	if len(ops) != 2 || ops[0] != OpUndefined || ops[1] != OpReturn {
		t.Errorf("empty program = %v, want [UNDEFINED RETURN]", ops)
	}
}

func TestCompileHoistsGlobals(t *testing.T) {
	fn := mustCompile(t, "x = y;\nvar y = 1;\nfunction f() {}")
	ops := opcodes(fn.Chunk)
	if ops[0] != OpDefineGlobal {
		t.Fatalf("first op = %v, want DEFINE_GLOBAL", ops[0])
	}
	// The function is bound before any statement runs.
	if ops[1] != OpConst || ops[2] != OpSetGlobal || ops[3] != OpPop {
		t.Errorf("function binding = %v, want CONST SET_GLOBAL POP", ops[1:4])
	}
}

func TestCompileLocals(t *testing.T) {
	fn := mustCompile(t, "function f(a) { var b = a; c = b; return c; }")

	var f *FuncProto
	for _, k := range fn.Chunk.Constants {
		if k.Kind == ConstFunction {
			f = k.Func
		}
	}
	if f == nil {
		t.Fatal("function constant not found")
	}
	if f.NumLocals != 2 {
		t.Errorf("NumLocals = %d, want 2", f.NumLocals)
	}
	ops := opcodes(f.Chunk)
	for _, want := range []Opcode{OpGetLocal, OpSetLocal, OpSetGlobal, OpGetGlobal, OpReturn} {
		if !containsOp(ops, want) {
			t.Errorf("function body %v lacks %v", ops, want)
		}
	}
}

func TestCompileLoopsPatchJumps(t *testing.T) {
	fn := mustCompile(t, `
var n = 1;
for (var count = 0; count < 4; count++) {
  if (count == 2) continue;
  n = n * 2;
  if (n > 100) break;
}
while (n > 0) { n--; }
`)
	c := fn.Chunk
	for offset := 0; offset < len(c.Code); {
		op := Opcode(c.Code[offset])
		switch op {
		case OpJump, OpJumpIfFalse, OpJumpIfFalseKeep, OpJumpIfTrueKeep:
			target := offset + 3 + c.ReadI16(offset+1)
			if target < 0 || target > len(c.Code) {
				t.Errorf("jump at %d targets %d outside [0, %d]", offset, target, len(c.Code))
			}
			if c.ReadU16(offset+1) == 0xFFFF {
				t.Errorf("jump at %d was never patched", offset)
			}
		}
		offset += op.Width()
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"break;", "break outside of a loop"},
		{"if (x) continue;", "continue outside of a loop"},
		{"return 1;", "return outside of a function"},
		{"function f() { while (true) {} break; }", "break outside of a loop"},
	}
	for _, tc := range tests {
		_, err := Compile(tc.src)
		if err == nil {
			t.Errorf("Compile(%q) succeeded, want error", tc.src)
			continue
		}
		var cerr *Error
		if !errors.As(err, &cerr) {
			t.Errorf("Compile(%q) error %T, want *Error", tc.src, err)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("Compile(%q) error = %q, want it to contain %q", tc.src, err, tc.want)
		}
	}
}

func TestCompileConstantsAreShared(t *testing.T) {
	fn := mustCompile(t, "x = 'a' + 'a' + 2 + 2;")
	var strs, nums int
	for _, k := range fn.Chunk.Constants {
		switch k.Kind {
		case ConstString:
			if k.Str == "a" {
				strs++
			}
		case ConstNumber:
			nums++
		}
	}
	if strs != 1 || nums != 1 {
		t.Errorf("constants = %+v, want one 'a' and one number", fn.Chunk.Constants)
	}
}

func TestDisassemble(t *testing.T) {
	fn := mustCompile(t, "function double(x) { return x * 2; }\nprint(double(21));")
	out := Disassemble(fn)
	for _, want := range []string{"== <main>", "== double (1 params, 1 locals) ==", "GET_GLOBAL", `"print"`, "CALL", "MUL"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly lacks %q:\n%s", want, out)
		}
	}
}
