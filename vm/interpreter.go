package vm

import (
	"errors"
	"math"

	"github.com/chazu/blockrun/compiler"
)

// ---------------------------------------------------------------------------
// frame: execution state of one function invocation
// ---------------------------------------------------------------------------

type frame struct {
	fn     *Function
	ip     int
	base   int // stack height when the frame was entered
	locals []Value
}

func (f *frame) chunk() *compiler.Chunk {
	return f.fn.proto.Chunk
}

func (in *Instance) push(v Value) {
	in.stack = append(in.stack, v)
}

func (in *Instance) pop() Value {
	v := in.stack[len(in.stack)-1]
	in.stack = in.stack[:len(in.stack)-1]
	return v
}

func (in *Instance) top() Value {
	return in.stack[len(in.stack)-1]
}

// exec runs one instruction. It reports true when the main program
// returns.
func (in *Instance) exec() (finished bool, err error) {
	f := in.frames[len(in.frames)-1]
	c := f.chunk()
	if f.ip >= len(c.Code) {
		return in.ret(Undefined), nil
	}

	at := f.ip
	op := compiler.Opcode(c.Code[at])
	f.ip++

	fail := func(name, format string, args ...any) (bool, error) {
		e := Throw(name, format, args...)
		e.Line = c.Line(at)
		return false, e
	}
	operand := func() uint16 {
		v := c.ReadU16(f.ip)
		f.ip += 2
		return v
	}
	name := func() string {
		return c.Constants[operand()].Str
	}

	switch op {
	case compiler.OpNop:

	case compiler.OpPop:
		in.pop()

	case compiler.OpDup:
		in.push(in.top())

	case compiler.OpConst:
		k := c.Constants[operand()]
		switch k.Kind {
		case compiler.ConstNumber:
			in.push(Number(k.Num))
		case compiler.ConstString:
			in.push(String(k.Str))
		case compiler.ConstFunction:
			in.push(Value{kind: KindFunction, ref: in.function(k.Func)})
		}

	case compiler.OpUndefined:
		in.push(Undefined)
	case compiler.OpNull:
		in.push(Null)
	case compiler.OpTrue:
		in.push(True)
	case compiler.OpFalse:
		in.push(False)

	case compiler.OpGetGlobal:
		n := name()
		v, ok := in.globals[n]
		if !ok {
			return fail(ReferenceError, "%s is not defined", n)
		}
		in.push(v)

	case compiler.OpSetGlobal:
		in.globals[name()] = in.top()

	case compiler.OpDefineGlobal:
		n := name()
		if _, ok := in.globals[n]; !ok {
			in.globals[n] = Undefined
		}

	case compiler.OpGetLocal:
		in.push(f.locals[operand()])

	case compiler.OpSetLocal:
		f.locals[operand()] = in.top()

	case compiler.OpGetMember:
		n := name()
		obj := in.pop()
		switch obj.kind {
		case KindUndefined, KindNull:
			return fail(TypeError, "Cannot read properties of %s (reading '%s')", obj, n)
		case KindString:
			if n == "length" {
				in.push(Number(float64(stringLength(obj.str))))
				return false, nil
			}
		case KindObject:
			if v, ok := obj.ref.(*Object).props[n]; ok {
				in.push(v)
				return false, nil
			}
		}
		in.push(Undefined)

	case compiler.OpAdd:
		b, a := in.pop(), in.pop()
		in.push(add(a, b))
	case compiler.OpSub:
		b, a := in.pop(), in.pop()
		in.push(Number(a.ToNumber() - b.ToNumber()))
	case compiler.OpMul:
		b, a := in.pop(), in.pop()
		in.push(Number(a.ToNumber() * b.ToNumber()))
	case compiler.OpDiv:
		b, a := in.pop(), in.pop()
		in.push(Number(a.ToNumber() / b.ToNumber()))
	case compiler.OpMod:
		b, a := in.pop(), in.pop()
		in.push(Number(math.Mod(a.ToNumber(), b.ToNumber())))

	case compiler.OpNeg:
		in.push(Number(-in.pop().ToNumber()))
	case compiler.OpPlus:
		in.push(Number(in.pop().ToNumber()))
	case compiler.OpInc:
		in.push(Number(in.pop().ToNumber() + 1))
	case compiler.OpDec:
		in.push(Number(in.pop().ToNumber() - 1))
	case compiler.OpNot:
		in.push(Bool(!in.pop().Truthy()))

	case compiler.OpEq:
		b, a := in.pop(), in.pop()
		in.push(Bool(LooseEquals(a, b)))
	case compiler.OpNe:
		b, a := in.pop(), in.pop()
		in.push(Bool(!LooseEquals(a, b)))
	case compiler.OpStrictEq:
		b, a := in.pop(), in.pop()
		in.push(Bool(StrictEquals(a, b)))
	case compiler.OpStrictNe:
		b, a := in.pop(), in.pop()
		in.push(Bool(!StrictEquals(a, b)))
	case compiler.OpLt, compiler.OpLe, compiler.OpGt, compiler.OpGe:
		b, a := in.pop(), in.pop()
		cmp, ok := compare(a, b)
		var r bool
		if ok {
			switch op {
			case compiler.OpLt:
				r = cmp < 0
			case compiler.OpLe:
				r = cmp <= 0
			case compiler.OpGt:
				r = cmp > 0
			case compiler.OpGe:
				r = cmp >= 0
			}
		}
		in.push(Bool(r))

	case compiler.OpJump:
		offset := c.ReadI16(f.ip)
		f.ip += 2 + offset
	case compiler.OpJumpIfFalse:
		offset := c.ReadI16(f.ip)
		f.ip += 2
		if !in.pop().Truthy() {
			f.ip += offset
		}
	case compiler.OpJumpIfFalseKeep:
		offset := c.ReadI16(f.ip)
		f.ip += 2
		if !in.top().Truthy() {
			f.ip += offset
		} else {
			in.pop()
		}
	case compiler.OpJumpIfTrueKeep:
		offset := c.ReadI16(f.ip)
		f.ip += 2
		if in.top().Truthy() {
			f.ip += offset
		} else {
			in.pop()
		}

	case compiler.OpCall:
		argc := int(c.Code[f.ip])
		f.ip++
		return in.call(argc, c.Line(at))

	case compiler.OpReturn:
		return in.ret(in.pop()), nil

	default:
		return fail(GenericError, "invalid opcode %v", op)
	}
	return false, nil
}

func (in *Instance) call(argc, line int) (bool, error) {
	calleeAt := len(in.stack) - argc - 1
	callee := in.stack[calleeAt]
	fn := callee.function()
	if fn == nil {
		in.stack = in.stack[:calleeAt]
		return false, &RuntimeError{Name: TypeError, Message: callee.String() + " is not a function", Line: line}
	}

	args := make([]Value, argc)
	copy(args, in.stack[calleeAt+1:])
	in.stack = in.stack[:calleeAt]

	if fn.native != nil {
		v, err := fn.native(args)
		if err != nil {
			var rerr *RuntimeError
			if !errors.As(err, &rerr) {
				rerr = &RuntimeError{Name: GenericError, Message: err.Error()}
			}
			if rerr.Line == 0 {
				rerr.Line = line
			}
			return false, rerr
		}
		in.push(v)
		return false, nil
	}

	if len(in.frames) >= in.maxDepth {
		return false, &RuntimeError{Name: RangeError, Message: "Maximum call stack size exceeded", Line: line}
	}
	locals := make([]Value, fn.proto.NumLocals)
	copy(locals, args[:min(argc, len(fn.proto.Params))])
	in.frames = append(in.frames, &frame{fn: fn, base: len(in.stack), locals: locals})
	return false, nil
}

// ret leaves the current frame with value v and reports whether that was
// the main program.
func (in *Instance) ret(v Value) bool {
	f := in.frames[len(in.frames)-1]
	in.frames = in.frames[:len(in.frames)-1]
	in.stack = in.stack[:f.base]
	if len(in.frames) == 0 {
		return true
	}
	in.push(v)
	return false
}
