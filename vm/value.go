package vm

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/chazu/blockrun/compiler"
)

// ---------------------------------------------------------------------------
// Value representation
// ---------------------------------------------------------------------------

// Kind is the dynamic type of a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindFunction
	KindObject
)

var kindNames = [...]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindBool:      "boolean",
	KindNumber:    "number",
	KindString:    "string",
	KindFunction:  "function",
	KindObject:    "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a sandbox value. The zero Value is undefined.
type Value struct {
	kind Kind
	num  float64 // number; 1 or 0 for booleans
	str  string
	ref  any // *Function or *Object
}

// Well-known values.
var (
	Undefined = Value{}
	Null      = Value{kind: KindNull}
	True      = Value{kind: KindBool, num: 1}
	False     = Value{kind: KindBool}
)

// Bool returns the boolean value b.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Number returns the number value f.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// String returns the string value s.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// NativeFunc implements a function provided by the host.
type NativeFunc func(args []Value) (Value, error)

// Function is a callable value: compiled from source or native.
type Function struct {
	Name   string
	proto  *compiler.FuncProto
	native NativeFunc
}

// Native wraps a host function as a value.
func Native(name string, fn NativeFunc) Value {
	return Value{kind: KindFunction, ref: &Function{Name: name, native: fn}}
}

func compiled(proto *compiler.FuncProto) *Function {
	return &Function{Name: proto.Name, proto: proto}
}

// Object is a property bag such as Math.
type Object struct {
	props map[string]Value
}

// NewObject returns an object value with the given properties.
func NewObject(props map[string]Value) Value {
	return Value{kind: KindObject, ref: &Object{props: props}}
}

// Kind returns the value's dynamic type.
func (v Value) Kind() Kind { return v.kind }

// IsNullish reports whether v is undefined or null.
func (v Value) IsNullish() bool {
	return v.kind == KindUndefined || v.kind == KindNull
}

// Truthy converts v to a boolean.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindBool:
		return v.num != 0
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindString:
		return v.str != ""
	}
	return true
}

// ToNumber converts v to a number.
func (v Value) ToNumber() float64 {
	switch v.kind {
	case KindNull, KindBool, KindNumber:
		return v.num
	case KindString:
		return stringToNumber(v.str)
	}
	return math.NaN()
}

// String converts v to a string the way the language's String() does.
func (v Value) String() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case KindNumber:
		return compiler.FormatNumber(v.num)
	case KindString:
		return v.str
	case KindFunction:
		fn := v.ref.(*Function)
		if fn.native != nil {
			return "function " + fn.Name + "() { [native code] }"
		}
		return "function " + fn.Name + "(" + strings.Join(fn.proto.Params, ", ") + ") { ... }"
	}
	return "[object Object]"
}

// function returns the callable behind v, or nil.
func (v Value) function() *Function {
	if v.kind != KindFunction {
		return nil
	}
	return v.ref.(*Function)
}

func (v Value) primitiveString() bool {
	return v.kind == KindString || v.kind == KindFunction || v.kind == KindObject
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r == '.' || r == 'e' || r == 'E' || r == '+' || r == '-') {
			return math.NaN()
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

// StrictEquals implements ===.
func StrictEquals(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool, KindNumber:
		return a.num == b.num
	case KindString:
		return a.str == b.str
	}
	return a.ref == b.ref
}

// LooseEquals implements ==.
func LooseEquals(a, b Value) bool {
	switch {
	case a.kind == b.kind:
		return StrictEquals(a, b)
	case a.IsNullish() || b.IsNullish():
		return a.IsNullish() && b.IsNullish()
	case a.kind == KindBool:
		return LooseEquals(Number(a.num), b)
	case b.kind == KindBool:
		return LooseEquals(a, Number(b.num))
	case a.kind == KindNumber && b.kind == KindString,
		a.kind == KindString && b.kind == KindNumber:
		return a.ToNumber() == b.ToNumber()
	case a.kind == KindFunction || a.kind == KindObject:
		return LooseEquals(String(a.String()), b)
	case b.kind == KindFunction || b.kind == KindObject:
		return LooseEquals(a, String(b.String()))
	}
	return false
}

// compare returns -1, 0 or 1, and false when the operands are unordered.
func compare(a, b Value) (int, bool) {
	if a.kind == KindString && b.kind == KindString {
		return strings.Compare(a.str, b.str), true
	}
	x, y := a.ToNumber(), b.ToNumber()
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return 0, false
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}

func add(a, b Value) Value {
	if a.primitiveString() || b.primitiveString() {
		return String(a.String() + b.String())
	}
	return Number(a.ToNumber() + b.ToNumber())
}

func stringLength(s string) int {
	return len(utf16.Encode([]rune(s)))
}
