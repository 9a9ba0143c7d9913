package vm

import "math"

func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}

func mathFunc(name string, f func(float64) float64) Value {
	return Native(name, func(args []Value) (Value, error) {
		return Number(f(arg(args, 0).ToNumber())), nil
	})
}

// round rounds half up, toward +Infinity.
func round(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return math.Floor(x + 0.5)
}

func installBuiltins(in *Instance) {
	in.Define("Number", func(args []Value) (Value, error) {
		if len(args) == 0 {
			return Number(0), nil
		}
		return Number(args[0].ToNumber()), nil
	})
	in.Define("String", func(args []Value) (Value, error) {
		if len(args) == 0 {
			return String(""), nil
		}
		return String(args[0].String()), nil
	})

	in.SetGlobal("NaN", Number(math.NaN()))
	in.SetGlobal("Infinity", Number(math.Inf(1)))
	in.SetGlobal("Math", NewObject(map[string]Value{
		"PI":    Number(math.Pi),
		"E":     Number(math.E),
		"abs":   mathFunc("abs", math.Abs),
		"sqrt":  mathFunc("sqrt", math.Sqrt),
		"floor": mathFunc("floor", math.Floor),
		"ceil":  mathFunc("ceil", math.Ceil),
		"round": mathFunc("round", round),
		"log":   mathFunc("log", math.Log),
		"log10": mathFunc("log10", math.Log10),
		"exp":   mathFunc("exp", math.Exp),
		"sin":   mathFunc("sin", math.Sin),
		"cos":   mathFunc("cos", math.Cos),
		"tan":   mathFunc("tan", math.Tan),
		"pow": Native("pow", func(args []Value) (Value, error) {
			x, y := arg(args, 0).ToNumber(), arg(args, 1).ToNumber()
			if math.IsNaN(y) {
				return Number(math.NaN()), nil
			}
			return Number(math.Pow(x, y)), nil
		}),
	}))
}
