package intrinsic

import (
	"golang.org/x/text/unicode/norm"

	"github.com/chazu/blockrun/vm"
)

// Output receives text printed by a sandboxed program, one call per line.
type Output interface {
	Append(text string)
}

// Prompter obtains a line of input from the user. ok is false when the
// user cancelled.
type Prompter interface {
	Prompt(message string) (text string, ok bool, err error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(message string) (string, bool, error)

// Prompt calls f.
func (f PrompterFunc) Prompt(message string) (string, bool, error) { return f(message) }

// Names of the standard intrinsics.
const (
	Print  = "print"
	Prompt = "prompt"
)

// Text coerces an intrinsic argument to a string. A missing, undefined or
// null argument is the empty string.
func Text(args []vm.Value, i int) string {
	if i >= len(args) {
		return ""
	}
	if args[i].IsNullish() {
		return ""
	}
	return args[i].String()
}

// Standard builds the fixed registry of print and prompt over out and in.
// A nil in answers every prompt as cancelled.
func Standard(out Output, in Prompter, opts ...Option) *Registry {
	r, err := NewRegistry([]Intrinsic{
		{
			Name: Print,
			Doc:  "print(value) appends the text of value to the output.",
			Fn: func(args []vm.Value) (vm.Value, error) {
				out.Append(Text(args, 0))
				return vm.Undefined, nil
			},
		},
		{
			Name: Prompt,
			Doc:  "prompt(message) asks the user for a line of text; null when cancelled.",
			Fn: func(args []vm.Value) (vm.Value, error) {
				if in == nil {
					return vm.Null, nil
				}
				text, ok, err := in.Prompt(Text(args, 0))
				if err != nil {
					return vm.Null, err
				}
				if !ok {
					return vm.Null, nil
				}
				return vm.String(norm.NFC.String(text)), nil
			},
		},
	}, opts...)
	if err != nil {
		panic(err)
	}
	return r
}
