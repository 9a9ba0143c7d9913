// Package vm implements the Sandbox Instance: an isolated interpreter for
// the block language's compiled source.
//
// An Instance owns its globals and call stack. It never runs on its own:
// the host advances it with Step, a bounded number of instructions at a
// time, and may abandon it at any point with Halt.
package vm

import (
	"errors"

	"github.com/chazu/blockrun/compiler"
)

// DefaultMaxCallDepth bounds nested function calls.
const DefaultMaxCallDepth = 200

// Binder installs host functions into a new Instance before it runs.
type Binder interface {
	Bind(inst *Instance)
}

// BinderFunc adapts a function to Binder.
type BinderFunc func(inst *Instance)

// Bind calls f.
func (f BinderFunc) Bind(inst *Instance) { f(inst) }

// Option configures an Instance.
type Option func(*Instance)

// WithMaxCallDepth overrides DefaultMaxCallDepth.
func WithMaxCallDepth(n int) Option {
	return func(in *Instance) {
		if n > 0 {
			in.maxDepth = n
		}
	}
}

// Instance is one sandboxed program run.
type Instance struct {
	globals  map[string]Value
	funcs    map[*compiler.FuncProto]*Function
	stack    []Value
	frames   []*frame
	maxDepth int
	halted   bool
	done     bool
	executed uint64
}

// New compiles source and prepares it to run. Builtins are installed first,
// then binder (which may be nil) adds host functions. A source that does
// not compile yields a *SyntaxError.
func New(source string, binder Binder, opts ...Option) (*Instance, error) {
	proto, err := compiler.Compile(source)
	if err != nil {
		var cerr *compiler.Error
		if errors.As(err, &cerr) {
			return nil, &SyntaxError{Line: cerr.Pos.Line, Column: cerr.Pos.Column, Message: cerr.Msg}
		}
		return nil, err
	}

	in := &Instance{
		globals:  make(map[string]Value),
		funcs:    make(map[*compiler.FuncProto]*Function),
		maxDepth: DefaultMaxCallDepth,
	}
	for _, opt := range opts {
		opt(in)
	}
	installBuiltins(in)
	if binder != nil {
		binder.Bind(in)
	}
	in.frames = append(in.frames, &frame{fn: in.function(proto)})
	return in, nil
}

// Define binds a native function to a global name.
func (in *Instance) Define(name string, fn NativeFunc) {
	in.globals[name] = Native(name, fn)
}

// SetGlobal sets a global variable.
func (in *Instance) SetGlobal(name string, v Value) {
	in.globals[name] = v
}

// Global returns a global variable.
func (in *Instance) Global(name string) (Value, bool) {
	v, ok := in.globals[name]
	return v, ok
}

// Step executes at most budget instructions (at least one). It reports
// whether the program can make further progress. A runtime error ends the
// program and is returned; after the program finishes, errors, or is
// halted, Step is a no-op returning false.
func (in *Instance) Step(budget int) (more bool, err error) {
	if in.halted || in.done {
		return false, nil
	}
	if budget < 1 {
		budget = 1
	}
	for n := 0; n < budget; n++ {
		finished, err := in.exec()
		in.executed++
		if err != nil {
			in.finish()
			return false, err
		}
		if finished {
			in.finish()
			return false, nil
		}
		if in.halted {
			return false, nil
		}
	}
	return true, nil
}

// Halt stops the program. It is safe to call from a native function while
// a step is in progress; the step returns after the current instruction.
func (in *Instance) Halt() {
	in.halted = true
	in.stack = nil
	in.frames = nil
}

// Halted reports whether Halt was called.
func (in *Instance) Halted() bool { return in.halted }

// Done reports whether the program can no longer make progress.
func (in *Instance) Done() bool { return in.halted || in.done }

// Executed returns the number of instructions run so far.
func (in *Instance) Executed() uint64 { return in.executed }

func (in *Instance) finish() {
	in.done = true
	in.stack = nil
	in.frames = nil
}

func (in *Instance) function(proto *compiler.FuncProto) *Function {
	fn, ok := in.funcs[proto]
	if !ok {
		fn = compiled(proto)
		in.funcs[proto] = fn
	}
	return fn
}
