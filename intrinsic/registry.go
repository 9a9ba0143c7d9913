// Package intrinsic declares the host functions a sandboxed program may
// call and binds them into each new vm.Instance.
package intrinsic

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tliron/commonlog"

	"github.com/chazu/blockrun/vm"
)

var log = commonlog.GetLogger("blockrun.intrinsic")

// Func is the calling contract of an intrinsic. It receives the raw
// argument values; coercion is its own business.
type Func func(args []vm.Value) (vm.Value, error)

// Intrinsic is one named host function.
type Intrinsic struct {
	Name string
	Doc  string
	Fn   Func
}

// Registry is a fixed set of intrinsics. It is immutable once built and is
// shared by every instance it binds.
type Registry struct {
	entries map[string]Intrinsic
	names   []string
	onError func(*IntrinsicError)
}

// Option configures a Registry.
type Option func(*Registry)

// OnError registers a callback that sees every contained intrinsic failure
// after it has been logged.
func OnError(fn func(*IntrinsicError)) Option {
	return func(r *Registry) { r.onError = fn }
}

// NewRegistry builds a registry. Names must be non-empty and unique.
func NewRegistry(entries []Intrinsic, opts ...Option) (*Registry, error) {
	r := &Registry{entries: make(map[string]Intrinsic, len(entries))}
	for _, e := range entries {
		if e.Name == "" {
			return nil, errors.New("intrinsic with empty name")
		}
		if e.Fn == nil {
			return nil, fmt.Errorf("intrinsic %s has no function", e.Name)
		}
		if _, dup := r.entries[e.Name]; dup {
			return nil, fmt.Errorf("intrinsic %s registered twice", e.Name)
		}
		r.entries[e.Name] = e
		r.names = append(r.names, e.Name)
	}
	sort.Strings(r.names)
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Lookup returns the intrinsic registered under name.
func (r *Registry) Lookup(name string) (Intrinsic, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Bind defines every intrinsic as a global of inst. It implements
// vm.Binder.
func (r *Registry) Bind(inst *vm.Instance) {
	for _, name := range r.names {
		inst.Define(name, r.guard(r.entries[name]))
	}
}

// guard contains failures: an intrinsic that errors or panics is logged and
// answers undefined, so the interpreter step that called it carries on.
func (r *Registry) guard(e Intrinsic) vm.NativeFunc {
	return func(args []vm.Value) (result vm.Value, _ error) {
		defer func() {
			if p := recover(); p != nil {
				r.contain(&IntrinsicError{Name: e.Name, Err: fmt.Errorf("panic: %v", p)})
				result = vm.Undefined
			}
		}()
		v, err := e.Fn(args)
		if err != nil {
			r.contain(&IntrinsicError{Name: e.Name, Err: err})
			return vm.Undefined, nil
		}
		return v, nil
	}
}

func (r *Registry) contain(err *IntrinsicError) {
	log.Warningf("%s", err)
	if r.onError != nil {
		r.onError(err)
	}
}
