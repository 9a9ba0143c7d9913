package intrinsic

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/blockrun/vm"
)

type lines []string

func (l *lines) Append(text string) { *l = append(*l, text) }

// runWith runs src to completion with reg bound.
func runWith(t *testing.T, src string, reg *Registry) {
	t.Helper()
	in, err := vm.New(src, reg)
	if err != nil {
		t.Fatalf("vm.New(%q): %v", src, err)
	}
	for i := 0; i < 10000; i++ {
		more, err := in.Step(100)
		if err != nil {
			t.Fatalf("run %q: %v", src, err)
		}
		if !more {
			return
		}
	}
	t.Fatalf("program %q did not finish", src)
}

func TestPrintCoercion(t *testing.T) {
	var out lines
	runWith(t, "print(); print(undefined); print(null); print(0); print(1.5); print('x'); print(true); print(print);",
		Standard(&out, nil))

	want := []string{"", "", "", "0", "1.5", "x", "true"}
	if len(out) != len(want)+1 {
		t.Fatalf("output = %q", out)
	}
	for i, w := range want {
		if out[i] != w {
			t.Errorf("line %d = %q, want %q", i, out[i], w)
		}
	}
	if !strings.Contains(out[len(want)], "print") {
		t.Errorf("printing a function = %q", out[len(want)])
	}
}

func TestPromptReturnsInput(t *testing.T) {
	var out lines
	var asked []string
	in := PrompterFunc(func(message string) (string, bool, error) {
		asked = append(asked, message)
		return "Ada", true, nil
	})
	runWith(t, "var name = prompt('Enter name'); print(name);", Standard(&out, in))

	if len(asked) != 1 || asked[0] != "Enter name" {
		t.Errorf("prompted with %q, want [Enter name]", asked)
	}
	if len(out) != 1 || out[0] != "Ada" {
		t.Errorf("output = %q, want [Ada]", out)
	}
}

func TestPromptCancelAndMissingMessage(t *testing.T) {
	var out lines
	var asked []string
	in := PrompterFunc(func(message string) (string, bool, error) {
		asked = append(asked, message)
		return "", false, nil
	})
	runWith(t, "var a = prompt(); print(a === null); print(String(prompt(undefined)));", Standard(&out, in))

	if len(asked) != 2 || asked[0] != "" || asked[1] != "" {
		t.Errorf("prompted with %q, want two empty messages", asked)
	}
	if strings.Join(out, ",") != "true,null" {
		t.Errorf("output = %q", out)
	}
}

func TestPromptWithoutPrompterIsCancelled(t *testing.T) {
	var out lines
	runWith(t, "print(String(prompt('x')));", Standard(&out, nil))
	if len(out) != 1 || out[0] != "null" {
		t.Errorf("output = %q, want [null]", out)
	}
}

func TestPromptNormalizesInput(t *testing.T) {
	var out lines
	in := PrompterFunc(func(string) (string, bool, error) {
		return "Zoe\u0301", true, nil
	})
	runWith(t, "var s = prompt('who'); print(s); print(s.length);", Standard(&out, in))
	if len(out) != 2 || out[0] != "Zo\u00e9" || out[1] != "3" {
		t.Errorf("output = %q, want NFC text of length 3", out)
	}
}

func TestFailuresAreContained(t *testing.T) {
	var failures []*IntrinsicError
	reg, err := NewRegistry([]Intrinsic{
		{Name: "explode", Fn: func([]vm.Value) (vm.Value, error) { panic("boom") }},
		{Name: "fail", Fn: func([]vm.Value) (vm.Value, error) { return vm.Number(1), errors.New("nope") }},
		{Name: "mark", Fn: func([]vm.Value) (vm.Value, error) { return vm.String("ok"), nil }},
	}, OnError(func(e *IntrinsicError) { failures = append(failures, e) }))
	if err != nil {
		t.Fatal(err)
	}

	in, err := vm.New("var a = explode(); var b = fail(); var c = mark();", reg)
	if err != nil {
		t.Fatal(err)
	}
	if more, err := in.Step(1000); more || err != nil {
		t.Fatalf("Step = %v, %v; want completion without error", more, err)
	}

	for _, name := range []string{"a", "b"} {
		if v, _ := in.Global(name); v.Kind() != vm.KindUndefined {
			t.Errorf("%s = %v, want undefined", name, v)
		}
	}
	if v, _ := in.Global("c"); v.String() != "ok" {
		t.Errorf("c = %v, want ok", v)
	}

	if len(failures) != 2 {
		t.Fatalf("failures = %v, want 2", failures)
	}
	if failures[0].Name != "explode" || failures[1].Name != "fail" {
		t.Errorf("failure names = %s, %s", failures[0].Name, failures[1].Name)
	}
	for _, f := range failures {
		if !errors.Is(f, ErrIntrinsic) {
			t.Errorf("%v does not match ErrIntrinsic", f)
		}
	}
	if errors.Unwrap(failures[1]).Error() != "nope" {
		t.Errorf("unwrapped = %v, want nope", errors.Unwrap(failures[1]))
	}
}

func TestPrompterErrorIsContained(t *testing.T) {
	var out lines
	var failed bool
	in := PrompterFunc(func(string) (string, bool, error) {
		return "", false, errors.New("terminal closed")
	})
	runWith(t, "var s = prompt('x'); print(s);", Standard(&out, in, OnError(func(*IntrinsicError) { failed = true })))
	if !failed {
		t.Error("prompter error was not reported")
	}
	if len(out) != 1 || out[0] != "" {
		t.Errorf("output = %q, want one empty line", out)
	}
}

func TestNewRegistryRejectsBadEntries(t *testing.T) {
	fn := func([]vm.Value) (vm.Value, error) { return vm.Undefined, nil }
	tests := []struct {
		name    string
		entries []Intrinsic
	}{
		{"empty name", []Intrinsic{{Name: "", Fn: fn}}},
		{"nil func", []Intrinsic{{Name: "x"}}},
		{"duplicate", []Intrinsic{{Name: "x", Fn: fn}, {Name: "x", Fn: fn}}},
	}
	for _, tc := range tests {
		if _, err := NewRegistry(tc.entries); err == nil {
			t.Errorf("%s: NewRegistry succeeded", tc.name)
		}
	}
}

func TestStandardNames(t *testing.T) {
	reg := Standard(&lines{}, nil)
	got := reg.Names()
	if strings.Join(got, ",") != "print,prompt" {
		t.Errorf("Names() = %v", got)
	}
	if e, ok := reg.Lookup(Prompt); !ok || e.Doc == "" {
		t.Errorf("Lookup(prompt) = %+v, %v", e, ok)
	}
}
