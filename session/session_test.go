package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chazu/blockrun/blocks"
	"github.com/chazu/blockrun/codegen"
	"github.com/chazu/blockrun/intrinsic"
	"github.com/chazu/blockrun/vm"
)

var header = []string{"Program output:", "================="}

type harness struct {
	ws     *blocks.Workspace
	sched  *ManualScheduler
	sink   *BufferSink
	driver *Driver
	sess   *Session
}

func newHarness(t *testing.T, doc string, prompter intrinsic.Prompter, opts Options) *harness {
	t.Helper()
	ws := blocks.NewWorkspace()
	if doc != "" {
		p, err := blocks.LoadDocument("../examples/" + doc)
		if err != nil {
			t.Fatalf("LoadDocument(%s): %v", doc, err)
		}
		ws.Load(p)
	}
	h := &harness{ws: ws, sched: &ManualScheduler{}, sink: &BufferSink{}}
	h.driver = NewDriver(h.sched, h.sink, prompter, opts)
	h.sess = Attach(ws, h.driver)
	return h
}

// stepUntil fires scheduled steps until the sink holds n lines.
func (h *harness) stepUntil(t *testing.T, n int) {
	t.Helper()
	for len(h.sink.Lines()) < n {
		if !h.sched.Next() {
			t.Fatalf("ran out of steps with output %q", h.sink.Lines())
		}
	}
}

func assertLines(t *testing.T, got []string, want ...string) {
	t.Helper()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("output =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func withHeader(lines ...string) []string {
	return append(append([]string(nil), header...), lines...)
}

func TestDoublingRun(t *testing.T) {
	prompts := 0
	h := newHarness(t, "doubling.json", intrinsic.PrompterFunc(func(string) (string, bool, error) {
		prompts++
		return "", false, nil
	}), Options{})

	if !h.sess.Run() {
		t.Fatal("Run() = false")
	}
	if got := h.sess.State(); got != Running {
		t.Fatalf("state after Run = %s, want running", got)
	}
	h.sched.Drain(10000)

	assertLines(t, h.sink.Lines(), withHeader("2", "4", "8", "16", "", DefaultCompleteMarker)...)
	if got := h.sess.State(); got != Completed {
		t.Errorf("state = %s, want completed", got)
	}
	if prompts != 0 {
		t.Errorf("prompted %d times, want 0", prompts)
	}
	if h.sched.Pending() != 0 {
		t.Errorf("%d steps still pending after completion", h.sched.Pending())
	}
	if h.sess.LastError() != nil {
		t.Errorf("LastError = %v", h.sess.LastError())
	}
}

func TestGreetPrompt(t *testing.T) {
	var h *harness
	var asked []string
	var during State
	h = newHarness(t, "greet.json", intrinsic.PrompterFunc(func(message string) (string, bool, error) {
		asked = append(asked, message)
		during = h.driver.State()
		if h.driver.SuspendReason() != message {
			t.Errorf("SuspendReason = %q, want %q", h.driver.SuspendReason(), message)
		}
		return "Ada", true, nil
	}), Options{})

	h.sess.Run()
	h.sched.Drain(10000)

	if len(asked) != 1 || asked[0] != "Enter name" {
		t.Errorf("prompts = %q, want [Enter name]", asked)
	}
	if during != Suspended {
		t.Errorf("state during prompt = %s, want suspended", during)
	}
	assertLines(t, h.sink.Lines(), withHeader("Ada", "", DefaultCompleteMarker)...)
}

func TestRunIsReentrant(t *testing.T) {
	h := newHarness(t, "doubling.json", nil, Options{})

	if !h.sess.Run() {
		t.Fatal("first Run() = false")
	}
	if h.sess.Run() {
		t.Error("second Run() started another run")
	}
	if got := h.driver.Instances(); got != 1 {
		t.Errorf("instances = %d, want 1", got)
	}
	if got := h.sched.Pending(); got != 1 {
		t.Errorf("pending steps = %d, want 1", got)
	}

	h.sched.Drain(10000)
	if got := h.driver.Instances(); got != 1 {
		t.Errorf("instances after completion = %d, want 1", got)
	}

	// A finished run may be started again.
	if !h.sess.Run() {
		t.Error("Run() after completion = false")
	}
	if got := h.driver.Instances(); got != 2 {
		t.Errorf("instances = %d, want 2", got)
	}
}

func TestRunRejectedWhileSuspended(t *testing.T) {
	var h *harness
	var nested bool
	h = newHarness(t, "greet.json", intrinsic.PrompterFunc(func(string) (string, bool, error) {
		nested = h.sess.Run()
		return "x", true, nil
	}), Options{})

	h.sess.Run()
	h.sched.Drain(10000)
	if nested {
		t.Error("Run() while suspended started a run")
	}
	if got := h.driver.Instances(); got != 1 {
		t.Errorf("instances = %d, want 1", got)
	}
}

func TestStructuralEditAbortsRun(t *testing.T) {
	h := newHarness(t, "doubling.json", nil, Options{StepBudget: 1})
	h.sess.Run()
	h.stepUntil(t, len(header)+1)
	assertLines(t, h.sink.Lines(), withHeader("2")...)

	if err := h.ws.SetField("num_4", "NUM", "5"); err != nil {
		t.Fatal(err)
	}

	if got := h.sess.State(); got != Idle {
		t.Errorf("state after edit = %s, want idle", got)
	}
	if got := h.sched.Pending(); got != 0 {
		t.Errorf("pending steps after edit = %d, want 0", got)
	}
	if !strings.Contains(h.sess.Source(), "count < 5") {
		t.Errorf("source was not recompiled:\n%s", h.sess.Source())
	}

	// Late callbacks of the aborted run change nothing.
	for _, tm := range h.sched.Timers() {
		tm.Fire()
	}
	assertLines(t, h.sink.Lines(), header...)
	if got := h.sess.State(); got != Idle {
		t.Errorf("state = %s, want idle", got)
	}
}

func TestCosmeticEventsIgnored(t *testing.T) {
	h := newHarness(t, "doubling.json", nil, Options{StepBudget: 1})
	compiles := h.sess.Compiles()
	h.sess.Run()
	h.stepUntil(t, len(header)+2)

	h.ws.Select("print")
	h.ws.Scroll(10, 10)
	h.sess.HandleEvent(blocks.Event{Kind: blocks.EventClick, BlockID: "repeat"})

	if got := h.sess.State(); got != Running {
		t.Errorf("state after UI events = %s, want running", got)
	}
	if got := h.sess.Compiles(); got != compiles {
		t.Errorf("compiles = %d, want %d", got, compiles)
	}

	h.sched.Drain(100000)
	assertLines(t, h.sink.Lines(), withHeader("2", "4", "8", "16", "", DefaultCompleteMarker)...)
	if got := h.driver.Instances(); got != 1 {
		t.Errorf("instances = %d, want 1", got)
	}
}

func TestStaleStepHasNoEffect(t *testing.T) {
	h := newHarness(t, "doubling.json", nil, Options{StepBudget: 1})
	h.sess.Run()
	first := h.sched.Timers()[0]

	if !h.sess.Stop() {
		t.Fatal("Stop() = false with a run active")
	}
	if !first.Stopped() {
		t.Error("pending step was not cancelled")
	}
	if got := h.sess.State(); got != Aborted {
		t.Errorf("state = %s, want aborted", got)
	}
	if h.sess.Stop() {
		t.Error("second Stop() reported an abort")
	}

	h.sess.Run()
	before := h.sink.Lines()
	pending := h.sched.Pending()

	first.Fire()

	assertLines(t, h.sink.Lines(), before...)
	if got := h.sched.Pending(); got != pending {
		t.Errorf("stale step changed pending steps: %d -> %d", pending, got)
	}
	if got := h.sess.State(); got != Running {
		t.Errorf("state = %s, want running", got)
	}

	h.sched.Drain(100000)
	done := h.sink.Lines()
	first.Fire()
	assertLines(t, h.sink.Lines(), done...)
	if got := h.sess.State(); got != Completed {
		t.Errorf("state = %s, want completed", got)
	}
}

func TestAbortIsSilent(t *testing.T) {
	h := newHarness(t, "doubling.json", nil, Options{StepBudget: 1})
	h.sess.Run()
	h.stepUntil(t, len(header)+1)
	h.sess.Stop()
	h.sched.Drain(100000)

	for _, line := range h.sink.Lines() {
		if line == DefaultCompleteMarker || line == DefaultErrorMarker {
			t.Errorf("aborted run wrote marker %q", line)
		}
	}
	assertLines(t, h.sink.Lines(), withHeader("2")...)
}

func TestStopFromPrompt(t *testing.T) {
	var h *harness
	h = newHarness(t, "greet.json", intrinsic.PrompterFunc(func(string) (string, bool, error) {
		h.sess.Stop()
		return "too late", true, nil
	}), Options{})

	h.sess.Run()
	h.sched.Drain(10000)

	assertLines(t, h.sink.Lines(), header...)
	if got := h.sess.State(); got != Aborted {
		t.Errorf("state = %s, want aborted", got)
	}
}

func TestRuntimeErrorCompletesWithMarker(t *testing.T) {
	sched := &ManualScheduler{}
	sink := &BufferSink{}
	var finished error
	d := NewDriver(sched, sink, nil, Options{OnFinish: func(err error) { finished = err }})

	d.Start("print(1);\nmissing();\nprint(2);")
	sched.Drain(1000)

	assertLines(t, sink.Lines(), withHeader("1", "", "ReferenceError: missing is not defined (line 2)", DefaultErrorMarker)...)
	if got := d.State(); got != Completed {
		t.Errorf("state = %s, want completed", got)
	}
	if !errors.Is(d.LastError(), vm.ErrRuntime) {
		t.Errorf("LastError = %v, want a runtime error", d.LastError())
	}
	if finished == nil {
		t.Error("OnFinish did not see the error")
	}
}

func TestSyntaxErrorCompletesWithMarker(t *testing.T) {
	sched := &ManualScheduler{}
	sink := &BufferSink{}
	d := NewDriver(sched, sink, nil, Options{NoHeader: true})

	if !d.Start("var = ;") {
		t.Fatal("Start() = false")
	}
	if got := d.State(); got != Completed {
		t.Errorf("state = %s, want completed", got)
	}
	var serr *vm.SyntaxError
	if !errors.As(d.LastError(), &serr) {
		t.Errorf("LastError = %v, want *vm.SyntaxError", d.LastError())
	}
	lines := sink.Lines()
	if len(lines) != 3 || lines[2] != DefaultErrorMarker {
		t.Errorf("output = %q", lines)
	}
	if d.Instances() != 0 || sched.Pending() != 0 {
		t.Errorf("instances = %d, pending = %d; want 0, 0", d.Instances(), sched.Pending())
	}
}

func TestCompileErrorKeepsPreviousSource(t *testing.T) {
	h := newHarness(t, "doubling.json", nil, Options{})
	good := h.sess.Source()
	if good == "" {
		t.Fatal("no source compiled")
	}

	h.ws.AddBlock(blocks.NewBlock("bad", "no_such_block").At(0, 100))

	err := h.sess.CompileError()
	if !errors.Is(err, codegen.ErrCompile) {
		t.Fatalf("CompileError = %v, want ErrCompile", err)
	}
	if h.sess.LastError() != err {
		t.Errorf("LastError = %v, want the compile error", h.sess.LastError())
	}
	if h.sess.Source() != good {
		t.Errorf("source changed after failed compile:\n%s", h.sess.Source())
	}
	lines := h.sink.Lines()
	if len(lines) != 3 || !strings.HasPrefix(lines[2], "Compile error: ") {
		t.Errorf("output = %q, want the compile error after the header", lines)
	}

	// The previous source still runs.
	h.sess.Run()
	h.sched.Drain(10000)
	assertLines(t, h.sink.Lines(), withHeader("2", "4", "8", "16", "", DefaultCompleteMarker)...)

	if err := h.ws.Delete("bad"); err != nil {
		t.Fatal(err)
	}
	if h.sess.CompileError() != nil {
		t.Errorf("CompileError after fix = %v", h.sess.CompileError())
	}
}

func TestRecompileIsDeterministic(t *testing.T) {
	h := newHarness(t, "doubling.json", nil, Options{})
	src, fp := h.sess.Source(), h.sess.Fingerprint()
	if err := h.sess.Recompile(); err != nil {
		t.Fatal(err)
	}
	if h.sess.Source() != src {
		t.Errorf("second compile differs:\n%s\nvs\n%s", h.sess.Source(), src)
	}
	if fp == "" || h.sess.Fingerprint() != fp {
		t.Errorf("fingerprint %q then %q", fp, h.sess.Fingerprint())
	}
}

func TestStepsYieldBetweenBudgets(t *testing.T) {
	h := newHarness(t, "doubling.json", nil, Options{StepBudget: 5, StepDelay: 25 * time.Millisecond})
	h.sess.Run()
	h.sched.Next()
	h.sched.Next()

	timers := h.sched.Timers()
	if len(timers) != 3 {
		t.Fatalf("timers = %d, want 3", len(timers))
	}
	for i, tm := range timers {
		if want := time.Duration(i+1) * 25 * time.Millisecond; tm.Due() != want {
			t.Errorf("step %d due at %s, want %s", i, tm.Due(), want)
		}
	}
	if fired := h.sched.Advance(24 * time.Millisecond); fired != 0 {
		t.Errorf("fired %d steps before the delay elapsed", fired)
	}
}

func TestShowSource(t *testing.T) {
	h := newHarness(t, "greet.json", nil, Options{ShowSource: true})
	h.sess.Run()

	lines := h.sink.Lines()
	want := withHeader("Ready to execute the following code", "===================================")
	want = append(want, strings.Split(h.sess.Source(), "\n")...)
	assertLines(t, lines, want...)
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		Idle: "idle", Running: "running", Suspended: "suspended",
		Completed: "completed", Aborted: "aborted", State(42): "State(42)",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
