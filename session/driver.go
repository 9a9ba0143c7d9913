package session

import (
	"fmt"
	"time"

	"github.com/chazu/blockrun/intrinsic"
	"github.com/chazu/blockrun/vm"
)

// State is the lifecycle state of a Driver.
type State int

const (
	Idle State = iota
	Running
	// Suspended lasts only while a prompt is waiting for input inside a
	// step. No step is ever scheduled in this state.
	Suspended
	Completed
	Aborted
)

var stateNames = [...]string{
	Idle:      "idle",
	Running:   "running",
	Suspended: "suspended",
	Completed: "completed",
	Aborted:   "aborted",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Active reports whether a run is in progress.
func (s State) Active() bool {
	return s == Running || s == Suspended
}

// Defaults for Options.
const (
	DefaultStepDelay      = 10 * time.Millisecond
	DefaultStepBudget     = 1000
	DefaultHeader         = "Program output:\n================="
	DefaultCompleteMarker = "<< Program complete >>"
	DefaultErrorMarker    = "<< Program failed >>"
)

// Options tune a Driver. Zero fields take the defaults above; an explicit
// empty Header is honoured only through NoHeader.
type Options struct {
	StepDelay      time.Duration
	StepBudget     int
	MaxCallDepth   int
	Header         string
	NoHeader       bool
	CompleteMarker string
	ErrorMarker    string

	// ShowSource echoes the source about to run after the header.
	ShowSource bool

	// OnFinish is called when a run completes, with the sandboxed
	// program's error if it failed.
	OnFinish func(err error)
}

func (o Options) withDefaults() Options {
	if o.StepDelay <= 0 {
		o.StepDelay = DefaultStepDelay
	}
	if o.StepBudget <= 0 {
		o.StepBudget = DefaultStepBudget
	}
	if o.Header == "" && !o.NoHeader {
		o.Header = DefaultHeader
	}
	if o.CompleteMarker == "" {
		o.CompleteMarker = DefaultCompleteMarker
	}
	if o.ErrorMarker == "" {
		o.ErrorMarker = DefaultErrorMarker
	}
	return o
}

// Driver runs one sandboxed program at a time, a bounded step at a time,
// yielding to the scheduler between steps.
//
// A Driver is not safe for concurrent use. Every method, and every
// callback it schedules, must run on the scheduler's thread.
type Driver struct {
	sched    Scheduler
	sink     Sink
	prompter intrinsic.Prompter
	registry *intrinsic.Registry
	opts     Options

	state  State
	reason string
	inst   *vm.Instance
	timer  Timer

	// gen identifies the current run. It changes whenever a run starts or
	// ends, so a callback carrying an older value is stale.
	gen uint64

	// stepping is the instance inside Step right now. Intrinsic output is
	// accepted only while it is also the live instance.
	stepping *vm.Instance

	instances int
	lastErr   error
}

// NewDriver creates an idle driver. prompter may be nil, in which case
// every prompt is answered as cancelled.
func NewDriver(sched Scheduler, sink Sink, prompter intrinsic.Prompter, opts Options) *Driver {
	d := &Driver{
		sched:    sched,
		sink:     sink,
		prompter: prompter,
		opts:     opts.withDefaults(),
	}
	d.registry = intrinsic.Standard(driverOutput{d}, driverPrompter{d})
	return d
}

// State returns the current state.
func (d *Driver) State() State { return d.state }

// SuspendReason describes what a Suspended run is waiting for.
func (d *Driver) SuspendReason() string {
	if d.state != Suspended {
		return ""
	}
	return d.reason
}

// Instances returns how many sandbox instances this driver has created.
func (d *Driver) Instances() int { return d.instances }

// LastError returns the error the most recent run failed with, if any.
func (d *Driver) LastError() error { return d.lastErr }

// Sink returns the output sink.
func (d *Driver) Sink() Sink { return d.sink }

// Registry returns the intrinsics bound into every instance.
func (d *Driver) Registry() *intrinsic.Registry { return d.registry }

// ResetOutput clears the sink and writes the header.
func (d *Driver) ResetOutput() {
	d.sink.Clear()
	if d.opts.Header != "" {
		appendLines(d.sink, d.opts.Header)
	}
}

// Start begins running source. While a run is active it does nothing and
// returns false. A source that fails to compile ends the run at once with
// the error marker.
func (d *Driver) Start(source string) bool {
	if d.state.Active() {
		log.Debugf("run requested while %s; ignored", d.state)
		return false
	}

	d.ResetOutput()
	if d.opts.ShowSource {
		d.sink.Append("Ready to execute the following code")
		d.sink.Append("===================================")
		appendLines(d.sink, source)
	}

	d.gen++
	d.state = Running
	d.lastErr = nil

	var opts []vm.Option
	if d.opts.MaxCallDepth > 0 {
		opts = append(opts, vm.WithMaxCallDepth(d.opts.MaxCallDepth))
	}
	inst, err := vm.New(source, d.registry, opts...)
	if err != nil {
		d.finish(err)
		return true
	}
	d.instances++
	d.inst = inst
	log.Infof("run %d started", d.gen)
	d.schedule(d.gen, inst)
	return true
}

// Stop aborts the active run and reports whether there was one. Nothing
// more is appended for an aborted run.
func (d *Driver) Stop() bool {
	return d.abort()
}

// Reset aborts any active run and returns the driver to Idle. It reports
// whether a run was aborted.
func (d *Driver) Reset() bool {
	aborted := d.abort()
	d.state = Idle
	d.reason = ""
	return aborted
}

func (d *Driver) abort() bool {
	if !d.state.Active() {
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.inst != nil {
		d.inst.Halt()
		d.inst = nil
	}
	d.gen++
	d.state = Aborted
	d.reason = ""
	return true
}

func (d *Driver) schedule(gen uint64, inst *vm.Instance) {
	d.timer = d.sched.ScheduleAfter(d.opts.StepDelay, func() {
		d.step(gen, inst)
	})
}

// step advances inst by one budget of instructions. A callback from a run
// that has since been aborted or replaced does nothing.
func (d *Driver) step(gen uint64, inst *vm.Instance) {
	if gen != d.gen || inst != d.inst {
		log.Debugf("dropping stale step of run %d", gen)
		return
	}
	d.timer = nil

	d.stepping = inst
	more, err := inst.Step(d.opts.StepBudget)
	d.stepping = nil

	if gen != d.gen || inst != d.inst {
		// Aborted from inside the step, by a prompt provider.
		return
	}
	switch {
	case err != nil:
		d.finish(err)
	case more:
		d.schedule(gen, inst)
	default:
		d.finish(nil)
	}
}

// finish ends the current run as Completed. A sandboxed program's failure
// is a legitimate outcome, reported with the error marker.
func (d *Driver) finish(err error) {
	d.sink.Append("")
	if err != nil {
		d.sink.Append(err.Error())
		d.sink.Append(d.opts.ErrorMarker)
		log.Infof("run %d failed: %s", d.gen, err)
	} else {
		d.sink.Append(d.opts.CompleteMarker)
		log.Infof("run %d complete", d.gen)
	}
	d.lastErr = err
	d.inst = nil
	d.timer = nil
	d.gen++
	d.state = Completed
	d.reason = ""
	if d.opts.OnFinish != nil {
		d.opts.OnFinish(err)
	}
}

// live reports whether an intrinsic call comes from the live instance.
func (d *Driver) live() bool {
	return d.stepping != nil && d.stepping == d.inst
}

type driverOutput struct{ d *Driver }

func (o driverOutput) Append(text string) {
	if !o.d.live() {
		return
	}
	o.d.sink.Append(text)
}

type driverPrompter struct{ d *Driver }

// Prompt asks synchronously. The run is Suspended for the duration of the
// call and resumes within the same step once input arrives.
func (p driverPrompter) Prompt(message string) (string, bool, error) {
	d := p.d
	if !d.live() || d.prompter == nil {
		return "", false, nil
	}
	gen := d.gen
	d.state, d.reason = Suspended, message
	text, ok, err := d.prompter.Prompt(message)
	if gen == d.gen && d.state == Suspended {
		d.state, d.reason = Running, ""
	}
	return text, ok, err
}
