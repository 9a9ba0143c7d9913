// Package session runs visual programs: it recompiles the program whenever
// its structure changes and drives the compiled source through a sandbox
// instance cooperatively, one bounded step per scheduler callback.
//
// Everything in this package is single-threaded. A Session, its Driver and
// the callbacks they schedule must all run on one thread, normally a Loop.
package session

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/blockrun/blocks"
	"github.com/chazu/blockrun/codegen"
)

var log = commonlog.GetLogger("blockrun.session")

// ProgramSource gives the controller the current program.
type ProgramSource interface {
	Snapshot() *blocks.Program
}

// Session is the controller: it owns the change listener, the latest
// compiled source and the driver.
type Session struct {
	program ProgramSource
	driver  *Driver

	source      string
	fingerprint string
	compileErr  error
	compiles    int
}

// New creates a session over program and compiles it once. A compile
// failure here leaves the empty program's source in place and is reported
// through the sink like any other.
func New(program ProgramSource, driver *Driver) *Session {
	s := &Session{program: program, driver: driver}
	s.Recompile()
	return s
}

// Attach creates a session over ws and subscribes it to ws's changes.
func Attach(ws *blocks.Workspace, driver *Driver) *Session {
	s := New(ws, driver)
	ws.AddChangeListener(s.HandleEvent)
	return s
}

// HandleEvent reacts to a program change notification. UI-only events are
// ignored; every structural edit resets the run and recompiles.
func (s *Session) HandleEvent(ev blocks.Event) {
	if !ev.Structural() {
		log.Debugf("ignoring %s", ev)
		return
	}
	if s.driver.Reset() {
		log.Noticef("run aborted by %s", ev)
	} else {
		log.Debugf("recompiling after %s", ev)
	}
	s.Recompile()
}

// Recompile regenerates the source from the current program and resets the
// output. On failure the previous source is kept and the error is written
// to the sink.
func (s *Session) Recompile() error {
	p := s.program.Snapshot()
	s.compiles++

	src, err := codegen.Compile(p)
	s.driver.ResetOutput()
	if err != nil {
		s.compileErr = err
		log.Errorf("compile: %s", err)
		s.driver.Sink().Append("Compile error: " + err.Error())
		return err
	}
	s.compileErr = nil
	s.source = src
	if fp, err := blocks.Fingerprint(p); err == nil {
		s.fingerprint = fp
	} else {
		log.Warningf("fingerprint: %s", err)
	}
	return nil
}

// Run starts the latest compiled source. It reports false if a run is
// already active.
func (s *Session) Run() bool {
	return s.driver.Start(s.source)
}

// Stop aborts the active run, if any.
func (s *Session) Stop() bool {
	if s.driver.Stop() {
		log.Noticef("run stopped")
		return true
	}
	return false
}

// Source returns the latest successfully compiled source.
func (s *Session) Source() string { return s.source }

// Fingerprint identifies the program structure Source was compiled from.
func (s *Session) Fingerprint() string { return s.fingerprint }

// Compiles returns how many times the program has been compiled.
func (s *Session) Compiles() int { return s.compiles }

// State returns the driver state.
func (s *Session) State() State { return s.driver.State() }

// Driver returns the execution driver.
func (s *Session) Driver() *Driver { return s.driver }

// CompileError returns the error of the last compilation, or nil.
func (s *Session) CompileError() error { return s.compileErr }

// LastError returns the compile error if the program currently fails to
// compile, else the error the last run failed with.
func (s *Session) LastError() error {
	if s.compileErr != nil {
		return s.compileErr
	}
	return s.driver.LastError()
}
