package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chazu/blockrun/blocks"
	"github.com/chazu/blockrun/codegen"
	"github.com/chazu/blockrun/compiler"
	"github.com/chazu/blockrun/session"
)

func cmdRun(args []string) int {
	fs, g := newFlagSet("run")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run [options] <program.json>\n", appName)
		return 2
	}
	m, err := g.setup()
	if err != nil {
		return fail(err)
	}
	p, err := blocks.LoadDocument(fs.Arg(0))
	if err != nil {
		return fail(err)
	}

	prompter := newTerminalPrompter()
	defer prompter.Close()

	ws := blocks.NewWorkspace()
	ws.Load(p)

	loop := session.NewLoop()
	defer loop.Stop()

	done := make(chan error, 1)
	opts := driverOptions(m)
	opts.OnFinish = func(err error) { done <- err }

	var sess *session.Session
	var started bool
	loop.Do(func() {
		driver := session.NewDriver(loop, session.NewWriterSink(os.Stdout), prompter, opts)
		sess = session.Attach(ws, driver)
		if sess.CompileError() == nil {
			started = sess.Run()
		}
	})
	if !started {
		return 1
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)

	select {
	case err := <-done:
		if err != nil {
			return 1
		}
		return 0
	case <-sigc:
		loop.Do(func() { sess.Stop() })
		return 130
	}
}

func cmdSource(args []string) int {
	fs, g := newFlagSet("source")
	bytecode := fs.Bool("bytecode", false, "Print the compiled bytecode instead")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s source [-bytecode] <program.json>\n", appName)
		return 2
	}
	if _, err := g.setup(); err != nil {
		return fail(err)
	}
	p, err := blocks.LoadDocument(fs.Arg(0))
	if err != nil {
		return fail(err)
	}

	src, err := codegen.Compile(p)
	if err != nil {
		return fail(err)
	}
	if !*bytecode {
		fmt.Print(src)
		return 0
	}

	fn, err := compiler.Compile(src)
	if err != nil {
		var cerr *compiler.Error
		if errors.As(err, &cerr) {
			return fail(fmt.Errorf("generated source: %w", cerr))
		}
		return fail(err)
	}
	fmt.Print(compiler.Disassemble(fn))
	return 0
}
