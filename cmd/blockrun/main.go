// blockrun runs visual block programs from the terminal, keeps a library of
// them, and serves a hosted session over HTTP.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	"github.com/tliron/commonlog/simple"

	"github.com/chazu/blockrun/manifest"
	"github.com/chazu/blockrun/session"
)

const appName = "blockrun"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "run":
		os.Exit(cmdRun(args))
	case "source":
		os.Exit(cmdSource(args))
	case "save":
		os.Exit(cmdSave(args))
	case "load":
		os.Exit(cmdLoad(args))
	case "list":
		os.Exit(cmdList(args))
	case "delete":
		os.Exit(cmdDelete(args))
	case "serve":
		os.Exit(cmdServe(args))
	case "remote":
		os.Exit(cmdRemote(args))
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  %[1]s run [options] <program.json>        Run a program in the terminal
  %[1]s source [-bytecode] <program.json>   Print the compiled source
  %[1]s save <name> <program.json>          Store a program in the library
  %[1]s load <name> [out.json]              Write a stored program as a document
  %[1]s list                                List stored programs
  %[1]s delete <name>                       Remove a stored program
  %[1]s serve [-addr host:port]             Serve a hosted session
  %[1]s remote <command> [args]             Control a running server

Every command accepts -v (verbose logging) and -config <dir> (where to
look for blockrun.toml).
`, appName)
}

// globalFlags are shared by every command.
type globalFlags struct {
	verbose   bool
	configDir string
}

func newFlagSet(name string) (*flag.FlagSet, *globalFlags) {
	g := &globalFlags{}
	fs := flag.NewFlagSet(appName+" "+name, flag.ContinueOnError)
	fs.BoolVar(&g.verbose, "v", false, "Verbose output")
	fs.StringVar(&g.configDir, "config", ".", "Directory to search for blockrun.toml")
	return fs, g
}

// setup loads the configuration and configures logging.
func (g *globalFlags) setup() (*manifest.Manifest, error) {
	m, err := manifest.FindAndLoad(g.configDir)
	if err != nil {
		return nil, err
	}

	verbosity := m.Log.Verbosity
	if g.verbose && verbosity < 1 {
		verbosity = 1
	}
	backend := simple.NewBackend()
	backend.Buffered = false
	commonlog.SetBackend(backend)
	commonlog.Configure(verbosity, m.LogFile())
	return m, nil
}

// driverOptions maps the configuration onto the execution driver.
func driverOptions(m *manifest.Manifest) session.Options {
	return session.Options{
		StepDelay:      m.StepDelay(),
		StepBudget:     m.Run.StepBudget,
		MaxCallDepth:   m.Run.MaxCallDepth,
		Header:         m.Output.Header,
		CompleteMarker: m.Output.CompleteMarker,
		ErrorMarker:    m.Output.ErrorMarker,
		ShowSource:     m.Run.ShowSource,
	}
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}
