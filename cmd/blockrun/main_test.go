package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/chazu/blockrun/manifest"
)

func TestLinePrompter(t *testing.T) {
	var out bytes.Buffer
	p := &terminalPrompter{reader: bufio.NewReader(strings.NewReader("Ada\r\nlast")), out: &out}

	text, ok, err := p.Prompt("Enter name")
	if err != nil || !ok || text != "Ada" {
		t.Errorf("first prompt = %q, %v, %v", text, ok, err)
	}
	if out.String() != "Enter name " {
		t.Errorf("prompt written as %q", out.String())
	}

	text, ok, _ = p.Prompt("")
	if !ok || text != "last" {
		t.Errorf("unterminated last line = %q, %v", text, ok)
	}

	if _, ok, err := p.Prompt("more?"); ok || err != nil {
		t.Errorf("prompt at end of input = %v, %v; want cancelled", ok, err)
	}
}

func TestDriverOptions(t *testing.T) {
	m := manifest.Default(t.TempDir())
	m.Run.StepDelayMS = 3
	m.Run.ShowSource = true
	m.Output.CompleteMarker = "fin"

	opts := driverOptions(m)
	if opts.StepDelay != 3*time.Millisecond {
		t.Errorf("step delay = %s", opts.StepDelay)
	}
	if opts.StepBudget != manifest.DefaultStepBudget || opts.MaxCallDepth != manifest.DefaultMaxCallDepth {
		t.Errorf("budget/depth = %d/%d", opts.StepBudget, opts.MaxCallDepth)
	}
	if !opts.ShowSource || opts.CompleteMarker != "fin" || opts.Header != manifest.DefaultHeader {
		t.Errorf("options = %+v", opts)
	}
}
