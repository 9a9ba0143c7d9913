package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[run]
step_delay_ms = 25
step_budget = 50
max_call_depth = 64
show_source = true

[output]
header = "Output"
complete_marker = "done"
error_marker = "failed"

[server]
addr = ":9000"

[store]
path = "lib/programs.db"

[log]
verbosity = 1
file = "blockrun.log"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.StepDelay() != 25*time.Millisecond {
		t.Errorf("step delay = %s, want 25ms", m.StepDelay())
	}
	if m.Run.StepBudget != 50 {
		t.Errorf("step budget = %d, want 50", m.Run.StepBudget)
	}
	if m.Run.MaxCallDepth != 64 {
		t.Errorf("max call depth = %d, want 64", m.Run.MaxCallDepth)
	}
	if !m.Run.ShowSource {
		t.Error("show_source = false, want true")
	}
	if m.Output.Header != "Output" || m.Output.CompleteMarker != "done" || m.Output.ErrorMarker != "failed" {
		t.Errorf("output = %+v", m.Output)
	}
	if m.Server.Addr != ":9000" {
		t.Errorf("addr = %q, want :9000", m.Server.Addr)
	}

	abs, _ := filepath.Abs(dir)
	if m.Dir != abs {
		t.Errorf("dir = %q, want %q", m.Dir, abs)
	}
	if want := filepath.Join(abs, "lib", "programs.db"); m.StorePath() != want {
		t.Errorf("store path = %q, want %q", m.StorePath(), want)
	}
	if f := m.LogFile(); f == nil || *f != filepath.Join(abs, "blockrun.log") {
		t.Errorf("log file = %v", f)
	}
	if m.Log.Verbosity != 1 {
		t.Errorf("verbosity = %d, want 1", m.Log.Verbosity)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[run]\nshow_source = false\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Run.StepDelayMS != DefaultStepDelayMS {
		t.Errorf("step delay = %d, want %d", m.Run.StepDelayMS, DefaultStepDelayMS)
	}
	if m.Run.StepBudget != DefaultStepBudget {
		t.Errorf("step budget = %d, want %d", m.Run.StepBudget, DefaultStepBudget)
	}
	if m.Output.Header != DefaultHeader {
		t.Errorf("header = %q", m.Output.Header)
	}
	if m.Output.CompleteMarker != DefaultCompleteMarker {
		t.Errorf("complete marker = %q", m.Output.CompleteMarker)
	}
	if m.Server.Addr != DefaultAddr {
		t.Errorf("addr = %q", m.Server.Addr)
	}
	if m.LogFile() != nil {
		t.Errorf("log file = %q, want stderr", *m.LogFile())
	}
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		invalid bool
	}{
		{"syntax", "[run\nstep_budget = 1", false},
		{"wrong type", "[run]\nstep_budget = \"many\"", false},
		{"negative budget", "[run]\nstep_budget = -1", true},
		{"negative delay", "[run]\nstep_delay_ms = -5", true},
		{"verbosity", "[log]\nverbosity = 7", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tc.content)
			_, err := Load(dir)
			if err == nil {
				t.Fatal("Load succeeded")
			}
			if errors.Is(err, ErrInvalid) != tc.invalid {
				t.Errorf("errors.Is(%v, ErrInvalid) = %v, want %v", err, !tc.invalid, tc.invalid)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load of a directory without blockrun.toml succeeded")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[server]\naddr = \":1234\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m.Server.Addr != ":1234" {
		t.Errorf("addr = %q, want :1234", m.Server.Addr)
	}
	abs, _ := filepath.Abs(root)
	if m.Dir != abs {
		t.Errorf("dir = %q, want %q", m.Dir, abs)
	}
}

func TestFindAndLoadDefault(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m.Run.StepBudget != DefaultStepBudget || m.Server.Addr != DefaultAddr {
		t.Errorf("defaults not applied: %+v", m)
	}
	if want := filepath.Join(m.Dir, DefaultStorePath); m.StorePath() != want {
		t.Errorf("store path = %q, want %q", m.StorePath(), want)
	}
}
