// Package manifest handles blockrun.toml configuration.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "blockrun.toml"

// ErrInvalid is matched by configuration values that fail validation.
var ErrInvalid = errors.New("invalid configuration")

// Manifest represents a blockrun.toml configuration.
type Manifest struct {
	Run    RunConfig    `toml:"run"`
	Output OutputConfig `toml:"output"`
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Log    LogConfig    `toml:"log"`

	// Dir is the directory containing the blockrun.toml file (set at load
	// time). Relative paths are resolved against it.
	Dir string `toml:"-"`
}

// RunConfig tunes the execution driver.
type RunConfig struct {
	StepDelayMS  int  `toml:"step_delay_ms"`
	StepBudget   int  `toml:"step_budget"`
	MaxCallDepth int  `toml:"max_call_depth"`
	ShowSource   bool `toml:"show_source"`
}

// OutputConfig sets the lines the driver writes around a run.
type OutputConfig struct {
	Header         string `toml:"header"`
	CompleteMarker string `toml:"complete_marker"`
	ErrorMarker    string `toml:"error_marker"`
}

// ServerConfig configures the control surface.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// StoreConfig locates the program library.
type StoreConfig struct {
	Path string `toml:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default values.
const (
	DefaultStepDelayMS    = 10
	DefaultStepBudget     = 1000
	DefaultMaxCallDepth   = 200
	DefaultHeader         = "Program output:\n================="
	DefaultCompleteMarker = "<< Program complete >>"
	DefaultErrorMarker    = "<< Program failed >>"
	DefaultAddr           = "localhost:8421"
	DefaultStorePath      = ".blockrun/programs.db"
)

// Default returns the configuration used when no blockrun.toml exists,
// rooted at dir.
func Default(dir string) *Manifest {
	m := &Manifest{Dir: dir}
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if m.Run.StepDelayMS == 0 {
		m.Run.StepDelayMS = DefaultStepDelayMS
	}
	if m.Run.StepBudget == 0 {
		m.Run.StepBudget = DefaultStepBudget
	}
	if m.Run.MaxCallDepth == 0 {
		m.Run.MaxCallDepth = DefaultMaxCallDepth
	}
	if m.Output.Header == "" {
		m.Output.Header = DefaultHeader
	}
	if m.Output.CompleteMarker == "" {
		m.Output.CompleteMarker = DefaultCompleteMarker
	}
	if m.Output.ErrorMarker == "" {
		m.Output.ErrorMarker = DefaultErrorMarker
	}
	if m.Server.Addr == "" {
		m.Server.Addr = DefaultAddr
	}
	if m.Store.Path == "" {
		m.Store.Path = DefaultStorePath
	}
}

// Validate checks value ranges.
func (m *Manifest) Validate() error {
	switch {
	case m.Run.StepDelayMS < 0:
		return fmt.Errorf("%w: run.step_delay_ms must not be negative", ErrInvalid)
	case m.Run.StepBudget < 0:
		return fmt.Errorf("%w: run.step_budget must not be negative", ErrInvalid)
	case m.Run.MaxCallDepth < 0:
		return fmt.Errorf("%w: run.max_call_depth must not be negative", ErrInvalid)
	case m.Log.Verbosity < -4 || m.Log.Verbosity > 2:
		return fmt.Errorf("%w: log.verbosity must be between -4 and 2", ErrInvalid)
	}
	return nil
}

// Load parses a blockrun.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a blockrun.toml file, then
// loads and returns the manifest. Without one it returns Default(startDir).
func FindAndLoad(startDir string) (*Manifest, error) {
	start, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	dir := start
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(start), nil
		}
		dir = parent
	}
}

// StepDelay returns the pause between interpreter steps.
func (m *Manifest) StepDelay() time.Duration {
	return time.Duration(m.Run.StepDelayMS) * time.Millisecond
}

// StorePath returns the absolute path of the program library.
func (m *Manifest) StorePath() string {
	return m.resolve(m.Store.Path)
}

// LogFile returns the absolute path of the log file, or nil to log to
// stderr.
func (m *Manifest) LogFile() *string {
	if m.Log.File == "" {
		return nil
	}
	path := m.resolve(m.Log.File)
	return &path
}

func (m *Manifest) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.Dir, path)
}
