package session

import (
	"io"
	"strings"
	"sync"
)

// Sink is the append-only output stream of a session. The core never reads
// it back.
type Sink interface {
	Clear()
	Append(text string)
}

// appendLines writes text to sink one line at a time.
func appendLines(sink Sink, text string) {
	for _, line := range strings.Split(text, "\n") {
		sink.Append(line)
	}
}

// BufferSink keeps output lines in memory. It is safe for concurrent use so
// that readers outside the event loop can take snapshots.
type BufferSink struct {
	mu    sync.Mutex
	lines []string
}

// Clear discards all lines.
func (b *BufferSink) Clear() {
	b.mu.Lock()
	b.lines = nil
	b.mu.Unlock()
}

// Append adds one line.
func (b *BufferSink) Append(text string) {
	b.mu.Lock()
	b.lines = append(b.lines, text)
	b.mu.Unlock()
}

// Lines returns a copy of the current lines.
func (b *BufferSink) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

func (b *BufferSink) String() string {
	return strings.Join(b.Lines(), "\n")
}

// WriterSink streams lines to an io.Writer, such as a terminal. A terminal
// cannot be cleared, so Clear starts a new paragraph instead when something
// has already been written.
type WriterSink struct {
	mu      sync.Mutex
	w       io.Writer
	written bool
}

// NewWriterSink creates a sink over w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.written {
		s.write("\n")
		s.written = false
	}
}

func (s *WriterSink) Append(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(text + "\n")
	s.written = true
}

func (s *WriterSink) write(text string) {
	if _, err := io.WriteString(s.w, text); err != nil {
		log.Warningf("writing output: %s", err)
	}
}
