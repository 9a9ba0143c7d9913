package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/chazu/blockrun/session"
	"github.com/chazu/blockrun/store"
)

func bg() context.Context {
	return context.Background()
}

func document(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "examples", name))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// newTestServer starts a server over httptest and returns a client for it.
func newTestServer(t *testing.T, opts ...Option) (*Server, *Client) {
	t.Helper()
	opts = append([]Option{WithDriverOptions(session.Options{StepDelay: time.Millisecond})}, opts...)
	srv := New(opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})
	return srv, NewClient(http.DefaultClient, ts.URL)
}

// waitFor polls Status until the state is one of states.
func waitFor(t *testing.T, c *Client, states ...string) *StatusResponse {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		st, err := c.Status(bg())
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		for _, s := range states {
			if st.State == s {
				return st
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state never became %v", states)
	return nil
}

func connectCode(err error) connect.Code {
	var cerr *connect.Error
	if errors.As(err, &cerr) {
		return cerr.Code()
	}
	return 0
}

func TestLoadAndRun(t *testing.T) {
	_, c := newTestServer(t)

	loaded, err := c.Load(bg(), &LoadRequest{Document: document(t, "doubling.json")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !strings.Contains(loaded.Source, "n = n * 2;") || loaded.Fingerprint == "" {
		t.Errorf("Load = %+v", loaded)
	}

	run, err := c.Run(bg())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !run.Started {
		t.Error("Run did not start")
	}

	st := waitFor(t, c, "completed")
	want := "Program output:|=================|2|4|8|16||<< Program complete >>"
	if got := strings.Join(st.Output, "|"); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if st.Instances != 1 || st.LastError != "" {
		t.Errorf("status = %+v", st)
	}
}

func TestInputAnswersPrompt(t *testing.T) {
	_, c := newTestServer(t)

	if _, err := c.Load(bg(), &LoadRequest{Document: document(t, "greet.json")}); err != nil {
		t.Fatal(err)
	}
	in, err := c.Input(bg(), &InputRequest{Text: "Ada"})
	if err != nil {
		t.Fatalf("Input: %v", err)
	}
	if in.Pending != 1 {
		t.Errorf("pending = %d, want 1", in.Pending)
	}

	c.Run(bg())
	st := waitFor(t, c, "completed")
	if len(st.Output) < 3 || st.Output[2] != "Ada" {
		t.Errorf("output = %q, want Ada after the header", st.Output)
	}
	if st.PendingInput != 0 {
		t.Errorf("pending input = %d, want 0", st.PendingInput)
	}

	// With nothing queued the prompt is cancelled and prints nothing.
	c.Run(bg())
	st = waitFor(t, c, "completed")
	if len(st.Output) < 3 || st.Output[2] != "" {
		t.Errorf("output = %q, want an empty line after the header", st.Output)
	}
}

func TestRunWhileRunningAndStop(t *testing.T) {
	srv := New(WithDriverOptions(session.Options{StepDelay: time.Hour}))
	ts := httptest.NewServer(srv.Handler())
	defer func() { ts.Close(); srv.Stop() }()
	c := NewClient(http.DefaultClient, ts.URL)

	c.Load(bg(), &LoadRequest{Document: document(t, "doubling.json")})
	first, _ := c.Run(bg())
	second, err := c.Run(bg())
	if err != nil {
		t.Fatal(err)
	}
	if !first.Started || second.Started {
		t.Errorf("Run twice = %v, %v; want true, false", first.Started, second.Started)
	}
	if second.State != "running" {
		t.Errorf("state = %s, want running", second.State)
	}

	stop, err := c.Stop(bg())
	if err != nil {
		t.Fatal(err)
	}
	if !stop.Aborted || stop.State != "aborted" {
		t.Errorf("Stop = %+v", stop)
	}
	st, _ := c.Status(bg())
	if st.Instances != 1 {
		t.Errorf("instances = %d, want 1", st.Instances)
	}
}

func TestLoadAbortsRun(t *testing.T) {
	srv := New(WithDriverOptions(session.Options{StepDelay: time.Hour}))
	ts := httptest.NewServer(srv.Handler())
	defer func() { ts.Close(); srv.Stop() }()
	c := NewClient(http.DefaultClient, ts.URL)

	c.Load(bg(), &LoadRequest{Document: document(t, "doubling.json")})
	c.Run(bg())
	if _, err := c.Load(bg(), &LoadRequest{Document: document(t, "greet.json")}); err != nil {
		t.Fatal(err)
	}
	st, _ := c.Status(bg())
	if st.State != "idle" {
		t.Errorf("state after load = %s, want idle", st.State)
	}
	if !strings.Contains(st.Source, "prompt('Enter name')") {
		t.Errorf("source = %q", st.Source)
	}
}

func TestLoadErrors(t *testing.T) {
	_, c := newTestServer(t)

	tests := []struct {
		name string
		req  *LoadRequest
		code connect.Code
	}{
		{"empty", &LoadRequest{}, connect.CodeInvalidArgument},
		{"both", &LoadRequest{Document: []byte(`{"blocks":[]}`), Name: "x"}, connect.CodeInvalidArgument},
		{"invalid document", &LoadRequest{Document: []byte(`{"blocks":[{"type":"text"}]}`)}, connect.CodeInvalidArgument},
		{"no library", &LoadRequest{Name: "x"}, connect.CodeFailedPrecondition},
	}
	for _, tc := range tests {
		_, err := c.Load(bg(), tc.req)
		if got := connectCode(err); got != tc.code {
			t.Errorf("%s: code = %v (%v), want %v", tc.name, got, err, tc.code)
		}
	}
}

func TestCompileErrorReported(t *testing.T) {
	_, c := newTestServer(t)

	doc := []byte(`{"blocks":[{"id":"a","type":"no_such_block"}]}`)
	resp, err := c.Load(bg(), &LoadRequest{Document: doc})
	if err != nil {
		t.Fatal(err)
	}
	if resp.CompileError == "" {
		t.Error("compile error not reported")
	}
	st, _ := c.Status(bg())
	if st.LastError == "" || len(st.Output) != 3 || !strings.HasPrefix(st.Output[2], "Compile error: ") {
		t.Errorf("status = %+v", st)
	}
}

func TestLibrary(t *testing.T) {
	lib, err := store.Open(filepath.Join(t.TempDir(), "programs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer lib.Close()
	_, c := newTestServer(t, WithLibrary(lib))

	c.Load(bg(), &LoadRequest{Document: document(t, "doubling.json")})
	saved, err := c.Save(bg(), "doubling")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !saved.Changed {
		t.Error("first save reported no change")
	}
	if _, err := c.Save(bg(), ""); connectCode(err) != connect.CodeInvalidArgument {
		t.Errorf("Save(\"\") = %v", err)
	}

	list, err := c.List(bg())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Programs) != 1 || list.Programs[0].Name != "doubling" || list.Programs[0].Blocks != 10 {
		t.Errorf("List = %+v", list.Programs)
	}

	c.Load(bg(), &LoadRequest{Document: document(t, "greet.json")})
	loaded, err := c.Load(bg(), &LoadRequest{Name: "doubling"})
	if err != nil {
		t.Fatalf("Load by name: %v", err)
	}
	if !strings.Contains(loaded.Source, "n = n * 2;") {
		t.Errorf("source = %q", loaded.Source)
	}
	if _, err := c.Load(bg(), &LoadRequest{Name: "missing"}); connectCode(err) != connect.CodeNotFound {
		t.Errorf("Load(missing) = %v, want not found", err)
	}
}

func TestInputQueue(t *testing.T) {
	var q InputQueue
	q.Push("a", false)
	q.Push("", true)

	if text, ok, _ := q.Prompt("x"); text != "a" || !ok {
		t.Errorf("first prompt = %q, %v", text, ok)
	}
	if _, ok, _ := q.Prompt("x"); ok {
		t.Error("cancelled answer reported ok")
	}
	if _, ok, _ := q.Prompt("x"); ok {
		t.Error("empty queue reported ok")
	}
}
