// Package server exposes a hosted session over Connect (HTTP/JSON).
package server

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/blockrun/blocks"
	"github.com/chazu/blockrun/session"
	"github.com/chazu/blockrun/store"
)

var log = commonlog.GetLogger("blockrun.server")

// Server is the control surface of one session. Every handler reaches the
// session through the event loop, which is also the thread the driver's
// steps run on.
type Server struct {
	loop      *session.Loop
	workspace *blocks.Workspace
	sink      *session.BufferSink
	input     *InputQueue
	sess      *session.Session
	library   *store.Store
	mux       *http.ServeMux
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	driver  session.Options
	library *store.Store
}

// WithDriverOptions sets the driver options of the hosted session.
func WithDriverOptions(opts session.Options) Option {
	return func(c *serverConfig) { c.driver = opts }
}

// WithLibrary enables Save, List and loading programs by name.
func WithLibrary(st *store.Store) Option {
	return func(c *serverConfig) { c.library = st }
}

// New creates a Server with an empty program.
func New(opts ...Option) *Server {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Server{
		loop:      session.NewLoop(),
		workspace: blocks.NewWorkspace(),
		sink:      &session.BufferSink{},
		input:     &InputQueue{},
		library:   cfg.library,
		mux:       http.NewServeMux(),
	}
	s.loop.Do(func() {
		driver := session.NewDriver(s.loop, s.sink, s.input, cfg.driver)
		s.sess = session.Attach(s.workspace, driver)
	})

	svc := &SessionService{server: s}
	codec := connect.WithCodec(jsonCodec{})
	s.mux.Handle(LoadProcedure, connect.NewUnaryHandler(LoadProcedure, svc.Load, codec))
	s.mux.Handle(RunProcedure, connect.NewUnaryHandler(RunProcedure, svc.Run, codec))
	s.mux.Handle(StopProcedure, connect.NewUnaryHandler(StopProcedure, svc.Stop, codec))
	s.mux.Handle(StatusProcedure, connect.NewUnaryHandler(StatusProcedure, svc.Status, codec))
	s.mux.Handle(InputProcedure, connect.NewUnaryHandler(InputProcedure, svc.Input, codec))
	s.mux.Handle(SaveProcedure, connect.NewUnaryHandler(SaveProcedure, svc.Save, codec))
	s.mux.Handle(ListProcedure, connect.NewUnaryHandler(ListProcedure, svc.List, codec))

	return s
}

// Handler returns the HTTP handler serving every procedure.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
func (s *Server) ListenAndServe(addr string) error {
	log.Noticef("blockrun server listening on %s", addr)
	log.Infof("  Connect (HTTP/JSON): http://%s%s", addr, StatusProcedure)
	return http.ListenAndServe(addr, s.mux)
}

// Stop aborts any run and shuts down the event loop.
func (s *Server) Stop() {
	s.loop.Do(func() { s.sess.Stop() })
	s.loop.Stop()
}
