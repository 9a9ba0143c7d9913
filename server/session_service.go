package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"connectrpc.com/connect"

	"github.com/chazu/blockrun/blocks"
	"github.com/chazu/blockrun/store"
)

// SessionService implements the session procedures.
type SessionService struct {
	server *Server
}

// do runs fn on the event loop, mapping loop failures to Connect errors.
func (s *SessionService) do(fn func()) error {
	if err := s.server.loop.Do(fn); err != nil {
		return connect.NewError(connect.CodeInternal, err)
	}
	return nil
}

// Load replaces the program. This is a structural edit: any active run is
// aborted and the program recompiled.
func (s *SessionService) Load(
	ctx context.Context,
	req *connect.Request[LoadRequest],
) (*connect.Response[LoadResponse], error) {
	var p *blocks.Program
	switch {
	case len(req.Msg.Document) > 0 && req.Msg.Name != "":
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("document and name are mutually exclusive"))
	case len(req.Msg.Document) > 0:
		var err error
		p, err = blocks.ParseDocument("request", req.Msg.Document)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	case req.Msg.Name != "":
		lib, err := s.library()
		if err != nil {
			return nil, err
		}
		p, err = lib.Load(req.Msg.Name)
		if errors.Is(err, store.ErrProgramNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, err)
		}
		if err != nil {
			return nil, connect.NewError(connect.CodeInternal, err)
		}
	default:
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("document or name is required"))
	}

	resp := &LoadResponse{}
	err := s.do(func() {
		s.server.workspace.Load(p)
		sess := s.server.sess
		resp.Source = sess.Source()
		resp.Fingerprint = sess.Fingerprint()
		if err := sess.CompileError(); err != nil {
			resp.CompileError = err.Error()
		}
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(resp), nil
}

// Run starts the program unless a run is already active.
func (s *SessionService) Run(
	ctx context.Context,
	req *connect.Request[RunRequest],
) (*connect.Response[RunResponse], error) {
	resp := &RunResponse{}
	err := s.do(func() {
		resp.Started = s.server.sess.Run()
		resp.State = s.server.sess.State().String()
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(resp), nil
}

// Stop aborts the active run.
func (s *SessionService) Stop(
	ctx context.Context,
	req *connect.Request[StopRequest],
) (*connect.Response[StopResponse], error) {
	resp := &StopResponse{}
	err := s.do(func() {
		resp.Aborted = s.server.sess.Stop()
		resp.State = s.server.sess.State().String()
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(resp), nil
}

// Status reports the session state and its output so far.
func (s *SessionService) Status(
	ctx context.Context,
	req *connect.Request[StatusRequest],
) (*connect.Response[StatusResponse], error) {
	resp := &StatusResponse{}
	err := s.do(func() {
		sess := s.server.sess
		resp.State = sess.State().String()
		resp.SuspendReason = sess.Driver().SuspendReason()
		resp.Source = sess.Source()
		resp.Fingerprint = sess.Fingerprint()
		resp.Output = s.server.sink.Lines()
		resp.Instances = sess.Driver().Instances()
		if err := sess.LastError(); err != nil {
			resp.LastError = err.Error()
		}
	})
	if err != nil {
		return nil, err
	}
	resp.PendingInput = s.server.input.Len()
	return connect.NewResponse(resp), nil
}

// Input queues the answer to the next prompt.
func (s *SessionService) Input(
	ctx context.Context,
	req *connect.Request[InputRequest],
) (*connect.Response[InputResponse], error) {
	n := s.server.input.Push(req.Msg.Text, req.Msg.Cancel)
	return connect.NewResponse(&InputResponse{Pending: n}), nil
}

// Save stores the current program in the library.
func (s *SessionService) Save(
	ctx context.Context,
	req *connect.Request[SaveRequest],
) (*connect.Response[SaveResponse], error) {
	lib, err := s.library()
	if err != nil {
		return nil, err
	}
	if req.Msg.Name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name is required"))
	}

	changed, err := lib.Save(req.Msg.Name, s.server.workspace.Snapshot())
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&SaveResponse{Changed: changed}), nil
}

// List returns the programs in the library.
func (s *SessionService) List(
	ctx context.Context,
	req *connect.Request[ListRequest],
) (*connect.Response[ListResponse], error) {
	lib, err := s.library()
	if err != nil {
		return nil, err
	}
	entries, err := lib.List()
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &ListResponse{}
	for _, e := range entries {
		resp.Programs = append(resp.Programs, ProgramInfo{
			Name:        e.Name,
			Fingerprint: e.Fingerprint,
			Blocks:      e.Blocks,
			UpdatedAt:   e.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return connect.NewResponse(resp), nil
}

func (s *SessionService) library() (*store.Store, error) {
	if s.server.library == nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("no program library configured"))
	}
	return s.server.library, nil
}
