package server

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// Client calls a Server's session procedures.
type Client struct {
	load   *connect.Client[LoadRequest, LoadResponse]
	run    *connect.Client[RunRequest, RunResponse]
	stop   *connect.Client[StopRequest, StopResponse]
	status *connect.Client[StatusRequest, StatusResponse]
	input  *connect.Client[InputRequest, InputResponse]
	save   *connect.Client[SaveRequest, SaveResponse]
	list   *connect.Client[ListRequest, ListResponse]
}

// NewClient creates a client for the server at baseURL, for example
// "http://localhost:8421".
func NewClient(httpClient connect.HTTPClient, baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	codec := connect.WithCodec(jsonCodec{})
	return &Client{
		load:   connect.NewClient[LoadRequest, LoadResponse](httpClient, baseURL+LoadProcedure, codec),
		run:    connect.NewClient[RunRequest, RunResponse](httpClient, baseURL+RunProcedure, codec),
		stop:   connect.NewClient[StopRequest, StopResponse](httpClient, baseURL+StopProcedure, codec),
		status: connect.NewClient[StatusRequest, StatusResponse](httpClient, baseURL+StatusProcedure, codec),
		input:  connect.NewClient[InputRequest, InputResponse](httpClient, baseURL+InputProcedure, codec),
		save:   connect.NewClient[SaveRequest, SaveResponse](httpClient, baseURL+SaveProcedure, codec),
		list:   connect.NewClient[ListRequest, ListResponse](httpClient, baseURL+ListProcedure, codec),
	}
}

func call[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], msg *Req) (*Res, error) {
	resp, err := c.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) Load(ctx context.Context, req *LoadRequest) (*LoadResponse, error) {
	return call(ctx, c.load, req)
}

func (c *Client) Run(ctx context.Context) (*RunResponse, error) {
	return call(ctx, c.run, &RunRequest{})
}

func (c *Client) Stop(ctx context.Context) (*StopResponse, error) {
	return call(ctx, c.stop, &StopRequest{})
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	return call(ctx, c.status, &StatusRequest{})
}

func (c *Client) Input(ctx context.Context, req *InputRequest) (*InputResponse, error) {
	return call(ctx, c.input, req)
}

func (c *Client) Save(ctx context.Context, name string) (*SaveResponse, error) {
	return call(ctx, c.save, &SaveRequest{Name: name})
}

func (c *Client) List(ctx context.Context) (*ListResponse, error) {
	return call(ctx, c.list, &ListRequest{})
}
