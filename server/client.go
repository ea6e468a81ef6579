package server

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// Client calls a CodecService.
type Client struct {
	decode    *connect.Client[DecodeRequest, DecodeResponse]
	encode    *connect.Client[EncodeRequest, EncodeResponse]
	inspect   *connect.Client[InspectRequest, InspectResponse]
	call      *connect.Client[CallRequest, CallResponse]
	functions *connect.Client[FunctionsRequest, FunctionsResponse]
	save      *connect.Client[SaveRequest, SaveResponse]
	load      *connect.Client[LoadRequest, LoadResponse]
	release   *connect.Client[ReleaseRequest, ReleaseResponse]
}

// NewClient creates a Client for the service at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithCBOR()}, opts...)
	return &Client{
		decode:    connect.NewClient[DecodeRequest, DecodeResponse](httpClient, baseURL+DecodeProcedure, opts...),
		encode:    connect.NewClient[EncodeRequest, EncodeResponse](httpClient, baseURL+EncodeProcedure, opts...),
		inspect:   connect.NewClient[InspectRequest, InspectResponse](httpClient, baseURL+InspectProcedure, opts...),
		call:      connect.NewClient[CallRequest, CallResponse](httpClient, baseURL+CallProcedure, opts...),
		functions: connect.NewClient[FunctionsRequest, FunctionsResponse](httpClient, baseURL+FunctionsProcedure, opts...),
		save:      connect.NewClient[SaveRequest, SaveResponse](httpClient, baseURL+SaveProcedure, opts...),
		load:      connect.NewClient[LoadRequest, LoadResponse](httpClient, baseURL+LoadProcedure, opts...),
		release:   connect.NewClient[ReleaseRequest, ReleaseResponse](httpClient, baseURL+ReleaseProcedure, opts...),
	}
}

func (c *Client) Decode(ctx context.Context, req *DecodeRequest) (*DecodeResponse, error) {
	return unary(ctx, c.decode, req)
}

func (c *Client) Encode(ctx context.Context, req *EncodeRequest) (*EncodeResponse, error) {
	return unary(ctx, c.encode, req)
}

func (c *Client) Inspect(ctx context.Context, req *InspectRequest) (*InspectResponse, error) {
	return unary(ctx, c.inspect, req)
}

func (c *Client) Call(ctx context.Context, req *CallRequest) (*CallResponse, error) {
	return unary(ctx, c.call, req)
}

func (c *Client) Functions(ctx context.Context) (*FunctionsResponse, error) {
	return unary(ctx, c.functions, &FunctionsRequest{})
}

func (c *Client) Save(ctx context.Context, req *SaveRequest) (*SaveResponse, error) {
	return unary(ctx, c.save, req)
}

func (c *Client) Load(ctx context.Context, req *LoadRequest) (*LoadResponse, error) {
	return unary(ctx, c.load, req)
}

func (c *Client) Release(ctx context.Context, req *ReleaseRequest) (*ReleaseResponse, error) {
	return unary(ctx, c.release, req)
}

func unary[Req, Res any](ctx context.Context, client *connect.Client[Req, Res], req *Req) (*Res, error) {
	resp, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
