package server

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Compiler is a remote compile endpoint.
type Compiler interface {
	Compile(ctx context.Context, src string) (string, error)
}

// ConnectClient calls the compile service over Connect.
type ConnectClient struct {
	client *connect.Client[wrapperspb.StringValue, wrapperspb.StringValue]
}

// NewConnectClient creates a client for the server at baseURL, e.g.
// "http://localhost:4400". httpClient may be nil.
func NewConnectClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ConnectClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ConnectClient{
		client: connect.NewClient[wrapperspb.StringValue, wrapperspb.StringValue](httpClient, baseURL+CompileProcedure, opts...),
	}
}

// Compile sends src and returns the generated Rust. A source error keeps
// its position in the message.
func (c *ConnectClient) Compile(ctx context.Context, src string) (string, error) {
	resp, err := c.client.CallUnary(ctx, connect.NewRequest(wrapperspb.String(src)))
	if err != nil {
		return "", err
	}
	return resp.Msg.GetValue(), nil
}

// GRPCClient calls the compile service over native gRPC.
type GRPCClient struct {
	conn *grpc.ClientConn
}

// DialGRPC connects to a gRPC compile server at target without TLS.
func DialGRPC(target string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPCClient{conn: conn}, nil
}

// Compile sends src and returns the generated Rust.
func (c *GRPCClient) Compile(ctx context.Context, src string) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(ctx, CompileProcedure, wrapperspb.String(src), out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// Close closes the connection.
func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// Describe formats an error returned by a remote client. Source errors
// are shown as the compiler reported them.
func Describe(err error) string {
	var cerr *connect.Error
	if errors.As(err, &cerr) {
		if cerr.Code() == connect.CodeInvalidArgument {
			return cerr.Message()
		}
		return cerr.Code().String() + ": " + cerr.Message()
	}
	return describe(err)
}
