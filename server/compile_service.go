package server

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/pbrlang/pbr/build"
	"github.com/pbrlang/pbr/compiler"
)

const (
	// ServiceName is the fully qualified compile service name.
	ServiceName = "pbr.v1.CompilerService"
	// CompileProcedure is the procedure path shared by Connect and gRPC.
	CompileProcedure = "/" + ServiceName + "/Compile"

	// positionKey carries "line:col" of a source error in response metadata.
	positionKey = "pbr-position"
)

// CompileService lowers PBR source sent by remote clients to Rust. The
// request is the source text and the response the generated Rust, both as
// google.protobuf.StringValue.
type CompileService struct {
	builder *build.Builder
}

// NewCompileService creates a CompileService. b supplies the cache; its
// toolchain is not used.
func NewCompileService(b *build.Builder) *CompileService {
	if b == nil {
		b = &build.Builder{}
	}
	return &CompileService{builder: b}
}

// compile runs the pipeline on one request. Source errors are returned
// unwrapped so callers can map them to status codes.
func (s *CompileService) compile(ctx context.Context, src string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if src == "" {
		return "", errors.New("source is required")
	}
	res, err := s.builder.TranspileSource("<request>", src)
	if err != nil {
		// Drop the placeholder path; clients see "line:col: message".
		if inner := errors.Unwrap(err); inner != nil {
			err = inner
		}
		return "", err
	}
	return res.Rust, nil
}

// Compile is the Connect handler.
func (s *CompileService) Compile(
	ctx context.Context,
	req *connect.Request[wrapperspb.StringValue],
) (*connect.Response[wrapperspb.StringValue], error) {
	rust, err := s.compile(ctx, req.Msg.GetValue())
	if err != nil {
		cerr := connect.NewError(connectCode(err), err)
		if pos, ok := compiler.ErrorPosition(err); ok {
			cerr.Meta().Set(positionKey, pos.String())
		}
		return nil, cerr
	}
	return connect.NewResponse(wrapperspb.String(rust)), nil
}

func connectCode(err error) connect.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	}
	return connect.CodeInvalidArgument
}

// Handler returns the Connect mount path and handler. The handler speaks
// the Connect, gRPC and gRPC-Web protocols.
func (s *CompileService) Handler(opts ...connect.HandlerOption) (string, *connect.Handler) {
	return CompileProcedure, connect.NewUnaryHandler(CompileProcedure, s.Compile, opts...)
}

// --- native gRPC ---

// CompilerServer is the gRPC server interface.
type CompilerServer interface {
	CompileGRPC(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

// CompileGRPC is the native gRPC handler.
func (s *CompileService) CompileGRPC(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	rust, err := s.compile(ctx, in.GetValue())
	if err != nil {
		code := codes.InvalidArgument
		switch connectCode(err) {
		case connect.CodeCanceled:
			code = codes.Canceled
		case connect.CodeDeadlineExceeded:
			code = codes.DeadlineExceeded
		}
		return nil, status.Error(code, err.Error())
	}
	return wrapperspb.String(rust), nil
}

func compileHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CompilerServer).CompileGRPC(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CompileProcedure,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CompilerServer).CompileGRPC(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// CompilerServiceDesc describes the compile service for grpc.Server.
var CompilerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CompilerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Compile",
			Handler:    compileHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pbr/v1/compiler.proto",
}

// describe formats a gRPC error for display.
func describe(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return err.Error()
	}
	if st.Code() == codes.InvalidArgument {
		return st.Message()
	}
	return fmt.Sprintf("%s: %s", st.Code(), st.Message())
}
