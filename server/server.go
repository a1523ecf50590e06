package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"
	"google.golang.org/grpc"

	"github.com/pbrlang/pbr/build"
)

var log = commonlog.GetLogger("pbr.server")

// Server exposes the compiler over the network. Connect (HTTP/JSON),
// gRPC-Web and gRPC over h2c are served by the HTTP listener; ServeGRPC
// runs a native grpc.Server on a separate listener.
type Server struct {
	service *CompileService
	mux     *http.ServeMux
	grpc    *grpc.Server
	http    *http.Server
}

// New creates a Server compiling with b.
func New(b *build.Builder) *Server {
	s := &Server{
		service: NewCompileService(b),
		mux:     http.NewServeMux(),
	}

	path, handler := s.service.Handler(connect.WithInterceptors(logInterceptor()))
	s.mux.Handle(path, handler)

	s.grpc = grpc.NewServer(grpc.UnaryInterceptor(grpcLogInterceptor))
	s.grpc.RegisterService(&CompilerServiceDesc, s.service)
	return s
}

// Handler returns the HTTP handler serving the Connect endpoints.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves Connect on addr ("host:port" or ":port").
func (s *Server) ListenAndServe(addr string) error {
	var protocols http.Protocols
	protocols.SetHTTP1(true)
	protocols.SetUnencryptedHTTP2(true)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		Protocols:         &protocols,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Noticef("listening on %s", addr)
	log.Noticef("  Connect (HTTP/JSON): http://%s%s", addr, CompileProcedure)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ServeGRPC serves native gRPC on lis until Stop is called.
func (s *Server) ServeGRPC(lis net.Listener) error {
	log.Noticef("gRPC listening on %s", lis.Addr())
	return s.grpc.Serve(lis)
}

// Stop shuts down both listeners.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(ctx); err != nil {
			log.Warningf("shutdown: %v", err)
		}
	}
}

func logInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			if err != nil {
				log.Infof("%s %s failed in %s: %v", req.Peer().Protocol, req.Spec().Procedure, time.Since(start), err)
			} else {
				log.Debugf("%s %s in %s", req.Peer().Protocol, req.Spec().Procedure, time.Since(start))
			}
			return resp, err
		}
	}
}

func grpcLogInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		log.Infof("grpc %s failed in %s: %v", info.FullMethod, time.Since(start), err)
	} else {
		log.Debugf("grpc %s in %s", info.FullMethod, time.Since(start))
	}
	return resp, err
}
