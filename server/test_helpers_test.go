package server

import (
	"context"
	"net"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/pbrlang/pbr/build"
	"github.com/pbrlang/pbr/cache"
)

// ---------------------------------------------------------------------------
// Shared test infrastructure for server package tests.
// ---------------------------------------------------------------------------

// newTestBuilder returns a builder with a cache in a temporary directory.
func newTestBuilder(t *testing.T) *build.Builder {
	t.Helper()
	store, err := cache.Open(t.TempDir())
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return &build.Builder{Cache: store}
}

// newConnectServer serves srv over HTTP and returns a client for it.
func newConnectServer(t *testing.T, srv *Server) (*httptest.Server, *ConnectClient) {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, NewConnectClient(ts.Client(), ts.URL)
}

// newBufconnClient serves srv's gRPC endpoint on an in-memory listener.
func newBufconnClient(t *testing.T, srv *Server) *GRPCClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go srv.ServeGRPC(lis)
	t.Cleanup(srv.Stop)

	client, err := DialGRPC("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("DialGRPC: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}
