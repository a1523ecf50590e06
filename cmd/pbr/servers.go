package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pbrlang/pbr/server"
)

func newLspCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Inicia o servidor de linguagem (LSP) em stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.NewLSP(version).Run()
		},
	}
}

func newServirCmd(a *app) *cobra.Command {
	var (
		port     int
		grpcPort int
	)
	cmd := &cobra.Command{
		Use:   "servir",
		Short: "Serve a conversão para Rust via Connect (HTTP/JSON) e gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, release, err := a.builder(false)
			if err != nil {
				return err
			}
			defer release()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(b)
			errs := make(chan error, 2)
			go func() { errs <- srv.ListenAndServe(fmt.Sprintf(":%d", port)) }()
			if grpcPort > 0 {
				lis, err := net.Listen("tcp", fmt.Sprintf(":%d", grpcPort))
				if err != nil {
					return err
				}
				go func() { errs <- srv.ServeGRPC(lis) }()
			}

			select {
			case <-ctx.Done():
				srv.Stop()
				return nil
			case err := <-errs:
				srv.Stop()
				return err
			}
		},
	}
	cmd.Flags().IntVar(&port, "porta", 4400, "porta HTTP (Connect, gRPC-Web e gRPC sobre h2c)")
	cmd.Flags().IntVar(&grpcPort, "porta-grpc", 4401, "porta do gRPC nativo (0 desativa)")
	return cmd
}

func newRemotoCmd(a *app) *cobra.Command {
	var (
		addr     string
		protocol string
	)
	cmd := &cobra.Command{
		Use:   "remoto ARQUIVO",
		Short: "Converte um arquivo usando um servidor 'pbr servir'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			client, done, err := remoteClient(protocol, addr)
			if err != nil {
				return err
			}
			defer done()

			rust, err := client.Compile(cmd.Context(), string(src))
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				msg := server.Describe(err)
				if msg != "" && msg[0] >= '0' && msg[0] <= '9' {
					return fmt.Errorf("%s:%s", path, msg)
				}
				return fmt.Errorf("%s: %s", path, msg)
			}
			fmt.Fprint(a.stdout, rust)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "endereco", "localhost:4401", "endereço do servidor")
	cmd.Flags().StringVar(&protocol, "protocolo", "grpc", "grpc ou connect")
	return cmd
}

func remoteClient(protocol, addr string) (server.Compiler, func(), error) {
	switch protocol {
	case "grpc":
		c, err := server.DialGRPC(addr)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { c.Close() }, nil
	case "connect":
		if !strings.Contains(addr, "://") {
			addr = "http://" + addr
		}
		return server.NewConnectClient(nil, addr), func() {}, nil
	}
	return nil, nil, fmt.Errorf("protocolo desconhecido %q (use grpc ou connect)", protocol)
}
