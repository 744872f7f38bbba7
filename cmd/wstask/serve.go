package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vango-dev/wstask/internal/echoserver"
	"github.com/vango-dev/wstask/internal/errors"
)

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a WebSocket echo server",
		Long: `Run a WebSocket echo server.

Routes:
  /ws        echoes every text and binary frame
  /healthz   liveness probe
  /metrics   Prometheus metrics

Examples:
  wstask serve
  wstask serve --addr=127.0.0.1:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return a.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from wstask.json)")

	return cmd
}

func (a *app) runServe(ctx context.Context, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := echoserver.New(&echoserver.Config{
		Addr:      addr,
		Path:      a.cfg.Server.Path,
		Rate:      a.cfg.Server.Rate,
		Burst:     a.cfg.Server.Burst,
		ReadLimit: a.cfg.Server.ReadLimit,
		Logger:    a.logger.Logger,
	})

	a.success("Echo server on ws://%s%s", displayAddr(addr), a.cfg.Server.Path)
	a.info("Press Ctrl+C to stop")

	if err := srv.Run(ctx); err != nil {
		return errors.New("W206").Wrap(err)
	}
	return nil
}
