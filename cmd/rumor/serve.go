package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rumor/internal/httpapi"
	"github.com/mesh-intelligence/rumor/internal/logging"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the guest API over HTTP",
	Long: `Serve loads guests and tags from the configured backend and serves the
guest API until interrupted. Metrics are exposed at /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		svc, closeBackend, err := openService(reg)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeBackend(); err != nil {
				logger.Error().Err(err).Msg("detach backend")
			}
		}()

		addr := flagServeAddr
		if addr == "" {
			addr = cfg.GetString(cfgKeyServerAddr)
		}
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}

		log := logging.Component(logger, "http")
		handler := httpapi.NewHandler(svc, httpapi.WithLogger(log), httpapi.WithGatherer(reg))
		return httpapi.Serve(ctx, httpapi.NewServer(addr, handler), ln, log)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "listen address (default: server.addr from config)")
}
