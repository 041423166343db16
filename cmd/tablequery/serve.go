package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-go/tablequery/internal/errors"
	"github.com/vango-go/tablequery/pkg/server"
)

func serveCmd(a *app) *cobra.Command {
	var (
		addr    string
		origins []string
		tracing bool
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and live channel",
		Long: `Run the tablequery HTTP server.

Endpoints:
  GET  /healthz            liveness probe
  GET  /api/state          decode the request's own query string
  POST /api/encode         {"url", "params"} -> {"url"}
  POST /api/select-all     {"url", "value"} -> {"url"}
  POST /api/reconcile      {"url"|"filters", "available"} -> {"filters"}
  GET  /metrics            Prometheus metrics
  GET  /ws?url=<location>  live channel for one browser tab

Flags override tablequery.json.

Examples:
  tablequery serve
  tablequery serve --addr=127.0.0.1:9000 --allow-origin=https://app.example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.serverConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Address = addr
			}
			if len(origins) > 0 {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origins...)
			}
			if cmd.Flags().Changed("tracing") {
				cfg.TracingEnabled = tracing
			}
			if cmd.Flags().Changed("metrics") {
				cfg.MetricsEnabled = metrics
			}
			return a.runServer(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from config)")
	cmd.Flags().StringSliceVar(&origins, "allow-origin", nil, "Extra origin allowed to open the live channel (repeatable)")
	cmd.Flags().BoolVar(&tracing, "tracing", false, "Enable OpenTelemetry tracing")
	cmd.Flags().BoolVar(&metrics, "metrics", true, "Enable Prometheus metrics")

	return cmd
}

// serverConfig translates tablequery.json into a server.Config.
func (a *app) serverConfig() (*server.Config, error) {
	timeout, err := a.cfg.ShutdownTimeout()
	if err != nil {
		return nil, errors.New("T122").WithInput(a.cfg.Server.ShutdownTimeout).Wrap(err)
	}

	cfg := server.DefaultConfig()
	cfg.Address = a.cfg.Server.Address
	cfg.ShutdownTimeout = timeout
	cfg.AllowedOrigins = a.cfg.Server.AllowedOrigins
	cfg.MetricsEnabled = a.cfg.Metrics.Enabled
	cfg.MetricsNamespace = a.cfg.Metrics.Namespace
	cfg.MetricsPath = a.cfg.Metrics.Path
	cfg.TracingEnabled = a.cfg.Tracing.Enabled
	cfg.TracerName = a.cfg.Tracing.TracerName
	return cfg, nil
}

func (a *app) runServer(cmd *cobra.Command, cfg *server.Config) error {
	w := cmd.OutOrStdout()

	srv := server.New(cfg,
		server.WithLogger(a.logger),
		server.WithCodecOptions(a.cfg.CodecOptions()...),
	)

	printBanner(w)
	success(w, "Listening on %s", cfg.Address)
	if cfg.MetricsEnabled {
		info(w, "Metrics at %s", cfg.MetricsPath)
	}
	if len(cfg.AllowedOrigins) == 0 {
		info(w, "Live channel accepts same-origin connections only")
	}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			warn(w, "Live channel accepts connections from any origin")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
