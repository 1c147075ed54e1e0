package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/shiva7919/sample-python-app/client"
	"github.com/shiva7919/sample-python-app/config"
	"github.com/shiva7919/sample-python-app/handlers"
	"github.com/shiva7919/sample-python-app/metrics"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		healthcheck bool
	)

	cmd := &cobra.Command{
		Use:          "hi-app",
		Short:        "Serve a plain-text greeting on GET /",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if healthcheck {
				return runHealthCheck(cmd.Context(), cfg)
			}

			setupLogger(cfg)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().BoolVar(&healthcheck, "healthcheck", false, "probe the local server and exit")
	return cmd
}

func setupLogger(cfg *config.Config) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level,
	}))
	slog.SetDefault(logger)
}

// run serves the application, and metrics when configured, until ctx is done.
func run(ctx context.Context, cfg *config.Config) error {
	rec := metrics.NewRecorder()

	servers := []*http.Server{newAppServer(cfg.Addr, rec)}
	if cfg.MetricsAddr != "" {
		servers = append(servers, newMetricsServer(cfg.MetricsAddr, rec))
	}
	return serve(ctx, cfg.ShutdownTimeout, servers...)
}

func newAppServer(addr string, rec *metrics.Recorder) *http.Server {
	router := handlers.NewRouter(handlers.New())
	return &http.Server{
		Addr:         addr,
		Handler:      handlers.RequestID(handlers.Logging(rec.Instrument(router))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func newMetricsServer(addr string, rec *metrics.Recorder) *http.Server {
	r := mux.NewRouter()
	r.Handle("/metrics", rec.Handler()).Methods(http.MethodGet)
	return &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// serve binds every server, then blocks until ctx is done or one of them
// fails, and shuts all of them down within timeout.
func serve(ctx context.Context, timeout time.Duration, servers ...*http.Server) error {
	listeners := make([]net.Listener, 0, len(servers))
	for _, srv := range servers {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, l := range listeners {
				_ = l.Close()
			}
			return fmt.Errorf("listen %s: %w", srv.Addr, err)
		}
		listeners = append(listeners, ln)
	}

	errCh := make(chan error, len(servers))
	for i, srv := range servers {
		go func(srv *http.Server, ln net.Listener) {
			slog.Info("server starting", "addr", ln.Addr().String())
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
		}(srv, listeners[i])
	}

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case runErr = <-errCh:
		slog.Error("server error", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "addr", srv.Addr, "error", err)
			if runErr == nil {
				runErr = err
			}
		}
	}
	if runErr != nil {
		return runErr
	}

	slog.Info("server stopped gracefully")
	return nil
}

// runHealthCheck requests GET / from the local server and fails unless the
// greeting comes back. Used as the container health probe so that the
// distroless runtime image does not need curl or wget.
func runHealthCheck(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c := client.NewClient(&http.Client{Timeout: 5 * time.Second}).WithURL(healthCheckURL(cfg.Addr))
	body, err := c.Greeting(ctx)
	if err != nil {
		return fmt.Errorf("healthcheck: %w", err)
	}
	if body != handlers.Greeting {
		return fmt.Errorf("healthcheck: unexpected body %q", body)
	}
	return nil
}

// healthCheckURL turns a listen address into a URL reachable from the same host.
func healthCheckURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
