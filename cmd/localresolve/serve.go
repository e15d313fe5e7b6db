package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/apex/log"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xfalcon/localresolve/internal/config"
	"github.com/xfalcon/localresolve/proxy"
	"github.com/xfalcon/localresolve/resolver"
)

var serveFlags struct {
	config      string
	listen      string
	upstream    string
	metricsAddr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve DNS overrides for the configured domains",
	Long: `Serve resolves the target .local host periodically and answers DNS
queries for the override domains with its address. All other queries are
forwarded to the upstream server.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVarP(&serveFlags.config, "config", "c", "", "YAML configuration file")
	f.StringVar(&serveFlags.listen, "listen", "", "DNS listen address (default :53)")
	f.StringVar(&serveFlags.upstream, "upstream", "", "upstream DNS server (default 10.10.10.1:53)")
	f.StringVar(&serveFlags.metricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(serveFlags.config)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Listen = serveFlags.listen
	}
	if flags.Changed("upstream") {
		cfg.Upstream = serveFlags.upstream
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = serveFlags.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(logLevel, cfg.LogLevel)
	if err != nil {
		return err
	}

	opts := []resolver.Option{
		resolver.WithAttempts(cfg.Resolver.Attempts),
		resolver.WithAttemptTimeout(cfg.Resolver.AttemptTimeout),
		resolver.WithLogger(logger),
	}
	iface, err := lookupInterface(cfg.Resolver.Interface)
	if err != nil {
		return err
	}
	if iface != nil {
		opts = append(opts, resolver.WithInterfaces(*iface))
	}

	res, err := resolver.New(opts...)
	if err != nil {
		return err
	}

	refresher := proxy.NewRefresher(res, cfg.Target, cfg.RefreshInterval, logger)
	server, err := proxy.NewServer(cfg.Upstream, cfg.Domains, refresher,
		proxy.WithTTL(cfg.TTL),
		proxy.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.WithFields(log.Fields{
		"target":   cfg.Target,
		"domains":  len(cfg.Domains),
		"listen":   cfg.Listen,
		"upstream": cfg.Upstream,
	}).Info("starting")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return refresher.Run(ctx) })
	g.Go(func() error { return server.ListenAndServe(ctx, cfg.Listen) })
	if cfg.MetricsAddr != "" {
		g.Go(func() error { return serveMetrics(ctx, cfg.MetricsAddr, refresher, logger) })
	}

	err = g.Wait()
	logger.Info("stopped")
	return err
}

// newRouter exposes metrics and a health check that fails until the target
// host has been resolved once.
func newRouter(source proxy.AddressSource) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	}).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		addr, ok := source.Current()
		if !ok {
			http.Error(w, "target not resolved", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, addr)
	}).Methods(http.MethodGet)
	return r
}

func serveMetrics(ctx context.Context, addr string, source proxy.AddressSource, logger log.Interface) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(source),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.WithField("addr", addr).Info("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
