package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"popstudy/internal/core"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const healthInterval = 30 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve queries, metrics and backend health over HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.MetricsAddr
			}
			return a.serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from configuration).")
	return cmd
}

func (a *app) serve(ctx context.Context, addr string) error {
	fed, err := openFederation(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer fed.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	up := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "popstudy",
		Name:      "backend_up",
		Help:      "1 when the backend's store answered the last ping.",
	}, []string{"source"})
	reg.MustRegister(up)
	local := core.NewExpvarMetricsRecorder("")
	coord, err := fed.coordinator(a.logger, core.MultiMetrics{prom, local})
	if err != nil {
		return err
	}

	router := queryHandler(coord, a.logger)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.Handle("/debug/vars", expvar.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if down := fed.checkBackends(r.Context(), up, a.logger); len(down) > 0 {
			http.Error(w, fmt.Sprintf("unavailable: %v", down), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		ticker := time.NewTicker(healthInterval)
		defer ticker.Stop()
		for {
			fed.checkBackends(ctx, up, a.logger)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	go func() {
		<-ctx.Done()
		shutdown, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutdown)
	}()

	a.logger.Info("serving", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
