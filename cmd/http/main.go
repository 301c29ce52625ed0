package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/awmpietro/algotrace/internal/app"
	"github.com/awmpietro/algotrace/internal/app/cache"
	"github.com/awmpietro/algotrace/internal/config"
	"github.com/awmpietro/algotrace/internal/logging"
	"github.com/awmpietro/algotrace/internal/observability"
	"github.com/awmpietro/algotrace/internal/solver"
	"github.com/awmpietro/algotrace/internal/store"
	httptransport "github.com/awmpietro/algotrace/internal/transport/httptransport"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	solveLog := observability.NewAsyncSolveObserver(observability.NewSolveLogger(logger), cfg.ObsBuffer)
	defer solveLog.Close()

	opts := []app.Option{
		app.WithLogger(logger),
		app.WithObserver(observability.Multi{observability.NewSolveMetrics(reg), solveLog}),
	}
	if cfg.StoreEnabled {
		st, err := store.Open(store.Config{
			Path:       cfg.StorePath,
			InMemory:   cfg.StorePath == "",
			Retention:  cfg.StoreRetention,
			MaxRecords: cfg.StoreMaxRecords,
			Logger:     logger,
		})
		if err != nil {
			logger.Error("open trace store", "path", cfg.StorePath, "error", err)
			os.Exit(1)
		}
		defer st.Close()
		opts = append(opts, app.WithStore(st))
	}

	svc := app.NewService(solver.NewRegistry(), cache.NewInMemory(cfg.CacheMaxItems), opts...)
	h := httptransport.NewHandler(svc,
		httptransport.WithMaxBodyBytes(int64(cfg.MaxBodyBytes)),
		httptransport.WithLogger(logger),
	)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "store", cfg.StoreEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped", "dropped_solve_events", solveLog.Dropped())
}
