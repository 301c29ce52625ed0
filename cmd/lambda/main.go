package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/awmpietro/algotrace/internal/app"
	"github.com/awmpietro/algotrace/internal/app/cache"
	"github.com/awmpietro/algotrace/internal/config"
	"github.com/awmpietro/algotrace/internal/logging"
	"github.com/awmpietro/algotrace/internal/observability"
	"github.com/awmpietro/algotrace/internal/solver"
	"github.com/awmpietro/algotrace/internal/store"
	lambdatransport "github.com/awmpietro/algotrace/internal/transport/lambdatransport"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: "json"})
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	solveLog := observability.NewAsyncSolveObserver(observability.NewSolveLogger(logger), cfg.ObsBuffer)
	defer solveLog.Close()

	opts := []app.Option{app.WithLogger(logger), app.WithObserver(solveLog)}
	if cfg.StoreEnabled {
		// Lambda has no durable disk; traces live as long as the warm container.
		st, err := store.Open(store.Config{
			InMemory:   true,
			Retention:  cfg.StoreRetention,
			MaxRecords: cfg.StoreMaxRecords,
			Logger:     logger,
		})
		if err != nil {
			logger.Error("open trace store", "error", err)
			os.Exit(1)
		}
		defer st.Close()
		opts = append(opts, app.WithStore(st))
	}

	svc := app.NewService(solver.NewRegistry(), cache.NewInMemory(cfg.CacheMaxItems), opts...)
	h := lambdatransport.NewHandler(svc, cfg.MaxBodyBytes)

	lambda.Start(h.Handle)
}
