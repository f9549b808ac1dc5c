package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/feichai0017/invoice-extractor/api/handlers"
	"github.com/feichai0017/invoice-extractor/api/routes"
	"github.com/feichai0017/invoice-extractor/config"
	"github.com/feichai0017/invoice-extractor/internal/converter"
	"github.com/feichai0017/invoice-extractor/internal/metrics"
	"github.com/feichai0017/invoice-extractor/internal/watcher"
	"github.com/feichai0017/invoice-extractor/pkg/logger"
	"github.com/feichai0017/invoice-extractor/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// init logger
	log, err := logger.NewLogger(
		logger.WithLevel(cfg.LogLevel),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/extractor.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// init object store
	store, err := storage.NewStorage(storage.StorageType(cfg.StorageType), cfg, log)
	if err != nil {
		log.Error("Failed to initialize object store", logger.Error(err))
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)

	conv := converter.NewPDFConverter(log)
	w := watcher.NewWatcher(store, conv, cfg, m, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// optional ops endpoint
	var srv *http.Server
	if cfg.HTTPAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		r := gin.New()
		r.Use(gin.Recovery())
		routes.SetupRoutes(r, handlers.NewHandlers(w, cfg, log), reg)

		srv = &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: r,
		}
		go func() {
			log.Info("Ops server starting", logger.String("addr", cfg.HTTPAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Ops server error", logger.Error(err))
			}
		}()
	}

	runErr := w.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		log.Info("Invoice extractor stopped by signal")
		runErr = nil
	} else if runErr != nil {
		log.Error("Invoice extractor stopped", logger.Error(runErr))
	}

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Ops server forced to shutdown", logger.Error(err))
		}
	}

	if runErr != nil {
		log.Sync()
		os.Exit(1)
	}
}
