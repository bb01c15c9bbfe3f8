package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atharv3903/routemap/internal/api"
	"github.com/atharv3903/routemap/internal/app"
	"github.com/atharv3903/routemap/internal/config"
	"github.com/atharv3903/routemap/internal/logging"
)

func main() {
	cfg, err := config.FromFlags("routeserver", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var updater api.EdgeUpdater
	if a.Store != nil {
		if err := a.Store.Migrate(ctx); err != nil {
			return err
		}
		updater = a.Store
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.New(a.Extractor, updater, app.Layout(cfg), logger).Mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("routeserver listening", "addr", cfg.Server.Addr, "provider", a.Provider.Name())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
