package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/atharv3903/routemap/internal/app"
	"github.com/atharv3903/routemap/internal/batch"
	"github.com/atharv3903/routemap/internal/config"
	"github.com/atharv3903/routemap/internal/logging"
	"github.com/atharv3903/routemap/internal/metrics"
	"github.com/atharv3903/routemap/internal/model"
	"github.com/atharv3903/routemap/internal/render"
	"github.com/atharv3903/routemap/internal/report"
)

func main() {
	cfg, err := config.FromFlags("routemap", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	runID := uuid.NewString()
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format).With("run_id", runID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, runID, logger); err != nil {
		logger.Error("run failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, runID string, logger *slog.Logger) error {
	start := time.Now()
	origin := model.Coordinate{Lat: cfg.Origin.Lat, Lon: cfg.Origin.Lon}

	targets, err := batch.LoadTargets(cfg.Input.Targets)
	if err != nil {
		return err
	}
	logger.Info("targets loaded", "path", cfg.Input.Targets, "count", len(targets))

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := batch.NewRunner(a.Extractor, cfg.Batch.SkipFailed, logger).Run(ctx, origin, targets)
	if err != nil {
		return err
	}

	fig := render.Build(origin, results.Reached(), results.Lon, results.Lat, app.Layout(cfg))
	r := render.NewRenderer(render.Options{
		ImagePath:  cfg.Render.ImagePath,
		HTMLPath:   cfg.Render.HTMLPath,
		Scale:      cfg.Render.Scale,
		Quality:    cfg.Render.Quality,
		CreateDirs: cfg.Render.CreateDirs,
		Open:       cfg.Render.Open,
	})
	if err := r.Render(ctx, fig); err != nil {
		return err
	}

	if cfg.Report.Path != "" {
		if err := report.Write(cfg.Report.Path, runID, fmt.Sprintf("%f,%f", origin.Lat, origin.Lon), results); err != nil {
			return err
		}
		logger.Info("report saved", "path", cfg.Report.Path)
	}

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return err
		}
	}

	logger.Info("done",
		"paths", len(results.Lon),
		"skipped", len(results.Skipped),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}
