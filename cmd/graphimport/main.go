package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atharv3903/routemap/internal/app"
	"github.com/atharv3903/routemap/internal/batch"
	"github.com/atharv3903/routemap/internal/config"
	"github.com/atharv3903/routemap/internal/geo"
	"github.com/atharv3903/routemap/internal/logging"
	"github.com/atharv3903/routemap/internal/model"
	"github.com/atharv3903/routemap/internal/overpass"
)

// graphimport downloads the road network around the configured origin and
// targets from Overpass and upserts it into MySQL, so later runs can use
// provider.name=mysql.
func main() {
	cfg, err := config.FromFlags("graphimport", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("import failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.MySQL.DSN == "" {
		return errors.New("mysql.dsn is required (-dsn or ROUTEMAP_MYSQL_DSN)")
	}

	origin := model.Coordinate{Lat: cfg.Origin.Lat, Lon: cfg.Origin.Lon}
	targets, err := batch.LoadTargets(cfg.Input.Targets)
	if err != nil {
		return err
	}

	bound, _ := geo.Extent(append([]model.Coordinate{origin}, targets...)...)
	box := model.BBox{
		North: bound.Max.Lat() + cfg.Perimeter,
		South: bound.Min.Lat() - cfg.Perimeter,
		East:  bound.Max.Lon() + cfg.Perimeter,
		West:  bound.Min.Lon() - cfg.Perimeter,
	}
	logger.Info("fetching area", "north", box.North, "south", box.South, "east", box.East, "west", box.West)

	client := overpass.New(overpass.Options{
		Endpoint:   cfg.Overpass.Endpoint,
		Timeout:    cfg.Overpass.Timeout,
		MaxRetries: cfg.Overpass.MaxRetries,
		RetryWait:  cfg.Overpass.RetryWait,
	})

	start := time.Now()
	g, err := client.Graph(ctx, box)
	if err != nil {
		return err
	}
	logger.Info("graph fetched", "nodes", g.NumNodes(), "edges", g.NumEdges(), "elapsed", time.Since(start).Round(time.Millisecond))

	// Reuse the mysql wiring of the main tools for the connection.
	dbCfg := *cfg
	dbCfg.Provider.Name = "mysql"
	a, err := app.Open(ctx, &dbCfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Store.Migrate(ctx); err != nil {
		return err
	}

	start = time.Now()
	if err := a.Store.Import(ctx, g); err != nil {
		return err
	}
	logger.Info("graph imported", "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}
