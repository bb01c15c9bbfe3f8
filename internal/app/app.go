// Package app assembles the graph provider, caches and extractor from a
// loaded configuration. Both routemap binaries start from here.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql"

	"github.com/atharv3903/routemap/internal/cache"
	"github.com/atharv3903/routemap/internal/config"
	"github.com/atharv3903/routemap/internal/db"
	"github.com/atharv3903/routemap/internal/model"
	"github.com/atharv3903/routemap/internal/overpass"
	"github.com/atharv3903/routemap/internal/pathfind"
	"github.com/atharv3903/routemap/internal/render"
)

type App struct {
	Provider  pathfind.Provider
	Extractor *pathfind.Extractor
	// Store is set only for the mysql provider.
	Store *db.Store

	closers []func()
}

// Open connects the configured provider and builds an extractor around it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{}

	switch cfg.Provider.Name {
	case "mysql":
		conn, err := openMySQL(ctx, cfg.MySQL.DSN, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { conn.Close() })
		a.Store = &db.Store{DB: conn}
		a.Provider = *a.Store

	default:
		opts := overpass.Options{
			Endpoint:   cfg.Overpass.Endpoint,
			Timeout:    cfg.Overpass.Timeout,
			MaxRetries: cfg.Overpass.MaxRetries,
			RetryWait:  cfg.Overpass.RetryWait,
			CacheTTL:   cfg.Valkey.TTL,
		}
		if cfg.Valkey.Addr != "" {
			vc, err := cache.NewValkey(cfg.Valkey.Addr, cfg.Valkey.Prefix)
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, vc.Close)
			opts.Cache = vc
			logger.Info("payload cache enabled", "addr", cfg.Valkey.Addr, "ttl", cfg.Valkey.TTL)
		}
		a.Provider = overpass.New(opts)
	}

	a.Extractor = pathfind.New(a.Provider, cfg.Perimeter, cacheOptions(cfg)...)

	logger.Info("graph provider ready", "provider", a.Provider.Name(), "perimeter", cfg.Perimeter)
	return a, nil
}

func cacheOptions(cfg *config.Config) []pathfind.Option {
	var opts []pathfind.Option
	if cfg.Cache.Graphs > 0 {
		opts = append(opts, pathfind.WithGraphCache(cache.NewGraphCacheWithCap(cfg.Cache.Graphs)))
	}
	if cfg.Cache.Routes {
		opts = append(opts, pathfind.WithRouteCache(cache.NewRouteCache()))
	}
	return opts
}

// openMySQL opens the pool and waits for the server to answer a ping.
func openMySQL(ctx context.Context, dsn string, logger *slog.Logger) (*sql.DB, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxLifetime(5 * time.Minute)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	ping := func() error {
		return conn.PingContext(ctx)
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("mysql not ready, retrying", "error", err, "wait", wait)
	}
	if err := backoff.RetryNotify(ping, backoff.WithContext(bo, ctx), notify); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return conn, nil
}

// Close releases provider connections in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// Layout is the default map styling with the configured view settings.
func Layout(cfg *config.Config) render.Layout {
	l := render.DefaultLayout()
	l.Title = cfg.Render.Title
	l.Width = cfg.Render.Width
	l.Height = cfg.Render.Height
	l.Center = model.Coordinate{Lat: cfg.Render.CenterLat, Lon: cfg.Render.CenterLon}
	l.Zoom = cfg.Render.Zoom
	l.FitBounds = cfg.Render.FitBounds
	return l
}
