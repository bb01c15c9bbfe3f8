package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/atharv3903/routemap/internal/batch"
	"github.com/atharv3903/routemap/internal/bench"
	"github.com/atharv3903/routemap/internal/config"
	"github.com/atharv3903/routemap/internal/logging"
	"github.com/atharv3903/routemap/internal/model"
)

// routebench runs closed-loop /route load against a routeserver for a series
// of client counts and writes one CSV row per count.
func main() {
	var (
		file     = flag.String("config", "", "config file for origin and targets")
		server   = flag.String("server", "http://127.0.0.1:8080", "routeserver base URL")
		clients  = flag.String("clients", "1,2,4,8,16", "comma separated client counts")
		duration = flag.Duration("duration", 10*time.Second, "duration per client count")
		out      = flag.String("out", "results.csv", "CSV output path")
		reset    = flag.Bool("clear", true, "clear server caches before each step")
	)
	flag.Parse()

	cfg, err := config.Load(*file, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	counts, err := parseCounts(*clients)
	if err != nil {
		logger.Error("bad -clients", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	targets, err := batch.LoadTargets(cfg.Input.Targets)
	if err != nil {
		logger.Error("load targets", "error", err)
		os.Exit(1)
	}

	f, err := os.Create(*out)
	if err != nil {
		logger.Error("create output", "error", err)
		os.Exit(1)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Write(bench.Header)

	for _, n := range counts {
		if ctx.Err() != nil {
			break
		}
		if *reset {
			clearCache(ctx, *server, logger)
		}

		res, err := bench.Run(ctx, bench.Options{
			Server:   *server,
			Clients:  n,
			Duration: *duration,
			Origin:   model.Coordinate{Lat: cfg.Origin.Lat, Lon: cfg.Origin.Lon},
			Targets:  targets,
		})
		if err != nil {
			logger.Error("bench step failed", "clients", n, "error", err)
			os.Exit(1)
		}
		logger.Info("step done",
			"clients", n,
			"requests", res.Requests,
			"errors", res.Errors,
			"cache_hits", res.CacheHits,
			"avg_ms", res.AvgMs,
			"p99_ms", res.P99Ms,
			"rps", res.Throughput,
		)
		w.Write(res.Record())
	}

	w.Flush()
	if err := w.Error(); err != nil {
		logger.Error("write results", "error", err)
		os.Exit(1)
	}
	logger.Info("results saved", "path", *out)
}

func parseCounts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid client count %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func clearCache(ctx context.Context, server string, logger *slog.Logger) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+"/debug/clear_cache", nil)
	if err != nil {
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Warn("clear cache failed", "error", err)
		return
	}
	resp.Body.Close()
}
