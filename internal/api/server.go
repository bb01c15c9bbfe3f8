package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atharv3903/routemap/internal/algo"
	"github.com/atharv3903/routemap/internal/cache"
	"github.com/atharv3903/routemap/internal/model"
	"github.com/atharv3903/routemap/internal/pathfind"
	"github.com/atharv3903/routemap/internal/render"
)

// Extractor is the path engine behind the API.
type Extractor interface {
	Extract(ctx context.Context, origin, target model.Coordinate) (pathfind.Result, error)
	ClearCaches()
	CacheStats() (cache.Stats, int)
}

// EdgeUpdater changes edge state in a persistent graph store.
type EdgeUpdater interface {
	UpdateEdgeClosed(ctx context.Context, edgeID int64, closed bool) error
}

type Server struct {
	Mux       *http.ServeMux
	Extractor Extractor
	// Updater is nil when the provider has no writable store.
	Updater EdgeUpdater
	Layout  render.Layout
	Logger  *slog.Logger
}

func New(e Extractor, u EdgeUpdater, layout render.Layout, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Mux:       http.NewServeMux(),
		Extractor: e,
		Updater:   u,
		Layout:    layout,
		Logger:    logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	s.Mux.HandleFunc("GET /route", s.handleRoute)
	s.Mux.HandleFunc("GET /map", s.handleMap)
	s.Mux.HandleFunc("POST /road/update", s.handleUpdate)
	s.Mux.Handle("GET /metrics", promhttp.Handler())

	s.Mux.HandleFunc("POST /debug/clear_cache", func(w http.ResponseWriter, _ *http.Request) {
		s.Extractor.ClearCaches()
		w.Write([]byte("cleared"))
	})

	s.Mux.HandleFunc("GET /debug/cache_stats", s.handleCacheStats)
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	from, to, err := endpoints(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.Extractor.Extract(r.Context(), from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, model.RouteResponse{
		Path:          res.Path,
		ExploredNodes: res.Explored,
		CacheHit:      res.CacheHit,
		BBox:          res.BBox,
	})
}

// handleMap renders the interactive view for a single from/to pair.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	from, to, err := endpoints(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.Extractor.Extract(r.Context(), from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	fig := render.Build(from, []model.Coordinate{to},
		[][]float64{res.Path.Lon}, [][]float64{res.Path.Lat}, s.Layout)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.WriteHTML(w, fig); err != nil {
		s.Logger.ErrorContext(r.Context(), "write map", "error", err)
	}
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if s.Updater == nil {
		http.Error(w, "provider has no writable store", http.StatusNotImplemented)
		return
	}

	var req struct {
		EdgeID int64 `json:"edge_id"`
		Closed *bool `json:"closed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Closed == nil {
		http.Error(w, "closed is required", http.StatusBadRequest)
		return
	}

	if err := s.Updater.UpdateEdgeClosed(r.Context(), req.EdgeID, *req.Closed); err != nil {
		s.fail(w, r, err)
		return
	}

	// Cached graphs still carry the old edge set.
	s.Extractor.ClearCaches()

	writeJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	gs, routes := s.Extractor.CacheStats()
	writeJSON(w, map[string]int{
		"gets":      gs.Gets,
		"hits":      gs.Hits,
		"puts":      gs.Puts,
		"evictions": gs.Evictions,
		"graphs":    gs.Len,
		"routes":    routes,
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, algo.ErrNoPath):
		status = http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	s.Logger.WarnContext(r.Context(), "request failed", "path", r.URL.Path, "status", status, "error", err)
	http.Error(w, err.Error(), status)
}

func endpoints(r *http.Request) (model.Coordinate, model.Coordinate, error) {
	q := r.URL.Query()
	from, err := parseCoordinate(q.Get("from"))
	if err != nil {
		return model.Coordinate{}, model.Coordinate{}, fmt.Errorf("from: %w", err)
	}
	to, err := parseCoordinate(q.Get("to"))
	if err != nil {
		return model.Coordinate{}, model.Coordinate{}, fmt.Errorf("to: %w", err)
	}
	return from, to, nil
}

// parseCoordinate reads "lat,lon".
func parseCoordinate(v string) (model.Coordinate, error) {
	lat, lon, ok := strings.Cut(v, ",")
	if !ok {
		return model.Coordinate{}, fmt.Errorf("want lat,lon, got %q", v)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("latitude: %w", err)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("longitude: %w", err)
	}
	if la < -90 || la > 90 || lo < -180 || lo > 180 {
		return model.Coordinate{}, fmt.Errorf("out of range: %q", v)
	}
	return model.Coordinate{Lat: la, Lon: lo}, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
