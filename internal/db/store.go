package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/atharv3903/routemap/internal/graph"
	"github.com/atharv3903/routemap/internal/metrics"
	"github.com/atharv3903/routemap/internal/model"
)

// batchSize bounds rows per multi-row INSERT, well under max_allowed_packet.
const batchSize = 500

var schema = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
		node_id BIGINT PRIMARY KEY,
		lat DOUBLE NOT NULL,
		lon DOUBLE NOT NULL,
		INDEX idx_nodes_lat_lon (lat, lon)
	)`,
	`CREATE TABLE IF NOT EXISTS edges (
		edge_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		src_node BIGINT NOT NULL,
		dst_node BIGINT NOT NULL,
		distance_m INT NOT NULL,
		closed BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE KEY uq_edges_src_dst (src_node, dst_node)
	)`,
}

// Store keeps road graphs in MySQL and serves bbox subgraphs from them.
type Store struct {
	DB *sql.DB
}

func (s Store) Name() string { return "mysql" }

// Migrate creates the nodes and edges tables when missing.
func (s Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Graph loads the nodes inside b and the open edges between them.
func (s Store) Graph(ctx context.Context, b model.BBox) (*graph.RoadGraph, error) {
	start := time.Now()
	g, err := s.graph(ctx, b)
	metrics.GraphFetchDuration.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GraphFetches.WithLabelValues(s.Name(), "error").Inc()
		return nil, err
	}
	metrics.GraphFetches.WithLabelValues(s.Name(), "ok").Inc()
	metrics.GraphNodes.Observe(float64(g.NumNodes()))
	return g, nil
}

func (s Store) graph(ctx context.Context, b model.BBox) (*graph.RoadGraph, error) {
	rows, err := s.DB.QueryContext(ctx, `
        SELECT node_id, lat, lon
        FROM nodes
        WHERE lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?
    `, b.South, b.North, b.West, b.East)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	g := graph.New()
	for rows.Next() {
		var n model.Node
		if err := rows.Scan(&n.ID, &n.Lat, &n.Lon); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		g.AddNode(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}

	erows, err := s.DB.QueryContext(ctx, `
        SELECT e.src_node, e.dst_node, e.distance_m
        FROM edges e
        JOIN nodes a ON a.node_id = e.src_node
        JOIN nodes b ON b.node_id = e.dst_node
        WHERE e.closed = FALSE
          AND a.lat BETWEEN ? AND ? AND a.lon BETWEEN ? AND ?
          AND b.lat BETWEEN ? AND ? AND b.lon BETWEEN ? AND ?
    `, b.South, b.North, b.West, b.East, b.South, b.North, b.West, b.East)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer erows.Close()

	for erows.Next() {
		var src, dst int64
		var dist int
		if err := erows.Scan(&src, &dst, &dist); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		if err := g.AddEdge(src, dst, float64(dist)); err != nil {
			return nil, err
		}
	}
	if err := erows.Err(); err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}

	g.Prune()
	return g, nil
}

// Import upserts every node and edge of g in one transaction. Edge lengths
// are stored rounded to whole metres, at least 1.
func (s Store) Import(ctx context.Context, g *graph.RoadGraph) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	nodes := g.Nodes()
	for i := 0; i < len(nodes); i += batchSize {
		chunk := nodes[i:min(i+batchSize, len(nodes))]
		args := make([]any, 0, len(chunk)*3)
		for _, n := range chunk {
			args = append(args, n.ID, n.Lat, n.Lon)
		}
		q := insertStmt("nodes", []string{"node_id", "lat", "lon"}, len(chunk), "lat = VALUES(lat), lon = VALUES(lon)")
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert nodes: %w", err)
		}
	}

	edges := g.Edges()
	for i := 0; i < len(edges); i += batchSize {
		chunk := edges[i:min(i+batchSize, len(edges))]
		args := make([]any, 0, len(chunk)*3)
		for _, e := range chunk {
			args = append(args, e.Src, e.Dst, metres(e.LengthM))
		}
		q := insertStmt("edges", []string{"src_node", "dst_node", "distance_m"}, len(chunk), "distance_m = VALUES(distance_m)")
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert edges: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func (s Store) UpdateEdgeClosed(ctx context.Context, edgeID int64, closed bool) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE edges SET closed=? WHERE edge_id=?`, closed, edgeID)
	return err
}

func insertStmt(table string, cols []string, rows int, onDup string) string {
	row := "(" + strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",") + ")"
	values := strings.TrimSuffix(strings.Repeat(row+",", rows), ",")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON DUPLICATE KEY UPDATE %s",
		table, strings.Join(cols, ", "), values, onDup)
}

func metres(m float64) int {
	return max(1, int(math.Round(m)))
}
