// Package overpass fetches drivable road networks from the Overpass API and turns
// them into routable graphs.
package overpass

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/paulmach/osm"

	"github.com/atharv3903/routemap/internal/cache"
	"github.com/atharv3903/routemap/internal/geo"
	"github.com/atharv3903/routemap/internal/graph"
	"github.com/atharv3903/routemap/internal/metrics"
	"github.com/atharv3903/routemap/internal/model"
)

const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

var ErrStatus = errors.New("overpass: unexpected status")

// driveFilter selects the ways a car may use.
const driveFilter = `["highway"]["area"!~"yes"]` +
	`["highway"!~"abandoned|bridleway|bus_guideway|construction|corridor|cycleway|elevator|escalator|footway|no|path|pedestrian|planned|platform|proposed|raceway|razed|service|steps|track"]` +
	`["motor_vehicle"!~"no"]["motorcar"!~"no"]` +
	`["service"!~"alley|driveway|emergency_access|parking|parking_aisle|private"]`

// PayloadCache stores raw Overpass responses. Get returns cache.ErrMiss for
// absent keys.
type PayloadCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Options struct {
	Endpoint   string
	Timeout    time.Duration
	MaxRetries int
	RetryWait  time.Duration
	Cache      PayloadCache
	CacheTTL   time.Duration
	HTTPClient *http.Client
}

// Client is a graph provider backed by the Overpass API.
type Client struct {
	endpoint   string
	timeout    time.Duration
	maxRetries int
	retryWait  time.Duration
	cache      PayloadCache
	cacheTTL   time.Duration
	http       *http.Client
}

func New(opts Options) *Client {
	c := &Client{
		endpoint:   opts.Endpoint,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		retryWait:  opts.RetryWait,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		http:       opts.HTTPClient,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.timeout <= 0 {
		c.timeout = 3 * time.Minute
	}
	if c.retryWait <= 0 {
		c.retryWait = 2 * time.Second
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout + 10*time.Second}
	}
	return c
}

func (c *Client) Name() string { return "overpass" }

// Query builds the Overpass QL request for every drivable way in b plus the
// nodes those ways reference.
func (c *Client) Query(b model.BBox) string {
	return fmt.Sprintf("[out:xml][timeout:%d];(way%s(%f,%f,%f,%f);>;);out;",
		int(c.timeout.Seconds()), driveFilter, b.South, b.West, b.North, b.East)
}

// Graph fetches and decodes the drivable network inside b.
func (c *Client) Graph(ctx context.Context, b model.BBox) (*graph.RoadGraph, error) {
	start := time.Now()
	g, err := c.graph(ctx, b)
	metrics.GraphFetchDuration.WithLabelValues(c.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GraphFetches.WithLabelValues(c.Name(), "error").Inc()
		return nil, err
	}
	metrics.GraphFetches.WithLabelValues(c.Name(), "ok").Inc()
	metrics.GraphNodes.Observe(float64(g.NumNodes()))
	return g, nil
}

func (c *Client) graph(ctx context.Context, b model.BBox) (*graph.RoadGraph, error) {
	key := payloadKey(b)
	data, cached, err := c.fetch(ctx, b, key)
	if err != nil {
		return nil, err
	}

	g, err := Decode(data, b)
	if err == nil || !cached {
		return g, err
	}

	// The cached payload is corrupt: drop it and ask Overpass again.
	slog.WarnContext(ctx, "cached payload does not decode, refetching", "key", key, "error", err)
	if err := c.cache.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "payload cache delete failed", "key", key, "error", err)
	}
	data, err = c.post(ctx, c.Query(b))
	if err != nil {
		return nil, err
	}
	g, err = Decode(data, b)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, data)
	return g, nil
}

// Fetch returns the raw Overpass XML for b, going through the payload cache
// when one is configured.
func (c *Client) Fetch(ctx context.Context, b model.BBox) ([]byte, error) {
	data, _, err := c.fetch(ctx, b, payloadKey(b))
	return data, err
}

func (c *Client) fetch(ctx context.Context, b model.BBox, key string) ([]byte, bool, error) {
	if c.cache != nil {
		data, err := c.cache.Get(ctx, key)
		switch {
		case err == nil:
			metrics.CacheHits.WithLabelValues("payload").Inc()
			return data, true, nil
		case errors.Is(err, cache.ErrMiss):
			metrics.CacheMisses.WithLabelValues("payload").Inc()
		default:
			slog.WarnContext(ctx, "payload cache get failed", "key", key, "error", err)
		}
	}

	data, err := c.post(ctx, c.Query(b))
	if err != nil {
		return nil, false, err
	}
	c.store(ctx, key, data)
	return data, false, nil
}

func (c *Client) store(ctx context.Context, key string, data []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
		slog.WarnContext(ctx, "payload cache set failed", "key", key, "error", err)
	}
}

func payloadKey(b model.BBox) string {
	return "overpass:" + geo.Key(b)
}

func (c *Client) post(ctx context.Context, query string) ([]byte, error) {
	op := func() ([]byte, error) {
		form := url.Values{"data": {query}}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("build overpass request: %w", err))
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, fmt.Errorf("overpass request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read overpass response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				slog.WarnContext(ctx, "overpass busy, retrying", "status", resp.StatusCode)
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return body, nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryWait
	eb.MaxElapsedTime = 0

	var policy backoff.BackOff = eb
	if c.maxRetries >= 0 {
		policy = backoff.WithMaxRetries(eb, uint64(c.maxRetries))
	}
	return backoff.RetryWithData(op, backoff.WithContext(policy, ctx))
}

// Decode parses an Overpass XML document into a road graph clipped to b.
// Overpass returns every node of a way that touches the box, so nodes
// outside b are dropped along with the way segments that reach them. Ways
// become edges between consecutive nodes in both directions unless tagged
// one-way. Nodes that end up unconnected are dropped.
func Decode(data []byte, b model.BBox) (*graph.RoadGraph, error) {
	var doc osm.OSM
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode overpass xml: %w", err)
	}

	g := graph.New()
	for _, n := range doc.Nodes {
		if !b.Contains(model.Coordinate{Lat: n.Lat, Lon: n.Lon}) {
			continue
		}
		g.AddNode(model.Node{ID: int64(n.ID), Lat: n.Lat, Lon: n.Lon})
	}

	for _, w := range doc.Ways {
		dir := direction(w.Tags)
		for i := 1; i < len(w.Nodes); i++ {
			a, b := int64(w.Nodes[i-1].ID), int64(w.Nodes[i].ID)
			if _, ok := g.Node(a); !ok {
				continue
			}
			if _, ok := g.Node(b); !ok {
				continue
			}
			if dir >= 0 {
				if err := g.AddEdge(a, b, 0); err != nil {
					return nil, err
				}
			}
			if dir <= 0 {
				if err := g.AddEdge(b, a, 0); err != nil {
					return nil, err
				}
			}
		}
	}

	g.Prune()
	return g, nil
}

// direction is 1 for forward-only ways, -1 for reverse-only and 0 for
// two-way.
func direction(tags osm.Tags) int {
	switch strings.ToLower(tags.Find("oneway")) {
	case "yes", "true", "1":
		return 1
	case "-1", "reverse":
		return -1
	case "no", "false", "0":
		return 0
	}
	switch tags.Find("junction") {
	case "roundabout", "circular":
		return 1
	}
	if tags.Find("highway") == "motorway" {
		return 1
	}
	return 0
}
