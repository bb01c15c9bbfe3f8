// Package bench drives closed-loop load against a routeserver: every client
// goroutine sends its next /route request as soon as the previous one returns.
package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/atharv3903/routemap/internal/model"
)

type Options struct {
	Server   string
	Clients  int
	Duration time.Duration
	Origin   model.Coordinate
	Targets  []model.Coordinate
	HTTP     *http.Client
}

type Result struct {
	Clients    int
	Requests   int64
	Errors     int64
	CacheHits  int64
	AvgMs      float64
	P50Ms      float64
	P95Ms      float64
	P99Ms      float64
	Throughput float64
}

// Header is the CSV column order of Result.Record.
var Header = []string{"clients", "requests", "errors", "cache_hits", "avg_ms", "p50_ms", "p95_ms", "p99_ms", "throughput_rps"}

func (r Result) Record() []string {
	return []string{
		fmt.Sprint(r.Clients),
		fmt.Sprint(r.Requests),
		fmt.Sprint(r.Errors),
		fmt.Sprint(r.CacheHits),
		fmt.Sprintf("%.2f", r.AvgMs),
		fmt.Sprintf("%.2f", r.P50Ms),
		fmt.Sprintf("%.2f", r.P95Ms),
		fmt.Sprintf("%.2f", r.P99Ms),
		fmt.Sprintf("%.2f", r.Throughput),
	}
}

// Run keeps opts.Clients workers busy for opts.Duration, each requesting the
// path from the origin to a random target.
func Run(ctx context.Context, opts Options) (Result, error) {
	if len(opts.Targets) == 0 {
		return Result{}, fmt.Errorf("bench: no targets")
	}
	if opts.Clients <= 0 {
		opts.Clients = 1
	}
	client := opts.HTTP
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        500,
				MaxIdleConnsPerHost: 500,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: 5 * time.Minute,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Duration)
	defer cancel()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		latencies []time.Duration
		res       = Result{Clients: opts.Clients}
	)

	start := time.Now()
	for w := 0; w < opts.Clients; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))

			for ctx.Err() == nil {
				t := opts.Targets[rng.Intn(len(opts.Targets))]

				begin := time.Now()
				hit, err := route(ctx, client, opts.Server, opts.Origin, t)
				lat := time.Since(begin)

				if ctx.Err() != nil {
					// Requests cut off by the deadline are not counted.
					return
				}

				mu.Lock()
				res.Requests++
				if err != nil {
					res.Errors++
				} else {
					latencies = append(latencies, lat)
					if hit {
						res.CacheHits++
					}
				}
				mu.Unlock()
			}
		}(time.Now().UnixNano() + int64(w))
	}
	wg.Wait()

	elapsed := time.Since(start)
	res.AvgMs = average(latencies)
	res.P50Ms, res.P95Ms, res.P99Ms = percentiles(latencies)
	res.Throughput = float64(res.Requests) / elapsed.Seconds()
	return res, nil
}

func route(ctx context.Context, client *http.Client, server string, from, to model.Coordinate) (bool, error) {
	q := url.Values{
		"from": {fmt.Sprintf("%f,%f", from.Lat, from.Lon)},
		"to":   {fmt.Sprintf("%f,%f", to.Lat, to.Lon)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server+"/route?"+q.Encode(), nil)
	if err != nil {
		return false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("status %d", resp.StatusCode)
	}
	var rr model.RouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return false, err
	}
	return rr.CacheHit, nil
}

func average(l []time.Duration) float64 {
	if len(l) == 0 {
		return 0
	}
	var sum time.Duration
	for _, x := range l {
		sum += x
	}
	return ms(sum) / float64(len(l))
}

func percentiles(l []time.Duration) (p50, p95, p99 float64) {
	if len(l) == 0 {
		return 0, 0, 0
	}
	tmp := make([]time.Duration, len(l))
	copy(tmp, l)
	sort.Slice(tmp, func(i, j int) bool { return tmp[i] < tmp[j] })

	idx := func(p float64) int {
		i := int(float64(len(tmp)) * p)
		if i >= len(tmp) {
			i = len(tmp) - 1
		}
		return i
	}
	return ms(tmp[idx(0.50)]), ms(tmp[idx(0.95)]), ms(tmp[idx(0.99)])
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
