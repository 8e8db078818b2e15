package report

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tturner/g5trace/internal/collection"
	"github.com/tturner/g5trace/internal/dissemination"
	"github.com/tturner/g5trace/internal/weather"
)

// Options controls Build.
type Options struct {
	Version       string
	BucketMinutes int
	// Weather enables lookups when non-nil.
	Weather *weather.Client
	// Observe is called after each analysis with its result count.
	Observe func(analysis string, results int, elapsed time.Duration)
	// Now overrides the generation clock.
	Now func() time.Time
}

// Build runs every analysis over c concurrently and assembles the report.
// Analyses only read c and e. Weather failures degrade to NoData results.
func Build(ctx context.Context, c *collection.Collection, e *dissemination.Engine, opts Options) (*AnalysisReport, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	r := &AnalysisReport{
		RunID:         uuid.NewString(),
		GeneratedAt:   FormatTimestamp(now()),
		Version:       opts.Version,
		Source:        c.Source(),
		BucketMinutes: opts.BucketMinutes,
		Statistics:    c.Statistics(),
		Skipped:       len(c.Skipped()),
	}
	if first, last, ok := c.TimeRange(); ok {
		r.FirstSeen, r.LastSeen = &first, &last
	}

	run := func(name string, fn func() int) func() error {
		return func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			n := fn()
			if opts.Observe != nil {
				opts.Observe(name, n, time.Since(start))
			}
			return nil
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(run("timeseries", func() int {
		r.TimeSeries = c.TimeSeries(opts.BucketMinutes)
		return len(r.TimeSeries)
	}))
	g.Go(run("traffic", func() int {
		r.Traffic = TrafficRows(c.TrafficDetail())
		return len(r.Traffic)
	}))
	g.Go(run("dissemination", func() int {
		r.Passages = e.Reconstruct()
		r.HopHistogram = passageHistogram(r.Passages)
		return len(r.Passages)
	}))
	g.Go(run("distance", func() int {
		r.Furthest = FurthestRows(e.FurthestStationDistance())
		r.Distribution = e.DistanceDistribution()
		return r.Distribution.Total
	}))
	if opts.Weather != nil {
		g.Go(run("weather", func() int {
			r.Weather = opts.Weather.Collect(gctx, weather.SamplesFrom(c.Messages()))
			return len(weather.Available(r.Weather))
		}))
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r, nil
}

// TrafficRows flattens per-address counts, busiest first.
func TrafficRows(detail map[string]collection.TrafficCounts) []TrafficRow {
	rows := make([]TrafficRow, 0, len(detail))
	for addr, counts := range detail {
		rows = append(rows, TrafficRow{Address: addr, TrafficCounts: counts})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Address < rows[j].Address
	})
	return rows
}

// FurthestRows orders the furthest distances by station ID.
func FurthestRows(furthest map[int64]int) []StationDistance {
	rows := make([]StationDistance, 0, len(furthest))
	for _, id := range dissemination.SortedStations(furthest) {
		rows = append(rows, StationDistance{StationID: id, DistanceMeters: furthest[id]})
	}
	return rows
}

func passageHistogram(passages []dissemination.Passage) map[int]int {
	out := make(map[int]int)
	for _, p := range passages {
		out[p.HopCount]++
	}
	return out
}
