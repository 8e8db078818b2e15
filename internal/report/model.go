package report

import (
	"time"

	"github.com/tturner/g5trace/internal/collection"
	"github.com/tturner/g5trace/internal/dissemination"
	"github.com/tturner/g5trace/internal/weather"
)

// AnalysisReport bundles every analysis over one capture export.
type AnalysisReport struct {
	RunID         string `json:"run_id"`
	GeneratedAt   string `json:"generated_at"`
	Version       string `json:"g5trace_version,omitempty"`
	Source        string `json:"source"`
	BucketMinutes int    `json:"bucket_minutes"`

	Statistics collection.Statistics `json:"statistics"`
	Skipped    int                   `json:"skipped"`
	FirstSeen  *time.Time            `json:"first_seen,omitempty"`
	LastSeen   *time.Time            `json:"last_seen,omitempty"`

	TimeSeries   []collection.TimeBucket    `json:"time_series"`
	Traffic      []TrafficRow               `json:"traffic"`
	Passages     []dissemination.Passage    `json:"passages"`
	HopHistogram map[int]int                `json:"hop_histogram"`
	Furthest     []StationDistance          `json:"furthest_station_distance"`
	Distribution dissemination.Distribution `json:"distance_distribution"`
	Weather      []weather.Result           `json:"weather,omitempty"`
}

// TrafficRow is one source address with its per-kind counts.
type TrafficRow struct {
	Address string `json:"address"`
	collection.TrafficCounts
}

// StationDistance is the furthest DENM-to-CAM distance of one station.
type StationDistance struct {
	StationID      int64 `json:"station_id"`
	DistanceMeters int   `json:"distance_meters"`
}
