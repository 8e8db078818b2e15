package dissemination

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tturner/g5trace/internal/geo"
	"github.com/tturner/g5trace/internal/message"
)

// DistanceSample is one DENM correlated with the closest-in-time CAM of its
// originating station.
type DistanceSample struct {
	FrameNumber    int          `json:"frame_number"`
	StationID      int64        `json:"station_id"`
	EventPosition  geo.Position `json:"event_position"`
	CAMPosition    geo.Position `json:"cam_position"`
	Time           time.Time    `json:"time"`
	DistanceMeters float64      `json:"distance_meters"`
}

// Bucket is one half-open distance range [Lower, Upper) in metres.
type Bucket struct {
	Label      string        `json:"label"`
	Lower      float64       `json:"lower"`
	Upper      float64       `json:"upper"`
	Count      int           `json:"count"`
	Percentage float64       `json:"percentage"`
	Stations   map[int64]int `json:"stations"`
}

// Distribution is the distance histogram over all matched samples.
type Distribution struct {
	Total   int      `json:"total"`
	Width   float64  `json:"width"`
	Buckets []Bucket `json:"buckets"`
}

// DistanceSamples correlates every DENM with the CAM of the station named by
// its originating station ID captured closest in time. Ties keep the first
// CAM in capture order. DENMs without a valid time or without any CAM from
// their originator yield no sample.
//
// This correlation keys CAMs by station ID; per-hop reconstruction keys them
// by station type. The two are distinct analyses.
func (e *Engine) DistanceSamples() []DistanceSample {
	var out []DistanceSample
	for _, m := range e.denms {
		if s, ok := e.closestInTime(m); ok {
			out = append(out, s)
		}
	}
	return out
}

func (e *Engine) closestInTime(m message.Message) (DistanceSample, bool) {
	if !m.HasTime() {
		return DistanceSample{}, false
	}
	var best *camSample
	var bestDiff time.Duration
	candidates := e.camsByStation[m.DENM.OriginatingStationID]
	for i := range candidates {
		c := &candidates[i]
		diff := absDuration(m.CaptureTime.Sub(c.at))
		if best == nil || diff < bestDiff {
			best, bestDiff = c, diff
		}
	}
	if best == nil {
		return DistanceSample{}, false
	}
	event := geo.FromFixed(m.DENM.Latitude, m.DENM.Longitude)
	return DistanceSample{
		FrameNumber:    m.FrameNumber,
		StationID:      m.DENM.OriginatingStationID,
		EventPosition:  event,
		CAMPosition:    best.pos,
		Time:           m.CaptureTime,
		DistanceMeters: geo.HaversineMeters(event, best.pos),
	}, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// FurthestStationDistance returns, per originating station, the largest
// DENM-to-CAM distance in whole metres. Stations with DENMs but no match
// report 0.
func (e *Engine) FurthestStationDistance() map[int64]int {
	out := make(map[int64]int)
	for _, m := range e.denms {
		if _, ok := out[m.DENM.OriginatingStationID]; !ok {
			out[m.DENM.OriginatingStationID] = 0
		}
	}
	for _, s := range e.DistanceSamples() {
		if d := int(math.Round(s.DistanceMeters)); d > out[s.StationID] {
			out[s.StationID] = d
		}
	}
	return out
}

// DistanceDistribution buckets every distance sample into fixed-width
// half-open ranges from 0 up to the first boundary above the largest
// distance, so every sample falls into exactly one bucket.
func (e *Engine) DistanceDistribution() Distribution {
	return bucketize(e.DistanceSamples(), e.bucketWidth)
}

func bucketize(samples []DistanceSample, width float64) Distribution {
	dist := Distribution{Total: len(samples), Width: width, Buckets: []Bucket{}}
	if len(samples) == 0 {
		return dist
	}

	maxDistance := 0.0
	for _, s := range samples {
		maxDistance = math.Max(maxDistance, s.DistanceMeters)
	}
	n := int(math.Floor(maxDistance/width)) + 1
	dist.Buckets = make([]Bucket, n)
	for i := range dist.Buckets {
		lo, hi := float64(i)*width, float64(i+1)*width
		dist.Buckets[i] = Bucket{
			Label:    fmt.Sprintf("%.0f-%.0f", lo, hi),
			Lower:    lo,
			Upper:    hi,
			Stations: make(map[int64]int),
		}
	}
	for _, s := range samples {
		i := int(math.Floor(s.DistanceMeters / width))
		if i >= n {
			i = n - 1
		}
		dist.Buckets[i].Count++
		dist.Buckets[i].Stations[s.StationID]++
	}
	for i := range dist.Buckets {
		dist.Buckets[i].Percentage = float64(dist.Buckets[i].Count) / float64(dist.Total) * 100
	}
	return dist
}

// NonEmpty returns the buckets holding at least one sample.
func (d Distribution) NonEmpty() []Bucket {
	var out []Bucket
	for _, b := range d.Buckets {
		if b.Count > 0 {
			out = append(out, b)
		}
	}
	return out
}

// SortedStations returns the station IDs of m in ascending order.
func SortedStations(m map[int64]int) []int64 {
	out := make([]int64, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
