package collection

import (
	"sort"
	"time"

	"github.com/tturner/g5trace/internal/message"
)

// TimeBucket counts messages captured in one bucket.
type TimeBucket struct {
	Start time.Time `json:"start"`
	CAM   int       `json:"cam"`
	DENM  int       `json:"denm"`
	Other int       `json:"other"`
}

// TrafficCounts splits one address's traffic by kind.
type TrafficCounts struct {
	Total int `json:"total"`
	CAM   int `json:"cam"`
	DENM  int `json:"denm"`
	Other int `json:"other"`
}

// BucketStart rounds t down to a bucketMinutes boundary within its hour,
// zeroing seconds and sub-seconds. A width of 60 or more yields hourly
// buckets.
func BucketStart(t time.Time, bucketMinutes int) time.Time {
	if bucketMinutes < 1 {
		bucketMinutes = 1
	}
	minute := (t.Minute() / bucketMinutes) * bucketMinutes
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minute, 0, 0, t.Location())
}

// TimeSeries counts messages per kind per bucket, sorted by bucket start.
// Messages without a valid capture time are left out.
func (c *Collection) TimeSeries(bucketMinutes int) []TimeBucket {
	// Keyed by instant: zone abbreviations parse to a fresh Location each
	// time, so equal starts are not equal map keys.
	buckets := make(map[int64]*TimeBucket)
	for _, m := range c.messages {
		if !m.HasTime() {
			continue
		}
		start := BucketStart(m.CaptureTime, bucketMinutes)
		b, ok := buckets[start.Unix()]
		if !ok {
			b = &TimeBucket{Start: start}
			buckets[start.Unix()] = b
		}
		switch m.Kind {
		case message.KindCAM:
			b.CAM++
		case message.KindDENM:
			b.DENM++
		default:
			b.Other++
		}
	}

	out := make([]TimeBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// TrafficBySource counts messages per source address.
func (c *Collection) TrafficBySource() map[string]int {
	out := make(map[string]int)
	for _, m := range c.messages {
		out[m.SourceAddress]++
	}
	return out
}

// TrafficByDestination counts messages per destination address.
func (c *Collection) TrafficByDestination() map[string]int {
	out := make(map[string]int)
	for _, m := range c.messages {
		out[m.DestinationAddress]++
	}
	return out
}

// TrafficDetail splits each source address's traffic by kind.
func (c *Collection) TrafficDetail() map[string]TrafficCounts {
	out := make(map[string]TrafficCounts)
	for _, m := range c.messages {
		tc := out[m.SourceAddress]
		tc.Total++
		switch m.Kind {
		case message.KindCAM:
			tc.CAM++
		case message.KindDENM:
			tc.DENM++
		default:
			tc.Other++
		}
		out[m.SourceAddress] = tc
	}
	return out
}

// SortedAddresses returns the keys of a traffic map by descending count,
// then address.
func SortedAddresses(traffic map[string]int) []string {
	out := make([]string, 0, len(traffic))
	for addr := range traffic {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		if traffic[out[i]] != traffic[out[j]] {
			return traffic[out[i]] > traffic[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
