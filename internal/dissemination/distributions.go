package dissemination

import "github.com/tturner/g5trace/internal/message"

// EventHops is a per-event hop figure with the relays that carried it.
type EventHops struct {
	Event    EventKey      `json:"event"`
	HopCount int           `json:"hop_count"`
	Details  map[int64]int `json:"passage_details"`
	Path     []int64       `json:"passage_path,omitempty"`
}

// HopsDistribution counts, per event, the distinct hop limits over every
// transmission without deduplication. Results are grouped by originating
// station.
func (e *Engine) HopsDistribution() map[int64][]EventHops {
	return e.distribution(func(key EventKey, group []message.Message) EventHops {
		h := EventHops{Event: key, Details: make(map[int64]int), Path: []int64{}}
		seen := make(map[int64]bool)
		for _, m := range group {
			if seen[m.Geo.HopLimit] {
				continue
			}
			seen[m.Geo.HopLimit] = true
			h.HopCount++
			if relay, ok := e.StationByAddress(m.SourceAddress); ok {
				h.Details[relay]++
				h.Path = append(h.Path, relay)
			}
		}
		return h
	})
}

// ReceptionDistribution reports, per event, the number of distinct hop
// sequence numbers minus one.
func (e *Engine) ReceptionDistribution() map[int64][]EventHops {
	return e.distribution(func(key EventKey, group []message.Message) EventHops {
		kept := dedupe(group)
		return EventHops{Event: key, HopCount: len(kept) - 1, Details: e.relayCounts(kept)}
	})
}

// RepetitionDistribution reports, per event, the number of transmissions
// minus one.
func (e *Engine) RepetitionDistribution() map[int64][]EventHops {
	return e.distribution(func(key EventKey, group []message.Message) EventHops {
		return EventHops{Event: key, HopCount: len(group) - 1, Details: e.relayCounts(group)}
	})
}

func (e *Engine) distribution(summarize func(EventKey, []message.Message) EventHops) map[int64][]EventHops {
	out := make(map[int64][]EventHops)
	for _, key := range e.events {
		out[key.OriginatingStationID] = append(out[key.OriginatingStationID], summarize(key, e.byEvent[key]))
	}
	return out
}

func (e *Engine) relayCounts(group []message.Message) map[int64]int {
	out := make(map[int64]int)
	for _, m := range group {
		if relay, ok := e.StationByAddress(m.SourceAddress); ok {
			out[relay]++
		}
	}
	return out
}

// HopHistogram counts events per hop count across all stations.
func HopHistogram(dist map[int64][]EventHops) map[int]int {
	out := make(map[int]int)
	for _, events := range dist {
		for _, ev := range events {
			out[ev.HopCount]++
		}
	}
	return out
}
