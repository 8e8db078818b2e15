package dissemination

import (
	"time"

	"github.com/tturner/g5trace/internal/geo"
	"github.com/tturner/g5trace/internal/message"
)

// CAMMatch is the beacon correlated with one DENM hop.
type CAMMatch struct {
	FrameNumber    int          `json:"frame_number"`
	StationID      int64        `json:"station_id"`
	Position       geo.Position `json:"position"`
	DistanceMeters float64      `json:"distance_meters"`
}

// Hop is one counted relay hop of a logical event.
type Hop struct {
	FrameNumber       int       `json:"frame_number"`
	Time              time.Time `json:"time"`
	SourceAddress     string    `json:"source_address"`
	HopLimit          int64     `json:"hop_limit"`
	HopSequenceNumber int64     `json:"hop_sequence_number"`
	// Relay is the resolved relaying station; zero unless RelayResolved.
	Relay         int64 `json:"relay,omitempty"`
	RelayResolved bool  `json:"relay_resolved"`
	// Match is nil when no CAM of the event's station type was captured
	// within the window.
	Match *CAMMatch `json:"match,omitempty"`
	// HopCount and PassagePath are the running totals up to this hop.
	HopCount    int     `json:"hop_count"`
	PassagePath []int64 `json:"passage_path"`
}

// Passage is the reconstructed dissemination of one logical event.
type Passage struct {
	Event    EventKey `json:"event"`
	HopCount int      `json:"hop_count"`
	// Path lists the resolved relays of the counted hops in capture order.
	Path []int64 `json:"passage_path"`
	// Details counts, per resolved relay, the counted hops it transmitted.
	Details map[int64]int `json:"passage_details"`
	Hops    []Hop         `json:"hops"`
}

// Reconstruct rebuilds the passage of every logical event, optionally
// restricted to events originated by stations. Passages are ordered by the
// first appearance of their event; events with no kept hops are omitted.
//
// Transmissions sharing a hop sequence number are capture duplicates; the
// first one is kept. A kept hop counts when its hop limit has not been seen
// before in the event. Hop limits strictly decrease along a path, so repeated
// values are retransmissions at the same hop; a path that legitimately
// revisits a hop limit is undercounted.
func (e *Engine) Reconstruct(stations ...int64) []Passage {
	var out []Passage
	for _, key := range e.selectedEvents(stations) {
		if p, ok := e.reconstructEvent(key); ok {
			out = append(out, p)
		}
	}
	return out
}

// ByEvent returns the counted hops of each logical event.
func (e *Engine) ByEvent(stations ...int64) map[EventKey][]Hop {
	out := make(map[EventKey][]Hop)
	for _, p := range e.Reconstruct(stations...) {
		out[p.Event] = p.Hops
	}
	return out
}

func (e *Engine) reconstructEvent(key EventKey) (Passage, bool) {
	kept := dedupe(e.byEvent[key])
	if len(kept) == 0 {
		return Passage{}, false
	}

	p := Passage{
		Event:   key,
		Path:    []int64{},
		Details: make(map[int64]int),
	}
	seenLimits := make(map[int64]bool)
	for _, m := range kept {
		if seenLimits[m.Geo.HopLimit] {
			continue
		}
		seenLimits[m.Geo.HopLimit] = true
		p.HopCount++

		hop := Hop{
			FrameNumber:       m.FrameNumber,
			Time:              m.CaptureTime,
			SourceAddress:     m.SourceAddress,
			HopLimit:          m.Geo.HopLimit,
			HopSequenceNumber: m.Geo.HopSequenceNumber,
		}
		if relay, ok := e.StationByAddress(m.SourceAddress); ok {
			hop.Relay = relay
			hop.RelayResolved = true
			p.Path = append(p.Path, relay)
			p.Details[relay]++
		}
		hop.Match = e.matchInWindow(m)
		hop.HopCount = p.HopCount
		hop.PassagePath = append([]int64(nil), p.Path...)
		p.Hops = append(p.Hops, hop)
	}
	return p, true
}

// matchInWindow finds the CAM of the DENM's station type, captured within
// the window around the DENM, closest to the event position. Ties keep the
// first CAM in capture order.
func (e *Engine) matchInWindow(m message.Message) *CAMMatch {
	if !m.HasTime() {
		return nil
	}
	event := geo.FromFixed(m.DENM.Latitude, m.DENM.Longitude)
	from, to := m.CaptureTime.Add(-e.window), m.CaptureTime.Add(e.window)

	var best *camSample
	bestDistance := 0.0
	candidates := e.camsByType[m.DENM.StationType]
	for i := range candidates {
		c := &candidates[i]
		if c.at.Before(from) || c.at.After(to) {
			continue
		}
		d := geo.HaversineMeters(event, c.pos)
		if best == nil || d < bestDistance {
			best, bestDistance = c, d
		}
	}
	if best == nil {
		return nil
	}
	return &CAMMatch{
		FrameNumber:    best.frame,
		StationID:      best.stationID,
		Position:       best.pos,
		DistanceMeters: bestDistance,
	}
}
