// Package dissemination reconstructs how DENM events travelled through a
// capture: which relays forwarded each logical event, how many hops it made,
// and how far from its origin it was still heard near a beaconing station.
//
// An Engine indexes one collection once and then answers any number of
// read-only analyses. Coordinates are converted to degrees into the
// engine's own index; the source messages are never modified.
package dissemination

import (
	"time"

	"github.com/tturner/g5trace/internal/geo"
	"github.com/tturner/g5trace/internal/message"
)

// Defaults for the correlation window and the distance histogram.
const (
	DefaultWindow      = 60 * time.Second
	DefaultBucketWidth = 200.0 // metres
)

// Source provides messages in capture order. *collection.Collection
// satisfies it.
type Source interface {
	Messages() []message.Message
}

// EventKey names one logical DENM event.
type EventKey struct {
	OriginatingStationID int64 `json:"originating_station_id"`
	SequenceNumber       int64 `json:"sequence_number"`
}

// camSample is a CAM with its converted position. Only CAMs with a valid
// capture time are indexed.
type camSample struct {
	frame       int
	stationID   int64
	stationType int64
	at          time.Time
	pos         geo.Position
}

// Engine holds the indexes shared by every analysis.
type Engine struct {
	window      time.Duration
	bucketWidth float64

	denms         []message.Message
	events        []EventKey // in order of first appearance
	byEvent       map[EventKey][]message.Message
	camsByType    map[int64][]camSample
	camsByStation map[int64][]camSample
	// stationByMAC resolves a link-layer address to the station ID of the
	// first CAM sent from it.
	stationByMAC map[string]int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithWindow sets the half-width of the per-hop CAM correlation window.
func WithWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.window = d
		}
	}
}

// WithBucketWidth sets the distance histogram bucket width in metres.
func WithBucketWidth(meters float64) Option {
	return func(e *Engine) {
		if meters > 0 {
			e.bucketWidth = meters
		}
	}
}

// New indexes src.
func New(src Source, opts ...Option) *Engine {
	e := &Engine{
		window:        DefaultWindow,
		bucketWidth:   DefaultBucketWidth,
		byEvent:       make(map[EventKey][]message.Message),
		camsByType:    make(map[int64][]camSample),
		camsByStation: make(map[int64][]camSample),
		stationByMAC:  make(map[string]int64),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, m := range src.Messages() {
		switch m.Kind {
		case message.KindCAM:
			if _, ok := e.stationByMAC[m.SourceAddress]; !ok {
				e.stationByMAC[m.SourceAddress] = m.Geo.StationID
			}
			if !m.HasTime() {
				continue
			}
			s := camSample{
				frame:       m.FrameNumber,
				stationID:   m.Geo.StationID,
				stationType: m.CAM.StationType,
				at:          m.CaptureTime,
				pos:         geo.FromFixed(m.CAM.Latitude, m.CAM.Longitude),
			}
			e.camsByType[s.stationType] = append(e.camsByType[s.stationType], s)
			e.camsByStation[s.stationID] = append(e.camsByStation[s.stationID], s)
		case message.KindDENM:
			e.denms = append(e.denms, m)
			key := keyOf(m)
			if _, ok := e.byEvent[key]; !ok {
				e.events = append(e.events, key)
			}
			e.byEvent[key] = append(e.byEvent[key], m)
		}
	}
	return e
}

func keyOf(m message.Message) EventKey {
	return EventKey{OriginatingStationID: m.DENM.OriginatingStationID, SequenceNumber: m.DENM.SequenceNumber}
}

// Window returns the correlation window half-width.
func (e *Engine) Window() time.Duration { return e.window }

// BucketWidth returns the distance histogram bucket width in metres.
func (e *Engine) BucketWidth() float64 { return e.bucketWidth }

// Events returns the logical events in order of first appearance.
func (e *Engine) Events() []EventKey {
	out := make([]EventKey, len(e.events))
	copy(out, e.events)
	return out
}

// StationByAddress resolves a link-layer address to the station ID of the
// first CAM sent from it.
func (e *Engine) StationByAddress(addr string) (int64, bool) {
	id, ok := e.stationByMAC[addr]
	// Station ID 0 marks an unconfigured transmitter, not a relay.
	return id, ok && id != 0
}

// selectedEvents returns the events whose originating station is in
// stations, or all events when stations is empty.
func (e *Engine) selectedEvents(stations []int64) []EventKey {
	if len(stations) == 0 {
		return e.events
	}
	keep := make(map[int64]bool, len(stations))
	for _, s := range stations {
		keep[s] = true
	}
	var out []EventKey
	for _, k := range e.events {
		if keep[k.OriginatingStationID] {
			out = append(out, k)
		}
	}
	return out
}

// dedupe keeps the first transmission of each hop sequence number.
func dedupe(group []message.Message) []message.Message {
	seen := make(map[int64]bool, len(group))
	out := make([]message.Message, 0, len(group))
	for _, m := range group {
		if seen[m.Geo.HopSequenceNumber] {
			continue
		}
		seen[m.Geo.HopSequenceNumber] = true
		out = append(out, m)
	}
	return out
}
