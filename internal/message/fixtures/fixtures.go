// Package fixtures builds synthetic ITS-G5 messages and tshark-shaped exports
// for tests.
package fixtures

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tturner/g5trace/internal/message"
)

// Epoch is the capture start used when a builder has no explicit time.
var Epoch = time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

// TimeLayout is the layout tshark uses for frame.time.
const TimeLayout = "Jan _2, 2006 15:04:05.000000000 MST"

var geoStack = []string{"eth", "ethertype", "gnw", "btpb", "its"}

func frame(n int, src, dst string, at time.Time, stack []string) message.Frame {
	f := message.Frame{
		SourceAddress:      src,
		DestinationAddress: dst,
		ProtocolStack:      stack,
		FrameNumber:        n,
		FrameLength:        100,
		EtherType:          "0x8947",
	}
	if !at.IsZero() {
		f.RawTime = at.UTC().Format(TimeLayout)
		f.CaptureTime, _ = message.ParseCaptureTime(f.RawTime)
	} else {
		f.RawTime = "invalid"
	}
	return f
}

// CAMFields describes a synthetic CAM beacon. Lat/Lon are in degrees.
type CAMFields struct {
	Frame       int
	Source      string
	At          time.Time
	StationID   int64
	StationType int64
	Lat, Lon    float64
}

// CAM builds a CAM message from the given fields.
func CAM(s CAMFields) message.Message {
	lat, lon := fixed(s.Lat), fixed(s.Lon)
	return message.Message{
		Kind:  message.KindCAM,
		Frame: frame(s.Frame, s.Source, message.BroadcastAddress, s.At, geoStack),
		Geo: &message.GeoNetworking{
			HopLimit:        1,
			SourceLatitude:  lat,
			SourceLongitude: lon,
			StationID:       s.StationID,
		},
		CAM: &message.CAM{
			GenerationDeltaTime: int64(s.At.Nanosecond()/1e6) % 65536,
			StationType:         s.StationType,
			Latitude:            lat,
			Longitude:           lon,
		},
	}
}

// DENMFields describes one transmission of a DENM event. Lat/Lon are the
// event position in degrees.
type DENMFields struct {
	Frame       int
	Source      string
	At          time.Time
	StationID   int64
	StationType int64
	Origin      int64
	Sequence    int64
	HopSeq      int64
	HopLimit    int64
	Lat, Lon    float64
}

// DENM builds a DENM message from the given fields.
func DENM(s DENMFields) message.Message {
	lat, lon := fixed(s.Lat), fixed(s.Lon)
	return message.Message{
		Kind:  message.KindDENM,
		Frame: frame(s.Frame, s.Source, message.BroadcastAddress, s.At, geoStack),
		Geo: &message.GeoNetworking{
			HopLimit:          s.HopLimit,
			SourceLatitude:    lat,
			SourceLongitude:   lon,
			StationID:         s.StationID,
			HopSequenceNumber: s.HopSeq,
		},
		DENM: &message.DENM{
			OriginatingStationID: s.Origin,
			SequenceNumber:       s.Sequence,
			Latitude:             lat,
			Longitude:            lon,
			ValidityDuration:     600,
			StationType:          s.StationType,
		},
	}
}

// GeoNetworking builds a GeoNetworking message without an ITS payload.
func GeoNetworking(n int, src string, at time.Time, lat, lon float64) message.Message {
	return message.Message{
		Kind:  message.KindGeoNetworking,
		Frame: frame(n, src, message.BroadcastAddress, at, geoStack),
		Geo: &message.GeoNetworking{
			HopLimit:        10,
			SourceLatitude:  fixed(lat),
			SourceLongitude: fixed(lon),
		},
	}
}

// Frame builds a plain frame with the given protocol stack.
func Frame(n int, src, dst string, at time.Time, protocols ...string) message.Message {
	f := frame(n, src, dst, at, protocols)
	f.EtherType = "0x86dd"
	return message.Message{Kind: message.KindFrame, Frame: f}
}

func fixed(deg float64) int64 {
	if deg < 0 {
		return int64(deg*1e7 - 0.5)
	}
	return int64(deg*1e7 + 0.5)
}

// Export renders msgs as a tshark -T json document.
func Export(msgs []message.Message) ([]byte, error) {
	out := make([]map[string]interface{}, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, map[string]interface{}{
			"_index": "packets",
			"_type":  "doc",
			"_score": nil,
			"_source": map[string]interface{}{
				"layers": map[string]interface{}(m.Record()),
			},
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// WriteExport writes msgs as a tshark export under t.TempDir and returns its path.
func WriteExport(t testing.TB, msgs []message.Message) string {
	t.Helper()
	data, err := Export(msgs)
	if err != nil {
		t.Fatalf("export fixtures: %v", err)
	}
	path := filepath.Join(t.TempDir(), "capture.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixtures: %v", err)
	}
	return path
}
