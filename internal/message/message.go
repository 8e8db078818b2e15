// Package message models decoded ITS-G5 frames as a closed set of kinds:
// plain frames, GeoNetworking packets, CAM beacons and DENM notifications.
//
// A Message carries the shared frame fields plus a payload union selected by
// Kind. Coordinates stay in their wire representation (degrees × 10^7);
// Position converts on the way out and never writes back.
package message

import (
	"strings"
	"time"

	"github.com/tturner/g5trace/internal/geo"
)

// Kind tags the concrete type of a Message.
type Kind uint8

const (
	KindFrame Kind = iota
	KindGeoNetworking
	KindCAM
	KindDENM
)

// Kinds lists every Kind in display order.
var Kinds = []Kind{KindCAM, KindDENM, KindGeoNetworking, KindFrame}

func (k Kind) String() string {
	switch k {
	case KindFrame:
		return "Frame"
	case KindGeoNetworking:
		return "GeoNetworking"
	case KindCAM:
		return "CAM"
	case KindDENM:
		return "DENM"
	}
	return "Unknown"
}

// ParseKind maps a label (case-insensitive) back to a Kind.
func ParseKind(label string) (Kind, bool) {
	for _, k := range []Kind{KindFrame, KindGeoNetworking, KindCAM, KindDENM} {
		if strings.EqualFold(k.String(), label) {
			return k, true
		}
	}
	if strings.EqualFold(label, "geo") || strings.EqualFold(label, "gn") {
		return KindGeoNetworking, true
	}
	return KindFrame, false
}

// BroadcastAddress is the link-layer broadcast identifier.
const BroadcastAddress = "ff:ff:ff:ff:ff:ff"

// Frame holds the link-layer and capture metadata every record carries.
type Frame struct {
	SourceAddress      string
	DestinationAddress string
	ProtocolStack      []string
	RawTime            string
	// CaptureTime is the zero time when RawTime could not be parsed.
	CaptureTime time.Time
	FrameNumber int
	FrameLength int
	EtherType   string
}

// HasTime reports whether the capture time parsed.
func (f Frame) HasTime() bool {
	return !f.CaptureTime.IsZero()
}

// DisplaySource renders the source address, naming broadcast.
func (f Frame) DisplaySource() string {
	return displayAddress(f.SourceAddress)
}

// DisplayDestination renders the destination address, naming broadcast.
func (f Frame) DisplayDestination() string {
	return displayAddress(f.DestinationAddress)
}

func displayAddress(addr string) string {
	if strings.EqualFold(addr, BroadcastAddress) {
		return "Broadcast"
	}
	return addr
}

// GeoNetworking holds the network-layer fields. Positions are 1e7-scaled.
type GeoNetworking struct {
	// HopLimit is the remaining hop count; it drops by one per relay.
	HopLimit        int64
	SourceLatitude  int64
	SourceLongitude int64
	SourceSpeed     int64
	// StationID identifies the last transmitter, not necessarily the originator.
	StationID int64
	// HopSequenceNumber is scoped to one relay hop; 0 when the header omits it.
	HopSequenceNumber int64
}

// Ellipse is a position confidence ellipse.
type Ellipse struct {
	SemiMajor   int64
	SemiMinor   int64
	Orientation int64
}

// Altitude is an altitude reading with its confidence class.
type Altitude struct {
	Value      int64
	Confidence int64
}

// CAM is a cooperative awareness beacon payload.
type CAM struct {
	GenerationDeltaTime int64
	StationType         int64
	Latitude            int64
	Longitude           int64
	Confidence          Ellipse
	Altitude            Altitude
}

// DENM is a decentralized environmental notification payload.
type DENM struct {
	// OriginatingStationID and SequenceNumber together name the logical event.
	OriginatingStationID int64
	SequenceNumber       int64
	DetectionTime        int64
	ReferenceTime        int64
	Latitude             int64
	Longitude            int64
	Confidence           Ellipse
	Altitude             Altitude
	ValidityDuration     int64
	StationType          int64
}

// Message is one classified record. Geo is set for GeoNetworking, CAM and
// DENM kinds; CAM and DENM are set only for their own kind. Messages are
// built once by Classify and treated as immutable afterwards.
type Message struct {
	Kind Kind
	Frame
	Geo  *GeoNetworking
	CAM  *CAM
	DENM *DENM
}

// Position returns the message position in degrees: the source position
// for GeoNetworking, the event position for CAM and DENM. Plain frames have
// none.
func (m Message) Position() (geo.Position, bool) {
	switch m.Kind {
	case KindCAM:
		return geo.FromFixed(m.CAM.Latitude, m.CAM.Longitude), true
	case KindDENM:
		return geo.FromFixed(m.DENM.Latitude, m.DENM.Longitude), true
	case KindGeoNetworking:
		return geo.FromFixed(m.Geo.SourceLatitude, m.Geo.SourceLongitude), true
	}
	return geo.Position{}, false
}

// SourcePosition returns the GeoNetworking source position in degrees.
func (m Message) SourcePosition() (geo.Position, bool) {
	if m.Geo == nil {
		return geo.Position{}, false
	}
	return geo.FromFixed(m.Geo.SourceLatitude, m.Geo.SourceLongitude), true
}
