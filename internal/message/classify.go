package message

import (
	"strconv"
	"strings"
)

// Namespaces and markers of the tshark ITS-G5 dissectors.
const (
	nsFrame = "frame"
	nsEth   = "eth"
	nsGN    = "gnw"
	nsITS   = "its"

	camPayload  = "cam.CamPayload_element"
	denmPayload = "denm.DenmPayload_element"
)

// geoStack is the protocol sequence of GeoNetworking over basic transport
// carrying an ITS application payload.
var geoStack = []string{"eth", "ethertype", "gnw", "btpb", "its"}

// Alternate header variants carrying the source position and hop sequence
// number: GeoBroadcast first, then topologically-scoped broadcast.
var geoHeaderVariants = []string{"geonw.gbc", "geonw.tsb"}

// Classify turns one decoded record into a Message. It is pure and total:
// every record is a Frame, GeoNetworking, CAM or DENM, or fails with a
// *errors.MalformedRecordError naming the missing field.
func Classify(tree Tree) (Message, error) {
	frame, err := parseFrame(tree)
	if err != nil {
		return Message{}, err
	}
	return classifyKind(tree, frame)
}

func classifyKind(tree Tree, frame Frame) (Message, error) {
	kind := detectKind(tree, frame.ProtocolStack)
	msg := Message{Kind: kind, Frame: frame}
	if kind == KindFrame {
		return msg, nil
	}

	r := newFieldReader(tree, kind)
	r.state.frame = strconv.Itoa(frame.FrameNumber)

	msg.Geo = parseGeoNetworking(r)
	switch kind {
	case KindCAM:
		msg.CAM = parseCAM(r)
	case KindDENM:
		msg.DENM = parseDENM(r)
	}
	if err := r.Err(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// detectKind is the classification decision procedure.
func detectKind(tree Tree, stack []string) Kind {
	if !containsSequence(stack, geoStack) {
		return KindFrame
	}
	switch {
	case tree.Has(nsITS, camPayload):
		return KindCAM
	case tree.Has(nsITS, denmPayload):
		return KindDENM
	default:
		return KindGeoNetworking
	}
}

func containsSequence(stack, seq []string) bool {
	if len(seq) == 0 {
		return true
	}
	for i := 0; i+len(seq) <= len(stack); i++ {
		match := true
		for j := range seq {
			if !strings.EqualFold(stack[i+j], seq[j]) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// SplitProtocols splits a frame.protocols value ("eth:ethertype:gnw:...").
func SplitProtocols(protocols string) []string {
	protocols = strings.TrimSpace(protocols)
	if protocols == "" {
		return nil
	}
	return strings.Split(protocols, ":")
}

func parseFrame(tree Tree) (Frame, error) {
	r := newFieldReader(tree, KindFrame)
	if v, ok := tree.Lookup(nsFrame, "frame.number"); ok {
		if s, ok := firstStringValue(v); ok {
			r.state.frame = s
		}
	}

	f := Frame{
		SourceAddress:      r.str(nsEth, "eth.src"),
		DestinationAddress: r.str(nsEth, "eth.dst"),
		ProtocolStack:      SplitProtocols(r.str(nsFrame, "frame.protocols")),
		RawTime:            r.str(nsFrame, "frame.time"),
		FrameNumber:        int(r.int(nsFrame, "frame.number")),
		FrameLength:        int(r.int(nsFrame, "frame.len")),
		EtherType:          r.str(nsEth, "eth.type"),
	}
	if err := r.Err(); err != nil {
		return Frame{}, err
	}
	// An unparsable time leaves the zero sentinel; the record is kept.
	f.CaptureTime, _ = ParseCaptureTime(f.RawTime)
	return f, nil
}

func parseGeoNetworking(r *fieldReader) *GeoNetworking {
	g := &GeoNetworking{
		HopLimit:  r.int(nsGN, "geonw.bh", "geonw.bh.rhl"),
		StationID: r.int(nsITS, "its.ItsPduHeader_element", "its.stationId"),
	}

	variant := geoHeaderVariants[0]
	for _, v := range geoHeaderVariants {
		if r.tree.Has(nsGN, v, "geonw.src_pos_tree") {
			variant = v
			break
		}
	}
	pos := r.within(nsGN, variant, "geonw.src_pos_tree")
	g.SourceLatitude = pos.int("geonw.src_pos.lat")
	g.SourceLongitude = pos.int("geonw.src_pos.long")
	g.SourceSpeed = pos.int("geonw.src_pos.speed")

	for _, v := range geoHeaderVariants {
		path := []string{nsGN, v, "geonw.seq_num"}
		if raw, ok := r.tree.Lookup(path...); ok {
			n, err := parseInt(raw)
			if err != nil {
				r.fail(r.full(path), err.Error())
			}
			g.HopSequenceNumber = n
			break
		}
	}
	return g
}

func parseCAM(r *fieldReader) *CAM {
	payload := r.within(nsITS, camPayload)
	basic := payload.within("cam.camParameters_element", "cam.basicContainer_element")
	ref := basic.within("its.referencePosition_element")
	ellipse := ref.within("its.positionConfidenceEllipse_element")
	alt := ref.within("its.altitude_element")

	return &CAM{
		GenerationDeltaTime: payload.int("cam.generationDeltaTime"),
		StationType:         basic.int("its.stationType"),
		Latitude:            ref.int("its.latitude"),
		Longitude:           ref.int("its.longitude"),
		Confidence: Ellipse{
			SemiMajor:   ellipse.int("its.semiMajorAxisLength"),
			SemiMinor:   ellipse.int("its.semiMinorAxisLength"),
			Orientation: ellipse.int("its.semiMajorAxisOrientation"),
		},
		Altitude: Altitude{
			Value:      alt.int("its.altitudeValue"),
			Confidence: alt.int("its.altitudeConfidence"),
		},
	}
}

func parseDENM(r *fieldReader) *DENM {
	mgmt := r.within(nsITS, denmPayload, "denm.management_element")
	action := mgmt.within("denm.actionId_element")
	event := mgmt.within("denm.eventPosition_element")
	ellipse := event.within("its.positionConfidenceEllipse_element")
	alt := event.within("its.altitude_element")

	return &DENM{
		OriginatingStationID: action.int("its.originatingStationId"),
		SequenceNumber:       action.int("its.sequenceNumber"),
		DetectionTime:        mgmt.int("denm.detectionTime"),
		ReferenceTime:        mgmt.int("denm.referenceTime"),
		Latitude:             event.int("its.latitude"),
		Longitude:            event.int("its.longitude"),
		Confidence: Ellipse{
			SemiMajor:   ellipse.int("its.semiMajorConfidence"),
			SemiMinor:   ellipse.int("its.semiMinorConfidence"),
			Orientation: ellipse.int("its.semiMajorOrientation"),
		},
		Altitude: Altitude{
			Value:      alt.int("its.altitudeValue"),
			Confidence: alt.int("its.altitudeConfidence"),
		},
		ValidityDuration: mgmt.int("denm.validityDuration"),
		StationType:      mgmt.int("denm.stationType"),
	}
}
