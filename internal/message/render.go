package message

import (
	"fmt"
	"strconv"
	"strings"
)

// ProtocolLabel is the display label of the message type: "CAM", "DENM",
// "GeoNetworking", or the upper-cased last protocol of a plain frame.
func (m Message) ProtocolLabel() string {
	switch m.Kind {
	case KindCAM, KindDENM, KindGeoNetworking:
		return m.Kind.String()
	}
	if len(m.ProtocolStack) == 0 {
		return ""
	}
	return strings.ToUpper(m.ProtocolStack[len(m.ProtocolStack)-1])
}

// Protocols joins the protocol stack the way tshark writes it.
func (f Frame) Protocols() string {
	return strings.Join(f.ProtocolStack, ":")
}

// DisplayTime renders the capture time, or "Invalid date format".
func (f Frame) DisplayTime() string {
	if !f.HasTime() {
		return "Invalid date format"
	}
	return f.CaptureTime.Format("2006-01-02 15:04:05")
}

// Summary is the one-line description searched by the query layer.
func (m Message) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s, To: %s, Protocol: %s, Frame Length: %d, Ethernet Type: %s",
		m.DisplaySource(), m.DisplayDestination(), m.Protocols(), m.FrameLength, strings.ToUpper(m.EtherType))

	if m.Geo != nil {
		g := m.Geo
		fmt.Fprintf(&b, ", RHL: %d, Source Position: (%d, %d), Source Speed: %d, Station ID: %d",
			g.HopLimit, g.SourceLatitude, g.SourceLongitude, g.SourceSpeed, g.StationID)
	}

	switch m.Kind {
	case KindCAM:
		c := m.CAM
		fmt.Fprintf(&b, ", Generation Delta Time: %d, Station Type: %d, Latitude: %d, Longitude: %d, Confidence Ellipse: (%d, %d, %d), Altitude: %d (%d)",
			c.GenerationDeltaTime, c.StationType, c.Latitude, c.Longitude,
			c.Confidence.SemiMajor, c.Confidence.SemiMinor, c.Confidence.Orientation,
			c.Altitude.Value, c.Altitude.Confidence)
	case KindDENM:
		d := m.DENM
		fmt.Fprintf(&b, ", Originating Station ID: %d, Sequence Number: %d, Detection Time: %d, Reference Time: %d, Event Position: (%d, %d), Position Confidence: (%d, %d, %d), Altitude: %d (%d), Validity Duration: %d, Station Type: %d",
			d.OriginatingStationID, d.SequenceNumber, d.DetectionTime, d.ReferenceTime,
			d.Latitude, d.Longitude,
			d.Confidence.SemiMajor, d.Confidence.SemiMinor, d.Confidence.Orientation,
			d.Altitude.Value, d.Altitude.Confidence, d.ValidityDuration, d.StationType)
	}
	return b.String()
}

func (m Message) String() string {
	return fmt.Sprintf("%s(Frame %d, Time: %s, %s)", m.Kind, m.FrameNumber, m.DisplayTime(), m.Summary())
}

// Record renders the message back into the decoded-record namespace, with
// string leaves as tshark writes them. Classify(m.Record()) yields an equal
// message; fields the model does not keep are not reproduced.
func (m Message) Record() Tree {
	t := Tree{}
	t.set(m.SourceAddress, nsEth, "eth.src")
	t.set(m.DestinationAddress, nsEth, "eth.dst")
	t.set(m.EtherType, nsEth, "eth.type")
	t.set(m.Protocols(), nsFrame, "frame.protocols")
	t.set(m.RawTime, nsFrame, "frame.time")
	t.set(strconv.Itoa(m.FrameNumber), nsFrame, "frame.number")
	t.set(strconv.Itoa(m.FrameLength), nsFrame, "frame.len")

	if m.Geo != nil {
		g := m.Geo
		variant := geoHeaderVariants[0]
		t.set(itoa(g.HopLimit), nsGN, "geonw.bh", "geonw.bh.rhl")
		t.set(itoa(g.SourceLatitude), nsGN, variant, "geonw.src_pos_tree", "geonw.src_pos.lat")
		t.set(itoa(g.SourceLongitude), nsGN, variant, "geonw.src_pos_tree", "geonw.src_pos.long")
		t.set(itoa(g.SourceSpeed), nsGN, variant, "geonw.src_pos_tree", "geonw.src_pos.speed")
		t.set(itoa(g.HopSequenceNumber), nsGN, variant, "geonw.seq_num")
		t.set(itoa(g.StationID), nsITS, "its.ItsPduHeader_element", "its.stationId")
	}

	switch m.Kind {
	case KindCAM:
		c := m.CAM
		payload := []string{nsITS, camPayload}
		basic := append(append([]string{}, payload...), "cam.camParameters_element", "cam.basicContainer_element")
		ref := append(append([]string{}, basic...), "its.referencePosition_element")
		ellipse := append(append([]string{}, ref...), "its.positionConfidenceEllipse_element")
		alt := append(append([]string{}, ref...), "its.altitude_element")

		t.set(itoa(c.GenerationDeltaTime), append(payload, "cam.generationDeltaTime")...)
		t.set(itoa(c.StationType), append(basic, "its.stationType")...)
		t.set(itoa(c.Latitude), append(ref, "its.latitude")...)
		t.set(itoa(c.Longitude), append(ref, "its.longitude")...)
		t.set(itoa(c.Confidence.SemiMajor), append(ellipse, "its.semiMajorAxisLength")...)
		t.set(itoa(c.Confidence.SemiMinor), append(ellipse, "its.semiMinorAxisLength")...)
		t.set(itoa(c.Confidence.Orientation), append(ellipse, "its.semiMajorAxisOrientation")...)
		t.set(itoa(c.Altitude.Value), append(alt, "its.altitudeValue")...)
		t.set(itoa(c.Altitude.Confidence), append(alt, "its.altitudeConfidence")...)
	case KindDENM:
		d := m.DENM
		mgmt := []string{nsITS, denmPayload, "denm.management_element"}
		action := append(append([]string{}, mgmt...), "denm.actionId_element")
		event := append(append([]string{}, mgmt...), "denm.eventPosition_element")
		ellipse := append(append([]string{}, event...), "its.positionConfidenceEllipse_element")
		alt := append(append([]string{}, event...), "its.altitude_element")

		t.set(itoa(d.OriginatingStationID), append(action, "its.originatingStationId")...)
		t.set(itoa(d.SequenceNumber), append(action, "its.sequenceNumber")...)
		t.set(itoa(d.DetectionTime), append(mgmt, "denm.detectionTime")...)
		t.set(itoa(d.ReferenceTime), append(mgmt, "denm.referenceTime")...)
		t.set(itoa(d.Latitude), append(event, "its.latitude")...)
		t.set(itoa(d.Longitude), append(event, "its.longitude")...)
		t.set(itoa(d.Confidence.SemiMajor), append(ellipse, "its.semiMajorConfidence")...)
		t.set(itoa(d.Confidence.SemiMinor), append(ellipse, "its.semiMinorConfidence")...)
		t.set(itoa(d.Confidence.Orientation), append(ellipse, "its.semiMajorOrientation")...)
		t.set(itoa(d.Altitude.Value), append(alt, "its.altitudeValue")...)
		t.set(itoa(d.Altitude.Confidence), append(alt, "its.altitudeConfidence")...)
		t.set(itoa(d.ValidityDuration), append(mgmt, "denm.validityDuration")...)
		t.set(itoa(d.StationType), append(mgmt, "denm.stationType")...)
	}
	return t
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
