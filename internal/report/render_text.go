package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tturner/g5trace/internal/collection"
	"github.com/tturner/g5trace/internal/dissemination"
	"github.com/tturner/g5trace/internal/message"
	"github.com/tturner/g5trace/internal/weather"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", sectionStyle.Render(title))
}

// WriteText renders the whole report for a terminal.
func WriteText(w io.Writer, r *AnalysisReport) {
	fmt.Fprintln(w, titleStyle.Render("g5trace analysis: "+r.Source))
	fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("run %s, generated %s", r.RunID, r.GeneratedAt)))
	if r.FirstSeen != nil && r.LastSeen != nil {
		fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("capture %s to %s",
			formatCaptureTime(*r.FirstSeen), formatCaptureTime(*r.LastSeen))))
	}

	section(w, "Statistics")
	WriteStatistics(w, r.Statistics)
	if r.Skipped > 0 {
		fmt.Fprintf(w, "  Skipped records: %d\n", r.Skipped)
	}

	section(w, fmt.Sprintf("Time series (%d min)", r.BucketMinutes))
	WriteTimeSeries(w, r.TimeSeries)

	section(w, "Traffic by source")
	WriteTraffic(w, r.Traffic)

	section(w, "DENM dissemination")
	WritePassages(w, r.Passages, false)
	WriteHopHistogram(w, r.HopHistogram)

	section(w, "Furthest station distance")
	WriteFurthest(w, r.Furthest)

	section(w, "Distance distribution")
	WriteDistribution(w, r.Distribution)

	if len(r.Weather) > 0 {
		section(w, "Weather")
		WriteWeather(w, r.Weather)
	}
}

// WriteStatistics renders per-kind message counts.
func WriteStatistics(w io.Writer, s collection.Statistics) {
	fmt.Fprintf(w, "  Total messages: %d\n", s.Total)
	fmt.Fprintf(w, "  CAM: %d\n", s.CAM)
	fmt.Fprintf(w, "  DENM: %d\n", s.DENM)
	fmt.Fprintf(w, "  GeoNetworking: %d\n", s.GeoNetworking)
	fmt.Fprintf(w, "  Other: %d\n", s.Other)
}

// WriteMessages renders one line per message.
func WriteMessages(w io.Writer, msgs []message.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, "  (no messages)")
		return
	}
	for _, m := range msgs {
		fmt.Fprintf(w, "  %6d  %-23s  %-13s  %s -> %s\n",
			m.FrameNumber, formatCaptureTime(m.CaptureTime), m.ProtocolLabel(),
			m.DisplaySource(), m.DisplayDestination())
	}
}

// WriteTimeSeries renders one line per bucket.
func WriteTimeSeries(w io.Writer, buckets []collection.TimeBucket) {
	if len(buckets) == 0 {
		fmt.Fprintln(w, "  (no timestamped messages)")
		return
	}
	fmt.Fprintf(w, "  %-16s %8s %8s %8s\n", "Start", "CAM", "DENM", "Other")
	for _, b := range buckets {
		fmt.Fprintf(w, "  %-16s %8d %8d %8d\n", b.Start.UTC().Format("2006-01-02 15:04"), b.CAM, b.DENM, b.Other)
	}
}

// WriteTraffic renders per-address counts.
func WriteTraffic(w io.Writer, rows []TrafficRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "  (no traffic)")
		return
	}
	fmt.Fprintf(w, "  %-17s %8s %8s %8s %8s\n", "Address", "Total", "CAM", "DENM", "Other")
	for _, row := range rows {
		fmt.Fprintf(w, "  %-17s %8d %8d %8d %8d\n", row.Address, row.Total, row.CAM, row.DENM, row.Other)
	}
}

// WriteCounts renders an address-to-count map, busiest first.
func WriteCounts(w io.Writer, counts map[string]int) {
	if len(counts) == 0 {
		fmt.Fprintln(w, "  (no traffic)")
		return
	}
	for _, addr := range collection.SortedAddresses(counts) {
		fmt.Fprintf(w, "  %-17s %8d\n", addr, counts[addr])
	}
}

// WritePassages renders one line per event, and every hop when verbose.
func WritePassages(w io.Writer, passages []dissemination.Passage, verbose bool) {
	if len(passages) == 0 {
		fmt.Fprintln(w, "  (no DENM events)")
		return
	}
	for _, p := range passages {
		fmt.Fprintf(w, "  station %d seq %d: %d hop(s), path %s\n",
			p.Event.OriginatingStationID, p.Event.SequenceNumber, p.HopCount, formatPath(p.Path))
		if !verbose {
			continue
		}
		for _, h := range p.Hops {
			relay := "unresolved"
			if h.RelayResolved {
				relay = fmt.Sprintf("%d", h.Relay)
			}
			match := "no CAM in window"
			if h.Match != nil {
				match = fmt.Sprintf("CAM frame %d station %d at %.1f m", h.Match.FrameNumber, h.Match.StationID, h.Match.DistanceMeters)
			}
			fmt.Fprintf(w, "    frame %d rhl %d sn %d from %s (relay %s): %s\n",
				h.FrameNumber, h.HopLimit, h.HopSequenceNumber, h.SourceAddress, relay, match)
		}
	}
}

// WriteHopHistogram renders the number of events per hop count.
func WriteHopHistogram(w io.Writer, histogram map[int]int) {
	if len(histogram) == 0 {
		return
	}
	counts := make([]int, 0, len(histogram))
	for hops := range histogram {
		counts = append(counts, hops)
	}
	sort.Ints(counts)
	fmt.Fprintln(w, "  Hop counts:")
	for _, hops := range counts {
		fmt.Fprintf(w, "    %d hop(s): %d event(s)\n", hops, histogram[hops])
	}
}

// WriteEventHops renders a per-station hop, reception or repetition
// distribution.
func WriteEventHops(w io.Writer, dist map[int64][]dissemination.EventHops) {
	if len(dist) == 0 {
		fmt.Fprintln(w, "  (no DENM events)")
		return
	}
	stations := make([]int64, 0, len(dist))
	for id := range dist {
		stations = append(stations, id)
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i] < stations[j] })
	for _, id := range stations {
		fmt.Fprintf(w, "  station %d\n", id)
		for _, ev := range dist[id] {
			fmt.Fprintf(w, "    seq %d: %d %s\n", ev.Event.SequenceNumber, ev.HopCount, formatDetails(ev.Details))
		}
	}
}

// WriteFurthest renders the furthest distance per station.
func WriteFurthest(w io.Writer, rows []StationDistance) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "  (no originating stations)")
		return
	}
	for _, row := range rows {
		fmt.Fprintf(w, "  station %d: %d m\n", row.StationID, row.DistanceMeters)
	}
}

// WriteDistribution renders non-empty histogram buckets.
func WriteDistribution(w io.Writer, d dissemination.Distribution) {
	if d.Total == 0 {
		fmt.Fprintln(w, "  (no DENM matched a CAM of its station)")
		return
	}
	fmt.Fprintf(w, "  %d sample(s), %.0f m buckets\n", d.Total, d.Width)
	for _, b := range d.NonEmpty() {
		fmt.Fprintf(w, "  %-12s %6d %6.1f%%  %s\n", b.Label, b.Count, b.Percentage, formatDetails(b.Stations))
	}
}

// WriteWeather renders lookup results; failed lookups show as no data.
func WriteWeather(w io.Writer, results []weather.Result) {
	for _, res := range results {
		if res.NoData {
			fmt.Fprintf(w, "  %s %s: no data\n", res.Sample.Date(), res.Sample.Position)
			continue
		}
		fmt.Fprintf(w, "  %s %s: %.1f C, code %d\n",
			res.Sample.Date(), res.Sample.Position, res.Observation.TemperatureC, res.Observation.WeatherCode)
	}
}

func formatPath(path []int64) string {
	if len(path) == 0 {
		return "-"
	}
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, " > ")
}

func formatDetails(details map[int64]int) string {
	if len(details) == 0 {
		return ""
	}
	ids := dissemination.SortedStations(details)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d:%d", id, details[id])
	}
	return "{" + strings.Join(parts, " ") + "}"
}
