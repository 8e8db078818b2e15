package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tturner/g5trace/internal/collection"
	"github.com/tturner/g5trace/internal/dissemination"
	"github.com/tturner/g5trace/internal/report"
)

func newTimeSeriesCmd(gf *globalFlags) *cobra.Command {
	var (
		input  string
		bucket int
		csvOut string
	)
	cmd := &cobra.Command{
		Use:   "timeseries [export.json]",
		Short: "Count CAM, DENM and other messages per time bucket",
		Example: `  # 15 minute buckets, also written as CSV
  g5trace timeseries capture.json --bucket 15 --csv series.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if err := inputArg(cmd, &input, args); err != nil {
				return err
			}
			return withSession(cmd, gf, input, func(s *session) error {
				width := bucket
				if width <= 0 {
					width = s.cfg.Analysis.BucketMinutes
				}
				var buckets []collection.TimeBucket
				s.timed("timeseries", func() int {
					buckets = s.coll.TimeSeries(width)
					return len(buckets)
				})
				report.WriteTimeSeries(s.out, buckets)
				if csvOut != "" {
					return report.WriteTimeSeriesCSV(csvOut, buckets)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "tshark JSON export (required)")
	cmd.Flags().IntVar(&bucket, "bucket", 0, "Bucket width in minutes (default from config)")
	cmd.Flags().StringVar(&csvOut, "csv", "", "Also write the buckets to this CSV file")
	return cmd
}

func newTrafficCmd(gf *globalFlags) *cobra.Command {
	var (
		input string
		by    string
	)
	cmd := &cobra.Command{
		Use:   "traffic [export.json]",
		Short: "Count messages per link-layer address",
		Example: `  # Per-kind counts for every sender
  g5trace traffic capture.json --by detail`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if err := inputArg(cmd, &input, args); err != nil {
				return err
			}
			switch by {
			case "source", "destination", "detail":
			default:
				return fmt.Errorf("invalid --by %q (want source, destination or detail)", by)
			}
			return withSession(cmd, gf, input, func(s *session) error {
				switch by {
				case "source":
					report.WriteCounts(s.out, s.coll.TrafficBySource())
				case "destination":
					report.WriteCounts(s.out, s.coll.TrafficByDestination())
				case "detail":
					report.WriteTraffic(s.out, report.TrafficRows(s.coll.TrafficDetail()))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "tshark JSON export (required)")
	cmd.Flags().StringVar(&by, "by", "source", "Grouping: source, destination or detail")
	return cmd
}

func newDisseminationCmd(gf *globalFlags) *cobra.Command {
	var (
		input    string
		stations []int64
		verbose  bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "dissemination [export.json]",
		Short: "Reconstruct DENM multi-hop passages",
		Long: `Reconstruct the relay path of every DENM event (originating station and
sequence number). Each counted hop is matched to the nearest CAM of the same
station type within the correlation window.`,
		Example: `  # Events of stations 42 and 77, with every hop
  g5trace dissemination capture.json --station 42 --station 77 --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if err := inputArg(cmd, &input, args); err != nil {
				return err
			}
			return withSession(cmd, gf, input, func(s *session) error {
				e := s.engine()
				var passages []dissemination.Passage
				s.timed("dissemination", func() int {
					passages = e.Reconstruct(stations...)
					return len(passages)
				})
				if asJSON {
					return report.WriteJSON(s.out, passages)
				}
				report.WritePassages(s.out, passages, verbose)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "tshark JSON export (required)")
	cmd.Flags().Int64SliceVar(&stations, "station", nil, "Only events of this originating station (repeatable)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Print every counted hop")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print passages as JSON")
	return cmd
}

func newDistanceCmd(gf *globalFlags) *cobra.Command {
	var (
		input        string
		distribution bool
		csvOut       string
	)
	cmd := &cobra.Command{
		Use:   "distance [export.json]",
		Short: "Distance between DENM events and their station's CAMs",
		Long: `Correlate every DENM with the CAM of its originating station captured
closest in time. By default prints the furthest distance per station; with
--distribution prints the histogram of all distances.`,
		Example: `  # Histogram, also written as CSV
  g5trace distance capture.json --distribution --csv distances.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if err := inputArg(cmd, &input, args); err != nil {
				return err
			}
			return withSession(cmd, gf, input, func(s *session) error {
				e := s.engine()
				if !distribution && csvOut == "" {
					var rows []report.StationDistance
					s.timed("furthest", func() int {
						rows = report.FurthestRows(e.FurthestStationDistance())
						return len(rows)
					})
					report.WriteFurthest(s.out, rows)
					return nil
				}
				var d dissemination.Distribution
				s.timed("distance", func() int {
					d = e.DistanceDistribution()
					return d.Total
				})
				report.WriteDistribution(s.out, d)
				if csvOut != "" {
					return report.WriteDistributionCSV(csvOut, d)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "tshark JSON export (required)")
	cmd.Flags().BoolVar(&distribution, "distribution", false, "Print the distance histogram")
	cmd.Flags().StringVar(&csvOut, "csv", "", "Write the histogram, empty buckets included, to this CSV file")
	return cmd
}

func newHopsCmd(gf *globalFlags) *cobra.Command {
	var (
		input string
		mode  string
	)
	cmd := &cobra.Command{
		Use:   "hops [export.json]",
		Short: "Per-station hop, reception or repetition counts",
		Long: `Summarize each DENM event per originating station:
  hops        distinct hop limits over every transmission
  reception   distinct hop sequence numbers minus one
  repetition  transmissions minus one`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if err := inputArg(cmd, &input, args); err != nil {
				return err
			}
			switch mode {
			case "hops", "reception", "repetition":
			default:
				return fmt.Errorf("invalid --mode %q (want hops, reception or repetition)", mode)
			}
			return withSession(cmd, gf, input, func(s *session) error {
				e := s.engine()
				var dist map[int64][]dissemination.EventHops
				s.timed("hops_"+mode, func() int {
					switch mode {
					case "hops":
						dist = e.HopsDistribution()
					case "reception":
						dist = e.ReceptionDistribution()
					case "repetition":
						dist = e.RepetitionDistribution()
					}
					return len(dist)
				})
				report.WriteEventHops(s.out, dist)
				report.WriteHopHistogram(s.out, dissemination.HopHistogram(dist))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "tshark JSON export (required)")
	cmd.Flags().StringVar(&mode, "mode", "hops", "Distribution: hops, reception or repetition")
	return cmd
}
