package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tturner/g5trace/internal/message"
	"github.com/tturner/g5trace/internal/report"
)

func newStatsCmd(gf *globalFlags) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "stats [export.json]",
		Short: "Count messages per type",
		Example: `  # Message counts of a capture export
  g5trace stats capture.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if err := inputArg(cmd, &input, args); err != nil {
				return err
			}
			return withSession(cmd, gf, input, func(s *session) error {
				report.WriteStatistics(s.out, s.coll.Statistics())
				if first, last, ok := s.coll.TimeRange(); ok {
					fmt.Fprintf(s.out, "  First capture: %s\n", first.UTC().Format("2006-01-02 15:04:05"))
					fmt.Fprintf(s.out, "  Last capture: %s\n", last.UTC().Format("2006-01-02 15:04:05"))
				}
				if skipped := len(s.coll.Skipped()); skipped > 0 {
					fmt.Fprintf(s.out, "  Skipped records: %d\n", skipped)
				}
				if stations := s.coll.DENMStations(); len(stations) > 0 {
					fmt.Fprintf(s.out, "  DENM stations: %v\n", stations)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "tshark JSON export (required)")
	return cmd
}

func newListCmd(gf *globalFlags) *cobra.Command {
	var (
		input   string
		page    int
		perPage int
		kind    string
	)
	cmd := &cobra.Command{
		Use:   "list [export.json]",
		Short: "List messages one page at a time",
		Example: `  # Second page of 20 messages
  g5trace list capture.json --page 2 --per-page 20

  # Every DENM
  g5trace list capture.json --kind DENM`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if err := inputArg(cmd, &input, args); err != nil {
				return err
			}
			return withSession(cmd, gf, input, func(s *session) error {
				if kind != "" {
					k, ok := message.ParseKind(kind)
					if !ok {
						return fmt.Errorf("unknown message kind %q (want CAM, DENM, GeoNetworking or Frame)", kind)
					}
					report.WriteMessages(s.out, s.coll.ByKind(k))
					return nil
				}
				size := perPage
				if size <= 0 {
					size = s.cfg.Analysis.PageSize
				}
				report.WriteMessages(s.out, s.coll.Page(page, size))
				fmt.Fprintf(s.out, "Page %d of %d\n", page, s.coll.TotalPages(size))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "tshark JSON export (required)")
	cmd.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Messages per page (default from config)")
	cmd.Flags().StringVar(&kind, "kind", "", "List every message of one kind instead of paging")
	return cmd
}

func newShowCmd(gf *globalFlags) *cobra.Command {
	var (
		input  string
		frame  int
		record bool
	)
	cmd := &cobra.Command{
		Use:   "show [export.json] --frame N",
		Short: "Show one message in detail",
		Example: `  # Frame 42 and its decoded record
  g5trace show capture.json --frame 42 --record`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if err := inputArg(cmd, &input, args); err != nil {
				return err
			}
			if frame <= 0 {
				return missingFlagError(cmd, "--frame")
			}
			return withSession(cmd, gf, input, func(s *session) error {
				m, ok := s.coll.ByFrameNumber(frame)
				if !ok {
					return fmt.Errorf("frame %d not found in %s", frame, s.coll.Source())
				}
				if record {
					return report.WriteJSON(s.out, m.Record())
				}
				fmt.Fprintf(s.out, "Frame %d (%s)\n", m.FrameNumber, m.ProtocolLabel())
				fmt.Fprintf(s.out, "  Time: %s\n", m.DisplayTime())
				fmt.Fprintf(s.out, "  %s\n", m.Summary())
				if pos, ok := m.Position(); ok {
					fmt.Fprintf(s.out, "  Position: %s\n", pos)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "tshark JSON export (required)")
	cmd.Flags().IntVar(&frame, "frame", 0, "Frame number (required)")
	cmd.Flags().BoolVar(&record, "record", false, "Print the decoded record as JSON")
	return cmd
}

func newSearchCmd(gf *globalFlags) *cobra.Command {
	var (
		input   string
		pattern string
	)
	cmd := &cobra.Command{
		Use:   "search [export.json] --pattern REGEX",
		Short: "Find messages whose summary matches a pattern",
		Example: `  # Messages from station 42
  g5trace search capture.json --pattern "Station ID: 42\b"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if err := inputArg(cmd, &input, args); err != nil {
				return err
			}
			if pattern == "" {
				return missingFlagError(cmd, "--pattern")
			}
			return withSession(cmd, gf, input, func(s *session) error {
				found, err := s.coll.Search(pattern)
				if err != nil {
					return fmt.Errorf("invalid pattern: %w", err)
				}
				report.WriteMessages(s.out, found)
				fmt.Fprintf(s.out, "%d match(es)\n", len(found))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "tshark JSON export (required)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Regular expression (required)")
	return cmd
}

func newRadiusCmd(gf *globalFlags) *cobra.Command {
	var (
		input    string
		lat, lon float64
		km       float64
	)
	cmd := &cobra.Command{
		Use:   "radius [export.json] --km R",
		Short: "Find positioned messages within a radius",
		Long: `Find GeoNetworking, CAM and DENM messages within --km of a centre.
Without --lat and --lon the first positioned message is the centre.`,
		Example: `  # Messages within 2 km of the Eiffel tower
  g5trace radius capture.json --lat 48.8584 --lon 2.2945 --km 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if err := inputArg(cmd, &input, args); err != nil {
				return err
			}
			if km <= 0 {
				return missingFlagError(cmd, "--km")
			}
			centred := cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon")
			return withSession(cmd, gf, input, func(s *session) error {
				if !centred {
					pos, ok := s.coll.FirstPosition()
					if !ok {
						return fmt.Errorf("no positioned message in %s; pass --lat and --lon", s.coll.Source())
					}
					lat, lon = pos.Latitude, pos.Longitude
				}
				var found []message.Message
				s.timed("radius", func() int {
					found = s.coll.WithinRadius(lat, lon, km)
					return len(found)
				})
				fmt.Fprintf(s.out, "Within %.3f km of (%.7f, %.7f):\n", km, lat, lon)
				report.WriteMessages(s.out, found)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "tshark JSON export (required)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Centre latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Centre longitude in degrees")
	cmd.Flags().Float64Var(&km, "km", 0, "Radius in kilometres (required)")
	return cmd
}
