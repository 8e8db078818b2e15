package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tturner/g5trace/internal/report"
)

type reportFlags struct {
	input     string
	format    string
	output    string
	bucket    int
	noWeather bool
}

func newReportCmd(gf *globalFlags) *cobra.Command {
	flags := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report [export.json]",
		Short: "Run every analysis and write one report",
		Long: `Run statistics, time series, traffic, dissemination, distance and weather
analyses concurrently and write a single report as text, JSON or CBOR.`,
		Example: `  # JSON report without weather lookups
  g5trace report capture.json --format json --output report.json --no-weather`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if err := inputArg(cmd, &flags.input, args); err != nil {
				return err
			}
			switch flags.format {
			case "text", "json", "cbor":
			default:
				return fmt.Errorf("invalid --format %q (want text, json or cbor)", flags.format)
			}
			if flags.format == "cbor" && flags.output == "" {
				return missingFlagError(cmd, "--output")
			}
			return withSession(cmd, gf, flags.input, func(s *session) error {
				return runReport(cmd, s, flags)
			})
		},
	}
	cmd.Flags().StringVar(&flags.input, "input", "", "tshark JSON export (required)")
	cmd.Flags().StringVar(&flags.format, "format", "text", "Output format: text, json or cbor")
	cmd.Flags().StringVar(&flags.output, "output", "", "Write the report to this file (required for cbor)")
	cmd.Flags().IntVar(&flags.bucket, "bucket", 0, "Time-series bucket width in minutes (default from config)")
	cmd.Flags().BoolVar(&flags.noWeather, "no-weather", false, "Skip weather lookups")
	return cmd
}

func runReport(cmd *cobra.Command, s *session, flags *reportFlags) error {
	opts := report.Options{
		Version:       version,
		BucketMinutes: s.cfg.Analysis.BucketMinutes,
		Observe:       s.observe,
	}
	if flags.bucket > 0 {
		opts.BucketMinutes = flags.bucket
	}
	if s.cfg.Weather.Enabled && !flags.noWeather {
		opts.Weather = s.weatherClient()
	}

	r, err := report.Build(cmd.Context(), s.coll, s.engine(), opts)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	switch flags.format {
	case "json":
		if flags.output != "" {
			err = report.WriteJSONFile(flags.output, r)
		} else {
			err = report.WriteJSON(s.out, r)
		}
	case "cbor":
		err = report.WriteCBORFile(flags.output, r)
	default:
		if flags.output == "" {
			report.WriteText(s.out, r)
			return nil
		}
		var f *os.File
		if f, err = os.Create(flags.output); err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		report.WriteText(f, r)
		err = f.Close()
	}
	if err != nil {
		return err
	}
	if flags.output != "" {
		s.logger.Info("Report %s written to %s", r.RunID, flags.output)
	}
	return nil
}
