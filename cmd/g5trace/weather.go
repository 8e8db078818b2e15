package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tturner/g5trace/internal/report"
	"github.com/tturner/g5trace/internal/weather"
)

func newWeatherCmd(gf *globalFlags) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "weather [export.json]",
		Short: "Look up historical weather at CAM positions",
		Long: `Look up the archived temperature and weather code for each capture day
and CAM position (rounded to 0.01 degrees). Lookups are best-effort: a
failed lookup is reported as no data and never aborts the command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if err := inputArg(cmd, &input, args); err != nil {
				return err
			}
			return withSession(cmd, gf, input, func(s *session) error {
				if !s.cfg.Weather.Enabled {
					return fmt.Errorf("weather lookups are disabled (weather.enabled in config)")
				}
				samples := weather.SamplesFrom(s.coll.Messages())
				var results []weather.Result
				s.timed("weather", func() int {
					results = s.weatherClient().Collect(cmd.Context(), samples)
					return len(weather.Available(results))
				})
				if len(results) == 0 {
					fmt.Fprintln(s.out, "  (no timestamped CAM)")
					return nil
				}
				report.WriteWeather(s.out, results)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "tshark JSON export (required)")
	return cmd
}
