package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	gf := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "g5trace",
		Short: "ITS-G5 capture analytics",
		Long: `g5trace loads tshark JSON exports of ITS-G5 traffic, classifies frames
into CAM, DENM, GeoNetworking and plain frames, and reports statistics,
time series, traffic breakdowns and DENM multi-hop dissemination.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&gf.configPath, "config", "", "Configuration file (default g5trace.yaml)")
	pf.StringVar(&gf.logLevel, "log-level", "", "Log level: silent, error, info, verbose, debug")
	pf.StringVar(&gf.logFile, "log-file", "", "Write logs to this file")
	pf.StringVar(&gf.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile on exit")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd(gf))
	rootCmd.AddCommand(newListCmd(gf))
	rootCmd.AddCommand(newShowCmd(gf))
	rootCmd.AddCommand(newSearchCmd(gf))
	rootCmd.AddCommand(newRadiusCmd(gf))
	rootCmd.AddCommand(newTimeSeriesCmd(gf))
	rootCmd.AddCommand(newTrafficCmd(gf))
	rootCmd.AddCommand(newDisseminationCmd(gf))
	rootCmd.AddCommand(newDistanceCmd(gf))
	rootCmd.AddCommand(newHopsCmd(gf))
	rootCmd.AddCommand(newWeatherCmd(gf))
	rootCmd.AddCommand(newReportCmd(gf))
	rootCmd.AddCommand(newExportCmd(gf))
	rootCmd.AddCommand(newInspectCmd())

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != rootCmd {
			fmt.Fprintln(cmd.OutOrStdout(), cmd.UsageString())
			return
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Usage:\n  %s <command> [arguments] [options]\n\n", cmd.Name())
		fmt.Fprintf(out, "Available Commands:\n")
		for _, subCmd := range cmd.Commands() {
			if !subCmd.Hidden {
				fmt.Fprintf(out, "  %-15s %s\n", subCmd.Name(), subCmd.Short)
			}
		}
		fmt.Fprintf(out, "\nUse \"%s help <command>\" for more information about a command.\n", cmd.Name())
	})

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
