package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tturner/g5trace/internal/pcap"
)

type exportFlags struct {
	inputs     []string
	dir        string
	output     string
	tsharkPath string
}

func newExportCmd(gf *globalFlags) *cobra.Command {
	flags := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "export --input capture.pcap --output capture.json",
		Short: "Decode captures into a tshark JSON export",
		Long: `Decode one or more pcap/pcapng captures with tshark into the JSON export
every other command reads. Several captures are first merged in timestamp
order.

tshark is found via --tshark, capture.tshark_path, the TSHARK environment
variable, PATH, then the default install locations.`,
		Example: `  # Merge two captures and export them
  g5trace export --input rsu1.pcap --input rsu2.pcap --output run.json

  # Every capture under a directory
  g5trace export --dir captures/ --output run.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if len(flags.inputs) == 0 && flags.dir == "" {
				return missingFlagError(cmd, "--input or --dir")
			}
			if flags.output == "" {
				return missingFlagError(cmd, "--output")
			}
			return runExport(cmd, gf, flags)
		},
	}
	cmd.Flags().StringArrayVar(&flags.inputs, "input", nil, "Capture file (repeatable)")
	cmd.Flags().StringVar(&flags.dir, "dir", "", "Export every .pcap/.pcapng under this directory")
	cmd.Flags().StringVar(&flags.output, "output", "", "JSON export to write (required)")
	cmd.Flags().StringVar(&flags.tsharkPath, "tshark", "", "Path to tshark")
	return cmd
}

func runExport(cmd *cobra.Command, gf *globalFlags, flags *exportFlags) error {
	cfg, logger, err := setup(cmd, gf, flags.output)
	if err != nil {
		return err
	}
	defer logger.Close()

	inputs := flags.inputs
	if flags.dir != "" {
		found, err := pcap.CollectPcapFiles(flags.dir)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return fmt.Errorf("no .pcap or .pcapng files under %s", flags.dir)
		}
		inputs = append(inputs, found...)
	}

	explicit := flags.tsharkPath
	if explicit == "" {
		explicit = cfg.Capture.TsharkPath
	}
	tshark, err := pcap.ResolveTsharkPath(explicit)
	if err != nil {
		return err
	}
	logger.Verbose("Using tshark at %s", tshark)

	source := inputs[0]
	if len(inputs) > 1 {
		tmp, err := os.CreateTemp("", "g5trace-merge-*.pcap")
		if err != nil {
			return fmt.Errorf("create merge file: %w", err)
		}
		tmp.Close()
		defer os.Remove(tmp.Name())

		stats, err := pcap.Merge(inputs, tmp.Name())
		if err != nil {
			return err
		}
		logger.Info("Merged %d captures (%d packets)", stats.Inputs, stats.Packets)
		source = tmp.Name()
	}

	records, err := pcap.ExportJSON(cmd.Context(), tshark, source, flags.output)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", records, flags.output)
	return nil
}

func newInspectCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "inspect [capture.pcap]",
		Short: "Summarize a raw capture before export",
		Example: `  # Packet and GeoNetworking counts of a capture
  g5trace inspect rsu1.pcap`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if err := inputArg(cmd, &input, args); err != nil {
				return err
			}
			summary, err := pcap.Summarize(input)
			if err != nil {
				return fmt.Errorf("summarize capture: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Capture: %s\n", summary.Path)
			fmt.Fprintf(out, "  Link type: %s\n", summary.LinkType)
			fmt.Fprintf(out, "  Packets: %d\n", summary.Packets)
			fmt.Fprintf(out, "  GeoNetworking frames: %d\n", summary.GeoNetworking)
			if summary.Packets > 0 {
				fmt.Fprintf(out, "  First packet: %s\n", summary.First.UTC().Format("2006-01-02 15:04:05.000"))
				fmt.Fprintf(out, "  Last packet: %s\n", summary.Last.UTC().Format("2006-01-02 15:04:05.000"))
			}
			fmt.Fprintf(out, "  Source addresses: %d\n", len(summary.Sources))
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Capture file (required)")
	return cmd
}
