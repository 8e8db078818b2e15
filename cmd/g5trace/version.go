package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tturner/g5trace/internal/pcap"
)

func newVersionCmd() *cobra.Command {
	var tsharkPath string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "g5trace version %s\n", version)
			fmt.Fprintf(out, "commit: %s\n", commit)
			fmt.Fprintf(out, "date: %s\n", date)

			tshark, err := pcap.ResolveTsharkPath(tsharkPath)
			if err != nil {
				fmt.Fprintln(out, "tshark: not found")
				return
			}
			if v, err := pcap.TsharkVersion(tshark); err == nil {
				fmt.Fprintf(out, "tshark: %s (%s)\n", v, tshark)
			}
		},
	}
	cmd.Flags().StringVar(&tsharkPath, "tshark", "", "Path to tshark")
	return cmd
}
