package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tturner/g5trace/internal/config"
)

func newConfigCmd() *cobra.Command {
	var (
		output string
		force  bool
	)
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Write a default configuration file",
		Example: `  g5trace config --output g5trace.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if _, err := os.Stat(output); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", output)
			}
			if err := config.WriteDefault(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", config.DefaultPath, "Configuration file to write")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
