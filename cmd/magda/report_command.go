package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the report from the most recent scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(cfg.ReportFile())
			if os.IsNotExist(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "No scan report found. Run a scan first.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("read scan report: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
