package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"magda/internal/exclusions"
	"magda/internal/logging"
)

func newExclusionsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exclusions",
		Short: "Inspect and edit the plugin exclusion list",
	}
	cmd.AddCommand(newExclusionsListCommand(ctx))
	cmd.AddCommand(newExclusionsAddCommand(ctx))
	cmd.AddCommand(newExclusionsClearCommand(ctx))
	return cmd
}

func newExclusionsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List excluded plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openExclusionStore(ctx)
			if err != nil {
				return err
			}
			entries := store.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No excluded plugins.")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{entry.Path, entry.Reason, entry.Timestamp})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Plugin", "Reason", "Excluded At"}, rows))
			fmt.Fprintf(cmd.OutOrStdout(), "%s excluded\n", pluralize(len(entries), "plugin"))
			return nil
		},
	}
}

func newExclusionsAddCommand(ctx *commandContext) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "add <plugin-path>",
		Short: "Exclude a plugin from future scans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openExclusionStore(ctx)
			if err != nil {
				return err
			}
			store.Exclude(args[0], reason)
			fmt.Fprintf(cmd.OutOrStdout(), "Excluded %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", exclusions.ReasonUnknown, "Reason to record for the exclusion")
	return cmd
}

func newExclusionsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all exclusions so every plugin is scanned again",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openExclusionStore(ctx)
			if err != nil {
				return err
			}
			count := len(store.Entries())
			store.Clear()
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", pluralize(count, "exclusion"))
			return nil
		},
	}
}

func openExclusionStore(ctx *commandContext) (*exclusions.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return exclusions.NewStore(cfg.ExclusionFile(), logging.NewNop()), nil
}

func pluralize(count int, noun string) string {
	if count == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(count) + " " + noun + "s"
}
