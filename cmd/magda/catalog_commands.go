package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"magda/internal/catalog"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse plugins found by previous scans",
	}
	cmd.AddCommand(newCatalogListCommand(ctx))
	cmd.AddCommand(newCatalogHistoryCommand(ctx))
	return cmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cataloged plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer cat.Close()

			plugins, err := cat.Plugins(cmd.Context())
			if err != nil {
				return fmt.Errorf("read plugin catalog: %w", err)
			}
			if len(plugins) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Catalog is empty. Run a scan first.")
				return nil
			}
			rows := make([][]string, 0, len(plugins))
			for _, p := range plugins {
				kind := "Effect"
				if p.IsInstrument {
					kind = "Instrument"
				}
				rows = append(rows, []string{p.Name, p.FormatName, p.Manufacturer, p.Version, kind})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Name", "Format", "Manufacturer", "Version", "Type"}, rows))
			fmt.Fprintf(cmd.OutOrStdout(), "%s cataloged\n", pluralize(len(plugins), "plugin"))
			return nil
		},
	}
}

func newCatalogHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent scan runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer cat.Close()

			scans, err := cat.Scans(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read scan history: %w", err)
			}
			if len(scans) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No scans recorded yet.")
				return nil
			}
			rows := make([][]string, 0, len(scans))
			for _, s := range scans {
				rows = append(rows, []string{
					s.StartedAt.Local().Format(time.DateTime),
					(time.Duration(s.DurationMs) * time.Millisecond).String(),
					strconv.Itoa(s.Found),
					strconv.Itoa(s.Failed),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Started", "Duration", "Found", "Failed"}, rows, 2, 3))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of scans to show")
	return cmd
}

func openCatalog(ctx *commandContext) (*catalog.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	cat, err := catalog.Open(cfg.CatalogDB())
	if err != nil {
		return nil, fmt.Errorf("open plugin catalog: %w", err)
	}
	return cat, nil
}
