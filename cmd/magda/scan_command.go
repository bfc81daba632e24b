package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"magda/internal/catalog"
	"magda/internal/config"
	"magda/internal/exclusions"
	"magda/internal/logging"
	"magda/internal/plugin"
	"magda/internal/scanner"
	"magda/internal/watch"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var timeoutMs int
	var watchMode bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Discover and scan plugins in isolated subprocesses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runScan(cmd, cfg, timeoutMs, watchMode)
		},
	}
	cmd.Flags().IntVar(&timeoutMs, "timeout-ms", 0, "Per-plugin timeout override in milliseconds")
	cmd.Flags().BoolVar(&watchMode, "watch", false, "Keep running and rescan when plugin directories change")
	return cmd
}

func runScan(cmd *cobra.Command, cfg *config.Config, timeoutMs int, watchMode bool) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg, "magda")
	if err != nil {
		return err
	}

	lock := flock.New(cfg.LockFile())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire scan lock: %w", err)
	}
	if !locked {
		return errors.New("another magda instance is already running")
	}
	defer func() { _ = lock.Unlock() }()

	store := exclusions.NewStore(cfg.ExclusionFile(), logger)
	cat, err := catalog.Open(cfg.CatalogDB())
	if err != nil {
		logger.Warn("open plugin catalog", "error", err)
		cat = nil
	} else {
		defer cat.Close()
	}

	coord := scanner.New(cfg, store, logger)
	if timeoutMs > 0 {
		coord.SetPluginTimeout(time.Duration(timeoutMs) * time.Millisecond)
	}
	providers := plugin.DefaultProviders()

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runOneScan(cmd, sigCtx, cfg, coord, cat, providers, logger); err != nil {
		return err
	}
	if !watchMode {
		return nil
	}

	service := watch.New(
		plugin.SearchRoots(providers, cfg.Scan.ExtraDirs),
		time.Duration(cfg.Watch.DebounceSeconds)*time.Second,
		cfg.Watch.Schedule,
		func(reason string) {
			if coord.IsScanning() {
				logger.Info("rescan trigger ignored, scan in progress", "reason", reason)
				return
			}
			logger.Info("rescan triggered", "reason", reason)
			if err := runOneScan(cmd, sigCtx, cfg, coord, cat, providers, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("rescan failed", "error", err)
			}
		},
		logger,
	)
	return service.Start(sigCtx)
}

type scanOutcome struct {
	success bool
	found   []plugin.Descriptor
	failed  []string
}

func runOneScan(
	cmd *cobra.Command,
	runCtx context.Context,
	cfg *config.Config,
	coord *scanner.Coordinator,
	cat *catalog.Store,
	providers []plugin.FormatProvider,
	logger *slog.Logger,
) error {
	started := time.Now()
	interactive := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	onProgress := scanner.ProgressFunc(nil)
	if interactive {
		onProgress = func(p float64, label string) {
			fmt.Printf("\r[%3.0f%%] %-50.50s", p*100, filepath.Base(label))
		}
	}

	done := make(chan scanOutcome, 1)
	coord.StartScan(providers, onProgress,
		func(success bool, found []plugin.Descriptor, failed []string) {
			done <- scanOutcome{success: success, found: found, failed: failed}
		})

	select {
	case out := <-done:
		if interactive {
			fmt.Printf("\r%-58s\r", "")
		}
		if cat != nil {
			updateCatalog(cat, out, started, logger)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Scan complete: %d plugins found, %d failed (report: %s)\n",
			len(out.found), len(out.failed), cfg.ReportFile())
		if !out.success {
			return errors.New("scan did not start; see log for details")
		}
		return nil
	case <-runCtx.Done():
		coord.AbortScan()
		if interactive {
			fmt.Println()
		}
		return runCtx.Err()
	}
}

func updateCatalog(cat *catalog.Store, out scanOutcome, started time.Time, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := cat.ReplacePlugins(ctx, out.found); err != nil {
		logger.Warn("update plugin catalog", "error", err)
	}
	if err := cat.RecordScan(ctx, catalog.ScanSummary{
		StartedAt:  started,
		DurationMs: time.Since(started).Milliseconds(),
		Found:      len(out.found),
		Failed:     len(out.failed),
	}); err != nil {
		logger.Warn("record scan history", "error", err)
	}
}
